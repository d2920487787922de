package model

// Счета для выплат

type AccountType string

const (
	AccountTypeBank AccountType = "bank"
	AccountTypeMomo AccountType = "momo"
)

func (t AccountType) Label() string {
	switch t {
	case AccountTypeBank:
		return "Bank Account"
	case AccountTypeMomo:
		return "Mobile Money"
	}
	return string(t)
}

type Account struct {
	ID              ID          `json:"id"`
	UserID          ID          `json:"user_id"`
	Type            AccountType `json:"type"`
	Name            string      `json:"name"`
	Number          string      `json:"number"`
	ServiceProvider string      `json:"service_provider"`
	CreatedAt       Timestamp   `json:"created_at"`
	UpdatedAt       Timestamp   `json:"updated_at"`
}

// GroupAccounts группирует счета по типу, сохраняя исходный порядок.
func GroupAccounts(accounts []Account) map[AccountType][]Account {
	groups := make(map[AccountType][]Account)
	for _, account := range accounts {
		groups[account.Type] = append(groups[account.Type], account)
	}
	return groups
}
