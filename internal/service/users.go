package service

import (
	"context"
	"strings"

	"github.com/iurnickita/clarsix/internal/model"
	"github.com/iurnickita/clarsix/internal/service/apiclient"
	"github.com/iurnickita/clarsix/internal/store"
)

// Users - все пользователи, кроме самого зрителя.
// Поиск по имени, почте, категории и городу без учета регистра.
func (service *service) Users(ctx context.Context, sess store.Session, query string) ([]model.User, error) {
	users, err := service.client.Users(ctx, sess.Tokens.AccessToken)
	if err != nil {
		return nil, service.check(ctx, sess, err)
	}
	query = strings.ToLower(strings.TrimSpace(query))

	filtered := make([]model.User, 0, len(users))
	for _, user := range users {
		if user.ID.Equal(sess.Viewer) {
			continue
		}
		if !matchUser(user, query, user.Email) {
			continue
		}
		filtered = append(filtered, user)
	}
	return filtered, nil
}

func matchUser(user model.User, query string, extra ...string) bool {
	if query == "" {
		return true
	}
	fields := append([]string{user.Name, user.BusinessCategory, user.Location}, extra...)
	for _, field := range fields {
		if strings.Contains(strings.ToLower(field), query) {
			return true
		}
	}
	return false
}

// RateUser отправляет оценку и возвращает пользователя с пересчитанным
// средним, не запрашивая его заново.
func (service *service) RateUser(ctx context.Context, sess store.Session, userID model.ID, rating int) (model.User, error) {
	if !userID.IsSet() {
		return model.User{}, ErrInsufficientData
	}
	if userID.Equal(sess.Viewer) {
		return model.User{}, ErrSelfRating
	}

	users, err := service.client.Users(ctx, sess.Tokens.AccessToken)
	if err != nil {
		return model.User{}, service.check(ctx, sess, err)
	}
	var (
		target model.User
		found  bool
	)
	for _, user := range users {
		if user.ID.Equal(userID) {
			target, found = user, true
			break
		}
	}
	if !found {
		return model.User{}, ErrUserNotFound
	}

	rated, err := target.WithRating(rating)
	if err != nil {
		return model.User{}, err
	}
	if err := service.client.RateUser(ctx, sess.Tokens.AccessToken, userID, rating); err != nil {
		return model.User{}, service.check(ctx, sess, err)
	}
	return rated, nil
}

type Marketplace struct {
	Sellers    []model.User `json:"sellers"`
	Categories []string     `json:"categories"`
}

func (service *service) Marketplace(ctx context.Context, sess store.Session, query, category string) (Marketplace, error) {
	sellers, err := service.client.BusinessUsers(ctx, sess.Tokens.AccessToken)
	if err != nil {
		return Marketplace{}, service.check(ctx, sess, err)
	}
	query = strings.ToLower(strings.TrimSpace(query))

	market := Marketplace{
		Sellers:    make([]model.User, 0, len(sellers)),
		Categories: model.BusinessCategories,
	}
	for _, seller := range sellers {
		if category != "" && seller.BusinessCategory != category {
			continue
		}
		if !matchUser(seller, query) {
			continue
		}
		market.Sellers = append(market.Sellers, seller)
	}
	return market, nil
}

func (service *service) Profile(ctx context.Context, sess store.Session) (model.User, error) {
	user, err := service.client.CurrentUser(ctx, sess.Tokens.AccessToken)
	if err != nil {
		return model.User{}, service.check(ctx, sess, err)
	}
	return user, nil
}

func (service *service) UpdateProfile(ctx context.Context, sess store.Session, update apiclient.ProfileUpdate) (model.User, error) {
	user, err := service.client.UpdateUser(ctx, sess.Tokens.AccessToken, update)
	if err != nil {
		return model.User{}, service.check(ctx, sess, err)
	}
	return user, nil
}

type AccountGroup struct {
	Type     model.AccountType `json:"type"`
	Label    string            `json:"label"`
	Accounts []model.Account   `json:"accounts"`
}

type Accounts struct {
	Total  int            `json:"total"`
	Groups []AccountGroup `json:"groups"`
}

// Accounts - счета для выплат, сгруппированные по типу: сначала банковские, затем mobile money.
func (service *service) Accounts(ctx context.Context, sess store.Session) (Accounts, error) {
	accounts, err := service.client.Accounts(ctx, sess.Tokens.AccessToken)
	if err != nil {
		return Accounts{}, service.check(ctx, sess, err)
	}

	grouped := model.GroupAccounts(accounts)
	result := Accounts{Total: len(accounts), Groups: []AccountGroup{}}
	for _, accountType := range []model.AccountType{model.AccountTypeBank, model.AccountTypeMomo} {
		if len(grouped[accountType]) == 0 {
			continue
		}
		result.Groups = append(result.Groups, AccountGroup{
			Type:     accountType,
			Label:    accountType.Label(),
			Accounts: grouped[accountType],
		})
	}
	return result, nil
}
