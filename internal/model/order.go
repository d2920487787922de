package model

import "github.com/shopspring/decimal"

// Заказы

type Order struct {
	ID           ID              `json:"id"`
	OrderID      string          `json:"order_id"`
	ProductTitle string          `json:"product_title"`
	Description  string          `json:"description"`
	Amount       decimal.Decimal `json:"amount"`
	SenderID     ID              `json:"sender_id"`
	ReceiverID   ID              `json:"receiver_id,omitempty"`
	Sender       *User           `json:"sender,omitempty"`
	Receiver     *User           `json:"receiver,omitempty"`
	Status       OrderStatus     `json:"status"`
	PaymentCode  string          `json:"payment_code"`
	PaymentLink  string          `json:"payment_link,omitempty"`
	CreatedAt    Timestamp       `json:"created_at"`
	UpdatedAt    Timestamp       `json:"updated_at"`
}

// BothJoined - у заказа назначены и отправитель, и получатель.
func (o Order) BothJoined() bool {
	return o.SenderID.IsSet() && o.ReceiverID.IsSet()
}

// Funded - деньги внесены и удерживаются (или уже выплачены).
func (o Order) Funded() bool {
	switch o.Status {
	case OrderStatusPaid, OrderStatusInTransit, OrderStatusDelivered, OrderStatusCompleted:
		return true
	}
	return false
}
