package apiclient

import (
	"context"
	"encoding/json"

	"github.com/shopspring/decimal"

	"github.com/iurnickita/clarsix/internal/model"
	"github.com/iurnickita/clarsix/internal/token"
)

type Client interface {
	// Авторизация и пользователи
	Login(ctx context.Context, username, password string) (token.Pair, error)
	Register(ctx context.Context, req RegisterRequest) (model.User, error)
	CurrentUser(ctx context.Context, accessToken string) (model.User, error)
	UpdateUser(ctx context.Context, accessToken string, req ProfileUpdate) (model.User, error)
	Users(ctx context.Context, accessToken string) ([]model.User, error)
	BusinessUsers(ctx context.Context, accessToken string) ([]model.User, error)
	RateUser(ctx context.Context, accessToken string, userID model.ID, rating int) error

	// Заказы
	Orders(ctx context.Context, accessToken string) ([]model.Order, error)
	Order(ctx context.Context, accessToken string, orderID string) (model.Order, error)
	CreateOrder(ctx context.Context, accessToken string, req CreateOrderRequest) (model.Order, error)
	JoinOrder(ctx context.Context, accessToken string, orderID string) error
	OrderByPaymentCode(ctx context.Context, accessToken string, code string) (model.Order, error)
	AssignReceiver(ctx context.Context, accessToken string, id model.ID, receiverID model.ID) (*model.Order, error)

	// Переходы статуса
	UpdateStatus(ctx context.Context, accessToken string, orderID string, status model.OrderStatus) (*model.Order, error)
	Cancel(ctx context.Context, accessToken string, orderID string) (*model.Order, error)
	Restore(ctx context.Context, accessToken string, orderID string) (*model.Order, error)
	InTransit(ctx context.Context, accessToken string, orderID string) (*model.Order, error)
	Deliver(ctx context.Context, accessToken string, orderID string) (*model.Order, error)
	Receive(ctx context.Context, accessToken string, orderID string) (*model.Order, error)

	// Оплата и счета
	InitiatePayment(ctx context.Context, accessToken string, orderID string) (string, error)
	PaymentCallback(ctx context.Context, accessToken string, reference string) error
	Accounts(ctx context.Context, accessToken string) ([]model.Account, error)
}

type RegisterRequest struct {
	Name             string                  `json:"name"`
	Email            string                  `json:"email"`
	Password         string                  `json:"password"`
	Contact          string                  `json:"contact"`
	IsBusiness       bool                    `json:"is_business"`
	BusinessCategory string                  `json:"business_category,omitempty"`
	SocialMediaLinks *model.SocialMediaLinks `json:"social_media_links,omitempty"`
}

// ProfileUpdate - частичное обновление профиля, пустые поля не отправляются.
type ProfileUpdate struct {
	Name             string                  `json:"name,omitempty"`
	Email            string                  `json:"email,omitempty"`
	Contact          string                  `json:"contact,omitempty"`
	DateOfBirth      string                  `json:"date_of_birth,omitempty"`
	Location         string                  `json:"location,omitempty"`
	IsBusiness       *bool                   `json:"is_business,omitempty"`
	BusinessCategory string                  `json:"business_category,omitempty"`
	SocialMediaLinks *model.SocialMediaLinks `json:"social_media_links,omitempty"`
	ProfileImage     string                  `json:"profile_image,omitempty"`
}

type CreateOrderRequest struct {
	ProductTitle string          `json:"product_title"`
	Description  string          `json:"description"`
	Amount       decimal.Decimal `json:"amount"`
	SenderID     model.ID        `json:"sender_id,omitempty"`
	ReceiverID   model.ID        `json:"receiver_id,omitempty"`
}

// MarshalJSON пишет amount числом, а не строкой, как decimal по умолчанию.
func (r CreateOrderRequest) MarshalJSON() ([]byte, error) {
	type plain CreateOrderRequest
	return json.Marshal(struct {
		plain
		Amount json.RawMessage `json:"amount"`
	}{
		plain:  plain(r),
		Amount: json.RawMessage(r.Amount.String()),
	})
}

// decodeOrder разбирает тело ответа мутации. Если там не заказ, возвращает nil.
func decodeOrder(body []byte) *model.Order {
	if len(body) == 0 {
		return nil
	}
	var order model.Order
	if err := json.Unmarshal(body, &order); err != nil || order.OrderID == "" || !order.Status.Valid() {
		return nil
	}
	return &order
}
