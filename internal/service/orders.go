package service

import (
	"context"
	"slices"
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/iurnickita/clarsix/internal/lifecycle"
	"github.com/iurnickita/clarsix/internal/model"
	"github.com/iurnickita/clarsix/internal/service/apiclient"
	"github.com/iurnickita/clarsix/internal/store"
)

const recentOrdersCount = 5

type Dashboard struct {
	User   model.User                `json:"user"`
	Total  int                       `json:"total"`
	Counts map[model.OrderStatus]int `json:"counts"`
	Recent []model.Order             `json:"recent"`
}

// Dashboard запрашивает пользователя и заказы параллельно.
func (service *service) Dashboard(ctx context.Context, sess store.Session) (Dashboard, error) {
	var (
		user   model.User
		orders []model.Order
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		user, err = service.client.CurrentUser(gctx, sess.Tokens.AccessToken)
		return err
	})
	g.Go(func() error {
		var err error
		orders, err = service.client.Orders(gctx, sess.Tokens.AccessToken)
		return err
	})
	if err := g.Wait(); err != nil {
		return Dashboard{}, service.check(ctx, sess, err)
	}

	dashboard := Dashboard{
		User:   user,
		Total:  len(orders),
		Counts: make(map[model.OrderStatus]int),
	}
	for _, status := range model.OrderStatuses() {
		dashboard.Counts[status] = 0
	}
	for _, order := range orders {
		dashboard.Counts[order.Status]++
	}

	recent := slices.Clone(orders)
	slices.SortStableFunc(recent, func(a, b model.Order) int {
		return b.CreatedAt.Compare(a.CreatedAt.Time)
	})
	if len(recent) > recentOrdersCount {
		recent = recent[:recentOrdersCount]
	}
	dashboard.Recent = recent
	return dashboard, nil
}

type OrderFilter struct {
	Query  string
	Status model.OrderStatus // пустой - все статусы
}

func (service *service) Orders(ctx context.Context, sess store.Session, filter OrderFilter) ([]model.Order, error) {
	orders, err := service.client.Orders(ctx, sess.Tokens.AccessToken)
	if err != nil {
		return nil, service.check(ctx, sess, err)
	}
	return filterOrders(orders, filter), nil
}

// filterOrders: поиск без учета регистра по названию, номеру заказа и коду оплаты.
func filterOrders(orders []model.Order, filter OrderFilter) []model.Order {
	query := strings.ToLower(strings.TrimSpace(filter.Query))
	filtered := make([]model.Order, 0, len(orders))
	for _, order := range orders {
		if filter.Status != "" && order.Status != filter.Status {
			continue
		}
		if query != "" &&
			!strings.Contains(strings.ToLower(order.ProductTitle), query) &&
			!strings.Contains(strings.ToLower(order.OrderID), query) &&
			!strings.Contains(strings.ToLower(order.PaymentCode), query) {
			continue
		}
		filtered = append(filtered, order)
	}
	return filtered
}

// NewOrder - заказ от создателя. Role - роль создателя, по умолчанию получатель.
// CounterpartyID - вторая сторона, если известна.
type NewOrder struct {
	ProductTitle   string
	Description    string
	Amount         decimal.Decimal
	Role           lifecycle.Role
	CounterpartyID model.ID
}

func (service *service) CreateOrder(ctx context.Context, sess store.Session, order NewOrder) (model.Order, error) {
	if strings.TrimSpace(order.ProductTitle) == "" {
		return model.Order{}, ErrInsufficientData
	}
	if !order.Amount.IsPositive() {
		return model.Order{}, ErrInvalidAmount
	}

	req := apiclient.CreateOrderRequest{
		ProductTitle: order.ProductTitle,
		Description:  order.Description,
		Amount:       order.Amount,
	}
	switch order.Role {
	case lifecycle.RoleReceiver, "":
		req.ReceiverID = sess.Viewer
		req.SenderID = order.CounterpartyID
	case lifecycle.RoleSender:
		req.SenderID = sess.Viewer
		req.ReceiverID = order.CounterpartyID
	default:
		return model.Order{}, ErrInvalidRole
	}

	created, err := service.client.CreateOrder(ctx, sess.Tokens.AccessToken, req)
	if err != nil {
		return model.Order{}, service.check(ctx, sess, err)
	}
	return created, nil
}

// PreviewOrder - заказ до присоединения к нему.
func (service *service) PreviewOrder(ctx context.Context, sess store.Session, orderID string) (model.Order, error) {
	if orderID == "" {
		return model.Order{}, ErrInsufficientData
	}
	order, err := service.client.Order(ctx, sess.Tokens.AccessToken, orderID)
	if err != nil {
		return model.Order{}, service.check(ctx, sess, err)
	}
	return order, nil
}

func (service *service) JoinOrder(ctx context.Context, sess store.Session, orderID string, agreed bool) error {
	if orderID == "" {
		return ErrInsufficientData
	}
	if !agreed {
		return ErrNotAgreed
	}
	return service.check(ctx, sess, service.client.JoinOrder(ctx, sess.Tokens.AccessToken, orderID))
}
