package apiclient

import (
	"context"
	"net/http"

	"github.com/iurnickita/clarsix/internal/model"
)

func (c *client) Orders(ctx context.Context, accessToken string) ([]model.Order, error) {
	var orders []model.Order
	_, err := c.do(c.request(ctx, accessToken), http.MethodGet, "/orders/", &orders)
	return orders, err
}

func (c *client) Order(ctx context.Context, accessToken string, orderID string) (model.Order, error) {
	req := c.request(ctx, accessToken).SetPathParam("orderId", orderID)

	var order model.Order
	_, err := c.do(req, http.MethodGet, "/orders/{orderId}", &order)
	return order, err
}

func (c *client) CreateOrder(ctx context.Context, accessToken string, reqData CreateOrderRequest) (model.Order, error) {
	req := c.request(ctx, accessToken).SetBody(reqData)

	var order model.Order
	_, err := c.do(req, http.MethodPost, "/orders/create", &order)
	return order, err
}

func (c *client) JoinOrder(ctx context.Context, accessToken string, orderID string) error {
	req := c.request(ctx, accessToken).SetBody(map[string]string{"order_id": orderID})

	_, err := c.do(req, http.MethodPost, "/orders/join", nil)
	return err
}

func (c *client) OrderByPaymentCode(ctx context.Context, accessToken string, code string) (model.Order, error) {
	req := c.request(ctx, accessToken).SetPathParam("code", code)

	var order model.Order
	_, err := c.do(req, http.MethodGet, "/orders/payment-code/{code}", &order)
	return order, err
}

// AssignReceiver адресуется внутренним числовым id заказа, а не order_id.
func (c *client) AssignReceiver(ctx context.Context, accessToken string, id model.ID, receiverID model.ID) (*model.Order, error) {
	req := c.request(ctx, accessToken).
		SetPathParam("id", id.String()).
		SetBody(map[string]model.ID{"receiver_id": receiverID})

	body, err := c.do(req, http.MethodPatch, "/orders/{id}/assign-receiver", nil)
	if err != nil {
		return nil, err
	}
	return decodeOrder(body), nil
}

func (c *client) UpdateStatus(ctx context.Context, accessToken string, orderID string, status model.OrderStatus) (*model.Order, error) {
	req := c.request(ctx, accessToken).
		SetPathParam("orderId", orderID).
		SetBody(map[string]model.OrderStatus{"status": status})

	body, err := c.do(req, http.MethodPatch, "/orders/{orderId}/status", nil)
	if err != nil {
		return nil, err
	}
	return decodeOrder(body), nil
}

func (c *client) Cancel(ctx context.Context, accessToken string, orderID string) (*model.Order, error) {
	return c.putTransition(ctx, accessToken, "/orders/cancel/{orderId}", orderID)
}

func (c *client) Restore(ctx context.Context, accessToken string, orderID string) (*model.Order, error) {
	return c.putTransition(ctx, accessToken, "/orders/restore/{orderId}", orderID)
}

func (c *client) InTransit(ctx context.Context, accessToken string, orderID string) (*model.Order, error) {
	return c.putTransition(ctx, accessToken, "/orders/in-transit/{orderId}", orderID)
}

func (c *client) Deliver(ctx context.Context, accessToken string, orderID string) (*model.Order, error) {
	return c.putTransition(ctx, accessToken, "/orders/deliver/{orderId}", orderID)
}

func (c *client) Receive(ctx context.Context, accessToken string, orderID string) (*model.Order, error) {
	return c.putTransition(ctx, accessToken, "/orders/receive/{orderId}", orderID)
}

func (c *client) putTransition(ctx context.Context, accessToken string, path string, orderID string) (*model.Order, error) {
	req := c.request(ctx, accessToken).SetPathParam("orderId", orderID)

	body, err := c.do(req, http.MethodPut, path, nil)
	if err != nil {
		return nil, err
	}
	return decodeOrder(body), nil
}
