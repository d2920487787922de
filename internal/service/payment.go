package service

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"

	"github.com/iurnickita/clarsix/internal/model"
	"github.com/iurnickita/clarsix/internal/store"
)

var ErrReceiverAssigned = errors.New("order already has a receiver")

const (
	msgPaymentVerified    = "Payment verified successfully!"
	msgPaymentFailed      = "Payment verification failed."
	msgPaymentNoReference = "No payment reference found."
)

// PaymentCodeView - заказ, найденный по коду оплаты.
type PaymentCodeView struct {
	Order     model.Order `json:"order"`
	CanPay    bool        `json:"can_pay"`
	IsPaid    bool        `json:"is_paid"`
	CanAssign bool        `json:"can_assign"`
}

func newPaymentCodeView(order model.Order) PaymentCodeView {
	return PaymentCodeView{
		Order:     order,
		CanPay:    order.Status == model.OrderStatusPending,
		IsPaid:    order.Funded(),
		CanAssign: !order.ReceiverID.IsSet(),
	}
}

func (service *service) PaymentCode(ctx context.Context, sess store.Session, code string) (PaymentCodeView, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return PaymentCodeView{}, ErrInsufficientData
	}
	order, err := service.client.OrderByPaymentCode(ctx, sess.Tokens.AccessToken, code)
	if err != nil {
		return PaymentCodeView{}, service.check(ctx, sess, err)
	}
	return newPaymentCodeView(order), nil
}

// AssignSelf назначает зрителя получателем заказа с кодом code.
// Запрет сделки с самим собой проверяет удаленный сервис.
func (service *service) AssignSelf(ctx context.Context, sess store.Session, code string) (PaymentCodeView, error) {
	found, err := service.PaymentCode(ctx, sess, code)
	if err != nil {
		return PaymentCodeView{}, err
	}
	order := found.Order
	if order.ReceiverID.IsSet() {
		if order.ReceiverID.Equal(sess.Viewer) {
			return found, nil
		}
		return found, ErrReceiverAssigned
	}

	updated, err := service.client.AssignReceiver(ctx, sess.Tokens.AccessToken, order.ID, sess.Viewer)
	if err != nil {
		return found, service.check(ctx, sess, err)
	}
	if updated != nil && updated.OrderID == order.OrderID {
		order = *updated
	} else {
		order.ReceiverID = sess.Viewer
	}
	return newPaymentCodeView(order), nil
}

// InitiatePayment возвращает ссылку на оплату. Оплатить можно только ожидающий заказ.
func (service *service) InitiatePayment(ctx context.Context, sess store.Session, orderID string) (string, error) {
	if orderID == "" {
		return "", ErrInsufficientData
	}
	order, err := service.client.Order(ctx, sess.Tokens.AccessToken, orderID)
	if err != nil {
		return "", service.check(ctx, sess, err)
	}
	if order.Status != model.OrderStatusPending {
		return "", ErrNotPayable
	}
	paymentURL, err := service.client.InitiatePayment(ctx, sess.Tokens.AccessToken, order.OrderID)
	if err != nil {
		return "", service.check(ctx, sess, err)
	}
	return paymentURL, nil
}

type CallbackResult struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// PaymentCallback проверяет оплату после возврата с платежной страницы.
// Отказ сервиса - это результат, а не ошибка; ошибкой остается только выход из системы.
func (service *service) PaymentCallback(ctx context.Context, sess store.Session, reference string) (CallbackResult, error) {
	reference = strings.TrimSpace(reference)
	if reference == "" {
		return CallbackResult{Message: msgPaymentNoReference}, nil
	}
	err := service.check(ctx, sess, service.client.PaymentCallback(ctx, sess.Tokens.AccessToken, reference))
	switch {
	case err == nil:
		return CallbackResult{Success: true, Message: msgPaymentVerified}, nil
	case errors.Is(err, ErrUnauthorized):
		return CallbackResult{}, err
	default:
		service.zaplog.Info("payment verification failed", zap.String("reference", reference), zap.Error(err))
		return CallbackResult{Message: msgPaymentFailed}, nil
	}
}
