package model

import (
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"strings"
)

// OrderStatus - статус заказа в виде литерала, который передается по сети.
type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "pending"
	OrderStatusPaid      OrderStatus = "paid"
	OrderStatusInTransit OrderStatus = "intransit" // без подчеркивания
	OrderStatusDelivered OrderStatus = "delivered"
	OrderStatusCompleted OrderStatus = "completed"
	OrderStatusDisputed  OrderStatus = "disputed"
	OrderStatusCancelled OrderStatus = "cancelled"
)

var ErrUnknownStatus = errors.New("unknown order status")

var orderStatuses = []OrderStatus{
	OrderStatusPending,
	OrderStatusPaid,
	OrderStatusInTransit,
	OrderStatusDelivered,
	OrderStatusCompleted,
	OrderStatusDisputed,
	OrderStatusCancelled,
}

var statusSeparators = strings.NewReplacer("_", "", "-", "", " ", "")

// OrderStatuses возвращает все статусы в порядке отображения.
func OrderStatuses() []OrderStatus {
	statuses := make([]OrderStatus, len(orderStatuses))
	copy(statuses, orderStatuses)
	return statuses
}

// ParseOrderStatus приводит входящую строку к каноническому статусу.
// "in_transit", "In-Transit" и "intransit" дают OrderStatusInTransit.
func ParseOrderStatus(s string) (OrderStatus, error) {
	norm := OrderStatus(statusSeparators.Replace(strings.ToLower(strings.TrimSpace(s))))
	if norm.Valid() {
		return norm, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownStatus, s)
}

func (s OrderStatus) Valid() bool {
	return slices.Contains(orderStatuses, s)
}

func (s OrderStatus) String() string {
	return string(s)
}


func (s *OrderStatus) UnmarshalJSON(b []byte) error {
	var raw string
	if err := json.Unmarshal(b, &raw); err != nil {
		return fmt.Errorf("order status: %w", err)
	}
	status, err := ParseOrderStatus(raw)
	if err != nil {
		return err
	}
	*s = status
	return nil
}
