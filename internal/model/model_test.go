package model

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseOrderStatus(t *testing.T) {
	tests := []struct {
		in   string
		want OrderStatus
	}{
		{"pending", OrderStatusPending},
		{"PAID", OrderStatusPaid},
		{"intransit", OrderStatusInTransit},
		{"in_transit", OrderStatusInTransit},
		{"In-Transit", OrderStatusInTransit},
		{" delivered ", OrderStatusDelivered},
		{"completed", OrderStatusCompleted},
		{"disputed", OrderStatusDisputed},
		{"cancelled", OrderStatusCancelled},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseOrderStatus(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := ParseOrderStatus("shipped")
	require.ErrorIs(t, err, ErrUnknownStatus)
	_, err = ParseOrderStatus("")
	require.ErrorIs(t, err, ErrUnknownStatus)
}

func TestOrderStatusWire(t *testing.T) {
	b, err := json.Marshal(OrderStatusInTransit)
	require.NoError(t, err)
	assert.Equal(t, `"intransit"`, string(b))

	var s OrderStatus
	require.NoError(t, json.Unmarshal([]byte(`"in_transit"`), &s))
	assert.Equal(t, OrderStatusInTransit, s)

	require.Error(t, json.Unmarshal([]byte(`"lost"`), &s))
	require.Error(t, json.Unmarshal([]byte(`3`), &s))
}

func TestIDNormalization(t *testing.T) {
	var fromNumber, fromString, padded, fromFloat ID
	require.NoError(t, json.Unmarshal([]byte(`5`), &fromNumber))
	require.NoError(t, json.Unmarshal([]byte(`"5"`), &fromString))
	require.NoError(t, json.Unmarshal([]byte(`"05"`), &padded))
	require.NoError(t, json.Unmarshal([]byte(`5.0`), &fromFloat))

	assert.True(t, fromNumber.Equal(fromString))
	assert.True(t, fromNumber.Equal(padded))
	assert.True(t, fromNumber.Equal(fromFloat))
	assert.True(t, NewID(5).Equal("5"))

	var unset ID
	require.NoError(t, json.Unmarshal([]byte(`null`), &unset))
	assert.False(t, unset.IsSet())
	assert.False(t, unset.Equal(unset))

	require.Error(t, json.Unmarshal([]byte(`true`), &unset))
}

func TestIDMarshal(t *testing.T) {
	b, err := json.Marshal(struct {
		A ID `json:"a"`
		B ID `json:"b"`
		C ID `json:"c"`
		D ID `json:"d,omitempty"`
	}{A: NewID(7), B: "usr-1"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"a":7,"b":"usr-1","c":null}`, string(b))
}

func TestOrderDecode(t *testing.T) {
	body := `{
		"id": 12,
		"order_id": "ORD-001",
		"product_title": "iPhone 14 Pro",
		"description": "256GB",
		"amount": 3500.50,
		"sender_id": 1,
		"receiver_id": "2",
		"status": "in_transit",
		"payment_code": "ABC12345",
		"created_at": "2024-01-20T10:30:00Z",
		"updated_at": "2024-01-20T11:00:00.123456"
	}`

	var order Order
	require.NoError(t, json.Unmarshal([]byte(body), &order))

	assert.Equal(t, ID("12"), order.ID)
	assert.Equal(t, "ORD-001", order.OrderID)
	assert.True(t, order.Amount.Equal(decimal.RequireFromString("3500.5")))
	assert.Equal(t, OrderStatusInTransit, order.Status)
	assert.True(t, order.BothJoined())
	assert.True(t, order.Funded())
	assert.Equal(t, time.Date(2024, 1, 20, 10, 30, 0, 0, time.UTC), order.CreatedAt.UTC())
	assert.Equal(t, 11, order.UpdatedAt.Hour())

	order.ReceiverID = ""
	assert.False(t, order.BothJoined())
}

func TestUserWithRating(t *testing.T) {
	user := User{ID: NewID(3), Rating: 4, TotalRatings: 3}

	rated, err := user.WithRating(5)
	require.NoError(t, err)
	assert.InDelta(t, 4.25, rated.Rating, 1e-9)
	assert.Equal(t, 4, rated.TotalRatings)

	first, err := User{}.WithRating(3)
	require.NoError(t, err)
	assert.InDelta(t, 3.0, first.Rating, 1e-9)
	assert.Equal(t, 1, first.TotalRatings)

	_, err = user.WithRating(0)
	require.ErrorIs(t, err, ErrRatingOutOfRange)
	_, err = user.WithRating(6)
	require.ErrorIs(t, err, ErrRatingOutOfRange)
}

func TestGroupAccounts(t *testing.T) {
	groups := GroupAccounts([]Account{
		{ID: "1", Type: AccountTypeBank, Name: "Stanbic Bank"},
		{ID: "2", Type: AccountTypeMomo, Name: "MTN Mobile Money"},
		{ID: "3", Type: AccountTypeBank, Name: "GCB"},
	})
	require.Len(t, groups[AccountTypeBank], 2)
	require.Len(t, groups[AccountTypeMomo], 1)
	assert.Equal(t, "GCB", groups[AccountTypeBank][1].Name)
	assert.Equal(t, "Mobile Money", AccountTypeMomo.Label())
}
