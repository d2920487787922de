package lifecycle

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iurnickita/clarsix/internal/model"
)

func kinds(actions []Action) []ActionKind {
	out := make([]ActionKind, 0, len(actions))
	for _, a := range actions {
		out = append(out, a.Kind)
	}
	return out
}

func TestResolveRole(t *testing.T) {
	var order model.Order
	require.NoError(t, json.Unmarshal([]byte(`{"order_id":"ORD-1","sender_id":5,"receiver_id":"7","status":"pending"}`), &order))

	assert.Equal(t, RoleSender, ResolveRole(order, "5"))
	assert.Equal(t, RoleSender, ResolveRole(order, model.NewID(5)))
	assert.Equal(t, RoleReceiver, ResolveRole(order, model.NewID(7)))
	assert.Equal(t, RoleReceiver, ResolveRole(order, "07"))
	assert.Equal(t, RoleNeither, ResolveRole(order, "9"))
	assert.Equal(t, RoleNeither, ResolveRole(order, ""))

	order.ReceiverID = ""
	assert.Equal(t, RoleNeither, ResolveRole(order, ""))
}

func TestActionsTable(t *testing.T) {
	tests := []struct {
		status model.OrderStatus
		role   Role
		want   []ActionKind
	}{
		{model.OrderStatusPending, RoleSender, []ActionKind{ActionDecline}},
		{model.OrderStatusPending, RoleReceiver, []ActionKind{ActionDecline}},
		{model.OrderStatusCancelled, RoleReceiver, []ActionKind{ActionRestore}},
		{model.OrderStatusPaid, RoleReceiver, []ActionKind{ActionMarkInTransit}},
		{model.OrderStatusInTransit, RoleReceiver, []ActionKind{ActionDeliver, ActionDispute}},
		{model.OrderStatusInTransit, RoleSender, []ActionKind{ActionReceive, ActionDispute}},
		{model.OrderStatusDelivered, RoleReceiver, []ActionKind{ActionDispute}},
		{model.OrderStatusDelivered, RoleSender, []ActionKind{ActionReceive, ActionDispute}},
	}
	for _, tt := range tests {
		t.Run(string(tt.status)+"/"+string(tt.role), func(t *testing.T) {
			assert.Equal(t, tt.want, kinds(Actions(tt.status, tt.role)))
		})
	}
}

func TestActionsOutsideTableAreEmpty(t *testing.T) {
	allowed := map[transitionKey]bool{}
	for key := range transitions {
		allowed[key] = true
	}
	for _, status := range model.OrderStatuses() {
		for _, role := range []Role{RoleSender, RoleReceiver, RoleNeither} {
			if allowed[transitionKey{status, role}] {
				continue
			}
			assert.Empty(t, Actions(status, role), "%s/%s", status, role)
		}
	}
	assert.Empty(t, Actions(model.OrderStatusCompleted, RoleSender))
	assert.Empty(t, Actions(model.OrderStatusDisputed, RoleReceiver))
	assert.Empty(t, Actions(model.OrderStatusPending, RoleNeither))
	assert.Empty(t, Actions(model.OrderStatusCancelled, RoleSender))
}

func TestActionTargets(t *testing.T) {
	targets := map[ActionKind]model.OrderStatus{
		ActionDecline:       model.OrderStatusCancelled,
		ActionRestore:       model.OrderStatusPending,
		ActionMarkInTransit: model.OrderStatusInTransit,
		ActionDeliver:       model.OrderStatusDelivered,
		ActionReceive:       model.OrderStatusCompleted,
		ActionDispute:       model.OrderStatusDisputed,
	}
	for kind, target := range targets {
		action, ok := actionDefs[kind]
		require.True(t, ok)
		assert.Equal(t, target, action.Target)
		assert.NotEmpty(t, action.FailureMessage())
	}
}

func TestAvailable(t *testing.T) {
	action, ok := Available(model.OrderStatusPaid, RoleReceiver, ActionMarkInTransit)
	require.True(t, ok)
	assert.Equal(t, "Mark as In Transit", action.Label)

	_, ok = Available(model.OrderStatusPaid, RoleSender, ActionMarkInTransit)
	assert.False(t, ok)

	kind, ok := ParseActionKind("in-transit")
	require.True(t, ok)
	assert.Equal(t, ActionMarkInTransit, kind)
	_, ok = ParseActionKind("refund")
	assert.False(t, ok)
}
