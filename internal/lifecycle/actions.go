package lifecycle

import "github.com/iurnickita/clarsix/internal/model"

type ActionKind string

const (
	ActionDecline       ActionKind = "decline"
	ActionRestore       ActionKind = "restore"
	ActionMarkInTransit ActionKind = "in-transit"
	ActionDeliver       ActionKind = "deliver"
	ActionReceive       ActionKind = "receive"
	ActionDispute       ActionKind = "dispute"
)

// Action - переход, доступный зрителю.
// Confirm означает, что перед выполнением нужен экран подтверждения.
type Action struct {
	Kind    ActionKind        `json:"kind"`
	Label   string            `json:"label"`
	Target  model.OrderStatus `json:"target"`
	Confirm bool              `json:"confirm"`
	failure string
}

var actionDefs = map[ActionKind]Action{
	ActionDecline: {
		Kind: ActionDecline, Label: "Decline", Target: model.OrderStatusCancelled, Confirm: true,
		failure: "Failed to cancel order",
	},
	ActionRestore: {
		Kind: ActionRestore, Label: "Restore Order", Target: model.OrderStatusPending,
		failure: "Failed to restore order",
	},
	ActionMarkInTransit: {
		Kind: ActionMarkInTransit, Label: "Mark as In Transit", Target: model.OrderStatusInTransit,
		failure: "Failed to mark as in transit",
	},
	ActionDeliver: {
		Kind: ActionDeliver, Label: "Delivered", Target: model.OrderStatusDelivered,
		failure: "Failed to mark as delivered",
	},
	ActionReceive: {
		Kind: ActionReceive, Label: "Received", Target: model.OrderStatusCompleted, Confirm: true,
		failure: "Failed to mark as received",
	},
	ActionDispute: {
		Kind: ActionDispute, Label: "Disputed", Target: model.OrderStatusDisputed, Confirm: true,
		failure: "Failed to update order status",
	},
}

type transitionKey struct {
	status model.OrderStatus
	role   Role
}

// Таблица переходов. completed, disputed и зритель без роли действий не имеют.
var transitions = map[transitionKey][]ActionKind{
	{model.OrderStatusPending, RoleSender}:     {ActionDecline},
	{model.OrderStatusPending, RoleReceiver}:   {ActionDecline},
	{model.OrderStatusCancelled, RoleReceiver}: {ActionRestore},
	{model.OrderStatusPaid, RoleReceiver}:      {ActionMarkInTransit},
	{model.OrderStatusInTransit, RoleReceiver}: {ActionDeliver, ActionDispute},
	{model.OrderStatusInTransit, RoleSender}:   {ActionReceive, ActionDispute},
	{model.OrderStatusDelivered, RoleReceiver}: {ActionDispute},
	{model.OrderStatusDelivered, RoleSender}:   {ActionReceive, ActionDispute},
}

// Actions возвращает упорядоченный список действий для пары (статус, роль).
func Actions(status model.OrderStatus, role Role) []Action {
	kinds := transitions[transitionKey{status, role}]
	actions := make([]Action, 0, len(kinds))
	for _, kind := range kinds {
		actions = append(actions, actionDefs[kind])
	}
	return actions
}

// Available ищет действие kind среди доступных для пары (статус, роль).
func Available(status model.OrderStatus, role Role, kind ActionKind) (Action, bool) {
	for _, k := range transitions[transitionKey{status, role}] {
		if k == kind {
			return actionDefs[k], true
		}
	}
	return Action{}, false
}

// ParseActionKind проверяет имя действия, пришедшее извне.
func ParseActionKind(s string) (ActionKind, bool) {
	kind := ActionKind(s)
	_, ok := actionDefs[kind]
	return kind, ok
}

// FailureMessage - текст ошибки, который видит пользователь при неудаче.
func (a Action) FailureMessage() string {
	return a.failure
}
