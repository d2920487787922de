package lifecycle

import "github.com/iurnickita/clarsix/internal/model"

type Role string

const (
	RoleSender   Role = "sender"
	RoleReceiver Role = "receiver"
	RoleNeither  Role = "neither"
)

// ResolveRole определяет роль зрителя в заказе.
// id сравниваются в нормализованном виде: 5 и "5" - один пользователь.
func ResolveRole(order model.Order, viewer model.ID) Role {
	switch {
	case viewer.Equal(order.SenderID):
		return RoleSender
	case viewer.Equal(order.ReceiverID):
		return RoleReceiver
	}
	return RoleNeither
}
