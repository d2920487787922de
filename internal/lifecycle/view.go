package lifecycle

import (
	"context"
	"errors"
	"sync"

	"github.com/iurnickita/clarsix/internal/model"
)

var (
	ErrBusy              = errors.New("transition already in flight")
	ErrDialogOpen        = errors.New("dismiss the dialog first")
	ErrActionUnavailable = errors.New("action is not available")
	ErrAwaitDelivery     = errors.New("wait for the receiver to confirm delivery first")
)

// Mutator выполняет переход на удаленном сервисе, один вызов на действие.
// Если сервис вернул заказ, он возвращается вторым значением, иначе nil.
type Mutator interface {
	Mutate(ctx context.Context, order model.Order, action Action) (*model.Order, error)
}

type MutatorFunc func(ctx context.Context, order model.Order, action Action) (*model.Order, error)

func (f MutatorFunc) Mutate(ctx context.Context, order model.Order, action Action) (*model.Order, error) {
	return f(ctx, order, action)
}

// Dialog - блокирующее сообщение, которое нужно закрыть перед следующим действием.
type Dialog struct {
	Title   string `json:"title"`
	Message string `json:"message"`
}

var awaitDeliveryDialog = Dialog{
	Title:   "Please wait",
	Message: "Wait for the receiver to acknowledge the order is delivered before marking as received.",
}

// Snapshot - состояние представления заказа, пересчитанное из текущего заказа.
type Snapshot struct {
	Order    model.Order `json:"order"`
	Role     Role        `json:"role"`
	Progress Progress    `json:"progress"`
	Actions  []Action    `json:"actions"`
	Busy     bool        `json:"busy"`
	Error    string      `json:"error,omitempty"`
	Dialog   *Dialog     `json:"dialog,omitempty"`
}

// View - один заказ глазами одного зрителя.
// Один флаг inFlight на все действия: пока переход выполняется, остальные отклоняются.
type View struct {
	mu       sync.Mutex
	mutator  Mutator
	order    model.Order
	viewer   model.ID
	inFlight bool
	errMsg   string
	dialog   *Dialog
}

func NewView(order model.Order, viewer model.ID, mutator Mutator) *View {
	return &View{
		mutator: mutator,
		order:   order,
		viewer:  viewer,
	}
}

// Execute выполняет действие kind.
// При успехе статус заказа заменяется целевым (или заказом из ответа сервиса),
// при ошибке состояние не меняется и выставляется сообщение об ошибке.
func (v *View) Execute(ctx context.Context, kind ActionKind) error {
	v.mu.Lock()
	if v.inFlight {
		v.mu.Unlock()
		return ErrBusy
	}
	if v.dialog != nil {
		v.mu.Unlock()
		return ErrDialogOpen
	}
	action, ok := Available(v.order.Status, ResolveRole(v.order, v.viewer), kind)
	if !ok {
		v.mu.Unlock()
		return ErrActionUnavailable
	}
	// отправитель не может закрыть сделку, пока получатель не подтвердил доставку
	if action.Kind == ActionReceive && v.order.Status == model.OrderStatusInTransit {
		dialog := awaitDeliveryDialog
		v.dialog = &dialog
		v.mu.Unlock()
		return ErrAwaitDelivery
	}
	v.inFlight = true
	v.errMsg = ""
	order := v.order
	v.mu.Unlock()

	updated, err := v.mutator.Mutate(ctx, order, action)

	v.mu.Lock()
	defer v.mu.Unlock()
	v.inFlight = false
	if err != nil {
		v.errMsg = action.FailureMessage()
		return err
	}
	if updated != nil && updated.OrderID == v.order.OrderID && updated.Status.Valid() {
		v.order = *updated
	} else {
		v.order.Status = action.Target
	}
	return nil
}

func (v *View) DismissError() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.errMsg = ""
}

func (v *View) DismissDialog() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.dialog = nil
}

func (v *View) Order() model.Order {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.order
}

func (v *View) Snapshot() Snapshot {
	v.mu.Lock()
	defer v.mu.Unlock()

	role := ResolveRole(v.order, v.viewer)
	snapshot := Snapshot{
		Order:    v.order,
		Role:     role,
		Progress: Track(v.order),
		Actions:  Actions(v.order.Status, role),
		Busy:     v.inFlight,
		Error:    v.errMsg,
	}
	if v.dialog != nil {
		dialog := *v.dialog
		snapshot.Dialog = &dialog
	}
	return snapshot
}
