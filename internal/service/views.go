package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/iurnickita/clarsix/internal/events"
	"github.com/iurnickita/clarsix/internal/lifecycle"
	"github.com/iurnickita/clarsix/internal/model"
	"github.com/iurnickita/clarsix/internal/service/apiclient"
	"github.com/iurnickita/clarsix/internal/store"
)

// viewTTL - сколько живет представление заказа без обращений.
const viewTTL = time.Hour

type viewKey struct {
	session string
	order   string
}

type viewEntry struct {
	view    *lifecycle.View
	touched time.Time
}

// views - открытые представления заказов, по одному на сессию и заказ.
// Представления разных сессий не синхронизируются друг с другом.
type views struct {
	mu      sync.Mutex
	entries map[viewKey]*viewEntry
}

func newViews() *views {
	return &views{entries: make(map[viewKey]*viewEntry)}
}

func (v *views) put(key viewKey, view *lifecycle.View, now time.Time) {
	v.mu.Lock()
	defer v.mu.Unlock()
	for k, entry := range v.entries {
		if now.Sub(entry.touched) > viewTTL {
			delete(v.entries, k)
		}
	}
	v.entries[key] = &viewEntry{view: view, touched: now}
}

func (v *views) get(key viewKey, now time.Time) (*lifecycle.View, bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	entry, ok := v.entries[key]
	if !ok {
		return nil, false
	}
	entry.touched = now
	return entry.view, true
}

func (v *views) dropSession(sessionID string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	for k := range v.entries {
		if k.session == sessionID {
			delete(v.entries, k)
		}
	}
}

// orderMutator отправляет переход на удаленный сервис от имени сессии.
type orderMutator struct {
	client      apiclient.Client
	accessToken string
}

func (m orderMutator) Mutate(ctx context.Context, order model.Order, action lifecycle.Action) (*model.Order, error) {
	switch action.Kind {
	case lifecycle.ActionDecline:
		return m.client.Cancel(ctx, m.accessToken, order.OrderID)
	case lifecycle.ActionRestore:
		return m.client.Restore(ctx, m.accessToken, order.OrderID)
	case lifecycle.ActionMarkInTransit:
		return m.client.InTransit(ctx, m.accessToken, order.OrderID)
	case lifecycle.ActionDeliver:
		return m.client.Deliver(ctx, m.accessToken, order.OrderID)
	case lifecycle.ActionReceive:
		return m.client.Receive(ctx, m.accessToken, order.OrderID)
	case lifecycle.ActionDispute:
		return m.client.UpdateStatus(ctx, m.accessToken, order.OrderID, model.OrderStatusDisputed)
	}
	return nil, fmt.Errorf("%w: %s", lifecycle.ErrActionUnavailable, action.Kind)
}

// OpenOrder заново загружает заказ и заменяет представление сессии.
func (service *service) OpenOrder(ctx context.Context, sess store.Session, orderID string) (lifecycle.Snapshot, error) {
	view, err := service.openView(ctx, sess, orderID)
	if err != nil {
		return lifecycle.Snapshot{}, err
	}
	return view.Snapshot(), nil
}

func (service *service) openView(ctx context.Context, sess store.Session, orderID string) (*lifecycle.View, error) {
	if orderID == "" {
		return nil, ErrInsufficientData
	}
	order, err := service.client.Order(ctx, sess.Tokens.AccessToken, orderID)
	if err != nil {
		return nil, service.check(ctx, sess, err)
	}
	mutator := orderMutator{client: service.client, accessToken: sess.Tokens.AccessToken}
	view := lifecycle.NewView(order, sess.Viewer, mutator)
	service.views.put(viewKey{session: sess.ID, order: orderID}, view, service.now())
	return view, nil
}

// view возвращает открытое представление, при необходимости открывая его.
func (service *service) view(ctx context.Context, sess store.Session, orderID string) (*lifecycle.View, error) {
	if view, ok := service.views.get(viewKey{session: sess.ID, order: orderID}, service.now()); ok {
		return view, nil
	}
	return service.openView(ctx, sess, orderID)
}

// ExecuteAction выполняет переход. Снимок возвращается и при ошибке:
// в нем сообщение об ошибке или диалог.
func (service *service) ExecuteAction(ctx context.Context, sess store.Session, orderID string, kind lifecycle.ActionKind) (lifecycle.Snapshot, error) {
	view, err := service.view(ctx, sess, orderID)
	if err != nil {
		return lifecycle.Snapshot{}, err
	}

	// уход клиента не отменяет переход: ответ просто никто не прочтет
	ctx = context.WithoutCancel(ctx)
	before := view.Order()
	err = view.Execute(ctx, kind)
	snapshot := view.Snapshot()
	if err != nil {
		return snapshot, service.check(ctx, sess, err)
	}

	service.publish(ctx, events.Transition{
		OrderID:    before.OrderID,
		Action:     string(kind),
		From:       before.Status,
		To:         snapshot.Order.Status,
		Viewer:     sess.Viewer,
		Role:       string(lifecycle.ResolveRole(before, sess.Viewer)),
		OccurredAt: service.now().UTC(),
	})
	return snapshot, nil
}

func (service *service) DismissError(ctx context.Context, sess store.Session, orderID string) (lifecycle.Snapshot, error) {
	view, err := service.view(ctx, sess, orderID)
	if err != nil {
		return lifecycle.Snapshot{}, err
	}
	view.DismissError()
	return view.Snapshot(), nil
}

func (service *service) DismissDialog(ctx context.Context, sess store.Session, orderID string) (lifecycle.Snapshot, error) {
	view, err := service.view(ctx, sess, orderID)
	if err != nil {
		return lifecycle.Snapshot{}, err
	}
	view.DismissDialog()
	return view.Snapshot(), nil
}

// publish не влияет на результат перехода: ошибка только логируется.
func (service *service) publish(ctx context.Context, transition events.Transition) {
	if err := service.publisher.Publish(ctx, transition); err != nil {
		service.zaplog.Warn("transition publish failed",
			zap.String("order_id", transition.OrderID),
			zap.String("action", transition.Action),
			zap.Error(err),
		)
	}
}
