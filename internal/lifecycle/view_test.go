package lifecycle

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iurnickita/clarsix/internal/model"
)

type recordingMutator struct {
	calls   atomic.Int32
	actions []ActionKind
	result  *model.Order
	err     error
}

func (m *recordingMutator) Mutate(_ context.Context, _ model.Order, action Action) (*model.Order, error) {
	m.calls.Add(1)
	m.actions = append(m.actions, action.Kind)
	return m.result, m.err
}

func order(status model.OrderStatus) model.Order {
	return model.Order{OrderID: "ORD-1", SenderID: "1", ReceiverID: "2", Status: status}
}

func TestViewMarkInTransit(t *testing.T) {
	mutator := &recordingMutator{}
	view := NewView(order(model.OrderStatusPaid), model.NewID(2), mutator)

	snapshot := view.Snapshot()
	assert.Equal(t, RoleReceiver, snapshot.Role)
	assert.Equal(t, []ActionKind{ActionMarkInTransit}, kinds(snapshot.Actions))

	require.NoError(t, view.Execute(context.Background(), ActionMarkInTransit))
	assert.Equal(t, model.OrderStatusInTransit, view.Order().Status)
	assert.Equal(t, []ActionKind{ActionMarkInTransit}, mutator.actions)

	snapshot = view.Snapshot()
	assert.Equal(t, []ActionKind{ActionDeliver, ActionDispute}, kinds(snapshot.Actions))
	assert.Equal(t, 3, snapshot.Progress.Current)
}

func TestViewReceivedGuard(t *testing.T) {
	mutator := &recordingMutator{}
	view := NewView(order(model.OrderStatusInTransit), model.NewID(1), mutator)

	err := view.Execute(context.Background(), ActionReceive)
	require.ErrorIs(t, err, ErrAwaitDelivery)
	assert.Zero(t, mutator.calls.Load())
	assert.Equal(t, model.OrderStatusInTransit, view.Order().Status)

	snapshot := view.Snapshot()
	require.NotNil(t, snapshot.Dialog)
	assert.Equal(t, "Please wait", snapshot.Dialog.Title)

	// пока диалог открыт, действия не выполняются
	require.ErrorIs(t, view.Execute(context.Background(), ActionDispute), ErrDialogOpen)
	assert.Zero(t, mutator.calls.Load())

	view.DismissDialog()
	assert.Nil(t, view.Snapshot().Dialog)

	require.ErrorIs(t, view.Execute(context.Background(), ActionReceive), ErrAwaitDelivery)
	assert.Zero(t, mutator.calls.Load())
}

func TestViewReceivedFromDelivered(t *testing.T) {
	mutator := &recordingMutator{}
	view := NewView(order(model.OrderStatusDelivered), model.NewID(1), mutator)

	require.NoError(t, view.Execute(context.Background(), ActionReceive))
	assert.EqualValues(t, 1, mutator.calls.Load())
	assert.Equal(t, model.OrderStatusCompleted, view.Order().Status)
	assert.Empty(t, view.Snapshot().Actions)
}

func TestViewRestoreCancelled(t *testing.T) {
	mutator := &recordingMutator{}
	view := NewView(order(model.OrderStatusCancelled), model.NewID(2), mutator)

	assert.Equal(t, []ActionKind{ActionRestore}, kinds(view.Snapshot().Actions))
	require.NoError(t, view.Execute(context.Background(), ActionRestore))
	assert.Equal(t, model.OrderStatusPending, view.Order().Status)
}

func TestViewFailureKeepsState(t *testing.T) {
	remoteErr := errors.New("invalid transition")
	mutator := &recordingMutator{err: remoteErr}
	view := NewView(order(model.OrderStatusPaid), model.NewID(2), mutator)

	err := view.Execute(context.Background(), ActionMarkInTransit)
	require.ErrorIs(t, err, remoteErr)
	assert.Equal(t, model.OrderStatusPaid, view.Order().Status)

	snapshot := view.Snapshot()
	assert.Equal(t, "Failed to mark as in transit", snapshot.Error)
	assert.False(t, snapshot.Busy)

	view.DismissError()
	assert.Empty(t, view.Snapshot().Error)
	assert.EqualValues(t, 1, mutator.calls.Load())
}

func TestViewUnavailableAction(t *testing.T) {
	mutator := &recordingMutator{}

	view := NewView(order(model.OrderStatusPaid), model.NewID(1), mutator)
	require.ErrorIs(t, view.Execute(context.Background(), ActionMarkInTransit), ErrActionUnavailable)

	stranger := NewView(order(model.OrderStatusPending), model.NewID(42), mutator)
	require.ErrorIs(t, stranger.Execute(context.Background(), ActionDecline), ErrActionUnavailable)

	completed := NewView(order(model.OrderStatusCompleted), model.NewID(1), mutator)
	require.ErrorIs(t, completed.Execute(context.Background(), ActionDispute), ErrActionUnavailable)

	assert.Zero(t, mutator.calls.Load())
}

func TestViewAdoptsServerOrder(t *testing.T) {
	server := order(model.OrderStatusInTransit)
	server.Description = "updated by server"
	mutator := &recordingMutator{result: &server}
	view := NewView(order(model.OrderStatusPaid), model.NewID(2), mutator)

	require.NoError(t, view.Execute(context.Background(), ActionMarkInTransit))
	assert.Equal(t, "updated by server", view.Order().Description)

	other := order(model.OrderStatusCompleted)
	other.OrderID = "ORD-2"
	mutator.result = &other
	require.NoError(t, view.Execute(context.Background(), ActionDeliver))
	assert.Equal(t, model.OrderStatusDelivered, view.Order().Status)
	assert.Equal(t, "ORD-1", view.Order().OrderID)
}

func TestViewSingleInFlight(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	var calls atomic.Int32
	mutator := MutatorFunc(func(_ context.Context, _ model.Order, _ Action) (*model.Order, error) {
		calls.Add(1)
		close(started)
		<-release
		return nil, nil
	})
	view := NewView(order(model.OrderStatusInTransit), model.NewID(2), mutator)

	done := make(chan error, 1)
	go func() {
		done <- view.Execute(context.Background(), ActionDeliver)
	}()
	<-started

	assert.True(t, view.Snapshot().Busy)
	// повторное нажатие и другое действие отклоняются общим флагом
	require.ErrorIs(t, view.Execute(context.Background(), ActionDeliver), ErrBusy)
	require.ErrorIs(t, view.Execute(context.Background(), ActionDispute), ErrBusy)

	close(release)
	require.NoError(t, <-done)
	assert.EqualValues(t, 1, calls.Load())
	assert.Equal(t, model.OrderStatusDelivered, view.Order().Status)
	assert.False(t, view.Snapshot().Busy)
}
