// Package lifecycle описывает жизненный цикл заказа на стороне клиента:
// прогресс, роль зрителя, доступные действия и их выполнение.
package lifecycle

import "github.com/iurnickita/clarsix/internal/model"

// Порядок продвижения заказа. disputed и cancelled - ответвления, а не шаги.
var progression = map[model.OrderStatus]int{
	model.OrderStatusPending:   0,
	model.OrderStatusPaid:      1,
	model.OrderStatusInTransit: 2,
	model.OrderStatusDelivered: 3,
	model.OrderStatusCompleted: 4,
}

// Rank возвращает позицию статуса в основной цепочке.
func Rank(status model.OrderStatus) (int, bool) {
	rank, ok := progression[status]
	return rank, ok
}

type MilestoneState string

const (
	MilestoneComplete MilestoneState = "complete"
	MilestoneCurrent  MilestoneState = "current"
	MilestonePending  MilestoneState = "pending"
)

type Milestone struct {
	Label    string         `json:"label"`
	Complete bool           `json:"complete"`
	State    MilestoneState `json:"state"`
}

// Progress - этапы заказа для отображения. Current равен -1, если все этапы пройдены.
type Progress struct {
	Milestones []Milestone `json:"milestones"`
	Current    int         `json:"current"`
}

type milestone struct {
	label    string
	complete func(order model.Order) bool
}

// Каждый этап проверяется своим предикатом, а не сравнением индексов.
var milestones = []milestone{
	{
		label:    "Both Parties Joined",
		complete: model.Order.BothJoined,
	},
	{
		label:    "Funds in Clarsix Hold",
		complete: model.Order.Funded,
	},
	{
		label: "In Transit",
		complete: func(order model.Order) bool {
			return statusIn(order.Status, model.OrderStatusInTransit, model.OrderStatusDelivered, model.OrderStatusCompleted)
		},
	},
	{
		label: "Package Delivered",
		complete: func(order model.Order) bool {
			return statusIn(order.Status, model.OrderStatusDelivered, model.OrderStatusCompleted)
		},
	},
	{
		label: "Funds Released",
		complete: func(order model.Order) bool {
			return order.Status == model.OrderStatusCompleted
		},
	},
}

// Track строит прогресс заказа. Результат ничего не ограничивает,
// спорный или отмененный заказ показывает те этапы, которые успел пройти.
func Track(order model.Order) Progress {
	progress := Progress{
		Milestones: make([]Milestone, 0, len(milestones)),
		Current:    -1,
	}
	for i, m := range milestones {
		step := Milestone{Label: m.label, Complete: m.complete(order)}
		switch {
		case step.Complete:
			step.State = MilestoneComplete
		case progress.Current == -1:
			progress.Current = i
			step.State = MilestoneCurrent
		default:
			step.State = MilestonePending
		}
		progress.Milestones = append(progress.Milestones, step)
	}
	return progress
}

func statusIn(status model.OrderStatus, set ...model.OrderStatus) bool {
	for _, s := range set {
		if status == s {
			return true
		}
	}
	return false
}
