// Package order holds the delivery record a call is about and the stores that
// persist it.
package order

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	contractx "github.com/tanpawarit/Chative-Last-Mile-Voice-Agent/agent/contract"
)

type Status string

const (
	StatusPending   Status = "pending"
	StatusScheduled Status = "scheduled"
	StatusCancelled Status = "cancelled"
	StatusFailed    Status = "failed"
)

// NeighborDeliveryMarker is stored as the scheduled date of an order handed
// to a neighbor or security guard instead of the customer.
const NeighborDeliveryMarker = "neighbor"

var (
	ErrOrderNotFound  = fmt.Errorf("%w: %w", contractx.ErrPrecondition, contractx.ErrOrderNotFound)
	ErrInvalidOrder   = fmt.Errorf("%w: invalid order", contractx.ErrValidation)
	ErrDateNotOffered = fmt.Errorf("%w: date was not offered", contractx.ErrValidation)
	ErrEmptyOrderID   = errors.New("order id is empty")
)

type Order struct {
	OrderID        string   `json:"order_id"`
	CustomerName   string   `json:"customer_name"`
	Phone          string   `json:"phone"`
	AvailableDates []string `json:"available_dates"`
	Status         Status   `json:"status"`
	ScheduledDate  string   `json:"scheduled_date,omitempty"`
	NeighborName   string   `json:"neighbor_name,omitempty"`
	NeighborPhone  string   `json:"neighbor_phone,omitempty"`
}

func (o *Order) Clone() *Order {
	if o == nil {
		return nil
	}
	c := *o
	c.AvailableDates = slices.Clone(o.AvailableDates)
	return &c
}

// Schedule books delivery to the customer on one of the offered dates.
func (o *Order) Schedule(date string) error {
	if !slices.Contains(o.AvailableDates, date) {
		return fmt.Errorf("%w: order=%s date=%q", ErrDateNotOffered, o.OrderID, date)
	}
	o.Status = StatusScheduled
	o.ScheduledDate = date
	o.NeighborName = ""
	o.NeighborPhone = ""
	return nil
}

// ScheduleNeighbor books delivery to a neighbor or security guard.
func (o *Order) ScheduleNeighbor(name, phone string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return fmt.Errorf("%w: neighbor name is empty for order=%s", contractx.ErrValidation, o.OrderID)
	}
	o.Status = StatusScheduled
	o.ScheduledDate = NeighborDeliveryMarker
	o.NeighborName = name
	o.NeighborPhone = strings.TrimSpace(phone)
	return nil
}

func (o *Order) Cancel() {
	o.Status = StatusCancelled
	o.ScheduledDate = ""
	o.NeighborName = ""
	o.NeighborPhone = ""
}

func (o *Order) MarkFailed() {
	o.Status = StatusFailed
}

// Validate checks the record-level invariants tying status to the date and
// neighbor fields.
func (o *Order) Validate() error {
	if o == nil {
		return fmt.Errorf("%w: nil order", ErrInvalidOrder)
	}
	if strings.TrimSpace(o.OrderID) == "" {
		return fmt.Errorf("%w: %w", ErrInvalidOrder, ErrEmptyOrderID)
	}

	switch o.Status {
	case StatusPending, StatusFailed:
	case StatusScheduled:
		if o.ScheduledDate == "" {
			return fmt.Errorf("%w: scheduled order=%s has no date", ErrInvalidOrder, o.OrderID)
		}
		if o.ScheduledDate != NeighborDeliveryMarker && !slices.Contains(o.AvailableDates, o.ScheduledDate) {
			return fmt.Errorf("%w: order=%s scheduled on unoffered date %q", ErrInvalidOrder, o.OrderID, o.ScheduledDate)
		}
	case StatusCancelled:
		if o.ScheduledDate != "" || o.NeighborName != "" || o.NeighborPhone != "" {
			return fmt.Errorf("%w: cancelled order=%s still carries delivery fields", ErrInvalidOrder, o.OrderID)
		}
	default:
		return fmt.Errorf("%w: order=%s has unknown status %q", ErrInvalidOrder, o.OrderID, o.Status)
	}
	return nil
}

// IsNeighborDelivery reports whether the order was handed to a neighbor.
func (o *Order) IsNeighborDelivery() bool {
	return o != nil && o.Status == StatusScheduled && o.ScheduledDate == NeighborDeliveryMarker
}
