package order

import (
	"context"
	"fmt"
	"strings"
)

// Store is the order persistence contract used by the dialogue engine and the
// call loop. Every mutator is a read-modify-write of exactly one record.
type Store interface {
	FindByPhone(ctx context.Context, phone string) (*Order, error)
	ScheduleDelivery(ctx context.Context, orderID, date string) error
	ScheduleNeighborDelivery(ctx context.Context, orderID, neighborName, neighborPhone string) error
	Cancel(ctx context.Context, orderID string) error
	MarkFailed(ctx context.Context, orderID string) error
}

// Mutation changes one loaded order in place.
type Mutation func(o *Order) error

func ScheduleMutation(date string) Mutation {
	return func(o *Order) error {
		return o.Schedule(date)
	}
}

func NeighborMutation(name, phone string) Mutation {
	return func(o *Order) error {
		return o.ScheduleNeighbor(name, phone)
	}
}

func CancelMutation() Mutation {
	return func(o *Order) error {
		o.Cancel()
		return nil
	}
}

func FailedMutation() Mutation {
	return func(o *Order) error {
		o.MarkFailed()
		return nil
	}
}

// applyToSet finds orderID in orders, applies m to it and validates the
// result. orders is left untouched when an error is returned.
func applyToSet(orders []*Order, orderID string, m Mutation) error {
	id := strings.TrimSpace(orderID)
	if id == "" {
		return fmt.Errorf("%w: %w", ErrInvalidOrder, ErrEmptyOrderID)
	}
	for i, o := range orders {
		if o == nil || o.OrderID != id {
			continue
		}
		next := o.Clone()
		if err := m(next); err != nil {
			return err
		}
		if err := next.Validate(); err != nil {
			return err
		}
		orders[i] = next
		return nil
	}
	return fmt.Errorf("%w: order_id=%s", ErrOrderNotFound, id)
}

func findInSet(orders []*Order, phone string) (*Order, error) {
	p := strings.TrimSpace(phone)
	if p == "" {
		return nil, fmt.Errorf("%w: phone is empty", ErrOrderNotFound)
	}
	for _, o := range orders {
		if o != nil && o.Phone == p {
			return o.Clone(), nil
		}
	}
	return nil, fmt.Errorf("%w: phone=%s", ErrOrderNotFound, p)
}
