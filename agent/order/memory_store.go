package order

import (
	"context"
	"sync"
)

var _ Store = (*MemoryStore)(nil)

// MemoryStore keeps orders in process. It records every mutator call so tests
// can assert on side effects.
type MemoryStore struct {
	mu     sync.Mutex
	orders []*Order
	calls  []string

	// FailWith, when set, is returned by every mutator before it touches data.
	FailWith error
}

func NewMemoryStore(orders ...Order) *MemoryStore {
	s := &MemoryStore{orders: make([]*Order, 0, len(orders))}
	for i := range orders {
		s.orders = append(s.orders, orders[i].Clone())
	}
	return s
}

func (s *MemoryStore) FindByPhone(_ context.Context, phone string) (*Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return findInSet(s.orders, phone)
}

// Get returns a copy of the order with the given id.
func (s *MemoryStore) Get(orderID string) (*Order, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, o := range s.orders {
		if o.OrderID == orderID {
			return o.Clone(), true
		}
	}
	return nil, false
}

// Calls lists the mutators invoked so far, in order.
func (s *MemoryStore) Calls() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.calls...)
}

func (s *MemoryStore) ScheduleDelivery(_ context.Context, orderID, date string) error {
	return s.mutate("ScheduleDelivery", orderID, ScheduleMutation(date))
}

func (s *MemoryStore) ScheduleNeighborDelivery(_ context.Context, orderID, neighborName, neighborPhone string) error {
	return s.mutate("ScheduleNeighborDelivery", orderID, NeighborMutation(neighborName, neighborPhone))
}

func (s *MemoryStore) Cancel(_ context.Context, orderID string) error {
	return s.mutate("Cancel", orderID, CancelMutation())
}

func (s *MemoryStore) MarkFailed(_ context.Context, orderID string) error {
	return s.mutate("MarkFailed", orderID, FailedMutation())
}

func (s *MemoryStore) mutate(op, orderID string, m Mutation) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, op)
	if s.FailWith != nil {
		return s.FailWith
	}
	return applyToSet(s.orders, orderID, m)
}
