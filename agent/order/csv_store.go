package order

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	contractx "github.com/tanpawarit/Chative-Last-Mile-Voice-Agent/agent/contract"
)

const dateListSeparator = ";"

var csvHeader = []string{
	"order_id",
	"customer_name",
	"phone",
	"available_dates",
	"status",
	"scheduled_date",
	"neighbor_name",
	"neighbor_phone",
}

var _ Store = (*CSVStore)(nil)

// CSVStore persists orders in a single CSV file. Every mutator loads the full
// file, rewrites the matching row, and replaces the file atomically.
type CSVStore struct {
	path string
	mu   sync.Mutex
}

func NewCSVStore(path string) (*CSVStore, error) {
	p := strings.TrimSpace(path)
	if p == "" {
		return nil, fmt.Errorf("%w: csv path is required", contractx.ErrValidation)
	}
	return &CSVStore{path: p}, nil
}

func (s *CSVStore) FindByPhone(_ context.Context, phone string) (*Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	orders, err := s.load()
	if err != nil {
		return nil, err
	}
	return findInSet(orders, phone)
}

// All returns every order in the file, in file order.
func (s *CSVStore) All(_ context.Context) ([]Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	orders, err := s.load()
	if err != nil {
		return nil, err
	}
	out := make([]Order, 0, len(orders))
	for _, o := range orders {
		out = append(out, *o.Clone())
	}
	return out, nil
}

func (s *CSVStore) ScheduleDelivery(ctx context.Context, orderID, date string) error {
	return s.mutate(ctx, orderID, ScheduleMutation(date))
}

func (s *CSVStore) ScheduleNeighborDelivery(ctx context.Context, orderID, neighborName, neighborPhone string) error {
	return s.mutate(ctx, orderID, NeighborMutation(neighborName, neighborPhone))
}

func (s *CSVStore) Cancel(ctx context.Context, orderID string) error {
	return s.mutate(ctx, orderID, CancelMutation())
}

func (s *CSVStore) MarkFailed(ctx context.Context, orderID string) error {
	return s.mutate(ctx, orderID, FailedMutation())
}

// Save replaces the whole file with orders.
func (s *CSVStore) Save(orders []Order) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	set := make([]*Order, 0, len(orders))
	for i := range orders {
		set = append(set, orders[i].Clone())
	}
	return s.save(set)
}

func (s *CSVStore) mutate(ctx context.Context, orderID string, m Mutation) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	orders, err := s.load()
	if err != nil {
		return err
	}
	if err := applyToSet(orders, orderID, m); err != nil {
		return err
	}
	return s.save(orders)
}

func (s *CSVStore) load() ([]*Order, error) {
	f, err := os.Open(s.path)
	if err != nil {
		return nil, fmt.Errorf("%w: open %s: %v", contractx.ErrPersistence, s.path, err)
	}
	defer f.Close()

	orders, err := decodeOrders(f)
	if err != nil {
		return nil, fmt.Errorf("%w: read %s: %v", contractx.ErrPersistence, s.path, err)
	}
	return orders, nil
}

func (s *CSVStore) save(orders []*Order) error {
	dir := filepath.Dir(s.path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(s.path)+".*")
	if err != nil {
		return fmt.Errorf("%w: create temp file: %v", contractx.ErrPersistence, err)
	}
	tmpName := tmp.Name()

	if err := encodeOrders(tmp, orders); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("%w: write %s: %v", contractx.ErrPersistence, s.path, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("%w: close temp file: %v", contractx.ErrPersistence, err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("%w: replace %s: %v", contractx.ErrPersistence, s.path, err)
	}
	return nil
}

func decodeOrders(r io.Reader) ([]*Order, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	index := make(map[string]int, len(header))
	for i, h := range header {
		index[strings.TrimSpace(h)] = i
	}
	for _, required := range []string{"order_id", "phone"} {
		if _, ok := index[required]; !ok {
			return nil, fmt.Errorf("missing column %q", required)
		}
	}

	field := func(rec []string, name string) string {
		i, ok := index[name]
		if !ok || i >= len(rec) {
			return ""
		}
		return strings.TrimSpace(rec[i])
	}

	var orders []*Order
	for {
		rec, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}

		status := Status(field(rec, "status"))
		if status == "" {
			status = StatusPending
		}
		orders = append(orders, &Order{
			OrderID:        field(rec, "order_id"),
			CustomerName:   field(rec, "customer_name"),
			Phone:          field(rec, "phone"),
			AvailableDates: splitDates(field(rec, "available_dates")),
			Status:         status,
			ScheduledDate:  field(rec, "scheduled_date"),
			NeighborName:   field(rec, "neighbor_name"),
			NeighborPhone:  field(rec, "neighbor_phone"),
		})
	}
	return orders, nil
}

func encodeOrders(w io.Writer, orders []*Order) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(csvHeader); err != nil {
		return err
	}
	for _, o := range orders {
		if o == nil {
			continue
		}
		rec := []string{
			o.OrderID,
			o.CustomerName,
			o.Phone,
			strings.Join(o.AvailableDates, dateListSeparator),
			string(o.Status),
			o.ScheduledDate,
			o.NeighborName,
			o.NeighborPhone,
		}
		if err := writer.Write(rec); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

func splitDates(raw string) []string {
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, dateListSeparator)
	dates := make([]string, 0, len(parts))
	for _, p := range parts {
		if d := strings.TrimSpace(p); d != "" {
			dates = append(dates, d)
		}
	}
	return dates
}
