package order

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	contractx "github.com/tanpawarit/Chative-Last-Mile-Voice-Agent/agent/contract"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
)

type PostgresConfig struct {
	DSN     string        `envconfig:"DSN" split_words:"true" required:"true"`
	Timeout time.Duration `envconfig:"TIMEOUT" split_words:"true" default:"5s"`
}

type orderRow struct {
	bun.BaseModel `bun:"table:delivery_orders,alias:o"`

	OrderID        string    `bun:"order_id,pk"`
	CustomerName   string    `bun:"customer_name,notnull"`
	Phone          string    `bun:"phone,notnull"`
	AvailableDates []string  `bun:"available_dates,array"`
	Status         string    `bun:"status,notnull"`
	ScheduledDate  string    `bun:"scheduled_date,nullzero"`
	NeighborName   string    `bun:"neighbor_name,nullzero"`
	NeighborPhone  string    `bun:"neighbor_phone,nullzero"`
	UpdatedAt      time.Time `bun:"updated_at,notnull,default:current_timestamp"`
}

func rowFromOrder(o *Order, now time.Time) *orderRow {
	return &orderRow{
		OrderID:        o.OrderID,
		CustomerName:   o.CustomerName,
		Phone:          o.Phone,
		AvailableDates: append([]string(nil), o.AvailableDates...),
		Status:         string(o.Status),
		ScheduledDate:  o.ScheduledDate,
		NeighborName:   o.NeighborName,
		NeighborPhone:  o.NeighborPhone,
		UpdatedAt:      now.UTC(),
	}
}

func (r *orderRow) toOrder() *Order {
	status := Status(r.Status)
	if status == "" {
		status = StatusPending
	}
	return &Order{
		OrderID:        r.OrderID,
		CustomerName:   r.CustomerName,
		Phone:          r.Phone,
		AvailableDates: append([]string(nil), r.AvailableDates...),
		Status:         status,
		ScheduledDate:  r.ScheduledDate,
		NeighborName:   r.NeighborName,
		NeighborPhone:  r.NeighborPhone,
	}
}

var _ Store = (*PostgresStore)(nil)

// PostgresStore keeps orders in the delivery_orders table. Mutators lock the
// row with SELECT ... FOR UPDATE inside a transaction.
type PostgresStore struct {
	db  *bun.DB
	now func() time.Time
}

func NewPostgresStore(cfg PostgresConfig) (*PostgresStore, error) {
	dsn := strings.TrimSpace(cfg.DSN)
	if dsn == "" {
		return nil, fmt.Errorf("%w: postgres dsn is required", contractx.ErrValidation)
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}

	sqldb := sql.OpenDB(pgdriver.NewConnector(
		pgdriver.WithDSN(dsn),
		pgdriver.WithTimeout(timeout),
	))
	return NewPostgresStoreFromDB(bun.NewDB(sqldb, pgdialect.New())), nil
}

func NewPostgresStoreFromDB(db *bun.DB) *PostgresStore {
	return &PostgresStore{db: db, now: time.Now}
}

// Migrate creates the orders table when it does not exist yet.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	if _, err := s.db.NewCreateTable().Model((*orderRow)(nil)).IfNotExists().Exec(ctx); err != nil {
		return fmt.Errorf("%w: create delivery_orders: %v", contractx.ErrPersistence, err)
	}
	return nil
}

// Insert adds orders, replacing rows that share an order id.
func (s *PostgresStore) Insert(ctx context.Context, orders ...Order) error {
	if len(orders) == 0 {
		return nil
	}
	now := s.now()
	rows := make([]*orderRow, 0, len(orders))
	for i := range orders {
		if err := orders[i].Validate(); err != nil {
			return err
		}
		rows = append(rows, rowFromOrder(&orders[i], now))
	}
	_, err := s.db.NewInsert().
		Model(&rows).
		On("CONFLICT (order_id) DO UPDATE").
		Set("customer_name = EXCLUDED.customer_name").
		Set("phone = EXCLUDED.phone").
		Set("available_dates = EXCLUDED.available_dates").
		Set("status = EXCLUDED.status").
		Set("scheduled_date = EXCLUDED.scheduled_date").
		Set("neighbor_name = EXCLUDED.neighbor_name").
		Set("neighbor_phone = EXCLUDED.neighbor_phone").
		Set("updated_at = EXCLUDED.updated_at").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("%w: insert orders: %v", contractx.ErrPersistence, err)
	}
	return nil
}

func (s *PostgresStore) FindByPhone(ctx context.Context, phone string) (*Order, error) {
	p := strings.TrimSpace(phone)
	if p == "" {
		return nil, fmt.Errorf("%w: phone is empty", ErrOrderNotFound)
	}

	var row orderRow
	err := s.db.NewSelect().Model(&row).Where("phone = ?", p).OrderExpr("order_id ASC").Limit(1).Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: phone=%s", ErrOrderNotFound, p)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: select order by phone: %v", contractx.ErrPersistence, err)
	}
	return row.toOrder(), nil
}

func (s *PostgresStore) ScheduleDelivery(ctx context.Context, orderID, date string) error {
	return s.mutate(ctx, orderID, ScheduleMutation(date))
}

func (s *PostgresStore) ScheduleNeighborDelivery(ctx context.Context, orderID, neighborName, neighborPhone string) error {
	return s.mutate(ctx, orderID, NeighborMutation(neighborName, neighborPhone))
}

func (s *PostgresStore) Cancel(ctx context.Context, orderID string) error {
	return s.mutate(ctx, orderID, CancelMutation())
}

func (s *PostgresStore) MarkFailed(ctx context.Context, orderID string) error {
	return s.mutate(ctx, orderID, FailedMutation())
}

func (s *PostgresStore) Close() error {
	return s.db.Close()
}

func (s *PostgresStore) mutate(ctx context.Context, orderID string, m Mutation) error {
	id := strings.TrimSpace(orderID)
	if id == "" {
		return fmt.Errorf("%w: %w", ErrInvalidOrder, ErrEmptyOrderID)
	}

	return s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		var row orderRow
		err := tx.NewSelect().Model(&row).Where("order_id = ?", id).For("UPDATE").Scan(ctx)
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("%w: order_id=%s", ErrOrderNotFound, id)
		}
		if err != nil {
			return fmt.Errorf("%w: lock order: %v", contractx.ErrPersistence, err)
		}

		set := []*Order{row.toOrder()}
		if err := applyToSet(set, id, m); err != nil {
			return err
		}

		if _, err := tx.NewUpdate().Model(rowFromOrder(set[0], s.now())).WherePK().Exec(ctx); err != nil {
			return fmt.Errorf("%w: update order: %v", contractx.ErrPersistence, err)
		}
		return nil
	})
}
