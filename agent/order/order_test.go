package order

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	contractx "github.com/tanpawarit/Chative-Last-Mile-Voice-Agent/agent/contract"
)

func sampleOrder() Order {
	return Order{
		OrderID:        "ORD-1",
		CustomerName:   "Rahul",
		Phone:          "9876543210",
		AvailableDates: []string{"23rd", "25th"},
		Status:         StatusPending,
	}
}

func TestOrderSchedule(t *testing.T) {
	t.Parallel()

	o := sampleOrder()
	o.NeighborName = "Old"
	require.NoError(t, o.Schedule("25th"))
	assert.Equal(t, StatusScheduled, o.Status)
	assert.Equal(t, "25th", o.ScheduledDate)
	assert.Empty(t, o.NeighborName)
	require.NoError(t, o.Validate())
}

func TestOrderScheduleRejectsUnofferedDate(t *testing.T) {
	t.Parallel()

	o := sampleOrder()
	err := o.Schedule("30th")
	require.ErrorIs(t, err, ErrDateNotOffered)
	require.ErrorIs(t, err, contractx.ErrValidation)
	assert.Equal(t, StatusPending, o.Status)
}

func TestOrderScheduleNeighbor(t *testing.T) {
	t.Parallel()

	o := sampleOrder()
	require.NoError(t, o.ScheduleNeighbor(" Priya ", ""))
	assert.Equal(t, StatusScheduled, o.Status)
	assert.Equal(t, NeighborDeliveryMarker, o.ScheduledDate)
	assert.Equal(t, "Priya", o.NeighborName)
	assert.True(t, o.IsNeighborDelivery())
	require.NoError(t, o.Validate())

	require.Error(t, o.ScheduleNeighbor("  ", ""))
}

func TestOrderCancelClearsFields(t *testing.T) {
	t.Parallel()

	o := sampleOrder()
	require.NoError(t, o.ScheduleNeighbor("Priya", "555"))
	o.Cancel()
	assert.Equal(t, StatusCancelled, o.Status)
	assert.Empty(t, o.ScheduledDate)
	assert.Empty(t, o.NeighborName)
	assert.Empty(t, o.NeighborPhone)
	require.NoError(t, o.Validate())
}

func TestOrderValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		mutate  func(o *Order)
		wantErr bool
	}{
		{name: "pending", mutate: func(o *Order) {}},
		{name: "empty id", mutate: func(o *Order) { o.OrderID = " " }, wantErr: true},
		{name: "scheduled without date", mutate: func(o *Order) { o.Status = StatusScheduled }, wantErr: true},
		{name: "scheduled on unoffered date", mutate: func(o *Order) {
			o.Status = StatusScheduled
			o.ScheduledDate = "1st"
		}, wantErr: true},
		{name: "cancelled with neighbor", mutate: func(o *Order) {
			o.Status = StatusCancelled
			o.NeighborName = "Priya"
		}, wantErr: true},
		{name: "unknown status", mutate: func(o *Order) { o.Status = "lost" }, wantErr: true},
		{name: "failed keeps fields", mutate: func(o *Order) {
			o.Status = StatusFailed
			o.ScheduledDate = "23rd"
		}},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			o := sampleOrder()
			tt.mutate(&o)
			err := o.Validate()
			if tt.wantErr {
				require.ErrorIs(t, err, ErrInvalidOrder)
				return
			}
			require.NoError(t, err)
		})
	}
}

func TestMemoryStore(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := NewMemoryStore(sampleOrder())

	found, err := store.FindByPhone(ctx, "9876543210")
	require.NoError(t, err)
	assert.Equal(t, "ORD-1", found.OrderID)

	// Returned orders are copies.
	found.Status = StatusFailed
	again, ok := store.Get("ORD-1")
	require.True(t, ok)
	assert.Equal(t, StatusPending, again.Status)

	_, err = store.FindByPhone(ctx, "000")
	require.ErrorIs(t, err, contractx.ErrOrderNotFound)
	require.ErrorIs(t, err, contractx.ErrPrecondition)

	require.NoError(t, store.ScheduleDelivery(ctx, "ORD-1", "23rd"))
	got, _ := store.Get("ORD-1")
	assert.Equal(t, StatusScheduled, got.Status)
	assert.Equal(t, "23rd", got.ScheduledDate)

	require.ErrorIs(t, store.Cancel(ctx, "ORD-404"), ErrOrderNotFound)
	require.NoError(t, store.MarkFailed(ctx, "ORD-1"))
	got, _ = store.Get("ORD-1")
	assert.Equal(t, StatusFailed, got.Status)

	assert.Equal(t, []string{"ScheduleDelivery", "Cancel", "MarkFailed"}, store.Calls())
}

func TestMemoryStoreFailureLeavesRecord(t *testing.T) {
	t.Parallel()

	boom := errors.New("boom")
	store := NewMemoryStore(sampleOrder())
	store.FailWith = boom

	require.ErrorIs(t, store.ScheduleDelivery(context.Background(), "ORD-1", "23rd"), boom)
	got, _ := store.Get("ORD-1")
	assert.Equal(t, StatusPending, got.Status)
}

func TestMemoryStoreRejectedMutationLeavesRecord(t *testing.T) {
	t.Parallel()

	store := NewMemoryStore(sampleOrder())
	require.ErrorIs(t, store.ScheduleDelivery(context.Background(), "ORD-1", "31st"), ErrDateNotOffered)
	got, _ := store.Get("ORD-1")
	assert.Equal(t, StatusPending, got.Status)
	assert.Empty(t, got.ScheduledDate)
}

func TestPostgresRowRoundTrip(t *testing.T) {
	t.Parallel()

	o := sampleOrder()
	require.NoError(t, o.ScheduleNeighbor("Priya", "555"))

	back := rowFromOrder(&o, fixedNow).toOrder()
	assert.Equal(t, &o, back)

	empty := (&orderRow{OrderID: "X"}).toOrder()
	assert.Equal(t, StatusPending, empty.Status)
}
