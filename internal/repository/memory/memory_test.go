package memory

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bluebuff/storefront/internal/entity"
	"github.com/bluebuff/storefront/internal/repository"
)

func TestEventStore_AppendAndLoad(t *testing.T) {
	ctx := context.Background()
	store := NewEventStore()

	started := entity.CheckoutStarted{CheckoutID: "c1", GameSlug: "mlbb", Total: 120}
	chosen := entity.PaymentMethodChosen{CheckoutID: "c1", Method: entity.PaymentUPI}
	require.NoError(t, store.SaveEvents(ctx, "c1", "checkout", 0, []entity.Event{started, chosen}))

	records, err := store.LoadEvents(ctx, "c1")
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, 1, records[0].Version)
	assert.Equal(t, "PaymentMethodChosen", records[1].EventType)
	assert.Equal(t, "checkout", records[1].StreamType)

	agg := entity.NewCheckoutSession("c1")
	require.NoError(t, agg.Rehydrate(records))
	assert.Equal(t, 2, agg.GetVersion())
	assert.Equal(t, entity.StateAwaitingPaymentChoice, agg.State)

	empty, err := store.LoadEvents(ctx, "missing")
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestEventStore_VersionConflict(t *testing.T) {
	ctx := context.Background()
	store := NewEventStore()
	require.NoError(t, store.SaveEvents(ctx, "c1", "checkout", 0, []entity.Event{entity.CheckoutStarted{CheckoutID: "c1"}}))

	err := store.SaveEvents(ctx, "c1", "checkout", 0, []entity.Event{entity.CheckoutStarted{CheckoutID: "c1"}})
	assert.ErrorIs(t, err, repository.ErrConcurrency)
}

func TestEventStore_ConcurrentAppendsOneWins(t *testing.T) {
	ctx := context.Background()
	store := NewEventStore()
	require.NoError(t, store.SaveEvents(ctx, "c1", "checkout", 0, []entity.Event{entity.CheckoutStarted{CheckoutID: "c1"}}))

	var wins atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := store.SaveEvents(ctx, "c1", "checkout", 1, []entity.Event{entity.SubmissionStarted{CheckoutID: "c1"}})
			if err == nil {
				wins.Add(1)
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, int32(1), wins.Load())
}

func TestGatewayOrderRepository_Projection(t *testing.T) {
	ctx := context.Background()
	repo := NewGatewayOrderRepository()
	t0 := time.Date(2026, 10, 1, 10, 0, 0, 0, time.UTC)

	created := entity.GatewayOrderCreated{CheckoutID: "c1", SessionID: "sid-a", OrderID: "o1", GameSlug: "mlbb", ItemSlug: "d-86", PaymentMethod: entity.PaymentUPI, Total: 120, CreatedAt: t0}
	require.NoError(t, repo.UpdateProjection(ctx, created))
	require.NoError(t, repo.UpdateProjection(ctx, entity.GatewayOrderCreated{CheckoutID: "c2", SessionID: "sid-a", OrderID: "o2", CreatedAt: t0.Add(time.Minute)}))
	// Redelivery is a no-op.
	require.NoError(t, repo.UpdateProjection(ctx, created))

	require.NoError(t, repo.UpdateProjection(ctx, entity.PaymentAcknowledged{CheckoutID: "c1", OrderID: "o1", AcknowledgedAt: t0.Add(2 * time.Minute)}))

	o, err := repo.FindByOrderID(ctx, "o1")
	require.NoError(t, err)
	assert.Equal(t, entity.GatewayOrderAcknowledged, o.Status)
	assert.Equal(t, t0.Add(2*time.Minute), o.UpdatedAt)

	require.NoError(t, repo.UpdateProjection(ctx, entity.GatewayOrderCreated{CheckoutID: "c3", SessionID: "sid-b", OrderID: "o3", CreatedAt: t0.Add(3 * time.Minute)}))

	recent, err := repo.FindRecentBySession(ctx, "sid-a", 1)
	require.NoError(t, err)
	require.Len(t, recent, 1)
	assert.Equal(t, "o2", recent[0].OrderID)

	recent, err = repo.FindRecentBySession(ctx, "sid-b", 10)
	require.NoError(t, err)
	require.Len(t, recent, 1)
	assert.Equal(t, "o3", recent[0].OrderID)

	recent, err = repo.FindRecentBySession(ctx, "sid-new", 10)
	require.NoError(t, err)
	assert.Empty(t, recent)

	_, err = repo.FindByOrderID(ctx, "nope")
	assert.ErrorIs(t, err, repository.ErrNotFound)

	err = repo.UpdateProjection(ctx, entity.PaymentAcknowledged{OrderID: "nope"})
	assert.ErrorIs(t, err, repository.ErrNotFound)
}
