package catalog

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/oelhadidy/agrovet-backend/pkg/logger"
)

type stubNotifier struct {
	calls    []string
	failures int
}

func (n *stubNotifier) NotifyAdmins(ctx context.Context, notifType, title, message string, link *string) error {
	if n.failures > 0 {
		n.failures--
		return errors.New("notifier down")
	}
	n.calls = append(n.calls, notifType)
	return nil
}

func newScanService(t *testing.T, db *gorm.DB, notifier Notifier) Service {
	t.Helper()
	logg := logger.New(logger.Options{ServiceName: "test", Level: zerolog.ErrorLevel, Output: io.Discard})
	svc, err := NewService(ServiceParams{
		Repo:     NewRepository(db),
		Notifier: notifier,
		Logger:   logg,
	})
	require.NoError(t, err)
	return svc
}

func TestLowStockScanNotifiesPerProduct(t *testing.T) {
	t.Parallel()

	db := setupCatalogTestDB(t)
	newProduct(t, db, "Teat dip", 1)
	newProduct(t, db, "Calf bottle", 3)
	newProduct(t, db, "Fence wire", 80)

	notifier := &stubNotifier{}
	svc := newScanService(t, db, notifier)

	report, err := svc.LowStockScan(context.Background(), 5)
	require.NoError(t, err)
	assert.Equal(t, 2, report.Scanned)
	assert.Equal(t, 2, report.Notified)
	assert.Len(t, notifier.calls, 2)
}

func TestLowStockScanAggregatesNotifierFailures(t *testing.T) {
	t.Parallel()

	db := setupCatalogTestDB(t)
	newProduct(t, db, "Teat dip", 1)
	newProduct(t, db, "Calf bottle", 3)

	notifier := &stubNotifier{failures: 1}
	svc := newScanService(t, db, notifier)

	report, err := svc.LowStockScan(context.Background(), 5)
	require.Error(t, err, "partial failure must surface")
	assert.Equal(t, 2, report.Scanned)
	assert.Equal(t, 1, report.Notified, "scan keeps going past failures")
}

func TestLowStockScanRejectsNegativeThreshold(t *testing.T) {
	t.Parallel()

	svc := newScanService(t, setupCatalogTestDB(t), &stubNotifier{})
	_, err := svc.LowStockScan(context.Background(), -1)
	require.Error(t, err)
}

func TestAutoRefillScanTopsUpToTarget(t *testing.T) {
	t.Parallel()

	db := setupCatalogTestDB(t)
	product := newProduct(t, db, "Salt lick", 3)
	require.NoError(t, db.Model(product).Updates(map[string]any{"auto_refill": true, "refill_target": 20}).Error)

	notifier := &stubNotifier{}
	svc := newScanService(t, db, notifier)

	report, err := svc.AutoRefillScan(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, report.Refilled)
	assert.Equal(t, 1, report.Notified)

	refreshed, err := NewRepository(db).GetProduct(context.Background(), product.ID)
	require.NoError(t, err)
	assert.Equal(t, 20, refreshed.Stock)
}

func TestAutoRefillScanNoCandidates(t *testing.T) {
	t.Parallel()

	db := setupCatalogTestDB(t)
	newProduct(t, db, "Manual item", 1)

	svc := newScanService(t, db, &stubNotifier{})
	report, err := svc.AutoRefillScan(context.Background())
	require.NoError(t, err)
	assert.Zero(t, report.Scanned)
}
