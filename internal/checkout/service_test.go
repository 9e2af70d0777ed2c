package checkout

import (
	"context"
	"io"
	"net/url"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oelhadidy/agrovet-backend/internal/cart"
	"github.com/oelhadidy/agrovet-backend/pkg/config"
	"github.com/oelhadidy/agrovet-backend/pkg/db/models"
	"github.com/oelhadidy/agrovet-backend/pkg/enums"
	pkgerrors "github.com/oelhadidy/agrovet-backend/pkg/errors"
	"github.com/oelhadidy/agrovet-backend/pkg/logger"
	"github.com/oelhadidy/agrovet-backend/pkg/paymob"
	"github.com/oelhadidy/agrovet-backend/pkg/paypal"
	"github.com/oelhadidy/agrovet-backend/pkg/slots"
)

type stubCart struct {
	lines       []models.CartLine
	validateErr error
	mu          sync.Mutex
	cleared     int
}

func (s *stubCart) ValidateForCheckout(ctx context.Context, sess cart.Session) ([]models.CartLine, error) {
	if s.validateErr != nil {
		return nil, s.validateErr
	}
	return s.lines, nil
}

func (s *stubCart) Clear(ctx context.Context, sess cart.Session) (cart.DTO, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cleared++
	return cart.DTO{Subtotal: decimal.Zero}, nil
}

func (s *stubCart) clearCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cleared
}

type stubOrders struct {
	mu      sync.Mutex
	created []*models.Order
	err     error
	delay   time.Duration
}

func (s *stubOrders) Create(ctx context.Context, order *models.Order) error {
	if s.delay > 0 {
		time.Sleep(s.delay)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.created = append(s.created, order)
	return nil
}

func (s *stubOrders) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.created)
}

type stubStock struct {
	mu         sync.Mutex
	decrements map[uuid.UUID]int
	err        error
}

func (s *stubStock) DecrementStock(ctx context.Context, productID uuid.UUID, quantity int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	if s.decrements == nil {
		s.decrements = map[uuid.UUID]int{}
	}
	s.decrements[productID] += quantity
	return nil
}

type stubPayPal struct {
	mu       sync.Mutex
	captures int
	orderErr error
	capErr   error
}

func (s *stubPayPal) CreateOrder(ctx context.Context, reference string, amount decimal.Decimal) (*paypal.OrderResult, error) {
	if s.orderErr != nil {
		return nil, s.orderErr
	}
	return &paypal.OrderResult{
		ProviderOrderID: "PP-" + reference,
		ApproveURL:      "https://paypal.test/approve/" + reference,
	}, nil
}

func (s *stubPayPal) CaptureOrder(ctx context.Context, providerOrderID string) (*paypal.CaptureResult, error) {
	s.mu.Lock()
	s.captures++
	s.mu.Unlock()
	if s.capErr != nil {
		return nil, s.capErr
	}
	return &paypal.CaptureResult{CaptureID: "CAP-" + providerOrderID, Status: "COMPLETED"}, nil
}

func (s *stubPayPal) captureCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.captures
}

type stubPaymob struct {
	hmacOK bool
}

func (s *stubPaymob) CreateSession(ctx context.Context, method paymob.Method, reference string, amount decimal.Decimal, billing paymob.BillingDetails) (*paymob.Session, error) {
	session := &paymob.Session{ProviderOrderID: "PM-" + reference, PaymentKey: "key"}
	if method == paymob.MethodCard {
		session.IframeURL = "https://paymob.test/iframe"
	} else {
		session.WalletRedirect = "https://paymob.test/wallet"
	}
	return session, nil
}

func (s *stubPaymob) VerifyHMAC(fields map[string]string, signature string) bool {
	return s.hmacOK
}

type fixture struct {
	svc    Service
	cart   *stubCart
	orders *stubOrders
	stock  *stubStock
	paypal *stubPayPal
	paymob *stubPaymob
	store  *slots.MemoryStore
	userID uuid.UUID
}

func testLines() []models.CartLine {
	return []models.CartLine{
		{
			ProductID:     uuid.New(),
			Title:         "Oxytetracycline spray",
			Quantity:      2,
			PriceSnapshot: decimal.NewFromInt(40),
			StockSnapshot: 10,
		},
	}
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	f := &fixture{
		cart:   &stubCart{lines: testLines()},
		orders: &stubOrders{},
		stock:  &stubStock{},
		paypal: &stubPayPal{},
		paymob: &stubPaymob{hmacOK: true},
		store:  slots.NewMemoryStore(),
		userID: uuid.New(),
	}

	logg := logger.New(logger.Options{ServiceName: "test", Level: zerolog.Disabled, Output: io.Discard})
	svc, err := NewService(ServiceParams{
		Cart:   f.cart,
		Orders: f.orders,
		Stock:  f.stock,
		Slots:  f.store,
		PayPal: f.paypal,
		Paymob: f.paymob,
		Config: config.CheckoutConfig{
			GuardTTL:               time.Minute,
			CreatedMarkerRetention: 5 * time.Minute,
			DraftTTL:               time.Hour,
		},
		Logger: logg,
	})
	require.NoError(t, err)
	f.svc = svc
	return f
}

func (f *fixture) session() cart.Session {
	return cart.Session{Key: "sess-1", UserID: &f.userID}
}

func (f *fixture) begin(t *testing.T, provider enums.PaymentProvider) *BeginResult {
	t.Helper()
	result, err := f.svc.Begin(context.Background(), f.session(), BeginInput{Provider: provider})
	require.NoError(t, err)
	return result
}

func paypalReturnQuery(providerOrderID string) url.Values {
	query := url.Values{}
	query.Set("token", providerOrderID)
	query.Set("PayerID", "PAYER123")
	return query
}

func TestBeginStagesDraftAndReturnsApproveURL(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	result := f.begin(t, enums.PaymentProviderPayPal)

	assert.NotEmpty(t, result.Reference)
	assert.Contains(t, result.ApproveURL, "paypal.test")
	assert.True(t, result.TotalAmount.Equal(decimal.NewFromInt(80)))

	var draft Draft
	err := slots.GetJSON(context.Background(), f.store, result.ProviderOrderID, slots.SlotPendingDraft, &draft)
	require.NoError(t, err)
	assert.Equal(t, result.Reference, draft.Reference)
	assert.Equal(t, f.userID, draft.UserID)
	require.Len(t, draft.Items, 1)
}

func TestBeginRequiresSignedInUser(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	_, err := f.svc.Begin(context.Background(), cart.Session{Key: "anon"}, BeginInput{Provider: enums.PaymentProviderPayPal})
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeUnauthorized, pkgerrors.As(err).Code())
}

func TestBeginPaymobWalletReturnsRedirect(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	result := f.begin(t, enums.PaymentProviderPaymobWallet)
	assert.NotEmpty(t, result.WalletRedirect)
	assert.Empty(t, result.ApproveURL)
}

func TestCallbackCommitsOrderAndClearsCart(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	begun := f.begin(t, enums.PaymentProviderPayPal)

	result, err := f.svc.HandleCallback(context.Background(), enums.PaymentProviderPayPal, paypalReturnQuery(begun.ProviderOrderID))
	require.NoError(t, err)
	assert.Equal(t, OutcomeCreated, result.Outcome)
	require.NotNil(t, result.OrderID)
	assert.Equal(t, begun.Reference, result.Reference)

	require.Equal(t, 1, f.orders.count())
	order := f.orders.created[0]
	assert.Equal(t, enums.PaymentStatusCompleted, order.PaymentStatus)
	require.NotNil(t, order.CaptureID)

	assert.Equal(t, 1, f.cart.clearCount())
	assert.Equal(t, 2, f.stock.decrements[f.cart.lines[0].ProductID])

	// Draft and guard are gone; the created marker is retained.
	_, err = f.store.Get(context.Background(), begun.ProviderOrderID, slots.SlotPendingDraft)
	assert.ErrorIs(t, err, slots.ErrNotFound)
	_, err = f.store.Get(context.Background(), begun.ProviderOrderID, slots.SlotInflightGuard)
	assert.ErrorIs(t, err, slots.ErrNotFound)
	_, err = f.store.Get(context.Background(), begun.ProviderOrderID, slots.SlotCreatedMarker)
	assert.NoError(t, err)
}

func TestCallbackDuplicateAfterCommitResolvesSameOrder(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	begun := f.begin(t, enums.PaymentProviderPayPal)
	query := paypalReturnQuery(begun.ProviderOrderID)

	first, err := f.svc.HandleCallback(context.Background(), enums.PaymentProviderPayPal, query)
	require.NoError(t, err)
	require.Equal(t, OutcomeCreated, first.Outcome)

	// Simulate the second handler arriving while the guard is still held.
	guard := []byte(`{"provider_order_id":"` + begun.ProviderOrderID + `","timestamp":"` + time.Now().UTC().Format(time.RFC3339Nano) + `"}`)
	_, err = f.store.Claim(context.Background(), begun.ProviderOrderID, slots.SlotInflightGuard, guard, time.Minute)
	require.NoError(t, err)

	second, err := f.svc.HandleCallback(context.Background(), enums.PaymentProviderPayPal, query)
	require.NoError(t, err)
	assert.Equal(t, OutcomeAlreadyCreated, second.Outcome)
	require.NotNil(t, second.OrderID)
	assert.Equal(t, *first.OrderID, *second.OrderID)
	assert.Equal(t, 1, f.orders.count())
}

func TestCallbackLateDuplicateResolvesCommittedOrder(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	begun := f.begin(t, enums.PaymentProviderPayPal)
	query := paypalReturnQuery(begun.ProviderOrderID)

	first, err := f.svc.HandleCallback(context.Background(), enums.PaymentProviderPayPal, query)
	require.NoError(t, err)
	require.Equal(t, OutcomeCreated, first.Outcome)

	// Guard is already cleared and the draft is gone; only the created
	// marker remains. The retry must still resolve to the committed order.
	_, err = f.store.Get(context.Background(), begun.ProviderOrderID, slots.SlotInflightGuard)
	require.ErrorIs(t, err, slots.ErrNotFound)

	second, err := f.svc.HandleCallback(context.Background(), enums.PaymentProviderPayPal, query)
	require.NoError(t, err)
	assert.Equal(t, OutcomeAlreadyCreated, second.Outcome)
	require.NotNil(t, second.OrderID)
	assert.Equal(t, *first.OrderID, *second.OrderID)
	assert.Equal(t, 1, f.orders.count())
	assert.Equal(t, 1, f.paypal.captureCount())
}

func TestConcurrentCallbacksCreateExactlyOneOrder(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.orders.delay = 20 * time.Millisecond
	begun := f.begin(t, enums.PaymentProviderPayPal)
	query := paypalReturnQuery(begun.ProviderOrderID)

	results := make([]*CallbackResult, 2)
	errs := make([]error, 2)
	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = f.svc.HandleCallback(context.Background(), enums.PaymentProviderPayPal, query)
		}(i)
	}
	wg.Wait()

	require.NoError(t, errs[0])
	require.NoError(t, errs[1])
	assert.Equal(t, 1, f.orders.count())
	assert.Equal(t, 1, f.paypal.captureCount())

	var created, other *CallbackResult
	for _, result := range results {
		if result.Outcome == OutcomeCreated {
			created = result
		} else {
			other = result
		}
	}
	require.NotNil(t, created, "one handler must commit")
	require.NotNil(t, other, "one handler must lose the guard")
	assert.Contains(t, []Outcome{OutcomeAlreadyCreated, OutcomeConfirming}, other.Outcome)
	if other.Outcome == OutcomeAlreadyCreated {
		assert.Equal(t, *created.OrderID, *other.OrderID)
	}
}

func TestCallbackGuardHeldWithoutMarkerReportsConfirming(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	begun := f.begin(t, enums.PaymentProviderPayPal)

	guard := []byte(`{"provider_order_id":"` + begun.ProviderOrderID + `","timestamp":"` + time.Now().UTC().Format(time.RFC3339Nano) + `"}`)
	claimed, err := f.store.Claim(context.Background(), begun.ProviderOrderID, slots.SlotInflightGuard, guard, time.Minute)
	require.NoError(t, err)
	require.True(t, claimed)

	result, err := f.svc.HandleCallback(context.Background(), enums.PaymentProviderPayPal, paypalReturnQuery(begun.ProviderOrderID))
	require.NoError(t, err)
	assert.Equal(t, OutcomeConfirming, result.Outcome)
	assert.Equal(t, 0, f.orders.count())
}

func TestCallbackReclaimsStaleGuard(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	begun := f.begin(t, enums.PaymentProviderPayPal)

	stale := time.Now().UTC().Add(-10 * time.Minute)
	guard := []byte(`{"provider_order_id":"` + begun.ProviderOrderID + `","timestamp":"` + stale.Format(time.RFC3339Nano) + `"}`)
	claimed, err := f.store.Claim(context.Background(), begun.ProviderOrderID, slots.SlotInflightGuard, guard, time.Hour)
	require.NoError(t, err)
	require.True(t, claimed)

	result, err := f.svc.HandleCallback(context.Background(), enums.PaymentProviderPayPal, paypalReturnQuery(begun.ProviderOrderID))
	require.NoError(t, err)
	assert.Equal(t, OutcomeCreated, result.Outcome)
	assert.Equal(t, 1, f.orders.count())
}

func TestCallbackOrderCreationFailureIsDistinctAndRetryable(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	begun := f.begin(t, enums.PaymentProviderPayPal)
	f.orders.err = pkgerrors.New(pkgerrors.CodeDependency, "db down")

	_, err := f.svc.HandleCallback(context.Background(), enums.PaymentProviderPayPal, paypalReturnQuery(begun.ProviderOrderID))
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeOrderMissing, pkgerrors.As(err).Code())

	// Guard was released and no marker written, so a retry can commit.
	f.orders.mu.Lock()
	f.orders.err = nil
	f.orders.mu.Unlock()
	result, err := f.svc.HandleCallback(context.Background(), enums.PaymentProviderPayPal, paypalReturnQuery(begun.ProviderOrderID))
	require.NoError(t, err)
	assert.Equal(t, OutcomeCreated, result.Outcome)
}

func TestCallbackCancelledPayPalReturnDeclines(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	begun := f.begin(t, enums.PaymentProviderPayPal)

	query := url.Values{}
	query.Set("token", begun.ProviderOrderID)

	result, err := f.svc.HandleCallback(context.Background(), enums.PaymentProviderPayPal, query)
	require.NoError(t, err)
	assert.Equal(t, OutcomeDeclined, result.Outcome)
	assert.Equal(t, 0, f.orders.count())

	_, err = f.store.Get(context.Background(), begun.ProviderOrderID, slots.SlotPendingDraft)
	assert.ErrorIs(t, err, slots.ErrNotFound)
}

func TestCallbackPaymobDeclined(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	begun := f.begin(t, enums.PaymentProviderPaymobCard)

	query := url.Values{}
	query.Set("order", begun.ProviderOrderID)
	query.Set("success", "false")

	result, err := f.svc.HandleCallback(context.Background(), enums.PaymentProviderPaymobCard, query)
	require.NoError(t, err)
	assert.Equal(t, OutcomeDeclined, result.Outcome)
	assert.Equal(t, 0, f.orders.count())
}

func TestCallbackPaymobApprovedCommits(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	begun := f.begin(t, enums.PaymentProviderPaymobCard)

	query := url.Values{}
	query.Set("order", begun.ProviderOrderID)
	query.Set("id", "7001")
	query.Set("success", "true")
	query.Set("txn_response_code", "APPROVED")

	result, err := f.svc.HandleCallback(context.Background(), enums.PaymentProviderPaymobCard, query)
	require.NoError(t, err)
	assert.Equal(t, OutcomeCreated, result.Outcome)
	require.Equal(t, 1, f.orders.count())
	order := f.orders.created[0]
	require.NotNil(t, order.CaptureID)
	assert.Equal(t, "7001", *order.CaptureID)
	assert.Equal(t, enums.PaymentProviderPaymobCard, order.PaymentProvider)
}

func TestCallbackPaymobBadSignatureRejected(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.paymob.hmacOK = false
	begun := f.begin(t, enums.PaymentProviderPaymobCard)

	query := url.Values{}
	query.Set("order", begun.ProviderOrderID)
	query.Set("success", "true")
	query.Set("hmac", "deadbeef")

	_, err := f.svc.HandleCallback(context.Background(), enums.PaymentProviderPaymobCard, query)
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeUnauthorized, pkgerrors.As(err).Code())
	assert.Equal(t, 0, f.orders.count())
}
