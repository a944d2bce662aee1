package checkout

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/saiembroidery/storefront-backend/internal/cart"
	"github.com/saiembroidery/storefront-backend/pkg/config"
	"github.com/saiembroidery/storefront-backend/pkg/db/models"
	"github.com/saiembroidery/storefront-backend/pkg/enums"
	pkgerrors "github.com/saiembroidery/storefront-backend/pkg/errors"
	"github.com/saiembroidery/storefront-backend/pkg/metrics"
	"github.com/saiembroidery/storefront-backend/pkg/razorpay"
)

type fakeSession struct {
	lines   []cart.Line
	cleared bool
}

func (f *fakeSession) AddToCart(context.Context, int64, int) (cart.Snapshot, error) {
	return f.snapshot(), nil
}

func (f *fakeSession) UpdateCartItem(context.Context, uuid.UUID, int) (cart.Snapshot, error) {
	return f.snapshot(), nil
}

func (f *fakeSession) RemoveFromCart(_ context.Context, lineID uuid.UUID) (cart.Snapshot, error) {
	for i, line := range f.lines {
		if line.ID == lineID {
			f.lines = append(f.lines[:i], f.lines[i+1:]...)
			return f.snapshot(), nil
		}
	}
	return f.snapshot(), pkgerrors.New(pkgerrors.CodeNotFound, "cart item not found")
}

func (f *fakeSession) ClearCart(context.Context) error {
	f.lines = nil
	f.cleared = true
	return nil
}

func (f *fakeSession) RefreshCart(context.Context) (cart.Snapshot, error) {
	return f.snapshot(), nil
}

func (f *fakeSession) Snapshot() cart.Snapshot { return f.snapshot() }
func (f *fakeSession) LastError() error        { return nil }

func (f *fakeSession) snapshot() cart.Snapshot {
	lines := make([]cart.Line, len(f.lines))
	copy(lines, f.lines)
	total := 0
	for _, l := range lines {
		total += l.Quantity
	}
	return cart.Snapshot{Lines: lines, ItemCount: len(lines), TotalQuantity: total}
}

type fakeSessions struct {
	session *fakeSession
}

func (f *fakeSessions) SessionFor(context.Context, uuid.UUID) (cart.Session, error) {
	return f.session, nil
}

type fakeAddresses struct {
	owned map[uuid.UUID]uuid.UUID // address id -> owner
}

func (f *fakeAddresses) Get(_ context.Context, userID, id uuid.UUID) (*models.Address, error) {
	if owner, ok := f.owned[id]; ok && owner == userID {
		return &models.Address{ID: id, UserID: userID}, nil
	}
	return nil, pkgerrors.New(pkgerrors.CodeNotFound, "address not found")
}

type fakePlacer struct {
	placed     []models.Order
	failDesign string
}

func (f *fakePlacer) Place(_ context.Context, order *models.Order) error {
	if order.DesignNo == f.failDesign {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, gorm.ErrInvalidTransaction, "insert order")
	}
	f.placed = append(f.placed, *order)
	return nil
}

type fakeIDGen struct {
	n int
}

func (f *fakeIDGen) Generate(_ context.Context, category enums.DesignCategory) (string, error) {
	f.n++
	return time.Now().Format("060102") + "-" + category.Code() + "-001-TST" + string(rune('A'+f.n%26)), nil
}

type fakeGateway struct {
	lastReq  razorpay.OrderRequest
	orderID  string
	sigValid bool
}

func (f *fakeGateway) CreateOrder(_ context.Context, req razorpay.OrderRequest) (*razorpay.Order, error) {
	f.lastReq = req
	return &razorpay.Order{ID: f.orderID, AmountPaise: req.AmountPaise, Currency: req.Currency, Status: "created"}, nil
}

func (f *fakeGateway) KeyID() string { return "rzp_test_key" }

func (f *fakeGateway) VerifySignature(_, _, _ string) bool { return f.sigValid }

type fakeState struct {
	data map[string]string
}

func newFakeState() *fakeState { return &fakeState{data: make(map[string]string)} }

func (f *fakeState) Get(_ context.Context, key string) (string, error) {
	if v, ok := f.data[key]; ok {
		return v, nil
	}
	return "", goredis.Nil
}

func (f *fakeState) Set(_ context.Context, key string, value any, _ time.Duration) error {
	f.data[key] = value.(string)
	return nil
}

func (f *fakeState) SetNX(_ context.Context, key string, value any, _ time.Duration) (bool, error) {
	if _, ok := f.data[key]; ok {
		return false, nil
	}
	f.data[key] = value.(string)
	return true, nil
}

func (f *fakeState) Del(_ context.Context, keys ...string) error {
	for _, k := range keys {
		delete(f.data, k)
	}
	return nil
}

func (f *fakeState) CheckoutGuardKey(id string) string { return "guard:" + id }
func (f *fakeState) CheckoutBeginKey(id string) string { return "begin:" + id }

type fixture struct {
	svc       Service
	session   *fakeSession
	addresses *fakeAddresses
	placer    *fakePlacer
	gateway   *fakeGateway
	state     *fakeState
	userID    uuid.UUID
	addressID uuid.UUID
}

func twoLineCart() []cart.Line {
	return []cart.Line{
		{ID: uuid.New(), DesignID: 1, DesignNo: "D-101", PricePaise: 149900, Category: enums.CategoryBridal, InStock: true, Quantity: 1},
		{ID: uuid.New(), DesignID: 2, DesignNo: "D-102", PricePaise: 59900, Category: enums.CategoryMirrorWork, InStock: true, Quantity: 2},
	}
}

func newFixture(t *testing.T, lines []cart.Line) *fixture {
	t.Helper()
	f := &fixture{
		session:   &fakeSession{lines: lines},
		gateway:   &fakeGateway{orderID: "order_fix123", sigValid: true},
		placer:    &fakePlacer{},
		state:     newFakeState(),
		userID:    uuid.New(),
		addressID: uuid.New(),
	}
	f.addresses = &fakeAddresses{owned: map[uuid.UUID]uuid.UUID{f.addressID: f.userID}}

	cfg := config.RazorpayConfig{Currency: "INR", DisplayName: "Sri Sai Embroidery"}
	svc, err := NewService(
		&fakeSessions{session: f.session},
		f.addresses,
		f.placer,
		&fakeIDGen{},
		f.gateway,
		f.state,
		cfg,
		metrics.NewCheckoutMetrics(nil),
		nil,
	)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	f.svc = svc
	return f
}

func TestBeginCreatesGatewayOrder(t *testing.T) {
	f := newFixture(t, twoLineCart())

	res, err := f.svc.Begin(context.Background(), f.userID, f.addressID)
	if err != nil {
		t.Fatalf("begin: %v", err)
	}

	wantAmount := int64(149900 + 2*59900)
	if res.AmountPaise != wantAmount {
		t.Fatalf("expected amount %d, got %d", wantAmount, res.AmountPaise)
	}
	if f.gateway.lastReq.AmountPaise != wantAmount {
		t.Fatalf("gateway asked for %d", f.gateway.lastReq.AmountPaise)
	}
	if res.Currency != "INR" || res.KeyID != "rzp_test_key" {
		t.Fatalf("unexpected display metadata %+v", res)
	}
	if _, ok := f.state.data["begin:order_fix123"]; !ok {
		t.Fatal("expected begin state parked in redis")
	}
}

func TestBeginRejectsEmptyCartAndForeignAddress(t *testing.T) {
	f := newFixture(t, nil)

	if _, err := f.svc.Begin(context.Background(), f.userID, f.addressID); !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error for empty cart, got %v", err)
	}

	f = newFixture(t, twoLineCart())
	if _, err := f.svc.Begin(context.Background(), f.userID, uuid.New()); !pkgerrors.IsCode(err, pkgerrors.CodeNotFound) {
		t.Fatalf("expected not-found for foreign address, got %v", err)
	}
}

func TestBeginRejectsOutOfStockLines(t *testing.T) {
	lines := twoLineCart()
	lines[1].InStock = false
	f := newFixture(t, lines)

	_, err := f.svc.Begin(context.Background(), f.userID, f.addressID)
	if !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	details, _ := pkgerrors.As(err).Details().(map[string]string)
	if _, ok := details["D-102"]; !ok {
		t.Fatalf("expected out-of-stock detail for D-102, got %v", details)
	}
}

func completeFixture(t *testing.T, lines []cart.Line) *fixture {
	t.Helper()
	f := newFixture(t, lines)
	if _, err := f.svc.Begin(context.Background(), f.userID, f.addressID); err != nil {
		t.Fatalf("begin: %v", err)
	}
	return f
}

func TestCompletePlacesOneOrderPerLine(t *testing.T) {
	f := completeFixture(t, twoLineCart())

	res, err := f.svc.Complete(context.Background(), f.userID, CompleteInput{
		GatewayOrderID: "order_fix123",
		PaymentID:      "pay_1",
		Signature:      "sig",
	})
	if err != nil {
		t.Fatalf("complete: %v", err)
	}

	if len(res.Placed) != 2 || len(res.Failed) != 0 {
		t.Fatalf("expected 2 placed, got %+v", res)
	}
	if !res.CartCleared {
		t.Fatal("expected cart cleared on full success")
	}
	if !f.session.cleared {
		t.Fatal("expected session cart cleared")
	}
	for _, o := range f.placer.placed {
		if o.PaymentStatus != enums.PaymentStatusSuccess || o.WorkStatus != enums.WorkStatusPending {
			t.Fatalf("unexpected order statuses %+v", o)
		}
		if o.AddressID != f.addressID {
			t.Fatalf("expected address carried onto order, got %s", o.AddressID)
		}
	}

	// the guard blocks a duplicate callback
	_, err = f.svc.Complete(context.Background(), f.userID, CompleteInput{GatewayOrderID: "order_fix123"})
	if !pkgerrors.IsCode(err, pkgerrors.CodeIdempotency) {
		t.Fatalf("expected idempotency error on replay, got %v", err)
	}
}

func TestCompletePartialFailureKeepsFailedLines(t *testing.T) {
	lines := twoLineCart()
	f := completeFixture(t, lines)
	f.placer.failDesign = "D-102"

	res, err := f.svc.Complete(context.Background(), f.userID, CompleteInput{GatewayOrderID: "order_fix123"})
	if !pkgerrors.IsCode(err, pkgerrors.CodePartialCheckout) {
		t.Fatalf("expected partial checkout error, got %v", err)
	}
	if len(res.Placed) != 1 || len(res.Failed) != 1 {
		t.Fatalf("expected 1 placed and 1 failed, got %+v", res)
	}
	if res.CartCleared || f.session.cleared {
		t.Fatal("cart must not be cleared on partial failure")
	}
	if len(f.session.lines) != 1 || f.session.lines[0].DesignNo != "D-102" {
		t.Fatalf("expected only the failed line left in cart, got %+v", f.session.lines)
	}

	// retry places only the remaining line, without duplicating the first
	f.placer.failDesign = ""
	res, err = f.svc.Complete(context.Background(), f.userID, CompleteInput{GatewayOrderID: "order_fix123"})
	if err != nil {
		t.Fatalf("retry complete: %v", err)
	}
	if len(res.Placed) != 1 {
		t.Fatalf("expected 1 newly placed order on retry, got %d", len(res.Placed))
	}
	if len(f.placer.placed) != 2 {
		t.Fatalf("expected 2 orders total, got %d", len(f.placer.placed))
	}
}

func TestCompleteAbortsOnFirstFailedLine(t *testing.T) {
	f := completeFixture(t, twoLineCart())
	f.placer.failDesign = "D-101"

	res, err := f.svc.Complete(context.Background(), f.userID, CompleteInput{GatewayOrderID: "order_fix123"})
	if !pkgerrors.IsCode(err, pkgerrors.CodePartialCheckout) {
		t.Fatalf("expected partial checkout error, got %v", err)
	}
	if len(res.Placed) != 0 || len(res.Failed) != 1 {
		t.Fatalf("expected nothing placed and one failure, got %+v", res)
	}
	if len(f.placer.placed) != 0 {
		t.Fatal("second line must not be attempted after the first fails")
	}
	if len(f.session.lines) != 2 {
		t.Fatalf("both lines should survive, got %d", len(f.session.lines))
	}

	// nothing was placed, so the guard is released and a retry starts clean
	f.placer.failDesign = ""
	res, err = f.svc.Complete(context.Background(), f.userID, CompleteInput{GatewayOrderID: "order_fix123"})
	if err != nil {
		t.Fatalf("retry complete: %v", err)
	}
	if len(res.Placed) != 2 || !res.CartCleared {
		t.Fatalf("expected clean retry to place both lines, got %+v", res)
	}
}

func TestCompleteRetriesAfterStuckGuard(t *testing.T) {
	f := completeFixture(t, twoLineCart())
	// a crashed earlier attempt left the guard parked at pending
	f.state.data["guard:order_fix123"] = guardPending

	res, err := f.svc.Complete(context.Background(), f.userID, CompleteInput{GatewayOrderID: "order_fix123"})
	if err != nil {
		t.Fatalf("complete after stuck guard: %v", err)
	}
	if len(res.Placed) != 2 || !res.CartCleared {
		t.Fatalf("expected both lines placed on replay, got %+v", res)
	}
	if got := f.state.data["guard:order_fix123"]; got != guardDone {
		t.Fatalf("guard should end done, got %q", got)
	}
}

// collidingPlacer rejects duplicate custom order ids the way the orders
// table's unique constraint would.
type collidingPlacer struct {
	seen map[string]bool
}

func newCollidingPlacer() *collidingPlacer {
	return &collidingPlacer{seen: make(map[string]bool)}
}

func (p *collidingPlacer) Place(_ context.Context, order *models.Order) error {
	if p.seen[order.CustomOrderID] {
		return fmt.Errorf(`duplicate key value violates unique constraint "orders_custom_order_id_key"`)
	}
	p.seen[order.CustomOrderID] = true
	return nil
}

// repeatIDGen replays the previous id on every repeat-th call, forcing
// deterministic collisions.
type repeatIDGen struct {
	n      int
	repeat int
	last   string
}

func (g *repeatIDGen) Generate(_ context.Context, category enums.DesignCategory) (string, error) {
	g.n++
	if g.repeat > 0 && g.n%g.repeat == 0 && g.last != "" {
		return g.last, nil
	}
	g.last = fmt.Sprintf("260829-%s-%03d-%04d", category.Code(), g.n%1000, g.n)
	return g.last, nil
}

type stubSessions struct {
	session cart.Session
}

func (s *stubSessions) SessionFor(context.Context, uuid.UUID) (cart.Session, error) {
	return s.session, nil
}

func newCollisionService(t *testing.T, session cart.Session, placer *collidingPlacer, gen *repeatIDGen) (Service, uuid.UUID, uuid.UUID) {
	t.Helper()
	userID := uuid.New()
	addressID := uuid.New()
	svc, err := NewService(
		&stubSessions{session: session},
		&fakeAddresses{owned: map[uuid.UUID]uuid.UUID{addressID: userID}},
		placer,
		gen,
		&fakeGateway{orderID: "order_bulk1", sigValid: true},
		newFakeState(),
		config.RazorpayConfig{Currency: "INR", DisplayName: "Sri Sai Embroidery"},
		metrics.NewCheckoutMetrics(nil),
		nil,
	)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc, userID, addressID
}

func TestCompleteRegeneratesCollidedOrderID(t *testing.T) {
	session := &fakeSession{lines: twoLineCart()}
	placer := newCollidingPlacer()
	gen := &repeatIDGen{repeat: 2}
	svc, userID, addressID := newCollisionService(t, session, placer, gen)

	if _, err := svc.Begin(context.Background(), userID, addressID); err != nil {
		t.Fatalf("begin: %v", err)
	}
	res, err := svc.Complete(context.Background(), userID, CompleteInput{GatewayOrderID: "order_bulk1"})
	if err != nil {
		t.Fatalf("complete: %v", err)
	}
	if len(res.Placed) != 2 || len(res.Failed) != 0 {
		t.Fatalf("expected both lines placed despite the collision, got %+v", res)
	}
	if len(placer.seen) != 2 {
		t.Fatalf("expected 2 distinct persisted ids, got %d", len(placer.seen))
	}
	// the second line's first id repeated the first line's and was regenerated
	if gen.n != 3 {
		t.Fatalf("expected 3 generator calls, got %d", gen.n)
	}
}

// bulkSession is a cart.Session cheap enough for very large carts; during
// completion lines are only ever removed front to back.
type bulkSession struct {
	lines   []cart.Line
	cleared bool
}

func (b *bulkSession) AddToCart(context.Context, int64, int) (cart.Snapshot, error) {
	return cart.Snapshot{}, nil
}

func (b *bulkSession) UpdateCartItem(context.Context, uuid.UUID, int) (cart.Snapshot, error) {
	return cart.Snapshot{}, nil
}

func (b *bulkSession) RemoveFromCart(_ context.Context, lineID uuid.UUID) (cart.Snapshot, error) {
	if len(b.lines) > 0 && b.lines[0].ID == lineID {
		b.lines = b.lines[1:]
	}
	return cart.Snapshot{}, nil
}

func (b *bulkSession) ClearCart(context.Context) error {
	b.lines = nil
	b.cleared = true
	return nil
}

func (b *bulkSession) RefreshCart(context.Context) (cart.Snapshot, error) {
	return b.snapshot(), nil
}

func (b *bulkSession) Snapshot() cart.Snapshot { return b.snapshot() }
func (b *bulkSession) LastError() error        { return nil }

func (b *bulkSession) snapshot() cart.Snapshot {
	total := 0
	for _, l := range b.lines {
		total += l.Quantity
	}
	return cart.Snapshot{Lines: b.lines, ItemCount: len(b.lines), TotalQuantity: total}
}

func TestCompletePersistedIDsUniqueAcrossLargeBatch(t *testing.T) {
	const batch = 10000
	lines := make([]cart.Line, 0, batch)
	for i := 0; i < batch; i++ {
		lines = append(lines, cart.Line{
			ID:         uuid.New(),
			DesignID:   int64(i + 1),
			DesignNo:   fmt.Sprintf("D-%05d", i+1),
			PricePaise: 1000,
			Category:   enums.CategoryBridal,
			InStock:    true,
			Quantity:   1,
		})
	}
	session := &bulkSession{lines: lines}
	placer := newCollidingPlacer()
	// every other generated id repeats the previous one, so roughly half
	// the inserts trip the unique constraint and must regenerate
	gen := &repeatIDGen{repeat: 2}
	svc, userID, addressID := newCollisionService(t, session, placer, gen)

	if _, err := svc.Begin(context.Background(), userID, addressID); err != nil {
		t.Fatalf("begin: %v", err)
	}
	res, err := svc.Complete(context.Background(), userID, CompleteInput{GatewayOrderID: "order_bulk1"})
	if err != nil {
		t.Fatalf("complete: %v", err)
	}
	if len(res.Placed) != batch {
		t.Fatalf("expected %d placed orders, got %d", batch, len(res.Placed))
	}
	if len(placer.seen) != batch {
		t.Fatalf("expected %d unique persisted ids, got %d", batch, len(placer.seen))
	}
	if !session.cleared {
		t.Fatal("expected cart cleared after the batch")
	}
}

func TestCompleteRejectsBadSignature(t *testing.T) {
	f := completeFixture(t, twoLineCart())
	f.gateway.sigValid = false

	_, err := f.svc.Complete(context.Background(), f.userID, CompleteInput{
		GatewayOrderID: "order_fix123",
		PaymentID:      "pay_1",
		Signature:      "tampered",
	})
	if !pkgerrors.IsCode(err, pkgerrors.CodeUnauthorized) {
		t.Fatalf("expected unauthorized, got %v", err)
	}
	if len(f.placer.placed) != 0 {
		t.Fatal("no orders should be placed on signature mismatch")
	}
}

func TestCompleteRejectsForeignUser(t *testing.T) {
	f := completeFixture(t, twoLineCart())

	_, err := f.svc.Complete(context.Background(), uuid.New(), CompleteInput{GatewayOrderID: "order_fix123"})
	if !pkgerrors.IsCode(err, pkgerrors.CodeForbidden) {
		t.Fatalf("expected forbidden, got %v", err)
	}
}

func TestCompleteUnknownCheckout(t *testing.T) {
	f := newFixture(t, twoLineCart())

	_, err := f.svc.Complete(context.Background(), f.userID, CompleteInput{GatewayOrderID: "order_missing"})
	if !pkgerrors.IsCode(err, pkgerrors.CodeNotFound) {
		t.Fatalf("expected not-found, got %v", err)
	}
}

func TestDismissLeavesCartUntouched(t *testing.T) {
	f := completeFixture(t, twoLineCart())

	err := f.svc.Dismiss(context.Background(), f.userID, "order_fix123")
	if !pkgerrors.IsCode(err, pkgerrors.CodePaymentDismissed) {
		t.Fatalf("expected payment-dismissed, got %v", err)
	}
	if len(f.session.lines) != 2 {
		t.Fatalf("cart should keep its lines, got %d", len(f.session.lines))
	}
	if len(f.placer.placed) != 0 {
		t.Fatal("no orders should exist after dismissal")
	}

	if err := errors.Unwrap(err); err != nil {
		t.Fatalf("dismissal should be a leaf error, got cause %v", err)
	}
}
