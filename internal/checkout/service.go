package checkout

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"

	"github.com/saiembroidery/storefront-backend/internal/cart"
	"github.com/saiembroidery/storefront-backend/pkg/config"
	pkgdb "github.com/saiembroidery/storefront-backend/pkg/db"
	"github.com/saiembroidery/storefront-backend/pkg/db/models"
	"github.com/saiembroidery/storefront-backend/pkg/enums"
	pkgerrors "github.com/saiembroidery/storefront-backend/pkg/errors"
	"github.com/saiembroidery/storefront-backend/pkg/logger"
	"github.com/saiembroidery/storefront-backend/pkg/metrics"
	"github.com/saiembroidery/storefront-backend/pkg/razorpay"
)

const (
	beginStateTTL = 24 * time.Hour
	guardTTL      = 7 * 24 * time.Hour

	guardPending = "pending"
	guardPartial = "partial"
	guardDone    = "done"
)

type cartSessions interface {
	SessionFor(ctx context.Context, userID uuid.UUID) (cart.Session, error)
}

type addressLoader interface {
	Get(ctx context.Context, userID, id uuid.UUID) (*models.Address, error)
}

type orderPlacer interface {
	Place(ctx context.Context, order *models.Order) error
}

type idGenerator interface {
	Generate(ctx context.Context, category enums.DesignCategory) (string, error)
}

type gateway interface {
	CreateOrder(ctx context.Context, req razorpay.OrderRequest) (*razorpay.Order, error)
	KeyID() string
	VerifySignature(gatewayOrderID, paymentID, signature string) bool
}

type stateStore interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	SetNX(ctx context.Context, key string, value any, ttl time.Duration) (bool, error)
	Del(ctx context.Context, keys ...string) error
	CheckoutGuardKey(gatewayOrderID string) string
	CheckoutBeginKey(gatewayOrderID string) string
}

// BeginResult carries everything the storefront needs to open the payment
// dialog.
type BeginResult struct {
	GatewayOrderID string `json:"gateway_order_id"`
	AmountPaise    int64  `json:"amount_paise"`
	Currency       string `json:"currency"`
	KeyID          string `json:"key_id"`
	DisplayName    string `json:"display_name"`
	ItemCount      int    `json:"item_count"`
}

// CompleteInput is the payload reported by the storefront after payment.
type CompleteInput struct {
	GatewayOrderID string `json:"gateway_order_id" validate:"required"`
	PaymentID      string `json:"payment_id,omitempty"`
	Signature      string `json:"signature,omitempty"`
}

// PlacedOrder summarizes one persisted order row.
type PlacedOrder struct {
	OrderID       uuid.UUID `json:"order_id"`
	CustomOrderID string    `json:"custom_order_id"`
	DesignNo      string    `json:"design_no"`
	Quantity      int       `json:"quantity"`
	AmountPaise   int64     `json:"amount_paise"`
}

// FailedLine describes a cart line whose order row could not be written.
type FailedLine struct {
	LineID   uuid.UUID `json:"line_id"`
	DesignNo string    `json:"design_no"`
	Reason   string    `json:"reason"`
}

// CompleteResult is the outcome of a completion attempt. On partial failure
// Placed holds the rows that did persist; their cart lines are already gone,
// so a retry only re-attempts the failed ones.
type CompleteResult struct {
	Placed      []PlacedOrder `json:"placed"`
	Failed      []FailedLine  `json:"failed,omitempty"`
	CartCleared bool          `json:"cart_cleared"`
}

type beginState struct {
	UserID      uuid.UUID `json:"user_id"`
	AddressID   uuid.UUID `json:"address_id"`
	AmountPaise int64     `json:"amount_paise"`
}

// Service orchestrates the cart-to-order flow around the payment gateway.
type Service interface {
	Begin(ctx context.Context, userID, addressID uuid.UUID) (*BeginResult, error)
	Complete(ctx context.Context, userID uuid.UUID, input CompleteInput) (*CompleteResult, error)
	Dismiss(ctx context.Context, userID uuid.UUID, gatewayOrderID string) error
}

type service struct {
	carts     cartSessions
	addresses addressLoader
	orders    orderPlacer
	idgen     idGenerator
	gateway   gateway
	state     stateStore
	cfg       config.RazorpayConfig
	metrics   *metrics.CheckoutMetrics
	logg      *logger.Logger
}

// NewService builds the checkout orchestrator, validating its dependencies.
func NewService(
	carts cartSessions,
	addresses addressLoader,
	orders orderPlacer,
	idgen idGenerator,
	gw gateway,
	state stateStore,
	cfg config.RazorpayConfig,
	m *metrics.CheckoutMetrics,
	logg *logger.Logger,
) (Service, error) {
	if carts == nil {
		return nil, fmt.Errorf("cart sessions required")
	}
	if addresses == nil {
		return nil, fmt.Errorf("address loader required")
	}
	if orders == nil {
		return nil, fmt.Errorf("order placer required")
	}
	if idgen == nil {
		return nil, fmt.Errorf("order id generator required")
	}
	if gw == nil {
		return nil, fmt.Errorf("payment gateway required")
	}
	if state == nil {
		return nil, fmt.Errorf("state store required")
	}
	return &service{
		carts:     carts,
		addresses: addresses,
		orders:    orders,
		idgen:     idgen,
		gateway:   gw,
		state:     state,
		cfg:       cfg,
		metrics:   m,
		logg:      logg,
	}, nil
}

// Begin validates the cart and delivery address, registers a payable order
// with the gateway, and parks the checkout state until the payment callback.
func (s *service) Begin(ctx context.Context, userID, addressID uuid.UUID) (*BeginResult, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}
	if addressID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "address id is required")
	}

	if _, err := s.addresses.Get(ctx, userID, addressID); err != nil {
		return nil, err
	}

	session, err := s.carts.SessionFor(ctx, userID)
	if err != nil {
		return nil, err
	}
	snap, err := session.RefreshCart(ctx)
	if err != nil {
		return nil, err
	}
	if snap.ItemCount == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cart is empty")
	}

	var amount int64
	outOfStock := map[string]string{}
	for _, line := range snap.Lines {
		if !line.InStock {
			outOfStock[line.DesignNo] = "out of stock"
			continue
		}
		amount += line.PricePaise * int64(line.Quantity)
	}
	if len(outOfStock) > 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cart contains unavailable designs").WithDetails(outOfStock)
	}

	gwOrder, err := s.gateway.CreateOrder(ctx, razorpay.OrderRequest{
		AmountPaise: amount,
		Currency:    s.cfg.Currency,
		Receipt:     fmt.Sprintf("cart-%s", userID.String()[:8]),
		Notes: map[string]string{
			"user_id":    userID.String(),
			"address_id": addressID.String(),
		},
	})
	if err != nil {
		return nil, err
	}

	payload, err := json.Marshal(beginState{UserID: userID, AddressID: addressID, AmountPaise: amount})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encode checkout state")
	}
	if err := s.state.Set(ctx, s.state.CheckoutBeginKey(gwOrder.ID), string(payload), beginStateTTL); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "store checkout state")
	}

	if s.logg != nil {
		s.logg.Info(s.logg.WithOrderID(ctx, gwOrder.ID), "checkout.begin")
	}

	return &BeginResult{
		GatewayOrderID: gwOrder.ID,
		AmountPaise:    amount,
		Currency:       s.cfg.Currency,
		KeyID:          s.gateway.KeyID(),
		DisplayName:    s.cfg.DisplayName,
		ItemCount:      snap.ItemCount,
	}, nil
}

// Complete turns the paid cart into order rows, one row per cart line. Each
// persisted row immediately removes its cart line, so partial failures leave
// only the unplaced lines behind. The cart is cleared in full only when every
// line persisted.
func (s *service) Complete(ctx context.Context, userID uuid.UUID, input CompleteInput) (*CompleteResult, error) {
	start := time.Now()
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}
	if input.GatewayOrderID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "gateway order id is required")
	}

	state, err := s.loadBeginState(ctx, input.GatewayOrderID)
	if err != nil {
		return nil, err
	}
	if state.UserID != userID {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "checkout belongs to another user")
	}

	if input.PaymentID != "" || input.Signature != "" {
		if !s.gateway.VerifySignature(input.GatewayOrderID, input.PaymentID, input.Signature) {
			return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "payment signature mismatch")
		}
	}

	guardKey := s.state.CheckoutGuardKey(input.GatewayOrderID)
	acquired, err := s.state.SetNX(ctx, guardKey, guardPending, guardTTL)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "acquire checkout guard")
	}
	if !acquired {
		value, getErr := s.state.Get(ctx, guardKey)
		if getErr != nil && !errors.Is(getErr, goredis.Nil) {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, getErr, "inspect checkout guard")
		}
		if value == guardDone {
			return nil, pkgerrors.New(pkgerrors.CodeIdempotency, "checkout already completed")
		}
		// partial completions retry their failed lines. A guard still at
		// pending means an earlier attempt died mid-loop; placed lines are
		// already out of the cart, so replaying is safe.
	}

	session, err := s.carts.SessionFor(ctx, userID)
	if err != nil {
		s.releaseGuard(ctx, guardKey)
		return nil, err
	}
	snap, err := session.RefreshCart(ctx)
	if err != nil {
		s.releaseGuard(ctx, guardKey)
		return nil, err
	}
	if snap.ItemCount == 0 {
		s.releaseGuard(ctx, guardKey)
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cart is empty")
	}

	result := &CompleteResult{}
	for _, line := range snap.Lines {
		placed, placeErr := s.placeLine(ctx, userID, state.AddressID, line)
		if placeErr != nil {
			// stop here rather than pressing on: later lines stay in the
			// cart untouched and are re-attempted on the next completion
			result.Failed = append(result.Failed, FailedLine{
				LineID:   line.ID,
				DesignNo: line.DesignNo,
				Reason:   placeErr.Error(),
			})
			break
		}
		result.Placed = append(result.Placed, *placed)
		if _, rmErr := session.RemoveFromCart(ctx, line.ID); rmErr != nil {
			// the order row exists; a stale cart line is recoverable on refresh
			if s.logg != nil {
				s.logg.Warn(ctx, fmt.Sprintf("order %s placed but cart line %s not removed: %v", placed.CustomOrderID, line.ID, rmErr))
			}
		}
	}

	s.recordOutcome(result, start)

	switch {
	case len(result.Failed) == 0:
		if err := session.ClearCart(ctx); err != nil {
			if s.logg != nil {
				s.logg.Warn(ctx, fmt.Sprintf("orders placed but cart not cleared for user %s: %v", userID, err))
			}
		} else {
			result.CartCleared = true
		}
		if err := s.state.Set(ctx, guardKey, guardDone, guardTTL); err != nil && s.logg != nil {
			s.logg.Warn(ctx, fmt.Sprintf("checkout guard for %s not marked done: %v", input.GatewayOrderID, err))
		}
		_ = s.state.Del(ctx, s.state.CheckoutBeginKey(input.GatewayOrderID))
		return result, nil

	case len(result.Placed) == 0:
		s.releaseGuard(ctx, guardKey)
		return result, pkgerrors.New(pkgerrors.CodePartialCheckout, "no orders could be placed").
			WithDetails(map[string]any{"placed": 0, "failed": len(result.Failed)})

	default:
		if err := s.state.Set(ctx, guardKey, guardPartial, guardTTL); err != nil && s.logg != nil {
			// a retry still gets through: a guard stuck at pending is
			// treated as retryable above
			s.logg.Warn(ctx, fmt.Sprintf("checkout guard for %s not marked partial: %v", input.GatewayOrderID, err))
		}
		return result, pkgerrors.New(pkgerrors.CodePartialCheckout, "some orders could not be placed").
			WithDetails(map[string]any{"placed": len(result.Placed), "failed": len(result.Failed)})
	}
}

// Dismiss records that the shopper closed the payment dialog. The cart and
// its snapshot are left untouched so checkout can be retried.
func (s *service) Dismiss(ctx context.Context, userID uuid.UUID, gatewayOrderID string) error {
	if gatewayOrderID == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "gateway order id is required")
	}

	state, err := s.loadBeginState(ctx, gatewayOrderID)
	if err != nil {
		return err
	}
	if state.UserID != userID {
		return pkgerrors.New(pkgerrors.CodeForbidden, "checkout belongs to another user")
	}

	_ = s.state.Del(ctx, s.state.CheckoutBeginKey(gatewayOrderID))
	s.metrics.IncCompletion(metrics.OutcomeDismissed)

	if s.logg != nil {
		s.logg.Info(s.logg.WithOrderID(ctx, gatewayOrderID), "checkout.dismissed")
	}
	return pkgerrors.New(pkgerrors.CodePaymentDismissed, "payment was not completed")
}

// placeAttempts bounds how often a colliding custom order id is regenerated
// before the line is reported as failed.
const placeAttempts = 5

func (s *service) placeLine(ctx context.Context, userID, addressID uuid.UUID, line cart.Line) (*PlacedOrder, error) {
	if line.Quantity <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be positive")
	}

	var lastErr error
	for attempt := 1; attempt <= placeAttempts; attempt++ {
		customID, err := s.idgen.Generate(ctx, line.Category)
		if err != nil {
			return nil, err
		}

		order := &models.Order{
			ID:            uuid.New(),
			CustomOrderID: customID,
			UserID:        userID,
			AddressID:     addressID,
			DesignNo:      line.DesignNo,
			Quantity:      line.Quantity,
			PricePaise:    line.PricePaise,
			PaymentStatus: enums.PaymentStatusSuccess,
			WorkStatus:    enums.WorkStatusPending,
			Category:      line.Category,
		}
		err = s.orders.Place(ctx, order)
		if err == nil {
			return &PlacedOrder{
				OrderID:       order.ID,
				CustomOrderID: customID,
				DesignNo:      line.DesignNo,
				Quantity:      line.Quantity,
				AmountPaise:   line.PricePaise * int64(line.Quantity),
			}, nil
		}
		// a colliding custom order id gets a fresh random suffix; any
		// other insert failure is not recoverable here
		if !pkgdb.IsUniqueViolation(err, "custom_order_id") {
			return nil, err
		}
		lastErr = err
		if s.logg != nil {
			s.logg.Warn(ctx, fmt.Sprintf("order id %s collided, regenerating (attempt %d)", customID, attempt))
		}
	}
	return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, lastErr, "order id kept colliding")
}

func (s *service) loadBeginState(ctx context.Context, gatewayOrderID string) (*beginState, error) {
	raw, err := s.state.Get(ctx, s.state.CheckoutBeginKey(gatewayOrderID))
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "unknown or expired checkout")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load checkout state")
	}
	var state beginState
	if err := json.Unmarshal([]byte(raw), &state); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "decode checkout state")
	}
	return &state, nil
}

func (s *service) releaseGuard(ctx context.Context, guardKey string) {
	if err := s.state.Del(ctx, guardKey); err != nil && s.logg != nil {
		s.logg.Warn(ctx, fmt.Sprintf("release checkout guard %s: %v", guardKey, err))
	}
}

func (s *service) recordOutcome(result *CompleteResult, start time.Time) {
	outcome := metrics.OutcomeSuccess
	switch {
	case len(result.Placed) == 0 && len(result.Failed) > 0:
		outcome = metrics.OutcomeFailed
	case len(result.Failed) > 0:
		outcome = metrics.OutcomePartial
	}
	s.metrics.IncCompletion(outcome)
	s.metrics.AddOrders(len(result.Placed))
	s.metrics.ObserveDuration(outcome, time.Since(start))
}
