package order

import (
	"context"
	"errors"
	"time"

	"kantin-be/internal/logger"
	"kantin-be/internal/menu"
	"kantin-be/internal/user"
	"kantin-be/internal/utils"

	"github.com/sethvargo/go-retry"
	"go.uber.org/zap"
)

// Payment window defaults; overridable through Config.
const (
	DefaultCheckoutWindow = 15 * time.Minute
	DefaultManualWindow   = 30 * time.Minute
	DefaultSweepInterval  = 30 * time.Second
)

const expiredReason = "payment window expired"

type PlaceOrderInput struct {
	CustomerName  string
	Items         []ItemInput
	PaymentMethod PaymentMethod
	Notes         string
}

type ManualOrderInput struct {
	CustomerName  string
	Items         []ItemInput
	PaymentMethod PaymentMethod
	Notes         string
}

type ItemInput struct {
	MenuID   uint
	Quantity int
}

type Service interface {
	// PlaceOrder is the self-service checkout. Non-cash orders open a
	// payment window; cash orders enter the queue immediately.
	PlaceOrder(ctx context.Context, input PlaceOrderInput) (*Order, error)

	// CreateManualOrder is the staff-entered flow with a longer window
	// for non-cash methods. Staff-only.
	CreateManualOrder(ctx context.Context, input ManualOrderInput) (*Order, error)

	// CancelOrder cancels a non-terminal order and restores stock.
	// Customers may cancel their own orders; staff may cancel any.
	CancelOrder(ctx context.Context, orderID uint) error

	// ConfirmPaymentAndQueue moves a window order into the queue. Staff-only.
	ConfirmPaymentAndQueue(ctx context.Context, orderID uint) error

	// CompleteOrder finishes a queued order. Staff-only.
	CompleteOrder(ctx context.Context, orderID uint) error

	SubmitPaymentProof(ctx context.Context, orderID uint, proof string) error
	GetOrder(ctx context.Context, orderID uint) (*Order, error)
	ListOrders(ctx context.Context, filter *OrderFilterInput, limit, page *int32) ([]*Order, error)

	// DeleteOrder is the administrative escape hatch. Staff-only.
	DeleteOrder(ctx context.Context, orderID uint) error

	// SweepExpired cancels every order whose payment window has lapsed
	// and returns how many it cancelled.
	SweepExpired(ctx context.Context) (int, error)

	// StartExpirySweeper runs SweepExpired on a ticker until ctx is done.
	StartExpirySweeper(ctx context.Context)
}

type Config struct {
	CheckoutWindow time.Duration
	ManualWindow   time.Duration
	SweepInterval  time.Duration
}

type service struct {
	repo     Repository
	menuRepo menu.Repository
	users    user.Service

	checkoutWindow time.Duration
	manualWindow   time.Duration
	sweepInterval  time.Duration

	// now is swappable in tests.
	now func() time.Time
}

func NewService(repo Repository, menuRepo menu.Repository, users user.Service, cfg Config) Service {
	s := &service{
		repo:           repo,
		menuRepo:       menuRepo,
		users:          users,
		checkoutWindow: cfg.CheckoutWindow,
		manualWindow:   cfg.ManualWindow,
		sweepInterval:  cfg.SweepInterval,
		now:            time.Now,
	}
	if s.checkoutWindow <= 0 {
		s.checkoutWindow = DefaultCheckoutWindow
	}
	if s.manualWindow <= 0 {
		s.manualWindow = DefaultManualWindow
	}
	if s.sweepInterval <= 0 {
		s.sweepInterval = DefaultSweepInterval
	}
	return s
}

func (s *service) PlaceOrder(ctx context.Context, input PlaceOrderInput) (*Order, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("method", "PlaceOrder"),
		zap.Int("item_count", len(input.Items)),
	)

	email := utils.GetUserEmailFromContext(ctx)
	if email == "" {
		return nil, ErrUnauthorized
	}
	if input.PaymentMethod == MethodManual {
		// Reserved for the staff-entered flow.
		return nil, ErrInvalidMethod
	}

	items, err := s.snapshotItems(ctx, input.Items)
	if err != nil {
		return nil, err
	}
	if err := validateMethod(input.PaymentMethod); err != nil {
		return nil, err
	}

	now := s.now()
	var o *Order
	if input.PaymentMethod == MethodCash {
		o = newQueuedOrder(email, input.CustomerName, items, input.PaymentMethod, input.Notes, false, now)
	} else {
		o = newAwaitingPaymentOrder(email, input.CustomerName, items, input.PaymentMethod, input.Notes, false, s.checkoutWindow, now)
	}

	if err := s.repo.CreateOrderTx(ctx, o); err != nil {
		log.Warn("place order failed", zap.Error(err))
		return nil, err
	}

	log.Info("order placed",
		zap.Uint("order_id", o.ID),
		zap.String("status", string(o.Status)),
		zap.Int("total_amount", o.TotalAmount),
	)
	return o, nil
}

func (s *service) CreateManualOrder(ctx context.Context, input ManualOrderInput) (*Order, error) {
	if err := s.users.VerifyStaff(ctx); err != nil {
		return nil, ErrUnauthorized
	}
	if input.CustomerName == "" {
		return nil, ErrNameRequired
	}
	if err := validateMethod(input.PaymentMethod); err != nil {
		return nil, err
	}

	items, err := s.snapshotItems(ctx, input.Items)
	if err != nil {
		return nil, err
	}

	now := s.now()
	var o *Order
	if input.PaymentMethod == MethodCash {
		// Cash at the counter skips the window entirely.
		o = newQueuedOrder(ManualCustomerEmail, input.CustomerName, items, input.PaymentMethod, input.Notes, true, now)
	} else {
		o = newAwaitingPaymentOrder(ManualCustomerEmail, input.CustomerName, items, input.PaymentMethod, input.Notes, true, s.manualWindow, now)
	}

	if err := s.repo.CreateOrderTx(ctx, o); err != nil {
		return nil, err
	}

	logger.FromCtx(ctx).Info("manual order created",
		zap.Uint("order_id", o.ID),
		zap.String("payment_method", string(o.PaymentMethod)),
		zap.String("status", string(o.Status)),
	)
	return o, nil
}

func (s *service) CancelOrder(ctx context.Context, orderID uint) error {
	o, err := s.repo.GetOrder(ctx, orderID)
	if err != nil {
		return err
	}

	reason := "cancelled by staff"
	if s.users.VerifyStaff(ctx) != nil {
		email := utils.GetUserEmailFromContext(ctx)
		if email == "" || email != o.CustomerEmail {
			return ErrUnauthorized
		}
		reason = "cancelled by customer"
	}

	return s.repo.CancelOrderTx(ctx, orderID, reason, s.now())
}

func (s *service) ConfirmPaymentAndQueue(ctx context.Context, orderID uint) error {
	if err := s.users.VerifyStaff(ctx); err != nil {
		return ErrUnauthorized
	}

	if err := s.repo.ConfirmAwaitingPayment(ctx, orderID, s.now()); err != nil {
		return err
	}

	logger.FromCtx(ctx).Info("payment confirmed, order queued", zap.Uint("order_id", orderID))
	return nil
}

func (s *service) CompleteOrder(ctx context.Context, orderID uint) error {
	if err := s.users.VerifyStaff(ctx); err != nil {
		return ErrUnauthorized
	}

	if err := s.repo.CompletePending(ctx, orderID, s.now()); err != nil {
		return err
	}

	logger.FromCtx(ctx).Info("order completed", zap.Uint("order_id", orderID))
	return nil
}

func (s *service) SubmitPaymentProof(ctx context.Context, orderID uint, proof string) error {
	o, err := s.repo.GetOrder(ctx, orderID)
	if err != nil {
		return err
	}

	if s.users.VerifyStaff(ctx) != nil {
		email := utils.GetUserEmailFromContext(ctx)
		if email == "" || email != o.CustomerEmail {
			return ErrUnauthorized
		}
	}

	return s.repo.AttachPaymentProof(ctx, orderID, proof)
}

func (s *service) GetOrder(ctx context.Context, orderID uint) (*Order, error) {
	o, err := s.repo.GetOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}

	// Customers only see their own orders.
	if utils.GetUserRoleFromContext(ctx) != utils.RoleStaff {
		email := utils.GetUserEmailFromContext(ctx)
		if email == "" || email != o.CustomerEmail {
			return nil, ErrUnauthorized
		}
	}

	return o, nil
}

func (s *service) ListOrders(ctx context.Context, filter *OrderFilterInput, limit, page *int32) ([]*Order, error) {
	return s.repo.List(ctx, filter, limit, page)
}

func (s *service) DeleteOrder(ctx context.Context, orderID uint) error {
	if err := s.users.VerifyStaff(ctx); err != nil {
		return ErrUnauthorized
	}

	if err := s.repo.DeleteOrder(ctx, orderID); err != nil {
		return err
	}

	logger.FromCtx(ctx).Warn("order deleted by staff", zap.Uint("order_id", orderID))
	return nil
}

func (s *service) SweepExpired(ctx context.Context) (int, error) {
	log := logger.FromCtx(ctx).With(zap.String("method", "SweepExpired"))
	now := s.now()

	// The scan is a pure read; transient store hiccups are retried with
	// backoff before giving up on this tick.
	var ids []uint
	backoff := retry.WithMaxRetries(3, retry.NewFibonacci(200*time.Millisecond))
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		var scanErr error
		ids, scanErr = s.repo.ListExpired(ctx, now)
		if scanErr != nil {
			return retry.RetryableError(scanErr)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	cancelled := 0
	for _, id := range ids {
		err := s.repo.CancelOrderTx(ctx, id, expiredReason, now)
		switch {
		case err == nil:
			cancelled++
		case errors.Is(err, ErrInvalidTransition), errors.Is(err, ErrOrderNotFound):
			// A racing customer cancel or staff confirm resolved the
			// order between scan and cancel. Nothing to do.
		default:
			// One bad row must not halt the sweep.
			log.Error("failed to expire order", zap.Uint("order_id", id), zap.Error(err))
		}
	}

	if cancelled > 0 {
		log.Info("expired orders cancelled", zap.Int("count", cancelled))
	}
	return cancelled, nil
}

func (s *service) StartExpirySweeper(ctx context.Context) {
	go func() {
		ticker := time.NewTicker(s.sweepInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if _, err := s.SweepExpired(ctx); err != nil {
					logger.FromCtx(ctx).Error("expiry sweep failed", zap.Error(err))
				}
			}
		}
	}()
}

// snapshotItems validates the request lines and freezes menu name/price
// into the order, so later catalog edits never rewrite history.
func (s *service) snapshotItems(ctx context.Context, inputs []ItemInput) ([]LineItem, error) {
	if len(inputs) == 0 {
		return nil, ErrEmptyOrder
	}

	items := make([]LineItem, 0, len(inputs))
	for _, in := range inputs {
		if in.Quantity <= 0 {
			return nil, ErrInvalidQuantity
		}

		m, err := s.menuRepo.GetByID(ctx, in.MenuID)
		if err != nil {
			return nil, err
		}

		items = append(items, LineItem{
			MenuID:   m.ID,
			Name:     m.Name,
			Price:    m.Price,
			Quantity: in.Quantity,
			Subtotal: m.Price * in.Quantity,
		})
	}

	return items, nil
}

func validateMethod(m PaymentMethod) error {
	if !m.Valid() {
		return ErrInvalidMethod
	}
	return nil
}
