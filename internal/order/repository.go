package order

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"kantin-be/internal/logger"
	"kantin-be/internal/menu"
	"kantin-be/internal/utils"

	"go.uber.org/zap"
)

type Repository interface {
	// CreateOrderTx inserts the order row and its line items and reserves
	// stock for every line, all in one transaction. Insufficient stock
	// aborts the whole insert with menu.InsufficientStockError.
	CreateOrderTx(ctx context.Context, o *Order) error

	GetOrder(ctx context.Context, id uint) (*Order, error)
	List(ctx context.Context, filter *OrderFilterInput, limit, page *int32) ([]*Order, error)

	// ConfirmAwaitingPayment moves awaiting_payment -> pending and clears
	// the window fields, only while the deadline has not passed.
	ConfirmAwaitingPayment(ctx context.Context, id uint, now time.Time) error

	// CompletePending moves pending -> completed.
	CompletePending(ctx context.Context, id uint, now time.Time) error

	// CancelOrderTx moves any non-terminal order to cancelled and restores
	// stock for its line items in the same transaction. A concurrent
	// cancel loses the conditional update and gets ErrInvalidTransition
	// without touching stock, so restoration happens exactly once.
	CancelOrderTx(ctx context.Context, id uint, reason string, now time.Time) error

	// ListExpired returns ids of orders whose payment window has lapsed.
	ListExpired(ctx context.Context, now time.Time) ([]uint, error)

	AttachPaymentProof(ctx context.Context, id uint, proof string) error

	// DeleteOrder physically removes an order. Administrative escape
	// hatch, not part of the lifecycle; stock is not adjusted.
	DeleteOrder(ctx context.Context, id uint) error
}

type repository struct {
	db     *sql.DB
	ledger *menu.Ledger
}

func NewRepository(db *sql.DB, ledger *menu.Ledger) Repository {
	return &repository{db: db, ledger: ledger}
}

const orderColumns = `
	id, customer_email, customer_name, total_amount, payment_method,
	status, payment_status, payment_proof, notes, cancel_reason,
	is_manual_order, created_at, awaiting_payment_at, expiry_time,
	completed_at, cancelled_at
`

func scanOrder(row interface{ Scan(...any) error }, o *Order) error {
	return row.Scan(
		&o.ID, &o.CustomerEmail, &o.CustomerName, &o.TotalAmount, &o.PaymentMethod,
		&o.Status, &o.PaymentStatus, &o.PaymentProof, &o.Notes, &o.CancelReason,
		&o.IsManualOrder, &o.CreatedAt, &o.AwaitingPaymentAt, &o.ExpiryTime,
		&o.CompletedAt, &o.CancelledAt,
	)
}

func (r *repository) CreateOrderTx(ctx context.Context, o *Order) error {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "repository"),
		zap.String("method", "CreateOrderTx"),
		zap.Int("item_count", len(o.Items)),
	)

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		log.Error("failed to begin transaction", zap.Error(err))
		return err
	}

	committed := false
	defer func() {
		if !committed {
			if rbErr := tx.Rollback(); rbErr != nil {
				log.Error("failed to rollback transaction", zap.Error(rbErr))
			}
		}
	}()

	// Reserve first: a shortage aborts before any order row exists.
	reservations := make([]menu.Reservation, 0, len(o.Items))
	for _, item := range o.Items {
		reservations = append(reservations, menu.Reservation{MenuID: item.MenuID, Quantity: item.Quantity})
	}
	if err := r.ledger.Reserve(ctx, tx, reservations); err != nil {
		return err
	}

	err = tx.QueryRowContext(ctx, `
		INSERT INTO orders (
			customer_email, customer_name, total_amount, payment_method,
			status, payment_status, notes, is_manual_order,
			created_at, awaiting_payment_at, expiry_time
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
		RETURNING id
	`,
		o.CustomerEmail, o.CustomerName, o.TotalAmount, o.PaymentMethod,
		o.Status, o.PaymentStatus, o.Notes, o.IsManualOrder,
		o.CreatedAt, o.AwaitingPaymentAt, o.ExpiryTime,
	).Scan(&o.ID)
	if err != nil {
		log.Error("failed to insert order", zap.Error(err))
		return err
	}

	for i, item := range o.Items {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO order_items (order_id, menu_id, name, price, quantity, subtotal)
			VALUES ($1,$2,$3,$4,$5,$6)
		`, o.ID, item.MenuID, item.Name, item.Price, item.Quantity, item.Subtotal)
		if err != nil {
			log.Error("failed to insert order item",
				zap.Int("item_index", i),
				zap.Uint("menu_id", item.MenuID),
				zap.Error(err),
			)
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		log.Error("failed to commit order transaction", zap.Error(err))
		return err
	}

	committed = true
	log.Info("order created", zap.Uint("order_id", o.ID), zap.String("status", string(o.Status)))
	return nil
}

func (r *repository) GetOrder(ctx context.Context, id uint) (*Order, error) {
	var o Order
	err := scanOrder(r.db.QueryRowContext(ctx,
		`SELECT `+orderColumns+` FROM orders WHERE id = $1`, id,
	), &o)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrOrderNotFound
	}
	if err != nil {
		return nil, err
	}

	items, err := r.loadItems(ctx, r.db.QueryContext, id)
	if err != nil {
		return nil, err
	}
	o.Items = items

	return &o, nil
}

type queryFunc func(ctx context.Context, query string, args ...any) (*sql.Rows, error)

func (r *repository) loadItems(ctx context.Context, query queryFunc, orderID uint) ([]LineItem, error) {
	rows, err := query(ctx, `
		SELECT menu_id, name, price, quantity, subtotal
		FROM order_items
		WHERE order_id = $1
		ORDER BY id
	`, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []LineItem
	for rows.Next() {
		var item LineItem
		if err := rows.Scan(&item.MenuID, &item.Name, &item.Price, &item.Quantity, &item.Subtotal); err != nil {
			return nil, err
		}
		items = append(items, item)
	}

	return items, rows.Err()
}

func (r *repository) List(ctx context.Context, filter *OrderFilterInput, limit, page *int32) ([]*Order, error) {
	role := utils.GetUserRoleFromContext(ctx)
	email := utils.GetUserEmailFromContext(ctx)
	isStaff := role == utils.RoleStaff

	finalLimit := int32(20)
	finalPage := int32(1)
	if limit != nil && *limit > 0 {
		finalLimit = *limit
	}
	if page != nil && *page > 0 {
		finalPage = *page
	}
	if finalLimit > 100 {
		finalLimit = 100
	}
	offset := (finalPage - 1) * finalLimit

	log := logger.FromCtx(ctx).With(
		zap.String("method", "List"),
		zap.String("role", role),
		zap.Int32("limit", finalLimit),
		zap.Int32("page", finalPage),
	)

	query := `SELECT ` + orderColumns + ` FROM orders WHERE 1=1`
	args := []any{}
	argIndex := 1

	// Reads are scoped by the token's identity; every mutation path
	// re-verifies the stored role before acting.
	if !isStaff {
		query += fmt.Sprintf(" AND customer_email = $%d", argIndex)
		args = append(args, email)
		argIndex++
	}

	if filter != nil {
		if filter.Status != nil {
			query += fmt.Sprintf(" AND status = $%d", argIndex)
			args = append(args, *filter.Status)
			argIndex++
		}
		if filter.DateFrom != nil {
			query += fmt.Sprintf(" AND created_at >= $%d", argIndex)
			args = append(args, *filter.DateFrom)
			argIndex++
		}
		if filter.DateTo != nil {
			query += fmt.Sprintf(" AND created_at <= $%d", argIndex)
			args = append(args, *filter.DateTo)
			argIndex++
		}
	}

	query += " ORDER BY created_at DESC"
	query += fmt.Sprintf(" LIMIT $%d OFFSET $%d", argIndex, argIndex+1)
	args = append(args, finalLimit, offset)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		log.Error("failed to query orders", zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	var orders []*Order
	for rows.Next() {
		var o Order
		if err := scanOrder(rows, &o); err != nil {
			log.Error("failed to scan order row", zap.Error(err))
			return nil, err
		}
		orders = append(orders, &o)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for _, o := range orders {
		items, err := r.loadItems(ctx, r.db.QueryContext, o.ID)
		if err != nil {
			return nil, err
		}
		o.Items = items
	}

	log.Debug("orders listed", zap.Int("count", len(orders)))
	return orders, nil
}

func (r *repository) ConfirmAwaitingPayment(ctx context.Context, id uint, now time.Time) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE orders
		SET status = $1, expiry_time = NULL, awaiting_payment_at = NULL
		WHERE id = $2 AND status = $3 AND expiry_time > $4
	`, StatusPending, id, StatusAwaitingPayment, now)
	if err != nil {
		return err
	}

	affected, _ := res.RowsAffected()
	if affected == 0 {
		return r.explainTransitionFailure(ctx, id, StatusAwaitingPayment, now)
	}
	return nil
}

func (r *repository) CompletePending(ctx context.Context, id uint, now time.Time) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE orders
		SET status = $1, completed_at = $2
		WHERE id = $3 AND status = $4
	`, StatusCompleted, now, id, StatusPending)
	if err != nil {
		return err
	}

	affected, _ := res.RowsAffected()
	if affected == 0 {
		return r.explainTransitionFailure(ctx, id, StatusPending, now)
	}
	return nil
}

func (r *repository) CancelOrderTx(ctx context.Context, id uint, reason string, now time.Time) error {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "repository"),
		zap.String("method", "CancelOrderTx"),
		zap.Uint("order_id", id),
	)

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}

	committed := false
	defer func() {
		if !committed {
			if rbErr := tx.Rollback(); rbErr != nil {
				log.Error("failed to rollback transaction", zap.Error(rbErr))
			}
		}
	}()

	res, err := tx.ExecContext(ctx, `
		UPDATE orders
		SET status = $1, cancelled_at = $2, cancel_reason = $3,
		    expiry_time = NULL, awaiting_payment_at = NULL
		WHERE id = $4 AND status IN ($5, $6)
	`, StatusCancelled, now, reason, id, StatusAwaitingPayment, StatusPending)
	if err != nil {
		return err
	}

	affected, _ := res.RowsAffected()
	if affected == 0 {
		// Either the order never existed or a racing cancel/complete got
		// there first. Stock stays untouched in both cases.
		return r.explainTransitionFailure(ctx, id, "", now)
	}

	items, err := r.loadItems(ctx, tx.QueryContext, id)
	if err != nil {
		return err
	}

	restores := make([]menu.Reservation, 0, len(items))
	for _, item := range items {
		restores = append(restores, menu.Reservation{MenuID: item.MenuID, Quantity: item.Quantity})
	}
	if err := r.ledger.Restore(ctx, tx, restores); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return err
	}

	committed = true
	log.Info("order cancelled", zap.String("reason", reason))
	return nil
}

func (r *repository) ListExpired(ctx context.Context, now time.Time) ([]uint, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id FROM orders
		WHERE status = $1 AND expiry_time < $2
		ORDER BY expiry_time
	`, StatusAwaitingPayment, now)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []uint
	for rows.Next() {
		var id uint
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}

	return ids, rows.Err()
}

func (r *repository) AttachPaymentProof(ctx context.Context, id uint, proof string) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE orders
		SET payment_proof = $1, payment_status = $2
		WHERE id = $3 AND status IN ($4, $5)
	`, proof, PaymentPaid, id, StatusAwaitingPayment, StatusPending)
	if err != nil {
		return err
	}

	affected, _ := res.RowsAffected()
	if affected == 0 {
		return r.explainTransitionFailure(ctx, id, "", time.Time{})
	}
	return nil
}

func (r *repository) DeleteOrder(ctx context.Context, id uint) error {
	// order_items rows go with the order via ON DELETE CASCADE.
	res, err := r.db.ExecContext(ctx, `DELETE FROM orders WHERE id = $1`, id)
	if err != nil {
		return err
	}

	affected, _ := res.RowsAffected()
	if affected == 0 {
		return ErrOrderNotFound
	}
	return nil
}

// explainTransitionFailure turns a zero-row conditional update into the
// precise conflict: missing row, lapsed window, or terminal state.
func (r *repository) explainTransitionFailure(ctx context.Context, id uint, wantStatus Status, now time.Time) error {
	var status Status
	var expiry sql.NullTime
	err := r.db.QueryRowContext(ctx,
		`SELECT status, expiry_time FROM orders WHERE id = $1`, id,
	).Scan(&status, &expiry)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrOrderNotFound
	}
	if err != nil {
		return err
	}

	if wantStatus == StatusAwaitingPayment && status == StatusAwaitingPayment &&
		expiry.Valid && !expiry.Time.After(now) {
		return ErrWindowExpired
	}
	return fmt.Errorf("%w: order %d is %s", ErrInvalidTransition, id, status)
}
