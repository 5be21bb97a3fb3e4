package menu

import (
	"context"
	"database/sql"
	"fmt"
)

// Ledger owns every stock adjustment. Both operations run against a
// caller-owned transaction so the order engine can couple a stock move to
// a status transition as one atomic unit; nothing else in the codebase is
// allowed to write the stock column.
type Ledger struct{}

func NewLedger() *Ledger {
	return &Ledger{}
}

// Reserve decrements stock for every line in the batch. Each decrement is
// a conditional update against the stored value, never a blind overwrite,
// so concurrent orders on the same item cannot lose updates. The first
// line that cannot be covered aborts the batch with the shortage detail;
// rolling back the enclosing transaction discards any decrements already
// applied, so no partial effect ever commits.
func (l *Ledger) Reserve(ctx context.Context, tx *sql.Tx, items []Reservation) error {
	for _, item := range items {
		res, err := tx.ExecContext(ctx, `
			UPDATE menu_items
			SET stock = stock - $1, updated_at = NOW()
			WHERE id = $2 AND stock >= $1
		`, item.Quantity, item.MenuID)
		if err != nil {
			return fmt.Errorf("reserve stock for item %d: %w", item.MenuID, err)
		}

		affected, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("reserve stock for item %d: %w", item.MenuID, err)
		}
		if affected == 0 {
			shortage, err := l.describeShortage(ctx, tx, item)
			if err != nil {
				return err
			}
			return &InsufficientStockError{Shortages: []StockShortage{shortage}}
		}
	}

	return nil
}

// Restore increments stock back after a cancellation. Unconditionally
// additive: catalog limits may have shrunk since the order was placed and
// re-validating against them is out of scope.
func (l *Ledger) Restore(ctx context.Context, tx *sql.Tx, items []Reservation) error {
	for _, item := range items {
		_, err := tx.ExecContext(ctx, `
			UPDATE menu_items
			SET stock = stock + $1, updated_at = NOW()
			WHERE id = $2
		`, item.Quantity, item.MenuID)
		if err != nil {
			return fmt.Errorf("restore stock for item %d: %w", item.MenuID, err)
		}
	}

	return nil
}

func (l *Ledger) describeShortage(ctx context.Context, tx *sql.Tx, item Reservation) (StockShortage, error) {
	var name string
	var remaining int
	err := tx.QueryRowContext(ctx,
		`SELECT name, stock FROM menu_items WHERE id = $1`, item.MenuID,
	).Scan(&name, &remaining)
	if err == sql.ErrNoRows {
		return StockShortage{}, fmt.Errorf("item %d: %w", item.MenuID, ErrMenuItemNotFound)
	}
	if err != nil {
		return StockShortage{}, fmt.Errorf("describe shortage for item %d: %w", item.MenuID, err)
	}

	return StockShortage{
		MenuID:    item.MenuID,
		Name:      name,
		Requested: item.Quantity,
		Remaining: remaining,
	}, nil
}
