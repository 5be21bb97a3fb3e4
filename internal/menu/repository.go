package menu

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"kantin-be/internal/logger"

	"go.uber.org/zap"
)

type Repository interface {
	Create(ctx context.Context, input CreateMenuItemInput) (*MenuItem, error)
	GetByID(ctx context.Context, id uint) (*MenuItem, error)
	List(ctx context.Context, category *Category) ([]*MenuItem, error)
	Update(ctx context.Context, id uint, input UpdateMenuItemInput) (*MenuItem, error)
	Delete(ctx context.Context, id uint) error
	GetStock(ctx context.Context, id uint) (int, error)
}

type repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) Repository {
	return &repository{db: db}
}

func (r *repository) Create(ctx context.Context, input CreateMenuItemInput) (*MenuItem, error) {
	var m MenuItem
	err := r.db.QueryRowContext(ctx, `
		INSERT INTO menu_items (name, price, category, stock)
		VALUES ($1, $2, $3, $4)
		RETURNING id, name, price, category, stock, created_at, updated_at
	`, input.Name, input.Price, input.Category, input.Stock).
		Scan(&m.ID, &m.Name, &m.Price, &m.Category, &m.Stock, &m.CreatedAt, &m.UpdatedAt)
	if err != nil {
		return nil, err
	}

	return &m, nil
}

func (r *repository) GetByID(ctx context.Context, id uint) (*MenuItem, error) {
	var m MenuItem
	err := r.db.QueryRowContext(ctx, `
		SELECT id, name, price, category, stock, created_at, updated_at
		FROM menu_items
		WHERE id = $1
	`, id).
		Scan(&m.ID, &m.Name, &m.Price, &m.Category, &m.Stock, &m.CreatedAt, &m.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrMenuItemNotFound
	}
	if err != nil {
		return nil, err
	}

	return &m, nil
}

func (r *repository) List(ctx context.Context, category *Category) ([]*MenuItem, error) {
	log := logger.FromCtx(ctx).With(zap.String("method", "List"))

	query := `
		SELECT id, name, price, category, stock, created_at, updated_at
		FROM menu_items
	`
	args := []any{}
	if category != nil {
		query += ` WHERE category = $1`
		args = append(args, *category)
	}
	query += ` ORDER BY category, name`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		log.Error("failed to query menu items", zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	var items []*MenuItem
	for rows.Next() {
		var m MenuItem
		if err := rows.Scan(&m.ID, &m.Name, &m.Price, &m.Category, &m.Stock, &m.CreatedAt, &m.UpdatedAt); err != nil {
			return nil, err
		}
		items = append(items, &m)
	}

	return items, rows.Err()
}

func (r *repository) Update(ctx context.Context, id uint, input UpdateMenuItemInput) (*MenuItem, error) {
	set := []string{}
	args := []any{}
	argIndex := 1

	if input.Name != nil {
		set = append(set, fmt.Sprintf("name = $%d", argIndex))
		args = append(args, *input.Name)
		argIndex++
	}
	if input.Price != nil {
		set = append(set, fmt.Sprintf("price = $%d", argIndex))
		args = append(args, *input.Price)
		argIndex++
	}
	if input.Category != nil {
		set = append(set, fmt.Sprintf("category = $%d", argIndex))
		args = append(args, *input.Category)
		argIndex++
	}
	if input.Stock != nil {
		set = append(set, fmt.Sprintf("stock = $%d", argIndex))
		args = append(args, *input.Stock)
		argIndex++
	}
	if len(set) == 0 {
		return r.GetByID(ctx, id)
	}

	set = append(set, "updated_at = NOW()")
	args = append(args, id)

	query := fmt.Sprintf(`
		UPDATE menu_items
		SET %s
		WHERE id = $%d
		RETURNING id, name, price, category, stock, created_at, updated_at
	`, strings.Join(set, ", "), argIndex)

	var m MenuItem
	err := r.db.QueryRowContext(ctx, query, args...).
		Scan(&m.ID, &m.Name, &m.Price, &m.Category, &m.Stock, &m.CreatedAt, &m.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrMenuItemNotFound
	}
	if err != nil {
		return nil, err
	}

	return &m, nil
}

// Delete removes a catalog entry. Historical orders keep their
// denormalized snapshot of the item, so no order rows are touched.
func (r *repository) Delete(ctx context.Context, id uint) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM menu_items WHERE id = $1`, id)
	if err != nil {
		return err
	}

	affected, _ := res.RowsAffected()
	if affected == 0 {
		return ErrMenuItemNotFound
	}
	return nil
}

func (r *repository) GetStock(ctx context.Context, id uint) (int, error) {
	var stock int
	err := r.db.QueryRowContext(ctx,
		`SELECT stock FROM menu_items WHERE id = $1`, id,
	).Scan(&stock)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, ErrMenuItemNotFound
	}

	return stock, err
}
