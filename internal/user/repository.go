package user

import (
	"context"
	"database/sql"

	"kantin-be/internal/logger"

	"go.uber.org/zap"
)

type Repository interface {
	Create(ctx context.Context, email, displayName, password, role string) (User, error)
	FindByEmail(ctx context.Context, email string) (User, error)
	GetRole(ctx context.Context, userID uint) (Role, error)
}

type repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) Repository {
	return &repository{db: db}
}

func (r *repository) Create(ctx context.Context, email, displayName, password, role string) (User, error) {
	log := logger.FromCtx(ctx)

	var u User
	err := r.db.QueryRowContext(ctx, `
		INSERT INTO users (email, display_name, password, role)
		VALUES ($1, $2, $3, $4)
		RETURNING id, email, display_name, password, role, created_at
	`, email, displayName, password, role).
		Scan(&u.ID, &u.Email, &u.DisplayName, &u.Password, &u.Role, &u.CreatedAt)

	if err != nil {
		log.Error("db: failed to insert user",
			zap.String("email", email),
			zap.Error(err),
		)
	}

	return u, err
}

func (r *repository) FindByEmail(ctx context.Context, email string) (User, error) {
	var u User
	err := r.db.QueryRowContext(ctx, `
		SELECT id, email, display_name, password, role, created_at
		FROM users
		WHERE email = $1
	`, email).
		Scan(&u.ID, &u.Email, &u.DisplayName, &u.Password, &u.Role, &u.CreatedAt)

	return u, err
}

// GetRole reads the stored role for a user. Privileged operations call
// this instead of trusting the role claim inside the client's token.
func (r *repository) GetRole(ctx context.Context, userID uint) (Role, error) {
	var role Role
	err := r.db.QueryRowContext(ctx,
		`SELECT role FROM users WHERE id = $1`, userID,
	).Scan(&role)

	return role, err
}
