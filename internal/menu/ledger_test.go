package menu

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLedger_Reserve(t *testing.T) {
	ledger := NewLedger()

	t.Run("Success", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectBegin()
		mock.ExpectExec(`UPDATE menu_items`).
			WithArgs(3, uint(1)).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec(`UPDATE menu_items`).
			WithArgs(2, uint(2)).
			WillReturnResult(sqlmock.NewResult(0, 1))

		tx, err := db.Begin()
		require.NoError(t, err)

		err = ledger.Reserve(context.Background(), tx, []Reservation{
			{MenuID: 1, Quantity: 3},
			{MenuID: 2, Quantity: 2},
		})

		assert.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("InsufficientStock", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectBegin()
		// Conditional decrement matches no row: stock < requested.
		mock.ExpectExec(`UPDATE menu_items`).
			WithArgs(10, uint(1)).
			WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectQuery(`SELECT name, stock FROM menu_items`).
			WithArgs(uint(1)).
			WillReturnRows(sqlmock.NewRows([]string{"name", "stock"}).AddRow("Matcha", 5))

		tx, err := db.Begin()
		require.NoError(t, err)

		err = ledger.Reserve(context.Background(), tx, []Reservation{{MenuID: 1, Quantity: 10}})

		var stockErr *InsufficientStockError
		require.ErrorAs(t, err, &stockErr)
		require.Len(t, stockErr.Shortages, 1)
		assert.Equal(t, uint(1), stockErr.Shortages[0].MenuID)
		assert.Equal(t, "Matcha", stockErr.Shortages[0].Name)
		assert.Equal(t, 10, stockErr.Shortages[0].Requested)
		assert.Equal(t, 5, stockErr.Shortages[0].Remaining)
	})

	t.Run("UnknownItem", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectBegin()
		mock.ExpectExec(`UPDATE menu_items`).
			WithArgs(1, uint(404)).
			WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectQuery(`SELECT name, stock FROM menu_items`).
			WithArgs(uint(404)).
			WillReturnRows(sqlmock.NewRows([]string{"name", "stock"}))

		tx, err := db.Begin()
		require.NoError(t, err)

		err = ledger.Reserve(context.Background(), tx, []Reservation{{MenuID: 404, Quantity: 1}})

		assert.ErrorIs(t, err, ErrMenuItemNotFound)
	})

	t.Run("DBError", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectBegin()
		mock.ExpectExec(`UPDATE menu_items`).
			WithArgs(1, uint(1)).
			WillReturnError(errors.New("connection reset"))

		tx, err := db.Begin()
		require.NoError(t, err)

		err = ledger.Reserve(context.Background(), tx, []Reservation{{MenuID: 1, Quantity: 1}})

		assert.Error(t, err)
	})
}

func TestLedger_Restore(t *testing.T) {
	ledger := NewLedger()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE menu_items`).
		WithArgs(3, uint(1)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	tx, err := db.Begin()
	require.NoError(t, err)

	err = ledger.Restore(context.Background(), tx, []Reservation{{MenuID: 1, Quantity: 3}})

	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestInsufficientStockError_Message(t *testing.T) {
	err := &InsufficientStockError{Shortages: []StockShortage{
		{MenuID: 1, Name: "Matcha", Requested: 10, Remaining: 5},
	}}

	assert.Contains(t, err.Error(), "Matcha")
	assert.Contains(t, err.Error(), "want 10")
	assert.Contains(t, err.Error(), "have 5")
}
