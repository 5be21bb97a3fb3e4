package menu

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrMenuItemNotFound = errors.New("menu item not found")
	ErrInvalidCategory  = errors.New("category must be food or drink")
)

// StockShortage reports one menu item a reserve batch could not cover.
type StockShortage struct {
	MenuID    uint   `json:"menuId"`
	Name      string `json:"name"`
	Requested int    `json:"requested"`
	Remaining int    `json:"remaining"`
}

// InsufficientStockError aborts a whole reserve batch. It carries every
// offending line so the caller can tell the customer exactly what ran out.
type InsufficientStockError struct {
	Shortages []StockShortage
}

func (e *InsufficientStockError) Error() string {
	parts := make([]string, 0, len(e.Shortages))
	for _, s := range e.Shortages {
		parts = append(parts, fmt.Sprintf("%s (want %d, have %d)", s.Name, s.Requested, s.Remaining))
	}
	return "insufficient stock: " + strings.Join(parts, ", ")
}
