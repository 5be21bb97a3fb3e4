package report

import (
	"context"
	"encoding/csv"
	"io"
	"strconv"
	"time"

	"kantin-be/internal/order"
)

// pageSize matches the listing cap so the export walks the full result
// set page by page instead of loading everything at once.
const pageSize = int32(100)

var csvHeader = []string{
	"id", "customer_email", "customer_name", "total_amount",
	"payment_method", "status", "payment_status", "is_manual_order",
	"created_at", "completed_at", "cancelled_at", "cancel_reason",
}

type Service struct {
	orders order.Service
}

func NewService(orders order.Service) *Service {
	return &Service{orders: orders}
}

// WriteOrdersCSV streams every order matching the filter as CSV rows.
// Caller is expected to have verified staff privilege; listing itself is
// still scoped by the identity in ctx.
func (s *Service) WriteOrdersCSV(ctx context.Context, w io.Writer, filter *order.OrderFilterInput) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return err
	}

	limit := pageSize
	for page := int32(1); ; page++ {
		p := page
		orders, err := s.orders.ListOrders(ctx, filter, &limit, &p)
		if err != nil {
			return err
		}

		for _, o := range orders {
			if err := cw.Write(orderRow(o)); err != nil {
				return err
			}
		}

		if int32(len(orders)) < limit {
			break
		}
	}

	cw.Flush()
	return cw.Error()
}

func orderRow(o *order.Order) []string {
	return []string{
		strconv.FormatUint(uint64(o.ID), 10),
		o.CustomerEmail,
		o.CustomerName,
		strconv.Itoa(o.TotalAmount),
		string(o.PaymentMethod),
		string(o.Status),
		string(o.PaymentStatus),
		strconv.FormatBool(o.IsManualOrder),
		o.CreatedAt.Format(time.RFC3339),
		formatTime(o.CompletedAt),
		formatTime(o.CancelledAt),
		o.CancelReason,
	}
}

func formatTime(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format(time.RFC3339)
}
