package repository

import (
	"context"
	"net/url"
	"strconv"

	"gosembako/internal/models"
	"gosembako/internal/sheetdb"
)

const SheetOrders = "orders"

type OrderRepository struct {
	store *sheetdb.Client
}

func NewOrderRepository(store *sheetdb.Client) *OrderRepository {
	return &OrderRepository{store: store}
}

// CountByPhone returns how many orders exist for the sheet's phone key.
func (r *OrderRepository) CountByPhone(ctx context.Context, storePhone string) (int, error) {
	rows, err := r.store.Search(ctx, SheetOrders, url.Values{"phone": {storePhone}})
	if err != nil {
		return 0, err
	}
	return len(rows), nil
}

func (r *OrderRepository) ListByPhone(ctx context.Context, storePhone string) ([]models.Order, error) {
	rows, err := r.store.Search(ctx, SheetOrders, url.Values{"phone": {storePhone}})
	if err != nil {
		return nil, err
	}
	out := make([]models.Order, 0, len(rows))
	for _, row := range rows {
		out = append(out, models.Order{
			OrderID:   row.String("order_id"),
			Phone:     row.String("phone"),
			Name:      row.String("name"),
			Total:     row.Int64("total"),
			Status:    row.String("status"),
			CreatedAt: row.String("created_at"),
		})
	}
	return out, nil
}

func (r *OrderRepository) Insert(ctx context.Context, o *models.Order) error {
	return r.store.Insert(ctx, SheetOrders, sheetdb.Row{
		"order_id":   o.OrderID,
		"phone":      o.Phone,
		"name":       o.Name,
		"total":      strconv.FormatInt(o.Total, 10),
		"status":     o.Status,
		"created_at": o.CreatedAt,
	})
}
