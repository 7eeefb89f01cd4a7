package repo

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"pawtraits/server/internal/domain"
)

// OrderRepositoryPG stores completed-payment order records in PostgreSQL.
type OrderRepositoryPG struct {
	pool *pgxpool.Pool
}

// NewOrderRepository creates a new order repository backed by PostgreSQL.
func NewOrderRepository(pool *pgxpool.Pool) *OrderRepositoryPG {
	return &OrderRepositoryPG{pool: pool}
}

// Create inserts a new order record.
func (r *OrderRepositoryPG) Create(ctx context.Context, order *domain.Order) error {
	query := `
INSERT INTO orders (id, session_id, package, package_label, cat_label, customer_email, customer_name, country, amount_cents, currency, printify_order_id, printify_image_id, image_url)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13);
`
	_, err := r.pool.Exec(ctx, query,
		order.ID,
		order.SessionID,
		order.Package,
		order.PackageLabel,
		order.CatLabel,
		order.CustomerEmail,
		order.CustomerName,
		order.Country,
		order.AmountCents,
		order.Currency,
		order.PrintifyOrderID,
		order.PrintifyImageID,
		order.ImageURL,
	)
	if err != nil {
		return fmt.Errorf("insert order: %w", err)
	}
	return nil
}

// ListRecent returns up to limit orders, newest first.
func (r *OrderRepositoryPG) ListRecent(ctx context.Context, limit int) ([]domain.Order, error) {
	if limit <= 0 {
		limit = 100
	}
	query := `
SELECT id, session_id, package, package_label, cat_label, customer_email, customer_name, country, amount_cents, currency, printify_order_id, printify_image_id, image_url, created_at
FROM orders
ORDER BY created_at DESC
LIMIT $1;
`
	rows, err := r.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	defer rows.Close()

	var orders []domain.Order
	for rows.Next() {
		var order domain.Order
		if err := rows.Scan(
			&order.ID,
			&order.SessionID,
			&order.Package,
			&order.PackageLabel,
			&order.CatLabel,
			&order.CustomerEmail,
			&order.CustomerName,
			&order.Country,
			&order.AmountCents,
			&order.Currency,
			&order.PrintifyOrderID,
			&order.PrintifyImageID,
			&order.ImageURL,
			&order.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan order: %w", err)
		}
		orders = append(orders, order)
	}
	return orders, rows.Err()
}
