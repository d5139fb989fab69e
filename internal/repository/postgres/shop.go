package postgres

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/hostpulse/hostpulse/internal/domain"
	"github.com/hostpulse/hostpulse/internal/repository"
)

// ListProducts returns the full catalog ordered by name.
func (r *Repository) ListProducts(ctx context.Context) ([]domain.Product, error) {
	const query = `SELECT id, name, price, description, image_url, stock, created_at
		FROM products ORDER BY name`
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	products := make([]domain.Product, 0)
	for rows.Next() {
		var p domain.Product
		if err := rows.Scan(&p.ID, &p.Name, &p.Price, &p.Description, &p.ImageURL, &p.Stock, &p.CreatedAt); err != nil {
			return nil, err
		}
		products = append(products, p)
	}
	return products, rows.Err()
}

// CountProducts counts catalog rows.
func (r *Repository) CountProducts(ctx context.Context) (int, error) {
	const query = `SELECT COUNT(1) FROM products`
	var count int
	if err := r.pool.QueryRow(ctx, query).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

// SeedProducts inserts the provided catalog rows and returns how many were
// written. Callers decide whether to seed by checking CountProducts first.
func (r *Repository) SeedProducts(ctx context.Context, products []domain.Product) (int, error) {
	if len(products) == 0 {
		return 0, nil
	}
	const query = `INSERT INTO products (name, price, description, image_url, stock)
		VALUES ($1, $2, $3, $4, $5)`
	batch := &pgx.Batch{}
	for _, p := range products {
		batch.Queue(query, p.Name, p.Price, p.Description, p.ImageURL, p.Stock)
	}
	br := r.pool.SendBatch(ctx, batch)
	defer br.Close()
	for range products {
		if _, err := br.Exec(); err != nil {
			return 0, err
		}
	}
	return len(products), nil
}

// UpsertCartItem adds quantity to an existing (session, product) line or
// inserts a new one. The statement is atomic; concurrent upserts for the
// same key cannot produce duplicate rows or lost increments.
func (r *Repository) UpsertCartItem(ctx context.Context, item *domain.CartItem) error {
	const query = `INSERT INTO cart_items (session_id, product_id, name, quantity)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (session_id, product_id)
		DO UPDATE SET quantity = cart_items.quantity + EXCLUDED.quantity
		RETURNING id, quantity, added_at`
	row := r.pool.QueryRow(ctx, query, item.SessionID, item.ProductID, item.Name, item.Quantity)
	return row.Scan(&item.ID, &item.Quantity, &item.AddedAt)
}

// ListCartLines returns cart items joined with product price and name, with
// a computed per-line total, newest first.
func (r *Repository) ListCartLines(ctx context.Context, sessionID string) ([]domain.CartLine, error) {
	const query = `SELECT c.id, c.session_id, c.product_id, p.name, c.quantity, c.added_at,
			p.price, p.image_url, (c.quantity * p.price) AS total_price
		FROM cart_items c
		INNER JOIN products p ON p.id = c.product_id
		WHERE c.session_id = $1
		ORDER BY c.added_at DESC`
	rows, err := r.pool.Query(ctx, query, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	lines := make([]domain.CartLine, 0)
	for rows.Next() {
		var line domain.CartLine
		if err := rows.Scan(
			&line.ID,
			&line.SessionID,
			&line.ProductID,
			&line.Name,
			&line.Quantity,
			&line.AddedAt,
			&line.Price,
			&line.ImageURL,
			&line.TotalPrice,
		); err != nil {
			return nil, err
		}
		lines = append(lines, line)
	}
	return lines, rows.Err()
}

// SetCartItemQuantity replaces a line's quantity. A target of zero or less
// removes the row entirely; a quantity-zero row never exists.
func (r *Repository) SetCartItemQuantity(ctx context.Context, sessionID string, productID int64, quantity int) error {
	if quantity <= 0 {
		return r.RemoveCartItem(ctx, sessionID, productID)
	}
	const query = `UPDATE cart_items SET quantity = $3
		WHERE session_id = $1 AND product_id = $2
		RETURNING id`
	var id int64
	if err := r.pool.QueryRow(ctx, query, sessionID, productID, quantity).Scan(&id); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return repository.ErrNotFound
		}
		return err
	}
	return nil
}

// RemoveCartItem deletes one line. Deleting an absent line is not an error.
func (r *Repository) RemoveCartItem(ctx context.Context, sessionID string, productID int64) error {
	const query = `DELETE FROM cart_items WHERE session_id = $1 AND product_id = $2`
	_, err := r.pool.Exec(ctx, query, sessionID, productID)
	return err
}

// ClearCart deletes every line for a session.
func (r *Repository) ClearCart(ctx context.Context, sessionID string) error {
	const query = `DELETE FROM cart_items WHERE session_id = $1`
	_, err := r.pool.Exec(ctx, query, sessionID)
	return err
}

// CreateOrderFromCart reads the session's cart total, inserts the order row,
// and clears the cart, all inside one transaction. A crash cannot leave an
// order behind with an uncleared cart.
func (r *Repository) CreateOrderFromCart(ctx context.Context, sessionID string) (*domain.Order, error) {
	sessionID = strings.TrimSpace(sessionID)

	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	const totalQuery = `SELECT COUNT(*), COALESCE(SUM(c.quantity * p.price), 0)
		FROM cart_items c
		INNER JOIN products p ON p.id = c.product_id
		WHERE c.session_id = $1`
	var (
		lineCount int64
		total     float64
	)
	if err := tx.QueryRow(ctx, totalQuery, sessionID).Scan(&lineCount, &total); err != nil {
		return nil, err
	}
	// Emptiness means no lines, not a zero total; a cart full of free
	// products still checks out.
	if lineCount == 0 {
		return nil, repository.ErrEmptyCart
	}

	const orderInsert = `INSERT INTO orders (session_id, total_amount, status)
		VALUES ($1, $2, $3)
		RETURNING id, created_at`
	order := domain.Order{
		SessionID:   sessionID,
		TotalAmount: total,
		Status:      domain.OrderStatusPending,
	}
	if err := tx.QueryRow(ctx, orderInsert, sessionID, total, order.Status).Scan(&order.ID, &order.CreatedAt); err != nil {
		return nil, err
	}

	const cartDelete = `DELETE FROM cart_items WHERE session_id = $1`
	if _, err := tx.Exec(ctx, cartDelete, sessionID); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return &order, nil
}
