// Package shop implements the storefront workflows: catalog listing, cart
// mutation, and checkout.
package shop

import (
	"context"
	"errors"
	"strings"

	"log/slog"

	"github.com/hostpulse/hostpulse/internal/domain"
	"github.com/hostpulse/hostpulse/internal/repository"
)

// Validation sentinels. Handlers map these to 400 responses.
var (
	ErrSessionRequired = errors.New("sessionId is required")
	ErrProductRequired = errors.New("productId is required")
)

// Service handles storefront workflows.
type Service struct {
	products repository.ProductRepository
	carts    repository.CartRepository
	orders   repository.OrderRepository
	logger   *slog.Logger
}

// New constructs a Service.
func New(products repository.ProductRepository, carts repository.CartRepository, orders repository.OrderRepository, logger *slog.Logger) Service {
	if logger != nil {
		logger = logger.With("component", "shop")
	}
	return Service{products: products, carts: carts, orders: orders, logger: logger}
}

// Products returns the catalog.
func (s Service) Products(ctx context.Context) ([]domain.Product, error) {
	return s.products.ListProducts(ctx)
}

// SeedCatalog inserts the demo catalog when the products table is empty.
// Returns how many rows were seeded (zero when the table already has stock).
func (s Service) SeedCatalog(ctx context.Context) (int, error) {
	count, err := s.products.CountProducts(ctx)
	if err != nil {
		return 0, err
	}
	if count > 0 {
		return 0, nil
	}
	seeded, err := s.products.SeedProducts(ctx, defaultCatalog())
	if err != nil {
		return 0, err
	}
	if s.logger != nil {
		s.logger.Info("catalog seeded", "products", seeded)
	}
	return seeded, nil
}

// AddToCartInput is the cart upsert request.
type AddToCartInput struct {
	SessionID string `json:"sessionId"`
	ProductID int64  `json:"productId"`
	Name      string `json:"name"`
	Quantity  int    `json:"quantity"`
}

// AddToCart increments the (session, product) line quantity, inserting the
// line when absent. Quantity defaults to one.
func (s Service) AddToCart(ctx context.Context, input AddToCartInput) (*domain.CartItem, error) {
	input.SessionID = strings.TrimSpace(input.SessionID)
	if input.SessionID == "" {
		return nil, ErrSessionRequired
	}
	if input.ProductID <= 0 {
		return nil, ErrProductRequired
	}
	if input.Quantity <= 0 {
		input.Quantity = 1
	}
	item := &domain.CartItem{
		SessionID: input.SessionID,
		ProductID: input.ProductID,
		Name:      strings.TrimSpace(input.Name),
		Quantity:  input.Quantity,
	}
	if err := s.carts.UpsertCartItem(ctx, item); err != nil {
		return nil, err
	}
	return item, nil
}

// Cart returns the session's lines and the summed total.
func (s Service) Cart(ctx context.Context, sessionID string) ([]domain.CartLine, float64, error) {
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		return nil, 0, ErrSessionRequired
	}
	lines, err := s.carts.ListCartLines(ctx, sessionID)
	if err != nil {
		return nil, 0, err
	}
	var total float64
	for _, line := range lines {
		total += line.TotalPrice
	}
	return lines, total, nil
}

// UpdateQuantity sets a line's quantity. Zero or less removes the line; a
// quantity-zero row never exists.
func (s Service) UpdateQuantity(ctx context.Context, sessionID string, productID int64, quantity int) error {
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		return ErrSessionRequired
	}
	if productID <= 0 {
		return ErrProductRequired
	}
	return s.carts.SetCartItemQuantity(ctx, sessionID, productID, quantity)
}

// RemoveItem deletes one line from the session's cart.
func (s Service) RemoveItem(ctx context.Context, sessionID string, productID int64) error {
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		return ErrSessionRequired
	}
	if productID <= 0 {
		return ErrProductRequired
	}
	return s.carts.RemoveCartItem(ctx, sessionID, productID)
}

// ClearCart deletes every line for the session.
func (s Service) ClearCart(ctx context.Context, sessionID string) error {
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		return ErrSessionRequired
	}
	return s.carts.ClearCart(ctx, sessionID)
}

// Checkout creates an order from the session's cart and clears the cart in
// the same transaction. An empty cart surfaces repository.ErrEmptyCart.
func (s Service) Checkout(ctx context.Context, sessionID string) (*domain.Order, error) {
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		return nil, ErrSessionRequired
	}
	order, err := s.orders.CreateOrderFromCart(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if s.logger != nil {
		s.logger.Info("order created", "order_id", order.ID, "session_id", sessionID, "total", order.TotalAmount)
	}
	return order, nil
}

func defaultCatalog() []domain.Product {
	return []domain.Product{
		{Name: "iPhone 15", Price: 999.99, Description: "Latest iPhone with advanced features", Stock: 50},
		{Name: "MacBook Pro", Price: 1999.99, Description: "Powerful laptop for professionals", Stock: 25},
		{Name: "AirPods Pro", Price: 249.99, Description: "Wireless earbuds with noise cancellation", Stock: 100},
		{Name: "iPad Air", Price: 599.99, Description: "Versatile tablet for work and play", Stock: 75},
		{Name: "Apple Watch", Price: 399.99, Description: "Smart watch with health monitoring", Stock: 60},
		{Name: "iPhone Case", Price: 29.99, Description: "Protective case for your iPhone", Stock: 200},
	}
}
