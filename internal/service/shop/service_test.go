package shop

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/hostpulse/hostpulse/internal/domain"
	"github.com/hostpulse/hostpulse/internal/repository"
)

// fakeStore implements the product, cart, and order repositories with the
// same keying and transaction semantics as the SQL implementation.
type fakeStore struct {
	products []domain.Product
	carts    map[string]*domain.CartItem // keyed session|product
	orders   []domain.Order
	nextID   int64
}

func newFakeStore() *fakeStore {
	return &fakeStore{carts: make(map[string]*domain.CartItem)}
}

func cartKey(sessionID string, productID int64) string {
	return fmt.Sprintf("%s|%d", sessionID, productID)
}

func (f *fakeStore) ListProducts(ctx context.Context) ([]domain.Product, error) {
	return append([]domain.Product(nil), f.products...), nil
}

func (f *fakeStore) CountProducts(ctx context.Context) (int, error) {
	return len(f.products), nil
}

func (f *fakeStore) SeedProducts(ctx context.Context, products []domain.Product) (int, error) {
	for _, p := range products {
		f.nextID++
		p.ID = f.nextID
		f.products = append(f.products, p)
	}
	return len(products), nil
}

func (f *fakeStore) UpsertCartItem(ctx context.Context, item *domain.CartItem) error {
	key := cartKey(item.SessionID, item.ProductID)
	if existing, ok := f.carts[key]; ok {
		existing.Quantity += item.Quantity
		*item = *existing
		return nil
	}
	f.nextID++
	item.ID = f.nextID
	item.AddedAt = time.Now().UTC()
	stored := *item
	f.carts[key] = &stored
	return nil
}

func (f *fakeStore) ListCartLines(ctx context.Context, sessionID string) ([]domain.CartLine, error) {
	lines := make([]domain.CartLine, 0)
	for _, item := range f.carts {
		if item.SessionID != sessionID {
			continue
		}
		price := f.priceOf(item.ProductID)
		lines = append(lines, domain.CartLine{
			CartItem:   *item,
			Price:      price,
			TotalPrice: price * float64(item.Quantity),
		})
	}
	return lines, nil
}

func (f *fakeStore) priceOf(productID int64) float64 {
	for _, p := range f.products {
		if p.ID == productID {
			return p.Price
		}
	}
	return 0
}

func (f *fakeStore) SetCartItemQuantity(ctx context.Context, sessionID string, productID int64, quantity int) error {
	key := cartKey(sessionID, productID)
	if quantity <= 0 {
		delete(f.carts, key)
		return nil
	}
	item, ok := f.carts[key]
	if !ok {
		return repository.ErrNotFound
	}
	item.Quantity = quantity
	return nil
}

func (f *fakeStore) RemoveCartItem(ctx context.Context, sessionID string, productID int64) error {
	delete(f.carts, cartKey(sessionID, productID))
	return nil
}

func (f *fakeStore) ClearCart(ctx context.Context, sessionID string) error {
	for key, item := range f.carts {
		if item.SessionID == sessionID {
			delete(f.carts, key)
		}
	}
	return nil
}

func (f *fakeStore) CreateOrderFromCart(ctx context.Context, sessionID string) (*domain.Order, error) {
	lines, _ := f.ListCartLines(ctx, sessionID)
	if len(lines) == 0 {
		return nil, repository.ErrEmptyCart
	}
	var total float64
	for _, line := range lines {
		total += line.TotalPrice
	}
	f.nextID++
	order := domain.Order{
		ID:          f.nextID,
		SessionID:   sessionID,
		TotalAmount: total,
		Status:      domain.OrderStatusPending,
		CreatedAt:   time.Now().UTC(),
	}
	f.orders = append(f.orders, order)
	f.ClearCart(ctx, sessionID)
	return &order, nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func seededService(t *testing.T) (Service, *fakeStore) {
	t.Helper()
	store := newFakeStore()
	svc := New(store, store, store, testLogger())
	if _, err := svc.SeedCatalog(context.Background()); err != nil {
		t.Fatalf("seed catalog: %v", err)
	}
	return svc, store
}

func TestSeedCatalogOnlyWhenEmpty(t *testing.T) {
	store := newFakeStore()
	svc := New(store, store, store, testLogger())

	seeded, err := svc.SeedCatalog(context.Background())
	if err != nil {
		t.Fatalf("seed catalog: %v", err)
	}
	if seeded == 0 {
		t.Fatalf("expected seed rows on empty catalog")
	}

	again, err := svc.SeedCatalog(context.Background())
	if err != nil {
		t.Fatalf("second seed: %v", err)
	}
	if again != 0 {
		t.Fatalf("catalog must not be reseeded, got %d rows", again)
	}
}

func TestAddToCartUpsertsByKey(t *testing.T) {
	svc, store := seededService(t)
	ctx := context.Background()

	productID := store.products[0].ID
	for i := 0; i < 2; i++ {
		if _, err := svc.AddToCart(ctx, AddToCartInput{SessionID: "sess-1", ProductID: productID, Quantity: 1}); err != nil {
			t.Fatalf("add to cart: %v", err)
		}
	}

	lines, _, err := svc.Cart(ctx, "sess-1")
	if err != nil {
		t.Fatalf("cart: %v", err)
	}
	if len(lines) != 1 {
		t.Fatalf("expected a single merged line, got %d", len(lines))
	}
	if lines[0].Quantity != 2 {
		t.Fatalf("expected quantity 2, got %d", lines[0].Quantity)
	}
}

func TestAddToCartDefaultsQuantity(t *testing.T) {
	svc, store := seededService(t)

	item, err := svc.AddToCart(context.Background(), AddToCartInput{SessionID: "sess-1", ProductID: store.products[0].ID})
	if err != nil {
		t.Fatalf("add to cart: %v", err)
	}
	if item.Quantity != 1 {
		t.Fatalf("expected default quantity 1, got %d", item.Quantity)
	}
}

func TestAddToCartValidation(t *testing.T) {
	svc, _ := seededService(t)

	if _, err := svc.AddToCart(context.Background(), AddToCartInput{ProductID: 1}); !errors.Is(err, ErrSessionRequired) {
		t.Fatalf("expected ErrSessionRequired, got %v", err)
	}
	if _, err := svc.AddToCart(context.Background(), AddToCartInput{SessionID: "s"}); !errors.Is(err, ErrProductRequired) {
		t.Fatalf("expected ErrProductRequired, got %v", err)
	}
}

func TestUpdateQuantityToZeroRemovesLine(t *testing.T) {
	svc, store := seededService(t)
	ctx := context.Background()
	productID := store.products[0].ID

	if _, err := svc.AddToCart(ctx, AddToCartInput{SessionID: "sess-1", ProductID: productID, Quantity: 3}); err != nil {
		t.Fatalf("add to cart: %v", err)
	}
	if err := svc.UpdateQuantity(ctx, "sess-1", productID, 0); err != nil {
		t.Fatalf("update quantity: %v", err)
	}

	lines, _, err := svc.Cart(ctx, "sess-1")
	if err != nil {
		t.Fatalf("cart: %v", err)
	}
	if len(lines) != 0 {
		t.Fatalf("expected line removed, found %d lines", len(lines))
	}
}

func TestCheckoutCreatesOrderAndClearsCart(t *testing.T) {
	svc, store := seededService(t)
	ctx := context.Background()

	first := store.products[0]
	second := store.products[1]
	if _, err := svc.AddToCart(ctx, AddToCartInput{SessionID: "sess-1", ProductID: first.ID, Quantity: 2}); err != nil {
		t.Fatalf("add to cart: %v", err)
	}
	if _, err := svc.AddToCart(ctx, AddToCartInput{SessionID: "sess-1", ProductID: second.ID, Quantity: 1}); err != nil {
		t.Fatalf("add to cart: %v", err)
	}

	_, wantTotal, err := svc.Cart(ctx, "sess-1")
	if err != nil {
		t.Fatalf("cart: %v", err)
	}

	order, err := svc.Checkout(ctx, "sess-1")
	if err != nil {
		t.Fatalf("checkout: %v", err)
	}
	if order.TotalAmount != wantTotal {
		t.Fatalf("order total %.2f, want pre-clear cart sum %.2f", order.TotalAmount, wantTotal)
	}
	if order.Status != domain.OrderStatusPending {
		t.Fatalf("expected pending status, got %q", order.Status)
	}
	if len(store.orders) != 1 {
		t.Fatalf("expected exactly one order row, got %d", len(store.orders))
	}

	lines, _, err := svc.Cart(ctx, "sess-1")
	if err != nil {
		t.Fatalf("cart after checkout: %v", err)
	}
	if len(lines) != 0 {
		t.Fatalf("cart must be cleared by checkout, found %d lines", len(lines))
	}
}

func TestCheckoutZeroPricedCart(t *testing.T) {
	svc, store := seededService(t)
	ctx := context.Background()

	if _, err := store.SeedProducts(ctx, []domain.Product{{Name: "Sticker Pack", Price: 0}}); err != nil {
		t.Fatalf("seed free product: %v", err)
	}
	free := store.products[len(store.products)-1]
	if _, err := svc.AddToCart(ctx, AddToCartInput{SessionID: "sess-1", ProductID: free.ID, Quantity: 2}); err != nil {
		t.Fatalf("add to cart: %v", err)
	}

	order, err := svc.Checkout(ctx, "sess-1")
	if err != nil {
		t.Fatalf("a cart with lines must check out even at zero total: %v", err)
	}
	if order.TotalAmount != 0 {
		t.Fatalf("expected zero total, got %.2f", order.TotalAmount)
	}
}

func TestCheckoutEmptyCart(t *testing.T) {
	svc, _ := seededService(t)

	_, err := svc.Checkout(context.Background(), "sess-empty")
	if !errors.Is(err, repository.ErrEmptyCart) {
		t.Fatalf("expected ErrEmptyCart, got %v", err)
	}
}
