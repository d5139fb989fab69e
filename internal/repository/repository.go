package repository

import (
	"context"
	"time"

	"github.com/hostpulse/hostpulse/internal/domain"
)

// ProductRepository reads the catalog and seeds it at startup.
type ProductRepository interface {
	ListProducts(ctx context.Context) ([]domain.Product, error)
	SeedProducts(ctx context.Context, products []domain.Product) (int, error)
	CountProducts(ctx context.Context) (int, error)
}

// CartRepository persists cart lines keyed by (session, product).
type CartRepository interface {
	UpsertCartItem(ctx context.Context, item *domain.CartItem) error
	ListCartLines(ctx context.Context, sessionID string) ([]domain.CartLine, error)
	SetCartItemQuantity(ctx context.Context, sessionID string, productID int64, quantity int) error
	RemoveCartItem(ctx context.Context, sessionID string, productID int64) error
	ClearCart(ctx context.Context, sessionID string) error
}

// OrderRepository creates orders. Creation clears the session's cart in the
// same transaction.
type OrderRepository interface {
	CreateOrderFromCart(ctx context.Context, sessionID string) (*domain.Order, error)
}

// PerformanceRepository appends and aggregates performance logs.
type PerformanceRepository interface {
	InsertPerformanceLog(ctx context.Context, log *domain.PerformanceLog) error
	ListPerformanceLogsBySession(ctx context.Context, sessionID string) ([]domain.PerformanceLog, error)
	SummarizePlatforms(ctx context.Context, since time.Time) ([]domain.PlatformSummary, error)
	UpsertPlatformRollups(ctx context.Context, rollups []domain.PlatformRollup) error
}

// InteractionRepository appends and reports user interactions.
type InteractionRepository interface {
	InsertInteraction(ctx context.Context, interaction *domain.UserInteraction) error
	ListInteractionsBySession(ctx context.Context, sessionID string) ([]domain.UserInteraction, error)
	TopInteractions(ctx context.Context, since time.Time, limit int) ([]domain.InteractionCount, error)
}
