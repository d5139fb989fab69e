package httpx

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"log/slog"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/hostpulse/hostpulse/internal/repository"
	"github.com/hostpulse/hostpulse/internal/service/shop"
)

const (
	rateWindowDefault  = time.Minute
	rateLimitShopRead  = 300
	rateLimitShopWrite = 120
	healthCheckTimeout = 2 * time.Second
)

// ShopRouter wires the storefront endpoints to the shop service.
type ShopRouter struct {
	base
	mux      *http.ServeMux
	shop     shop.Service
	dbHealth func(context.Context) error
}

// NewShopRouter assembles the storefront routes.
func NewShopRouter(logger *slog.Logger, shopSvc shop.Service, limiter RateLimiter, dbHealth func(context.Context) error) *ShopRouter {
	r := &ShopRouter{
		base: base{
			logger:  logger,
			limiter: limiter,
			metrics: newMetricsSet("shop"),
		},
		mux:      http.NewServeMux(),
		shop:     shopSvc,
		dbHealth: dbHealth,
	}
	if r.limiter == nil {
		r.limiter = NewMemoryRateLimiter()
	}
	r.register()
	return r
}

// ServeHTTP delegates to underlying mux.
func (r *ShopRouter) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.mux.ServeHTTP(w, req)
}

// Close releases background resources.
func (r *ShopRouter) Close() {
	if r.limiter != nil {
		r.limiter.Close()
	}
}

func (r *ShopRouter) register() {
	r.mux.HandleFunc("/api/products", r.audit("/api/products", r.withRateLimit("/api/products", rateLimitShopRead, rateWindowDefault, r.handleProducts)))
	r.mux.HandleFunc("/api/cart/", r.audit("/api/cart", r.withRateLimit("/api/cart", rateLimitShopWrite, rateWindowDefault, r.handleCart)))
	r.mux.HandleFunc("/api/orders", r.audit("/api/orders", r.withRateLimit("/api/orders", rateLimitShopWrite, rateWindowDefault, r.handleOrders)))
	r.mux.HandleFunc("/health", r.audit("/health", r.handleHealth))
	r.mux.Handle("/metrics", promhttp.Handler())
}

func (r *ShopRouter) handleProducts(w http.ResponseWriter, req *http.Request) {
	if req.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	products, err := r.shop.Products(req.Context())
	if err != nil {
		r.logger.Error("product listing failed", "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to fetch products")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success":  true,
		"products": products,
	})
}

// handleCart dispatches the /api/cart/ subtree:
//
//	POST   /api/cart/add
//	PUT    /api/cart/update
//	GET    /api/cart/{sessionId}
//	DELETE /api/cart/remove/{sessionId}/{productId}
//	DELETE /api/cart/clear/{sessionId}
func (r *ShopRouter) handleCart(w http.ResponseWriter, req *http.Request) {
	trimmed := strings.TrimPrefix(req.URL.Path, "/api/cart/")
	parts := strings.Split(trimmed, "/")
	if len(parts) == 0 || parts[0] == "" {
		notFound(w)
		return
	}
	switch parts[0] {
	case "add":
		if len(parts) != 1 {
			notFound(w)
			return
		}
		r.handleCartAdd(w, req)
	case "update":
		if len(parts) != 1 {
			notFound(w)
			return
		}
		r.handleCartUpdate(w, req)
	case "remove":
		if len(parts) != 3 {
			notFound(w)
			return
		}
		r.handleCartRemove(w, req, parts[1], parts[2])
	case "clear":
		if len(parts) != 2 {
			notFound(w)
			return
		}
		r.handleCartClear(w, req, parts[1])
	default:
		if len(parts) != 1 {
			notFound(w)
			return
		}
		r.handleCartGet(w, req, parts[0])
	}
}

func (r *ShopRouter) handleCartAdd(w http.ResponseWriter, req *http.Request) {
	if req.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	var payload shop.AddToCartInput
	if err := json.NewDecoder(req.Body).Decode(&payload); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	item, err := r.shop.AddToCart(req.Context(), payload)
	if err != nil {
		if isShopValidation(err) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		r.logger.Error("cart add failed", "error", err, "session_id", payload.SessionID)
		writeError(w, http.StatusInternalServerError, "Failed to add item to cart")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"item":    item,
	})
}

func (r *ShopRouter) handleCartUpdate(w http.ResponseWriter, req *http.Request) {
	if req.Method != http.MethodPut {
		methodNotAllowed(w)
		return
	}
	var payload struct {
		SessionID string `json:"sessionId"`
		ProductID int64  `json:"productId"`
		Quantity  int    `json:"quantity"`
	}
	if err := json.NewDecoder(req.Body).Decode(&payload); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	err := r.shop.UpdateQuantity(req.Context(), payload.SessionID, payload.ProductID, payload.Quantity)
	if err != nil {
		switch {
		case isShopValidation(err):
			writeError(w, http.StatusBadRequest, err.Error())
		case errors.Is(err, repository.ErrNotFound):
			writeError(w, http.StatusNotFound, "Cart item not found")
		default:
			r.logger.Error("cart update failed", "error", err, "session_id", payload.SessionID)
			writeError(w, http.StatusInternalServerError, "Failed to update cart")
		}
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": "Cart updated",
	})
}

func (r *ShopRouter) handleCartGet(w http.ResponseWriter, req *http.Request, sessionID string) {
	if req.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	lines, total, err := r.shop.Cart(req.Context(), sessionID)
	if err != nil {
		if isShopValidation(err) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		r.logger.Error("cart fetch failed", "error", err, "session_id", sessionID)
		writeError(w, http.StatusInternalServerError, "Failed to fetch cart")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"cart":    lines,
		"total":   total,
	})
}

func (r *ShopRouter) handleCartRemove(w http.ResponseWriter, req *http.Request, sessionID, productIDRaw string) {
	if req.Method != http.MethodDelete {
		methodNotAllowed(w)
		return
	}
	productID, err := strconv.ParseInt(productIDRaw, 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid product id")
		return
	}
	if err := r.shop.RemoveItem(req.Context(), sessionID, productID); err != nil {
		if isShopValidation(err) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		r.logger.Error("cart remove failed", "error", err, "session_id", sessionID)
		writeError(w, http.StatusInternalServerError, "Failed to remove item from cart")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": "Item removed from cart",
	})
}

func (r *ShopRouter) handleCartClear(w http.ResponseWriter, req *http.Request, sessionID string) {
	if req.Method != http.MethodDelete {
		methodNotAllowed(w)
		return
	}
	if err := r.shop.ClearCart(req.Context(), sessionID); err != nil {
		if isShopValidation(err) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		r.logger.Error("cart clear failed", "error", err, "session_id", sessionID)
		writeError(w, http.StatusInternalServerError, "Failed to clear cart")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": "Cart cleared",
	})
}

func (r *ShopRouter) handleOrders(w http.ResponseWriter, req *http.Request) {
	if req.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	var payload struct {
		SessionID string `json:"sessionId"`
	}
	if err := json.NewDecoder(req.Body).Decode(&payload); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	order, err := r.shop.Checkout(req.Context(), payload.SessionID)
	if err != nil {
		switch {
		case isShopValidation(err):
			writeError(w, http.StatusBadRequest, err.Error())
		case errors.Is(err, repository.ErrEmptyCart):
			writeError(w, http.StatusBadRequest, "Cart is empty")
		default:
			r.logger.Error("checkout failed", "error", err, "session_id", payload.SessionID)
			writeError(w, http.StatusInternalServerError, "Failed to place order")
		}
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"orderId": order.ID,
		"total":   order.TotalAmount,
		"message": "Order placed successfully",
	})
}

func (r *ShopRouter) handleHealth(w http.ResponseWriter, req *http.Request) {
	if req.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	writeHealth(w, req, r.dbHealth, r.logger)
}

func isShopValidation(err error) bool {
	return errors.Is(err, shop.ErrSessionRequired) || errors.Is(err, shop.ErrProductRequired)
}

// writeHealth reports process and database health in the collector's fixed
// shape. A failed database probe yields 503.
func writeHealth(w http.ResponseWriter, req *http.Request, dbHealth func(context.Context) error, logger *slog.Logger) {
	database := "connected"
	status := "healthy"
	code := http.StatusOK
	if dbHealth != nil {
		ctx, cancel := context.WithTimeout(req.Context(), healthCheckTimeout)
		defer cancel()
		if err := dbHealth(ctx); err != nil {
			if logger != nil {
				logger.Error("database health check failed", "error", err)
			}
			database = "disconnected"
			status = "unhealthy"
			code = http.StatusServiceUnavailable
		}
	}
	writeJSON(w, code, map[string]any{
		"status":    status,
		"database":  database,
		"timestamp": time.Now().UTC().Format(time.RFC3339Nano),
	})
}
