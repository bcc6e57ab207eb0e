package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"shopping-cart/catalog"
	"shopping-cart/httpjson"
	"shopping-cart/notify"
	"shopping-cart/service"
)

// Handler is the HTTP layer that talks to service.CartService
type Handler struct {
	svc  service.CartService
	feed *notify.Feed
	log  *slog.Logger
}

// NewHandler returns a Handler instance. feed may be nil, in which case
// GET /notifications always returns an empty list.
func NewHandler(s service.CartService, feed *notify.Feed, log *slog.Logger) *Handler {
	if log == nil {
		log = slog.Default()
	}
	return &Handler{svc: s, feed: feed, log: log}
}

// RegisterRoutes registers all routes on the provided router
func (h *Handler) RegisterRoutes(r *mux.Router) {
	r.Use(h.requestLog)

	r.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) }).Methods("GET")

	// Cart
	r.HandleFunc("/cart", h.GetCart).Methods("GET")
	r.HandleFunc("/cart/products/{id:[0-9]+}", h.AddProduct).Methods("POST")
	r.HandleFunc("/cart/products/{id:[0-9]+}", h.RemoveProduct).Methods("DELETE")
	r.HandleFunc("/cart/products/{id:[0-9]+}", h.UpdateQuantity).Methods("PUT")

	// Notifications
	r.HandleFunc("/notifications", h.Notifications).Methods("GET")
}

// --- request / response shapes ---
type updateQuantityReq struct {
	Amount *int `json:"amount"`
}

// statusFor maps a rejected cart operation to an HTTP status.
func statusFor(err error) int {
	switch {
	case errors.Is(err, service.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, service.ErrOutOfStock):
		return http.StatusConflict
	case errors.Is(err, service.ErrCatalogLookup) && errors.Is(err, catalog.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, service.ErrCatalogLookup), errors.Is(err, service.ErrStockLookup):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// fail logs the full error and sends the client only the user-facing message.
func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	msg := "internal error"
	var opErr *service.OperationError
	if errors.As(err, &opErr) {
		msg = opErr.Message()
	}
	h.log.WarnContext(r.Context(), "cart request failed",
		slog.String("path", r.URL.Path),
		slog.Any("err", err),
	)
	httpjson.Error(w, statusFor(err), msg)
}

func productID(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	return id, err == nil
}

// --- Handler ---

// GetCart handles GET /cart
func (h *Handler) GetCart(w http.ResponseWriter, r *http.Request) {
	httpjson.Write(w, http.StatusOK, h.svc.Cart())
}

// AddProduct handles POST /cart/products/{id}
func (h *Handler) AddProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := productID(r)
	if !ok {
		httpjson.Error(w, http.StatusBadRequest, "invalid product id")
		return
	}
	if err := h.svc.AddProduct(r.Context(), id); err != nil {
		h.fail(w, r, err)
		return
	}
	httpjson.Write(w, http.StatusOK, h.svc.Cart())
}

// RemoveProduct handles DELETE /cart/products/{id}
func (h *Handler) RemoveProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := productID(r)
	if !ok {
		httpjson.Error(w, http.StatusBadRequest, "invalid product id")
		return
	}
	if err := h.svc.RemoveProduct(r.Context(), id); err != nil {
		h.fail(w, r, err)
		return
	}
	httpjson.Write(w, http.StatusOK, h.svc.Cart())
}

// UpdateQuantity handles PUT /cart/products/{id}
// body: { "amount": 3 }
func (h *Handler) UpdateQuantity(w http.ResponseWriter, r *http.Request) {
	id, ok := productID(r)
	if !ok {
		httpjson.Error(w, http.StatusBadRequest, "invalid product id")
		return
	}
	var req updateQuantityReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpjson.Error(w, http.StatusBadRequest, "invalid json")
		return
	}
	if req.Amount == nil {
		httpjson.Error(w, http.StatusBadRequest, "amount is required")
		return
	}
	if err := h.svc.UpdateQuantity(r.Context(), id, *req.Amount); err != nil {
		h.fail(w, r, err)
		return
	}
	httpjson.Write(w, http.StatusOK, h.svc.Cart())
}

// Notifications handles GET /notifications and drains the pending feed.
func (h *Handler) Notifications(w http.ResponseWriter, r *http.Request) {
	if h.feed == nil {
		httpjson.Write(w, http.StatusOK, []notify.Notification{})
		return
	}
	httpjson.Write(w, http.StatusOK, h.feed.Drain())
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

func (h *Handler) requestLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reqID := r.Header.Get("X-Request-ID")
		if reqID == "" {
			reqID = uuid.NewString()
		}
		w.Header().Set("X-Request-ID", reqID)

		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()
		next.ServeHTTP(rec, r)

		h.log.InfoContext(r.Context(), "http request",
			slog.String("request_id", reqID),
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.Int("status", rec.status),
			slog.Duration("duration", time.Since(start)),
		)
	})
}
