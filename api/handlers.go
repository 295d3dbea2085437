/*
handlers.go - HTTP handlers for the inventory ledger API

PURPOSE:
  Exposes the ledger engine, category registry, and report builder over
  REST. Handles JSON serialization and maps domain errors to HTTP status.

ENDPOINTS:
  Auth (public):
    POST /api/auth/register      Create account
    POST /api/auth/login         Verify credentials, seed categories, issue JWT

  Stock (authenticated):
    POST /api/stock/in           Record stock-in
    POST /api/stock/out          Record stock-out
    GET  /api/items              Current aggregates with category names
    GET  /api/items/quantity     Quantity lookup by (raw) name

  Reports (authenticated):
    GET  /api/history            Unified history; direction/date/category_id filters
    GET  /api/reports/low-stock  Items at or below ?threshold=

  Categories (authenticated):
    GET    /api/categories
    POST   /api/categories
    DELETE /api/categories/{id}

ERROR MAPPING:
  400 validation / no category, 404 item or category not found,
  409 insufficient stock / fixed category / username taken / account cap,
  401 bad credentials or token, 500 storage failures (propagated unchanged).
*/
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/gudang/stock-engine/auth"
	"github.com/gudang/stock-engine/ledger"
	"github.com/gudang/stock-engine/report"
)

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Engine   *ledger.Engine
	Registry *ledger.Registry
	Reports  *report.Builder
	Auth     *auth.Authenticator
}

func NewHandler(engine *ledger.Engine, registry *ledger.Registry, reports *report.Builder, authn *auth.Authenticator) *Handler {
	return &Handler{
		Engine:   engine,
		Registry: registry,
		Reports:  reports,
		Auth:     authn,
	}
}

// =============================================================================
// AUTH ENDPOINTS
// =============================================================================

// Register creates a new account.
// POST /api/auth/register
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	user, err := h.Auth.Register(r.Context(), req.Username, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, auth.ErrBlankUsername), errors.Is(err, auth.ErrWeakPassword):
			writeError(w, http.StatusBadRequest, "Invalid registration", err)
		case errors.Is(err, auth.ErrUsernameTaken), errors.Is(err, auth.ErrAccountLimit):
			writeError(w, http.StatusConflict, "Registration rejected", err)
		default:
			writeError(w, http.StatusInternalServerError, "Failed to register", err)
		}
		return
	}

	writeJSON(w, http.StatusCreated, UserDTO{ID: user.ID, Username: user.Username})
}

// Login verifies credentials and returns a session token.
// POST /api/auth/login
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	user, token, err := h.Auth.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			writeError(w, http.StatusUnauthorized, "Login failed", err)
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to log in", err)
		return
	}

	writeJSON(w, http.StatusOK, LoginResponse{
		Token:    token,
		UserID:   user.ID,
		Username: user.Username,
	})
}

// =============================================================================
// STOCK ENDPOINTS
// =============================================================================

// StockIn records a stock-in movement.
// POST /api/stock/in
func (h *Handler) StockIn(w http.ResponseWriter, r *http.Request) {
	userID := UserID(r.Context())

	var req MovementRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	rec, err := h.Engine.RecordStockIn(r.Context(), userID, req.Name, req.Quantity, req.CategoryID)
	observeMovement(string(ledger.DirectionIn), err, ledger.IsClientError(err))
	if err != nil {
		writeDomainError(w, "Failed to record stock-in", err)
		return
	}

	writeJSON(w, http.StatusCreated, MovementDTO{
		ID:         rec.ID,
		ItemName:   rec.ItemName,
		Quantity:   rec.Quantity,
		RecordedAt: rec.RecordedAt,
		Direction:  string(ledger.DirectionIn),
	})
}

// StockOut records a stock-out movement.
// POST /api/stock/out
func (h *Handler) StockOut(w http.ResponseWriter, r *http.Request) {
	userID := UserID(r.Context())

	var req MovementRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	rec, err := h.Engine.RecordStockOut(r.Context(), userID, req.Name, req.Quantity)
	observeMovement(string(ledger.DirectionOut), err, ledger.IsClientError(err))
	if err != nil {
		writeDomainError(w, "Failed to record stock-out", err)
		return
	}

	writeJSON(w, http.StatusCreated, MovementDTO{
		ID:         rec.ID,
		ItemName:   rec.ItemName,
		Quantity:   rec.Quantity,
		RecordedAt: rec.RecordedAt,
		Direction:  string(ledger.DirectionOut),
	})
}

// ListItems returns the current aggregates with resolved category names.
// GET /api/items
func (h *Handler) ListItems(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := UserID(ctx)

	items, err := h.Engine.Items(ctx, userID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list items", err)
		return
	}

	cats, err := h.Registry.List(ctx, userID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list categories", err)
		return
	}
	catNames := make(map[string]string, len(cats))
	for _, cat := range cats {
		catNames[cat.ID] = cat.Name
	}

	dtos := make([]ItemDTO, len(items))
	for i, item := range items {
		dtos[i] = ItemDTO{
			ID:         item.ID,
			Name:       item.Name,
			Quantity:   item.Quantity,
			CategoryID: item.CategoryID,
			// Dangling references resolve to no name; the category may
			// have been deleted after the item was created.
			CategoryName: catNames[item.CategoryID],
			UpdatedAt:    item.UpdatedAt,
		}
	}
	writeJSON(w, http.StatusOK, dtos)
}

// GetQuantity looks up the current quantity for a raw name.
// GET /api/items/quantity?name=
func (h *Handler) GetQuantity(w http.ResponseWriter, r *http.Request) {
	userID := UserID(r.Context())
	name := r.URL.Query().Get("name")

	qty, found, err := h.Engine.CurrentQuantity(r.Context(), userID, name)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to get quantity", err)
		return
	}
	writeJSON(w, http.StatusOK, QuantityDTO{Name: name, Quantity: qty, Found: found})
}

// =============================================================================
// REPORT ENDPOINTS
// =============================================================================

// GetHistory returns the unified movement history, filtered.
// GET /api/history?direction=&date=&category_id=
func (h *Handler) GetHistory(w http.ResponseWriter, r *http.Request) {
	userID := UserID(r.Context())

	entries, err := h.Reports.BuildHistory(r.Context(), userID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to build history", err)
		return
	}
	historyRequests.Inc()

	filter := report.Filter{
		Direction:     ledger.Direction(r.URL.Query().Get("direction")),
		DateSubstring: r.URL.Query().Get("date"),
		CategoryID:    r.URL.Query().Get("category_id"),
	}
	writeJSON(w, http.StatusOK, toHistoryEntryDTOs(report.ApplyFilters(entries, filter)))
}

// GetLowStock returns items at or below the threshold.
// GET /api/reports/low-stock?threshold=
func (h *Handler) GetLowStock(w http.ResponseWriter, r *http.Request) {
	userID := UserID(r.Context())

	threshold, err := strconv.Atoi(r.URL.Query().Get("threshold"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid threshold (must be an integer)", err)
		return
	}

	items, err := h.Reports.LowStockReport(r.Context(), userID, threshold)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to build low-stock report", err)
		return
	}

	dtos := make([]ItemDTO, len(items))
	for i, item := range items {
		dtos[i] = ItemDTO{
			ID:         item.ID,
			Name:       item.Name,
			Quantity:   item.Quantity,
			CategoryID: item.CategoryID,
			UpdatedAt:  item.UpdatedAt,
		}
	}
	writeJSON(w, http.StatusOK, dtos)
}

// =============================================================================
// CATEGORY ENDPOINTS
// =============================================================================

// ListCategories returns all categories for the user.
// GET /api/categories
func (h *Handler) ListCategories(w http.ResponseWriter, r *http.Request) {
	cats, err := h.Registry.List(r.Context(), UserID(r.Context()))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list categories", err)
		return
	}
	writeJSON(w, http.StatusOK, toCategoryDTOs(cats))
}

// CreateCategory adds a user-defined category.
// POST /api/categories
func (h *Handler) CreateCategory(w http.ResponseWriter, r *http.Request) {
	var req CreateCategoryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	cat, err := h.Registry.Create(r.Context(), UserID(r.Context()), req.Name)
	if err != nil {
		writeDomainError(w, "Failed to create category", err)
		return
	}
	writeJSON(w, http.StatusCreated, CategoryDTO{ID: cat.ID, Name: cat.Name, Fixed: cat.Fixed})
}

// DeleteCategory removes a non-fixed category.
// DELETE /api/categories/{id}
func (h *Handler) DeleteCategory(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if err := h.Registry.Delete(r.Context(), UserID(r.Context()), id); err != nil {
		writeDomainError(w, "Failed to delete category", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// =============================================================================
// HELPERS
// =============================================================================

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}

// writeDomainError maps expected ledger errors to HTTP status codes.
// Anything unrecognized is a storage fault and becomes a 500.
func writeDomainError(w http.ResponseWriter, message string, err error) {
	switch {
	case errors.Is(err, ledger.ErrValidation), errors.Is(err, ledger.ErrNoCategory):
		writeError(w, http.StatusBadRequest, message, err)
	case errors.Is(err, ledger.ErrItemNotFound), errors.Is(err, ledger.ErrCategoryNotFound):
		writeError(w, http.StatusNotFound, message, err)
	case errors.Is(err, ledger.ErrInsufficientStock), errors.Is(err, ledger.ErrFixedCategory):
		writeError(w, http.StatusConflict, message, err)
	default:
		writeError(w, http.StatusInternalServerError, message, err)
	}
}
