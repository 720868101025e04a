package catalog

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/toplivedeals/toplivedeals/internal/docstore"
	"github.com/toplivedeals/toplivedeals/internal/platform/httpx"
	"github.com/toplivedeals/toplivedeals/internal/shared"
)

// Handler wires the admin CRUD endpoints for the product catalog.
type Handler struct {
	logger   *slog.Logger
	service  *Service
	validate *validator.Validate
}

// NewHandler constructs a Handler instance.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{
		logger:   logger,
		service:  service,
		validate: validator.New(),
	}
}

// MountRoutes registers admin catalog routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/products", h.listProducts)
	r.Post("/products", h.createProduct)
	r.Put("/products/{id}", h.updateProduct)
	r.Delete("/products/{id}", h.deleteProduct)
}

func (h *Handler) listProducts(w http.ResponseWriter, r *http.Request) {
	products, err := h.service.List(r.Context())
	if err != nil {
		h.respondError(w, err)
		return
	}

	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	perPage, _ := strconv.Atoi(r.URL.Query().Get("per_page"))
	pagination := shared.NewPagination(page, perPage, len(products))
	start, end := pagination.Bounds()

	httpx.JSON(w, http.StatusOK, map[string]any{
		"products":   products[start:end],
		"pagination": pagination,
	})
}

func (h *Handler) createProduct(w http.ResponseWriter, r *http.Request) {
	var req CreateProductRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Payload", err.Error())
		return
	}
	if fields, ok := h.checkRequest(req); !ok {
		httpx.JSON(w, http.StatusBadRequest, map[string]any{"errors": fields})
		return
	}

	id, err := h.service.Create(r.Context(), req)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, map[string]string{"id": id})
}

func (h *Handler) updateProduct(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req UpdateProductRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Payload", err.Error())
		return
	}
	if fields, ok := h.checkRequest(req); !ok {
		httpx.JSON(w, http.StatusBadRequest, map[string]any{"errors": fields})
		return
	}

	if err := h.service.Update(r.Context(), id, req); err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]bool{"success": true})
}

func (h *Handler) deleteProduct(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if err := h.service.Delete(r.Context(), id); err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]bool{"success": true})
}

// respondError translates service failures: a missing document is the
// caller's problem, anything else is the store's.
func (h *Handler) respondError(w http.ResponseWriter, err error) {
	if errors.Is(err, docstore.ErrNotFound) {
		httpx.RespondError(w, fmt.Errorf("%w: product does not exist", httpx.ErrNotFound))
		return
	}
	h.logger.Error("catalog store", slog.Any("error", err))
	httpx.RespondError(w, fmt.Errorf("%w: %s", httpx.ErrStore, err))
}

func (h *Handler) checkRequest(req any) (map[string]string, bool) {
	if err := h.validate.Struct(req); err != nil {
		fields := make(map[string]string)
		var validationErrs validator.ValidationErrors
		if errors.As(err, &validationErrs) {
			for _, fieldErr := range validationErrs {
				fields[fieldErr.Field()] = fieldErr.Tag()
			}
		}
		return fields, false
	}
	return nil, true
}
