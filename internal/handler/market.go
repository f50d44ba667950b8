package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/gwtrade/tradepost/internal/service"
)

// MarketHandler handles the read-only market query endpoints.
type MarketHandler struct {
	core     *service.MarketplaceCore
	validate *validator.Validate
}

// NewMarketHandler creates a new MarketHandler.
func NewMarketHandler(core *service.MarketplaceCore) *MarketHandler {
	return &MarketHandler{
		core:     core,
		validate: validator.New(),
	}
}

// Search handles POST /search: the full filtered/sorted/paginated
// order search.
func (h *MarketHandler) Search(w http.ResponseWriter, r *http.Request) {
	var req searchRequest
	if err := ParseJSON(r, &req); err != nil {
		WriteError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}
	if err := h.validate.Struct(&req); err != nil {
		WriteError(w, http.StatusBadRequest, "validation_error", err.Error())
		return
	}

	result := h.core.SearchOrders(req.toDomain())
	WriteJSON(w, http.StatusOK, buildSearchResponse(result))
}

// ItemOrders handles GET /items/{name}/orders: the all-time orders for
// one item name with its catalog entry.
func (h *MarketHandler) ItemOrders(w http.ResponseWriter, r *http.Request) {
	res := h.core.GetItemOrders(chi.URLParam(r, "name"))

	orders := make([]enrichedOrderResponse, len(res.Orders))
	for i := range res.Orders {
		orders[i] = buildEnrichedOrderResponse(&res.Orders[i])
	}
	WriteJSON(w, http.StatusOK, map[string]any{
		"name":      res.Name,
		"family":    res.Family,
		"category":  res.Category,
		"inCatalog": res.InCatalog,
		"orders":    orders,
	})
}

// SearchItems handles GET /items?q=: name-only catalog autocomplete.
func (h *MarketHandler) SearchItems(w http.ResponseWriter, r *http.Request) {
	items := h.core.SearchItems(r.URL.Query().Get("q"))
	WriteJSON(w, http.StatusOK, items)
}

// GetItem handles GET /items/{name}: a single catalog entry.
func (h *MarketHandler) GetItem(w http.ResponseWriter, r *http.Request) {
	item, err := h.core.GetItem(chi.URLParam(r, "name"))
	if err != nil {
		mapCoreError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, item)
}

// LastItems handles GET /recent/{key}: the recency feed for a family,
// category, or "all".
func (h *MarketHandler) LastItems(w http.ResponseWriter, r *http.Request) {
	entries := h.core.GetLastItemsByFamily(chi.URLParam(r, "key"))
	WriteJSON(w, http.StatusOK, buildRecencyResponse(entries))
}

// AvailableOrders handles GET /orders/available: the full per-item
// freshness counts map.
func (h *MarketHandler) AvailableOrders(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusOK, buildCountsMapResponse(h.core.GetAvailableOrders()))
}
