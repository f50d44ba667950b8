package handler

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/gwtrade/tradepost/internal/service"
)

// ShopHandler handles the shop mutation and lookup endpoints.
type ShopHandler struct {
	core     *service.MarketplaceCore
	validate *validator.Validate
}

// NewShopHandler creates a new ShopHandler.
func NewShopHandler(core *service.MarketplaceCore) *ShopHandler {
	return &ShopHandler{
		core:     core,
		validate: validator.New(),
	}
}

// Refresh handles POST /shops: upserts the submitter's shop and echoes
// the merged record back.
func (h *ShopHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	var req shopPayload
	if err := ParseJSON(r, &req); err != nil {
		WriteError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}
	if err := h.validate.Struct(&req); err != nil {
		WriteError(w, http.StatusBadRequest, "invalid_shop",
			"Invalid shop data format. Please repair it via import/export, or contact the support.")
		return
	}

	shop, err := h.core.RefreshShop(req.toDomain())
	if err != nil {
		mapCoreError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, buildShopResponse(shop))
}

// Close handles POST /shops/{uuid}/close: the shop leaves the active
// set immediately but stays registered for a later refresh.
func (h *ShopHandler) Close(w http.ResponseWriter, r *http.Request) {
	h.core.CloseShop(chi.URLParam(r, "uuid"))
	w.WriteHeader(http.StatusNoContent)
}

// GetPublic handles GET /shops/public/{publicId}: the limited shop view
// for shared links.
func (h *ShopHandler) GetPublic(w http.ResponseWriter, r *http.Request) {
	shop, err := h.core.GetPublicShop(chi.URLParam(r, "publicId"))
	if err != nil {
		mapCoreError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, buildShopResponse(shop))
}

// Sync handles GET /shops/{uuid}/sync?since=<RFC3339>: returns the
// stored shop when the server copy is fresher than the client's, 204
// otherwise. Used by reconnecting clients.
func (h *ShopHandler) Sync(w http.ResponseWriter, r *http.Request) {
	since, err := time.Parse(time.RFC3339, r.URL.Query().Get("since"))
	if err != nil {
		WriteError(w, http.StatusBadRequest, "validation_error", "since must be a valid RFC 3339 timestamp")
		return
	}
	shop := h.core.ShopNewerThan(chi.URLParam(r, "uuid"), since)
	if shop == nil {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	WriteJSON(w, http.StatusOK, buildShopResponse(shop))
}
