package api

import (
	"net/http"

	"ms-parking/internal/utils"

	"github.com/go-chi/chi/v5"
)

func (h *Handler) ListGates(w http.ResponseWriter, r *http.Request) {
	utils.WriteJSON(w, http.StatusOK, h.Service.ListGates())
}

// ListZones returns every zone, or only those reachable from ?gateId=.
func (h *Handler) ListZones(w http.ResponseWriter, r *http.Request) {
	if gateID := r.URL.Query().Get("gateId"); gateID != "" {
		utils.WriteJSON(w, http.StatusOK, h.Service.ListZonesForGate(gateID))
		return
	}
	utils.WriteJSON(w, http.StatusOK, h.Service.ListZones())
}

func (h *Handler) ListCategories(w http.ResponseWriter, r *http.Request) {
	utils.WriteJSON(w, http.StatusOK, h.Service.ListCategories())
}

func (h *Handler) GetSubscription(w http.ResponseWriter, r *http.Request) {
	sub, err := h.Service.GetSubscription(chi.URLParam(r, "id"))
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, sub)
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	utils.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
