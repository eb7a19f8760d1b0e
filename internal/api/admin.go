package api

import (
	"net/http"
	"strconv"
	"strings"

	"ms-parking/internal/auth"
	"ms-parking/internal/parking"
	"ms-parking/internal/utils"

	"github.com/go-chi/chi/v5"
)

type categoryRequest struct {
	RateNormal  *float64 `json:"rateNormal"`
	RateSpecial *float64 `json:"rateSpecial"`
	Name        *string  `json:"name"`
	Description *string  `json:"description"`
}

type zoneOpenRequest struct {
	Open interface{} `json:"open"`
}

type rushRequest struct {
	WeekDay *int   `json:"weekDay"`
	From    string `json:"from"`
	To      string `json:"to"`
}

type vacationRequest struct {
	Name string `json:"name"`
	From string `json:"from"`
	To   string `json:"to"`
}

func (h *Handler) ParkingStateReport(w http.ResponseWriter, r *http.Request) {
	utils.WriteJSON(w, http.StatusOK, h.Service.ParkingStateReport())
}

func (h *Handler) ListSubscriptions(w http.ResponseWriter, r *http.Request) {
	utils.WriteJSON(w, http.StatusOK, h.Service.ListSubscriptions())
}

func (h *Handler) UpdateCategory(w http.ResponseWriter, r *http.Request) {
	var req categoryRequest
	if err := decodeJSON(r, &req); err != nil {
		h.writeBadRequest(w, err)
		return
	}

	adminID := auth.UserID(r.Context())
	cat, err := h.Service.SetCategoryRates(adminID, chi.URLParam(r, "id"), parking.CategoryUpdate{
		RateNormal:  req.RateNormal,
		RateSpecial: req.RateSpecial,
		Name:        req.Name,
		Description: req.Description,
	})
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	h.Logger.LogAdmin(adminID, "CATEGORY", "updated "+cat.ID)
	utils.WriteJSON(w, http.StatusOK, cat)
}

func (h *Handler) SetZoneOpen(w http.ResponseWriter, r *http.Request) {
	var req zoneOpenRequest
	if err := decodeJSON(r, &req); err != nil {
		h.writeBadRequest(w, err)
		return
	}
	if req.Open == nil {
		h.writeServiceError(w, r, parking.ErrMissingFields)
		return
	}

	adminID := auth.UserID(r.Context())
	res, err := h.Service.SetZoneOpen(adminID, chi.URLParam(r, "id"), truthy(req.Open))
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	h.Logger.LogAdmin(adminID, "ZONE", res.ZoneID+" open="+strconv.FormatBool(res.Open))
	utils.WriteJSON(w, http.StatusOK, res)
}

func (h *Handler) AddRushWindow(w http.ResponseWriter, r *http.Request) {
	var req rushRequest
	if err := decodeJSON(r, &req); err != nil {
		h.writeBadRequest(w, err)
		return
	}
	if req.WeekDay == nil || req.From == "" || req.To == "" {
		h.writeServiceError(w, r, parking.ErrMissingFields)
		return
	}

	adminID := auth.UserID(r.Context())
	rush, err := h.Service.AddRushWindow(adminID, *req.WeekDay, req.From, req.To)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	h.Logger.LogAdmin(adminID, "RUSH", "added "+rush.ID)
	utils.WriteJSON(w, http.StatusCreated, rush)
}

func (h *Handler) AddVacation(w http.ResponseWriter, r *http.Request) {
	var req vacationRequest
	if err := decodeJSON(r, &req); err != nil {
		h.writeBadRequest(w, err)
		return
	}

	adminID := auth.UserID(r.Context())
	vac, err := h.Service.AddVacation(adminID, req.Name, req.From, req.To)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	h.Logger.LogAdmin(adminID, "VACATION", "added "+vac.ID)
	utils.WriteJSON(w, http.StatusCreated, vac)
}

// truthy coerces the loose JSON values dashboards send for a flag.
func truthy(v interface{}) bool {
	switch t := v.(type) {
	case bool:
		return t
	case float64:
		return t != 0
	case string:
		s := strings.TrimSpace(strings.ToLower(t))
		return s == "true" || s == "1" || s == "yes" || s == "on"
	default:
		return false
	}
}
