package httpserver

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"indekost/internal/auth"
	"indekost/internal/repo"
)

type meterCreateRequest struct {
	RoomID    string   `json:"room_id"`
	Type      string   `json:"type"`
	LastValue float64  `json:"last_value"`
	Threshold *float64 `json:"threshold"`
	Unit      *string  `json:"unit"`
}

func (s *Server) handleMeterCreate(w http.ResponseWriter, r *http.Request) {
	ownerID := auth.ClaimsFromContext(r.Context()).Subject

	var req meterCreateRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.RoomID == "" {
		writeError(w, http.StatusUnprocessableEntity, "room_id is required")
		return
	}
	meterType, err := repo.ParseMeterType(req.Type)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	if req.LastValue < 0 {
		writeError(w, http.StatusUnprocessableEntity, "last_value must not be negative")
		return
	}
	if req.Threshold != nil && *req.Threshold < 0 {
		writeError(w, http.StatusUnprocessableEntity, "threshold must not be negative")
		return
	}

	meter := repo.Meter{
		RoomID:    req.RoomID,
		Type:      meterType,
		LastValue: req.LastValue,
		Unit:      req.Unit,
	}
	if req.Threshold != nil {
		meter.Threshold = *req.Threshold
	}

	created, err := s.store.CreateMeter(r.Context(), ownerID, meter)
	if err != nil {
		s.writeRepoError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toMeterView(created))
}

func (s *Server) handleMeterList(w http.ResponseWriter, r *http.Request) {
	ownerID := auth.ClaimsFromContext(r.Context()).Subject

	var filter repo.MeterFilter
	if v := r.URL.Query().Get("type"); v != "" {
		meterType, err := repo.ParseMeterType(v)
		if err != nil {
			writeError(w, http.StatusUnprocessableEntity, err.Error())
			return
		}
		filter.Type = &meterType
	}
	filter.RoomID = r.URL.Query().Get("room_id")
	filter.LowOnly = r.URL.Query().Get("low") == "true"

	meters, err := s.store.ListMeters(r.Context(), ownerID, filter)
	if err != nil {
		s.writeRepoError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"meters": toMeterViews(meters)})
}

func (s *Server) handleMeterGet(w http.ResponseWriter, r *http.Request) {
	ownerID := auth.ClaimsFromContext(r.Context()).Subject

	meter, err := s.store.GetMeter(r.Context(), ownerID, chi.URLParam(r, "id"))
	if err != nil {
		s.writeRepoError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toMeterView(meter))
}

type meterUpdateRequest struct {
	LastValue *float64 `json:"last_value"`
	Threshold *float64 `json:"threshold"`
	Unit      *string  `json:"unit"`
}

func (s *Server) handleMeterUpdate(w http.ResponseWriter, r *http.Request) {
	claims := auth.ClaimsFromContext(r.Context())

	var req meterUpdateRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.LastValue != nil && *req.LastValue < 0 {
		writeError(w, http.StatusUnprocessableEntity, "last_value must not be negative")
		return
	}
	if req.Threshold != nil && *req.Threshold < 0 {
		writeError(w, http.StatusUnprocessableEntity, "threshold must not be negative")
		return
	}

	upd := repo.MeterUpdate{
		LastValue: req.LastValue,
		Threshold: req.Threshold,
		Unit:      req.Unit,
		UpdatedBy: claims.Name,
	}
	meter, err := s.store.UpdateMeter(r.Context(), claims.Subject, chi.URLParam(r, "id"), upd)
	if err != nil {
		s.writeRepoError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toMeterView(meter))
}

func (s *Server) handleMeterDelete(w http.ResponseWriter, r *http.Request) {
	ownerID := auth.ClaimsFromContext(r.Context()).Subject

	if err := s.store.DeleteMeter(r.Context(), ownerID, chi.URLParam(r, "id")); err != nil {
		s.writeRepoError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}
