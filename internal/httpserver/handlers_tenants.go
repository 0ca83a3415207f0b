package httpserver

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"indekost/internal/auth"
	"indekost/internal/repo"
	"indekost/internal/wa"
)

const entryDateLayout = "2006-01-02"

type tenantCreateRequest struct {
	RoomID         string `json:"room_id"`
	Name           string `json:"name"`
	WhatsAppNumber string `json:"whatsapp_number"`
	EntryDate      string `json:"entry_date"`
	Status         string `json:"status"`
	Password       string `json:"password"`
}

func (s *Server) handleTenantCreate(w http.ResponseWriter, r *http.Request) {
	ownerID := auth.ClaimsFromContext(r.Context()).Subject

	var req tenantCreateRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.RoomID == "" || req.Name == "" {
		writeError(w, http.StatusUnprocessableEntity, "room_id and name are required")
		return
	}
	number := wa.NormalizeNumber(req.WhatsAppNumber)
	if number == "" {
		writeError(w, http.StatusUnprocessableEntity, "whatsapp_number is required")
		return
	}
	entryDate, err := time.Parse(entryDateLayout, req.EntryDate)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, "entry_date must be YYYY-MM-DD")
		return
	}
	status := repo.TenantActive
	if req.Status != "" {
		parsed, err := repo.ParseTenantStatus(req.Status)
		if err != nil {
			writeError(w, http.StatusUnprocessableEntity, err.Error())
			return
		}
		status = parsed
	}

	tenant := repo.Tenant{
		RoomID:         req.RoomID,
		Name:           req.Name,
		WhatsAppNumber: number,
		EntryDate:      entryDate,
		Status:         status,
	}
	if req.Password != "" {
		if len(req.Password) < 8 {
			writeError(w, http.StatusUnprocessableEntity, "password must be at least 8 characters")
			return
		}
		hash, err := auth.HashPassword(req.Password)
		if err != nil {
			s.logger.Error("hash password", "error", err)
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		tenant.PasswordHash = hash
	}

	created, err := s.store.CreateTenant(r.Context(), ownerID, tenant)
	if err != nil {
		s.writeRepoError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toTenantView(created))
}

func (s *Server) handleTenantList(w http.ResponseWriter, r *http.Request) {
	ownerID := auth.ClaimsFromContext(r.Context()).Subject

	var filter repo.TenantFilter
	if v := r.URL.Query().Get("status"); v != "" {
		status, err := repo.ParseTenantStatus(v)
		if err != nil {
			writeError(w, http.StatusUnprocessableEntity, err.Error())
			return
		}
		filter.Status = &status
	}
	filter.Search = r.URL.Query().Get("search")
	filter.RoomID = r.URL.Query().Get("room_id")

	tenants, err := s.store.ListTenants(r.Context(), ownerID, filter)
	if err != nil {
		s.writeRepoError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"tenants": toTenantViews(tenants)})
}

func (s *Server) handleTenantGet(w http.ResponseWriter, r *http.Request) {
	ownerID := auth.ClaimsFromContext(r.Context()).Subject

	tenant, err := s.store.GetTenantForOwner(r.Context(), ownerID, chi.URLParam(r, "id"))
	if err != nil {
		s.writeRepoError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toTenantView(tenant))
}

type tenantUpdateRequest struct {
	RoomID         *string `json:"room_id"`
	Name           *string `json:"name"`
	WhatsAppNumber *string `json:"whatsapp_number"`
	EntryDate      *string `json:"entry_date"`
	Status         *string `json:"status"`
	Password       *string `json:"password"`
}

func (s *Server) handleTenantUpdate(w http.ResponseWriter, r *http.Request) {
	ownerID := auth.ClaimsFromContext(r.Context()).Subject

	var req tenantUpdateRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	var upd repo.TenantUpdate
	upd.RoomID = req.RoomID
	if req.Name != nil {
		trimmed := strings.TrimSpace(*req.Name)
		if trimmed == "" {
			writeError(w, http.StatusUnprocessableEntity, "name must not be empty")
			return
		}
		upd.Name = &trimmed
	}
	if req.WhatsAppNumber != nil {
		number := wa.NormalizeNumber(*req.WhatsAppNumber)
		if number == "" {
			writeError(w, http.StatusUnprocessableEntity, "whatsapp_number must not be empty")
			return
		}
		upd.WhatsAppNumber = &number
	}
	if req.EntryDate != nil {
		entryDate, err := time.Parse(entryDateLayout, *req.EntryDate)
		if err != nil {
			writeError(w, http.StatusUnprocessableEntity, "entry_date must be YYYY-MM-DD")
			return
		}
		upd.EntryDate = &entryDate
	}
	if req.Status != nil {
		status, err := repo.ParseTenantStatus(*req.Status)
		if err != nil {
			writeError(w, http.StatusUnprocessableEntity, err.Error())
			return
		}
		upd.Status = &status
	}
	if req.Password != nil {
		if len(*req.Password) < 8 {
			writeError(w, http.StatusUnprocessableEntity, "password must be at least 8 characters")
			return
		}
		hash, err := auth.HashPassword(*req.Password)
		if err != nil {
			s.logger.Error("hash password", "error", err)
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		upd.PasswordHash = &hash
	}

	tenant, err := s.store.UpdateTenant(r.Context(), ownerID, chi.URLParam(r, "id"), upd)
	if err != nil {
		s.writeRepoError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toTenantView(tenant))
}

func (s *Server) handleTenantDelete(w http.ResponseWriter, r *http.Request) {
	ownerID := auth.ClaimsFromContext(r.Context()).Subject

	if err := s.store.DeleteTenant(r.Context(), ownerID, chi.URLParam(r, "id")); err != nil {
		s.writeRepoError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}
