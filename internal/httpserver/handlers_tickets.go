package httpserver

import (
	"errors"
	"io"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/go-chi/chi/v5"

	"indekost/internal/auth"
	"indekost/internal/repo"
	"indekost/internal/storage"
	"indekost/internal/wa"
)

func (s *Server) handleTicketList(w http.ResponseWriter, r *http.Request) {
	ownerID := auth.ClaimsFromContext(r.Context()).Subject

	var filter repo.TicketFilter
	if v := r.URL.Query().Get("status"); v != "" {
		status, err := repo.ParseTicketStatus(v)
		if err != nil {
			writeError(w, http.StatusUnprocessableEntity, err.Error())
			return
		}
		filter.Status = &status
	}
	if v := r.URL.Query().Get("priority"); v != "" {
		priority, err := repo.ParseTicketPriority(v)
		if err != nil {
			writeError(w, http.StatusUnprocessableEntity, err.Error())
			return
		}
		filter.Priority = &priority
	}
	filter.RoomID = r.URL.Query().Get("room_id")
	filter.TenantID = r.URL.Query().Get("tenant_id")

	tickets, err := s.store.ListTickets(r.Context(), ownerID, filter)
	if err != nil {
		s.writeRepoError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"tickets": toTicketViews(tickets)})
}

func (s *Server) handleTicketGet(w http.ResponseWriter, r *http.Request) {
	ownerID := auth.ClaimsFromContext(r.Context()).Subject

	ticket, err := s.store.GetTicketForOwner(r.Context(), ownerID, chi.URLParam(r, "id"))
	if err != nil {
		s.writeRepoError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toTicketView(ticket))
}

type ticketStatusRequest struct {
	Status string `json:"status"`
}

// handleTicketStatusUpdate moves a ticket through its lifecycle. Reaching
// resolved stamps resolved_at and notifies the tenant, best effort.
func (s *Server) handleTicketStatusUpdate(w http.ResponseWriter, r *http.Request) {
	ownerID := auth.ClaimsFromContext(r.Context()).Subject

	var req ticketStatusRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	status, err := repo.ParseTicketStatus(req.Status)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	ticket, err := s.store.UpdateTicketStatus(r.Context(), ownerID, chi.URLParam(r, "id"), status)
	if err != nil {
		s.writeRepoError(w, err)
		return
	}

	if status == repo.TicketResolved {
		s.notifyTicketResolved(r, ticket)
	}
	writeJSON(w, http.StatusOK, toTicketView(ticket))
}

func (s *Server) notifyTicketResolved(r *http.Request, ticket *repo.Ticket) {
	if s.notifier == nil {
		return
	}
	tenant, err := s.store.GetTenantByID(r.Context(), ticket.TenantID)
	if err != nil {
		s.logger.Warn("resolve notification lookup failed", "ticket_id", ticket.ID, "error", err)
		return
	}
	roomNumber := ""
	if tenant.Room != nil {
		roomNumber = tenant.Room.RoomNumber
	}
	msg := wa.TicketResolvedMessage(roomNumber, ticket.Title)
	if !s.notifier.SendText(r.Context(), tenant.WhatsAppNumber, msg) {
		s.logger.Warn("resolve notification failed", "ticket_id", ticket.ID)
	}
}

// handleTicketDelete removes a ticket and its stored photo. The
// ownership check happens on the read; a photo-less ticket skips the
// object delete.
func (s *Server) handleTicketDelete(w http.ResponseWriter, r *http.Request) {
	ownerID := auth.ClaimsFromContext(r.Context()).Subject
	ticketID := chi.URLParam(r, "id")

	ticket, err := s.store.GetTicketForOwner(r.Context(), ownerID, ticketID)
	if err != nil {
		s.writeRepoError(w, err)
		return
	}

	if ticket.PhotoPath != nil && *ticket.PhotoPath != "" {
		err := s.objects.Delete(r.Context(), *ticket.PhotoPath)
		if err != nil && !errors.Is(err, storage.ErrObjectNotFound) {
			s.logger.Error("delete ticket photo", "key", *ticket.PhotoPath, "error", err)
			s.countError("storage")
			writeError(w, http.StatusInternalServerError, "failed to delete photo")
			return
		}
	}

	if err := s.store.DeleteTicket(r.Context(), ownerID, ticketID); err != nil {
		s.writeRepoError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

func (s *Server) handleTenantTicketList(w http.ResponseWriter, r *http.Request) {
	tenantID := auth.ClaimsFromContext(r.Context()).Subject

	var status *repo.TicketStatus
	if v := r.URL.Query().Get("status"); v != "" {
		parsed, err := repo.ParseTicketStatus(v)
		if err != nil {
			writeError(w, http.StatusUnprocessableEntity, err.Error())
			return
		}
		status = &parsed
	}

	tickets, err := s.store.ListTicketsForTenant(r.Context(), tenantID, status)
	if err != nil {
		s.writeRepoError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"tickets": toTicketViews(tickets)})
}

func (s *Server) handleTenantTicketGet(w http.ResponseWriter, r *http.Request) {
	tenantID := auth.ClaimsFromContext(r.Context()).Subject

	ticket, err := s.store.GetTicketForTenant(r.Context(), tenantID, chi.URLParam(r, "id"))
	if err != nil {
		s.writeRepoError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toTicketView(ticket))
}

type ticketCreateRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Priority    string `json:"priority"`
}

var ticketPhotoContentTypes = map[string]string{
	"jpg":  "image/jpeg",
	"jpeg": "image/jpeg",
	"png":  "image/png",
}

// handleTenantTicketCreate files a maintenance report for the tenant's
// own room. JSON is the normal shape; multipart is accepted when the
// report carries a photo.
func (s *Server) handleTenantTicketCreate(w http.ResponseWriter, r *http.Request) {
	tenantID := auth.ClaimsFromContext(r.Context()).Subject

	var req ticketCreateRequest
	var photoPath *string

	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		r.Body = http.MaxBytesReader(w, r.Body, maxProofBytes+(512<<10))
		if err := r.ParseMultipartForm(maxProofBytes); err != nil {
			writeError(w, http.StatusUnprocessableEntity, "invalid multipart form or file too large (max 2MB)")
			return
		}
		req.Title = r.FormValue("title")
		req.Description = r.FormValue("description")
		req.Priority = r.FormValue("priority")

		if file, header, err := r.FormFile("photo"); err == nil {
			defer file.Close()
			ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(header.Filename), "."))
			contentType, ok := ticketPhotoContentTypes[ext]
			if !ok {
				writeError(w, http.StatusUnprocessableEntity, "photo must be jpg, jpeg or png")
				return
			}
			key := storage.ObjectKey("tickets", ext)
			if err := s.objects.Put(r.Context(), key, io.LimitReader(file, maxProofBytes), contentType); err != nil {
				s.logger.Error("store ticket photo", "error", err)
				s.countError("storage")
				writeError(w, http.StatusInternalServerError, "failed to store photo")
				return
			}
			photoPath = &key
		}
	} else if !decodeJSON(w, r, &req) {
		return
	}

	req.Title = strings.TrimSpace(req.Title)
	req.Description = strings.TrimSpace(req.Description)
	if req.Title == "" || req.Description == "" {
		writeError(w, http.StatusUnprocessableEntity, "title and description are required")
		return
	}
	priority := repo.PriorityMedium
	if req.Priority != "" {
		parsed, err := repo.ParseTicketPriority(req.Priority)
		if err != nil {
			writeError(w, http.StatusUnprocessableEntity, err.Error())
			return
		}
		priority = parsed
	}

	ticket, err := s.store.CreateTicket(r.Context(), tenantID, req.Title, req.Description, photoPath, priority)
	if err != nil {
		s.writeRepoError(w, err)
		return
	}

	s.notifyTicketCreated(r, ticket)
	writeJSON(w, http.StatusCreated, toTicketView(ticket))
}

func (s *Server) notifyTicketCreated(r *http.Request, ticket *repo.Ticket) {
	if s.notifier == nil || s.cfg.OwnerWhatsApp == "" {
		return
	}
	tenant, err := s.store.GetTenantByID(r.Context(), ticket.TenantID)
	if err != nil {
		s.logger.Warn("ticket notification lookup failed", "ticket_id", ticket.ID, "error", err)
		return
	}
	roomNumber := ""
	if tenant.Room != nil {
		roomNumber = tenant.Room.RoomNumber
	}
	msg := wa.NewTicketMessage(wa.TicketData{
		RoomNumber: roomNumber,
		TenantName: tenant.Name,
		Title:      ticket.Title,
		Priority:   string(ticket.Priority),
	})
	if !s.notifier.SendText(r.Context(), s.cfg.OwnerWhatsApp, msg) {
		s.logger.Warn("ticket notification failed", "ticket_id", ticket.ID)
	}
}
