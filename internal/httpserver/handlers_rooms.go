package httpserver

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"indekost/internal/auth"
	"indekost/internal/repo"
)

type roomCreateRequest struct {
	RoomNumber string  `json:"room_number"`
	Price      float64 `json:"price"`
	Status     string  `json:"status"`
}

func (s *Server) handleRoomCreate(w http.ResponseWriter, r *http.Request) {
	ownerID := auth.ClaimsFromContext(r.Context()).Subject

	var req roomCreateRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	req.RoomNumber = strings.TrimSpace(req.RoomNumber)
	if req.RoomNumber == "" {
		writeError(w, http.StatusUnprocessableEntity, "room_number is required")
		return
	}
	if req.Price < 0 {
		writeError(w, http.StatusUnprocessableEntity, "price must not be negative")
		return
	}
	status := repo.RoomAvailable
	if req.Status != "" {
		parsed, err := repo.ParseRoomStatus(req.Status)
		if err != nil {
			writeError(w, http.StatusUnprocessableEntity, err.Error())
			return
		}
		status = parsed
	}

	room, err := s.store.CreateRoom(r.Context(), ownerID, req.RoomNumber, req.Price, status)
	if err != nil {
		s.writeRepoError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toRoomView(room))
}

func (s *Server) handleRoomList(w http.ResponseWriter, r *http.Request) {
	ownerID := auth.ClaimsFromContext(r.Context()).Subject

	var filter repo.RoomFilter
	if v := r.URL.Query().Get("status"); v != "" {
		status, err := repo.ParseRoomStatus(v)
		if err != nil {
			writeError(w, http.StatusUnprocessableEntity, err.Error())
			return
		}
		filter.Status = &status
	}
	filter.Search = r.URL.Query().Get("search")

	rooms, err := s.store.ListRooms(r.Context(), ownerID, filter)
	if err != nil {
		s.writeRepoError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"rooms": toRoomViews(rooms)})
}

func (s *Server) handleRoomGet(w http.ResponseWriter, r *http.Request) {
	ownerID := auth.ClaimsFromContext(r.Context()).Subject

	room, err := s.store.GetRoom(r.Context(), ownerID, chi.URLParam(r, "id"))
	if err != nil {
		s.writeRepoError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toRoomView(room))
}

type roomUpdateRequest struct {
	RoomNumber *string  `json:"room_number"`
	Price      *float64 `json:"price"`
	Status     *string  `json:"status"`
}

func (s *Server) handleRoomUpdate(w http.ResponseWriter, r *http.Request) {
	ownerID := auth.ClaimsFromContext(r.Context()).Subject

	var req roomUpdateRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	var upd repo.RoomUpdate
	if req.RoomNumber != nil {
		trimmed := strings.TrimSpace(*req.RoomNumber)
		if trimmed == "" {
			writeError(w, http.StatusUnprocessableEntity, "room_number must not be empty")
			return
		}
		upd.RoomNumber = &trimmed
	}
	if req.Price != nil {
		if *req.Price < 0 {
			writeError(w, http.StatusUnprocessableEntity, "price must not be negative")
			return
		}
		upd.Price = req.Price
	}
	if req.Status != nil {
		status, err := repo.ParseRoomStatus(*req.Status)
		if err != nil {
			writeError(w, http.StatusUnprocessableEntity, err.Error())
			return
		}
		upd.Status = &status
	}

	room, err := s.store.UpdateRoom(r.Context(), ownerID, chi.URLParam(r, "id"), upd)
	if err != nil {
		s.writeRepoError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toRoomView(room))
}

func (s *Server) handleRoomDelete(w http.ResponseWriter, r *http.Request) {
	ownerID := auth.ClaimsFromContext(r.Context()).Subject

	if err := s.store.DeleteRoom(r.Context(), ownerID, chi.URLParam(r, "id")); err != nil {
		s.writeRepoError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}
