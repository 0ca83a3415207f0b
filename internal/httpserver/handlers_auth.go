package httpserver

import (
	"net/http"
	"strings"

	"indekost/internal/auth"
	"indekost/internal/repo"
	"indekost/internal/wa"
)

type registerRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (s *Server) handleOwnerRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if req.Name == "" || req.Email == "" {
		writeError(w, http.StatusUnprocessableEntity, "name and email are required")
		return
	}
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

	owner, err := s.store.CreateOwner(r.Context(), req.Name, req.Email, hash)
	if err != nil {
		s.writeRepoError(w, err)
		return
	}

	token, expires, err := s.issuer.Issue(owner.ID, auth.RoleOwner, owner.Name)
	if err != nil {
		s.logger.Error("issue token", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"token":      token,
		"expires_at": expires,
		"owner":      toOwnerView(owner),
	})
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (s *Server) handleOwnerLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))

	owner, err := s.store.GetOwnerByEmail(r.Context(), req.Email)
	if err != nil || !auth.CheckPassword(owner.PasswordHash, req.Password) {
		writeError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}

	token, expires, err := s.issuer.Issue(owner.ID, auth.RoleOwner, owner.Name)
	if err != nil {
		s.logger.Error("issue token", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"token":      token,
		"expires_at": expires,
		"owner":      toOwnerView(owner),
	})
}

// handleLogout denylists the presented token until its natural expiry.
// Shared by both surfaces; the role middleware has already validated the
// claims.
func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	claims := auth.ClaimsFromContext(r.Context())
	if claims == nil {
		writeError(w, http.StatusUnauthorized, "missing token")
		return
	}
	ttl := s.issuer.RemainingTTL(claims)
	if err := s.redis.RevokeToken(r.Context(), claims.ID, ttl); err != nil {
		s.logger.Error("revoke token", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "logged out"})
}

func (s *Server) handleOwnerMe(w http.ResponseWriter, r *http.Request) {
	claims := auth.ClaimsFromContext(r.Context())

	owner, err := s.store.GetOwnerByID(r.Context(), claims.Subject)
	if err != nil {
		s.writeRepoError(w, err)
		return
	}
	stats, err := s.store.GetOwnerStats(r.Context(), owner.ID)
	if err != nil {
		s.writeRepoError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"owner":          toOwnerView(owner),
		"rooms_count":    stats.RoomsCount,
		"active_tenants": stats.ActiveTenantsCount,
	})
}

type tenantLoginRequest struct {
	WhatsAppNumber string `json:"whatsapp_number"`
	Password       string `json:"password"`
}

func (s *Server) handleTenantLogin(w http.ResponseWriter, r *http.Request) {
	var req tenantLoginRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	digits := wa.NormalizeNumber(req.WhatsAppNumber)
	if digits == "" {
		writeError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}

	tenant, err := s.store.GetTenantByWhatsApp(r.Context(), digits)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}
	if tenant.Status != repo.TenantActive {
		writeError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}

	hash, err := s.store.PasswordHashForTenant(r.Context(), tenant.ID)
	if err != nil || hash == "" || !auth.CheckPassword(hash, req.Password) {
		writeError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}

	token, expires, err := s.issuer.Issue(tenant.ID, auth.RoleTenant, tenant.Name)
	if err != nil {
		s.logger.Error("issue token", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"token":      token,
		"expires_at": expires,
		"tenant":     toTenantView(tenant),
	})
}

func (s *Server) handleTenantMe(w http.ResponseWriter, r *http.Request) {
	claims := auth.ClaimsFromContext(r.Context())

	tenant, err := s.store.GetTenantByID(r.Context(), claims.Subject)
	if err != nil {
		s.writeRepoError(w, err)
		return
	}
	payments, err := s.store.ListPaymentsForTenant(r.Context(), tenant.ID)
	if err != nil {
		s.writeRepoError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"tenant":   toTenantView(tenant),
		"payments": toPaymentViews(payments),
	})
}

// handleTenantMeters lists the meters on the tenant's own room.
func (s *Server) handleTenantMeters(w http.ResponseWriter, r *http.Request) {
	claims := auth.ClaimsFromContext(r.Context())

	tenant, err := s.store.GetTenantByID(r.Context(), claims.Subject)
	if err != nil {
		s.writeRepoError(w, err)
		return
	}
	meters, err := s.store.ListMetersForRoom(r.Context(), tenant.RoomID)
	if err != nil {
		s.writeRepoError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"meters": toMeterViews(meters)})
}
