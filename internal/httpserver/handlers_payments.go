package httpserver

import (
	"errors"
	"io"
	"net/http"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/go-chi/chi/v5"

	"indekost/internal/auth"
	"indekost/internal/repo"
	"indekost/internal/storage"
)

// maxProofBytes caps the uploaded proof file size.
const maxProofBytes = 2 << 20

var periodPattern = regexp.MustCompile(`^[0-9]{4}-[0-9]{2}$`)

var proofContentTypes = map[string]string{
	"jpg":  "image/jpeg",
	"jpeg": "image/jpeg",
	"png":  "image/png",
	"pdf":  "application/pdf",
}

// handleUploadProof accepts a multipart proof-of-payment upload on the
// public surface. The link sent with the billing message carries
// tenant_id and period; re-uploading for the same period replaces the
// previous proof and resets the payment to pending.
func (s *Server) handleUploadProof(w http.ResponseWriter, r *http.Request) {
	// Allow some slack over the file cap for the multipart framing.
	r.Body = http.MaxBytesReader(w, r.Body, maxProofBytes+(512<<10))
	if err := r.ParseMultipartForm(maxProofBytes); err != nil {
		writeError(w, http.StatusUnprocessableEntity, "invalid multipart form or file too large (max 2MB)")
		return
	}

	tenantID := r.FormValue("tenant_id")
	if tenantID == "" {
		tenantID = r.URL.Query().Get("tenant_id")
	}
	period := r.FormValue("period")
	if period == "" {
		period = r.URL.Query().Get("period")
	}
	if tenantID == "" || !periodPattern.MatchString(period) {
		writeError(w, http.StatusUnprocessableEntity, "tenant_id and period (YYYY-MM) are required")
		return
	}

	file, header, err := r.FormFile("proof")
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, "proof file is required")
		return
	}
	defer file.Close()

	if header.Size > maxProofBytes {
		writeError(w, http.StatusUnprocessableEntity, "proof file too large (max 2MB)")
		return
	}
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(header.Filename), "."))
	contentType, ok := proofContentTypes[ext]
	if !ok {
		writeError(w, http.StatusUnprocessableEntity, "proof must be jpg, jpeg, png or pdf")
		return
	}

	if _, err := s.store.GetTenantByID(r.Context(), tenantID); err != nil {
		s.writeRepoError(w, err)
		return
	}

	key := storage.ObjectKey("proofs", ext)
	if err := s.objects.Put(r.Context(), key, io.LimitReader(file, maxProofBytes), contentType); err != nil {
		s.logger.Error("store proof object", "error", err)
		s.countError("storage")
		writeError(w, http.StatusInternalServerError, "failed to store proof")
		return
	}

	payment, err := s.store.UpsertPaymentProof(r.Context(), tenantID, period, key)
	if err != nil {
		// Best effort: do not leave an orphan blob behind.
		if delErr := s.objects.Delete(r.Context(), key); delErr != nil {
			s.logger.Warn("cleanup orphan proof object", "key", key, "error", delErr)
		}
		s.writeRepoError(w, err)
		return
	}

	s.logger.Info("payment proof uploaded",
		"payment_id", payment.ID, "tenant_id", tenantID, "period", period)
	writeJSON(w, http.StatusCreated, toPaymentView(payment))
}

func (s *Server) handlePaymentList(w http.ResponseWriter, r *http.Request) {
	ownerID := auth.ClaimsFromContext(r.Context()).Subject

	var filter repo.PaymentFilter
	if v := r.URL.Query().Get("status"); v != "" {
		switch repo.PaymentStatus(v) {
		case repo.PaymentPending, repo.PaymentVerified, repo.PaymentRejected:
			status := repo.PaymentStatus(v)
			filter.Status = &status
		default:
			writeError(w, http.StatusUnprocessableEntity, "unknown payment status")
			return
		}
	}
	filter.TenantID = r.URL.Query().Get("tenant_id")
	if v := r.URL.Query().Get("period"); v != "" {
		if !periodPattern.MatchString(v) {
			writeError(w, http.StatusUnprocessableEntity, "period must be YYYY-MM")
			return
		}
		filter.Period = v
	}

	payments, err := s.store.ListPayments(r.Context(), ownerID, filter)
	if err != nil {
		s.writeRepoError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"payments": toPaymentViews(payments)})
}

func (s *Server) handlePaymentGet(w http.ResponseWriter, r *http.Request) {
	ownerID := auth.ClaimsFromContext(r.Context()).Subject

	payment, err := s.store.GetPayment(r.Context(), ownerID, chi.URLParam(r, "id"))
	if err != nil {
		s.writeRepoError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toPaymentView(payment))
}

func (s *Server) handlePaymentVerify(w http.ResponseWriter, r *http.Request) {
	ownerID := auth.ClaimsFromContext(r.Context()).Subject

	payment, err := s.store.VerifyPayment(r.Context(), ownerID, chi.URLParam(r, "id"))
	if err != nil {
		s.writeRepoError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toPaymentView(payment))
}

// handlePaymentReject deletes the stored proof before the status flips to
// rejected. The ownership check happens on the read; a payment that never
// had a proof (or was already rejected) skips the object delete.
func (s *Server) handlePaymentReject(w http.ResponseWriter, r *http.Request) {
	ownerID := auth.ClaimsFromContext(r.Context()).Subject
	paymentID := chi.URLParam(r, "id")

	payment, err := s.store.GetPayment(r.Context(), ownerID, paymentID)
	if err != nil {
		s.writeRepoError(w, err)
		return
	}

	if payment.ProofOfPayment != nil && *payment.ProofOfPayment != "" {
		err := s.objects.Delete(r.Context(), *payment.ProofOfPayment)
		if err != nil && !errors.Is(err, storage.ErrObjectNotFound) {
			s.logger.Error("delete proof object", "key", *payment.ProofOfPayment, "error", err)
			s.countError("storage")
			writeError(w, http.StatusInternalServerError, "failed to delete proof")
			return
		}
	}

	rejected, err := s.store.RejectPayment(r.Context(), ownerID, paymentID)
	if err != nil {
		s.writeRepoError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toPaymentView(rejected))
}
