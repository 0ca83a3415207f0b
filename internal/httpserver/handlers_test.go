package httpserver

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"indekost/internal/auth"
	"indekost/internal/repo"
	"indekost/internal/storage"
)

// fakeStore implements the slices of repo.Store the tests exercise.
// Untouched methods panic through the embedded nil interface.
type fakeStore struct {
	repo.Store

	getRoom            func(ctx context.Context, ownerID, roomID string) (*repo.Room, error)
	listRooms          func(ctx context.Context, ownerID string, filter repo.RoomFilter) ([]repo.Room, error)
	deleteRoom         func(ctx context.Context, ownerID, roomID string) error
	getTenantByID      func(ctx context.Context, tenantID string) (*repo.Tenant, error)
	getPayment         func(ctx context.Context, ownerID, paymentID string) (*repo.Payment, error)
	rejectPayment      func(ctx context.Context, ownerID, paymentID string) (*repo.Payment, error)
	upsertPaymentProof func(ctx context.Context, tenantID, period, proofPath string) (*repo.Payment, error)
	getTicketForOwner  func(ctx context.Context, ownerID, ticketID string) (*repo.Ticket, error)
	deleteTicket       func(ctx context.Context, ownerID, ticketID string) error
}

func (f *fakeStore) GetRoom(ctx context.Context, ownerID, roomID string) (*repo.Room, error) {
	return f.getRoom(ctx, ownerID, roomID)
}

func (f *fakeStore) ListRooms(ctx context.Context, ownerID string, filter repo.RoomFilter) ([]repo.Room, error) {
	return f.listRooms(ctx, ownerID, filter)
}

func (f *fakeStore) DeleteRoom(ctx context.Context, ownerID, roomID string) error {
	return f.deleteRoom(ctx, ownerID, roomID)
}

func (f *fakeStore) GetTenantByID(ctx context.Context, tenantID string) (*repo.Tenant, error) {
	return f.getTenantByID(ctx, tenantID)
}

func (f *fakeStore) GetPayment(ctx context.Context, ownerID, paymentID string) (*repo.Payment, error) {
	return f.getPayment(ctx, ownerID, paymentID)
}

func (f *fakeStore) RejectPayment(ctx context.Context, ownerID, paymentID string) (*repo.Payment, error) {
	return f.rejectPayment(ctx, ownerID, paymentID)
}

func (f *fakeStore) UpsertPaymentProof(ctx context.Context, tenantID, period, proofPath string) (*repo.Payment, error) {
	return f.upsertPaymentProof(ctx, tenantID, period, proofPath)
}

func (f *fakeStore) GetTicketForOwner(ctx context.Context, ownerID, ticketID string) (*repo.Ticket, error) {
	return f.getTicketForOwner(ctx, ownerID, ticketID)
}

func (f *fakeStore) DeleteTicket(ctx context.Context, ownerID, ticketID string) error {
	return f.deleteTicket(ctx, ownerID, ticketID)
}

type fakeObjects struct {
	putKeys    []string
	deleteKeys []string
	putErr     error
}

func (f *fakeObjects) Put(ctx context.Context, key string, content io.Reader, contentType string) error {
	if f.putErr != nil {
		return f.putErr
	}
	f.putKeys = append(f.putKeys, key)
	return nil
}

func (f *fakeObjects) Get(ctx context.Context, key string) (io.ReadCloser, string, error) {
	return nil, "", storage.ErrObjectNotFound
}

func (f *fakeObjects) Delete(ctx context.Context, key string) error {
	f.deleteKeys = append(f.deleteKeys, key)
	return nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestServer(t *testing.T, store repo.Store, objects storage.ObjectStore) (*Server, *auth.TokenIssuer) {
	t.Helper()
	issuer := auth.NewTokenIssuer("test-secret", time.Hour)
	srv := New(Config{ListenAddr: ":0"}, Dependencies{
		Store:   store,
		Objects: objects,
		Issuer:  issuer,
		AuthMW:  auth.NewMiddleware(issuer, nil),
	}, testLogger(), nil)
	return srv, issuer
}

func ownerToken(t *testing.T, issuer *auth.TokenIssuer, ownerID string) string {
	t.Helper()
	token, _, err := issuer.Issue(ownerID, auth.RoleOwner, "")
	require.NoError(t, err)
	return token
}

func TestRoomGetMasksCrossOwnerAccess(t *testing.T) {
	store := &fakeStore{
		getRoom: func(ctx context.Context, ownerID, roomID string) (*repo.Room, error) {
			// The row exists but belongs to another owner; the repository
			// already answers not-found for that case.
			return nil, repo.ErrNotFound
		},
	}
	srv, issuer := newTestServer(t, store, &fakeObjects{})

	req := httptest.NewRequest(http.MethodGet, "/api/rooms/room-1", nil)
	req.Header.Set("Authorization", "Bearer "+ownerToken(t, issuer, "owner-a"))
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRoomDeleteWithActiveTenantConflicts(t *testing.T) {
	store := &fakeStore{
		deleteRoom: func(ctx context.Context, ownerID, roomID string) error {
			return fmt.Errorf("room has an active tenant: %w", repo.ErrConflict)
		},
	}
	srv, issuer := newTestServer(t, store, &fakeObjects{})

	req := httptest.NewRequest(http.MethodDelete, "/api/rooms/room-1", nil)
	req.Header.Set("Authorization", "Bearer "+ownerToken(t, issuer, "owner-a"))
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, rec.Body.String(), "active tenant")
}

func TestOwnerRoutesRequireToken(t *testing.T) {
	srv, _ := newTestServer(t, &fakeStore{}, &fakeObjects{})

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/rooms", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestTenantSurfaceRejectsOwnerToken(t *testing.T) {
	srv, issuer := newTestServer(t, &fakeStore{}, &fakeObjects{})

	req := httptest.NewRequest(http.MethodGet, "/api/tenant/me", nil)
	req.Header.Set("Authorization", "Bearer "+ownerToken(t, issuer, "owner-a"))
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestHostMiddleware(t *testing.T) {
	issuer := auth.NewTokenIssuer("test-secret", time.Hour)
	srv := New(Config{
		ListenAddr: ":0",
		APIHost:    "api.kost.example",
		OwnerHost:  "owner.kost.example",
		TenantHost: "tenant.kost.example",
	}, Dependencies{
		Store: &fakeStore{
			listRooms: func(ctx context.Context, ownerID string, filter repo.RoomFilter) ([]repo.Room, error) {
				return nil, nil
			},
		},
		Issuer: issuer,
		AuthMW: auth.NewMiddleware(issuer, nil),
	}, testLogger(), nil)

	req := httptest.NewRequest(http.MethodGet, "/api/rooms", nil)
	req.Host = "tenant.kost.example"
	req.Header.Set("Authorization", "Bearer "+ownerToken(t, issuer, "owner-a"))
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	req = httptest.NewRequest(http.MethodGet, "/api/rooms", nil)
	req.Host = "owner.kost.example"
	req.Header.Set("Authorization", "Bearer "+ownerToken(t, issuer, "owner-a"))
	rec = httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)

	// The shared API host is accepted on every surface.
	req = httptest.NewRequest(http.MethodGet, "/api/rooms", nil)
	req.Host = "api.kost.example"
	req.Header.Set("Authorization", "Bearer "+ownerToken(t, issuer, "owner-a"))
	rec = httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func strptr(s string) *string { return &s }

func TestPaymentRejectDeletesProof(t *testing.T) {
	objects := &fakeObjects{}
	store := &fakeStore{
		getPayment: func(ctx context.Context, ownerID, paymentID string) (*repo.Payment, error) {
			return &repo.Payment{ID: paymentID, ProofOfPayment: strptr("proofs/abc.png"), Status: repo.PaymentPending}, nil
		},
		rejectPayment: func(ctx context.Context, ownerID, paymentID string) (*repo.Payment, error) {
			return &repo.Payment{ID: paymentID, Status: repo.PaymentRejected}, nil
		},
	}
	srv, issuer := newTestServer(t, store, objects)

	req := httptest.NewRequest(http.MethodPost, "/api/payments/pay-1/reject", nil)
	req.Header.Set("Authorization", "Bearer "+ownerToken(t, issuer, "owner-a"))
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []string{"proofs/abc.png"}, objects.deleteKeys)
}

func TestPaymentRejectWithoutProofSkipsDelete(t *testing.T) {
	objects := &fakeObjects{}
	store := &fakeStore{
		getPayment: func(ctx context.Context, ownerID, paymentID string) (*repo.Payment, error) {
			return &repo.Payment{ID: paymentID, Status: repo.PaymentRejected}, nil
		},
		rejectPayment: func(ctx context.Context, ownerID, paymentID string) (*repo.Payment, error) {
			return &repo.Payment{ID: paymentID, Status: repo.PaymentRejected}, nil
		},
	}
	srv, issuer := newTestServer(t, store, objects)

	req := httptest.NewRequest(http.MethodPost, "/api/payments/pay-1/reject", nil)
	req.Header.Set("Authorization", "Bearer "+ownerToken(t, issuer, "owner-a"))
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, objects.deleteKeys)
}

func multipartProof(t *testing.T, filename string, size int, fields map[string]string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	fw, err := mw.CreateFormFile("proof", filename)
	require.NoError(t, err)
	_, err = fw.Write(bytes.Repeat([]byte{0xFF}, size))
	require.NoError(t, err)
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

func TestUploadProof(t *testing.T) {
	objects := &fakeObjects{}
	var gotTenant, gotPeriod, gotPath string
	store := &fakeStore{
		getTenantByID: func(ctx context.Context, tenantID string) (*repo.Tenant, error) {
			return &repo.Tenant{ID: tenantID, Status: repo.TenantActive}, nil
		},
		upsertPaymentProof: func(ctx context.Context, tenantID, period, proofPath string) (*repo.Payment, error) {
			gotTenant, gotPeriod, gotPath = tenantID, period, proofPath
			return &repo.Payment{ID: "pay-1", TenantID: tenantID, Period: period,
				ProofOfPayment: &proofPath, Status: repo.PaymentPending}, nil
		},
	}
	srv, _ := newTestServer(t, store, objects)

	body, contentType := multipartProof(t, "bukti.png", 1024, map[string]string{
		"tenant_id": "tenant-1",
		"period":    "2026-08",
	})
	req := httptest.NewRequest(http.MethodPost, "/api/payments/upload-proof", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Equal(t, "tenant-1", gotTenant)
	assert.Equal(t, "2026-08", gotPeriod)
	require.Len(t, objects.putKeys, 1)
	assert.Equal(t, objects.putKeys[0], gotPath)

	var resp map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "pending", resp["status"])
}

func TestUploadProofRejectsBadExtension(t *testing.T) {
	objects := &fakeObjects{}
	srv, _ := newTestServer(t, &fakeStore{}, objects)

	body, contentType := multipartProof(t, "malware.exe", 128, map[string]string{
		"tenant_id": "tenant-1",
		"period":    "2026-08",
	})
	req := httptest.NewRequest(http.MethodPost, "/api/payments/upload-proof", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Empty(t, objects.putKeys)
}

func TestUploadProofRequiresPeriod(t *testing.T) {
	srv, _ := newTestServer(t, &fakeStore{}, &fakeObjects{})

	body, contentType := multipartProof(t, "bukti.jpg", 128, map[string]string{
		"tenant_id": "tenant-1",
		"period":    "agustus",
	})
	req := httptest.NewRequest(http.MethodPost, "/api/payments/upload-proof", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestUploadProofRejectsOversizeFile(t *testing.T) {
	objects := &fakeObjects{}
	srv, _ := newTestServer(t, &fakeStore{}, objects)

	body, contentType := multipartProof(t, "bukti.png", maxProofBytes+1, map[string]string{
		"tenant_id": "tenant-1",
		"period":    "2026-08",
	})
	req := httptest.NewRequest(http.MethodPost, "/api/payments/upload-proof", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Empty(t, objects.putKeys)
}

func TestUploadProofUnknownTenant(t *testing.T) {
	store := &fakeStore{
		getTenantByID: func(ctx context.Context, tenantID string) (*repo.Tenant, error) {
			return nil, repo.ErrNotFound
		},
	}
	srv, _ := newTestServer(t, store, &fakeObjects{})

	body, contentType := multipartProof(t, "bukti.pdf", 128, map[string]string{
		"tenant_id": "ghost",
		"period":    "2026-08",
	})
	req := httptest.NewRequest(http.MethodPost, "/api/payments/upload-proof", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestTicketDeleteRemovesPhoto(t *testing.T) {
	objects := &fakeObjects{}
	var deletedRow string
	store := &fakeStore{
		getTicketForOwner: func(ctx context.Context, ownerID, ticketID string) (*repo.Ticket, error) {
			return &repo.Ticket{ID: ticketID, PhotoPath: strptr("tickets/abc_1.jpg")}, nil
		},
		deleteTicket: func(ctx context.Context, ownerID, ticketID string) error {
			deletedRow = ticketID
			return nil
		},
	}
	srv, issuer := newTestServer(t, store, objects)

	req := httptest.NewRequest(http.MethodDelete, "/api/tickets/tk1", nil)
	req.Header.Set("Authorization", "Bearer "+ownerToken(t, issuer, "owner-a"))
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "tk1", deletedRow)
	assert.Equal(t, []string{"tickets/abc_1.jpg"}, objects.deleteKeys)
}

func TestTicketDeleteWithoutPhotoSkipsObjectDelete(t *testing.T) {
	objects := &fakeObjects{}
	store := &fakeStore{
		getTicketForOwner: func(ctx context.Context, ownerID, ticketID string) (*repo.Ticket, error) {
			return &repo.Ticket{ID: ticketID}, nil
		},
		deleteTicket: func(ctx context.Context, ownerID, ticketID string) error {
			return nil
		},
	}
	srv, issuer := newTestServer(t, store, objects)

	req := httptest.NewRequest(http.MethodDelete, "/api/tickets/tk1", nil)
	req.Header.Set("Authorization", "Bearer "+ownerToken(t, issuer, "owner-a"))
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, objects.deleteKeys)
}

func TestTicketDeleteMasksCrossOwnerAccess(t *testing.T) {
	objects := &fakeObjects{}
	store := &fakeStore{
		getTicketForOwner: func(ctx context.Context, ownerID, ticketID string) (*repo.Ticket, error) {
			return nil, repo.ErrNotFound
		},
	}
	srv, issuer := newTestServer(t, store, objects)

	req := httptest.NewRequest(http.MethodDelete, "/api/tickets/tk1", nil)
	req.Header.Set("Authorization", "Bearer "+ownerToken(t, issuer, "owner-a"))
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Empty(t, objects.deleteKeys)
}

func TestStorageProxyMissingBlob(t *testing.T) {
	srv, _ := newTestServer(t, &fakeStore{}, &fakeObjects{})

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/storage/proofs/missing.png", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
