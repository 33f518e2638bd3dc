// Package portaltest hosts an in-memory double of the portal API for tests
// and local development. It emits the same response envelopes as the real
// server and enforces server-authoritative change-request transitions.
package portaltest

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/pkg/errors"

	"github.com/utilibill/portal-sdk/modules/billing"
	"github.com/utilibill/portal-sdk/modules/changerequest"
	"github.com/utilibill/portal-sdk/modules/outage"
	"github.com/utilibill/portal-sdk/modules/vendor"
)

type Server struct {
	mu  sync.Mutex
	srv *httptest.Server
	now func() time.Time

	accessToken  string
	refreshToken string

	autoApprove bool

	nextID         int64
	changeRequests []*changerequest.ChangeRequest
	vendors        []*vendor.Vendor
	jobs           []*billing.BillingJob
	bills          []*billing.PostpaidBill
	outages        []*outage.Outage
}

func New() *Server {
	s := &Server{
		now:          time.Now,
		accessToken:  "test-access-token",
		refreshToken: "test-refresh-token",
	}

	r := mux.NewRouter()
	r.HandleFunc("/auth/refresh", s.handleRefresh).Methods(http.MethodPost)

	api := r.NewRoute().Subrouter()
	api.Use(s.requireBearer)

	api.HandleFunc("/change-requests", s.handleListChangeRequests).Methods(http.MethodGet)
	api.HandleFunc("/change-requests/{identifier}", s.handleGetChangeRequest).Methods(http.MethodGet)
	api.HandleFunc("/change-requests/{publicId}/approve", s.handleApprove).Methods(http.MethodPost)
	api.HandleFunc("/change-requests/{publicId}/decline", s.handleDecline).Methods(http.MethodPost)

	api.HandleFunc("/vendors/{id}/change-requests", s.handleSubmitChangeRequest(changerequest.EntityTypeVendor)).Methods(http.MethodPost)
	api.HandleFunc("/vendors/{id}/change-requests", s.handleListEntityChangeRequests(changerequest.EntityTypeVendor)).Methods(http.MethodGet)
	api.HandleFunc("/billing-jobs/{id}/change-requests", s.handleSubmitChangeRequest(changerequest.EntityTypeBillingJob)).Methods(http.MethodPost)
	api.HandleFunc("/billing-jobs/{id}/change-requests", s.handleListEntityChangeRequests(changerequest.EntityTypeBillingJob)).Methods(http.MethodGet)

	api.HandleFunc("/billing-jobs", s.handleCreateBillingJob).Methods(http.MethodPost)
	api.HandleFunc("/billing-jobs", s.handleListBillingJobs).Methods(http.MethodGet)
	api.HandleFunc("/billing-jobs/{id}", s.handleGetBillingJob).Methods(http.MethodGet)

	api.HandleFunc("/finalize", s.handleFinalize).Methods(http.MethodPost)
	api.HandleFunc("/finalize/area-office/{areaOfficeId}", s.handleFinalizeAreaOffice).Methods(http.MethodPost)

	api.HandleFunc("/bills", s.handleListBills).Methods(http.MethodGet)
	api.HandleFunc("/bills", s.handleCreateManualBill).Methods(http.MethodPost)
	api.HandleFunc("/bills/{id}", s.handleGetBill).Methods(http.MethodGet)
	api.HandleFunc("/meter-readings", s.handleCreateMeterReading).Methods(http.MethodPost)

	api.HandleFunc("/vendors", s.handleListVendors).Methods(http.MethodGet)
	api.HandleFunc("/vendors", s.handleCreateVendor).Methods(http.MethodPost)
	api.HandleFunc("/vendors/bulk", s.handleBulkCreateVendors).Methods(http.MethodPost)
	api.HandleFunc("/vendors/{id}", s.handleGetVendor).Methods(http.MethodGet)

	api.HandleFunc("/outages", s.handleListOutages).Methods(http.MethodGet)
	api.HandleFunc("/outages", s.handleReportOutage).Methods(http.MethodPost)
	api.HandleFunc("/outages/{id}", s.handleGetOutage).Methods(http.MethodGet)

	s.srv = httptest.NewServer(r)
	return s
}

func (s *Server) URL() string { return s.srv.URL }

func (s *Server) Close() { s.srv.Close() }

// Tokens returns the access and refresh tokens the server currently accepts.
func (s *Server) Tokens() (access, refresh string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.accessToken, s.refreshToken
}

// ExpireAccessToken rotates the accepted access token so that clients holding
// the previous one receive a 401 and must refresh.
func (s *Server) ExpireAccessToken() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.accessToken = "rotated-" + uuid.NewString()
}

// SetAutoApprove makes subsequent change-request submissions resolve
// immediately as auto-approved.
func (s *Server) SetAutoApprove(on bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.autoApprove = on
}

// SetClock overrides the server clock for deterministic timestamps.
func (s *Server) SetClock(now func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
}

func (s *Server) requireBearer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		expected := "Bearer " + s.accessToken
		s.mu.Unlock()
		if r.Header.Get("Authorization") != expected {
			writeFailure(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	var body struct {
		RefreshToken string `json:"refreshToken"`
	}
	if err := decodeBody(r, &body); err != nil {
		writeFailure(w, http.StatusBadRequest, err.Error())
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if body.RefreshToken != s.refreshToken {
		writeFailure(w, http.StatusUnauthorized, "invalid refresh token")
		return
	}
	s.accessToken = "access-" + uuid.NewString()
	writeOK(w, "", map[string]string{
		"accessToken":  s.accessToken,
		"refreshToken": s.refreshToken,
	})
}

func (s *Server) allocID() int64 {
	s.nextID++
	return s.nextID
}

func decodeBody(r *http.Request, out any) error {
	if err := json.NewDecoder(r.Body).Decode(out); err != nil {
		return errors.Wrap(err, "decode request body")
	}
	return nil
}

func pathID(r *http.Request, name string) (int64, bool) {
	raw, ok := mux.Vars(r)[name]
	if !ok {
		return 0, false
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

func queryInt(r *http.Request, name string) int {
	n, _ := strconv.Atoi(r.URL.Query().Get(name))
	return n
}
