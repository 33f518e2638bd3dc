package changerequest_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/utilibill/portal-sdk/modules/changerequest"
	"github.com/utilibill/portal-sdk/modules/vendor"
	"github.com/utilibill/portal-sdk/pkg/portalhttp"
	"github.com/utilibill/portal-sdk/pkg/portaltest"
)

func newStore(t *testing.T, srv *portaltest.Server) *changerequest.Store {
	t.Helper()
	access, refresh := srv.Tokens()
	api, err := portalhttp.NewClient(portalhttp.Options{
		BaseURL:      srv.URL(),
		AccessToken:  access,
		RefreshToken: refresh,
	})
	require.NoError(t, err)
	return changerequest.NewStore(changerequest.NewClient(api), nil, nil)
}

func seedVendor(srv *portaltest.Server) vendor.Vendor {
	return srv.SeedVendor(vendor.Vendor{ID: 42, Name: "Acme Vending", Code: "ACM"})
}

func submitCommissionChange(t *testing.T, s *changerequest.Store, vendorID int64) *changerequest.ChangeRequest {
	t.Helper()
	cr, err := s.Submit(context.Background(), changerequest.EntityTypeVendor, vendorID, changerequest.SubmitParams{
		Changes: []changerequest.Change{{Path: "commission", Value: "0.05"}},
		Comment: "rate adjustment",
	})
	require.NoError(t, err)
	require.NotNil(t, cr)
	return cr
}

func TestSubmit_YieldsPendingChangeRequest(t *testing.T) {
	srv := portaltest.New()
	defer srv.Close()
	seedVendor(srv)
	s := newStore(t, srv)

	cr := submitCommissionChange(t, s, 42)

	require.Equal(t, changerequest.StatusPending, cr.Status)
	require.Equal(t, int64(42), cr.EntityID)
	require.Equal(t, changerequest.EntityTypeVendor, cr.EntityType)
	require.NotEmpty(t, cr.PublicID)
	require.NotEmpty(t, cr.Reference)
	require.Empty(t, cr.ApprovalNotes)
	require.Empty(t, cr.DeclinedReason)
	require.True(t, s.SubmitState().Success)
}

func TestSubmit_EmptyChangesRejectedLocally(t *testing.T) {
	srv := portaltest.New()
	defer srv.Close()
	seedVendor(srv)
	s := newStore(t, srv)

	_, err := s.Submit(context.Background(), changerequest.EntityTypeVendor, 42, changerequest.SubmitParams{
		Comment: "nothing to change",
	})
	require.Error(t, err)
}

func TestSubmit_PreconditionFailureSurfacesServerMessage(t *testing.T) {
	srv := portaltest.New()
	defer srv.Close()
	seedVendor(srv)
	s := newStore(t, srv)

	_, err := s.Submit(context.Background(), changerequest.EntityTypeVendor, 42, changerequest.SubmitParams{
		Changes:       []changerequest.Change{{Path: "commission", Value: "0.05"}},
		Comment:       "rate adjustment",
		Preconditions: map[string]string{"commission": "0.04"},
	})
	require.Error(t, err)
	require.True(t, portalhttp.IsAPIError(err))
	require.Contains(t, s.SubmitState().Error, "precondition failed for commission")
}

func TestSubmit_EntityNotFound(t *testing.T) {
	srv := portaltest.New()
	defer srv.Close()
	s := newStore(t, srv)

	_, err := s.Submit(context.Background(), changerequest.EntityTypeVendor, 999, changerequest.SubmitParams{
		Changes: []changerequest.Change{{Path: "commission", Value: "0.05"}},
	})
	require.Error(t, err)
	require.Equal(t, "entity not found", s.SubmitState().Error)
}

func TestSubmit_AutoApprovedArrivesResolved(t *testing.T) {
	srv := portaltest.New()
	defer srv.Close()
	seedVendor(srv)
	srv.SetAutoApprove(true)
	s := newStore(t, srv)

	cr := submitCommissionChange(t, s, 42)
	require.Equal(t, changerequest.StatusApproved, cr.Status)
	require.True(t, cr.AutoApproved)
	require.NotNil(t, cr.ApprovedAtUtc)
}

func TestApprove_PatchesAllThreeCaches(t *testing.T) {
	srv := portaltest.New()
	defer srv.Close()
	seedVendor(srv)
	s := newStore(t, srv)

	cr := submitCommissionChange(t, s, 42)
	ctx := context.Background()

	require.NoError(t, s.Fetch(ctx, changerequest.ListQuery{}))
	require.NoError(t, s.FetchForEntity(ctx, changerequest.EntityTypeVendor, 42, changerequest.ListQuery{}))
	require.NoError(t, s.FetchDetails(ctx, cr.PublicID))

	require.NoError(t, s.Approve(ctx, cr.PublicID, "ok"))

	list, _, op := s.List()
	require.True(t, op.Success)
	require.Len(t, list, 1)
	require.Equal(t, changerequest.StatusApproved, list[0].Status)
	require.Equal(t, "ok", list[0].ApprovalNotes)
	require.NotNil(t, list[0].ApprovedAtUtc)
	require.Empty(t, list[0].DeclinedReason, "approval and decline fields are mutually exclusive")

	scoped, _, _ := s.EntityList(changerequest.EntityTypeVendor, 42)
	require.Len(t, scoped, 1)
	require.Equal(t, changerequest.StatusApproved, scoped[0].Status)
	require.Equal(t, "ok", scoped[0].ApprovalNotes)

	details, _ := s.Details()
	require.NotNil(t, details)
	require.Equal(t, changerequest.StatusApproved, details.Status)
	require.Equal(t, "ok", details.ApprovalNotes)
}

func TestDecline_SetsReasonAndLeavesApprovalUnset(t *testing.T) {
	srv := portaltest.New()
	defer srv.Close()
	seedVendor(srv)
	s := newStore(t, srv)

	cr := submitCommissionChange(t, s, 42)
	ctx := context.Background()
	require.NoError(t, s.Fetch(ctx, changerequest.ListQuery{}))

	require.NoError(t, s.Decline(ctx, cr.PublicID, "rate out of policy"))

	list, _, _ := s.List()
	require.Len(t, list, 1)
	require.Equal(t, changerequest.StatusDeclined, list[0].Status)
	require.Equal(t, "rate out of policy", list[0].DeclinedReason)
	require.Empty(t, list[0].ApprovalNotes)
	require.Nil(t, list[0].ApprovedAtUtc)
	require.Empty(t, list[0].ApprovedBy)
}

func TestDecline_RequiresReason(t *testing.T) {
	srv := portaltest.New()
	defer srv.Close()
	seedVendor(srv)
	s := newStore(t, srv)

	cr := submitCommissionChange(t, s, 42)
	err := s.Decline(context.Background(), cr.PublicID, "")
	require.Error(t, err)
}

func TestResolve_UnknownCachedPublicIDIsNoOp(t *testing.T) {
	srv := portaltest.New()
	defer srv.Close()
	seedVendor(srv)
	s := newStore(t, srv)

	cached := submitCommissionChange(t, s, 42)
	other := srv.SeedChangeRequest(changerequest.ChangeRequest{
		Status:     changerequest.StatusPending,
		EntityType: changerequest.EntityTypeVendor,
		EntityID:   42,
	})

	ctx := context.Background()
	require.NoError(t, s.Fetch(ctx, changerequest.ListQuery{PublicID: cached.PublicID}))
	require.NoError(t, s.FetchDetails(ctx, cached.PublicID))

	// Resolve a request the caches have never seen.
	require.NoError(t, s.Approve(ctx, other.PublicID, ""))

	list, _, _ := s.List()
	require.Len(t, list, 1)
	require.Equal(t, changerequest.StatusPending, list[0].Status)

	details, _ := s.Details()
	require.NotNil(t, details)
	require.Equal(t, changerequest.StatusPending, details.Status)
}

func TestResolve_FailureLeavesCachesUntouched(t *testing.T) {
	srv := portaltest.New()
	defer srv.Close()
	seedVendor(srv)
	s := newStore(t, srv)

	cr := submitCommissionChange(t, s, 42)
	ctx := context.Background()
	require.NoError(t, s.Fetch(ctx, changerequest.ListQuery{}))

	require.NoError(t, s.Approve(ctx, cr.PublicID, "ok"))

	// A second resolution is rejected server-side; the caches keep the first
	// resolution untouched.
	err := s.Decline(ctx, cr.PublicID, "changed my mind")
	require.Error(t, err)
	require.True(t, portalhttp.IsAPIError(err))
	require.Equal(t, "change request already resolved", s.ResolveState().Error)

	list, _, _ := s.List()
	require.Len(t, list, 1)
	require.Equal(t, changerequest.StatusApproved, list[0].Status)
	require.Equal(t, "ok", list[0].ApprovalNotes)
	require.Empty(t, list[0].DeclinedReason)
}

func TestResolve_SecondCallWhileFirstPendingIsRejected(t *testing.T) {
	release := make(chan struct{})
	started := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		close(started)
		<-release
		_ = json.NewEncoder(w).Encode(map[string]any{
			"isSuccess": true,
			"message":   "Change request approved",
			"data": map[string]any{
				"publicId": "cr-slow",
				"status":   1,
			},
		})
	}))
	defer srv.Close()

	api, err := portalhttp.NewClient(portalhttp.Options{BaseURL: srv.URL})
	require.NoError(t, err)
	s := changerequest.NewStore(changerequest.NewClient(api), nil, nil)

	done := make(chan error, 1)
	go func() {
		done <- s.Approve(context.Background(), "cr-slow", "first")
	}()

	<-started
	err = s.Approve(context.Background(), "cr-slow", "second")
	require.ErrorIs(t, err, changerequest.ErrResolutionInFlight)

	close(release)
	require.NoError(t, <-done)
}

func TestFetch_NetworkFailureClearsListPerLegacyBehavior(t *testing.T) {
	srv := portaltest.New()
	seedVendor(srv)
	s := newStore(t, srv)

	submitCommissionChange(t, s, 42)
	require.NoError(t, s.Fetch(context.Background(), changerequest.ListQuery{}))
	list, _, _ := s.List()
	require.Len(t, list, 1)

	srv.Close()

	err := s.Fetch(context.Background(), changerequest.ListQuery{})
	require.Error(t, err)

	list, _, op := s.List()
	require.Empty(t, list)
	require.False(t, op.Loading)
	require.Equal(t, "Network error during fetch change requests", op.Error)
}

func TestFetch_RecoversFromExpiredAccessToken(t *testing.T) {
	srv := portaltest.New()
	defer srv.Close()
	seedVendor(srv)
	s := newStore(t, srv)

	submitCommissionChange(t, s, 42)
	srv.ExpireAccessToken()

	require.NoError(t, s.Fetch(context.Background(), changerequest.ListQuery{}))
	list, _, op := s.List()
	require.True(t, op.Success)
	require.Len(t, list, 1)
}

func TestFetch_PaginationInvariants(t *testing.T) {
	srv := portaltest.New()
	defer srv.Close()
	seedVendor(srv)
	s := newStore(t, srv)

	for i := 0; i < 7; i++ {
		submitCommissionChange(t, s, 42)
	}

	require.NoError(t, s.Fetch(context.Background(), changerequest.ListQuery{PageNumber: 2, PageSize: 3}))
	list, meta, _ := s.List()
	require.LessOrEqual(t, len(list), meta.PageSize)
	require.Equal(t, 7, meta.TotalCount)
	require.Equal(t, 3, meta.TotalPages)
	require.GreaterOrEqual(t, meta.CurrentPage, 1)
	require.LessOrEqual(t, meta.CurrentPage, meta.TotalPages)
	require.True(t, meta.HasNext)
	require.True(t, meta.HasPrevious)
}

func TestFetch_FiltersByStatus(t *testing.T) {
	srv := portaltest.New()
	defer srv.Close()
	seedVendor(srv)
	s := newStore(t, srv)

	first := submitCommissionChange(t, s, 42)
	submitCommissionChange(t, s, 42)
	require.NoError(t, s.Approve(context.Background(), first.PublicID, "ok"))

	pending := changerequest.StatusPending
	require.NoError(t, s.Fetch(context.Background(), changerequest.ListQuery{Status: &pending}))
	list, _, _ := s.List()
	require.Len(t, list, 1)
	require.Equal(t, changerequest.StatusPending, list[0].Status)
}
