package billing_test

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/utilibill/portal-sdk/modules/billing"
	"github.com/utilibill/portal-sdk/pkg/portalhttp"
	"github.com/utilibill/portal-sdk/pkg/portaltest"
)

func newStore(t *testing.T, srv *portaltest.Server) *billing.Store {
	t.Helper()
	access, refresh := srv.Tokens()
	api, err := portalhttp.NewClient(portalhttp.Options{
		BaseURL:      srv.URL(),
		AccessToken:  access,
		RefreshToken: refresh,
	})
	require.NoError(t, err)
	return billing.NewStore(billing.NewClient(api), nil, nil)
}

func TestCreateJob_StartsQueuedWithZeroCounts(t *testing.T) {
	srv := portaltest.New()
	defer srv.Close()
	s := newStore(t, srv)

	job, err := s.CreateJob(context.Background(), billing.CreateJobParams{Period: "2026-08"})
	require.NoError(t, err)
	require.Equal(t, billing.JobStatusQueued, job.Status)
	require.Equal(t, "2026-08", job.Period)
	require.Zero(t, job.DraftedCount)
	require.Zero(t, job.FinalizedCount)
	require.Zero(t, job.SkippedCount)
	require.Zero(t, job.ProcessedCustomers)
	require.True(t, s.CreateJobState().Success)
}

func TestCreateJob_InvalidPeriodRejectedLocally(t *testing.T) {
	srv := portaltest.New()
	defer srv.Close()
	s := newStore(t, srv)

	_, err := s.CreateJob(context.Background(), billing.CreateJobParams{Period: "August"})
	require.Error(t, err)
}

func TestFetchJob_ObservesServerProgress(t *testing.T) {
	srv := portaltest.New()
	defer srv.Close()
	s := newStore(t, srv)

	job, err := s.CreateJob(context.Background(), billing.CreateJobParams{Period: "2026-08"})
	require.NoError(t, err)

	require.True(t, srv.SetJobProgress(job.ID, billing.JobStatusRunning, 120, 110, 0, 10))
	require.NoError(t, s.FetchJob(context.Background(), job.ID))

	current, op := s.CurrentJob()
	require.True(t, op.Success)
	require.Equal(t, billing.JobStatusRunning, current.Status)
	require.Equal(t, 120, current.ProcessedCustomers)
	require.Equal(t, 110, current.DraftedCount)
	require.Equal(t, 10, current.SkippedCount)
}

func TestFinalizePeriod_NoopWhenNothingDrafted(t *testing.T) {
	srv := portaltest.New()
	defer srv.Close()
	s := newStore(t, srv)

	require.NoError(t, s.FinalizePeriod(context.Background(), billing.FinalizeParams{Period: "2026-08"}))
	require.Equal(t, "noop", s.FinalizeState().Message)
}

func TestFinalizePeriod_FinalizesDraftedBills(t *testing.T) {
	srv := portaltest.New()
	defer srv.Close()
	srv.SeedBill(billing.PostpaidBill{Period: "2026-08", CustomerID: 1})
	srv.SeedBill(billing.PostpaidBill{Period: "2026-07", CustomerID: 1, Status: billing.BillStatusDrafted})
	s := newStore(t, srv)

	require.NoError(t, s.FinalizePeriod(context.Background(), billing.FinalizeParams{Period: "2026-08"}))
	require.Equal(t, "finalized", s.FinalizeState().Message)

	require.NoError(t, s.FetchBills(context.Background(), billing.ListQuery{Period: "2026-08"}))
	bills, _, _ := s.Bills()
	require.Len(t, bills, 1)
	require.Equal(t, billing.BillStatusFinalized, bills[0].Status)

	// Other periods stay drafted.
	require.NoError(t, s.FetchBills(context.Background(), billing.ListQuery{Period: "2026-07"}))
	bills, _, _ = s.Bills()
	require.Len(t, bills, 1)
	require.Equal(t, billing.BillStatusDrafted, bills[0].Status)
}

func TestFinalizeAreaOffice_CommitsReturnedBills(t *testing.T) {
	srv := portaltest.New()
	defer srv.Close()
	srv.SeedBill(billing.PostpaidBill{Period: "2026-08", AreaOfficeID: 7, CustomerID: 1})
	srv.SeedBill(billing.PostpaidBill{Period: "2026-08", AreaOfficeID: 7, CustomerID: 2})
	srv.SeedBill(billing.PostpaidBill{Period: "2026-08", AreaOfficeID: 9, CustomerID: 3})
	s := newStore(t, srv)

	require.NoError(t, s.FinalizeAreaOffice(context.Background(), 7, billing.FinalizeParams{Period: "2026-08"}))

	bills, _, op := s.Bills()
	require.True(t, op.Success)
	require.Len(t, bills, 2)
	for _, b := range bills {
		require.Equal(t, billing.BillStatusFinalized, b.Status)
		require.Equal(t, int64(7), b.AreaOfficeID)
	}
}

func TestCreateManualBill_ServerComputesChargesAndAnomaly(t *testing.T) {
	srv := portaltest.New()
	defer srv.Close()
	s := newStore(t, srv)

	bill, err := s.CreateManualBill(context.Background(), billing.CreateManualBillParams{
		CustomerID:     12,
		Period:         "2026-08",
		ConsumptionKwh: decimal.NewFromInt(200),
	})
	require.NoError(t, err)
	require.Equal(t, billing.BillStatusDrafted, bill.Status)
	require.True(t, bill.EnergyCharge.Equal(bill.ConsumptionKwh.Mul(bill.Tariff)))
	require.True(t, bill.ClosingBalance.Equal(bill.EnergyCharge.Add(bill.Vat)))
	require.True(t, bill.AnomalyScore.LessThan(decimal.NewFromInt(1)), "in-threshold consumption scores low")
}

func TestCreateManualBill_OutOfThresholdConsumptionScoresHigh(t *testing.T) {
	srv := portaltest.New()
	defer srv.Close()
	s := newStore(t, srv)

	bill, err := s.CreateManualBill(context.Background(), billing.CreateManualBillParams{
		CustomerID:     12,
		Period:         "2026-08",
		ConsumptionKwh: decimal.NewFromInt(5000),
	})
	require.NoError(t, err)
	require.True(t, bill.AnomalyScore.GreaterThan(decimal.NewFromInt(2)))
	require.True(t, bill.ConsumptionKwh.GreaterThan(bill.HighThresholdKwh))
}

func TestCreateMeterReading_FlagsAnomalousReading(t *testing.T) {
	srv := portaltest.New()
	defer srv.Close()
	s := newStore(t, srv)

	reading, err := s.CreateMeterReading(context.Background(), billing.CreateMeterReadingParams{
		CustomerID:  12,
		MeterNumber: "MTR-0042",
		Period:      "2026-08",
		ReadingKwh:  decimal.NewFromInt(20),
	})
	require.NoError(t, err)
	require.True(t, reading.Flagged)

	reading, err = s.CreateMeterReading(context.Background(), billing.CreateMeterReadingParams{
		CustomerID:  12,
		MeterNumber: "MTR-0042",
		Period:      "2026-08",
		ReadingKwh:  decimal.NewFromInt(300),
	})
	require.NoError(t, err)
	require.False(t, reading.Flagged)
}

func TestFetchJobs_NetworkFailureClearsList(t *testing.T) {
	srv := portaltest.New()
	srv.SeedBillingJob(billing.BillingJob{Period: "2026-08"})
	s := newStore(t, srv)

	require.NoError(t, s.FetchJobs(context.Background(), billing.ListQuery{}))
	jobs, _, _ := s.Jobs()
	require.Len(t, jobs, 1)

	srv.Close()

	err := s.FetchJobs(context.Background(), billing.ListQuery{})
	require.Error(t, err)

	jobs, _, op := s.Jobs()
	require.Empty(t, jobs)
	require.False(t, op.Loading)
	require.Equal(t, "Network error during fetch billing jobs", op.Error)
}

func TestFetchBills_FiltersByCustomer(t *testing.T) {
	srv := portaltest.New()
	defer srv.Close()
	srv.SeedBill(billing.PostpaidBill{Period: "2026-08", CustomerID: 1})
	srv.SeedBill(billing.PostpaidBill{Period: "2026-08", CustomerID: 2})
	s := newStore(t, srv)

	require.NoError(t, s.FetchBills(context.Background(), billing.ListQuery{CustomerID: 2}))
	bills, _, _ := s.Bills()
	require.Len(t, bills, 1)
	require.Equal(t, int64(2), bills[0].CustomerID)
}
