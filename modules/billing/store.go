package billing

import (
	"context"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/utilibill/portal-sdk/pkg/eventbus"
	"github.com/utilibill/portal-sdk/pkg/portalhttp"
	"github.com/utilibill/portal-sdk/pkg/store"
)

// JobCreatedEvent is published after a billing job is acknowledged.
type JobCreatedEvent struct {
	JobID  int64
	Period string
}

// PeriodFinalizedEvent is published after a finalize call succeeds.
type PeriodFinalizedEvent struct {
	Period       string
	AreaOfficeID int64
}

// Store is the postpaid billing bounded context: billing jobs, the bills
// list, the currently viewed bill, and the operation quartets for create /
// finalize calls.
type Store struct {
	mu     sync.Mutex
	client *Client
	bus    eventbus.EventBus
	log    *logrus.Logger

	jobs  store.ListState[BillingJob]
	bills store.ListState[PostpaidBill]

	currentJob  *BillingJob
	jobOp       store.OpState
	currentBill *PostpaidBill
	billOp      store.OpState

	createJobOp store.OpState
	finalizeOp  store.OpState
	manualOp    store.OpState
	readingOp   store.OpState
}

func NewStore(client *Client, bus eventbus.EventBus, log *logrus.Logger) *Store {
	return &Store{client: client, bus: bus, log: log}
}

func (s *Store) FetchJobs(ctx context.Context, q ListQuery) error {
	s.reduce(func() { s.jobs.Op.Begin() })

	items, meta, msg, err := s.client.ListJobs(ctx, q)
	if err != nil {
		s.reduce(func() { s.jobs.FailAndClear(portalhttp.FailureMessage(err, "Failed to fetch billing jobs")) })
		return err
	}
	s.reduce(func() { s.jobs.SetItems(items, meta, msg) })
	return nil
}

// FetchJob refreshes one job; callers poll this to observe progress.
func (s *Store) FetchJob(ctx context.Context, id int64) error {
	s.reduce(func() { s.jobOp.Begin() })

	job, msg, err := s.client.GetJob(ctx, id)
	if err != nil {
		s.reduce(func() {
			s.currentJob = nil
			s.jobOp.Fail(portalhttp.FailureMessage(err, "Failed to fetch billing job"))
		})
		return err
	}
	s.reduce(func() {
		s.currentJob = job
		s.jobOp.Succeed(msg)
	})
	return nil
}

func (s *Store) CreateJob(ctx context.Context, params CreateJobParams) (*BillingJob, error) {
	s.reduce(func() { s.createJobOp.Begin() })

	job, msg, err := s.client.CreateJob(ctx, params)
	if err != nil {
		s.reduce(func() { s.createJobOp.Fail(portalhttp.FailureMessage(err, "Failed to create billing job")) })
		return nil, err
	}
	s.reduce(func() {
		s.currentJob = job
		s.createJobOp.Succeed(msg)
	})
	if job != nil {
		s.publish(JobCreatedEvent{JobID: job.ID, Period: job.Period})
	}
	return job, nil
}

// FinalizePeriod is fire-and-forget: a success message is recorded, nothing
// else changes locally until the next fetch.
func (s *Store) FinalizePeriod(ctx context.Context, params FinalizeParams) error {
	s.reduce(func() { s.finalizeOp.Begin() })

	status, err := s.client.FinalizePeriod(ctx, params)
	if err != nil {
		if s.log != nil {
			s.log.WithError(err).WithField("period", params.Period).Warn("period finalization failed")
		}
		s.reduce(func() { s.finalizeOp.Fail(portalhttp.FailureMessage(err, "Failed to finalize period")) })
		return err
	}
	s.reduce(func() { s.finalizeOp.Succeed(status) })
	s.publish(PeriodFinalizedEvent{Period: params.Period})
	return nil
}

// FinalizeAreaOffice commits the returned finalized bill list into the bills
// cache for the area office view.
func (s *Store) FinalizeAreaOffice(ctx context.Context, areaOfficeID int64, params FinalizeParams) error {
	s.reduce(func() { s.finalizeOp.Begin() })

	bills, msg, err := s.client.FinalizeAreaOffice(ctx, areaOfficeID, params)
	if err != nil {
		s.reduce(func() { s.finalizeOp.Fail(portalhttp.FailureMessage(err, "Failed to finalize period")) })
		return err
	}
	s.reduce(func() {
		s.bills.SetItems(bills, s.bills.Page, msg)
		s.finalizeOp.Succeed(msg)
	})
	s.publish(PeriodFinalizedEvent{Period: params.Period, AreaOfficeID: areaOfficeID})
	return nil
}

func (s *Store) FetchBills(ctx context.Context, q ListQuery) error {
	s.reduce(func() { s.bills.Op.Begin() })

	items, meta, msg, err := s.client.ListBills(ctx, q)
	if err != nil {
		s.reduce(func() { s.bills.FailAndClear(portalhttp.FailureMessage(err, "Failed to fetch bills")) })
		return err
	}
	s.reduce(func() { s.bills.SetItems(items, meta, msg) })
	return nil
}

func (s *Store) FetchBill(ctx context.Context, id int64) error {
	s.reduce(func() { s.billOp.Begin() })

	bill, msg, err := s.client.GetBill(ctx, id)
	if err != nil {
		s.reduce(func() {
			s.currentBill = nil
			s.billOp.Fail(portalhttp.FailureMessage(err, "Failed to fetch bill"))
		})
		return err
	}
	s.reduce(func() {
		s.currentBill = bill
		s.billOp.Succeed(msg)
	})
	return nil
}

func (s *Store) CreateManualBill(ctx context.Context, params CreateManualBillParams) (*PostpaidBill, error) {
	s.reduce(func() { s.manualOp.Begin() })

	bill, msg, err := s.client.CreateManualBill(ctx, params)
	if err != nil {
		s.reduce(func() { s.manualOp.Fail(portalhttp.FailureMessage(err, "Failed to create bill")) })
		return nil, err
	}
	s.reduce(func() { s.manualOp.Succeed(msg) })
	return bill, nil
}

func (s *Store) CreateMeterReading(ctx context.Context, params CreateMeterReadingParams) (*MeterReading, error) {
	s.reduce(func() { s.readingOp.Begin() })

	reading, msg, err := s.client.CreateMeterReading(ctx, params)
	if err != nil {
		s.reduce(func() { s.readingOp.Fail(portalhttp.FailureMessage(err, "Failed to record meter reading")) })
		return nil, err
	}
	s.reduce(func() { s.readingOp.Succeed(msg) })
	return reading, nil
}

func (s *Store) reduce(fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn()
}

func (s *Store) publish(ev any) {
	if s.bus != nil {
		s.bus.Publish(ev)
	}
}

func (s *Store) Jobs() ([]BillingJob, store.PageMeta, store.OpState) {
	s.mu.Lock()
	defer s.mu.Unlock()
	items := make([]BillingJob, len(s.jobs.Items))
	copy(items, s.jobs.Items)
	return items, s.jobs.Page, s.jobs.Op
}

func (s *Store) Bills() ([]PostpaidBill, store.PageMeta, store.OpState) {
	s.mu.Lock()
	defer s.mu.Unlock()
	items := make([]PostpaidBill, len(s.bills.Items))
	copy(items, s.bills.Items)
	return items, s.bills.Page, s.bills.Op
}

func (s *Store) CurrentJob() (*BillingJob, store.OpState) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.currentJob == nil {
		return nil, s.jobOp
	}
	job := *s.currentJob
	return &job, s.jobOp
}

func (s *Store) CurrentBill() (*PostpaidBill, store.OpState) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.currentBill == nil {
		return nil, s.billOp
	}
	bill := *s.currentBill
	return &bill, s.billOp
}

func (s *Store) CreateJobState() store.OpState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.createJobOp
}

func (s *Store) FinalizeState() store.OpState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.finalizeOp
}
