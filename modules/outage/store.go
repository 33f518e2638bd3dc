package outage

import (
	"context"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/utilibill/portal-sdk/pkg/eventbus"
	"github.com/utilibill/portal-sdk/pkg/portalhttp"
	"github.com/utilibill/portal-sdk/pkg/store"
)

// ReportedEvent is published after an outage report is acknowledged.
type ReportedEvent struct {
	OutageID     int64
	AreaOfficeID int64
}

// Store is the outage bounded context: one list cache, one details view and
// the report operation quartet.
type Store struct {
	mu     sync.Mutex
	client *Client
	bus    eventbus.EventBus
	log    *logrus.Logger

	list store.ListState[Outage]

	current   *Outage
	currentOp store.OpState

	reportOp store.OpState
}

func NewStore(client *Client, bus eventbus.EventBus, log *logrus.Logger) *Store {
	return &Store{client: client, bus: bus, log: log}
}

func (s *Store) Fetch(ctx context.Context, q ListQuery) error {
	s.reduce(func() { s.list.Op.Begin() })

	items, meta, msg, err := s.client.List(ctx, q)
	if err != nil {
		s.reduce(func() { s.list.FailAndClear(portalhttp.FailureMessage(err, "Failed to fetch outages")) })
		return err
	}
	s.reduce(func() { s.list.SetItems(items, meta, msg) })
	return nil
}

func (s *Store) FetchDetails(ctx context.Context, id int64) error {
	s.reduce(func() { s.currentOp.Begin() })

	o, msg, err := s.client.Get(ctx, id)
	if err != nil {
		s.reduce(func() {
			s.current = nil
			s.currentOp.Fail(portalhttp.FailureMessage(err, "Failed to fetch outage"))
		})
		return err
	}
	s.reduce(func() {
		s.current = o
		s.currentOp.Succeed(msg)
	})
	return nil
}

func (s *Store) Report(ctx context.Context, params ReportParams) (*Outage, error) {
	s.reduce(func() { s.reportOp.Begin() })

	o, msg, err := s.client.Report(ctx, params)
	if err != nil {
		if s.log != nil {
			s.log.WithError(err).WithField("feeder", params.Feeder).Warn("outage report failed")
		}
		s.reduce(func() { s.reportOp.Fail(portalhttp.FailureMessage(err, "Failed to report outage")) })
		return nil, err
	}
	s.reduce(func() { s.reportOp.Succeed(msg) })
	if o != nil && s.bus != nil {
		s.bus.Publish(ReportedEvent{OutageID: o.ID, AreaOfficeID: o.AreaOfficeID})
	}
	return o, nil
}

func (s *Store) reduce(fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn()
}

func (s *Store) List() ([]Outage, store.PageMeta, store.OpState) {
	s.mu.Lock()
	defer s.mu.Unlock()
	items := make([]Outage, len(s.list.Items))
	copy(items, s.list.Items)
	return items, s.list.Page, s.list.Op
}

func (s *Store) Details() (*Outage, store.OpState) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current == nil {
		return nil, s.currentOp
	}
	o := *s.current
	return &o, s.currentOp
}

func (s *Store) ReportState() store.OpState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.reportOp
}
