package changerequest

import (
	"context"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/utilibill/portal-sdk/pkg/eventbus"
	"github.com/utilibill/portal-sdk/pkg/portalhttp"
	"github.com/utilibill/portal-sdk/pkg/serrors"
	"github.com/utilibill/portal-sdk/pkg/store"
)

// ErrResolutionInFlight is returned when a second approve/decline is issued
// for a public ID whose first resolution has not settled yet.
var ErrResolutionInFlight = serrors.NewError("PORTAL_RESOLUTION_IN_FLIGHT", "a resolution for this change request is already in flight")

// ResolvedEvent is published after a resolution is committed to the caches.
type ResolvedEvent struct {
	PublicID string
	Status   Status
}

// ListRefreshedEvent is published after any list fetch settles.
type ListRefreshedEvent struct {
	EntityScoped bool
	Count        int
}

// Store is the change-request bounded context: a flat list cache, per-entity
// list caches and the currently viewed details, each with its operation
// quartet. All reductions run behind one mutex, so no two reductions
// interleave; concurrent fetches race and the last response to reduce wins.
type Store struct {
	mu     sync.Mutex
	client *Client
	bus    eventbus.EventBus
	log    *logrus.Logger

	inflight *store.InflightGuard

	list        store.ListState[ChangeRequest]
	entityLists map[string]*store.ListState[ChangeRequest]

	details   *ChangeRequest
	detailsOp store.OpState

	submitOp  store.OpState
	resolveOp store.OpState
}

func NewStore(client *Client, bus eventbus.EventBus, log *logrus.Logger) *Store {
	return &Store{
		client:      client,
		bus:         bus,
		log:         log,
		inflight:    store.NewInflightGuard(),
		entityLists: make(map[string]*store.ListState[ChangeRequest]),
	}
}

// Fetch loads one page of the flat list.
func (s *Store) Fetch(ctx context.Context, q ListQuery) error {
	s.reduce(func() { s.list.Op.Begin() })

	items, meta, msg, err := s.client.List(ctx, q)
	if err != nil {
		s.reduce(func() {
			s.list.FailAndClear(portalhttp.FailureMessage(err, "Failed to fetch change requests"))
		})
		return err
	}

	s.reduce(func() {
		s.list.SetItems(items, meta, msg)
	})
	s.publish(ListRefreshedEvent{Count: len(items)})
	return nil
}

// FetchForEntity loads one page of the entity-scoped list.
func (s *Store) FetchForEntity(ctx context.Context, entityType EntityType, entityID int64, q ListQuery) error {
	key := entityKey(entityType, entityID)
	s.reduce(func() { s.entityList(key).Op.Begin() })

	items, meta, msg, err := s.client.ListForEntity(ctx, entityType, entityID, q)
	if err != nil {
		s.reduce(func() {
			s.entityList(key).FailAndClear(portalhttp.FailureMessage(err, "Failed to fetch change requests"))
		})
		return err
	}

	s.reduce(func() {
		s.entityList(key).SetItems(items, meta, msg)
	})
	s.publish(ListRefreshedEvent{EntityScoped: true, Count: len(items)})
	return nil
}

// FetchDetails loads one change request by public ID or reference.
func (s *Store) FetchDetails(ctx context.Context, identifier string) error {
	s.reduce(func() { s.detailsOp.Begin() })

	cr, msg, err := s.client.Get(ctx, identifier)
	if err != nil {
		s.reduce(func() {
			s.details = nil
			s.detailsOp.Fail(portalhttp.FailureMessage(err, "Failed to fetch change request"))
		})
		return err
	}

	s.reduce(func() {
		s.details = cr
		s.detailsOp.Succeed(msg)
	})
	return nil
}

// Submit proposes a patch. Nothing is written to the caches until the server
// responds; an auto-approved response lands already resolved.
func (s *Store) Submit(ctx context.Context, entityType EntityType, entityID int64, params SubmitParams) (*ChangeRequest, error) {
	s.reduce(func() { s.submitOp.Begin() })

	cr, msg, err := s.client.Submit(ctx, entityType, entityID, params)
	if err != nil {
		s.reduce(func() {
			s.submitOp.Fail(portalhttp.FailureMessage(err, "Failed to submit change request"))
		})
		return nil, err
	}

	s.reduce(func() { s.submitOp.Succeed(msg) })
	return cr, nil
}

// Approve resolves a pending request. On success the server's resolved record
// is patched into every cache that holds the public ID; on failure every
// cache is left untouched.
func (s *Store) Approve(ctx context.Context, publicID, notes string) error {
	return s.resolve(publicID, func() (*ChangeRequest, string, error) {
		return s.client.Approve(ctx, publicID, notes)
	}, "Failed to approve change request")
}

// Decline is symmetric to Approve and requires a non-empty reason.
func (s *Store) Decline(ctx context.Context, publicID, reason string) error {
	return s.resolve(publicID, func() (*ChangeRequest, string, error) {
		return s.client.Decline(ctx, publicID, reason)
	}, "Failed to decline change request")
}

func (s *Store) resolve(publicID string, call func() (*ChangeRequest, string, error), fallback string) error {
	if !s.inflight.Acquire(publicID) {
		return ErrResolutionInFlight
	}
	defer s.inflight.Release(publicID)

	s.reduce(func() { s.resolveOp.Begin() })

	resolved, msg, err := call()
	if err != nil {
		if s.log != nil {
			s.log.WithError(err).WithField("publicId", publicID).Warn("change request resolution failed")
		}
		s.reduce(func() { s.resolveOp.Fail(portalhttp.FailureMessage(err, fallback)) })
		return err
	}
	if resolved == nil {
		err := serrors.NewError(portalhttp.CodeBadEnvelope, "resolution response is missing the change request")
		s.reduce(func() { s.resolveOp.Fail(fallback) })
		return err
	}

	s.reduce(func() {
		s.applyResolution(resolved)
		s.resolveOp.Succeed(msg)
	})
	s.publish(ResolvedEvent{PublicID: resolved.PublicID, Status: resolved.Status})
	return nil
}

// applyResolution patches the matching record in the flat list, every
// entity-scoped list and the details view. A public ID not present in a
// cache is a no-op for that cache.
func (s *Store) applyResolution(resolved *ChangeRequest) {
	patchList := func(l *store.ListState[ChangeRequest]) {
		for i := range l.Items {
			if l.Items[i].PublicID == resolved.PublicID {
				l.Items[i].copyResolution(resolved)
			}
		}
	}

	patchList(&s.list)
	for _, l := range s.entityLists {
		patchList(l)
	}
	if s.details != nil && s.details.PublicID == resolved.PublicID {
		s.details.copyResolution(resolved)
	}
}

func (s *Store) entityList(key string) *store.ListState[ChangeRequest] {
	l, ok := s.entityLists[key]
	if !ok {
		l = &store.ListState[ChangeRequest]{}
		s.entityLists[key] = l
	}
	return l
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

// List returns a snapshot of the flat list cache.
func (s *Store) List() ([]ChangeRequest, store.PageMeta, store.OpState) {
	s.mu.Lock()
	defer s.mu.Unlock()
	items := make([]ChangeRequest, len(s.list.Items))
	copy(items, s.list.Items)
	return items, s.list.Page, s.list.Op
}

// EntityList returns a snapshot of the entity-scoped list cache.
func (s *Store) EntityList(entityType EntityType, entityID int64) ([]ChangeRequest, store.PageMeta, store.OpState) {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.entityLists[entityKey(entityType, entityID)]
	if !ok {
		return nil, store.PageMeta{}, store.OpState{}
	}
	items := make([]ChangeRequest, len(l.Items))
	copy(items, l.Items)
	return items, l.Page, l.Op
}

// Details returns a copy of the currently viewed change request, if any.
func (s *Store) Details() (*ChangeRequest, store.OpState) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.details == nil {
		return nil, s.detailsOp
	}
	cr := *s.details
	return &cr, s.detailsOp
}

// SubmitState returns the submit operation quartet.
func (s *Store) SubmitState() store.OpState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.submitOp
}

// ResolveState returns the approve/decline operation quartet.
func (s *Store) ResolveState() store.OpState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.resolveOp
}
