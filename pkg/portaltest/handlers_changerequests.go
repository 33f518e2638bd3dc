package portaltest

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/utilibill/portal-sdk/modules/changerequest"
)

type submitBody struct {
	Changes       []changerequest.Change `json:"changes"`
	Comment       string                 `json:"comment"`
	Dispute       string                 `json:"dispute"`
	Preconditions map[string]string      `json:"preconditions"`
}

func (s *Server) handleSubmitChangeRequest(entityType changerequest.EntityType) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		entityID, ok := pathID(r, "id")
		if !ok {
			writeFailure(w, http.StatusBadRequest, "invalid entity id")
			return
		}

		var body submitBody
		if err := decodeBody(r, &body); err != nil {
			writeFailure(w, http.StatusBadRequest, err.Error())
			return
		}
		if len(body.Changes) == 0 {
			writeFailure(w, http.StatusBadRequest, "changes must not be empty")
			return
		}

		s.mu.Lock()
		defer s.mu.Unlock()

		label, doc, found := s.entitySnapshot(entityType, entityID)
		if !found {
			writeFailure(w, http.StatusNotFound, "entity not found")
			return
		}

		for path, expected := range body.Preconditions {
			actual, ok := lookupField(doc, path)
			if !ok || actual != expected {
				writeFailure(w, http.StatusConflict,
					fmt.Sprintf("precondition failed for %s: expected %q but found %q", strings.TrimPrefix(path, "/"), expected, actual))
				return
			}
		}

		id := s.allocID()
		cr := &changerequest.ChangeRequest{
			ID:               id,
			PublicID:         uuid.NewString(),
			Reference:        fmt.Sprintf("CR-%04d", id),
			Status:           changerequest.StatusPending,
			EntityType:       entityType,
			EntityID:         entityID,
			EntityLabel:      label,
			RequestedBy:      "portal-user",
			RequestedAtUtc:   s.now().UTC(),
			PatchDocument:    patchDocument(body.Changes),
			DisplayDiff:      displayDiff(body.Changes),
			RequesterComment: body.Comment,
			Source:           changerequest.SourceManual,
		}
		if s.autoApprove {
			now := s.now().UTC()
			cr.Status = changerequest.StatusApproved
			cr.AutoApproved = true
			cr.ApprovedAtUtc = &now
			cr.ApprovedBy = "system"
			cr.ApprovalNotes = "auto-approved"
		}
		s.changeRequests = append(s.changeRequests, cr)

		copied := *cr
		writeOK(w, "Change request submitted", &copied)
	}
}

func (s *Server) handleListChangeRequests(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	filtered := s.filterChangeRequests(r, "", 0)
	page, meta := paginate(filtered, queryInt(r, "PageNumber"), queryInt(r, "PageSize"))
	writePage(w, "", page, meta)
}

func (s *Server) handleListEntityChangeRequests(entityType changerequest.EntityType) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		entityID, ok := pathID(r, "id")
		if !ok {
			writeFailure(w, http.StatusBadRequest, "invalid entity id")
			return
		}

		s.mu.Lock()
		defer s.mu.Unlock()

		filtered := s.filterChangeRequests(r, entityType, entityID)
		page, meta := paginate(filtered, queryInt(r, "PageNumber"), queryInt(r, "PageSize"))
		writePage(w, "", page, meta)
	}
}

func (s *Server) filterChangeRequests(r *http.Request, entityType changerequest.EntityType, entityID int64) []changerequest.ChangeRequest {
	q := r.URL.Query()
	out := []changerequest.ChangeRequest{}
	for _, cr := range s.changeRequests {
		if entityType != "" && (cr.EntityType != entityType || cr.EntityID != entityID) {
			continue
		}
		if raw := q.Get("Status"); raw != "" {
			status, err := strconv.Atoi(raw)
			if err != nil || cr.Status != changerequest.Status(status) {
				continue
			}
		}
		if raw := q.Get("Source"); raw != "" {
			source, err := strconv.Atoi(raw)
			if err != nil || cr.Source != changerequest.Source(source) {
				continue
			}
		}
		if ref := q.Get("Reference"); ref != "" && cr.Reference != ref {
			continue
		}
		if pid := q.Get("PublicId"); pid != "" && cr.PublicID != pid {
			continue
		}
		out = append(out, *cr)
	}
	return out
}

func (s *Server) handleGetChangeRequest(w http.ResponseWriter, r *http.Request) {
	identifier := mux.Vars(r)["identifier"]

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, cr := range s.changeRequests {
		if cr.PublicID == identifier || cr.Reference == identifier {
			copied := *cr
			writeOK(w, "", &copied)
			return
		}
	}
	writeFailure(w, http.StatusNotFound, "change request not found")
}

func (s *Server) handleApprove(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Notes string `json:"notes"`
	}
	if err := decodeBody(r, &body); err != nil {
		writeFailure(w, http.StatusBadRequest, err.Error())
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	cr, ok := s.findByPublicID(mux.Vars(r)["publicId"])
	if !ok {
		writeFailure(w, http.StatusNotFound, "change request not found")
		return
	}
	if cr.Resolved() {
		writeFailure(w, http.StatusConflict, "change request already resolved")
		return
	}

	now := s.now().UTC()
	cr.Status = changerequest.StatusApproved
	cr.ApprovalNotes = body.Notes
	cr.ApprovedAtUtc = &now
	cr.ApprovedBy = "ops-admin"

	copied := *cr
	writeOK(w, "Change request approved", &copied)
}

func (s *Server) handleDecline(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Reason string `json:"reason"`
	}
	if err := decodeBody(r, &body); err != nil {
		writeFailure(w, http.StatusBadRequest, err.Error())
		return
	}
	if strings.TrimSpace(body.Reason) == "" {
		writeFailure(w, http.StatusBadRequest, "reason is required")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	cr, ok := s.findByPublicID(mux.Vars(r)["publicId"])
	if !ok {
		writeFailure(w, http.StatusNotFound, "change request not found")
		return
	}
	if cr.Resolved() {
		writeFailure(w, http.StatusConflict, "change request already resolved")
		return
	}

	cr.Status = changerequest.StatusDeclined
	cr.DeclinedReason = body.Reason

	copied := *cr
	writeOK(w, "Change request declined", &copied)
}

func (s *Server) findByPublicID(publicID string) (*changerequest.ChangeRequest, bool) {
	for _, cr := range s.changeRequests {
		if cr.PublicID == publicID {
			return cr, true
		}
	}
	return nil, false
}

// entitySnapshot returns a display label and a flattened JSON document of the
// target entity, used for labels and precondition checks.
func (s *Server) entitySnapshot(entityType changerequest.EntityType, entityID int64) (string, map[string]any, bool) {
	switch entityType {
	case changerequest.EntityTypeVendor:
		for _, v := range s.vendors {
			if v.ID == entityID {
				return v.Name, toDocument(v), true
			}
		}
	case changerequest.EntityTypeBillingJob:
		for _, j := range s.jobs {
			if j.ID == entityID {
				return "Billing job " + j.Period, toDocument(j), true
			}
		}
	}
	return "", nil, false
}

func toDocument(entity any) map[string]any {
	b, err := json.Marshal(entity)
	if err != nil {
		return map[string]any{}
	}
	doc := map[string]any{}
	_ = json.Unmarshal(b, &doc)
	return doc
}

func lookupField(doc map[string]any, path string) (string, bool) {
	key := strings.TrimPrefix(path, "/")
	v, ok := doc[key]
	if !ok {
		return "", false
	}
	if str, ok := v.(string); ok {
		return str, true
	}
	b, err := json.Marshal(v)
	if err != nil {
		return "", false
	}
	return string(b), true
}

func patchDocument(changes []changerequest.Change) json.RawMessage {
	ops := make([]map[string]any, 0, len(changes))
	for _, change := range changes {
		path := change.Path
		if !strings.HasPrefix(path, "/") {
			path = "/" + path
		}
		ops = append(ops, map[string]any{"op": "replace", "path": path, "value": change.Value})
	}
	b, _ := json.Marshal(ops)
	return b
}

func displayDiff(changes []changerequest.Change) string {
	parts := make([]string, 0, len(changes))
	for _, change := range changes {
		parts = append(parts, fmt.Sprintf("%s -> %s", strings.TrimPrefix(change.Path, "/"), change.Value))
	}
	return strings.Join(parts, "; ")
}
