package changerequest

import (
	"encoding/json"
	"fmt"
	"time"
)

// Status is server-authoritative. Pending is the only non-terminal state;
// a request transitions to Approved or Declined exactly once.
type Status int

const (
	StatusPending  Status = 0
	StatusApproved Status = 1
	StatusDeclined Status = 2
)

func (s Status) String() string {
	switch s {
	case StatusPending:
		return "pending"
	case StatusApproved:
		return "approved"
	case StatusDeclined:
		return "declined"
	default:
		return fmt.Sprintf("status(%d)", int(s))
	}
}

type Source int

const (
	SourceManual    Source = 0
	SourceAutomatic Source = 1
)

// EntityType identifies the kind of record a change request targets and the
// API collection it lives under.
type EntityType string

const (
	EntityTypeVendor     EntityType = "vendor"
	EntityTypeBillingJob EntityType = "billing-job"
)

// CollectionPath returns the API path prefix for the entity collection.
func (t EntityType) CollectionPath() string {
	switch t {
	case EntityTypeVendor:
		return "/vendors"
	case EntityTypeBillingJob:
		return "/billing-jobs"
	default:
		return "/" + string(t) + "s"
	}
}

// ChangeRequest is a proposed mutation to a server-side entity awaiting
// approval or decline. Resolution fields are mutually exclusive and populated
// only after the request leaves Pending; the client copies them back from
// server responses and never infers them locally.
type ChangeRequest struct {
	ID               int64           `json:"id"`
	PublicID         string          `json:"publicId"`
	Reference        string          `json:"reference"`
	Status           Status          `json:"status"`
	EntityType       EntityType      `json:"entityType"`
	EntityID         int64           `json:"entityId"`
	EntityLabel      string          `json:"entityLabel"`
	RequestedBy      string          `json:"requestedBy"`
	RequestedAtUtc   time.Time       `json:"requestedAtUtc"`
	PatchDocument    json.RawMessage `json:"patchDocument,omitempty"`
	DisplayDiff      string          `json:"displayDiff,omitempty"`
	RequesterComment string          `json:"requesterComment,omitempty"`
	Source           Source          `json:"source"`
	AutoApproved     bool            `json:"autoApproved"`

	ApprovalNotes string     `json:"approvalNotes,omitempty"`
	ApprovedAtUtc *time.Time `json:"approvedAtUtc,omitempty"`
	ApprovedBy    string     `json:"approvedBy,omitempty"`

	DeclinedReason string `json:"declinedReason,omitempty"`
}

// Resolved reports whether the request reached a terminal status.
func (cr *ChangeRequest) Resolved() bool {
	return cr.Status == StatusApproved || cr.Status == StatusDeclined
}

// copyResolution copies the terminal status and resolution fields from a
// server response into the cached record.
func (cr *ChangeRequest) copyResolution(from *ChangeRequest) {
	cr.Status = from.Status
	cr.ApprovalNotes = from.ApprovalNotes
	cr.ApprovedAtUtc = from.ApprovedAtUtc
	cr.ApprovedBy = from.ApprovedBy
	cr.DeclinedReason = from.DeclinedReason
}

// entityKey identifies an entity-scoped cache slot.
func entityKey(entityType EntityType, entityID int64) string {
	return fmt.Sprintf("%s/%d", entityType, entityID)
}
