package outage

import "time"

type OutageStatus string

const (
	OutageStatusOngoing  OutageStatus = "ongoing"
	OutageStatusResolved OutageStatus = "resolved"
	OutageStatusPlanned  OutageStatus = "planned"
)

// Outage is a supply interruption reported for a feeder.
type Outage struct {
	ID                int64        `json:"id"`
	AreaOfficeID      int64        `json:"areaOfficeId"`
	Feeder            string       `json:"feeder"`
	Status            OutageStatus `json:"status"`
	Cause             string       `json:"cause,omitempty"`
	AffectedCustomers int          `json:"affectedCustomers"`
	StartedAtUtc      time.Time    `json:"startedAtUtc"`
	ResolvedAtUtc     *time.Time   `json:"resolvedAtUtc,omitempty"`
}
