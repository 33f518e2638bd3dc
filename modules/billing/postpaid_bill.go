package billing

import (
	"time"

	"github.com/shopspring/decimal"
)

type BillStatus string

const (
	BillStatusDrafted   BillStatus = "drafted"
	BillStatusFinalized BillStatus = "finalized"
	BillStatusSkipped   BillStatus = "skipped"
)

// Dispute is an open disagreement attached to a bill. Resolution happens
// server-side; the client only links change requests to it.
type Dispute struct {
	ID       int64     `json:"id"`
	PublicID string    `json:"publicId"`
	Reason   string    `json:"reason"`
	OpenedAt time.Time `json:"openedAtUtc"`
}

// LedgerEntry is one posting on the customer's account for the bill period.
type LedgerEntry struct {
	ID          int64           `json:"id"`
	PostedAtUtc time.Time       `json:"postedAtUtc"`
	Description string          `json:"description"`
	Amount      decimal.Decimal `json:"amount"`
	Balance     decimal.Decimal `json:"balance"`
}

// PostpaidBill is one customer's bill for a period. Anomaly fields are
// computed server-side from consumption thresholds and are display-only.
type PostpaidBill struct {
	ID             int64      `json:"id"`
	Period         string     `json:"period"`
	CustomerID     int64      `json:"customerId"`
	CustomerName   string     `json:"customerName"`
	AreaOfficeID   int64      `json:"areaOfficeId"`
	MeterNumber    string     `json:"meterNumber"`
	Status         BillStatus `json:"status"`

	ConsumptionKwh  decimal.Decimal `json:"consumptionKwh"`
	Tariff          decimal.Decimal `json:"tariff"`
	EnergyCharge    decimal.Decimal `json:"energyCharge"`
	Vat             decimal.Decimal `json:"vat"`
	OpeningBalance  decimal.Decimal `json:"openingBalance"`
	ClosingBalance  decimal.Decimal `json:"closingBalance"`

	LowThresholdKwh  decimal.Decimal `json:"lowThresholdKwh"`
	HighThresholdKwh decimal.Decimal `json:"highThresholdKwh"`
	AnomalyScore     decimal.Decimal `json:"anomalyScore"`

	ActiveDispute *Dispute      `json:"activeDispute,omitempty"`
	LedgerEntries []LedgerEntry `json:"ledgerEntries,omitempty"`
}

// MeterReading is a raw consumption capture; the server flags anomalous
// readings and returns the computed record.
type MeterReading struct {
	ID             int64           `json:"id"`
	CustomerID     int64           `json:"customerId"`
	MeterNumber    string          `json:"meterNumber"`
	Period         string          `json:"period"`
	ReadingKwh     decimal.Decimal `json:"readingKwh"`
	ConsumptionKwh decimal.Decimal `json:"consumptionKwh"`
	AnomalyScore   decimal.Decimal `json:"anomalyScore"`
	Flagged        bool            `json:"flagged"`
	RecordedAtUtc  time.Time       `json:"recordedAtUtc"`
}
