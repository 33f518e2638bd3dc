package portaltest

import (
	"net/http"
	"regexp"
	"strconv"

	"github.com/shopspring/decimal"

	"github.com/utilibill/portal-sdk/modules/billing"
)

var periodPattern = regexp.MustCompile(`^\d{4}-\d{2}$`)

var (
	defaultTariff    = decimal.NewFromFloat(45.70)
	vatRate          = decimal.NewFromFloat(0.075)
	lowThresholdKwh  = decimal.NewFromInt(50)
	highThresholdKwh = decimal.NewFromInt(1000)
)

func (s *Server) handleCreateBillingJob(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Period       string `json:"period"`
		AreaOfficeID int64  `json:"areaOfficeId"`
	}
	if err := decodeBody(r, &body); err != nil {
		writeFailure(w, http.StatusBadRequest, err.Error())
		return
	}
	if !periodPattern.MatchString(body.Period) {
		writeFailure(w, http.StatusBadRequest, "period must be in YYYY-MM format")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	job := &billing.BillingJob{
		ID:             s.allocID(),
		Period:         body.Period,
		AreaOfficeID:   body.AreaOfficeID,
		Status:         billing.JobStatusQueued,
		RequestedAtUtc: s.now().UTC(),
	}
	s.jobs = append(s.jobs, job)

	copied := *job
	writeOK(w, "Billing job created", &copied)
}

func (s *Server) handleListBillingJobs(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	q := r.URL.Query()
	filtered := []billing.BillingJob{}
	for _, job := range s.jobs {
		if period := q.Get("Period"); period != "" && job.Period != period {
			continue
		}
		if status := q.Get("Status"); status != "" && string(job.Status) != status {
			continue
		}
		filtered = append(filtered, *job)
	}
	page, meta := paginate(filtered, queryInt(r, "PageNumber"), queryInt(r, "PageSize"))
	writePage(w, "", page, meta)
}

func (s *Server) handleGetBillingJob(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		writeFailure(w, http.StatusBadRequest, "invalid billing job id")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, job := range s.jobs {
		if job.ID == id {
			copied := *job
			writeOK(w, "", &copied)
			return
		}
	}
	writeFailure(w, http.StatusNotFound, "billing job not found")
}

func (s *Server) handleFinalize(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Period string `json:"period"`
	}
	if err := decodeBody(r, &body); err != nil {
		writeFailure(w, http.StatusBadRequest, err.Error())
		return
	}
	if !periodPattern.MatchString(body.Period) {
		writeFailure(w, http.StatusBadRequest, "period must be in YYYY-MM format")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	count := 0
	for _, bill := range s.bills {
		if bill.Period == body.Period && bill.Status == billing.BillStatusDrafted {
			bill.Status = billing.BillStatusFinalized
			count++
		}
	}
	if count == 0 {
		writeOK(w, "No drafted bills eligible for finalization", "noop")
		return
	}
	writeOK(w, "Period finalized", "finalized")
}

func (s *Server) handleFinalizeAreaOffice(w http.ResponseWriter, r *http.Request) {
	areaOfficeID, ok := pathID(r, "areaOfficeId")
	if !ok {
		writeFailure(w, http.StatusBadRequest, "invalid area office id")
		return
	}
	var body struct {
		Period string `json:"period"`
	}
	if err := decodeBody(r, &body); err != nil {
		writeFailure(w, http.StatusBadRequest, err.Error())
		return
	}
	if !periodPattern.MatchString(body.Period) {
		writeFailure(w, http.StatusBadRequest, "period must be in YYYY-MM format")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	finalized := []billing.PostpaidBill{}
	for _, bill := range s.bills {
		if bill.Period == body.Period && bill.AreaOfficeID == areaOfficeID && bill.Status == billing.BillStatusDrafted {
			bill.Status = billing.BillStatusFinalized
			finalized = append(finalized, *bill)
		}
	}
	writeOK(w, "Area office finalized", finalized)
}

func (s *Server) handleListBills(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	q := r.URL.Query()
	filtered := []billing.PostpaidBill{}
	for _, bill := range s.bills {
		if period := q.Get("Period"); period != "" && bill.Period != period {
			continue
		}
		if status := q.Get("Status"); status != "" && string(bill.Status) != status {
			continue
		}
		if raw := q.Get("AreaOfficeId"); raw != "" && raw != itoa64(bill.AreaOfficeID) {
			continue
		}
		if raw := q.Get("CustomerId"); raw != "" && raw != itoa64(bill.CustomerID) {
			continue
		}
		filtered = append(filtered, *bill)
	}
	page, meta := paginate(filtered, queryInt(r, "PageNumber"), queryInt(r, "PageSize"))
	writePage(w, "", page, meta)
}

func (s *Server) handleGetBill(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		writeFailure(w, http.StatusBadRequest, "invalid bill id")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, bill := range s.bills {
		if bill.ID == id {
			copied := *bill
			writeOK(w, "", &copied)
			return
		}
	}
	writeFailure(w, http.StatusNotFound, "bill not found")
}

func (s *Server) handleCreateManualBill(w http.ResponseWriter, r *http.Request) {
	var body billing.CreateManualBillParams
	if err := decodeBody(r, &body); err != nil {
		writeFailure(w, http.StatusBadRequest, err.Error())
		return
	}
	if body.CustomerID <= 0 {
		writeFailure(w, http.StatusBadRequest, "customerId is required")
		return
	}
	if !periodPattern.MatchString(body.Period) {
		writeFailure(w, http.StatusBadRequest, "period must be in YYYY-MM format")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	energy := body.ConsumptionKwh.Mul(defaultTariff)
	vat := energy.Mul(vatRate)
	bill := &billing.PostpaidBill{
		ID:               s.allocID(),
		Period:           body.Period,
		CustomerID:       body.CustomerID,
		Status:           billing.BillStatusDrafted,
		ConsumptionKwh:   body.ConsumptionKwh,
		Tariff:           defaultTariff,
		EnergyCharge:     energy,
		Vat:              vat,
		ClosingBalance:   energy.Add(vat),
		LowThresholdKwh:  lowThresholdKwh,
		HighThresholdKwh: highThresholdKwh,
		AnomalyScore:     anomalyScore(body.ConsumptionKwh),
	}
	s.bills = append(s.bills, bill)

	copied := *bill
	writeOK(w, "Bill created", &copied)
}

func (s *Server) handleCreateMeterReading(w http.ResponseWriter, r *http.Request) {
	var body billing.CreateMeterReadingParams
	if err := decodeBody(r, &body); err != nil {
		writeFailure(w, http.StatusBadRequest, err.Error())
		return
	}
	if body.CustomerID <= 0 || body.MeterNumber == "" {
		writeFailure(w, http.StatusBadRequest, "customerId and meterNumber are required")
		return
	}
	if !periodPattern.MatchString(body.Period) {
		writeFailure(w, http.StatusBadRequest, "period must be in YYYY-MM format")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	score := anomalyScore(body.ReadingKwh)
	reading := &billing.MeterReading{
		ID:             s.allocID(),
		CustomerID:     body.CustomerID,
		MeterNumber:    body.MeterNumber,
		Period:         body.Period,
		ReadingKwh:     body.ReadingKwh,
		ConsumptionKwh: body.ReadingKwh,
		AnomalyScore:   score,
		Flagged:        score.GreaterThan(decimal.NewFromInt(2)),
		RecordedAtUtc:  s.now().UTC(),
	}

	copied := *reading
	writeOK(w, "Meter reading recorded", &copied)
}

// anomalyScore mimics the server's z-score-like flagging: consumption
// outside the configured thresholds scores high, everything else low.
func anomalyScore(kwh decimal.Decimal) decimal.Decimal {
	if kwh.LessThan(lowThresholdKwh) || kwh.GreaterThan(highThresholdKwh) {
		return decimal.NewFromFloat(2.5)
	}
	return decimal.NewFromFloat(0.3)
}

func itoa64(v int64) string {
	return strconv.FormatInt(v, 10)
}
