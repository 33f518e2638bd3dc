package portaltest

import (
	"net/http"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/utilibill/portal-sdk/modules/outage"
	"github.com/utilibill/portal-sdk/modules/vendor"
)

var defaultCommission = decimal.NewFromFloat(0.05)

func (s *Server) handleListVendors(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	q := r.URL.Query()
	filtered := []vendor.Vendor{}
	for _, v := range s.vendors {
		if status := q.Get("Status"); status != "" && string(v.Status) != status {
			continue
		}
		if search := q.Get("Search"); search != "" {
			needle := strings.ToLower(search)
			if !strings.Contains(strings.ToLower(v.Name), needle) && !strings.Contains(strings.ToLower(v.Code), needle) {
				continue
			}
		}
		if raw := q.Get("AreaOfficeId"); raw != "" && raw != itoa64(v.AreaOfficeID) {
			continue
		}
		filtered = append(filtered, *v)
	}
	page, meta := paginate(filtered, queryInt(r, "PageNumber"), queryInt(r, "PageSize"))
	writePage(w, "", page, meta)
}

func (s *Server) handleGetVendor(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		writeFailure(w, http.StatusBadRequest, "invalid vendor id")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, v := range s.vendors {
		if v.ID == id {
			copied := *v
			writeOK(w, "", &copied)
			return
		}
	}
	writeFailure(w, http.StatusNotFound, "vendor not found")
}

func (s *Server) handleCreateVendor(w http.ResponseWriter, r *http.Request) {
	var body vendor.CreateParams
	if err := decodeBody(r, &body); err != nil {
		writeFailure(w, http.StatusBadRequest, err.Error())
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	created, msg, ok := s.createVendorLocked(body)
	if !ok {
		writeFailure(w, http.StatusConflict, msg)
		return
	}
	copied := *created
	writeOK(w, "Vendor created", &copied)
}

// handleBulkCreateVendors is all-or-nothing: any invalid entry rejects the
// whole batch without creating anything.
func (s *Server) handleBulkCreateVendors(w http.ResponseWriter, r *http.Request) {
	var batch []vendor.CreateParams
	if err := decodeBody(r, &batch); err != nil {
		writeFailure(w, http.StatusBadRequest, err.Error())
		return
	}
	if len(batch) == 0 {
		writeFailure(w, http.StatusBadRequest, "vendors must not be empty")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	seen := map[string]struct{}{}
	for _, params := range batch {
		if params.Name == "" || params.Code == "" {
			writeFailure(w, http.StatusBadRequest, "name and code are required for every vendor")
			return
		}
		if _, dup := seen[params.Code]; dup {
			writeFailure(w, http.StatusConflict, "duplicate vendor code in batch: "+params.Code)
			return
		}
		seen[params.Code] = struct{}{}
		if s.vendorCodeExistsLocked(params.Code) {
			writeFailure(w, http.StatusConflict, "vendor code already exists: "+params.Code)
			return
		}
	}

	created := make([]vendor.Vendor, 0, len(batch))
	for _, params := range batch {
		v, _, _ := s.createVendorLocked(params)
		created = append(created, *v)
	}
	writeOK(w, "Vendors created", created)
}

func (s *Server) createVendorLocked(params vendor.CreateParams) (*vendor.Vendor, string, bool) {
	if params.Name == "" || params.Code == "" {
		return nil, "name and code are required", false
	}
	if s.vendorCodeExistsLocked(params.Code) {
		return nil, "vendor code already exists: " + params.Code, false
	}

	commission := params.Commission
	if commission.IsZero() {
		commission = defaultCommission
	}
	v := &vendor.Vendor{
		ID:           s.allocID(),
		Name:         params.Name,
		Code:         params.Code,
		Status:       vendor.VendorStatusActive,
		Commission:   commission,
		ContactEmail: params.ContactEmail,
		ContactPhone: params.ContactPhone,
		AreaOfficeID: params.AreaOfficeID,
		CreatedAtUtc: s.now().UTC(),
	}
	s.vendors = append(s.vendors, v)
	return v, "", true
}

func (s *Server) vendorCodeExistsLocked(code string) bool {
	for _, v := range s.vendors {
		if v.Code == code {
			return true
		}
	}
	return false
}

func (s *Server) handleListOutages(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	q := r.URL.Query()
	filtered := []outage.Outage{}
	for _, o := range s.outages {
		if status := q.Get("Status"); status != "" && string(o.Status) != status {
			continue
		}
		if raw := q.Get("AreaOfficeId"); raw != "" && raw != itoa64(o.AreaOfficeID) {
			continue
		}
		filtered = append(filtered, *o)
	}
	page, meta := paginate(filtered, queryInt(r, "PageNumber"), queryInt(r, "PageSize"))
	writePage(w, "", page, meta)
}

func (s *Server) handleGetOutage(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		writeFailure(w, http.StatusBadRequest, "invalid outage id")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, o := range s.outages {
		if o.ID == id {
			copied := *o
			writeOK(w, "", &copied)
			return
		}
	}
	writeFailure(w, http.StatusNotFound, "outage not found")
}

func (s *Server) handleReportOutage(w http.ResponseWriter, r *http.Request) {
	var body outage.ReportParams
	if err := decodeBody(r, &body); err != nil {
		writeFailure(w, http.StatusBadRequest, err.Error())
		return
	}
	if body.AreaOfficeID <= 0 || body.Feeder == "" {
		writeFailure(w, http.StatusBadRequest, "areaOfficeId and feeder are required")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	o := &outage.Outage{
		ID:           s.allocID(),
		AreaOfficeID: body.AreaOfficeID,
		Feeder:       body.Feeder,
		Status:       outage.OutageStatusOngoing,
		Cause:        body.Cause,
		StartedAtUtc: s.now().UTC(),
	}
	s.outages = append(s.outages, o)

	copied := *o
	writeOK(w, "Outage reported", &copied)
}
