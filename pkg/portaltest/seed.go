package portaltest

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/utilibill/portal-sdk/modules/billing"
	"github.com/utilibill/portal-sdk/modules/changerequest"
	"github.com/utilibill/portal-sdk/modules/outage"
	"github.com/utilibill/portal-sdk/modules/vendor"
)

// SeedVendor registers a vendor, assigning an ID when missing.
func (s *Server) SeedVendor(v vendor.Vendor) vendor.Vendor {
	s.mu.Lock()
	defer s.mu.Unlock()
	if v.ID == 0 {
		v.ID = s.allocID()
	}
	if v.Status == "" {
		v.Status = vendor.VendorStatusActive
	}
	s.vendors = append(s.vendors, &v)
	return v
}

// SeedBill registers a postpaid bill, assigning an ID when missing.
func (s *Server) SeedBill(b billing.PostpaidBill) billing.PostpaidBill {
	s.mu.Lock()
	defer s.mu.Unlock()
	if b.ID == 0 {
		b.ID = s.allocID()
	}
	if b.Status == "" {
		b.Status = billing.BillStatusDrafted
	}
	s.bills = append(s.bills, &b)
	return b
}

// SeedBillingJob registers a billing job, assigning an ID when missing.
func (s *Server) SeedBillingJob(j billing.BillingJob) billing.BillingJob {
	s.mu.Lock()
	defer s.mu.Unlock()
	if j.ID == 0 {
		j.ID = s.allocID()
	}
	if j.Status == "" {
		j.Status = billing.JobStatusQueued
	}
	s.jobs = append(s.jobs, &j)
	return j
}

// SeedOutage registers an outage, assigning an ID when missing.
func (s *Server) SeedOutage(o outage.Outage) outage.Outage {
	s.mu.Lock()
	defer s.mu.Unlock()
	if o.ID == 0 {
		o.ID = s.allocID()
	}
	if o.Status == "" {
		o.Status = outage.OutageStatusOngoing
	}
	s.outages = append(s.outages, &o)
	return o
}

// SeedChangeRequest registers a change request, filling identity fields when
// missing.
func (s *Server) SeedChangeRequest(cr changerequest.ChangeRequest) changerequest.ChangeRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	if cr.ID == 0 {
		cr.ID = s.allocID()
	}
	if cr.PublicID == "" {
		cr.PublicID = uuid.NewString()
	}
	if cr.Reference == "" {
		cr.Reference = fmt.Sprintf("CR-%04d", cr.ID)
	}
	s.changeRequests = append(s.changeRequests, &cr)
	return cr
}

// SetJobProgress mutates a job the way the real server does asynchronously,
// so polling tests can observe progress.
func (s *Server) SetJobProgress(id int64, status billing.JobStatus, processed, drafted, finalized, skipped int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, job := range s.jobs {
		if job.ID == id {
			job.Status = status
			job.ProcessedCustomers = processed
			job.DraftedCount = drafted
			job.FinalizedCount = finalized
			job.SkippedCount = skipped
			return true
		}
	}
	return false
}
