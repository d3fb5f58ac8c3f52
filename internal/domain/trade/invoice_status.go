package trade

import (
	"strings"

	"github.com/gcs/crm/internal/domain/shared"
)

// InvoiceStatus represents the status of a proforma invoice.
// Statuses are set by the operator; no transition is automatic.
type InvoiceStatus string

const (
	InvoiceStatusDraft    InvoiceStatus = "Draft"
	InvoiceStatusSent     InvoiceStatus = "Sent"
	InvoiceStatusAccepted InvoiceStatus = "Accepted"
	InvoiceStatusRejected InvoiceStatus = "Rejected"
	InvoiceStatusExpired  InvoiceStatus = "Expired"
)

// AllInvoiceStatuses returns the statuses in display order
func AllInvoiceStatuses() []InvoiceStatus {
	return []InvoiceStatus{
		InvoiceStatusDraft,
		InvoiceStatusSent,
		InvoiceStatusAccepted,
		InvoiceStatusRejected,
		InvoiceStatusExpired,
	}
}

// IsValid checks if the status is a valid InvoiceStatus
func (s InvoiceStatus) IsValid() bool {
	switch s {
	case InvoiceStatusDraft, InvoiceStatusSent, InvoiceStatusAccepted, InvoiceStatusRejected, InvoiceStatusExpired:
		return true
	}
	return false
}

// String returns the string representation of InvoiceStatus
func (s InvoiceStatus) String() string {
	return string(s)
}

// ParseInvoiceStatus parses raw into a status. Blank input means Draft.
func ParseInvoiceStatus(raw string) (InvoiceStatus, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return InvoiceStatusDraft, nil
	}
	status := InvoiceStatus(raw)
	if !status.IsValid() {
		return "", shared.NewDomainError("INVALID_STATUS", "Invalid invoice status: "+raw)
	}
	return status, nil
}
