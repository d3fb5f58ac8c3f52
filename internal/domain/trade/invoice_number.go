package trade

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/gcs/crm/internal/domain/shared"
)

const (
	// DefaultInvoiceNumberPrefix is the prefix used when none is configured
	DefaultInvoiceNumberPrefix = "GCS-PI"

	// MaxInvoiceSequence is the last sequence a four digit suffix can hold
	MaxInvoiceSequence = 9999
)

var (
	// ErrInvalidInvoiceNumber is returned when a stored number has a malformed suffix
	ErrInvalidInvoiceNumber = shared.NewDomainError("INVALID_INVOICE_NUMBER", "Invoice number is malformed")

	// ErrInvoiceSequenceExhausted is returned when a year already used MaxInvoiceSequence numbers
	ErrInvoiceSequenceExhausted = shared.NewDomainError("INVOICE_SEQUENCE_EXHAUSTED", "Invoice number sequence for the year is exhausted")

	// ErrInvoiceNumberConflict is returned when a number is already taken. Callers may retry.
	ErrInvoiceNumberConflict = shared.NewDomainError("INVOICE_NUMBER_CONFLICT", "Invoice number is already in use, please retry")
)

// NumberScope identifies one yearly invoice number sequence
type NumberScope struct {
	Prefix string
	Year   int
}

// NewNumberScope returns the scope for prefix and year, using the default prefix when blank
func NewNumberScope(prefix string, year int) NumberScope {
	prefix = strings.TrimSpace(prefix)
	if prefix == "" {
		prefix = DefaultInvoiceNumberPrefix
	}
	return NumberScope{Prefix: prefix, Year: year}
}

// Pattern returns the leading part shared by every number in the scope, e.g. "GCS-PI-2025-"
func (s NumberScope) Pattern() string {
	return fmt.Sprintf("%s-%d-", s.Prefix, s.Year)
}

// Format renders the number for seq within the scope
func (s NumberScope) Format(seq int) (string, error) {
	return FormatInvoiceNumber(s.Prefix, s.Year, seq)
}

// FormatInvoiceNumber renders {prefix}-{year}-{seq} with a four digit, zero padded seq
func FormatInvoiceNumber(prefix string, year, seq int) (string, error) {
	if seq < 1 {
		return "", shared.NewDomainError("INVALID_INVOICE_NUMBER", fmt.Sprintf("Invoice sequence must start at 1, got %d", seq))
	}
	if seq > MaxInvoiceSequence {
		return "", fmt.Errorf("%w: %s-%d", ErrInvoiceSequenceExhausted, prefix, year)
	}
	return fmt.Sprintf("%s-%d-%04d", prefix, year, seq), nil
}

// ParseInvoiceSequence extracts the sequence from a number belonging to the scope of prefix and year
func ParseInvoiceSequence(prefix string, year int, number string) (int, error) {
	scope := NumberScope{Prefix: prefix, Year: year}
	suffix, ok := strings.CutPrefix(number, scope.Pattern())
	if !ok || suffix == "" {
		return 0, fmt.Errorf("%w: %q does not start with %q", ErrInvalidInvoiceNumber, number, scope.Pattern())
	}
	for _, r := range suffix {
		if r < '0' || r > '9' {
			return 0, fmt.Errorf("%w: %q has a non-numeric suffix", ErrInvalidInvoiceNumber, number)
		}
	}
	seq, err := strconv.Atoi(suffix)
	if err != nil {
		return 0, fmt.Errorf("%w: %q: %v", ErrInvalidInvoiceNumber, number, err)
	}
	return seq, nil
}

// NextInvoiceNumber returns the number following last within the scope.
// An empty last starts the year at 1.
func NextInvoiceNumber(prefix string, year int, last string) (string, error) {
	if last == "" {
		return FormatInvoiceNumber(prefix, year, 1)
	}
	seq, err := ParseInvoiceSequence(prefix, year, last)
	if err != nil {
		return "", err
	}
	return FormatInvoiceNumber(prefix, year, seq+1)
}
