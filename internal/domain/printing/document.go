package printing

import (
	"path"
	"strings"
)

// ArchivePrefix is the storage folder of archived invoice PDFs
const ArchivePrefix = "proforma-invoices"

// ArchiveKey returns the storage key of an invoice PDF, e.g.
// "proforma-invoices/GCS-PI-2025-0001.pdf".
func ArchiveKey(invoiceNumber string) string {
	return path.Join(ArchivePrefix, PDFFilename(invoiceNumber))
}

// PDFFilename returns the download filename of an invoice PDF.
// Path separators and quotes are replaced so the name is safe in headers and keys.
func PDFFilename(invoiceNumber string) string {
	name := strings.NewReplacer("/", "-", "\\", "-", "\"", "", "\n", "", "\r", "").Replace(strings.TrimSpace(invoiceNumber))
	if name == "" {
		name = "proforma-invoice"
	}
	return name + ".pdf"
}
