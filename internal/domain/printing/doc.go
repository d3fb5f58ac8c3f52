// Package printing holds the page setup and document naming rules for
// rendered proforma invoices.
package printing
