// Package models contains GORM persistence models that map to database tables.
// Domain entities carry no ORM tags; each model converts to and from its
// domain type with ToDomain / FromDomain.
//
// Structure:
//   - base.go: shared id, timestamp and version columns
//   - partner.go: clients and contacts
//   - catalog.go: products
//   - trade.go: proforma invoices, invoice items and invoice number sequences
package models
