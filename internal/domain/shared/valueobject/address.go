package valueobject

import (
	"strings"
)

// Address is a value object for a postal address.
// Every part is optional; it is immutable and all operations return new values.
type Address struct {
	street  string
	city    string
	country string
}

// NewAddress creates an Address, trimming surrounding whitespace
func NewAddress(street, city, country string) Address {
	return Address{
		street:  strings.TrimSpace(street),
		city:    strings.TrimSpace(city),
		country: strings.TrimSpace(country),
	}
}

// Street returns the street line
func (a Address) Street() string {
	return a.street
}

// City returns the city
func (a Address) City() string {
	return a.city
}

// Country returns the country
func (a Address) Country() string {
	return a.country
}

// IsEmpty returns true if no part of the address is set
func (a Address) IsEmpty() bool {
	return a.street == "" && a.city == "" && a.country == ""
}

// String joins the non-empty parts with ", "
func (a Address) String() string {
	parts := make([]string, 0, 3)
	for _, p := range []string{a.street, a.city, a.country} {
		if p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, ", ")
}

// Equals checks if two addresses are equal
func (a Address) Equals(other Address) bool {
	return a.street == other.street && a.city == other.city && a.country == other.country
}
