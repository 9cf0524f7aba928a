// Package query builds the filtered, ordered Entry query from the operator's
// filter state.
package query

import (
	"strings"

	"cloud.google.com/go/civil"

	"github.com/celerix-dev/guardup-admin/internal/domain"
)

// Filters is the Entries view filter state. The zero value of each field means unset.
type Filters struct {
	BuildingCode string
	StartDate    civil.Date
	EndDate      civil.Date
	UserEmail    string
}

// IsZero reports whether no filter is set.
func (f Filters) IsZero() bool {
	return f == Filters{}
}

// RawFilters carries filter values as typed by the operator.
type RawFilters struct {
	BuildingCode string `form:"buildingCode" json:"buildingCode"`
	StartDate    string `form:"startDate"    json:"startDate"`
	EndDate      string `form:"endDate"      json:"endDate"`
	UserEmail    string `form:"userEmail"    json:"userEmail"`
}

// ParseFilters trims the raw values and parses YYYY-MM-DD dates.
// All invalid fields are reported together in a domain.ValidationError.
func ParseFilters(raw RawFilters) (Filters, error) {
	f := Filters{
		BuildingCode: strings.TrimSpace(raw.BuildingCode),
		UserEmail:    strings.TrimSpace(raw.UserEmail),
	}

	var errs []domain.FieldError
	var err error

	if f.StartDate, err = parseDate(raw.StartDate); err != nil {
		errs = append(errs, domain.FieldError{Field: "startDate", Message: "must be a date in YYYY-MM-DD format"})
	}
	if f.EndDate, err = parseDate(raw.EndDate); err != nil {
		errs = append(errs, domain.FieldError{Field: "endDate", Message: "must be a date in YYYY-MM-DD format"})
	}

	if len(errs) > 0 {
		return Filters{}, &domain.ValidationError{Errors: errs}
	}
	return f, nil
}

// Raw renders the filters back into their form representation.
func (f Filters) Raw() RawFilters {
	raw := RawFilters{BuildingCode: f.BuildingCode, UserEmail: f.UserEmail}
	if !f.StartDate.IsZero() {
		raw.StartDate = f.StartDate.String()
	}
	if !f.EndDate.IsZero() {
		raw.EndDate = f.EndDate.String()
	}
	return raw
}

func parseDate(s string) (civil.Date, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return civil.Date{}, nil
	}
	return civil.ParseDate(s)
}
