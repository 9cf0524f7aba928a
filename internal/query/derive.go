package query

import (
	"time"

	"cloud.google.com/go/civil"

	"github.com/celerix-dev/guardup-admin/pkg/docstore"
	"github.com/celerix-dev/guardup-admin/pkg/schema"
)

// RecencyWindowDays is how far back the query reaches when no end date is set.
const RecencyWindowDays = 7

// Derive composes the Entry query for a filter state. It has no side effects:
// the same filters, now and loc always yield the same query.
//
// Without an EndDate the result is restricted to the recency window (start of
// the day RecencyWindowDays before now), whether or not a StartDate is set.
// With an EndDate there is no recency window.
func Derive(f Filters, now time.Time, loc *time.Location) docstore.Query {
	if loc == nil {
		loc = time.Local
	}

	q := docstore.NewQuery(schema.CollectionEntries).OrderBy(schema.FieldTimestamp, docstore.Desc)

	if f.BuildingCode != "" {
		q = q.Where(schema.FieldBuildingCode, docstore.OpEqual, f.BuildingCode)
	}

	if !f.StartDate.IsZero() {
		q = q.Where(schema.FieldTimestamp, docstore.OpGreaterOrEqual, StartOfDay(f.StartDate, loc))
	}

	if !f.EndDate.IsZero() {
		q = q.Where(schema.FieldTimestamp, docstore.OpLessOrEqual, EndOfDay(f.EndDate, loc))
	} else {
		// TODO: confirm with the product owners whether a StartDate alone should
		// also lift the window. Kept as-is until then.
		q = q.Where(schema.FieldTimestamp, docstore.OpGreaterOrEqual, WindowStart(now, loc))
	}

	if f.UserEmail != "" {
		q = q.Where(schema.FieldUserEmail, docstore.OpEqual, f.UserEmail)
	}

	return q
}

// StartOfDay returns 00:00:00.000 of d in loc.
func StartOfDay(d civil.Date, loc *time.Location) time.Time {
	return time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, loc)
}

// EndOfDay returns 23:59:59.999 of d in loc.
func EndOfDay(d civil.Date, loc *time.Location) time.Time {
	return time.Date(d.Year, d.Month, d.Day, 23, 59, 59, int(999*time.Millisecond), loc)
}

// WindowStart returns the lower bound of the recency window relative to now.
func WindowStart(now time.Time, loc *time.Location) time.Time {
	return StartOfDay(civil.DateOf(now.In(loc)).AddDays(-RecencyWindowDays), loc)
}
