package dto

import (
	"strconv"
	"time"

	"github.com/Temutjin2k/taximeter/internal/domain/models"
	"github.com/Temutjin2k/taximeter/pkg/validator"
)

const dateLayout = "2006-01-02"

// ReportQuery holds the raw query parameters of the report endpoints.
type ReportQuery struct {
	Date  string
	From  string
	To    string
	Limit string

	date  time.Time
	rng   models.TimeRange
	limit int
}

// ParseDay validates the "date" parameter (YYYY-MM-DD, defaults to today).
func (q *ReportQuery) ParseDay(v *validator.Validator, now time.Time) {
	q.date = now
	if q.Date == "" {
		return
	}
	d, err := time.ParseInLocation(dateLayout, q.Date, now.Location())
	if err != nil {
		v.AddError("date", "must be in YYYY-MM-DD format")
		return
	}
	q.date = d
}

// ParseMonth validates the "date" parameter (YYYY-MM, defaults to this month).
func (q *ReportQuery) ParseMonth(v *validator.Validator, now time.Time) {
	q.date = now
	if q.Date == "" {
		return
	}
	d, err := time.ParseInLocation("2006-01", q.Date, now.Location())
	if err != nil {
		v.AddError("date", "must be in YYYY-MM format")
		return
	}
	q.date = d
}

// ParseRange validates "from", "to" (RFC 3339 or YYYY-MM-DD) and "limit".
// Missing bounds default to the current day.
func (q *ReportQuery) ParseRange(v *validator.Validator, now time.Time) {
	q.rng = models.DayRange(now)
	if q.From != "" {
		if ts, ok := parseBound(q.From, now.Location()); ok {
			q.rng.From = ts
		} else {
			v.AddError("from", "must be RFC 3339 or YYYY-MM-DD")
		}
	}
	if q.To != "" {
		if ts, ok := parseBound(q.To, now.Location()); ok {
			q.rng.To = ts
		} else {
			v.AddError("to", "must be RFC 3339 or YYYY-MM-DD")
		}
	}
	if v.Valid() {
		v.Check(q.rng.Valid(), "to", "must be after from")
	}

	if q.Limit != "" {
		n, err := strconv.Atoi(q.Limit)
		v.Check(err == nil && n > 0, "limit", "must be a positive integer")
		q.limit = n
	}
}

func (q *ReportQuery) DateValue() time.Time    { return q.date }
func (q *ReportQuery) Range() models.TimeRange { return q.rng }
func (q *ReportQuery) LimitValue() int         { return q.limit }

func parseBound(s string, loc *time.Location) (time.Time, bool) {
	if ts, err := time.Parse(time.RFC3339, s); err == nil {
		return ts, true
	}
	if ts, err := time.ParseInLocation(dateLayout, s, loc); err == nil {
		return ts, true
	}
	return time.Time{}, false
}
