package domain

import (
	"errors"
	"time"
)

// DateLayout is the ISO calendar date format used in URLs, storage and report records.
const DateLayout = "2006-01-02"

var ErrInvalidDateRange = errors.New("date range start must not be after end")

// City identifies the active city scope for all report queries.
type City struct {
	City string `json:"city"`
	Name string `json:"name,omitempty"`
}

func (c *City) IsZero() bool {
	return c == nil || c.City == ""
}

// DateRange is used by range based reports such as the driver trip summary.
type DateRange struct {
	Start string `json:"start,omitempty"`
	End   string `json:"end,omitempty"`
}

func (r DateRange) IsZero() bool {
	return r.Start == "" && r.End == ""
}

// Validate checks that both ends are ISO dates and that start <= end when both are set.
func (r DateRange) Validate() error {
	var start, end time.Time
	var err error
	if r.Start != "" {
		if start, err = time.Parse(DateLayout, r.Start); err != nil {
			return err
		}
	}
	if r.End != "" {
		if end, err = time.Parse(DateLayout, r.End); err != nil {
			return err
		}
	}
	if r.Start != "" && r.End != "" && start.After(end) {
		return ErrInvalidDateRange
	}
	return nil
}

// Snapshot is a point-in-time copy of the shared navigation context.
type Snapshot struct {
	City      *City     `json:"selectedCity,omitempty"`
	Date      string    `json:"selectedDate,omitempty"`
	DateRange DateRange `json:"dateRange"`
}

func (s Snapshot) CityName() string {
	if s.City.IsZero() {
		return ""
	}
	return s.City.City
}

// IsDate reports whether v is a well formed ISO calendar date.
func IsDate(v string) bool {
	_, err := time.Parse(DateLayout, v)
	return err == nil
}
