package utils

import (
	"fmt"
	"regexp"
	"time"
)

// BusinessDayLayout is the accounting-date format used across the
// ledger, closures and stats tables.
const BusinessDayLayout = "2006-01-02"

var businessDayRe = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

// BusinessDay files t under its accounting date.
func BusinessDay(t time.Time) string {
	return t.Format(BusinessDayLayout)
}

// CurrentBusinessDay returns today's accounting date.
func CurrentBusinessDay() string {
	return BusinessDay(time.Now())
}

// ValidBusinessDay reports whether s is a well-formed accounting date.
func ValidBusinessDay(s string) bool {
	if !businessDayRe.MatchString(s) {
		return false
	}
	_, err := time.Parse(BusinessDayLayout, s)
	return err == nil
}

// ParseBusinessDay parses s, rejecting anything that is not YYYY-MM-DD.
func ParseBusinessDay(s string) (time.Time, error) {
	if !businessDayRe.MatchString(s) {
		return time.Time{}, fmt.Errorf("invalid business day %q", s)
	}
	return time.Parse(BusinessDayLayout, s)
}
