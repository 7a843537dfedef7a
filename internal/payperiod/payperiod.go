package payperiod

import (
	"time"

	"github.com/dcastellanos/shiftpay-backend/pkg/config"
	"github.com/dcastellanos/shiftpay-backend/pkg/enums"
)

// Period is the 14-day window of worked time a pay date compensates, plus the
// payroll group that runs on that date.
type Period struct {
	PayDate      time.Time          `json:"pay_date"`
	PeriodStart  time.Time          `json:"period_start"`
	PeriodEnd    time.Time          `json:"period_end"`
	PayrollGroup enums.PayrollGroup `json:"payroll_group"`
}

// Calculator derives pay periods from the configured biweekly calendar.
// The reference date is a known pay date belonging to group A; the group of
// any other pay date is the parity of whole weeks between the two.
type Calculator struct {
	reference  time.Time
	payWeekday time.Weekday
}

// NewCalculator builds a calculator from the payroll calendar configuration.
func NewCalculator(cfg config.PayrollConfig) *Calculator {
	return &Calculator{
		reference:  truncateUTC(cfg.Reference()),
		payWeekday: cfg.Weekday(),
	}
}

// Derive maps a pay date to its payroll group and 14-day period window.
// The period closes 9 days before the pay date and opens 13 days before that.
// Callers are responsible for passing a date that falls on the pay weekday;
// the calculation itself does not validate it.
func (c *Calculator) Derive(payDate time.Time) Period {
	day := truncateUTC(payDate)
	periodEnd := day.AddDate(0, 0, -9)
	periodStart := periodEnd.AddDate(0, 0, -13)

	return Period{
		PayDate:      day,
		PeriodStart:  periodStart,
		PeriodEnd:    periodEnd,
		PayrollGroup: c.groupFor(day),
	}
}

// groupFor computes the payroll group from whole-week parity against the
// reference date. Even parity is group A; the reference date itself is a
// group A pay date. Whole-day truncation on UTC-normalized dates keeps the
// week count stable across daylight-saving transitions.
func (c *Calculator) groupFor(day time.Time) enums.PayrollGroup {
	days := int(day.Sub(c.reference).Hours() / 24)
	weeks := days / 7
	parity := ((weeks % 2) + 2) % 2
	if parity == 0 {
		return enums.PayrollGroupA
	}
	return enums.PayrollGroupB
}

// IsPayWeekday reports whether the date lands on the configured pay weekday.
func (c *Calculator) IsPayWeekday(date time.Time) bool {
	return truncateUTC(date).Weekday() == c.payWeekday
}

// NextPayDates lists the next n pay dates on or after from.
func (c *Calculator) NextPayDates(from time.Time, n int) []time.Time {
	if n <= 0 {
		return nil
	}
	day := truncateUTC(from)
	for day.Weekday() != c.payWeekday {
		day = day.AddDate(0, 0, 1)
	}
	dates := make([]time.Time, 0, n)
	for i := 0; i < n; i++ {
		dates = append(dates, day)
		day = day.AddDate(0, 0, 7)
	}
	return dates
}

func truncateUTC(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}
