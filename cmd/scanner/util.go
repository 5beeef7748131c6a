package main

import "time"

const dateLayout = "20060102"

// nextDate returns the calendar day after date (YYYYMMDD). Callers
// validate the format before looping with this.
func nextDate(date string) string {
	t, err := time.Parse(dateLayout, date)
	if err != nil {
		return date
	}
	return t.AddDate(0, 0, 1).Format(dateLayout)
}
