package services

import (
	"fmt"
	"strings"
	"time"

	"flight-scraper/models"
)

// ParseStartDate parses a YYYY-MM-DD start date
func ParseStartDate(s string) (time.Time, error) {
	d, err := time.Parse(models.DateLayout, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid start date %q (want YYYY-MM-DD): %w", s, err)
	}
	return d, nil
}

// Generate enumerates count consecutive departure dates starting at start,
// each paired with a return date returnDays later. count <= 0 yields nothing.
func Generate(start time.Time, count, returnDays int) []models.DateWindow {
	if count <= 0 {
		return []models.DateWindow{}
	}
	windows := make([]models.DateWindow, 0, count)
	for i := 0; i < count; i++ {
		depart := start.AddDate(0, 0, i)
		windows = append(windows, models.DateWindow{
			Depart: depart,
			Return: depart.AddDate(0, 0, returnDays),
		})
	}
	return windows
}
