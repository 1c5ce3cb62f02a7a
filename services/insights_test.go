package services

import (
	"testing"

	"github.com/magiconair/properties/assert"

	"flight-scraper/models"
	"flight-scraper/utils"
)

func TestInsightServiceGenerate(t *testing.T) {
	ws := windows(t, 2)
	results := []models.AggregatedResult{
		{Window: ws[1], Offer: priced(150)},
		{Window: ws[0], Offer: priced(300)},
		{Window: ws[0], Offer: unpriced()},
	}

	report := NewInsightService(utils.NewNopLogger()).Generate(results, 4)

	assert.Equal(t, report.DatesSearched, 4)
	assert.Equal(t, report.DatesWithData, 2)
	assert.Equal(t, report.TotalResults, 3)
	assert.Equal(t, report.PricedResults, 2)
	assert.Equal(t, report.MinPrice, 150.0)
	assert.Equal(t, report.MaxPrice, 300.0)
	assert.Equal(t, report.AveragePrice, 225.0)
	assert.Equal(t, report.Currency, "EUR")
	assert.Equal(t, report.Cheapest.Window.DepartDate(), "2025-07-02")
	assert.Equal(t, report.ResultsByDate, map[string]int{"2025-07-01": 2, "2025-07-02": 1})
}

func TestInsightServiceEmpty(t *testing.T) {
	report := NewInsightService(utils.NewNopLogger()).Generate(nil, 3)

	assert.Equal(t, report.DatesSearched, 3)
	assert.Equal(t, report.TotalResults, 0)
	if report.Cheapest != nil {
		t.Errorf("expected no cheapest result, got %+v", report.Cheapest)
	}
}

func TestInsightServiceOnlyUnpriced(t *testing.T) {
	ws := windows(t, 1)
	report := NewInsightService(utils.NewNopLogger()).Generate([]models.AggregatedResult{
		{Window: ws[0], Offer: unpriced()},
	}, 1)

	assert.Equal(t, report.PricedResults, 0)
	assert.Equal(t, report.AveragePrice, 0.0)
	if report.Cheapest != nil {
		t.Errorf("expected no cheapest result, got %+v", report.Cheapest)
	}
}
