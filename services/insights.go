package services

import (
	"flight-scraper/models"
	"flight-scraper/utils"
)

// InsightService computes price statistics from ranked results
type InsightService struct {
	logger *utils.Logger
}

// NewInsightService creates a new InsightService
func NewInsightService(logger *utils.Logger) *InsightService {
	return &InsightService{logger: logger}
}

// Generate computes the report. results are expected in ranked order, so the
// first priced one is the cheapest.
func (s *InsightService) Generate(results []models.AggregatedResult, datesSearched int) *models.InsightReport {
	report := &models.InsightReport{
		DatesSearched: datesSearched,
		ResultsByDate: make(map[string]int),
	}

	if len(results) == 0 {
		s.logger.Warn("No results to generate insights from")
		return report
	}

	var totalPrice float64
	for i := range results {
		r := results[i]
		report.TotalResults++
		report.ResultsByDate[r.Window.DepartDate()]++

		if !r.HasPrice() {
			continue
		}
		price := r.Offer.Price.Total
		report.PricedResults++
		totalPrice += price

		if report.Cheapest == nil || price < report.MinPrice {
			report.MinPrice = price
			report.Cheapest = &results[i]
		}
		if price > report.MaxPrice {
			report.MaxPrice = price
		}
		if report.Currency == "" {
			report.Currency = r.Offer.Price.Currency
		}
	}

	report.DatesWithData = len(report.ResultsByDate)
	if report.PricedResults > 0 {
		report.AveragePrice = totalPrice / float64(report.PricedResults)
	}
	return report
}
