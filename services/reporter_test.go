package services

import (
	"bytes"
	"strings"
	"testing"

	"github.com/magiconair/properties/assert"

	"flight-scraper/models"
	"flight-scraper/utils"
)

func strPtr(s string) *string { return &s }

func sampleOffer() *models.FlightOffer {
	pvg := models.Airport{Name: "Shanghai Pudong", Code: "PVG"}
	return &models.FlightOffer{
		Price: &models.Price{Total: 123.45, Currency: "EUR"},
		Outbound: models.SegmentInfo{
			Departure:   models.Airport{Name: "Beijing Capital", Code: "PEK"},
			Arrival:     models.Airport{Name: "Paris CDG", Code: "CDG", City: "PAR"},
			Transit:     []models.Airport{pvg},
			MainCarrier: models.Carrier{Name: "China Eastern", Code: "MU"},
			Time: models.TimeInfo{
				DepartureTime:  "2025-07-14T08:00:00",
				ArrivalTime:    "2025-07-14T20:30:00",
				TotalFormatted: "18h 30m",
				Layovers:       []models.LayoverInfo{{Airport: pvg, Seconds: 5400, Formatted: "1h 30m"}},
			},
		},
		Inbound: models.SegmentInfo{
			Departure:   models.Airport{Name: "Paris CDG", Code: "CDG"},
			Arrival:     models.Airport{Name: "Beijing Capital", Code: "PEK"},
			MainCarrier: models.Carrier{Name: "Air China", Code: "CA"},
			Time: models.TimeInfo{
				DepartureTime:  "2025-08-19T13:15:00",
				ArrivalTime:    "2025-08-20T06:05:00",
				TotalFormatted: "10h 50m",
			},
		},
		Baggage:     models.Baggage{Cabin: strPtr("1 cabin bag")},
		BookingLink: "https://flights.booking.com/flights/PEK.AIRPORT-PAR.CITY/tok/",
	}
}

func TestFormatResults(t *testing.T) {
	ws := windows(t, 2)
	out := FormatResults([]models.AggregatedResult{
		{Window: ws[0], Offer: sampleOffer()},
		{Window: ws[1], Offer: unpriced()},
	})

	lines := strings.Split(out, "\n")
	assert.Equal(t, len(lines), 2)
	assert.Equal(t, lines[0], "Depart: 2025-07-01, Return: 2025-07-11, Price: 123.45 EUR, "+
		"From: Beijing Capital, To: Paris CDG, Airline: China Eastern, "+
		"Link: https://flights.booking.com/flights/PEK.AIRPORT-PAR.CITY/tok/")
	if !strings.Contains(lines[1], "Price: unavailable") {
		t.Errorf("unpriced line = %q", lines[1])
	}
}

func TestFormatResultsEmpty(t *testing.T) {
	assert.Equal(t, FormatResults(nil), "No flights found")
}

func TestFormatOffer(t *testing.T) {
	out := FormatOffer(sampleOffer())

	for _, want := range []string{
		"Price: 123.45 EUR",
		"Main carrier: China Eastern (MU)",
		"Return carrier: Air China (CA)",
		"2025-07-14 08:00:00 Beijing Capital → 2025-07-14 20:30:00 Paris CDG",
		"Flight time: 18h 30m",
		"Transit: Shanghai Pudong (layover 1h 30m)",
		"Cabin bag: 1 cabin bag",
		"Booking link: https://flights.booking.com/",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("FormatOffer() missing %q in:\n%s", want, out)
		}
	}
	if strings.Contains(out, "Checked bag") {
		t.Error("absent baggage must not be rendered")
	}
	assert.Equal(t, FormatOffer(nil), "")
}

func TestPrintInsightReport(t *testing.T) {
	ws := windows(t, 1)
	results := []models.AggregatedResult{{Window: ws[0], Offer: sampleOffer()}}
	report := NewInsightService(utils.NewNopLogger()).Generate(results, 1)

	var buf bytes.Buffer
	PrintInsightReport(&buf, report)
	out := buf.String()

	for _, want := range []string{
		"Dates Searched          : 1",
		"Minimum Price           : 123.45 EUR",
		"Dates    : 2025-07-01 → 2025-07-11",
		"2025-07-01:",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("report missing %q in:\n%s", want, out)
		}
	}
}
