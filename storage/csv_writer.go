package storage

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"flight-scraper/models"
	"flight-scraper/utils"
)

// CSVHeader is the column set of the results file
var CSVHeader = []string{
	"departure_date", "return_date", "price", "currency",
	"origin", "destination", "outbound_departure_time", "outbound_arrival_time",
	"outbound_flight_time", "outbound_transit", "airline",
	"inbound_departure_time", "inbound_arrival_time", "inbound_flight_time",
	"inbound_transit", "inbound_airline", "personal_item",
	"cabin_baggage", "checked_baggage", "booking_link",
}

// CSVWriter handles writing ranked results to a CSV file
type CSVWriter struct {
	filePath string
	logger   *utils.Logger
}

// NewCSVWriter creates a new CSVWriter with a default file path
func NewCSVWriter(filePath string, logger *utils.Logger) *CSVWriter {
	return &CSVWriter{filePath: filePath, logger: logger}
}

// Path returns the file the writer uses when no destination is given
func (w *CSVWriter) Path() string { return w.filePath }

// Export writes results to destination, or to the default path when empty
func (w *CSVWriter) Export(_ context.Context, results []models.AggregatedResult, destination string) error {
	path := destination
	if path == "" {
		path = w.filePath
	}

	// Ensure output directory exists
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create CSV file: %w", err)
	}
	defer file.Close()

	writer := csv.NewWriter(file)

	if err := writer.Write(CSVHeader); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}

	for _, r := range results {
		if err := writer.Write(ResultRow(r)); err != nil {
			w.logger.Error("Failed to write CSV row for %s: %v", r.Window.DepartDate(), err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return fmt.Errorf("failed to flush CSV: %w", err)
	}

	w.logger.Info("Results written to: %s (%d rows)", path, len(results))
	return nil
}

// ResultRow flattens one result into CSVHeader column order
func ResultRow(r models.AggregatedResult) []string {
	row := make([]string, len(CSVHeader))
	row[0] = r.Window.DepartDate()
	row[1] = r.Window.ReturnDate()
	row[9] = "Direct"
	row[14] = "Direct"

	o := r.Offer
	if o == nil {
		return row
	}
	if o.Price != nil {
		row[2] = strconv.FormatFloat(o.Price.Total, 'f', -1, 64)
		row[3] = o.Price.Currency
	}

	out, in := o.Outbound, o.Inbound
	row[4] = out.Departure.Name
	row[5] = out.Arrival.Name
	row[6] = models.DisplayTime(out.Time.DepartureTime)
	row[7] = models.DisplayTime(out.Time.ArrivalTime)
	row[8] = out.Time.TotalFormatted
	row[9] = out.TransitSummary()
	row[10] = out.MainCarrier.Name
	row[11] = models.DisplayTime(in.Time.DepartureTime)
	row[12] = models.DisplayTime(in.Time.ArrivalTime)
	row[13] = in.Time.TotalFormatted
	row[14] = in.TransitSummary()
	row[15] = in.MainCarrier.Name
	row[16] = deref(o.Baggage.Personal)
	row[17] = deref(o.Baggage.Cabin)
	row[18] = deref(o.Baggage.Checked)
	row[19] = o.BookingLink
	return row
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
