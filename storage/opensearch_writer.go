package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/opensearch-project/opensearch-go"
	"github.com/opensearch-project/opensearch-go/opensearchapi"

	"flight-scraper/models"
	"flight-scraper/utils"
)

// DefaultResultsIndex receives documents when no index is given
const DefaultResultsIndex = "flight-results"

// ResultDocument is the indexed form of one aggregated result
type ResultDocument struct {
	RunID           string   `json:"run_id"`
	DepartDate      string   `json:"depart_date"`
	ReturnDate      string   `json:"return_date"`
	FlightIndex     int      `json:"flight_index"`
	Price           *float64 `json:"price,omitempty"`
	Currency        string   `json:"currency,omitempty"`
	Origin          string   `json:"origin"`
	OriginCode      string   `json:"origin_code"`
	Destination     string   `json:"destination"`
	DestinationCity string   `json:"destination_city"`
	Airline         string   `json:"airline"`
	InboundAirline  string   `json:"inbound_airline"`
	OutboundStops   int      `json:"outbound_stops"`
	InboundStops    int      `json:"inbound_stops"`
	OutboundSeconds int      `json:"outbound_seconds"`
	InboundSeconds  int      `json:"inbound_seconds"`
	BookingLink     string   `json:"booking_link,omitempty"`
	IndexedAt       string   `json:"indexed_at"`
}

// OpenSearchWriter bulk-indexes results so they can be searched across runs
type OpenSearchWriter struct {
	client *opensearch.Client
	logger *utils.Logger
	now    func() time.Time
}

// NewOpenSearchWriter creates a client for the given node addresses
func NewOpenSearchWriter(addresses []string, username, password string, logger *utils.Logger) (*OpenSearchWriter, error) {
	client, err := opensearch.NewClient(opensearch.Config{
		Addresses: addresses,
		Username:  username,
		Password:  password,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create OpenSearch client: %w", err)
	}
	return &OpenSearchWriter{client: client, logger: logger, now: time.Now}, nil
}

// NewResultDocument converts a result for indexing
func NewResultDocument(runID string, r models.AggregatedResult, indexedAt time.Time) ResultDocument {
	doc := ResultDocument{
		RunID:       runID,
		DepartDate:  r.Window.DepartDate(),
		ReturnDate:  r.Window.ReturnDate(),
		FlightIndex: r.FlightIndex,
		IndexedAt:   indexedAt.UTC().Format(time.RFC3339),
	}
	o := r.Offer
	if o == nil {
		return doc
	}
	if o.Price != nil {
		total := o.Price.Total
		doc.Price = &total
		doc.Currency = o.Price.Currency
	}
	doc.Origin = o.Outbound.Departure.Name
	doc.OriginCode = o.Outbound.Departure.Code
	doc.Destination = o.Outbound.Arrival.Name
	doc.DestinationCity = o.Outbound.Arrival.City
	doc.Airline = o.Outbound.MainCarrier.Name
	doc.InboundAirline = o.Inbound.MainCarrier.Name
	doc.OutboundStops = len(o.Outbound.Transit)
	doc.InboundStops = len(o.Inbound.Transit)
	doc.OutboundSeconds = o.Outbound.Time.TotalSeconds
	doc.InboundSeconds = o.Inbound.Time.TotalSeconds
	doc.BookingLink = o.BookingLink
	return doc
}

// DocumentID is stable per run, date and offer position
func DocumentID(runID string, r models.AggregatedResult) string {
	return runID + "-" + r.Window.DepartDate() + "-" + strconv.Itoa(r.FlightIndex)
}

// bulkBody renders the NDJSON body of a bulk index request
func bulkBody(index, runID string, results []models.AggregatedResult, indexedAt time.Time) (*bytes.Buffer, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	for _, r := range results {
		meta := map[string]interface{}{
			"index": map[string]interface{}{"_index": index, "_id": DocumentID(runID, r)},
		}
		if err := enc.Encode(meta); err != nil {
			return nil, err
		}
		if err := enc.Encode(NewResultDocument(runID, r, indexedAt)); err != nil {
			return nil, err
		}
	}
	return &buf, nil
}

// Export bulk-indexes results into destination (default DefaultResultsIndex)
func (w *OpenSearchWriter) Export(ctx context.Context, results []models.AggregatedResult, destination string) error {
	if len(results) == 0 {
		return nil
	}
	index := destination
	if index == "" {
		index = DefaultResultsIndex
	}

	body, err := bulkBody(index, RunIDFrom(ctx), results, w.now())
	if err != nil {
		return fmt.Errorf("encode bulk body: %w", err)
	}

	req := opensearchapi.BulkRequest{Body: body, Refresh: "true"}
	res, err := req.Do(ctx, w.client)
	if err != nil {
		return fmt.Errorf("bulk index failed: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		msg, _ := io.ReadAll(io.LimitReader(res.Body, 1024))
		return fmt.Errorf("bulk index failed: %s %s", res.Status(), string(msg))
	}

	var parsed struct {
		Errors bool `json:"errors"`
	}
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return fmt.Errorf("decode bulk response: %w", err)
	}
	if parsed.Errors {
		w.logger.Warn("Some documents were rejected by OpenSearch index %s", index)
	}

	w.logger.Info("Indexed %d results into OpenSearch index %s", len(results), index)
	return nil
}
