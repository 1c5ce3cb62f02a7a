package models

import (
	"math"
	"strings"
	"time"
)

// DateLayout is the YYYY-MM-DD layout used for travel dates
const DateLayout = "2006-01-02"

// Airport is derived from the nested airport objects of a segment or leg
type Airport struct {
	Name     string
	Code     string
	City     string // provider city code, e.g. "PAR"
	CityName string
	Country  string
}

// Carrier represents an operating or marketing airline
type Carrier struct {
	Name string
	Code string
	Logo string
}

// LayoverInfo describes the gap between two consecutive legs
type LayoverInfo struct {
	Airport   Airport
	Seconds   int
	Formatted string
}

// TimeInfo holds the schedule of one direction of travel
type TimeInfo struct {
	DepartureTime  string // YYYY-MM-DDTHH:MM:SS, local to the airport
	ArrivalTime    string
	TotalSeconds   int
	TotalFormatted string
	Layovers       []LayoverInfo
}

// SegmentInfo is one direction of travel (outbound or inbound).
// len(Transit) == number of legs - 1.
type SegmentInfo struct {
	Departure   Airport
	Arrival     Airport
	Transit     []Airport
	MainCarrier Carrier
	LegCarriers []Carrier
	Time        TimeInfo
}

// Price is the total price breakdown of an offer
type Price struct {
	Total    float64
	Currency string
	Units    int64
	Nanos    int64
}

// Baggage maps the allowance labels; nil means the provider gave no info
type Baggage struct {
	Personal *string
	Cabin    *string
	Checked  *string
}

// FlightOffer is one priced round-trip itinerary, built once and never mutated
type FlightOffer struct {
	Index       int
	Price       *Price
	Outbound    SegmentInfo
	Inbound     SegmentInfo
	Baggage     Baggage
	Token       string
	BookingLink string
}

// TransitSummary joins transit airport names with arrows, or "Direct"
func (s SegmentInfo) TransitSummary() string {
	if len(s.Transit) == 0 {
		return "Direct"
	}
	names := make([]string, len(s.Transit))
	for i, a := range s.Transit {
		names[i] = a.Name
	}
	return strings.Join(names, " → ")
}

// DisplayTime renders a local ISO timestamp as "YYYY-MM-DD HH:MM:SS"
func DisplayTime(ts string) string {
	return strings.Replace(ts, "T", " ", 1)
}

// DateWindow is one candidate (departure, return) pair
type DateWindow struct {
	Depart time.Time
	Return time.Time
}

// DepartDate returns the departure date as YYYY-MM-DD
func (w DateWindow) DepartDate() string { return w.Depart.Format(DateLayout) }

// ReturnDate returns the return date as YYYY-MM-DD
func (w DateWindow) ReturnDate() string { return w.Return.Format(DateLayout) }

// AggregatedResult is an offer tagged with the date window it was found for
type AggregatedResult struct {
	Window      DateWindow
	FlightIndex int
	Offer       *FlightOffer
}

// PriceTotal returns the ranking key; offers without a price sort last
func (r AggregatedResult) PriceTotal() float64 {
	if r.Offer == nil || r.Offer.Price == nil {
		return math.Inf(1)
	}
	return r.Offer.Price.Total
}

// HasPrice reports whether the result carries a usable price
func (r AggregatedResult) HasPrice() bool {
	return r.Offer != nil && r.Offer.Price != nil
}

// InsightReport holds price statistics over a ranked result set
type InsightReport struct {
	TotalResults  int
	PricedResults int
	DatesSearched int
	DatesWithData int
	Currency      string
	AveragePrice  float64
	MinPrice      float64
	MaxPrice      float64
	Cheapest      *AggregatedResult
	ResultsByDate map[string]int
}
