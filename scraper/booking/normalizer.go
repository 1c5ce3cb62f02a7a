package booking

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"flight-scraper/models"
	"flight-scraper/scraper"
	"flight-scraper/utils"
)

// PlatformName is the registry key for Booking.com flights
const PlatformName = "booking"

// DefaultCurrency applies when priceBreakdown.currencyCode is absent
const DefaultCurrency = "EUR"

// ErrMissingSegment marks an offer without both outbound and inbound segments
var ErrMissingSegment = errors.New("missing segment")

var baggageFeatures = map[string]string{
	"PERSONAL_BAGGAGE": "personal",
	"CABIN_BAGGAGE":    "cabin",
	"CHECK_BAGGAGE":    "checked",
}

// Normalizer turns Booking.com flight search payloads into FlightOffers.
// It holds no per-call state, so repeated calls on the same payload yield
// identical results.
type Normalizer struct {
	logger *utils.Logger
}

// New creates a Booking.com normalizer
func New(logger *utils.Logger) *Normalizer {
	return &Normalizer{logger: logger}
}

// Name implements scraper.Platform
func (n *Normalizer) Name() string { return PlatformName }

// BuildRequest sets the depart/return query parameters for one date window
func (n *Normalizer) BuildRequest(base scraper.FetchRequest, window models.DateWindow) scraper.FetchRequest {
	req := base.Clone()
	req.Query.Set("depart", window.DepartDate())
	req.Query.Set("return", window.ReturnDate())
	return req
}

// Normalize decodes a raw payload and converts every offer it can.
// A payload that is empty or lacks flightOffers yields scraper.ErrNoOffers.
func (n *Normalizer) Normalize(body []byte) ([]*models.FlightOffer, error) {
	body = bytes.TrimSpace(body)
	if len(body) == 0 {
		return nil, fmt.Errorf("%w: empty body", scraper.ErrNoOffers)
	}

	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	var payload map[string]interface{}
	if err := dec.Decode(&payload); err != nil {
		return nil, fmt.Errorf("%w: decode payload: %v", scraper.ErrNoOffers, err)
	}
	return n.NormalizePayload(payload)
}

// NormalizePayload converts an already decoded payload
func (n *Normalizer) NormalizePayload(payload map[string]interface{}) ([]*models.FlightOffer, error) {
	if payload == nil {
		return nil, fmt.Errorf("%w: nil payload", scraper.ErrNoOffers)
	}
	raw, ok := payload["flightOffers"].([]interface{})
	if !ok {
		return nil, fmt.Errorf("%w: flightOffers key missing", scraper.ErrNoOffers)
	}

	offers := make([]*models.FlightOffer, 0, len(raw))
	for i, item := range raw {
		offer, err := n.NormalizeOffer(item, i)
		if err != nil {
			n.logger.Warn("Skipping offer %d: %v", i, err)
			continue
		}
		offers = append(offers, offer)
	}

	n.logger.Debug("Normalized %d/%d offers", len(offers), len(raw))
	return offers, nil
}

// NormalizeOffer converts one raw offer. Any missing key, bad index or
// malformed timestamp fails this offer only.
func (n *Normalizer) NormalizeOffer(raw interface{}, index int) (*models.FlightOffer, error) {
	offer, err := newNode(fmt.Sprintf("flightOffers[%d]", index), raw)
	if err != nil {
		return nil, err
	}

	price, err := extractPrice(offer)
	if err != nil {
		return nil, err
	}

	outboundRaw, err := offer.index("segments", 0)
	if err != nil {
		return nil, fmt.Errorf("%w: outbound: %v", ErrMissingSegment, err)
	}
	inboundRaw, err := offer.index("segments", 1)
	if err != nil {
		return nil, fmt.Errorf("%w: inbound: %v", ErrMissingSegment, err)
	}

	outbound, err := extractSegment(outboundRaw)
	if err != nil {
		return nil, fmt.Errorf("outbound: %w", err)
	}
	inbound, err := extractSegment(inboundRaw)
	if err != nil {
		return nil, fmt.Errorf("inbound: %w", err)
	}

	token := offer.optStr("token")
	link, err := BuildLink(token, outbound, inbound)
	if err != nil {
		n.logger.Debug("Offer %d has no booking link: %v", index, err)
	}

	return &models.FlightOffer{
		Index:       index,
		Price:       price,
		Outbound:    outbound,
		Inbound:     inbound,
		Baggage:     extractBaggage(offer),
		Token:       token,
		BookingLink: link,
	}, nil
}

func extractPrice(offer node) (*models.Price, error) {
	breakdown, err := offer.object("priceBreakdown")
	if err != nil {
		return nil, err
	}
	total, err := breakdown.object("total")
	if err != nil {
		return nil, err
	}
	units, err := total.integer("units")
	if err != nil {
		return nil, err
	}
	nanos, err := total.integer("nanos")
	if err != nil {
		return nil, err
	}
	if units < 0 || nanos < 0 {
		return nil, fmt.Errorf("%s: negative price units=%d nanos=%d", total.path, units, nanos)
	}

	currency := breakdown.optStr("currencyCode")
	if currency == "" {
		currency = DefaultCurrency
	}

	return &models.Price{
		Total:    priceTotal(units, nanos),
		Currency: currency,
		Units:    units,
		Nanos:    nanos,
	}, nil
}

// priceTotal divides once so that e.g. 123/450000000 is exactly 123.45
func priceTotal(units, nanos int64) float64 {
	const nano = 1_000_000_000
	if units < (1<<53)/nano {
		return float64(units*nano+nanos) / nano
	}
	return float64(units) + float64(nanos)/nano
}

func extractAirport(parent node, key string) (models.Airport, error) {
	a, err := parent.object(key)
	if err != nil {
		return models.Airport{}, err
	}
	name, err := a.str("name")
	if err != nil {
		return models.Airport{}, err
	}
	return models.Airport{
		Name:     name,
		Code:     a.optStr("code"),
		City:     a.optStr("city"),
		CityName: a.optStr("cityName"),
		Country:  a.optStr("country"),
	}, nil
}

func extractCarrier(leg node) (models.Carrier, bool) {
	carriers := leg.optList("carriersData")
	if len(carriers) == 0 {
		return models.Carrier{}, false
	}
	c, err := newNode(leg.child("carriersData[0]"), carriers[0])
	if err != nil {
		return models.Carrier{}, false
	}
	return models.Carrier{
		Name: c.optStr("name"),
		Code: c.optStr("code"),
		Logo: c.optStr("logo"),
	}, true
}

func extractSegment(seg node) (models.SegmentInfo, error) {
	departure, err := extractAirport(seg, "departureAirport")
	if err != nil {
		return models.SegmentInfo{}, err
	}
	arrival, err := extractAirport(seg, "arrivalAirport")
	if err != nil {
		return models.SegmentInfo{}, err
	}

	rawLegs, err := seg.list("legs")
	if err != nil {
		return models.SegmentInfo{}, err
	}
	if len(rawLegs) == 0 {
		return models.SegmentInfo{}, fmt.Errorf("%w: %s[0]", ErrMissingField, seg.child("legs"))
	}
	legs := make([]node, len(rawLegs))
	for i := range rawLegs {
		if legs[i], err = seg.index("legs", i); err != nil {
			return models.SegmentInfo{}, err
		}
	}

	transit := make([]models.Airport, 0, len(legs)-1)
	for i := 1; i < len(legs); i++ {
		a, err := extractAirport(legs[i-1], "arrivalAirport")
		if err != nil {
			return models.SegmentInfo{}, err
		}
		transit = append(transit, a)
	}

	mainCarrier, _ := extractCarrier(legs[0])
	legCarriers := make([]models.Carrier, 0, len(legs))
	for _, leg := range legs {
		if c, ok := extractCarrier(leg); ok {
			legCarriers = append(legCarriers, c)
		}
	}

	timeInfo, err := extractTime(seg, legs, transit)
	if err != nil {
		return models.SegmentInfo{}, err
	}

	return models.SegmentInfo{
		Departure:   departure,
		Arrival:     arrival,
		Transit:     transit,
		MainCarrier: mainCarrier,
		LegCarriers: legCarriers,
		Time:        timeInfo,
	}, nil
}

func extractTime(seg node, legs []node, transit []models.Airport) (models.TimeInfo, error) {
	departureTime, err := seg.str("departureTime")
	if err != nil {
		return models.TimeInfo{}, err
	}
	arrivalTime, err := seg.str("arrivalTime")
	if err != nil {
		return models.TimeInfo{}, err
	}
	totalTime, err := seg.integer("totalTime")
	if err != nil {
		return models.TimeInfo{}, err
	}

	layovers := make([]models.LayoverInfo, 0, len(transit))
	for i := 0; i+1 < len(legs); i++ {
		arrived, err := legs[i].str("arrivalTime")
		if err != nil {
			return models.TimeInfo{}, err
		}
		next, err := legs[i+1].str("departureTime")
		if err != nil {
			return models.TimeInfo{}, err
		}
		secs, err := utils.LayoverSeconds(arrived, next)
		if err != nil {
			return models.TimeInfo{}, fmt.Errorf("%s: %w", legs[i+1].path, err)
		}
		layovers = append(layovers, models.LayoverInfo{
			Airport:   transit[i],
			Seconds:   secs,
			Formatted: utils.FormatDuration(secs),
		})
	}

	return models.TimeInfo{
		DepartureTime:  departureTime,
		ArrivalTime:    arrivalTime,
		TotalSeconds:   int(totalTime),
		TotalFormatted: utils.FormatDuration(int(totalTime)),
		Layovers:       layovers,
	}, nil
}

func extractBaggage(offer node) models.Baggage {
	var b models.Baggage
	features := offer.optObject("brandedFareInfo").optList("features")
	for i, f := range features {
		feature, err := newNode(fmt.Sprintf("features[%d]", i), f)
		if err != nil {
			continue
		}
		field, ok := baggageFeatures[feature.optStr("featureName")]
		if !ok {
			continue
		}
		var label *string
		if feature.has("label") {
			s := feature.optStr("label")
			label = &s
		}
		switch field {
		case "personal":
			b.Personal = label
		case "cabin":
			b.Cabin = label
		case "checked":
			b.Checked = label
		}
	}
	return b
}
