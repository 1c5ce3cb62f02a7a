package booking

import (
	"errors"
	"fmt"
	"strings"

	"flight-scraper/models"
	"flight-scraper/utils"
)

const linkBaseURL = "https://flights.booking.com/flights/"

// ErrIncompleteLink is returned when a deep link cannot be fully built
var ErrIncompleteLink = errors.New("incomplete booking link")

// BuildLink reconstructs the offer's deep link. If any of token, origin
// airport code, destination city code or the two dates is missing it
// returns "" and ErrIncompleteLink instead of a partial URL.
func BuildLink(token string, outbound, inbound models.SegmentInfo) (string, error) {
	from := strings.TrimSpace(outbound.Departure.Code)
	toCity := strings.TrimSpace(outbound.Arrival.City)
	depart := utils.DatePart(outbound.Time.DepartureTime)
	ret := utils.DatePart(inbound.Time.DepartureTime)
	token = strings.TrimSpace(token)

	var missing []string
	for _, f := range []struct{ name, value string }{
		{"token", token},
		{"origin airport code", from},
		{"destination city code", toCity},
		{"depart date", depart},
		{"return date", ret},
	} {
		if f.value == "" {
			missing = append(missing, f.name)
		}
	}
	if len(missing) > 0 {
		return "", fmt.Errorf("%w: missing %s", ErrIncompleteLink, strings.Join(missing, ", "))
	}

	fromParam := from + ".AIRPORT"
	toParam := toCity + ".CITY"

	var b strings.Builder
	b.WriteString(linkBaseURL)
	b.WriteString(fromParam + "-" + toParam + "/")
	b.WriteString(token + "/")
	// fixed key order; the token and values are inserted as given
	b.WriteString("?type=ROUNDTRIP&adults=1&cabinClass=ECONOMY&children=")
	b.WriteString("&from=" + fromParam)
	b.WriteString("&to=" + toParam)
	b.WriteString("&depart=" + depart)
	b.WriteString("&return=" + ret)
	return b.String(), nil
}
