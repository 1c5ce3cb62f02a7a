package services

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"flight-scraper/models"
)

// PrintInsightReport formats and prints the insight report
func PrintInsightReport(w io.Writer, report *models.InsightReport) {
	border := strings.Repeat("═", 55)
	thin := strings.Repeat("─", 55)

	fmt.Fprintf(w, "\n╔%s╗\n", border)
	fmt.Fprintf(w, "║%s║\n", center("CHEAPEST FLIGHTS ACROSS DATES", 55))
	fmt.Fprintf(w, "╚%s╝\n", border)

	fmt.Fprintf(w, "\n OVERVIEW\n%s\n", thin)
	fmt.Fprintf(w, "  Dates Searched          : %d\n", report.DatesSearched)
	fmt.Fprintf(w, "  Dates With Offers       : %d\n", report.DatesWithData)
	fmt.Fprintf(w, "  Offers Collected        : %d\n", report.TotalResults)
	fmt.Fprintf(w, "  Offers With Price       : %d\n", report.PricedResults)
	if report.PricedResults > 0 {
		fmt.Fprintf(w, "  Average Price           : %.2f %s\n", report.AveragePrice, report.Currency)
		fmt.Fprintf(w, "  Minimum Price           : %.2f %s\n", report.MinPrice, report.Currency)
		fmt.Fprintf(w, "  Maximum Price           : %.2f %s\n", report.MaxPrice, report.Currency)
	}

	if c := report.Cheapest; c != nil && c.Offer != nil {
		fmt.Fprintf(w, "\n CHEAPEST ITINERARY\n%s\n", thin)
		fmt.Fprintf(w, "  Dates    : %s → %s\n", c.Window.DepartDate(), c.Window.ReturnDate())
		fmt.Fprintf(w, "  Price    : %.2f %s\n", c.Offer.Price.Total, c.Offer.Price.Currency)
		fmt.Fprintf(w, "  Airline  : %s\n", c.Offer.Outbound.MainCarrier.Name)
		fmt.Fprintf(w, "  Route    : %s → %s\n", c.Offer.Outbound.Departure.Name, c.Offer.Outbound.Arrival.Name)
		if c.Offer.BookingLink != "" {
			fmt.Fprintf(w, "  Link     : %s\n", c.Offer.BookingLink)
		}
	}

	if len(report.ResultsByDate) > 0 {
		fmt.Fprintf(w, "\n OFFERS PER DEPARTURE DATE\n%s\n", thin)
		dates := make([]string, 0, len(report.ResultsByDate))
		for d := range report.ResultsByDate {
			dates = append(dates, d)
		}
		sort.Strings(dates)
		for _, d := range dates {
			n := report.ResultsByDate[d]
			fmt.Fprintf(w, "  %-25s %3d  %s\n", d+":", n, strings.Repeat("▓", n))
		}
	}

	fmt.Fprintf(w, "\n%s\n\n", border)
}

// FormatResults renders one line per result, used as the notification body
func FormatResults(results []models.AggregatedResult) string {
	if len(results) == 0 {
		return "No flights found"
	}

	lines := make([]string, 0, len(results))
	for _, r := range results {
		lines = append(lines, formatResultLine(r))
	}
	return strings.Join(lines, "\n")
}

func formatResultLine(r models.AggregatedResult) string {
	price := "unavailable"
	var origin, destination, airline, link string
	if o := r.Offer; o != nil {
		if o.Price != nil {
			price = fmt.Sprintf("%.2f %s", o.Price.Total, o.Price.Currency)
		}
		origin = o.Outbound.Departure.Name
		destination = o.Outbound.Arrival.Name
		airline = o.Outbound.MainCarrier.Name
		link = o.BookingLink
	}
	return fmt.Sprintf("Depart: %s, Return: %s, Price: %s, From: %s, To: %s, Airline: %s, Link: %s",
		r.Window.DepartDate(), r.Window.ReturnDate(), price, origin, destination, airline, link)
}

// FormatOffer renders a detailed multi-line description of one offer
func FormatOffer(o *models.FlightOffer) string {
	if o == nil {
		return ""
	}
	var b strings.Builder

	if o.Price != nil {
		fmt.Fprintf(&b, "Price: %.2f %s\n", o.Price.Total, o.Price.Currency)
	}
	out, in := o.Outbound.MainCarrier, o.Inbound.MainCarrier
	fmt.Fprintf(&b, "Main carrier: %s (%s)\n", out.Name, out.Code)
	if in.Code != out.Code {
		fmt.Fprintf(&b, "Return carrier: %s (%s)\n", in.Name, in.Code)
	}

	writeSegment(&b, "Outbound", o.Outbound)
	writeSegment(&b, "Inbound", o.Inbound)

	var bags []string
	if o.Baggage.Personal != nil && *o.Baggage.Personal != "" {
		bags = append(bags, "Personal item: "+*o.Baggage.Personal)
	}
	if o.Baggage.Cabin != nil && *o.Baggage.Cabin != "" {
		bags = append(bags, "Cabin bag: "+*o.Baggage.Cabin)
	}
	if o.Baggage.Checked != nil && *o.Baggage.Checked != "" {
		bags = append(bags, "Checked bag: "+*o.Baggage.Checked)
	}
	if len(bags) > 0 {
		fmt.Fprintf(&b, "\n-- Baggage --\n%s\n", strings.Join(bags, " | "))
	}

	if o.BookingLink != "" {
		fmt.Fprintf(&b, "\nBooking link: %s\n", o.BookingLink)
	}
	return strings.TrimRight(b.String(), "\n")
}

func writeSegment(b *strings.Builder, label string, s models.SegmentInfo) {
	fmt.Fprintf(b, "\n-- %s --\n", label)
	fmt.Fprintf(b, "%s %s → %s %s\n",
		models.DisplayTime(s.Time.DepartureTime), s.Departure.Name,
		models.DisplayTime(s.Time.ArrivalTime), s.Arrival.Name)
	fmt.Fprintf(b, "Flight time: %s\n", s.Time.TotalFormatted)

	if len(s.Transit) == 0 {
		return
	}
	stops := make([]string, len(s.Transit))
	for i, a := range s.Transit {
		layover := "unknown"
		if i < len(s.Time.Layovers) {
			layover = s.Time.Layovers[i].Formatted
		}
		stops[i] = fmt.Sprintf("%s (layover %s)", a.Name, layover)
	}
	fmt.Fprintf(b, "Transit: %s\n", strings.Join(stops, " → "))
}

func center(s string, width int) string {
	runes := []rune(s)
	if len(runes) >= width {
		return s
	}
	pad := (width - len(runes)) / 2
	return strings.Repeat(" ", pad) + s + strings.Repeat(" ", width-len(runes)-pad)
}
