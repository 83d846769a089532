package booking

import (
	"fmt"
	"net/url"
)

// DefaultSiteURL is the Planyo booking page both venues are reserved through.
const DefaultSiteURL = "https://www.planyo.com/booking.php"

// resourceIDs are sent as is; the site expects the quote and parenthesis already escaped.
var resourceIDs = map[Place]string{
	PlaceSukkerbiten: "184637%27,184637)",
	PlaceLangkaia:    "189278%27,189278)",
}

// BuildOrderURL returns the reservation page for place, preselecting date and time.
func BuildOrderURL(base string, place Place, date, timeToken string) (string, error) {
	id, ok := resourceIDs[place]
	if !ok {
		return "", fmt.Errorf("unknown place %q", place)
	}
	if _, err := url.Parse(base); err != nil {
		return "", fmt.Errorf("invalid base url: %w", err)
	}
	return fmt.Sprintf("%s?planyo_lang=NO&mode=reserve&prefill=true&one_date=%s&start_date=%s&start_time=%s&resource_id=%s",
		base, url.QueryEscape(date), url.QueryEscape(date), url.QueryEscape(timeToken), id), nil
}
