package render

import (
	"strings"

	"github.com/unklstewy/flightmatrix/pkg/adsb"
)

// DefaultAirlineLabel is shown when a callsign prefix is not in the table.
const DefaultAirlineLabel = "PRIVATE/OTHER"

// Labels holds the static lookup tables used on the identity page.
type Labels struct {
	// Airlines maps a 3-letter ICAO callsign prefix to a display name
	Airlines map[string]string

	// Categories maps an OpenSky emitter category id to a display name
	Categories map[int]string

	// DefaultAirline is shown for unknown prefixes
	DefaultAirline string
}

// DefaultLabels returns the built-in tables.
func DefaultLabels() Labels {
	airlines := make(map[string]string, len(builtinAirlines))
	for k, v := range builtinAirlines {
		airlines[k] = v
	}
	categories := make(map[int]string, len(builtinCategories))
	for k, v := range builtinCategories {
		categories[k] = v
	}
	return Labels{
		Airlines:       airlines,
		Categories:     categories,
		DefaultAirline: DefaultAirlineLabel,
	}
}

// Merge returns a copy of l with the given entries added or replaced.
// An empty defaultAirline keeps the current default.
func (l Labels) Merge(airlines map[string]string, categories map[int]string, defaultAirline string) Labels {
	out := Labels{
		Airlines:       make(map[string]string, len(l.Airlines)+len(airlines)),
		Categories:     make(map[int]string, len(l.Categories)+len(categories)),
		DefaultAirline: l.DefaultAirline,
	}
	for k, v := range l.Airlines {
		out.Airlines[k] = v
	}
	for k, v := range airlines {
		out.Airlines[strings.ToUpper(k)] = v
	}
	for k, v := range l.Categories {
		out.Categories[k] = v
	}
	for k, v := range categories {
		out.Categories[k] = v
	}
	if defaultAirline != "" {
		out.DefaultAirline = defaultAirline
	}
	return out
}

// Airline returns the operator name for a callsign.
func (l Labels) Airline(callsign string) string {
	if len(callsign) >= 3 {
		if name, ok := l.Airlines[strings.ToUpper(callsign[:3])]; ok {
			return name
		}
	}
	if l.DefaultAirline == "" {
		return DefaultAirlineLabel
	}
	return l.DefaultAirline
}

// CategoryOrOrigin returns the category label, or the origin country when
// the category is absent or not in the table.
func (l Labels) CategoryOrOrigin(rec adsb.FlightRecord) string {
	if rec.Category != nil {
		if name, ok := l.Categories[*rec.Category]; ok {
			return name
		}
	}
	if rec.OriginCountry == "" {
		return "UNKNOWN"
	}
	return rec.OriginCountry
}

var builtinAirlines = map[string]string{
	"AAL": "AMERICAN",
	"AFR": "AIR FRANCE",
	"AUA": "AUSTRIAN",
	"AZA": "ITA",
	"BAW": "BRITISH",
	"BEE": "FLYBE",
	"BEL": "BRUSSELS",
	"CFE": "BA CITYFLYER",
	"DAL": "DELTA",
	"DLH": "LUFTHANSA",
	"EIN": "AER LINGUS",
	"ETD": "ETIHAD",
	"EXS": "JET2",
	"EZY": "EASYJET",
	"FIN": "FINNAIR",
	"IBE": "IBERIA",
	"KLM": "KLM",
	"LOG": "LOGANAIR",
	"QTR": "QATAR",
	"RYR": "RYANAIR",
	"SAS": "SAS",
	"SHT": "BA SHUTTLE",
	"SWR": "SWISS",
	"TAP": "TAP",
	"THY": "TURKISH",
	"TOM": "TUI",
	"UAE": "EMIRATES",
	"UAL": "UNITED",
	"VIR": "VIRGIN",
	"VLG": "VUELING",
	"WZZ": "WIZZ AIR",
}

// OpenSky emitter categories; 0 and 1 carry no information
var builtinCategories = map[int]string{
	2:  "LIGHT",
	3:  "SMALL",
	4:  "LARGE",
	5:  "HIGH VORTEX",
	6:  "HEAVY",
	7:  "HIGH PERF",
	8:  "ROTORCRAFT",
	9:  "GLIDER",
	10: "BALLOON",
	11: "PARACHUTIST",
	12: "ULTRALIGHT",
	14: "UAV",
	15: "SPACE",
	16: "EMERGENCY VEH",
	17: "SERVICE VEH",
	18: "OBSTACLE",
	19: "OBSTACLE",
	20: "OBSTACLE",
}
