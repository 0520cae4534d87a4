// Package mains infers the local electrical mains frequency so hum
// diagnostics know which harmonic series to look at.
package mains

import (
	"strings"

	tz "github.com/medama-io/go-timezone-country"
	"github.com/thlib/go-timezone-local/tzlocal"
)

// Mains fundamentals in Hz. Everything on a power grid hums at one of
// these two, so the fallback only has to pick the globally more common
// one.
const (
	Freq50Hz = 50.0
	Freq60Hz = 60.0

	// DefaultFrequency is used when the locality cannot be determined.
	DefaultFrequency = Freq50Hz
)

// Frequency returns the mains fundamental for the machine's locality,
// inferred from the system timezone. Detection failures fall back to
// DefaultFrequency.
func Frequency() float64 {
	timezone, err := tzlocal.RuntimeTZ()
	if err != nil {
		return DefaultFrequency
	}
	return FrequencyForTimezone(timezone)
}

// FrequencyForTimezone returns the mains fundamental for an IANA
// timezone. Exported so callers and tests can pin the locality.
func FrequencyForTimezone(timezone string) float64 {
	// UTC and the Etc/ zones carry no country association.
	if timezone == "UTC" || timezone == "GMT" || strings.HasPrefix(timezone, "Etc/") {
		return DefaultFrequency
	}

	tzMap, err := tz.NewTimezoneCountryMap()
	if err != nil {
		return DefaultFrequency
	}
	country, err := tzMap.GetCountry(timezone)
	if err != nil {
		return DefaultFrequency
	}
	return frequencyForCountry(country)
}

// frequencyForCountry maps a country name onto its grid frequency.
// Unknown countries fall back to 50Hz, the more common grid worldwide.
func frequencyForCountry(country string) float64 {
	// Japan runs split 50/60Hz grids by region; Tokyo's 50Hz side is
	// the most populous, so it wins the tie.
	if country == "Japan" {
		return Freq50Hz
	}

	if hz60Countries[country] {
		return Freq60Hz
	}
	return Freq50Hz
}

// hz60Countries lists countries on 60Hz grids. Everywhere else is 50Hz.
// Source: https://en.wikipedia.org/wiki/Mains_electricity_by_country
var hz60Countries = map[string]bool{
	// North America
	"United States": true,
	"Canada":        true,
	"Mexico":        true,

	// Central America
	"Belize":      true,
	"Costa Rica":  true,
	"El Salvador": true,
	"Guatemala":   true,
	"Honduras":    true,
	"Nicaragua":   true,
	"Panama":      true,

	// Caribbean
	"Bahamas":             true,
	"Barbados":            true,
	"Cayman Islands":      true,
	"Cuba":                true,
	"Dominican Republic":  true,
	"Haiti":               true,
	"Jamaica":             true,
	"Puerto Rico":         true,
	"Trinidad and Tobago": true,
	"U.S. Virgin Islands": true,

	// South America (partial; most of the continent is 50Hz)
	"Brazil":    true, // both grids exist, 60Hz predominates
	"Colombia":  true,
	"Ecuador":   true,
	"Guyana":    true,
	"Peru":      true,
	"Suriname":  true,
	"Venezuela": true,

	// Asia (partial)
	"South Korea":  true,
	"Taiwan":       true,
	"Philippines":  true,
	"Saudi Arabia": true,

	// Pacific
	"Guam":             true,
	"American Samoa":   true,
	"Marshall Islands": true,
	"Micronesia":       true,
	"Palau":            true,
}
