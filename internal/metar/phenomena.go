package metar

import "regexp"

// phenomenon maps a present-weather designator pattern to its label and
// precipitation classification.
type phenomenon struct {
	re            *regexp.Regexp
	label         string
	precipitation bool
	intensity     Intensity // empty when not a precipitation entry
}

// phenomena is evaluated in listed order. The order is load-bearing: the
// intensity-prefixed variants must be tried before their bare designators,
// and the first precipitation entry that matches fixes the report's primary
// intensity. Do not reorder or replace with a map.
var phenomena = []phenomenon{
	{regexp.MustCompile(`\+RA`), "heavy rain", true, IntensityHeavy},
	{regexp.MustCompile(`-RA`), "light rain", true, IntensityLight},
	{regexp.MustCompile(`\bRA\b`), "moderate rain", true, IntensityModerate},
	{regexp.MustCompile(`\+SHRA`), "heavy showers", true, IntensityHeavy},
	{regexp.MustCompile(`-SHRA`), "light showers", true, IntensityLight},
	{regexp.MustCompile(`\bSHRA\b`), "moderate showers", true, IntensityModerate},
	{regexp.MustCompile(`TSRA`), "thunderstorm rain", true, IntensityThunderstorm},
	{regexp.MustCompile(`\bTS\b`), "thunderstorm", false, ""},
	{regexp.MustCompile(`\bDZ\b`), "drizzle", true, IntensityLight},
	{regexp.MustCompile(`\bFG\b`), "fog", false, ""},
	{regexp.MustCompile(`\bBR\b`), "mist", false, ""},
	{regexp.MustCompile(`\bHZ\b`), "haze", false, ""},
}
