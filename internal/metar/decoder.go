// Package metar decodes METAR/SPECI aviation weather reports.
//
// Decoding is best-effort field extraction, not grammar validation: every
// pass scans the normalized report independently and yields nothing (rather
// than an error) when its group is absent. The decoder is a pure function of
// its input and safe for concurrent use.
package metar

import (
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"
)

const feetToMeters = 0.3048

var (
	stationRe  = regexp.MustCompile(`^[A-Z]{4}$`)
	obsTimeRe  = regexp.MustCompile(`^\d{6}Z$`)
	windRe     = regexp.MustCompile(`(\d{3}|VRB)(\d{2,3})(?:G(\d{2,3}))?KT`)
	visRe      = regexp.MustCompile(`\b(\d{4})\b`)
	tempPairRe = regexp.MustCompile(`\b(M?\d{2})/(M?\d{2})\b`)
	cloudRe    = regexp.MustCompile(`\b(FEW|SCT|BKN|OVC)(\d{3})\b`)
)

// maxCloudLayers caps how many layers are kept from a single report
const maxCloudLayers = 3

// Decode extracts structured fields from a raw METAR/SPECI report.
// Any string is accepted; fields whose groups are missing stay nil/empty.
func Decode(reportText string) *DecodedReport {
	text := strings.ToUpper(strings.TrimSpace(reportText))

	report := &DecodedReport{
		Raw:       strings.TrimSpace(reportText),
		DecodedAt: time.Now().UTC(),
		Weather:   []string{},
	}

	report.Station, report.ObsTime = extractStationAndTime(text)
	report.WindDirectionDeg, report.WindSpeedKt, report.WindGustKt = extractWind(text)
	report.VisibilityMeters = extractVisibility(text)
	report.TemperatureC, report.DewpointC = extractTempPair(text)
	report.CloudLayers = extractClouds(text)
	report.Weather, report.IsPrecipitating, report.PrecipIntensity = classifyWeather(text)

	return report
}

// extractStationAndTime finds the station identifier and observation time
// token. A station adjacent to an explicit METAR/SPECI marker wins over any
// earlier 4-letter token; without a marker the first 4-letter token is taken.
func extractStationAndTime(text string) (station, obsTime string) {
	tokens := strings.Fields(text)

	for i, tok := range tokens {
		if tok == "METAR" || tok == "SPECI" {
			if i+1 < len(tokens) && stationRe.MatchString(tokens[i+1]) {
				station = tokens[i+1]
				break
			}
		}
	}

	if station == "" {
		for _, tok := range tokens {
			if stationRe.MatchString(tok) {
				station = tok
				break
			}
		}
	}

	for _, tok := range tokens {
		if obsTimeRe.MatchString(tok) {
			obsTime = tok
			break
		}
	}

	return station, obsTime
}

// extractWind decodes the first wind group, e.g. 27015KT, 27015G25KT or
// VRB02KT. Variable direction maps to a nil direction, not a placeholder.
func extractWind(text string) (direction, speed, gust *int) {
	m := windRe.FindStringSubmatch(text)
	if m == nil {
		return nil, nil, nil
	}

	if m[1] != "VRB" {
		direction = atoiPtr(m[1])
	}
	speed = atoiPtr(m[2])
	if m[3] != "" {
		gust = atoiPtr(m[3])
	}

	return direction, speed, gust
}

// extractVisibility takes the first standalone 4-digit token as meters.
// There is no unit or range disambiguation: a 4-digit token belonging to
// another group is indistinguishable. Known limitation, kept as-is.
func extractVisibility(text string) *int {
	m := visRe.FindStringSubmatch(text)
	if m == nil {
		return nil
	}
	return atoiPtr(m[1])
}

// extractTempPair decodes the first temperature/dewpoint group, e.g. 28/24
// or M02/M05. The M prefix negates; M00 collapses to 0.
func extractTempPair(text string) (temperature, dewpoint *int) {
	m := tempPairRe.FindStringSubmatch(text)
	if m == nil {
		return nil, nil
	}
	return signedValue(m[1]), signedValue(m[2])
}

// extractClouds collects cloud layers in text order until the cap is
// reached. Heights are hundreds of feet; meters use half-away-from-zero
// rounding (ties cannot occur for 100 ft multiples, see tests).
func extractClouds(text string) []CloudLayer {
	var layers []CloudLayer

	for _, m := range cloudRe.FindAllStringSubmatch(text, -1) {
		code, err := strconv.Atoi(m[2])
		if err != nil {
			continue
		}

		heightFt := code * 100
		layers = append(layers, CloudLayer{
			Amount:       CloudAmount(m[1]),
			HeightFeet:   heightFt,
			HeightMeters: int(math.Round(float64(heightFt) * feetToMeters)),
		})

		if len(layers) >= maxCloudLayers {
			break
		}
	}

	return layers
}

// classifyWeather runs the ordered phenomenon table against the text. Every
// matching entry contributes its label (duplicates are possible when
// patterns overlap); the first matching precipitation entry in table order
// fixes the primary intensity, and any precipitation match flags the report
// as precipitating.
func classifyWeather(text string) (labels []string, precipitating bool, intensity Intensity) {
	labels = []string{}

	for _, p := range phenomena {
		if !p.re.MatchString(text) {
			continue
		}

		labels = append(labels, p.label)
		if p.precipitation {
			precipitating = true
			if intensity == "" {
				intensity = p.intensity
			}
		}
	}

	return labels, precipitating, intensity
}

func atoiPtr(s string) *int {
	v, err := strconv.Atoi(s)
	if err != nil {
		return nil
	}
	return &v
}

// signedValue decodes a 2-digit value with an optional M (minus) prefix
func signedValue(s string) *int {
	neg := strings.HasPrefix(s, "M")
	v, err := strconv.Atoi(strings.TrimPrefix(s, "M"))
	if err != nil {
		return nil
	}
	if neg {
		v = -v
	}
	return &v
}
