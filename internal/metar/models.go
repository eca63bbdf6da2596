package metar

import "time"

// CloudAmount represents the sky coverage code of a cloud layer
type CloudAmount string

const (
	CloudFew       CloudAmount = "FEW"
	CloudScattered CloudAmount = "SCT"
	CloudBroken    CloudAmount = "BKN"
	CloudOvercast  CloudAmount = "OVC"
)

// Intensity represents the qualitative strength of precipitation
type Intensity string

const (
	IntensityLight        Intensity = "light"
	IntensityModerate     Intensity = "moderate"
	IntensityHeavy        Intensity = "heavy"
	IntensityThunderstorm Intensity = "thunderstorm"
)

// CloudLayer represents a single cloud layer: coverage plus base height
type CloudLayer struct {
	Amount       CloudAmount `json:"amount"`
	HeightFeet   int         `json:"height_ft"`
	HeightMeters int         `json:"height_m"`
}

// DecodedReport is the result of decoding a METAR/SPECI report.
// Every extraction is best-effort: a nil pointer means the corresponding
// group was not found in the report, never that decoding failed.
type DecodedReport struct {
	Raw       string    `json:"raw"`
	DecodedAt time.Time `json:"decoded_at"`

	Station string `json:"station,omitempty"`  // 4-letter ICAO identifier
	ObsTime string `json:"obs_time,omitempty"` // DDHHMM"Z" token, not resolved to a date

	WindDirectionDeg *int `json:"wind_direction,omitempty"` // nil when variable or absent
	WindSpeedKt      *int `json:"wind_speed,omitempty"`
	WindGustKt       *int `json:"wind_gust,omitempty"`

	VisibilityMeters *int `json:"visibility,omitempty"`

	TemperatureC *int `json:"temperature,omitempty"`
	DewpointC    *int `json:"dewpoint,omitempty"`

	Weather         []string     `json:"weather"` // labels in pattern-table order
	IsPrecipitating bool         `json:"is_precipitating"`
	PrecipIntensity Intensity    `json:"precip_intensity,omitempty"`
	CloudLayers     []CloudLayer `json:"clouds"` // text order, at most 3
}
