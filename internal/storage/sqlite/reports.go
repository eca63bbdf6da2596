package sqlite

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"condao-wx/internal/metar"
	"condao-wx/pkg/logger"

	_ "modernc.org/sqlite"
)

// Import logger functions
var (
	String = logger.String
	Error  = logger.Error
)

// ReportRecord is a stored decoded METAR/SPECI report. Cloud layers are
// flattened to three amount/height pairs, matching the record view.
type ReportRecord struct {
	ID        int64     `json:"id"`
	DecodedAt time.Time `json:"decoded_at"`
	ObsTime   string    `json:"obs_time,omitempty"`
	Station   string    `json:"station,omitempty"`
	Raw       string    `json:"raw"`

	WindDirectionDeg *int     `json:"wind_direction,omitempty"`
	WindDirMagnetic  *float64 `json:"wind_direction_magnetic,omitempty"`
	WindSpeedKt      *int     `json:"wind_speed,omitempty"`
	WindGustKt       *int     `json:"wind_gust,omitempty"`

	VisibilityMeters *int `json:"visibility,omitempty"`

	TemperatureC *int     `json:"temperature,omitempty"`
	DewpointC    *int     `json:"dewpoint,omitempty"`
	RelHumidity  *float64 `json:"rel_humidity,omitempty"`

	Weather         string `json:"weather,omitempty"` // comma-joined labels
	IsPrecipitating bool   `json:"is_precipitating"`
	PrecipIntensity string `json:"precip_intensity,omitempty"`

	Cloud1Amount  string `json:"cloud_1_amount,omitempty"`
	Cloud1HeightM *int   `json:"cloud_1_height_m,omitempty"`
	Cloud2Amount  string `json:"cloud_2_amount,omitempty"`
	Cloud2HeightM *int   `json:"cloud_2_height_m,omitempty"`
	Cloud3Amount  string `json:"cloud_3_amount,omitempty"`
	Cloud3HeightM *int   `json:"cloud_3_height_m,omitempty"`
}

// ReportStorage is a SQLite-based storage for decoded reports. It owns the
// database connection shared by the other storages.
type ReportStorage struct {
	db              *sql.DB
	logger          *logger.Logger
	maxReportsInAPI int
}

// NewReportStorage creates a new SQLite-based report storage
func NewReportStorage(dbPath string, maxReportsInAPI int, log *logger.Logger) (*ReportStorage, error) {
	storageLogger := log.Named("sqlite")

	storageLogger.Info("Initializing SQLite storage",
		logger.String("path", dbPath))

	// Open the database
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Set connection pool limits
	db.SetMaxOpenConns(1) // SQLite only supports one writer at a time
	db.SetMaxIdleConns(1)

	// Set pragmas for better performance and concurrency
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		return nil, fmt.Errorf("failed to set journal mode: %w", err)
	}
	if _, err := db.Exec("PRAGMA synchronous=NORMAL"); err != nil {
		return nil, fmt.Errorf("failed to set synchronous mode: %w", err)
	}
	if _, err := db.Exec("PRAGMA busy_timeout=5000"); err != nil {
		return nil, fmt.Errorf("failed to set busy timeout: %w", err)
	}

	storage := &ReportStorage{
		db:              db,
		logger:          storageLogger,
		maxReportsInAPI: maxReportsInAPI,
	}

	if err := storage.initDB(); err != nil {
		db.Close()
		return nil, err
	}

	return storage, nil
}

// Close closes the database connection
func (s *ReportStorage) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// GetDB returns the database connection
func (s *ReportStorage) GetDB() *sql.DB {
	return s.db
}

// initDB initializes the database tables
func (s *ReportStorage) initDB() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS metar_reports (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			decoded_at TIMESTAMP NOT NULL,
			obs_time TEXT,
			station TEXT,
			raw TEXT NOT NULL,
			wind_dir INTEGER,
			wind_dir_magnetic REAL,
			wind_speed INTEGER,
			wind_gust INTEGER,
			visibility INTEGER,
			temp INTEGER,
			dewpoint INTEGER,
			rel_humidity REAL,
			weather TEXT,
			precip_flag INTEGER NOT NULL DEFAULT 0,
			precip_intensity TEXT,
			cloud_1_amount TEXT, cloud_1_height_m INTEGER,
			cloud_2_amount TEXT, cloud_2_height_m INTEGER,
			cloud_3_amount TEXT, cloud_3_height_m INTEGER,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create metar_reports table: %w", err)
	}

	_, err = s.db.Exec(`CREATE INDEX IF NOT EXISTS idx_reports_decoded_at ON metar_reports(decoded_at)`)
	if err != nil {
		return fmt.Errorf("failed to create decoded_at index: %w", err)
	}

	_, err = s.db.Exec(`CREATE INDEX IF NOT EXISTS idx_reports_station ON metar_reports(station)`)
	if err != nil {
		return fmt.Errorf("failed to create station index: %w", err)
	}

	return nil
}

// RecordFromDecoded flattens a decoded report plus its derived values into a
// storable record.
func RecordFromDecoded(d *metar.DecodedReport, relHumidity *float64, windDirMagnetic *float64) *ReportRecord {
	record := &ReportRecord{
		DecodedAt:        d.DecodedAt,
		ObsTime:          d.ObsTime,
		Station:          d.Station,
		Raw:              d.Raw,
		WindDirectionDeg: d.WindDirectionDeg,
		WindDirMagnetic:  windDirMagnetic,
		WindSpeedKt:      d.WindSpeedKt,
		WindGustKt:       d.WindGustKt,
		VisibilityMeters: d.VisibilityMeters,
		TemperatureC:     d.TemperatureC,
		DewpointC:        d.DewpointC,
		RelHumidity:      relHumidity,
		Weather:          strings.Join(d.Weather, ", "),
		IsPrecipitating:  d.IsPrecipitating,
		PrecipIntensity:  string(d.PrecipIntensity),
	}

	setLayer := func(i int, amount *string, heightM **int) {
		if i < len(d.CloudLayers) {
			*amount = string(d.CloudLayers[i].Amount)
			h := d.CloudLayers[i].HeightMeters
			*heightM = &h
		}
	}
	setLayer(0, &record.Cloud1Amount, &record.Cloud1HeightM)
	setLayer(1, &record.Cloud2Amount, &record.Cloud2HeightM)
	setLayer(2, &record.Cloud3Amount, &record.Cloud3HeightM)

	return record
}

// StoreReport stores a decoded report record and returns its ID
func (s *ReportStorage) StoreReport(record *ReportRecord) (int64, error) {
	result, err := s.db.Exec(
		`INSERT INTO metar_reports (
			decoded_at, obs_time, station, raw,
			wind_dir, wind_dir_magnetic, wind_speed, wind_gust,
			visibility, temp, dewpoint, rel_humidity,
			weather, precip_flag, precip_intensity,
			cloud_1_amount, cloud_1_height_m,
			cloud_2_amount, cloud_2_height_m,
			cloud_3_amount, cloud_3_height_m
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		record.DecodedAt.Format(time.RFC3339),
		nullIfEmpty(record.ObsTime),
		nullIfEmpty(record.Station),
		record.Raw,
		nullableInt(record.WindDirectionDeg),
		nullableFloat(record.WindDirMagnetic),
		nullableInt(record.WindSpeedKt),
		nullableInt(record.WindGustKt),
		nullableInt(record.VisibilityMeters),
		nullableInt(record.TemperatureC),
		nullableInt(record.DewpointC),
		nullableFloat(record.RelHumidity),
		nullIfEmpty(record.Weather),
		boolToInt(record.IsPrecipitating),
		nullIfEmpty(record.PrecipIntensity),
		nullIfEmpty(record.Cloud1Amount), nullableInt(record.Cloud1HeightM),
		nullIfEmpty(record.Cloud2Amount), nullableInt(record.Cloud2HeightM),
		nullIfEmpty(record.Cloud3Amount), nullableInt(record.Cloud3HeightM),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to insert report: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get last insert ID: %w", err)
	}
	record.ID = id

	return id, nil
}

const reportColumns = `id, decoded_at, obs_time, station, raw,
	wind_dir, wind_dir_magnetic, wind_speed, wind_gust,
	visibility, temp, dewpoint, rel_humidity,
	weather, precip_flag, precip_intensity,
	cloud_1_amount, cloud_1_height_m,
	cloud_2_amount, cloud_2_height_m,
	cloud_3_amount, cloud_3_height_m`

// GetRecentReports returns the most recent decoded reports, newest first.
// A non-positive limit falls back to the configured API maximum.
func (s *ReportStorage) GetRecentReports(limit int) ([]*ReportRecord, error) {
	if limit <= 0 || limit > s.maxReportsInAPI {
		limit = s.maxReportsInAPI
	}

	rows, err := s.db.Query(
		`SELECT `+reportColumns+` FROM metar_reports ORDER BY decoded_at DESC, id DESC LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query reports: %w", err)
	}
	defer rows.Close()

	return scanReports(rows)
}

// GetReportsByRange returns reports decoded within [start, end], oldest first
func (s *ReportStorage) GetReportsByRange(start, end time.Time) ([]*ReportRecord, error) {
	rows, err := s.db.Query(
		`SELECT `+reportColumns+` FROM metar_reports
		WHERE decoded_at BETWEEN ? AND ?
		ORDER BY decoded_at ASC, id ASC`,
		start.Format(time.RFC3339), end.Format(time.RFC3339),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query reports by range: %w", err)
	}
	defer rows.Close()

	return scanReports(rows)
}

func scanReports(rows *sql.Rows) ([]*ReportRecord, error) {
	var records []*ReportRecord
	for rows.Next() {
		var record ReportRecord
		var decodedAt string
		var obsTime, station, weather, intensity sql.NullString
		var windDir, windSpeed, windGust, visibility, temp, dewpoint sql.NullInt64
		var windDirMag, relHumidity sql.NullFloat64
		var precipFlag int
		var c1a, c2a, c3a sql.NullString
		var c1h, c2h, c3h sql.NullInt64

		if err := rows.Scan(
			&record.ID, &decodedAt, &obsTime, &station, &record.Raw,
			&windDir, &windDirMag, &windSpeed, &windGust,
			&visibility, &temp, &dewpoint, &relHumidity,
			&weather, &precipFlag, &intensity,
			&c1a, &c1h, &c2a, &c2h, &c3a, &c3h,
		); err != nil {
			return nil, fmt.Errorf("failed to scan report: %w", err)
		}

		parsed, err := time.Parse(time.RFC3339, decodedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to parse decoded_at: %w", err)
		}
		record.DecodedAt = parsed

		record.ObsTime = obsTime.String
		record.Station = station.String
		record.Weather = weather.String
		record.IsPrecipitating = precipFlag != 0
		record.PrecipIntensity = intensity.String

		record.WindDirectionDeg = intPtr(windDir)
		record.WindDirMagnetic = floatPtr(windDirMag)
		record.WindSpeedKt = intPtr(windSpeed)
		record.WindGustKt = intPtr(windGust)
		record.VisibilityMeters = intPtr(visibility)
		record.TemperatureC = intPtr(temp)
		record.DewpointC = intPtr(dewpoint)
		record.RelHumidity = floatPtr(relHumidity)

		record.Cloud1Amount, record.Cloud1HeightM = c1a.String, intPtr(c1h)
		record.Cloud2Amount, record.Cloud2HeightM = c2a.String, intPtr(c2h)
		record.Cloud3Amount, record.Cloud3HeightM = c3a.String, intPtr(c3h)

		records = append(records, &record)
	}

	return records, rows.Err()
}

func nullableInt(v *int) interface{} {
	if v == nil {
		return nil
	}
	return *v
}

func nullableFloat(v *float64) interface{} {
	if v == nil {
		return nil
	}
	return *v
}

func nullIfEmpty(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func intPtr(v sql.NullInt64) *int {
	if !v.Valid {
		return nil
	}
	i := int(v.Int64)
	return &i
}

func floatPtr(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	f := v.Float64
	return &f
}
