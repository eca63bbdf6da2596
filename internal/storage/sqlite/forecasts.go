package sqlite

import (
	"database/sql"
	"fmt"
	"time"

	"condao-wx/pkg/logger"
)

// ForecastRecord is an operator-entered daily forecast
type ForecastRecord struct {
	ID        int64     `json:"id"`
	Date      string    `json:"date"` // YYYY-MM-DD
	Wind      string    `json:"wind"` // free text, e.g. "09005KT" or a prose description
	TempMinC  float64   `json:"temp_min"`
	TempMaxC  float64   `json:"temp_max"`
	Weather   string    `json:"weather"` // expected phenomena, e.g. "SHRA"
	CreatedAt time.Time `json:"created_at"`
}

// ForecastStorage handles storage of forecast records
type ForecastStorage struct {
	db     *sql.DB
	logger *logger.Logger
}

// NewForecastStorage creates a new SQLite forecast storage
func NewForecastStorage(db *sql.DB, logger *logger.Logger) *ForecastStorage {
	storage := &ForecastStorage{
		db:     db,
		logger: logger.Named("sqlite-forecast"),
	}

	// Initialize database
	if err := storage.initDB(); err != nil {
		logger.Error("Failed to initialize forecast storage", Error(err))
	}

	return storage
}

// initDB initializes the database tables
func (s *ForecastStorage) initDB() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS forecasts (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			date TEXT NOT NULL,
			wind TEXT,
			temp_min REAL,
			temp_max REAL,
			weather TEXT,
			created_at TIMESTAMP NOT NULL
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create forecasts table: %w", err)
	}

	_, err = s.db.Exec(`CREATE INDEX IF NOT EXISTS idx_forecasts_date ON forecasts(date)`)
	if err != nil {
		return fmt.Errorf("failed to create forecast date index: %w", err)
	}

	return nil
}

// StoreForecast stores a forecast record
func (s *ForecastStorage) StoreForecast(record *ForecastRecord) (int64, error) {
	if record.CreatedAt.IsZero() {
		record.CreatedAt = time.Now().UTC()
	}

	result, err := s.db.Exec(
		`INSERT INTO forecasts (date, wind, temp_min, temp_max, weather, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		record.Date,
		record.Wind,
		record.TempMinC,
		record.TempMaxC,
		record.Weather,
		record.CreatedAt.Format(time.RFC3339),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to insert forecast: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get last insert ID: %w", err)
	}
	record.ID = id

	return id, nil
}

// GetForecasts returns forecasts within [startDate, endDate] (YYYY-MM-DD,
// inclusive), oldest first. With empty bounds the latest 50 are returned,
// newest first.
func (s *ForecastStorage) GetForecasts(startDate, endDate string) ([]*ForecastRecord, error) {
	var rows *sql.Rows
	var err error

	if startDate != "" && endDate != "" {
		rows, err = s.db.Query(
			`SELECT id, date, wind, temp_min, temp_max, weather, created_at
			FROM forecasts
			WHERE date BETWEEN ? AND ?
			ORDER BY date ASC`,
			startDate, endDate,
		)
	} else {
		rows, err = s.db.Query(
			`SELECT id, date, wind, temp_min, temp_max, weather, created_at
			FROM forecasts
			ORDER BY date DESC
			LIMIT 50`,
		)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query forecasts: %w", err)
	}
	defer rows.Close()

	var records []*ForecastRecord
	for rows.Next() {
		var record ForecastRecord
		var wind, weather sql.NullString
		var createdAt string

		if err := rows.Scan(&record.ID, &record.Date, &wind, &record.TempMinC, &record.TempMaxC, &weather, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan forecast: %w", err)
		}

		record.CreatedAt, err = time.Parse(time.RFC3339, createdAt)
		if err != nil {
			return nil, fmt.Errorf("failed to parse created_at: %w", err)
		}

		record.Wind = wind.String
		record.Weather = weather.String

		records = append(records, &record)
	}

	return records, rows.Err()
}
