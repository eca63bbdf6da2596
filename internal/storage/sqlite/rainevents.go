package sqlite

import (
	"database/sql"
	"fmt"
	"time"

	"condao-wx/pkg/logger"
)

// RainEventRecord is a manually logged onset of precipitation
type RainEventRecord struct {
	ID        int64     `json:"id"`
	StartTime time.Time `json:"start_time"`
	Intensity string    `json:"intensity"` // light/moderate/heavy/thunderstorm
	Code      string    `json:"code"`      // report designator, e.g. -RA, RA, +RA, TSRA
	Note      string    `json:"note,omitempty"`
}

// DayCount is the number of rain events logged on a single day
type DayCount struct {
	Date  string `json:"date"` // YYYY-MM-DD
	Count int    `json:"count"`
}

// RainEventStorage handles storage of precipitation event records
type RainEventStorage struct {
	db     *sql.DB
	logger *logger.Logger
}

// NewRainEventStorage creates a new SQLite rain event storage
func NewRainEventStorage(db *sql.DB, logger *logger.Logger) *RainEventStorage {
	storage := &RainEventStorage{
		db:     db,
		logger: logger.Named("sqlite-rain"),
	}

	// Initialize database
	if err := storage.initDB(); err != nil {
		logger.Error("Failed to initialize rain event storage", Error(err))
	}

	return storage
}

// initDB initializes the database tables
func (s *RainEventStorage) initDB() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS rain_events (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			start_time TIMESTAMP NOT NULL,
			intensity TEXT NOT NULL,
			code TEXT,
			note TEXT
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create rain_events table: %w", err)
	}

	_, err = s.db.Exec(`CREATE INDEX IF NOT EXISTS idx_rain_start_time ON rain_events(start_time)`)
	if err != nil {
		return fmt.Errorf("failed to create rain start_time index: %w", err)
	}

	return nil
}

// StoreRainEvent stores a rain event record
func (s *RainEventStorage) StoreRainEvent(record *RainEventRecord) (int64, error) {
	result, err := s.db.Exec(
		`INSERT INTO rain_events (start_time, intensity, code, note)
		VALUES (?, ?, ?, ?)`,
		record.StartTime.Format(time.RFC3339),
		record.Intensity,
		record.Code,
		record.Note,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to insert rain event: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get last insert ID: %w", err)
	}
	record.ID = id

	return id, nil
}

// GetRainEvents returns rain events within [startDate, endDate] (YYYY-MM-DD,
// inclusive), oldest first. With empty bounds the latest 100 are returned,
// newest first.
func (s *RainEventStorage) GetRainEvents(startDate, endDate string) ([]*RainEventRecord, error) {
	var rows *sql.Rows
	var err error

	if startDate != "" && endDate != "" {
		rows, err = s.db.Query(
			`SELECT id, start_time, intensity, code, note
			FROM rain_events
			WHERE date(start_time) BETWEEN ? AND ?
			ORDER BY start_time ASC`,
			startDate, endDate,
		)
	} else {
		rows, err = s.db.Query(
			`SELECT id, start_time, intensity, code, note
			FROM rain_events
			ORDER BY start_time DESC
			LIMIT 100`,
		)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query rain events: %w", err)
	}
	defer rows.Close()

	var records []*RainEventRecord
	for rows.Next() {
		var record RainEventRecord
		var startTime string
		var code, note sql.NullString

		if err := rows.Scan(&record.ID, &startTime, &record.Intensity, &code, &note); err != nil {
			return nil, fmt.Errorf("failed to scan rain event: %w", err)
		}

		record.StartTime, err = time.Parse(time.RFC3339, startTime)
		if err != nil {
			return nil, fmt.Errorf("failed to parse start_time: %w", err)
		}

		record.Code = code.String
		record.Note = note.String

		records = append(records, &record)
	}

	return records, rows.Err()
}

// CountByDay returns the number of rain events per day, ordered by date.
// Empty bounds aggregate the whole table.
func (s *RainEventStorage) CountByDay(startDate, endDate string) ([]*DayCount, error) {
	var rows *sql.Rows
	var err error

	if startDate != "" && endDate != "" {
		rows, err = s.db.Query(
			`SELECT date(start_time) AS d, COUNT(*) AS cnt
			FROM rain_events
			WHERE date(start_time) BETWEEN ? AND ?
			GROUP BY date(start_time)
			ORDER BY d`,
			startDate, endDate,
		)
	} else {
		rows, err = s.db.Query(
			`SELECT date(start_time) AS d, COUNT(*) AS cnt
			FROM rain_events
			GROUP BY date(start_time)
			ORDER BY d`,
		)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query rain stats: %w", err)
	}
	defer rows.Close()

	var counts []*DayCount
	for rows.Next() {
		var dc DayCount
		if err := rows.Scan(&dc.Date, &dc.Count); err != nil {
			return nil, fmt.Errorf("failed to scan rain stats row: %w", err)
		}
		counts = append(counts, &dc)
	}

	return counts, rows.Err()
}
