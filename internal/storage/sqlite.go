// Package storage implements the persistence layer using SQLite. Every table
// is keyed by shift date and written with an upsert, so re-running ingestion
// or reconciliation for a shift replaces the previous row instead of
// duplicating it.
package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3" // SQLite driver

	"github.com/lastorders/closeout/internal/aggregate"
	"github.com/lastorders/closeout/internal/common"
	"github.com/lastorders/closeout/internal/model"
)

// dateKey is the canonical shift-date column format.
const dateKey = "2006-01-02"

// SQLiteStorage implements the service.Storage interface using SQLite.
type SQLiteStorage struct {
	db     *sql.DB
	dbPath string
}

// NewSQLiteStorage creates a new SQLite storage instance.
func NewSQLiteStorage(dbPath string) (*SQLiteStorage, error) {
	if dbPath == "" {
		return nil, fmt.Errorf("dbPath must not be empty")
	}

	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0750); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite doesn't benefit from multiple connections.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &SQLiteStorage{db: db, dbPath: dbPath}, nil
}

// Close closes the database connection.
func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}

// SaveShiftData upserts the aggregate and line items for a shift date.
func (s *SQLiteStorage) SaveShiftData(ctx context.Context, data *aggregate.ShiftData) error {
	if data == nil || data.Aggregate == nil {
		return fmt.Errorf("shift data must not be nil")
	}
	return s.upsert(ctx, "shift_data", data.Aggregate.ShiftDate, data)
}

// GetShiftData loads the stored aggregate for a shift date.
func (s *SQLiteStorage) GetShiftData(ctx context.Context, shiftDate time.Time) (*aggregate.ShiftData, error) {
	var data aggregate.ShiftData
	if err := s.load(ctx, "shift_data", shiftDate, &data); err != nil {
		return nil, err
	}
	return &data, nil
}

// ListShiftDates returns every shift date with stored data, ascending.
func (s *SQLiteStorage) ListShiftDates(ctx context.Context) ([]time.Time, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT shift_date FROM shift_data ORDER BY shift_date`)
	if err != nil {
		return nil, fmt.Errorf("failed to list shift dates: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var dates []time.Time
	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			return nil, fmt.Errorf("failed to scan shift date: %w", err)
		}
		date, err := time.ParseInLocation(dateKey, key, time.UTC)
		if err != nil {
			return nil, fmt.Errorf("corrupt shift date %q: %w", key, err)
		}
		dates = append(dates, date)
	}
	return dates, rows.Err()
}

// SaveStaffForm upserts a staff form by its shift date.
func (s *SQLiteStorage) SaveStaffForm(ctx context.Context, form *model.StaffShiftForm) error {
	if form == nil {
		return fmt.Errorf("form must not be nil")
	}
	return s.upsert(ctx, "staff_forms", form.ShiftDate, form)
}

// GetStaffForm loads the staff form for a shift date. Absence is reported as
// common.ErrNotFound, which callers treat as "no form submitted", not as a
// failure.
func (s *SQLiteStorage) GetStaffForm(ctx context.Context, shiftDate time.Time) (*model.StaffShiftForm, error) {
	var form model.StaffShiftForm
	if err := s.load(ctx, "staff_forms", shiftDate, &form); err != nil {
		return nil, err
	}
	return &form, nil
}

// SaveReport upserts a variance report by its shift date.
func (s *SQLiteStorage) SaveReport(ctx context.Context, report *model.ShiftVarianceReport) error {
	if report == nil {
		return fmt.Errorf("report must not be nil")
	}

	payload, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("failed to marshal report: %w", err)
	}

	flagged := 0
	if report.OverallFlagged {
		flagged = 1
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO variance_reports (shift_date, payload, flagged, updated_at)
		VALUES (?, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(shift_date) DO UPDATE SET
			payload = excluded.payload,
			flagged = excluded.flagged,
			updated_at = CURRENT_TIMESTAMP`,
		report.ShiftDate.Format(dateKey), string(payload), flagged)
	if err != nil {
		return fmt.Errorf("failed to save report: %w", err)
	}
	return nil
}

// GetReport loads the stored variance report for a shift date.
func (s *SQLiteStorage) GetReport(ctx context.Context, shiftDate time.Time) (*model.ShiftVarianceReport, error) {
	var report model.ShiftVarianceReport
	if err := s.load(ctx, "variance_reports", shiftDate, &report); err != nil {
		return nil, err
	}
	return &report, nil
}

func (s *SQLiteStorage) upsert(ctx context.Context, table string, shiftDate time.Time, doc any) error {
	payload, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to marshal %s payload: %w", table, err)
	}

	query := fmt.Sprintf(`
		INSERT INTO %s (shift_date, payload, updated_at)
		VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(shift_date) DO UPDATE SET
			payload = excluded.payload,
			updated_at = CURRENT_TIMESTAMP`, table)

	if _, err := s.db.ExecContext(ctx, query, shiftDate.Format(dateKey), string(payload)); err != nil {
		return fmt.Errorf("failed to save %s row: %w", table, err)
	}
	return nil
}

func (s *SQLiteStorage) load(ctx context.Context, table string, shiftDate time.Time, doc any) error {
	query := fmt.Sprintf(`SELECT payload FROM %s WHERE shift_date = ?`, table)

	var payload string
	err := s.db.QueryRowContext(ctx, query, shiftDate.Format(dateKey)).Scan(&payload)
	if err == sql.ErrNoRows {
		return fmt.Errorf("%s %s: %w", table, shiftDate.Format(dateKey), common.ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("failed to load %s row: %w", table, err)
	}

	if err := json.Unmarshal([]byte(payload), doc); err != nil {
		return fmt.Errorf("corrupt %s payload: %w", table, err)
	}
	return nil
}
