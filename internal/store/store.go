// Package store handles SQLite persistence of attendance records.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"lessonvisit/pkg/schema"

	_ "modernc.org/sqlite" // SQLite driver.
)

// FileName is the database file created inside a data directory.
const FileName = "visits.db"

// Store wraps SQLite access for attendance records.
type Store struct {
	db *sql.DB
}

// Open opens or creates the SQLite database and applies migrations.
func Open(path string) (*Store, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrate %s: %w", path, err)
	}
	return store, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS records (
			id TEXT PRIMARY KEY,
			subject TEXT NOT NULL,
			school_year TEXT NOT NULL,
			date TEXT NOT NULL,
			lesson_topic TEXT NOT NULL,
			classroom_mode TEXT NOT NULL,
			notes TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS record_examiners (
			record_id TEXT NOT NULL,
			position INTEGER NOT NULL,
			role TEXT NOT NULL,
			full_name TEXT NOT NULL,
			PRIMARY KEY (record_id, role)
		);`,
		`CREATE INDEX IF NOT EXISTS idx_records_date ON records(date);`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

// LoadRecords returns every record in insertion order.
func (s *Store) LoadRecords(ctx context.Context) ([]schema.AttendanceRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, subject, school_year, date, lesson_topic, classroom_mode, notes
		 FROM records ORDER BY rowid`)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = rows.Close()
	}()

	records := []schema.AttendanceRecord{}
	index := make(map[string]int)
	for rows.Next() {
		var rec schema.AttendanceRecord
		var date string
		if err := rows.Scan(&rec.ID, &rec.Subject, &rec.SchoolYear, &date, &rec.LessonTopic, &rec.ClassroomMode, &rec.Notes); err != nil {
			return nil, err
		}
		if date != "" {
			parsed, err := time.Parse(time.RFC3339Nano, date)
			if err != nil {
				return nil, fmt.Errorf("record %s: parse date: %w", rec.ID, err)
			}
			rec.Date = parsed
		}
		index[rec.ID] = len(records)
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	examiners, err := s.db.QueryContext(ctx,
		`SELECT record_id, role, full_name FROM record_examiners ORDER BY record_id, position`)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = examiners.Close()
	}()
	for examiners.Next() {
		var e schema.ExaminerAssignment
		if err := examiners.Scan(&e.RecordID, &e.Role, &e.FullName); err != nil {
			return nil, err
		}
		i, ok := index[e.RecordID]
		if !ok {
			continue
		}
		records[i].Examiners = append(records[i].Examiners, e)
	}
	return records, examiners.Err()
}

// SaveRecord inserts rec or replaces the stored record with the same ID.
func (s *Store) SaveRecord(ctx context.Context, rec schema.AttendanceRecord) (err error) {
	if rec.ID == "" {
		return fmt.Errorf("save record: missing id")
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	date := ""
	if !rec.Date.IsZero() {
		date = rec.Date.Format(time.RFC3339Nano)
	}
	if _, err = tx.ExecContext(ctx,
		`INSERT INTO records (id, subject, school_year, date, lesson_topic, classroom_mode, notes)
		 VALUES (?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
			subject = excluded.subject,
			school_year = excluded.school_year,
			date = excluded.date,
			lesson_topic = excluded.lesson_topic,
			classroom_mode = excluded.classroom_mode,
			notes = excluded.notes`,
		rec.ID, string(rec.Subject), string(rec.SchoolYear), date, string(rec.LessonTopic), string(rec.ClassroomMode), rec.Notes,
	); err != nil {
		return err
	}

	if _, err = tx.ExecContext(ctx, `DELETE FROM record_examiners WHERE record_id = ?`, rec.ID); err != nil {
		return err
	}
	for i, e := range rec.Examiners {
		if _, err = tx.ExecContext(ctx,
			`INSERT INTO record_examiners (record_id, position, role, full_name) VALUES (?, ?, ?, ?)`,
			rec.ID, i, string(e.Role), e.FullName,
		); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// DeleteRecord removes the record with id and its examiners. Deleting an
// unknown record fails with an error wrapping os.ErrNotExist.
func (s *Store) DeleteRecord(ctx context.Context, id string) (err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx, `DELETE FROM record_examiners WHERE record_id = ?`, id); err != nil {
		return err
	}
	res, err := tx.ExecContext(ctx, `DELETE FROM records WHERE id = ?`, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		err = fmt.Errorf("delete record %s: %w", id, os.ErrNotExist)
		return err
	}
	return tx.Commit()
}
