// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package storage persists readings in SQLite and serves the historical
// fetch.
package storage

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/relabs-tech/sensor_dashboard/internal/reading"
)

//go:embed schema.sql
var schemaSQL string

// Store handles database operations.
type Store struct {
	dbPath string

	db     *sql.DB
	dbOnce sync.Once
	dbErr  error

	closeOnce sync.Once
	closeErr  error
}

// New creates a store backed by the SQLite file at dbPath. The database is
// opened and the schema created on first use.
func New(dbPath string) (*Store, error) {
	if dbPath == "" {
		return nil, fmt.Errorf("empty database path")
	}
	return &Store{dbPath: dbPath}, nil
}

func (s *Store) getDB() (*sql.DB, error) {
	s.dbOnce.Do(func() {
		db, err := sql.Open("sqlite3", "file:"+s.dbPath+"?_journal_mode=WAL&_synchronous=NORMAL&_busy_timeout=5000")
		if err != nil {
			s.dbErr = err
			return
		}

		if _, err = db.Exec(schemaSQL); err != nil {
			_ = db.Close()
			s.dbErr = fmt.Errorf("initialising schema: %w", err)
			return
		}

		s.db = db
	})

	return s.db, s.dbErr
}

const insertReadingSQL = `
INSERT INTO readings (id,
                      principal,
                      timestamp,
                      temperature,
                      humidity,
                      altitude,
                      gyroscope_x,
                      gyroscope_y,
                      gyroscope_z,
                      gyroscope_total,
                      acceleration_x,
                      acceleration_y,
                      acceleration_z,
                      acceleration_total)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
`

// InsertReading stores a reading under id for principal.
func (s *Store) InsertReading(ctx context.Context, principal, id string, r reading.Reading) (err error) {
	db, err := s.getDB()
	if err != nil {
		return fmt.Errorf("getting connection: %w", err)
	}

	stmt, err := db.PrepareContext(ctx, insertReadingSQL)
	if err != nil {
		return fmt.Errorf("preparing statement: %w", err)
	}
	defer closeWithError(stmt, &err)

	if _, err = stmt.ExecContext(ctx,
		id,
		principal,
		r.Timestamp.UTC(),
		r.Temperature,
		r.Humidity,
		r.Altitude,
		r.Gyroscope.X,
		r.Gyroscope.Y,
		r.Gyroscope.Z,
		r.GyroscopeTotal,
		r.Acceleration.X,
		r.Acceleration.Y,
		r.Acceleration.Z,
		r.AccelerationTotal,
	); err != nil {
		return fmt.Errorf("inserting reading: %w", err)
	}
	return nil
}

const selectLatestSQL = `
SELECT id,
       timestamp,
       temperature,
       humidity,
       altitude,
       gyroscope_x,
       gyroscope_y,
       gyroscope_z,
       gyroscope_total,
       acceleration_x,
       acceleration_y,
       acceleration_z,
       acceleration_total
FROM readings
WHERE principal = ?
ORDER BY timestamp DESC, id DESC
LIMIT ?
`

// Fetch returns up to limit of the most recent readings of principal,
// newest first.
func (s *Store) Fetch(ctx context.Context, principal string, limit int) (readings []reading.Stored, err error) {
	db, err := s.getDB()
	if err != nil {
		return nil, fmt.Errorf("getting connection: %w", err)
	}

	rows, err := db.QueryContext(ctx, selectLatestSQL, principal, limit)
	if err != nil {
		return nil, fmt.Errorf("querying readings: %w", err)
	}
	defer closeWithError(rows, &err)

	for rows.Next() {
		var (
			rec reading.Stored
			ts  time.Time
		)
		if err = rows.Scan(
			&rec.ID,
			&ts,
			&rec.Temperature,
			&rec.Humidity,
			&rec.Altitude,
			&rec.Gyroscope.X,
			&rec.Gyroscope.Y,
			&rec.Gyroscope.Z,
			&rec.GyroscopeTotal,
			&rec.Acceleration.X,
			&rec.Acceleration.Y,
			&rec.Acceleration.Z,
			&rec.AccelerationTotal,
		); err != nil {
			return nil, fmt.Errorf("scanning reading: %w", err)
		}
		rec.Timestamp = ts
		readings = append(readings, rec)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating readings: %w", err)
	}
	return readings, nil
}

// Close closes the database, if it was opened.
func (s *Store) Close() error {
	s.closeOnce.Do(func() {
		if s.db != nil {
			s.closeErr = s.db.Close()
		}
	})
	return s.closeErr
}

func closeWithError(cl interface{ Close() error }, err *error) {
	if cErr := cl.Close(); cErr != nil && *err == nil {
		*err = cErr
	}
}
