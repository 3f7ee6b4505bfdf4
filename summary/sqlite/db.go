// SPDX-FileCopyrightText: 2026 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

// Package sqlite keeps the summary document in a single row of a local
// SQLite database.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"emperror.dev/emperror"
	"github.com/xmidt-org/causeway/model"
	"github.com/xmidt-org/causeway/summary"
	"github.com/xmidt-org/causeway/summary/db/metric"
	_ "modernc.org/sqlite"
)

const (
	driverName  = "sqlite"
	defaultPath = "causeway.db"
	defaultKey  = "summary"
)

const schema = `
CREATE TABLE IF NOT EXISTS summary (
	id TEXT PRIMARY KEY,
	version INTEGER NOT NULL,
	document TEXT NOT NULL,
	updated_at INTEGER NOT NULL
);`

const (
	selectQuery = "SELECT version, document FROM summary WHERE id = ?"
	insertQuery = "INSERT INTO summary (id, version, document, updated_at) VALUES (?, ?, ?, ?) ON CONFLICT(id) DO NOTHING"
	updateQuery = "UPDATE summary SET version = ?, document = ?, updated_at = ? WHERE id = ? AND version = ?"
)

type Config struct {
	// Path of the database file.
	// (Optional) Defaults to causeway.db.
	Path string

	// Key is the row holding the summary document.
	// (Optional) Defaults to summary.
	Key string
}

type Store struct {
	db       *sql.DB
	key      string
	measures metric.Measures
	now      func() time.Time
}

func NewStore(config Config, measures metric.Measures) (*Store, error) {
	if config.Path == "" {
		config.Path = defaultPath
	}
	if config.Key == "" {
		config.Key = defaultKey
	}

	db, err := sql.Open(driverName, config.Path)
	if err != nil {
		return nil, emperror.WrapWith(err, "Opening database failed", "path", config.Path)
	}
	// one writer at a time keeps SQLite from returning SQLITE_BUSY
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, emperror.WrapWith(err, "Migrating database failed", "path", config.Path)
	}
	return &Store{db: db, key: config.Key, measures: measures, now: time.Now}, nil
}

func (s *Store) Load(ctx context.Context) (model.GlobalSummary, error) {
	start := s.now()
	doc, err := s.load(ctx)
	s.observe(summary.ReadType, start, err == nil || errors.Is(err, summary.ErrNotFound) || errors.Is(err, summary.ErrCorrupt))
	if err == nil {
		s.measures.LoadedDocuments.Add(1.0)
	}
	return doc, err
}

func (s *Store) load(ctx context.Context) (model.GlobalSummary, error) {
	var (
		version  int64
		document string
	)
	err := s.db.QueryRowContext(ctx, selectQuery, s.key).Scan(&version, &document)
	if errors.Is(err, sql.ErrNoRows) {
		return model.GlobalSummary{}, summary.ErrNotFound
	}
	if err != nil {
		return model.GlobalSummary{}, err
	}

	var doc model.GlobalSummary
	if err := json.Unmarshal([]byte(document), &doc); err != nil {
		return model.GlobalSummary{Version: version}, fmt.Errorf("%w: %v", summary.ErrCorrupt, err)
	}
	doc.Version = version
	return doc, nil
}

func (s *Store) Save(ctx context.Context, doc model.GlobalSummary) error {
	start := s.now()
	err := s.save(ctx, doc)
	s.observe(summary.WriteType, start, err == nil || errors.Is(err, summary.ErrVersionConflict))
	if err == nil {
		s.measures.SavedDocuments.Add(1.0)
	}
	return err
}

func (s *Store) save(ctx context.Context, doc model.GlobalSummary) error {
	data, err := json.Marshal(doc)
	if err != nil {
		return err
	}

	var result sql.Result
	if doc.Version <= 1 {
		result, err = s.db.ExecContext(ctx, insertQuery, s.key, doc.Version, string(data), doc.LastUpdated.Unix())
	} else {
		result, err = s.db.ExecContext(ctx, updateQuery, doc.Version, string(data), doc.LastUpdated.Unix(), s.key, doc.Version-1)
	}
	if err != nil {
		return err
	}
	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%w: version %d was not applied", summary.ErrVersionConflict, doc.Version)
	}
	return nil
}

// Ping verifies the database is reachable and reports pool usage.
func (s *Store) Ping(ctx context.Context) error {
	err := s.db.PingContext(ctx)
	s.measures.PoolInUseConnections.Set(float64(s.db.Stats().InUse))
	if err != nil {
		s.measures.QueryFailureCount.With(summary.TypeLabel, summary.PingType).Add(1.0)
		return emperror.WrapWith(err, "Pinging connection failed")
	}
	s.measures.QuerySuccessCount.With(summary.TypeLabel, summary.PingType).Add(1.0)
	return nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) observe(queryType string, start time.Time, ok bool) {
	s.measures.QueryDuration.With(summary.TypeLabel, queryType).Observe(s.now().Sub(start).Seconds())
	if ok {
		s.measures.QuerySuccessCount.With(summary.TypeLabel, queryType).Add(1.0)
		return
	}
	s.measures.QueryFailureCount.With(summary.TypeLabel, queryType).Add(1.0)
}
