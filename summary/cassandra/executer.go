// SPDX-FileCopyrightText: 2026 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

package cassandra

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/gocql/gocql"
	"github.com/hailocab/go-hostpool"
	"github.com/xmidt-org/causeway/model"
	"github.com/xmidt-org/causeway/summary"
)

type dbStore interface {
	summary.S
	Close()
	Ping() error
}

var errServerClosed = errors.New("server is closed")

// CQL for the summary table:
//
//	CREATE TABLE summary (id text PRIMARY KEY, version bigint, document blob);
const (
	selectQuery = "SELECT version, document FROM summary WHERE id = ?"
	insertQuery = "INSERT INTO summary (id, version, document) VALUES (?,?,?) IF NOT EXISTS"
	updateQuery = "UPDATE summary SET version = ?, document = ? WHERE id = ? IF version = ?"
)

type cassandraExecutor struct {
	session *gocql.Session
	key     string
}

func connect(clusterConfig *gocql.ClusterConfig, key string) (dbStore, error) {
	clusterConfig.PoolConfig.HostSelectionPolicy = gocql.HostPoolHostPolicy(hostpool.New(nil))
	session, err := clusterConfig.CreateSession()
	if err != nil {
		return nil, err
	}

	return &cassandraExecutor{session: session, key: key}, nil
}

func (s *cassandraExecutor) Load(ctx context.Context) (model.GlobalSummary, error) {
	var (
		version int64
		data    []byte
	)
	err := s.session.Query(selectQuery, s.key).WithContext(ctx).Scan(&version, &data)
	if errors.Is(err, gocql.ErrNotFound) {
		return model.GlobalSummary{}, summary.ErrNotFound
	}
	if err != nil {
		return model.GlobalSummary{}, err
	}

	var doc model.GlobalSummary
	if err := json.Unmarshal(data, &doc); err != nil {
		return model.GlobalSummary{Version: version}, fmt.Errorf("%w: %v", summary.ErrCorrupt, err)
	}
	doc.Version = version
	return doc, nil
}

// Save relies on lightweight transactions for the version check.
func (s *cassandraExecutor) Save(ctx context.Context, doc model.GlobalSummary) error {
	data, err := json.Marshal(doc)
	if err != nil {
		return err
	}

	var q *gocql.Query
	if doc.Version <= 1 {
		q = s.session.Query(insertQuery, s.key, doc.Version, data)
	} else {
		q = s.session.Query(updateQuery, doc.Version, data, s.key, doc.Version-1)
	}
	applied, err := q.WithContext(ctx).MapScanCAS(map[string]interface{}{})
	if err != nil {
		return err
	}
	if !applied {
		return fmt.Errorf("%w: version %d was not applied", summary.ErrVersionConflict, doc.Version)
	}
	return nil
}

func (s *cassandraExecutor) Close() {
	s.session.Close()
}

func (s *cassandraExecutor) Ping() error {
	if s.session.Closed() {
		return errServerClosed
	}
	return nil
}
