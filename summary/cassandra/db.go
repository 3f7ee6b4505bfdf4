// SPDX-FileCopyrightText: 2026 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

package cassandra

import (
	"context"
	"errors"
	"time"

	"emperror.dev/emperror"
	"github.com/cenkalti/backoff/v4"
	"github.com/gocql/gocql"
	"github.com/xmidt-org/causeway/model"
	"github.com/xmidt-org/causeway/summary"
	"github.com/xmidt-org/causeway/summary/db/metric"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

const (
	defaultOpTimeout       = 10 * time.Second
	defaultDatabase        = "causeway"
	defaultKey             = "summary"
	defaultRetryInterval   = time.Second
	defaultMaxConnsPerHost = 2
	defaultPingInterval    = 5 * time.Second
)

var errNoHosts = errors.New("number of hosts must be > 0")

// Config locates the Yugabyte (or Cassandra) cluster holding the summary row.
type Config struct {
	// Hosts lists the contact points.  At least one is required.
	Hosts []string

	// Database is the keyspace.
	// (Optional) Defaults to causeway.
	Database string

	// Key is the row holding the summary document.
	// (Optional) Defaults to summary.
	Key string

	// OpTimeout bounds every query.
	// (Optional) Defaults to 10s.
	OpTimeout time.Duration

	// SSLRootCert, SSLKey and SSLCert enable TLS when all are set.
	SSLRootCert            string
	SSLKey                 string
	SSLCert                string
	EnableHostVerification bool

	// Username and Password enable password authentication when both are set.
	Username string
	Password string

	// NumRetries is how many times a failed connection is retried at startup.
	NumRetries int

	// RetryInterval is the first wait between connection attempts.  Later
	// waits grow exponentially.
	// (Optional) Defaults to 1s.
	RetryInterval time.Duration

	// MaxConnsPerHost bounds the connections to each host.
	// (Optional) Defaults to 2.
	MaxConnsPerHost int
}

// Store is an instrumented summary.S on top of a cluster session.
type Store struct {
	client   dbStore
	key      string
	measures metric.Measures
	now      func() time.Time
}

// NewStore dials the cluster and keeps the session checked until the
// application stops.
func NewStore(config Config, measures metric.Measures, lc fx.Lifecycle, logger *zap.Logger) (*Store, error) {
	s, err := Dial(config, measures, logger)
	if err != nil {
		return nil, err
	}
	stop := startPinger(defaultPingInterval, s.Ping, logger)
	lc.Append(fx.Hook{
		OnStop: func(_ context.Context) error {
			stop()
			s.Close()
			return nil
		},
	})
	return s, nil
}

// startPinger calls ping every interval until the returned func is called.
func startPinger(interval time.Duration, ping func() error, logger *zap.Logger) func() {
	ticker := time.NewTicker(interval)
	done := make(chan struct{})
	go func() {
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				if err := ping(); err != nil {
					logger.Error("ping failed", zap.Error(err))
				}
			}
		}
	}()
	return func() {
		ticker.Stop()
		close(done)
	}
}

// Dial connects to the cluster, retrying with exponential backoff.
func Dial(config Config, measures metric.Measures, logger *zap.Logger) (*Store, error) {
	if len(config.Hosts) == 0 {
		return nil, errNoHosts
	}
	validateConfig(&config)

	cluster := newClusterConfig(config)
	var session dbStore
	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = config.RetryInterval
	policy.MaxElapsedTime = 0

	err := backoff.RetryNotify(
		func() (err error) {
			session, err = connect(cluster, config.Key)
			return err
		},
		backoff.WithMaxRetries(policy, uint64(config.NumRetries)),
		func(err error, wait time.Duration) {
			logger.Warn("connecting to database failed, retrying", zap.Duration("wait", wait), zap.Error(err))
		},
	)
	if err != nil {
		return nil, emperror.WrapWith(err, "Connecting to database failed", "hosts", config.Hosts)
	}
	return newStore(session, config.Key, measures), nil
}

func newClusterConfig(config Config) *gocql.ClusterConfig {
	cluster := gocql.NewCluster(config.Hosts...)
	cluster.Consistency = gocql.LocalQuorum
	cluster.SerialConsistency = gocql.LocalSerial
	cluster.Keyspace = config.Database
	cluster.Timeout = config.OpTimeout
	cluster.NumConns = config.MaxConnsPerHost
	cluster.RetryPolicy = &gocql.SimpleRetryPolicy{NumRetries: 1}
	if config.SSLRootCert != "" && config.SSLCert != "" && config.SSLKey != "" {
		cluster.SslOpts = &gocql.SslOptions{
			CertPath:               config.SSLCert,
			KeyPath:                config.SSLKey,
			CaPath:                 config.SSLRootCert,
			EnableHostVerification: config.EnableHostVerification,
		}
	}
	if config.Username != "" && config.Password != "" {
		cluster.Authenticator = gocql.PasswordAuthenticator{
			Username: config.Username,
			Password: config.Password,
		}
	}
	return cluster
}

func newStore(client dbStore, key string, measures metric.Measures) *Store {
	return &Store{
		client:   client,
		key:      key,
		measures: measures,
		now:      time.Now,
	}
}

func (s *Store) Load(ctx context.Context) (model.GlobalSummary, error) {
	start := s.now()
	doc, err := s.client.Load(ctx)
	if s.observe(summary.ReadType, start, err, summary.ErrNotFound) && err == nil {
		s.measures.LoadedDocuments.Add(1.0)
	}
	return doc, err
}

func (s *Store) Save(ctx context.Context, doc model.GlobalSummary) error {
	start := s.now()
	err := s.client.Save(ctx, doc)
	if s.observe(summary.WriteType, start, err, summary.ErrVersionConflict) && err == nil {
		s.measures.SavedDocuments.Add(1.0)
	}
	return err
}

// observe records the duration and outcome of a query.  An expected error
// still counts as a successful query.
func (s *Store) observe(queryType string, start time.Time, err, expected error) bool {
	s.measures.QueryDuration.With(summary.TypeLabel, queryType).Observe(s.now().Sub(start).Seconds())
	if err != nil && !errors.Is(err, expected) {
		s.measures.QueryFailureCount.With(summary.TypeLabel, queryType).Add(1.0)
		return false
	}
	s.measures.QuerySuccessCount.With(summary.TypeLabel, queryType).Add(1.0)
	return true
}

func (s *Store) Close() {
	s.client.Close()
}

// Ping verifies that the session is still usable.
func (s *Store) Ping() error {
	err := s.client.Ping()
	if err != nil {
		s.measures.QueryFailureCount.With(summary.TypeLabel, summary.PingType).Add(1.0)
		return emperror.WrapWith(err, "Pinging connection failed", "key", s.key)
	}
	s.measures.QuerySuccessCount.With(summary.TypeLabel, summary.PingType).Add(1.0)
	return nil
}

func validateConfig(config *Config) {
	if config.OpTimeout <= 0 {
		config.OpTimeout = defaultOpTimeout
	}
	if config.Database == "" {
		config.Database = defaultDatabase
	}
	if config.Key == "" {
		config.Key = defaultKey
	}
	if config.NumRetries < 0 {
		config.NumRetries = 0
	}
	if config.RetryInterval <= 0 {
		config.RetryInterval = defaultRetryInterval
	}
	if config.MaxConnsPerHost <= 0 {
		config.MaxConnsPerHost = defaultMaxConnsPerHost
	}
}
