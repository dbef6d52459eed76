package db

import (
	"context"
	"database/sql"
	"sync"
	"time"

	"bikewatching/internal/traffic"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

// Source serves trips and stations from Postgres. With a city set, every load
// re-resolves the latest imported database and switches to it when it changed
// or when the current connection stops answering.
type Source struct {
	baseDSN  string
	city     string
	loc      *time.Location
	onSwitch func(reason string)

	mu     sync.Mutex
	db     *sql.DB
	dbName string
}

// NewSource connects to the dataset database. onSwitch, if non-nil, is called
// with "update" or "ping_failure" whenever the source moves to another database.
func NewSource(ctx context.Context, baseDSN, city string, loc *time.Location, onSwitch func(reason string)) (*Source, error) {
	s := &Source{baseDSN: baseDSN, city: city, loc: loc, onSwitch: onSwitch}
	dsn := baseDSN
	if city != "" {
		name, err := s.resolve(ctx)
		if err != nil {
			return nil, errors.Wrapf(err, "resolve latest import for city %q", city)
		}
		if dsn, err = WithDBName(baseDSN, name); err != nil {
			return nil, err
		}
		s.dbName = name
		log.Printf("Using database %q for city %q", name, city)
	}
	conn, err := Open(dsn)
	if err != nil {
		return nil, errors.Wrap(err, "db open")
	}
	if err := Ping(ctx, conn); err != nil {
		conn.Close()
		return nil, errors.Wrap(err, "db ping")
	}
	s.db = conn
	return s, nil
}

func (s *Source) LoadTrips(ctx context.Context) ([]traffic.RawTrip, error) {
	conn, err := s.conn(ctx)
	if err != nil {
		return nil, err
	}
	return FetchTrips(ctx, conn, s.loc)
}

func (s *Source) LoadStations(ctx context.Context) ([]traffic.Station, error) {
	conn, err := s.conn(ctx)
	if err != nil {
		return nil, err
	}
	return FetchStations(ctx, conn)
}

func (s *Source) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// resolve looks up the latest import through a short-lived connection to the
// cluster's 'postgres' database.
func (s *Source) resolve(ctx context.Context) (string, error) {
	rootDSN, err := WithDBName(s.baseDSN, "postgres")
	if err != nil {
		return "", err
	}
	meta, err := Open(rootDSN)
	if err != nil {
		return "", errors.Wrap(err, "meta db open")
	}
	defer meta.Close()
	if err := Ping(ctx, meta); err != nil {
		return "", errors.Wrap(err, "meta db ping")
	}
	return ResolveLatestImportDBName(ctx, meta, s.city)
}

func (s *Source) conn(ctx context.Context) (*sql.DB, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.city == "" {
		return s.db, nil
	}

	reason := ""
	if err := Ping(ctx, s.db); err != nil {
		log.Printf("db ping failed, re-resolving city DB: %v", err)
		reason = "ping_failure"
	}
	target := s.dbName
	newName, err := s.resolve(ctx)
	if err != nil {
		log.Printf("resolve latest import error: %v", err)
	} else if newName != s.dbName {
		log.Printf("Detected updated DB for city %q: %q -> %q", s.city, s.dbName, newName)
		target = newName
		reason = "update"
	}
	if reason == "" {
		return s.db, nil
	}

	dsn, err := WithDBName(s.baseDSN, target)
	if err != nil {
		return nil, err
	}
	next, err := Open(dsn)
	if err != nil {
		return nil, errors.Wrap(err, "open new DB")
	}
	if err := Ping(ctx, next); err != nil {
		next.Close()
		return nil, errors.Wrap(err, "ping new DB")
	}
	s.db.Close()
	s.db = next
	s.dbName = target
	if s.onSwitch != nil {
		s.onSwitch(reason)
	}
	log.Printf("Switched to DB %q for city %q", target, s.city)
	return s.db, nil
}
