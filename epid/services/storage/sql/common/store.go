/*
Copyright IBM Corp. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package common

import (
	"context"
	"database/sql"
	"fmt"
	"regexp"
	"runtime/debug"
	"strings"
	"time"

	"github.com/hyperledger-labs/epid-issuance/epid/core/keys"
	"github.com/hyperledger-labs/epid-issuance/epid/services/logging"
	"github.com/hyperledger-labs/epid-issuance/epid/services/storage/driver"
	"github.com/pkg/errors"
)

var logger = logging.MustGetLogger("services", "storage", "sql")

const maxPrefixLength = 100

var prefixPattern = regexp.MustCompile("^[a-zA-Z_]+$")

// Dialect captures what differs between the supported databases.
type Dialect struct {
	Name     string
	BlobType string
}

type Opts struct {
	TablePrefix     string
	SkipCreateTable bool
}

type tableNames struct {
	Nonces      string
	Credentials string
}

func getTableNames(prefix string) (tableNames, error) {
	if prefix != "" {
		if len(prefix) > maxPrefixLength {
			return tableNames{}, errors.Errorf("table prefix must be at most %d characters", maxPrefixLength)
		}
		if !prefixPattern.MatchString(prefix) {
			return tableNames{}, errors.New("illegal character in table prefix, only letters and underscores allowed")
		}
		prefix = strings.ToLower(prefix) + "_"
	}
	return tableNames{
		Nonces:      prefix + "nonces",
		Credentials: prefix + "credentials",
	}, nil
}

// Store implements driver.Store on top of database/sql.
type Store struct {
	db      *sql.DB
	dialect Dialect
	table   tableNames
}

func NewStore(ctx context.Context, db *sql.DB, dialect Dialect, opts Opts) (*Store, error) {
	names, err := getTableNames(opts.TablePrefix)
	if err != nil {
		return nil, errors.Wrapf(err, "invalid table prefix [%s]", opts.TablePrefix)
	}
	s := &Store{db: db, dialect: dialect, table: names}
	if !opts.SkipCreateTable {
		if err := s.CreateSchema(ctx); err != nil {
			return nil, err
		}
	}
	return s, nil
}

func (s *Store) CreateSchema(ctx context.Context) error {
	return initSchema(ctx, s.db, s.schemas()...)
}

func (s *Store) schemas() []string {
	return []string{
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
			gid %s NOT NULL,
			nonce %s NOT NULL,
			expires_at BIGINT NOT NULL,
			consumed INT NOT NULL DEFAULT 0,
			PRIMARY KEY (gid, nonce)
		)`, s.table.Nonces, s.dialect.BlobType, s.dialect.BlobType),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
			gid %s NOT NULL,
			f %s NOT NULL,
			nonce %s NOT NULL,
			a %s NOT NULL,
			x %s NOT NULL,
			issued_at BIGINT NOT NULL,
			PRIMARY KEY (gid, f)
		)`, s.table.Credentials, s.dialect.BlobType, s.dialect.BlobType, s.dialect.BlobType, s.dialect.BlobType, s.dialect.BlobType),
	}
}

func (s *Store) PutNonce(ctx context.Context, gid keys.GroupID, nonce keys.Nonce, expiresAt time.Time) error {
	query := fmt.Sprintf("INSERT INTO %s (gid, nonce, expires_at, consumed) VALUES ($1, $2, $3, 0)", s.table.Nonces)
	logger.Debug(query)
	if _, err := s.db.ExecContext(ctx, query, gid[:], nonce[:], unixNano(expiresAt)); err != nil {
		return errors.Wrapf(err, "failed storing nonce for group [%s]", gid)
	}
	return nil
}

func (s *Store) ConsumeNonce(ctx context.Context, gid keys.GroupID, nonce keys.Nonce, now time.Time) error {
	query := fmt.Sprintf("UPDATE %s SET consumed = 1 WHERE gid = $1 AND nonce = $2 AND consumed = 0 AND (expires_at = 0 OR expires_at > $3)", s.table.Nonces)
	logger.Debug(query)
	res, err := s.db.ExecContext(ctx, query, gid[:], nonce[:], now.UnixNano())
	if err != nil {
		return errors.Wrapf(err, "failed consuming nonce for group [%s]", gid)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return errors.Wrap(err, "failed reading affected rows")
	}
	if n == 1 {
		return nil
	}

	query = fmt.Sprintf("SELECT consumed FROM %s WHERE gid = $1 AND nonce = $2", s.table.Nonces)
	logger.Debug(query)
	var consumed int
	err = s.db.QueryRowContext(ctx, query, gid[:], nonce[:]).Scan(&consumed)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return driver.ErrUnknownNonce
	case err != nil:
		return errors.Wrapf(err, "failed looking up nonce for group [%s]", gid)
	case consumed != 0:
		return driver.ErrNonceConsumed
	default:
		return driver.ErrNonceExpired
	}
}

func (s *Store) RecordCredential(ctx context.Context, rec *driver.CredentialRecord) error {
	query := fmt.Sprintf("INSERT INTO %s (gid, f, nonce, a, x, issued_at) VALUES ($1, $2, $3, $4, $5, $6)", s.table.Credentials)
	logger.Debug(query)
	_, err := s.db.ExecContext(ctx, query, rec.GID[:], rec.F, rec.Nonce[:], rec.A, rec.X, rec.IssuedAt.UnixNano())
	if err == nil {
		return nil
	}
	// tell a primary key violation apart without parsing driver errors
	if existing, lookupErr := s.CredentialByF(ctx, rec.GID, rec.F); lookupErr == nil && existing != nil {
		return driver.ErrDuplicateCredential
	}
	return errors.Wrapf(err, "failed recording credential for group [%s]", rec.GID)
}

func (s *Store) CredentialByF(ctx context.Context, gid keys.GroupID, F []byte) (*driver.CredentialRecord, error) {
	query := fmt.Sprintf("SELECT nonce, a, x, issued_at FROM %s WHERE gid = $1 AND f = $2", s.table.Credentials)
	logger.Debug(query)
	var (
		nonce    []byte
		rec      = &driver.CredentialRecord{GID: gid, F: F}
		issuedAt int64
	)
	err := s.db.QueryRowContext(ctx, query, gid[:], F).Scan(&nonce, &rec.A, &rec.X, &issuedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrapf(err, "failed looking up credential for group [%s]", gid)
	}
	if rec.Nonce, err = keys.NonceFromBytes(nonce); err != nil {
		return nil, err
	}
	rec.IssuedAt = time.Unix(0, issuedAt).UTC()
	return rec, nil
}

func (s *Store) CountIssued(ctx context.Context, gid keys.GroupID) (int, error) {
	query := fmt.Sprintf("SELECT COUNT(*) FROM %s WHERE gid = $1", s.table.Credentials)
	return QueryUnique[int](ctx, s.db, query, gid[:])
}

func (s *Store) HealthCheck(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return errors.Wrapf(err, "%s database unreachable", s.dialect.Name)
	}
	return nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// QueryUnique returns the single value selected by query, or the zero value if there is no row.
func QueryUnique[T any](ctx context.Context, db *sql.DB, query string, args ...any) (T, error) {
	logger.Debug(query)
	var result T
	err := db.QueryRowContext(ctx, query, args...).Scan(&result)
	if err != nil && errors.Is(err, sql.ErrNoRows) {
		return result, nil
	}
	return result, err
}

func initSchema(ctx context.Context, db *sql.DB, schemas ...string) (err error) {
	logger.Info("creating tables")
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "failed starting schema transaction")
	}
	defer func() {
		if err != nil && tx != nil {
			if err := tx.Rollback(); err != nil {
				logger.Errorf("failed to rollback [%s][%s]", err, debug.Stack())
			}
		}
	}()
	for _, schema := range schemas {
		logger.Debug(schema)
		if _, err = tx.ExecContext(ctx, schema); err != nil {
			return errors.Wrap(err, "error creating schema")
		}
	}
	return tx.Commit()
}

func unixNano(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.UnixNano()
}
