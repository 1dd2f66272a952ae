/*
Copyright IBM Corp. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package postgres

import (
	"context"
	"database/sql"

	"github.com/hyperledger-labs/epid-issuance/epid/services/storage/sql/common"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pkg/errors"
)

const (
	Persistence = "postgres"
	driverName  = "pgx"
)

var Dialect = common.Dialect{Name: Persistence, BlobType: "BYTEA"}

type Opts struct {
	DataSource      string
	TablePrefix     string
	MaxOpenConns    int
	SkipCreateTable bool
}

// Open connects to postgres, e.g. with host=localhost port=5432 user=epid dbname=epid sslmode=disable,
// and prepares the tables.
func Open(ctx context.Context, opts Opts) (*common.Store, error) {
	if opts.DataSource == "" {
		return nil, errors.New("postgres datasource not set")
	}
	db, err := sql.Open(driverName, opts.DataSource)
	if err != nil {
		return nil, errors.Wrap(err, "failed opening postgres database")
	}
	if opts.MaxOpenConns > 0 {
		db.SetMaxOpenConns(opts.MaxOpenConns)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, errors.Wrap(err, "failed connecting to postgres")
	}
	s, err := common.NewStore(ctx, db, Dialect, common.Opts{TablePrefix: opts.TablePrefix, SkipCreateTable: opts.SkipCreateTable})
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}
