/*
Copyright IBM Corp. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package sqlite

import (
	"context"
	"database/sql"
	"strings"

	"github.com/hyperledger-labs/epid-issuance/epid/services/storage/sql/common"
	"github.com/pkg/errors"
	_ "modernc.org/sqlite"
)

const (
	Persistence = "sqlite"
	driverName  = "sqlite"
)

var Dialect = common.Dialect{Name: Persistence, BlobType: "BLOB"}

type Opts struct {
	DataSource      string
	TablePrefix     string
	MaxOpenConns    int
	SkipCreateTable bool
	SkipPragmas     bool
}

// Open connects to the sqlite database described by opts.DataSource
// (e.g. file:/var/epid/issuer.db) and prepares the tables.
func Open(ctx context.Context, opts Opts) (*common.Store, error) {
	if opts.DataSource == "" {
		return nil, errors.New("sqlite datasource not set")
	}
	ds := opts.DataSource
	if !opts.SkipPragmas {
		ds = withPragmas(ds)
	}
	db, err := sql.Open(driverName, ds)
	if err != nil {
		return nil, errors.Wrap(err, "failed opening sqlite database")
	}
	if opts.MaxOpenConns > 0 {
		db.SetMaxOpenConns(opts.MaxOpenConns)
		db.SetMaxIdleConns(opts.MaxOpenConns)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, errors.Wrap(err, "failed connecting to sqlite database")
	}
	s, err := common.NewStore(ctx, db, Dialect, common.Opts{TablePrefix: opts.TablePrefix, SkipCreateTable: opts.SkipCreateTable})
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

// withPragmas adds a busy timeout and foreign keys unless the datasource sets its own pragmas.
func withPragmas(ds string) string {
	if strings.Contains(ds, "_pragma=") {
		return ds
	}
	sep := "?"
	if strings.Contains(ds, "?") {
		sep = "&"
	}
	return ds + sep + "_pragma=busy_timeout(20000)&_pragma=foreign_keys(1)"
}
