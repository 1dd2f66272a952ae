/*
Copyright IBM Corp. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package storage

import (
	"context"

	"github.com/hyperledger-labs/epid-issuance/epid/services/config"
	"github.com/hyperledger-labs/epid-issuance/epid/services/logging"
	"github.com/hyperledger-labs/epid-issuance/epid/services/storage/driver"
	"github.com/hyperledger-labs/epid-issuance/epid/services/storage/memory"
	"github.com/hyperledger-labs/epid-issuance/epid/services/storage/sql/postgres"
	"github.com/hyperledger-labs/epid-issuance/epid/services/storage/sql/sqlite"
	"github.com/pkg/errors"
)

var logger = logging.MustGetLogger("services", "storage")

// Open returns the store selected by cfg.Type.
func Open(ctx context.Context, cfg config.Storage) (driver.Store, error) {
	logger.Infof("opening [%s] storage", cfg.Type)
	switch cfg.Type {
	case config.MemoryStorage, "":
		return memory.Open(ctx, cfg.TablePrefix)
	case config.SQLiteStorage:
		return sqlite.Open(ctx, sqlite.Opts{
			DataSource:      cfg.DataSource,
			TablePrefix:     cfg.TablePrefix,
			MaxOpenConns:    cfg.MaxOpenConns,
			SkipCreateTable: cfg.SkipCreateTable,
		})
	case config.PostgresStorage:
		return postgres.Open(ctx, postgres.Opts{
			DataSource:      cfg.DataSource,
			TablePrefix:     cfg.TablePrefix,
			MaxOpenConns:    cfg.MaxOpenConns,
			SkipCreateTable: cfg.SkipCreateTable,
		})
	default:
		return nil, errors.Errorf("unknown storage type [%s]", cfg.Type)
	}
}
