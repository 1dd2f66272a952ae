/*
Copyright IBM Corp. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package memory

import (
	"context"
	"fmt"

	"github.com/hashicorp/go-uuid"
	"github.com/hyperledger-labs/epid-issuance/epid/services/storage/sql/common"
	"github.com/hyperledger-labs/epid-issuance/epid/services/storage/sql/sqlite"
	"github.com/pkg/errors"
)

const Persistence = "memory"

// Open returns a store backed by a private in-memory sqlite database.
// The content is lost when the store is closed.
func Open(ctx context.Context, tablePrefix string) (*common.Store, error) {
	name, err := uuid.GenerateUUID()
	if err != nil {
		return nil, errors.Wrap(err, "failed naming in-memory database")
	}
	return sqlite.Open(ctx, sqlite.Opts{
		DataSource:   fmt.Sprintf("file:%s?mode=memory&cache=shared", name),
		TablePrefix:  tablePrefix,
		MaxOpenConns: 1,
	})
}
