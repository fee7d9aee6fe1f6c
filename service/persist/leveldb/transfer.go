package leveldb

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/spanbridge/go-spanbridge/service/logger"
	"github.com/spanbridge/go-spanbridge/service/persist"
	"github.com/syndtr/goleveldb/leveldb"
	ldbutil "github.com/syndtr/goleveldb/leveldb/util"
)

// TransferRepository is a durable TransferRepository backed by an embedded leveldb
// database. Records are keyed <appchain>/<direction>:<sequence> so one appchain's
// records can be iterated and cleared without touching another's.
type TransferRepository struct {
	db *leveldb.DB
}

// NewTransferRepository opens (or creates) the ledger database at path
func NewTransferRepository(path string) (*TransferRepository, error) {
	db, err := leveldb.OpenFile(path, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to open transfer ledger at %s: %w", path, err)
	}
	return &TransferRepository{db: db}, nil
}

// Close closes the underlying database
func (r *TransferRepository) Close() error {
	return r.db.Close()
}

// Append adds a new record. A record whose key already exists is left untouched:
// resubmission after a client reload must not create phantom duplicates.
func (r *TransferRepository) Append(ctx context.Context, appchainID persist.AppchainID, record persist.BridgeTransferRecord) error {
	key := recordKey(appchainID, record)

	exists, err := r.db.Has(key, nil)
	if err != nil {
		return err
	}
	if exists {
		logger.For(ctx).WithField("key", string(key)).Debug("transfer already recorded, skipping append")
		return nil
	}

	value, err := json.Marshal(record)
	if err != nil {
		return err
	}
	return r.db.Put(key, value, nil)
}

// Update replaces a record by its key, enforcing forward-only status transitions. A
// record whose persisted status is terminal is immutable.
func (r *TransferRepository) Update(ctx context.Context, appchainID persist.AppchainID, record persist.BridgeTransferRecord) error {
	key := recordKey(appchainID, record)

	existing, err := r.db.Get(key, nil)
	if err == leveldb.ErrNotFound {
		return persist.ErrTransferNotFound{AppchainID: appchainID, Key: record.Key()}
	}
	if err != nil {
		return err
	}

	var current persist.BridgeTransferRecord
	if err := json.Unmarshal(existing, &current); err != nil {
		return err
	}
	if current.Status.IsTerminal() && record.Status != current.Status {
		return persist.ErrInvalidStatusTransition{Key: record.Key(), From: current.Status, To: record.Status}
	}

	value, err := json.Marshal(record)
	if err != nil {
		return err
	}
	return r.db.Put(key, value, nil)
}

// List returns every record for an appchain. The ledger imposes no filtering or
// ordering; that is the caller's concern.
func (r *TransferRepository) List(ctx context.Context, appchainID persist.AppchainID) ([]persist.BridgeTransferRecord, error) {
	records := []persist.BridgeTransferRecord{}

	iter := r.db.NewIterator(ldbutil.BytesPrefix(appchainPrefix(appchainID)), nil)
	defer iter.Release()
	for iter.Next() {
		var record persist.BridgeTransferRecord
		if err := json.Unmarshal(iter.Value(), &record); err != nil {
			logger.For(ctx).WithField("key", string(iter.Key())).Errorf("skipping unreadable ledger entry: %s", err)
			continue
		}
		records = append(records, record)
	}
	if err := iter.Error(); err != nil {
		return nil, err
	}
	return records, nil
}

// Clear deletes all records for an appchain, leaving other appchains untouched
func (r *TransferRepository) Clear(ctx context.Context, appchainID persist.AppchainID) error {
	batch := new(leveldb.Batch)

	iter := r.db.NewIterator(ldbutil.BytesPrefix(appchainPrefix(appchainID)), nil)
	for iter.Next() {
		key := make([]byte, len(iter.Key()))
		copy(key, iter.Key())
		batch.Delete(key)
	}
	iter.Release()
	if err := iter.Error(); err != nil {
		return err
	}

	return r.db.Write(batch, nil)
}

func appchainPrefix(appchainID persist.AppchainID) []byte {
	return []byte(fmt.Sprintf("%s/", appchainID))
}

func recordKey(appchainID persist.AppchainID, record persist.BridgeTransferRecord) []byte {
	return []byte(fmt.Sprintf("%s/%s", appchainID, record.Key()))
}
