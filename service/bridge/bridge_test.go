package bridge

import (
	"context"
	"sync"

	"github.com/spanbridge/go-spanbridge/service/persist"
)

// memRepo is an in-memory TransferRepository with the same key semantics as the durable
// implementation.
type memRepo struct {
	mu      sync.Mutex
	records map[persist.AppchainID]map[string]persist.BridgeTransferRecord
	updates int
}

func newMemRepo() *memRepo {
	return &memRepo{records: map[persist.AppchainID]map[string]persist.BridgeTransferRecord{}}
}

func (m *memRepo) Append(ctx context.Context, appchainID persist.AppchainID, record persist.BridgeTransferRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.records[appchainID] == nil {
		m.records[appchainID] = map[string]persist.BridgeTransferRecord{}
	}
	if _, ok := m.records[appchainID][record.Key()]; ok {
		return nil
	}
	m.records[appchainID][record.Key()] = record
	return nil
}

func (m *memRepo) Update(ctx context.Context, appchainID persist.AppchainID, record persist.BridgeTransferRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	current, ok := m.records[appchainID][record.Key()]
	if !ok {
		return persist.ErrTransferNotFound{AppchainID: appchainID, Key: record.Key()}
	}
	if current.Status.IsTerminal() && record.Status != current.Status {
		return persist.ErrInvalidStatusTransition{Key: record.Key(), From: current.Status, To: record.Status}
	}
	m.records[appchainID][record.Key()] = record
	m.updates++
	return nil
}

func (m *memRepo) List(ctx context.Context, appchainID persist.AppchainID) ([]persist.BridgeTransferRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []persist.BridgeTransferRecord{}
	for _, record := range m.records[appchainID] {
		out = append(out, record)
	}
	return out, nil
}

func (m *memRepo) Clear(ctx context.Context, appchainID persist.AppchainID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.records, appchainID)
	return nil
}

func (m *memRepo) get(appchainID persist.AppchainID, key string) (persist.BridgeTransferRecord, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	record, ok := m.records[appchainID][key]
	return record, ok
}
