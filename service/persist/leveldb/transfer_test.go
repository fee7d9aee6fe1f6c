package leveldb

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/spanbridge/go-spanbridge/service/persist"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTest(t *testing.T) (*assert.Assertions, *TransferRepository, context.Context) {
	t.Helper()
	repo, err := NewTransferRepository(filepath.Join(t.TempDir(), "ledger"))
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })
	return assert.New(t), repo, context.Background()
}

func newRecord(appchain persist.AppchainID, direction persist.Direction, seq uint64) persist.BridgeTransferRecord {
	return persist.BridgeTransferRecord{
		AppchainID:      appchain,
		SequenceID:      seq,
		Direction:       direction,
		FromAccount:     "alice.testnet",
		ToAccount:       "0xd43593c715fdd31c61141abd04a99fd6822c8558854ccde39a5684e7a56da27d",
		Amount:          "1000000000000000000",
		TokenContractID: "wrapped.testnet",
		Status:          persist.TransferStatusPending,
		Timestamp:       time.Now(),
		Hash:            "9mXy...",
	}
}

func TestAppend_Idempotent(t *testing.T) {
	a, repo, ctx := setupTest(t)

	record := newRecord("barnacle", persist.DirectionHomeToAppchain, 7)
	a.NoError(repo.Append(ctx, record.AppchainID, record))
	a.NoError(repo.Append(ctx, record.AppchainID, record))

	records, err := repo.List(ctx, record.AppchainID)
	a.NoError(err)
	a.Len(records, 1)
}

func TestAppend_SameSequenceDifferentDirection(t *testing.T) {
	a, repo, ctx := setupTest(t)

	out := newRecord("barnacle", persist.DirectionHomeToAppchain, 7)
	in := newRecord("barnacle", persist.DirectionAppchainToHome, 7)
	a.NoError(repo.Append(ctx, "barnacle", out))
	a.NoError(repo.Append(ctx, "barnacle", in))

	records, err := repo.List(ctx, "barnacle")
	a.NoError(err)
	a.Len(records, 2)
}

func TestUpdate_TransitionsForward(t *testing.T) {
	a, repo, ctx := setupTest(t)

	record := newRecord("barnacle", persist.DirectionHomeToAppchain, 1)
	a.NoError(repo.Append(ctx, "barnacle", record))

	record.Status = persist.TransferStatusSucceed
	a.NoError(repo.Update(ctx, "barnacle", record))

	records, err := repo.List(ctx, "barnacle")
	a.NoError(err)
	a.Equal(persist.TransferStatusSucceed, records[0].Status)
}

func TestUpdate_TerminalStatusIsImmutable(t *testing.T) {
	a, repo, ctx := setupTest(t)

	record := newRecord("barnacle", persist.DirectionAppchainToHome, 3)
	a.NoError(repo.Append(ctx, "barnacle", record))

	record.Status = persist.TransferStatusFailed
	record.Message = "Insufficient balance"
	a.NoError(repo.Update(ctx, "barnacle", record))

	record.Status = persist.TransferStatusSucceed
	err := repo.Update(ctx, "barnacle", record)
	a.ErrorAs(err, &persist.ErrInvalidStatusTransition{})

	record.Status = persist.TransferStatusPending
	err = repo.Update(ctx, "barnacle", record)
	a.ErrorAs(err, &persist.ErrInvalidStatusTransition{})

	records, err := repo.List(ctx, "barnacle")
	a.NoError(err)
	a.Equal(persist.TransferStatusFailed, records[0].Status)
	a.Equal("Insufficient balance", records[0].Message)
}

func TestUpdate_MissingRecord(t *testing.T) {
	a, repo, ctx := setupTest(t)

	err := repo.Update(ctx, "barnacle", newRecord("barnacle", persist.DirectionHomeToAppchain, 99))
	a.ErrorAs(err, &persist.ErrTransferNotFound{})
}

func TestClear_ScopedToAppchain(t *testing.T) {
	a, repo, ctx := setupTest(t)

	a.NoError(repo.Append(ctx, "barnacle", newRecord("barnacle", persist.DirectionHomeToAppchain, 1)))
	a.NoError(repo.Append(ctx, "barnacle", newRecord("barnacle", persist.DirectionAppchainToHome, 2)))
	a.NoError(repo.Append(ctx, "debio", newRecord("debio", persist.DirectionHomeToAppchain, 1)))

	a.NoError(repo.Clear(ctx, "barnacle"))

	cleared, err := repo.List(ctx, "barnacle")
	a.NoError(err)
	a.Empty(cleared)

	kept, err := repo.List(ctx, "debio")
	a.NoError(err)
	a.Len(kept, 1)
}

func TestLedger_SurvivesReopen(t *testing.T) {
	a := assert.New(t)
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "ledger")

	repo, err := NewTransferRepository(path)
	require.NoError(t, err)
	a.NoError(repo.Append(ctx, "barnacle", newRecord("barnacle", persist.DirectionHomeToAppchain, 12)))
	require.NoError(t, repo.Close())

	reopened, err := NewTransferRepository(path)
	require.NoError(t, err)
	defer reopened.Close()

	records, err := reopened.List(ctx, "barnacle")
	a.NoError(err)
	a.Len(records, 1)
	a.Equal(uint64(12), records[0].SequenceID)
}
