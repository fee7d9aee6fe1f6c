package event

import (
	"context"
	"testing"
	"time"

	"github.com/spanbridge/go-spanbridge/service/persist"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDispatch_DeliversToAllHandlers(t *testing.T) {
	a := assert.New(t)
	d := NewDispatcher()

	received := make(chan TransferEvent, 2)
	for i := 0; i < 2; i++ {
		d.AddHandler(HandlerFunc(func(ctx context.Context, evt TransferEvent) {
			received <- evt
		}))
	}

	record := persist.BridgeTransferRecord{AppchainID: "barnacle", SequenceID: 3, Status: persist.TransferStatusSucceed}
	d.Dispatch(context.Background(), TransferEvent{AppchainID: "barnacle", Record: record, PreviousStatus: persist.TransferStatusPending})

	for i := 0; i < 2; i++ {
		select {
		case evt := <-received:
			a.NotEmpty(evt.ID, "every event gets its own id")
			a.Equal(persist.TransferStatusPending, evt.PreviousStatus)
			a.Equal(uint64(3), evt.Record.SequenceID)
		case <-time.After(time.Second):
			t.Fatal("handler never received the event")
		}
	}
}

func TestDispatch_PanickingHandlerDoesNotBlockOthers(t *testing.T) {
	d := NewDispatcher()

	d.AddHandler(HandlerFunc(func(ctx context.Context, evt TransferEvent) {
		panic("toast layer exploded")
	}))
	received := make(chan struct{}, 1)
	d.AddHandler(HandlerFunc(func(ctx context.Context, evt TransferEvent) {
		received <- struct{}{}
	}))

	d.Dispatch(context.Background(), TransferEvent{AppchainID: "barnacle"})

	select {
	case <-received:
	case <-time.After(time.Second):
		t.Fatal("surviving handler never ran")
	}
}

func TestDispatch_NilDispatcherIsSafe(t *testing.T) {
	var d *Dispatcher
	require.NotPanics(t, func() {
		d.Dispatch(context.Background(), TransferEvent{})
	})
}
