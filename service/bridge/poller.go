package bridge

import (
	"context"
	"encoding/json"
	"sync"
	"sync/atomic"
	"time"

	"github.com/spanbridge/go-spanbridge/event"
	"github.com/spanbridge/go-spanbridge/service/logger"
	"github.com/spanbridge/go-spanbridge/service/persist"
	"github.com/spanbridge/go-spanbridge/util"
	"github.com/sirupsen/logrus"
)

// DefaultPollInterval is how often the reconciliation pass runs when no override is
// configured.
const DefaultPollInterval = 5 * time.Second

// HomeQuerier is the home-ledger read capability the poller needs
type HomeQuerier interface {
	ViewFunction(ctx context.Context, contractID persist.ContractID, method string, args interface{}) (json.RawMessage, error)
}

// AppchainQuerier is the appchain read capability the poller needs
type AppchainQuerier interface {
	NotificationHistory(ctx context.Context, sequenceID uint64) (json.RawMessage, error)
}

// Poller reconciles pending transfers for one appchain against the two chains. Each
// direction's proof of completion lives on the receiving chain, so the poller asks the
// home ledger about appchain→home transfers and the appchain about home→appchain
// transfers.
//
// Reconciliation is a set operation, not a queue: records may resolve out of submission
// order.
type Poller struct {
	repo     persist.TransferRepository
	home     HomeQuerier
	appchain AppchainQuerier
	events   *event.Dispatcher

	appchainID persist.AppchainID
	anchor     persist.ContractID
	interval   time.Duration

	// inFlight bounds outstanding queries to at most one full pass; a tick that fires
	// while the previous pass is still running is skipped entirely
	inFlight int32

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

// NewPoller creates a poller for the given appchain. interval <= 0 selects the default.
func NewPoller(repo persist.TransferRepository, home HomeQuerier, appchain AppchainQuerier, events *event.Dispatcher, appchainID persist.AppchainID, anchor persist.ContractID, interval time.Duration) *Poller {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	return &Poller{
		repo:       repo,
		home:       home,
		appchain:   appchain,
		events:     events,
		appchainID: appchainID,
		anchor:     anchor,
		interval:   interval,
	}
}

// Start begins the reconciliation loop. Starting an already running poller is a no-op.
func (p *Poller) Start(ctx context.Context) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.cancel != nil {
		return
	}

	ctx, cancel := context.WithCancel(ctx)
	p.cancel = cancel
	p.done = make(chan struct{})

	go p.run(ctx)
	logger.For(ctx).WithField("appchain", p.appchainID).Infof("reconciliation poller started, interval %v", p.interval)
}

// Stop tears the loop down and waits for any in-flight pass to notice the cancellation.
// It is the handle the UI layer invokes on navigation or appchain switch; the ledger
// itself is left untouched.
func (p *Poller) Stop() {
	p.mu.Lock()
	cancel, done := p.cancel, p.done
	p.cancel, p.done = nil, nil
	p.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
}

func (p *Poller) run(ctx context.Context) {
	defer close(p.done)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.tick(ctx)
		}
	}
}

// tick runs one full reconciliation pass. The in-flight guard is released on every exit
// path, including panics surfaced through the deferred release.
func (p *Poller) tick(ctx context.Context) {
	if !atomic.CompareAndSwapInt32(&p.inFlight, 0, 1) {
		logger.For(ctx).Debug("previous reconciliation pass still in flight, skipping tick")
		return
	}
	defer atomic.StoreInt32(&p.inFlight, 0)
	defer util.Track("reconciliation pass", time.Now())

	records, err := p.repo.List(ctx, p.appchainID)
	if err != nil {
		logger.For(ctx).Errorf("failed to list pending transfers: %s", err)
		return
	}

	for _, record := range records {
		if record.Status != persist.TransferStatusPending {
			continue
		}
		p.reconcile(ctx, record)
	}
}

// reconcile resolves one pending record against its receiving chain. A transport
// failure leaves the record pending for the next tick; only a chain-reported result
// produces a terminal transition.
func (p *Poller) reconcile(ctx context.Context, record persist.BridgeTransferRecord) {
	log := logger.For(ctx).WithFields(logrus.Fields{
		"appchain":  record.AppchainID,
		"direction": record.Direction,
		"sequence":  record.SequenceID,
	})

	outcome, err := p.queryOutcome(ctx, record)
	if err != nil {
		log.Debugf("reconciliation query failed, will retry next tick: %s", err)
		return
	}
	if outcome.Kind == OutcomePending {
		return
	}

	// a query that resolves after teardown is discarded, not applied
	if ctx.Err() != nil {
		return
	}

	previous := record.Status
	switch outcome.Kind {
	case OutcomeSucceed:
		record.Status = persist.TransferStatusSucceed
	case OutcomeFailed:
		record.Status = persist.TransferStatusFailed
		record.Message = outcome.Message
	}

	if err := p.repo.Update(ctx, record.AppchainID, record); err != nil {
		log.Errorf("failed to apply transfer transition: %s", err)
		return
	}
	log.Infof("transfer resolved to %s", record.Status)
	p.events.Dispatch(ctx, event.TransferEvent{AppchainID: record.AppchainID, Record: record, PreviousStatus: previous})
}

func (p *Poller) queryOutcome(ctx context.Context, record persist.BridgeTransferRecord) (MessageOutcome, error) {
	if record.Direction == persist.DirectionAppchainToHome {
		raw, err := p.home.ViewFunction(ctx, p.anchor, "get_message_processing_result", map[string]uint64{"nonce": record.SequenceID})
		if err != nil {
			return MessageOutcome{}, err
		}
		return ParseProcessingResult(raw)
	}

	raw, err := p.appchain.NotificationHistory(ctx, record.SequenceID)
	if err != nil {
		return MessageOutcome{}, err
	}
	return ParseNotificationResult(raw)
}
