package chain

import (
	"context"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum"
	ethcommon "github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"

	"github.com/sairammr/TruthCast/internal/common"
	"github.com/sairammr/TruthCast/internal/logging"
)

// LogBackend is the subscription subset of the ethclient API.
// *ethclient.Client satisfies it.
type LogBackend interface {
	SubscribeFilterLogs(ctx context.Context, q ethereum.FilterQuery, ch chan<- types.Log) (ethereum.Subscription, error)
}

// SecretEvent is a decoded SecretCreated log.
type SecretEvent struct {
	SecretHash ethcommon.Hash
	Owner      ethcommon.Address
	TxHash     ethcommon.Hash
}

// Watcher subscribes to SecretCreated events on the registry contract.
type Watcher struct {
	backend  LogBackend
	contract ethcommon.Address
	eventID  ethcommon.Hash
	log      logging.Logger
}

func NewWatcher(backend LogBackend, contract ethcommon.Address, log logging.Logger) (*Watcher, error) {
	parsed, err := RegistryABI()
	if err != nil {
		return nil, fmt.Errorf("parse registry abi: %w", err)
	}
	ev, ok := parsed.Events[EvSecretCreated]
	if !ok {
		return nil, fmt.Errorf("abi has no %s event", EvSecretCreated)
	}
	return &Watcher{backend: backend, contract: contract, eventID: ev.ID, log: log}, nil
}

type waitResult struct {
	event *SecretEvent
	err   error
}

// Wait is a single-use handle for one pending SecretCreated event.
// The subscription is torn down on every exit path: first event, timeout,
// subscription error, context cancellation, or an explicit Close.
type Wait struct {
	ch  chan waitResult
	sub ethereum.Subscription
}

// Start opens the log subscription immediately and begins the timeout clock.
// It must be called before the createPreSecret transaction is submitted,
// otherwise the event can fire before the subscription attaches.
//
// Only events whose indexed owner equals the given address are delivered;
// records created by other accounts never resolve this wait.
func (w *Watcher) Start(ctx context.Context, owner ethcommon.Address, timeout time.Duration) (*Wait, error) {
	q := ethereum.FilterQuery{
		Addresses: []ethcommon.Address{w.contract},
		Topics: [][]ethcommon.Hash{
			{w.eventID},
			nil, // any secretHash
			{ethcommon.BytesToHash(owner.Bytes())},
		},
	}

	logs := make(chan types.Log, 8)
	sub, err := w.backend.SubscribeFilterLogs(ctx, q, logs)
	if err != nil {
		return nil, fmt.Errorf("subscribe: %w: %w", common.ErrSubscription, err)
	}

	wt := &Wait{ch: make(chan waitResult, 1), sub: sub}
	go w.pump(ctx, sub, logs, timeout, wt.ch)
	return wt, nil
}

func (w *Watcher) pump(ctx context.Context, sub ethereum.Subscription, logs <-chan types.Log, timeout time.Duration, out chan<- waitResult) {
	defer sub.Unsubscribe()

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	for {
		select {
		case lg := <-logs:
			evt, err := decodeSecretCreated(lg)
			if err != nil {
				w.log.Warn(ctx, "undecodable log ignored", "tx", lg.TxHash.Hex(), "err", err)
				continue
			}
			out <- waitResult{event: evt}
			w.drainDuplicates(ctx, logs)
			return

		case err := <-sub.Err():
			if err == nil {
				// channel closed after Unsubscribe
				return
			}
			out <- waitResult{err: fmt.Errorf("%w: %w", common.ErrSubscription, err)}
			return

		case <-timer.C:
			out <- waitResult{err: common.ErrEventTimeout}
			return

		case <-ctx.Done():
			out <- waitResult{err: ctx.Err()}
			return
		}
	}
}

// drainDuplicates logs any further matching events already buffered on the
// subscription channel. Only the first event is used for a workflow run;
// duplicates usually mean a double submission upstream.
func (w *Watcher) drainDuplicates(ctx context.Context, logs <-chan types.Log) {
	for {
		select {
		case lg := <-logs:
			if evt, err := decodeSecretCreated(lg); err == nil {
				w.log.Warn(ctx, "duplicate SecretCreated ignored",
					"secret_hash", evt.SecretHash.Hex(), "tx", evt.TxHash.Hex())
			}
		default:
			return
		}
	}
}

func decodeSecretCreated(lg types.Log) (*SecretEvent, error) {
	if len(lg.Topics) < 3 {
		return nil, fmt.Errorf("unexpected topic count %d", len(lg.Topics))
	}
	return &SecretEvent{
		SecretHash: lg.Topics[1],
		Owner:      ethcommon.BytesToAddress(lg.Topics[2].Bytes()),
		TxHash:     lg.TxHash,
	}, nil
}

// Await blocks until the event arrives or the wait fails. Cancelling ctx
// tears the subscription down and returns the context error.
func (wt *Wait) Await(ctx context.Context) (*SecretEvent, error) {
	select {
	case r := <-wt.ch:
		return r.event, r.err
	case <-ctx.Done():
		wt.Close()
		return nil, ctx.Err()
	}
}

// Close tears the subscription down. Safe to call more than once.
func (wt *Wait) Close() {
	wt.sub.Unsubscribe()
}
