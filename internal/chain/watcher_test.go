package chain

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum"
	ethcommon "github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sairammr/TruthCast/internal/common"
)

var testOwner = ethcommon.HexToAddress("0x00000000000000000000000000000000000000aa")

// ---- fakes ----

type fakeSub struct {
	errCh chan error

	mu     sync.Mutex
	unsubs int
}

func newFakeSub() *fakeSub {
	return &fakeSub{errCh: make(chan error, 1)}
}

func (s *fakeSub) Unsubscribe() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.unsubs++
	if s.unsubs == 1 {
		// geth closes the error channel on unsubscribe
		close(s.errCh)
	}
}

func (s *fakeSub) Err() <-chan error { return s.errCh }

func (s *fakeSub) unsubscribed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.unsubs > 0
}

type fakeLogBackend struct {
	sub    *fakeSub
	subErr error

	query ethereum.FilterQuery
	logs  chan<- types.Log
}

func (f *fakeLogBackend) SubscribeFilterLogs(ctx context.Context, q ethereum.FilterQuery, ch chan<- types.Log) (ethereum.Subscription, error) {
	f.query = q
	f.logs = ch
	if f.subErr != nil {
		return nil, f.subErr
	}
	return f.sub, nil
}

func secretLog(secret byte, owner ethcommon.Address, tx byte) types.Log {
	parsed, _ := RegistryABI()
	return types.Log{
		Address: testContract,
		Topics: []ethcommon.Hash{
			parsed.Events[EvSecretCreated].ID,
			{31: secret},
			ethcommon.BytesToHash(owner.Bytes()),
		},
		TxHash: ethcommon.Hash{31: tx},
	}
}

func newTestWatcher(t *testing.T) (*Watcher, *fakeLogBackend) {
	t.Helper()
	backend := &fakeLogBackend{sub: newFakeSub()}
	w, err := NewWatcher(backend, testContract, testLogger())
	require.NoError(t, err)
	return w, backend
}

// ---- tests ----

func TestWatchFirstEventWins(t *testing.T) {
	w, backend := newTestWatcher(t)

	wait, err := w.Start(context.Background(), testOwner, time.Second)
	require.NoError(t, err)

	backend.logs <- secretLog(0xab, testOwner, 1)
	backend.logs <- secretLog(0xcd, testOwner, 2) // duplicate, ignored

	evt, err := wait.Await(context.Background())
	require.NoError(t, err)
	assert.Equal(t, ethcommon.Hash{31: 0xab}, evt.SecretHash)
	assert.Equal(t, testOwner, evt.Owner)

	require.Eventually(t, backend.sub.unsubscribed, time.Second, 10*time.Millisecond)
}

func TestWatchFiltersByOwnerTopic(t *testing.T) {
	w, backend := newTestWatcher(t)

	wait, err := w.Start(context.Background(), testOwner, time.Second)
	require.NoError(t, err)
	defer wait.Close()

	require.Len(t, backend.query.Topics, 3)
	parsed, err := RegistryABI()
	require.NoError(t, err)
	assert.Equal(t, []ethcommon.Hash{parsed.Events[EvSecretCreated].ID}, backend.query.Topics[0])
	assert.Nil(t, backend.query.Topics[1])
	assert.Equal(t, []ethcommon.Hash{ethcommon.BytesToHash(testOwner.Bytes())}, backend.query.Topics[2])
	assert.Equal(t, []ethcommon.Address{testContract}, backend.query.Addresses)
}

func TestWatchTimeout(t *testing.T) {
	w, backend := newTestWatcher(t)

	wait, err := w.Start(context.Background(), testOwner, 30*time.Millisecond)
	require.NoError(t, err)

	_, err = wait.Await(context.Background())
	assert.ErrorIs(t, err, common.ErrEventTimeout)
	require.Eventually(t, backend.sub.unsubscribed, time.Second, 10*time.Millisecond)
}

func TestWatchSubscriptionError(t *testing.T) {
	w, backend := newTestWatcher(t)

	wait, err := w.Start(context.Background(), testOwner, time.Second)
	require.NoError(t, err)

	backend.sub.errCh <- errors.New("ws closed")

	_, err = wait.Await(context.Background())
	assert.ErrorIs(t, err, common.ErrSubscription)
	require.Eventually(t, backend.sub.unsubscribed, time.Second, 10*time.Millisecond)
}

func TestWatchSubscribeFails(t *testing.T) {
	backend := &fakeLogBackend{subErr: errors.New("no ws endpoint")}
	w, err := NewWatcher(backend, testContract, testLogger())
	require.NoError(t, err)

	_, err = w.Start(context.Background(), testOwner, time.Second)
	assert.ErrorIs(t, err, common.ErrSubscription)
}

func TestWatchCancellation(t *testing.T) {
	w, backend := newTestWatcher(t)

	wait, err := w.Start(context.Background(), testOwner, time.Minute)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = wait.Await(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	require.Eventually(t, backend.sub.unsubscribed, time.Second, 10*time.Millisecond)
}

func TestWatchIgnoresMalformedLog(t *testing.T) {
	w, backend := newTestWatcher(t)

	wait, err := w.Start(context.Background(), testOwner, 50*time.Millisecond)
	require.NoError(t, err)

	// topic-less log must not resolve the wait
	backend.logs <- types.Log{Address: testContract}

	_, err = wait.Await(context.Background())
	assert.ErrorIs(t, err, common.ErrEventTimeout)
}
