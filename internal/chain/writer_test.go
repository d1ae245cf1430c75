package chain

import (
	"context"
	"errors"
	"log/slog"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	ethcommon "github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sairammr/TruthCast/internal/common"
	"github.com/sairammr/TruthCast/internal/logging"
)

var testContract = ethcommon.HexToAddress("0x00000000000000000000000000000000c0ffee00")

func testLogger() logging.Logger {
	return logging.NewSlogLogger(slog.New(slog.DiscardHandler))
}

// ---- fake backend ----

type fakeTxBackend struct {
	chainID  *big.Int
	nonce    uint64
	baseFee  *big.Int
	tip      *big.Int
	gasPrice *big.Int

	chainIDErr  error
	nonceErr    error
	estimateErr error
	sendErr     error

	sentTx     *types.Transaction
	estimated  *ethereum.CallMsg
	sendCalled bool
}

func (f *fakeTxBackend) ChainID(ctx context.Context) (*big.Int, error) {
	return f.chainID, f.chainIDErr
}

func (f *fakeTxBackend) PendingNonceAt(ctx context.Context, account ethcommon.Address) (uint64, error) {
	return f.nonce, f.nonceErr
}

func (f *fakeTxBackend) HeaderByNumber(ctx context.Context, number *big.Int) (*types.Header, error) {
	return &types.Header{BaseFee: f.baseFee, Number: big.NewInt(1), Difficulty: big.NewInt(0)}, nil
}

func (f *fakeTxBackend) SuggestGasTipCap(ctx context.Context) (*big.Int, error) {
	return f.tip, nil
}

func (f *fakeTxBackend) SuggestGasPrice(ctx context.Context) (*big.Int, error) {
	return f.gasPrice, nil
}

func (f *fakeTxBackend) EstimateGas(ctx context.Context, msg ethereum.CallMsg) (uint64, error) {
	f.estimated = &msg
	return 60000, f.estimateErr
}

func (f *fakeTxBackend) SendTransaction(ctx context.Context, tx *types.Transaction) error {
	f.sendCalled = true
	f.sentTx = tx
	return f.sendErr
}

func newFakeBackend() *fakeTxBackend {
	return &fakeTxBackend{
		chainID:  big.NewInt(1337),
		nonce:    7,
		baseFee:  big.NewInt(100),
		tip:      big.NewInt(2),
		gasPrice: big.NewInt(50),
	}
}

// rpcDataError mimics a JSON-RPC error carrying ABI-encoded revert data.
type rpcDataError struct {
	msg  string
	data any
}

func (e *rpcDataError) Error() string  { return e.msg }
func (e *rpcDataError) ErrorData() any { return e.data }

func encodeRevert(t *testing.T, reason string) string {
	t.Helper()
	typ, err := abi.NewType("string", "", nil)
	require.NoError(t, err)
	enc, err := abi.Arguments{{Type: typ}}.Pack(reason)
	require.NoError(t, err)
	// Error(string) selector
	return hexutil.Encode(append(hexutil.MustDecode("0x08c379a0"), enc...))
}

// ---- tests ----

func TestSubmitHappyPath(t *testing.T) {
	backend := newFakeBackend()
	w, err := NewWriter(backend, testContract, newTestSigner(t), testLogger())
	require.NoError(t, err)

	receipt, err := w.Submit(context.Background(), Call{
		Function: FnCreatePreSecret,
		Args:     []any{ethcommon.HexToAddress("0x00000000000000000000000000000000000000aa")},
	})
	require.NoError(t, err)
	require.NotNil(t, receipt)

	require.NotNil(t, backend.sentTx)
	assert.Equal(t, backend.sentTx.Hash(), receipt.TxHash)
	assert.Equal(t, uint64(7), backend.sentTx.Nonce())
	assert.Equal(t, uint8(types.DynamicFeeTxType), backend.sentTx.Type())
	assert.Equal(t, &testContract, backend.sentTx.To())

	// call data targets the contract with the packed function selector
	require.NotNil(t, backend.estimated)
	parsed, err := RegistryABI()
	require.NoError(t, err)
	assert.Equal(t, parsed.Methods[FnCreatePreSecret].ID, backend.estimated.Data[:4])
}

func TestSubmitLegacyTxWhenNoBaseFee(t *testing.T) {
	backend := newFakeBackend()
	backend.baseFee = nil
	w, err := NewWriter(backend, testContract, newTestSigner(t), testLogger())
	require.NoError(t, err)

	_, err = w.Submit(context.Background(), Call{
		Function: FnAssociatePostDetails,
		Args:     []any{[32]byte{1}, "0x01"},
	})
	require.NoError(t, err)
	assert.Equal(t, uint8(types.LegacyTxType), backend.sentTx.Type())
}

func TestSubmitNoSigner(t *testing.T) {
	backend := newFakeBackend()
	w, err := NewWriter(backend, testContract, nil, testLogger())
	require.NoError(t, err)

	_, err = w.Submit(context.Background(), Call{Function: FnCreatePreSecret, Args: []any{ethcommon.Address{}}})
	assert.ErrorIs(t, err, common.ErrSignerUnavailable)
	assert.False(t, backend.sendCalled)
}

func TestSubmitArityValidation(t *testing.T) {
	backend := newFakeBackend()
	w, err := NewWriter(backend, testContract, newTestSigner(t), testLogger())
	require.NoError(t, err)

	tests := []struct {
		name string
		call Call
	}{
		{"missing args", Call{Function: FnCreatePreSecret}},
		{"extra args", Call{Function: FnAssociatePostDetails, Args: []any{[32]byte{}, "x", "y"}}},
		{"unknown function", Call{Function: "mintSecret", Args: []any{1}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := w.Submit(context.Background(), tt.call)
			assert.Error(t, err)
			assert.False(t, backend.sendCalled)
		})
	}
}

func TestSubmitRejectedBySend(t *testing.T) {
	backend := newFakeBackend()
	backend.sendErr = errors.New("txpool full")
	w, err := NewWriter(backend, testContract, newTestSigner(t), testLogger())
	require.NoError(t, err)

	_, err = w.Submit(context.Background(), Call{Function: FnCreatePreSecret, Args: []any{ethcommon.Address{}}})
	assert.ErrorIs(t, err, common.ErrSubmissionRejected)
}

func TestSubmitRevertReasonFromErrorData(t *testing.T) {
	backend := newFakeBackend()
	backend.estimateErr = &rpcDataError{msg: "execution reverted", data: encodeRevert(t, "secret already exists")}
	w, err := NewWriter(backend, testContract, newTestSigner(t), testLogger())
	require.NoError(t, err)

	_, err = w.Submit(context.Background(), Call{Function: FnCreatePreSecret, Args: []any{ethcommon.Address{}}})

	var revert *RevertError
	require.ErrorAs(t, err, &revert)
	assert.Equal(t, "secret already exists", revert.Reason)
	assert.False(t, backend.sendCalled)
}

func TestSubmitRevertReasonFromMessage(t *testing.T) {
	backend := newFakeBackend()
	backend.sendErr = errors.New("execution reverted: already associated")
	w, err := NewWriter(backend, testContract, newTestSigner(t), testLogger())
	require.NoError(t, err)

	_, err = w.Submit(context.Background(), Call{
		Function: FnAssociatePostDetails,
		Args:     []any{[32]byte{1}, "0x01"},
	})

	var revert *RevertError
	require.ErrorAs(t, err, &revert)
	assert.Equal(t, "already associated", revert.Reason)
}

func TestSubmitNodeFailures(t *testing.T) {
	t.Run("chain id", func(t *testing.T) {
		backend := newFakeBackend()
		backend.chainIDErr = errors.New("down")
		w, err := NewWriter(backend, testContract, newTestSigner(t), testLogger())
		require.NoError(t, err)

		_, err = w.Submit(context.Background(), Call{Function: FnCreatePreSecret, Args: []any{ethcommon.Address{}}})
		assert.ErrorIs(t, err, common.ErrSubmissionRejected)
	})

	t.Run("nonce", func(t *testing.T) {
		backend := newFakeBackend()
		backend.nonceErr = errors.New("down")
		w, err := NewWriter(backend, testContract, newTestSigner(t), testLogger())
		require.NoError(t, err)

		_, err = w.Submit(context.Background(), Call{Function: FnCreatePreSecret, Args: []any{ethcommon.Address{}}})
		assert.ErrorIs(t, err, common.ErrSubmissionRejected)
	})
}
