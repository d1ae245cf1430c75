package chain

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	ethcommon "github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"

	"github.com/sairammr/TruthCast/internal/common"
	"github.com/sairammr/TruthCast/internal/logging"
)

// TxBackend is the subset of the ethclient API needed for submission.
// *ethclient.Client satisfies it.
type TxBackend interface {
	ChainID(ctx context.Context) (*big.Int, error)
	PendingNonceAt(ctx context.Context, account ethcommon.Address) (uint64, error)
	HeaderByNumber(ctx context.Context, number *big.Int) (*types.Header, error)
	SuggestGasTipCap(ctx context.Context) (*big.Int, error)
	SuggestGasPrice(ctx context.Context) (*big.Int, error)
	EstimateGas(ctx context.Context, msg ethereum.CallMsg) (uint64, error)
	SendTransaction(ctx context.Context, tx *types.Transaction) error
}

// Call names a contract function and its arguments. Args must match the
// ABI-declared inputs exactly; arity is validated before submission.
type Call struct {
	Function string
	Args     []any
}

// Receipt is returned on successful submission. It only proves the node
// accepted the transaction, not that it has been mined.
type Receipt struct {
	TxHash ethcommon.Hash
}

// RevertError reports that the contract executed and reverted.
// Reason carries the revert string verbatim when the node exposes it.
type RevertError struct {
	Reason string
	Err    error
}

func (e *RevertError) Error() string {
	if e.Reason != "" {
		return "execution reverted: " + e.Reason
	}
	return "execution reverted"
}

func (e *RevertError) Unwrap() error { return e.Err }

// Writer submits signed transactions to the secret-registry contract.
//
// Submit is not idempotent: callers must not retry a submission whose
// outcome is unknown without first checking chain state.
type Writer struct {
	backend  TxBackend
	contract ethcommon.Address
	abi      abi.ABI
	signer   *Signer
	log      logging.Logger
}

// NewWriter builds a Writer bound to the registry contract. A nil signer is
// allowed; Submit then fails with common.ErrSignerUnavailable.
func NewWriter(backend TxBackend, contract ethcommon.Address, signer *Signer, log logging.Logger) (*Writer, error) {
	parsed, err := RegistryABI()
	if err != nil {
		return nil, fmt.Errorf("parse registry abi: %w", err)
	}
	return &Writer{backend: backend, contract: contract, abi: parsed, signer: signer, log: log}, nil
}

// Submit packs, signs and sends one contract call and returns its receipt.
func (w *Writer) Submit(ctx context.Context, call Call) (*Receipt, error) {
	if w.signer == nil {
		return nil, common.ErrSignerUnavailable
	}

	method, ok := w.abi.Methods[call.Function]
	if !ok {
		return nil, fmt.Errorf("unknown contract function %q", call.Function)
	}
	if len(method.Inputs) != len(call.Args) {
		return nil, fmt.Errorf("%s expects %d args, got %d", call.Function, len(method.Inputs), len(call.Args))
	}

	data, err := w.abi.Pack(call.Function, call.Args...)
	if err != nil {
		return nil, fmt.Errorf("pack %s: %w", call.Function, err)
	}

	from := w.signer.Address()

	chainID, err := w.backend.ChainID(ctx)
	if err != nil {
		return nil, fmt.Errorf("chain id: %w: %w", common.ErrSubmissionRejected, err)
	}

	nonce, err := w.backend.PendingNonceAt(ctx, from)
	if err != nil {
		return nil, fmt.Errorf("nonce: %w: %w", common.ErrSubmissionRejected, err)
	}

	msg := ethereum.CallMsg{From: from, To: &w.contract, Data: data}
	gas, err := w.backend.EstimateGas(ctx, msg)
	if err != nil {
		if reason, ok := revertReason(err); ok {
			return nil, &RevertError{Reason: reason, Err: err}
		}
		return nil, fmt.Errorf("estimate gas: %w: %w", common.ErrSubmissionRejected, err)
	}

	tx, err := w.buildTx(ctx, chainID, nonce, gas, data)
	if err != nil {
		return nil, err
	}

	signed, err := w.signer.SignTx(tx, chainID)
	if err != nil {
		return nil, fmt.Errorf("sign: %w: %w", common.ErrSignerUnavailable, err)
	}

	if err := w.backend.SendTransaction(ctx, signed); err != nil {
		if reason, ok := revertReason(err); ok {
			return nil, &RevertError{Reason: reason, Err: err}
		}
		return nil, fmt.Errorf("send: %w: %w", common.ErrSubmissionRejected, err)
	}

	w.log.Info(ctx, "transaction submitted",
		"function", call.Function, "tx", signed.Hash().Hex(), "nonce", nonce)

	return &Receipt{TxHash: signed.Hash()}, nil
}

// buildTx prefers a dynamic-fee transaction; pre-London chains (no base fee
// in the head block) fall back to a legacy one.
func (w *Writer) buildTx(ctx context.Context, chainID *big.Int, nonce, gas uint64, data []byte) (*types.Transaction, error) {
	head, err := w.backend.HeaderByNumber(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("head block: %w: %w", common.ErrSubmissionRejected, err)
	}

	if head.BaseFee != nil {
		tip, err := w.backend.SuggestGasTipCap(ctx)
		if err != nil {
			return nil, fmt.Errorf("gas tip: %w: %w", common.ErrSubmissionRejected, err)
		}
		feeCap := new(big.Int).Add(tip, new(big.Int).Mul(head.BaseFee, big.NewInt(2)))
		return types.NewTx(&types.DynamicFeeTx{
			ChainID:   chainID,
			Nonce:     nonce,
			GasTipCap: tip,
			GasFeeCap: feeCap,
			Gas:       gas,
			To:        &w.contract,
			Data:      data,
		}), nil
	}

	gasPrice, err := w.backend.SuggestGasPrice(ctx)
	if err != nil {
		return nil, fmt.Errorf("gas price: %w: %w", common.ErrSubmissionRejected, err)
	}
	return types.NewTx(&types.LegacyTx{
		Nonce:    nonce,
		GasPrice: gasPrice,
		Gas:      gas,
		To:       &w.contract,
		Data:     data,
	}), nil
}

// dataError is the shape of JSON-RPC errors that carry revert data.
type dataError interface {
	ErrorData() any
}

// revertReason tries to extract a revert string out of a node error:
// first from attached ABI-encoded revert data, then from the error text.
func revertReason(err error) (string, bool) {
	var de dataError
	if errors.As(err, &de) {
		if data, ok := de.ErrorData().(string); ok {
			raw, decErr := hexutil.Decode(data)
			if decErr == nil {
				if reason, unpackErr := abi.UnpackRevert(raw); unpackErr == nil {
					return reason, true
				}
			}
		}
	}

	const marker = "execution reverted"
	msg := err.Error()
	if idx := strings.Index(msg, marker); idx >= 0 {
		reason := strings.TrimSpace(strings.TrimPrefix(msg[idx+len(marker):], ":"))
		return reason, true
	}
	return "", false
}
