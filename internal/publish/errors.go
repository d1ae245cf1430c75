package publish

import (
	"context"
	"errors"
	"fmt"

	"github.com/sairammr/TruthCast/internal/chain"
	"github.com/sairammr/TruthCast/internal/common"
)

// Kind classifies a stage failure for callers that branch on failure mode
// rather than on error identity.
type Kind string

const (
	KindSignerUnavailable  Kind = "SignerUnavailable"
	KindSubmissionRejected Kind = "SubmissionRejected"
	KindReverted           Kind = "Reverted"
	KindEventTimeout       Kind = "EventTimeout"
	KindSubscriptionError  Kind = "SubscriptionError"
	KindServiceUnavailable Kind = "ServiceUnavailable"
	KindServiceRejected    Kind = "ServiceRejected"
	KindMalformedResponse  Kind = "MalformedResponse"
	KindUploadFailed       Kind = "UploadFailed"
	KindSessionExpired     Kind = "SessionExpired"
	KindPostRejected       Kind = "PostRejected"
	KindCanceled           Kind = "Canceled"
	KindUnknown            Kind = "Unknown"
)

// StageError is the single structured failure a run surfaces: which stage
// failed, how, and the underlying cause.
type StageError struct {
	Stage Stage
	Kind  Kind
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s failed (%s): %v", e.Stage, e.Kind, e.Err)
}

func (e *StageError) Unwrap() error { return e.Err }

// kindOf maps an underlying error to its failure kind.
func kindOf(err error) Kind {
	var revert *chain.RevertError
	if errors.As(err, &revert) {
		return KindReverted
	}

	switch {
	case errors.Is(err, common.ErrSignerUnavailable):
		return KindSignerUnavailable
	case errors.Is(err, common.ErrSubmissionRejected):
		return KindSubmissionRejected
	case errors.Is(err, common.ErrEventTimeout):
		return KindEventTimeout
	case errors.Is(err, common.ErrSubscription):
		return KindSubscriptionError
	case errors.Is(err, common.ErrServiceUnavailable):
		return KindServiceUnavailable
	case errors.Is(err, common.ErrServiceRejected):
		return KindServiceRejected
	case errors.Is(err, common.ErrMalformedResponse):
		return KindMalformedResponse
	case errors.Is(err, common.ErrUploadFailed):
		return KindUploadFailed
	case errors.Is(err, common.ErrSessionExpired):
		return KindSessionExpired
	case errors.Is(err, common.ErrPostRejected):
		return KindPostRejected
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return KindCanceled
	default:
		return KindUnknown
	}
}
