// Package publish sequences the content-publishing pipeline: create an
// on-chain secret record, wait for its SecretCreated event, embed the emitted
// secret hash into the media, upload media and metadata, post the content and
// write the association back on-chain.
//
// The pipeline is a saga with no compensation. Every stage is attempted at
// most once per run; the first failure is terminal and a resubmission starts
// an entirely new run with a new secret record.
package publish

import (
	"context"
	"time"

	ethcommon "github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"

	"github.com/sairammr/TruthCast/internal/chain"
	"github.com/sairammr/TruthCast/internal/lens"
	"github.com/sairammr/TruthCast/internal/logging"
	"github.com/sairammr/TruthCast/internal/stego"
	"github.com/sairammr/TruthCast/internal/storage"
)

// ChainWriter submits contract calls. chain.Writer satisfies it.
type ChainWriter interface {
	Submit(ctx context.Context, call chain.Call) (*chain.Receipt, error)
}

// SecretWaiter is one pending SecretCreated event. chain.Wait satisfies it.
type SecretWaiter interface {
	Await(ctx context.Context) (*chain.SecretEvent, error)
	Close()
}

// SecretWatcher opens event subscriptions. Use WatcherFrom to adapt a
// chain.Watcher.
type SecretWatcher interface {
	Start(ctx context.Context, owner ethcommon.Address, timeout time.Duration) (SecretWaiter, error)
}

// Encrypter embeds a payload string into media bytes. stego.Client
// satisfies it.
type Encrypter interface {
	Encode(ctx context.Context, media []byte, payload string) (*stego.EncodedResult, error)
}

// Publisher manages the publication session and posts content. lens.Client
// satisfies it.
type Publisher interface {
	EnsureSession(ctx context.Context) (*lens.Session, error)
	Post(ctx context.Context, session *lens.Session, contentURI string) (string, error)
}

// Journal records run progress for later inspection. Journal failures never
// fail a run.
type Journal interface {
	RunStarted(ctx context.Context, runID, title string) error
	StageEntered(ctx context.Context, runID string, stage Stage) error
	RunFinished(ctx context.Context, runID string, res *Result) error
}

// WatcherFrom adapts a chain.Watcher to the SecretWatcher interface.
func WatcherFrom(w *chain.Watcher) SecretWatcher {
	return watcherAdapter{w}
}

type watcherAdapter struct {
	w *chain.Watcher
}

func (a watcherAdapter) Start(ctx context.Context, owner ethcommon.Address, timeout time.Duration) (SecretWaiter, error) {
	wt, err := a.w.Start(ctx, owner, timeout)
	if err != nil {
		return nil, err
	}
	return wt, nil
}

// Input is one user submission.
type Input struct {
	Media       []byte
	Filename    string
	Title       string
	Description string
	Tags        []string
}

// Result is the terminal state of one run. On success Stage is StageComplete
// and Err is nil; on failure Stage names the failed stage and Err is a
// *StageError. PublishedUnlinked marks the one partial-failure state that
// must not be blindly resubmitted: the content is publicly posted but its
// on-chain association was never written.
type Result struct {
	RunID             string
	Stage             Stage
	SecretHash        ethcommon.Hash
	MediaURI          string
	MetadataURI       string
	ContentID         string
	PublishedUnlinked bool
	Err               error
}

// Deps are the collaborators one Workflow orchestrates.
type Deps struct {
	Writer    ChainWriter
	Watcher   SecretWatcher
	Encrypter Encrypter
	Uploader  storage.Uploader
	Publisher Publisher
	Journal   Journal
	Logger    logging.Logger

	// Owner is the account the secret record is created for. It must match
	// the writer's signing address or the event filter never resolves.
	Owner ethcommon.Address
	// EventTimeout bounds the SecretCreated wait, measured from
	// subscription start.
	EventTimeout time.Duration
	// MediaPolicy optionally restricts read access on the uploaded media.
	// The metadata document is always publicly readable.
	MediaPolicy *storage.AccessPolicy
}

const defaultEventTimeout = 30 * time.Second

// Workflow runs the publish pipeline. One Workflow may serve many runs; each
// run owns its own ephemeral state and runs share nothing.
type Workflow struct {
	deps Deps
}

func NewWorkflow(deps Deps) *Workflow {
	if deps.EventTimeout <= 0 {
		deps.EventTimeout = defaultEventTimeout
	}
	if deps.Journal == nil {
		deps.Journal = NoopJournal{}
	}
	return &Workflow{deps: deps}
}

// Run executes one publish run to its terminal state. It never returns a nil
// Result; inspect Result.Err for failure. Cancelling ctx aborts the run at
// its current stage.
func (w *Workflow) Run(ctx context.Context, in Input) *Result {
	d := w.deps
	res := &Result{RunID: uuid.NewString(), Stage: StageIdle}
	log := d.Logger.With("run_id", res.RunID)

	if err := d.Journal.RunStarted(ctx, res.RunID, in.Title); err != nil {
		log.Warn(ctx, "journal run start failed", "err", err)
	}

	// The subscription must attach before the transaction goes out, or the
	// event can fire into the void.
	w.enter(ctx, log, res, StageAwaitingPreSecretTx)
	wait, err := d.Watcher.Start(ctx, d.Owner, d.EventTimeout)
	if err != nil {
		return w.fail(ctx, log, res, err)
	}
	defer wait.Close()

	if _, err := d.Writer.Submit(ctx, chain.Call{
		Function: chain.FnCreatePreSecret,
		Args:     []any{d.Owner},
	}); err != nil {
		return w.fail(ctx, log, res, err)
	}

	w.enter(ctx, log, res, StageAwaitingSecretEvent)
	evt, err := wait.Await(ctx)
	if err != nil {
		// The pre-secret transaction may still be mined later. That orphaned
		// record is not rolled back; the failure result is the caller's only
		// notice of the inconsistency.
		return w.fail(ctx, log, res, err)
	}
	res.SecretHash = evt.SecretHash
	log.Info(ctx, "secret record created", "secret_hash", evt.SecretHash.Hex(), "tx", evt.TxHash.Hex())

	w.enter(ctx, log, res, StageEncrypting)
	encoded, err := d.Encrypter.Encode(ctx, in.Media, evt.SecretHash.Hex())
	if err != nil {
		return w.fail(ctx, log, res, err)
	}

	w.enter(ctx, log, res, StageUploadingMedia)
	mediaURI, err := d.Uploader.UploadBinary(ctx, encoded.MP4, encoded.Filename, d.MediaPolicy)
	if err != nil {
		return w.fail(ctx, log, res, err)
	}
	res.MediaURI = mediaURI

	w.enter(ctx, log, res, StageUploadingMetadata)
	metadataURI, err := d.Uploader.UploadJSON(ctx, buildDraft(in, mediaURI))
	if err != nil {
		return w.fail(ctx, log, res, err)
	}
	res.MetadataURI = metadataURI

	w.enter(ctx, log, res, StagePosting)
	session, err := d.Publisher.EnsureSession(ctx)
	if err != nil {
		return w.fail(ctx, log, res, err)
	}
	contentID, err := d.Publisher.Post(ctx, session, metadataURI)
	if err != nil {
		return w.fail(ctx, log, res, err)
	}
	res.ContentID = contentID

	w.enter(ctx, log, res, StageAssociating)
	if _, err := d.Writer.Submit(ctx, chain.Call{
		Function: chain.FnAssociatePostDetails,
		Args:     []any{evt.SecretHash, contentID},
	}); err != nil {
		// The content is already public but its on-chain link was never
		// written. Resubmitting would duplicate the publication, so this
		// state is flagged distinctly instead of reported as a plain failure.
		res.PublishedUnlinked = true
		log.Error(ctx, "published but not linked",
			"content_id", contentID, "secret_hash", evt.SecretHash.Hex())
		return w.fail(ctx, log, res, err)
	}

	res.Stage = StageComplete
	log.Info(ctx, "publish complete",
		"content_id", contentID, "secret_hash", evt.SecretHash.Hex(),
		"media_uri", mediaURI, "metadata_uri", metadataURI)
	if err := d.Journal.RunFinished(ctx, res.RunID, res); err != nil {
		log.Warn(ctx, "journal run finish failed", "err", err)
	}
	return res
}

func (w *Workflow) enter(ctx context.Context, log logging.Logger, res *Result, stage Stage) {
	res.Stage = stage
	log.Info(ctx, "stage entered", "stage", stage)
	if err := w.deps.Journal.StageEntered(ctx, res.RunID, stage); err != nil {
		log.Warn(ctx, "journal stage transition failed", "stage", stage, "err", err)
	}
}

func (w *Workflow) fail(ctx context.Context, log logging.Logger, res *Result, cause error) *Result {
	res.Err = &StageError{Stage: res.Stage, Kind: kindOf(cause), Err: cause}
	log.Error(ctx, "run failed", "stage", res.Stage, "kind", kindOf(cause), "err", cause)
	if err := w.deps.Journal.RunFinished(ctx, res.RunID, res); err != nil {
		log.Warn(ctx, "journal run finish failed", "err", err)
	}
	return res
}

// NoopJournal discards all journal writes. It is the default when no journal
// backend is configured.
type NoopJournal struct{}

func (NoopJournal) RunStarted(context.Context, string, string) error   { return nil }
func (NoopJournal) StageEntered(context.Context, string, Stage) error  { return nil }
func (NoopJournal) RunFinished(context.Context, string, *Result) error { return nil }
