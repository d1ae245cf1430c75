// Package cli is the interactive publisher frontend: a small REPL that
// drives the publish pipeline, the decode endpoint, and run status output.
package cli

import (
	"bufio"
	"context"
	"fmt"
	"os"

	ethcommon "github.com/ethereum/go-ethereum/common"

	"github.com/sairammr/TruthCast/internal/chain"
	"github.com/sairammr/TruthCast/internal/config"
	"github.com/sairammr/TruthCast/internal/journal"
	"github.com/sairammr/TruthCast/internal/lens"
	"github.com/sairammr/TruthCast/internal/lens/store"
	"github.com/sairammr/TruthCast/internal/logging"
	"github.com/sairammr/TruthCast/internal/publish"
	"github.com/sairammr/TruthCast/internal/stego"
	"github.com/sairammr/TruthCast/internal/storage"
)

// runner is the workflow surface the REPL drives. *publish.Workflow
// satisfies it; tests substitute a stub.
type runner interface {
	Run(ctx context.Context, in publish.Input) *publish.Result
}

type App struct {
	config *config.Config
	log    logging.Logger
	stego  *stego.Client
	reader *bufio.Reader

	// runner is built lazily on the first publish, once the keystore
	// passphrase is known. connectFn is a test seam.
	runner    runner
	connectFn func(ctx context.Context, passphrase []byte) (runner, error)
	journal   *journal.Postgres
	resolver  storage.Resolver

	// runActive blocks a second publish while one is in flight. Concurrent
	// submissions are not deduplicated anywhere downstream.
	runActive  bool
	lastResult *publish.Result
}

func NewApp(ctx context.Context, cfg *config.Config, log logging.Logger) (*App, error) {
	a := &App{
		config: cfg,
		log:    log,
		stego:  stego.NewClient(cfg.StegoServiceURL),
		reader: bufio.NewReader(os.Stdin),
	}
	a.connectFn = a.connect

	if cfg.JournalDSN != "" {
		j, err := journal.Open(ctx, cfg.JournalDSN)
		if err != nil {
			// the journal is observability, not a publish dependency
			log.Warn(ctx, "run journal unavailable", "err", err)
		} else {
			a.journal = j
		}
	}

	return a, nil
}

// connect dials the chain node and assembles the workflow and its
// collaborators. Called once, on the first publish.
func (a *App) connect(ctx context.Context, passphrase []byte) (runner, error) {
	cfg := a.config

	signer, err := chain.NewKeystoreSigner(cfg.KeystorePath, passphrase)
	if err != nil {
		return nil, err
	}

	client, err := chain.Dial(ctx, cfg.ChainWSAddr)
	if err != nil {
		return nil, fmt.Errorf("dial chain node: %w", err)
	}

	contract := ethcommon.HexToAddress(cfg.ContractAddr)
	writer, err := chain.NewWriter(client, contract, signer, a.log)
	if err != nil {
		return nil, err
	}
	watcher, err := chain.NewWatcher(client, contract, a.log)
	if err != nil {
		return nil, err
	}

	uploader, policy, err := a.buildUploader(ctx)
	if err != nil {
		return nil, err
	}

	sessions, err := store.Open(ctx, cfg.SessionCachePath, passphrase)
	if err != nil {
		return nil, fmt.Errorf("open session cache: %w", err)
	}
	publisher := lens.NewClient(cfg.LensAPIURL, sessions, signer, cfg.LensAppAddr, cfg.LensAccountAddr, a.log)

	deps := publish.Deps{
		Writer:       writer,
		Watcher:      publish.WatcherFrom(watcher),
		Encrypter:    a.stego,
		Uploader:     uploader,
		Publisher:    publisher,
		Logger:       a.log,
		Owner:        signer.Address(),
		EventTimeout: cfg.EventTimeout,
		MediaPolicy:  policy,
	}
	if a.journal != nil {
		deps.Journal = a.journal
	}

	return publish.NewWorkflow(deps), nil
}

func (a *App) buildUploader(ctx context.Context) (storage.Uploader, *storage.AccessPolicy, error) {
	cfg := a.config
	switch cfg.StorageBackend {
	case "grove", "":
		var policy *storage.AccessPolicy
		if cfg.LensAccountAddr != "" {
			policy = &storage.AccessPolicy{Account: cfg.LensAccountAddr, ChainID: groveChainID}
		}
		grove := storage.NewGroveUploader(cfg.GroveAPIURL, cfg.GroveGatewayURL)
		a.resolver = grove
		return grove, policy, nil
	case "s3":
		up, err := storage.NewS3Uploader(ctx, storage.S3Config{
			RootUser:     cfg.S3RootUser,
			RootPassword: cfg.S3RootPassword,
			Bucket:       cfg.S3Bucket,
			Region:       cfg.S3Region,
			BaseEndpoint: cfg.S3BaseEndpoint,
		})
		return up, nil, err
	default:
		return nil, nil, fmt.Errorf("unknown storage backend %q", cfg.StorageBackend)
	}
}

// groveChainID scopes grove access grants to the Lens testnet.
const groveChainID = 37111

func (a *App) Run(ctx context.Context) {
	defer a.Close()
	a.Root(ctx)
}

// Close releases held resources. Safe on a partially constructed App.
func (a *App) Close() {
	if a.journal != nil {
		a.journal.Close()
	}
}
