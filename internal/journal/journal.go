// Package journal keeps a durable record of publish runs in Postgres: when a
// run started, which stages it reached, and how it ended. Its main consumer
// is out-of-band reconciliation of runs that published content without
// writing the on-chain association.
package journal

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	ethcommon "github.com/ethereum/go-ethereum/common"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"

	"github.com/sairammr/TruthCast/internal/dbx"
	"github.com/sairammr/TruthCast/internal/journal/migrations"
	"github.com/sairammr/TruthCast/internal/publish"
)

// now is a seam for testing timestamps.
var now = time.Now

// gooseUpContext is a seam for testing goose.UpContext.
var gooseUpContext = func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error {
	return goose.UpContext(ctx, db, dir, opts...)
}

// Postgres is a publish.Journal backed by a Postgres database.
type Postgres struct {
	db *sql.DB
}

var _ publish.Journal = (*Postgres)(nil)

// Open connects to the journal database and runs pending migrations.
func Open(ctx context.Context, dsn string) (*Postgres, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("open journal db: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping journal db: %w", err)
	}

	p := &Postgres{db: db}
	if err := p.runMigrations(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate journal db: %w", err)
	}
	return p, nil
}

func (p *Postgres) runMigrations(ctx context.Context) error {
	goose.SetBaseFS(migrations.Migrations)
	if err := goose.SetDialect("pgx"); err != nil {
		return err
	}
	return gooseUpContext(ctx, p.db, ".")
}

func (p *Postgres) RunStarted(ctx context.Context, runID, title string) error {
	_, err := p.db.ExecContext(ctx,
		`INSERT INTO runs (id, title, started_at) VALUES ($1, $2, $3)`,
		runID, title, now().UTC())
	if err != nil {
		return fmt.Errorf("journal run start: %w", err)
	}
	return nil
}

func (p *Postgres) StageEntered(ctx context.Context, runID string, stage publish.Stage) error {
	_, err := p.db.ExecContext(ctx,
		`INSERT INTO run_stages (run_id, stage, entered_at) VALUES ($1, $2, $3)`,
		runID, string(stage), now().UTC())
	if err != nil {
		return fmt.Errorf("journal stage %s: %w", stage, err)
	}
	return nil
}

func (p *Postgres) RunFinished(ctx context.Context, runID string, res *publish.Result) error {
	var errKind, errMsg string
	var se *publish.StageError
	if errors.As(res.Err, &se) {
		errKind = string(se.Kind)
		errMsg = se.Err.Error()
	}

	err := dbx.WithTx(ctx, p.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		result, err := tx.ExecContext(ctx,
			`UPDATE runs SET finished_at = $1, terminal_stage = $2, error_kind = $3,
			        error_message = $4, secret_hash = $5, media_uri = $6,
			        metadata_uri = $7, content_id = $8, published_unlinked = $9
			 WHERE id = $10`,
			now().UTC(), string(res.Stage), errKind, errMsg,
			hashText(res.SecretHash), res.MediaURI,
			res.MetadataURI, res.ContentID, res.PublishedUnlinked, runID)
		if err != nil {
			return err
		}
		n, err := result.RowsAffected()
		if err != nil {
			return err
		}
		if n != 1 {
			return fmt.Errorf("unknown run %s", runID)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("journal run finish: %w", err)
	}
	return nil
}

// UnlinkedRun is a run whose content was posted but never associated
// on-chain. These need manual reconciliation; resubmitting would duplicate
// the publication.
type UnlinkedRun struct {
	RunID      string
	SecretHash string
	ContentID  string
	FinishedAt time.Time
}

// Unlinked lists runs flagged published-but-unlinked, newest first.
func (p *Postgres) Unlinked(ctx context.Context) ([]UnlinkedRun, error) {
	rows, err := p.db.QueryContext(ctx,
		`SELECT id, secret_hash, content_id, finished_at FROM runs
		 WHERE published_unlinked ORDER BY finished_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("select unlinked runs: %w", err)
	}
	defer rows.Close()

	var out []UnlinkedRun
	for rows.Next() {
		var r UnlinkedRun
		if err := rows.Scan(&r.RunID, &r.SecretHash, &r.ContentID, &r.FinishedAt); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// Close closes the underlying database.
func (p *Postgres) Close() error {
	return p.db.Close()
}

// hashText stores the zero hash (run failed before the event arrived) as an
// empty string.
func hashText(h ethcommon.Hash) string {
	if h == (ethcommon.Hash{}) {
		return ""
	}
	return h.Hex()
}
