package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/sairammr/TruthCast/internal/publish"
)

// Publish runs the full pipeline on a local video file. The first call
// prompts for the keystore passphrase and dials out; later calls reuse the
// established collaborators.
func (a *App) Publish(ctx context.Context, path string) error {
	if a.runActive {
		return errors.New("a publish run is already active")
	}

	media, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read media: %w", err)
	}

	if a.runner == nil {
		pw, err := GetPassword(os.Stdout)
		if err != nil {
			return err
		}
		r, err := a.connectFn(ctx, pw)
		if err != nil {
			return err
		}
		a.runner = r
	}

	title, err := GetSimpleText(a.reader, "Title", os.Stdout)
	if err != nil {
		return err
	}
	description, err := GetSimpleText(a.reader, "Description", os.Stdout)
	if err != nil {
		return err
	}

	a.runActive = true
	defer func() { a.runActive = false }()

	res := a.runner.Run(ctx, publish.Input{
		Media:       media,
		Filename:    filepath.Base(path),
		Title:       title,
		Description: description,
		Tags:        []string{"truthcast"},
	})
	a.lastResult = res

	printResult(res)
	if res.Err == nil && a.resolver != nil {
		if url, err := a.resolver.ResolveURI(res.MediaURI); err == nil {
			printlnFn("  playback:", url)
		}
	}
	return nil
}

// printResult reports the terminal state of a run. The published-but-unlinked
// case gets its own message: resubmitting after it would duplicate the
// publication.
func printResult(res *publish.Result) {
	if res.Err == nil {
		printlnFn("Published.")
		printlnFn("  secret:  ", res.SecretHash.Hex())
		printlnFn("  media:   ", res.MediaURI)
		printlnFn("  content: ", res.ContentID)
		return
	}

	if res.PublishedUnlinked {
		printlnFn("PUBLISHED BUT NOT LINKED: the content is public but its on-chain")
		printlnFn("association was not written. Do NOT resubmit; that would create a")
		printlnFn("duplicate publication.")
		printlnFn("  content: ", res.ContentID)
		printlnFn("  secret:  ", res.SecretHash.Hex())
		printlnFn("  cause:   ", res.Err.Error())
		return
	}

	printlnFn(fmt.Sprintf("Publish failed at %s: %v", failedStage(res), res.Err))
}

func failedStage(res *publish.Result) string {
	var se *publish.StageError
	if errors.As(res.Err, &se) {
		return strings.TrimSpace(string(se.Stage))
	}
	return string(res.Stage)
}
