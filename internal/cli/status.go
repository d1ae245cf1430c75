package cli

import (
	"context"
	"fmt"
)

// Status reports the last run of this session and, when the journal is
// configured, any runs still published-but-unlinked.
func (a *App) Status(ctx context.Context) error {
	if a.runActive {
		printlnFn("A publish run is active.")
	}

	if a.lastResult == nil {
		printlnFn("No runs this session.")
	} else {
		res := a.lastResult
		if res.Err == nil {
			printlnFn(fmt.Sprintf("Last run %s: Complete (content %s)", res.RunID, res.ContentID))
		} else {
			printlnFn(fmt.Sprintf("Last run %s: failed at %s: %v", res.RunID, failedStage(res), res.Err))
		}
	}

	if a.journal == nil {
		return nil
	}

	unlinked, err := a.journal.Unlinked(ctx)
	if err != nil {
		return fmt.Errorf("query unlinked runs: %w", err)
	}
	if len(unlinked) == 0 {
		printlnFn("No unlinked publications.")
		return nil
	}

	printlnFn(fmt.Sprintf("%d publication(s) awaiting on-chain association:", len(unlinked)))
	for _, r := range unlinked {
		printlnFn(fmt.Sprintf("  run %s  content %s  secret %s", r.RunID, r.ContentID, r.SecretHash))
	}
	return nil
}
