package cli

import (
	"context"
	"fmt"
	"os"
)

// Decrypt extracts the embedded payload from a video file and prints it.
// It needs no chain connection or passphrase.
func (a *App) Decrypt(ctx context.Context, path string) error {
	media, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read media: %w", err)
	}

	payload, err := a.stego.Decode(ctx, media)
	if err != nil {
		return err
	}

	printlnFn("Embedded payload:", payload)
	return nil
}
