package config

import (
	"flag"
	"os"
	"time"

	"github.com/sairammr/TruthCast/internal/flagx"
)

// parseFlags populates selected Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-r string   websocket address of the chain node
//	-k string   path to the keystore file
//	-e string   base URL of the steganography service
//	-l string   base URL of the publication API
//	-t int      SecretCreated wait timeout in seconds
//
// The function filters os.Args to only include the flags it knows about,
// using flagx.FilterArgs, to avoid interference with other components.
func parseFlags(cfg *Config) {
	args := flagx.FilterArgs(os.Args[1:], []string{"-r", "-k", "-e", "-l", "-t"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&cfg.ChainWSAddr, "r", cfg.ChainWSAddr, "websocket address of the chain node")
	fs.StringVar(&cfg.KeystorePath, "k", cfg.KeystorePath, "path to keystore file")
	fs.StringVar(&cfg.StegoServiceURL, "e", cfg.StegoServiceURL, "steganography service base URL")
	fs.StringVar(&cfg.LensAPIURL, "l", cfg.LensAPIURL, "publication API base URL")
	eventTimeout := fs.Int("t", int(cfg.EventTimeout.Seconds()), "secret event timeout (in seconds)")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	cfg.EventTimeout = time.Duration(*eventTimeout) * time.Second
}
