package cli

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"
)

// printlnFn is a test seam for user-facing output.
var printlnFn = fmt.Println

// execIface defines the minimal command surface the REPL needs to operate.
// The real App type satisfies this interface; tests provide a stub.
type execIface interface {
	Publish(ctx context.Context, path string) error
	Decrypt(ctx context.Context, path string) error
	Status(ctx context.Context) error
}

// runREPL reads a line, parses the first token as the command, and
// dispatches to methods on 'a'. The loop exits on scanner EOF or when the
// user types "exit" or "quit".
//
// Commands:
//
//	publish <file>  — run the publish pipeline on a video file
//	decrypt <file>  — extract the embedded payload from a video file
//	status          — show the last run and any unlinked publications
//	help            — show available commands
//	exit | quit     — leave the program
//
// Command handlers report their own errors; the REPL echoes them and keeps
// going.
func runREPL(ctx context.Context, a execIface, scanner *bufio.Scanner) {
	for {
		printlnFn("tc> ")
		if !scanner.Scan() {
			return
		}
		parts := strings.Fields(scanner.Text())
		if len(parts) == 0 {
			continue
		}
		cmd, args := parts[0], parts[1:]

		switch cmd {
		case "help":
			printlnFn("Available commands: publish <file>, decrypt <file>, status, exit")

		case "publish":
			if len(args) == 0 {
				printlnFn("Usage: publish <file>")
				continue
			}
			if err := a.Publish(ctx, args[0]); err != nil {
				printlnFn("publish failed:", err)
			}

		case "decrypt":
			if len(args) == 0 {
				printlnFn("Usage: decrypt <file>")
				continue
			}
			if err := a.Decrypt(ctx, args[0]); err != nil {
				printlnFn("decrypt failed:", err)
			}

		case "status":
			if err := a.Status(ctx); err != nil {
				printlnFn("status failed:", err)
			}

		case "exit", "quit":
			printlnFn("Bye!")
			return

		default:
			printlnFn("Unknown command:", cmd)
		}
	}
}

func (a *App) Root(ctx context.Context) {
	printlnFn("TruthCast publisher (type 'help' for commands)")
	runREPL(ctx, a, bufio.NewScanner(os.Stdin))
}
