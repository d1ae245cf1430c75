package cli

import (
	"bufio"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

type fakeExec struct {
	calls []string
	args  []string

	publishErr error
}

func (f *fakeExec) Publish(ctx context.Context, path string) error {
	f.calls = append(f.calls, "publish")
	f.args = append(f.args, path)
	return f.publishErr
}

func (f *fakeExec) Decrypt(ctx context.Context, path string) error {
	f.calls = append(f.calls, "decrypt")
	f.args = append(f.args, path)
	return nil
}

func (f *fakeExec) Status(ctx context.Context) error {
	f.calls = append(f.calls, "status")
	return nil
}

func silencePrintln(t *testing.T) *[]string {
	t.Helper()
	var lines []string
	orig := printlnFn
	printlnFn = func(args ...any) (int, error) {
		parts := make([]string, len(args))
		for i, a := range args {
			parts[i], _ = a.(string)
		}
		lines = append(lines, strings.Join(parts, " "))
		return 0, nil
	}
	t.Cleanup(func() { printlnFn = orig })
	return &lines
}

func TestRunREPLDispatch(t *testing.T) {
	silencePrintln(t)

	input := strings.Join([]string{
		"help",
		"publish clip.mp4",
		"decrypt out.mp4",
		"status",
		"foobar",
		"",
		"exit",
	}, "\n")

	exec := &fakeExec{}
	runREPL(context.Background(), exec, bufio.NewScanner(strings.NewReader(input)))

	assert.Equal(t, []string{"publish", "decrypt", "status"}, exec.calls)
	assert.Equal(t, []string{"clip.mp4", "out.mp4"}, exec.args)
}

func TestRunREPLMissingArgs(t *testing.T) {
	lines := silencePrintln(t)

	input := strings.Join([]string{"publish", "decrypt", "exit"}, "\n")
	exec := &fakeExec{}
	runREPL(context.Background(), exec, bufio.NewScanner(strings.NewReader(input)))

	assert.Empty(t, exec.calls)
	assert.Contains(t, *lines, "Usage: publish <file>")
	assert.Contains(t, *lines, "Usage: decrypt <file>")
}

func TestRunREPLReportsCommandErrors(t *testing.T) {
	lines := silencePrintln(t)

	exec := &fakeExec{publishErr: errors.New("no keystore")}
	input := strings.Join([]string{"publish clip.mp4", "exit"}, "\n")
	runREPL(context.Background(), exec, bufio.NewScanner(strings.NewReader(input)))

	found := false
	for _, l := range *lines {
		if strings.Contains(l, "publish failed:") {
			found = true
		}
	}
	assert.True(t, found, "error echoed to the user: %v", *lines)
}

func TestRunREPLExitsOnEOF(t *testing.T) {
	silencePrintln(t)

	exec := &fakeExec{}
	runREPL(context.Background(), exec, bufio.NewScanner(strings.NewReader("status\n")))

	assert.Equal(t, []string{"status"}, exec.calls)
}
