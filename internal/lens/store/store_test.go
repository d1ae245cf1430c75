package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sairammr/TruthCast/internal/common"
	"github.com/sairammr/TruthCast/internal/lens"
)

func openTestStore(t *testing.T, passphrase string) (*Store, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "session.db")
	s, err := Open(context.Background(), path, []byte(passphrase))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s, path
}

func TestLoadEmpty(t *testing.T) {
	s, _ := openTestStore(t, "pass")

	_, err := s.Load(context.Background())
	require.ErrorIs(t, err, common.ErrNotFound)
}

func TestSaveLoadRoundtrip(t *testing.T) {
	s, _ := openTestStore(t, "pass")
	ctx := context.Background()

	want := &lens.Session{
		AccessToken:  "at-1",
		RefreshToken: "rt-1",
		Account:      "0x00000000000000000000000000000000000000bb",
	}
	require.NoError(t, s.Save(ctx, want))

	got, err := s.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestSaveOverwrites(t *testing.T) {
	s, _ := openTestStore(t, "pass")
	ctx := context.Background()

	require.NoError(t, s.Save(ctx, &lens.Session{AccessToken: "old"}))
	require.NoError(t, s.Save(ctx, &lens.Session{AccessToken: "new"}))

	got, err := s.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, "new", got.AccessToken)
}

func TestClear(t *testing.T) {
	s, _ := openTestStore(t, "pass")
	ctx := context.Background()

	require.NoError(t, s.Save(ctx, &lens.Session{AccessToken: "at"}))
	require.NoError(t, s.Clear(ctx))

	_, err := s.Load(ctx)
	require.ErrorIs(t, err, common.ErrNotFound)

	require.NoError(t, s.Clear(ctx), "clearing an empty cache succeeds")
}

func TestReopenSamePassphrase(t *testing.T) {
	ctx := context.Background()
	s, path := openTestStore(t, "pass")

	require.NoError(t, s.Save(ctx, &lens.Session{AccessToken: "at"}))
	require.NoError(t, s.Close())

	reopened, err := Open(ctx, path, []byte("pass"))
	require.NoError(t, err)
	defer reopened.Close()

	got, err := reopened.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, "at", got.AccessToken)
}

func TestReopenWrongPassphrase(t *testing.T) {
	ctx := context.Background()
	s, path := openTestStore(t, "correct")

	require.NoError(t, s.Save(ctx, &lens.Session{AccessToken: "at"}))
	require.NoError(t, s.Close())

	reopened, err := Open(ctx, path, []byte("wrong"))
	require.NoError(t, err)
	defer reopened.Close()

	_, err = reopened.Load(ctx)
	require.Error(t, err)
	assert.NotErrorIs(t, err, common.ErrNotFound)
}
