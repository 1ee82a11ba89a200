package watch

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/ledgerflow/constants"
)

func TestStartRequiresDir(t *testing.T) {
	_, _, err := Start(context.Background(), Config{}, nil)
	assert.Error(t, err)
}

func TestStartMissingDir(t *testing.T) {
	_, _, err := Start(context.Background(), Config{Dir: filepath.Join(t.TempDir(), "nope")}, nil)
	assert.Error(t, err)
}

func TestWatcherEmitsAcceptedFiles(t *testing.T) {
	dir := t.TempDir()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	events, _, err := Start(ctx, Config{
		Dir:         dir,
		AllowedExts: constants.ExtSet([]string{"pdf"}),
		Debounce:    50 * time.Millisecond,
	}, nil)
	require.NoError(t, err)

	path := filepath.Join(dir, "invoice.pdf")
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o644))

	select {
	case got := <-events:
		assert.Equal(t, path, got)
	case <-time.After(5 * time.Second):
		t.Fatal("no event for accepted file")
	}
}

func TestWatcherIgnoresOtherExtensions(t *testing.T) {
	dir := t.TempDir()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	events, _, err := Start(ctx, Config{
		Dir:         dir,
		AllowedExts: constants.ExtSet([]string{"pdf"}),
		Debounce:    50 * time.Millisecond,
	}, nil)
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.docx"), []byte("x"), 0o644))

	select {
	case got := <-events:
		t.Fatalf("unexpected event: %s", got)
	case <-time.After(300 * time.Millisecond):
	}
}

func TestWatcherClosesOnCancel(t *testing.T) {
	dir := t.TempDir()
	ctx, cancel := context.WithCancel(context.Background())

	events, _, err := Start(ctx, Config{
		Dir:         dir,
		AllowedExts: constants.ExtSet([]string{"pdf"}),
	}, nil)
	require.NoError(t, err)

	cancel()

	select {
	case _, ok := <-events:
		assert.False(t, ok, "event channel should close")
	case <-time.After(5 * time.Second):
		t.Fatal("event channel did not close after cancel")
	}
}

func TestAllowed(t *testing.T) {
	exts := constants.ExtSet([]string{"pdf", "jpg"})
	assert.True(t, allowed("/in/a.pdf", exts))
	assert.True(t, allowed("/in/B.JPG", exts))
	assert.False(t, allowed("/in/a.txt", exts))
	assert.False(t, allowed("/in/a.pdf", nil))
}
