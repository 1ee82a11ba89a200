package pipeline

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/ledgerflow/constants"
	"github.com/joseph-ayodele/ledgerflow/internal/extract"
)

type fakeExtractor struct {
	calls int
	fn    func(path string) (extract.Result, error)
}

func (f *fakeExtractor) Extract(_ context.Context, path string) (extract.Result, error) {
	f.calls++
	return f.fn(path)
}

type trackerFixture struct {
	incoming  string
	extracted string
	processed string
	errors    string
}

func newTrackerFixture(t *testing.T) trackerFixture {
	t.Helper()
	root := t.TempDir()
	fx := trackerFixture{
		incoming:  filepath.Join(root, "incoming"),
		extracted: filepath.Join(root, "extracted"),
		processed: filepath.Join(root, "processed"),
		errors:    filepath.Join(root, "errors"),
	}
	for _, d := range []string{fx.incoming, fx.extracted, fx.processed, fx.errors} {
		require.NoError(t, os.MkdirAll(d, 0o755))
	}
	return fx
}

func (fx trackerFixture) newTracker(ex extract.TextExtractor) *Tracker {
	return NewTracker(TrackerConfig{
		Incoming:     fx.incoming,
		Extracted:    fx.extracted,
		Processed:    fx.processed,
		Errors:       fx.errors,
		AcceptedExts: constants.ExtSet([]string{"pdf", "png", "jpg"}),
	}, ex, nil)
}

func (fx trackerFixture) drop(t *testing.T, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(fx.incoming, name), []byte(content), 0o644))
}

func listNames(t *testing.T, dir string) []string {
	t.Helper()
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	return names
}

func TestExtractionPassSuccess(t *testing.T) {
	fx := newTrackerFixture(t)
	fx.drop(t, "invoice.pdf", "%PDF-1.4")

	ex := &fakeExtractor{fn: func(string) (extract.Result, error) {
		return extract.Result{Text: "Acme Corp 2024-01-05 $50", Method: "pdf-text", Pages: 1}, nil
	}}
	tr := fx.newTracker(ex)

	count := tr.RunExtractionPass(context.Background())
	assert.Equal(t, 1, count)
	assert.Equal(t, 1, ex.calls)

	artifact, err := os.ReadFile(filepath.Join(fx.extracted, "invoice.txt"))
	require.NoError(t, err)
	assert.Equal(t, "Acme Corp 2024-01-05 $50", string(artifact))

	assert.FileExists(t, filepath.Join(fx.processed, "invoice.pdf"))
	assert.NoFileExists(t, filepath.Join(fx.incoming, "invoice.pdf"))
}

func TestExtractionPassFailureRoutesToErrors(t *testing.T) {
	fx := newTrackerFixture(t)
	fx.drop(t, "scan.png", "not really a png")

	ex := &fakeExtractor{fn: func(string) (extract.Result, error) {
		return extract.Result{}, extract.ErrNoText
	}}
	tr := fx.newTracker(ex)

	count := tr.RunExtractionPass(context.Background())
	assert.Equal(t, 0, count)

	assert.FileExists(t, filepath.Join(fx.errors, "scan.png"))
	assert.NoFileExists(t, filepath.Join(fx.extracted, "scan.txt"))
	assert.NoFileExists(t, filepath.Join(fx.incoming, "scan.png"))
}

func TestExtractionPassOneBadFileDoesNotAbort(t *testing.T) {
	fx := newTrackerFixture(t)
	fx.drop(t, "bad.png", "x")
	fx.drop(t, "good.pdf", "x")

	ex := &fakeExtractor{fn: func(path string) (extract.Result, error) {
		if filepath.Ext(path) == ".png" {
			return extract.Result{}, extract.ErrNoText
		}
		return extract.Result{Text: "ok"}, nil
	}}
	tr := fx.newTracker(ex)

	count := tr.RunExtractionPass(context.Background())
	assert.Equal(t, 1, count)
	assert.Equal(t, 2, ex.calls)
	assert.FileExists(t, filepath.Join(fx.errors, "bad.png"))
	assert.FileExists(t, filepath.Join(fx.processed, "good.pdf"))
}

func TestExtractionPassIgnoresUnsupportedExtensions(t *testing.T) {
	fx := newTrackerFixture(t)
	fx.drop(t, "notes.docx", "x")

	ex := &fakeExtractor{fn: func(string) (extract.Result, error) {
		t.Fatal("extractor must not be called for unsupported extensions")
		return extract.Result{}, nil
	}}
	tr := fx.newTracker(ex)

	count := tr.RunExtractionPass(context.Background())
	assert.Equal(t, 0, count)
	assert.FileExists(t, filepath.Join(fx.incoming, "notes.docx"))
}

func TestExtensionMatchIsCaseInsensitive(t *testing.T) {
	fx := newTrackerFixture(t)
	fx.drop(t, "INVOICE.PDF", "x")

	ex := &fakeExtractor{fn: func(string) (extract.Result, error) {
		return extract.Result{Text: "ok"}, nil
	}}
	tr := fx.newTracker(ex)

	assert.Equal(t, 1, tr.RunExtractionPass(context.Background()))
	assert.FileExists(t, filepath.Join(fx.processed, "INVOICE.PDF"))
	assert.FileExists(t, filepath.Join(fx.extracted, "INVOICE.txt"))
}

func TestSecondPassIsNoOp(t *testing.T) {
	fx := newTrackerFixture(t)
	fx.drop(t, "a.pdf", "x")
	fx.drop(t, "b.png", "x")

	ex := &fakeExtractor{fn: func(path string) (extract.Result, error) {
		if filepath.Ext(path) == ".png" {
			return extract.Result{}, extract.ErrNoText
		}
		return extract.Result{Text: "ok"}, nil
	}}
	tr := fx.newTracker(ex)

	tr.RunExtractionPass(context.Background())
	require.Equal(t, 2, ex.calls)

	processedBefore := listNames(t, fx.processed)
	errorsBefore := listNames(t, fx.errors)

	// Terminal folders are never revisited: the pass only scans incoming.
	assert.Equal(t, 0, tr.RunExtractionPass(context.Background()))
	assert.Equal(t, 2, ex.calls)
	assert.Equal(t, processedBefore, listNames(t, fx.processed))
	assert.Equal(t, errorsBefore, listNames(t, fx.errors))
}

func TestProcessFileRejectsUnsupported(t *testing.T) {
	fx := newTrackerFixture(t)
	fx.drop(t, "readme.md", "x")

	ex := &fakeExtractor{fn: func(string) (extract.Result, error) {
		return extract.Result{Text: "ok"}, nil
	}}
	tr := fx.newTracker(ex)

	assert.False(t, tr.ProcessFile(context.Background(), filepath.Join(fx.incoming, "readme.md")))
	assert.Equal(t, 0, ex.calls)
	assert.FileExists(t, filepath.Join(fx.incoming, "readme.md"))
}
