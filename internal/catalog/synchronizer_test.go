package catalog

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"bibliotech/internal/database/books"
	catalogdb "bibliotech/internal/database/catalog"
	"bibliotech/internal/entities"
)

type syncHarness struct {
	synchronizer *Synchronizer
	books        *books.Repository
	statuses     *catalogdb.Repository
	stagingDir   string
	fetcher      *fakeFetcher
	extractor    *fakeExtractor
}

type fakeFetcher struct {
	calls int
	err   error
	// records are written under <staging>/cache/epub before returning, so
	// the tests exercise the real walker.
	records map[string][]byte
	staging string
	// afterFetch runs once the records are in place, before Fetch returns
	afterFetch func() error
}

func (f *fakeFetcher) Fetch(ctx context.Context) (string, error) {
	f.calls++
	if f.err != nil {
		return "", f.err
	}

	recordsDir := filepath.Join(f.staging, RecordsSubpath)
	if err := os.MkdirAll(recordsDir, 0o755); err != nil {
		return "", err
	}
	for name, data := range f.records {
		dir := filepath.Join(recordsDir, name)
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return "", err
		}
		if err := os.WriteFile(filepath.Join(dir, name+".rdf"), data, 0o644); err != nil {
			return "", err
		}
	}

	if f.afterFetch != nil {
		if err := f.afterFetch(); err != nil {
			return "", err
		}
	}

	return filepath.Join(f.staging, ArchiveFileName), nil
}

type fakeExtractor struct {
	calls int
	err   error
}

func (e *fakeExtractor) Extract(archivePath string) error {
	e.calls++
	return e.err
}

func recordXML(id int, title string) []byte {
	return []byte(fmt.Sprintf(`<?xml version="1.0" encoding="utf-8"?>
<rdf:RDF xmlns:rdf="http://www.w3.org/1999/02/22-rdf-syntax-ns#"
         xmlns:dcterms="http://purl.org/dc/terms/"
         xmlns:pgterms="http://www.gutenberg.org/2009/pgterms/">
  <pgterms:ebook rdf:about="ebooks/%d">
    <dcterms:title>%s</dcterms:title>
  </pgterms:ebook>
</rdf:RDF>`, id, title))
}

func setupSynchronizer(t *testing.T, records map[string][]byte) *syncHarness {
	tmpDir := t.TempDir()
	dbPath := filepath.Join(tmpDir, "sync_test.db")
	stagingDir := filepath.Join(tmpDir, "staging")

	db, err := gorm.Open(sqlite.Open(dbPath), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	err = db.AutoMigrate(&entities.Book{}, &entities.CatalogStatus{})
	require.NoError(t, err)

	t.Cleanup(func() {
		sqlDB, _ := db.DB()
		sqlDB.Close()
	})

	booksRepo := books.NewRepository(db)
	statusRepo := catalogdb.NewRepository(db)
	fetcher := &fakeFetcher{records: records, staging: stagingDir}
	extractor := &fakeExtractor{}

	synchronizer := NewSynchronizer(Config{
		Statuses:   statusRepo,
		Books:      booksRepo,
		Fetcher:    fetcher,
		Extractor:  extractor,
		Walker:     NewFileWalker(),
		StagingDir: stagingDir,
		Workers:    2,
	})

	return &syncHarness{
		synchronizer: synchronizer,
		books:        booksRepo,
		statuses:     statusRepo,
		stagingDir:   stagingDir,
		fetcher:      fetcher,
		extractor:    extractor,
	}
}

func assertStatus(t *testing.T, h *syncHarness, want entities.CatalogStatusValue) {
	t.Helper()
	status, err := h.statuses.GetOrCreate()
	require.NoError(t, err)
	assert.Equal(t, want, status.Status)
}

func TestSynchronize_AllRecordsSucceed(t *testing.T) {
	h := setupSynchronizer(t, map[string][]byte{
		"1": recordXML(1, "First"),
		"2": recordXML(2, "Second"),
		"3": recordXML(3, "Third"),
	})

	outcome, err := h.synchronizer.Synchronize(context.Background())
	require.NoError(t, err)
	assert.Equal(t, OutcomeSynchronized, outcome)

	count, err := h.books.Count()
	require.NoError(t, err)
	assert.Equal(t, int64(3), count)

	assertStatus(t, h, entities.CatalogSynchronized)
	assert.NoDirExists(t, h.stagingDir, "staging directory must be removed after a run")
}

func TestSynchronize_PartialFailureDemotesRun(t *testing.T) {
	h := setupSynchronizer(t, map[string][]byte{
		"1": recordXML(1, "First"),
		"2": []byte("not a record at all"),
		"3": recordXML(3, "Third"),
	})

	outcome, err := h.synchronizer.Synchronize(context.Background())
	require.NoError(t, err)
	assert.Equal(t, OutcomeUnsynchronized, outcome)

	// The well-formed records stay committed
	count, err := h.books.Count()
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)

	_, err = h.books.GetByID(1)
	assert.NoError(t, err)
	_, err = h.books.GetByID(3)
	assert.NoError(t, err)

	assertStatus(t, h, entities.CatalogUnsynchronized)
	assert.NoDirExists(t, h.stagingDir)
}

func TestSynchronize_UnreadableRecordDemotesRun(t *testing.T) {
	h := setupSynchronizer(t, map[string][]byte{
		"1": recordXML(1, "First"),
		"2": recordXML(2, "Second"),
	})

	// A dangling symlink makes one record file enumerable but unreadable
	h.fetcher.afterFetch = func() error {
		return os.Symlink(
			filepath.Join(h.stagingDir, "missing"),
			filepath.Join(h.stagingDir, RecordsSubpath, "broken.rdf"),
		)
	}

	outcome, err := h.synchronizer.Synchronize(context.Background())
	require.NoError(t, err)
	assert.Equal(t, OutcomeUnsynchronized, outcome)

	// The readable records stay committed
	count, err := h.books.Count()
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)

	assertStatus(t, h, entities.CatalogUnsynchronized)
	assert.NoDirExists(t, h.stagingDir)
}

func TestSynchronize_NoopWhenAlreadySynchronized(t *testing.T) {
	h := setupSynchronizer(t, nil)

	_, err := h.statuses.SetStatus(entities.CatalogSynchronized)
	require.NoError(t, err)

	outcome, err := h.synchronizer.Synchronize(context.Background())
	require.NoError(t, err)
	assert.Equal(t, OutcomeNoop, outcome)
	assert.Zero(t, h.fetcher.calls, "no fetch must happen for an already synchronized catalog")
	assert.Zero(t, h.extractor.calls)
}

func TestSynchronize_NoopWhenRunInFlight(t *testing.T) {
	h := setupSynchronizer(t, nil)

	acquired, err := h.statuses.BeginSynchronizing()
	require.NoError(t, err)
	require.True(t, acquired)

	outcome, err := h.synchronizer.Synchronize(context.Background())
	require.NoError(t, err)
	assert.Equal(t, OutcomeNoop, outcome)
	assert.Zero(t, h.fetcher.calls)
}

func TestSynchronize_FetchFailureShortCircuits(t *testing.T) {
	h := setupSynchronizer(t, nil)
	h.fetcher.err = fmt.Errorf("connection refused")

	outcome, err := h.synchronizer.Synchronize(context.Background())
	require.NoError(t, err)
	assert.Equal(t, OutcomeUnsynchronized, outcome)

	assert.Zero(t, h.extractor.calls, "extraction must not run after a failed fetch")

	count, err := h.books.Count()
	require.NoError(t, err)
	assert.Zero(t, count)

	assertStatus(t, h, entities.CatalogUnsynchronized)
	assert.NoDirExists(t, h.stagingDir)
}

func TestSynchronize_ExtractFailureShortCircuits(t *testing.T) {
	h := setupSynchronizer(t, map[string][]byte{"1": recordXML(1, "First")})
	h.extractor.err = fmt.Errorf("corrupt archive")

	outcome, err := h.synchronizer.Synchronize(context.Background())
	require.NoError(t, err)
	assert.Equal(t, OutcomeUnsynchronized, outcome)

	count, err := h.books.Count()
	require.NoError(t, err)
	assert.Zero(t, count, "no import must happen after a failed extraction")

	assertStatus(t, h, entities.CatalogUnsynchronized)
	assert.NoDirExists(t, h.stagingDir)
}

func TestSynchronize_ReimportIsIdempotent(t *testing.T) {
	h := setupSynchronizer(t, map[string][]byte{
		"1": recordXML(1, "First"),
		"2": recordXML(2, "Second"),
	})

	outcome, err := h.synchronizer.Synchronize(context.Background())
	require.NoError(t, err)
	require.Equal(t, OutcomeSynchronized, outcome)

	// Reset the status so a second full run happens over the same store
	_, err = h.statuses.SetStatus(entities.CatalogUnsynchronized)
	require.NoError(t, err)

	outcome, err = h.synchronizer.Synchronize(context.Background())
	require.NoError(t, err)
	assert.Equal(t, OutcomeSynchronized, outcome)

	count, err := h.books.Count()
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)
}
