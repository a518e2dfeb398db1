// Package catalog implements the catalog synchronization pipeline: fetch the
// remote archive, extract the nested layers, walk the record tree, parse and
// upsert every record, and track the global status with partial-failure
// recovery. The staging directory is removed at the end of every run.
package catalog

import (
	"context"
	"log"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"

	"bibliotech/internal/entities"
	"bibliotech/internal/rdf"
)

// Outcome reports how a synchronization run resolved.
type Outcome string

const (
	// OutcomeNoop means nothing ran: the catalog was already synchronized,
	// or another run held the synchronizing state.
	OutcomeNoop Outcome = "noop"
	// OutcomeSynchronized means every record imported cleanly.
	OutcomeSynchronized Outcome = "synchronized"
	// OutcomeUnsynchronized means a stage failed or at least one record
	// failed to import. Records already upserted stay in the store.
	OutcomeUnsynchronized Outcome = "unsynchronized"
)

// StatusStore persists the singleton catalog status.
type StatusStore interface {
	IsSynchronized() (bool, error)
	BeginSynchronizing() (bool, error)
	SetStatus(value entities.CatalogStatusValue) (bool, error)
}

// BookUpserter persists parsed records.
type BookUpserter interface {
	Upsert(book *entities.Book) error
}

// Fetcher downloads the catalog archive to a staging path.
type Fetcher interface {
	Fetch(ctx context.Context) (string, error)
}

// Extractor unpacks the nested archive into the staging tree.
type Extractor interface {
	Extract(archivePath string) error
}

// Walker yields the raw record files under the staging tree.
type Walker interface {
	Walk(ctx context.Context, root string) <-chan RecordFile
}

// Record is a parsed record ready to be mapped to a Book.
type Record interface {
	ToBook() (entities.Book, error)
}

// RecordParser converts one raw record document into a Record. Parsing
// failures are per-record.
type RecordParser interface {
	Parse(data []byte) (Record, error)
}

// RDFParser adapts the rdf package to the RecordParser interface.
type RDFParser struct{}

func (RDFParser) Parse(data []byte) (Record, error) {
	return rdf.Parse(data)
}

// Synchronizer orchestrates the pipeline and owns the status state machine.
type Synchronizer struct {
	statuses   StatusStore
	books      BookUpserter
	fetcher    Fetcher
	extractor  Extractor
	walker     Walker
	parser     RecordParser
	stagingDir string
	workers    int
}

// Config carries the synchronizer's collaborators and settings.
type Config struct {
	Statuses   StatusStore
	Books      BookUpserter
	Fetcher    Fetcher
	Extractor  Extractor
	Walker     Walker
	Parser     RecordParser
	StagingDir string
	Workers    int
}

// NewSynchronizer creates a synchronizer. Workers below 1 fall back to 1.
func NewSynchronizer(cfg Config) *Synchronizer {
	workers := cfg.Workers
	if workers < 1 {
		workers = 1
	}
	parser := cfg.Parser
	if parser == nil {
		parser = RDFParser{}
	}
	return &Synchronizer{
		statuses:   cfg.Statuses,
		books:      cfg.Books,
		fetcher:    cfg.Fetcher,
		extractor:  cfg.Extractor,
		walker:     cfg.Walker,
		parser:     parser,
		stagingDir: cfg.StagingDir,
		workers:    workers,
	}
}

// Synchronize runs one full synchronization. Stage failures and per-record
// failures resolve internally to OutcomeUnsynchronized; the only errors
// returned are status-store failures, which the caller should treat as
// fatal.
func (s *Synchronizer) Synchronize(ctx context.Context) (Outcome, error) {
	synchronized, err := s.statuses.IsSynchronized()
	if err != nil {
		return OutcomeUnsynchronized, err
	}
	if synchronized {
		log.Printf("Catalog already synchronized, skipping run")
		return OutcomeNoop, nil
	}

	acquired, err := s.statuses.BeginSynchronizing()
	if err != nil {
		return OutcomeUnsynchronized, err
	}
	if !acquired {
		log.Printf("Another synchronization is in flight, skipping run")
		return OutcomeNoop, nil
	}

	defer s.cleanup()

	archivePath, err := s.fetcher.Fetch(ctx)
	if err != nil {
		log.Printf("Catalog fetch failed: %v", err)
		return s.finish(false)
	}

	if err := s.extractor.Extract(archivePath); err != nil {
		log.Printf("Catalog extraction failed: %v", err)
		return s.finish(false)
	}

	failed := s.importRecords(ctx)
	if failed > 0 {
		log.Printf("Catalog partially imported: %d records failed", failed)
		return s.finish(false)
	}

	log.Printf("Catalog imported successfully")
	return s.finish(true)
}

// importRecords drains the walker with a bounded worker pool and returns the
// number of records that failed to import. A failing record never stops the
// remaining ones.
func (s *Synchronizer) importRecords(ctx context.Context) int64 {
	records := s.walker.Walk(ctx, filepath.Join(s.stagingDir, RecordsSubpath))

	var failed atomic.Int64
	var wg sync.WaitGroup
	for i := 0; i < s.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for file := range records {
				if err := s.importRecord(file); err != nil {
					log.Printf("Failed to import %s: %v", file.Path, err)
					failed.Add(1)
				}
			}
		}()
	}
	wg.Wait()

	return failed.Load()
}

func (s *Synchronizer) importRecord(file RecordFile) error {
	if file.Err != nil {
		return file.Err
	}

	record, err := s.parser.Parse(file.Data)
	if err != nil {
		return err
	}

	book, err := record.ToBook()
	if err != nil {
		return err
	}

	if err := s.books.Upsert(&book); err != nil {
		return err
	}

	log.Printf("Book(%d) %q imported", book.ID, book.Title)
	return nil
}

// finish resolves the transient synchronizing state to a stable one. A
// failing status write is the demote path itself failing and is surfaced.
func (s *Synchronizer) finish(success bool) (Outcome, error) {
	if success {
		if _, err := s.statuses.SetStatus(entities.CatalogSynchronized); err != nil {
			return OutcomeUnsynchronized, err
		}
		return OutcomeSynchronized, nil
	}

	if _, err := s.statuses.SetStatus(entities.CatalogUnsynchronized); err != nil {
		return OutcomeUnsynchronized, err
	}
	return OutcomeUnsynchronized, nil
}

// cleanup removes the staging tree. Its failure is reported but never
// re-enters the state machine.
func (s *Synchronizer) cleanup() {
	if err := os.RemoveAll(s.stagingDir); err != nil {
		log.Printf("Failed to remove staging directory %s: %v", s.stagingDir, err)
	}
}
