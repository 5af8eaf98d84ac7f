package app

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"mdx-go/internal/config"
	"mdx-go/internal/database"
	"mdx-go/internal/exiftool"
	"mdx-go/internal/fs"
	"mdx-go/internal/mdx"
	"mdx-go/internal/model"
)

// App is the application layer between the CLI and IndexService.
// It constructs all dependencies from config, exposes high-level operations
// that accept raw string paths, and manages the store lifecycle on Close.
type App struct {
	cfg     *config.Config
	store   *database.SQLiteStore
	fsmgr   mdx.FilesystemManager
	service *mdx.IndexService
	op      *IndexOperation
	logFile *os.File
}

// NewApp creates a fully wired App from the given config.
// operation identifies the CLI command being run (e.g. "IndexFiles").
// The caller must call Close when done.
func NewApp(cfg *config.Config, operation string) (*App, error) {
	fsmgr := fs.NewOSFilesystemManager()

	store, err := database.NewStoreFromConfig(cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("creating store: %w", err)
	}

	if err := store.CheckMigrations(); err != nil {
		store.Close()
		return nil, fmt.Errorf("database schema out of date: %w", err)
	}

	extractor := exiftool.New(cfg.Extractor.Binary)

	opID := time.Now().UTC().Format("20060102T150405Z")
	logger, logFile, err := newLogger(cfg.LogDir, opID)
	if err != nil {
		store.Close()
		return nil, fmt.Errorf("creating logger: %w", err)
	}

	svc := mdx.NewIndexService(store, fsmgr, extractor, &slogAdapter{l: logger}, mdx.RealClock{}, mdx.UUIDGenerator{})
	op := NewIndexOperation(operation, "")

	return &App{
		cfg:     cfg,
		store:   store,
		fsmgr:   fsmgr,
		service: svc,
		op:      op,
		logFile: logFile,
	}, nil
}

// persistOperation saves the index operation to the database, giving it an
// auto-increment ID. This should only be called for DB-mutating commands.
func (a *App) persistOperation() error {
	if a.op.Persisted() {
		return nil // already persisted
	}
	dbOp, err := a.store.CreateIndexOperation(a.op.Operation, a.op.Parameters)
	if err != nil {
		return fmt.Errorf("persisting index operation: %w", err)
	}
	a.op.ID = dbOp.ID
	return nil
}

// IndexRequest carries the raw CLI inputs for one indexing run. Zero
// values fall back to the configured defaults.
type IndexRequest struct {
	Volume       string
	Include      []string // literal substring patterns
	Exclude      []string // literal substring patterns
	IncludeRegex []string
	ExcludeRegex []string
	Check        string // comma-separated check fields
	Depth        int
	Limit        int
	DryRun       bool
}

// Index resolves the given path and runs the indexing pipeline over it.
func (a *App) Index(rawPath string, req IndexRequest) (*mdx.Report, error) {
	opts, err := a.buildOptions(req)
	if err != nil {
		return nil, err
	}

	p, err := a.fsmgr.Resolve(rawPath)
	if err != nil {
		return nil, fmt.Errorf("resolving path: %w", err)
	}

	if !req.DryRun {
		a.op.Parameters = p.String()
		if err := a.persistOperation(); err != nil {
			return nil, err
		}
	}

	report, err := a.service.IndexPath(p, opts)
	if err != nil {
		a.op.Status = "error"
		return report, err
	}
	return report, nil
}

// buildOptions merges the request with configured defaults into pipeline
// options.
func (a *App) buildOptions(req IndexRequest) (mdx.IndexOptions, error) {
	volume := req.Volume
	if volume == "" {
		volume = a.cfg.Index.DefaultVolume
	}
	if volume == "" {
		return mdx.IndexOptions{}, fmt.Errorf("no volume given and no default_volume configured")
	}

	check := req.Check
	if check == "" {
		check = a.cfg.Index.CheckStrategy
	}
	strategy, err := mdx.ParseCheckStrategy(check)
	if err != nil {
		return mdx.IndexOptions{}, fmt.Errorf("parsing check strategy: %w", err)
	}

	include := append(mdx.LiteralPatterns(req.Include), mdx.RegexPatterns(req.IncludeRegex)...)
	exclude := append(mdx.LiteralPatterns(a.cfg.Index.Exclude), mdx.LiteralPatterns(req.Exclude)...)
	exclude = append(exclude, mdx.RegexPatterns(req.ExcludeRegex)...)
	filter, err := mdx.NewFilter(include, exclude)
	if err != nil {
		return mdx.IndexOptions{}, fmt.Errorf("compiling patterns: %w", err)
	}

	return mdx.IndexOptions{
		Volume:   volume,
		Filter:   filter,
		Strategy: strategy,
		DryRun:   req.DryRun,
		MaxDepth: req.Depth,
		Limit:    req.Limit,
	}, nil
}

// Reprocess re-runs the pipeline for one already-indexed file after an
// external tool mutated it. The volume is resolved from the store, never
// passed in.
func (a *App) Reprocess(rawPath string) (mdx.Outcome, error) {
	p, err := a.fsmgr.Resolve(rawPath)
	if err != nil {
		return mdx.Outcome{}, fmt.Errorf("resolving path: %w", err)
	}

	a.op.Parameters = p.String()
	if err := a.persistOperation(); err != nil {
		return mdx.Outcome{}, err
	}

	outcome, err := a.service.Reprocess(p)
	if err != nil {
		a.op.Status = "error"
		return outcome, err
	}
	return outcome, nil
}

// Show returns the stored record and metadata for a path. The path is not
// required to exist on disk; resolution uses filepath.Abs only.
func (a *App) Show(rawPath string) (*model.MediaRecord, *model.Metadata, error) {
	absPath, err := filepath.Abs(rawPath)
	if err != nil {
		return nil, nil, fmt.Errorf("resolving path: %w", err)
	}

	rec, err := a.store.FindByPath(absPath)
	if err != nil {
		return nil, nil, err
	}
	if rec == nil {
		return nil, nil, nil
	}

	meta, err := a.store.GetMetadata(rec.ID)
	if err != nil {
		return nil, nil, err
	}
	return rec, meta, nil
}

// History returns the most recent index operations.
func (a *App) History(limit int) ([]*model.IndexOperation, error) {
	return a.store.ListIndexOperations(limit)
}

// Skips returns the most recent skip bookkeeping rows.
func (a *App) Skips(limit int) ([]*model.SkippedFile, error) {
	return a.store.ListSkips(limit)
}

// Close finalizes the operation record (if persisted) and closes all
// resources.
func (a *App) Close() error {
	var firstErr error

	if a.op.Persisted() {
		if err := a.store.FinishIndexOperation(a.op.ID, a.op.Status); err != nil {
			firstErr = fmt.Errorf("finishing index operation: %w", err)
		}
	}

	if err := a.store.Close(); err != nil {
		if firstErr == nil {
			firstErr = fmt.Errorf("closing store: %w", err)
		}
	}

	if a.logFile != nil {
		a.logFile.Close()
	}

	return firstErr
}
