// Package pipeline runs a complete packing pass: scan and deduplicate the
// pack, pack unique textures page by page, and composite and write every
// finalized page while the next one is being packed.
package pipeline

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	"github.com/gofrs/flock"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/Faultbox/texpack/internal/atlas"
	"github.com/Faultbox/texpack/internal/config"
	"github.com/Faultbox/texpack/internal/fileutil"
	"github.com/Faultbox/texpack/internal/index"
	"github.com/Faultbox/texpack/internal/logger"
	"github.com/Faultbox/texpack/internal/mapping"
	"github.com/Faultbox/texpack/internal/packer"
	"github.com/Faultbox/texpack/internal/source"
)

var (
	// ErrWriteFailure aborts a run: a page image or table could not be
	// produced. Pages already written stay on disk; nothing is retried.
	ErrWriteFailure = errors.New("atlas write failed")

	// ErrLocked means another run holds the output directory.
	ErrLocked = errors.New("output directory is locked by another run")
)

// LockFile is the name of the lock file created in the output directory.
const LockFile = ".texpack.lock"

const imageFileMode = 0o644

// PageResult describes one written page.
type PageResult struct {
	Page      *packer.Page
	Table     *mapping.Table
	ImagePath string
	TablePath string
	Bytes     int64 // image + table size on disk
}

// Result summarizes a run.
type Result struct {
	RunID    string
	Stats    index.Stats
	Pages    []*PageResult // ordered by page index
	Rejected []packer.Rejection
	Removed  []string // stale page files from an earlier run
}

// BytesWritten returns the total size of every written page file.
func (r *Result) BytesWritten() int64 {
	var n int64
	for _, p := range r.Pages {
		n += p.Bytes
	}
	return n
}

// Entries returns the number of alias entries across all pages.
func (r *Result) Entries() int {
	var n int
	for _, p := range r.Pages {
		n += p.Table.Len()
	}
	return n
}

// IndexOptions maps the input configuration to indexer options.
func IndexOptions(cfg *config.Config) index.Options {
	return index.Options{
		Segment:        cfg.Input.Segment,
		Extensions:     cfg.Input.Extensions,
		ExcludedSuffix: cfg.Input.ExcludedSuffix,
		Workers:        cfg.Input.Workers,
	}
}

// Scan opens the configured pack and indexes it without packing.
func Scan(ctx context.Context, cfg *config.Config) ([]*index.UniqueTexture, index.Stats, error) {
	src, err := source.Open(cfg.Input.Root)
	if err != nil {
		return nil, index.Stats{}, err
	}
	defer src.Close()

	return index.New(IndexOptions(cfg), nil).Index(ctx, src)
}

// Run executes a full packing pass with cfg.
func Run(ctx context.Context, cfg *config.Config) (*Result, error) {
	runID := uuid.NewString()
	log := logger.Named("pipeline").With(zap.String("run", runID))

	src, err := source.Open(cfg.Input.Root)
	if err != nil {
		return nil, err
	}
	defer src.Close()

	log.Info("scanning", zap.String("root", src.Root()))
	textures, stats, err := index.New(IndexOptions(cfg), logger.Named("index").With(zap.String("run", runID))).Index(ctx, src)
	if err != nil {
		return nil, err
	}
	log.Info("scan complete",
		zap.Int("candidates", stats.Candidates),
		zap.Int("unique", stats.Unique),
		zap.Int("aliases", stats.Aliases),
		zap.Int("skipped", stats.Skipped))

	result := &Result{RunID: runID, Stats: stats}
	outDir := cfg.OutputDir()
	if len(textures) == 0 {
		log.Info("no textures to pack")
		if result.Removed, err = clearOutput(outDir, log); err != nil {
			return nil, err
		}
		return result, nil
	}

	p, err := packer.New(packer.Options{
		PageSize: cfg.Packing.PageSize,
		MaxBatch: cfg.Packing.MaxBatch,
	}, textures, logger.Named("packer").With(zap.String("run", runID)))
	if err != nil {
		return nil, err
	}
	result.Rejected = p.Rejected()
	if p.Done() {
		log.Info("no packable textures", zap.Int("rejected", len(result.Rejected)))
		if result.Removed, err = clearOutput(outDir, log); err != nil {
			return nil, err
		}
		return result, nil
	}

	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return nil, fmt.Errorf("%w: create output directory: %w", ErrWriteFailure, err)
	}
	unlock, err := lockOutput(outDir, log)
	if err != nil {
		return nil, err
	}
	defer unlock()

	w := &pageWriter{
		src:       src,
		dir:       outDir,
		reference: cfg.Output.Reference,
		log:       log,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(cfg.Output.ComposeWorkers)

	// Each page commits after the one before it, so a failed page is never
	// followed by later pages on disk.
	prev := make(chan struct{})
	close(prev)

	var packErr error
	for !p.Done() {
		if gctx.Err() != nil {
			break
		}
		page, err := p.Next()
		if err != nil {
			packErr = err
			break
		}

		pr := &PageResult{Page: page}
		result.Pages = append(result.Pages, pr)
		after, committed := prev, make(chan struct{})
		prev = committed
		g.Go(func() error {
			return w.write(gctx, pr, after, committed)
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	if packErr != nil {
		return nil, packErr
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	result.Removed, err = removeStalePages(outDir, len(result.Pages))
	if err != nil {
		log.Warn("failed to remove stale pages", zap.Error(err))
	}
	logRemoved(log, result.Removed)

	log.Info("packing complete",
		zap.Int("pages", len(result.Pages)),
		zap.Int("entries", result.Entries()),
		zap.Int("rejected", len(result.Rejected)),
		zap.Int64("bytes", result.BytesWritten()))

	return result, nil
}

type pageWriter struct {
	src       atlas.Reader
	dir       string
	reference string
	log       *zap.Logger
}

// write composes a page, waits for the previous page to be committed, and
// then writes its image and table. Any failure is reported as
// ErrWriteFailure; committed is closed only on success.
func (w *pageWriter) write(ctx context.Context, pr *PageResult, after <-chan struct{}, committed chan<- struct{}) error {
	page := pr.Page
	fail := func(err error) error {
		return fmt.Errorf("%w: page %d: %w", ErrWriteFailure, page.Index, err)
	}

	table, err := atlas.Entries(page, mapping.ImageRef(w.reference, page.Index))
	if err != nil {
		return fail(err)
	}

	img, err := atlas.Compose(ctx, page, w.src)
	if err != nil {
		return fail(err)
	}
	var encoded bytes.Buffer
	if err := atlas.EncodePNG(&encoded, img); err != nil {
		return fail(err)
	}

	select {
	case <-after:
	case <-ctx.Done():
		return ctx.Err()
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	imagePath := filepath.Join(w.dir, mapping.ImageFile(page.Index))
	if err := fileutil.WriteFileAtomic(imagePath, encoded.Bytes(), imageFileMode); err != nil {
		return fail(err)
	}

	tablePath, err := mapping.WriteFile(w.dir, table)
	if err != nil {
		return fail(err)
	}

	close(committed)

	pr.Table = table
	pr.ImagePath = imagePath
	pr.TablePath = tablePath
	for _, name := range []string{imagePath, tablePath} {
		if fi, err := os.Stat(name); err == nil {
			pr.Bytes += fi.Size()
		}
	}

	w.log.Info("page written",
		zap.Int("page", page.Index),
		zap.Int("textures", len(page.Placed)),
		zap.Int("entries", table.Len()),
		zap.Float64("utilization", page.Utilization()),
		zap.String("image", imagePath))
	return nil
}

// lockOutput takes the exclusive lock on an existing output directory and
// returns its release func.
func lockOutput(dir string, log *zap.Logger) (func(), error) {
	lock := flock.New(filepath.Join(dir, LockFile))
	ok, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrLocked, dir)
	}
	return func() {
		if err := lock.Unlock(); err != nil {
			log.Warn("failed to release output lock", zap.Error(err))
		}
	}, nil
}

// clearOutput removes every page file of an earlier run when this run
// produced no pages. A missing output directory is not created.
func clearOutput(dir string, log *zap.Logger) ([]string, error) {
	if _, err := os.Stat(dir); errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	unlock, err := lockOutput(dir, log)
	if err != nil {
		return nil, err
	}
	defer unlock()

	removed, err := removeStalePages(dir, 0)
	if err != nil {
		log.Warn("failed to remove stale pages", zap.Error(err))
	}
	logRemoved(log, removed)
	return removed, nil
}

func logRemoved(log *zap.Logger, removed []string) {
	for _, name := range removed {
		log.Info("removed stale page file", zap.String("path", name))
	}
}

// removeStalePages deletes page files numbered above pages, left over from
// an earlier run that produced more pages.
func removeStalePages(dir string, pages int) ([]string, error) {
	var stale []string
	for _, ext := range []string{mapping.ImageExt, mapping.TableExt} {
		files, err := mapping.PageFiles(dir, ext)
		if err != nil {
			return nil, err
		}
		for _, f := range files {
			if f.Page > pages {
				stale = append(stale, f.Path)
			}
		}
	}
	sort.Strings(stale)

	var removed []string
	var errs []error
	for _, name := range stale {
		if err := os.Remove(name); err != nil {
			errs = append(errs, err)
			continue
		}
		removed = append(removed, name)
	}
	return removed, errors.Join(errs...)
}
