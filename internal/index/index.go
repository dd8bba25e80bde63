// Package index scans pack textures and collapses byte-identical files into
// unique textures with alias names.
package index

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"path"
	"slices"
	"strings"

	"github.com/zeebo/blake3"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/text/unicode/norm"

	"github.com/Faultbox/texpack/internal/logger"
	"github.com/Faultbox/texpack/internal/source"
	"github.com/Faultbox/texpack/pkg/texture"
)

// ErrUnreadableFile marks a candidate that could not be read or decoded.
// Such files are skipped; they never abort a scan.
var ErrUnreadableFile = errors.New("unreadable texture file")

// ErrAliasCollision marks a file whose alias already names different content.
// The later file in listing order is skipped.
var ErrAliasCollision = errors.New("alias already taken by another texture")

// Record is the transient per-file scan result.
type Record struct {
	Path   string
	Width  int
	Height int
	Hash   string
}

// UniqueTexture is one distinct texture content with every name it is known by.
type UniqueTexture struct {
	Hash    string
	Path    string // representative file, the first one seen
	Width   int
	Height  int
	Aliases []string
}

// MaxSide returns the larger of the texture's dimensions.
func (u *UniqueTexture) MaxSide() int {
	return max(u.Width, u.Height)
}

// Options controls file selection and hashing parallelism.
type Options struct {
	Segment        string   // required directory segment, e.g. "textures"
	Extensions     []string // accepted extensions with leading dot
	ExcludedSuffix string   // file stems ending in this are skipped
	Workers        int
}

// Stats summarizes a scan.
type Stats struct {
	Files       int // files in the source
	Candidates  int // files passing selection
	Unique      int
	Aliases     int // total alias names across unique textures
	Skipped     int // unreadable candidates and alias collisions
	Bytes       int64
	LargestPath string
	LargestSide int
}

// Indexer selects, hashes and deduplicates textures.
type Indexer struct {
	opts Options
	log  *zap.Logger
}

// New creates an Indexer. A nil log uses the global logger.
func New(opts Options, log *zap.Logger) *Indexer {
	if opts.Workers < 1 {
		opts.Workers = 1
	}
	if log == nil {
		log = logger.Named("index")
	}
	return &Indexer{opts: opts, log: log}
}

// Selects reports whether a root-relative name is a texture candidate.
func (ix *Indexer) Selects(name string) bool {
	dir, file := path.Split(name)
	ext := path.Ext(file)

	if !slices.ContainsFunc(ix.opts.Extensions, func(e string) bool { return strings.EqualFold(e, ext) }) {
		return false
	}
	if ix.opts.ExcludedSuffix != "" && strings.HasSuffix(strings.TrimSuffix(file, ext), ix.opts.ExcludedSuffix) {
		return false
	}
	return slices.Contains(strings.Split(strings.Trim(dir, "/"), "/"), ix.opts.Segment)
}

// AliasName returns the alias for a root-relative file name: extension
// stripped, NFC-normalized.
func AliasName(name string) string {
	return norm.NFC.String(strings.TrimSuffix(name, path.Ext(name)))
}

type scanResult struct {
	record Record
	size   int
	err    error
}

// Index scans src and returns unique textures in first-seen order. The
// order of files is the source's lexical listing order, so the result is
// deterministic regardless of how the hashing work is scheduled.
func (ix *Indexer) Index(ctx context.Context, src source.Source) ([]*UniqueTexture, Stats, error) {
	var stats Stats

	files, err := src.List()
	if err != nil {
		return nil, stats, fmt.Errorf("listing source: %w", err)
	}
	stats.Files = len(files)

	var candidates []string
	for _, f := range files {
		if ix.Selects(f) {
			candidates = append(candidates, f)
		}
	}
	stats.Candidates = len(candidates)
	ix.log.Info("scanning textures",
		zap.String("root", src.Root()),
		zap.Int("files", stats.Files),
		zap.Int("candidates", stats.Candidates))

	results := make([]scanResult, len(candidates))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(ix.opts.Workers)
	for i, name := range candidates {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			results[i] = scanFile(src, name)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, stats, err
	}

	byHash := make(map[string]*UniqueTexture)
	byAlias := make(map[string]*UniqueTexture)
	var unique []*UniqueTexture

	for _, r := range results {
		if r.err != nil {
			stats.Skipped++
			ix.log.Warn("skipping texture", zap.Error(r.err))
			continue
		}

		// An alias names exactly one content. Files that reduce to a taken
		// alias (case of the extension, NFC/NFD spelling) with other bytes
		// lose to the first one in listing order.
		rec := r.record
		alias := AliasName(rec.Path)
		if owner, ok := byAlias[alias]; ok && owner.Hash != rec.Hash {
			stats.Skipped++
			ix.log.Warn("skipping texture",
				zap.Error(fmt.Errorf("%w: %s", ErrAliasCollision, rec.Path)),
				zap.String("alias", alias),
				zap.String("owner", owner.Path))
			continue
		}
		stats.Bytes += int64(r.size)

		if side := max(rec.Width, rec.Height); side > stats.LargestSide {
			stats.LargestSide = side
			stats.LargestPath = rec.Path
		}

		u, ok := byHash[rec.Hash]
		if !ok {
			u = &UniqueTexture{
				Hash:   rec.Hash,
				Path:   rec.Path,
				Width:  rec.Width,
				Height: rec.Height,
			}
			byHash[rec.Hash] = u
			unique = append(unique, u)
		} else {
			ix.log.Debug("duplicate texture",
				zap.String("path", rec.Path),
				zap.String("representative", u.Path))
		}
		if !slices.Contains(u.Aliases, alias) {
			u.Aliases = append(u.Aliases, alias)
			byAlias[alias] = u
			stats.Aliases++
		}
	}
	stats.Unique = len(unique)

	ix.log.Info("textures indexed",
		zap.Int("unique", stats.Unique),
		zap.Int("aliases", stats.Aliases),
		zap.Int("skipped", stats.Skipped),
		zap.String("largest", stats.LargestPath),
		zap.Int("largest_side", stats.LargestSide))

	return unique, stats, nil
}

// scanFile reads one candidate, probes its dimensions and digests its bytes.
func scanFile(src source.Source, name string) scanResult {
	data, err := src.Read(name)
	if err != nil {
		return scanResult{err: fmt.Errorf("%w: %s: %v", ErrUnreadableFile, name, err)}
	}

	cfg, err := texture.DecodeConfig(path.Ext(name), data)
	if err != nil {
		return scanResult{err: fmt.Errorf("%w: %s: %v", ErrUnreadableFile, name, err)}
	}

	sum := blake3.Sum256(data)
	return scanResult{
		record: Record{
			Path:   name,
			Width:  cfg.Width,
			Height: cfg.Height,
			Hash:   hex.EncodeToString(sum[:]),
		},
		size: len(data),
	}
}
