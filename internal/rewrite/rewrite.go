// Package rewrite points item models at packed atlas pages.
//
// A model's texture reference is reduced to a bare name (namespace and
// directories stripped) and matched against the alias names of the page
// tables: pages in order, entries in table order, and the first alias that
// ends with the bare name wins. Suffix matches are not unique; a bare name
// like "apple" also matches ".../golden_apple". The first match is taken.
package rewrite

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"

	"go.uber.org/zap"

	"github.com/Faultbox/texpack/internal/fileutil"
	"github.com/Faultbox/texpack/internal/logger"
	"github.com/Faultbox/texpack/internal/mapping"
	"github.com/Faultbox/texpack/internal/source"
)

// ErrNoTables is returned when there are no page tables to match against.
var ErrNoTables = errors.New("no atlas tables found")

const modelFileMode = 0o644

// Options controls model selection and writing.
type Options struct {
	ModelsDir  string // path segments a model's directory must contain, e.g. "models/item"
	TextureKey string // key under "textures" holding the reference, e.g. "layer0"
	DryRun     bool
}

// Match records one rewritten model.
type Match struct {
	Model     string // root-relative model file
	Reference string // original texture reference
	Entry     mapping.Entry
}

// Report summarizes a rewrite pass.
type Report struct {
	Models    int // model files selected
	Rewritten int
	Unmatched int // no reference, or no alias matched
	Skipped   int // unreadable or unparsable
	Matches   []Match
}

// Rewriter matches texture references against page tables.
type Rewriter struct {
	tables []*mapping.Table
	opts   Options
	log    *zap.Logger
}

// New creates a Rewriter over tables ordered by page. A nil log uses the
// global logger.
func New(tables []*mapping.Table, opts Options, log *zap.Logger) *Rewriter {
	if log == nil {
		log = logger.Named("rewrite")
	}
	return &Rewriter{tables: tables, opts: opts, log: log}
}

// BareName strips a "namespace:" prefix and any directories from a
// texture reference: "minecraft:item/apple" becomes "apple". A reference
// ending in "/" has an empty bare name.
func BareName(ref string) string {
	if i := strings.IndexByte(ref, ':'); i >= 0 {
		ref = ref[i+1:]
	}
	return ref[strings.LastIndexByte(ref, '/')+1:]
}

// Lookup returns the first entry whose alias ends with the bare name of ref.
func (r *Rewriter) Lookup(ref string) (mapping.Entry, bool) {
	bare := BareName(ref)
	if bare == "" {
		return mapping.Entry{}, false
	}
	for _, t := range r.tables {
		for _, e := range t.Entries() {
			if strings.HasSuffix(e.Alias, bare) {
				return e, true
			}
		}
	}
	return mapping.Entry{}, false
}

// RewriteModel rewrites one model file's contents. It returns nil output
// and a nil match when the model has no reference or nothing matched.
func (r *Rewriter) RewriteModel(data []byte) ([]byte, *Match, error) {
	model, err := ParseModel(data)
	if err != nil {
		return nil, nil, err
	}

	ref, ok := model.TextureRef(r.opts.TextureKey)
	if !ok {
		return nil, nil, nil
	}
	entry, ok := r.Lookup(ref)
	if !ok {
		return nil, nil, nil
	}

	if err := model.SetTextureRef(r.opts.TextureKey, entry.Texture); err != nil {
		return nil, nil, err
	}
	if err := model.SetCustomModelData(entry.CustomModelData); err != nil {
		return nil, nil, err
	}
	out, err := model.Encode()
	if err != nil {
		return nil, nil, err
	}
	return out, &Match{Reference: ref, Entry: entry}, nil
}

// Selects reports whether a root-relative name is a model file under the
// configured models directory.
func (r *Rewriter) Selects(name string) bool {
	if !strings.EqualFold(path.Ext(name), ".json") {
		return false
	}
	dir := "/" + path.Dir(name) + "/"
	want := "/" + strings.Trim(r.opts.ModelsDir, "/") + "/"
	return strings.Contains(dir, want)
}

// Run rewrites every selected model in src. Unreadable or malformed models
// are logged and skipped; a failed write aborts the pass.
func (r *Rewriter) Run(ctx context.Context, src *source.Dir) (*Report, error) {
	if len(r.tables) == 0 {
		return nil, ErrNoTables
	}

	names, err := src.List()
	if err != nil {
		return nil, err
	}

	report := &Report{}
	for _, name := range names {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if !r.Selects(name) {
			continue
		}
		report.Models++

		data, err := src.Read(name)
		if err != nil {
			report.Skipped++
			r.log.Warn("skipping model", zap.String("model", name), zap.Error(err))
			continue
		}

		out, match, err := r.RewriteModel(data)
		if err != nil {
			report.Skipped++
			r.log.Warn("skipping model", zap.String("model", name), zap.Error(err))
			continue
		}
		if match == nil {
			report.Unmatched++
			r.log.Debug("model unchanged", zap.String("model", name))
			continue
		}
		match.Model = name

		if !r.opts.DryRun {
			if err := fileutil.WriteFileAtomic(src.Path(name), out, modelFileMode); err != nil {
				return nil, fmt.Errorf("writing model %s: %w", name, err)
			}
		}
		report.Rewritten++
		report.Matches = append(report.Matches, *match)

		r.log.Info("model rewritten",
			zap.String("model", name),
			zap.String("reference", match.Reference),
			zap.String("alias", match.Entry.Alias),
			zap.String("texture", match.Entry.Texture),
			zap.Int("custom_model_data", match.Entry.CustomModelData),
			zap.Bool("dry_run", r.opts.DryRun))
	}

	r.log.Info("models processed",
		zap.Int("models", report.Models),
		zap.Int("rewritten", report.Rewritten),
		zap.Int("unmatched", report.Unmatched),
		zap.Int("skipped", report.Skipped))
	return report, nil
}
