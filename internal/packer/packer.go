// Package packer places unique textures onto fixed-size square atlas pages
// using guillotine splitting with Best Area Fit, rolling textures that do
// not fit over to subsequent pages.
package packer

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"go.uber.org/zap"

	"github.com/Faultbox/texpack/internal/index"
	"github.com/Faultbox/texpack/internal/logger"
)

var (
	// ErrUnsupportedDimensions marks a texture larger than the page on some
	// axis. Rotation is never attempted; the texture is excluded.
	ErrUnsupportedDimensions = errors.New("texture exceeds page size")

	// ErrNoProgress is returned if a fresh page accepts none of its
	// candidates, which would otherwise loop forever.
	ErrNoProgress = errors.New("no texture could be placed on an empty page")
)

// Placement is a texture placed on a page.
type Placement struct {
	Rect
	Texture  *index.UniqueTexture
	StableID int // placement order on the page, starting at 1
}

// Page is a finalized atlas page. It is not modified after Next returns it.
type Page struct {
	Index  int // 1-based page number
	Size   int
	Placed []Placement
	Free   []Rect // free list left after the last placement
}

// UsedArea returns the summed area of all placements.
func (p *Page) UsedArea() int {
	total := 0
	for _, pl := range p.Placed {
		total += pl.Area()
	}
	return total
}

// Utilization returns the fraction of the page covered by placements.
func (p *Page) Utilization() float64 {
	if p.Size <= 0 {
		return 0
	}
	return float64(p.UsedArea()) / float64(p.Size*p.Size)
}

// Rejection records a texture excluded from all pages.
type Rejection struct {
	Texture *index.UniqueTexture
	Err     error
}

// Result is the outcome of packing every input texture.
type Result struct {
	Pages    []*Page
	Rejected []Rejection
}

// Options configures a Packer.
type Options struct {
	PageSize int
	MaxBatch int // candidates attempted per page; <= 0 means unlimited
}

// Packer packs textures page by page. It is not safe for concurrent use.
type Packer struct {
	opts     Options
	queue    []*index.UniqueTexture
	rejected []Rejection
	pages    int
	log      *zap.Logger
}

// Sort orders textures descending by their larger side, ties broken by
// content hash. The input slice is not modified.
func Sort(textures []*index.UniqueTexture) []*index.UniqueTexture {
	sorted := slices.Clone(textures)
	slices.SortStableFunc(sorted, func(a, b *index.UniqueTexture) int {
		if a.MaxSide() != b.MaxSide() {
			return b.MaxSide() - a.MaxSide()
		}
		return strings.Compare(a.Hash, b.Hash)
	})
	return sorted
}

// New sorts textures and rejects those that can never fit a page.
// A nil log uses the global logger.
func New(opts Options, textures []*index.UniqueTexture, log *zap.Logger) (*Packer, error) {
	if opts.PageSize <= 0 {
		return nil, fmt.Errorf("invalid page size %d", opts.PageSize)
	}
	if log == nil {
		log = logger.Named("packer")
	}

	p := &Packer{opts: opts, log: log}
	for _, t := range Sort(textures) {
		if t.Width > opts.PageSize || t.Height > opts.PageSize {
			err := fmt.Errorf("%w: %s is %dx%d, page is %d", ErrUnsupportedDimensions, t.Path, t.Width, t.Height, opts.PageSize)
			p.rejected = append(p.rejected, Rejection{Texture: t, Err: err})
			log.Warn("texture rejected", zap.Error(err), zap.Strings("aliases", t.Aliases))
			continue
		}
		p.queue = append(p.queue, t)
	}
	return p, nil
}

// Done reports whether every packable texture has been placed.
func (p *Packer) Done() bool {
	return len(p.queue) == 0
}

// Remaining returns the number of textures not yet placed.
func (p *Packer) Remaining() int {
	return len(p.queue)
}

// Rejected returns textures excluded for unsupported dimensions.
func (p *Packer) Rejected() []Rejection {
	return p.rejected
}

// Next packs and finalizes one page. Textures that do not fit, together
// with any beyond the batch limit, are carried to the following page in
// their original relative order. Next returns nil when Done.
func (p *Packer) Next() (*Page, error) {
	if p.Done() {
		return nil, nil
	}

	batchLen := len(p.queue)
	if p.opts.MaxBatch > 0 && batchLen > p.opts.MaxBatch {
		batchLen = p.opts.MaxBatch
	}
	batch, rest := p.queue[:batchLen], p.queue[batchLen:]

	p.pages++
	page := &Page{Index: p.pages, Size: p.opts.PageSize}
	state := newPageState(p.opts.PageSize)

	var deferred []*index.UniqueTexture
	for _, t := range batch {
		r, ok := state.insert(t.Width, t.Height)
		if !ok {
			deferred = append(deferred, t)
			continue
		}
		page.Placed = append(page.Placed, Placement{
			Rect:     r,
			Texture:  t,
			StableID: len(page.Placed) + 1,
		})
	}

	if len(page.Placed) == 0 {
		return nil, fmt.Errorf("page %d: %w", page.Index, ErrNoProgress)
	}
	page.Free = slices.Clone(state.free)

	next := make([]*index.UniqueTexture, 0, len(deferred)+len(rest))
	next = append(next, deferred...)
	next = append(next, rest...)
	p.queue = next

	p.log.Debug("page packed",
		zap.Int("page", page.Index),
		zap.Int("placed", len(page.Placed)),
		zap.Int("deferred", len(deferred)),
		zap.Int("remaining", len(p.queue)),
		zap.Float64("utilization", page.Utilization()))

	return page, nil
}

// PackAll packs every texture and returns all pages.
func PackAll(opts Options, textures []*index.UniqueTexture, log *zap.Logger) (*Result, error) {
	p, err := New(opts, textures, log)
	if err != nil {
		return nil, err
	}

	result := &Result{Rejected: p.Rejected()}
	for !p.Done() {
		page, err := p.Next()
		if err != nil {
			return nil, err
		}
		result.Pages = append(result.Pages, page)
	}
	return result, nil
}
