package packer

import "fmt"

// Rect is an axis-aligned rectangle in page pixel coordinates.
type Rect struct {
	X, Y, W, H int
}

// Area returns W*H, or 0 for degenerate rectangles.
func (r Rect) Area() int {
	if r.W <= 0 || r.H <= 0 {
		return 0
	}
	return r.W * r.H
}

// Fits reports whether a w×h item fits inside r without rotation.
func (r Rect) Fits(w, h int) bool {
	return w <= r.W && h <= r.H
}

// Contains reports whether inner lies fully within r.
func (r Rect) Contains(inner Rect) bool {
	return r.X <= inner.X && r.Y <= inner.Y &&
		r.X+r.W >= inner.X+inner.W &&
		r.Y+r.H >= inner.Y+inner.H
}

// Intersects reports whether r and o share interior area (touching edges
// do not count).
func (r Rect) Intersects(o Rect) bool {
	return r.X < o.X+o.W && o.X < r.X+r.W &&
		r.Y < o.Y+o.H && o.Y < r.Y+r.H
}

func (r Rect) String() string {
	return fmt.Sprintf("(%d,%d %dx%d)", r.X, r.Y, r.W, r.H)
}
