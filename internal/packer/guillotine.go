package packer

// pageState is the mutable free list of one page's packing pass.
// It is created per page and discarded when the page is finalized.
type pageState struct {
	size int
	free []Rect // in insertion order; ties resolve to the earliest entry
}

func newPageState(size int) *pageState {
	return &pageState{
		size: size,
		free: []Rect{{0, 0, size, size}},
	}
}

// insert places a w×h item using Best Area Fit. It returns the placed
// rectangle, or false when no free rectangle can hold the item.
func (s *pageState) insert(w, h int) (Rect, bool) {
	bestIdx := -1
	bestAreaFit := 0

	for i, r := range s.free {
		if !r.Fits(w, h) {
			continue
		}
		areaFit := r.W*r.H - w*h
		if bestIdx < 0 || areaFit < bestAreaFit {
			bestIdx = i
			bestAreaFit = areaFit
		}
	}

	if bestIdx < 0 {
		return Rect{}, false
	}

	chosen := s.free[bestIdx]
	s.free = append(s.free[:bestIdx], s.free[bestIdx+1:]...)

	// Guillotine split: the right remainder spans the item's height, the
	// bottom remainder spans the chosen rectangle's full width.
	right := Rect{X: chosen.X + w, Y: chosen.Y, W: chosen.W - w, H: h}
	bottom := Rect{X: chosen.X, Y: chosen.Y + h, W: chosen.W, H: chosen.H - h}
	for _, r := range [2]Rect{right, bottom} {
		if r.Area() > 0 {
			s.free = append(s.free, r)
		}
	}

	s.free = pruneContained(s.free)

	return Rect{X: chosen.X, Y: chosen.Y, W: w, H: h}, true
}

// pruneContained removes any rect fully contained within another. Of two
// identical rects the earlier one is kept. Order of survivors is preserved.
func pruneContained(rects []Rect) []Rect {
	if len(rects) <= 1 {
		return rects
	}
	kept := make([]Rect, 0, len(rects))
	for i, a := range rects {
		contained := false
		for j, b := range rects {
			if i == j || !b.Contains(a) {
				continue
			}
			if a == b && i < j {
				continue
			}
			contained = true
			break
		}
		if !contained {
			kept = append(kept, a)
		}
	}
	return kept
}
