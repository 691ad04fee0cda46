package amr

import "sort"

// Frame is the complete simulation state at one output time.
type Frame struct {
	Index   int
	Time    float64 // simulation time in seconds
	Patches []Patch
}

// Levels returns the distinct refinement levels present, ascending.
func (f *Frame) Levels() []int {
	seen := make(map[int]bool, 4)
	levels := make([]int, 0, 4)
	for i := range f.Patches {
		l := f.Patches[i].Level
		if !seen[l] {
			seen[l] = true
			levels = append(levels, l)
		}
	}
	sort.Ints(levels)
	return levels
}

// MaxLevel returns the finest level present, or 0 for a frame without patches.
func (f *Frame) MaxLevel() int {
	maxLevel := 0
	for i := range f.Patches {
		if f.Patches[i].Level > maxLevel {
			maxLevel = f.Patches[i].Level
		}
	}
	return maxLevel
}

// UnionBounds returns the union of the footprints of patches.
// ok is false when patches is empty.
func UnionBounds(patches []Patch) (b Bounds, ok bool) {
	if len(patches) == 0 {
		return Bounds{}, false
	}
	b = patches[0].Bounds()
	for i := 1; i < len(patches); i++ {
		b = b.Union(patches[i].Bounds())
	}
	return b, true
}
