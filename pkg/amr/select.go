package amr

import (
	"fmt"
	"sort"

	"github.com/matzehuels/amrraster/pkg/errors"
)

// Finest selects the finest level present in each frame.
const Finest = 0

// LevelName formats a requested level for file names and log output.
func LevelName(level int) string {
	if level == Finest {
		return "finest"
	}
	return fmt.Sprintf("level%02d", level)
}

// ResolveLevel returns the concrete level that level denotes for frame f.
// Finest resolves to f.MaxLevel().
func ResolveLevel(f *Frame, level int) int {
	if level == Finest {
		return f.MaxLevel()
	}
	return level
}

// Select returns the patches of f at the requested level, ordered by patch ID
// so that every consumer iterates them in the same reproducible order.
// The returned slice is new; the patches share their value arrays with f.
func Select(f *Frame, level int) ([]Patch, error) {
	if level < 0 {
		return nil, errors.New(errors.ErrCodeInvalidLevel, "level must be >= 1 or finest, got %d", level)
	}
	if len(f.Patches) == 0 {
		if level == Finest {
			return nil, nil
		}
		return nil, errors.LevelNotFound(f.Index, level, nil)
	}

	target := ResolveLevel(f, level)
	selected := make([]Patch, 0, len(f.Patches))
	for i := range f.Patches {
		if f.Patches[i].Level == target {
			selected = append(selected, f.Patches[i])
		}
	}
	if len(selected) == 0 {
		return nil, errors.LevelNotFound(f.Index, level, f.Levels())
	}

	sort.SliceStable(selected, func(a, b int) bool {
		return selected[a].ID < selected[b].ID
	})
	return selected, nil
}
