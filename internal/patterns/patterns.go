// Package patterns holds named seed layouts that can be stamped into a grid.
package patterns

import (
	"fmt"
	"sort"

	"sparse-ca/internal/core"
	"sparse-ca/internal/grid"
)

// Cell is one painted position of a pattern, relative to its origin.
type Cell struct {
	Pos grid.WorldPos
	Mat grid.Material
}

// Factory builds a pattern's cells. Deterministic patterns ignore seed.
type Factory func(seed int64) []Cell

// Pattern is a registered seed layout.
type Pattern struct {
	Name        string
	Description string
	Build       Factory
}

// Setter is anything cells can be painted into: a grid.Store, an
// engine.Engine or an engine.Controller.
type Setter interface {
	Set(grid.WorldPos, grid.Material)
}

var registry = map[string]Pattern{}

// Register adds a pattern under its name. Empty names and nil factories are
// ignored.
func Register(p Pattern) {
	if p.Name == "" || p.Build == nil {
		return
	}
	registry[p.Name] = p
}

// Lookup returns the named pattern.
func Lookup(name string) (Pattern, error) {
	p, ok := registry[name]
	if !ok {
		return Pattern{}, fmt.Errorf("unknown pattern %q", name)
	}
	return p, nil
}

// All lists registered patterns sorted by name.
func All() []Pattern {
	out := make([]Pattern, 0, len(registry))
	for _, p := range registry {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Stamp paints p's cells at origin and returns how many were written.
func Stamp(dst Setter, p Pattern, origin grid.WorldPos, seed int64) int {
	cells := p.Build(seed)
	for _, c := range cells {
		dst.Set(origin.Add(c.Pos.X, c.Pos.Y), c.Mat)
	}
	return len(cells)
}

// fromArt reads rows of glyphs: 'O' life, ':' sand, '#' brick, anything else
// empty. The art is centered on the origin.
func fromArt(rows ...string) Factory {
	var cells []Cell
	h := len(rows)
	w := 0
	for _, r := range rows {
		w = max(w, len(r))
	}
	for y, r := range rows {
		for x := 0; x < len(r); x++ {
			var m grid.Material
			switch r[x] {
			case 'O':
				m = grid.Life
			case ':':
				m = grid.Sand
			case '#':
				m = grid.Brick
			default:
				continue
			}
			cells = append(cells, Cell{Pos: grid.WorldPos{X: int64(x - w/2), Y: int64(y - h/2)}, Mat: m})
		}
	}
	return func(int64) []Cell { return cells }
}

// soup fills a size×size square with Life at the given density.
func soup(size int, density float64) Factory {
	return func(seed int64) []Cell {
		rng := core.NewRNG(seed)
		var cells []Cell
		for y := 0; y < size; y++ {
			for x := 0; x < size; x++ {
				if rng.Chance(density) {
					cells = append(cells, Cell{Pos: grid.WorldPos{X: int64(x - size/2), Y: int64(y - size/2)}, Mat: grid.Life})
				}
			}
		}
		return cells
	}
}

func init() {
	Register(Pattern{Name: "block", Description: "2x2 still life", Build: fromArt(
		"OO",
		"OO",
	)})
	Register(Pattern{Name: "blinker", Description: "period 2 oscillator", Build: fromArt(
		"OOO",
	)})
	Register(Pattern{Name: "glider", Description: "moves (1,1) every 4 generations", Build: fromArt(
		".O.",
		"..O",
		"OOO",
	)})
	Register(Pattern{Name: "lwss", Description: "lightweight spaceship", Build: fromArt(
		".O..O",
		"O....",
		"O...O",
		"OOOO.",
	)})
	Register(Pattern{Name: "r-pentomino", Description: "methuselah, stabilises after 1103 generations", Build: fromArt(
		".OO",
		"OO.",
		".O.",
	)})
	Register(Pattern{Name: "acorn", Description: "methuselah, 5206 generations", Build: fromArt(
		".O.....",
		"...O...",
		"OO..OOO",
	)})
	Register(Pattern{Name: "hourglass", Description: "sand pouring onto a brick funnel", Build: fromArt(
		":::::::::",
		".:::::::.",
		"..:::::..",
		".........",
		"#.......#",
		".#.....#.",
		"..#...#..",
		"...#.#...",
		".........",
		".........",
		"#########",
	)})
	Register(Pattern{Name: "soup", Description: "random 64x64 life soup at 35% density", Build: soup(64, 0.35)})
}
