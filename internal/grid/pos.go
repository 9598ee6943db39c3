package grid

import (
	"fmt"
	"math"
	"strings"
)

// Sentinel is the reserved coordinate value that marks an unused slot. It is
// never a valid X coordinate.
const Sentinel = math.MaxInt64

// WorldPos identifies one cell in the unbounded plane. Arithmetic wraps like
// any Go int64.
type WorldPos struct {
	X, Y int64
}

// Reserved reports whether p uses the sentinel X. Such a position can never
// hold a cell.
func (p WorldPos) Reserved() bool { return p.X == Sentinel }

// Add returns p offset by (dx, dy).
func (p WorldPos) Add(dx, dy int64) WorldPos { return WorldPos{X: p.X + dx, Y: p.Y + dy} }

// Neighbors returns the Moore neighborhood of p.
func (p WorldPos) Neighbors() [8]WorldPos {
	return [8]WorldPos{
		{p.X, p.Y - 1},
		{p.X, p.Y + 1},
		{p.X + 1, p.Y - 1},
		{p.X + 1, p.Y},
		{p.X + 1, p.Y + 1},
		{p.X - 1, p.Y - 1},
		{p.X - 1, p.Y},
		{p.X - 1, p.Y + 1},
	}
}

func (p WorldPos) String() string { return fmt.Sprintf("[%d, %d]", p.X, p.Y) }

// Material is the state tag carried by a stored cell.
type Material uint8

const (
	// Empty is equivalent to the cell being absent.
	Empty Material = iota
	Sand
	Brick
	Life

	// NumMaterials counts the materials above.
	NumMaterials = iota
)

var materialNames = [...]string{Empty: "empty", Sand: "sand", Brick: "brick", Life: "life"}

func (m Material) String() string {
	if int(m) < len(materialNames) {
		return materialNames[m]
	}
	return fmt.Sprintf("material(%d)", uint8(m))
}

// ParseMaterial maps a name such as "sand" to its Material.
func ParseMaterial(s string) (Material, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	for i, n := range materialNames {
		if n == name {
			return Material(i), nil
		}
	}
	return Empty, fmt.Errorf("unknown material %q", s)
}
