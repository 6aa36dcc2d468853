package grid

import (
	"fmt"

	"shelfline/internal/config"
	"shelfline/internal/domain"
)

// Kind classifies a floor cell for traversal decisions.
type Kind uint8

const (
	// Open cells are traversable for every robot.
	Open Kind = iota
	// ShelfSlot is a shelf's home cell. Traversable like Open: while a
	// shelf is raised its slot is vacant, and robots drive under stored
	// shelves.
	ShelfSlot
	// Narrow cells (under-shelf lanes, tight aisles) admit only robots
	// travelling without a raised shelf.
	Narrow
	// Blocked cells admit no robot.
	Blocked
)

// Grid is the warehouse floor: a dense width*height arena of cell kinds.
// It holds no search state; pathfinding keeps its scratch data elsewhere,
// keyed by Index.
type Grid struct {
	width  int
	height int
	kinds  []Kind
}

// New builds an open grid of the given dimensions.
func New(width, height int) (*Grid, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("grid dimensions must be positive, got %dx%d", width, height)
	}
	return &Grid{
		width:  width,
		height: height,
		kinds:  make([]Kind, width*height),
	}, nil
}

// FromConfig builds the floor described by cfg, including blocked and
// narrow cells and one shelf slot per configured shelf.
func FromConfig(cfg *config.Config) (*Grid, error) {
	g, err := New(cfg.Warehouse.Width, cfg.Warehouse.Height)
	if err != nil {
		return nil, err
	}
	for _, p := range cfg.Warehouse.Blocked {
		if err := g.SetKind(p, Blocked); err != nil {
			return nil, err
		}
	}
	for _, p := range cfg.Warehouse.Narrow {
		if err := g.SetKind(p, Narrow); err != nil {
			return nil, err
		}
	}
	for _, s := range cfg.Shelves {
		if err := g.SetKind(s.Location, ShelfSlot); err != nil {
			return nil, err
		}
	}
	return g, nil
}

func (g *Grid) Width() int  { return g.width }
func (g *Grid) Height() int { return g.height }

// Size returns the number of cells, the valid range of Index.
func (g *Grid) Size() int { return g.width * g.height }

// InBounds reports whether p lies on the floor.
func (g *Grid) InBounds(p domain.Point) bool {
	return p.X >= 0 && p.Y >= 0 && p.X < g.width && p.Y < g.height
}

// Index maps a cell to its slot in a dense per-cell array.
func (g *Grid) Index(p domain.Point) int {
	return p.Y*g.width + p.X
}

// At returns the cell for a dense index.
func (g *Grid) At(i int) domain.Point {
	return domain.Point{X: i % g.width, Y: i / g.width}
}

// KindAt returns the kind of the cell at p.
func (g *Grid) KindAt(p domain.Point) Kind {
	return g.kinds[g.Index(p)]
}

// SetKind marks the cell at p.
func (g *Grid) SetKind(p domain.Point, k Kind) error {
	if !g.InBounds(p) {
		return fmt.Errorf("cell %s outside %dx%d grid", p, g.width, g.height)
	}
	g.kinds[g.Index(p)] = k
	return nil
}

// CanMove reports whether a robot may occupy p, given whether it is
// currently carrying a raised shelf. Out-of-bounds cells are never
// traversable.
func (g *Grid) CanMove(p domain.Point, carrying bool) bool {
	if !g.InBounds(p) {
		return false
	}
	switch g.kinds[g.Index(p)] {
	case Blocked:
		return false
	case Narrow:
		return !carrying
	default:
		return true
	}
}
