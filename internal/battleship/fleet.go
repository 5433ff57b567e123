package battleship

type Coord struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// Ship is the ordered set of cells one ship occupies.
type Ship struct {
	Cells []Coord `json:"cells"`
}

func (s Ship) Size() int {
	return len(s.Cells)
}

// IsSunk reports whether every cell of the ship is hit on the grid.
func (s Ship) IsSunk(g *Grid) bool {
	for _, c := range s.Cells {
		if g.At(c.X, c.Y) != CellHit {
			return false
		}
	}
	return true
}

// Fleet is a player's five ships, cells grouped per ship so sunk checks
// can walk a single ship.
type Fleet []Ship

// ShipAt returns the ship occupying the given cell, if any.
func (f Fleet) ShipAt(x, y int) (Ship, bool) {
	for _, ship := range f {
		for _, c := range ship.Cells {
			if c.X == x && c.Y == y {
				return ship, true
			}
		}
	}
	return Ship{}, false
}

// AllSunk reports whether the entire fleet is destroyed.
func (f Fleet) AllSunk(g *Grid) bool {
	for _, ship := range f {
		if !ship.IsSunk(g) {
			return false
		}
	}
	return true
}
