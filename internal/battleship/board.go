package battleship

import "fmt"

// Board is one player's side of the game: their grid and the fleet
// placed on it. A Board only exists after its placement was accepted.
type Board struct {
	Grid  Grid
	Fleet Fleet
}

// NewBoard validates a placement and builds the board from it.
func NewBoard(p Placement) (*Board, error) {
	grid, fleet, err := ValidatePlacement(p)
	if err != nil {
		return nil, err
	}
	return &Board{Grid: grid, Fleet: fleet}, nil
}

// ShotResult describes what a single shot did to the defending board.
type ShotResult struct {
	X        int
	Y        int
	Hit      bool
	Sunk     bool
	SunkSize int
	Win      bool
}

// ApplyShot resolves a shot against this board. Out-of-bounds shots and
// shots at already-resolved cells are rejected without mutating anything.
func (b *Board) ApplyShot(x, y int) (ShotResult, error) {
	result := ShotResult{X: x, Y: y}

	if !InBounds(x, y) {
		return result, fmt.Errorf("OUT_OF_BOUNDS: Shot (%d,%d) outside the grid", x, y)
	}

	switch b.Grid.At(x, y) {
	case CellShip:
		if err := b.Grid.MarkHit(x, y); err != nil {
			return result, err
		}
		result.Hit = true

		ship, ok := b.Fleet.ShipAt(x, y)
		if ok && ship.IsSunk(&b.Grid) {
			result.Sunk = true
			result.SunkSize = ship.Size()
		}
		result.Win = b.Fleet.AllSunk(&b.Grid)

	case CellEmpty:
		if err := b.Grid.MarkMiss(x, y); err != nil {
			return result, err
		}

	default:
		return result, fmt.Errorf("CELL_RESOLVED: Cell (%d,%d) was already shot", x, y)
	}

	return result, nil
}
