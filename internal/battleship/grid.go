package battleship

import "errors"

const GridSize = 10

// Cell is the state of a single grid square. CellShip is never sent to
// the opponent; Hit and Miss are terminal.
type Cell uint8

const (
	CellEmpty Cell = iota
	CellShip
	CellMiss
	CellHit
)

// Grid is one player's 10x10 board. All mutation goes through placeShip,
// MarkHit and MarkMiss so the cell transition rules cannot be bypassed.
type Grid [GridSize][GridSize]Cell

func InBounds(x, y int) bool {
	return x >= 0 && x < GridSize && y >= 0 && y < GridSize
}

func (g *Grid) At(x, y int) Cell {
	return g[y][x]
}

// placeShip writes a ship cell during placement. A second write to the
// same cell means two ships overlap.
func (g *Grid) placeShip(x, y int) error {
	if !InBounds(x, y) {
		return errors.New("OUT_OF_BOUNDS: Ship cell outside the grid")
	}
	if g[y][x] == CellShip {
		return errors.New("SHIPS_OVERLAP: Two ships occupy the same cell")
	}
	g[y][x] = CellShip
	return nil
}

// MarkHit resolves a shot on a ship cell. Hit cells are terminal.
func (g *Grid) MarkHit(x, y int) error {
	if !InBounds(x, y) {
		return errors.New("OUT_OF_BOUNDS: Shot outside the grid")
	}
	if g[y][x] != CellShip {
		return errors.New("CELL_RESOLVED: Cell was already shot")
	}
	g[y][x] = CellHit
	return nil
}

// MarkMiss resolves a shot on an empty cell. Miss cells are terminal.
func (g *Grid) MarkMiss(x, y int) error {
	if !InBounds(x, y) {
		return errors.New("OUT_OF_BOUNDS: Shot outside the grid")
	}
	if g[y][x] != CellEmpty {
		return errors.New("CELL_RESOLVED: Cell was already shot")
	}
	g[y][x] = CellMiss
	return nil
}

// ShipCells counts cells still carrying a ship marker or a hit. Used by
// tests to verify placement produced exactly one cell per fleet cell.
func (g *Grid) ShipCells() int {
	count := 0
	for y := range g {
		for x := range g[y] {
			if g[y][x] == CellShip || g[y][x] == CellHit {
				count++
			}
		}
	}
	return count
}
