package battleship

import (
	"errors"
	"fmt"
	"sort"
)

// Placement is the client-submitted fleet layout, decoded straight from
// the place_ready payload.
type Placement struct {
	Ships []Ship `json:"ships"`
}

// fleetSizes is the required ship-size multiset: one carrier (5), one
// battleship (4), two cruisers (3), one destroyer (2).
var fleetSizes = map[int]int{5: 1, 4: 1, 3: 2, 2: 1}

const fleetShipCount = 5

// ValidatePlacement checks a candidate fleet and, when valid, returns the
// finalized grid and normalized fleet. Checks run in a fixed order and
// each failure carries its own error code, so a client always learns the
// first rule it broke. The function is pure; the input is never mutated.
func ValidatePlacement(p Placement) (Grid, Fleet, error) {
	var grid Grid

	// Structure: a list of ships, each with a cell list.
	if p.Ships == nil {
		return grid, nil, errors.New("PLACEMENT_MALFORMED: Missing ship list")
	}
	for _, ship := range p.Ships {
		if len(ship.Cells) == 0 {
			return grid, nil, errors.New("PLACEMENT_MALFORMED: Ship without cells")
		}
	}

	// Fleet composition: the multiset of ship sizes must match exactly.
	if len(p.Ships) != fleetShipCount {
		return grid, nil, fmt.Errorf("FLEET_COMPOSITION: Expected %d ships, got %d", fleetShipCount, len(p.Ships))
	}
	sizes := make(map[int]int)
	for _, ship := range p.Ships {
		sizes[ship.Size()]++
	}
	for size, want := range fleetSizes {
		if sizes[size] != want {
			return grid, nil, errors.New("FLEET_COMPOSITION: Fleet must have ship sizes 5, 4, 3, 3 and 2")
		}
	}

	// Bounds: every cell inside the 10x10 grid.
	for _, ship := range p.Ships {
		for _, c := range ship.Cells {
			if !InBounds(c.X, c.Y) {
				return grid, nil, fmt.Errorf("OUT_OF_BOUNDS: Cell (%d,%d) outside the grid", c.X, c.Y)
			}
		}
	}

	// Overlap: write every cell into the grid; a second write to the same
	// cell is rejected by placeShip.
	for _, ship := range p.Ships {
		for _, c := range ship.Cells {
			if err := grid.placeShip(c.X, c.Y); err != nil {
				return Grid{}, nil, err
			}
		}
	}

	// Shape: each ship on a single row or column, contiguous along the
	// varying axis once sorted.
	for _, ship := range p.Ships {
		if err := validateShipShape(ship); err != nil {
			return Grid{}, nil, err
		}
	}

	fleet := make(Fleet, 0, len(p.Ships))
	for _, ship := range p.Ships {
		cells := make([]Coord, len(ship.Cells))
		copy(cells, ship.Cells)
		fleet = append(fleet, Ship{Cells: cells})
	}

	return grid, fleet, nil
}

func validateShipShape(ship Ship) error {
	first := ship.Cells[0]
	sameRow := true
	sameCol := true
	for _, c := range ship.Cells[1:] {
		if c.Y != first.Y {
			sameRow = false
		}
		if c.X != first.X {
			sameCol = false
		}
	}
	if !sameRow && !sameCol {
		return errors.New("SHIP_NOT_STRAIGHT: Ship cells must share a row or a column")
	}

	// Collect the varying axis, sort, and require a strict step of one.
	axis := make([]int, 0, len(ship.Cells))
	for _, c := range ship.Cells {
		if sameRow {
			axis = append(axis, c.X)
		} else {
			axis = append(axis, c.Y)
		}
	}
	sort.Ints(axis)
	for i := 1; i < len(axis); i++ {
		if axis[i] != axis[i-1]+1 {
			return errors.New("SHIP_NOT_CONTIGUOUS: Ship cells must form an unbroken line")
		}
	}

	return nil
}
