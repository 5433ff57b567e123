package battleship_test

import (
	"testing"

	"battleship-server/internal/battleship"

	"github.com/stretchr/testify/assert"
)

func shipGrid(t *testing.T) battleship.Grid {
	t.Helper()
	grid, _, err := battleship.ValidatePlacement(validPlacement())
	if err != nil {
		t.Fatalf("Failed to build grid: %v", err)
	}
	return grid
}

func TestGridMarkHit(t *testing.T) {
	assert := assert.New(t)
	grid := shipGrid(t)

	assert.Equal(battleship.CellShip, grid.At(0, 0))
	assert.NoError(grid.MarkHit(0, 0))
	assert.Equal(battleship.CellHit, grid.At(0, 0))

	// Hit cells are terminal.
	assert.Error(grid.MarkHit(0, 0))
	assert.Error(grid.MarkMiss(0, 0))
	assert.Equal(battleship.CellHit, grid.At(0, 0))
}

func TestGridMarkMiss(t *testing.T) {
	assert := assert.New(t)
	grid := shipGrid(t)

	assert.Equal(battleship.CellEmpty, grid.At(9, 9))
	assert.NoError(grid.MarkMiss(9, 9))
	assert.Equal(battleship.CellMiss, grid.At(9, 9))

	// Miss cells are terminal.
	assert.Error(grid.MarkMiss(9, 9))
	assert.Error(grid.MarkHit(9, 9))
	assert.Equal(battleship.CellMiss, grid.At(9, 9))
}

func TestGridMarkWrongCellKind(t *testing.T) {
	grid := shipGrid(t)

	// MarkHit only applies to ship cells, MarkMiss only to empty ones.
	assert.Error(t, grid.MarkHit(9, 9))
	assert.Error(t, grid.MarkMiss(0, 0))
	assert.Equal(t, battleship.CellEmpty, grid.At(9, 9))
	assert.Equal(t, battleship.CellShip, grid.At(0, 0))
}

func TestGridMarkOutOfBounds(t *testing.T) {
	var grid battleship.Grid

	assert.Error(t, grid.MarkHit(-1, 0))
	assert.Error(t, grid.MarkHit(0, 10))
	assert.Error(t, grid.MarkMiss(10, 0))
	assert.Error(t, grid.MarkMiss(0, -1))
}

func TestInBounds(t *testing.T) {
	assert := assert.New(t)

	assert.True(battleship.InBounds(0, 0))
	assert.True(battleship.InBounds(9, 9))
	assert.False(battleship.InBounds(-1, 0))
	assert.False(battleship.InBounds(0, -1))
	assert.False(battleship.InBounds(10, 0))
	assert.False(battleship.InBounds(0, 10))
}
