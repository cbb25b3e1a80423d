package battleship

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	cerr "github.com/navalclash/backend/internal/error"
)

func TestIsValidPosition(t *testing.T) {
	assert.True(t, IsValidPosition(NewPosition(0, 0)))
	assert.True(t, IsValidPosition(NewPosition(9, 9)))
	assert.False(t, IsValidPosition(NewPosition(-1, 0)))
	assert.False(t, IsValidPosition(NewPosition(0, 10)))
	assert.False(t, IsValidPosition(NewPosition(10, 0)))
}

func TestComputePlacementPositions(t *testing.T) {
	horizontal := ComputePlacementPositions(NewPosition(3, 2), 3, OrientationHorizontal)
	assert.Equal(t, []Position{{3, 2}, {3, 3}, {3, 4}}, horizontal)

	vertical := ComputePlacementPositions(NewPosition(3, 2), 4, OrientationVertical)
	assert.Equal(t, []Position{{3, 2}, {4, 2}, {5, 2}, {6, 2}}, vertical)

	// bounds are not this function's concern
	overflowing := ComputePlacementPositions(NewPosition(0, 8), 3, OrientationHorizontal)
	assert.Equal(t, []Position{{0, 8}, {0, 9}, {0, 10}}, overflowing)
}

func assertErrCode(t *testing.T, err error, wantCode string) {
	t.Helper()
	require.Error(t, err)
	name, ok := cerr.CodeNameOf(err)
	require.True(t, ok, "expected a game error, got: %v", err)
	assert.Equal(t, wantCode, name)
}

func TestValidatePlacementErrorOrder(t *testing.T) {
	board := NewBoard()
	cruiser := board.Ships[ShipCruiser]

	// out of bounds wins over wrong length
	err := board.ValidatePlacement(cruiser, []Position{{0, 9}, {0, 10}})
	assertErrCode(t, err, "out_of_bounds")

	// wrong length wins over contiguity
	err = board.ValidatePlacement(cruiser, []Position{{0, 0}, {5, 5}})
	assertErrCode(t, err, "wrong_length")

	err = board.ValidatePlacement(cruiser, []Position{{0, 0}, {0, 1}, {0, 3}})
	assertErrCode(t, err, "not_contiguous")

	err = board.ValidatePlacement(cruiser, []Position{{0, 0}, {1, 1}, {2, 2}})
	assertErrCode(t, err, "not_contiguous")

	// duplicates are never consecutive
	err = board.ValidatePlacement(cruiser, []Position{{0, 0}, {0, 0}, {0, 1}})
	assertErrCode(t, err, "not_contiguous")
}

func TestValidatePlacementAcceptsUnsortedInput(t *testing.T) {
	board := NewBoard()
	cruiser := board.Ships[ShipCruiser]

	assert.NoError(t, board.ValidatePlacement(cruiser, []Position{{0, 2}, {0, 0}, {0, 1}}))
	assert.NoError(t, board.ValidatePlacement(cruiser, []Position{{4, 3}, {2, 3}, {3, 3}}))
}

func TestValidatePlacementOverlap(t *testing.T) {
	board := NewBoard()
	destroyer := board.Ships[ShipDestroyer]
	cruiser := board.Ships[ShipCruiser]

	board.writeShipFootprint(destroyer, []Position{{0, 0}, {0, 1}})
	destroyer.Positions = []Position{{0, 0}, {0, 1}}
	destroyer.IsPlaced = true

	err := board.ValidatePlacement(cruiser, []Position{{0, 1}, {1, 1}, {2, 1}})
	assertErrCode(t, err, "overlap")

	// a ship moving onto its own footprint is not an overlap
	assert.NoError(t, board.ValidatePlacement(destroyer, []Position{{0, 1}, {0, 2}}))
}
