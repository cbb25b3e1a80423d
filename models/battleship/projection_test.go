package battleship

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProjectUnknownViewer(t *testing.T) {
	match, _, _ := newTestMatch(t)
	_, err := match.Project("nobody")
	assertErrCode(t, err, "unknown_player")
}

func TestProjectOwnBoardShowsShips(t *testing.T) {
	match, first, _ := startPlaying(t)

	view, err := match.Project(first.Id)
	require.NoError(t, err)

	assert.Equal(t, "playing", view.Phase)
	assert.Equal(t, first.Id, view.YourPlayerId)
	assert.Greater(t, view.TimeRemainingMs, int64(0))

	for shipId, positions := range fleetLayout {
		for _, pos := range positions {
			cell := view.YourBoard.Grid[pos.Row][pos.Col]
			assert.Equal(t, "ship", cell.State)
			assert.Equal(t, shipId, cell.ShipId)
		}
	}
	assert.Len(t, view.YourBoard.Ships, FleetSize)
}

func TestProjectNeverLeaksUnsunkOpponentShips(t *testing.T) {
	match, first, second := startPlaying(t)

	// a hit and a miss on the second player's board
	_, err := match.FireShot(first.Id, NewPosition(4, 0))
	require.NoError(t, err)
	_, err = match.FireShot(second.Id, NewPosition(9, 9))
	require.NoError(t, err)

	view, err := match.Project(first.Id)
	require.NoError(t, err)

	for row := 0; row < BoardSize; row++ {
		for col := 0; col < BoardSize; col++ {
			cell := view.OpponentBoard.Grid[row][col]
			assert.NotEqual(t, "ship", cell.State, "opponent cell (%d,%d) leaked a ship", row, col)
		}
	}

	hitCell := view.OpponentBoard.Grid[4][0]
	assert.Equal(t, "hit", hitCell.State)
	assert.Empty(t, hitCell.ShipId, "a hit cell must not reveal which ship it belongs to")

	// unsunk opponent ships are not listed at all
	assert.Empty(t, view.OpponentBoard.Ships)
	assert.Equal(t, FleetSize, view.OpponentBoard.ShipsRemaining)
}

func TestProjectRevealsSunkOpponentShips(t *testing.T) {
	match, first, second := startPlaying(t)

	_, err := match.FireShot(first.Id, NewPosition(4, 0))
	require.NoError(t, err)
	_, err = match.FireShot(second.Id, NewPosition(9, 9))
	require.NoError(t, err)
	result, err := match.FireShot(first.Id, NewPosition(4, 1))
	require.NoError(t, err)
	require.Equal(t, ShotSunk, result.Outcome)

	view, err := match.Project(first.Id)
	require.NoError(t, err)

	require.Len(t, view.OpponentBoard.Ships, 1)
	sunk := view.OpponentBoard.Ships[0]
	assert.Equal(t, ShipDestroyer, sunk.Id)
	assert.Equal(t, 2, sunk.Size)
	assert.True(t, sunk.IsSunk)
	assert.ElementsMatch(t, fleetLayout[ShipDestroyer], sunk.Positions)

	for _, pos := range fleetLayout[ShipDestroyer] {
		cell := view.OpponentBoard.Grid[pos.Row][pos.Col]
		assert.Equal(t, "sunk", cell.State)
		assert.Equal(t, ShipDestroyer, cell.ShipId)
	}

	// the projection never mutated the authoritative board
	assert.Equal(t, CellShip, second.Board.Grid[0][0].State)
}

func TestProjectForBoth(t *testing.T) {
	match, first, second := startPlaying(t)

	views, err := match.ProjectForBoth()
	require.NoError(t, err)
	require.Len(t, views, 2)

	assert.Equal(t, first.Id, views[first.Id].YourPlayerId)
	assert.Equal(t, second.Id, views[first.Id].OpponentId)
	assert.Equal(t, second.Id, views[second.Id].YourPlayerId)
}
