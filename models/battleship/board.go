package battleship

import (
	"sort"

	cerr "github.com/navalclash/backend/internal/error"
)

const BoardSize = 10

type CellState uint8

const (
	CellEmpty CellState = iota
	CellShip
	CellHit
	CellMiss
	CellSunk
)

func (cs CellState) String() string {
	switch cs {
	case CellShip:
		return "ship"
	case CellHit:
		return "hit"
	case CellMiss:
		return "miss"
	case CellSunk:
		return "sunk"
	default:
		return "empty"
	}
}

type Orientation uint8

const (
	OrientationHorizontal Orientation = iota
	OrientationVertical
)

type Position struct {
	Row int `json:"row"`
	Col int `json:"col"`
}

func NewPosition(row, col int) Position {
	return Position{Row: row, Col: col}
}

// Cell keeps the id of the ship occupying it so a hit can be
// resolved to its ship without scanning the fleet.
type Cell struct {
	State  CellState `json:"state"`
	ShipId string    `json:"shipId,omitempty"`
}

type Grid [BoardSize][BoardSize]Cell

// Board is owned exclusively by one player. ShipsRemaining always
// equals the count of placed ships that are not sunk.
type Board struct {
	Grid           Grid
	Ships          map[string]*Ship
	ShipsRemaining int
}

func NewBoard() *Board {
	return &Board{
		Ships:          NewFleet(),
		ShipsRemaining: FleetSize,
	}
}

func IsValidPosition(pos Position) bool {
	return pos.Row >= 0 && pos.Row < BoardSize && pos.Col >= 0 && pos.Col < BoardSize
}

// ComputePlacementPositions expands a ship footprint from a start
// cell. Horizontal grows the column, vertical grows the row. Bounds
// are deliberately not checked here; ValidatePlacement does that.
func ComputePlacementPositions(start Position, size int, orientation Orientation) []Position {
	positions := make([]Position, 0, size)
	for i := 0; i < size; i++ {
		if orientation == OrientationHorizontal {
			positions = append(positions, NewPosition(start.Row, start.Col+i))
		} else {
			positions = append(positions, NewPosition(start.Row+i, start.Col))
		}
	}
	return positions
}

// ValidatePlacement runs the placement checks in a fixed order so
// error reporting is reproducible: bounds, length, contiguity,
// overlap. Cells occupied by the ship itself do not count as
// overlap, which lets a placed ship be moved in one call.
func (b *Board) ValidatePlacement(ship *Ship, positions []Position) error {
	for _, pos := range positions {
		if !IsValidPosition(pos) {
			return cerr.ErrPositionOutOfBounds(pos.Row, pos.Col)
		}
	}

	if len(positions) != ship.Size {
		return cerr.ErrWrongShipLength(ship.Size, len(positions))
	}

	if !isContiguous(positions) {
		return cerr.ErrShipNotContiguous()
	}

	for _, pos := range positions {
		cell := b.Grid[pos.Row][pos.Col]
		if cell.State != CellEmpty && cell.ShipId != ship.Id {
			return cerr.ErrPlacementOverlap(pos.Row, pos.Col)
		}
	}

	return nil
}

// isContiguous reports whether positions form one straight line of
// consecutive cells, all in the same row or all in the same column.
func isContiguous(positions []Position) bool {
	if len(positions) == 0 {
		return false
	}
	if len(positions) == 1 {
		return true
	}

	sorted := make([]Position, len(positions))
	copy(sorted, positions)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].Row != sorted[j].Row {
			return sorted[i].Row < sorted[j].Row
		}
		return sorted[i].Col < sorted[j].Col
	})

	sameRow := true
	sameCol := true
	for _, pos := range sorted[1:] {
		if pos.Row != sorted[0].Row {
			sameRow = false
		}
		if pos.Col != sorted[0].Col {
			sameCol = false
		}
	}

	switch {
	case sameRow:
		for i := 1; i < len(sorted); i++ {
			if sorted[i].Col != sorted[i-1].Col+1 {
				return false
			}
		}
	case sameCol:
		for i := 1; i < len(sorted); i++ {
			if sorted[i].Row != sorted[i-1].Row+1 {
				return false
			}
		}
	default:
		return false
	}

	return true
}

func (b *Board) clearShipFootprint(ship *Ship) {
	for _, pos := range ship.Positions {
		b.Grid[pos.Row][pos.Col] = Cell{}
	}
}

func (b *Board) writeShipFootprint(ship *Ship, positions []Position) {
	for _, pos := range positions {
		b.Grid[pos.Row][pos.Col] = Cell{State: CellShip, ShipId: ship.Id}
	}
}

// isShipFullyHit reports whether every cell of the ship has been
// struck. Sunk counts as struck so the check stays stable after
// the footprint is converted to sunk cells.
func (b *Board) isShipFullyHit(ship *Ship) bool {
	for _, pos := range ship.Positions {
		state := b.Grid[pos.Row][pos.Col].State
		if state != CellHit && state != CellSunk {
			return false
		}
	}
	return true
}

func (b *Board) markShipSunk(ship *Ship) {
	for _, pos := range ship.Positions {
		b.Grid[pos.Row][pos.Col].State = CellSunk
	}
	ship.IsSunk = true
	b.ShipsRemaining--
}
