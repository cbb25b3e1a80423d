package battleship

import (
	"time"

	cerr "github.com/navalclash/backend/internal/error"
)

// CellView never carries a ship id for opponent cells unless the
// ship is sunk; the grid copy below strips it.
type CellView struct {
	State  string `json:"state"`
	ShipId string `json:"shipId,omitempty"`
}

type ShipView struct {
	Id        string     `json:"id"`
	Size      int        `json:"size"`
	Positions []Position `json:"positions,omitempty"`
	IsPlaced  bool       `json:"isPlaced"`
	IsSunk    bool       `json:"isSunk"`
}

type BoardView struct {
	Grid           [BoardSize][BoardSize]CellView `json:"grid"`
	Ships          []ShipView                     `json:"ships"`
	ShipsRemaining int                            `json:"shipsRemaining"`
}

// MatchView is the per-player, information-hiding rendering of a
// match. It is built fresh on every outbound broadcast and never
// mutates the authoritative board.
type MatchView struct {
	MatchUuid       string     `json:"matchUuid"`
	Phase           string     `json:"phase"`
	CurrentPlayerId string     `json:"currentPlayerId"`
	WinnerId        string     `json:"winnerId,omitempty"`
	TimeRemainingMs int64      `json:"timeRemainingMs"`
	BackgroundURL   string     `json:"backgroundUrl,omitempty"`
	YourPlayerId    string     `json:"yourPlayerId"`
	OpponentId      string     `json:"opponentId"`
	YourBoard       BoardView  `json:"yourBoard"`
	OpponentBoard   BoardView  `json:"opponentBoard"`
}

// Project builds the viewer's information-hiding view. The own
// board is rendered verbatim; the opponent board exposes a cell as
// anything but empty/hit/miss/sunk never, and lists opponent ships
// only once sunk. This is the sole leak barrier for unsunk ship
// positions.
func (m *Match) Project(viewerId string) (MatchView, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	viewer, err := m.findPlayer(viewerId)
	if err != nil {
		return MatchView{}, err
	}
	opponent := m.opponentOf(viewerId)

	view := MatchView{
		MatchUuid:       m.uuid,
		Phase:           m.phase.String(),
		CurrentPlayerId: m.currentPlayerId,
		WinnerId:        m.winnerId,
		BackgroundURL:   m.backgroundURL,
		YourPlayerId:    viewer.Id,
		OpponentId:      opponent.Id,
		YourBoard:       projectOwnBoard(viewer.Board),
		OpponentBoard:   projectOpponentBoard(opponent.Board),
	}

	if m.phase == PhasePlaying {
		remaining := m.turnDuration - time.Since(m.turnStartTime)
		if remaining < 0 {
			remaining = 0
		}
		view.TimeRemainingMs = remaining.Milliseconds()
	}

	return view, nil
}

func projectOwnBoard(board *Board) BoardView {
	view := BoardView{
		Ships:          make([]ShipView, 0, FleetSize),
		ShipsRemaining: board.ShipsRemaining,
	}

	for row := 0; row < BoardSize; row++ {
		for col := 0; col < BoardSize; col++ {
			cell := board.Grid[row][col]
			view.Grid[row][col] = CellView{State: cell.State.String(), ShipId: cell.ShipId}
		}
	}

	for _, ship := range board.Ships {
		view.Ships = append(view.Ships, ShipView{
			Id:        ship.Id,
			Size:      ship.Size,
			Positions: append([]Position(nil), ship.Positions...),
			IsPlaced:  ship.IsPlaced,
			IsSunk:    ship.IsSunk,
		})
	}

	return view
}

func projectOpponentBoard(board *Board) BoardView {
	view := BoardView{
		Ships:          make([]ShipView, 0, FleetSize),
		ShipsRemaining: board.ShipsRemaining,
	}

	for row := 0; row < BoardSize; row++ {
		for col := 0; col < BoardSize; col++ {
			cell := board.Grid[row][col]
			masked := CellView{State: cell.State.String()}

			switch cell.State {
			case CellShip:
				// unsunk ship segments read as open water
				masked.State = CellEmpty.String()
			case CellSunk:
				masked.ShipId = cell.ShipId
			}

			view.Grid[row][col] = masked
		}
	}

	// identity, size and footprint are safe to reveal once sunk
	for _, ship := range board.Ships {
		if !ship.IsSunk {
			continue
		}
		view.Ships = append(view.Ships, ShipView{
			Id:        ship.Id,
			Size:      ship.Size,
			Positions: append([]Position(nil), ship.Positions...),
			IsPlaced:  true,
			IsSunk:    true,
		})
	}

	return view
}

// ProjectForBoth is a convenience for broadcasts that need each
// player's own view of the same match.
func (m *Match) ProjectForBoth() (map[string]MatchView, error) {
	views := make(map[string]MatchView, 2)
	for _, player := range m.Players() {
		view, err := m.Project(player.Id)
		if err != nil {
			return nil, cerr.ErrUnknownPlayer(player.Id)
		}
		views[player.Id] = view
	}
	return views, nil
}
