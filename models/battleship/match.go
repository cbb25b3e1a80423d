package battleship

import (
	"sync"
	"time"

	"github.com/google/uuid"

	cerr "github.com/navalclash/backend/internal/error"
)

type Phase uint8

const (
	PhaseWaiting Phase = iota
	PhasePlacement
	PhasePlaying
	PhaseFinished
)

func (p Phase) String() string {
	switch p {
	case PhaseWaiting:
		return "waiting"
	case PhasePlacement:
		return "placement"
	case PhasePlaying:
		return "playing"
	default:
		return "finished"
	}
}

const TurnDuration = time.Minute

type ShotOutcome uint8

const (
	ShotMiss ShotOutcome = iota
	ShotHit
	ShotSunk
)

func (so ShotOutcome) String() string {
	switch so {
	case ShotHit:
		return "hit"
	case ShotSunk:
		return "sunk"
	default:
		return "miss"
	}
}

type ShotResult struct {
	Position Position
	Outcome  ShotOutcome
	SunkShip *Ship
	GameOver bool
	WinnerId string
}

// Match owns the authoritative state of one game session. Every
// operation serializes on the match mutex; two near-simultaneous
// shots or a shot racing a turn timeout are totally ordered.
// Matchmaking always constructs matches directly in placement, so
// waiting is never observed on a live match.
type Match struct {
	mu sync.Mutex

	uuid            string
	players         [2]*Player
	phase           Phase
	currentPlayerId string
	winnerId        string
	createdAt       time.Time
	finishedAt      time.Time
	turnDuration    time.Duration
	turnStartTime   time.Time
	backgroundURL   string
}

// NewMatch pairs two players in placement phase. The first player
// holds the opening turn once the match starts.
func NewMatch(first, second *Player) *Match {
	first.ResetForMatch()
	second.ResetForMatch()

	return &Match{
		uuid:            uuid.NewString()[:6],
		players:         [2]*Player{first, second},
		phase:           PhasePlacement,
		currentPlayerId: first.Id,
		createdAt:       time.Now(),
		turnDuration:    TurnDuration,
	}
}

func (m *Match) Uuid() string {
	return m.uuid
}

func (m *Match) CreatedAt() time.Time {
	return m.createdAt
}

// Players returns both players in creation order.
func (m *Match) Players() [2]*Player {
	return m.players
}

func (m *Match) Phase() Phase {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.phase
}

func (m *Match) CurrentPlayerId() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.currentPlayerId
}

func (m *Match) WinnerId() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.winnerId
}

func (m *Match) TurnDuration() time.Duration {
	return m.turnDuration
}

func (m *Match) TurnStartTime() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.turnStartTime
}

func (m *Match) SetBackgroundURL(url string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.backgroundURL = url
}

func (m *Match) BackgroundURL() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.backgroundURL
}

func (m *Match) findPlayer(playerId string) (*Player, error) {
	for _, player := range m.players {
		if player.Id == playerId {
			return player, nil
		}
	}
	return nil, cerr.ErrUnknownPlayer(playerId)
}

func (m *Match) opponentOf(playerId string) *Player {
	if m.players[0].Id == playerId {
		return m.players[1]
	}
	return m.players[0]
}

// FindPlayer resolves a player id within this match.
func (m *Match) FindPlayer(playerId string) (*Player, error) {
	return m.findPlayer(playerId)
}

// Opponent returns the other player of playerId.
func (m *Match) Opponent(playerId string) *Player {
	return m.opponentOf(playerId)
}

// PlaceShip places, moves or unplaces one ship during placement.
// An empty positions slice unplaces the ship and is always legal in
// this phase, even for a ship that was never placed. A re-placement
// clears the previous footprint atomically before writing the new
// one; validation failures leave the board untouched.
func (m *Match) PlaceShip(playerId, shipId string, positions []Position) (*Ship, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.phase != PhasePlacement {
		return nil, cerr.ErrWrongPhase("place_ship", m.phase.String())
	}

	player, err := m.findPlayer(playerId)
	if err != nil {
		return nil, err
	}

	ship, prs := player.Board.Ships[shipId]
	if !prs {
		return nil, cerr.ErrUnknownShip(shipId)
	}

	if len(positions) == 0 {
		player.Board.clearShipFootprint(ship)
		ship.Positions = ship.Positions[:0]
		ship.IsPlaced = false
		player.Touch()
		return ship, nil
	}

	if err := player.Board.ValidatePlacement(ship, positions); err != nil {
		return nil, err
	}

	player.Board.clearShipFootprint(ship)
	player.Board.writeShipFootprint(ship, positions)
	ship.Positions = append(ship.Positions[:0], positions...)
	ship.IsPlaced = true
	player.Touch()

	return ship, nil
}

// SetReady marks the player ready. It silently returns the match
// unchanged when the fleet is incomplete, mirroring a disabled
// ready button. The returned bool reports whether the match just
// transitioned to playing.
func (m *Match) SetReady(playerId string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.phase != PhasePlacement {
		return false, cerr.ErrWrongPhase("ready", m.phase.String())
	}

	player, err := m.findPlayer(playerId)
	if err != nil {
		return false, err
	}

	if !player.AllShipsPlaced() {
		return false, nil
	}

	player.IsReady = true
	player.Touch()

	for _, p := range m.players {
		if !p.IsReady || !p.AllShipsPlaced() {
			return false, nil
		}
	}

	m.phase = PhasePlaying
	m.turnStartTime = time.Now()
	return true, nil
}

// FireShot resolves one shot of the current player. A non-winning
// shot switches the turn; sinking the last ship finishes the match
// with the shooter as winner and keeps the turn untouched.
func (m *Match) FireShot(playerId string, pos Position) (ShotResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.phase != PhasePlaying {
		return ShotResult{}, cerr.ErrWrongPhase("fire_shot", m.phase.String())
	}

	// phase, turn, bounds, already-targeted, in that order
	if playerId != m.currentPlayerId {
		return ShotResult{}, cerr.ErrNotYourTurn(playerId)
	}

	shooter, err := m.findPlayer(playerId)
	if err != nil {
		return ShotResult{}, err
	}

	if !IsValidPosition(pos) {
		return ShotResult{}, cerr.ErrPositionOutOfBounds(pos.Row, pos.Col)
	}

	defender := m.opponentOf(playerId)
	cell := &defender.Board.Grid[pos.Row][pos.Col]

	switch cell.State {
	case CellHit, CellMiss, CellSunk:
		return ShotResult{}, cerr.ErrPositionAlreadyTargeted(pos.Row, pos.Col)
	}

	result := ShotResult{Position: pos}

	if cell.State == CellShip {
		ship := defender.Board.Ships[cell.ShipId]
		cell.State = CellHit

		if defender.Board.isShipFullyHit(ship) {
			defender.Board.markShipSunk(ship)
			result.Outcome = ShotSunk
			result.SunkShip = ship
		} else {
			result.Outcome = ShotHit
		}
	} else {
		cell.State = CellMiss
		result.Outcome = ShotMiss
	}

	shooter.Touch()

	if defender.Board.ShipsRemaining == 0 {
		m.phase = PhaseFinished
		m.finishedAt = time.Now()
		m.winnerId = playerId
		result.GameOver = true
		result.WinnerId = playerId
		return result, nil
	}

	m.switchTurnLocked()
	return result, nil
}

func (m *Match) switchTurnLocked() {
	m.currentPlayerId = m.opponentOf(m.currentPlayerId).Id
	m.turnStartTime = time.Now()
}

// IsTurnTimedOut reports whether the current turn clock has run
// out. A timeout never forfeits the match; it only authorizes the
// coordinator to force a turn pass.
func (m *Match) IsTurnTimedOut() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.phase == PhasePlaying && time.Since(m.turnStartTime) > m.turnDuration
}

// ForceTurnSwitch passes the turn without resolving a shot. The
// armedAt generation check makes stale timers a no-op: a shot that
// advanced the turn first resets turnStartTime, so the comparison
// fails and the turn is not advanced twice.
func (m *Match) ForceTurnSwitch(armedAt time.Time) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.phase != PhasePlaying {
		return false
	}
	if !m.turnStartTime.Equal(armedAt) {
		return false
	}
	if time.Since(m.turnStartTime) <= m.turnDuration {
		return false
	}

	m.switchTurnLocked()
	return true
}

// Abort force-finishes the match with no winner, used when the
// coordinator garbage-collects an abandoned match. Armed turn
// timers die on the phase check.
func (m *Match) Abort() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.phase == PhaseFinished {
		return
	}
	m.phase = PhaseFinished
	m.finishedAt = time.Now()
}

type TerminationCause uint8

const (
	TerminationNone TerminationCause = iota
	TerminationFinished
	TerminationAged
	TerminationIdle
)

// TerminationCause is the garbage-collection predicate: it reports
// which condition makes the match due for termination, so the
// caller can tell an aged-out match from an abandoned one. Checked
// in order: finished past its retention, total age past the maximum
// lifetime, any player idle past the disconnect timeout.
func (m *Match) TerminationCause(disconnectTimeout, finishedRetention, maxAge time.Duration) TerminationCause {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := time.Now()

	if m.phase == PhaseFinished {
		if now.Sub(m.finishedAt) > finishedRetention {
			return TerminationFinished
		}
		return TerminationNone
	}

	if now.Sub(m.createdAt) > maxAge {
		return TerminationAged
	}

	for _, player := range m.players {
		if now.Sub(player.LastActivity) > disconnectTimeout {
			return TerminationIdle
		}
	}

	return TerminationNone
}

// RebindSession reclaims a player slot for a new session. The slot
// whose session id matches wins; otherwise the first slot stale for
// longer than staleAfter is taken. Both players briefly stale at
// once can still misassign identity, which real per-player
// reconnection tokens would fix.
func (m *Match) RebindSession(sessionId string, staleAfter time.Duration) (*Player, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, player := range m.players {
		if player.SessionId == sessionId {
			player.Touch()
			return player, nil
		}
	}

	for _, player := range m.players {
		if time.Since(player.LastActivity) > staleAfter {
			player.SessionId = sessionId
			player.Touch()
			return player, nil
		}
	}

	return nil, cerr.ErrCannotReconnect(m.uuid)
}

// TouchPlayer refreshes a player's activity under the match lock.
func (m *Match) TouchPlayer(playerId string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if player, err := m.findPlayer(playerId); err == nil {
		player.Touch()
	}
}
