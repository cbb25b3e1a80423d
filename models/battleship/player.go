package battleship

import (
	"time"

	"github.com/google/uuid"
)

type Player struct {
	Id           string
	SessionId    string
	IsReady      bool
	LastActivity time.Time
	Board        *Board
}

func NewPlayer(sessionId string) *Player {
	return &Player{
		Id:           uuid.NewString()[:10],
		SessionId:    sessionId,
		LastActivity: time.Now(),
		Board:        NewBoard(),
	}
}

// Touch refreshes the volatile last-active timestamp. Called for
// every accepted action of this player.
func (p *Player) Touch() {
	p.LastActivity = time.Now()
}

func (p *Player) AllShipsPlaced() bool {
	for _, ship := range p.Board.Ships {
		if !ship.IsPlaced {
			return false
		}
	}
	return true
}

// ResetForMatch hands the player a fresh board and clears readiness
// so a re-queued player never carries state from a previous match.
func (p *Player) ResetForMatch() {
	p.Board = NewBoard()
	p.IsReady = false
}

// PublicInfo is the only player data safe to share with the opponent.
type PublicInfo struct {
	PlayerId string `json:"playerId"`
}

func (p *Player) PublicInfo() PublicInfo {
	return PublicInfo{PlayerId: p.Id}
}
