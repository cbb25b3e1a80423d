package connection

import (
	mb "github.com/navalclash/backend/models/battleship"
)

type RespSessionId struct {
	SessionID string `json:"session_id"`
}

type RespQueueJoined struct {
	PlayerId string `json:"player_id"`
}

type RespMatchFound struct {
	MatchUuid     string        `json:"match_uuid"`
	PlayerId      string        `json:"player_id"`
	Opponent      mb.PublicInfo `json:"opponent"`
	BackgroundURL string        `json:"background_url,omitempty"`
}

type RespShipPlaced struct {
	Ship  *mb.Ship `json:"ship,omitempty"`
	Valid bool     `json:"valid"`
}

type RespShotResult struct {
	Position   mb.Position `json:"position"`
	ShooterId  string      `json:"shooter_id"`
	Result     string      `json:"result"`
	SunkShip   *mb.Ship    `json:"sunk_ship,omitempty"`
	GameOver   bool        `json:"game_over"`
	WinnerId   string      `json:"winner_id,omitempty"`
}

type RespTurnChanged struct {
	CurrentPlayerId string `json:"current_player_id"`
	TimeRemainingMs int64  `json:"time_remaining_ms"`
}

const (
	MatchEndVictory    = "victory"
	MatchEndTimeout    = "timeout"
	MatchEndDisconnect = "disconnect"
)

type RespMatchEnded struct {
	WinnerId string `json:"winner_id,omitempty"`
	Reason   string `json:"reason"`
}

type RespErr struct {
	Code    string `json:"code,omitempty"`
	Message string `json:"message,omitempty"`
}

func NewRespErr(code, message string) *RespErr {
	return &RespErr{
		Code:    code,
		Message: message,
	}
}
