package connection

import (
	mb "github.com/navalclash/backend/models/battleship"
)

type ReqPlaceShip struct {
	ShipId    string        `json:"ship_id"`
	Positions []mb.Position `json:"positions"`
}

type ReqFireShot struct {
	Position mb.Position `json:"position"`
}

type ReqReconnectGame struct {
	MatchUuid string `json:"match_uuid"`
}
