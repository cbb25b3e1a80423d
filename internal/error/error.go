package error

import (
	"errors"
	"fmt"
)

// Codes for every recoverable game error. They are reported
// to the acting player only and never mutate match state.
const (
	CodeWrongPhase uint8 = iota
	CodeNotYourTurn
	CodeUnknownPlayer
	CodeUnknownShip
	CodeOutOfBounds
	CodeWrongLength
	CodeNotContiguous
	CodeOverlap
	CodeAlreadyTargeted
	CodeMatchNotFound
	CodeCannotReconnect
	CodeAlreadyInMatch
)

var codeNames = map[uint8]string{
	CodeWrongPhase:      "wrong_phase",
	CodeNotYourTurn:     "not_your_turn",
	CodeUnknownPlayer:   "unknown_player",
	CodeUnknownShip:     "unknown_ship",
	CodeOutOfBounds:     "out_of_bounds",
	CodeWrongLength:     "wrong_length",
	CodeNotContiguous:   "not_contiguous",
	CodeOverlap:         "overlap",
	CodeAlreadyTargeted: "already_targeted",
	CodeMatchNotFound:   "match_not_found",
	CodeCannotReconnect: "cannot_reconnect",
	CodeAlreadyInMatch:  "already_in_match",
}

type GameErr struct {
	code uint8
	desc string
}

func (e *GameErr) Error() string {
	return fmt.Sprintf("%s: %s", codeNames[e.code], e.desc)
}

func (e *GameErr) Code() uint8 {
	return e.code
}

func (e *GameErr) CodeName() string {
	return codeNames[e.code]
}

func newGameErr(code uint8, format string, args ...interface{}) *GameErr {
	return &GameErr{code: code, desc: fmt.Sprintf(format, args...)}
}

// CodeNameOf extracts the taxonomy name of err if it is a GameErr.
func CodeNameOf(err error) (string, bool) {
	var gameErr *GameErr
	if errors.As(err, &gameErr) {
		return gameErr.CodeName(), true
	}
	return "", false
}

func ErrWrongPhase(op, phase string) error {
	return newGameErr(CodeWrongPhase, "operation %s is not allowed in phase %s", op, phase)
}

func ErrNotYourTurn(playerId string) error {
	return newGameErr(CodeNotYourTurn, "it is not the turn of player %s", playerId)
}

func ErrUnknownPlayer(playerId string) error {
	return newGameErr(CodeUnknownPlayer, "player with this id does not exist in match, id: %s", playerId)
}

func ErrUnknownShip(shipId string) error {
	return newGameErr(CodeUnknownShip, "ship with this id does not exist in fleet, id: %s", shipId)
}

func ErrPositionOutOfBounds(row, col int) error {
	return newGameErr(CodeOutOfBounds, "position is out of board bounds\trow: %d\tcol: %d", row, col)
}

func ErrWrongShipLength(expected, got int) error {
	return newGameErr(CodeWrongLength, "placement length mismatch\texpected: %d\tgot: %d", expected, got)
}

func ErrShipNotContiguous() error {
	return newGameErr(CodeNotContiguous, "placement positions are not collinear and consecutive")
}

func ErrPlacementOverlap(row, col int) error {
	return newGameErr(CodeOverlap, "placement overlaps an existing ship\trow: %d\tcol: %d", row, col)
}

func ErrPositionAlreadyTargeted(row, col int) error {
	return newGameErr(CodeAlreadyTargeted, "position was already targeted in a previous turn\trow: %d\tcol: %d", row, col)
}

func ErrMatchNotFound(matchUuid string) error {
	return newGameErr(CodeMatchNotFound, "match with this uuid does not exist, uuid: %s", matchUuid)
}

func ErrPlayerNotInMatch(playerId string) error {
	return newGameErr(CodeMatchNotFound, "player is not bound to any match, id: %s", playerId)
}

func ErrCannotReconnect(matchUuid string) error {
	return newGameErr(CodeCannotReconnect, "no reclaimable player slot in match, uuid: %s", matchUuid)
}

func ErrAlreadyInMatch(matchUuid string) error {
	return newGameErr(CodeAlreadyInMatch, "player is still bound to a live match, uuid: %s", matchUuid)
}
