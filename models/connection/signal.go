package connection

const (
	// issued once per fresh connection
	CodeSessionID uint8 = iota
	CodeReceivedInvalidSessionID

	// matchmaking
	CodeJoinQueue
	CodeLeaveQueue
	CodeQueueJoined
	CodeMatchFound

	// placement
	CodePlaceShip
	CodeReady
	CodeStartGame

	// play
	CodeFireShot
	CodeShotResult
	CodeTurnChanged
	CodeMatchState
	CodeMatchEnded

	// connectivity
	CodeReconnectGame
	CodeOpponentDisconnected
	CodeOpponentReconnected

	CodeInvalidSignal

	// if the req msg does not contain "code" field
	CodeSignalAbsent

	// unexpected internal fault, reported to the acting player only
	CodeActionFailed
)

type Signal struct {
	Code uint8 `json:"code"`
}

func NewSignal(code uint8) Signal {
	return Signal{Code: code}
}
