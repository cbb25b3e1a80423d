package api_test

import (
	"log"
	"os"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/navalclash/backend/api"
	"github.com/navalclash/backend/imagegen"
	mb "github.com/navalclash/backend/models/battleship"
	mc "github.com/navalclash/backend/models/connection"
)

const (
	testWsUrl        = "ws://127.0.0.1:7171/battleship"
	testWsResumedUrl = testWsUrl + "?" + api.URLQuerySessionIDKeyword + "="
	readWait         = time.Second * 5
)

var (
	hostConn      *websocket.Conn
	joinConn      *websocket.Conn
	hostSessionID string
	joinSessionID string
	hostPlayerId  string
	joinPlayerId  string
	testMatchUuid string

	dialer = websocket.Dialer{
		HandshakeTimeout: 10 * time.Second,
	}
)

func TestMain(m *testing.M) {
	server := api.NewServer(
		nil,
		&imagegen.StaticProvider{URL: imagegen.FallbackURL},
		api.WithPort("7171"),
		api.WithStage(api.StageDev),
	)
	go func() {
		if err := server.Run(); err != nil {
			log.Println(err)
			os.Exit(1)
		}
	}()

	// give the server time to start
	time.Sleep(time.Second)

	var err error
	hostConn, hostSessionID, err = dialNewSession()
	if err != nil {
		log.Println(err)
		os.Exit(1)
	}
	joinConn, joinSessionID, err = dialNewSession()
	if err != nil {
		log.Println(err)
		os.Exit(1)
	}

	os.Exit(m.Run())
}

func dialNewSession() (*websocket.Conn, string, error) {
	conn, _, err := dialer.Dial(testWsUrl, nil)
	if err != nil {
		return nil, "", err
	}

	var resp mc.Message[mc.RespSessionId]
	conn.SetReadDeadline(time.Now().Add(readWait))
	if err := conn.ReadJSON(&resp); err != nil {
		return nil, "", err
	}
	return conn, resp.Payload.SessionID, nil
}

func readMsg[T any](t *testing.T, conn *websocket.Conn) mc.Message[T] {
	t.Helper()
	var msg mc.Message[T]
	conn.SetReadDeadline(time.Now().Add(readWait))
	require.NoError(t, conn.ReadJSON(&msg))
	return msg
}

func expectCode[T any](t *testing.T, conn *websocket.Conn, code uint8) mc.Message[T] {
	t.Helper()
	msg := readMsg[T](t, conn)
	require.Equal(t, code, msg.Code)
	return msg
}

var testFleetLayout = map[string][]mb.Position{
	mb.ShipCarrier:    {{Row: 0, Col: 0}, {Row: 0, Col: 1}, {Row: 0, Col: 2}, {Row: 0, Col: 3}, {Row: 0, Col: 4}},
	mb.ShipBattleship: {{Row: 1, Col: 0}, {Row: 1, Col: 1}, {Row: 1, Col: 2}, {Row: 1, Col: 3}},
	mb.ShipCruiser:    {{Row: 2, Col: 0}, {Row: 2, Col: 1}, {Row: 2, Col: 2}},
	mb.ShipSubmarine:  {{Row: 3, Col: 0}, {Row: 3, Col: 1}, {Row: 3, Col: 2}},
	mb.ShipDestroyer:  {{Row: 4, Col: 0}, {Row: 4, Col: 1}},
}

func TestInvalidSignal(t *testing.T) {
	require.NoError(t, hostConn.WriteJSON(mc.NewSignal(255)))

	msg := expectCode[mc.NoPayload](t, hostConn, mc.CodeInvalidSignal)
	require.NotNil(t, msg.Error)
	assert.Equal(t, "invalid_signal", msg.Error.Code)

	require.NoError(t, hostConn.WriteMessage(websocket.TextMessage, []byte("this is not json")))

	msg = expectCode[mc.NoPayload](t, hostConn, mc.CodeSignalAbsent)
	require.NotNil(t, msg.Error)
}

func TestMatchmaking(t *testing.T) {
	require.NoError(t, hostConn.WriteJSON(mc.NewSignal(mc.CodeJoinQueue)))

	queued := expectCode[mc.RespQueueJoined](t, hostConn, mc.CodeQueueJoined)
	hostPlayerId = queued.Payload.PlayerId
	require.NotEmpty(t, hostPlayerId)

	require.NoError(t, joinConn.WriteJSON(mc.NewSignal(mc.CodeJoinQueue)))

	queued = expectCode[mc.RespQueueJoined](t, joinConn, mc.CodeQueueJoined)
	joinPlayerId = queued.Payload.PlayerId

	hostFound := expectCode[mc.RespMatchFound](t, hostConn, mc.CodeMatchFound)
	joinFound := expectCode[mc.RespMatchFound](t, joinConn, mc.CodeMatchFound)

	testMatchUuid = hostFound.Payload.MatchUuid
	require.NotEmpty(t, testMatchUuid)
	assert.Equal(t, testMatchUuid, joinFound.Payload.MatchUuid)
	assert.Equal(t, hostPlayerId, hostFound.Payload.PlayerId)
	assert.Equal(t, joinPlayerId, hostFound.Payload.Opponent.PlayerId)
	assert.Equal(t, imagegen.FallbackURL, hostFound.Payload.BackgroundURL)

	hostState := expectCode[mb.MatchView](t, hostConn, mc.CodeMatchState)
	expectCode[mb.MatchView](t, joinConn, mc.CodeMatchState)

	assert.Equal(t, "placement", hostState.Payload.Phase)
	assert.Equal(t, hostPlayerId, hostState.Payload.CurrentPlayerId)
}

func TestPlacementAndStart(t *testing.T) {
	require.NotEmpty(t, testMatchUuid, "matchmaking must have run first")

	for _, conn := range []*websocket.Conn{hostConn, joinConn} {
		for shipId, positions := range testFleetLayout {
			req := mc.NewMessage[mc.ReqPlaceShip](mc.CodePlaceShip)
			req.AddPayload(mc.ReqPlaceShip{ShipId: shipId, Positions: positions})
			require.NoError(t, conn.WriteJSON(req))

			resp := expectCode[mc.RespShipPlaced](t, conn, mc.CodePlaceShip)
			require.Nil(t, resp.Error)
			assert.True(t, resp.Payload.Valid)
			assert.Equal(t, shipId, resp.Payload.Ship.Id)
		}
	}

	// a ship off the grid is rejected without touching the fleet
	req := mc.NewMessage[mc.ReqPlaceShip](mc.CodePlaceShip)
	req.AddPayload(mc.ReqPlaceShip{
		ShipId:    mb.ShipDestroyer,
		Positions: []mb.Position{{Row: 9, Col: 9}, {Row: 9, Col: 10}},
	})
	require.NoError(t, hostConn.WriteJSON(req))
	resp := expectCode[mc.RespShipPlaced](t, hostConn, mc.CodePlaceShip)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "out_of_bounds", resp.Error.Code)

	require.NoError(t, hostConn.WriteJSON(mc.NewSignal(mc.CodeReady)))
	expectCode[mc.NoPayload](t, hostConn, mc.CodeReady)

	require.NoError(t, joinConn.WriteJSON(mc.NewSignal(mc.CodeReady)))
	expectCode[mc.NoPayload](t, joinConn, mc.CodeReady)

	expectCode[mc.NoPayload](t, hostConn, mc.CodeStartGame)
	expectCode[mc.NoPayload](t, joinConn, mc.CodeStartGame)

	hostState := expectCode[mb.MatchView](t, hostConn, mc.CodeMatchState)
	expectCode[mb.MatchView](t, joinConn, mc.CodeMatchState)

	assert.Equal(t, "playing", hostState.Payload.Phase)
	assert.Equal(t, hostPlayerId, hostState.Payload.CurrentPlayerId)
}

// fireAndRead fires one non-winning shot and drains the resulting
// frames from both connections.
func fireAndRead(t *testing.T, shooter, other *websocket.Conn, pos mb.Position) mc.RespShotResult {
	t.Helper()

	req := mc.NewMessage[mc.ReqFireShot](mc.CodeFireShot)
	req.AddPayload(mc.ReqFireShot{Position: pos})
	require.NoError(t, shooter.WriteJSON(req))

	shot := expectCode[mc.RespShotResult](t, shooter, mc.CodeShotResult)
	require.Nil(t, shot.Error)
	expectCode[mc.RespShotResult](t, other, mc.CodeShotResult)

	expectCode[mb.MatchView](t, shooter, mc.CodeMatchState)
	expectCode[mb.MatchView](t, other, mc.CodeMatchState)

	expectCode[mc.RespTurnChanged](t, shooter, mc.CodeTurnChanged)
	expectCode[mc.RespTurnChanged](t, other, mc.CodeTurnChanged)

	return shot.Payload
}

func TestPlayThroughToVictory(t *testing.T) {
	require.NotEmpty(t, testMatchUuid, "matchmaking must have run first")

	// firing out of turn never reaches the opponent
	req := mc.NewMessage[mc.ReqFireShot](mc.CodeFireShot)
	req.AddPayload(mc.ReqFireShot{Position: mb.Position{Row: 9, Col: 9}})
	require.NoError(t, joinConn.WriteJSON(req))
	rejected := expectCode[mc.NoPayload](t, joinConn, mc.CodeFireShot)
	require.NotNil(t, rejected.Error)
	assert.Equal(t, "not_your_turn", rejected.Error.Code)

	// host opens with a miss into open water
	result := fireAndRead(t, hostConn, joinConn, mb.Position{Row: 9, Col: 9})
	assert.Equal(t, "miss", result.Result)
	assert.Equal(t, hostPlayerId, result.ShooterId)

	// join hunts down the host fleet while the host keeps missing
	var targets []mb.Position
	for _, shipId := range []string{mb.ShipCarrier, mb.ShipBattleship, mb.ShipCruiser, mb.ShipSubmarine, mb.ShipDestroyer} {
		targets = append(targets, testFleetLayout[shipId]...)
	}

	var hostMisses []mb.Position
	for col := 0; col < mb.BoardSize; col++ {
		hostMisses = append(hostMisses, mb.Position{Row: 8, Col: col})
		hostMisses = append(hostMisses, mb.Position{Row: 7, Col: col})
	}

	for i, target := range targets[:len(targets)-1] {
		result = fireAndRead(t, joinConn, hostConn, target)
		assert.Contains(t, []string{"hit", "sunk"}, result.Result)
		assert.False(t, result.GameOver)

		result = fireAndRead(t, hostConn, joinConn, hostMisses[i])
		assert.Equal(t, "miss", result.Result)
	}

	// the last fleet cell ends the match
	final := targets[len(targets)-1]
	req = mc.NewMessage[mc.ReqFireShot](mc.CodeFireShot)
	req.AddPayload(mc.ReqFireShot{Position: final})
	require.NoError(t, joinConn.WriteJSON(req))

	shot := expectCode[mc.RespShotResult](t, joinConn, mc.CodeShotResult)
	require.Nil(t, shot.Error)
	assert.Equal(t, "sunk", shot.Payload.Result)
	assert.True(t, shot.Payload.GameOver)
	assert.Equal(t, joinPlayerId, shot.Payload.WinnerId)
	expectCode[mc.RespShotResult](t, hostConn, mc.CodeShotResult)

	joinState := expectCode[mb.MatchView](t, joinConn, mc.CodeMatchState)
	expectCode[mb.MatchView](t, hostConn, mc.CodeMatchState)
	assert.Equal(t, "finished", joinState.Payload.Phase)
	assert.Equal(t, 0, joinState.Payload.OpponentBoard.ShipsRemaining)
	assert.Equal(t, joinPlayerId, joinState.Payload.WinnerId)

	ended := expectCode[mc.RespMatchEnded](t, joinConn, mc.CodeMatchEnded)
	assert.Equal(t, joinPlayerId, ended.Payload.WinnerId)
	assert.Equal(t, mc.MatchEndVictory, ended.Payload.Reason)
	expectCode[mc.RespMatchEnded](t, hostConn, mc.CodeMatchEnded)

	// firing into a finished match is refused
	req = mc.NewMessage[mc.ReqFireShot](mc.CodeFireShot)
	req.AddPayload(mc.ReqFireShot{Position: mb.Position{Row: 6, Col: 6}})
	require.NoError(t, joinConn.WriteJSON(req))
	rejected = expectCode[mc.NoPayload](t, joinConn, mc.CodeFireShot)
	require.NotNil(t, rejected.Error)
	assert.Equal(t, "wrong_phase", rejected.Error.Code)
}

func TestResumeSessionAfterAbruptClose(t *testing.T) {
	stayConn, _, err := dialNewSession()
	require.NoError(t, err)
	defer stayConn.Close()

	dropConn, dropSessionID, err := dialNewSession()
	require.NoError(t, err)

	require.NoError(t, stayConn.WriteJSON(mc.NewSignal(mc.CodeJoinQueue)))
	expectCode[mc.RespQueueJoined](t, stayConn, mc.CodeQueueJoined)

	require.NoError(t, dropConn.WriteJSON(mc.NewSignal(mc.CodeJoinQueue)))
	expectCode[mc.RespQueueJoined](t, dropConn, mc.CodeQueueJoined)
	expectCode[mc.RespMatchFound](t, stayConn, mc.CodeMatchFound)
	expectCode[mc.RespMatchFound](t, dropConn, mc.CodeMatchFound)
	expectCode[mb.MatchView](t, stayConn, mc.CodeMatchState)
	expectCode[mb.MatchView](t, dropConn, mc.CodeMatchState)

	// drop the tcp connection without a close frame
	require.NoError(t, dropConn.Close())

	expectCode[mc.NoPayload](t, stayConn, mc.CodeOpponentDisconnected)

	// the session survives the reconnection window, so the same id resumes
	resumedConn, _, err := dialer.Dial(testWsResumedUrl+dropSessionID, nil)
	require.NoError(t, err)
	defer resumedConn.Close()

	expectCode[mc.NoPayload](t, stayConn, mc.CodeOpponentReconnected)
	resumedState := expectCode[mb.MatchView](t, resumedConn, mc.CodeMatchState)
	assert.Equal(t, "placement", resumedState.Payload.Phase)
}

func TestResumeWithUnknownSessionId(t *testing.T) {
	conn, _, err := dialer.Dial(testWsResumedUrl+"bogus", nil)
	require.NoError(t, err)
	defer conn.Close()

	expectCode[mc.NoPayload](t, conn, mc.CodeReceivedInvalidSessionID)
}
