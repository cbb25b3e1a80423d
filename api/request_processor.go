package api

import (
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	mc "github.com/navalclash/backend/models/connection"
)

const URLQuerySessionIDKeyword string = "sessionID"

var upgrader = websocket.Upgrader{

	// good average time since this is not a high-latency operation such as video streaming
	HandshakeTimeout: time.Second * 5,

	// probably more than enough but this is a good average size
	ReadBufferSize:  2048,
	WriteBufferSize: 2048,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// RequestProcessor serves the websocket endpoint: it upgrades the
// connection, issues or resumes a session and runs the read loop
// that turns inbound signals into coordinator calls.
type RequestProcessor struct {
	sessionManager mc.SessionManager
	coordinator    *Coordinator
}

func NewRequestProcessor(sessionManager mc.SessionManager, coordinator *Coordinator) RequestProcessor {
	return RequestProcessor{
		sessionManager: sessionManager,
		coordinator:    coordinator,
	}
}

func (rp RequestProcessor) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Println(err)
		http.Error(w, "could not open websocket connection", http.StatusBadRequest)
		return
	}

	sessionIdQuery := r.URL.Query().Get(URLQuerySessionIDKeyword)
	switch sessionIdQuery {
	case "":
		log.Println("a new connection established\tRemote Addr: ", conn.RemoteAddr().String())
		session := rp.sessionManager.GenerateNewSession(conn)

		resp := mc.NewMessage[mc.RespSessionId](mc.CodeSessionID)
		resp.AddPayload(mc.RespSessionId{SessionID: session.Id()})
		if err := rp.sessionManager.WriteToSessionConn(session, resp, mc.MessageTypeJSON); err != nil {
			conn.Close()
			return
		}

		rp.processSessionRequests(session)

	default:
		session, err := rp.sessionManager.ReconnectSession(sessionIdQuery, conn)
		if err != nil {
			// expired session or invalid session id
			conn.WriteJSON(mc.NewMessage[mc.NoPayload](mc.CodeReceivedInvalidSessionID))
			conn.Close()
			return
		}

		rp.coordinator.HandleSessionResumed(session)
		rp.processSessionRequests(session)
	}
}

func (rp RequestProcessor) processSessionRequests(session *mc.Session) {
	terminate := true

	defer func() {
		rp.coordinator.HandleDisconnect(session)
		if session.Conn() != nil {
			session.Conn().Close()
		}
		if terminate {
			rp.sessionManager.TerminateSession(session.Id())
		}
	}()

sessionLoop:
	for {
		// A WebSocket frame can be one of 6 types: text=1, binary=2, ping=9, pong=10, close=8 and continuation=0
		// https://www.rfc-editor.org/rfc/rfc6455.html#section-11.8
		_, payload, err := rp.sessionManager.ReadFromSessionConn(session)
		if err != nil {
			if connErr, ok := err.(mc.ConnErr); ok && connErr.Code() == mc.ConnLoopAbnormalClosureRetry {
				// keep the session around for the reconnection window
				terminate = false
			}
			break sessionLoop
		}

		var signal mc.Signal
		if err := json.Unmarshal(payload, &signal); err != nil {
			msg := mc.NewMessage[mc.NoPayload](mc.CodeSignalAbsent)
			msg.AddError("signal_absent", "incoming req payload must contain 'code' field")
			if err = rp.sessionManager.WriteToSessionConn(session, msg, mc.MessageTypeJSON); err != nil {
				break sessionLoop
			}
			continue sessionLoop
		}

		rp.dispatch(session, signal.Code, payload)
	}
}

// dispatch routes one inbound action. Any panic while handling it
// is contained here: the match stays consistent because validation
// precedes mutation everywhere, and the acting player gets a
// generic failure.
func (rp RequestProcessor) dispatch(session *mc.Session, code uint8, payload []byte) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("recovered from action handler fault (code %d): %v\n", code, r)
			msg := mc.NewMessage[mc.NoPayload](mc.CodeActionFailed)
			msg.AddError("internal", "action failed")
			_ = rp.sessionManager.WriteToSessionConn(session, msg, mc.MessageTypeJSON)
		}
	}()

	switch code {

	case mc.CodeJoinQueue:
		rp.coordinator.HandleJoinQueue(session)

	case mc.CodeLeaveQueue:
		rp.coordinator.HandleLeaveQueue(session)

	case mc.CodePlaceShip:
		var req mc.Message[mc.ReqPlaceShip]
		if err := json.Unmarshal(payload, &req); err != nil {
			rp.sendInvalidSignal(session, "malformed place_ship payload")
			return
		}
		rp.coordinator.HandlePlaceShip(session, req.Payload)

	case mc.CodeReady:
		rp.coordinator.HandleReady(session)

	case mc.CodeFireShot:
		var req mc.Message[mc.ReqFireShot]
		if err := json.Unmarshal(payload, &req); err != nil {
			rp.sendInvalidSignal(session, "malformed fire_shot payload")
			return
		}
		rp.coordinator.HandleFireShot(session, req.Payload)

	case mc.CodeReconnectGame:
		var req mc.Message[mc.ReqReconnectGame]
		if err := json.Unmarshal(payload, &req); err != nil {
			rp.sendInvalidSignal(session, "malformed reconnect payload")
			return
		}
		rp.coordinator.HandleReconnectGame(session, req.Payload)

	default:
		rp.sendInvalidSignal(session, "invalid code in the incoming payload")
	}
}

func (rp RequestProcessor) sendInvalidSignal(session *mc.Session, detail string) {
	msg := mc.NewMessage[mc.NoPayload](mc.CodeInvalidSignal)
	msg.AddError("invalid_signal", detail)
	_ = rp.sessionManager.WriteToSessionConn(session, msg, mc.MessageTypeJSON)
}
