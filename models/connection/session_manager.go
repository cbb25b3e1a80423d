package connection

import (
	"encoding/base64"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

type SessionManager interface {
	GenerateNewSession(conn *websocket.Conn) *Session
	FindSession(sessionId string) (*Session, error)
	TerminateSession(sessionId string)
	ReconnectSession(sessionId string, conn *websocket.Conn) (*Session, error)
	Communicate(receiverSessionId string, msg interface{}, msgType uint8) error
	WriteToSessionConn(session *Session, msg interface{}, msgType uint8) error
	ReadFromSessionConn(session *Session) (int, []byte, error)
	CleanupPeriodically()
}

// NavalSessionManager owns every live session. Sessions of
// disconnected players are retained for a reconnection window so a
// sessionID query can reclaim them, then swept.
type NavalSessionManager struct {
	sessions        map[string]*Session
	mu              sync.RWMutex
	cleanupInterval time.Duration
	reconnectWindow time.Duration
	maxSessionAge   time.Duration
}

var _ SessionManager = (*NavalSessionManager)(nil)

func NewNavalSessionManager() *NavalSessionManager {
	initMapSize := 10

	return &NavalSessionManager{
		sessions:        make(map[string]*Session, initMapSize),
		cleanupInterval: time.Minute,
		reconnectWindow: time.Minute * 2,
		maxSessionAge:   time.Minute * 35,
	}
}

func (nsm *NavalSessionManager) GenerateNewSession(conn *websocket.Conn) *Session {
	sessionId := base64.RawURLEncoding.EncodeToString([]byte(uuid.New().String()))

	nsm.mu.Lock()
	nsm.sessions[sessionId] = NewSession(sessionId, conn)
	session := nsm.sessions[sessionId]
	nsm.mu.Unlock()

	return session
}

func (nsm *NavalSessionManager) FindSession(sessionId string) (*Session, error) {
	nsm.mu.RLock()
	defer nsm.mu.RUnlock()

	session, prs := nsm.sessions[sessionId]
	if !prs {
		return nil, NewConnErr(ConnLoopBreak).AddDesc("session not found: " + sessionId)
	}
	return session, nil
}

func (nsm *NavalSessionManager) TerminateSession(sessionId string) {
	nsm.mu.Lock()
	defer nsm.mu.Unlock()
	delete(nsm.sessions, sessionId)
}

// ReconnectSession rebinds a retained session to a fresh
// connection. Unknown ids mean the session was swept or never
// existed; the caller closes the new connection in that case.
func (nsm *NavalSessionManager) ReconnectSession(sessionId string, conn *websocket.Conn) (*Session, error) {
	session, err := nsm.FindSession(sessionId)
	if err != nil {
		return nil, err
	}

	session.rebind(conn)
	log.Printf("session reconnected: %s\n", sessionId)
	return session, nil
}

// Communicate delivers a message to whatever session currently
// serves receiverSessionId.
func (nsm *NavalSessionManager) Communicate(receiverSessionId string, msg interface{}, msgType uint8) error {
	receiverSession, err := nsm.FindSession(receiverSessionId)
	if err != nil {
		return err
	}
	return nsm.WriteToSessionConn(receiverSession, msg, msgType)
}

func (nsm *NavalSessionManager) WriteToSessionConn(session *Session, msg interface{}, msgType uint8) error {
	return session.writeToConnWithRetry(msg, msgType)
}

func (nsm *NavalSessionManager) ReadFromSessionConn(session *Session) (int, []byte, error) {
	var retries uint8

	for {
		messageType, payload, err := session.conn.ReadMessage()
		if err == nil {
			return messageType, payload, nil
		}

		switch session.handleReadFromConnErr(err, retries) {
		case ConnLoopContinue:
			retries++
			continue

		case ConnLoopAbnormalClosureRetry:
			return -1, []byte{}, NewConnErr(ConnLoopAbnormalClosureRetry)

		default:
			return -1, []byte{}, NewConnErr(ConnLoopBreak).AddDesc(err.Error())
		}
	}
}

// CleanupPeriodically sweeps sessions whose reconnection window has
// lapsed and any session past the maximum age, so dangling
// connections never accumulate.
func (nsm *NavalSessionManager) CleanupPeriodically() {
	assumedClosedConns := 10

	for {
		time.Sleep(nsm.cleanupInterval)

		now := time.Now()
		nsm.mu.Lock()
		toDelete := make([]string, 0, assumedClosedConns)

		for id, session := range nsm.sessions {
			if session.IsDisconnected() && now.Sub(session.disconnectedAt) > nsm.reconnectWindow {
				toDelete = append(toDelete, id)
				continue
			}
			if now.Sub(session.createdAt) > nsm.maxSessionAge {
				toDelete = append(toDelete, id)
			}
		}

		for _, id := range toDelete {
			delete(nsm.sessions, id)
			log.Printf("swept session: %s", id)
		}
		nsm.mu.Unlock()
	}
}
