package api

import (
	"context"
	"log"
	"net"
	"time"

	"github.com/sqlc-dev/pqtype"

	"github.com/navalclash/backend/db/sqlc"
	"github.com/navalclash/backend/imagegen"
	cerr "github.com/navalclash/backend/internal/error"
	mb "github.com/navalclash/backend/models/battleship"
	mc "github.com/navalclash/backend/models/connection"
)

const (
	gcInterval          time.Duration = time.Second * 30
	disconnectTimeout   time.Duration = time.Minute * 3
	finishedRetention   time.Duration = time.Minute * 2
	maxMatchAge         time.Duration = time.Minute * 30
	queueMaxIdle        time.Duration = time.Minute * 2
	reconnectStaleAfter time.Duration = time.Second * 30

	// timers fire slightly past the turn clock so the elapsed check
	// in ForceTurnSwitch is strictly satisfied
	turnTimerSlack time.Duration = time.Millisecond * 250
)

// Coordinator maps inbound player actions onto the matchmaking
// queue and match state machines, broadcasts the resulting views
// and owns turn-timeout timers and match garbage collection. All
// game errors stay with the acting player; the opponent only ever
// sees state broadcasts.
type Coordinator struct {
	sessionManager mc.SessionManager
	matchManager   mb.MatchManager
	queue          *mb.Queue
	analytics      *sqlc.AnalyticsManager
	images         imagegen.Provider
	serverIpNet    pqtype.Inet
}

// NewCoordinator wires the coordinator. analytics may be nil to run
// without a database.
func NewCoordinator(
	sessionManager mc.SessionManager,
	matchManager mb.MatchManager,
	queue *mb.Queue,
	analytics *sqlc.AnalyticsManager,
	images imagegen.Provider,
) *Coordinator {
	c := &Coordinator{
		sessionManager: sessionManager,
		matchManager:   matchManager,
		queue:          queue,
		analytics:      analytics,
		images:         images,
	}
	c.serverIpNet = mustGetServerIpNet()
	return c
}

func mustGetServerIpNet() pqtype.Inet {
	ifaces, err := net.Interfaces()
	if err != nil {
		panic(err)
	}

	for _, iface := range ifaces {
		if iface.Flags&net.FlagUp == 0 {
			continue
		}
		if iface.Flags&net.FlagLoopback != 0 {
			continue
		}

		addrs, err := iface.Addrs()
		if err != nil {
			panic(err)
		}

		for _, addr := range addrs {
			var ipnet *net.IPNet
			var ip net.IP

			switch v := addr.(type) {
			case *net.IPNet:
				ipnet = v
				ip = v.IP
			case *net.IPAddr:
				ip = v.IP
			}

			if ipnet != nil && ip != nil && ip.To4() != nil && !ip.IsLoopback() {
				return pqtype.Inet{IPNet: *ipnet, Valid: true}
			}
		}
	}

	// no routable interface; analytics rows key on the loopback net
	return pqtype.Inet{
		IPNet: net.IPNet{IP: net.IPv4(127, 0, 0, 1), Mask: net.CIDRMask(32, 32)},
		Valid: true,
	}
}

// Expose this for assertions in testing
func (c *Coordinator) GetIpNet() net.IPNet {
	return c.serverIpNet.IPNet
}

func (c *Coordinator) sendToSession(session *mc.Session, msg interface{}) {
	if err := c.sessionManager.WriteToSessionConn(session, msg, mc.MessageTypeJSON); err != nil {
		log.Println("write to session failed:", err)
	}
}

func (c *Coordinator) sendToPlayer(player *mb.Player, msg interface{}) {
	if err := c.sessionManager.Communicate(player.SessionId, msg, mc.MessageTypeJSON); err != nil {
		log.Printf("deliver to player %s failed: %v\n", player.Id, err)
	}
}

func (c *Coordinator) broadcastMatchState(match *mb.Match) {
	for _, player := range match.Players() {
		view, err := match.Project(player.Id)
		if err != nil {
			log.Println("projection failed:", err)
			continue
		}
		msg := mc.NewMessage[mb.MatchView](mc.CodeMatchState)
		msg.AddPayload(view)
		c.sendToPlayer(player, msg)
	}
}

func (c *Coordinator) broadcastTurnChanged(match *mb.Match) {
	remaining := match.TurnDuration() - time.Since(match.TurnStartTime())
	if remaining < 0 {
		remaining = 0
	}

	msg := mc.NewMessage[mc.RespTurnChanged](mc.CodeTurnChanged)
	msg.AddPayload(mc.RespTurnChanged{
		CurrentPlayerId: match.CurrentPlayerId(),
		TimeRemainingMs: remaining.Milliseconds(),
	})

	for _, player := range match.Players() {
		c.sendToPlayer(player, msg)
	}
}

func newGameErrMsg(code uint8, err error) mc.Message[mc.NoPayload] {
	msg := mc.NewMessage[mc.NoPayload](code)
	if name, ok := cerr.CodeNameOf(err); ok {
		msg.AddError(name, err.Error())
	} else {
		msg.AddError("internal", "action failed")
	}
	return msg
}

// HandleJoinQueue enqueues the session's player and pairs a match
// when two players are waiting. TryMatch runs once per enqueue. A
// player still bound to an unfinished match is refused.
func (c *Coordinator) HandleJoinQueue(session *mc.Session) {
	player := session.Player()
	if player == nil {
		player = mb.NewPlayer(session.Id())
		session.SetPlayer(player)
	} else {
		player.SessionId = session.Id()
	}

	// re-queueing while a match is live would hand the player a
	// fresh board and corrupt the match still in flight
	if match, err := c.matchManager.FindPlayerMatch(player.Id); err == nil && match.Phase() != mb.PhaseFinished {
		c.sendToSession(session, newGameErrMsg(mc.CodeJoinQueue, cerr.ErrAlreadyInMatch(match.Uuid())))
		return
	}

	c.queue.Enqueue(player)

	ack := mc.NewMessage[mc.RespQueueJoined](mc.CodeQueueJoined)
	ack.AddPayload(mc.RespQueueJoined{PlayerId: player.Id})
	c.sendToSession(session, ack)

	if match := c.queue.TryMatch(); match != nil {
		c.startMatch(match)
	}
}

func (c *Coordinator) startMatch(match *mb.Match) {
	c.matchManager.RegisterMatch(match)
	c.recordMatchCreated()

	match.SetBackgroundURL(imagegen.FallbackURL)
	go c.attachBackground(match)

	for _, player := range match.Players() {
		playerSession, err := c.sessionManager.FindSession(player.SessionId)
		if err != nil {
			log.Printf("paired player %s has no live session: %v\n", player.Id, err)
			continue
		}
		playerSession.SetMatch(match)

		found := mc.NewMessage[mc.RespMatchFound](mc.CodeMatchFound)
		found.AddPayload(mc.RespMatchFound{
			MatchUuid:     match.Uuid(),
			PlayerId:      player.Id,
			Opponent:      match.Opponent(player.Id).PublicInfo(),
			BackgroundURL: match.BackgroundURL(),
		})
		c.sendToSession(playerSession, found)
	}

	c.broadcastMatchState(match)
}

// attachBackground fetches the decorative board background without
// ever delaying the match; the fallback is already set.
func (c *Coordinator) attachBackground(match *mb.Match) {
	if c.images == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second*10)
	defer cancel()

	url, err := c.images.Generate(ctx, match.Uuid())
	if err != nil {
		log.Printf("background generation failed for match %s: %v\n", match.Uuid(), err)
		return
	}
	if url == match.BackgroundURL() {
		return
	}

	match.SetBackgroundURL(url)
	if match.Phase() != mb.PhaseFinished {
		c.broadcastMatchState(match)
	}
}

// HandleLeaveQueue removes the player from the queue; absent
// players are a silent no-op.
func (c *Coordinator) HandleLeaveQueue(session *mc.Session) {
	if player := session.Player(); player != nil {
		c.queue.Dequeue(player.Id)
	}
	c.sendToSession(session, mc.NewMessage[mc.NoPayload](mc.CodeLeaveQueue))
}

func (c *Coordinator) resolveMatch(session *mc.Session) (*mb.Match, *mb.Player, error) {
	player := session.Player()
	if player == nil {
		return nil, nil, cerr.ErrPlayerNotInMatch("")
	}

	if match := session.Match(); match != nil {
		return match, player, nil
	}

	match, err := c.matchManager.FindPlayerMatch(player.Id)
	if err != nil {
		return nil, nil, err
	}
	session.SetMatch(match)
	return match, player, nil
}

// HandlePlaceShip places, moves or unplaces one ship. The response
// goes to the acting player only.
func (c *Coordinator) HandlePlaceShip(session *mc.Session, req mc.ReqPlaceShip) {
	match, player, err := c.resolveMatch(session)
	if err != nil {
		c.sendToSession(session, newGameErrMsg(mc.CodePlaceShip, err))
		return
	}

	ship, err := match.PlaceShip(player.Id, req.ShipId, req.Positions)
	if err != nil {
		c.sendToSession(session, newGameErrMsg(mc.CodePlaceShip, err))
		return
	}

	resp := mc.NewMessage[mc.RespShipPlaced](mc.CodePlaceShip)
	resp.AddPayload(mc.RespShipPlaced{Ship: ship, Valid: true})
	c.sendToSession(session, resp)
}

// HandleReady marks the player ready and starts the match once both
// fleets are complete and both players are ready.
func (c *Coordinator) HandleReady(session *mc.Session) {
	match, player, err := c.resolveMatch(session)
	if err != nil {
		c.sendToSession(session, newGameErrMsg(mc.CodeReady, err))
		return
	}

	started, err := match.SetReady(player.Id)
	if err != nil {
		c.sendToSession(session, newGameErrMsg(mc.CodeReady, err))
		return
	}

	c.sendToSession(session, mc.NewMessage[mc.NoPayload](mc.CodeReady))

	if started {
		startMsg := mc.NewMessage[mc.NoPayload](mc.CodeStartGame)
		for _, p := range match.Players() {
			c.sendToPlayer(p, startMsg)
		}
		c.broadcastMatchState(match)
		c.armTurnTimer(match)
	}
}

// HandleFireShot resolves a shot, broadcasts the result and the
// refreshed views, and re-arms the turn clock or ends the match.
func (c *Coordinator) HandleFireShot(session *mc.Session, req mc.ReqFireShot) {
	match, player, err := c.resolveMatch(session)
	if err != nil {
		c.sendToSession(session, newGameErrMsg(mc.CodeFireShot, err))
		return
	}

	result, err := match.FireShot(player.Id, req.Position)
	if err != nil {
		c.sendToSession(session, newGameErrMsg(mc.CodeFireShot, err))
		return
	}

	shotMsg := mc.NewMessage[mc.RespShotResult](mc.CodeShotResult)
	shotMsg.AddPayload(mc.RespShotResult{
		Position:  result.Position,
		ShooterId: player.Id,
		Result:    result.Outcome.String(),
		SunkShip:  result.SunkShip,
		GameOver:  result.GameOver,
		WinnerId:  result.WinnerId,
	})
	c.sendToSession(session, shotMsg)
	c.sendToPlayer(match.Opponent(player.Id), shotMsg)

	c.broadcastMatchState(match)

	if result.GameOver {
		c.recordMatchFinished()

		endMsg := mc.NewMessage[mc.RespMatchEnded](mc.CodeMatchEnded)
		endMsg.AddPayload(mc.RespMatchEnded{WinnerId: result.WinnerId, Reason: mc.MatchEndVictory})
		for _, p := range match.Players() {
			c.sendToPlayer(p, endMsg)
		}
		return
	}

	c.broadcastTurnChanged(match)
	c.armTurnTimer(match)
}

// armTurnTimer schedules the forced turn pass for the turn that is
// current right now. The timer carries the turnStartTime it was
// armed for; if a shot advances the turn first, ForceTurnSwitch
// rejects the stale generation and the timer dies without firing a
// second switch.
func (c *Coordinator) armTurnTimer(match *mb.Match) {
	armedAt := match.TurnStartTime()
	if armedAt.IsZero() {
		return
	}

	time.AfterFunc(match.TurnDuration()+turnTimerSlack, func() {
		if !match.ForceTurnSwitch(armedAt) {
			return
		}

		log.Printf("turn timed out in match %s; turn passed to %s\n", match.Uuid(), match.CurrentPlayerId())
		c.recordTurnTimedOut()
		c.broadcastTurnChanged(match)
		c.broadcastMatchState(match)
		c.armTurnTimer(match)
	})
}

// HandleDisconnect marks the session disconnected, drops the player
// from the queue and tells the opponent. The match itself stays
// alive and keeps accepting the other player's actions.
func (c *Coordinator) HandleDisconnect(session *mc.Session) {
	session.MarkDisconnected()

	player := session.Player()
	if player == nil {
		return
	}
	c.queue.Dequeue(player.Id)

	match := session.Match()
	if match == nil || match.Phase() == mb.PhaseFinished {
		return
	}

	c.sendToPlayer(match.Opponent(player.Id), mc.NewMessage[mc.NoPayload](mc.CodeOpponentDisconnected))
}

// HandleSessionResumed runs when a connection returns on a retained
// session id: the opponent is told and the player gets a fresh view.
func (c *Coordinator) HandleSessionResumed(session *mc.Session) {
	match := session.Match()
	player := session.Player()
	if match == nil || player == nil {
		return
	}

	match.TouchPlayer(player.Id)
	c.sendToPlayer(match.Opponent(player.Id), mc.NewMessage[mc.NoPayload](mc.CodeOpponentReconnected))

	view, err := match.Project(player.Id)
	if err != nil {
		return
	}
	msg := mc.NewMessage[mb.MatchView](mc.CodeMatchState)
	msg.AddPayload(view)
	c.sendToSession(session, msg)
}

// HandleReconnectGame rebinds a fresh session into an existing
// match by match uuid. A slot is reclaimed by session id first,
// then by staleness.
func (c *Coordinator) HandleReconnectGame(session *mc.Session, req mc.ReqReconnectGame) {
	match, err := c.matchManager.FindMatch(req.MatchUuid)
	if err != nil {
		c.sendToSession(session, newGameErrMsg(mc.CodeReconnectGame, err))
		return
	}

	player, err := match.RebindSession(session.Id(), reconnectStaleAfter)
	if err != nil {
		c.sendToSession(session, newGameErrMsg(mc.CodeReconnectGame, err))
		return
	}

	session.SetPlayer(player)
	session.SetMatch(match)

	c.sendToPlayer(match.Opponent(player.Id), mc.NewMessage[mc.NoPayload](mc.CodeOpponentReconnected))

	view, err := match.Project(player.Id)
	if err != nil {
		c.sendToSession(session, newGameErrMsg(mc.CodeReconnectGame, err))
		return
	}
	msg := mc.NewMessage[mb.MatchView](mc.CodeMatchState)
	msg.AddPayload(view)
	c.sendToSession(session, msg)
}

// ManageMatchTermination is the garbage-collection loop: abandoned,
// aged-out and long-finished matches are purged, and stale queue
// entries dropped.
func (c *Coordinator) ManageMatchTermination() {
	for {
		time.Sleep(gcInterval)
		c.SweepExpiredMatches()
	}
}

// SweepExpiredMatches runs one garbage-collection pass. Survivors of
// an unfinished match are told why it ended before it is dropped.
func (c *Coordinator) SweepExpiredMatches() {
	for _, player := range c.queue.PurgeStale(queueMaxIdle) {
		log.Printf("purged stale queued player: %s\n", player.Id)
	}

	for _, expired := range c.matchManager.CollectExpired(disconnectTimeout, finishedRetention, maxMatchAge) {
		match := expired.Match

		if match.Phase() != mb.PhaseFinished {
			endMsg := mc.NewMessage[mc.RespMatchEnded](mc.CodeMatchEnded)
			endMsg.AddPayload(mc.RespMatchEnded{WinnerId: match.WinnerId(), Reason: matchEndReason(expired.Cause)})
			for _, player := range match.Players() {
				c.sendToPlayer(player, endMsg)
			}
		}

		log.Printf("terminating match: %s\n", match.Uuid())
		c.matchManager.TerminateMatch(match.Uuid())
	}
}

// matchEndReason maps a termination cause to the wire reason: an
// aged-out match ends by timeout, an abandoned one by disconnect.
func matchEndReason(cause mb.TerminationCause) string {
	if cause == mb.TerminationAged {
		return mc.MatchEndTimeout
	}
	return mc.MatchEndDisconnect
}

func (c *Coordinator) recordMatchCreated() {
	if c.analytics == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), sqlc.QuerierCtxTimeout)
	defer cancel()
	if err := c.analytics.IncrementMatchesCreatedCount(ctx, c.serverIpNet); err != nil {
		// analytics never fails the game
		log.Println(err)
	}
}

func (c *Coordinator) recordMatchFinished() {
	if c.analytics == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), sqlc.QuerierCtxTimeout)
	defer cancel()
	if err := c.analytics.IncrementMatchesFinishedCount(ctx, c.serverIpNet); err != nil {
		log.Println(err)
	}
}

func (c *Coordinator) recordTurnTimedOut() {
	if c.analytics == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), sqlc.QuerierCtxTimeout)
	defer cancel()
	if err := c.analytics.IncrementTurnsTimedOutCount(ctx, c.serverIpNet); err != nil {
		log.Println(err)
	}
}
