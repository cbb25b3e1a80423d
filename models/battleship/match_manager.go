package battleship

import (
	"sync"
	"time"

	cerr "github.com/navalclash/backend/internal/error"
)

type MatchManager interface {
	RegisterMatch(match *Match)
	FindMatch(matchUuid string) (*Match, error)
	FindPlayerMatch(playerId string) (*Match, error)
	TerminateMatch(matchUuid string)
	CollectExpired(disconnectTimeout, finishedRetention, maxAge time.Duration) []ExpiredMatch
}

// ExpiredMatch pairs a match due for termination with the predicate
// that fired, so survivors can be told why their match ended.
type ExpiredMatch struct {
	Match *Match
	Cause TerminationCause
}

// NavalMatchManager is the in-memory match registry: match-by-uuid
// plus a playerId to matchUuid binding so inbound actions resolve
// their match in one lookup.
type NavalMatchManager struct {
	matches       map[string]*Match
	playerMatches map[string]string
	mu            sync.RWMutex
}

var _ MatchManager = (*NavalMatchManager)(nil)

func NewNavalMatchManager() *NavalMatchManager {
	initMapSize := 10

	return &NavalMatchManager{
		matches:       make(map[string]*Match, initMapSize),
		playerMatches: make(map[string]string, initMapSize),
	}
}

func (nmm *NavalMatchManager) RegisterMatch(match *Match) {
	nmm.mu.Lock()
	defer nmm.mu.Unlock()

	nmm.matches[match.Uuid()] = match
	for _, player := range match.Players() {
		nmm.playerMatches[player.Id] = match.Uuid()
	}
}

func (nmm *NavalMatchManager) FindMatch(matchUuid string) (*Match, error) {
	nmm.mu.RLock()
	match, prs := nmm.matches[matchUuid]
	nmm.mu.RUnlock()

	if !prs {
		return nil, cerr.ErrMatchNotFound(matchUuid)
	}
	return match, nil
}

func (nmm *NavalMatchManager) FindPlayerMatch(playerId string) (*Match, error) {
	nmm.mu.RLock()
	matchUuid, prs := nmm.playerMatches[playerId]
	match, matchPrs := nmm.matches[matchUuid]
	nmm.mu.RUnlock()

	if !prs || !matchPrs {
		return nil, cerr.ErrPlayerNotInMatch(playerId)
	}
	return match, nil
}

// TerminateMatch drops the match and its player bindings. The match
// is aborted first so any armed turn timer dies on its phase check.
func (nmm *NavalMatchManager) TerminateMatch(matchUuid string) {
	nmm.mu.Lock()
	defer nmm.mu.Unlock()

	match, prs := nmm.matches[matchUuid]
	if !prs {
		return
	}

	match.Abort()
	for _, player := range match.Players() {
		delete(nmm.playerMatches, player.Id)
	}
	delete(nmm.matches, matchUuid)
}

// CollectExpired returns matches due for garbage collection without
// removing them; the coordinator notifies survivors first and then
// calls TerminateMatch.
func (nmm *NavalMatchManager) CollectExpired(disconnectTimeout, finishedRetention, maxAge time.Duration) []ExpiredMatch {
	nmm.mu.RLock()
	snapshot := make([]*Match, 0, len(nmm.matches))
	for _, match := range nmm.matches {
		snapshot = append(snapshot, match)
	}
	nmm.mu.RUnlock()

	expired := make([]ExpiredMatch, 0)
	for _, match := range snapshot {
		if cause := match.TerminationCause(disconnectTimeout, finishedRetention, maxAge); cause != TerminationNone {
			expired = append(expired, ExpiredMatch{Match: match, Cause: cause})
		}
	}
	return expired
}
