package battleship

import (
	"sync"
	"time"
)

// Queue is the FIFO matchmaking queue. The members map gives O(1)
// membership checks; ordering lives in the waiting slice. It has
// its own lock, independent of any match.
type Queue struct {
	mu      sync.Mutex
	waiting []*Player
	members map[string]struct{}
}

func NewQueue() *Queue {
	initQueueSize := 10

	return &Queue{
		waiting: make([]*Player, 0, initQueueSize),
		members: make(map[string]struct{}, initQueueSize),
	}
}

// Enqueue appends the player; adding an already-queued player is a
// no-op.
func (q *Queue) Enqueue(player *Player) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if _, prs := q.members[player.Id]; prs {
		return
	}

	player.Touch()
	q.waiting = append(q.waiting, player)
	q.members[player.Id] = struct{}{}
}

// Dequeue removes the player if present; absent ids are a no-op.
func (q *Queue) Dequeue(playerId string) {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.removeLocked(playerId)
}

func (q *Queue) removeLocked(playerId string) {
	if _, prs := q.members[playerId]; !prs {
		return
	}

	delete(q.members, playerId)
	for i, player := range q.waiting {
		if player.Id == playerId {
			q.waiting = append(q.waiting[:i], q.waiting[i+1:]...)
			return
		}
	}
}

func (q *Queue) Contains(playerId string) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	_, prs := q.members[playerId]
	return prs
}

func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.waiting)
}

// TryMatch pops the two longest-waiting players and pairs them into
// a fresh match in placement phase, or returns nil with fewer than
// two waiting. It is invoked once per enqueue by the coordinator,
// never re-invoked automatically.
func (q *Queue) TryMatch() *Match {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.waiting) < 2 {
		return nil
	}

	first := q.waiting[0]
	second := q.waiting[1]
	q.waiting = q.waiting[2:]
	delete(q.members, first.Id)
	delete(q.members, second.Id)

	return NewMatch(first, second)
}

// PurgeStale drops queued players idle past maxIdle and returns
// them so the coordinator can notify their sessions. Players
// already in a match are unaffected.
func (q *Queue) PurgeStale(maxIdle time.Duration) []*Player {
	q.mu.Lock()
	defer q.mu.Unlock()

	now := time.Now()
	purged := make([]*Player, 0)
	kept := q.waiting[:0]

	for _, player := range q.waiting {
		if now.Sub(player.LastActivity) > maxIdle {
			delete(q.members, player.Id)
			purged = append(purged, player)
			continue
		}
		kept = append(kept, player)
	}
	q.waiting = kept

	return purged
}
