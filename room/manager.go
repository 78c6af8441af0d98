// room/manager.go
package room

import (
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/wfunc/durak/card"
	"github.com/wfunc/durak/models"
	"github.com/wfunc/durak/persistence"
)

// Manager 管理所有房间
//
// The in-memory map is authoritative; every committed transition is written
// through to the database when one is configured. Transitions on one room
// serialize on that room's lock, different rooms run independently.
type Manager struct {
	rooms map[string]*Room
	mutex sync.RWMutex

	rng   *rand.Rand
	rngMu sync.Mutex

	db persistence.Database // optional write-through store
}

// NewManager creates a room manager. db may be nil for a purely in-memory
// store; rng may be nil to use a time-seeded source.
func NewManager(db persistence.Database, rng *rand.Rand) *Manager {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &Manager{
		rooms: make(map[string]*Room),
		rng:   rng,
		db:    db,
	}
}

// CreateRoom opens a new room for playerID with a shuffled deck and six
// dealt cards. trump is picked uniformly at random when nil.
func (m *Manager) CreateRoom(playerID int64, trump *card.Suit) (*models.RoomSnapshot, error) {
	m.mutex.Lock()
	if r := m.findActiveLocked(playerID); r != nil {
		m.mutex.Unlock()
		return nil, ErrAlreadyInRoom
	}

	t := card.Suits[m.intn(len(card.Suits))]
	if trump != nil {
		t = *trump
	}
	deck := card.Deck()
	m.shuffle(deck)

	r := newRoom(uuid.New().String(), playerID, t, deck)
	m.rooms[r.ID] = r
	m.mutex.Unlock()

	return m.commit(r)
}

// JoinRoom seats playerID as the second player of roomID.
func (m *Manager) JoinRoom(playerID int64, roomID string) (*models.RoomSnapshot, error) {
	r, err := m.lookup(roomID)
	if err != nil {
		return nil, err
	}
	if err := r.Join(playerID); err != nil {
		return nil, err
	}
	return m.commit(r)
}

// MakeMove plays one card for playerID in roomID.
func (m *Manager) MakeMove(playerID int64, roomID string, c card.Card) (*models.RoomSnapshot, error) {
	r, err := m.lookup(roomID)
	if err != nil {
		return nil, err
	}
	if err := r.Move(playerID, c); err != nil {
		return nil, err
	}
	return m.commit(r)
}

// FinishMove resolves the current trick for playerID in roomID.
func (m *Manager) FinishMove(playerID int64, roomID string) (*models.RoomSnapshot, error) {
	r, err := m.lookup(roomID)
	if err != nil {
		return nil, err
	}
	if err := r.Finish(playerID); err != nil {
		return nil, err
	}
	return m.commit(r)
}

// LeaveRoom terminates roomID on behalf of playerID.
func (m *Manager) LeaveRoom(playerID int64, roomID string) (*models.RoomSnapshot, error) {
	r, err := m.lookup(roomID)
	if err != nil {
		return nil, err
	}
	if err := r.Leave(playerID); err != nil {
		return nil, err
	}
	return m.commit(r)
}

// GetRoom returns the current snapshot of roomID for a participant.
func (m *Manager) GetRoom(playerID int64, roomID string) (*models.RoomSnapshot, error) {
	r, err := m.lookup(roomID)
	if err != nil {
		return nil, err
	}
	if !r.hasPlayer(playerID) {
		return nil, ErrNotAParticipant
	}
	return r.Snapshot(), nil
}

// FindActiveRoomForPlayer returns the one unfinished room where playerID is
// seated, or nil.
func (m *Manager) FindActiveRoomForPlayer(playerID int64) *models.RoomSnapshot {
	m.mutex.RLock()
	r := m.findActiveLocked(playerID)
	m.mutex.RUnlock()
	if r == nil {
		return nil
	}
	return r.Snapshot()
}

// ListJoinable returns the rooms still waiting for a second player.
func (m *Manager) ListJoinable() []*models.RoomSnapshot {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	var out []*models.RoomSnapshot
	for _, r := range m.rooms {
		if r.joinable() {
			out = append(out, r.Snapshot())
		}
	}
	return out
}

// ActiveRoomCount reports how many rooms are held in memory.
func (m *Manager) ActiveRoomCount() int {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	return len(m.rooms)
}

// SweepFinished drops finished rooms from memory and reports how many were
// removed. Their last snapshot stays in the database.
func (m *Manager) SweepFinished() int {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	removed := 0
	for id, r := range m.rooms {
		if r.finished() {
			delete(m.rooms, id)
			removed++
		}
	}
	return removed
}

// findActiveLocked expects at least a read lock on m.mutex.
func (m *Manager) findActiveLocked(playerID int64) *Room {
	for _, r := range m.rooms {
		if r.activeFor(playerID) {
			return r
		}
	}
	return nil
}

// lookup resolves roomID from memory, falling back to the database so an
// unfinished room survives a process restart.
func (m *Manager) lookup(roomID string) (*Room, error) {
	m.mutex.RLock()
	r, exists := m.rooms[roomID]
	m.mutex.RUnlock()
	if exists {
		return r, nil
	}

	if m.db == nil {
		return nil, ErrRoomNotFound
	}
	snap, err := m.db.LoadRoomState(roomID)
	if err != nil {
		if err == persistence.ErrRecordNotFound {
			return nil, ErrRoomNotFound
		}
		return nil, fmt.Errorf("load room %s: %w", roomID, err)
	}
	restored, err := FromSnapshot(snap)
	if err != nil {
		return nil, fmt.Errorf("restore room %s: %w", roomID, err)
	}

	m.mutex.Lock()
	defer m.mutex.Unlock()
	if r, exists := m.rooms[roomID]; exists {
		return r, nil
	}
	m.rooms[roomID] = restored
	return restored, nil
}

// commit snapshots the room and writes it through to the database. The
// in-memory state is already committed; a persistence failure surfaces as
// an opaque error without touching it.
func (m *Manager) commit(r *Room) (*models.RoomSnapshot, error) {
	snap := r.Snapshot()
	if m.db != nil {
		if err := m.db.SaveRoomState(snap); err != nil {
			return nil, fmt.Errorf("persist room %s: %w", snap.ID, err)
		}
	}
	return snap, nil
}

func (m *Manager) intn(n int) int {
	m.rngMu.Lock()
	defer m.rngMu.Unlock()
	return m.rng.Intn(n)
}

func (m *Manager) shuffle(deck []card.Card) {
	m.rngMu.Lock()
	defer m.rngMu.Unlock()
	card.Shuffle(m.rng, deck)
}
