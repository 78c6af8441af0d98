// room/room.go
package room

import (
	"sync"
	"time"

	"github.com/wfunc/durak/card"
	"github.com/wfunc/durak/models"
	"github.com/wfunc/durak/rules"
)

const handSize = 6

// Room 是一局游戏的聚合根
//
// Every card in play belongs to exactly one of the five piles (two hands,
// draw pile, table, discard) at all times. All transitions run under the
// room mutex, so at most one is in flight per room.
type Room struct {
	ID        string
	CreatedAt time.Time
	Trump     card.Suit
	Player1   int64
	Player2   int64 // 0 until the second player joins

	Player1Hand []card.Card
	Player2Hand []card.Card
	Remaining   []card.Card // draw pile; join deals from the head, refill draws from the tail
	Table       []card.Card
	Unbitten    []card.Card // attack cards not yet answered, oldest first
	Played      []card.Card // discarded after a fully beaten trick
	PlayerMove  int         // 1 or 2
	Finished    bool

	mu sync.Mutex
}

// newRoom deals six cards to the creator and keeps the rest as the draw
// pile. deck must already be shuffled.
func newRoom(id string, playerID int64, trump card.Suit, deck []card.Card) *Room {
	// Hands get their own backing arrays so growing one later cannot
	// clobber the draw pile.
	hand := make([]card.Card, handSize)
	copy(hand, deck[:handSize])
	pile := make([]card.Card, len(deck)-handSize)
	copy(pile, deck[handSize:])
	return &Room{
		ID:          id,
		CreatedAt:   time.Now(),
		Trump:       trump,
		Player1:     playerID,
		Player1Hand: hand,
		Remaining:   pile,
		PlayerMove:  1,
	}
}

// Join seats playerID as player2, deals their hand and decides who attacks
// first by comparing trump holdings.
func (r *Room) Join(playerID int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.Finished {
		return ErrGameFinished
	}
	if r.Player2 != 0 {
		return ErrRoomFull
	}
	if r.Player1 == playerID {
		return ErrSelfJoin
	}

	r.Player2 = playerID
	hand := make([]card.Card, handSize)
	copy(hand, r.Remaining[:handSize])
	r.Player2Hand = hand
	r.Remaining = r.Remaining[handSize:]
	r.PlayerMove = r.firstMover()
	return nil
}

// firstMover picks the opening attacker: the only side holding trump cards
// goes first; with trump on both sides, the higher weakest trump wins;
// without any trump, player1 opens.
func (r *Room) firstMover() int {
	t1, ok1 := lowestTrump(r.Player1Hand, r.Trump)
	t2, ok2 := lowestTrump(r.Player2Hand, r.Trump)
	switch {
	case ok1 && !ok2:
		return 1
	case ok2 && !ok1:
		return 2
	case ok1 && ok2:
		if rules.CompareRank(t1.Rank, t2.Rank) > 0 {
			return 1
		}
		return 2
	default:
		return 1
	}
}

func lowestTrump(hand []card.Card, trump card.Suit) (card.Card, bool) {
	var lowest card.Card
	found := false
	for _, c := range hand {
		if c.Suit != trump {
			continue
		}
		if !found || rules.CompareRank(c.Rank, lowest.Rank) < 0 {
			lowest = c
			found = true
		}
	}
	return lowest, found
}

// Move plays one card for playerID. With no unbitten cards on the table it
// is an attack and the turn stays; otherwise it must beat the oldest
// unbitten card, and the turn flips once the last one is answered.
func (r *Room) Move(playerID int64, c card.Card) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	seat, err := r.moverSeat(playerID)
	if err != nil {
		return err
	}

	hand := r.hand(seat)
	idx := indexOf(hand, c)
	if idx < 0 {
		return ErrCardNotInHand
	}

	if len(r.Unbitten) == 0 {
		if !rules.CanAddToTable(c, r.Table) {
			return ErrIllegalAttack
		}
		r.Table = append(r.Table, c)
		r.Unbitten = append(r.Unbitten, c)
		r.setHand(seat, removeAt(hand, idx))
		return nil
	}

	target := r.Unbitten[0]
	if !rules.CanBeat(target, c, r.Trump) {
		return ErrIllegalDefense
	}
	r.Table = append(r.Table, c)
	r.Unbitten = r.Unbitten[1:]
	r.setHand(seat, removeAt(hand, idx))
	if len(r.Unbitten) == 0 {
		r.PlayerMove = otherSeat(seat)
	}
	return nil
}

// Finish resolves the trick. Facing unbitten cards the mover takes the
// whole table into their hand and keeps the turn; with everything beaten
// the table is discarded and the turn flips. Both hands are then refilled
// to six from the draw pile, next attacker first, and the game ends once a
// hand and the pile are both empty.
func (r *Room) Finish(playerID int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	seat, err := r.moverSeat(playerID)
	if err != nil {
		return err
	}

	if len(r.Unbitten) > 0 {
		r.setHand(seat, append(r.hand(seat), r.Table...))
	} else {
		r.Played = append(r.Played, r.Table...)
		r.PlayerMove = otherSeat(seat)
	}
	r.Table = nil
	r.Unbitten = nil

	r.refill(r.PlayerMove)
	r.refill(otherSeat(r.PlayerMove))

	if (len(r.Player1Hand) == 0 || len(r.Player2Hand) == 0) && len(r.Remaining) == 0 {
		r.Finished = true
	}
	return nil
}

// Leave terminates the game unconditionally.
func (r *Room) Leave(playerID int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.Finished {
		return ErrGameFinished
	}
	if r.seatOf(playerID) == 0 {
		return ErrNotAParticipant
	}
	r.Finished = true
	return nil
}

// moverSeat runs the preconditions shared by Move and Finish.
func (r *Room) moverSeat(playerID int64) (int, error) {
	if r.Finished {
		return 0, ErrGameFinished
	}
	seat := r.seatOf(playerID)
	if seat == 0 {
		return 0, ErrNotAParticipant
	}
	// Until the second player is seated only Join is legal.
	if r.Player2 == 0 || r.PlayerMove != seat {
		return 0, ErrNotYourTurn
	}
	return seat, nil
}

func (r *Room) seatOf(playerID int64) int {
	switch playerID {
	case r.Player1:
		return 1
	case r.Player2:
		return 2
	default:
		return 0
	}
}

func (r *Room) hand(seat int) []card.Card {
	if seat == 1 {
		return r.Player1Hand
	}
	return r.Player2Hand
}

func (r *Room) setHand(seat int, hand []card.Card) {
	if seat == 1 {
		r.Player1Hand = hand
	} else {
		r.Player2Hand = hand
	}
}

// refill tops the seat's hand back up to six, drawing from the tail of the
// pile until it runs dry.
func (r *Room) refill(seat int) {
	hand := r.hand(seat)
	for len(hand) < handSize && len(r.Remaining) > 0 {
		last := len(r.Remaining) - 1
		hand = append(hand, r.Remaining[last])
		r.Remaining = r.Remaining[:last]
	}
	r.setHand(seat, hand)
}

func otherSeat(seat int) int {
	if seat == 1 {
		return 2
	}
	return 1
}

func indexOf(hand []card.Card, c card.Card) int {
	for i, h := range hand {
		if h == c {
			return i
		}
	}
	return -1
}

func removeAt(hand []card.Card, idx int) []card.Card {
	out := make([]card.Card, 0, len(hand)-1)
	out = append(out, hand[:idx]...)
	return append(out, hand[idx+1:]...)
}

// Snapshot returns a deep copy of the room state in wire form.
func (r *Room) Snapshot() *models.RoomSnapshot {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.snapshotLocked()
}

func (r *Room) snapshotLocked() *models.RoomSnapshot {
	return &models.RoomSnapshot{
		ID:             r.ID,
		CreatedAt:      r.CreatedAt,
		Trump:          string(r.Trump),
		Player1:        r.Player1,
		Player2:        r.Player2,
		Player1Hand:    card.Tokens(r.Player1Hand),
		Player2Hand:    card.Tokens(r.Player2Hand),
		RemainingCards: card.Tokens(r.Remaining),
		TableCards:     card.Tokens(r.Table),
		UnbittenCards:  card.Tokens(r.Unbitten),
		PlayedCards:    card.Tokens(r.Played),
		PlayerMove:     r.PlayerMove,
		Finished:       r.Finished,
	}
}

// FromSnapshot rebuilds a room from its persisted wire form.
func FromSnapshot(snap *models.RoomSnapshot) (*Room, error) {
	trump, err := card.ParseSuit(snap.Trump)
	if err != nil {
		return nil, err
	}
	r := &Room{
		ID:         snap.ID,
		CreatedAt:  snap.CreatedAt,
		Trump:      trump,
		Player1:    snap.Player1,
		Player2:    snap.Player2,
		PlayerMove: snap.PlayerMove,
		Finished:   snap.Finished,
	}
	if r.Player1Hand, err = card.FromTokens(snap.Player1Hand); err != nil {
		return nil, err
	}
	if r.Player2Hand, err = card.FromTokens(snap.Player2Hand); err != nil {
		return nil, err
	}
	if r.Remaining, err = card.FromTokens(snap.RemainingCards); err != nil {
		return nil, err
	}
	if r.Table, err = card.FromTokens(snap.TableCards); err != nil {
		return nil, err
	}
	if r.Unbitten, err = card.FromTokens(snap.UnbittenCards); err != nil {
		return nil, err
	}
	if r.Played, err = card.FromTokens(snap.PlayedCards); err != nil {
		return nil, err
	}
	return r, nil
}

// helpers for store lookups; each takes the room lock briefly

func (r *Room) activeFor(playerID int64) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return !r.Finished && r.seatOf(playerID) != 0
}

func (r *Room) hasPlayer(playerID int64) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.seatOf(playerID) != 0
}

func (r *Room) joinable() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return !r.Finished && r.Player2 == 0
}

func (r *Room) finished() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.Finished
}
