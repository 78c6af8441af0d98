package room

import (
	"sync"
	"sync/atomic"
	"testing"

	"github.com/wfunc/durak/card"
)

func mustCard(t *testing.T, token string) card.Card {
	t.Helper()
	c, err := card.Parse(token)
	if err != nil {
		t.Fatalf("bad test card %q: %v", token, err)
	}
	return c
}

func mustCards(t *testing.T, tokens ...string) []card.Card {
	t.Helper()
	out := make([]card.Card, len(tokens))
	for i, token := range tokens {
		out[i] = mustCard(t, token)
	}
	return out
}

// stackDeck builds a full 36-card deck that deals the given hands: the
// first six cards go to player1 on create, the next six to player2 on
// join, the rest stay in the draw pile.
func stackDeck(t *testing.T, p1, p2 []card.Card) []card.Card {
	t.Helper()
	if len(p1) != handSize || len(p2) != handSize {
		t.Fatalf("stacked hands must have %d cards", handSize)
	}

	taken := make(map[card.Card]bool)
	deck := make([]card.Card, 0, 36)
	for _, c := range append(append([]card.Card{}, p1...), p2...) {
		if taken[c] {
			t.Fatalf("card %s stacked twice", c)
		}
		taken[c] = true
		deck = append(deck, c)
	}
	for _, c := range card.Deck() {
		if !taken[c] {
			deck = append(deck, c)
		}
	}
	return deck
}

// newTestRoom creates a joined two-player room with stacked hands.
func newTestRoom(t *testing.T, trump card.Suit, p1, p2 []card.Card) *Room {
	t.Helper()
	r := newRoom("test_room", 100, trump, stackDeck(t, p1, p2))
	if err := r.Join(200); err != nil {
		t.Fatalf("Join failed: %v", err)
	}
	return r
}

// checkDeckInvariant verifies that the five piles together hold each of the
// 36 cards exactly once.
func checkDeckInvariant(t *testing.T, r *Room) {
	t.Helper()

	seen := make(map[card.Card]int)
	add := func(cards []card.Card) {
		for _, c := range cards {
			seen[c]++
		}
	}
	add(r.Player1Hand)
	add(r.Player2Hand)
	add(r.Remaining)
	add(r.Table)
	add(r.Played)

	if len(seen) != 36 {
		t.Fatalf("deck invariant broken: %d distinct cards across piles", len(seen))
	}
	for c, n := range seen {
		if n != 1 {
			t.Fatalf("deck invariant broken: card %s appears %d times", c, n)
		}
	}
	for _, c := range r.Unbitten {
		found := false
		for _, tc := range r.Table {
			if tc == c {
				found = true
				break
			}
		}
		if !found {
			t.Fatalf("unbitten card %s is not on the table", c)
		}
	}
}

func TestNewRoomDealsSixAndKeepsPile(t *testing.T) {
	r := newRoom("r1", 100, card.Hearts, card.Deck())

	if len(r.Player1Hand) != 6 {
		t.Errorf("expected 6 cards for player1, got %d", len(r.Player1Hand))
	}
	if len(r.Player2Hand) != 0 {
		t.Errorf("player2 hand must stay empty until join, got %d", len(r.Player2Hand))
	}
	if len(r.Remaining) != 30 {
		t.Errorf("expected 30 cards in the draw pile, got %d", len(r.Remaining))
	}
	if r.PlayerMove != 1 {
		t.Errorf("expected playerMove 1, got %d", r.PlayerMove)
	}
	if r.Finished {
		t.Error("new room must not be finished")
	}
	checkDeckInvariant(t, r)
}

func TestJoinDealsAndValidates(t *testing.T) {
	r := newRoom("r1", 100, card.Hearts, card.Deck())

	if err := r.Join(100); err != ErrSelfJoin {
		t.Errorf("joining own room: expected ErrSelfJoin, got %v", err)
	}
	if err := r.Join(200); err != nil {
		t.Fatalf("Join failed: %v", err)
	}
	if len(r.Player2Hand) != 6 {
		t.Errorf("expected 6 cards for player2, got %d", len(r.Player2Hand))
	}
	if len(r.Remaining) != 24 {
		t.Errorf("expected 24 cards in the draw pile, got %d", len(r.Remaining))
	}
	checkDeckInvariant(t, r)

	if err := r.Join(300); err != ErrRoomFull {
		t.Errorf("joining a full room: expected ErrRoomFull, got %v", err)
	}
}

func TestMovesRejectedBeforeSecondPlayer(t *testing.T) {
	r := newRoom("r1", 100, card.Hearts, card.Deck())

	if err := r.Move(100, r.Player1Hand[0]); err != ErrNotYourTurn {
		t.Errorf("expected ErrNotYourTurn before join, got %v", err)
	}
	if err := r.Finish(100); err != ErrNotYourTurn {
		t.Errorf("expected ErrNotYourTurn before join, got %v", err)
	}
}

func TestFirstMoverByTrumpHoldings(t *testing.T) {
	tests := []struct {
		name string
		p1   []string
		p2   []string
		want int
	}{
		{
			name: "only player2 holds trump",
			p1:   []string{"6C", "7C", "8C", "9C", "XC", "JC"},
			p2:   []string{"6D", "7D", "8D", "9D", "XD", "6H"},
			want: 2,
		},
		{
			name: "only player1 holds trump",
			p1:   []string{"6C", "7C", "8C", "9C", "XC", "7H"},
			p2:   []string{"6D", "7D", "8D", "9D", "XD", "JD"},
			want: 1,
		},
		{
			name: "both hold trump, player1 weakest trump is higher",
			p1:   []string{"QH", "AH", "8C", "9C", "XC", "JC"},
			p2:   []string{"6H", "KH", "8D", "9D", "XD", "JD"},
			want: 1,
		},
		{
			name: "both hold trump, player2 weakest trump is higher",
			p1:   []string{"6H", "AH", "8C", "9C", "XC", "JC"},
			p2:   []string{"7H", "8H", "8D", "9D", "XD", "JD"},
			want: 2,
		},
		{
			name: "neither holds trump",
			p1:   []string{"6C", "7C", "8C", "9C", "XC", "JC"},
			p2:   []string{"6D", "7D", "8D", "9D", "XD", "JD"},
			want: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := newTestRoom(t, card.Hearts, mustCards(t, tt.p1...), mustCards(t, tt.p2...))
			if r.PlayerMove != tt.want {
				t.Errorf("expected playerMove %d, got %d", tt.want, r.PlayerMove)
			}
		})
	}
}

func TestAttackMove(t *testing.T) {
	p1 := mustCards(t, "6C", "7C", "8C", "9C", "XC", "JC")
	p2 := mustCards(t, "6D", "7D", "8D", "9D", "XD", "JD")
	r := newTestRoom(t, card.Hearts, p1, p2)
	// neither hand has trump, player1 opens

	if err := r.Move(999, mustCard(t, "6C")); err != ErrNotAParticipant {
		t.Errorf("expected ErrNotAParticipant, got %v", err)
	}
	if err := r.Move(200, mustCard(t, "6D")); err != ErrNotYourTurn {
		t.Errorf("expected ErrNotYourTurn for player2, got %v", err)
	}
	if err := r.Move(100, mustCard(t, "6D")); err != ErrCardNotInHand {
		t.Errorf("expected ErrCardNotInHand, got %v", err)
	}

	if err := r.Move(100, mustCard(t, "6C")); err != nil {
		t.Fatalf("attack failed: %v", err)
	}
	if len(r.Table) != 1 || len(r.Unbitten) != 1 {
		t.Fatalf("expected one card on table and unbitten, got %d/%d", len(r.Table), len(r.Unbitten))
	}
	if len(r.Player1Hand) != 5 {
		t.Errorf("expected attack card removed from hand, hand size %d", len(r.Player1Hand))
	}
	if r.PlayerMove != 1 {
		t.Errorf("attack must not change the turn, playerMove is %d", r.PlayerMove)
	}
	checkDeckInvariant(t, r)
}

func TestAttackRequiresRankOnTable(t *testing.T) {
	p1 := mustCards(t, "9D", "9C", "9H", "7C", "XC", "JC")
	p2 := mustCards(t, "6D", "7D", "8D", "8C", "XD", "JD")
	r := newTestRoom(t, card.Spades, p1, p2)
	r.PlayerMove = 1

	// An attack only lands while no card is unbitten, so back-to-back
	// attacks always have a defense resolving each one in between. The
	// test clears the queue by hand between plays to isolate the rank
	// constraint: the trick's defended history stays on the table and
	// limits what may be added next.
	for _, token := range []string{"9D", "9C", "9H"} {
		if err := r.Move(100, mustCard(t, token)); err != nil {
			t.Fatalf("attack %s failed: %v", token, err)
		}
		r.Unbitten = nil
		r.PlayerMove = 1
	}

	if err := r.Move(100, mustCard(t, "7C")); err != ErrIllegalAttack {
		t.Errorf("expected ErrIllegalAttack for rank 7, got %v", err)
	}
	if len(r.Table) != 3 {
		t.Errorf("rejected attack must not touch the table, got %d cards", len(r.Table))
	}
	if got := len(r.Player1Hand); got != 3 {
		t.Errorf("expected 3 cards left in hand, got %d", got)
	}
}

func TestDefenseMove(t *testing.T) {
	p1 := mustCards(t, "7C", "6D", "8D", "9D", "XD", "JD")
	p2 := mustCards(t, "6C", "8C", "9C", "XC", "JC", "QC")
	r := newTestRoom(t, card.Hearts, p1, p2)
	r.PlayerMove = 1

	if err := r.Move(100, mustCard(t, "7C")); err != nil {
		t.Fatalf("attack failed: %v", err)
	}
	r.PlayerMove = 2 // hand the turn to the defender

	if err := r.Move(200, mustCard(t, "6C")); err != ErrIllegalDefense {
		t.Errorf("lower rank same suit: expected ErrIllegalDefense, got %v", err)
	}
	if err := r.Move(200, mustCard(t, "8C")); err != nil {
		t.Fatalf("defense with 8C failed: %v", err)
	}

	if len(r.Unbitten) != 0 {
		t.Errorf("expected unbitten cards to empty, got %d", len(r.Unbitten))
	}
	if len(r.Table) != 2 {
		t.Errorf("expected both cards on table, got %d", len(r.Table))
	}
	if r.PlayerMove != 1 {
		t.Errorf("turn must flip once the last unbitten card is beaten, got %d", r.PlayerMove)
	}
	checkDeckInvariant(t, r)
}

func TestDefenseWithTrump(t *testing.T) {
	p1 := mustCards(t, "AC", "6D", "8D", "9D", "XD", "JD")
	p2 := mustCards(t, "6H", "8C", "9C", "XC", "JC", "QC")
	r := newTestRoom(t, card.Hearts, p1, p2)
	r.PlayerMove = 1

	if err := r.Move(100, mustCard(t, "AC")); err != nil {
		t.Fatalf("attack failed: %v", err)
	}
	r.PlayerMove = 2

	// lowest trump beats the highest off-suit attack
	if err := r.Move(200, mustCard(t, "6H")); err != nil {
		t.Fatalf("trump defense failed: %v", err)
	}
	if len(r.Unbitten) != 0 || r.PlayerMove != 1 {
		t.Errorf("trump defense must resolve the attack and flip the turn")
	}
}

func TestDefenseAnswersOldestAttackFirst(t *testing.T) {
	p1 := mustCards(t, "7C", "7D", "8D", "9D", "XD", "JD")
	p2 := mustCards(t, "8C", "9C", "XC", "JC", "QC", "KC")
	r := newTestRoom(t, card.Hearts, p1, p2)

	r.Table = mustCards(t, "7C", "7D")
	r.Unbitten = mustCards(t, "7C", "7D")
	r.Player1Hand = mustCards(t, "8D", "9D", "XD", "JD")
	r.PlayerMove = 2

	// 9C beats 7C but the card under test is the queue head, so a card
	// that only beats the newer attack must be rejected.
	if err := r.Move(200, mustCard(t, "8C")); err != nil {
		t.Fatalf("defense of queue head failed: %v", err)
	}
	if len(r.Unbitten) != 1 || r.Unbitten[0] != mustCard(t, "7D") {
		t.Fatalf("expected 7D to remain unbitten, got %v", r.Unbitten)
	}
	if r.PlayerMove != 2 {
		t.Errorf("turn must not flip while attacks remain unbitten")
	}

	if err := r.Move(200, mustCard(t, "9C")); err != ErrIllegalDefense {
		t.Errorf("9C cannot beat 7D: expected ErrIllegalDefense, got %v", err)
	}
}

func TestFinishMoveCollect(t *testing.T) {
	p1 := mustCards(t, "7C", "7D", "8D", "9D", "XD", "JD")
	p2 := mustCards(t, "6C", "8C", "9C", "XC", "JC", "QC")
	r := newTestRoom(t, card.Hearts, p1, p2)
	r.PlayerMove = 1

	if err := r.Move(100, mustCard(t, "7C")); err != nil {
		t.Fatalf("attack failed: %v", err)
	}
	r.PlayerMove = 2 // defender now faces 7C and gives up

	tableSize := len(r.Table)
	handBefore := len(r.Player2Hand)

	if err := r.Finish(200); err != nil {
		t.Fatalf("finish failed: %v", err)
	}

	if got := len(r.Player2Hand); got != handBefore+tableSize {
		t.Errorf("collector's hand must grow by %d, grew to %d from %d", tableSize, got, handBefore)
	}
	if r.PlayerMove != 2 {
		t.Errorf("turn must not flip when the table is collected, got %d", r.PlayerMove)
	}
	if len(r.Table) != 0 || len(r.Unbitten) != 0 {
		t.Error("table must be cleared after finishing")
	}
	if len(r.Played) != 0 {
		t.Error("collected cards must not reach the discard pile")
	}
	// refill tops player1 back up to six
	if len(r.Player1Hand) != 6 {
		t.Errorf("expected player1 refilled to 6, got %d", len(r.Player1Hand))
	}
	checkDeckInvariant(t, r)
}

func TestFinishMoveDiscardAndRefillOrder(t *testing.T) {
	p1 := mustCards(t, "7C", "7D", "8D", "9D", "XD", "JD")
	p2 := mustCards(t, "6C", "8C", "9C", "XC", "JC", "QC")
	r := newTestRoom(t, card.Hearts, p1, p2)

	// A fully beaten trick sits on the table.
	r.Table = mustCards(t, "7C", "8C")
	r.Unbitten = nil
	r.Player1Hand = mustCards(t, "7D", "8D", "9D", "XD", "JD")
	r.Player2Hand = mustCards(t, "6C", "9C", "XC", "JC", "QC")
	r.Remaining = mustCards(t, "6D", "AH", "KH") // drawn from the tail
	r.PlayerMove = 1

	if err := r.Finish(100); err != nil {
		t.Fatalf("finish failed: %v", err)
	}

	if len(r.Played) != 2 {
		t.Errorf("expected 2 discarded cards, got %d", len(r.Played))
	}
	if r.PlayerMove != 2 {
		t.Errorf("turn must flip after a beaten trick, got %d", r.PlayerMove)
	}
	// player2 attacks next and draws first: KH from the tail; then player1
	// draws AH.
	if got := r.Player2Hand[len(r.Player2Hand)-1]; got != mustCard(t, "KH") {
		t.Errorf("next attacker must draw first from the tail, drew %s", got)
	}
	if got := r.Player1Hand[len(r.Player1Hand)-1]; got != mustCard(t, "AH") {
		t.Errorf("defender draws second, drew %s", got)
	}
	if len(r.Remaining) != 1 {
		t.Errorf("expected 1 card left in the pile, got %d", len(r.Remaining))
	}
	if r.Finished {
		t.Error("game must continue while hands hold cards")
	}
}

func TestFinishMoveEndsGameWhenHandAndPileEmpty(t *testing.T) {
	p1 := mustCards(t, "7C", "7D", "8D", "9D", "XD", "JD")
	p2 := mustCards(t, "6C", "8C", "9C", "XC", "JC", "QC")
	r := newTestRoom(t, card.Hearts, p1, p2)

	r.Table = mustCards(t, "7C", "8C")
	r.Unbitten = nil
	r.Player1Hand = nil
	r.Player2Hand = mustCards(t, "6C", "9C", "XC", "JC", "QC")
	r.Remaining = nil
	r.PlayerMove = 1

	if err := r.Finish(100); err != nil {
		t.Fatalf("finish failed: %v", err)
	}
	if !r.Finished {
		t.Error("empty hand with empty pile must finish the game")
	}

	if err := r.Move(200, mustCard(t, "6C")); err != ErrGameFinished {
		t.Errorf("expected ErrGameFinished after termination, got %v", err)
	}
	if err := r.Finish(200); err != ErrGameFinished {
		t.Errorf("expected ErrGameFinished after termination, got %v", err)
	}
}

func TestLeaveRoom(t *testing.T) {
	p1 := mustCards(t, "7C", "7D", "8D", "9D", "XD", "JD")
	p2 := mustCards(t, "6C", "8C", "9C", "XC", "JC", "QC")
	r := newTestRoom(t, card.Hearts, p1, p2)

	if err := r.Leave(999); err != ErrNotAParticipant {
		t.Errorf("expected ErrNotAParticipant, got %v", err)
	}
	if err := r.Leave(200); err != nil {
		t.Fatalf("leave failed: %v", err)
	}
	if !r.Finished {
		t.Error("leave must finish the room")
	}
	if err := r.Leave(100); err != ErrGameFinished {
		t.Errorf("expected ErrGameFinished on second leave, got %v", err)
	}
}

func TestSnapshotRoundTrip(t *testing.T) {
	p1 := mustCards(t, "7C", "7D", "8D", "9D", "XD", "JD")
	p2 := mustCards(t, "6C", "8C", "9C", "XC", "JC", "QC")
	r := newTestRoom(t, card.Spades, p1, p2)
	r.PlayerMove = 1

	if err := r.Move(100, mustCard(t, "7C")); err != nil {
		t.Fatalf("attack failed: %v", err)
	}

	snap := r.Snapshot()
	restored, err := FromSnapshot(snap)
	if err != nil {
		t.Fatalf("FromSnapshot failed: %v", err)
	}

	if restored.ID != r.ID || restored.Trump != r.Trump ||
		restored.Player1 != r.Player1 || restored.Player2 != r.Player2 ||
		restored.PlayerMove != r.PlayerMove || restored.Finished != r.Finished {
		t.Error("restored room header differs from the original")
	}
	for i, c := range r.Player1Hand {
		if restored.Player1Hand[i] != c {
			t.Fatalf("player1 hand differs at %d", i)
		}
	}
	if len(restored.Unbitten) != 1 || restored.Unbitten[0] != mustCard(t, "7C") {
		t.Error("unbitten queue did not survive the round trip")
	}
	checkDeckInvariant(t, restored)
}

func TestFromSnapshotRejectsBadTrump(t *testing.T) {
	p1 := mustCards(t, "7C", "7D", "8D", "9D", "XD", "JD")
	p2 := mustCards(t, "6C", "8C", "9C", "XC", "JC", "QC")
	r := newTestRoom(t, card.Hearts, p1, p2)

	for _, trump := range []string{"", "Z", "HH"} {
		snap := r.Snapshot()
		snap.Trump = trump
		if _, err := FromSnapshot(snap); err == nil {
			t.Errorf("trump %q: expected an error", trump)
		}
	}
}

func TestConcurrentMovesWithSameCard(t *testing.T) {
	p1 := mustCards(t, "7C", "7D", "8D", "9D", "XD", "JD")
	p2 := mustCards(t, "6C", "8C", "9C", "XC", "JC", "QC")
	r := newTestRoom(t, card.Hearts, p1, p2)
	r.PlayerMove = 1

	// Two racing plays of the same card must commit exactly once: the
	// loser either no longer holds the card or faces the defense check
	// against it.
	c := mustCard(t, "7C")
	var wg sync.WaitGroup
	var successes int32
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := r.Move(100, c); err == nil {
				atomic.AddInt32(&successes, 1)
			}
		}()
	}
	wg.Wait()

	if successes != 1 {
		t.Errorf("expected exactly 1 successful move, got %d", successes)
	}
	if len(r.Table) != 1 {
		t.Errorf("expected 1 card on the table, got %d", len(r.Table))
	}
	if len(r.Player1Hand) != 5 {
		t.Errorf("expected 5 cards left in hand, got %d", len(r.Player1Hand))
	}
	checkDeckInvariant(t, r)
}

func TestSnapshotIsDetached(t *testing.T) {
	p1 := mustCards(t, "7C", "7D", "8D", "9D", "XD", "JD")
	p2 := mustCards(t, "6C", "8C", "9C", "XC", "JC", "QC")
	r := newTestRoom(t, card.Hearts, p1, p2)

	snap := r.Snapshot()
	snap.Player1Hand[0] = "AH"

	if r.Player1Hand[0] != mustCard(t, "7C") {
		t.Error("mutating a snapshot must not touch room state")
	}
}
