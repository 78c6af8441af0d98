package room

import "errors"

// Transition precondition errors. Every operation either fails with one of
// these before touching any state, or fully commits.
var (
	ErrRoomNotFound    = errors.New("room not found")
	ErrRoomFull        = errors.New("room is already full")
	ErrAlreadyInRoom   = errors.New("player already has an active room")
	ErrNotAParticipant = errors.New("player is not in this room")
	ErrNotYourTurn     = errors.New("not your turn")
	ErrGameFinished    = errors.New("game is already finished")
	ErrCardNotInHand   = errors.New("card is not in your hand")
	ErrIllegalAttack   = errors.New("card rank is not on the table")
	ErrIllegalDefense  = errors.New("card cannot beat the attack card")
	ErrSelfJoin        = errors.New("cannot join your own room")
)
