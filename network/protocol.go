package network

// Message IDs of the client protocol. Requests 1xx manage rooms, 2xx are
// game moves; 3xx are server-pushed snapshots.
const (
	MsgTypeHeartbeat = 1
	MsgTypeIdentify  = 2 // payload: {"user_id": N}, binds the session to a player
	MsgTypeError     = 3

	MsgTypeCreateRoom = 101
	MsgTypeJoinRoom   = 102
	MsgTypeLeaveRoom  = 103
	MsgTypeListRooms  = 104
	MsgTypeGetRoom    = 105
	MsgTypeFindRoom   = 106

	MsgTypeMakeMove   = 201
	MsgTypeFinishMove = 202

	MsgTypeRoomState = 301 // pushed to both players after every transition
)
