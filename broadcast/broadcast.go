// broadcast/broadcast.go
package broadcast

import (
	"encoding/json"

	"github.com/wfunc/durak/models"
	"github.com/wfunc/durak/network"
	"github.com/wfunc/durak/session"
)

// 广播接口
type Broadcaster interface {
	BroadcastRoomState(snapshot *models.RoomSnapshot) error
	BroadcastToUser(userID int64, msgID uint16, data []byte) error
}

// RoomBroadcaster pushes post-transition snapshots to the sessions of both
// seated players, so polling clients see the change immediately.
type RoomBroadcaster struct {
	sessionManager *session.Manager
}

func NewRoomBroadcaster(sessionManager *session.Manager) *RoomBroadcaster {
	return &RoomBroadcaster{sessionManager: sessionManager}
}

func (b *RoomBroadcaster) BroadcastRoomState(snapshot *models.RoomSnapshot) error {
	data, err := json.Marshal(snapshot)
	if err != nil {
		return err
	}

	b.BroadcastToUser(snapshot.Player1, network.MsgTypeRoomState, data)
	if snapshot.Player2 != 0 {
		b.BroadcastToUser(snapshot.Player2, network.MsgTypeRoomState, data)
	}
	return nil
}

func (b *RoomBroadcaster) BroadcastToUser(userID int64, msgID uint16, data []byte) error {
	for _, s := range b.sessionManager.GetByUserID(userID) {
		if err := s.Send(msgID, data); err != nil {
			// 发送失败的连接由读循环负责清理
			continue
		}
	}
	return nil
}
