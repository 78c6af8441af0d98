// persistence/interface.go
package persistence

import (
	"fmt"

	"github.com/wfunc/durak/models"
)

// Database 数据库接口
//
// The room store writes every committed transition through SaveRoomState
// and reads snapshots back with LoadRoomState; finished games are appended
// as records and aggregated into per-player stats.
type Database interface {
	SaveRoomState(snapshot *models.RoomSnapshot) error
	LoadRoomState(roomID string) (*models.RoomSnapshot, error)
	SaveGameRecord(record *models.GameRecord) error
	GetPlayerStats(userID int64) (*models.PlayerStats, error)
	Close() error
}

// 错误定义
var (
	ErrRecordNotFound = fmt.Errorf("record not found")
)
