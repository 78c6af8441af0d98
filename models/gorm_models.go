// models/gorm_models.go
package models

import (
	"gorm.io/gorm"
)

// GormPlayer 玩家模型
type GormPlayer struct {
	gorm.Model
	UserID      int64  `gorm:"uniqueIndex;not null"`
	Name        string `gorm:"not null"`
	GamesPlayed int    `gorm:"default:0"`
	Wins        int    `gorm:"default:0"`
	Losses      int    `gorm:"default:0"`
	Coins       int64  `gorm:"default:1000"`
}

func (GormPlayer) TableName() string { return "players" }

// GormRoom 房间模型
//
// The scalar columns mirror the lookups the store performs (active room by
// participant, joinable rooms); the full card state lives in the jsonb
// snapshot column.
type GormRoom struct {
	gorm.Model
	RoomID   string       `gorm:"uniqueIndex;not null"`
	Player1  int64        `gorm:"index;not null"`
	Player2  int64        `gorm:"index"`
	Finished bool         `gorm:"index"`
	Snapshot RoomSnapshot `gorm:"type:jsonb;serializer:json;not null"`
}

func (GormRoom) TableName() string { return "game_rooms" }

// GormGameRecord 对局记录模型
type GormGameRecord struct {
	gorm.Model
	RoomID   string       `gorm:"index;not null"`
	Trump    string       `gorm:"not null"`
	Players  []PlayerInfo `gorm:"type:jsonb;serializer:json;not null"`
	Duration int          `gorm:"default:0"` // 对局时长(秒)
}

func (GormGameRecord) TableName() string { return "game_records" }
