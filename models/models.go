// models/models.go
package models

import (
	"time"
)

// RoomSnapshot is the full post-transition state of one game room. Cards are
// carried in their 2-character wire tokens so a snapshot round-trips through
// persistence and the client protocol unchanged.
type RoomSnapshot struct {
	ID             string    `json:"id"`
	CreatedAt      time.Time `json:"created_at"`
	Trump          string    `json:"trump"`
	Player1        int64     `json:"player1"`
	Player2        int64     `json:"player2"` // 0 until the second seat is taken
	Player1Hand    []string  `json:"player1_hand"`
	Player2Hand    []string  `json:"player2_hand"`
	RemainingCards []string  `json:"remaining_cards"`
	TableCards     []string  `json:"table_cards"`
	UnbittenCards  []string  `json:"unbitten_cards"`
	PlayedCards    []string  `json:"played_cards"`
	PlayerMove     int       `json:"player_move"`
	Finished       bool      `json:"finished"`
}

// GameRecord 对局记录模型
type GameRecord struct {
	RoomID    string       `json:"room_id"`
	Trump     string       `json:"trump"`
	Players   []PlayerInfo `json:"players"`
	Duration  int          `json:"duration"` // seconds
	CreatedAt time.Time    `json:"created_at"`
}

// PlayerInfo 玩家对局结果（用于对局记录）
type PlayerInfo struct {
	UserID  int64  `json:"user_id"`
	Outcome string `json:"outcome"` // win/lose/draw/abandoned
}

// PlayerStats 玩家统计信息
type PlayerStats struct {
	TotalGames int `json:"total_games"`
	Wins       int `json:"wins"`
	Losses     int `json:"losses"`
	Abandoned  int `json:"abandoned"`
}

const (
	OutcomeWin       = "win"
	OutcomeLose      = "lose"
	OutcomeDraw      = "draw"
	OutcomeAbandoned = "abandoned"
)
