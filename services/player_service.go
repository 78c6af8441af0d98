// services/player_service.go
package services

import (
	"time"

	"github.com/wfunc/durak/models"
	"github.com/wfunc/durak/persistence"
)

type PlayerService struct {
	db persistence.Database
}

func NewPlayerService(db persistence.Database) *PlayerService {
	return &PlayerService{db: db}
}

// RecordFinishedRoom turns a terminal room snapshot into a game record.
// A game ended by leaving carries no win/loss attribution; a played-out
// game credits the player who emptied their hand first.
func (s *PlayerService) RecordFinishedRoom(snapshot *models.RoomSnapshot, abandoned bool) error {
	outcome1, outcome2 := outcomes(snapshot, abandoned)

	record := &models.GameRecord{
		RoomID: snapshot.ID,
		Trump:  snapshot.Trump,
		Players: []models.PlayerInfo{
			{UserID: snapshot.Player1, Outcome: outcome1},
			{UserID: snapshot.Player2, Outcome: outcome2},
		},
		Duration:  int(time.Since(snapshot.CreatedAt) / time.Second),
		CreatedAt: time.Now(),
	}
	return s.db.SaveGameRecord(record)
}

func outcomes(snapshot *models.RoomSnapshot, abandoned bool) (string, string) {
	if abandoned {
		return models.OutcomeAbandoned, models.OutcomeAbandoned
	}
	empty1 := len(snapshot.Player1Hand) == 0
	empty2 := len(snapshot.Player2Hand) == 0
	switch {
	case empty1 && empty2:
		return models.OutcomeDraw, models.OutcomeDraw
	case empty1:
		return models.OutcomeWin, models.OutcomeLose
	default:
		return models.OutcomeLose, models.OutcomeWin
	}
}

// GetPlayerStats 获取玩家统计
func (s *PlayerService) GetPlayerStats(userID int64) (*models.PlayerStats, error) {
	return s.db.GetPlayerStats(userID)
}
