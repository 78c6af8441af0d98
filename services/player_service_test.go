package services

import (
	"testing"
	"time"

	"github.com/wfunc/durak/models"
)

type recordingDB struct {
	records []*models.GameRecord
}

func (r *recordingDB) SaveRoomState(*models.RoomSnapshot) error { return nil }

func (r *recordingDB) LoadRoomState(string) (*models.RoomSnapshot, error) {
	return nil, nil
}

func (r *recordingDB) SaveGameRecord(rec *models.GameRecord) error {
	r.records = append(r.records, rec)
	return nil
}

func (r *recordingDB) GetPlayerStats(int64) (*models.PlayerStats, error) {
	return &models.PlayerStats{}, nil
}

func (r *recordingDB) Close() error { return nil }

func finishedSnapshot() *models.RoomSnapshot {
	return &models.RoomSnapshot{
		ID:          "room-1",
		CreatedAt:   time.Now().Add(-90 * time.Second),
		Trump:       "H",
		Player1:     100,
		Player2:     200,
		Player1Hand: []string{},
		Player2Hand: []string{"6C", "7C"},
		Finished:    true,
	}
}

func TestRecordFinishedRoomOutcomes(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(*models.RoomSnapshot)
		abandoned bool
		want1     string
		want2     string
	}{
		{
			name:   "player1 emptied their hand",
			mutate: func(*models.RoomSnapshot) {},
			want1:  models.OutcomeWin,
			want2:  models.OutcomeLose,
		},
		{
			name: "player2 emptied their hand",
			mutate: func(s *models.RoomSnapshot) {
				s.Player1Hand = []string{"6C"}
				s.Player2Hand = []string{}
			},
			want1: models.OutcomeLose,
			want2: models.OutcomeWin,
		},
		{
			name: "both hands empty",
			mutate: func(s *models.RoomSnapshot) {
				s.Player2Hand = []string{}
			},
			want1: models.OutcomeDraw,
			want2: models.OutcomeDraw,
		},
		{
			name:      "abandoned game",
			mutate:    func(*models.RoomSnapshot) {},
			abandoned: true,
			want1:     models.OutcomeAbandoned,
			want2:     models.OutcomeAbandoned,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db := &recordingDB{}
			svc := NewPlayerService(db)

			snap := finishedSnapshot()
			tt.mutate(snap)

			if err := svc.RecordFinishedRoom(snap, tt.abandoned); err != nil {
				t.Fatalf("RecordFinishedRoom failed: %v", err)
			}
			if len(db.records) != 1 {
				t.Fatalf("expected 1 record, got %d", len(db.records))
			}

			rec := db.records[0]
			if rec.RoomID != snap.ID || rec.Trump != snap.Trump {
				t.Errorf("record header mismatch: %+v", rec)
			}
			if len(rec.Players) != 2 {
				t.Fatalf("expected 2 players, got %d", len(rec.Players))
			}
			if rec.Players[0].Outcome != tt.want1 || rec.Players[1].Outcome != tt.want2 {
				t.Errorf("outcomes (%s, %s), want (%s, %s)",
					rec.Players[0].Outcome, rec.Players[1].Outcome, tt.want1, tt.want2)
			}
			if rec.Duration < 89 {
				t.Errorf("expected duration of at least 89s, got %d", rec.Duration)
			}
		})
	}
}
