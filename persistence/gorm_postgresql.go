// persistence/gorm_postgresql.go
package persistence

import (
	"errors"
	"fmt"
	"log"
	"os"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"

	"github.com/wfunc/durak/models"
)

// GormPostgreSQL 使用GORM的PostgreSQL实现
type GormPostgreSQL struct {
	db *gorm.DB
}

// NewGormPostgreSQL 创建GORM PostgreSQL数据库连接
func NewGormPostgreSQL(host string, port int, user, password, dbname string) (*GormPostgreSQL, error) {
	dsn := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
		host, port, user, password, dbname)

	// 配置GORM日志
	gormLogger := logger.New(
		log.New(os.Stdout, "\r\n", log.LstdFlags),
		logger.Config{
			SlowThreshold: time.Second,
			LogLevel:      logger.Silent,
			Colorful:      false,
		},
	)

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: gormLogger,
	})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}

	// 设置连接池
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(100)
	sqlDB.SetConnMaxLifetime(time.Hour)

	// 自动迁移表结构
	if err := db.AutoMigrate(
		&models.GormPlayer{},
		&models.GormRoom{},
		&models.GormGameRecord{},
	); err != nil {
		return nil, err
	}

	return &GormPostgreSQL{db: db}, nil
}

// SaveRoomState 保存房间快照（UPSERT）
func (p *GormPostgreSQL) SaveRoomState(snapshot *models.RoomSnapshot) error {
	row := models.GormRoom{
		RoomID:   snapshot.ID,
		Player1:  snapshot.Player1,
		Player2:  snapshot.Player2,
		Finished: snapshot.Finished,
		Snapshot: *snapshot,
	}
	return p.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "room_id"}},
		DoUpdates: clause.AssignmentColumns(
			[]string{"player2", "finished", "snapshot", "updated_at"},
		),
	}).Create(&row).Error
}

// LoadRoomState 加载房间快照
func (p *GormPostgreSQL) LoadRoomState(roomID string) (*models.RoomSnapshot, error) {
	var row models.GormRoom
	if err := p.db.Where("room_id = ?", roomID).First(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRecordNotFound
		}
		return nil, err
	}
	snapshot := row.Snapshot
	return &snapshot, nil
}

// SaveGameRecord 保存对局记录并更新双方玩家的统计计数
func (p *GormPostgreSQL) SaveGameRecord(record *models.GameRecord) error {
	return p.db.Transaction(func(tx *gorm.DB) error {
		row := models.GormGameRecord{
			RoomID:   record.RoomID,
			Trump:    record.Trump,
			Players:  record.Players,
			Duration: record.Duration,
		}
		if err := tx.Create(&row).Error; err != nil {
			return err
		}

		for _, info := range record.Players {
			player := models.GormPlayer{UserID: info.UserID, Name: fmt.Sprintf("player-%d", info.UserID)}
			if err := tx.Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "user_id"}},
				DoNothing: true,
			}).Create(&player).Error; err != nil {
				return err
			}

			updates := map[string]interface{}{
				"games_played": gorm.Expr("games_played + 1"),
			}
			switch info.Outcome {
			case models.OutcomeWin:
				updates["wins"] = gorm.Expr("wins + 1")
			case models.OutcomeLose:
				updates["losses"] = gorm.Expr("losses + 1")
			}
			if err := tx.Model(&models.GormPlayer{}).
				Where("user_id = ?", info.UserID).
				Updates(updates).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

// GetPlayerStats 聚合玩家的对局统计
func (p *GormPostgreSQL) GetPlayerStats(userID int64) (*models.PlayerStats, error) {
	var stats models.PlayerStats

	err := p.db.Raw(`
        SELECT
            COUNT(*) AS total_games,
            COALESCE(SUM(CASE WHEN p->>'outcome' = 'win' THEN 1 ELSE 0 END), 0) AS wins,
            COALESCE(SUM(CASE WHEN p->>'outcome' = 'lose' THEN 1 ELSE 0 END), 0) AS losses,
            COALESCE(SUM(CASE WHEN p->>'outcome' = 'abandoned' THEN 1 ELSE 0 END), 0) AS abandoned
        FROM game_records, jsonb_array_elements(players) AS p
        WHERE (p->>'user_id')::bigint = ?`,
		userID,
	).Scan(&stats).Error
	if err != nil {
		return nil, err
	}
	return &stats, nil
}

// Close 关闭数据库连接
func (p *GormPostgreSQL) Close() error {
	sqlDB, err := p.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
