// persistence/postgresql.go
package persistence

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "github.com/lib/pq" // PostgreSQL 驱动

	"github.com/wfunc/durak/models"
)

// PostgreSQL is the raw database/sql implementation of Database, kept as
// the lighter alternative to the GORM one (selected via config).
type PostgreSQL struct {
	db *sql.DB
}

// NewPostgreSQL 创建 PostgreSQL 数据库连接
func NewPostgreSQL(host string, port int, user, password, dbname string) (*PostgreSQL, error) {
	connStr := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
		host, port, user, password, dbname)

	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, err
	}

	// 测试连接
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		return nil, err
	}

	// 设置连接池参数
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(25)
	db.SetConnMaxLifetime(5 * time.Minute)

	// 初始化表结构
	if err := initTables(db); err != nil {
		return nil, err
	}

	return &PostgreSQL{db: db}, nil
}

// initTables 初始化数据库表结构
func initTables(db *sql.DB) error {
	_, err := db.Exec(`
        CREATE TABLE IF NOT EXISTS game_rooms (
            id SERIAL PRIMARY KEY,
            room_id VARCHAR(64) UNIQUE NOT NULL,
            player1 BIGINT NOT NULL,
            player2 BIGINT NOT NULL DEFAULT 0,
            finished BOOLEAN NOT NULL DEFAULT FALSE,
            snapshot JSONB NOT NULL,
            created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
            updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
        )
    `)
	if err != nil {
		return err
	}

	_, err = db.Exec(`
        CREATE TABLE IF NOT EXISTS game_records (
            id SERIAL PRIMARY KEY,
            room_id VARCHAR(64) NOT NULL,
            trump VARCHAR(1) NOT NULL,
            players JSONB NOT NULL,
            duration INT NOT NULL DEFAULT 0,
            created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
        )
    `)
	if err != nil {
		return err
	}

	// 创建索引以提高查询性能
	_, err = db.Exec(`
        CREATE INDEX IF NOT EXISTS idx_game_rooms_player1 ON game_rooms(player1);
        CREATE INDEX IF NOT EXISTS idx_game_rooms_player2 ON game_rooms(player2);
        CREATE INDEX IF NOT EXISTS idx_game_rooms_finished ON game_rooms(finished);
        CREATE INDEX IF NOT EXISTS idx_game_records_room_id ON game_records(room_id);
    `)

	return err
}

// SaveRoomState 保存房间快照（UPSERT）
func (p *PostgreSQL) SaveRoomState(snapshot *models.RoomSnapshot) error {
	data, err := json.Marshal(snapshot)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	query := `
        INSERT INTO game_rooms (room_id, player1, player2, finished, snapshot)
        VALUES ($1, $2, $3, $4, $5)
        ON CONFLICT (room_id)
        DO UPDATE SET player2 = $3, finished = $4, snapshot = $5, updated_at = CURRENT_TIMESTAMP
    `

	_, err = p.db.ExecContext(ctx, query,
		snapshot.ID, snapshot.Player1, snapshot.Player2, snapshot.Finished, data)
	return err
}

// LoadRoomState 加载房间快照
func (p *PostgreSQL) LoadRoomState(roomID string) (*models.RoomSnapshot, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var data []byte
	query := `SELECT snapshot FROM game_rooms WHERE room_id = $1`
	if err := p.db.QueryRowContext(ctx, query, roomID).Scan(&data); err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrRecordNotFound
		}
		return nil, err
	}

	var snapshot models.RoomSnapshot
	if err := json.Unmarshal(data, &snapshot); err != nil {
		return nil, err
	}
	return &snapshot, nil
}

// SaveGameRecord 保存对局记录
func (p *PostgreSQL) SaveGameRecord(record *models.GameRecord) error {
	players, err := json.Marshal(record.Players)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	query := `
        INSERT INTO game_records (room_id, trump, players, duration)
        VALUES ($1, $2, $3, $4)
    `

	_, err = p.db.ExecContext(ctx, query, record.RoomID, record.Trump, players, record.Duration)
	return err
}

// GetPlayerStats 聚合玩家的对局统计
func (p *PostgreSQL) GetPlayerStats(userID int64) (*models.PlayerStats, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var stats models.PlayerStats
	query := `
        SELECT
            COUNT(*),
            COALESCE(SUM(CASE WHEN p->>'outcome' = 'win' THEN 1 ELSE 0 END), 0),
            COALESCE(SUM(CASE WHEN p->>'outcome' = 'lose' THEN 1 ELSE 0 END), 0),
            COALESCE(SUM(CASE WHEN p->>'outcome' = 'abandoned' THEN 1 ELSE 0 END), 0)
        FROM game_records, jsonb_array_elements(players) AS p
        WHERE (p->>'user_id')::bigint = $1
    `
	err := p.db.QueryRowContext(ctx, query, userID).
		Scan(&stats.TotalGames, &stats.Wins, &stats.Losses, &stats.Abandoned)
	if err != nil {
		return nil, err
	}
	return &stats, nil
}

// Close 关闭数据库连接
func (p *PostgreSQL) Close() error {
	return p.db.Close()
}
