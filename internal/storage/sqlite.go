// Package storage provides SQLite-based persistence for finished bowling games.
// Uses the pure-Go modernc.org/sqlite driver to avoid CGO dependencies.
package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite" // Pure Go SQLite driver

	"github.com/vovakirdan/tui-bowling/internal/bowling"
	"github.com/vovakirdan/tui-bowling/internal/multiplayer"
)

// Store manages the SQLite database connection for game history.
type Store struct {
	db *sql.DB
}

// GameRecord is one finished game as stored.
type GameRecord struct {
	ID           int64
	GameID       uuid.UUID
	Player       string
	Model        string
	Total        int
	GutterBalls  int
	LaneCode     string
	Duration     time.Duration
	CreatedAt    time.Time
	Frames       []FrameRecord
	Achievements []bowling.AchievementKind
}

// FrameRecord is one stored frame of a game.
type FrameRecord struct {
	Number int
	Pins   int
	Score  int
	Rolls  []int
	Mark   bowling.Mark
}

// Meta carries optional context stored alongside a result.
type Meta struct {
	LaneCode string
	Duration time.Duration
}

// Open creates or opens a SQLite database at the given path.
// It creates the parent directories if needed and runs migrations.
func Open(dbPath string) (*Store, error) {
	// Expand ~ to home directory
	if dbPath != "" && dbPath[0] == '~' {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("storage: cannot expand home directory: %w", err)
		}
		dbPath = filepath.Join(home, dbPath[1:])
	}

	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("storage: cannot create directory %s: %w", dir, err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("storage: cannot open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("storage: cannot connect to database: %w", err)
	}

	store := &Store{db: db}

	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("storage: migration failed: %w", err)
	}

	return store, nil
}

// migrate creates the database schema if it doesn't exist.
func (s *Store) migrate() error {
	schema := `
		CREATE TABLE IF NOT EXISTS games (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			game_id TEXT NOT NULL UNIQUE,
			player TEXT NOT NULL DEFAULT '',
			model TEXT NOT NULL,
			total INTEGER NOT NULL,
			gutters INTEGER NOT NULL DEFAULT 0,
			lane_code TEXT NOT NULL DEFAULT '',
			duration_secs INTEGER NOT NULL DEFAULT 0,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		);
		CREATE INDEX IF NOT EXISTS idx_games_total ON games(model, total DESC);
		CREATE INDEX IF NOT EXISTS idx_games_player ON games(player);

		CREATE TABLE IF NOT EXISTS frames (
			game_id TEXT NOT NULL,
			number INTEGER NOT NULL,
			pins INTEGER NOT NULL,
			score INTEGER NOT NULL,
			rolls TEXT NOT NULL,
			mark TEXT NOT NULL DEFAULT '',
			PRIMARY KEY (game_id, number)
		);

		CREATE TABLE IF NOT EXISTS achievements (
			game_id TEXT NOT NULL,
			position INTEGER NOT NULL,
			kind TEXT NOT NULL,
			PRIMARY KEY (game_id, position)
		);
		CREATE INDEX IF NOT EXISTS idx_achievements_kind ON achievements(kind);
	`

	_, err := s.db.Exec(schema)
	return err
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// SaveGame records a finished game with its frames and achievements.
// Returns the row ID of the game.
func (s *Store) SaveGame(id uuid.UUID, player string, r bowling.Result, meta Meta) (int64, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return 0, fmt.Errorf("storage: cannot begin transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.Exec(
		`INSERT INTO games (game_id, player, model, total, gutters, lane_code, duration_secs)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		id.String(), player, r.Model, r.Total, r.GutterBalls, meta.LaneCode, int(meta.Duration.Seconds()),
	)
	if err != nil {
		return 0, fmt.Errorf("storage: cannot save game: %w", err)
	}

	for _, f := range r.Frames {
		if _, err := tx.Exec(
			"INSERT INTO frames (game_id, number, pins, score, rolls, mark) VALUES (?, ?, ?, ?, ?, ?)",
			id.String(), f.Number, f.Pins, f.Score, joinRolls(f.Rolls), string(f.Mark),
		); err != nil {
			return 0, fmt.Errorf("storage: cannot save frame %d: %w", f.Number, err)
		}
	}

	for i, a := range r.Achievements {
		if _, err := tx.Exec(
			"INSERT INTO achievements (game_id, position, kind) VALUES (?, ?, ?)",
			id.String(), i, string(a),
		); err != nil {
			return 0, fmt.Errorf("storage: cannot save achievement: %w", err)
		}
	}

	rowID, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("storage: cannot get inserted ID: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("storage: cannot commit game: %w", err)
	}
	return rowID, nil
}

// SaveLaneResult implements multiplayer.ResultSaver.
// This adapter allows the hub to save games without direct storage dependency.
func (s *Store) SaveLaneResult(data multiplayer.ResultData) error {
	_, err := s.SaveGame(data.GameID, data.Player, data.Result, Meta{
		LaneCode: data.LaneCode,
		Duration: data.Duration,
	})
	return err
}

// Ensure Store implements ResultSaver
var _ multiplayer.ResultSaver = (*Store)(nil)

const gameColumns = `id, game_id, player, model, total, gutters, lane_code, duration_secs, created_at`

// TopScores retrieves the best N games under the given scoring model.
// An empty model matches every model.
func (s *Store) TopScores(model string, limit int) ([]GameRecord, error) {
	if limit <= 0 {
		limit = 10
	}

	rows, err := s.db.Query(
		`SELECT `+gameColumns+`
		 FROM games
		 WHERE ? = '' OR model = ?
		 ORDER BY total DESC, id ASC
		 LIMIT ?`,
		model, model, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("storage: cannot query scores: %w", err)
	}
	return s.collect(rows, false)
}

// RecentGames retrieves the most recent games with their frames.
func (s *Store) RecentGames(limit int) ([]GameRecord, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := s.db.Query(
		`SELECT `+gameColumns+`
		 FROM games
		 ORDER BY id DESC
		 LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("storage: cannot query games: %w", err)
	}
	return s.collect(rows, true)
}

// Game retrieves one game by its identifier, or nil if unknown.
func (s *Store) Game(id uuid.UUID) (*GameRecord, error) {
	rows, err := s.db.Query(
		`SELECT `+gameColumns+` FROM games WHERE game_id = ?`,
		id.String(),
	)
	if err != nil {
		return nil, fmt.Errorf("storage: cannot query game: %w", err)
	}
	games, err := s.collect(rows, true)
	if err != nil {
		return nil, err
	}
	if len(games) == 0 {
		return nil, nil
	}
	return &games[0], nil
}

// collect scans game rows and optionally loads frames and achievements.
func (s *Store) collect(rows *sql.Rows, details bool) ([]GameRecord, error) {
	defer rows.Close()

	var games []GameRecord
	for rows.Next() {
		var g GameRecord
		var gameID string
		var secs int
		var createdAt any
		if err := rows.Scan(&g.ID, &gameID, &g.Player, &g.Model, &g.Total, &g.GutterBalls,
			&g.LaneCode, &secs, &createdAt); err != nil {
			return nil, fmt.Errorf("storage: cannot scan row: %w", err)
		}
		parsed, err := uuid.Parse(gameID)
		if err != nil {
			return nil, fmt.Errorf("storage: bad game id %q: %w", gameID, err)
		}
		g.GameID = parsed
		g.Duration = time.Duration(secs) * time.Second
		g.CreatedAt = parseTime(createdAt)
		games = append(games, g)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("storage: row iteration error: %w", err)
	}
	rows.Close()

	if !details {
		return games, nil
	}
	for i := range games {
		if err := s.loadDetails(&games[i]); err != nil {
			return nil, err
		}
	}
	return games, nil
}

func (s *Store) loadDetails(g *GameRecord) error {
	rows, err := s.db.Query(
		"SELECT number, pins, score, rolls, mark FROM frames WHERE game_id = ? ORDER BY number",
		g.GameID.String(),
	)
	if err != nil {
		return fmt.Errorf("storage: cannot query frames: %w", err)
	}
	for rows.Next() {
		var f FrameRecord
		var rolls, mark string
		if err := rows.Scan(&f.Number, &f.Pins, &f.Score, &rolls, &mark); err != nil {
			rows.Close()
			return fmt.Errorf("storage: cannot scan frame: %w", err)
		}
		f.Rolls = splitRolls(rolls)
		f.Mark = bowling.Mark(mark)
		g.Frames = append(g.Frames, f)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return fmt.Errorf("storage: row iteration error: %w", err)
	}
	rows.Close()

	rows, err = s.db.Query(
		"SELECT kind FROM achievements WHERE game_id = ? ORDER BY position",
		g.GameID.String(),
	)
	if err != nil {
		return fmt.Errorf("storage: cannot query achievements: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var kind string
		if err := rows.Scan(&kind); err != nil {
			return fmt.Errorf("storage: cannot scan achievement: %w", err)
		}
		g.Achievements = append(g.Achievements, bowling.AchievementKind(kind))
	}
	return rows.Err()
}

// HighScore returns the highest total under the given model.
// Returns 0 if no games exist.
func (s *Store) HighScore(model string) (int, error) {
	var score sql.NullInt64
	err := s.db.QueryRow(
		"SELECT MAX(total) FROM games WHERE ? = '' OR model = ?",
		model, model,
	).Scan(&score)
	if err != nil {
		return 0, fmt.Errorf("storage: cannot query high score: %w", err)
	}
	if !score.Valid {
		return 0, nil
	}
	return int(score.Int64), nil
}

// Stats contains aggregated statistics over stored games.
type Stats struct {
	Games        int
	HighScore    int
	AvgScore     float64
	Strikes      int
	Spares       int
	GutterBalls  int
	Achievements map[bowling.AchievementKind]int
	LastPlayed   time.Time
}

// GetStats aggregates every stored game.
func (s *Store) GetStats() (*Stats, error) {
	stats := &Stats{Achievements: make(map[bowling.AchievementKind]int)}

	var lastPlayed any
	err := s.db.QueryRow(
		`SELECT COUNT(*), COALESCE(MAX(total), 0), COALESCE(AVG(total), 0),
		        COALESCE(SUM(gutters), 0), MAX(created_at)
		 FROM games`,
	).Scan(&stats.Games, &stats.HighScore, &stats.AvgScore, &stats.GutterBalls, &lastPlayed)
	if err != nil {
		return nil, fmt.Errorf("storage: cannot get stats: %w", err)
	}
	stats.LastPlayed = parseTime(lastPlayed)

	err = s.db.QueryRow(
		`SELECT COALESCE(SUM(mark = ?), 0), COALESCE(SUM(mark = ?), 0) FROM frames`,
		string(bowling.MarkStrike), string(bowling.MarkSpare),
	).Scan(&stats.Strikes, &stats.Spares)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("storage: cannot count marks: %w", err)
	}

	rows, err := s.db.Query("SELECT kind, COUNT(*) FROM achievements GROUP BY kind")
	if err != nil {
		return nil, fmt.Errorf("storage: cannot count achievements: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var kind string
		var n int
		if err := rows.Scan(&kind, &n); err != nil {
			return nil, fmt.Errorf("storage: cannot scan achievement count: %w", err)
		}
		stats.Achievements[bowling.AchievementKind(kind)] = n
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("storage: row iteration error: %w", err)
	}

	return stats, nil
}

// ClearGames deletes all stored games.
func (s *Store) ClearGames() error {
	for _, table := range []string{"achievements", "frames", "games"} {
		if _, err := s.db.Exec("DELETE FROM " + table); err != nil {
			return fmt.Errorf("storage: cannot clear %s: %w", table, err)
		}
	}
	return nil
}

func joinRolls(rolls []int) string {
	parts := make([]string, len(rolls))
	for i, r := range rolls {
		parts[i] = strconv.Itoa(r)
	}
	return strings.Join(parts, ",")
}

func splitRolls(s string) []int {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	rolls := make([]int, 0, len(parts))
	for _, p := range parts {
		if n, err := strconv.Atoi(p); err == nil {
			rolls = append(rolls, n)
		}
	}
	return rolls
}

// parseTime handles both time.Time and string datetimes from the driver.
func parseTime(v any) time.Time {
	switch t := v.(type) {
	case time.Time:
		return t
	case string:
		if parsed, err := time.Parse("2006-01-02 15:04:05", t); err == nil {
			return parsed
		}
	}
	return time.Time{}
}
