package postgres

import (
	"database/sql"
	"fmt"
	"log"

	"github.com/lib/pq"
	"github.com/princekumarofficial/stories-viewer/internal/config"
	"github.com/princekumarofficial/stories-viewer/internal/types"
	"github.com/princekumarofficial/stories-viewer/internal/types/users"
)

type Postgres struct {
	Db *sql.DB
}

func NewPostgres(cfg *config.Config) (*Postgres, error) {
	connStr := fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		cfg.PGSQL.Host, cfg.PGSQL.Port, cfg.PGSQL.User, cfg.PGSQL.Password, cfg.PGSQL.DBName, cfg.PGSQL.SSLMode)

	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, err
	}

	err = db.Ping()
	if err != nil {
		return nil, err
	}

	log.Println("Connected to Postgres database")

	pg := &Postgres{Db: db}
	err = pg.CreateTables()
	if err != nil {
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return pg, nil
}

func (p *Postgres) CreateTables() error {
	queries := []string{
		`
		CREATE TABLE IF NOT EXISTS users (
			id SERIAL PRIMARY KEY,
			email VARCHAR(255) UNIQUE NOT NULL,
			username VARCHAR(255) UNIQUE NOT NULL,
			avatar TEXT,
			password TEXT NOT NULL,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		);
		`,
		`
		CREATE TABLE IF NOT EXISTS stories (
			id SERIAL PRIMARY KEY,
			author_id INTEGER NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			text TEXT,
			media_key VARCHAR(255),
			media_kind VARCHAR(20),
			audio_key VARCHAR(255),
			duration_ms BIGINT NOT NULL DEFAULT 0,
			background VARCHAR(20),
			visibility VARCHAR(50) NOT NULL CHECK (visibility IN ('friends', 'private', 'public')),
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			expires_at TIMESTAMP DEFAULT (CURRENT_TIMESTAMP + INTERVAL '24 hours'),
			deleted_at TIMESTAMP
		);
		`,
		`
		CREATE TABLE IF NOT EXISTS story_audience (
			story_id INTEGER NOT NULL REFERENCES stories(id) ON DELETE CASCADE,
			user_id INTEGER NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			PRIMARY KEY (story_id, user_id)
		);
		`,
		`CREATE TABLE IF NOT EXISTS story_views (
			story_id INTEGER NOT NULL REFERENCES stories(id) ON DELETE CASCADE,
			viewer_id INTEGER NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			viewed_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			PRIMARY KEY (story_id, viewer_id)
		);`,
		`CREATE TABLE IF NOT EXISTS reposts (
			story_id INTEGER NOT NULL REFERENCES stories(id) ON DELETE CASCADE,
			user_id INTEGER NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			reposted_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			PRIMARY KEY (story_id, user_id)
		);`,
		`CREATE TABLE IF NOT EXISTS follows (
			follower_id INTEGER NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			followed_id INTEGER NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			PRIMARY KEY (follower_id, followed_id)
		);`,
	}

	for _, q := range queries {
		if _, err := p.Db.Exec(q); err != nil {
			return err
		}
	}

	return nil
}

func (p *Postgres) CreateUser(email, username, password string) (string, error) {
	var userID int
	query := `
	INSERT INTO users (email, username, password)
	VALUES ($1, $2, $3)
	RETURNING id
	`

	err := p.Db.QueryRow(query, email, username, password).Scan(&userID)
	if err != nil {
		return "", err
	}

	return fmt.Sprintf("%d", userID), nil
}

func (p *Postgres) GetUserByEmail(email string) (string, string, error) {
	var userID int
	var hashedPassword string
	query := `
	SELECT id, password FROM users WHERE email = $1
	`

	err := p.Db.QueryRow(query, email).Scan(&userID, &hashedPassword)
	if err != nil {
		return "", "", err
	}

	return fmt.Sprintf("%d", userID), hashedPassword, nil
}

func (p *Postgres) GetUsersByIDs(ids []string) (map[string]users.User, error) {
	query := `
	SELECT id, email, username, COALESCE(avatar, '') FROM users WHERE id = ANY($1::integer[])
	`

	rows, err := p.Db.Query(query, pq.Array(ids))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[string]users.User, len(ids))
	for rows.Next() {
		var u users.User
		if err := rows.Scan(&u.ID, &u.Email, &u.Username, &u.Avatar); err != nil {
			return nil, err
		}
		out[u.ID] = u
	}

	return out, rows.Err()
}

func (p *Postgres) CreateStory(authorID string, story types.StoryPostRequest) (string, error) {
	var storyID int
	query := `
	INSERT INTO stories (author_id, text, media_key, media_kind, audio_key, duration_ms, background, visibility)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	RETURNING id
	`

	err := p.Db.QueryRow(query, authorID, story.Text, story.MediaKey, string(story.MediaKind),
		story.AudioKey, story.DurationMs, story.Background, string(story.Visibility)).Scan(&storyID)
	if err != nil {
		return "", err
	}

	if story.Visibility == types.VisibilityPrivate {
		for _, userID := range story.AudienceUserIDs {
			_, err := p.Db.Exec(`INSERT INTO story_audience (story_id, user_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`,
				storyID, userID)
			if err != nil {
				return "", err
			}
		}
	}

	return fmt.Sprintf("%d", storyID), nil
}

const storyColumns = `s.id, s.author_id, COALESCE(s.text, ''), COALESCE(s.media_key, ''),
	COALESCE(s.media_kind, ''), COALESCE(s.audio_key, ''), s.duration_ms,
	COALESCE(s.background, ''), s.visibility, s.created_at, s.expires_at`

func scanStory(scan func(dest ...interface{}) error) (types.Story, error) {
	var s types.Story
	var kind, visibility string
	err := scan(&s.ID, &s.AuthorID, &s.Text, &s.MediaKey, &kind, &s.AudioKey,
		&s.DurationMs, &s.Background, &visibility, &s.CreatedAt, &s.ExpiresAt)
	if err != nil {
		return types.Story{}, err
	}
	s.MediaKind = types.MediaKind(kind)
	s.Visibility = types.Visibility(visibility)
	return s, nil
}

func (p *Postgres) GetStoryByID(storyID string) (types.Story, error) {
	query := `SELECT ` + storyColumns + ` FROM stories s WHERE s.id = $1 AND s.deleted_at IS NULL`
	return scanStory(p.Db.QueryRow(query, storyID).Scan)
}

func (p *Postgres) GetActiveStories(viewerID string) ([]types.Story, error) {
	query := `
	SELECT DISTINCT ` + storyColumns + `
	FROM stories s
	LEFT JOIN story_audience sa ON s.id = sa.story_id
	LEFT JOIN follows f ON s.author_id = f.followed_id
	WHERE
		s.deleted_at IS NULL
		AND s.expires_at > NOW()
		AND (
			s.visibility = 'public'
			OR (s.visibility = 'friends' AND f.follower_id = $1::integer)
			OR (s.visibility = 'private' AND sa.user_id = $1::integer)
			OR s.author_id = $1::integer
		)
	ORDER BY s.created_at DESC
	`

	rows, err := p.Db.Query(query, viewerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var stories []types.Story
	for rows.Next() {
		s, err := scanStory(rows.Scan)
		if err != nil {
			return nil, err
		}
		stories = append(stories, s)
	}

	return stories, rows.Err()
}

func (p *Postgres) RecordStoryView(storyID, viewerID string) error {
	// One view per viewer per story; repeats are no-ops.
	query := `
	INSERT INTO story_views (story_id, viewer_id)
	VALUES ($1, $2)
	ON CONFLICT (story_id, viewer_id) DO NOTHING
	`

	_, err := p.Db.Exec(query, storyID, viewerID)
	return err
}

func (p *Postgres) GetViewedStoryIDs(viewerID string) ([]string, error) {
	query := `
	SELECT sv.story_id
	FROM story_views sv
	JOIN stories s ON s.id = sv.story_id
	WHERE sv.viewer_id = $1 AND s.deleted_at IS NULL
	`

	rows, err := p.Db.Query(query, viewerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}

	return ids, rows.Err()
}

func (p *Postgres) ToggleRepost(storyID, userID string) (bool, error) {
	tx, err := p.Db.Begin()
	if err != nil {
		return false, err
	}
	defer tx.Rollback()

	res, err := tx.Exec(`DELETE FROM reposts WHERE story_id = $1 AND user_id = $2`, storyID, userID)
	if err != nil {
		return false, err
	}

	deleted, err := res.RowsAffected()
	if err != nil {
		return false, err
	}

	isReposted := false
	if deleted == 0 {
		_, err = tx.Exec(`INSERT INTO reposts (story_id, user_id) VALUES ($1, $2)`, storyID, userID)
		if err != nil {
			return false, err
		}
		isReposted = true
	}

	if err := tx.Commit(); err != nil {
		return false, err
	}

	return isReposted, nil
}

func (p *Postgres) ListStoryViewers(storyID string) ([]types.ViewerRecord, error) {
	query := `
	SELECT u.id, u.username, COALESCE(u.avatar, ''), sv.viewed_at
	FROM story_views sv
	JOIN users u ON u.id = sv.viewer_id
	WHERE sv.story_id = $1
	ORDER BY sv.viewed_at DESC
	`

	rows, err := p.Db.Query(query, storyID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var viewers []types.ViewerRecord
	for rows.Next() {
		var v types.ViewerRecord
		if err := rows.Scan(&v.ID, &v.Username, &v.Avatar, &v.ViewedAt); err != nil {
			return nil, err
		}
		viewers = append(viewers, v)
	}

	return viewers, rows.Err()
}

func (p *Postgres) SoftDeleteExpiredStories() (int, error) {
	query := `
	UPDATE stories
	SET deleted_at = CURRENT_TIMESTAMP
	WHERE expires_at <= NOW() AND deleted_at IS NULL
	`

	res, err := p.Db.Exec(query)
	if err != nil {
		return 0, err
	}

	count, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}

	return int(count), nil
}
