package archive

import (
	"context"
	"database/sql"
	"time"

	"github.com/flowdeck-dev/flowdeck/pkg/domain/model"
	"github.com/flowdeck-dev/flowdeck/pkg/domain/types"
	"github.com/flowdeck-dev/flowdeck/pkg/utils/safe"
	"github.com/m-mizutani/goerr/v2"
	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS sessions (
	session_id  TEXT PRIMARY KEY,
	event_id    TEXT NOT NULL,
	event_title TEXT NOT NULL,
	archived_at TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS turns (
	turn_id    TEXT PRIMARY KEY,
	session_id TEXT NOT NULL REFERENCES sessions(session_id),
	seq        INTEGER NOT NULL,
	time       TEXT NOT NULL,
	speaker    TEXT NOT NULL,
	text       TEXT NOT NULL,
	is_ai      INTEGER NOT NULL
);
CREATE TABLE IF NOT EXISTS posts (
	post_id    TEXT PRIMARY KEY,
	session_id TEXT NOT NULL REFERENCES sessions(session_id),
	body       TEXT NOT NULL,
	created_at TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_turns_session ON turns(session_id, seq);
`

// Archive writes finished session transcripts to a local sqlite file so
// they survive session teardown and can be inspected offline.
type Archive struct {
	db *sql.DB
}

// Open opens (and migrates) the archive database at path
func Open(path string) (*Archive, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to open archive database", goerr.V("path", path))
	}
	if _, err := db.Exec(schema); err != nil {
		safe.Close(context.Background(), db)
		return nil, goerr.Wrap(err, "failed to migrate archive schema", goerr.V("path", path))
	}
	return &Archive{db: db}, nil
}

// Close closes the underlying database
func (a *Archive) Close() error {
	return a.db.Close()
}

// Record is everything archived for one session
type Record struct {
	SessionID types.SessionID
	Event     *model.Event
	Turns     []model.Turn
	Posts     []*model.Post
}

// Save writes one session record in a single transaction. Saving the
// same session twice replaces the earlier archive.
func (a *Archive) Save(ctx context.Context, rec *Record) error {
	if rec.Event == nil {
		return goerr.New("archive record requires an event", goerr.V("sessionID", rec.SessionID))
	}

	tx, err := a.db.BeginTx(ctx, nil)
	if err != nil {
		return goerr.Wrap(err, "failed to begin archive transaction")
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM turns WHERE session_id = ?`, rec.SessionID.String()); err != nil {
		return goerr.Wrap(err, "failed to clear archived turns")
	}
	if _, err := tx.ExecContext(ctx,
		`DELETE FROM posts WHERE session_id = ?`, rec.SessionID.String()); err != nil {
		return goerr.Wrap(err, "failed to clear archived posts")
	}

	if _, err := tx.ExecContext(ctx,
		`INSERT OR REPLACE INTO sessions (session_id, event_id, event_title, archived_at) VALUES (?, ?, ?, ?)`,
		rec.SessionID.String(), rec.Event.ID.String(), rec.Event.Title, time.Now().UTC().Format(time.RFC3339),
	); err != nil {
		return goerr.Wrap(err, "failed to archive session", goerr.V("sessionID", rec.SessionID))
	}

	for i, turn := range rec.Turns {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO turns (turn_id, session_id, seq, time, speaker, text, is_ai) VALUES (?, ?, ?, ?, ?, ?, ?)`,
			turn.ID.String(), rec.SessionID.String(), i, turn.Time.UTC().Format(time.RFC3339Nano),
			turn.Speaker.String(), turn.Text, boolToInt(turn.IsAI),
		); err != nil {
			return goerr.Wrap(err, "failed to archive turn", goerr.V("turnID", turn.ID))
		}
	}

	for _, post := range rec.Posts {
		if _, err := tx.ExecContext(ctx,
			`INSERT OR REPLACE INTO posts (post_id, session_id, body, created_at) VALUES (?, ?, ?, ?)`,
			post.ID.String(), rec.SessionID.String(), post.Body, post.CreatedAt.UTC().Format(time.RFC3339Nano),
		); err != nil {
			return goerr.Wrap(err, "failed to archive post", goerr.V("postID", post.ID))
		}
	}

	if err := tx.Commit(); err != nil {
		return goerr.Wrap(err, "failed to commit archive transaction")
	}
	return nil
}

// LoadTurns reads back an archived transcript in order
func (a *Archive) LoadTurns(ctx context.Context, sessionID types.SessionID) ([]model.Turn, error) {
	rows, err := a.db.QueryContext(ctx,
		`SELECT turn_id, time, speaker, text, is_ai FROM turns WHERE session_id = ? ORDER BY seq`,
		sessionID.String(),
	)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to query archived turns", goerr.V("sessionID", sessionID))
	}
	defer safe.Close(ctx, rows)

	var turns []model.Turn
	for rows.Next() {
		var (
			turn    model.Turn
			id      string
			ts      string
			speaker string
			isAI    int
		)
		if err := rows.Scan(&id, &ts, &speaker, &turn.Text, &isAI); err != nil {
			return nil, goerr.Wrap(err, "failed to scan archived turn")
		}
		turn.ID = types.TurnID(id)
		turn.Speaker = types.Speaker(speaker)
		turn.IsAI = isAI != 0
		if t, err := time.Parse(time.RFC3339Nano, ts); err == nil {
			turn.Time = t
		}
		turns = append(turns, turn)
	}
	if err := rows.Err(); err != nil {
		return nil, goerr.Wrap(err, "failed to iterate archived turns")
	}
	return turns, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
