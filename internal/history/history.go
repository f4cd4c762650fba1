package history

import (
	"time"

	"clipsync/internal/api"
)

// SessionInfo is one known session as recorded locally.
type SessionInfo struct {
	ID          string
	FirstSeenAt int64
	LastSeenAt  int64
	Deleted     bool
}

// TouchSession records the session as seen now, creating it if needed.
func (db *DB) TouchSession(id string) error {
	now := time.Now().Unix()
	_, err := db.Exec(`
		INSERT INTO sessions (id, first_seen_at, last_seen_at)
		VALUES (?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET last_seen_at = excluded.last_seen_at`,
		id, now, now)
	return err
}

// MarkSessionDeleted flags the session as destroyed server-side. Its messages
// stay in the cache; this is a history store, not a mirror.
func (db *DB) MarkSessionDeleted(id string) error {
	_, err := db.Exec(`UPDATE sessions SET deleted = 1 WHERE id = ?`, id)
	return err
}

// ListSessions returns known sessions, most recently seen first.
func (db *DB) ListSessions() ([]SessionInfo, error) {
	rows, err := db.Query(`
		SELECT id, first_seen_at, last_seen_at, deleted
		FROM sessions
		ORDER BY last_seen_at DESC`)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var sessions []SessionInfo
	for rows.Next() {
		var s SessionInfo
		if err := rows.Scan(&s.ID, &s.FirstSeenAt, &s.LastSeenAt, &s.Deleted); err != nil {
			return nil, err
		}
		sessions = append(sessions, s)
	}
	return sessions, rows.Err()
}

// UpsertMessage inserts or updates a message (idempotent on session_id + msg_id).
func (db *DB) UpsertMessage(sessionID string, m api.Message) error {
	if err := db.TouchSession(sessionID); err != nil {
		return err
	}
	now := time.Now().Unix()
	_, err := db.Exec(`
		INSERT INTO messages (session_id, msg_id, body, attachment_id, attachment_type, attachment_name, sensitive, created_at, recorded_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(session_id, msg_id) DO UPDATE SET
			body = excluded.body,
			attachment_id = excluded.attachment_id,
			attachment_type = excluded.attachment_type,
			attachment_name = excluded.attachment_name,
			sensitive = excluded.sensitive`,
		sessionID, m.ID, m.Body, m.AttachmentID, m.AttachmentType, m.AttachmentName, m.Sensitive, m.CreatedAt, now)
	return err
}

// RecordSnapshot upserts a full message list in one transaction. Used when a
// session snapshot arrives on (re)connect.
func (db *DB) RecordSnapshot(sessionID string, msgs []api.Message) error {
	if err := db.TouchSession(sessionID); err != nil {
		return err
	}
	tx, err := db.Begin()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	now := time.Now().Unix()
	for _, m := range msgs {
		if _, err := tx.Exec(`
			INSERT INTO messages (session_id, msg_id, body, attachment_id, attachment_type, attachment_name, sensitive, created_at, recorded_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT(session_id, msg_id) DO UPDATE SET
				body = excluded.body,
				attachment_id = excluded.attachment_id,
				attachment_type = excluded.attachment_type,
				attachment_name = excluded.attachment_name,
				sensitive = excluded.sensitive`,
			sessionID, m.ID, m.Body, m.AttachmentID, m.AttachmentType, m.AttachmentName, m.Sensitive, m.CreatedAt, now); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// DeleteMessage removes a cached message. Deleting a message that was never
// cached is not an error.
func (db *DB) DeleteMessage(sessionID, msgID string) error {
	_, err := db.Exec(`DELETE FROM messages WHERE session_id = ? AND msg_id = ?`, sessionID, msgID)
	return err
}

// ListMessages returns cached messages for a session using keyset pagination
// by creation time, newest first.
func (db *DB) ListMessages(sessionID string, beforeTs int64, limit int) ([]api.Message, error) {
	if limit <= 0 {
		limit = 50
	}
	if beforeTs <= 0 {
		beforeTs = time.Now().Unix() + 1
	}
	rows, err := db.Query(`
		SELECT msg_id, body, attachment_id, attachment_type, attachment_name, sensitive, created_at
		FROM messages
		WHERE session_id = ? AND created_at < ?
		ORDER BY created_at DESC
		LIMIT ?`, sessionID, beforeTs, limit)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var msgs []api.Message
	for rows.Next() {
		var m api.Message
		if err := rows.Scan(&m.ID, &m.Body, &m.AttachmentID, &m.AttachmentType, &m.AttachmentName, &m.Sensitive, &m.CreatedAt); err != nil {
			return nil, err
		}
		msgs = append(msgs, m)
	}
	return msgs, rows.Err()
}
