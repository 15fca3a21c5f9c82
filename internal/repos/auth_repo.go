package repos

import "github.com/jmoiron/sqlx"

// AuthRepo remembers which conversations already passed the access gate.
type AuthRepo struct{ db *sqlx.DB }

func NewAuthRepo(db *sqlx.DB) *AuthRepo { return &AuthRepo{db: db} }

func (r *AuthRepo) IsAuthorized(conversationID string) (bool, error) {
	var n int
	err := r.db.Get(&n, `
		SELECT COUNT(*) FROM authorized_conversations WHERE conversation_id = ?
	`, conversationID)
	return n > 0, err
}

func (r *AuthRepo) Authorize(conversationID, displayName string) error {
	_, err := r.db.Exec(`
		INSERT INTO authorized_conversations(conversation_id, display_name)
		VALUES (?, ?)
		ON CONFLICT(conversation_id) DO UPDATE SET display_name = excluded.display_name
	`, conversationID, displayName)
	return err
}
