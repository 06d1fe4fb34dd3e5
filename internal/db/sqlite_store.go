package db

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"

	"github.com/pairsync/pairsync/internal/api"
)

// sqliteStore persists the full application state in a single sqlite file.
// Store methods report nothing on failure, so every error is logged here
// before the zero value goes back to the caller.
type sqliteStore struct {
	conn *sql.DB
	log  *zap.Logger
}

// NewSQLiteStore opens (or creates) the database at path and applies
// migrations. Pass migrationsDir="" to use the embedded schema.
func NewSQLiteStore(path, migrationsDir string, log *zap.Logger) (api.Store, error) {
	conn, err := sql.Open("sqlite3", path+"?_busy_timeout=5000&_journal_mode=WAL&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("ping sqlite %s: %w", path, err)
	}
	// sqlite allows one writer at a time; a single pooled connection avoids
	// SQLITE_BUSY churn under concurrent handlers.
	conn.SetMaxOpenConns(1)
	if err := RunMigrations(conn, migrationsDir); err != nil {
		conn.Close()
		return nil, err
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &sqliteStore{conn: conn, log: log}, nil
}

func (s *sqliteStore) Close() error { return s.conn.Close() }

func (s *sqliteStore) warn(op string, err error) {
	s.log.Warn("sqlite store", zap.String("op", op), zap.Error(err))
}

func (s *sqliteStore) AddUser(u *api.User) {
	_, err := s.conn.Exec(
		`INSERT INTO users (id, email, pass_hash, created_at) VALUES (?, ?, ?, ?)`,
		u.ID, u.Email, u.PassHash, u.CreatedAt,
	)
	if err != nil {
		s.warn("add user", err)
	}
}

func (s *sqliteStore) FindUserByEmail(email string) *api.User {
	u := &api.User{}
	err := s.conn.QueryRow(
		`SELECT id, email, pass_hash, created_at FROM users WHERE email = ?`, email,
	).Scan(&u.ID, &u.Email, &u.PassHash, &u.CreatedAt)
	if err == sql.ErrNoRows {
		return nil
	}
	if err != nil {
		s.warn("find user", err)
		return nil
	}
	return u
}

func (s *sqliteStore) UpsertProfile(p *api.Profile) {
	weights, err := json.Marshal(p.Weights)
	if err != nil {
		s.warn("marshal weights", err)
		return
	}
	oob, err := json.Marshal(p.OutOfBounds)
	if err != nil {
		s.warn("marshal out-of-bounds", err)
		return
	}
	_, err = s.conn.Exec(
		`INSERT INTO profiles (user_id, display_name, invite_code, partner_id, weights, out_of_bounds, onboarding_done, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(user_id) DO UPDATE SET
		   display_name = excluded.display_name,
		   invite_code = excluded.invite_code,
		   partner_id = excluded.partner_id,
		   weights = excluded.weights,
		   out_of_bounds = excluded.out_of_bounds,
		   onboarding_done = excluded.onboarding_done`,
		p.UserID, p.DisplayName, p.InviteCode, p.PartnerID, string(weights), string(oob), p.OnboardingDone, p.CreatedAt,
	)
	if err != nil {
		s.warn("upsert profile", err)
	}
}

func (s *sqliteStore) scanProfile(row *sql.Row) *api.Profile {
	p := &api.Profile{}
	var weights, oob string
	err := row.Scan(&p.UserID, &p.DisplayName, &p.InviteCode, &p.PartnerID, &weights, &oob, &p.OnboardingDone, &p.CreatedAt)
	if err == sql.ErrNoRows {
		return nil
	}
	if err != nil {
		s.warn("scan profile", err)
		return nil
	}
	if err := json.Unmarshal([]byte(weights), &p.Weights); err != nil {
		s.warn("decode weights", err)
	}
	if err := json.Unmarshal([]byte(oob), &p.OutOfBounds); err != nil {
		s.warn("decode out-of-bounds", err)
	}
	return p
}

const selectProfile = `SELECT user_id, display_name, invite_code, partner_id, weights, out_of_bounds, onboarding_done, created_at FROM profiles`

func (s *sqliteStore) GetProfile(userID string) *api.Profile {
	return s.scanProfile(s.conn.QueryRow(selectProfile+` WHERE user_id = ?`, userID))
}

func (s *sqliteStore) FindProfileByInviteCode(code string) *api.Profile {
	return s.scanProfile(s.conn.QueryRow(selectProfile+` WHERE invite_code = ?`, code))
}

func (s *sqliteStore) AppendOutOfBounds(userID, questionID string) bool {
	p := s.GetProfile(userID)
	if p == nil {
		return false
	}
	for _, id := range p.OutOfBounds {
		if id == questionID {
			return true
		}
	}
	p.OutOfBounds = append(p.OutOfBounds, questionID)
	oob, err := json.Marshal(p.OutOfBounds)
	if err != nil {
		s.warn("marshal out-of-bounds", err)
		return false
	}
	if _, err := s.conn.Exec(`UPDATE profiles SET out_of_bounds = ? WHERE user_id = ?`, string(oob), userID); err != nil {
		s.warn("append out-of-bounds", err)
		return false
	}
	return true
}

func (s *sqliteStore) AddQuestion(q *api.Question) {
	_, err := s.conn.Exec(
		`INSERT INTO questions (id, text, type, construct1, construct2) VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET text = excluded.text, type = excluded.type,
		   construct1 = excluded.construct1, construct2 = excluded.construct2`,
		q.ID, q.Text, q.Type, q.Construct1, q.Construct2,
	)
	if err != nil {
		s.warn("add question", err)
	}
}

func (s *sqliteStore) GetQuestion(id string) *api.Question {
	q := &api.Question{}
	err := s.conn.QueryRow(
		`SELECT id, text, type, construct1, construct2 FROM questions WHERE id = ?`, id,
	).Scan(&q.ID, &q.Text, &q.Type, &q.Construct1, &q.Construct2)
	if err == sql.ErrNoRows {
		return nil
	}
	if err != nil {
		s.warn("get question", err)
		return nil
	}
	return q
}

func (s *sqliteStore) ListQuestionsByConstruct(construct string, excluded []string, limit int) []*api.Question {
	query := `SELECT id, text, type, construct1, construct2 FROM questions WHERE (construct1 = ? OR construct2 = ?)`
	args := []any{construct, construct}
	if len(excluded) > 0 {
		query += ` AND id NOT IN (?` + strings.Repeat(",?", len(excluded)-1) + `)`
		for _, id := range excluded {
			args = append(args, id)
		}
	}
	query += ` ORDER BY id`
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.conn.Query(query, args...)
	if err != nil {
		s.warn("list questions", err)
		return nil
	}
	defer rows.Close()

	out := []*api.Question{}
	for rows.Next() {
		q := &api.Question{}
		if err := rows.Scan(&q.ID, &q.Text, &q.Type, &q.Construct1, &q.Construct2); err != nil {
			s.warn("scan question", err)
			continue
		}
		out = append(out, q)
	}
	if err := rows.Err(); err != nil {
		s.warn("list questions", err)
	}
	return out
}

func (s *sqliteStore) AddActivity(a *api.Activity) {
	_, err := s.conn.Exec(
		`INSERT INTO activities (id, type, text) VALUES (?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET type = excluded.type, text = excluded.text`,
		a.ID, a.Type, a.Text,
	)
	if err != nil {
		s.warn("add activity", err)
	}
}

func (s *sqliteStore) ListActivities(category string) []*api.Activity {
	rows, err := s.conn.Query(`SELECT id, type, text FROM activities WHERE type = ? ORDER BY id`, category)
	if err != nil {
		s.warn("list activities", err)
		return nil
	}
	defer rows.Close()

	out := []*api.Activity{}
	for rows.Next() {
		a := &api.Activity{}
		if err := rows.Scan(&a.ID, &a.Type, &a.Text); err != nil {
			s.warn("scan activity", err)
			continue
		}
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		s.warn("list activities", err)
	}
	return out
}

func (s *sqliteStore) AddResponses(rs []*api.Response) {
	tx, err := s.conn.Begin()
	if err != nil {
		s.warn("add responses", err)
		return
	}
	for _, r := range rs {
		// INSERT OR IGNORE backs the first-write-wins rule at the storage
		// layer too, in case two submissions race past the service check.
		_, err := tx.Exec(
			`INSERT OR IGNORE INTO responses (user_id, question_id, response_date, likert, emoji, text, responded_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?)`,
			r.UserID, r.QuestionID, r.Date, r.Likert, r.Emoji, r.Text, r.RespondedAt,
		)
		if err != nil {
			s.warn("add response", err)
			tx.Rollback()
			return
		}
	}
	if err := tx.Commit(); err != nil {
		s.warn("add responses", err)
	}
}

func (s *sqliteStore) ListResponses(userID, date string) []*api.Response {
	rows, err := s.conn.Query(
		`SELECT user_id, question_id, response_date, likert, emoji, text, responded_at
		 FROM responses WHERE user_id = ? AND response_date = ?`,
		userID, date,
	)
	if err != nil {
		s.warn("list responses", err)
		return nil
	}
	defer rows.Close()

	out := []*api.Response{}
	for rows.Next() {
		r := &api.Response{}
		if err := rows.Scan(&r.UserID, &r.QuestionID, &r.Date, &r.Likert, &r.Emoji, &r.Text, &r.RespondedAt); err != nil {
			s.warn("scan response", err)
			continue
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		s.warn("list responses", err)
	}
	return out
}

func (s *sqliteStore) UpsertDailySync(sync *api.DailySync) {
	_, err := s.conn.Exec(
		`INSERT INTO daily_syncs (couple_id, date, score, category, created_at) VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(couple_id, date) DO UPDATE SET score = excluded.score,
		   category = excluded.category, created_at = excluded.created_at`,
		sync.CoupleID, sync.Date, sync.Score, sync.Category, sync.CreatedAt,
	)
	if err != nil {
		s.warn("upsert daily sync", err)
	}
}

func (s *sqliteStore) ListDailySyncs(coupleID string) []*api.DailySync {
	rows, err := s.conn.Query(
		`SELECT couple_id, date, score, category, created_at FROM daily_syncs WHERE couple_id = ? ORDER BY date`,
		coupleID,
	)
	if err != nil {
		s.warn("list daily syncs", err)
		return nil
	}
	defer rows.Close()

	out := []*api.DailySync{}
	for rows.Next() {
		sy := &api.DailySync{}
		if err := rows.Scan(&sy.CoupleID, &sy.Date, &sy.Score, &sy.Category, &sy.CreatedAt); err != nil {
			s.warn("scan daily sync", err)
			continue
		}
		out = append(out, sy)
	}
	if err := rows.Err(); err != nil {
		s.warn("list daily syncs", err)
	}
	return out
}

func (s *sqliteStore) AddMessage(m *api.EncryptedMessage) {
	_, err := s.conn.Exec(
		`INSERT INTO encrypted_messages (id, sender_id, recipient_id, ciphertext, iv, salt, attachment, sent_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		m.ID, m.SenderID, m.RecipientID, m.Ciphertext, m.IV, m.Salt, m.Attachment, m.SentAt,
	)
	if err != nil {
		s.warn("add message", err)
	}
}

func (s *sqliteStore) ListMessages(userID string) []*api.EncryptedMessage {
	rows, err := s.conn.Query(
		`SELECT id, sender_id, recipient_id, ciphertext, iv, salt, attachment, sent_at
		 FROM encrypted_messages WHERE sender_id = ? OR recipient_id = ? ORDER BY sent_at`,
		userID, userID,
	)
	if err != nil {
		s.warn("list messages", err)
		return nil
	}
	defer rows.Close()

	out := []*api.EncryptedMessage{}
	for rows.Next() {
		m := &api.EncryptedMessage{}
		if err := rows.Scan(&m.ID, &m.SenderID, &m.RecipientID, &m.Ciphertext, &m.IV, &m.Salt, &m.Attachment, &m.SentAt); err != nil {
			s.warn("scan message", err)
			continue
		}
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		s.warn("list messages", err)
	}
	return out
}

func (s *sqliteStore) AddAudit(e api.AuditEntry) {
	_, err := s.conn.Exec(
		`INSERT INTO audit_log (at, actor, action, target, note) VALUES (?, ?, ?, ?, ?)`,
		e.Time, e.Actor, e.Action, e.Target, e.Note,
	)
	if err != nil {
		s.warn("add audit", err)
	}
}

func (s *sqliteStore) ListAudit() []api.AuditEntry {
	rows, err := s.conn.Query(`SELECT at, actor, action, target, note FROM audit_log ORDER BY id`)
	if err != nil {
		s.warn("list audit", err)
		return nil
	}
	defer rows.Close()

	out := []api.AuditEntry{}
	for rows.Next() {
		var e api.AuditEntry
		if err := rows.Scan(&e.Time, &e.Actor, &e.Action, &e.Target, &e.Note); err != nil {
			s.warn("scan audit", err)
			continue
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		s.warn("list audit", err)
	}
	return out
}

var _ api.Store = (*sqliteStore)(nil)
