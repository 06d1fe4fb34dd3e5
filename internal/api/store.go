package api

import (
	"sort"
	"sync"
	"time"
)

type User struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	PassHash  []byte    `json:"-"`
	CreatedAt time.Time `json:"created_at"`
}

type Profile struct {
	UserID         string             `json:"user_id"`
	DisplayName    string             `json:"display_name"`
	InviteCode     string             `json:"invite_code"`
	PartnerID      string             `json:"partner_id,omitempty"`
	Weights        map[string]float64 `json:"weights"`
	OutOfBounds    []string           `json:"out_of_bounds_questions,omitempty"`
	OnboardingDone bool               `json:"onboarding_completed"`
	CreatedAt      time.Time          `json:"created_at"`
}

type Question struct {
	ID         string `json:"id"`
	Text       string `json:"text"`
	Type       string `json:"type"`
	Construct1 string `json:"construct1"`
	Construct2 string `json:"construct2,omitempty"`
}

type Response struct {
	UserID      string    `json:"user_id"`
	QuestionID  string    `json:"question_id"`
	Date        string    `json:"response_date"`
	Likert      int       `json:"response_likert,omitempty"`
	Emoji       string    `json:"response_emoji,omitempty"`
	Text        string    `json:"response_text,omitempty"`
	RespondedAt time.Time `json:"responded_at"`
}

type DailySync struct {
	CoupleID  string    `json:"couple_id"`
	Date      string    `json:"date"`
	Score     int       `json:"score"`
	Category  string    `json:"suggestion_type"`
	CreatedAt time.Time `json:"created_at"`
}

type Activity struct {
	ID   string `json:"id"`
	Type string `json:"type"`
	Text string `json:"text"`
}

type EncryptedMessage struct {
	ID          string    `json:"id"`
	SenderID    string    `json:"sender_id"`
	RecipientID string    `json:"recipient_id"`
	Ciphertext  string    `json:"ciphertext"`
	IV          string    `json:"iv"`
	Salt        string    `json:"salt,omitempty"`
	Attachment  bool      `json:"attachment,omitempty"`
	SentAt      time.Time `json:"sent_at"`
}

type AuditEntry struct {
	Time   time.Time
	Actor  string
	Action string
	Target string
	Note   string
}

type memoryStore struct {
	mu           sync.RWMutex
	usersByEmail map[string]*User
	profiles     map[string]*Profile
	questions    map[string]*Question
	activities   []*Activity
	responses    []*Response
	syncs        map[string]*DailySync // key: coupleID|date
	messages     []*EncryptedMessage
	audit        []AuditEntry
}

// NewMemoryStore returns an in-memory Store, used for tests and for running
// without a sqlite path configured.
func NewMemoryStore() Store { return newMemoryStore() }

func newMemoryStore() *memoryStore {
	return &memoryStore{
		usersByEmail: map[string]*User{},
		profiles:     map[string]*Profile{},
		questions:    map[string]*Question{},
		syncs:        map[string]*DailySync{},
	}
}

func (s *memoryStore) AddUser(u *User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.usersByEmail[u.Email] = u
}

func (s *memoryStore) FindUserByEmail(email string) *User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.usersByEmail[email]
}

func (s *memoryStore) UpsertProfile(p *Profile) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.profiles[p.UserID] = p
}

func (s *memoryStore) GetProfile(userID string) *Profile {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.profiles[userID]
}

func (s *memoryStore) FindProfileByInviteCode(code string) *Profile {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, p := range s.profiles {
		if p.InviteCode == code {
			return p
		}
	}
	return nil
}

func (s *memoryStore) AppendOutOfBounds(userID, questionID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	p := s.profiles[userID]
	if p == nil {
		return false
	}
	for _, id := range p.OutOfBounds {
		if id == questionID {
			return true
		}
	}
	p.OutOfBounds = append(p.OutOfBounds, questionID)
	return true
}

func (s *memoryStore) AddQuestion(q *Question) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.questions[q.ID] = q
}

func (s *memoryStore) GetQuestion(id string) *Question {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.questions[id]
}

func (s *memoryStore) ListQuestionsByConstruct(construct string, excluded []string, limit int) []*Question {
	s.mu.RLock()
	defer s.mu.RUnlock()
	skip := make(map[string]bool, len(excluded))
	for _, id := range excluded {
		skip[id] = true
	}
	out := []*Question{}
	// stable order by id so limited reads are deterministic
	ids := make([]string, 0, len(s.questions))
	for id := range s.questions {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		q := s.questions[id]
		if q.Construct1 != construct && q.Construct2 != construct {
			continue
		}
		if skip[q.ID] {
			continue
		}
		out = append(out, q)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out
}

func (s *memoryStore) AddActivity(a *Activity) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.activities = append(s.activities, a)
}

func (s *memoryStore) ListActivities(category string) []*Activity {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []*Activity{}
	for _, a := range s.activities {
		if a.Type == category {
			out = append(out, a)
		}
	}
	return out
}

func (s *memoryStore) AddResponses(rs []*Response) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.responses = append(s.responses, rs...)
}

func (s *memoryStore) ListResponses(userID, date string) []*Response {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []*Response{}
	for _, r := range s.responses {
		if r.UserID == userID && r.Date == date {
			out = append(out, r)
		}
	}
	return out
}

func (s *memoryStore) UpsertDailySync(sync *DailySync) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.syncs[sync.CoupleID+"|"+sync.Date] = sync
}

func (s *memoryStore) ListDailySyncs(coupleID string) []*DailySync {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []*DailySync{}
	for _, sy := range s.syncs {
		if sy.CoupleID == coupleID {
			out = append(out, sy)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date < out[j].Date })
	return out
}

func (s *memoryStore) AddMessage(m *EncryptedMessage) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.messages = append(s.messages, m)
}

func (s *memoryStore) ListMessages(userID string) []*EncryptedMessage {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []*EncryptedMessage{}
	for _, m := range s.messages {
		if m.SenderID == userID || m.RecipientID == userID {
			out = append(out, m)
		}
	}
	return out
}

func (s *memoryStore) AddAudit(e AuditEntry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.audit = append(s.audit, e)
}

func (s *memoryStore) ListAudit() []AuditEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]AuditEntry(nil), s.audit...)
}
