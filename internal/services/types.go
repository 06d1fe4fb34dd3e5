package services

import "time"

// Construct is one of the fixed psychological dimensions a user is profiled on
// during onboarding. The set is closed; a weight exists for every construct.
type Construct string

const (
	ConstructSensory       Construct = "sensory"
	ConstructPlayfulness   Construct = "playfulness"
	ConstructEmbodiment    Construct = "embodiment"
	ConstructNostalgia     Construct = "nostalgia"
	ConstructAutonomy      Construct = "autonomy"
	ConstructTranscendence Construct = "transcendence"
	ConstructTemporal      Construct = "temporal"
)

// AllConstructs lists every construct in declaration order.
var AllConstructs = []Construct{
	ConstructSensory,
	ConstructPlayfulness,
	ConstructEmbodiment,
	ConstructNostalgia,
	ConstructAutonomy,
	ConstructTranscendence,
	ConstructTemporal,
}

// ResponseType tells how a question is answered.
type ResponseType string

const (
	ResponseLikert   ResponseType = "likert"
	ResponseEmoji    ResponseType = "emoji"
	ResponseFreetext ResponseType = "freetext"
)

// Profile holds a user's construct weights and couple linkage. Weights are set
// once at onboarding (likert answer / 5) and never change afterwards.
type Profile struct {
	UserID         string                `json:"user_id"`
	DisplayName    string                `json:"display_name"`
	InviteCode     string                `json:"invite_code"`
	PartnerID      string                `json:"partner_id,omitempty"`
	Weights        map[Construct]float64 `json:"weights"`
	OutOfBounds    []string              `json:"out_of_bounds_questions,omitempty"`
	OnboardingDone bool                  `json:"onboarding_completed"`
	CreatedAt      time.Time             `json:"created_at"`
}

// Question belongs to one or two constructs and is answered one way.
type Question struct {
	ID         string       `json:"id"`
	Text       string       `json:"text"`
	Type       ResponseType `json:"type"`
	Construct1 Construct    `json:"construct1"`
	Construct2 Construct    `json:"construct2,omitempty"`
}

// Response is one user's answer to one question on one day. Exactly one of
// Likert/Emoji/Text is set, matching the question type. Immutable once written.
type Response struct {
	UserID      string    `json:"user_id"`
	QuestionID  string    `json:"question_id"`
	Date        string    `json:"response_date"` // YYYY-MM-DD
	Likert      int       `json:"response_likert,omitempty"`
	Emoji       string    `json:"response_emoji,omitempty"`
	Text        string    `json:"response_text,omitempty"`
	RespondedAt time.Time `json:"responded_at"`
}

// DailySync is the derived congruence record for a couple and a date. At most
// one row per (couple, date); recomputation overwrites.
type DailySync struct {
	CoupleID  string    `json:"couple_id"`
	Date      string    `json:"date"`
	Score     int       `json:"score"`
	Category  string    `json:"suggestion_type"`
	CreatedAt time.Time `json:"created_at"`
}

// Activity is a suggestion drawn from the shared catalog by category.
type Activity struct {
	ID   string `json:"id"`
	Type string `json:"type"`
	Text string `json:"text"`
}

// EncryptedMessage is the persisted envelope for the private channel. Plaintext
// never reaches the store. Salt is present only in passphrase-recovery mode.
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

// User is an authenticated account.
type User struct {
	ID        string
	Email     string
	PassHash  []byte
	CreatedAt time.Time
}

// AuditEntry records a sensitive operation.
type AuditEntry struct {
	Time   time.Time
	Actor  string
	Action string
	Target string
	Note   string
}
