package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"math"
	"math/rand"
	"sort"
	"time"
)

// Suggestion categories derived from the daily congruence score.
const (
	CategoryIntimate = "intimate"
	CategoryNeutral  = "neutral"
	CategoryPlatonic = "platonic"
)

// DefaultSuggestion is used when the activity catalog has no entry for the
// computed category.
const DefaultSuggestion = "Enjoy your day together."

// MinDailyResponses is the per-partner response floor below which the daily
// sync is reported as incomplete instead of being computed.
const MinDailyResponses = 3

// maxLikertDistance is the largest possible |a-b| on a 1-5 likert scale.
const maxLikertDistance = 4

// CongruenceStore abstracts persistence operations required by CongruenceService.
type CongruenceStore interface {
	GetProfile(userID string) (*Profile, error)
	ListResponses(userID, date string) ([]*Response, error)
	UpsertDailySync(sync *DailySync) error
	ListActivities(category string) ([]*Activity, error)
	ListDailySyncs(coupleID string) ([]*DailySync, error)
	AddAudit(entry AuditEntry)
}

type CongruenceService struct {
	store CongruenceStore
	now   func() time.Time
	// pick chooses an index in [0,n). Swapped out in tests so that suggestion
	// selection is deterministic.
	pick func(n int) int
}

func NewCongruenceService(store CongruenceStore) *CongruenceService {
	return &CongruenceService{
		store: store,
		now:   func() time.Time { return time.Now().UTC() },
		pick:  rand.Intn,
	}
}

// SyncResult is the outcome of a daily sync computation. Score is nil when
// either partner has answered fewer than MinDailyResponses questions that day;
// that is a normal state, not an error.
type SyncResult struct {
	Score      *int   `json:"score"`
	Suggestion string `json:"suggestion"`
	Type       string `json:"type,omitempty"`
}

// CoupleID derives the order-independent join key for a pair of users:
// lowercase hex SHA-256 of the two ids sorted and concatenated. Both partners'
// clients must arrive at the same value, so the format is fixed.
func CoupleID(userA, userB string) string {
	ids := []string{userA, userB}
	sort.Strings(ids)
	sum := sha256.Sum256([]byte(ids[0] + ids[1]))
	return hex.EncodeToString(sum[:])
}

// CongruenceScore reduces two partners' same-day response sets to a 0-100
// similarity score. Only questions answered by both sides count; an empty
// overlap yields the neutral default of 50.
//
// Likert answers contribute |a-b| to the total distance. Emoji and freetext
// answers are reserved for future qualitative scoring: they count toward the
// shared set but contribute zero distance, which skews scores upward as
// non-likert questions are used more. That skew is a documented property of
// the scoring model, kept as-is.
func CongruenceScore(a, b []*Response) int {
	byQuestion := make(map[string]*Response, len(b))
	for _, r := range b {
		byQuestion[r.QuestionID] = r
	}

	shared := 0
	totalDiff := 0
	for _, ra := range a {
		rb, ok := byQuestion[ra.QuestionID]
		if !ok {
			continue
		}
		shared++
		if ra.Likert > 0 && rb.Likert > 0 {
			totalDiff += abs(ra.Likert - rb.Likert)
		}
	}
	if shared == 0 {
		return 50
	}

	maxDiff := shared * maxLikertDistance
	similarity := 1 - float64(totalDiff)/float64(maxDiff)
	score := int(math.Round(similarity * 100))
	if score < 0 {
		score = 0
	}
	if score > 100 {
		score = 100
	}
	return score
}

// CategoryForScore classifies a congruence score into a suggestion category.
func CategoryForScore(score int) string {
	switch {
	case score >= 70:
		return CategoryIntimate
	case score < 50:
		return CategoryPlatonic
	default:
		return CategoryNeutral
	}
}

// ComputeDailySync resolves the caller's partner, scores today's overlap, and
// records the result keyed by (couple id, date). Recomputation from the same
// inputs is idempotent on the score; only the suggestion text is random, so
// concurrent invocations settle on last-write-wins without extra locking.
func (s *CongruenceService) ComputeDailySync(ctx context.Context, userID string) (*SyncResult, error) {
	if userID == "" {
		return nil, NewInvalidError("user_id required")
	}
	profile, err := s.store.GetProfile(userID)
	if err != nil {
		return nil, err
	}
	if profile == nil {
		return nil, NewUnavailableError("profile not found")
	}
	if profile.PartnerID == "" {
		return nil, NewInvalidError("no partner linked")
	}

	date := s.now().Format("2006-01-02")
	mine, err := s.store.ListResponses(userID, date)
	if err != nil {
		return nil, err
	}
	theirs, err := s.store.ListResponses(profile.PartnerID, date)
	if err != nil {
		return nil, err
	}
	if len(mine) < MinDailyResponses || len(theirs) < MinDailyResponses {
		return &SyncResult{Score: nil, Suggestion: "incomplete"}, nil
	}

	score := CongruenceScore(mine, theirs)
	category := CategoryForScore(score)
	coupleID := CoupleID(userID, profile.PartnerID)

	if err := s.store.UpsertDailySync(&DailySync{
		CoupleID:  coupleID,
		Date:      date,
		Score:     score,
		Category:  category,
		CreatedAt: s.now(),
	}); err != nil {
		return nil, err
	}

	suggestion := DefaultSuggestion
	if activities, err := s.store.ListActivities(category); err == nil && len(activities) > 0 {
		suggestion = activities[s.pick(len(activities))].Text
	}

	s.store.AddAudit(AuditEntry{Time: s.now(), Actor: userID, Action: "daily_sync_compute", Target: coupleID, Note: category})
	return &SyncResult{Score: &score, Suggestion: suggestion, Type: category}, nil
}

// SyncHistory lists past daily syncs for the caller's couple, newest first.
func (s *CongruenceService) SyncHistory(ctx context.Context, userID string) ([]*DailySync, error) {
	profile, err := s.store.GetProfile(userID)
	if err != nil {
		return nil, err
	}
	if profile == nil {
		return nil, NewUnavailableError("profile not found")
	}
	if profile.PartnerID == "" {
		return []*DailySync{}, nil
	}
	syncs, err := s.store.ListDailySyncs(CoupleID(userID, profile.PartnerID))
	if err != nil {
		return nil, err
	}
	sort.Slice(syncs, func(i, j int) bool { return syncs[i].Date > syncs[j].Date })
	return syncs, nil
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
