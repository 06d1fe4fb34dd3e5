package services

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
)

// DefaultDailyQuestionCount matches the original check-in size.
const DefaultDailyQuestionCount = 6

// oversampleFactor widens each per-construct catalog fetch so that random
// reduction does not starve rare constructs.
const oversampleFactor = 3

// CheckinStore abstracts persistence operations required by CheckinService.
type CheckinStore interface {
	GetProfile(userID string) (*Profile, error)
	// ListQuestionsByConstruct returns catalog questions carrying the construct
	// in either slot, minus the excluded ids, up to limit.
	ListQuestionsByConstruct(ctx context.Context, construct Construct, excluded []string, limit int) ([]*Question, error)
	GetQuestion(id string) (*Question, error)
	ListResponses(userID, date string) ([]*Response, error)
	AddResponses(rs []*Response) error
}

type CheckinService struct {
	store      CheckinStore
	dailyCount int
	now        func() time.Time
	// shuffle is injectable so tests can pin selection order while still
	// asserting count and exclusion properties.
	shuffle func(n int, swap func(i, j int))
}

func NewCheckinService(store CheckinStore, dailyCount int) *CheckinService {
	if dailyCount <= 0 {
		dailyCount = DefaultDailyQuestionCount
	}
	return &CheckinService{
		store:      store,
		dailyCount: dailyCount,
		now:        func() time.Time { return time.Now().UTC() },
		shuffle:    rand.Shuffle,
	}
}

// SelectDailyQuestions builds today's check-in for a user: proportional
// sampling across constructs by profile weight, oversampled threefold, then
// de-duplicated and reduced to the configured daily count. A thin catalog
// degrades to fewer questions; it does not error.
func (s *CheckinService) SelectDailyQuestions(ctx context.Context, userID string) ([]*Question, error) {
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

	// Per-construct fetches are read-only and order-independent, so they run
	// concurrently and join before de-duplication.
	var (
		mu   sync.Mutex
		pool []*Question
	)
	g, gctx := errgroup.WithContext(ctx)
	for _, construct := range AllConstructs {
		construct := construct
		// A zero-weight construct still gets one candidate slot so every
		// profile sees some construct diversity.
		count := int(float64(s.dailyCount) * profile.Weights[construct])
		if count < 1 {
			count = 1
		}
		g.Go(func() error {
			candidates, err := s.store.ListQuestionsByConstruct(gctx, construct, profile.OutOfBounds, count*oversampleFactor)
			if err != nil {
				return err
			}
			s.shuffle(len(candidates), func(i, j int) {
				candidates[i], candidates[j] = candidates[j], candidates[i]
			})
			if len(candidates) > count {
				candidates = candidates[:count]
			}
			mu.Lock()
			pool = append(pool, candidates...)
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	// A question tagged with two sampled constructs can be drawn twice;
	// de-duplicate by id before the final reduction.
	seen := make(map[string]bool, len(pool))
	unique := pool[:0]
	for _, q := range pool {
		if seen[q.ID] {
			continue
		}
		seen[q.ID] = true
		unique = append(unique, q)
	}

	s.shuffle(len(unique), func(i, j int) {
		unique[i], unique[j] = unique[j], unique[i]
	})
	if len(unique) > s.dailyCount {
		unique = unique[:s.dailyCount]
	}
	return unique, nil
}

// CheckinAnswer is one submitted answer. Exactly one of Likert/Emoji/Text is
// expected, matching the question type.
type CheckinAnswer struct {
	QuestionID string `json:"question_id"`
	Likert     int    `json:"likert,omitempty"`
	Emoji      string `json:"emoji,omitempty"`
	Text       string `json:"text,omitempty"`
}

// SubmitResponses records today's answers for a user. One response per user
// per question per day: answers for already-answered questions are skipped
// rather than overwritten, since responses are immutable once written.
func (s *CheckinService) SubmitResponses(ctx context.Context, userID string, answers []CheckinAnswer) (int, error) {
	if userID == "" {
		return 0, NewInvalidError("user_id required")
	}
	if len(answers) == 0 {
		return 0, NewInvalidError("answers required")
	}
	profile, err := s.store.GetProfile(userID)
	if err != nil {
		return 0, err
	}
	if profile == nil {
		return 0, NewUnavailableError("profile not found")
	}

	date := s.now().Format("2006-01-02")
	existing, err := s.store.ListResponses(userID, date)
	if err != nil {
		return 0, err
	}
	answered := make(map[string]bool, len(existing))
	for _, r := range existing {
		answered[r.QuestionID] = true
	}

	now := s.now()
	rs := make([]*Response, 0, len(answers))
	for _, a := range answers {
		if answered[a.QuestionID] {
			continue
		}
		q, err := s.store.GetQuestion(a.QuestionID)
		if err != nil {
			return 0, err
		}
		if q == nil {
			return 0, NewNotFoundError("question not found: " + a.QuestionID)
		}
		r := &Response{UserID: userID, QuestionID: a.QuestionID, Date: date, RespondedAt: now}
		switch q.Type {
		case ResponseLikert:
			if a.Likert < 1 || a.Likert > 5 {
				return 0, NewInvalidError("likert value must be 1-5")
			}
			r.Likert = a.Likert
		case ResponseEmoji:
			if a.Emoji == "" {
				return 0, NewInvalidError("emoji value required")
			}
			r.Emoji = a.Emoji
		case ResponseFreetext:
			if a.Text == "" {
				return 0, NewInvalidError("text value required")
			}
			r.Text = a.Text
		default:
			return 0, NewInvalidError("unknown question type")
		}
		answered[a.QuestionID] = true
		rs = append(rs, r)
	}
	if len(rs) == 0 {
		return 0, nil
	}
	if err := s.store.AddResponses(rs); err != nil {
		return 0, err
	}
	return len(rs), nil
}
