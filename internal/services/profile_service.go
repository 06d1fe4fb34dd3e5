package services

import (
	"context"
	"strings"
	"time"
)

// ProfileStore abstracts persistence operations required by ProfileService.
type ProfileStore interface {
	GetProfile(userID string) (*Profile, error)
	UpsertProfile(p *Profile) error
	FindProfileByInviteCode(code string) (*Profile, error)
	// AppendOutOfBounds adds a question id to the user's opt-out set. The set
	// only ever grows; duplicates are ignored.
	AppendOutOfBounds(userID, questionID string) error
	GetQuestion(id string) (*Question, error)
	AddAudit(entry AuditEntry)
}

type ProfileService struct {
	store   ProfileStore
	now     func() time.Time
	codeGen func() string
}

func NewProfileService(store ProfileStore) *ProfileService {
	return &ProfileService{
		store:   store,
		now:     func() time.Time { return time.Now().UTC() },
		codeGen: newInviteCode,
	}
}

// OnboardingInput carries the one-time profile setup: a 1-5 likert answer per
// construct plus an optional partner invite code.
type OnboardingInput struct {
	DisplayName string            `json:"display_name"`
	Answers     map[Construct]int `json:"answers"`
	PartnerCode string            `json:"partner_code,omitempty"`
}

// CompleteOnboarding turns likert answers into construct weights (answer/5),
// issues an invite code, and links partners when a valid code is supplied.
// Weights are immutable afterwards; there is no re-onboarding path.
func (s *ProfileService) CompleteOnboarding(ctx context.Context, userID string, in OnboardingInput) (*Profile, error) {
	if userID == "" {
		return nil, NewInvalidError("user_id required")
	}
	if strings.TrimSpace(in.DisplayName) == "" {
		return nil, NewInvalidError("display_name required")
	}
	for _, c := range AllConstructs {
		v, ok := in.Answers[c]
		if !ok {
			return nil, NewInvalidError("answer required for construct: " + string(c))
		}
		if v < 1 || v > 5 {
			return nil, NewInvalidError("answers must be 1-5")
		}
	}

	existing, err := s.store.GetProfile(userID)
	if err != nil {
		return nil, err
	}
	if existing != nil && existing.OnboardingDone {
		return nil, NewConflictError("onboarding already completed")
	}

	weights := make(map[Construct]float64, len(AllConstructs))
	for _, c := range AllConstructs {
		weights[c] = float64(in.Answers[c]) / 5
	}

	partnerID := ""
	var partner *Profile
	if code := strings.ToUpper(strings.TrimSpace(in.PartnerCode)); code != "" {
		partner, err = s.store.FindProfileByInviteCode(code)
		if err != nil {
			return nil, err
		}
		// An unknown code creates the profile unlinked; the partner can still
		// link later from their side.
		if partner != nil {
			partnerID = partner.UserID
		}
	}

	profile := &Profile{
		UserID:         userID,
		DisplayName:    strings.TrimSpace(in.DisplayName),
		InviteCode:     s.codeGen(),
		PartnerID:      partnerID,
		Weights:        weights,
		OnboardingDone: true,
		CreatedAt:      s.now(),
	}
	if err := s.store.UpsertProfile(profile); err != nil {
		return nil, err
	}
	if partner != nil && partner.PartnerID == "" {
		partner.PartnerID = userID
		if err := s.store.UpsertProfile(partner); err != nil {
			return nil, err
		}
	}
	s.store.AddAudit(AuditEntry{Time: s.now(), Actor: userID, Action: "onboarding_complete", Target: userID, Note: partnerID})
	return profile, nil
}

// GetProfile returns a user's profile or a not_found error.
func (s *ProfileService) GetProfile(ctx context.Context, userID string) (*Profile, error) {
	p, err := s.store.GetProfile(userID)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, NewNotFoundError("profile not found")
	}
	return p, nil
}

// MarkOutOfBounds opts the user out of a question for all future check-ins.
func (s *ProfileService) MarkOutOfBounds(ctx context.Context, userID, questionID string) error {
	if questionID == "" {
		return NewInvalidError("question_id required")
	}
	p, err := s.store.GetProfile(userID)
	if err != nil {
		return err
	}
	if p == nil {
		return NewUnavailableError("profile not found")
	}
	q, err := s.store.GetQuestion(questionID)
	if err != nil {
		return err
	}
	if q == nil {
		return NewNotFoundError("question not found")
	}
	if err := s.store.AppendOutOfBounds(userID, questionID); err != nil {
		return err
	}
	s.store.AddAudit(AuditEntry{Time: s.now(), Actor: userID, Action: "out_of_bounds", Target: questionID})
	return nil
}
