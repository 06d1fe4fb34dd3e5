package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

type stubProfileStore struct {
	profiles  map[string]*Profile
	questions map[string]*Question
	audit     []AuditEntry
}

func newStubProfileStore() *stubProfileStore {
	return &stubProfileStore{profiles: map[string]*Profile{}, questions: map[string]*Question{}}
}

func (s *stubProfileStore) GetProfile(userID string) (*Profile, error) {
	return s.profiles[userID], nil
}

func (s *stubProfileStore) UpsertProfile(p *Profile) error {
	s.profiles[p.UserID] = p
	return nil
}

func (s *stubProfileStore) FindProfileByInviteCode(code string) (*Profile, error) {
	for _, p := range s.profiles {
		if p.InviteCode == code {
			return p, nil
		}
	}
	return nil, nil
}

func (s *stubProfileStore) AppendOutOfBounds(userID, questionID string) error {
	p := s.profiles[userID]
	for _, id := range p.OutOfBounds {
		if id == questionID {
			return nil
		}
	}
	p.OutOfBounds = append(p.OutOfBounds, questionID)
	return nil
}

func (s *stubProfileStore) GetQuestion(id string) (*Question, error) {
	return s.questions[id], nil
}

func (s *stubProfileStore) AddAudit(e AuditEntry) { s.audit = append(s.audit, e) }

func fullAnswers(v int) map[Construct]int {
	out := map[Construct]int{}
	for _, c := range AllConstructs {
		out[c] = v
	}
	return out
}

func TestCompleteOnboardingDerivesWeights(t *testing.T) {
	store := newStubProfileStore()
	svc := NewProfileService(store)
	svc.codeGen = func() string { return "ABC234" }

	answers := fullAnswers(3)
	answers[ConstructSensory] = 5
	answers[ConstructTemporal] = 1

	p, err := svc.CompleteOnboarding(context.Background(), "u1", OnboardingInput{DisplayName: "Ava", Answers: answers})
	require.NoError(t, err)
	require.Equal(t, "ABC234", p.InviteCode)
	require.True(t, p.OnboardingDone)
	require.InDelta(t, 1.0, p.Weights[ConstructSensory], 1e-9)
	require.InDelta(t, 0.2, p.Weights[ConstructTemporal], 1e-9)
	require.InDelta(t, 0.6, p.Weights[ConstructPlayfulness], 1e-9)
}

func TestCompleteOnboardingValidation(t *testing.T) {
	svc := NewProfileService(newStubProfileStore())

	_, err := svc.CompleteOnboarding(context.Background(), "u1", OnboardingInput{DisplayName: "Ava"})
	se, ok := AsServiceError(err)
	require.True(t, ok)
	require.Equal(t, ErrorInvalid, se.Code)

	bad := fullAnswers(3)
	bad[ConstructAutonomy] = 6
	_, err = svc.CompleteOnboarding(context.Background(), "u1", OnboardingInput{DisplayName: "Ava", Answers: bad})
	se, ok = AsServiceError(err)
	require.True(t, ok)
	require.Equal(t, ErrorInvalid, se.Code)
}

func TestCompleteOnboardingWeightsImmutable(t *testing.T) {
	store := newStubProfileStore()
	svc := NewProfileService(store)

	_, err := svc.CompleteOnboarding(context.Background(), "u1", OnboardingInput{DisplayName: "Ava", Answers: fullAnswers(4)})
	require.NoError(t, err)

	_, err = svc.CompleteOnboarding(context.Background(), "u1", OnboardingInput{DisplayName: "Ava", Answers: fullAnswers(1)})
	se, ok := AsServiceError(err)
	require.True(t, ok)
	require.Equal(t, ErrorConflict, se.Code, "no re-onboarding path exists")
	require.InDelta(t, 0.8, store.profiles["u1"].Weights[ConstructSensory], 1e-9)
}

func TestCompleteOnboardingLinksPartners(t *testing.T) {
	store := newStubProfileStore()
	svc := NewProfileService(store)
	svc.codeGen = func() string { return "FIRST1" }

	first, err := svc.CompleteOnboarding(context.Background(), "u1", OnboardingInput{DisplayName: "Ava", Answers: fullAnswers(3)})
	require.NoError(t, err)
	require.Empty(t, first.PartnerID)

	svc.codeGen = func() string { return "SECND2" }
	second, err := svc.CompleteOnboarding(context.Background(), "u2", OnboardingInput{
		DisplayName: "Ben",
		Answers:     fullAnswers(3),
		PartnerCode: "first1", // case-insensitive
	})
	require.NoError(t, err)
	require.Equal(t, "u1", second.PartnerID)
	require.Equal(t, "u2", store.profiles["u1"].PartnerID, "link is mutual")
}

func TestCompleteOnboardingUnknownCodeStaysUnlinked(t *testing.T) {
	store := newStubProfileStore()
	svc := NewProfileService(store)

	p, err := svc.CompleteOnboarding(context.Background(), "u1", OnboardingInput{
		DisplayName: "Ava",
		Answers:     fullAnswers(3),
		PartnerCode: "NOSUCH",
	})
	require.NoError(t, err)
	require.Empty(t, p.PartnerID)
}

func TestMarkOutOfBoundsIsMonotonic(t *testing.T) {
	store := newStubProfileStore()
	store.profiles["u1"] = &Profile{UserID: "u1"}
	store.questions["q1"] = &Question{ID: "q1"}
	store.questions["q2"] = &Question{ID: "q2"}
	svc := NewProfileService(store)

	require.NoError(t, svc.MarkOutOfBounds(context.Background(), "u1", "q1"))
	require.NoError(t, svc.MarkOutOfBounds(context.Background(), "u1", "q2"))
	require.NoError(t, svc.MarkOutOfBounds(context.Background(), "u1", "q1"))
	require.Equal(t, []string{"q1", "q2"}, store.profiles["u1"].OutOfBounds)

	err := svc.MarkOutOfBounds(context.Background(), "u1", "missing")
	se, ok := AsServiceError(err)
	require.True(t, ok)
	require.Equal(t, ErrorNotFound, se.Code)
}
