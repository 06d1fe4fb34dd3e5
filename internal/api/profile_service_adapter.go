package api

import (
	"github.com/pairsync/pairsync/internal/services"
)

type profileStoreAdapter struct {
	store Store
}

func newProfileStoreAdapter(store Store) services.ProfileStore {
	return &profileStoreAdapter{store: store}
}

func (a *profileStoreAdapter) GetProfile(userID string) (*services.Profile, error) {
	return toServiceProfile(a.store.GetProfile(userID)), nil
}

func (a *profileStoreAdapter) UpsertProfile(p *services.Profile) error {
	if p == nil {
		return services.NewInvalidError("profile required")
	}
	a.store.UpsertProfile(fromServiceProfile(p))
	return nil
}

func (a *profileStoreAdapter) FindProfileByInviteCode(code string) (*services.Profile, error) {
	return toServiceProfile(a.store.FindProfileByInviteCode(code)), nil
}

func (a *profileStoreAdapter) AppendOutOfBounds(userID, questionID string) error {
	if !a.store.AppendOutOfBounds(userID, questionID) {
		return services.NewUnavailableError("profile not found")
	}
	return nil
}

func (a *profileStoreAdapter) GetQuestion(id string) (*services.Question, error) {
	return toServiceQuestion(a.store.GetQuestion(id)), nil
}

func (a *profileStoreAdapter) AddAudit(entry services.AuditEntry) {
	a.store.AddAudit(fromServiceAudit(entry))
}

var _ services.ProfileStore = (*profileStoreAdapter)(nil)
