package api

import (
	"context"

	"github.com/pairsync/pairsync/internal/services"
)

type checkinStoreAdapter struct {
	store Store
}

func newCheckinStoreAdapter(store Store) services.CheckinStore {
	return &checkinStoreAdapter{store: store}
}

func (a *checkinStoreAdapter) GetProfile(userID string) (*services.Profile, error) {
	return toServiceProfile(a.store.GetProfile(userID)), nil
}

func (a *checkinStoreAdapter) ListQuestionsByConstruct(ctx context.Context, construct services.Construct, excluded []string, limit int) ([]*services.Question, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	qs := a.store.ListQuestionsByConstruct(string(construct), excluded, limit)
	out := make([]*services.Question, 0, len(qs))
	for _, q := range qs {
		out = append(out, toServiceQuestion(q))
	}
	return out, nil
}

func (a *checkinStoreAdapter) GetQuestion(id string) (*services.Question, error) {
	return toServiceQuestion(a.store.GetQuestion(id)), nil
}

func (a *checkinStoreAdapter) ListResponses(userID, date string) ([]*services.Response, error) {
	rs := a.store.ListResponses(userID, date)
	out := make([]*services.Response, 0, len(rs))
	for _, r := range rs {
		out = append(out, toServiceResponse(r))
	}
	return out, nil
}

func (a *checkinStoreAdapter) AddResponses(rs []*services.Response) error {
	conv := make([]*Response, 0, len(rs))
	for _, r := range rs {
		conv = append(conv, fromServiceResponse(r))
	}
	a.store.AddResponses(conv)
	return nil
}

var _ services.CheckinStore = (*checkinStoreAdapter)(nil)
