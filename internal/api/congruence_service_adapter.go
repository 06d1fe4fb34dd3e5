package api

import (
	"github.com/pairsync/pairsync/internal/services"
)

type congruenceStoreAdapter struct {
	store Store
}

func newCongruenceStoreAdapter(store Store) services.CongruenceStore {
	return &congruenceStoreAdapter{store: store}
}

func (a *congruenceStoreAdapter) GetProfile(userID string) (*services.Profile, error) {
	return toServiceProfile(a.store.GetProfile(userID)), nil
}

func (a *congruenceStoreAdapter) ListResponses(userID, date string) ([]*services.Response, error) {
	rs := a.store.ListResponses(userID, date)
	out := make([]*services.Response, 0, len(rs))
	for _, r := range rs {
		out = append(out, toServiceResponse(r))
	}
	return out, nil
}

func (a *congruenceStoreAdapter) UpsertDailySync(sync *services.DailySync) error {
	if sync == nil {
		return services.NewInvalidError("sync required")
	}
	a.store.UpsertDailySync(&DailySync{
		CoupleID:  sync.CoupleID,
		Date:      sync.Date,
		Score:     sync.Score,
		Category:  sync.Category,
		CreatedAt: sync.CreatedAt,
	})
	return nil
}

func (a *congruenceStoreAdapter) ListActivities(category string) ([]*services.Activity, error) {
	acts := a.store.ListActivities(category)
	out := make([]*services.Activity, 0, len(acts))
	for _, act := range acts {
		out = append(out, &services.Activity{ID: act.ID, Type: act.Type, Text: act.Text})
	}
	return out, nil
}

func (a *congruenceStoreAdapter) ListDailySyncs(coupleID string) ([]*services.DailySync, error) {
	syncs := a.store.ListDailySyncs(coupleID)
	out := make([]*services.DailySync, 0, len(syncs))
	for _, sy := range syncs {
		out = append(out, &services.DailySync{CoupleID: sy.CoupleID, Date: sy.Date, Score: sy.Score, Category: sy.Category, CreatedAt: sy.CreatedAt})
	}
	return out, nil
}

func (a *congruenceStoreAdapter) AddAudit(entry services.AuditEntry) {
	a.store.AddAudit(fromServiceAudit(entry))
}

var _ services.CongruenceStore = (*congruenceStoreAdapter)(nil)
