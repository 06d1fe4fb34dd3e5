package api

import (
	"github.com/pairsync/pairsync/internal/services"
)

type channelStoreAdapter struct {
	store Store
}

func newChannelStoreAdapter(store Store) services.ChannelStore {
	return &channelStoreAdapter{store: store}
}

func (a *channelStoreAdapter) GetProfile(userID string) (*services.Profile, error) {
	return toServiceProfile(a.store.GetProfile(userID)), nil
}

func (a *channelStoreAdapter) AddMessage(m *services.EncryptedMessage) error {
	if m == nil {
		return services.NewInvalidError("message required")
	}
	a.store.AddMessage(fromServiceMessage(m))
	return nil
}

func (a *channelStoreAdapter) ListMessages(userID string) ([]*services.EncryptedMessage, error) {
	msgs := a.store.ListMessages(userID)
	out := make([]*services.EncryptedMessage, 0, len(msgs))
	for _, m := range msgs {
		out = append(out, toServiceMessage(m))
	}
	return out, nil
}

func (a *channelStoreAdapter) AddAudit(entry services.AuditEntry) {
	a.store.AddAudit(fromServiceAudit(entry))
}

var _ services.ChannelStore = (*channelStoreAdapter)(nil)
