package services

import (
	"context"
	"sort"
	"time"
)

// EncryptedPlaceholder is what readers see for a message they cannot decrypt.
// A bad key or a corrupted envelope degrades that one message, never the list.
const EncryptedPlaceholder = "[Encrypted]"

// ChannelStore abstracts persistence operations required by ChannelService.
type ChannelStore interface {
	GetProfile(userID string) (*Profile, error)
	AddMessage(m *EncryptedMessage) error
	// ListMessages returns every message the user sent or received.
	ListMessages(userID string) ([]*EncryptedMessage, error)
	AddAudit(entry AuditEntry)
}

// ChannelService runs the couple's end-to-end encrypted private channel. The
// store only ever sees sealed envelopes.
type ChannelService struct {
	store ChannelStore
	keys  *Keyring
	now   func() time.Time
	idGen func() string
}

func NewChannelService(store ChannelStore, keys *Keyring) *ChannelService {
	return &ChannelService{
		store: store,
		keys:  keys,
		now:   func() time.Time { return time.Now().UTC() },
		idGen: func() string { return compactUUID(0) },
	}
}

// ChannelMessage is a decrypted view of one stored message.
type ChannelMessage struct {
	ID          string    `json:"id"`
	SenderID    string    `json:"sender_id"`
	RecipientID string    `json:"recipient_id"`
	Text        string    `json:"text"`
	Attachment  bool      `json:"attachment,omitempty"`
	SentAt      time.Time `json:"sent_at"`
}

// Send encrypts text for the caller's partner and persists the envelope.
// In passphrase mode a missing passphrase fails this one operation.
func (s *ChannelService) Send(ctx context.Context, userID, text, passphrase string) (*EncryptedMessage, error) {
	return s.send(userID, text, passphrase, false)
}

// SendAttachment wraps a reference to externally stored binary data in the
// same envelope as a text message. The raw bytes never pass through here.
func (s *ChannelService) SendAttachment(ctx context.Context, userID, storagePath, passphrase string) (*EncryptedMessage, error) {
	return s.send(userID, storagePath, passphrase, true)
}

func (s *ChannelService) send(userID, text, passphrase string, attachment bool) (*EncryptedMessage, error) {
	if text == "" {
		return nil, NewInvalidError("text required")
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

	key, err := s.keys.MessageKey(userID, passphrase)
	if err != nil {
		return nil, err
	}
	env, err := Seal(key, []byte(text))
	if err != nil {
		return nil, err
	}

	msg := &EncryptedMessage{
		ID:          s.idGen(),
		SenderID:    userID,
		RecipientID: profile.PartnerID,
		Ciphertext:  env.Ciphertext,
		IV:          env.IV,
		Attachment:  attachment,
		SentAt:      s.now(),
	}
	if s.keys.Mode() == KeyModePassphrase {
		msg.Salt = newSalt()
	}
	if err := s.store.AddMessage(msg); err != nil {
		return nil, err
	}
	s.store.AddAudit(AuditEntry{Time: s.now(), Actor: userID, Action: "channel_send", Target: profile.PartnerID, Note: msg.ID})
	return msg, nil
}

// List returns the caller's conversation in send order, decrypting lazily.
// Messages that fail to decrypt come back as the placeholder so one bad
// envelope cannot take down the whole listing.
func (s *ChannelService) List(ctx context.Context, userID, passphrase string) ([]*ChannelMessage, error) {
	msgs, err := s.store.ListMessages(userID)
	if err != nil {
		return nil, err
	}
	sort.Slice(msgs, func(i, j int) bool { return msgs[i].SentAt.Before(msgs[j].SentAt) })

	out := make([]*ChannelMessage, 0, len(msgs))
	for _, m := range msgs {
		cm := &ChannelMessage{
			ID:          m.ID,
			SenderID:    m.SenderID,
			RecipientID: m.RecipientID,
			Text:        EncryptedPlaceholder,
			Attachment:  m.Attachment,
			SentAt:      m.SentAt,
		}
		if key, err := s.keys.MessageKey(userID, passphrase); err == nil {
			if pt, err := Open(key, &Envelope{Ciphertext: m.Ciphertext, IV: m.IV, Salt: m.Salt}); err == nil {
				cm.Text = string(pt)
			}
		}
		out = append(out, cm)
	}
	return out, nil
}
