package api

import "github.com/pairsync/pairsync/internal/services"

func toServiceProfile(p *Profile) *services.Profile {
	if p == nil {
		return nil
	}
	weights := make(map[services.Construct]float64, len(p.Weights))
	for c, w := range p.Weights {
		weights[services.Construct(c)] = w
	}
	return &services.Profile{
		UserID:         p.UserID,
		DisplayName:    p.DisplayName,
		InviteCode:     p.InviteCode,
		PartnerID:      p.PartnerID,
		Weights:        weights,
		OutOfBounds:    append([]string(nil), p.OutOfBounds...),
		OnboardingDone: p.OnboardingDone,
		CreatedAt:      p.CreatedAt,
	}
}

func fromServiceProfile(p *services.Profile) *Profile {
	if p == nil {
		return nil
	}
	weights := make(map[string]float64, len(p.Weights))
	for c, w := range p.Weights {
		weights[string(c)] = w
	}
	return &Profile{
		UserID:         p.UserID,
		DisplayName:    p.DisplayName,
		InviteCode:     p.InviteCode,
		PartnerID:      p.PartnerID,
		Weights:        weights,
		OutOfBounds:    append([]string(nil), p.OutOfBounds...),
		OnboardingDone: p.OnboardingDone,
		CreatedAt:      p.CreatedAt,
	}
}

func toServiceQuestion(q *Question) *services.Question {
	if q == nil {
		return nil
	}
	return &services.Question{
		ID:         q.ID,
		Text:       q.Text,
		Type:       services.ResponseType(q.Type),
		Construct1: services.Construct(q.Construct1),
		Construct2: services.Construct(q.Construct2),
	}
}

func toServiceResponse(r *Response) *services.Response {
	return &services.Response{
		UserID:      r.UserID,
		QuestionID:  r.QuestionID,
		Date:        r.Date,
		Likert:      r.Likert,
		Emoji:       r.Emoji,
		Text:        r.Text,
		RespondedAt: r.RespondedAt,
	}
}

func fromServiceResponse(r *services.Response) *Response {
	return &Response{
		UserID:      r.UserID,
		QuestionID:  r.QuestionID,
		Date:        r.Date,
		Likert:      r.Likert,
		Emoji:       r.Emoji,
		Text:        r.Text,
		RespondedAt: r.RespondedAt,
	}
}

func toServiceMessage(m *EncryptedMessage) *services.EncryptedMessage {
	return &services.EncryptedMessage{
		ID:          m.ID,
		SenderID:    m.SenderID,
		RecipientID: m.RecipientID,
		Ciphertext:  m.Ciphertext,
		IV:          m.IV,
		Salt:        m.Salt,
		Attachment:  m.Attachment,
		SentAt:      m.SentAt,
	}
}

func fromServiceMessage(m *services.EncryptedMessage) *EncryptedMessage {
	return &EncryptedMessage{
		ID:          m.ID,
		SenderID:    m.SenderID,
		RecipientID: m.RecipientID,
		Ciphertext:  m.Ciphertext,
		IV:          m.IV,
		Salt:        m.Salt,
		Attachment:  m.Attachment,
		SentAt:      m.SentAt,
	}
}

func fromServiceAudit(e services.AuditEntry) AuditEntry {
	return AuditEntry{Time: e.Time, Actor: e.Actor, Action: e.Action, Target: e.Target, Note: e.Note}
}
