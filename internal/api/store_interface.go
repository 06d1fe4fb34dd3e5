package api

type Store interface {
	AddUser(u *User)
	FindUserByEmail(email string) *User

	UpsertProfile(p *Profile)
	GetProfile(userID string) *Profile
	FindProfileByInviteCode(code string) *Profile
	AppendOutOfBounds(userID, questionID string) bool

	AddQuestion(q *Question)
	GetQuestion(id string) *Question
	ListQuestionsByConstruct(construct string, excluded []string, limit int) []*Question

	AddActivity(a *Activity)
	ListActivities(category string) []*Activity

	AddResponses(rs []*Response)
	ListResponses(userID, date string) []*Response

	UpsertDailySync(sync *DailySync)
	ListDailySyncs(coupleID string) []*DailySync

	AddMessage(m *EncryptedMessage)
	ListMessages(userID string) []*EncryptedMessage

	AddAudit(e AuditEntry)
	ListAudit() []AuditEntry
}

var _ Store = (*memoryStore)(nil)
