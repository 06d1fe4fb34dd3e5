package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/pairsync/pairsync/internal/middleware"
	"github.com/pairsync/pairsync/internal/services"
)

func newTestHandler(t *testing.T, opts Options) http.Handler {
	t.Helper()
	store := NewMemoryStore()
	rt := NewRouter(store, opts)
	mux := http.NewServeMux()
	rt.Register(mux)
	return middleware.WithAuth(mux)
}

func doJSON(t *testing.T, h http.Handler, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, out any) {
	t.Helper()
	require.NoError(t, json.NewDecoder(rec.Body).Decode(out))
}

func register(t *testing.T, h http.Handler, email string) (userID, token string) {
	t.Helper()
	rec := doJSON(t, h, http.MethodPost, "/api/auth/register", "", map[string]string{
		"email": email, "password": "hunter2-but-longer",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var res struct {
		Token  string `json:"token"`
		UserID string `json:"user_id"`
	}
	decode(t, rec, &res)
	require.NotEmpty(t, res.Token)
	require.NotEmpty(t, res.UserID)
	return res.UserID, res.Token
}

func allFives() map[string]int {
	answers := map[string]int{}
	for _, c := range services.AllConstructs {
		answers[string(c)] = 5
	}
	return answers
}

func onboard(t *testing.T, h http.Handler, token, name, partnerCode string) map[string]any {
	t.Helper()
	body := map[string]any{"display_name": name, "answers": allFives()}
	if partnerCode != "" {
		body["partner_code"] = partnerCode
	}
	rec := doJSON(t, h, http.MethodPost, "/api/profiles/onboarding", token, body)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var profile map[string]any
	decode(t, rec, &profile)
	return profile
}

func TestRegisterLoginAndDuplicate(t *testing.T) {
	h := newTestHandler(t, Options{})

	register(t, h, "ana@example.com")

	rec := doJSON(t, h, http.MethodPost, "/api/auth/login", "", map[string]string{
		"email": "ana@example.com", "password": "hunter2-but-longer",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, h, http.MethodPost, "/api/auth/register", "", map[string]string{
		"email": "ana@example.com", "password": "hunter2-but-longer",
	})
	require.Equal(t, http.StatusConflict, rec.Code)

	rec = doJSON(t, h, http.MethodGet, "/api/auth/register", "", nil)
	require.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestAuthRequiredOnProfileRoutes(t *testing.T) {
	h := newTestHandler(t, Options{})

	rec := doJSON(t, h, http.MethodGet, "/api/profiles/me", "", nil)
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = doJSON(t, h, http.MethodGet, "/api/profiles/me", "not-a-jwt", nil)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestDailyQuestionsContract(t *testing.T) {
	h := newTestHandler(t, Options{})
	require.Equal(t, http.StatusOK, doJSON(t, h, http.MethodPost, "/api/seed", "", nil).Code)

	rec := doJSON(t, h, http.MethodGet, "/api/checkins/daily", "", nil)
	require.Equal(t, http.StatusMethodNotAllowed, rec.Code)

	rec = doJSON(t, h, http.MethodPost, "/api/checkins/daily", "", map[string]string{})
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doJSON(t, h, http.MethodPost, "/api/checkins/daily", "", map[string]string{"user_id": "nobody"})
	require.Equal(t, http.StatusNotFound, rec.Code)

	uid, token := register(t, h, "dana@example.com")
	onboard(t, h, token, "Dana", "")

	rec = doJSON(t, h, http.MethodPost, "/api/checkins/daily", "", map[string]string{"user_id": uid})
	require.Equal(t, http.StatusOK, rec.Code)
	var questions []struct {
		ID   string `json:"id"`
		Text string `json:"text"`
		Type string `json:"type"`
	}
	decode(t, rec, &questions)
	require.NotEmpty(t, questions)
	require.LessOrEqual(t, len(questions), services.DefaultDailyQuestionCount)
	for _, q := range questions {
		require.NotEmpty(t, q.ID)
		require.NotEmpty(t, q.Text)
		require.NotEmpty(t, q.Type)
	}
}

func TestCongruenceIncompleteWithoutEnoughResponses(t *testing.T) {
	h := newTestHandler(t, Options{})
	require.Equal(t, http.StatusOK, doJSON(t, h, http.MethodPost, "/api/seed", "", nil).Code)

	uidA, tokenA := register(t, h, "ana@example.com")
	_, tokenB := register(t, h, "ben@example.com")

	profileA := onboard(t, h, tokenA, "Ana", "")
	onboard(t, h, tokenB, "Ben", profileA["invite_code"].(string))

	rec := doJSON(t, h, http.MethodPost, "/api/sync/congruence", "", map[string]string{"user_id": uidA})
	require.Equal(t, http.StatusOK, rec.Code)
	var res struct {
		Score      *int   `json:"score"`
		Suggestion string `json:"suggestion"`
	}
	decode(t, rec, &res)
	require.Nil(t, res.Score)
	require.Equal(t, "incomplete", res.Suggestion)
}

func TestCoupleFlow(t *testing.T) {
	h := newTestHandler(t, Options{})
	require.Equal(t, http.StatusOK, doJSON(t, h, http.MethodPost, "/api/seed", "", nil).Code)

	uidA, tokenA := register(t, h, "ana@example.com")
	uidB, tokenB := register(t, h, "ben@example.com")

	profileA := onboard(t, h, tokenA, "Ana", "")
	profileB := onboard(t, h, tokenB, "Ben", profileA["invite_code"].(string))
	require.Equal(t, uidA, profileB["partner_id"])

	// Linking is mutual: Ana's profile now points back at Ben.
	rec := doJSON(t, h, http.MethodGet, "/api/profiles/me", tokenA, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var me map[string]any
	decode(t, rec, &me)
	require.Equal(t, uidB, me["partner_id"])

	answers := []map[string]any{
		{"question_id": "q-play-1", "likert": 4},
		{"question_id": "q-embo-1", "likert": 4},
		{"question_id": "q-auto-1", "likert": 4},
	}
	for _, token := range []string{tokenA, tokenB} {
		rec = doJSON(t, h, http.MethodPost, "/api/checkins/responses", token, map[string]any{"answers": answers})
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	}

	rec = doJSON(t, h, http.MethodPost, "/api/sync/congruence", "", map[string]string{"user_id": uidA})
	require.Equal(t, http.StatusOK, rec.Code)
	var sync struct {
		Score      *int   `json:"score"`
		Suggestion string `json:"suggestion"`
		Type       string `json:"type"`
	}
	decode(t, rec, &sync)
	require.NotNil(t, sync.Score)
	require.Equal(t, 100, *sync.Score)
	require.Equal(t, "intimate", sync.Type)
	require.NotEmpty(t, sync.Suggestion)

	rec = doJSON(t, h, http.MethodGet, "/api/sync/history", tokenA, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var history struct {
		Syncs []struct {
			Score int `json:"score"`
		} `json:"syncs"`
	}
	decode(t, rec, &history)
	require.Len(t, history.Syncs, 1)
	require.Equal(t, 100, history.Syncs[0].Score)
}

func TestMessagesRoundTrip(t *testing.T) {
	h := newTestHandler(t, Options{})

	uidA, tokenA := register(t, h, "ana@example.com")
	_, tokenB := register(t, h, "ben@example.com")
	profileA := onboard(t, h, tokenA, "Ana", "")
	onboard(t, h, tokenB, "Ben", profileA["invite_code"].(string))

	rec := doJSON(t, h, http.MethodPost, "/api/messages", tokenA, map[string]string{"text": "meet me at eight"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = doJSON(t, h, http.MethodPost, "/api/messages/attachment", tokenA, map[string]string{"storage_path": "photos/2026/beach.jpg"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = doJSON(t, h, http.MethodGet, "/api/messages", tokenB, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var res struct {
		Messages []struct {
			SenderID   string `json:"sender_id"`
			Text       string `json:"text"`
			Attachment bool   `json:"attachment"`
		} `json:"messages"`
	}
	decode(t, rec, &res)
	require.Len(t, res.Messages, 2)
	require.Equal(t, uidA, res.Messages[0].SenderID)
	require.Equal(t, "meet me at eight", res.Messages[0].Text)
	require.True(t, res.Messages[1].Attachment)
	require.Equal(t, "photos/2026/beach.jpg", res.Messages[1].Text)
}

func TestMessagesPassphraseMode(t *testing.T) {
	keys := services.NewKeyring(services.KeyModePassphrase, 1000)
	h := newTestHandler(t, Options{Keyring: keys})

	_, tokenA := register(t, h, "ana@example.com")
	_, tokenB := register(t, h, "ben@example.com")
	profileA := onboard(t, h, tokenA, "Ana", "")
	onboard(t, h, tokenB, "Ben", profileA["invite_code"].(string))

	rec := doJSON(t, h, http.MethodPost, "/api/messages", tokenA, map[string]string{"text": "secret plans"})
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doJSON(t, h, http.MethodPost, "/api/messages", tokenA, map[string]string{
		"text": "secret plans", "passphrase": "our shared phrase",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = doJSON(t, h, http.MethodGet, "/api/messages?passphrase=our+shared+phrase", tokenA, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var res struct {
		Messages []struct {
			Text string `json:"text"`
		} `json:"messages"`
	}
	decode(t, rec, &res)
	require.Len(t, res.Messages, 1)
	require.Equal(t, "secret plans", res.Messages[0].Text)
}

func TestOutOfBoundsRoute(t *testing.T) {
	h := newTestHandler(t, Options{})
	require.Equal(t, http.StatusOK, doJSON(t, h, http.MethodPost, "/api/seed", "", nil).Code)

	_, token := register(t, h, "dana@example.com")
	onboard(t, h, token, "Dana", "")

	rec := doJSON(t, h, http.MethodPost, "/api/profiles/out-of-bounds", token, map[string]string{"question_id": "q-nost-1"})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, h, http.MethodPost, "/api/profiles/out-of-bounds", token, map[string]string{"question_id": "no-such-question"})
	require.Equal(t, http.StatusNotFound, rec.Code)

	rec = doJSON(t, h, http.MethodGet, "/api/profiles/me", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var me struct {
		OutOfBounds []string `json:"out_of_bounds_questions"`
	}
	decode(t, rec, &me)
	require.Equal(t, []string{"q-nost-1"}, me.OutOfBounds)
}

func TestTokenTTLCoversAMonth(t *testing.T) {
	store := NewMemoryStore()
	rt := NewRouter(store, Options{})
	require.GreaterOrEqual(t, rt.auth.TokenTTL(), 30*24*time.Hour)
}
