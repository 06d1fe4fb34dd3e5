package api

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"github.com/pairsync/pairsync/internal/middleware"
	"github.com/pairsync/pairsync/internal/services"
)

type Router struct {
	store      Store
	log        *zap.Logger
	auth       *services.AuthService
	profiles   *services.ProfileService
	checkins   *services.CheckinService
	congruence *services.CongruenceService
	channel    *services.ChannelService
}

// Options tunes the router's services. Zero values fall back to defaults.
type Options struct {
	DailyQuestionCount int
	Keyring            *services.Keyring
	Logger             *zap.Logger
	SignToken          services.TokenSigner
}

func NewRouter(store Store, opts Options) *Router {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Keyring == nil {
		opts.Keyring = services.NewKeyring(services.KeyModeEphemeral, 0)
	}
	if opts.SignToken == nil {
		opts.SignToken = middleware.SignToken
	}
	return &Router{
		store:      store,
		log:        opts.Logger,
		auth:       services.NewAuthService(newAuthStoreAdapter(store), opts.SignToken),
		profiles:   services.NewProfileService(newProfileStoreAdapter(store)),
		checkins:   services.NewCheckinService(newCheckinStoreAdapter(store), opts.DailyQuestionCount),
		congruence: services.NewCongruenceService(newCongruenceStoreAdapter(store)),
		channel:    services.NewChannelService(newChannelStoreAdapter(store), opts.Keyring),
	}
}

func (rt *Router) Register(mux *http.ServeMux) {
	mux.HandleFunc("/api/auth/register", rt.handleRegister)          // POST
	mux.HandleFunc("/api/auth/login", rt.handleLogin)                // POST
	mux.Handle("/api/profiles/onboarding", authed(rt.handleOnboarding))
	mux.Handle("/api/profiles/me", authed(rt.handleProfileMe))
	mux.Handle("/api/profiles/out-of-bounds", authed(rt.handleOutOfBounds))
	mux.HandleFunc("/api/checkins/daily", rt.handleDailyQuestions)   // POST {user_id}
	mux.Handle("/api/checkins/responses", authed(rt.handleResponses))
	mux.HandleFunc("/api/sync/congruence", rt.handleCongruence)      // POST {user_id}
	mux.Handle("/api/sync/history", authed(rt.handleSyncHistory))
	mux.Handle("/api/messages", authed(rt.handleMessages))
	mux.Handle("/api/messages/attachment", authed(rt.handleAttachment))
	mux.HandleFunc("/api/seed", rt.handleSeed)                       // POST, dev only
}

func authed(h http.HandlerFunc) http.Handler {
	return middleware.RequireAuth(h)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError maps the service error taxonomy onto HTTP statuses. Unavailable
// data reads surface as 404, matching the entry-point contracts; anything
// unrecognized is a plain 500.
func (rt *Router) writeError(w http.ResponseWriter, err error) {
	se, ok := services.AsServiceError(err)
	if !ok {
		rt.log.Error("internal error", zap.Error(err))
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	status := http.StatusInternalServerError
	switch se.Code {
	case services.ErrorInvalid:
		status = http.StatusBadRequest
	case services.ErrorUnauthorized:
		status = http.StatusUnauthorized
	case services.ErrorForbidden:
		status = http.StatusForbidden
	case services.ErrorNotFound, services.ErrorUnavailable:
		status = http.StatusNotFound
	case services.ErrorConflict:
		status = http.StatusConflict
	}
	http.Error(w, se.Message, status)
}

// POST /api/auth/register {email, password}
func (rt *Router) handleRegister(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	res, err := rt.auth.Register(req.Email, req.Password)
	if err != nil {
		rt.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"token": res.Token, "user_id": res.UserID})
}

// POST /api/auth/login {email, password}
func (rt *Router) handleLogin(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	res, err := rt.auth.Login(req.Email, req.Password)
	if err != nil {
		rt.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"token": res.Token, "user_id": res.UserID})
}

// POST /api/profiles/onboarding {display_name, answers, partner_code?}
func (rt *Router) handleOnboarding(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	uid, _ := middleware.UserIDFromContext(r.Context())
	var in services.OnboardingInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	p, err := rt.profiles.CompleteOnboarding(r.Context(), uid, in)
	if err != nil {
		rt.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// GET /api/profiles/me
func (rt *Router) handleProfileMe(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	uid, _ := middleware.UserIDFromContext(r.Context())
	p, err := rt.profiles.GetProfile(r.Context(), uid)
	if err != nil {
		rt.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// POST /api/profiles/out-of-bounds {question_id}
func (rt *Router) handleOutOfBounds(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	uid, _ := middleware.UserIDFromContext(r.Context())
	var req struct {
		QuestionID string `json:"question_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err := rt.profiles.MarkOutOfBounds(r.Context(), uid, req.QuestionID); err != nil {
		rt.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

// POST /api/checkins/daily {user_id}
// Kept body-addressed rather than token-addressed: this endpoint mirrors the
// original serverless function contract, including its error statuses.
func (rt *Router) handleDailyQuestions(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req struct {
		UserID string `json:"user_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.UserID == "" {
		http.Error(w, "user_id required", http.StatusBadRequest)
		return
	}
	qs, err := rt.checkins.SelectDailyQuestions(r.Context(), req.UserID)
	if err != nil {
		rt.writeError(w, err)
		return
	}
	type outQuestion struct {
		ID   string `json:"id"`
		Text string `json:"text"`
		Type string `json:"type"`
	}
	out := make([]outQuestion, 0, len(qs))
	for _, q := range qs {
		out = append(out, outQuestion{ID: q.ID, Text: q.Text, Type: string(q.Type)})
	}
	writeJSON(w, http.StatusOK, out)
}

// POST /api/checkins/responses {answers: [{question_id, likert|emoji|text}]}
func (rt *Router) handleResponses(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	uid, _ := middleware.UserIDFromContext(r.Context())
	var req struct {
		Answers []services.CheckinAnswer `json:"answers"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	n, err := rt.checkins.SubmitResponses(r.Context(), uid, req.Answers)
	if err != nil {
		rt.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true, "count": n})
}

// POST /api/sync/congruence {user_id}
// Same body-addressed contract as the daily questions endpoint.
func (rt *Router) handleCongruence(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req struct {
		UserID string `json:"user_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.UserID == "" {
		http.Error(w, "user_id required", http.StatusBadRequest)
		return
	}
	res, err := rt.congruence.ComputeDailySync(r.Context(), req.UserID)
	if err != nil {
		rt.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// GET /api/sync/history
func (rt *Router) handleSyncHistory(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	uid, _ := middleware.UserIDFromContext(r.Context())
	syncs, err := rt.congruence.SyncHistory(r.Context(), uid)
	if err != nil {
		rt.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"syncs": syncs})
}

// POST /api/messages {text, passphrase?} | GET /api/messages?passphrase=
func (rt *Router) handleMessages(w http.ResponseWriter, r *http.Request) {
	uid, _ := middleware.UserIDFromContext(r.Context())
	switch r.Method {
	case http.MethodPost:
		var req struct {
			Text       string `json:"text"`
			Passphrase string `json:"passphrase"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		msg, err := rt.channel.Send(r.Context(), uid, req.Text, req.Passphrase)
		if err != nil {
			rt.channelError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"ok": true, "id": msg.ID})
	case http.MethodGet:
		msgs, err := rt.channel.List(r.Context(), uid, r.URL.Query().Get("passphrase"))
		if err != nil {
			rt.channelError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"messages": msgs})
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

// POST /api/messages/attachment {storage_path, passphrase?}
func (rt *Router) handleAttachment(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	uid, _ := middleware.UserIDFromContext(r.Context())
	var req struct {
		StoragePath string `json:"storage_path"`
		Passphrase  string `json:"passphrase"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	msg, err := rt.channel.SendAttachment(r.Context(), uid, req.StoragePath, req.Passphrase)
	if err != nil {
		rt.channelError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true, "id": msg.ID})
}

// channelError treats a missing passphrase as a required-input failure for
// the single operation.
func (rt *Router) channelError(w http.ResponseWriter, err error) {
	if err == services.ErrPassphraseRequired {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	rt.writeError(w, err)
}

// POST /api/seed — populate a small question catalog and activity list for
// local development.
func (rt *Router) handleSeed(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	questions := []*Question{
		{ID: "q-sens-1", Text: "Did a texture, scent, or sound stand out to you today?", Type: "likert", Construct1: "sensory"},
		{ID: "q-sens-2", Text: "Pick the emoji that matches how in-tune your senses felt.", Type: "emoji", Construct1: "sensory"},
		{ID: "q-play-1", Text: "I found a moment to be silly with my partner today.", Type: "likert", Construct1: "playfulness"},
		{ID: "q-play-2", Text: "We laughed together today.", Type: "likert", Construct1: "playfulness", Construct2: "embodiment"},
		{ID: "q-embo-1", Text: "I felt at home in my body today.", Type: "likert", Construct1: "embodiment"},
		{ID: "q-nost-1", Text: "A shared memory crossed my mind today.", Type: "likert", Construct1: "nostalgia"},
		{ID: "q-nost-2", Text: "Describe a memory of us you revisited today.", Type: "freetext", Construct1: "nostalgia", Construct2: "temporal"},
		{ID: "q-auto-1", Text: "I had enough space for myself today.", Type: "likert", Construct1: "autonomy"},
		{ID: "q-tran-1", Text: "Something today filled me with awe.", Type: "likert", Construct1: "transcendence"},
		{ID: "q-temp-1", Text: "Time felt unhurried when we were together.", Type: "likert", Construct1: "temporal"},
	}
	for _, q := range questions {
		rt.store.AddQuestion(q)
	}
	activities := []*Activity{
		{ID: "act-int-1", Type: "intimate", Text: "Cook a slow dinner together, phones away."},
		{ID: "act-int-2", Type: "intimate", Text: "Trade three favorite memories from this year."},
		{ID: "act-neu-1", Type: "neutral", Text: "Take a twenty-minute walk together."},
		{ID: "act-neu-2", Type: "neutral", Text: "Pick a playlist and share one song each."},
		{ID: "act-pla-1", Type: "platonic", Text: "Do a small chore for each other, no scorekeeping."},
		{ID: "act-pla-2", Type: "platonic", Text: "Watch something light and easy tonight."},
	}
	for _, a := range activities {
		rt.store.AddActivity(a)
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"ok":         true,
		"questions":  len(questions),
		"activities": len(activities),
	})
}
