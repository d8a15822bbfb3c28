package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/rs/zerolog"

	"smartbiz.ai/advisor/internal/auth"
	"smartbiz.ai/advisor/internal/core"
	"smartbiz.ai/advisor/internal/render"
	"smartbiz.ai/advisor/internal/store"
)

type contextKey string

const (
	claimsKey  contextKey = "claims"
	sessionKey contextKey = "session"
	tokenKey   contextKey = "token"
)

type APIHandler struct {
	chatService *core.ChatService
	auth        auth.Provider
	log         zerolog.Logger
}

func NewAPIHandler(cs *core.ChatService, provider auth.Provider, log zerolog.Logger) *APIHandler {
	return &APIHandler{chatService: cs, auth: provider, log: log.With().Str("component", "api").Logger()}
}

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

// writeAuthError maps account errors to a status and the user-facing message.
func (h *APIHandler) writeAuthError(w http.ResponseWriter, err error) {
	var verr *auth.ValidationError
	var aerr *auth.AuthError
	switch {
	case errors.As(err, &verr):
		writeError(w, http.StatusBadRequest, verr.Message)
	case errors.As(err, &aerr):
		status := http.StatusUnauthorized
		switch aerr.Code {
		case auth.CodeEmailInUse:
			status = http.StatusConflict
		case auth.CodeTooManyRequests:
			status = http.StatusTooManyRequests
		case auth.CodeProfileMissing:
			status = http.StatusNotFound
		}
		writeError(w, status, auth.FriendlyMessage(err))
	default:
		h.log.Error().Err(err).Msg("account operation failed")
		writeError(w, http.StatusInternalServerError, auth.FriendlyMessage(err))
	}
}

func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if !strings.HasPrefix(header, "Bearer ") {
		return ""
	}
	return strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
}

// JWTAuthMiddleware verifies the bearer token and attaches the caller's
// chat session. A valid token whose session is not in memory (after a
// restart) gets a fresh session seeded from stored history.
func (h *APIHandler) JWTAuthMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := bearerToken(r)
		if token == "" {
			writeError(w, http.StatusUnauthorized, "Authorization header is required")
			return
		}

		claims, err := h.auth.Verify(token)
		if err != nil {
			h.writeAuthError(w, err)
			return
		}

		sess, ok := h.chatService.Session(claims.SessionID)
		if !ok {
			user, err := h.auth.Profile(r.Context(), claims.UserID())
			if err != nil {
				h.writeAuthError(w, err)
				return
			}
			sess = h.chatService.EnsureSession(claims.SessionID, user, claims.Expiry())
		}

		ctx := context.WithValue(r.Context(), claimsKey, claims)
		ctx = context.WithValue(ctx, sessionKey, sess)
		ctx = context.WithValue(ctx, tokenKey, token)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func claimsFrom(ctx context.Context) auth.Claims {
	claims, _ := ctx.Value(claimsKey).(auth.Claims)
	return claims
}

func sessionFrom(ctx context.Context) *core.Session {
	sess, _ := ctx.Value(sessionKey).(*core.Session)
	return sess
}

type ChatProxyRequest struct {
	Message string `json:"message"`
}

type ChatProxyResponse struct {
	Success  bool   `json:"success"`
	Response string `json:"response"`
}

// ChatProxyHandler answers a single prompt. It always succeeds for a
// non-blank message because unavailable completions fall back locally.
func (h *APIHandler) ChatProxyHandler(w http.ResponseWriter, r *http.Request) {
	var req ChatProxyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, ChatProxyResponse{Response: "Invalid request body"})
		return
	}

	text, _, err := h.chatService.Analyze(r.Context(), req.Message)
	if errors.Is(err, core.ErrBlankPrompt) {
		writeJSON(w, http.StatusBadRequest, ChatProxyResponse{Response: "Message cannot be empty"})
		return
	}
	writeJSON(w, http.StatusOK, ChatProxyResponse{Success: true, Response: text})
}

func (h *APIHandler) HealthHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status": "OK",
		"ai":     h.chatService.CompletionName(),
	})
}

func (h *APIHandler) QuickQuestionsHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string][]string{"questions": render.QuickQuestions})
}

type AuthResponse struct {
	Token string      `json:"token"`
	User  *store.User `json:"user"`
	Turns []core.Turn `json:"turns"`
}

func (h *APIHandler) startSession(w http.ResponseWriter, status int, id auth.Identity) {
	sess := h.chatService.StartSession(id.Claims.SessionID, id.User, id.Claims.Expiry())
	writeJSON(w, status, AuthResponse{Token: id.Token, User: id.User, Turns: sess.Turns()})
}

func (h *APIHandler) SignupHandler(w http.ResponseWriter, r *http.Request) {
	var req auth.SignUpRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}

	id, err := h.auth.SignUp(r.Context(), req)
	if err != nil {
		h.writeAuthError(w, err)
		return
	}
	h.startSession(w, http.StatusCreated, id)
}

func (h *APIHandler) LoginHandler(w http.ResponseWriter, r *http.Request) {
	var req auth.SignInRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}

	id, err := h.auth.SignIn(r.Context(), req.Email, req.Password)
	if err != nil {
		h.writeAuthError(w, err)
		return
	}
	h.startSession(w, http.StatusOK, id)
}

// LogoutHandler revokes the token and discards the in-memory session.
func (h *APIHandler) LogoutHandler(w http.ResponseWriter, r *http.Request) {
	token, _ := r.Context().Value(tokenKey).(string)
	if err := h.auth.SignOut(r.Context(), token); err != nil {
		h.writeAuthError(w, err)
		return
	}
	h.chatService.EndSession(claimsFrom(r.Context()).SessionID)
	w.WriteHeader(http.StatusNoContent)
}

type SessionResponse struct {
	State string      `json:"state"`
	Turns []core.Turn `json:"turns"`
}

func (h *APIHandler) GetSessionHandler(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r.Context())
	writeJSON(w, http.StatusOK, SessionResponse{State: sess.State().String(), Turns: sess.Turns()})
}

type PostMessageRequest struct {
	Content string `json:"content"`
}

func (h *APIHandler) PostMessageHandler(w http.ResponseWriter, r *http.Request) {
	var req PostMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}

	exchange, err := sessionFrom(r.Context()).Submit(r.Context(), req.Content)
	switch {
	case errors.Is(err, core.ErrBlankPrompt):
		writeError(w, http.StatusBadRequest, "Message content cannot be empty")
	case errors.Is(err, core.ErrAwaitingReply):
		writeError(w, http.StatusConflict, "Still working on your previous question")
	case err != nil:
		h.log.Error().Err(err).Msg("Failed to submit message")
		writeError(w, http.StatusInternalServerError, "Failed to post message")
	default:
		writeJSON(w, http.StatusOK, exchange)
	}
}

// SpeechHandler returns the latest assistant reply without markdown markers.
func (h *APIHandler) SpeechHandler(w http.ResponseWriter, r *http.Request) {
	text := render.SpeechText(sessionFrom(r.Context()).LatestAssistantText())
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte(text))
}

func (h *APIHandler) ProfileHandler(w http.ResponseWriter, r *http.Request) {
	user, err := h.auth.Profile(r.Context(), claimsFrom(r.Context()).UserID())
	if err != nil {
		h.writeAuthError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

type UpdateProfileRequest struct {
	Name    *string `json:"name"`
	Phone   *string `json:"phone"`
	Pincode *string `json:"pincode"`
}

func (h *APIHandler) UpdateProfileHandler(w http.ResponseWriter, r *http.Request) {
	var req UpdateProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}

	user, err := h.auth.UpdateProfile(r.Context(), claimsFrom(r.Context()).UserID(), store.UserFields{
		DisplayName: req.Name,
		Phone:       req.Phone,
		Pincode:     req.Pincode,
	})
	if err != nil {
		h.writeAuthError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

func (h *APIHandler) AnalyzeBusinessHandler(w http.ResponseWriter, r *http.Request) {
	var req core.BusinessData
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}

	report, err := h.chatService.AnalyzeBusiness(r.Context(), req)
	switch {
	case errors.Is(err, core.ErrMissingCompany), errors.Is(err, core.ErrInvalidRevenue):
		writeError(w, http.StatusBadRequest, err.Error())
		return
	case err != nil:
		h.log.Error().Err(err).Msg("Failed to analyze business")
		writeError(w, http.StatusInternalServerError, "Failed to analyze business")
		return
	}
	writeJSON(w, http.StatusOK, report)
}
