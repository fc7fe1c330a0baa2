package ws

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"log/slog"
	"net/http"
	"strings"

	"bluecollar-chat/auth"
	"bluecollar-chat/domain"
	"bluecollar-chat/errors"
	"bluecollar-chat/services"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// Handler upgrades authenticated HTTP requests into relay connections.
type Handler struct {
	log        *slog.Logger
	tokens     auth.TokenManager
	service    services.IChatService
	upgrader   websocket.Upgrader
	sendBuffer int
}

func NewHandler(log *slog.Logger, tokens auth.TokenManager, service services.IChatService, sendBuffer int) *Handler {
	return &Handler{
		log:     log,
		tokens:  tokens,
		service: service,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
		sendBuffer: sendBuffer,
	}
}

// bearerToken accepts the Authorization header or, for browser clients
// that cannot set headers on a websocket dial, a token query parameter.
func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if after, ok := strings.CutPrefix(header, "Bearer "); ok {
		return after
	}
	return r.URL.Query().Get("token")
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	identity, err := h.tokens.Verify(bearerToken(r))
	if err != nil {
		// Refused for good: the client must not retry with this token.
		h.log.Warn("Handshake refused", "remote", r.RemoteAddr, "error", err)
		http.Error(w, "unauthenticated", http.StatusUnauthorized)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn("Upgrade failed", "remote", r.RemoteAddr, "error", err)
		return
	}

	connID := uuid.NewString()
	client := NewClient(conn, h.sendBuffer, h.log.With("conn", connID, "user", identity.ID))

	h.service.Connect(identity.ID, connID, NewConnSink(identity.ID, client))
	defer h.service.Disconnect(connID, identity.ID)

	h.log.Info("Connection established", "conn", connID, "user", identity.ID, "role", identity.Role)

	go client.WritePump()
	client.ReadPump(func(data []byte) {
		h.route(r.Context(), client, connID, identity, data)
	})

	h.log.Info("Connection closed", "conn", connID, "user", identity.ID)
}

// route handles one inbound frame. Failures answer the originating
// connection with an error frame; other participants never see them.
func (h *Handler) route(ctx context.Context, client *Client, connID string, identity domain.Identity, data []byte) {
	decoded, err := DecodeInbound(data)
	if err != nil {
		_ = client.Enqueue(EncodeError(err))
		return
	}

	switch evt := decoded.(type) {
	case SendMessage:
		ack, err := h.service.Send(ctx, evt.ConversationID, identity.ID, evt.Payload)
		if err != nil {
			_ = client.Enqueue(EncodeError(err))
			return
		}
		_ = client.Enqueue(EncodeAck(ack))
	case JoinConversation:
		if err := h.service.Join(identity.ID, connID, evt.ConversationID); err != nil {
			_ = client.Enqueue(EncodeError(err))
		}
	case LeaveConversation:
		h.service.Leave(connID, evt.ConversationID)
	case MarkAsRead:
		if err := h.service.MarkRead(ctx, evt.ConversationID, identity.ID, evt.MessageIDs); err != nil {
			_ = client.Enqueue(EncodeError(err))
		}
	case Idle:
		h.service.Idle(identity.ID)
	case Active:
		h.service.Active(identity.ID)
	case TypingStart:
		h.service.Typing(ctx, evt.ConversationID, identity.ID, true)
	case TypingStop:
		h.service.Typing(ctx, evt.ConversationID, identity.ID, false)
	default:
		_ = client.Enqueue(EncodeError(errors.ErrInvalidPayload))
	}
}

// Routes mounts the socket endpoint plus the REST surface used before
// a socket exists: registration, login, history and search.
func Routes(mux *http.ServeMux, h *Handler, authService services.IAuthService) {
	mux.Handle("/ws", h)
	mux.HandleFunc("POST /auth/register", h.handleRegister(authService))
	mux.HandleFunc("POST /auth/login", h.handleLogin(authService))
	mux.HandleFunc("GET /conversations/{id}/messages", h.handleHistory)
	mux.HandleFunc("GET /conversations/{id}/search", h.handleSearch)
}

type credentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role,omitempty"`
}

type tokenResponse struct {
	Token string `json:"token"`
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case stderrors.Is(err, errors.ErrUnauthenticated), stderrors.Is(err, errors.ErrInvalidCredentials):
		status = http.StatusUnauthorized
	case stderrors.Is(err, errors.ErrNotParticipant):
		status = http.StatusForbidden
	case stderrors.Is(err, errors.ErrNotFound):
		status = http.StatusNotFound
	case stderrors.Is(err, errors.ErrInvalidPayload), stderrors.Is(err, errors.ErrInvalidPassword):
		status = http.StatusBadRequest
	case stderrors.Is(err, errors.ErrUserAlreadyExists):
		status = http.StatusConflict
	}
	writeJSON(w, status, map[string]string{
		"code":   string(errors.MapToCode(err)),
		"detail": err.Error(),
	})
}

func (h *Handler) handleRegister(authService services.IAuthService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req credentialsRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, errors.ErrInvalidPayload)
			return
		}
		token, err := authService.Register(req.Email, req.Password, domain.Role(req.Role))
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, tokenResponse{Token: string(token)})
	}
}

func (h *Handler) handleLogin(authService services.IAuthService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req credentialsRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, errors.ErrInvalidPayload)
			return
		}
		token, err := authService.Login(req.Email, req.Password)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, tokenResponse{Token: string(token)})
	}
}

func (h *Handler) handleHistory(w http.ResponseWriter, r *http.Request) {
	identity, err := h.tokens.Verify(bearerToken(r))
	if err != nil {
		writeError(w, err)
		return
	}
	conversationID := domain.ConversationID(r.PathValue("id"))

	var cursor *string
	if raw := r.URL.Query().Get("cursor"); raw != "" {
		cursor = &raw
	}

	messages, next, err := h.service.History(conversationID, cursor)
	if err != nil {
		writeError(w, err)
		return
	}

	type page struct {
		Messages []outboundMessage `json:"messages"`
		Next     *string           `json:"next,omitempty"`
		Unread   int               `json:"unread"`
	}
	resp := page{Next: next, Unread: h.service.Unread(conversationID, identity.ID)}
	for _, msg := range messages {
		resp.Messages = append(resp.Messages, outboundMessage{
			ID:             msg.ID.String(),
			ConversationID: string(msg.Conversation),
			Sender:         string(msg.Sender),
			Payload:        msg.Payload,
			Sequence:       msg.Sequence,
			CreatedAt:      msg.CreatedAt,
			Mine:           msg.Sender == identity.ID,
		})
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) handleSearch(w http.ResponseWriter, r *http.Request) {
	if _, err := h.tokens.Verify(bearerToken(r)); err != nil {
		writeError(w, err)
		return
	}
	conversationID := domain.ConversationID(r.PathValue("id"))
	terms := r.URL.Query().Get("q")

	hits, err := h.service.Search(r.Context(), conversationID, terms, 20)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"hits": hits})
}
