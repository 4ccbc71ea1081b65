package usecase

import (
	"context"
	"encoding/json"
	"strings"
	"sync"
	"time"

	"dongnezip/internal/domain/entity"
	"dongnezip/internal/domain/repository"
	"dongnezip/internal/infrastructure/ratelimit"
	ws "dongnezip/internal/infrastructure/websocket"
	"dongnezip/pkg/errors"
	"dongnezip/pkg/logger"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

type ChatState string

const (
	ChatIdle             ChatState = "idle"
	ChatLoadingHistory   ChatState = "loading_history"
	ChatConnectingSocket ChatState = "connecting_socket"
	ChatLive             ChatState = "live"
	ChatLoadingOlder     ChatState = "loading_older"
	ChatFailed           ChatState = "failed"
	ChatClosed           ChatState = "closed"
)

// Viewport is the message list's scroll geometry as the renderer reports it.
type Viewport struct {
	ScrollTop    float64 `json:"scrollTop"`
	ScrollHeight float64 `json:"scrollHeight"`
	ClientHeight float64 `json:"clientHeight"`
}

// ScrollAnchor pins the viewport across a prepend: capture before the older
// page lands, then apply Offset with the height measured after render.
type ScrollAnchor struct {
	PreviousHeight float64 `json:"previousHeight"`
	PreviousTop    float64 `json:"previousTop"`
}

func (a ScrollAnchor) Offset(newHeight float64) float64 {
	return a.PreviousTop + (newHeight - a.PreviousHeight)
}

type ChatMessageView struct {
	ID         int64              `json:"id,omitempty"`
	SenderID   entity.UserID      `json:"senderId"`
	SenderNick string             `json:"senderNick"`
	Body       string             `json:"message"`
	Kind       entity.MessageKind `json:"kind"`
	Origin     entity.Origin      `json:"origin"`
}

type ChatView struct {
	Room           entity.ChatRoom   `json:"room"`
	State          ChatState         `json:"state"`
	Messages       []ChatMessageView `json:"messages"`
	HasMore        bool              `json:"hasMore"`
	IsHost         bool              `json:"isHost"`
	PendingCleanup bool              `json:"pendingCleanup"`
	Error          string            `json:"error,omitempty"`
}

type chatEvent struct {
	RoomID  int64           `json:"roomId"`
	Message ChatMessageView `json:"message"`
}

// ChatSession owns one room's message list, its socket listeners and its
// pagination cursor. A generation counter makes results that land after Close
// or a re-Open no-ops.
type ChatSession struct {
	room      entity.ChatRoom
	chats     repository.ChatRepository
	listings  repository.ListingRepository
	socket    repository.RealtimeChannel
	store     *Store
	limiter   Limiter
	publisher Publisher
	pageSize  int
	log       *logger.Component

	mu             sync.Mutex
	generation     uint64
	state          ChatState
	messages       []entity.ChatMessage
	seen           map[int64]struct{}
	pending        []entity.ChatMessage
	historyLoaded  bool
	joined         bool
	failed         bool
	hasMore        bool
	loadingOlder   bool
	completing     bool
	pendingCleanup bool
	lastErr        string
	offs           []func()
}

type ChatSessionDeps struct {
	Chats     repository.ChatRepository
	Listings  repository.ListingRepository
	Socket    repository.RealtimeChannel
	Store     *Store
	Limiter   Limiter
	Publisher Publisher
	PageSize  int
}

func NewChatSession(room entity.ChatRoom, deps ChatSessionDeps) *ChatSession {
	if deps.PageSize <= 0 {
		deps.PageSize = 30
	}
	return &ChatSession{
		room:      room,
		chats:     deps.Chats,
		listings:  deps.Listings,
		socket:    deps.Socket,
		store:     deps.Store,
		limiter:   orNopLimiter(deps.Limiter),
		publisher: orNopPublisher(deps.Publisher),
		pageSize:  deps.PageSize,
		log:       logger.With("chat", "room", room.RoomID),
		state:     ChatIdle,
		seen:      make(map[int64]struct{}),
	}
}

func (s *ChatSession) Room() entity.ChatRoom {
	return s.room
}

func (s *ChatSession) State() ChatState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Open fetches the newest history page and joins the room on the socket at the
// same time. Live messages that beat the history fetch are held back and
// merged once it lands: by id, or against the page rows when they carry none.
// A connect failure or a later drop leaves the session Failed; no retry is
// attempted.
func (s *ChatSession) Open(ctx context.Context) error {
	session := s.store.Session()
	if !session.Resolved() {
		return errors.Unauthorized("login required to chat", nil)
	}

	s.mu.Lock()
	if s.state != ChatIdle && s.state != ChatFailed && s.state != ChatClosed {
		s.mu.Unlock()
		return nil
	}
	s.detachLocked()
	s.generation++
	gen := s.generation
	s.messages = nil
	s.seen = make(map[int64]struct{})
	s.pending = nil
	s.historyLoaded, s.joined, s.failed = false, false, false
	s.hasMore = false
	s.lastErr = ""
	s.state = ChatLoadingHistory
	s.offs = []func(){
		s.socket.On(ws.EventMessage, s.onMessage(gen)),
		s.socket.On(ws.EventNotice, s.onNotice(gen)),
		s.socket.On(ws.EventDisconnect, s.onDisconnect(gen)),
	}
	s.mu.Unlock()

	s.log.Info("opening")

	var g errgroup.Group
	g.Go(func() error { return s.loadHistory(ctx, gen) })
	g.Go(func() error { return s.join(ctx, gen, session) })
	err := g.Wait()

	s.publishState()
	return err
}

func (s *ChatSession) loadHistory(ctx context.Context, gen uint64) error {
	page, err := s.chats.Recent(ctx, s.room.RoomID)

	s.mu.Lock()
	defer s.mu.Unlock()
	if gen != s.generation {
		return nil
	}

	if err != nil {
		s.log.Error("history fetch failed: %v", err)
		s.lastErr = errors.Message(err)
		page = nil
	}

	rows := chronological(page)
	for _, m := range rows {
		s.appendLocked(m)
	}
	s.hasMore = err == nil && len(page) >= s.pageSize

	claimed := make([]bool, len(rows))
	for _, m := range s.pending {
		if m.ID == 0 && claimRow(rows, claimed, m) {
			continue
		}
		s.appendLocked(m)
	}
	s.pending = nil
	s.historyLoaded = true
	s.settleLocked()
	return err
}

func (s *ChatSession) join(ctx context.Context, gen uint64, session entity.Session) error {
	err := s.socket.Connect(ctx)
	if err == nil {
		err = s.socket.Emit(ws.EventJoinRoom, ws.JoinRoomData{Nickname: session.Nickname, RoomID: s.room.RoomID})
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if gen != s.generation {
		return nil
	}

	if err != nil {
		s.log.Error("socket join failed: %v", err)
		s.failed = true
		s.lastErr = errors.Message(err)
	} else {
		s.joined = true
	}
	s.settleLocked()
	return err
}

func (s *ChatSession) settleLocked() {
	switch {
	case s.state == ChatClosed:
	case s.failed:
		s.state = ChatFailed
	case s.loadingOlder:
		s.state = ChatLoadingOlder
	case !s.historyLoaded:
		s.state = ChatLoadingHistory
	case !s.joined:
		s.state = ChatConnectingSocket
	default:
		s.state = ChatLive
	}
}

// claimRow reports whether live message m, which carries no id, is already
// one of the history rows. The match runs from the newest row and each row is
// claimed at most once.
func claimRow(rows []entity.ChatMessage, claimed []bool, m entity.ChatMessage) bool {
	for i := len(rows) - 1; i >= 0; i-- {
		r := rows[i]
		if claimed[i] || r.SenderID != m.SenderID || r.Body != m.Body || r.Kind != m.Kind {
			continue
		}
		claimed[i] = true
		return true
	}
	return false
}

// appendLocked adds m at the tail unless a message with the same id is
// already there. Messages without an id are always kept.
func (s *ChatSession) appendLocked(m entity.ChatMessage) bool {
	if m.ID != 0 {
		if _, dup := s.seen[m.ID]; dup {
			return false
		}
		s.seen[m.ID] = struct{}{}
	}
	s.messages = append(s.messages, m)
	return true
}

func (s *ChatSession) onMessage(gen uint64) func(json.RawMessage) {
	return func(data json.RawMessage) {
		var payload ws.MessageData
		if err := json.Unmarshal(data, &payload); err != nil {
			s.log.Warn("malformed message event: %v", err)
			return
		}
		if payload.RoomID != 0 && payload.RoomID != s.room.RoomID {
			return
		}

		msg := payload.ToEntity()
		msg.RoomID = s.room.RoomID
		msg.ReceivedAt = time.Now()
		s.receive(gen, msg)
	}
}

func (s *ChatSession) onNotice(gen uint64) func(json.RawMessage) {
	return func(data json.RawMessage) {
		var text string
		if err := json.Unmarshal(data, &text); err != nil {
			text = string(data)
		}
		s.receive(gen, entity.ChatMessage{
			RoomID:     s.room.RoomID,
			Body:       text,
			Kind:       entity.MessageKindNotice,
			ReceivedAt: time.Now(),
		})
	}
}

// onDisconnect fails the session when the shared socket drops under it.
// Reopening dials again.
func (s *ChatSession) onDisconnect(gen uint64) func(json.RawMessage) {
	return func(json.RawMessage) {
		s.mu.Lock()
		if gen != s.generation || s.state == ChatClosed {
			s.mu.Unlock()
			return
		}
		s.failed = true
		s.joined = false
		s.lastErr = "chat server connection lost"
		s.settleLocked()
		s.mu.Unlock()

		s.log.Warn("socket dropped")
		s.publishState()
	}
}

func (s *ChatSession) receive(gen uint64, msg entity.ChatMessage) {
	s.mu.Lock()
	if gen != s.generation {
		s.mu.Unlock()
		return
	}
	if !s.historyLoaded {
		s.pending = append(s.pending, msg)
		s.mu.Unlock()
		return
	}
	added := s.appendLocked(msg)
	s.mu.Unlock()

	if added {
		local := s.store.Session().UserID
		s.publisher.Publish(TopicChatMessage, chatEvent{RoomID: s.room.RoomID, Message: viewOf(msg, local)})
	}
}

// View renders the list with origins resolved against the current identity.
func (s *ChatSession) View() ChatView {
	local := s.store.Session().UserID

	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]ChatMessageView, 0, len(s.messages))
	for _, m := range s.messages {
		out = append(out, viewOf(m, local))
	}
	return ChatView{
		Room:           s.room,
		State:          s.state,
		Messages:       out,
		HasMore:        s.hasMore,
		IsHost:         s.room.IsHost(local),
		PendingCleanup: s.pendingCleanup,
		Error:          s.lastErr,
	}
}

func viewOf(m entity.ChatMessage, local entity.UserID) ChatMessageView {
	return ChatMessageView{
		ID:         m.ID,
		SenderID:   m.SenderID,
		SenderNick: m.SenderNick,
		Body:       m.Body,
		Kind:       m.Kind,
		Origin:     m.OriginFor(local),
	}
}

// OnScroll loads an older page when the viewport reaches the top edge.
func (s *ChatSession) OnScroll(ctx context.Context, vp Viewport) (*ScrollAnchor, error) {
	if vp.ScrollTop > 0 {
		return nil, nil
	}
	return s.LoadOlder(ctx, vp)
}

// LoadOlder prepends the page before the oldest loaded message. It returns the
// anchor to restore, or nil when nothing was loaded: already loading, no more
// history, or nothing loaded yet.
func (s *ChatSession) LoadOlder(ctx context.Context, vp Viewport) (*ScrollAnchor, error) {
	s.mu.Lock()
	if s.loadingOlder || !s.hasMore || !s.historyLoaded || s.state == ChatClosed {
		s.mu.Unlock()
		return nil, nil
	}
	cursor := s.oldestIDLocked()
	if cursor == 0 {
		s.mu.Unlock()
		return nil, nil
	}
	s.loadingOlder = true
	s.settleLocked()
	gen := s.generation
	anchor := ScrollAnchor{PreviousHeight: vp.ScrollHeight, PreviousTop: vp.ScrollTop}
	s.mu.Unlock()

	page, err := s.chats.Older(ctx, s.room.RoomID, cursor)

	s.mu.Lock()
	defer s.mu.Unlock()
	if gen != s.generation {
		return nil, nil
	}
	s.loadingOlder = false
	s.settleLocked()

	if err != nil {
		s.log.Error("older page fetch failed: %v", err)
		s.lastErr = errors.Message(err)
		return nil, err
	}

	older := make([]entity.ChatMessage, 0, len(page))
	for _, m := range chronological(page) {
		if m.ID != 0 {
			if _, dup := s.seen[m.ID]; dup {
				continue
			}
			s.seen[m.ID] = struct{}{}
		}
		older = append(older, m)
	}
	s.messages = append(older, s.messages...)
	s.hasMore = len(page) >= s.pageSize
	s.lastErr = ""
	return &anchor, nil
}

func (s *ChatSession) oldestIDLocked() int64 {
	for _, m := range s.messages {
		if m.ID != 0 {
			return m.ID
		}
	}
	return 0
}

// SendText emits a text message. Nothing is inserted locally; the message
// shows up when the server echoes it back.
func (s *ChatSession) SendText(ctx context.Context, text string) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return errors.Validation("message is empty")
	}
	session, err := s.sender()
	if err != nil {
		return err
	}
	return s.emit(session, text, entity.MessageKindText)
}

// SendImage uploads file and emits the URL the backend returned.
func (s *ChatSession) SendImage(ctx context.Context, file entity.ImageFile) error {
	if len(file.Data) == 0 {
		return errors.Validation("image is empty")
	}
	if mime := mimetype.Detect(file.Data); !strings.HasPrefix(mime.String(), "image/") {
		return errors.Validation("only image files can be sent")
	}
	session, err := s.sender()
	if err != nil {
		return err
	}

	url, err := s.chats.UploadImage(ctx, entity.ImageUpload{
		RoomID:     s.room.RoomID,
		SenderID:   session.UserID,
		SenderNick: session.Nickname,
		ChatHost:   s.room.ChatHost,
		ChatGuest:  s.room.ChatGuest,
		File:       file,
	})
	if err != nil {
		s.log.Error("image upload failed: %v", err)
		return err
	}
	return s.emit(session, url, entity.MessageKindImage)
}

func (s *ChatSession) sender() (entity.Session, error) {
	session := s.store.Session()
	if !session.Resolved() {
		return entity.Session{}, errors.Unauthorized("login required to chat", nil)
	}
	if state := s.State(); state == ChatClosed || state == ChatIdle {
		return entity.Session{}, errors.BadRequest("chat room is not open", nil)
	}
	if err := s.limiter.Check(session.UserID.String(), ratelimit.ActionSendMessage); err != nil {
		return entity.Session{}, err
	}
	return session, nil
}

func (s *ChatSession) emit(session entity.Session, body string, kind entity.MessageKind) error {
	err := s.socket.Emit(ws.EventSend, ws.SendData{
		TempID:     uuid.NewString(),
		RoomID:     s.room.RoomID,
		SenderID:   session.UserID,
		SenderNick: session.Nickname,
		Msg:        body,
		Type:       kind,
	})
	if err != nil {
		s.log.Error("send failed: %v", err)
	}
	return err
}

// CompleteTransaction marks the listing sold to the guest and then deletes the
// room. Only the host may run it. When the room deletion fails after the sale
// was recorded, the session keeps a pending cleanup for ResumeCompletion.
func (s *ChatSession) CompleteTransaction(ctx context.Context) error {
	if !s.room.IsHost(s.store.Session().UserID) {
		return errors.Forbidden("only the seller can complete the transaction", nil)
	}

	s.mu.Lock()
	if s.completing {
		s.mu.Unlock()
		return errors.Busy("completion already in progress")
	}
	if s.pendingCleanup {
		s.mu.Unlock()
		return errors.BadRequest("transaction already completed, resume the room cleanup", nil)
	}
	s.completing = true
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.completing = false
		s.mu.Unlock()
	}()

	completed, err := RunSaga(ctx,
		SagaStep{
			Name: "complete transaction",
			Run: func(ctx context.Context) error {
				return s.listings.CompleteTransaction(ctx, s.room.ItemID, s.room.ChatGuest)
			},
		},
		SagaStep{
			Name: "delete chat room",
			Run: func(ctx context.Context) error {
				return s.chats.DeleteRoom(ctx, s.room.RoomID)
			},
		},
	)
	if err != nil {
		s.log.Error("completion stopped after %d step(s): %v", completed, err)
		if completed > 0 {
			s.mu.Lock()
			s.pendingCleanup = true
			s.lastErr = errors.Message(err)
			s.mu.Unlock()
			s.publishState()
		}
		return err
	}

	s.log.Info("transaction completed")
	s.finish()
	return nil
}

// ResumeCompletion retries only the room deletion; it is safe to repeat.
func (s *ChatSession) ResumeCompletion(ctx context.Context) error {
	s.mu.Lock()
	if !s.pendingCleanup {
		s.mu.Unlock()
		return errors.BadRequest("no pending cleanup", nil)
	}
	s.mu.Unlock()

	if err := s.chats.DeleteRoom(ctx, s.room.RoomID); err != nil && !errors.Is(err, errors.CodeNotFound) {
		s.log.Error("room cleanup failed again: %v", err)
		return err
	}

	s.mu.Lock()
	s.pendingCleanup = false
	s.lastErr = ""
	s.mu.Unlock()

	s.finish()
	return nil
}

func (s *ChatSession) finish() {
	s.store.RemoveRoom(s.room.RoomID)
	s.Close()
}

// Close removes this session's socket listeners. Results still in flight are
// dropped when they land. The shared socket stays open.
func (s *ChatSession) Close() {
	s.mu.Lock()
	if s.state == ChatClosed {
		s.mu.Unlock()
		return
	}
	s.generation++
	s.state = ChatClosed
	s.loadingOlder = false
	s.detachLocked()
	s.mu.Unlock()

	s.log.Info("closed")
	s.publishState()
}

func (s *ChatSession) detachLocked() {
	for _, off := range s.offs {
		off()
	}
	s.offs = nil
}

func (s *ChatSession) publishState() {
	s.mu.Lock()
	state := struct {
		RoomID int64     `json:"roomId"`
		State  ChatState `json:"state"`
		Error  string    `json:"error,omitempty"`
	}{s.room.RoomID, s.state, s.lastErr}
	s.mu.Unlock()
	s.publisher.Publish(TopicChatState, state)
}

// chronological returns a newest-first page oldest-first.
func chronological(page []entity.ChatMessage) []entity.ChatMessage {
	out := make([]entity.ChatMessage, len(page))
	for i, m := range page {
		out[len(page)-1-i] = m
	}
	return out
}
