package state

import (
	"sync"

	"quizbot/core/logger"
	tghelpers "quizbot/core/telegram/helpers"
	"log/slog"

	tele "gopkg.in/telebot.v4"
)

type memoryManager struct {
	mu       sync.RWMutex
	sessions map[Conversation]*Session
	handlers map[State]tele.HandlerFunc
}

// NewMemoryManager constructs an in-memory Manager implementation.
func NewMemoryManager() Manager {
	return &memoryManager{
		sessions: make(map[Conversation]*Session),
		handlers: make(map[State]tele.HandlerFunc),
	}
}

// SetState sets the FSM state for the given conversation.
func (m *memoryManager) SetState(conv Conversation, st State) {
	m.mu.Lock()
	defer m.mu.Unlock()
	sess, ok := m.sessions[conv]
	if !ok {
		sess = &Session{}
		m.sessions[conv] = sess
	}
	sess.State = st
}

// State returns the current FSM state, or StateIdle if no session exists.
func (m *memoryManager) State(conv Conversation) State {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if sess, ok := m.sessions[conv]; ok {
		return sess.State
	}
	return StateIdle
}

// HasState checks whether the conversation has an active state other than idle.
func (m *memoryManager) HasState(conv Conversation) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	sess, ok := m.sessions[conv]
	return ok && sess.State != StateIdle
}

// ClearState resets the state to idle without discarding the draft.
func (m *memoryManager) ClearState(conv Conversation) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if sess, ok := m.sessions[conv]; ok {
		sess.State = StateIdle
	}
}

// SetDraft stores the in-progress draft for the conversation.
func (m *memoryManager) SetDraft(conv Conversation, draft any) {
	m.mu.Lock()
	defer m.mu.Unlock()
	sess, ok := m.sessions[conv]
	if !ok {
		sess = &Session{State: StateIdle}
		m.sessions[conv] = sess
	}
	sess.Draft = draft
}

// Draft returns the conversation's draft if one is set.
func (m *memoryManager) Draft(conv Conversation) (any, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	sess, ok := m.sessions[conv]
	if !ok || sess.Draft == nil {
		return nil, false
	}
	return sess.Draft, true
}

// Clear removes the entire session for the conversation.
func (m *memoryManager) Clear(conv Conversation) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, conv)
}

// InProgress reports whether the conversation currently has an active FSM state.
func (m *memoryManager) InProgress(conv Conversation) bool {
	return m.HasState(conv)
}

// Register associates a state with its handler.
func (m *memoryManager) Register(st State, h tele.HandlerFunc) {
	if h == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.handlers[st] = h
}

// HandleCurrent executes the handler registered for the conversation's current state, if any.
func (m *memoryManager) HandleCurrent(c tele.Context) error {
	conv := ConversationOf(c)
	current := m.State(conv)

	ctx := tghelpers.BuildContext(c)
	logger.Debug(ctx, "tg", "fsm.dispatch",
		slog.String("status", "ok"),
		slog.Int64("user_id", conv.UserID),
		slog.Int64("chat_id", conv.ChatID),
		slog.String("state", string(current)),
	)

	m.mu.RLock()
	handler, ok := m.handlers[current]
	m.mu.RUnlock()
	if ok {
		return handler(c)
	}
	return nil
}
