package state

import tele "gopkg.in/telebot.v4"

// State identifies a finite-state-machine step used in conversations.
type State string

const (
	// StateIdle indicates there is no active conversation.
	StateIdle State = "idle"
)

// Conversation identifies one dialog: a user acting within a specific chat.
type Conversation struct {
	ChatID int64
	UserID int64
}

// ConversationOf derives the conversation key from an incoming update.
func ConversationOf(c tele.Context) Conversation {
	var conv Conversation
	if chat := c.Chat(); chat != nil {
		conv.ChatID = chat.ID
	}
	if sender := c.Sender(); sender != nil {
		conv.UserID = sender.ID
	}
	return conv
}

// Session stores the FSM state and an in-progress draft for one conversation.
// Draft holds flow-specific accumulated input; handlers type-assert it to the
// draft type they registered.
type Session struct {
	State State
	Draft any
}

// Manager orchestrates conversation sessions and FSM state transitions.
type Manager interface {
	SetState(conv Conversation, st State)
	State(conv Conversation) State
	HasState(conv Conversation) bool
	ClearState(conv Conversation)

	SetDraft(conv Conversation, draft any)
	Draft(conv Conversation) (any, bool)

	// Clear removes the whole session: state and draft.
	Clear(conv Conversation)

	InProgress(conv Conversation) bool

	// Register associates a state with the handler that consumes the next
	// update while the conversation is in that state.
	Register(st State, h tele.HandlerFunc)

	// HandleCurrent dispatches the update to the handler registered for the
	// conversation's current state. It is a no-op when no handler matches.
	HandleCurrent(c tele.Context) error
}
