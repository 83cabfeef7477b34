package admin

import (
	"log/slog"

	tele "gopkg.in/telebot.v4"

	tghelpers "quizbot/core/telegram/helpers"
	"quizbot/core/telegram/state"
	"quizbot/internal/locale"
)

// handleStart greets a registered user.
func (f *Flows) handleStart(c tele.Context) error {
	name := ""
	if s := c.Sender(); s != nil {
		name = s.FirstName
	}
	return tghelpers.SendMD(c, f.textf(locale.ModuleBot, "start", "Hello, %s! This bot manages the quiz community roster.", md(name)))
}

// handleUnknownText answers free text that matches no command and no flow.
func (f *Flows) handleUnknownText(c tele.Context) error {
	return tghelpers.SendText(c, f.text(locale.ModuleBot, "unknown_command", "I don't know that command. Open the panel with /admin."))
}

// handleAdmin opens the main admin panel.
func (f *Flows) handleAdmin(c tele.Context) error {
	f.states.Clear(state.ConversationOf(c))
	return tghelpers.SendMD(c,
		f.text(locale.ModuleUI, "admin_panel", "*Admin panel*\nChoose a section:"),
		f.mainPanelMarkup(),
	)
}

// handleBackToAdmin returns to the main panel, dropping any active flow.
func (f *Flows) handleBackToAdmin(c tele.Context) error {
	f.states.Clear(state.ConversationOf(c))
	return tghelpers.EditOrSendMD(c,
		f.text(locale.ModuleUI, "admin_panel", "*Admin panel*\nChoose a section:"),
		f.mainPanelMarkup(),
	)
}

// handleCloseAdmin closes the panel message.
func (f *Flows) handleCloseAdmin(c tele.Context) error {
	f.states.Clear(state.ConversationOf(c))
	return tghelpers.EditOrSendMD(c, f.text(locale.ModuleUI, "admin_closed", "Panel closed."))
}

// handleCancel aborts the active flow from any state, discarding the draft.
func (f *Flows) handleCancel(c tele.Context) error {
	conv := state.ConversationOf(c)
	st := f.states.State(conv)
	f.states.Clear(conv)
	logFlowEvent(c, "flow.cancelled", slog.String("state", string(st)))
	return tghelpers.EditOrSendMD(c,
		f.text(locale.ModuleBot, "cancelled", "Operation cancelled."),
		f.mainPanelMarkup(),
	)
}

// handleUsersPanel shows the user-management section.
func (f *Flows) handleUsersPanel(c tele.Context) error {
	f.states.Clear(state.ConversationOf(c))
	return tghelpers.EditOrSendMD(c,
		f.text(locale.ModuleUI, "users_panel", "*User management*"),
		f.usersPanelMarkup(),
	)
}

// handlePlayersPanel shows the player-management section.
func (f *Flows) handlePlayersPanel(c tele.Context) error {
	f.states.Clear(state.ConversationOf(c))
	return tghelpers.EditOrSendMD(c,
		f.text(locale.ModuleUI, "players_panel", "*Player management*"),
		f.playersPanelMarkup(),
	)
}
