package admin

import (
	tele "gopkg.in/telebot.v4"

	tg "quizbot/core/telegram"
	"quizbot/core/telegram/commands"
	tghelpers "quizbot/core/telegram/helpers"
	"quizbot/core/telegram/middleware"
	"quizbot/core/telegram/state"
	"quizbot/internal/locale"
)

// Register wires every admin workflow into the registry and the state
// manager. All registrations happen here, explicitly, at startup.
func Register(reg *tg.Registry, d Deps) *Flows {
	f := New(d)

	reg.RegisterCommand("/start", commands.Command{
		Handler:     f.handleStart,
		Description: "Greeting and bot overview",
	})
	reg.RegisterCommand("/admin", commands.Command{
		Handler:     f.handleAdmin,
		Description: "Open the admin panel",
		AdminOnly:   true,
	})

	reg.SetTextFallback(f.handleUnknownText)
	reg.SetCallbackNotFound(func(c tele.Context) error {
		_ = c.Respond(&tele.CallbackResponse{
			Text: f.text(locale.ModuleBot, "unsupported_action", "Unsupported action"),
		})
		return nil
	})

	// Panel navigation.
	_ = reg.RegisterCallback(cbUsersPanel, f.handleUsersPanel)
	_ = reg.RegisterCallback(cbPlayersPanel, f.handlePlayersPanel)
	_ = reg.RegisterCallback(cbBackToAdmin, f.handleBackToAdmin)
	_ = reg.RegisterCallback(cbCloseAdmin, f.handleCloseAdmin)
	_ = reg.RegisterCallback(cbCancelOp, f.handleCancel)

	// User management.
	_ = reg.RegisterCallback(cbAddUser, f.handleAddUser)
	_ = reg.RegisterCallback(cbListUsers, f.handleListUsers)
	_ = reg.RegisterCallback(cbDeleteUser, f.handleDeleteUser)
	_ = reg.RegisterCallback(cbPickUser, f.handleDeleteUserPick)
	_ = reg.RegisterCallback(cbConfirmUserDel, f.handleDeleteUserConfirm)

	// Buttons tied to a flow step only fire while the conversation is in it.
	noFlow := func(c tele.Context) error {
		return tghelpers.SendText(c, f.text(locale.ModuleBot, "no_active_flow", "There is no active operation for this button."))
	}
	inState := func(st state.State, h tele.HandlerFunc) tele.HandlerFunc {
		return middleware.State(d.States, st, noFlow)(h)
	}
	_ = reg.RegisterCallbackPrefix(rolePrefix, inState(StateAwaitUserRole, f.handleUserRole))

	// Player management.
	_ = reg.RegisterCallback(cbAddPlayer, f.handleAddPlayer)
	_ = reg.RegisterCallback(cbListPlayers, f.handleListPlayers)
	_ = reg.RegisterCallback(cbDeletePlayer, f.handleDeletePlayer)
	_ = reg.RegisterCallback(cbPickPlayer, f.handleDeletePlayerPick)
	_ = reg.RegisterCallback(cbConfirmPlayerDel, f.handleDeletePlayerConfirm)
	_ = reg.RegisterCallback(cbSkipNickname, inState(StateAwaitPlayerNick, f.handleSkipNickname))
	_ = reg.RegisterCallback(cbSkipPhoto, inState(StateAwaitPlayerPhoto, f.handleSkipPhoto))

	// FSM steps consume the next text/photo update of the conversation.
	d.States.Register(StateAwaitUserForward, f.handleUserForward)
	d.States.Register(StateAwaitUserRole, f.handleUserRoleText)
	d.States.Register(StateAwaitPlayerName, f.handlePlayerName)
	d.States.Register(StateAwaitPlayerNick, f.handlePlayerNickname)
	d.States.Register(StateAwaitPlayerPhoto, f.handlePlayerPhoto)
	d.States.Register(StateAwaitPlayerGames, f.handlePlayerGames)

	return f
}
