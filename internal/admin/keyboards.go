package admin

import (
	tele "gopkg.in/telebot.v4"

	"quizbot/core/telegram/keyboard"
	"quizbot/internal/locale"
	"quizbot/internal/roster"
)

// Callback keys. Pick and confirm buttons carry the target id as payload.
const (
	cbUsersPanel   = "admin_users"
	cbPlayersPanel = "admin_players"
	cbBackToAdmin  = "back_to_admin"
	cbCloseAdmin   = "close_admin"
	cbCancelOp     = "cancel_op"

	cbAddUser        = "add_user"
	cbListUsers      = "list_users"
	cbDeleteUser     = "del_user"
	cbPickUser       = "del_user_pick"
	cbConfirmUserDel = "del_user_confirm"

	cbAddPlayer        = "add_player"
	cbListPlayers      = "list_players"
	cbDeletePlayer     = "del_player"
	cbPickPlayer       = "del_player_pick"
	cbConfirmPlayerDel = "del_player_confirm"

	cbSkipNickname = "skip_nickname"
	cbSkipPhoto    = "skip_photo"

	// Role buttons share the rolePrefix and are dispatched by prefix match.
	rolePrefix = "role_"
)

func (f *Flows) btn(key, fallback string) string {
	return f.text(locale.ModuleButtons, key, fallback)
}

func (f *Flows) mainPanelMarkup() *tele.ReplyMarkup {
	return keyboard.InlineButtons([]keyboard.InlineBtn{
		{Text: f.btn("manage_users", "👥 Manage users"), Unique: cbUsersPanel},
		{Text: f.btn("manage_players", "🎲 Manage players"), Unique: cbPlayersPanel},
		{Text: f.btn("close", "✖️ Close"), Unique: cbCloseAdmin},
	})
}

func (f *Flows) usersPanelMarkup() *tele.ReplyMarkup {
	return keyboard.InlineButtons([]keyboard.InlineBtn{
		{Text: f.btn("add_user", "➕ Add user"), Unique: cbAddUser},
		{Text: f.btn("list_users", "📋 List users"), Unique: cbListUsers},
		{Text: f.btn("delete_user", "🗑 Delete user"), Unique: cbDeleteUser},
		{Text: f.btn("back", "⬅️ Back"), Unique: cbBackToAdmin},
	})
}

func (f *Flows) playersPanelMarkup() *tele.ReplyMarkup {
	return keyboard.InlineButtons([]keyboard.InlineBtn{
		{Text: f.btn("add_player", "➕ Add player"), Unique: cbAddPlayer},
		{Text: f.btn("list_players", "📋 List players"), Unique: cbListPlayers},
		{Text: f.btn("delete_player", "🗑 Delete player"), Unique: cbDeletePlayer},
		{Text: f.btn("back", "⬅️ Back"), Unique: cbBackToAdmin},
	})
}

func (f *Flows) cancelMarkup() *tele.ReplyMarkup {
	return keyboard.SingleCancelMarkup(cbCancelOp, "", f.btn("cancel", "❌ Cancel"))
}

func (f *Flows) skipMarkup(skipUnique string) *tele.ReplyMarkup {
	return keyboard.InlineButtons([]keyboard.InlineBtn{
		{Text: f.btn("skip", "⏭ Skip"), Unique: skipUnique},
		{Text: f.btn("cancel", "❌ Cancel"), Unique: cbCancelOp, Data: "cancel"},
	})
}

func (f *Flows) roleMarkup() *tele.ReplyMarkup {
	return keyboard.InlineButtons([]keyboard.InlineBtn{
		{Text: f.btn("role_user", "👤 User"), Unique: rolePrefix + string(roster.RoleUser)},
		{Text: f.btn("role_admin", "👑 Admin"), Unique: rolePrefix + string(roster.RoleAdmin)},
		{Text: f.btn("cancel", "❌ Cancel"), Unique: cbCancelOp, Data: "cancel"},
	})
}

func (f *Flows) confirmMarkup(confirmUnique, payload string) *tele.ReplyMarkup {
	return keyboard.InlineButtonsRows(
		[]keyboard.InlineBtn{
			{Text: f.btn("confirm", "✅ Confirm"), Unique: confirmUnique, Data: payload},
			{Text: f.btn("cancel", "❌ Cancel"), Unique: cbCancelOp, Data: "cancel"},
		},
	)
}

func (f *Flows) backMarkup(unique string) *tele.ReplyMarkup {
	return keyboard.InlineButtons([]keyboard.InlineBtn{
		{Text: f.btn("back", "⬅️ Back"), Unique: unique},
	})
}
