package admin

import (
	"errors"
	"log/slog"
	"strconv"
	"strings"

	tele "gopkg.in/telebot.v4"

	"quizbot/core/telegram/callbacks"
	tghelpers "quizbot/core/telegram/helpers"
	"quizbot/core/telegram/keyboard"
	"quizbot/core/telegram/state"
	"quizbot/internal/locale"
	"quizbot/internal/roster"
)

// handleAddUser enters the add-user flow and asks for a forwarded message.
func (f *Flows) handleAddUser(c tele.Context) error {
	conv := state.ConversationOf(c)
	f.states.Clear(conv)
	f.states.SetState(conv, StateAwaitUserForward)
	return tghelpers.EditOrSendMD(c,
		f.text(locale.ModuleBot, "user_forward_prompt", "Forward me any message from the user you want to register."),
		f.cancelMarkup(),
	)
}

// handleUserForward consumes the next message while waiting for a forward.
// Anything without a forwarded-from identity re-prompts in place.
func (f *Flows) handleUserForward(c tele.Context) error {
	msg := c.Message()
	if msg == nil || msg.OriginalSender == nil {
		return tghelpers.SendMD(c,
			f.text(locale.ModuleBot, "user_forward_retry", "That is not a forwarded message. Forward one from the target user, or cancel."),
			f.cancelMarkup(),
		)
	}

	origin := msg.OriginalSender
	ctx := tghelpers.BuildContext(c)
	exists, err := f.users.Exists(ctx, origin.ID)
	if err != nil {
		return f.fail(c, "user.add.failed", err)
	}
	if exists {
		// Abort, not retry: the flow ends here.
		f.states.Clear(state.ConversationOf(c))
		return tghelpers.SendMD(c, f.textf(locale.ModuleBot, "user_already_registered", "User *%s* is already registered.", md(displayName(origin))))
	}

	conv := state.ConversationOf(c)
	f.states.SetDraft(conv, &UserDraft{
		ID:        origin.ID,
		Username:  origin.Username,
		FirstName: origin.FirstName,
		LastName:  origin.LastName,
	})
	f.states.SetState(conv, StateAwaitUserRole)
	return tghelpers.SendMD(c,
		f.textf(locale.ModuleBot, "user_role_prompt", "Pick a role for *%s*:", md(displayName(origin))),
		f.roleMarkup(),
	)
}

// handleUserRoleText re-prompts when text arrives while a role button press
// is expected.
func (f *Flows) handleUserRoleText(c tele.Context) error {
	return tghelpers.SendMD(c,
		f.text(locale.ModuleBot, "user_role_retry", "Pick one of the role buttons."),
		f.roleMarkup(),
	)
}

// handleUserRole finishes the add-user flow on a role button press. The
// callback key carries the role after the shared prefix.
func (f *Flows) handleUserRole(c tele.Context) error {
	conv := state.ConversationOf(c)
	draft, ok := f.states.Draft(conv)
	if !ok {
		return f.restartNotice(c)
	}
	ud, ok := draft.(*UserDraft)
	if !ok {
		return f.restartNotice(c)
	}

	role := roster.Role(strings.TrimPrefix(callbacks.CallbackKey(c), rolePrefix))
	if !role.Valid() {
		return tghelpers.SendMD(c,
			f.text(locale.ModuleBot, "user_role_retry", "Pick one of the role buttons."),
			f.roleMarkup(),
		)
	}

	ctx := tghelpers.BuildContext(c)
	err := f.users.Insert(ctx, roster.User{
		ID:        ud.ID,
		Username:  ud.Username,
		FirstName: ud.FirstName,
		LastName:  ud.LastName,
		Role:      role,
	})
	f.states.Clear(conv)
	if errors.Is(err, roster.ErrAlreadyExists) {
		name := strings.TrimSpace(ud.FirstName + " " + ud.LastName)
		return tghelpers.EditOrSendMD(c, f.textf(locale.ModuleBot, "user_already_registered", "User *%s* is already registered.", md(name)))
	}
	if err != nil {
		return f.fail(c, "user.add.failed", err)
	}

	logFlowEvent(c, "user.add.done",
		slog.Int64("target_id", ud.ID),
		slog.String("role", string(role)),
	)
	return tghelpers.EditOrSendMD(c,
		f.textf(locale.ModuleBot, "user_added", "Registered *%s %s* with role *%s*.", md(ud.FirstName), md(ud.LastName), role),
		f.usersPanelMarkup(),
	)
}

// handleListUsers renders all registered users with role icons.
func (f *Flows) handleListUsers(c tele.Context) error {
	users, err := f.users.List(tghelpers.BuildContext(c))
	if err != nil {
		return f.fail(c, "user.list.failed", err)
	}
	if len(users) == 0 {
		return tghelpers.EditOrSendMD(c,
			f.text(locale.ModuleBot, "users_empty", "No users registered yet."),
			f.backMarkup(cbUsersPanel),
		)
	}

	var b strings.Builder
	b.WriteString(f.text(locale.ModuleUI, "users_list_header", "*Registered users:*"))
	for _, u := range users {
		icon := "👤"
		if u.Role.IsAdmin() {
			icon = "👑"
		}
		b.WriteString("\n")
		b.WriteString(icon)
		b.WriteString(" ")
		b.WriteString(md(u.DisplayName()))
	}
	return tghelpers.EditOrSendMD(c, b.String(), f.backMarkup(cbUsersPanel))
}

// handleDeleteUser lists deletable users as buttons. Admin accounts are not
// offered at all.
func (f *Flows) handleDeleteUser(c tele.Context) error {
	ctx := tghelpers.BuildContext(c)
	users, err := f.users.ListByRole(ctx, roster.RoleUser)
	if err != nil {
		return f.fail(c, "user.delete.failed", err)
	}
	if len(users) == 0 {
		return tghelpers.EditOrSendMD(c,
			f.text(locale.ModuleBot, "users_none_deletable", "There are no deletable users. Admin accounts must be demoted first."),
			f.backMarkup(cbUsersPanel),
		)
	}

	btns := make([]keyboard.InlineBtn, 0, len(users)+1)
	for _, u := range users {
		btns = append(btns, keyboard.InlineBtn{
			Text:   u.DisplayName(),
			Unique: cbPickUser,
			Data:   strconv.FormatInt(u.ID, 10),
		})
	}
	btns = append(btns, keyboard.InlineBtn{Text: f.btn("back", "⬅️ Back"), Unique: cbUsersPanel})
	return tghelpers.EditOrSendMD(c,
		f.text(locale.ModuleBot, "user_delete_pick", "Pick the user to delete:"),
		keyboard.InlineButtonsNPerRow(btns, 2),
	)
}

// handleDeleteUserPick asks for confirmation on the picked user.
func (f *Flows) handleDeleteUserPick(c tele.Context) error {
	id, err := callbacks.PayloadInt64(c)
	if err != nil {
		return f.fail(c, "user.delete.failed", err)
	}

	ctx := tghelpers.BuildContext(c)
	u, err := f.users.Get(ctx, id)
	if errors.Is(err, roster.ErrNotFound) {
		return tghelpers.EditOrSendMD(c,
			f.text(locale.ModuleBot, "user_gone", "That user no longer exists."),
			f.backMarkup(cbUsersPanel),
		)
	}
	if err != nil {
		return f.fail(c, "user.delete.failed", err)
	}

	return tghelpers.EditOrSendMD(c,
		f.textf(locale.ModuleBot, "user_delete_confirm", "Delete user *%s*?", md(u.DisplayName())),
		f.confirmMarkup(cbConfirmUserDel, strconv.FormatInt(u.ID, 10)),
	)
}

// handleDeleteUserConfirm re-validates and deletes the target. The target may
// have changed since the list was rendered, so existence and the admin guard
// are checked again here.
func (f *Flows) handleDeleteUserConfirm(c tele.Context) error {
	id, err := callbacks.PayloadInt64(c)
	if err != nil {
		return f.fail(c, "user.delete.failed", err)
	}

	ctx := tghelpers.BuildContext(c)
	err = f.users.Delete(ctx, id)
	switch {
	case errors.Is(err, roster.ErrNotFound):
		return tghelpers.EditOrSendMD(c,
			f.text(locale.ModuleBot, "user_gone", "That user no longer exists."),
			f.backMarkup(cbUsersPanel),
		)
	case errors.Is(err, roster.ErrAdminProtected):
		return tghelpers.EditOrSendMD(c,
			f.text(locale.ModuleBot, "user_admin_protected", "Admin accounts cannot be deleted. Demote the user first."),
			f.backMarkup(cbUsersPanel),
		)
	case err != nil:
		return f.fail(c, "user.delete.failed", err)
	}

	logFlowEvent(c, "user.delete.done", slog.Int64("target_id", id))
	return tghelpers.EditOrSendMD(c,
		f.text(locale.ModuleBot, "user_deleted", "User deleted."),
		f.usersPanelMarkup(),
	)
}

func displayName(u *tele.User) string {
	switch {
	case u == nil:
		return ""
	case u.FirstName != "" && u.LastName != "":
		return u.FirstName + " " + u.LastName
	case u.FirstName != "":
		return u.FirstName
	case u.Username != "":
		return "@" + u.Username
	default:
		return strconv.FormatInt(u.ID, 10)
	}
}
