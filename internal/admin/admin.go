// Package admin implements the role-gated management workflows: the admin
// panel, user whitelisting, and the quiz-player roster flows. Each multi-step
// flow is a linear FSM over the conversation state manager with a cancel exit
// from every state.
package admin

import (
	"fmt"
	"io"
	"log/slog"

	tele "gopkg.in/telebot.v4"

	"quizbot/core/logger"
	"quizbot/core/telegram/format"
	tghelpers "quizbot/core/telegram/helpers"
	"quizbot/core/telegram/state"
	"quizbot/internal/locale"
	"quizbot/internal/storage"
)

// Flow states. One conversation holds at most one of these at a time.
const (
	StateAwaitUserForward state.State = "user.await_forward"
	StateAwaitUserRole    state.State = "user.await_role"
	StateAwaitPlayerName  state.State = "player.await_name"
	StateAwaitPlayerNick  state.State = "player.await_nickname"
	StateAwaitPlayerPhoto state.State = "player.await_photo"
	StateAwaitPlayerGames state.State = "player.await_games"
)

// UserDraft accumulates the add-user flow input.
type UserDraft struct {
	ID        int64
	Username  string
	FirstName string
	LastName  string
}

// PlayerDraft accumulates the add-player flow input. PhotoFileID holds the
// Telegram file id of the largest photo variant; the file is downloaded only
// when the flow completes.
type PlayerDraft struct {
	FirstName   string
	LastName    string
	Nickname    string
	PhotoFileID string
}

// FileDownloader fetches file content from Telegram. *tele.Bot satisfies it.
type FileDownloader interface {
	File(file *tele.File) (io.ReadCloser, error)
}

// Deps carries the collaborators the workflows operate on.
type Deps struct {
	Users   *storage.Users
	Players *storage.Players
	Photos  *storage.PhotoStore
	States  state.Manager
	Texts   *locale.Bundle
	// Files may be nil; the add-player flow then skips photo download.
	Files FileDownloader
}

// Flows owns the admin workflow handlers.
type Flows struct {
	users   *storage.Users
	players *storage.Players
	photos  *storage.PhotoStore
	states  state.Manager
	texts   *locale.Bundle
	files   FileDownloader
}

// SetFiles wires the Telegram file downloader once the bot exists. Must be
// called before updates start flowing.
func (f *Flows) SetFiles(d FileDownloader) {
	f.files = d
}

// New constructs the workflows from their dependencies.
func New(d Deps) *Flows {
	return &Flows{
		users:   d.Users,
		players: d.Players,
		photos:  d.Photos,
		states:  d.States,
		texts:   d.Texts,
		files:   d.Files,
	}
}

func (f *Flows) text(module, key, fallback string) string {
	if f.texts == nil {
		return fallback
	}
	return f.texts.Get(module, key, fallback)
}

func (f *Flows) textf(module, key, fallback string, args ...any) string {
	if f.texts == nil {
		return fmt.Sprintf(fallback, args...)
	}
	return f.texts.Getf(module, key, fallback, args...)
}

// fail logs the handler error, clears the conversation defensively and sends
// a generic failure notice. Returns nil so the pipeline never crashes on a
// storage hiccup.
func (f *Flows) fail(c tele.Context, event string, err error) error {
	ctx := tghelpers.BuildContext(c)
	logger.TG.LogAttrs(ctx, slog.LevelError, event,
		slog.String("status", "error"),
		slog.String("err", err.Error()),
	)
	f.states.Clear(state.ConversationOf(c))
	return tghelpers.SendText(c, f.text(locale.ModuleBot, "operation_failed", "Something went wrong. The operation was cancelled."))
}

// restartNotice handles scratch data lost mid-flow (process restart): the
// flow cannot continue, so clear it and ask the user to start over.
func (f *Flows) restartNotice(c tele.Context) error {
	conv := state.ConversationOf(c)
	logger.TG.LogAttrs(tghelpers.BuildContext(c), slog.LevelWarn, "flow.draft_lost",
		slog.Int64("chat_id", conv.ChatID),
		slog.Int64("user_id", conv.UserID),
	)
	f.states.Clear(conv)
	return tghelpers.SendText(c, f.text(locale.ModuleBot, "flow_restart", "The previous step was lost. Please start the operation again."))
}

// md escapes user-provided text for interpolation into Markdown messages.
func md(s string) string {
	return format.EscapeMarkdown(s)
}

func logFlowEvent(c tele.Context, event string, attrs ...slog.Attr) {
	logger.TG.LogAttrs(tghelpers.BuildContext(c), slog.LevelInfo, event, attrs...)
}
