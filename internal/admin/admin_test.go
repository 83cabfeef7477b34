package admin

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"testing"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tele "gopkg.in/telebot.v4"

	tg "quizbot/core/telegram"
	"quizbot/core/telegram/state"
	"quizbot/internal/roster"
	"quizbot/internal/storage"
)

const testSchema = `
CREATE TABLE users (
    id         INTEGER PRIMARY KEY,
    username   TEXT NOT NULL DEFAULT '',
    first_name TEXT NOT NULL DEFAULT '',
    last_name  TEXT NOT NULL DEFAULT '',
    role       TEXT NOT NULL DEFAULT 'user',
    created_at TIMESTAMP NOT NULL,
    updated_at TIMESTAMP NOT NULL
);

CREATE TABLE players (
    id         INTEGER PRIMARY KEY AUTOINCREMENT,
    first_name TEXT NOT NULL,
    last_name  TEXT NOT NULL,
    nickname   TEXT NOT NULL DEFAULT '',
    photo_path TEXT NOT NULL DEFAULT '',
    games      INTEGER NOT NULL DEFAULT 0,
    created_at TIMESTAMP NOT NULL,
    updated_at TIMESTAMP NOT NULL,
    UNIQUE (first_name, last_name)
);
`

// flowContext simulates one inbound update for direct handler invocation.
type flowContext struct {
	tele.Context
	sender *tele.User
	chat   *tele.Chat
	msg    *tele.Message
	cb     *tele.Callback
	store  map[string]any
	sent   []string
	alerts []string
}

func (s *flowContext) Sender() *tele.User                        { return s.sender }
func (s *flowContext) Chat() *tele.Chat                          { return s.chat }
func (s *flowContext) Message() *tele.Message                    { return s.msg }
func (s *flowContext) Callback() *tele.Callback                  { return s.cb }
func (s *flowContext) Update() tele.Update                       { return tele.Update{ID: 1} }
func (s *flowContext) Get(k string) any                          { return s.store[k] }
func (s *flowContext) Set(k string, v any)                       { s.store[k] = v }
func (s *flowContext) Respond(resp ...*tele.CallbackResponse) error {
	if len(resp) > 0 && resp[0] != nil {
		s.alerts = append(s.alerts, resp[0].Text)
	}
	return nil
}

func (s *flowContext) Text() string {
	if s.msg == nil {
		return ""
	}
	return s.msg.Text
}

func (s *flowContext) Send(what interface{}, _ ...interface{}) error {
	s.sent = append(s.sent, fmt.Sprint(what))
	return nil
}

func (s *flowContext) EditOrSend(what interface{}, _ ...interface{}) error {
	s.sent = append(s.sent, fmt.Sprint(what))
	return nil
}

// stubFiles satisfies FileDownloader without a live bot connection.
type stubFiles struct {
	data []byte
	err  error
}

func (s *stubFiles) File(*tele.File) (io.ReadCloser, error) {
	if s.err != nil {
		return nil, s.err
	}
	return io.NopCloser(bytes.NewReader(s.data)), nil
}

type flowEnv struct {
	reg     *tg.Registry
	states  state.Manager
	users   *storage.Users
	players *storage.Players
	photos  *storage.PhotoStore
	flows   *Flows
	admin   *tele.User
	chat    *tele.Chat
}

func newFlowEnv(t *testing.T) *flowEnv {
	t.Helper()
	db, err := sqlx.Connect("sqlite3", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	_, err = db.Exec(testSchema)
	require.NoError(t, err)

	photos, err := storage.NewPhotoStore(t.TempDir())
	require.NoError(t, err)

	env := &flowEnv{
		reg:     tg.NewRegistry(),
		states:  state.NewMemoryManager(),
		users:   storage.NewUsers(db),
		players: storage.NewPlayers(db),
		photos:  photos,
		admin:   &tele.User{ID: 1, FirstName: "Root"},
		chat:    &tele.Chat{ID: 500},
	}
	env.flows = Register(env.reg, Deps{
		Users:   env.users,
		Players: env.players,
		Photos:  photos,
		States:  env.states,
	})
	return env
}

func (e *flowEnv) newCtx() *flowContext {
	return &flowContext{sender: e.admin, chat: e.chat, store: make(map[string]any)}
}

// textInput routes a text message the way the message router would: through
// the FSM handler for the conversation's current state.
func (e *flowEnv) textInput(t *testing.T, text string) *flowContext {
	t.Helper()
	c := e.newCtx()
	c.msg = &tele.Message{Text: text, Sender: e.admin, Chat: e.chat}
	require.NoError(t, e.states.HandleCurrent(c))
	return c
}

func (e *flowEnv) forwardInput(t *testing.T, origin *tele.User) *flowContext {
	t.Helper()
	c := e.newCtx()
	c.msg = &tele.Message{Sender: e.admin, Chat: e.chat, OriginalSender: origin}
	require.NoError(t, e.states.HandleCurrent(c))
	return c
}

func (e *flowEnv) photoInput(t *testing.T, fileID string) *flowContext {
	t.Helper()
	c := e.newCtx()
	c.msg = &tele.Message{
		Sender: e.admin,
		Chat:   e.chat,
		Photo:  &tele.Photo{File: tele.File{FileID: fileID}},
	}
	require.NoError(t, e.states.HandleCurrent(c))
	return c
}

func (e *flowEnv) press(t *testing.T, unique, payload string) *flowContext {
	t.Helper()
	h, ok := e.reg.GetCallback(unique)
	require.True(t, ok, "no callback registered for %q", unique)
	c := e.newCtx()
	c.cb = &tele.Callback{Unique: unique, Data: payload}
	c.msg = &tele.Message{Sender: e.admin, Chat: e.chat}
	require.NoError(t, h(c))
	return c
}

func (e *flowEnv) conv() state.Conversation {
	return state.Conversation{ChatID: e.chat.ID, UserID: e.admin.ID}
}

func TestAddPlayerFlowEndToEnd(t *testing.T) {
	env := newFlowEnv(t)

	env.press(t, "add_player", "")
	assert.Equal(t, StateAwaitPlayerName, env.states.State(env.conv()))

	// A single token re-prompts without a transition.
	env.textInput(t, "Ann")
	assert.Equal(t, StateAwaitPlayerName, env.states.State(env.conv()))

	env.textInput(t, "Ann Lee")
	assert.Equal(t, StateAwaitPlayerNick, env.states.State(env.conv()))

	env.press(t, "skip_nickname", "")
	assert.Equal(t, StateAwaitPlayerPhoto, env.states.State(env.conv()))

	env.press(t, "skip_photo", "")
	assert.Equal(t, StateAwaitPlayerGames, env.states.State(env.conv()))

	// Garbage games count re-prompts in place.
	env.textInput(t, "lots")
	assert.Equal(t, StateAwaitPlayerGames, env.states.State(env.conv()))

	c := env.textInput(t, "30")
	assert.False(t, env.states.InProgress(env.conv()), "flow must end idle")

	p, err := env.players.GetByName(context.Background(), "Ann", "Lee")
	require.NoError(t, err)
	assert.Equal(t, 30, p.Games)
	assert.Equal(t, 6, p.Level())
	assert.Equal(t, roster.TierIntermediate, p.Tier())

	require.NotEmpty(t, c.sent)
	summary := c.sent[len(c.sent)-1]
	assert.Contains(t, summary, "Level: 6")
	assert.Contains(t, summary, "intermediate")
}

func TestAddPlayerStoresDownloadedPhoto(t *testing.T) {
	env := newFlowEnv(t)
	env.flows.SetFiles(&stubFiles{data: []byte("jpeg-bytes")})

	env.press(t, "add_player", "")
	env.textInput(t, "Bo Chen")
	env.press(t, "skip_nickname", "")

	env.photoInput(t, "file-1")
	assert.Equal(t, StateAwaitPlayerGames, env.states.State(env.conv()))

	env.textInput(t, "5")
	assert.False(t, env.states.InProgress(env.conv()))

	p, err := env.players.GetByName(context.Background(), "Bo", "Chen")
	require.NoError(t, err)
	require.NotEmpty(t, p.PhotoPath)
	data, err := os.ReadFile(p.PhotoPath)
	require.NoError(t, err)
	assert.Equal(t, []byte("jpeg-bytes"), data)
}

func TestAddPlayerPhotoDownloadFailureDegrades(t *testing.T) {
	env := newFlowEnv(t)
	env.flows.SetFiles(&stubFiles{err: errors.New("file expired")})

	env.press(t, "add_player", "")
	env.textInput(t, "Ann Lee")
	env.press(t, "skip_nickname", "")
	env.photoInput(t, "file-2")

	c := env.textInput(t, "30")
	assert.False(t, env.states.InProgress(env.conv()), "failed download must not block the flow")

	p, err := env.players.GetByName(context.Background(), "Ann", "Lee")
	require.NoError(t, err)
	assert.Empty(t, p.PhotoPath, "player is stored without a photo")
	assert.Equal(t, 30, p.Games)

	require.NotEmpty(t, c.sent)
	assert.Contains(t, c.sent[len(c.sent)-1], "Level: 6")
}

func TestAddPlayerDuplicateRemovesDownloadedPhoto(t *testing.T) {
	env := newFlowEnv(t)
	env.flows.SetFiles(&stubFiles{data: []byte("jpeg-bytes")})
	_, err := env.players.Insert(context.Background(), roster.Player{FirstName: "Ann", LastName: "Lee"})
	require.NoError(t, err)

	env.press(t, "add_player", "")
	env.textInput(t, "Ann Lee")
	env.press(t, "skip_nickname", "")
	env.photoInput(t, "file-3")

	c := env.textInput(t, "30")
	assert.False(t, env.states.InProgress(env.conv()))
	require.NotEmpty(t, c.sent)
	assert.Contains(t, c.sent[len(c.sent)-1], "already exists")

	files, err := os.ReadDir(env.photos.Dir())
	require.NoError(t, err)
	assert.Empty(t, files, "aborted insert must remove the downloaded photo")
}

func TestStartEscapesSenderName(t *testing.T) {
	env := newFlowEnv(t)
	_, cmd, ok := env.reg.LookupCommand("/start")
	require.True(t, ok)

	c := env.newCtx()
	c.sender = &tele.User{ID: 1, FirstName: "An*na_"}
	require.NoError(t, cmd.Handler(c))
	require.NotEmpty(t, c.sent)
	assert.Contains(t, c.sent[0], `An\*na\_`)
}

func TestUnknownTextFallback(t *testing.T) {
	env := newFlowEnv(t)
	fb := env.reg.TextFallback()
	require.NotNil(t, fb, "free text outside a flow must have a fallback")

	c := env.newCtx()
	c.msg = &tele.Message{Text: "gibberish", Sender: env.admin, Chat: env.chat}
	require.NoError(t, fb(c))
	require.NotEmpty(t, c.sent)
}

func TestUnknownCallbackResponds(t *testing.T) {
	env := newFlowEnv(t)
	nf := env.reg.CallbackNotFound()
	require.NotNil(t, nf)

	c := env.newCtx()
	c.cb = &tele.Callback{Unique: "bogus"}
	require.NoError(t, nf(c))
	require.NotEmpty(t, c.alerts, "unknown callbacks answer with an alert")
}

func TestAddUserDuplicateAbortsFlow(t *testing.T) {
	env := newFlowEnv(t)
	require.NoError(t, env.users.Insert(context.Background(), roster.User{ID: 42, FirstName: "Eve", Role: roster.RoleUser}))

	env.press(t, "add_user", "")
	assert.Equal(t, StateAwaitUserForward, env.states.State(env.conv()))

	c := env.forwardInput(t, &tele.User{ID: 42, FirstName: "Eve"})
	assert.False(t, env.states.InProgress(env.conv()), "duplicate must abort, not retry")
	require.NotEmpty(t, c.sent)
	assert.Contains(t, c.sent[len(c.sent)-1], "already registered")

	u, err := env.users.Get(context.Background(), 42)
	require.NoError(t, err)
	assert.Equal(t, roster.RoleUser, u.Role, "aborted flow must leave the stored role unchanged")
}

func TestAddUserAssignsRoleViaPrefixCallback(t *testing.T) {
	env := newFlowEnv(t)

	env.press(t, "add_user", "")

	// A plain text message is not a forward: stay in place.
	env.textInput(t, "hello")
	assert.Equal(t, StateAwaitUserForward, env.states.State(env.conv()))

	env.forwardInput(t, &tele.User{ID: 7, Username: "fresh", FirstName: "New"})
	assert.Equal(t, StateAwaitUserRole, env.states.State(env.conv()))

	// Role buttons resolve through the registry's prefix matching.
	env.press(t, "role_admin", "")
	assert.False(t, env.states.InProgress(env.conv()))

	u, err := env.users.Get(context.Background(), 7)
	require.NoError(t, err)
	assert.Equal(t, roster.RoleAdmin, u.Role)
	assert.Equal(t, "fresh", u.Username)
}

func TestCancelClearsStateAndDraft(t *testing.T) {
	env := newFlowEnv(t)

	env.press(t, "add_player", "")
	env.textInput(t, "Ann Lee")
	require.True(t, env.states.InProgress(env.conv()))

	env.press(t, "cancel_op", "cancel")
	assert.False(t, env.states.InProgress(env.conv()))
	_, ok := env.states.Draft(env.conv())
	assert.False(t, ok, "cancel must discard the draft")
}

func TestDeleteUserStaleTarget(t *testing.T) {
	env := newFlowEnv(t)

	// The target vanished between list render and confirm click.
	c := env.press(t, "del_user_confirm", "99")
	require.NotEmpty(t, c.sent)
	assert.Contains(t, c.sent[len(c.sent)-1], "no longer exists")
}

func TestDeleteUserSkipsAdmins(t *testing.T) {
	env := newFlowEnv(t)
	require.NoError(t, env.users.Insert(context.Background(), roster.User{ID: 1, FirstName: "Root", Role: roster.RoleAdmin}))
	require.NoError(t, env.users.Insert(context.Background(), roster.User{ID: 2, FirstName: "Eve", Role: roster.RoleUser}))

	// Deleting the admin directly is refused even with a crafted payload.
	c := env.press(t, "del_user_confirm", "1")
	require.NotEmpty(t, c.sent)
	assert.Contains(t, c.sent[len(c.sent)-1], "cannot be deleted")

	_, err := env.users.Get(context.Background(), 1)
	assert.NoError(t, err, "admin must survive the delete attempt")
}
