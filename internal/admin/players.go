package admin

import (
	"errors"
	"log/slog"
	"sort"
	"strconv"
	"strings"

	tele "gopkg.in/telebot.v4"

	"quizbot/core/logger"
	"quizbot/core/telegram/callbacks"
	tghelpers "quizbot/core/telegram/helpers"
	"quizbot/core/telegram/keyboard"
	"quizbot/core/telegram/state"
	"quizbot/internal/locale"
	"quizbot/internal/roster"
)

// handleAddPlayer enters the add-player flow and asks for the full name.
func (f *Flows) handleAddPlayer(c tele.Context) error {
	conv := state.ConversationOf(c)
	f.states.Clear(conv)
	f.states.SetDraft(conv, &PlayerDraft{})
	f.states.SetState(conv, StateAwaitPlayerName)
	return tghelpers.EditOrSendMD(c,
		f.text(locale.ModuleBot, "player_name_prompt", "Send the player's full name (first and last name)."),
		f.cancelMarkup(),
	)
}

func (f *Flows) playerDraft(c tele.Context) (*PlayerDraft, bool) {
	draft, ok := f.states.Draft(state.ConversationOf(c))
	if !ok {
		return nil, false
	}
	pd, ok := draft.(*PlayerDraft)
	return pd, ok
}

// handlePlayerName parses "First Last..." into name parts. Fewer than two
// tokens re-prompts without a transition.
func (f *Flows) handlePlayerName(c tele.Context) error {
	fields := strings.Fields(c.Text())
	if len(fields) < 2 {
		return tghelpers.SendMD(c,
			f.text(locale.ModuleBot, "player_name_retry", "I need at least a first and a last name, separated by a space."),
			f.cancelMarkup(),
		)
	}

	pd, ok := f.playerDraft(c)
	if !ok {
		return f.restartNotice(c)
	}
	pd.FirstName = fields[0]
	pd.LastName = strings.Join(fields[1:], " ")

	f.states.SetState(state.ConversationOf(c), StateAwaitPlayerNick)
	return tghelpers.SendMD(c,
		f.text(locale.ModuleBot, "player_nickname_prompt", "Send a nickname, or skip."),
		f.skipMarkup(cbSkipNickname),
	)
}

// handlePlayerNickname stores the nickname and always advances.
func (f *Flows) handlePlayerNickname(c tele.Context) error {
	pd, ok := f.playerDraft(c)
	if !ok {
		return f.restartNotice(c)
	}
	pd.Nickname = strings.TrimSpace(c.Text())
	return f.askPlayerPhoto(c)
}

// handleSkipNickname advances past the nickname step via the skip button.
func (f *Flows) handleSkipNickname(c tele.Context) error {
	if _, ok := f.playerDraft(c); !ok {
		return f.restartNotice(c)
	}
	return f.askPlayerPhoto(c)
}

func (f *Flows) askPlayerPhoto(c tele.Context) error {
	f.states.SetState(state.ConversationOf(c), StateAwaitPlayerPhoto)
	return tghelpers.SendMD(c,
		f.text(locale.ModuleBot, "player_photo_prompt", "Send a photo of the player, or skip."),
		f.skipMarkup(cbSkipPhoto),
	)
}

// handlePlayerPhoto stores the photo file reference. Telegram delivers the
// variants sorted by size and the bound photo is the largest one; it is only
// referenced here and downloaded when the flow completes.
func (f *Flows) handlePlayerPhoto(c tele.Context) error {
	msg := c.Message()
	if msg == nil || msg.Photo == nil {
		return tghelpers.SendMD(c,
			f.text(locale.ModuleBot, "player_photo_retry", "That is not a photo. Send one, or skip."),
			f.skipMarkup(cbSkipPhoto),
		)
	}
	pd, ok := f.playerDraft(c)
	if !ok {
		return f.restartNotice(c)
	}
	pd.PhotoFileID = msg.Photo.FileID
	return f.askPlayerGames(c)
}

// handleSkipPhoto advances past the photo step via the skip button.
func (f *Flows) handleSkipPhoto(c tele.Context) error {
	if _, ok := f.playerDraft(c); !ok {
		return f.restartNotice(c)
	}
	return f.askPlayerGames(c)
}

func (f *Flows) askPlayerGames(c tele.Context) error {
	f.states.SetState(state.ConversationOf(c), StateAwaitPlayerGames)
	return tghelpers.SendMD(c,
		f.text(locale.ModuleBot, "player_games_prompt", "How many games has the player already played? Send a number."),
		f.cancelMarkup(),
	)
}

// handlePlayerGames validates the counter and completes the flow.
func (f *Flows) handlePlayerGames(c tele.Context) error {
	games, err := strconv.Atoi(strings.TrimSpace(c.Text()))
	if err != nil || games < 0 {
		return tghelpers.SendMD(c,
			f.text(locale.ModuleBot, "player_games_retry", "Send a non-negative whole number."),
			f.cancelMarkup(),
		)
	}

	pd, ok := f.playerDraft(c)
	if !ok {
		return f.restartNotice(c)
	}
	return f.finishAddPlayer(c, pd, games)
}

// finishAddPlayer downloads the photo if one was captured and inserts the
// player. A failed download degrades to a player without photo instead of
// aborting the whole flow.
func (f *Flows) finishAddPlayer(c tele.Context, pd *PlayerDraft, games int) error {
	conv := state.ConversationOf(c)
	ctx := tghelpers.BuildContext(c)

	photoPath := ""
	if pd.PhotoFileID != "" && f.files != nil && f.photos != nil {
		rc, err := f.files.File(&tele.File{FileID: pd.PhotoFileID})
		if err != nil {
			logger.TG.LogAttrs(ctx, slog.LevelWarn, "player.photo.download_failed",
				slog.String("err", err.Error()),
			)
		} else {
			path, saveErr := f.photos.Save(pd.FirstName+"_"+pd.LastName, ".jpg", rc)
			_ = rc.Close()
			if saveErr != nil {
				logger.TG.LogAttrs(ctx, slog.LevelWarn, "player.photo.save_failed",
					slog.String("err", saveErr.Error()),
				)
			} else {
				photoPath = path
			}
		}
	}

	player := roster.Player{
		FirstName: pd.FirstName,
		LastName:  pd.LastName,
		Nickname:  pd.Nickname,
		PhotoPath: photoPath,
		Games:     games,
	}
	id, err := f.players.Insert(ctx, player)
	f.states.Clear(conv)
	if errors.Is(err, roster.ErrAlreadyExists) {
		if photoPath != "" {
			_ = f.photos.Remove(photoPath)
		}
		return tghelpers.SendMD(c, f.textf(locale.ModuleBot, "player_already_exists", "Player *%s %s* already exists.", md(pd.FirstName), md(pd.LastName)))
	}
	if err != nil {
		if photoPath != "" {
			_ = f.photos.Remove(photoPath)
		}
		return f.fail(c, "player.add.failed", err)
	}

	logFlowEvent(c, "player.add.done",
		slog.Int64("player_id", id),
		slog.Int("games", games),
	)
	return tghelpers.SendMD(c,
		f.textf(locale.ModuleBot, "player_added",
			"Added player *%s %s*\nGames: %d\nLevel: %d\nTier: %s",
			md(player.FirstName), md(player.LastName), player.Games, player.Level(), player.Tier()),
		f.playersPanelMarkup(),
	)
}

// handleListPlayers renders the roster ordered by level, strongest first.
func (f *Flows) handleListPlayers(c tele.Context) error {
	players, err := f.players.List(tghelpers.BuildContext(c))
	if err != nil {
		return f.fail(c, "player.list.failed", err)
	}
	if len(players) == 0 {
		return tghelpers.EditOrSendMD(c,
			f.text(locale.ModuleBot, "players_empty", "The roster is empty."),
			f.backMarkup(cbPlayersPanel),
		)
	}

	sort.SliceStable(players, func(i, j int) bool {
		return players[i].Games > players[j].Games
	})

	var b strings.Builder
	b.WriteString(f.text(locale.ModuleUI, "players_list_header", "*Quiz roster:*"))
	for _, p := range players {
		b.WriteString("\n🎲 ")
		b.WriteString(md(p.FullName()))
		if p.Nickname != "" {
			b.WriteString(" (" + md(p.Nickname) + ")")
		}
		b.WriteString(" | lvl ")
		b.WriteString(strconv.Itoa(p.Level()))
		b.WriteString(", ")
		b.WriteString(string(p.Tier()))
		b.WriteString(", ")
		b.WriteString(strconv.Itoa(p.Games))
		b.WriteString(" games")
	}
	return tghelpers.EditOrSendMD(c, b.String(), f.backMarkup(cbPlayersPanel))
}

// handleDeletePlayer lists roster entries as pick buttons.
func (f *Flows) handleDeletePlayer(c tele.Context) error {
	players, err := f.players.List(tghelpers.BuildContext(c))
	if err != nil {
		return f.fail(c, "player.delete.failed", err)
	}
	if len(players) == 0 {
		return tghelpers.EditOrSendMD(c,
			f.text(locale.ModuleBot, "players_empty", "The roster is empty."),
			f.backMarkup(cbPlayersPanel),
		)
	}

	btns := make([]keyboard.InlineBtn, 0, len(players)+1)
	for _, p := range players {
		btns = append(btns, keyboard.InlineBtn{
			Text:   p.FullName(),
			Unique: cbPickPlayer,
			Data:   strconv.FormatInt(p.ID, 10),
		})
	}
	btns = append(btns, keyboard.InlineBtn{Text: f.btn("back", "⬅️ Back"), Unique: cbPlayersPanel})
	return tghelpers.EditOrSendMD(c,
		f.text(locale.ModuleBot, "player_delete_pick", "Pick the player to delete:"),
		keyboard.InlineButtonsNPerRow(btns, 2),
	)
}

// handleDeletePlayerPick asks for confirmation on the picked player.
func (f *Flows) handleDeletePlayerPick(c tele.Context) error {
	id, err := callbacks.PayloadInt64(c)
	if err != nil {
		return f.fail(c, "player.delete.failed", err)
	}

	p, err := f.players.Get(tghelpers.BuildContext(c), id)
	if errors.Is(err, roster.ErrNotFound) {
		return tghelpers.EditOrSendMD(c,
			f.text(locale.ModuleBot, "player_gone", "That player no longer exists."),
			f.backMarkup(cbPlayersPanel),
		)
	}
	if err != nil {
		return f.fail(c, "player.delete.failed", err)
	}

	return tghelpers.EditOrSendMD(c,
		f.textf(locale.ModuleBot, "player_delete_confirm", "Delete player *%s*?", md(p.FullName())),
		f.confirmMarkup(cbConfirmPlayerDel, strconv.FormatInt(p.ID, 10)),
	)
}

// handleDeletePlayerConfirm re-validates existence, deletes the row and
// removes the stored photo file.
func (f *Flows) handleDeletePlayerConfirm(c tele.Context) error {
	id, err := callbacks.PayloadInt64(c)
	if err != nil {
		return f.fail(c, "player.delete.failed", err)
	}

	ctx := tghelpers.BuildContext(c)
	p, err := f.players.Get(ctx, id)
	if errors.Is(err, roster.ErrNotFound) {
		return tghelpers.EditOrSendMD(c,
			f.text(locale.ModuleBot, "player_gone", "That player no longer exists."),
			f.backMarkup(cbPlayersPanel),
		)
	}
	if err != nil {
		return f.fail(c, "player.delete.failed", err)
	}

	if err := f.players.Delete(ctx, id); err != nil {
		if errors.Is(err, roster.ErrNotFound) {
			return tghelpers.EditOrSendMD(c,
				f.text(locale.ModuleBot, "player_gone", "That player no longer exists."),
				f.backMarkup(cbPlayersPanel),
			)
		}
		return f.fail(c, "player.delete.failed", err)
	}
	if p.PhotoPath != "" && f.photos != nil {
		if err := f.photos.Remove(p.PhotoPath); err != nil {
			logger.TG.LogAttrs(ctx, slog.LevelWarn, "player.photo.remove_failed",
				slog.String("err", err.Error()),
			)
		}
	}

	logFlowEvent(c, "player.delete.done", slog.Int64("player_id", id))
	return tghelpers.EditOrSendMD(c,
		f.text(locale.ModuleBot, "player_deleted", "Player deleted."),
		f.playersPanelMarkup(),
	)
}
