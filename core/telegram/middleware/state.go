package middleware

import (
	"quizbot/core/logger"
	tghelpers "quizbot/core/telegram/helpers"
	tgstate "quizbot/core/telegram/state"
	"log/slog"

	tele "gopkg.in/telebot.v4"
)

// StateGetter is the minimal interface required from an FSM manager.
type StateGetter interface {
	State(conv tgstate.Conversation) tgstate.State
}

// State returns a middleware that runs the handler only when the conversation
// is in the expected FSM state. An optional mismatch handler replaces the
// default silent drop.
func State(mgr StateGetter, expected tgstate.State, onMismatch ...tele.HandlerFunc) tele.MiddlewareFunc {
	return func(next tele.HandlerFunc) tele.HandlerFunc {
		return func(c tele.Context) error {
			conv := tgstate.ConversationOf(c)
			current := mgr.State(conv)
			ctx := tghelpers.BuildContext(c)
			if current == expected {
				logger.TG.LogAttrs(ctx, slog.LevelDebug, "fsm.match",
					slog.Int64("user_id", conv.UserID),
					slog.Int64("chat_id", conv.ChatID),
					slog.String("state", string(current)),
					slog.String("expected", string(expected)),
				)
				return next(c)
			}
			logger.TG.LogAttrs(ctx, slog.LevelDebug, "fsm.skip",
				slog.Int64("user_id", conv.UserID),
				slog.Int64("chat_id", conv.ChatID),
				slog.String("state", string(current)),
				slog.String("expected", string(expected)),
			)
			if len(onMismatch) > 0 && onMismatch[0] != nil {
				return onMismatch[0](c)
			}
			// Ignore update while the conversation is in a different state
			return nil
		}
	}
}
