package middleware

import (
	"context"

	"quizbot/core/logger"
	tghelpers "quizbot/core/telegram/helpers"
	"log/slog"

	tele "gopkg.in/telebot.v4"
)

const authRoleKey = "auth_role"

// RoleResolver looks up the role of a Telegram user. The second return value
// reports whether the user is registered at all.
type RoleResolver interface {
	Resolve(ctx context.Context, userID int64) (string, bool, error)
}

// AuthOptions configures the access-control middleware.
type AuthOptions struct {
	Resolver RoleResolver
	// OnUnregistered is invoked for senders absent from the whitelist.
	OnUnregistered tele.HandlerFunc
}

// Auth denies every update whose sender is not registered. Resolution failures
// deny access as well: an unreachable whitelist must not let anyone through.
// The resolved role is stored in the handler context for RequireRole checks.
func Auth(opts AuthOptions) tele.MiddlewareFunc {
	return func(next tele.HandlerFunc) tele.HandlerFunc {
		return func(c tele.Context) error {
			sender := c.Sender()
			if sender == nil {
				return nil
			}
			ctx := tghelpers.BuildContext(c)

			if opts.Resolver == nil {
				logger.TG.LogAttrs(ctx, slog.LevelError, "auth.denied",
					slog.String("status", "denied"),
					slog.Int64("user_id", sender.ID),
					slog.String("cause", "no_resolver"),
				)
				return nil
			}

			role, registered, err := opts.Resolver.Resolve(ctx, sender.ID)
			if err != nil {
				logger.TG.LogAttrs(ctx, slog.LevelError, "auth.denied",
					slog.String("status", "denied"),
					slog.Int64("user_id", sender.ID),
					slog.String("err", err.Error()),
					slog.String("cause", "resolver_error"),
				)
				return nil
			}
			if !registered {
				logger.TG.LogAttrs(ctx, slog.LevelWarn, "auth.denied",
					slog.String("status", "denied"),
					slog.Int64("user_id", sender.ID),
					slog.String("cause", "unregistered"),
				)
				if opts.OnUnregistered != nil {
					return opts.OnUnregistered(c)
				}
				return nil
			}

			c.Set(authRoleKey, role)
			return next(c)
		}
	}
}

// RoleFrom returns the role stored by Auth for the current update.
func RoleFrom(c tele.Context) (string, bool) {
	if v := c.Get(authRoleKey); v != nil {
		if role, ok := v.(string); ok && role != "" {
			return role, true
		}
	}
	return "", false
}

// RequireRole gates a handler to senders whose resolved role is in the allowed
// set. Updates without a resolved role are denied.
func RequireRole(onDenied tele.HandlerFunc, roles ...string) tele.MiddlewareFunc {
	allowed := make(map[string]struct{}, len(roles))
	for _, r := range roles {
		allowed[r] = struct{}{}
	}
	return func(next tele.HandlerFunc) tele.HandlerFunc {
		return func(c tele.Context) error {
			role, ok := RoleFrom(c)
			if ok {
				if _, permitted := allowed[role]; permitted {
					return next(c)
				}
			}
			ctx := tghelpers.BuildContext(c)
			var userID int64
			if s := c.Sender(); s != nil {
				userID = s.ID
			}
			logger.TG.LogAttrs(ctx, slog.LevelWarn, "auth.role_denied",
				slog.String("status", "denied"),
				slog.Int64("user_id", userID),
				slog.String("role", role),
			)
			if onDenied != nil {
				return onDenied(c)
			}
			return nil
		}
	}
}
