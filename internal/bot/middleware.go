package bot

import (
	"sync"

	"github.com/rs/zerolog/log"
	tele "gopkg.in/telebot.v3"

	"stockle-bot/internal/config"
)

// privateAccess tracks users who have used the bot in a whitelisted group.
// Those users may also play in private chat.
type privateAccess struct {
	mu    sync.RWMutex
	users map[int64]struct{}
}

func newPrivateAccess() *privateAccess {
	return &privateAccess{users: make(map[int64]struct{})}
}

func (p *privateAccess) allow(userID int64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.users[userID] = struct{}{}
}

func (p *privateAccess) allowed(userID int64) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	_, ok := p.users[userID]
	return ok
}

// admit decides whether an update from userID in the given chat is served.
// Group members seen in a whitelisted chat are remembered for private use.
func admit(cfg *config.Config, access *privateAccess, chatType tele.ChatType, chatID, userID int64) bool {
	if chatType == tele.ChatPrivate {
		return len(cfg.Whitelist.Chats) == 0 || access.allowed(userID)
	}
	if !cfg.IsChatAllowed(chatID) {
		return false
	}
	access.allow(userID)
	return true
}

// WhitelistMiddleware drops updates from chats that are not whitelisted.
func WhitelistMiddleware(cfg *config.Config, access *privateAccess) tele.MiddlewareFunc {
	return func(next tele.HandlerFunc) tele.HandlerFunc {
		return func(c tele.Context) error {
			chat := c.Chat()
			sender := c.Sender()
			if chat == nil || sender == nil {
				return nil
			}

			if !admit(cfg, access, chat.Type, chat.ID, sender.ID) {
				log.Debug().
					Int64("chat_id", chat.ID).
					Int64("user_id", sender.ID).
					Msg("Ignoring update from non-whitelisted chat")
				return nil
			}
			return next(c)
		}
	}
}

// LoggingMiddleware creates a middleware that logs all incoming messages.
func LoggingMiddleware() tele.MiddlewareFunc {
	return func(next tele.HandlerFunc) tele.HandlerFunc {
		return func(c tele.Context) error {
			logEvent := log.Debug()
			if sender := c.Sender(); sender != nil {
				logEvent = logEvent.
					Int64("user_id", sender.ID).
					Str("username", sender.Username)
			}
			if chat := c.Chat(); chat != nil {
				logEvent = logEvent.
					Int64("chat_id", chat.ID).
					Str("chat_type", string(chat.Type))
			}
			logEvent.
				Str("text", c.Text()).
				Msg("Received message")

			return next(c)
		}
	}
}

// RecoveryMiddleware creates a middleware that recovers from panics.
func RecoveryMiddleware() tele.MiddlewareFunc {
	return func(next tele.HandlerFunc) tele.HandlerFunc {
		return func(c tele.Context) (err error) {
			defer func() {
				if r := recover(); r != nil {
					log.Error().
						Interface("panic", r).
						Msg("Recovered from panic in handler")
					err = c.Reply("❌ Internal error, please try again later.")
				}
			}()
			return next(c)
		}
	}
}
