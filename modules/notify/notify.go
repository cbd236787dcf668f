// Package notify registers a send-only Telegram action so bindings can push
// a message to a configured chat ("notify me when the backup sequence ran").
// There is no poller: the bot only ever sends.
package notify

import (
	"context"
	"errors"
	"strconv"
	"strings"

	tele "gopkg.in/telebot.v4"

	"hotkeyd/internal/core"
	"hotkeyd/internal/sched"
	"hotkeyd/pkg/logx"
)

type Module struct {
	log logx.Logger
	bot *tele.Bot
}

func New() *Module { return &Module{} }

func (m *Module) Name() string { return "notify" }

func (m *Module) Install(ctx context.Context, rt *core.Runtime) error {
	m.log = rt.Log.With(logx.String("module", m.Name()))

	cfg := rt.Config.Get().Notify
	if !cfg.Enabled {
		m.log.Debug("notify disabled; action not registered")
		return nil
	}
	if strings.TrimSpace(cfg.Token) == "" {
		return errors.New("notify enabled but token is empty")
	}
	b, err := tele.NewBot(tele.Settings{Token: cfg.Token})
	if err != nil {
		return err
	}
	m.bot = b

	defaultChat := cfg.ChatID
	rt.Actions.Register("notify", func(p core.Params, rt *core.Runtime) sched.Action {
		log := m.log
		text := p.Get("text", "")
		if text == "" {
			log.Warn("notify: missing text param")
			return nil
		}
		chatID := defaultChat
		if v := p.Get("chat_id", ""); v != "" {
			id, err := strconv.ParseInt(v, 10, 64)
			if err != nil {
				log.Warn("notify: bad chat_id param", logx.Err(err))
				return nil
			}
			chatID = id
		}
		if chatID == 0 {
			log.Warn("notify: no chat_id configured")
			return nil
		}
		return func() {
			// Network I/O happens off the event loop so a slow Telegram API
			// call never stalls dispatch.
			go func() {
				if _, err := b.Send(tele.ChatID(chatID), text); err != nil {
					log.Warn("notify send failed", logx.Int64("chat_id", chatID), logx.Err(err))
				}
			}()
		}
	})
	return nil
}

func (m *Module) Shutdown(ctx context.Context) error { return nil }
