// Package bot is the Telegram command front end: subscribing users,
// listing subscriptions and answering help requests. Reconciliation
// itself never goes through here.
package bot

import (
	"context"
	"errors"
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"order-notifier-go/exchange"
	"order-notifier-go/registry"
)

// Bot wires Telegram updates to the registry and the exchange adapters.
type Bot struct {
	api   *tgbotapi.BotAPI
	store registry.Store
	deps  exchange.Deps
	log   *zap.Logger

	// newAdapter is swapped for a stub in tests.
	newAdapter func(id int, apiKey, secret string, deps exchange.Deps) (exchange.Api, error)
}

func New(api *tgbotapi.BotAPI, store registry.Store, deps exchange.Deps, log *zap.Logger) *Bot {
	if log == nil {
		log = zap.NewNop()
	}
	return &Bot{
		api:        api,
		store:      store,
		deps:       deps,
		log:        log,
		newAdapter: exchange.New,
	}
}

// Run long-polls Telegram until ctx is done.
func (b *Bot) Run(ctx context.Context) error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 30
	updates := b.api.GetUpdatesChan(u)

	for {
		select {
		case <-ctx.Done():
			b.api.StopReceivingUpdates()
			return ctx.Err()
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			if update.Message == nil || !update.Message.IsCommand() {
				continue
			}
			b.handleCommand(ctx, update.Message)
		}
	}
}

func (b *Bot) handleCommand(ctx context.Context, msg *tgbotapi.Message) {
	uid := msg.From.ID
	log := b.log.With(zap.Int64("uid", uid), zap.String("command", msg.Command()))

	var reply string
	switch msg.Command() {
	case "start", "help":
		reply = b.helpText()
	case "subs":
		reply = b.handleSubs(ctx, uid)
	case "sub":
		reply = b.handleSub(ctx, uid, msg.CommandArguments())
	case "unsub":
		reply = b.handleUnsub(ctx, uid, msg.CommandArguments())
	default:
		return
	}

	out := tgbotapi.NewMessage(msg.Chat.ID, reply)
	out.ParseMode = tgbotapi.ModeMarkdown
	if _, err := b.api.Send(out); err != nil {
		log.Error("reply failed", zap.Error(err))
	}
}

func (b *Bot) helpText() string {
	var lines []string
	for _, info := range exchange.Supported() {
		lines = append(lines, fmt.Sprintf("[%s](%s)", info.Name, info.URL))
	}
	return "Hello! I can notify you about your closed orders on next exchanges:\n" +
		strings.Join(lines, "\n") + "\n" +
		"Just send command like `/sub exchange_name api_key secret_key` (keys with read only permissions) " +
		"to subscribe order notifications and `/unsub exchange_name` to unsubscribe."
}

func (b *Bot) handleSubs(ctx context.Context, uid int64) string {
	subs, err := b.store.UserSubscriptions(ctx, uid)
	if err != nil {
		b.log.Error("list subscriptions failed", zap.Int64("uid", uid), zap.Error(err))
		return "Something went wrong, please try again later."
	}
	if len(subs) == 0 {
		return "You have no active subscriptions."
	}
	return "You are subscribed to the following exchange notifications:\n" +
		strings.Join(subs, "\n")
}

func (b *Bot) handleSub(ctx context.Context, uid int64, args string) string {
	fields := strings.Fields(args)
	if len(fields) != 3 {
		return "Please specify exchange name with keys. For example:\n" +
			"`/sub bittrex a1s2d3f4g5h6j7k8l9a1s2d3f4g5h6j7 a1s2d3f4g5h6j7k8l9a1s2d3f4g5h6j7`"
	}
	name, apiKey, secret := fields[0], fields[1], fields[2]

	info, ok := exchange.ByName(name)
	if !ok {
		return "Unsupported exchange."
	}
	// Format validation happens here, before any network call; malformed
	// keys never reach the request layer.
	if !info.CheckKeys(apiKey, secret) {
		return "Invalid format."
	}
	subscribed, err := b.store.IsSubscribed(ctx, uid, info.ID)
	if err != nil {
		b.log.Error("subscription lookup failed", zap.Int64("uid", uid), zap.Error(err))
		return "Something went wrong, please try again later."
	}
	if subscribed {
		return fmt.Sprintf("You are already subscribed to %q.", name)
	}

	// Backfill before subscribing so the first reconciliation cycle does
	// not flood the user with every historical order.
	api, err := b.newAdapter(info.ID, apiKey, secret, b.deps)
	if err != nil {
		b.log.Error("adapter construction failed", zap.Int64("uid", uid), zap.Error(err))
		return "Invalid format."
	}
	history, err := api.OrderHistory(ctx)
	if err != nil {
		b.log.Error("history backfill failed",
			zap.Int64("uid", uid),
			zap.String("exchange", name),
			zap.Error(err))
		return fmt.Sprintf("Could not reach %q with these keys, please check them and try again.", name)
	}
	refs := make([]registry.OrderRef, 0, len(history))
	for id := range history {
		refs = append(refs, registry.OrderRef{UID: uid, ExchangeID: info.ID, OrderID: id})
	}
	if err := b.store.AddTrackedOrderIDs(ctx, refs); err != nil {
		b.log.Error("history backfill persist failed", zap.Int64("uid", uid), zap.Error(err))
		return "Something went wrong, please try again later."
	}

	if err := b.store.Subscribe(ctx, uid, info.ID, apiKey, secret); err != nil {
		if errors.Is(err, registry.ErrAlreadySubscribed) {
			return fmt.Sprintf("You are already subscribed to %q.", name)
		}
		b.log.Error("subscribe failed", zap.Int64("uid", uid), zap.Error(err))
		return "Something went wrong, please try again later."
	}
	b.log.Info("user subscribed", zap.Int64("uid", uid), zap.String("exchange", name))
	return fmt.Sprintf("You are subscribed to %q.", name)
}

func (b *Bot) handleUnsub(ctx context.Context, uid int64, args string) string {
	name := strings.TrimSpace(args)
	if name == "" {
		return "Please specify exchange name. For example:\n`/unsub bittrex`"
	}
	info, ok := exchange.ByName(name)
	if !ok {
		return "Unsupported exchange."
	}
	if err := b.store.Unsubscribe(ctx, uid, info.ID); err != nil {
		if errors.Is(err, registry.ErrNotSubscribed) {
			return fmt.Sprintf("You are not subscribed to %q.", name)
		}
		b.log.Error("unsubscribe failed", zap.Int64("uid", uid), zap.Error(err))
		return "Something went wrong, please try again later."
	}
	b.log.Info("user unsubscribed", zap.Int64("uid", uid), zap.String("exchange", name))
	return fmt.Sprintf("You are unsubscribed from %q.", name)
}
