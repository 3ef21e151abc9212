package telegram

import (
	"testing"
	"time"

	tele "gopkg.in/telebot.v4"

	coreconfig "github.com/gogermany/gobot/core/config"
)

func TestNewPollerLongpoll(t *testing.T) {
	cfg := &coreconfig.Config{Telegram: coreconfig.TelegramConfig{RunMode: coreconfig.RunModeLongpoll, LongPollTimeoutSeconds: 25}}
	lp, ok := newPoller(cfg).(*tele.LongPoller)
	if !ok {
		t.Fatalf("expected long poller, got %T", newPoller(cfg))
	}
	if lp.Timeout != 25*time.Second {
		t.Fatalf("timeout = %v", lp.Timeout)
	}
	if got := pollTimeout(&coreconfig.Config{}); got != defaultPollTimeout {
		t.Fatalf("default timeout = %v", got)
	}
}

func TestNewPollerWebhook(t *testing.T) {
	cfg := &coreconfig.Config{
		Telegram: coreconfig.TelegramConfig{RunMode: coreconfig.RunModeWebhook},
		Webhook:  coreconfig.WebhookConfig{URL: "https://bot.example.com/hook", Listen: "0.0.0.0", Port: 8443, SecretToken: "s3cret"},
	}
	wh, ok := newPoller(cfg).(*tele.Webhook)
	if !ok {
		t.Fatalf("expected webhook, got %T", newPoller(cfg))
	}
	if wh.Listen != "0.0.0.0:8443" || wh.SecretToken != "s3cret" || wh.Endpoint.PublicURL != "https://bot.example.com/hook" {
		t.Fatalf("unexpected webhook %+v", wh)
	}
}

func TestHTTPClientOutlivesLongPoll(t *testing.T) {
	client := BuildHTTPClient(25 * time.Second)
	if client.Timeout <= 25*time.Second {
		t.Fatalf("client timeout %v does not cover the poll timeout", client.Timeout)
	}
}
