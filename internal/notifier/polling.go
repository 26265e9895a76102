package notifier

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
)

// CommandHandler is called when a user command is received.
type CommandHandler func(command string) string

// telegramUpdate represents a Telegram update from long polling.
type telegramUpdate struct {
	UpdateID int `json:"update_id"`
	Message  *struct {
		Text string `json:"text"`
		Chat struct {
			ID int64 `json:"id"`
		} `json:"chat"`
	} `json:"message"`
}

// StartPolling long-polls for commands sent from the configured chat and
// answers them with handler. Blocks until ctx is cancelled.
func (t *TelegramNotifier) StartPolling(ctx context.Context, handler CommandHandler) {
	offset := 0
	for {
		if ctx.Err() != nil {
			t.logger.Info("telegram polling stopped")
			return
		}

		updates, err := t.getUpdates(ctx, offset, 30)
		if err != nil {
			if ctx.Err() != nil {
				continue
			}
			t.logger.Warn("telegram polling failed", zap.Error(err))
			select {
			case <-ctx.Done():
			case <-time.After(5 * time.Second):
			}
			continue
		}

		for _, update := range updates {
			offset = update.UpdateID + 1
			if update.Message == nil || update.Message.Text == "" {
				continue
			}
			if strconv.FormatInt(update.Message.Chat.ID, 10) != t.ChatID {
				continue
			}
			text := strings.TrimSpace(update.Message.Text)
			t.logger.Info("received command", zap.String("command", text))
			if reply := handler(text); reply != "" {
				if err := t.Send(ctx, reply); err != nil {
					t.logger.Error("send reply", zap.Error(err))
				}
			}
		}
	}
}

func (t *TelegramNotifier) getUpdates(ctx context.Context, offset, timeoutSec int) ([]telegramUpdate, error) {
	var result struct {
		OK     bool             `json:"ok"`
		Result []telegramUpdate `json:"result"`
	}
	resp, err := t.client.R().
		SetContext(ctx).
		SetRawPathParam("token", t.BotToken).
		SetQueryParams(map[string]string{
			"offset":  strconv.Itoa(offset),
			"timeout": strconv.Itoa(timeoutSec),
		}).
		SetResult(&result).
		Get("/bot{token}/getUpdates")
	if err != nil {
		return nil, fmt.Errorf("get updates: %w", err)
	}
	if resp.IsError() || !result.OK {
		return nil, fmt.Errorf("get updates: status %d, body: %s", resp.StatusCode(), resp.String())
	}
	return result.Result, nil
}
