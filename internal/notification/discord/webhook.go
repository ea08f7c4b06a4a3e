package discord

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/assist-by/replica/internal/domain"
	"github.com/assist-by/replica/internal/notification"
)

const footer = "Replica Trading Bot 🤖"

// SendBatch는 시그널 복제 결과를 전송합니다
func (c *Client) SendBatch(ctx context.Context, b notification.BatchSummary) error {
	title := fmt.Sprintf("시그널 복제: %s %s", strings.ToUpper(string(b.Action)), b.Market)
	if b.Symbol != "" {
		title += " " + b.Symbol
	}
	if b.Side != "" {
		title += " " + string(b.Side)
	}

	embed := NewEmbed().
		SetTitle(title).
		SetDescription(fmt.Sprintf("**배치**: `%s`\n**주문**: %d\n**스킵**: %d\n**실패**: %d",
			b.BatchID, b.Placed, b.Skipped, len(b.Failures))).
		SetColor(notification.GetColorForBatch(b)).
		SetFooter(footer).
		SetTimestamp(time.Now())

	for _, f := range b.Failures {
		name := f.UserID
		if f.Symbol != "" {
			name += " / " + f.Symbol
		}
		embed.AddField(name, fmt.Sprintf("```%s```", f.Reason), false)
	}

	return c.sendToWebhook(ctx, c.tradeWebhook, WebhookMessage{Embeds: []Embed{*embed}})
}

// SendClosure는 청산 기록을 전송합니다
func (c *Client) SendClosure(ctx context.Context, cp domain.ClosedPosition) error {
	color := notification.ColorSuccess
	if cp.RealizedPnL < 0 {
		color = notification.ColorError
	}

	embed := NewEmbed().
		SetTitle(fmt.Sprintf("포지션 청산: %s", cp.Symbol)).
		SetDescription(fmt.Sprintf(
			"**계정**: %s\n**수량**: %.8f\n**진입가**: $%.4f\n**청산가**: $%.4f\n**규모**: %.2f USDT\n**실현 손익**: %.4f USDT",
			cp.UserID, cp.Quantity, cp.EntryPrice, cp.ExitPrice, cp.SizeUSDT, cp.RealizedPnL,
		)).
		SetColor(color).
		SetFooter(footer).
		SetTimestamp(cp.CloseTime)

	return c.sendToWebhook(ctx, c.tradeWebhook, WebhookMessage{Embeds: []Embed{*embed}})
}

// SendError는 에러 알림을 전송합니다
func (c *Client) SendError(ctx context.Context, err error) error {
	embed := NewEmbed().
		SetTitle("에러 발생").
		SetDescription(fmt.Sprintf("```%v```", err)).
		SetColor(notification.ColorError).
		SetFooter(footer).
		SetTimestamp(time.Now())

	return c.sendToWebhook(ctx, c.errorWebhook, WebhookMessage{Embeds: []Embed{*embed}})
}

// SendInfo는 일반 정보 알림을 전송합니다
func (c *Client) SendInfo(ctx context.Context, message string) error {
	embed := NewEmbed().
		SetDescription(message).
		SetColor(notification.ColorInfo).
		SetFooter(footer).
		SetTimestamp(time.Now())

	return c.sendToWebhook(ctx, c.tradeWebhook, WebhookMessage{Embeds: []Embed{*embed}})
}
