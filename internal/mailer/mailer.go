// Package mailer 发送注册确认码
package mailer

import (
	"context"
	"log/slog"
)

// Mailer 邮件发送
type Mailer interface {
	SendConfirmationCode(ctx context.Context, email, username, code string) error
}

// LogMailer 将邮件写入日志，开发和测试环境使用
type LogMailer struct {
	From   string
	Logger *slog.Logger
}

// NewLogMailer 创建日志邮件发送器
func NewLogMailer(from string, logger *slog.Logger) *LogMailer {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogMailer{From: from, Logger: logger}
}

func (m *LogMailer) SendConfirmationCode(ctx context.Context, email, username, code string) error {
	m.Logger.InfoContext(ctx, "confirmation code sent",
		"from", m.From,
		"to", email,
		"username", username,
		"subject", "YaMDb confirmation code",
		"code", code,
	)
	return nil
}
