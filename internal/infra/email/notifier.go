package email

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"

	"go.uber.org/zap"
)

type SMTPNotifier struct {
	host     string
	port     int
	from     string
	username string
	password string
	logger   *zap.Logger
}

type SMTPConfig struct {
	Host     string
	Port     int
	From     string
	Username string
	Password string
}

func NewSMTPNotifier(cfg SMTPConfig, logger *zap.Logger) *SMTPNotifier {
	return &SMTPNotifier{
		host:     cfg.Host,
		port:     cfg.Port,
		from:     cfg.From,
		username: cfg.Username,
		password: cfg.Password,
		logger:   logger,
	}
}

// NotifyReady mails the download link of a finished pack.
func (n *SMTPNotifier) NotifyReady(_ context.Context, userEmail, textureName, downloadURL string) error {
	if strings.ContainsAny(userEmail, "\r\n") {
		return fmt.Errorf("send email: invalid recipient %q", userEmail)
	}
	addr := fmt.Sprintf("%s:%d", n.host, n.port)

	var auth smtp.Auth
	if n.username != "" {
		auth = smtp.PlainAuth("", n.username, n.password, n.host)
	}

	msg := readyMessage(n.from, userEmail, textureName, downloadURL)
	if err := smtp.SendMail(addr, auth, n.from, []string{userEmail}, msg); err != nil {
		n.logger.Error("failed to send ready notification email",
			zap.String("to", userEmail),
			zap.String("texture_name", textureName),
			zap.Error(err),
		)
		return fmt.Errorf("send email: %w", err)
	}

	n.logger.Info("ready notification email sent",
		zap.String("to", userEmail),
		zap.String("texture_name", textureName),
	)
	return nil
}

func readyMessage(from, to, textureName, downloadURL string) []byte {
	name := strings.NewReplacer("\r", " ", "\n", " ").Replace(textureName)
	subject := fmt.Sprintf("BetMC UI - Your texture pack %q is ready", name)
	body := fmt.Sprintf(
		"Hello,\r\n\r\n"+
			"Your texture pack has been generated.\r\n\r\n"+
			"Name: %s\r\n"+
			"Download: %s\r\n\r\n"+
			"The download link expires after 24 hours.\r\n\r\n"+
			"-- BetMC UI Generator",
		name, downloadURL,
	)

	return []byte(fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: %s\r\nContent-Type: text/plain; charset=UTF-8\r\n\r\n%s",
		from, to, subject, body,
	))
}
