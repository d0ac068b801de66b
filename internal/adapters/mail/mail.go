package mail

import (
	"context"
	"fmt"
	"net/smtp"
	"net/url"
	"strconv"
	"strings"

	"github.com/usiug6/auth-service/internal/app/auth/reset"
	"github.com/usiug6/auth-service/internal/domain/auth/model"
	"github.com/usiug6/auth-service/internal/domain/auth/repo"
	"github.com/usiug6/auth-service/internal/infra/config"
	lg "github.com/usiug6/auth-service/internal/infra/log"
	"go.uber.org/zap"
)

// ResetLink appends the token as the "token" query parameter of base.
func ResetLink(base, token string) (string, error) {
	u, err := url.Parse(base)
	if err != nil {
		return "", err
	}
	q := u.Query()
	q.Set("token", token)
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// New picks the notifier named by cfg.MailBackend.
func New(cfg *config.Config, log *zap.Logger) repo.ResetNotifier {
	if cfg.MailBackend == config.MailSMTP {
		return NewSMTPNotifier(cfg)
	}
	return NewLogNotifier(cfg.ResetURLBase, log)
}

const digestPrefix = 12

// LogNotifier records that a reset link was issued without delivering it.
// Only a digest prefix of the token is logged, which matches the stored
// reset_token column.
type LogNotifier struct {
	base string
	log  *zap.Logger
}

func NewLogNotifier(base string, log *zap.Logger) *LogNotifier {
	return &LogNotifier{base: base, log: log}
}

func (n *LogNotifier) SendResetLink(_ context.Context, user model.User, token string) error {
	if _, err := ResetLink(n.base, token); err != nil {
		return err
	}
	n.log.Info("password reset link issued",
		lg.Email(user.Email),
		zap.String("reset_url", n.base),
		zap.String("token_digest", reset.Digest(token)[:digestPrefix]),
	)
	return nil
}

type sendFunc func(addr string, a smtp.Auth, from string, to []string, msg []byte) error

type SMTPNotifier struct {
	addr string
	host string
	auth smtp.Auth
	from string
	base string
	send sendFunc
}

func NewSMTPNotifier(cfg *config.Config) *SMTPNotifier {
	n := &SMTPNotifier{
		addr: cfg.SMTPHost + ":" + strconv.Itoa(cfg.SMTPPort),
		host: cfg.SMTPHost,
		from: cfg.MailFrom,
		base: cfg.ResetURLBase,
		send: smtp.SendMail,
	}
	if cfg.SMTPUsername != "" {
		n.auth = smtp.PlainAuth("", cfg.SMTPUsername, cfg.SMTPPassword, cfg.SMTPHost)
	}
	return n
}

func (n *SMTPNotifier) SendResetLink(ctx context.Context, user model.User, token string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	link, err := ResetLink(n.base, token)
	if err != nil {
		return err
	}
	msg := resetMessage(n.from, user, link)

	// net/smtp takes no context; stop waiting once ctx is done.
	done := make(chan error, 1)
	go func() { done <- n.send(n.addr, n.auth, n.from, []string{user.Email}, msg) }()
	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func resetMessage(from string, user model.User, link string) []byte {
	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\r\n", from)
	fmt.Fprintf(&b, "To: %s\r\n", user.Email)
	b.WriteString("Subject: Password reset\r\n")
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=UTF-8\r\n\r\n")
	fmt.Fprintf(&b, "Hello %s,\r\n\r\n", user.FirstName)
	b.WriteString("Use the link below to choose a new password. It is valid for one hour.\r\n\r\n")
	b.WriteString(link + "\r\n\r\n")
	b.WriteString("If you did not ask for a reset, ignore this message.\r\n")
	return []byte(b.String())
}
