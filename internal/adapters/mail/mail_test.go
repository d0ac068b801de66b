package mail

import (
	"context"
	"errors"
	"fmt"
	"net/smtp"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/usiug6/auth-service/internal/app/auth/reset"
	"github.com/usiug6/auth-service/internal/domain/auth/model"
	"github.com/usiug6/auth-service/internal/infra/config"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestResetLink(t *testing.T) {
	link, err := ResetLink("http://localhost:5000/client/resetpassword.html", "a-b_c")
	require.NoError(t, err)
	require.Equal(t, "http://localhost:5000/client/resetpassword.html?token=a-b_c", link)

	link, err = ResetLink("https://x.io/reset?lang=en", "t")
	require.NoError(t, err)
	require.Equal(t, "https://x.io/reset?lang=en&token=t", link)
}

func TestLogNotifier_NeverLogsToken(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	n := New(&config.Config{MailBackend: config.MailLog, ResetURLBase: "http://h/r"}, zap.New(core))

	const token = "SECRET-RESET-TOKEN"
	require.NoError(t, n.SendResetLink(context.Background(), model.User{Email: "a@x.com"}, token))
	require.Equal(t, 1, logs.Len())

	entry := logs.All()[0]
	require.Equal(t, "password reset link issued", entry.Message)
	require.Equal(t, reset.Digest(token)[:12], entry.ContextMap()["token_digest"])
	for k, v := range entry.ContextMap() {
		require.NotContains(t, fmt.Sprint(v), token, k)
		require.NotContains(t, fmt.Sprint(v), "a@x.com", k)
	}
	require.NotContains(t, entry.Message, token)
}

func TestSMTPNotifier_GivesUpOnDeadline(t *testing.T) {
	n := NewSMTPNotifier(&config.Config{SMTPHost: "h", SMTPPort: 25, ResetURLBase: "http://h/reset"})
	release := make(chan struct{})
	defer close(release)
	n.send = func(string, smtp.Auth, string, []string, []byte) error {
		<-release
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	start := time.Now()
	err := n.SendResetLink(ctx, model.User{Email: "a@x.com"}, "tok")
	require.ErrorIs(t, err, context.DeadlineExceeded)
	require.Less(t, time.Since(start), time.Second)
}

func TestSMTPNotifier(t *testing.T) {
	n := NewSMTPNotifier(&config.Config{
		SMTPHost:     "smtp.example.com",
		SMTPPort:     2525,
		SMTPUsername: "u",
		SMTPPassword: "p",
		MailFrom:     "no-reply@example.com",
		ResetURLBase: "http://h/reset",
	})

	var gotAddr, gotFrom string
	var gotTo []string
	var gotMsg []byte
	n.send = func(addr string, a smtp.Auth, from string, to []string, msg []byte) error {
		gotAddr, gotFrom, gotTo, gotMsg = addr, from, to, msg
		require.NotNil(t, a)
		return nil
	}

	user := model.User{FirstName: "A", Email: "a@x.com"}
	require.NoError(t, n.SendResetLink(context.Background(), user, "tok"))
	require.Equal(t, "smtp.example.com:2525", gotAddr)
	require.Equal(t, "no-reply@example.com", gotFrom)
	require.Equal(t, []string{"a@x.com"}, gotTo)
	require.True(t, strings.Contains(string(gotMsg), "http://h/reset?token=tok"))

	n.send = func(string, smtp.Auth, string, []string, []byte) error { return errors.New("down") }
	require.Error(t, n.SendResetLink(context.Background(), user, "tok"))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.ErrorIs(t, n.SendResetLink(ctx, user, "tok"), context.Canceled)
}

func TestNew_SelectsBackend(t *testing.T) {
	_, ok := New(&config.Config{MailBackend: config.MailSMTP, SMTPHost: "h"}, zap.NewNop()).(*SMTPNotifier)
	require.True(t, ok)
	_, ok = New(&config.Config{MailBackend: config.MailLog}, zap.NewNop()).(*LogNotifier)
	require.True(t, ok)
}
