package email

import (
	"context"
	"net"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestReadyMessage(t *testing.T) {
	msg := string(readyMessage("noreply@betmc.local", "user@example.com", "Sunset", "https://dl/ns.zip"))

	headers, body, ok := strings.Cut(msg, "\r\n\r\n")
	require.True(t, ok)
	assert.Contains(t, headers, "To: user@example.com")
	assert.Contains(t, headers, `Subject: BetMC UI - Your texture pack "Sunset" is ready`)
	assert.Contains(t, body, "Download: https://dl/ns.zip")
}

func TestReadyMessageStripsHeaderInjection(t *testing.T) {
	msg := string(readyMessage("a@b", "c@d", "x\r\nBcc: evil@example.com", "u"))
	headers, _, _ := strings.Cut(msg, "\r\n\r\n")
	assert.NotContains(t, headers, "\r\nBcc:")
}

func TestNotifyReadyRejectsBadRecipient(t *testing.T) {
	n := NewSMTPNotifier(SMTPConfig{Host: "localhost", Port: 25, From: "a@b"}, zap.NewNop())
	assert.Error(t, n.NotifyReady(context.Background(), "a@b\r\nBcc: x@y", "t", "u"))
}

func TestNotifyReadyUnreachableServer(t *testing.T) {
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	port := l.Addr().(*net.TCPAddr).Port
	require.NoError(t, l.Close())

	n := NewSMTPNotifier(SMTPConfig{Host: "127.0.0.1", Port: port, From: "a@b"}, zap.NewNop())
	assert.Error(t, n.NotifyReady(context.Background(), "user@example.com", "t", "u"))
}
