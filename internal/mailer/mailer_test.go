package mailer

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogMailerWritesCode(t *testing.T) {
	var buf bytes.Buffer
	m := NewLogMailer("noreply@yamdb.local", slog.New(slog.NewJSONHandler(&buf, nil)))

	require.NoError(t, m.SendConfirmationCode(context.Background(), "alice@example.com", "alice", "123456"))

	out := buf.String()
	assert.Contains(t, out, `"to":"alice@example.com"`)
	assert.Contains(t, out, `"code":"123456"`)
}
