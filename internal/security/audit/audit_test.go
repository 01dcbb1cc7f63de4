package audit

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"testing"

	"infusesecret/internal/platform/logger"
	"infusesecret/internal/platform/middleware"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func capture(t *testing.T) *bytes.Buffer {
	t.Helper()
	buf := &bytes.Buffer{}
	logger.SetOutput(buf)
	t.Cleanup(func() { logger.SetOutput(io.Discard) })
	return buf
}

func TestAuditDisabledWritesNothing(t *testing.T) {
	buf := capture(t)

	NewAuditService(false).LogMessageCreated(context.Background(), "id1", "romantic")
	var nilService *AuditService
	nilService.LogMessageDeleted(context.Background(), "id1")

	assert.Empty(t, buf.String())
}

func TestAuditEventCarriesRequestMetadata(t *testing.T) {
	buf := capture(t)

	ctx := middleware.WithRequestMetadata(context.Background(), &middleware.RequestMetadata{
		IPAddress: "203.0.113.9",
		UserAgent: "curl/8",
	})
	NewAuditService(true).LogMessageCreated(ctx, "a1b2c3d4e5f6a7b8", "friendship")

	var entry logger.LogEntry
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &entry))
	assert.Equal(t, logger.SeverityNotice, entry.Severity)
	assert.Equal(t, "a1b2c3d4e5f6a7b8", entry.MessageID)
	assert.Equal(t, "create_message", entry.Action)
	assert.Equal(t, "audit", entry.Labels["log_type"])
	assert.Equal(t, "203.0.113.9", entry.Details["ip_address"])
	assert.Equal(t, "friendship", entry.Details["theme"])
	assert.Equal(t, EventMessageCreated, entry.Details["event_type"])
}

func TestAuditRejectedIsWarning(t *testing.T) {
	buf := capture(t)

	NewAuditService(true).LogEditKeyRejected(context.Background(), "id1", "delete_message")

	var entry logger.LogEntry
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &entry))
	assert.Equal(t, logger.SeverityWarning, entry.Severity)
	assert.Equal(t, ResultDenied, entry.Details["result"])
	assert.Equal(t, "unknown", entry.Details["ip_address"])
}
