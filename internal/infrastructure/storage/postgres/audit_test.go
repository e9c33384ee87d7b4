package postgres

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"backoffice/internal/core/id"
)

// captureTx records the statements the audit service runs. Embedding
// the interface leaves everything else panicking if touched.
type captureTx struct {
	pgx.Tx
	sql  string
	args []any
}

func (c *captureTx) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	c.sql = sql
	c.args = args
	return pgconn.CommandTag{}, nil
}

func newAuditWorld(t *testing.T) (*AuditService, *captureTx, context.Context) {
	t.Helper()
	svc, err := NewAuditService(&TxManager{})
	require.NoError(t, err)

	capture := &captureTx{}
	ctx := context.WithValue(context.Background(), txKey{}, &Tx{Tx: capture})
	return svc, capture, ctx
}

func TestLog_SmallPayloadStoredPlain(t *testing.T) {
	svc, capture, ctx := newAuditWorld(t)

	payload := []byte(`{"number":"SAL-00001"}`)
	err := svc.Log(ctx, AuditEntry{
		EntityType: "sale",
		EntityID:   id.New(),
		Action:     AuditActionCreate,
		Changes:    payload,
	})
	require.NoError(t, err)

	assert.Contains(t, capture.sql, "INSERT INTO sys_audit")
	require.Len(t, capture.args, 8)

	assert.Equal(t, json.RawMessage(payload), capture.args[4])
	compressed, ok := capture.args[5].([]byte)
	require.True(t, ok, "changes_compressed binds as a byte slice")
	assert.Empty(t, compressed)
	assert.Equal(t, CompressionNone, capture.args[6])
}

func TestLog_LargePayloadCompressed(t *testing.T) {
	svc, capture, ctx := newAuditWorld(t)

	payload := bytes.Repeat([]byte(`{"k":"v"}`), 2000)
	err := svc.Log(ctx, AuditEntry{
		EntityType: "purchase",
		EntityID:   id.New(),
		Action:     AuditActionUpdate,
		Changes:    payload,
	})
	require.NoError(t, err)

	require.Len(t, capture.args, 8)
	assert.Empty(t, capture.args[4], "plain changes cleared once compressed")

	compressed, ok := capture.args[5].([]byte)
	require.True(t, ok, "changes_compressed binds as a byte slice")
	require.NotEmpty(t, compressed)
	assert.Equal(t, CompressionZstd, capture.args[6])

	decoded, err := svc.decoder.DecodeAll(compressed, nil)
	require.NoError(t, err)
	assert.Equal(t, payload, decoded)
}
