package events

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestNew_WithoutURLIsNop(t *testing.T) {
	pub, err := New("", zap.NewNop())
	require.NoError(t, err)
	assert.IsType(t, NopPublisher{}, pub)

	assert.NoError(t, pub.Publish(context.Background(), LicenseRequested, LicenseEvent{Fingerprint: "fp"}))
	assert.NoError(t, pub.Close())
}

func TestNew_UnreachableServer(t *testing.T) {
	_, err := New("nats://127.0.0.1:1", zap.NewNop())
	assert.Error(t, err)
}
