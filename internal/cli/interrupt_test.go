package cli

import (
	"bytes"
	"context"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInterruptHandlerCancelsContext(t *testing.T) {
	var buf bytes.Buffer
	h := NewInterruptHandler(&buf)

	ctx := h.HandleInterrupts(context.Background())
	assert.False(t, h.WasInterrupted())

	require.NoError(t, syscall.Kill(syscall.Getpid(), syscall.SIGTERM))

	select {
	case <-ctx.Done():
	case <-time.After(5 * time.Second):
		t.Fatal("context not canceled after signal")
	}

	assert.True(t, h.WasInterrupted())
	assert.Contains(t, buf.String(), "Interrupted")
}
