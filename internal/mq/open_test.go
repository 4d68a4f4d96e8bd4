package mq

import (
	"context"
	"testing"

	"github.com/jjudge-oj/imageforms/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpen(t *testing.T) {
	ctx := context.Background()

	_, err := Open(ctx, config.EventsConfig{})
	assert.ErrorIs(t, err, ErrNoBackend)

	_, err = Open(ctx, config.EventsConfig{Backend: "kafka"})
	assert.ErrorContains(t, err, "kafka")

	m, err := Open(ctx, config.EventsConfig{Backend: config.EventsMemory})
	require.NoError(t, err)
	require.NoError(t, m.Close())
}
