package logging

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestChLoggerWritesCorrelationID(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	l, err := New(Options{Writer: &buf, Component: "runregistry"})
	require.NoError(t, err)

	ctx := WithCorrelationID(context.Background(), "run-42")
	l.Info(ctx, "allocated run", "id", 42)

	require.Contains(t, buf.String(), "run-42")
	require.Contains(t, buf.String(), "allocated run")
}

func TestWithChainsFields(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	l, err := New(Options{Writer: &buf})
	require.NoError(t, err)

	child := l.With("component", "scheduler")
	child.Warn(context.Background(), "step skipped", "step", "cleanup")

	require.Contains(t, buf.String(), "scheduler")
	require.Contains(t, buf.String(), "cleanup")
}

func TestNoOpLoggerDiscards(t *testing.T) {
	t.Parallel()

	l := NewNoOpLogger()
	l.Info(context.Background(), "ignored")
	require.Equal(t, l, l.With("a", "b"))
}

func TestGetCorrelationIDEmptyByDefault(t *testing.T) {
	t.Parallel()
	require.Equal(t, "", GetCorrelationID(context.Background()))
	require.NotEmpty(t, GenerateCorrelationID())
}
