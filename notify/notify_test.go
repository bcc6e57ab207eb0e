package notify

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFeedDrainAndLimit(t *testing.T) {
	f := NewFeed(2)
	ctx := context.Background()

	f.Error(ctx, "first")
	f.Error(ctx, "second")
	f.Error(ctx, "third")

	got := f.Drain()
	require.Len(t, got, 2)
	assert.Equal(t, "second", got[0].Message)
	assert.Equal(t, "third", got[1].Message)
	assert.Equal(t, "error", got[0].Level)
	_, err := uuid.Parse(got[0].ID)
	assert.NoError(t, err)
	assert.NotEqual(t, got[0].ID, got[1].ID)

	assert.Empty(t, f.Drain())
}

func TestMultiFansOut(t *testing.T) {
	var a, b Recorder
	var called []string
	m := Multi{&a, nil, &b, Func(func(_ context.Context, msg string) { called = append(called, msg) })}

	m.Error(context.Background(), "could not add product")

	assert.Equal(t, []string{"could not add product"}, a.Messages())
	assert.Equal(t, []string{"could not add product"}, b.Messages())
	assert.Equal(t, []string{"could not add product"}, called)
}

func TestLogNotifier(t *testing.T) {
	var buf bytes.Buffer
	n := LogNotifier{Log: slog.New(slog.NewJSONHandler(&buf, nil))}

	n.Error(context.Background(), "requested quantity out of stock")

	assert.Contains(t, buf.String(), `"msg":"user notification"`)
	assert.Contains(t, buf.String(), `"message":"requested quantity out of stock"`)
}
