package log

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLSupportsDirectChaining(t *testing.T) {
	l := L()
	require.NotNil(t, l)

	// Level methods chain directly off the accessor.
	L().Debug().Str("k", "v").Msg("")
	L().Info().Msg("")
}

func TestCtxFallsBackToGlobal(t *testing.T) {
	assert.Equal(t, L(), Ctx(context.Background()))
}

func TestWithLoggerRoundTrip(t *testing.T) {
	logger := New(Config{Level: "debug"})
	ctx := WithLogger(context.Background(), &logger)

	got := Ctx(ctx)
	assert.Same(t, &logger, got)
	got.Debug().Msg("")
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want zerolog.Level
	}{
		{in: "trace", want: zerolog.TraceLevel},
		{in: "debug", want: zerolog.DebugLevel},
		{in: "WARN", want: zerolog.WarnLevel},
		{in: "warning", want: zerolog.WarnLevel},
		{in: "error", want: zerolog.ErrorLevel},
		{in: "fatal", want: zerolog.FatalLevel},
		{in: "", want: zerolog.InfoLevel},
		{in: "bogus", want: zerolog.InfoLevel},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, parseLevel(tt.in), tt.in)
	}
}
