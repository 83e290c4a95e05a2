package logger_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.trai.ch/kiln/internal/adapters/logger"
	"go.trai.ch/zerr"
)

func TestCollectErrorEntries(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name         string
		err          error
		wantMessages []string
		wantMetadata []map[string]any
	}{
		{
			name:         "single standard error",
			err:          errors.New("simple error"),
			wantMessages: []string{"simple error"},
			wantMetadata: []map[string]any{nil},
		},
		{
			name:         "zerr wrapped chain",
			err:          zerr.Wrap(zerr.Wrap(errors.New("root cause"), "middle layer"), "outer layer"),
			wantMessages: []string{"outer layer", "middle layer", "root cause"},
			wantMetadata: []map[string]any{{}, {}, nil},
		},
		{
			name:         "zerr with metadata",
			err:          zerr.With(zerr.With(zerr.New("base error"), "key1", "value1"), "key2", 42),
			wantMessages: []string{"base error"},
			wantMetadata: []map[string]any{{"key1": "value1", "key2": 42}},
		},
		{
			name:         "metadata on a standard error",
			err:          zerr.With(errors.New("plain"), "path", "kiln.yaml"),
			wantMessages: []string{"plain"},
			wantMetadata: []map[string]any{{"path": "kiln.yaml"}},
		},
		{
			name: "empty wrapper inside chain",
			err: zerr.Wrap(
				zerr.With(errors.New("disk full"), "key", "command:cc"),
				"failed to write build database",
			),
			wantMessages: []string{"failed to write build database", "disk full"},
			wantMetadata: []map[string]any{{}, {"key": "command:cc"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			entries := logger.CollectErrorEntries(tt.err)
			require := assert.New(t)
			require.Len(entries, len(tt.wantMessages))
			for i, wantMsg := range tt.wantMessages {
				require.Equal(wantMsg, entries[i].Message, "message mismatch at index %d", i)
				require.Equal(tt.wantMetadata[i], entries[i].Metadata, "metadata mismatch at index %d", i)
			}
		})
	}

	assert.Empty(t, logger.CollectErrorEntries(nil))
}

func TestFormatErrorEntries(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		entries []logger.ErrorEntry
		want    string
	}{
		{
			name:    "single entry",
			entries: []logger.ErrorEntry{{Message: "single error"}},
			want:    "Error: single error",
		},
		{
			name:    "three entries",
			entries: []logger.ErrorEntry{{Message: "first"}, {Message: "second"}, {Message: "third"}},
			want:    "Error: first\n\n  Caused by:\n    → second\n    → third",
		},
		{
			name: "metadata sorted on both levels",
			entries: []logger.ErrorEntry{
				{Message: "cycle detected", Metadata: map[string]any{"zebra": "z", "alpha": "a"}},
				{Message: "cause", Metadata: map[string]any{"cause_key": "cause_val"}},
			},
			want: "Error: cycle detected\n       alpha: a\n       zebra: z\n\n  Caused by:\n    → cause\n      cause_key: cause_val",
		},
		{
			name:    "multiline messages",
			entries: []logger.ErrorEntry{{Message: "line1\nline2"}, {Message: "cause line1\ncause line2"}},
			want:    "Error: line1\n       line2\n\n  Caused by:\n    → cause line1\n      cause line2",
		},
		{
			name:    "empty entries",
			entries: []logger.ErrorEntry{},
			want:    "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, logger.FormatErrorEntries(tt.entries))
		})
	}
}
