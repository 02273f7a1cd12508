package timeutil_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/princekumarofficial/stories-viewer/internal/utils/timeutil"
)

func TestRelativeLabel(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name    string
		elapsed time.Duration
		want    string
	}{
		{"just posted", 0, "0m"},
		{"under a minute", 30 * time.Second, "0m"},
		{"minutes", 17 * time.Minute, "17m"},
		{"just under an hour", 59*time.Minute + 59*time.Second, "59m"},
		{"exactly an hour", time.Hour, "1h"},
		{"hours", 5*time.Hour + 30*time.Minute, "5h"},
		{"just under a day", 23*time.Hour + 59*time.Minute, "23h"},
		{"exactly a day", 24 * time.Hour, "1d"},
		{"days", 72 * time.Hour, "3d"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, timeutil.RelativeLabel(now.Add(-tt.elapsed), now))
		})
	}
}

func TestRelativeLabelClampsFutureTimestamps(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	assert.Equal(t, "0m", timeutil.RelativeLabel(now.Add(time.Minute), now))
}
