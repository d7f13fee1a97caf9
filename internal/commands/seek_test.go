package commands

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTimestamp(t *testing.T) {
	tests := []struct {
		input   string
		want    time.Duration
		wantErr bool
	}{
		{input: "0", want: 0},
		{input: "90", want: 90 * time.Second},
		{input: "1:30", want: 90 * time.Second},
		{input: "0:05", want: 5 * time.Second},
		{input: "10:00", want: 10 * time.Minute},
		{input: "1:02:30", want: time.Hour + 2*time.Minute + 30*time.Second},
		{input: "", wantErr: true},
		{input: "abc", wantErr: true},
		{input: "1:99", wantErr: true},
		{input: "-5", wantErr: true},
		{input: "1:2:3:4", wantErr: true},
		{input: "1:", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := parseTimestamp(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFormatTimestamp(t *testing.T) {
	assert.Equal(t, "0:00", formatTimestamp(0))
	assert.Equal(t, "1:30", formatTimestamp(90*time.Second))
	assert.Equal(t, "1:02:30", formatTimestamp(time.Hour+2*time.Minute+30*time.Second))
}
