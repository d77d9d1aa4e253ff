package timex

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDuration_UnmarshalJSON(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    time.Duration
		wantErr bool
	}{
		{name: "string seconds", input: `"3s"`, want: 3 * time.Second},
		{name: "string hours", input: `"12h"`, want: 12 * time.Hour},
		{name: "integer nanoseconds", input: `1500000000`, want: 1500 * time.Millisecond},
		{name: "bad string", input: `"three"`, wantErr: true},
		{name: "bool", input: `true`, wantErr: true},
		{name: "malformed", input: `{`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var d Duration
			err := json.Unmarshal([]byte(tt.input), &d)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, d.Duration)
		})
	}
}

func TestDuration_MarshalJSON(t *testing.T) {
	b, err := json.Marshal(Duration{Duration: 20 * time.Second})
	require.NoError(t, err)
	assert.Equal(t, `"20s"`, string(b))
}
