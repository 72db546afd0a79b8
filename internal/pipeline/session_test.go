package pipeline

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStateString(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "idle", StateIdle.String())
	assert.Equal(t, "starting", StateStarting.String())
	assert.Equal(t, "running", StateRunning.String())
	assert.Equal(t, "stopping", StateStopping.String())
	assert.Equal(t, "state(42)", State(42).String())
}

func TestLegalTransitions(t *testing.T) {
	t.Parallel()

	cases := []struct {
		from, to State
		want     bool
	}{
		{StateIdle, StateStarting, true},
		{StateIdle, StateRunning, false},
		{StateIdle, StateStopping, false},
		{StateStarting, StateRunning, true},
		{StateStarting, StateStopping, true},
		{StateStarting, StateIdle, true},
		{StateRunning, StateStopping, true},
		{StateRunning, StateStarting, false},
		{StateStopping, StateIdle, true},
		{StateStopping, StateRunning, false},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, LegalTransition(tc.from, tc.to),
			"%s -> %s", tc.from, tc.to)
	}
}

func TestStartParamsValidate(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name    string
		params  StartParams
		wantErr string
	}{
		{"local defaults", StartParams{FrequencyMHz: 106.9}, ""},
		{"program upper bound", StartParams{FrequencyMHz: 88.1, Program: 3}, ""},
		{"remote host", StartParams{FrequencyMHz: 90.1, Host: "rtl.local", Port: 1234}, ""},
		{"zero frequency", StartParams{}, "frequency"},
		{"negative frequency", StartParams{FrequencyMHz: -5}, "frequency"},
		{"program too high", StartParams{FrequencyMHz: 106.9, Program: 4}, "program"},
		{"program negative", StartParams{FrequencyMHz: 106.9, Program: -1}, "program"},
		{"host without port", StartParams{FrequencyMHz: 106.9, Host: "rtl.local"}, "port is required"},
		{"port out of range", StartParams{FrequencyMHz: 106.9, Host: "rtl.local", Port: 70000}, "between 1 and 65535"},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			err := tc.params.Validate()
			if tc.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			var verr *ValidationError
			require.True(t, errors.As(err, &verr))
			assert.Contains(t, err.Error(), tc.wantErr)
		})
	}
}
