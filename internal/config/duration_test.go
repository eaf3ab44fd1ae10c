package config

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestDuration_UnmarshalYAML(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		input    string
		expected time.Duration
		wantErr  bool
	}{
		{name: "seconds", input: "timeout: 2s", expected: 2 * time.Second},
		{name: "milliseconds", input: "timeout: 300ms", expected: 300 * time.Millisecond},
		{name: "compound", input: "timeout: 1m30s", expected: 90 * time.Second},
		{name: "empty string", input: `timeout: ""`, expected: 0},
		{name: "invalid", input: "timeout: soon", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var out struct {
				Timeout Duration `yaml:"timeout"`
			}
			err := yaml.Unmarshal([]byte(tt.input), &out)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, out.Timeout.Duration())
		})
	}
}

func TestDuration_JSON(t *testing.T) {
	t.Parallel()

	data, err := json.Marshal(Duration(1500 * time.Millisecond))
	require.NoError(t, err)
	assert.Equal(t, `"1.5s"`, string(data))

	var d Duration
	require.NoError(t, json.Unmarshal([]byte(`"250ms"`), &d))
	assert.Equal(t, 250*time.Millisecond, d.Duration())

	require.NoError(t, json.Unmarshal([]byte(`null`), &d))
	assert.Zero(t, d)

	assert.Error(t, json.Unmarshal([]byte(`"later"`), &d))
}

func TestDuration_MarshalYAML(t *testing.T) {
	t.Parallel()

	out, err := yaml.Marshal(struct {
		Timeout Duration `yaml:"timeout"`
	}{Timeout: Duration(2 * time.Second)})
	require.NoError(t, err)
	assert.Equal(t, "timeout: 2s\n", string(out))
}
