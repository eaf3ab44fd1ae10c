package netutil

import (
	"net"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSingleIP(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		tmpl    string
		want    string
		wantErr string
	}{
		{name: "literal ipv4", tmpl: "10.1.2.3", want: "10.1.2.3"},
		{name: "literal ipv6", tmpl: "fd00::1", want: "fd00::1"},
		{name: "surrounding whitespace", tmpl: "  10.1.2.3 ", want: "10.1.2.3"},
		{name: "empty", tmpl: "", wantErr: "no addresses found"},
		{name: "multiple", tmpl: "10.0.0.1 10.0.0.2", wantErr: "multiple addresses found"},
		{name: "bad template", tmpl: "{{ GetPrivateIP", wantErr: "unable to parse address template"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := ParseSingleIP(tt.tmpl)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestHostSource(t *testing.T) {
	t.Parallel()

	t.Run("literal", func(t *testing.T) {
		t.Parallel()

		src := NewHostSource("192.168.1.10")
		assert.Equal(t, "192.168.1.10", src.Host())
		assert.Equal(t, "192.168.1.10", src.Template())
	})

	t.Run("empty uses default template", func(t *testing.T) {
		t.Parallel()

		src := NewHostSource(" ")
		assert.Equal(t, DefaultHostTemplate, src.Template())
	})

	t.Run("failure falls back to loopback", func(t *testing.T) {
		t.Parallel()

		src := NewHostSource("{{ broken")
		_, err := src.Lookup()
		assert.Error(t, err)
		assert.Equal(t, LoopbackAddress, src.Host())
	})

	t.Run("concurrent lookups agree", func(t *testing.T) {
		t.Parallel()

		src := NewHostSource("10.9.8.7")
		var wg sync.WaitGroup
		results := make([]string, 16)
		for i := range results {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				results[i] = src.Host()
			}(i)
		}
		wg.Wait()

		for _, r := range results {
			assert.Equal(t, "10.9.8.7", r)
		}
	})
}

func TestLocalHost(t *testing.T) {
	t.Parallel()

	host := LocalHost()
	assert.NotNil(t, net.ParseIP(host), "LocalHost must return an IP literal, got %q", host)
	assert.Equal(t, host, LocalHost())
}
