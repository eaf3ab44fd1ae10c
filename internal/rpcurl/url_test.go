package rpcurl

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name         string
		raw          string
		wantProtocol string
		wantHost     string
		wantPort     int
		wantPath     string
		wantParams   map[string]string
		wantErr      bool
	}{
		{
			name:         "route url with encoded rule",
			raw:          "route://0.0.0.0/com.foo.BarService?rule=host%3D10.0.0.*%3D%3Etrue&priority=1",
			wantProtocol: "route",
			wantHost:     "0.0.0.0",
			wantPath:     "com.foo.BarService",
			wantParams:   map[string]string{"rule": "host=10.0.0.*=>true", "priority": "1"},
		},
		{
			name:         "raw rule value keeps inner equals signs",
			raw:          "route://0.0.0.0/com.foo.BarService?rule=host=10.0.0.*=>true",
			wantProtocol: "route",
			wantHost:     "0.0.0.0",
			wantPath:     "com.foo.BarService",
			wantParams:   map[string]string{"rule": "host=10.0.0.*=>true"},
		},
		{
			name:         "provider url with port",
			raw:          "dubbo://10.20.30.40:20880/com.foo.BarService?version=1.0.0",
			wantProtocol: "dubbo",
			wantHost:     "10.20.30.40",
			wantPort:     20880,
			wantPath:     "com.foo.BarService",
			wantParams:   map[string]string{"version": "1.0.0"},
		},
		{
			name:         "ipv6 host",
			raw:          "dubbo://[::1]:20880/svc",
			wantProtocol: "dubbo",
			wantHost:     "::1",
			wantPort:     20880,
			wantPath:     "svc",
			wantParams:   map[string]string{},
		},
		{name: "empty", raw: "   ", wantErr: true},
		{name: "no protocol", raw: "10.0.0.1:20880/svc", wantErr: true},
		{name: "bad port", raw: "dubbo://host:99999/svc", wantErr: true},
		{name: "bad query", raw: "route://0.0.0.0/svc?rule=%zz", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			u, err := Parse(tt.raw)
			if tt.wantErr {
				assert.Error(t, err)
				assert.Nil(t, u)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.wantProtocol, u.Protocol())
			assert.Equal(t, tt.wantHost, u.Host())
			assert.Equal(t, tt.wantPort, u.Port())
			assert.Equal(t, tt.wantPath, u.Path())
			assert.Equal(t, tt.wantParams, u.Params())
		})
	}
}

func TestMustParse_Panics(t *testing.T) {
	t.Parallel()

	assert.Panics(t, func() { MustParse("not a url") })
	assert.NotPanics(t, func() { MustParse("route://0.0.0.0/svc") })
}

func TestURL_Address(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "10.0.0.1:20880", New("dubbo", "10.0.0.1", 20880, "svc", nil).Address())
	assert.Equal(t, "[fd00::1]:9090", New("dubbo", "fd00::1", 9090, "svc", nil).Address())
	assert.Equal(t, "0.0.0.0", New("route", "0.0.0.0", 0, "svc", nil).Address())
}

func TestURL_TypedParams(t *testing.T) {
	t.Parallel()

	u := New("route", "0.0.0.0", 0, "svc", map[string]string{
		"priority": " 7 ",
		"force":    "true",
		"broken":   "abc",
		"empty":    "",
	})

	assert.Equal(t, 7, u.ParamInt("priority", 0))
	assert.Equal(t, 3, u.ParamInt("broken", 3))
	assert.Equal(t, 0, u.ParamInt("missing", 0))
	assert.True(t, u.ParamBool("force", false))
	assert.True(t, u.ParamBool("broken", true))
	assert.False(t, u.ParamBool("missing", false))
	assert.Equal(t, "9090", u.ParamDefault("meshport", "9090"))
	assert.Equal(t, "9090", u.ParamDefault("empty", "9090"))
}

func TestURL_ServiceKey(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		url    *URL
		expect string
	}{
		{
			name:   "path only",
			url:    New("consumer", "10.0.0.5", 0, "com.foo.BarService", nil),
			expect: "com.foo.BarService",
		},
		{
			name: "group and version",
			url: New("consumer", "10.0.0.5", 0, "com.foo.BarService", map[string]string{
				GroupKey: "blue", VersionKey: "1.0.0",
			}),
			expect: "blue/com.foo.BarService:1.0.0",
		},
		{
			name: "interface overrides path",
			url: New("consumer", "10.0.0.5", 0, "bar", map[string]string{
				InterfaceKey: "com.foo.BarService",
			}),
			expect: "com.foo.BarService",
		},
		{
			name:   "empty",
			url:    New("consumer", "10.0.0.5", 0, "", nil),
			expect: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.expect, tt.url.ServiceKey())
		})
	}
}

func TestURL_WithAddress(t *testing.T) {
	t.Parallel()

	original := MustParse("dubbo://10.0.0.1:20880/com.foo.BarService?version=1.0.0")

	moved, err := original.WithAddress("10.1.0.7:9090")
	require.NoError(t, err)

	assert.Equal(t, "10.1.0.7:9090", moved.Address())
	assert.Equal(t, "1.0.0", moved.Param(VersionKey))
	assert.Equal(t, "10.0.0.1:20880", original.Address(), "original must not change")

	_, err = original.WithAddress("10.1.0.7")
	assert.Error(t, err)

	_, err = original.WithAddress("10.1.0.7:mesh")
	assert.Error(t, err)
}

func TestURL_WithParam(t *testing.T) {
	t.Parallel()

	original := New("route", "0.0.0.0", 0, "svc", map[string]string{"priority": "1"})
	changed := original.WithParam("priority", "2")

	assert.Equal(t, "2", changed.Param("priority"))
	assert.Equal(t, "1", original.Param("priority"))
}

func TestURL_FullString(t *testing.T) {
	t.Parallel()

	u := New("route", "0.0.0.0", 0, "com.foo.BarService", map[string]string{
		"rule":     "host=10.0.0.*=>true",
		"priority": "1",
		"force":    "false",
	})

	full := u.FullString()
	assert.Equal(t,
		"route://0.0.0.0/com.foo.BarService?force=false&priority=1&rule=host%3D10.0.0.%2A%3D%3Etrue",
		full)
	assert.Equal(t, full, u.String())

	reparsed, err := Parse(full)
	require.NoError(t, err)
	assert.Equal(t, full, reparsed.FullString())
	assert.Equal(t, "host=10.0.0.*=>true", reparsed.Param("rule"))
}

func TestNew_CopiesParams(t *testing.T) {
	t.Parallel()

	params := map[string]string{"k": "v"}
	u := New("dubbo", "h", 1, "/svc", params)
	params["k"] = "changed"

	assert.Equal(t, "v", u.Param("k"))
	assert.Equal(t, "svc", u.Path())

	out := u.Params()
	out["k"] = "mutated"
	assert.Equal(t, "v", u.Param("k"))
}
