package invoker

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vyrodovalexey/meshrouter/internal/rpcurl"
)

func TestParse(t *testing.T) {
	t.Parallel()

	inv, err := Parse("dubbo://10.0.0.1:20880/com.foo.BarService")
	require.NoError(t, err)
	assert.Equal(t, "10.0.0.1:20880", inv.Address())
	assert.Equal(t, "com.foo.BarService", inv.URL().Path())

	_, err = Parse("garbage")
	assert.Error(t, err)
}

func TestInvoker_WithAddress(t *testing.T) {
	t.Parallel()

	original, err := Parse("dubbo://10.0.0.1:20880/com.foo.BarService?version=1.0.0")
	require.NoError(t, err)

	moved, err := original.WithAddress("10.1.0.7:9090")
	require.NoError(t, err)

	assert.Equal(t, "10.1.0.7:9090", moved.Address())
	assert.Equal(t, "1.0.0", moved.URL().Param(rpcurl.VersionKey))
	assert.Equal(t, "10.0.0.1:20880", original.Address())
	assert.NotSame(t, original, moved)

	_, err = original.WithAddress("no-port")
	assert.Error(t, err)

	_, err = (&Invoker{}).WithAddress("10.1.0.7:9090")
	assert.Error(t, err)
}

func TestInvoker_NilURL(t *testing.T) {
	t.Parallel()

	inv := New(nil)
	assert.Equal(t, "", inv.Address())
	assert.Equal(t, "<nil>", inv.String())
}

func TestInvocation(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		inv      *Invocation
		wantPath string
		wantHost string
		wantKey  string
	}{
		{
			name:     "full consumer",
			inv:      NewInvocation(rpcurl.MustParse("consumer://10.0.0.5/com.foo.BarService?group=g&version=2"), "sayHello"),
			wantPath: "com.foo.BarService",
			wantHost: "10.0.0.5",
			wantKey:  "g/com.foo.BarService:2",
		},
		{
			name: "nil consumer",
			inv:  NewInvocation(nil, "sayHello"),
		},
		{
			name: "nil invocation",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			assert.Equal(t, tt.wantPath, tt.inv.Path())
			assert.Equal(t, tt.wantHost, tt.inv.Host())
			assert.Equal(t, tt.wantKey, tt.inv.ServiceKey())
		})
	}
}

func TestCopy(t *testing.T) {
	t.Parallel()

	a, _ := Parse("dubbo://10.0.0.1:1/svc")
	b, _ := Parse("dubbo://10.0.0.2:2/svc")
	in := []*Invoker{a, b}

	out := Copy(in)
	require.Len(t, out, 2)
	out[0] = b

	assert.Same(t, a, in[0])
	assert.Nil(t, Copy(nil))
	assert.Equal(t, []string{"10.0.0.1:1", "10.0.0.2:2"}, Addresses(in))
	assert.Empty(t, Addresses(nil))
}
