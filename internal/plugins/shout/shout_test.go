package shout

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/gantry-dev/gantry/internal/plugin"
	"github.com/gantry-dev/gantry/internal/plugins/greet"
)

func TestShoutMetadataDeclaresGreetDependency(t *testing.T) {
	t.Parallel()

	meta := New().Metadata()
	require.NoError(t, meta.Validate())
	require.Contains(t, meta.Dependencies, "greet")
}

func TestShoutWaitsForGreet(t *testing.T) {
	t.Parallel()

	reg := plugin.New(plugin.DefaultConfig(), nil)
	require.NoError(t, reg.Register(context.Background(), New(), nil))

	registered, err := reg.Get("shout")
	require.NoError(t, err)
	require.False(t, registered.Enabled)
}

func TestShoutUppercasesGreeting(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	reg := plugin.New(plugin.DefaultConfig(), nil)

	buf := &bytes.Buffer{}
	require.NoError(t, reg.Register(ctx, &greet.Plugin{Out: buf}, nil))
	require.NoError(t, reg.Register(ctx, New(), nil))
	require.NoError(t, reg.Enable(ctx, "shout"))

	handler := reg.Commands()["greet"].Run
	for _, wrap := range reg.HandlerWrappers("greet") {
		handler = wrap(handler)
	}

	err := handler(ctx, []string{"Ada"}, map[string]string{"greeting": "hello", "shout": "yes"})
	require.NoError(t, err)
	require.Equal(t, "HELLO, Ada!\n", buf.String())
}

func TestShoutLeavesGreetingAloneWhenUnset(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	reg := plugin.New(plugin.DefaultConfig(), nil)

	buf := &bytes.Buffer{}
	require.NoError(t, reg.Register(ctx, &greet.Plugin{Out: buf}, nil))
	require.NoError(t, reg.Register(ctx, New(), nil))
	require.NoError(t, reg.Enable(ctx, "shout"))

	handler := reg.Commands()["greet"].Run
	for _, wrap := range reg.HandlerWrappers("greet") {
		handler = wrap(handler)
	}

	err := handler(ctx, nil, map[string]string{"greeting": "hello"})
	require.NoError(t, err)
	require.Equal(t, "hello, world!\n", buf.String())
}
