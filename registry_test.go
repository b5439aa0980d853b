package xcqrs_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trickstertwo/xcqrs"
)

func nopEvent(ctx context.Context, evt xcqrs.Event) error { return nil }

func TestRegistry_Lookup(t *testing.T) {
	t.Parallel()
	r := xcqrs.NewRegistry()

	require.NoError(t, r.RegisterCommand("B.Cmd", echoCommand(nil)))
	require.NoError(t, r.RegisterCommand("A.Cmd", echoCommand(nil)))
	require.NoError(t, r.RegisterQuery("A.Query", xcqrs.QueryHandlerFunc(
		func(ctx context.Context, q xcqrs.Query) (any, error) { return nil, nil })))
	require.NoError(t, r.RegisterEvent("A.Evt", xcqrs.EventHandlerFunc(nopEvent)))
	require.NoError(t, r.RegisterEvent("A.Evt", xcqrs.EventHandlerFunc(nopEvent)))

	_, ok := r.Command("A.Cmd")
	assert.True(t, ok)
	_, ok = r.Command("A.Query")
	assert.False(t, ok, "kinds have separate namespaces")
	_, ok = r.Query("A.Query")
	assert.True(t, ok)
	assert.Len(t, r.Events("A.Evt"), 2)
	assert.Empty(t, r.Events("Unknown"))

	c, q, e := r.Counts()
	assert.Equal(t, [3]int{2, 1, 1}, [3]int{c, q, e})

	assert.Equal(t, xcqrs.HandlerTypes{
		Commands: []string{"A.Cmd", "B.Cmd"},
		Queries:  []string{"A.Query"},
		Events:   []string{"A.Evt"},
	}, r.Types())
}

func TestRegistry_EventsReturnsCopy(t *testing.T) {
	t.Parallel()
	r := xcqrs.NewRegistry()
	require.NoError(t, r.RegisterEvent("E", xcqrs.EventHandlerFunc(nopEvent)))

	hs := r.Events("E")
	hs[0] = nil
	require.NoError(t, r.RegisterEvent("E", xcqrs.EventHandlerFunc(nopEvent)))

	for _, h := range r.Events("E") {
		assert.NotNil(t, h)
	}
}

func TestRegistry_Errors(t *testing.T) {
	t.Parallel()
	r := xcqrs.NewRegistry()

	require.NoError(t, r.RegisterQuery("Q", xcqrs.QueryHandlerFunc(
		func(ctx context.Context, q xcqrs.Query) (any, error) { return nil, nil })))
	err := r.RegisterQuery("Q", xcqrs.QueryHandlerFunc(
		func(ctx context.Context, q xcqrs.Query) (any, error) { return nil, nil }))
	require.ErrorIs(t, err, xcqrs.ErrDuplicateRegistration)

	var dup *xcqrs.DuplicateRegistrationError
	require.ErrorAs(t, err, &dup)
	assert.Equal(t, xcqrs.KindQuery, dup.Kind)
	assert.Equal(t, "Q", dup.Type)

	assert.ErrorIs(t, r.RegisterEvent("E", nil), xcqrs.ErrNilHandler)
	assert.ErrorIs(t, r.RegisterCommand("", echoCommand(nil)), xcqrs.ErrInvalidMessageType)
}

func TestRegistry_Clear(t *testing.T) {
	t.Parallel()
	r := xcqrs.NewRegistry()
	require.NoError(t, r.RegisterCommand("C", echoCommand(nil)))
	require.NoError(t, r.RegisterEvent("E", xcqrs.EventHandlerFunc(nopEvent)))

	r.Clear()

	c, q, e := r.Counts()
	assert.Zero(t, c+q+e)
	assert.Empty(t, r.Types().Commands)
	require.NoError(t, r.RegisterCommand("C", echoCommand(nil)))
}
