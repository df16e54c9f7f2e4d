package session

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSessionLifecycle(t *testing.T) {
	s := New("ana", false, "neon")
	assert.Equal(t, SchemeAuto, s.Scheme())
	assert.True(t, s.Active())

	assert.True(t, s.TogglePrivacy())
	s.SetScheme(SchemeDark)
	s.SetScheme("bogus")
	assert.Equal(t, SchemeDark, s.Scheme())
	assert.True(t, s.Privacy())

	s.End()
	assert.False(t, s.Active())
	assert.False(t, s.Privacy())
	assert.Equal(t, SchemeAuto, s.Scheme())
}

func TestContext(t *testing.T) {
	_, ok := FromContext(context.Background())
	assert.False(t, ok)

	ctx := NewContext(context.Background(), New("ana", true, SchemeLight))
	r, ok := FromContext(ctx)
	require.True(t, ok)
	assert.Equal(t, "ana", r.User())
	assert.True(t, r.Privacy())
}
