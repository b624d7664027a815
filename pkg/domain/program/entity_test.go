package program

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	p, err := New(PlatformHackerOne, "acme", "", "https://hackerone.com/acme")
	require.NoError(t, err)

	assert.Equal(t, "acme", p.Handle())
	assert.Equal(t, "acme", p.Name(), "name defaults to the handle")
	assert.True(t, p.IsActive())
	assert.Nil(t, p.LastScopeCheck())
	assert.Empty(t, p.InScope())
}

func TestNew_InvalidInput(t *testing.T) {
	_, err := New(Platform("immunefi"), "acme", "", "")
	assert.Error(t, err)

	_, err = New(PlatformHackerOne, "", "", "")
	assert.Error(t, err)
}

func TestParsePlatform(t *testing.T) {
	p, err := ParsePlatform("HackerOne")
	require.NoError(t, err)
	assert.Equal(t, PlatformHackerOne, p)

	_, err = ParsePlatform("unknown")
	assert.Error(t, err)
}

func TestUpdateScope(t *testing.T) {
	p, err := New(PlatformBugcrowd, "beta", "Beta", "")
	require.NoError(t, err)

	checkedAt := time.Now().UTC()
	p.UpdateScope([]string{"example.com"}, []string{"dev.example.com"}, checkedAt)

	assert.Equal(t, []string{"example.com"}, p.InScope())
	assert.Equal(t, []string{"dev.example.com"}, p.OutOfScope())
	require.NotNil(t, p.LastScopeCheck())
	assert.Equal(t, checkedAt, *p.LastScopeCheck())
}

func TestMarkChecked_KeepsScope(t *testing.T) {
	p, err := New(PlatformHackerOne, "acme", "", "")
	require.NoError(t, err)
	p.UpdateScope([]string{"example.com"}, nil, time.Now().UTC())

	later := time.Now().UTC().Add(time.Hour)
	p.MarkChecked(later)

	assert.Equal(t, []string{"example.com"}, p.InScope())
	assert.Equal(t, later, *p.LastScopeCheck())
}

func TestActivateDeactivate(t *testing.T) {
	p, err := New(PlatformHackerOne, "acme", "", "")
	require.NoError(t, err)

	p.Deactivate()
	assert.False(t, p.IsActive())

	p.Activate()
	assert.True(t, p.IsActive())
}
