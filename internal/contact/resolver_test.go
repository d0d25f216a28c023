package contact

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nagendra-kumar-y/zerothhire/internal/hunter"
	"github.com/nagendra-kumar-y/zerothhire/internal/rocketreach"
)

type fakePrimary struct {
	enabled bool
	people  []hunter.Person
	err     error
	calls   int
}

func (f *fakePrimary) Enabled() bool { return f.enabled }

func (f *fakePrimary) DomainSearch(_ context.Context, _ string, _ int) (string, []hunter.Person, error) {
	f.calls++
	return "acme.example", f.people, f.err
}

type fakeSecondary struct {
	enabled bool
	person  rocketreach.Person
	found   bool
	err     error
	calls   int
}

func (f *fakeSecondary) Enabled() bool { return f.enabled }

func (f *fakeSecondary) SearchSenior(_ context.Context, _ string) (rocketreach.Person, bool, error) {
	f.calls++
	return f.person, f.found, f.err
}

func TestResolvePrefersSeniorTitle(t *testing.T) {
	primary := &fakePrimary{enabled: true, people: []hunter.Person{
		{FirstName: "Tina", LastName: "Tech", Position: "CTO"},
		{FirstName: "Frank", LastName: "Founder", Position: "Co-Founder"},
		{FirstName: "Randy", LastName: "Rando", Position: "Account Executive"},
	}}
	r := NewResolver(primary, &fakeSecondary{})

	c, ok := r.Resolve(context.Background(), "Acme")
	require.True(t, ok)
	// Co-Founder outranks CTO even though the CTO came back first.
	assert.Equal(t, "Frank Founder", c.Name)
	assert.Equal(t, "hunter.io", c.EmailSource)
}

func TestResolveProviderOrderBreaksTies(t *testing.T) {
	primary := &fakePrimary{enabled: true, people: []hunter.Person{
		{FirstName: "First", LastName: "Ceo", Position: "CEO"},
		{FirstName: "Second", LastName: "Ceo", Position: "Chief Executive Officer"},
	}}
	r := NewResolver(primary, &fakeSecondary{})

	c, ok := r.Resolve(context.Background(), "Acme")
	require.True(t, ok)
	assert.Equal(t, "First Ceo", c.Name)
}

func TestResolveFallsBackToSecondaryOnce(t *testing.T) {
	primary := &fakePrimary{enabled: true} // no titled people
	secondary := &fakeSecondary{
		enabled: true,
		person:  rocketreach.Person{Name: "Sam CEO", Title: "CEO", Email: "sam@acme.example"},
		found:   true,
	}
	r := NewResolver(primary, secondary)

	c, ok := r.Resolve(context.Background(), "Acme")
	require.True(t, ok)
	assert.Equal(t, "Sam CEO", c.Name)
	assert.Equal(t, "rocketreach", c.EmailSource)
	assert.Equal(t, 1, secondary.calls)

	// Secondary is exhausted for the rest of the process, even though the
	// first use succeeded.
	_, ok = r.Resolve(context.Background(), "Globex")
	assert.False(t, ok)
	assert.Equal(t, 1, secondary.calls)
}

func TestResolveSecondaryExhaustedAfterMiss(t *testing.T) {
	secondary := &fakeSecondary{enabled: true, found: false}
	r := NewResolver(&fakePrimary{}, secondary)

	for i := 0; i < 5; i++ {
		_, ok := r.Resolve(context.Background(), "Acme")
		assert.False(t, ok)
	}
	assert.Equal(t, 1, secondary.calls, "secondary must be invoked at most once per process")
}

func TestResolveProviderErrorsAreMisses(t *testing.T) {
	primary := &fakePrimary{enabled: true, err: errors.New("hunter 500")}
	secondary := &fakeSecondary{enabled: true, err: errors.New("rocketreach 429")}
	r := NewResolver(primary, secondary)

	_, ok := r.Resolve(context.Background(), "Acme")
	assert.False(t, ok)
	assert.Equal(t, 1, primary.calls)
	assert.Equal(t, 1, secondary.calls)
}

func TestResolveNoKeysNoFallbackLeft(t *testing.T) {
	// Scenario: primary has no API key and the secondary was already used.
	secondary := &fakeSecondary{enabled: true, found: true,
		person: rocketreach.Person{Name: "Used Up"}}
	r := NewResolver(&fakePrimary{enabled: false}, secondary)

	_, ok := r.Resolve(context.Background(), "First Co")
	require.True(t, ok)

	_, ok = r.Resolve(context.Background(), "Second Co")
	assert.False(t, ok)
}
