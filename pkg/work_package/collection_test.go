package work_package

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newCollection(t *testing.T, names ...string) *Collection {
	c := NewCollection(nil)
	for _, name := range names {
		_, err := c.Add(name, "")
		require.NoError(t, err)
	}
	return c
}

func TestNewCollection(t *testing.T) {
	// when
	c := NewCollection([]Persisted{
		{Name: "Review", Ticket: "ABC-1", LoggedTime: 120},
		{Name: "Meetings", LoggedTime: 60},
		{Name: "Review", LoggedTime: 999},
	})

	// then
	require.Equal(t, 2, c.Len())
	list := c.List()
	assert.Equal(t, "Review", list[0].Name)
	assert.Equal(t, "ABC-1", list[0].Ticket)
	assert.Equal(t, float64(120), list[0].AccumulatedSeconds)
	assert.Equal(t, "Meetings", list[1].Name)
	_, active := c.Active()
	assert.False(t, active)
}

func TestCollection_Add(t *testing.T) {
	t.Run("trims the name and ticket", func(t *testing.T) {
		c := newCollection(t)

		wp, err := c.Add("  Review ", " ABC-1 ")

		require.NoError(t, err)
		assert.Equal(t, "Review", wp.Name)
		assert.Equal(t, "ABC-1", wp.Ticket)
	})

	t.Run("duplicate name", func(t *testing.T) {
		c := newCollection(t, "Review")

		_, err := c.Add("Review", "")

		assert.ErrorIs(t, err, ErrDuplicateName)
		assert.Equal(t, 1, c.Len())
	})

	t.Run("empty name", func(t *testing.T) {
		c := newCollection(t)

		_, err := c.Add("   ", "")

		assert.ErrorIs(t, err, ErrEmptyName)
		assert.Zero(t, c.Len())
	})
}

func TestCollection_Start(t *testing.T) {
	t.Run("starting one package stops the active one", func(t *testing.T) {
		// given
		clock := newClock()
		c := newCollection(t, "A", "B")
		require.NoError(t, c.Start("A", clock.Now()))
		clock.Advance(10 * time.Second)

		// when
		err := c.Start("B", clock.Now())

		// then
		require.NoError(t, err)
		a, _ := c.Get("A")
		b, _ := c.Get("B")
		assert.False(t, a.IsActive())
		assert.InDelta(t, 10, a.AccumulatedSeconds, 0.001)
		assert.True(t, b.IsActive())
		active, ok := c.Active()
		require.True(t, ok)
		assert.Equal(t, "B", active.Name)
	})

	t.Run("starting the active package", func(t *testing.T) {
		c := newCollection(t, "A")
		require.NoError(t, c.Start("A", time.Now()))

		assert.ErrorIs(t, c.Start("A", time.Now()), ErrAlreadyActive)
	})

	t.Run("unknown package", func(t *testing.T) {
		c := newCollection(t, "A")

		assert.ErrorIs(t, c.Start("X", time.Now()), ErrNotFound)
	})
}

func TestCollection_Toggle(t *testing.T) {
	clock := newClock()
	c := newCollection(t, "A", "B")

	active, err := c.Toggle("A", clock.Now())
	require.NoError(t, err)
	assert.True(t, active)

	active, err = c.Toggle("B", clock.Now())
	require.NoError(t, err)
	assert.True(t, active)
	a, _ := c.Get("A")
	assert.False(t, a.IsActive())

	active, err = c.Toggle("B", clock.Now())
	require.NoError(t, err)
	assert.False(t, active)
	_, running := c.Active()
	assert.False(t, running)
}

func TestCollection_StopAll(t *testing.T) {
	c := newCollection(t, "A", "B")
	require.NoError(t, c.Start("B", time.Now()))

	assert.Equal(t, []string{"B"}, c.StopAll(time.Now()))
	assert.Empty(t, c.StopAll(time.Now()))
}

func TestCollection_Edit(t *testing.T) {
	seconds := func(s float64) *float64 { return &s }

	t.Run("renames and sets logged time", func(t *testing.T) {
		c := newCollection(t, "A")

		wp, err := c.Edit("A", Edit{Name: "Alpha", Ticket: "ABC-2", LoggedSeconds: seconds(1800)}, time.Now())

		require.NoError(t, err)
		assert.Equal(t, "Alpha", wp.Name)
		assert.Equal(t, "ABC-2", wp.Ticket)
		assert.Equal(t, float64(1800), wp.AccumulatedSeconds)
		_, err = c.Get("A")
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("name taken by another package", func(t *testing.T) {
		c := newCollection(t, "A", "B")

		_, err := c.Edit("A", Edit{Name: "B"}, time.Now())

		assert.ErrorIs(t, err, ErrDuplicateName)
	})

	t.Run("keeping the same name", func(t *testing.T) {
		c := newCollection(t, "A")

		_, err := c.Edit("A", Edit{Name: "A", Ticket: "T-1"}, time.Now())

		assert.NoError(t, err)
	})

	t.Run("logged time of an active package", func(t *testing.T) {
		c := newCollection(t, "A")
		require.NoError(t, c.Start("A", time.Now()))

		_, err := c.Edit("A", Edit{Name: "A", LoggedSeconds: seconds(60)}, time.Now())

		assert.ErrorIs(t, err, ErrAlreadyActive)
	})

	t.Run("negative logged time", func(t *testing.T) {
		c := newCollection(t, "A")

		_, err := c.Edit("A", Edit{Name: "A", LoggedSeconds: seconds(-1)}, time.Now())

		assert.Error(t, err)
	})

	t.Run("empty name", func(t *testing.T) {
		c := newCollection(t, "A")

		_, err := c.Edit("A", Edit{Name: " "}, time.Now())

		assert.ErrorIs(t, err, ErrEmptyName)
	})
}

func TestCollection_NeedsRemovalConfirmation(t *testing.T) {
	c := NewCollection([]Persisted{
		{Name: "short", LoggedTime: 60},
		{Name: "long", LoggedTime: 61},
		{Name: "running"},
	})
	now := time.Now()
	require.NoError(t, c.Start("running", now))

	for name, expected := range map[string]bool{"short": false, "long": true, "running": true} {
		t.Run(name, func(t *testing.T) {
			needs, err := c.NeedsRemovalConfirmation(name, now)
			require.NoError(t, err)
			assert.Equal(t, expected, needs)
		})
	}
}

func TestCollection_Remove(t *testing.T) {
	c := newCollection(t, "A", "B", "C")

	removed, err := c.Remove("B")

	require.NoError(t, err)
	assert.Equal(t, "B", removed.Name)
	names := []string{}
	for _, wp := range c.List() {
		names = append(names, wp.Name)
	}
	assert.Equal(t, []string{"A", "C"}, names)
	_, err = c.Remove("B")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCollection_Checkpoint(t *testing.T) {
	// given
	clock := newClock()
	c := NewCollection([]Persisted{{Name: "A", LoggedTime: 30}, {Name: "B"}})
	require.NoError(t, c.Start("B", clock.Now()))
	clock.Advance(45 * time.Second)

	// when
	persisted := c.Checkpoint(clock.Now())

	// then
	assert.Equal(t, []Persisted{{Name: "A", LoggedTime: 30}, {Name: "B", LoggedTime: 45}}, persisted)
	b, _ := c.Get("B")
	assert.True(t, b.IsActive())
}
