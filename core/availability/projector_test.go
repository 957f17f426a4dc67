package availability

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/macmarek/scheduling-assistant/core/model"
	"github.com/macmarek/scheduling-assistant/core/timegrid"
)

func TestProjectDefaultsAvailableToPreferred(t *testing.T) {
	g := timegrid.MustNew(30)
	proj := Project(g, []model.Participant{
		{ID: "a", Preferred: model.DefaultWindow},
		{ID: "b", UTCOffsetMinutes: 330, Preferred: model.DefaultWindow},
	})
	require.Len(t, proj, 2)
	assert.Equal(t, proj["a"].Available, proj["a"].Preferred)
	assert.Equal(t, 16, proj["b"].Available.Count())
	assert.True(t, proj.AvailableFor("b", 7, 23))
	assert.False(t, proj.AvailableFor("b", 7, 24))
	assert.False(t, proj.AvailableFor("nobody", 0, 1))
}

func TestProjectSeparatesHardAvailability(t *testing.T) {
	g := timegrid.MustNew(60)
	wide := model.Window{Start: 7 * 60, End: 20 * 60}
	proj := Project(g, []model.Participant{{ID: "a", Preferred: model.DefaultWindow, Available: &wide}})
	a := proj["a"]
	assert.Equal(t, 13, a.Available.Count())
	assert.Equal(t, 8, a.Preferred.Count())
	assert.True(t, a.Preferred.IsSubsetOf(a.Available))
	assert.Equal(t, 2, proj.Discomfort("a", 7, 10))
	assert.Equal(t, 0, proj.Discomfort("a", 9, 17))
}

func TestProjectEmptyWindow(t *testing.T) {
	g := timegrid.MustNew(30)
	proj := Project(g, []model.Participant{{ID: "a", Preferred: model.Window{Start: 600, End: 600}}})
	assert.Equal(t, 0, proj["a"].Available.Count())
}
