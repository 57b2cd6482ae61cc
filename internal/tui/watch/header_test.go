package watch

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestActivityKeepsNewestSlots(t *testing.T) {
	var a activity
	for i := 0; i < activitySlots+2; i++ {
		a.record("artifact.scheduled", t0.Add(time.Duration(i)*time.Second))
	}
	a.record("artifact.delete_failed", t0.Add(time.Minute))

	assert.Len(t, a.types, activitySlots)
	assert.Equal(t, "artifact.delete_failed", a.types[0])
	assert.Equal(t, t0.Add(time.Minute), a.last)
}

func TestActivityFadesAfterSilence(t *testing.T) {
	var a activity
	a.record("artifact.deleted", t0)

	a.fade(t0.Add(activityFade))
	assert.Len(t, a.types, 1, "still inside the fade window")

	a.fade(t0.Add(activityFade + time.Second))
	assert.Empty(t, a.types)
	assert.Equal(t, t0, a.last, "last event time survives the fade")
}

func TestActivityRender(t *testing.T) {
	theme := NewDefaultTheme()
	var a activity
	a.record("artifact.deferred", t0)
	a.record("janitor.sweep", t0)

	out := a.render(theme)
	assert.Equal(t, 2, strings.Count(out, "●"))
	assert.Equal(t, activitySlots-2, strings.Count(out, "○"))
}

func TestRenderHeaderShowsCounts(t *testing.T) {
	health := HealthState{Status: "ok", Connected: true, PendingDeletions: 3, EventSubscribers: 1}
	out := renderHeader(health, 1, activity{}, NewDefaultTheme(), 100)

	assert.Contains(t, out, "PLANVIEW WATCH")
	assert.Contains(t, out, "Pending: 3")
	assert.Contains(t, out, "Last event: never")
}
