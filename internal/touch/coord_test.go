package touch

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func screenTwoByOne() ScreenConfig {
	return ScreenConfig{
		Name:   "main",
		Screen: Rect{WidthMM: 2000, HeightMM: 1000, OffsetX: 0, OffsetY: 1000},
	}
}

func TestMapper_NormalizeDenormalizeRoundTrip(t *testing.T) {
	m := NewMapper(Pose{}, screenTwoByOne())

	world := Point{X: 300, Y: 900}
	norm := m.Normalize(world)
	back := m.Denormalize(norm)

	assert.InDelta(t, world.X, back.X, 1e-9)
	assert.InDelta(t, world.Y, back.Y, 1e-9)
}

func TestMapper_ContainmentIsIdempotent(t *testing.T) {
	m := NewMapper(Pose{}, screenTwoByOne())
	p := Point{X: 0, Y: 800}

	first := m.Contains(p)
	second := m.Contains(p)

	assert.Equal(t, first, second)
	assert.True(t, first)
}

func TestMapper_ExcludeZoneRejectsContainmentButNotNormalization(t *testing.T) {
	screen := screenTwoByOne()
	// Screen-local offset (-800, -400) sits at world (-800, 600) given
	// the screen's own (0, 1000) centre.
	screen.ExcludeZones = []Rect{{WidthMM: 400, HeightMM: 400, OffsetX: -800, OffsetY: -400}}
	m := NewMapper(Pose{YFlip: true}, screen)

	excluded := Point{X: -1000, Y: 500}
	assert.False(t, m.Contains(excluded))

	routed := Point{X: 500, Y: 800}
	assert.True(t, m.Contains(routed))

	norm := m.Normalize(routed)
	assert.InDelta(t, 0.75, norm.X, 1e-9)
	assert.InDelta(t, 0.7, norm.Y, 1e-9) // raw ny=0.3, flipped to 1-0.3

}

func TestMapper_ExcludeZoneIsScreenLocalNotWorldAbsolute(t *testing.T) {
	// Screen centred at world (0, 1000); exclude zone given in
	// screen-local mm as (0, 0, 400, 400) — a 400x400 box centred on
	// the screen's own centre, not on the world origin.
	screen := ScreenConfig{
		Name:         "main",
		Screen:       Rect{WidthMM: 2000, HeightMM: 1000, OffsetX: 0, OffsetY: 1000},
		ExcludeZones: []Rect{{WidthMM: 400, HeightMM: 400, OffsetX: 0, OffsetY: 0}},
	}
	m := NewMapper(Pose{}, screen)

	assert.False(t, m.Contains(Point{X: 0, Y: 800}), "world (0,800) falls inside the screen-local exclude zone")
	assert.True(t, m.Contains(Point{X: 500, Y: 800}), "world (500,800) falls outside the exclude zone")
}

func TestMapper_ZeroSizeAreaDefaultsToHalf(t *testing.T) {
	m := NewMapper(Pose{}, ScreenConfig{Screen: Rect{WidthMM: 0, HeightMM: 0}})
	norm := m.Normalize(Point{X: 5, Y: 5})
	assert.Equal(t, 0.5, norm.X)
	assert.Equal(t, 0.5, norm.Y)
}
