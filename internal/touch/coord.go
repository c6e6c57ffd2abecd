package touch

import "math"

// Pose places a sensor in a screen's world-mm plane: rotate by
// ZRotationDeg around the origin, then translate by (XOffsetMM,
// YOffsetMM).
type Pose struct {
	XOffsetMM    float64 `json:"x_offset_mm"`
	YOffsetMM    float64 `json:"y_offset_mm"`
	ZRotationDeg float64 `json:"z_rotation_deg"`
	XFlip        bool    `json:"x_flip"`
	YFlip        bool    `json:"y_flip"`
}

// Rect is an axis-aligned rectangle in world millimetres, described by a
// centre offset and full width/height — the same shape the teacher uses
// for screen and active-area bounds.
type Rect struct {
	WidthMM  float64 `json:"width_mm"`
	HeightMM float64 `json:"height_mm"`
	OffsetX  float64 `json:"offset_x"`
	OffsetY  float64 `json:"offset_y"`
}

func (r Rect) bounds() (left, right, bottom, top float64) {
	hw, hh := r.WidthMM/2, r.HeightMM/2
	return r.OffsetX - hw, r.OffsetX + hw, r.OffsetY - hh, r.OffsetY + hh
}

func (r Rect) contains(x, y float64) bool {
	left, right, bottom, top := r.bounds()
	return x >= left && x <= right && y >= bottom && y <= top
}

// ScreenConfig describes one physical display surface and its optional
// active-area override and exclude zones. The screen and active area are
// in world mm; exclude zones are in screen-local mm, relative to the
// screen's centre.
type ScreenConfig struct {
	Name              string  `json:"name"`
	Screen            Rect    `json:"screen"`
	ActiveAreaEnabled bool    `json:"active_area_enabled"`
	ActiveArea        Rect    `json:"active_area"`
	ExcludeZones      []Rect  `json:"exclude_zones"` // screen-local mm rectangles; interior is never contained
}

// effectiveArea returns the active area when enabled and fully
// specified, otherwise the screen rectangle — exclude zones affect only
// containment, never which rectangle normalization is measured against.
func (s ScreenConfig) effectiveArea() Rect {
	if s.ActiveAreaEnabled && s.ActiveArea.WidthMM > 0 && s.ActiveArea.HeightMM > 0 {
		return s.ActiveArea
	}
	return s.Screen
}

// Mapper converts a sensor's polar/Cartesian readings into a particular
// screen's world and normalized coordinate spaces. One Mapper instance
// is meant to be held per (sensor, screen) pair and rebuilt whenever
// either configuration changes.
type Mapper struct {
	pose   Pose
	screen ScreenConfig
}

// NewMapper builds a Mapper for one (sensor, screen) pair.
func NewMapper(pose Pose, screen ScreenConfig) *Mapper {
	return &Mapper{pose: pose, screen: screen}
}

// ToWorld applies the sensor pose (rotation then translation) to a
// sensor-local Cartesian point, producing world-mm coordinates on the
// screen's plane.
func (m *Mapper) ToWorld(p Point) Point {
	rad := m.pose.ZRotationDeg * math.Pi / 180
	cos, sin := math.Cos(rad), math.Sin(rad)
	rx := p.X*cos - p.Y*sin
	ry := p.X*sin + p.Y*cos
	return Point{X: rx + m.pose.XOffsetMM, Y: ry + m.pose.YOffsetMM}
}

// Contains reports whether a world-mm point falls within the screen's
// effective area and outside every exclude zone. Idempotent: it never
// depends on the outcome of a prior call.
func (m *Mapper) Contains(world Point) bool {
	area := m.screen.effectiveArea()
	if !area.contains(world.X, world.Y) {
		return false
	}
	for _, zone := range m.screen.ExcludeZones {
		// zone offsets are screen-local mm, not world-absolute: shift
		// into world space by the screen's own offset before testing.
		worldZone := zone
		worldZone.OffsetX += m.screen.Screen.OffsetX
		worldZone.OffsetY += m.screen.Screen.OffsetY
		if worldZone.contains(world.X, world.Y) {
			return false
		}
	}
	return true
}

// Normalize maps a world-mm point into [0, 1] x [0, 1] over the screen's
// effective area, applying axis flips and clamping. A zero-width or
// zero-height area normalizes that axis to 0.5.
func (m *Mapper) Normalize(world Point) Point {
	area := m.screen.effectiveArea()
	left, _, bottom, _ := area.bounds()

	var nx, ny float64
	if area.WidthMM > 0 {
		nx = (world.X - left) / area.WidthMM
	} else {
		nx = 0.5
	}
	if area.HeightMM > 0 {
		ny = (world.Y - bottom) / area.HeightMM
	} else {
		ny = 0.5
	}

	if m.pose.XFlip {
		nx = 1 - nx
	}
	if m.pose.YFlip {
		ny = 1 - ny
	}

	return Point{X: clamp01(nx), Y: clamp01(ny)}
}

// Denormalize is the inverse of Normalize, used by round-trip tests.
func (m *Mapper) Denormalize(norm Point) Point {
	area := m.screen.effectiveArea()
	left, _, bottom, _ := area.bounds()

	nx, ny := norm.X, norm.Y
	if m.pose.XFlip {
		nx = 1 - nx
	}
	if m.pose.YFlip {
		ny = 1 - ny
	}

	return Point{X: left + nx*area.WidthMM, Y: bottom + ny*area.HeightMM}
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
