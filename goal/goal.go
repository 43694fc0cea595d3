// goal tracks the active target and flips it to its mirror corner on arrival.
package goal

import (
	"sandcar/config"
	"sandcar/models"
)

// Manager holds exactly one active target. The alternate target is always the
// active one mirrored through the field center, (width-x, height-y).
type Manager struct {
	radius        float64
	width, height float64
	target        models.Vec2
	flips         int
}

// NewManager starts on the low corner, inset from both edges.
func NewManager(cfg config.GoalConfig, field config.FieldConfig) *Manager {
	return &Manager{
		radius: cfg.ArrivalRadius,
		width:  float64(field.Width),
		height: float64(field.Height),
		target: models.Vec2{X: cfg.Inset, Y: cfg.Inset},
	}
}

func (m *Manager) Target() models.Vec2 {
	return m.target
}

// Distance from p to the active target.
func (m *Manager) Distance(p models.Vec2) float64 {
	return p.Dist(m.target)
}

// Arrive flips the target when distance is strictly inside the arrival radius,
// and reports whether it did. The caller re-arms its elapsed-time clock on a flip.
func (m *Manager) Arrive(distance float64) bool {
	if distance >= m.radius {
		return false
	}
	m.target = models.Vec2{X: m.width - m.target.X, Y: m.height - m.target.Y}
	m.flips++
	return true
}

// Flips is the number of arrivals so far.
func (m *Manager) Flips() int {
	return m.flips
}
