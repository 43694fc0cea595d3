// sensing turns probe positions into normalized sand-density readings.
package sensing

import (
	"math"

	"sandcar/config"
	"sandcar/models"
	"sandcar/sand"
	"sandcar/vehicle"
)

// OffField is the reading of a probe outside the field. It is the worst case,
// so the agent learns to treat the boundary as sand.
const OffField = 1.0

// Sensors reads the field around the car's probes.
type Sensors struct {
	field *sand.Field
	half  int
	norm  float64
}

// NewSensors normalizes readings by the window's cell count, (2*half)^2, so that a
// fully occupied window reads exactly 1.0.
func NewSensors(cfg config.SensingConfig, field *sand.Field) *Sensors {
	side := float64(2 * cfg.HalfWidth)
	return &Sensors{
		field: field,
		half:  cfg.HalfWidth,
		norm:  side * side,
	}
}

// Read returns one reading per probe, in probe order.
func (s *Sensors) Read(probes [vehicle.NumProbes]models.Vec2) (signals [vehicle.NumProbes]float64) {
	for i, probe := range probes {
		signals[i] = s.Signal(probe)
	}
	return
}

// Signal is the density around a single probe in [0,1], or OffField.
func (s *Sensors) Signal(probe models.Vec2) float64 {
	if !s.field.Contains(probe) {
		return OffField
	}
	x, y := int(math.Floor(probe.X)), int(math.Floor(probe.Y))
	return float64(s.field.Density(x, y, s.half)) / s.norm
}
