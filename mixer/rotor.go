package mixer

// Rotor holds the effectiveness scales of a single actuator: how strongly a
// unit of demand on each axis moves this actuator's command.
type Rotor struct {
	RollScale   float64
	PitchScale  float64
	YawScale    float64
	ThrustScale float64
}

// Geometry is an ordered set of rotors. The slice index is the actuator
// slot, so outputs[i] is the command for geometry[i].
type Geometry []Rotor

// axis identifies one column of the geometry for desaturation passes.
type axis int

const (
	axisRoll axis = iota
	axisPitch
	axisYaw
	axisThrust
)

// scales copies the given axis column into dst, which the desaturation
// passes use as the trade direction.
func (g Geometry) scales(a axis, dst []float64) {
	for i, r := range g {
		switch a {
		case axisRoll:
			dst[i] = r.RollScale
		case axisPitch:
			dst[i] = r.PitchScale
		case axisYaw:
			dst[i] = r.YawScale
		case axisThrust:
			dst[i] = r.ThrustScale
		}
	}
}
