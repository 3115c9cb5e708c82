package gridsync

import "math"

type Vector3F struct {
	X float32
	Y float32
	Z float32
}

func (a Vector3F) DistanceTo(b Vector3F) float64 {
	x := math.Pow(float64(b.X-a.X), 2)
	y := math.Pow(float64(b.Y-a.Y), 2)
	z := math.Pow(float64(b.Z-a.Z), 2)

	return math.Sqrt(x + y + z)
}

func (a Vector3F) Add(b Vector3F) Vector3F {
	return Vector3F{X: a.X + b.X, Y: a.Y + b.Y, Z: a.Z + b.Z}
}

func (a Vector3F) Scale(s float32) Vector3F {
	return Vector3F{X: a.X * s, Y: a.Y * s, Z: a.Z * s}
}

func lerp(a, b, t float32) float32 {
	return a + (b-a)*t
}

func lerpVector(a, b Vector3F, t float32) Vector3F {
	return Vector3F{
		X: lerp(a.X, b.X, t),
		Y: lerp(a.Y, b.Y, t),
		Z: lerp(a.Z, b.Z, t),
	}
}

// wrapAngle maps an angle in degrees to (-180, 180].
func wrapAngle(deg float32) float32 {
	wrapped := math.Mod(float64(deg)+180, 360)

	if wrapped <= 0 {
		wrapped += 360
	}

	return float32(wrapped - 180)
}

// lerpAngle interpolates between two angles in degrees along the shortest arc.
func lerpAngle(a, b, t float32) float32 {
	return wrapAngle(a + wrapAngle(b-a)*t)
}

func lerpRotation(a, b Vector3F, t float32) Vector3F {
	return Vector3F{
		X: lerpAngle(a.X, b.X, t),
		Y: lerpAngle(a.Y, b.Y, t),
		Z: lerpAngle(a.Z, b.Z, t),
	}
}

// angleDistance returns the absolute shortest-arc difference between two
// angles in degrees.
func angleDistance(a, b float32) float64 {
	return math.Abs(float64(wrapAngle(b - a)))
}
