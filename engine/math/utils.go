package math

import (
	stdmath "math"

	"github.com/go-gl/mathgl/mgl32"
	"golang.org/x/exp/constraints"
)

const K_PI float32 = stdmath.Pi

// Clamp returns f clamped to [low, high], for any ordered type.
func Clamp[T constraints.Ordered](f, low, high T) T {
	if f < low {
		return low
	}
	if f > high {
		return high
	}
	return f
}

func DegToRad(degrees float32) float32 {
	return mgl32.DegToRad(degrees)
}

func RadToDeg(radians float32) float32 {
	return mgl32.RadToDeg(radians)
}
