package scene

import "github.com/spaghettifunk/meshsync/engine/math"

type Keyframe[T any] struct {
	/** @brief Seconds, already multiplied by the time scale. */
	Time  float32
	Value T
}

// Curve is a time ordered list of samples for one property.
type Curve[T any] []Keyframe[T]

func (c *Curve[T]) Append(time float32, value T) {
	*c = append(*c, Keyframe[T]{Time: time, Value: value})
}

/**
 * @brief Drops every interior keyframe that the reduced curve still predicts
 * within tolerance. A segment from the last kept keyframe is only extended
 * when every sample it spans lies on its line, so no dropped keyframe drifts
 * further than tolerance from the result. The first keyframe is always kept,
 * as is the last one unless the whole curve is constant, in which case a
 * single keyframe remains.
 *
 * @param lerp Interpolates between two values, t in [0, 1].
 * @param near Reports whether two values are equal within tolerance.
 */
func (c Curve[T]) Reduce(lerp func(a, b T, t float32) T, near func(a, b T) bool) Curve[T] {
	if len(c) < 2 {
		return c
	}

	constant := true
	for i := 1; i < len(c); i++ {
		if !near(c[0].Value, c[i].Value) {
			constant = false
			break
		}
	}
	if constant {
		return c[:1:1]
	}

	out := make(Curve[T], 0, len(c))
	out = append(out, c[0])
	anchor := 0
	for i := 1; i < len(c)-1; i++ {
		if c.spans(anchor, i+1, lerp, near) {
			continue
		}
		out = append(out, c[i])
		anchor = i
	}
	return append(out, c[len(c)-1])
}

// spans reports whether the line from c[from] to c[to] predicts every
// keyframe strictly between them.
func (c Curve[T]) spans(from, to int, lerp func(a, b T, t float32) T, near func(a, b T) bool) bool {
	a, b := c[from], c[to]
	span := b.Time - a.Time
	if span <= 0 {
		return false
	}
	for k := from + 1; k < to; k++ {
		t := (c[k].Time - a.Time) / span
		if !near(lerp(a.Value, b.Value, t), c[k].Value) {
			return false
		}
	}
	return true
}

// Animated reports whether a reduced curve still carries motion.
func (c Curve[T]) Animated() bool {
	return len(c) >= 2
}

func lerpFloat(a, b, t float32) float32 {
	return a + (b-a)*t
}

func lerpVec3(a, b math.Vec3, t float32) math.Vec3 {
	return a.Lerp(b, t)
}

func lerpVec4(a, b math.Vec4, t float32) math.Vec4 {
	return a.Lerp(b, t)
}

func slerp(a, b math.Quaternion, t float32) math.Quaternion {
	return a.Slerp(b, t)
}

func reduceFloat(c Curve[float32], tolerance float32) Curve[float32] {
	return c.Reduce(lerpFloat, func(a, b float32) bool {
		d := a - b
		return d <= tolerance && -d <= tolerance
	})
}

func reduceVec3(c Curve[math.Vec3], tolerance float32) Curve[math.Vec3] {
	return c.Reduce(lerpVec3, func(a, b math.Vec3) bool { return a.Compare(b, tolerance) })
}

func reduceVec4(c Curve[math.Vec4], tolerance float32) Curve[math.Vec4] {
	return c.Reduce(lerpVec4, func(a, b math.Vec4) bool { return a.Compare(b, tolerance) })
}

func reduceQuat(c Curve[math.Quaternion], tolerance float32) Curve[math.Quaternion] {
	return c.Reduce(slerp, func(a, b math.Quaternion) bool { return a.Compare(b, tolerance) })
}

// keep clears a curve that no longer carries motion.
func keep[T any](c Curve[T]) Curve[T] {
	if c.Animated() {
		return c
	}
	return nil
}

/** @brief Per entity animation data. One implementation per object kind. */
type Animation interface {
	Kind() Kind
	TargetPath() string
	// Reduce applies keyframe reduction and clears curves left without motion.
	Reduce(tolerance float32)
	Empty() bool
}

type TransformAnimation struct {
	Path        string
	Translation Curve[math.Vec3]
	Rotation    Curve[math.Quaternion]
	Scale       Curve[math.Vec3]
}

func NewTransformAnimation(path string) *TransformAnimation {
	return &TransformAnimation{Path: path}
}

func (a *TransformAnimation) Kind() Kind         { return KindTransform }
func (a *TransformAnimation) TargetPath() string { return a.Path }

func (a *TransformAnimation) Reduce(tolerance float32) {
	a.Translation = keep(reduceVec3(a.Translation, tolerance))
	a.Rotation = keep(reduceQuat(a.Rotation, tolerance))
	a.Scale = keep(reduceVec3(a.Scale, tolerance))
}

func (a *TransformAnimation) Empty() bool {
	return len(a.Translation) == 0 && len(a.Rotation) == 0 && len(a.Scale) == 0
}

// Sample appends one local transform sample at time.
func (a *TransformAnimation) Sample(time float32, t *math.Transform) {
	a.Translation.Append(time, t.Position)
	a.Rotation.Append(time, t.Rotation)
	a.Scale.Append(time, t.Scale)
}

type CameraAnimation struct {
	TransformAnimation
	Fov Curve[float32]
}

func NewCameraAnimation(path string) *CameraAnimation {
	return &CameraAnimation{TransformAnimation: TransformAnimation{Path: path}}
}

func (a *CameraAnimation) Kind() Kind { return KindCamera }

func (a *CameraAnimation) Reduce(tolerance float32) {
	a.TransformAnimation.Reduce(tolerance)
	a.Fov = keep(reduceFloat(a.Fov, tolerance))
}

func (a *CameraAnimation) Empty() bool {
	return a.TransformAnimation.Empty() && len(a.Fov) == 0
}

type LightAnimation struct {
	TransformAnimation
	Color     Curve[math.Vec4]
	Intensity Curve[float32]
}

func NewLightAnimation(path string) *LightAnimation {
	return &LightAnimation{TransformAnimation: TransformAnimation{Path: path}}
}

func (a *LightAnimation) Kind() Kind { return KindLight }

func (a *LightAnimation) Reduce(tolerance float32) {
	a.TransformAnimation.Reduce(tolerance)
	a.Color = keep(reduceVec4(a.Color, tolerance))
	a.Intensity = keep(reduceFloat(a.Intensity, tolerance))
}

func (a *LightAnimation) Empty() bool {
	return a.TransformAnimation.Empty() && len(a.Color) == 0 && len(a.Intensity) == 0
}

// MeshAnimation animates the transform of a mesh. Deformation is sent as mesh data.
type MeshAnimation struct {
	TransformAnimation
}

func NewMeshAnimation(path string) *MeshAnimation {
	return &MeshAnimation{TransformAnimation: TransformAnimation{Path: path}}
}

func (a *MeshAnimation) Kind() Kind { return KindMesh }

type AnimationClip struct {
	Name       string
	Animations []Animation
}

func NewAnimationClip(name string) *AnimationClip {
	return &AnimationClip{Name: name}
}

func (c *AnimationClip) Add(a Animation) {
	c.Animations = append(c.Animations, a)
}

// Reduce reduces every animation and drops the ones left empty.
func (c *AnimationClip) Reduce(tolerance float32) {
	kept := c.Animations[:0]
	for _, a := range c.Animations {
		a.Reduce(tolerance)
		if !a.Empty() {
			kept = append(kept, a)
		}
	}
	for i := len(kept); i < len(c.Animations); i++ {
		c.Animations[i] = nil
	}
	c.Animations = kept
}

func (c *AnimationClip) Empty() bool {
	return len(c.Animations) == 0
}
