package protocol

import (
	"fmt"

	"google.golang.org/protobuf/encoding/protowire"

	"github.com/spaghettifunk/meshsync/engine/math"
	"github.com/spaghettifunk/meshsync/engine/scene"
)

func appendFloat(dst []float32, v float32) []float32 { return append(dst, v) }
func appendVec3(dst []float32, v math.Vec3) []float32 { return append(dst, v.X, v.Y, v.Z) }
func appendVec4(dst []float32, v math.Vec4) []float32 { return append(dst, v.X, v.Y, v.Z, v.W) }
func appendQuat(dst []float32, v math.Quaternion) []float32 {
	return append(dst, v.X, v.Y, v.Z, v.W)
}

func buildFloat(v []float32) float32 { return v[0] }
func buildVec3(v []float32) math.Vec3 { return math.NewVec3(v[0], v[1], v[2]) }
func buildVec4(v []float32) math.Vec4 { return math.NewVec4(v[0], v[1], v[2], v[3]) }
func buildQuat(v []float32) math.Quaternion {
	return math.Quaternion{X: v[0], Y: v[1], Z: v[2], W: v[3]}
}

// encodeCurve writes times and flattened values as two packed arrays.
func encodeCurve[T any](e *encoder, num protowire.Number, c scene.Curve[T], flatten func([]float32, T) []float32) {
	if len(c) == 0 {
		return
	}
	times := make([]float32, len(c))
	var values []float32
	for i, k := range c {
		times[i] = k.Time
		values = flatten(values, k.Value)
	}
	ce := newEncoder()
	ce.EncodeFloats(1, times)
	ce.EncodeFloats(2, values)
	e.EncodeSubmessage(num, ce)
}

func decodeCurve[T any](data []byte, width int, build func([]float32) T) (scene.Curve[T], error) {
	var times, values []float32
	d := newDecoder(data)
	for !d.Done() {
		num, typ, err := d.ReadTag()
		if err != nil {
			return nil, err
		}
		switch num {
		case 1:
			times, err = d.ReadFloats()
		case 2:
			values, err = d.ReadFloats()
		default:
			err = d.SkipField(num, typ)
		}
		if err != nil {
			return nil, err
		}
	}
	if len(values) != width*len(times) {
		return nil, fmt.Errorf("curve has %d times and %d values of width %d", len(times), len(values), width)
	}
	c := make(scene.Curve[T], len(times))
	for i, t := range times {
		c[i] = scene.Keyframe[T]{Time: t, Value: build(values[i*width : (i+1)*width])}
	}
	return c, nil
}

func encodeClip(clip *scene.AnimationClip) *encoder {
	e := newEncoder()
	e.EncodeString(1, clip.Name)
	for _, a := range clip.Animations {
		e.EncodeSubmessage(2, encodeAnimation(a))
	}
	return e
}

func transformAnimation(a scene.Animation) *scene.TransformAnimation {
	switch v := a.(type) {
	case *scene.TransformAnimation:
		return v
	case *scene.MeshAnimation:
		return &v.TransformAnimation
	case *scene.CameraAnimation:
		return &v.TransformAnimation
	case *scene.LightAnimation:
		return &v.TransformAnimation
	}
	return nil
}

func encodeAnimation(a scene.Animation) *encoder {
	e := newEncoder()
	e.EncodeVarint(1, uint64(a.Kind()))
	e.EncodeString(2, a.TargetPath())
	if t := transformAnimation(a); t != nil {
		encodeCurve(e, 3, t.Translation, appendVec3)
		encodeCurve(e, 4, t.Rotation, appendQuat)
		encodeCurve(e, 5, t.Scale, appendVec3)
	}
	switch v := a.(type) {
	case *scene.CameraAnimation:
		encodeCurve(e, 6, v.Fov, appendFloat)
	case *scene.LightAnimation:
		encodeCurve(e, 7, v.Color, appendVec4)
		encodeCurve(e, 8, v.Intensity, appendFloat)
	}
	return e
}

func decodeClip(data []byte) (*scene.AnimationClip, error) {
	clip := &scene.AnimationClip{}
	d := newDecoder(data)
	for !d.Done() {
		num, typ, err := d.ReadTag()
		if err != nil {
			return nil, err
		}
		switch num {
		case 1:
			clip.Name, err = d.ReadString()
		case 2:
			var sub []byte
			var a scene.Animation
			if sub, err = d.ReadBytes(); err == nil {
				if a, err = decodeAnimation(sub); err == nil {
					clip.Add(a)
				}
			}
		default:
			err = d.SkipField(num, typ)
		}
		if err != nil {
			return nil, err
		}
	}
	return clip, nil
}

type animationParts struct {
	kind      scene.Kind
	base      scene.TransformAnimation
	fov       scene.Curve[float32]
	color     scene.Curve[math.Vec4]
	intensity scene.Curve[float32]
}

func decodeAnimation(data []byte) (scene.Animation, error) {
	p := animationParts{}
	d := newDecoder(data)
	for !d.Done() {
		num, typ, err := d.ReadTag()
		if err != nil {
			return nil, err
		}
		if num < 3 || num > 8 {
			switch num {
			case 1:
				var v uint64
				v, err = d.ReadVarint()
				p.kind = scene.Kind(v)
			case 2:
				p.base.Path, err = d.ReadString()
			default:
				err = d.SkipField(num, typ)
			}
			if err != nil {
				return nil, err
			}
			continue
		}

		sub, err := d.ReadBytes()
		if err != nil {
			return nil, err
		}
		switch num {
		case 3:
			p.base.Translation, err = decodeCurve(sub, 3, buildVec3)
		case 4:
			p.base.Rotation, err = decodeCurve(sub, 4, buildQuat)
		case 5:
			p.base.Scale, err = decodeCurve(sub, 3, buildVec3)
		case 6:
			p.fov, err = decodeCurve(sub, 1, buildFloat)
		case 7:
			p.color, err = decodeCurve(sub, 4, buildVec4)
		case 8:
			p.intensity, err = decodeCurve(sub, 1, buildFloat)
		}
		if err != nil {
			return nil, err
		}
	}

	switch p.kind {
	case scene.KindTransform:
		a := p.base
		return &a, nil
	case scene.KindMesh:
		return &scene.MeshAnimation{TransformAnimation: p.base}, nil
	case scene.KindCamera:
		return &scene.CameraAnimation{TransformAnimation: p.base, Fov: p.fov}, nil
	case scene.KindLight:
		return &scene.LightAnimation{TransformAnimation: p.base, Color: p.color, Intensity: p.intensity}, nil
	}
	return nil, fmt.Errorf("animation %q has unknown kind %d", p.base.Path, p.kind)
}
