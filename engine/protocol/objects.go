package protocol

import (
	"fmt"

	"github.com/spaghettifunk/meshsync/engine/scene"
)

func encodeObject(o scene.Object) *encoder {
	e := newEncoder()
	h := o.Header()
	e.EncodeVarint(1, uint64(o.Kind()))
	e.EncodeString(2, h.Path)
	e.EncodeInt32(3, h.Index)
	e.EncodeVec3(4, h.Position)
	e.EncodeQuat(5, h.Rotation)
	e.EncodeVec3(6, h.Scale)
	e.EncodeBool(7, h.Visible)

	switch v := o.(type) {
	case *scene.Camera:
		ce := newEncoder()
		ce.EncodeFloat(1, v.Fov)
		ce.EncodeFloat(2, v.NearPlane)
		ce.EncodeFloat(3, v.FarPlane)
		e.EncodeSubmessage(8, ce)
	case *scene.Light:
		le := newEncoder()
		le.EncodeVarint(1, uint64(v.Type))
		le.EncodeVec4(2, v.Color)
		le.EncodeFloat(3, v.Intensity)
		le.EncodeFloat(4, v.Range)
		le.EncodeFloat(5, v.SpotAngle)
		e.EncodeSubmessage(9, le)
	case *scene.Mesh:
		e.EncodeSubmessage(10, encodeMesh(v))
	}
	return e
}

func encodeMesh(m *scene.Mesh) *encoder {
	e := newEncoder()
	e.EncodeVarint(1, uint64(m.Flags))
	e.EncodeBool(2, m.Refine.SwapFaces)
	e.EncodeBool(3, m.Refine.GenNormals)
	e.EncodeFloats(4, flattenVec3(m.Points))
	e.EncodeFloats(5, flattenVec3(m.Normals))
	e.EncodeFloats(6, flattenVec2(m.UVs))
	e.EncodeFloats(7, flattenVec4(m.Colors))
	e.EncodeInt32s(8, m.Counts)
	e.EncodeInt32s(9, m.Indices)
	e.EncodeInt32s(10, m.MaterialIDs)
	return e
}

// objectParts collects fields in any order; the object is built once the kind is known.
type objectParts struct {
	kind   scene.Kind
	header scene.Transform
	camera *scene.Camera
	light  *scene.Light
	mesh   *scene.Mesh
}

func decodeObject(data []byte) (scene.Object, error) {
	p := objectParts{}
	d := newDecoder(data)
	for !d.Done() {
		num, typ, err := d.ReadTag()
		if err != nil {
			return nil, err
		}
		switch num {
		case 1:
			var v uint64
			v, err = d.ReadVarint()
			p.kind = scene.Kind(v)
		case 2:
			p.header.Path, err = d.ReadString()
		case 3:
			p.header.Index, err = d.ReadInt32()
		case 4:
			p.header.Position, err = d.ReadVec3()
		case 5:
			p.header.Rotation, err = d.ReadQuat()
		case 6:
			p.header.Scale, err = d.ReadVec3()
		case 7:
			p.header.Visible, err = d.ReadBool()
		case 8:
			var sub []byte
			if sub, err = d.ReadBytes(); err == nil {
				p.camera, err = decodeCamera(sub)
			}
		case 9:
			var sub []byte
			if sub, err = d.ReadBytes(); err == nil {
				p.light, err = decodeLight(sub)
			}
		case 10:
			var sub []byte
			if sub, err = d.ReadBytes(); err == nil {
				p.mesh, err = decodeMesh(sub)
			}
		default:
			err = d.SkipField(num, typ)
		}
		if err != nil {
			return nil, err
		}
	}

	switch p.kind {
	case scene.KindTransform:
		t := p.header
		return &t, nil
	case scene.KindCamera:
		if p.camera == nil {
			p.camera = &scene.Camera{}
		}
		p.camera.Transform = p.header
		return p.camera, nil
	case scene.KindLight:
		if p.light == nil {
			p.light = &scene.Light{}
		}
		p.light.Transform = p.header
		return p.light, nil
	case scene.KindMesh:
		if p.mesh == nil {
			p.mesh = &scene.Mesh{}
		}
		p.mesh.Transform = p.header
		return p.mesh, nil
	}
	return nil, fmt.Errorf("object %q has unknown kind %d", p.header.Path, p.kind)
}

func decodeCamera(data []byte) (*scene.Camera, error) {
	c := &scene.Camera{}
	d := newDecoder(data)
	for !d.Done() {
		num, typ, err := d.ReadTag()
		if err != nil {
			return nil, err
		}
		switch num {
		case 1:
			c.Fov, err = d.ReadFloat()
		case 2:
			c.NearPlane, err = d.ReadFloat()
		case 3:
			c.FarPlane, err = d.ReadFloat()
		default:
			err = d.SkipField(num, typ)
		}
		if err != nil {
			return nil, err
		}
	}
	return c, nil
}

func decodeLight(data []byte) (*scene.Light, error) {
	l := &scene.Light{}
	d := newDecoder(data)
	for !d.Done() {
		num, typ, err := d.ReadTag()
		if err != nil {
			return nil, err
		}
		switch num {
		case 1:
			var v uint64
			v, err = d.ReadVarint()
			l.Type = scene.LightType(v)
		case 2:
			l.Color, err = d.ReadVec4()
		case 3:
			l.Intensity, err = d.ReadFloat()
		case 4:
			l.Range, err = d.ReadFloat()
		case 5:
			l.SpotAngle, err = d.ReadFloat()
		default:
			err = d.SkipField(num, typ)
		}
		if err != nil {
			return nil, err
		}
	}
	return l, nil
}

func decodeMesh(data []byte) (*scene.Mesh, error) {
	m := &scene.Mesh{}
	d := newDecoder(data)
	for !d.Done() {
		num, typ, err := d.ReadTag()
		if err != nil {
			return nil, err
		}
		var f []float32
		switch num {
		case 1:
			var v uint64
			v, err = d.ReadVarint()
			m.Flags = scene.MeshFlags(v)
		case 2:
			m.Refine.SwapFaces, err = d.ReadBool()
		case 3:
			m.Refine.GenNormals, err = d.ReadBool()
		case 4:
			if f, err = d.ReadFloats(); err == nil {
				m.Points, err = unflattenVec3(f)
			}
		case 5:
			if f, err = d.ReadFloats(); err == nil {
				m.Normals, err = unflattenVec3(f)
			}
		case 6:
			if f, err = d.ReadFloats(); err == nil {
				m.UVs, err = unflattenVec2(f)
			}
		case 7:
			if f, err = d.ReadFloats(); err == nil {
				m.Colors, err = unflattenVec4(f)
			}
		case 8:
			m.Counts, err = d.ReadInt32s()
		case 9:
			m.Indices, err = d.ReadInt32s()
		case 10:
			m.MaterialIDs, err = d.ReadInt32s()
		default:
			err = d.SkipField(num, typ)
		}
		if err != nil {
			return nil, err
		}
	}
	return m, nil
}
