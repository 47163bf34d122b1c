package protocol

import (
	"errors"
	"fmt"

	"github.com/spaghettifunk/meshsync/engine/scene"
)

var ErrMalformed = errors.New("malformed message")

// Encode serializes m in protobuf wire format.
func Encode(m *Message) []byte {
	e := newEncoder()
	e.EncodeVarint(1, uint64(m.Type))
	if m.Session != "" {
		e.EncodeString(2, m.Session)
	}
	e.EncodeVarint(3, m.Revision)
	switch m.Type {
	case MessageFence:
		e.EncodeVarint(4, uint64(m.Fence))
	case MessageDelete:
		for _, t := range m.Targets {
			te := newEncoder()
			te.EncodeString(1, t.Path)
			te.EncodeInt32(2, t.ID)
			e.EncodeSubmessage(5, te)
		}
	case MessageSet:
		if m.Scene != nil {
			e.EncodeSubmessage(6, encodeScene(m.Scene))
		}
	}
	return e.Bytes()
}

// Decode parses a message produced by Encode. Unknown fields are skipped.
func Decode(data []byte) (*Message, error) {
	m := &Message{}
	d := newDecoder(data)
	for !d.Done() {
		num, typ, err := d.ReadTag()
		if err != nil {
			return nil, wrap(err)
		}
		switch num {
		case 1:
			v, err := d.ReadVarint()
			if err != nil {
				return nil, wrap(err)
			}
			m.Type = MessageType(v)
		case 2:
			if m.Session, err = d.ReadString(); err != nil {
				return nil, wrap(err)
			}
		case 3:
			if m.Revision, err = d.ReadVarint(); err != nil {
				return nil, wrap(err)
			}
		case 4:
			v, err := d.ReadVarint()
			if err != nil {
				return nil, wrap(err)
			}
			m.Fence = FenceType(v)
		case 5:
			sub, err := d.ReadBytes()
			if err != nil {
				return nil, wrap(err)
			}
			t, err := decodeTarget(sub)
			if err != nil {
				return nil, wrap(err)
			}
			m.Targets = append(m.Targets, t)
		case 6:
			sub, err := d.ReadBytes()
			if err != nil {
				return nil, wrap(err)
			}
			if m.Scene, err = decodeScene(sub); err != nil {
				return nil, wrap(err)
			}
		default:
			if err := d.SkipField(num, typ); err != nil {
				return nil, wrap(err)
			}
		}
	}
	if m.Type < MessageFence || m.Type > MessageSet {
		return nil, fmt.Errorf("message type %d: %w", m.Type, ErrMalformed)
	}
	return m, nil
}

func wrap(err error) error {
	return fmt.Errorf("%w: %v", ErrMalformed, err)
}

func EncodeResponse(r *Response) []byte {
	e := newEncoder()
	e.EncodeBool(1, r.OK)
	if r.Error != "" {
		e.EncodeString(2, r.Error)
	}
	return e.Bytes()
}

func DecodeResponse(data []byte) (*Response, error) {
	r := &Response{}
	d := newDecoder(data)
	for !d.Done() {
		num, typ, err := d.ReadTag()
		if err != nil {
			return nil, wrap(err)
		}
		switch num {
		case 1:
			if r.OK, err = d.ReadBool(); err != nil {
				return nil, wrap(err)
			}
		case 2:
			if r.Error, err = d.ReadString(); err != nil {
				return nil, wrap(err)
			}
		default:
			if err := d.SkipField(num, typ); err != nil {
				return nil, wrap(err)
			}
		}
	}
	return r, nil
}

func decodeTarget(data []byte) (DeleteTarget, error) {
	var t DeleteTarget
	d := newDecoder(data)
	for !d.Done() {
		num, typ, err := d.ReadTag()
		if err != nil {
			return t, err
		}
		switch num {
		case 1:
			t.Path, err = d.ReadString()
		case 2:
			t.ID, err = d.ReadInt32()
		default:
			err = d.SkipField(num, typ)
		}
		if err != nil {
			return t, err
		}
	}
	return t, nil
}

func encodeScene(s *Scene) *encoder {
	e := newEncoder()

	se := newEncoder()
	se.EncodeVarint(1, uint64(s.Settings.Handedness))
	se.EncodeFloat(2, s.Settings.ScaleFactor)
	e.EncodeSubmessage(1, se)

	for _, o := range s.Objects {
		e.EncodeSubmessage(2, encodeObject(o))
	}
	for _, mat := range s.Materials {
		me := newEncoder()
		me.EncodeInt32(1, mat.ID)
		me.EncodeString(2, mat.Name)
		me.EncodeVec4(3, mat.Color)
		e.EncodeSubmessage(3, me)
	}
	for _, clip := range s.Animations {
		e.EncodeSubmessage(4, encodeClip(clip))
	}
	for _, c := range s.Constraints {
		ce := newEncoder()
		ce.EncodeVarint(1, uint64(c.Kind))
		ce.EncodeString(2, c.Path)
		for _, src := range c.Sources {
			ce.EncodeString(3, src)
		}
		e.EncodeSubmessage(5, ce)
	}
	return e
}

func decodeScene(data []byte) (*Scene, error) {
	s := &Scene{}
	d := newDecoder(data)
	for !d.Done() {
		num, typ, err := d.ReadTag()
		if err != nil {
			return nil, err
		}
		if num < 1 || num > 5 {
			if err := d.SkipField(num, typ); err != nil {
				return nil, err
			}
			continue
		}
		sub, err := d.ReadBytes()
		if err != nil {
			return nil, err
		}
		switch num {
		case 1:
			err = decodeSettings(sub, &s.Settings)
		case 2:
			var o scene.Object
			if o, err = decodeObject(sub); err == nil {
				s.Objects = append(s.Objects, o)
			}
		case 3:
			var mat *scene.Material
			if mat, err = decodeMaterial(sub); err == nil {
				s.Materials = append(s.Materials, mat)
			}
		case 4:
			var clip *scene.AnimationClip
			if clip, err = decodeClip(sub); err == nil {
				s.Animations = append(s.Animations, clip)
			}
		case 5:
			var c *scene.Constraint
			if c, err = decodeConstraint(sub); err == nil {
				s.Constraints = append(s.Constraints, c)
			}
		}
		if err != nil {
			return nil, err
		}
	}
	return s, nil
}

func decodeSettings(data []byte, s *scene.Settings) error {
	d := newDecoder(data)
	for !d.Done() {
		num, typ, err := d.ReadTag()
		if err != nil {
			return err
		}
		switch num {
		case 1:
			var v uint64
			v, err = d.ReadVarint()
			s.Handedness = scene.Handedness(v)
		case 2:
			s.ScaleFactor, err = d.ReadFloat()
		default:
			err = d.SkipField(num, typ)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

func decodeMaterial(data []byte) (*scene.Material, error) {
	mat := &scene.Material{}
	d := newDecoder(data)
	for !d.Done() {
		num, typ, err := d.ReadTag()
		if err != nil {
			return nil, err
		}
		switch num {
		case 1:
			mat.ID, err = d.ReadInt32()
		case 2:
			mat.Name, err = d.ReadString()
		case 3:
			mat.Color, err = d.ReadVec4()
		default:
			err = d.SkipField(num, typ)
		}
		if err != nil {
			return nil, err
		}
	}
	return mat, nil
}

func decodeConstraint(data []byte) (*scene.Constraint, error) {
	c := &scene.Constraint{}
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
			c.Kind = scene.ConstraintKind(v)
		case 2:
			c.Path, err = d.ReadString()
		case 3:
			var src string
			src, err = d.ReadString()
			c.Sources = append(c.Sources, src)
		default:
			err = d.SkipField(num, typ)
		}
		if err != nil {
			return nil, err
		}
	}
	return c, nil
}
