package protocol

import (
	"fmt"
	stdmath "math"

	"google.golang.org/protobuf/encoding/protowire"

	"github.com/spaghettifunk/meshsync/engine/math"
)

// encoder appends protobuf wire format fields to a buffer.
type encoder struct {
	buf []byte
}

func newEncoder() *encoder {
	return &encoder{}
}

func (e *encoder) Bytes() []byte {
	return e.buf
}

func (e *encoder) EncodeVarint(num protowire.Number, v uint64) {
	e.buf = protowire.AppendTag(e.buf, num, protowire.VarintType)
	e.buf = protowire.AppendVarint(e.buf, v)
}

func (e *encoder) EncodeInt32(num protowire.Number, v int32) {
	e.EncodeVarint(num, protowire.EncodeZigZag(int64(v)))
}

func (e *encoder) EncodeBool(num protowire.Number, v bool) {
	e.EncodeVarint(num, protowire.EncodeBool(v))
}

func (e *encoder) EncodeFloat(num protowire.Number, v float32) {
	e.buf = protowire.AppendTag(e.buf, num, protowire.Fixed32Type)
	e.buf = protowire.AppendFixed32(e.buf, stdmath.Float32bits(v))
}

func (e *encoder) EncodeString(num protowire.Number, v string) {
	e.buf = protowire.AppendTag(e.buf, num, protowire.BytesType)
	e.buf = protowire.AppendString(e.buf, v)
}

func (e *encoder) EncodeBytes(num protowire.Number, v []byte) {
	e.buf = protowire.AppendTag(e.buf, num, protowire.BytesType)
	e.buf = protowire.AppendBytes(e.buf, v)
}

func (e *encoder) EncodeSubmessage(num protowire.Number, sub *encoder) {
	e.EncodeBytes(num, sub.buf)
}

// floats writes a packed repeated float field. Empty slices are omitted.
func (e *encoder) EncodeFloats(num protowire.Number, v []float32) {
	if len(v) == 0 {
		return
	}
	packed := make([]byte, 0, 4*len(v))
	for _, f := range v {
		packed = protowire.AppendFixed32(packed, stdmath.Float32bits(f))
	}
	e.EncodeBytes(num, packed)
}

// int32s writes a packed repeated zigzag field. Empty slices are omitted.
func (e *encoder) EncodeInt32s(num protowire.Number, v []int32) {
	if len(v) == 0 {
		return
	}
	var packed []byte
	for _, i := range v {
		packed = protowire.AppendVarint(packed, protowire.EncodeZigZag(int64(i)))
	}
	e.EncodeBytes(num, packed)
}

func (e *encoder) EncodeVec3(num protowire.Number, v math.Vec3) {
	e.EncodeFloats(num, []float32{v.X, v.Y, v.Z})
}

func (e *encoder) EncodeVec4(num protowire.Number, v math.Vec4) {
	e.EncodeFloats(num, []float32{v.X, v.Y, v.Z, v.W})
}

func (e *encoder) EncodeQuat(num protowire.Number, q math.Quaternion) {
	e.EncodeFloats(num, []float32{q.X, q.Y, q.Z, q.W})
}

// decoder walks the fields of one message.
type decoder struct {
	buf []byte
}

func newDecoder(b []byte) *decoder {
	return &decoder{buf: b}
}

func (d *decoder) Done() bool {
	return len(d.buf) == 0
}

func (d *decoder) ReadTag() (protowire.Number, protowire.Type, error) {
	num, typ, n := protowire.ConsumeTag(d.buf)
	if n < 0 {
		return 0, 0, protowire.ParseError(n)
	}
	d.buf = d.buf[n:]
	return num, typ, nil
}

func (d *decoder) ReadVarint() (uint64, error) {
	v, n := protowire.ConsumeVarint(d.buf)
	if n < 0 {
		return 0, protowire.ParseError(n)
	}
	d.buf = d.buf[n:]
	return v, nil
}

func (d *decoder) ReadInt32() (int32, error) {
	v, err := d.ReadVarint()
	return int32(protowire.DecodeZigZag(v)), err
}

func (d *decoder) ReadBool() (bool, error) {
	v, err := d.ReadVarint()
	return protowire.DecodeBool(v), err
}

func (d *decoder) ReadFloat() (float32, error) {
	v, n := protowire.ConsumeFixed32(d.buf)
	if n < 0 {
		return 0, protowire.ParseError(n)
	}
	d.buf = d.buf[n:]
	return stdmath.Float32frombits(v), nil
}

func (d *decoder) ReadBytes() ([]byte, error) {
	v, n := protowire.ConsumeBytes(d.buf)
	if n < 0 {
		return nil, protowire.ParseError(n)
	}
	d.buf = d.buf[n:]
	return v, nil
}

func (d *decoder) ReadString() (string, error) {
	v, err := d.ReadBytes()
	return string(v), err
}

func (d *decoder) SkipField(num protowire.Number, typ protowire.Type) error {
	n := protowire.ConsumeFieldValue(num, typ, d.buf)
	if n < 0 {
		return protowire.ParseError(n)
	}
	d.buf = d.buf[n:]
	return nil
}

func (d *decoder) ReadFloats() ([]float32, error) {
	packed, err := d.ReadBytes()
	if err != nil {
		return nil, err
	}
	if len(packed)%4 != 0 {
		return nil, fmt.Errorf("packed floats: %d bytes", len(packed))
	}
	out := make([]float32, 0, len(packed)/4)
	for len(packed) > 0 {
		v, n := protowire.ConsumeFixed32(packed)
		if n < 0 {
			return nil, protowire.ParseError(n)
		}
		out = append(out, stdmath.Float32frombits(v))
		packed = packed[n:]
	}
	return out, nil
}

func (d *decoder) ReadInt32s() ([]int32, error) {
	packed, err := d.ReadBytes()
	if err != nil {
		return nil, err
	}
	var out []int32
	for len(packed) > 0 {
		v, n := protowire.ConsumeVarint(packed)
		if n < 0 {
			return nil, protowire.ParseError(n)
		}
		out = append(out, int32(protowire.DecodeZigZag(v)))
		packed = packed[n:]
	}
	return out, nil
}

func (d *decoder) readFixed(width int) ([]float32, error) {
	v, err := d.ReadFloats()
	if err != nil {
		return nil, err
	}
	if len(v) != width {
		return nil, fmt.Errorf("expected %d floats, got %d", width, len(v))
	}
	return v, nil
}

func (d *decoder) ReadVec3() (math.Vec3, error) {
	v, err := d.readFixed(3)
	if err != nil {
		return math.Vec3{}, err
	}
	return math.NewVec3(v[0], v[1], v[2]), nil
}

func (d *decoder) ReadVec4() (math.Vec4, error) {
	v, err := d.readFixed(4)
	if err != nil {
		return math.Vec4{}, err
	}
	return math.NewVec4(v[0], v[1], v[2], v[3]), nil
}

func (d *decoder) ReadQuat() (math.Quaternion, error) {
	v, err := d.ReadVec4()
	return math.Quaternion(v), err
}

func flattenVec2(v []math.Vec2) []float32 {
	out := make([]float32, 0, 2*len(v))
	for _, e := range v {
		out = append(out, e.X, e.Y)
	}
	return out
}

func flattenVec3(v []math.Vec3) []float32 {
	out := make([]float32, 0, 3*len(v))
	for _, e := range v {
		out = append(out, e.X, e.Y, e.Z)
	}
	return out
}

func flattenVec4(v []math.Vec4) []float32 {
	out := make([]float32, 0, 4*len(v))
	for _, e := range v {
		out = append(out, e.X, e.Y, e.Z, e.W)
	}
	return out
}

func unflattenVec2(f []float32) ([]math.Vec2, error) {
	if len(f)%2 != 0 {
		return nil, fmt.Errorf("vec2 array of %d floats", len(f))
	}
	out := make([]math.Vec2, len(f)/2)
	for i := range out {
		out[i] = math.NewVec2(f[2*i], f[2*i+1])
	}
	return out, nil
}

func unflattenVec3(f []float32) ([]math.Vec3, error) {
	if len(f)%3 != 0 {
		return nil, fmt.Errorf("vec3 array of %d floats", len(f))
	}
	out := make([]math.Vec3, len(f)/3)
	for i := range out {
		out[i] = math.NewVec3(f[3*i], f[3*i+1], f[3*i+2])
	}
	return out, nil
}

func unflattenVec4(f []float32) ([]math.Vec4, error) {
	if len(f)%4 != 0 {
		return nil, fmt.Errorf("vec4 array of %d floats", len(f))
	}
	out := make([]math.Vec4, len(f)/4)
	for i := range out {
		out[i] = math.NewVec4(f[4*i], f[4*i+1], f[4*i+2], f[4*i+3])
	}
	return out, nil
}
