package math

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const tolerance = 1e-4

func TestMat4Inverse(t *testing.T) {
	tr := TransformFromPositionRotationScale(
		NewVec3(1, -2, 3),
		NewQuatFromAxisAngle(NewVec3(0, 1, 0), K_PI/3, true),
		NewVec3(2, 2, 2),
	)
	m := tr.GetLocal()
	id := m.Mul(m.Inverse())
	want := NewMat4Identity()
	for i := range id.Data {
		assert.InDelta(t, want.Data[i], id.Data[i], tolerance, "element %d", i)
	}
}

func TestTransformDecomposeRoundTrip(t *testing.T) {
	tests := []struct {
		name     string
		position Vec3
		axis     Vec3
		angle    float32
		scale    Vec3
	}{
		{"identity", NewVec3Zero(), NewVec3(0, 0, 1), 0, NewVec3One()},
		{"translated", NewVec3(4, 5, 6), NewVec3(1, 0, 0), 0, NewVec3One()},
		{"rotated z", NewVec3(0, 1, 0), NewVec3(0, 0, 1), K_PI / 2, NewVec3One()},
		{"rotated half turn", NewVec3(0, 0, 0), NewVec3(1, 0, 0), K_PI, NewVec3One()},
		{"scaled rotated", NewVec3(-1, 2, 0.5), NewVec3(1, 1, 0).Normalized(), 1.1, NewVec3(1, 3, 0.5)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rot := NewQuatFromAxisAngle(tt.axis, tt.angle, true)
			src := TransformFromPositionRotationScale(tt.position, rot, tt.scale)
			got := TransformFromMat4(src.GetLocal())
			assert.True(t, got.Position.Compare(tt.position, tolerance), "position %v", got.Position)
			assert.True(t, got.Scale.Compare(tt.scale, tolerance), "scale %v", got.Scale)
			assert.True(t, got.Rotation.Compare(rot, tolerance), "rotation %v want %v", got.Rotation, rot)
		})
	}
}

func TestRelativeTo(t *testing.T) {
	parent := TransformFromPositionRotationScale(
		NewVec3(10, 0, 0),
		NewQuatFromAxisAngle(NewVec3(0, 0, 1), K_PI/2, true),
		NewVec3One(),
	)
	local := TransformFromPositionRotationScale(
		NewVec3(1, 2, 3),
		NewQuatFromAxisAngle(NewVec3(0, 1, 0), 0.3, true),
		NewVec3(2, 2, 2),
	)
	local.Parent = parent
	world := TransformFromMat4(local.GetWorld())

	rel := RelativeTo(world, parent)
	assert.True(t, rel.Position.Compare(local.Position, tolerance), "position %v", rel.Position)
	assert.True(t, rel.Scale.Compare(local.Scale, tolerance), "scale %v", rel.Scale)
	assert.True(t, rel.Rotation.Compare(local.Rotation, tolerance))

	noParent := RelativeTo(world, nil)
	assert.Equal(t, world.Position, noParent.Position)
}

func TestHandedness(t *testing.T) {
	assert.Equal(t, NewVec3(-1, 3, 2), ToLHSPosition(NewVec3(1, 2, 3)))
	assert.Equal(t, NewVec3(-1, 3, 2), ToLHSNormal(NewVec3(1, 2, 3)))
	assert.Equal(t, NewVec3(1, 3, 2), ToLHSScale(NewVec3(1, 2, 3)))
	assert.Equal(t, Quaternion{0.1, -0.3, -0.2, -0.9}, ToLHSRotation(Quaternion{0.1, 0.2, 0.3, 0.9}))

	// Applying the swap twice restores the original up to quaternion sign.
	q := NewQuatFromAxisAngle(NewVec3(1, 2, 3).Normalized(), 0.7, true)
	assert.True(t, ToLHSRotation(ToLHSRotation(q)).Compare(q, tolerance))
}

func corner(x, y, z float32) Vertex3D {
	return Vertex3D{
		Position: NewVec3(x, y, z),
		Normal:   NewVec3(0, 0, 1),
		Colour:   NewVec4One(),
	}
}

func quad() []Vertex3D {
	return []Vertex3D{
		corner(0, 0, 0), corner(1, 0, 0), corner(1, 1, 0),
		corner(0, 0, 0), corner(1, 1, 0), corner(0, 1, 0),
	}
}

func TestGeometryWeldSharedEdge(t *testing.T) {
	welded, indices := GeometryWeld(quad())
	require.Len(t, welded, 4)
	assert.Equal(t, []int32{0, 1, 2, 0, 2, 3}, indices)
}

func TestGeometryWeldRoundTrip(t *testing.T) {
	stream := quad()
	stream[4].Texcoord = NewVec2(0.5, 0.5) // splits one shared corner
	stream[3].State = 7                    // state never splits

	welded, indices := GeometryWeld(stream)
	require.Len(t, indices, len(stream))
	assert.Len(t, welded, 5)
	for i, idx := range indices {
		got := welded[idx]
		want := stream[i]
		assert.Equal(t, want.Position, got.Position)
		assert.Equal(t, want.Normal, got.Normal)
		assert.Equal(t, want.Colour, got.Colour)
		assert.Equal(t, want.Texcoord, got.Texcoord)
	}
}

func TestGeometryWeldOrderIndependentSet(t *testing.T) {
	stream := quad()
	reversed := make([]Vertex3D, len(stream))
	for i := range stream {
		reversed[len(stream)-1-i] = stream[i]
	}

	a, _ := GeometryWeld(stream)
	b, ib := GeometryWeld(reversed)
	assert.ElementsMatch(t, a, b)
	// First seen wins: the reversed stream starts with (0,1,0).
	assert.Equal(t, int32(0), ib[0])
	assert.Equal(t, NewVec3(0, 1, 0), b[0].Position)
}

func TestGeometryUnwelded(t *testing.T) {
	stream := quad()
	out, indices := GeometryUnwelded(stream)
	assert.Equal(t, stream, out)
	assert.Equal(t, []int32{0, 1, 2, 3, 4, 5}, indices)
}

func TestGeometryGenerateNormals(t *testing.T) {
	points := []Vec3{NewVec3(0, 0, 0), NewVec3(1, 0, 0), NewVec3(0, 1, 0)}
	indices := []int32{0, 1, 2}
	normals := make([]Vec3, len(indices))
	GeometryGenerateNormals(points, indices, normals)
	for _, n := range normals {
		assert.Equal(t, NewVec3(0, 0, 1), n)
	}
}

func TestClamp(t *testing.T) {
	assert.Equal(t, 5, Clamp(10, 0, 5))
	assert.Equal(t, float32(0.5), Clamp(float32(0.5), 0, 1))
	assert.Equal(t, int64(-1), Clamp(int64(-3), -1, 1))
}

func TestChildOfRotatedParent(t *testing.T) {
	parent := TransformFromPositionRotationScale(
		NewVec3(10, 0, 0),
		NewQuatFromAxisAngle(NewVec3(0, 0, 1), DegToRad(90), true),
		NewVec3One(),
	)
	child := TransformFromPosition(NewVec3(1, 0, 0))
	child.Parent = parent

	world := TransformFromMat4(child.GetWorld())
	assert.True(t, world.Position.Compare(NewVec3(10, 1, 0), tolerance), "position %v", world.Position)

	p := NewVec3(1, 0, 0).Transform(parent.GetLocal())
	assert.True(t, p.Compare(NewVec3(10, 1, 0), tolerance), "point %v", p)
}

func TestQuaternionSlerp(t *testing.T) {
	a := NewQuatIdentity()
	b := NewQuatFromAxisAngle(NewVec3(0, 1, 0), K_PI/2, true)
	half := NewQuatFromAxisAngle(NewVec3(0, 1, 0), K_PI/4, true)

	assert.True(t, a.Slerp(b, 0).Compare(a, tolerance))
	assert.True(t, a.Slerp(b, 1).Compare(b, tolerance))
	assert.True(t, a.Slerp(b, 0.5).Compare(half, tolerance))

	// -b is the same rotation, the shorter arc is still taken
	negB := Quaternion(Vec4(b).MulScalar(-1))
	assert.True(t, a.Slerp(negB, 0.5).Compare(half, tolerance))
}

func TestQuaternionInverse(t *testing.T) {
	q := NewQuatFromAxisAngle(NewVec3(1, 2, 3).Normalized(), 0.9, true)
	assert.True(t, q.Mul(q.Inverse()).Compare(NewQuatIdentity(), tolerance))
	assert.Equal(t, NewQuatIdentity(), Quaternion{}.Normalize())
}
