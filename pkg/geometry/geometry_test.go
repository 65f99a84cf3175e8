package geometry

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestVec3Cross(t *testing.T) {
	x := NewVec3(1, 0, 0)
	y := NewVec3(0, 1, 0)
	z := NewVec3(0, 0, 1)

	assert.Equal(t, z, x.Cross(y))
	assert.Equal(t, x, y.Cross(z))
	assert.Equal(t, y, z.Cross(x))

	// Cross product is orthogonal to both operands.
	a := NewVec3(1.5, -2, 0.25)
	b := NewVec3(-0.5, 3, 7)
	c := a.Cross(b)
	assert.InDelta(t, 0, c.Dot(a), 1e-12)
	assert.InDelta(t, 0, c.Dot(b), 1e-12)
}

func TestVec3Normalize(t *testing.T) {
	v := NewVec3(3, 4, 0).Normalize()
	assert.InDelta(t, 1, v.Length(), 1e-12)
	assert.InDelta(t, 0.6, v.X, 1e-12)
	assert.InDelta(t, 0.8, v.Y, 1e-12)

	// Zero vector stays zero instead of dividing by zero.
	assert.Equal(t, Vec3{}, Vec3{}.Normalize())
}

func TestSphericalRoundTrip(t *testing.T) {
	tests := []struct {
		name string
		v    Vec3
	}{
		{"x axis", NewVec3(100, 0, 0)},
		{"diagonal", NewVec3(500, 500, 500)},
		{"below plane", NewVec3(-200, -350, 125)},
		{"near pole", NewVec3(0.001, 1000, 0.001)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			radius, azimuth, elevation := tt.v.Spherical()
			back := FromSpherical(radius, azimuth, elevation)
			assert.InDelta(t, tt.v.X, back.X, 1e-9)
			assert.InDelta(t, tt.v.Y, back.Y, 1e-9)
			assert.InDelta(t, tt.v.Z, back.Z, 1e-9)
		})
	}
}

func TestPerspective(t *testing.T) {
	m := Perspective(60, 16.0/9.0, 0.1, 10000)

	tanHalf := math.Tan(Radians(60) / 2)
	assert.InDelta(t, 1/((16.0/9.0)*tanHalf), m.At(0, 0), 1e-12)
	assert.InDelta(t, 1/tanHalf, m.At(1, 1), 1e-12)
	assert.InDelta(t, -1, m.At(3, 2), 1e-12)
	assert.InDelta(t, -(10000+0.1)/(10000-0.1), m.At(2, 2), 1e-12)
	assert.InDelta(t, -2*10000*0.1/(10000-0.1), m.At(2, 3), 1e-12)

	// Rows/cols that should be untouched stay zero.
	assert.Zero(t, m.At(0, 1))
	assert.Zero(t, m.At(3, 3))
}

func TestDegreesRadians(t *testing.T) {
	assert.InDelta(t, math.Pi, Radians(180), 1e-12)
	assert.InDelta(t, 180, Degrees(math.Pi), 1e-12)
}

func TestPoint2DDistance(t *testing.T) {
	a := NewPoint2D(0, 0)
	b := NewPoint2D(3, 4)
	assert.InDelta(t, 5, a.Distance(b), 1e-12)
}

func TestPoint2DRound(t *testing.T) {
	assert.Equal(t, PointInt{X: 628, Y: 360}, NewPoint2D(627.5, 359.9).Round())
	assert.Equal(t, PointInt{X: -1, Y: 0}, NewPoint2D(-0.6, 0.4).Round())
}
