package geometry

import (
	"math"
)

// Mat4 is a 4x4 matrix stored in column-major order, so element (row, col)
// lives at index col*4+row. This matches the layout rendering APIs expect.
type Mat4 [16]float64

// Identity returns the 4x4 identity matrix.
func Identity() Mat4 {
	var m Mat4
	m[0], m[5], m[10], m[15] = 1, 1, 1, 1
	return m
}

// At returns the element at (row, col).
func (m Mat4) At(row, col int) float64 {
	return m[col*4+row]
}

// Set assigns the element at (row, col).
func (m *Mat4) Set(row, col int, v float64) {
	m[col*4+row] = v
}

// Perspective builds a right-handed perspective projection matrix mapping
// depth to [-1, 1]. The vertical field of view is given in degrees.
func Perspective(fovDeg, aspect, near, far float64) Mat4 {
	var m Mat4
	tanHalf := math.Tan(Radians(fovDeg) / 2)
	m.Set(0, 0, 1/(aspect*tanHalf))
	m.Set(1, 1, 1/tanHalf)
	m.Set(2, 2, -(far+near)/(far-near))
	m.Set(3, 2, -1)
	m.Set(2, 3, -2*far*near/(far-near))
	return m
}
