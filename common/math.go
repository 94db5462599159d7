package common

import "math"

// Identity resets a 4x4 matrix (flat slice) to the identity matrix.
// The matrix is stored in column-major order.
//
// Parameters:
//   - m: destination slice (must be at least 16 elements)
func Identity(m []float32) {
	for i := range m {
		m[i] = 0
	}
	m[0], m[5], m[10], m[15] = 1, 1, 1, 1
}

// Mul4 multiplies two 4x4 matrices and stores the result in out.
// All matrices are stored in column-major order (OpenGL/WebGPU convention).
// Result: out = a * b
//
// Parameters:
//   - out: destination slice (must be at least 16 elements)
//   - a: left-hand matrix (16 elements)
//   - b: right-hand matrix (16 elements)
func Mul4(out, a, b []float32) {
	var buf [16]float32
	for i := 0; i < 4; i++ { // column of B
		for j := 0; j < 4; j++ { // row of A
			sum := float32(0)
			for k := 0; k < 4; k++ {
				sum += a[k*4+j] * b[i*4+k]
			}
			buf[i*4+j] = sum
		}
	}
	copy(out, buf[:])
}

// ComposeTRS builds a column-major 4x4 matrix from a translation, a rotation quaternion and a scale.
// Result: out = T * R * S
//
// Parameters:
//   - out: destination slice (must be at least 16 elements)
//   - t: translation (x, y, z)
//   - q: rotation quaternion (x, y, z, w), expected to be normalized
//   - s: scale (x, y, z)
func ComposeTRS(out []float32, t [3]float32, q [4]float32, s [3]float32) {
	x, y, z, w := q[0], q[1], q[2], q[3]
	xx, yy, zz := x*x, y*y, z*z
	xy, xz, yz := x*y, x*z, y*z
	wx, wy, wz := w*x, w*y, w*z

	out[0] = (1 - 2*(yy+zz)) * s[0]
	out[1] = 2 * (xy + wz) * s[0]
	out[2] = 2 * (xz - wy) * s[0]
	out[3] = 0

	out[4] = 2 * (xy - wz) * s[1]
	out[5] = (1 - 2*(xx+zz)) * s[1]
	out[6] = 2 * (yz + wx) * s[1]
	out[7] = 0

	out[8] = 2 * (xz + wy) * s[2]
	out[9] = 2 * (yz - wx) * s[2]
	out[10] = (1 - 2*(xx+yy)) * s[2]
	out[11] = 0

	out[12] = t[0]
	out[13] = t[1]
	out[14] = t[2]
	out[15] = 1
}

// TransformPoint applies a column-major 4x4 matrix to a point (w = 1).
//
// Parameters:
//   - m: the matrix (16 elements)
//   - p: the point to transform
//
// Returns:
//   - [3]float32: the transformed point
func TransformPoint(m []float32, p [3]float32) [3]float32 {
	return [3]float32{
		m[0]*p[0] + m[4]*p[1] + m[8]*p[2] + m[12],
		m[1]*p[0] + m[5]*p[1] + m[9]*p[2] + m[13],
		m[2]*p[0] + m[6]*p[1] + m[10]*p[2] + m[14],
	}
}

// QuatIdentity returns the identity rotation (0, 0, 0, 1).
func QuatIdentity() [4]float32 {
	return [4]float32{0, 0, 0, 1}
}

// QuatFromEuler converts Euler angles in radians to a quaternion using XYZ intrinsic order,
// matching the order most glTF/VRM tooling uses for bone offsets.
//
// Parameters:
//   - x, y, z: rotation angles in radians around each local axis
//
// Returns:
//   - [4]float32: the quaternion (x, y, z, w)
func QuatFromEuler(x, y, z float32) [4]float32 {
	c1 := math.Cos(float64(x) / 2)
	c2 := math.Cos(float64(y) / 2)
	c3 := math.Cos(float64(z) / 2)
	s1 := math.Sin(float64(x) / 2)
	s2 := math.Sin(float64(y) / 2)
	s3 := math.Sin(float64(z) / 2)

	return [4]float32{
		float32(s1*c2*c3 + c1*s2*s3),
		float32(c1*s2*c3 - s1*c2*s3),
		float32(c1*c2*s3 + s1*s2*c3),
		float32(c1*c2*c3 - s1*s2*s3),
	}
}

// QuatMul returns the Hamilton product a * b (apply b first, then a).
//
// Parameters:
//   - a: left-hand quaternion
//   - b: right-hand quaternion
//
// Returns:
//   - [4]float32: the product quaternion
func QuatMul(a, b [4]float32) [4]float32 {
	return [4]float32{
		a[3]*b[0] + a[0]*b[3] + a[1]*b[2] - a[2]*b[1],
		a[3]*b[1] - a[0]*b[2] + a[1]*b[3] + a[2]*b[0],
		a[3]*b[2] + a[0]*b[1] - a[1]*b[0] + a[2]*b[3],
		a[3]*b[3] - a[0]*b[0] - a[1]*b[1] - a[2]*b[2],
	}
}

// QuatDot returns the 4D dot product of two quaternions.
func QuatDot(a, b [4]float32) float32 {
	return a[0]*b[0] + a[1]*b[1] + a[2]*b[2] + a[3]*b[3]
}

// QuatNormalize returns q scaled to unit length. A zero quaternion becomes the identity.
//
// Parameters:
//   - q: the quaternion to normalize
//
// Returns:
//   - [4]float32: the normalized quaternion
func QuatNormalize(q [4]float32) [4]float32 {
	l := float32(math.Sqrt(float64(QuatDot(q, q))))
	if l == 0 {
		return QuatIdentity()
	}
	inv := 1 / l
	return [4]float32{q[0] * inv, q[1] * inv, q[2] * inv, q[3] * inv}
}

// QuatSlerp spherically interpolates from a toward b along the shortest arc.
// Falls back to normalized linear interpolation when the quaternions are nearly parallel.
//
// Parameters:
//   - a: start rotation
//   - b: end rotation
//   - t: interpolation factor, 0 returns a and 1 returns b
//
// Returns:
//   - [4]float32: the interpolated rotation
func QuatSlerp(a, b [4]float32, t float32) [4]float32 {
	if t <= 0 {
		return a
	}
	if t >= 1 {
		return b
	}

	cosHalf := QuatDot(a, b)
	if cosHalf < 0 {
		b = [4]float32{-b[0], -b[1], -b[2], -b[3]}
		cosHalf = -cosHalf
	}

	if cosHalf > 0.9995 {
		return QuatNormalize([4]float32{
			a[0] + (b[0]-a[0])*t,
			a[1] + (b[1]-a[1])*t,
			a[2] + (b[2]-a[2])*t,
			a[3] + (b[3]-a[3])*t,
		})
	}

	half := math.Acos(float64(cosHalf))
	sinHalf := math.Sqrt(1 - float64(cosHalf)*float64(cosHalf))
	ra := float32(math.Sin((1-float64(t))*half) / sinHalf)
	rb := float32(math.Sin(float64(t)*half) / sinHalf)

	return [4]float32{
		a[0]*ra + b[0]*rb,
		a[1]*ra + b[1]*rb,
		a[2]*ra + b[2]*rb,
		a[3]*ra + b[3]*rb,
	}
}

// QuatAngle returns the rotation angle in radians between two orientations.
// q and -q are treated as the same orientation.
//
// Parameters:
//   - a, b: the rotations to compare
//
// Returns:
//   - float32: the angle between them in [0, pi]
func QuatAngle(a, b [4]float32) float32 {
	d := math.Abs(float64(QuatDot(QuatNormalize(a), QuatNormalize(b))))
	if d > 1 {
		d = 1
	}
	return float32(2 * math.Acos(d))
}

// QuatRotate rotates the vector v by the quaternion q.
//
// Parameters:
//   - q: the rotation (normalized)
//   - v: the vector to rotate
//
// Returns:
//   - [3]float32: the rotated vector
func QuatRotate(q [4]float32, v [3]float32) [3]float32 {
	u := [3]float32{q[0], q[1], q[2]}
	w := q[3]
	uv := cross(u, v)
	uuv := cross(u, uv)
	return [3]float32{
		v[0] + 2*(w*uv[0]+uuv[0]),
		v[1] + 2*(w*uv[1]+uuv[1]),
		v[2] + 2*(w*uv[2]+uuv[2]),
	}
}

func cross(a, b [3]float32) [3]float32 {
	return [3]float32{
		a[1]*b[2] - a[2]*b[1],
		a[2]*b[0] - a[0]*b[2],
		a[0]*b[1] - a[1]*b[0],
	}
}

// Vec3Add returns a + b.
func Vec3Add(a, b [3]float32) [3]float32 {
	return [3]float32{a[0] + b[0], a[1] + b[1], a[2] + b[2]}
}

// Vec3Sub returns a - b.
func Vec3Sub(a, b [3]float32) [3]float32 {
	return [3]float32{a[0] - b[0], a[1] - b[1], a[2] - b[2]}
}

// Vec3Lerp linearly interpolates from a toward b by t.
func Vec3Lerp(a, b [3]float32, t float32) [3]float32 {
	return [3]float32{
		a[0] + (b[0]-a[0])*t,
		a[1] + (b[1]-a[1])*t,
		a[2] + (b[2]-a[2])*t,
	}
}

// Vec3Distance returns the euclidean distance between a and b.
func Vec3Distance(a, b [3]float32) float32 {
	d := Vec3Sub(a, b)
	return float32(math.Sqrt(float64(d[0]*d[0] + d[1]*d[1] + d[2]*d[2])))
}

// DampAlpha returns the frame-rate independent smoothing factor 1 - e^(-lambda*dt).
// Applying it n times with dt equals applying it once with n*dt.
//
// Parameters:
//   - lambda: convergence rate per second
//   - dt: elapsed time in seconds
//
// Returns:
//   - float32: the interpolation factor in [0, 1)
func DampAlpha(lambda, dt float32) float32 {
	if dt <= 0 || lambda <= 0 {
		return 0
	}
	return float32(1 - math.Exp(-float64(lambda)*float64(dt)))
}

// Clamp limits v to the closed range [lo, hi]. NaN clamps to lo.
func Clamp(v, lo, hi float32) float32 {
	if v != v || v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Sin is a float32 convenience wrapper around math.Sin.
func Sin(v float32) float32 {
	return float32(math.Sin(float64(v)))
}

// Cos is a float32 convenience wrapper around math.Cos.
func Cos(v float32) float32 {
	return float32(math.Cos(float64(v)))
}
