package geometry

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/df07/go-voxel-raytracer/pkg/core"
)

const tolerance = 1e-9

func assertVecNear(t *testing.T, expected, actual core.Vec3, delta float64) {
	t.Helper()
	assert.InDelta(t, expected.X, actual.X, delta, "X of %v", actual)
	assert.InDelta(t, expected.Y, actual.Y, delta, "Y of %v", actual)
	assert.InDelta(t, expected.Z, actual.Z, delta, "Z of %v", actual)
}

func TestIntersectPlane(t *testing.T) {
	point := core.NewVec3(0, 0, 0)
	normal := core.NewVec3(0, 0, 1)

	t.Run("hit is exact", func(t *testing.T) {
		hit, ok := IntersectPlane(point, normal, core.NewVec3(1, 1, 1), core.NewVec3(0, 0, -1))
		require.True(t, ok)
		assert.Equal(t, core.NewVec3(1, 1, 0), hit)
	})

	t.Run("parallel ray misses", func(t *testing.T) {
		_, ok := IntersectPlane(point, normal, core.NewVec3(1, 1, 1), core.NewVec3(1, 0, 0))
		assert.False(t, ok)
	})

	t.Run("line behind origin is still intersected", func(t *testing.T) {
		hit, ok := IntersectPlane(point, normal, core.NewVec3(1, 1, 1), core.NewVec3(0, 0, 2))
		require.True(t, ok)
		assert.Equal(t, core.NewVec3(1, 1, 0), hit)
	})

	t.Run("oblique ray", func(t *testing.T) {
		hit, ok := IntersectPlane(core.NewVec3(0, 0, 2), normal, core.NewVec3(0, 0, 0), core.NewVec3(1, 1, 1))
		require.True(t, ok)
		assertVecNear(t, core.NewVec3(2, 2, 2), hit, tolerance)
	})
}

func TestIntersectTriangle(t *testing.T) {
	p1 := core.NewVec3(-2, -1, 0)
	p2 := core.NewVec3(11, 7, 0)
	p3 := core.NewVec3(-2, 11, 0)

	tests := []struct {
		name      string
		origin    core.Vec3
		direction core.Vec3
		shouldHit bool
		expected  core.Vec3
	}{
		{
			name:      "point inside triangle",
			origin:    core.NewVec3(1, 1, 1),
			direction: core.NewVec3(0, 0, -1),
			shouldHit: true,
			expected:  core.NewVec3(1, 1, 0),
		},
		{
			name:      "point on vertex",
			origin:    core.NewVec3(-2, 11, 5),
			direction: core.NewVec3(0, 0, -1),
			shouldHit: true,
			expected:  core.NewVec3(-2, 11, 0),
		},
		{
			name:      "point outside triangle",
			origin:    core.NewVec3(10, 10, 1),
			direction: core.NewVec3(0, 0, -1),
			shouldHit: false,
		},
		{
			name:      "parallel ray",
			origin:    core.NewVec3(1, 1, 1),
			direction: core.NewVec3(1, 0, 0),
			shouldHit: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hit, ok := IntersectTriangle(p1, p2, p3, tt.origin, tt.direction)
			require.Equal(t, tt.shouldHit, ok)
			if tt.shouldHit {
				assertVecNear(t, tt.expected, hit, tolerance)
			}
		})
	}

	t.Run("scenario hit is bit exact", func(t *testing.T) {
		hit, ok := IntersectTriangle(p1, p2, p3, core.NewVec3(1, 1, 1), core.NewVec3(0, 0, -1))
		require.True(t, ok)
		assert.Equal(t, core.NewVec3(1, 1, 0), hit)
	})

	t.Run("collinear vertices never hit", func(t *testing.T) {
		_, ok := IntersectTriangle(core.NewVec3(0, 0, 0), core.NewVec3(1, 1, 0), core.NewVec3(2, 2, 0),
			core.NewVec3(1, 1, 1), core.NewVec3(0, 0, -1))
		assert.False(t, ok)
	})
}

func randomVec(random *rand.Rand, scale float64) core.Vec3 {
	return core.NewVec3(
		(random.Float64()*2-1)*scale,
		(random.Float64()*2-1)*scale,
		(random.Float64()*2-1)*scale,
	)
}

func TestIntersectTriangle_RotationInvariant(t *testing.T) {
	random := rand.New(rand.NewSource(7))

	for i := 0; i < 500; i++ {
		p1, p2, p3 := randomVec(random, 5), randomVec(random, 5), randomVec(random, 5)
		// Aim at a point inside the triangle most of the time, outside sometimes.
		w1, w2 := random.Float64(), random.Float64()
		if w1+w2 > 1 && i%3 != 0 {
			w1, w2 = 1-w1, 1-w2
		}
		target := p1.Multiply(w1).Add(p2.Multiply(w2)).Add(p3.Multiply(1 - w1 - w2))
		origin := randomVec(random, 20)
		direction := target.Subtract(origin)

		hitA, okA := IntersectTriangle(p1, p2, p3, origin, direction)
		hitB, okB := IntersectTriangle(p2, p3, p1, origin, direction)
		hitC, okC := IntersectTriangle(p3, p1, p2, origin, direction)

		// Points within rounding distance of an edge may flip, and grazing
		// rays amplify rounding; skip both.
		w3 := 1 - w1 - w2
		if math.Min(math.Abs(w1), math.Min(math.Abs(w2), math.Abs(w3))) < 1e-6 {
			continue
		}
		normal := p2.Subtract(p1).Cross(p3.Subtract(p1)).Normalize()
		if math.Abs(normal.Dot(direction.Normalize())) < 1e-3 {
			continue
		}

		require.Equal(t, okA, okB, "iteration %d", i)
		require.Equal(t, okA, okC, "iteration %d", i)
		if okA {
			assertVecNear(t, hitA, hitB, 1e-6)
			assertVecNear(t, hitA, hitC, 1e-6)
			assertVecNear(t, target, hitA, 1e-6)
		}
	}
}

func TestIntersectQuad(t *testing.T) {
	// Unit square in the z=0 plane, corners in cyclic order.
	p1 := core.NewVec3(0, 0, 0)
	p2 := core.NewVec3(1, 0, 0)
	p3 := core.NewVec3(1, 1, 0)
	p4 := core.NewVec3(0, 1, 0)
	down := core.NewVec3(0, 0, -1)

	tests := []struct {
		name      string
		origin    core.Vec3
		shouldHit bool
	}{
		{"center", core.NewVec3(0.5, 0.5, 1), true},
		{"near corner", core.NewVec3(0.95, 0.05, 1), true},
		{"near opposite corner", core.NewVec3(0.05, 0.95, 1), true},
		{"on corner", core.NewVec3(1, 1, 1), true},
		{"outside x", core.NewVec3(1.2, 0.5, 1), false},
		{"outside y", core.NewVec3(0.5, -0.1, 1), false},
		{"diagonal outside", core.NewVec3(1.1, 1.1, 1), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hit, ok := IntersectQuad(p1, p2, p3, p4, tt.origin, down)
			require.Equal(t, tt.shouldHit, ok)
			if ok {
				assertVecNear(t, core.NewVec3(tt.origin.X, tt.origin.Y, 0), hit, tolerance)
			}
		})
	}

	t.Run("rectangle is exact", func(t *testing.T) {
		q1 := core.NewVec3(0, 0, 2)
		q2 := core.NewVec3(4, 0, 2)
		q3 := core.NewVec3(4, 1, 2)
		q4 := core.NewVec3(0, 1, 2)
		_, ok := IntersectQuad(q1, q2, q3, q4, core.NewVec3(3.9, 0.9, 0), core.NewVec3(0, 0, 1))
		assert.True(t, ok)
		_, ok = IntersectQuad(q1, q2, q3, q4, core.NewVec3(3.9, 1.1, 0), core.NewVec3(0, 0, 1))
		assert.False(t, ok)
	})
}
