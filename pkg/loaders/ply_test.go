package loaders

import (
	"bytes"
	"encoding/binary"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/df07/go-voxel-raytracer/pkg/core"
)

// createTestPLY writes a unit square as a binary PLY. With quad set the
// square is one four-vertex face, otherwise two triangles.
func createTestPLY(t *testing.T, order binary.ByteOrder, includeNormals, quad bool) string {
	t.Helper()
	var buf bytes.Buffer

	format := "binary_little_endian"
	if order == binary.BigEndian {
		format = "binary_big_endian"
	}
	buf.WriteString("ply\n")
	buf.WriteString("format " + format + " 1.0\n")
	buf.WriteString("comment unit square\n")
	buf.WriteString("element vertex 4\n")
	buf.WriteString("property float x\n")
	buf.WriteString("property float y\n")
	buf.WriteString("property float z\n")
	if includeNormals {
		buf.WriteString("property float nx\n")
		buf.WriteString("property float ny\n")
		buf.WriteString("property float nz\n")
	}
	buf.WriteString("property uchar red\n")
	faces := 2
	if quad {
		faces = 1
	}
	buf.WriteString("element face " + strconv.Itoa(faces) + "\n")
	buf.WriteString("property list uchar int vertex_indices\n")
	buf.WriteString("property uchar flags\n")
	buf.WriteString("end_header\n")

	vertices := [][3]float32{{0, 0, 0}, {1, 0, 0}, {1, 1, 0}, {0, 1, 0}}
	for _, v := range vertices {
		require.NoError(t, binary.Write(&buf, order, v))
		if includeNormals {
			require.NoError(t, binary.Write(&buf, order, [3]float32{0, 0, -1}))
		}
		buf.WriteByte(255)
	}

	if quad {
		buf.WriteByte(4)
		require.NoError(t, binary.Write(&buf, order, [4]int32{0, 1, 2, 3}))
		buf.WriteByte(0)
	} else {
		for _, f := range [][3]int32{{0, 1, 2}, {0, 2, 3}} {
			buf.WriteByte(3)
			require.NoError(t, binary.Write(&buf, order, f))
			buf.WriteByte(0)
		}
	}

	filename := filepath.Join(t.TempDir(), "square.ply")
	require.NoError(t, os.WriteFile(filename, buf.Bytes(), 0644))
	return filename
}

func TestLoadPLY_Binary(t *testing.T) {
	for _, order := range []binary.ByteOrder{binary.LittleEndian, binary.BigEndian} {
		t.Run(order.String(), func(t *testing.T) {
			triangles, err := LoadPLY(createTestPLY(t, order, false, false))
			require.NoError(t, err)
			require.Len(t, triangles, 2)

			assert.Equal(t, core.NewVec3(0, 0, 0), triangles[0].V0)
			assert.Equal(t, core.NewVec3(1, 0, 0), triangles[0].V1)
			assert.Equal(t, core.NewVec3(1, 1, 0), triangles[0].V2)
			assert.Equal(t, core.NewVec3(0, 1, 0), triangles[1].V2)
			// Counter-clockwise winding faces +Z
			assert.Equal(t, core.NewVec3(0, 0, 1), triangles[0].Normal)
		})
	}
}

func TestLoadPLY_WithNormals(t *testing.T) {
	triangles, err := LoadPLY(createTestPLY(t, binary.LittleEndian, true, false))
	require.NoError(t, err)
	require.Len(t, triangles, 2)
	for _, tri := range triangles {
		assert.Equal(t, core.NewVec3(0, 0, -1), tri.Normal)
	}
}

func TestLoadPLY_QuadIsFanSplit(t *testing.T) {
	triangles, err := LoadPLY(createTestPLY(t, binary.LittleEndian, false, true))
	require.NoError(t, err)
	require.Len(t, triangles, 2)
	assert.Equal(t, triangles[0].V0, triangles[1].V0, "fan shares the first vertex")
	assert.Equal(t, triangles[0].V2, triangles[1].V1)
	assert.Equal(t, core.NewVec3(0, 1, 0), triangles[1].V2)
}

func TestReadPLY_ASCII(t *testing.T) {
	const src = `ply
format ascii 1.0
comment tetrahedron
element vertex 4
property double x
property double y
property double z
element face 4
property list uchar uint vertex_indices
element edge 1
property int vertex1
property int vertex2
end_header
0 0 0
1 0 0
0 1 0
0 0 1
3 0 2 1
3 0 1 3
3 0 3 2
3 1 2 3
0 1
`
	triangles, err := ReadPLY(strings.NewReader(src))
	require.NoError(t, err)
	require.Len(t, triangles, 4)
	assert.Equal(t, core.NewVec3(0, 1, 0), triangles[0].V1)
	assert.Equal(t, core.NewVec3(0, 0, -1), triangles[0].Normal)
	assert.Equal(t, core.NewVec3(1, 0, 0), triangles[3].V0)
}

func TestReadPLY_Errors(t *testing.T) {
	header := "ply\nformat ascii 1.0\nelement vertex 3\nproperty float x\nproperty float y\nproperty float z\n" +
		"element face 1\nproperty list uchar int vertex_indices\nend_header\n"

	tests := []struct {
		name    string
		src     string
		wantErr string
	}{
		{"not a ply file", "solid cube\n", "magic"},
		{"missing end_header", "ply\nformat ascii 1.0\nelement vertex 0\n", "end_header"},
		{"missing format", "ply\nelement vertex 0\nend_header\n", "format"},
		{"no faces", "ply\nformat ascii 1.0\nelement vertex 0\nproperty float x\nend_header\n", "face"},
		{"unknown type", "ply\nformat ascii 1.0\nelement vertex 1\nproperty quad x\nend_header\n", "unsupported data type"},
		{"unknown format", strings.Replace(header, "ascii", "binary_middle_endian", 1), "unsupported PLY format"},
		{"index out of range", header + "0 0 0\n1 0 0\n0 1 0\n3 0 1 7\n", "references vertex 7"},
		{"too few indices", header + "0 0 0\n1 0 0\n0 1 0\n2 0 1\n", "has 2 vertices"},
		{"truncated body", header + "0 0 0\n1 0 0\n", "failed to read PLY data"},
		{"bad number", header + "0 0 zero\n1 0 0\n0 1 0\n3 0 1 2\n", "invalid"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ReadPLY(strings.NewReader(tt.src))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoadPLY_MissingFile(t *testing.T) {
	_, err := LoadPLY(filepath.Join(t.TempDir(), "missing.ply"))
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)
}
