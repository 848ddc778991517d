package loaders

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/df07/go-voxel-raytracer/pkg/core"
	"github.com/df07/go-voxel-raytracer/pkg/geometry"
)

// PLYHeader represents the parsed header information from a PLY file
type PLYHeader struct {
	Format   string // "binary_little_endian", "binary_big_endian", or "ascii"
	Version  string // Usually "1.0"
	Elements []PLYElement

	// Property detection flags
	HasNormals bool

	// Property indices within the vertex element
	PositionIndices [3]int // Indices of x, y, z properties
	NormalIndices   [3]int // Indices of nx, ny, nz properties
}

// PLYElement is one element declaration with its properties, in file order
type PLYElement struct {
	Name  string
	Count int
	Props []PLYProperty
}

// PLYProperty represents a property definition in the PLY header
type PLYProperty struct {
	Name     string
	Type     string
	IsList   bool
	ListType string // For list properties, the type of the count
	DataType string // For list properties, the type of the data
}

// Element returns the named element, or nil
func (h *PLYHeader) Element(name string) *PLYElement {
	for i := range h.Elements {
		if h.Elements[i].Name == name {
			return &h.Elements[i]
		}
	}
	return nil
}

// plyData contains the raw data loaded from a PLY file
type plyData struct {
	Vertices []core.Vec3
	Normals  []core.Vec3 // Per-vertex normals - empty if not present
	Faces    [][]int     // Vertex indices per polygon
}

// LoadPLY loads a PLY file as triangles. ASCII and both binary byte orders
// are read; polygons with more than three vertices are split into a fan
// around their first vertex.
func LoadPLY(filename string) ([]geometry.Triangle, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to open PLY file: %w", err)
	}
	defer file.Close()

	return ReadPLY(file)
}

// ReadPLY reads PLY data from r as triangles
func ReadPLY(r io.Reader) ([]geometry.Triangle, error) {
	reader := bufio.NewReaderSize(r, 1024*1024) // 1MB buffer

	header, err := parsePLYHeader(reader)
	if err != nil {
		return nil, fmt.Errorf("failed to parse PLY header: %w", err)
	}

	var values plyValueReader
	switch header.Format {
	case "binary_little_endian":
		values = &plyBinaryReader{r: reader, order: binary.LittleEndian}
	case "binary_big_endian":
		values = &plyBinaryReader{r: reader, order: binary.BigEndian}
	case "ascii":
		scanner := bufio.NewScanner(reader)
		scanner.Split(bufio.ScanWords)
		values = &plyASCIIReader{scanner: scanner}
	default:
		return nil, fmt.Errorf("unsupported PLY format: %s", header.Format)
	}

	data, err := readPLYBody(values, header)
	if err != nil {
		return nil, fmt.Errorf("failed to read PLY data: %w", err)
	}
	return data.triangles()
}

// parsePLYHeader reads the header up to and including end_header, leaving
// the reader at the first byte of the body
func parsePLYHeader(reader *bufio.Reader) (*PLYHeader, error) {
	header := &PLYHeader{PositionIndices: [3]int{-1, -1, -1}}
	var current *PLYElement
	normals := 0

	for lineNumber := 1; ; lineNumber++ {
		raw, err := reader.ReadString('\n')
		if err != nil && err != io.EOF {
			return nil, fmt.Errorf("error reading header: %w", err)
		}
		if err == io.EOF && raw == "" {
			return nil, fmt.Errorf("header ended without end_header")
		}
		line := strings.TrimSpace(raw)

		if lineNumber == 1 {
			if line != "ply" {
				return nil, fmt.Errorf("missing ply magic number")
			}
			continue
		}
		if line == "end_header" {
			break
		}
		if err == io.EOF {
			return nil, fmt.Errorf("header ended without end_header")
		}

		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}

		switch parts[0] {
		case "format":
			if len(parts) < 3 {
				return nil, fmt.Errorf("invalid format line: %q", line)
			}
			header.Format = parts[1]
			header.Version = parts[2]
		case "comment", "obj_info":
			// Ignore comments
		case "element":
			if len(parts) < 3 {
				return nil, fmt.Errorf("invalid element line: %q", line)
			}
			count, err := strconv.Atoi(parts[2])
			if err != nil || count < 0 {
				return nil, fmt.Errorf("invalid element count: %s", parts[2])
			}
			header.Elements = append(header.Elements, PLYElement{Name: parts[1], Count: count})
			current = &header.Elements[len(header.Elements)-1]
		case "property":
			if current == nil {
				return nil, fmt.Errorf("property before any element: %q", line)
			}
			prop, err := parsePLYProperty(parts[1:])
			if err != nil {
				return nil, fmt.Errorf("failed to parse property: %w", err)
			}
			current.Props = append(current.Props, prop)

			if current.Name == "vertex" && !prop.IsList {
				propIndex := len(current.Props) - 1
				switch prop.Name {
				case "x":
					header.PositionIndices[0] = propIndex
				case "y":
					header.PositionIndices[1] = propIndex
				case "z":
					header.PositionIndices[2] = propIndex
				case "nx":
					header.NormalIndices[0] = propIndex
					normals++
				case "ny":
					header.NormalIndices[1] = propIndex
					normals++
				case "nz":
					header.NormalIndices[2] = propIndex
					normals++
				}
			}
		default:
			return nil, fmt.Errorf("unexpected header line: %q", line)
		}
	}

	if header.Format == "" {
		return nil, fmt.Errorf("missing format line")
	}
	if header.Element("vertex") == nil || header.Element("face") == nil {
		return nil, fmt.Errorf("vertex and face elements are required")
	}
	for _, index := range header.PositionIndices {
		if index < 0 {
			return nil, fmt.Errorf("vertex element lacks x, y or z")
		}
	}
	header.HasNormals = normals == 3
	return header, nil
}

// parsePLYProperty parses a property line from the PLY header
func parsePLYProperty(parts []string) (PLYProperty, error) {
	if len(parts) < 2 {
		return PLYProperty{}, fmt.Errorf("invalid property definition")
	}

	prop := PLYProperty{}

	if parts[0] == "list" {
		if len(parts) < 4 {
			return PLYProperty{}, fmt.Errorf("invalid list property definition")
		}
		prop.IsList = true
		prop.ListType = parts[1]
		prop.DataType = parts[2]
		prop.Name = parts[3]
		if getTypeSize(prop.ListType) == 0 || getTypeSize(prop.DataType) == 0 {
			return PLYProperty{}, fmt.Errorf("unsupported list types: %s %s", prop.ListType, prop.DataType)
		}
	} else {
		prop.Type = parts[0]
		prop.Name = parts[1]
		if getTypeSize(prop.Type) == 0 {
			return PLYProperty{}, fmt.Errorf("unsupported data type: %s", prop.Type)
		}
	}

	return prop, nil
}

// readPLYBody reads every element in header order, keeping vertices and faces
func readPLYBody(values plyValueReader, header *PLYHeader) (*plyData, error) {
	data := &plyData{}

	for _, element := range header.Elements {
		switch element.Name {
		case "vertex":
			data.Vertices = make([]core.Vec3, 0, element.Count)
			if header.HasNormals {
				data.Normals = make([]core.Vec3, 0, element.Count)
			}
		case "face":
			data.Faces = make([][]int, 0, element.Count)
		}

		row := make([]float64, len(element.Props))
		for i := 0; i < element.Count; i++ {
			var indices []int
			for j, prop := range element.Props {
				if !prop.IsList {
					value, err := values.scalar(prop.Type)
					if err != nil {
						return nil, fmt.Errorf("failed to read %s property %s at %s %d: %w", prop.Type, prop.Name, element.Name, i, err)
					}
					row[j] = value
					continue
				}

				count, err := values.scalar(prop.ListType)
				if err != nil {
					return nil, fmt.Errorf("failed to read list count for %s at %s %d: %w", prop.Name, element.Name, i, err)
				}
				keep := element.Name == "face" && (prop.Name == "vertex_indices" || prop.Name == "vertex_index")
				for k := 0; k < int(count); k++ {
					value, err := values.scalar(prop.DataType)
					if err != nil {
						return nil, fmt.Errorf("failed to read list %s at %s %d: %w", prop.Name, element.Name, i, err)
					}
					if keep {
						indices = append(indices, int(value))
					}
				}
			}

			switch element.Name {
			case "vertex":
				p := header.PositionIndices
				data.Vertices = append(data.Vertices, core.NewVec3(row[p[0]], row[p[1]], row[p[2]]))
				if header.HasNormals {
					n := header.NormalIndices
					data.Normals = append(data.Normals, core.NewVec3(row[n[0]], row[n[1]], row[n[2]]))
				}
			case "face":
				data.Faces = append(data.Faces, indices)
			}
		}
	}
	return data, nil
}

// triangles converts polygons into triangles. The face normal is the mean
// of the vertex normals when the file has them, otherwise the winding normal.
func (d *plyData) triangles() ([]geometry.Triangle, error) {
	triangles := make([]geometry.Triangle, 0, len(d.Faces))
	for i, face := range d.Faces {
		if len(face) < 3 {
			return nil, fmt.Errorf("face %d has %d vertices", i, len(face))
		}
		for _, index := range face {
			if index < 0 || index >= len(d.Vertices) {
				return nil, fmt.Errorf("face %d references vertex %d of %d", i, index, len(d.Vertices))
			}
		}

		for k := 1; k+1 < len(face); k++ {
			a, b, c := face[0], face[k], face[k+1]
			var normal core.Vec3
			if len(d.Normals) > 0 {
				normal = d.Normals[a].Add(d.Normals[b]).Add(d.Normals[c]).Normalize()
			}
			triangles = append(triangles, geometry.NewTriangle(d.Vertices[a], d.Vertices[b], d.Vertices[c], normal))
		}
	}
	return triangles, nil
}

// plyValueReader yields successive scalar values of the body
type plyValueReader interface {
	scalar(dataType string) (float64, error)
}

type plyBinaryReader struct {
	r     *bufio.Reader
	order binary.ByteOrder
	buf   [8]byte
}

func (b *plyBinaryReader) scalar(dataType string) (float64, error) {
	size := getTypeSize(dataType)
	if size == 0 {
		return 0, fmt.Errorf("unsupported data type: %s", dataType)
	}
	data := b.buf[:size]
	if _, err := io.ReadFull(b.r, data); err != nil {
		return 0, err
	}

	switch dataType {
	case "char", "int8":
		return float64(int8(data[0])), nil
	case "uchar", "uint8":
		return float64(data[0]), nil
	case "short", "int16":
		return float64(int16(b.order.Uint16(data))), nil
	case "ushort", "uint16":
		return float64(b.order.Uint16(data)), nil
	case "int", "int32":
		return float64(int32(b.order.Uint32(data))), nil
	case "uint", "uint32":
		return float64(b.order.Uint32(data)), nil
	case "float", "float32":
		return float64(math.Float32frombits(b.order.Uint32(data))), nil
	default: // double
		return math.Float64frombits(b.order.Uint64(data)), nil
	}
}

type plyASCIIReader struct {
	scanner *bufio.Scanner
}

func (a *plyASCIIReader) scalar(dataType string) (float64, error) {
	if !a.scanner.Scan() {
		if err := a.scanner.Err(); err != nil {
			return 0, err
		}
		return 0, io.ErrUnexpectedEOF
	}
	value, err := strconv.ParseFloat(a.scanner.Text(), 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s value %q", dataType, a.scanner.Text())
	}
	return value, nil
}

// getTypeSize returns the size in bytes of a PLY data type, or 0 if unknown
func getTypeSize(dataType string) int {
	switch dataType {
	case "float", "float32", "int", "int32", "uint", "uint32":
		return 4
	case "double", "float64":
		return 8
	case "short", "int16", "ushort", "uint16":
		return 2
	case "char", "int8", "uchar", "uint8":
		return 1
	default:
		return 0
	}
}
