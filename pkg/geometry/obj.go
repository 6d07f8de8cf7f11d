package geometry

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/go-gl/mathgl/mgl32"
)

// FaceIndex points into a Model's vertex, uv and normal lists. Indices are
// zero-based; -1 marks an absent uv or normal.
type FaceIndex struct {
	Vertex, UV, Normal int
}

type Group struct {
	Name  string
	Faces [][]FaceIndex
}

// Model is a parsed Wavefront OBJ file. Only geometry statements are read;
// materials, smoothing groups and free-form surfaces are ignored.
type Model struct {
	Positions []mgl32.Vec3
	Normals   []mgl32.Vec3
	UVs       []mgl32.Vec2
	Groups    []Group
	// Center is the mean of all positions.
	Center mgl32.Vec3
}

// ParseOBJ reads an OBJ model. Relative (negative) indices are resolved
// against the elements read so far.
func ParseOBJ(r io.Reader) (*Model, error) {
	m := &Model{}
	cur := Group{}
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1<<20)
	line := 0
	for sc.Scan() {
		line++
		fields := strings.Fields(sc.Text())
		if len(fields) == 0 || strings.HasPrefix(fields[0], "#") {
			continue
		}
		var err error
		switch fields[0] {
		case "v":
			var v mgl32.Vec3
			v, err = parseVec3(fields[1:])
			m.Positions = append(m.Positions, v)
			m.Center = m.Center.Add(v)
		case "vn":
			var v mgl32.Vec3
			v, err = parseVec3(fields[1:])
			m.Normals = append(m.Normals, v)
		case "vt":
			var v mgl32.Vec2
			v, err = parseVec2(fields[1:])
			m.UVs = append(m.UVs, v)
		case "g", "o":
			if len(cur.Faces) > 0 {
				m.Groups = append(m.Groups, cur)
			}
			name := "unnamed"
			if len(fields) > 1 {
				name = fields[1]
			}
			cur = Group{Name: name}
		case "f":
			var face []FaceIndex
			face, err = m.parseFace(fields[1:])
			cur.Faces = append(cur.Faces, face)
		}
		if err != nil {
			return nil, fmt.Errorf("obj line %d: %w", line, err)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("obj: %w", err)
	}
	if len(cur.Faces) > 0 {
		m.Groups = append(m.Groups, cur)
	}
	if len(m.Positions) > 0 {
		m.Center = m.Center.Mul(1 / float32(len(m.Positions)))
	}
	return m, nil
}

func parseFloats(fields []string, dst []float32) error {
	for i := range dst {
		if i >= len(fields) {
			break
		}
		f, err := strconv.ParseFloat(fields[i], 32)
		if err != nil {
			return err
		}
		dst[i] = float32(f)
	}
	return nil
}

func parseVec3(fields []string) (mgl32.Vec3, error) {
	var v mgl32.Vec3
	err := parseFloats(fields, v[:])
	return v, err
}

func parseVec2(fields []string) (mgl32.Vec2, error) {
	var v mgl32.Vec2
	err := parseFloats(fields, v[:])
	return v, err
}

func (m *Model) parseFace(fields []string) ([]FaceIndex, error) {
	if len(fields) < 3 {
		return nil, fmt.Errorf("face with %d vertices", len(fields))
	}
	face := make([]FaceIndex, 0, len(fields))
	for _, f := range fields {
		parts := strings.Split(f, "/")
		idx := FaceIndex{UV: -1, Normal: -1}
		var err error
		if idx.Vertex, err = resolve(parts[0], len(m.Positions)); err != nil {
			return nil, err
		}
		if len(parts) > 1 && parts[1] != "" {
			if idx.UV, err = resolve(parts[1], len(m.UVs)); err != nil {
				return nil, err
			}
		}
		if len(parts) > 2 && parts[2] != "" {
			if idx.Normal, err = resolve(parts[2], len(m.Normals)); err != nil {
				return nil, err
			}
		}
		face = append(face, idx)
	}
	return face, nil
}

func resolve(token string, count int) (int, error) {
	i, err := strconv.Atoi(token)
	if err != nil {
		return 0, err
	}
	switch {
	case i > 0 && i <= count:
		return i - 1, nil
	case i < 0 && -i <= count:
		return count + i, nil
	default:
		return 0, fmt.Errorf("index %d out of range (%d elements)", i, count)
	}
}

// Vertices triangulates every face as a fan, with positions moved so the
// model is centered on the origin. Faces without normals get their flat
// Newell normal.
func (m *Model) Vertices() []Vertex {
	var out []Vertex
	for _, g := range m.Groups {
		for _, face := range g.Faces {
			vs := make([]Vertex, len(face))
			points := make([]mgl32.Vec3, len(face))
			for i, idx := range face {
				points[i] = m.Positions[idx.Vertex].Sub(m.Center)
				vs[i].Position = points[i]
				if idx.UV >= 0 {
					vs[i].UV = m.UVs[idx.UV]
				}
			}
			flat := Newell(points...)
			for i, idx := range face {
				if idx.Normal >= 0 {
					vs[i].Normal = m.Normals[idx.Normal]
				} else {
					vs[i].Normal = flat
				}
			}
			for i := 1; i+1 < len(vs); i++ {
				out = append(out, vs[0], vs[i], vs[i+1])
			}
		}
	}
	return out
}
