// Package terrain stores the vertex height map the track network is built
// on. Generation is done elsewhere; this package only answers bounds,
// height and water queries.
package terrain

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"railcraft.ai/internal/sim/geometry"
)

// Map is a Width x Depth tile grid with (Width+1) x (Depth+1) vertex heights.
type Map struct {
	Width    int
	Depth    int
	SeaLevel int

	heights []int
}

// Flat builds a map whose every vertex sits at height.
func Flat(width, depth, height, seaLevel int) *Map {
	m := &Map{Width: width, Depth: depth, SeaLevel: seaLevel}
	m.heights = make([]int, (width+1)*(depth+1))
	for i := range m.heights {
		m.heights[i] = height
	}
	return m
}

// FromHeights wraps an existing vertex height slice, as stored in snapshots.
func FromHeights(width, depth, seaLevel int, heights []int) (*Map, error) {
	if width <= 0 || depth <= 0 {
		return nil, fmt.Errorf("bad map size %dx%d", width, depth)
	}
	if len(heights) != (width+1)*(depth+1) {
		return nil, fmt.Errorf("heights: got %d values, want %d", len(heights), (width+1)*(depth+1))
	}
	h := make([]int, len(heights))
	copy(h, heights)
	return &Map{Width: width, Depth: depth, SeaLevel: seaLevel, heights: h}, nil
}

// ParseHeightmap reads whitespace separated vertex heights, one vertex row
// per line, north to south.
func ParseHeightmap(r io.Reader, seaLevel int) (*Map, error) {
	var rows [][]int
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.Fields(line)
		row := make([]int, 0, len(fields))
		for _, f := range fields {
			v, err := strconv.Atoi(f)
			if err != nil {
				return nil, fmt.Errorf("heightmap row %d: %w", len(rows), err)
			}
			row = append(row, v)
		}
		if len(rows) > 0 && len(row) != len(rows[0]) {
			return nil, fmt.Errorf("heightmap row %d: %d values, want %d", len(rows), len(row), len(rows[0]))
		}
		rows = append(rows, row)
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	if len(rows) < 2 || len(rows[0]) < 2 {
		return nil, fmt.Errorf("heightmap needs at least 2x2 vertices")
	}
	heights := make([]int, 0, len(rows)*len(rows[0]))
	for _, row := range rows {
		heights = append(heights, row...)
	}
	return FromHeights(len(rows[0])-1, len(rows)-1, seaLevel, heights)
}

// Heights returns a copy of the raw vertex heights, row-major.
func (m *Map) Heights() []int {
	out := make([]int, len(m.heights))
	copy(out, m.heights)
	return out
}

func (m *Map) InBounds(t geometry.TileCoords) bool {
	return t.X >= 0 && t.Z >= 0 && t.X < m.Width && t.Z < m.Depth
}

func (m *Map) vertexIndex(v geometry.VertexCoords) (int, bool) {
	if v.X < 0 || v.Z < 0 || v.X > m.Width || v.Z > m.Depth {
		return 0, false
	}
	return v.Z*(m.Width+1) + v.X, true
}

// VertexHeight returns the height at v; false when v is off the map.
func (m *Map) VertexHeight(v geometry.VertexCoords) (int, bool) {
	i, ok := m.vertexIndex(v)
	if !ok {
		return 0, false
	}
	return m.heights[i], true
}

func (m *Map) SetVertexHeight(v geometry.VertexCoords, h int) {
	if i, ok := m.vertexIndex(v); ok {
		m.heights[i] = h
	}
}

// SetTileHeight moves all four corners of t to h.
func (m *Map) SetTileHeight(t geometry.TileCoords, h int) {
	for _, v := range t.Vertices() {
		m.SetVertexHeight(v, h)
	}
}

// IsUnderwater reports whether any corner of t is below sea level. Tiles off
// the map count as water.
func (m *Map) IsUnderwater(t geometry.TileCoords) bool {
	for _, v := range t.Vertices() {
		h, ok := m.VertexHeight(v)
		if !ok || h < m.SeaLevel {
			return true
		}
	}
	return false
}

// Level reports whether every vertex in vs has the same height.
func (m *Map) Level(vs ...geometry.VertexCoords) bool {
	first := true
	want := 0
	for _, v := range vs {
		h, ok := m.VertexHeight(v)
		if !ok {
			return false
		}
		if first {
			want = h
			first = false
			continue
		}
		if h != want {
			return false
		}
	}
	return true
}
