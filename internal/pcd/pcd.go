// Package pcd decodes and encodes PCD v0.7 point cloud files, the
// per-submap file format produced by the simulation exporter. Only the
// xyz layout (three float32 fields) is supported, in both ascii and
// binary storage.
package pcd

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/num/quat"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/auvlib/mapstream/internal/submap"
)

// Cloud is the decoded content of a PCD file: the points plus the
// acquisition viewpoint, which carries the submap pose.
type Cloud struct {
	Points    *submap.PointCloud
	Viewpoint submap.Pose
}

type header struct {
	fields    []string
	sizes     []int
	types     []string
	width     int
	height    int
	points    int
	data      string
	viewpoint submap.Pose
}

// Decode reads one PCD file from r.
func Decode(r io.Reader) (*Cloud, error) {
	br := bufio.NewReader(r)

	h, err := decodeHeader(br)
	if err != nil {
		return nil, err
	}

	pc := submap.NewPointCloud(h.points)
	switch h.data {
	case "ascii":
		if err := decodeASCII(br, h.points, pc); err != nil {
			return nil, err
		}
	case "binary":
		if err := decodeBinary(br, h.points, pc); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("pcd: unsupported DATA storage %q", h.data)
	}

	return &Cloud{Points: pc, Viewpoint: h.viewpoint}, nil
}

func decodeHeader(br *bufio.Reader) (*header, error) {
	h := &header{
		height:    1,
		points:    -1,
		width:     -1,
		viewpoint: submap.IdentityPose(),
	}

	for {
		line, err := br.ReadString('\n')
		if err != nil {
			return nil, fmt.Errorf("pcd: truncated header: %w", err)
		}
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		parts := strings.Fields(line)
		key := strings.ToUpper(parts[0])
		args := parts[1:]

		switch key {
		case "VERSION":
			// Accepted but not enforced; every producer we read writes 0.7.
		case "FIELDS":
			h.fields = args
		case "SIZE":
			h.sizes = make([]int, len(args))
			for i, a := range args {
				h.sizes[i], err = strconv.Atoi(a)
				if err != nil {
					return nil, fmt.Errorf("pcd: bad SIZE %q", a)
				}
			}
		case "TYPE":
			h.types = args
		case "COUNT":
			// Accepted; only scalar fields reach the validated xyz layout.
		case "WIDTH":
			if h.width, err = headerCount(key, args); err != nil {
				return nil, err
			}
		case "HEIGHT":
			if h.height, err = headerCount(key, args); err != nil {
				return nil, err
			}
		case "VIEWPOINT":
			if err := parseViewpoint(args, h); err != nil {
				return nil, err
			}
		case "POINTS":
			if h.points, err = headerCount(key, args); err != nil {
				return nil, err
			}
		case "DATA":
			if len(args) != 1 {
				return nil, fmt.Errorf("pcd: bad DATA line %q", line)
			}
			h.data = strings.ToLower(args[0])
			return h, validateHeader(h)
		default:
			return nil, fmt.Errorf("pcd: unknown header entry %q", key)
		}
	}
}

// headerCount parses a single non-negative count entry (WIDTH, HEIGHT or
// POINTS). A bare key or a negative value is a format error, never a panic.
func headerCount(key string, args []string) (int, error) {
	if len(args) != 1 {
		return 0, fmt.Errorf("pcd: %s wants one value, got %d", key, len(args))
	}
	v, err := strconv.Atoi(args[0])
	if err != nil || v < 0 {
		return 0, fmt.Errorf("pcd: bad %s %q", key, args[0])
	}
	return v, nil
}

func parseViewpoint(args []string, h *header) error {
	if len(args) != 7 {
		return fmt.Errorf("pcd: VIEWPOINT wants 7 values, got %d", len(args))
	}
	vals := make([]float64, 7)
	for i, a := range args {
		v, err := strconv.ParseFloat(a, 64)
		if err != nil {
			return fmt.Errorf("pcd: bad VIEWPOINT value %q", a)
		}
		vals[i] = v
	}
	h.viewpoint = submap.Pose{
		Translation: r3.Vec{X: vals[0], Y: vals[1], Z: vals[2]},
		Rotation:    quat.Number{Real: vals[3], Imag: vals[4], Jmag: vals[5], Kmag: vals[6]},
	}
	return nil
}

func validateHeader(h *header) error {
	if len(h.fields) != 3 || h.fields[0] != "x" || h.fields[1] != "y" || h.fields[2] != "z" {
		return fmt.Errorf("pcd: unsupported FIELDS %v, want [x y z]", h.fields)
	}
	for _, s := range h.sizes {
		if s != 4 {
			return fmt.Errorf("pcd: unsupported field SIZE %d, want 4", s)
		}
	}
	for _, typ := range h.types {
		if typ != "F" {
			return fmt.Errorf("pcd: unsupported field TYPE %q, want F", typ)
		}
	}
	if h.points < 0 {
		if h.width < 0 {
			return fmt.Errorf("pcd: header missing POINTS and WIDTH")
		}
		h.points = h.width * h.height
	}
	return nil
}

func decodeASCII(br *bufio.Reader, points int, pc *submap.PointCloud) error {
	for i := 0; i < points; i++ {
		line, err := br.ReadString('\n')
		if err != nil && !(err == io.EOF && line != "") {
			return fmt.Errorf("pcd: truncated ascii data at point %d: %w", i, err)
		}
		fields := strings.Fields(line)
		if len(fields) != 3 {
			return fmt.Errorf("pcd: point %d has %d fields, want 3", i, len(fields))
		}
		var xyz [3]float32
		for j, f := range fields {
			v, err := strconv.ParseFloat(f, 32)
			if err != nil {
				return fmt.Errorf("pcd: bad coordinate %q at point %d", f, i)
			}
			xyz[j] = float32(v)
		}
		pc.Append(xyz[0], xyz[1], xyz[2])
	}
	return nil
}

func decodeBinary(br *bufio.Reader, points int, pc *submap.PointCloud) error {
	buf := make([]byte, points*12)
	if _, err := io.ReadFull(br, buf); err != nil {
		return fmt.Errorf("pcd: truncated binary data: %w", err)
	}
	for i := 0; i < points; i++ {
		off := i * 12
		pc.Append(
			math.Float32frombits(binary.LittleEndian.Uint32(buf[off:])),
			math.Float32frombits(binary.LittleEndian.Uint32(buf[off+4:])),
			math.Float32frombits(binary.LittleEndian.Uint32(buf[off+8:])),
		)
	}
	return nil
}

// Encode writes the cloud to w as a PCD v0.7 file. Used by tests and the
// export tooling; the live pipeline only decodes.
func Encode(w io.Writer, c *Cloud, binaryData bool) error {
	storage := "ascii"
	if binaryData {
		storage = "binary"
	}

	vp := c.Viewpoint
	n := c.Points.Len()
	_, err := fmt.Fprintf(w,
		"# .PCD v0.7 - Point Cloud Data file format\n"+
			"VERSION 0.7\nFIELDS x y z\nSIZE 4 4 4\nTYPE F F F\nCOUNT 1 1 1\n"+
			"WIDTH %d\nHEIGHT 1\nVIEWPOINT %g %g %g %g %g %g %g\nPOINTS %d\nDATA %s\n",
		n,
		vp.Translation.X, vp.Translation.Y, vp.Translation.Z,
		vp.Rotation.Real, vp.Rotation.Imag, vp.Rotation.Jmag, vp.Rotation.Kmag,
		n, storage)
	if err != nil {
		return err
	}

	if binaryData {
		buf := make([]byte, n*12)
		for i := 0; i < n; i++ {
			off := i * 12
			binary.LittleEndian.PutUint32(buf[off:], math.Float32bits(c.Points.X[i]))
			binary.LittleEndian.PutUint32(buf[off+4:], math.Float32bits(c.Points.Y[i]))
			binary.LittleEndian.PutUint32(buf[off+8:], math.Float32bits(c.Points.Z[i]))
		}
		_, err = w.Write(buf)
		return err
	}

	for i := 0; i < n; i++ {
		if _, err := fmt.Fprintf(w, "%g %g %g\n", c.Points.X[i], c.Points.Y[i], c.Points.Z[i]); err != nil {
			return err
		}
	}
	return nil
}
