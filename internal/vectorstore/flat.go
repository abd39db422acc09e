package vectorstore

import (
	"bufio"
	"cmp"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"slices"

	"docqa/internal/apperrors"
)

const (
	flatMagic   = "DQVI"
	flatVersion = 1

	// maxFlatValues bounds the allocation made from an untrusted header.
	maxFlatValues = 1 << 31
)

// ErrDimensionMismatch is returned when a vector's length differs from the index dimension.
var ErrDimensionMismatch = errors.New("vector dimension mismatch")

// flatHeader is the fixed-size prefix of the index file.
type flatHeader struct {
	Magic     [4]byte
	Version   uint32
	Dimension uint32
	Rows      uint64
}

// Neighbor is one result of a FlatIndex search.
type Neighbor struct {
	Row      int
	Distance float32
}

// FlatIndex is an append-only, exact Euclidean nearest-neighbour index.
// Row i is the i-th vector added.
type FlatIndex struct {
	dim  int
	data []float32
}

// NewFlatIndex creates an empty index for vectors of dimension dim.
func NewFlatIndex(dim int) (*FlatIndex, error) {
	if dim <= 0 {
		return nil, fmt.Errorf("index dimension must be positive, got %d", dim)
	}
	return &FlatIndex{dim: dim}, nil
}

// Dim returns the vector dimension.
func (f *FlatIndex) Dim() int { return f.dim }

// Len returns the number of stored vectors.
func (f *FlatIndex) Len() int { return len(f.data) / f.dim }

// Add appends vec as the next row.
func (f *FlatIndex) Add(vec []float32) error {
	if len(vec) != f.dim {
		return fmt.Errorf("%w: got %d, want %d", ErrDimensionMismatch, len(vec), f.dim)
	}
	f.data = append(f.data, vec...)
	return nil
}

// Vector returns row i. The returned slice aliases the index storage.
func (f *FlatIndex) Vector(i int) []float32 {
	return f.data[i*f.dim : (i+1)*f.dim : (i+1)*f.dim]
}

// Search returns up to k rows ordered by ascending distance to query,
// ties broken by row. k larger than Len returns every row.
func (f *FlatIndex) Search(query []float32, k int) ([]Neighbor, error) {
	if len(query) != f.dim {
		return nil, fmt.Errorf("%w: got %d, want %d", ErrDimensionMismatch, len(query), f.dim)
	}
	n := f.Len()
	if k <= 0 || n == 0 {
		return []Neighbor{}, nil
	}

	all := make([]Neighbor, n)
	for i := range n {
		all[i] = Neighbor{Row: i, Distance: euclidean(query, f.Vector(i))}
	}
	slices.SortFunc(all, func(a, b Neighbor) int {
		if c := cmp.Compare(a.Distance, b.Distance); c != 0 {
			return c
		}
		return cmp.Compare(a.Row, b.Row)
	})

	return all[:min(k, n)], nil
}

func euclidean(a, b []float32) float32 {
	var sum float64
	for i := range a {
		d := float64(a[i]) - float64(b[i])
		sum += d * d
	}
	return float32(math.Sqrt(sum))
}

// WriteTo encodes the index as a header followed by little-endian float32 rows.
func (f *FlatIndex) WriteTo(w io.Writer) (int64, error) {
	bw := bufio.NewWriter(w)
	hdr := flatHeader{
		Version:   flatVersion,
		Dimension: uint32(f.dim),
		Rows:      uint64(f.Len()),
	}
	copy(hdr.Magic[:], flatMagic)

	if err := binary.Write(bw, binary.LittleEndian, hdr); err != nil {
		return 0, fmt.Errorf("failed to write index header: %w", err)
	}
	if err := binary.Write(bw, binary.LittleEndian, f.data); err != nil {
		return 0, fmt.Errorf("failed to write index vectors: %w", err)
	}
	if err := bw.Flush(); err != nil {
		return 0, fmt.Errorf("failed to flush index: %w", err)
	}
	return int64(binary.Size(hdr)) + int64(len(f.data))*4, nil
}

// ReadFlatIndex decodes an index written by WriteTo. Malformed input yields ErrCorruption.
func ReadFlatIndex(r io.Reader) (*FlatIndex, error) {
	br := bufio.NewReader(r)

	var hdr flatHeader
	if err := binary.Read(br, binary.LittleEndian, &hdr); err != nil {
		return nil, apperrors.Wrap(apperrors.ErrCorruption, err, "failed to read index header")
	}
	if string(hdr.Magic[:]) != flatMagic {
		return nil, apperrors.New(apperrors.ErrCorruption, "bad index magic %q", hdr.Magic[:])
	}
	if hdr.Version != flatVersion {
		return nil, apperrors.New(apperrors.ErrCorruption, "unsupported index version %d", hdr.Version)
	}
	if hdr.Dimension == 0 {
		return nil, apperrors.New(apperrors.ErrCorruption, "index dimension is zero")
	}
	if hdr.Rows > maxFlatValues/uint64(hdr.Dimension) {
		return nil, apperrors.New(apperrors.ErrCorruption, "index too large: %d rows of dimension %d", hdr.Rows, hdr.Dimension)
	}

	data := make([]float32, hdr.Rows*uint64(hdr.Dimension))
	if err := binary.Read(br, binary.LittleEndian, data); err != nil {
		return nil, apperrors.Wrap(apperrors.ErrCorruption, err, "failed to read index vectors")
	}
	if _, err := br.ReadByte(); !errors.Is(err, io.EOF) {
		return nil, apperrors.New(apperrors.ErrCorruption, "trailing data after %d index rows", hdr.Rows)
	}

	return &FlatIndex{dim: int(hdr.Dimension), data: data}, nil
}
