package index

import (
	"fmt"
	"math"

	"github.com/RoaringBitmap/roaring/v2"
)

// Epsilon keeps cosine similarity finite when either vector is all zeros.
const Epsilon = 1e-8

// Vector is a fixed-width binary term-presence vector. Set positions are kept in a
// Roaring bitmap; the width is the size of the vocabulary it was encoded against.
type Vector struct {
	width int
	bits  *roaring.Bitmap
}

// Matrix holds one vector per record, in record insertion order.
type Matrix []Vector

// NewVector returns an all-zero vector of the given width.
func NewVector(width int) Vector {
	return Vector{width: width, bits: roaring.New()}
}

// VectorFromDense builds a vector from a 0/1 slice. Any non-zero entry counts as set.
func VectorFromDense(dense []uint8) Vector {
	v := NewVector(len(dense))
	for i, x := range dense {
		if x != 0 {
			v.bits.Add(uint32(i))
		}
	}
	return v
}

// Width returns the number of positions in v.
func (v Vector) Width() int { return v.width }

// Ones returns the number of set positions, which is also the squared L2 norm.
func (v Vector) Ones() int {
	if v.bits == nil {
		return 0
	}
	return int(v.bits.GetCardinality())
}

// Positions returns the set positions in ascending order.
func (v Vector) Positions() []int {
	if v.bits == nil {
		return []int{}
	}
	out := make([]int, 0, v.Ones())
	it := v.bits.Iterator()
	for it.HasNext() {
		out = append(out, int(it.Next()))
	}
	return out
}

// Dense expands v to a 0/1 slice of length Width.
func (v Vector) Dense() []uint8 {
	out := make([]uint8, v.width)
	for _, p := range v.Positions() {
		out[p] = 1
	}
	return out
}

// Equal reports whether a and b have the same width and the same set positions.
func (v Vector) Equal(o Vector) bool {
	if v.width != o.width {
		return false
	}
	if v.Ones() != o.Ones() {
		return false
	}
	if v.Ones() == 0 {
		return true
	}
	return v.bits.Equals(o.bits)
}

// Encode turns text into a binary vector over vocab. Tokens missing from vocab are ignored
// and repeated tokens set their position once; term frequency is not captured.
func Encode(text string, vocab Vocabulary) (Vector, error) {
	toks, err := Normalize(text)
	if err != nil {
		return Vector{}, err
	}
	v := NewVector(vocab.Len())
	for _, t := range toks {
		if i, ok := vocab.Index(t); ok {
			v.bits.Add(uint32(i))
		}
	}
	return v, nil
}

// EncodeAll encodes every text against vocab, preserving order.
func EncodeAll(texts []string, vocab Vocabulary) (Matrix, error) {
	m := make(Matrix, 0, len(texts))
	for i, t := range texts {
		v, err := Encode(t, vocab)
		if err != nil {
			return nil, fmt.Errorf("cannot encode item %d: %w", i, err)
		}
		m = append(m, v)
	}
	return m, nil
}

// Cosine computes dot(a,b) / (|a|*|b| + Epsilon) for two vectors of equal width.
func Cosine(a, b Vector) (float64, error) {
	if a.width != b.width {
		return 0, ErrVectorLengthMismatch
	}
	na, nb := a.Ones(), b.Ones()
	if na == 0 || nb == 0 {
		return 0, nil
	}
	dot := float64(a.bits.AndCardinality(b.bits))
	return dot / (math.Sqrt(float64(na))*math.Sqrt(float64(nb)) + Epsilon), nil
}
