// Package stats implements the single-pass MinMax/GCD/distinct-value
// statistics tracker of spec.md §4.1. There is no direct precedent for
// this accumulation loop elsewhere in this codebase (a dictionary/GCD
// feasibility pass is specific to doc-values encoding), so it is new
// code; the distinct-value cap uses a bloom-filter pre-check the same
// way PriyanshuSharma23-FlashLog's SST writer uses one as a fast
// not-present check ahead of an exact lookup.
package stats

import (
	"github.com/bits-and-blooms/bloom/v3"
	"github.com/dvwriter/dvcodec/cursor"
	"github.com/dvwriter/dvcodec/internal/bitpack"
)

// distinctCap is the maximum number of distinct values tracked before
// the dictionary-encoding path is permanently disabled for the field
// (spec.md §4.1).
const distinctCap = 256

// overflowMagnitude aborts GCD tracking once any value's magnitude
// exceeds this bound, to avoid overflow in the v - firstValue
// subtraction (spec.md §4.1).
const overflowMagnitude = int64(1) << 62

// blockShift is the default log2 block size for per-block min/max
// accounting (spec.md §4.1, format.NumericBlockShift).
const blockShift = 14
const blockSize = 1 << blockShift

// Block holds the min/max of one fixed-size window of values.
type Block struct {
	Min, Max int64
}

// Stats is the accumulated result of one statistics pass over a
// DocValues cursor.
type Stats struct {
	DocsWithValue int
	NumValues     int64
	Min, Max      int64
	GCD           int64

	// Distinct holds up to distinctCap distinct values seen, sorted
	// ascending once Finalize is called. Nil once the cap is exceeded
	// (spec.md §4.1: "the set pointer nulled").
	Distinct []int64

	Blocks []Block

	// SpaceInBitsBlocks and SpaceInBitsSingle are the estimated total
	// bit costs of block-wise vs. whole-field bit-packing, used by the
	// numeric mode selector (spec.md §4.1, §4.2).
	SpaceInBitsBlocks int64
	SpaceInBitsSingle int64

	distinctSet map[int64]struct{}
	distinctOK  bool
	filter      *bloom.BloomFilter

	haveFirst  bool
	firstValue int64
	gcdBroken  bool

	blockIdx       int
	blockHaveFirst bool
	blockMin       int64
	blockMax       int64
	blockCount     int
}

// New creates a tracker ready to accumulate a single pass.
func New() *Stats {
	return &Stats{
		GCD:         0,
		distinctSet: make(map[int64]struct{}, distinctCap),
		distinctOK:  true,
		filter:      bloom.NewWithEstimates(distinctCap, 0.01),
	}
}

// Scan runs a full pass over c, accumulating statistics, then finalizes
// and returns them. The caller is responsible for requesting a fresh
// cursor for the subsequent data-writing pass (spec.md §9).
func Scan(c cursor.DocValues) *Stats {
	s := New()

	for {
		_, ok := c.NextDoc()
		if !ok {
			break
		}

		n := c.ValueCount()
		if n > 0 {
			s.DocsWithValue++
		}

		for i := 0; i < n; i++ {
			s.observe(c.NextValue())
		}
	}

	s.finalize()

	return s
}

func (s *Stats) observe(v int64) {
	if s.NumValues == 0 {
		s.Min, s.Max = v, v
	} else {
		if v < s.Min {
			s.Min = v
		}
		if v > s.Max {
			s.Max = v
		}
	}
	s.NumValues++

	s.observeGCD(v)
	s.observeDistinct(v)
	s.observeBlock(v)
}

func (s *Stats) observeGCD(v int64) {
	if s.gcdBroken {
		return
	}

	if !s.haveFirst {
		s.haveFirst = true
		s.firstValue = v

		return
	}

	if abs64(v) > overflowMagnitude || abs64(s.firstValue) > overflowMagnitude {
		s.gcdBroken = true
		s.GCD = 1

		return
	}

	delta := v - s.firstValue
	s.GCD = gcd(s.GCD, delta)
}

// observeDistinct tracks the distinct-value set, capped at distinctCap
// (spec.md §4.1). The bloom filter serves purely as a fast
// definitely-not-seen check: on a negative test we skip the exact map
// lookup and insert directly, the same "fast not-present check" role it
// plays ahead of FlashLog's SST key lookups. A positive test still falls
// through to the exact map, since bloom filters admit false positives.
func (s *Stats) observeDistinct(v int64) {
	if !s.distinctOK {
		return
	}

	key := []byte{
		byte(v), byte(v >> 8), byte(v >> 16), byte(v >> 24),
		byte(v >> 32), byte(v >> 40), byte(v >> 48), byte(v >> 56),
	}

	if s.filter.Test(key) {
		if _, seen := s.distinctSet[v]; seen {
			return
		}
	}

	if len(s.distinctSet) >= distinctCap {
		s.distinctOK = false
		s.distinctSet = nil

		return
	}

	s.filter.Add(key)
	s.distinctSet[v] = struct{}{}
}

func (s *Stats) observeBlock(v int64) {
	if !s.blockHaveFirst {
		s.blockHaveFirst = true
		s.blockMin, s.blockMax = v, v
	} else {
		if v < s.blockMin {
			s.blockMin = v
		}
		if v > s.blockMax {
			s.blockMax = v
		}
	}

	s.blockCount++
	if s.blockCount == blockSize {
		s.flushBlock()
	}
}

func (s *Stats) flushBlock() {
	if s.blockCount == 0 {
		return
	}

	s.Blocks = append(s.Blocks, Block{Min: s.blockMin, Max: s.blockMax})
	s.SpaceInBitsBlocks += bitsFor(s.blockMax-s.blockMin) * int64(s.blockCount)

	s.blockHaveFirst = false
	s.blockMin, s.blockMax = 0, 0
	s.blockCount = 0
}

func (s *Stats) finalize() {
	s.flushBlock()

	if s.distinctOK {
		s.Distinct = make([]int64, 0, len(s.distinctSet))
		for v := range s.distinctSet {
			s.Distinct = append(s.Distinct, v)
		}
		sortInt64s(s.Distinct)
	}

	if s.GCD == 0 {
		// No values observed or all values equal firstValue: GCD is
		// undefined but treated as 1 so downstream math is safe.
		s.GCD = 1
	}
	if s.GCD < 0 {
		s.GCD = -s.GCD
	}

	s.SpaceInBitsSingle = bitsFor(s.Max-s.Min) * s.NumValues
}

// bitsFor returns ceil(log2(span+1)) bits needed to pack a value range
// of width span (spec.md §4.1). Delegates to bitpack.BitsRequired, the
// same bit-width formula the numeric encoder uses to size its packed
// payload, so the statistics pass and the encoder never disagree.
func bitsFor(span int64) int64 {
	if span <= 0 {
		return 0
	}

	return int64(bitpack.BitsRequired(uint64(span)))
}

func abs64(v int64) int64 {
	if v < 0 {
		return -v
	}

	return v
}

func gcd(a, b int64) int64 {
	a, b = abs64(a), abs64(b)
	for b != 0 {
		a, b = b, a%b
	}

	return a
}

func sortInt64s(s []int64) {
	// Small, capped at distinctCap; insertion sort keeps this
	// allocation-free and avoids pulling in sort for a <=256 element
	// slice on every field.
	for i := 1; i < len(s); i++ {
		v := s[i]
		j := i - 1
		for j >= 0 && s[j] > v {
			s[j+1] = s[j]
			j--
		}
		s[j+1] = v
	}
}
