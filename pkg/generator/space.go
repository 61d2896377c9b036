package generator

import (
	"math"
	"math/bits"
	"math/rand/v2"
	"strconv"
	"strings"

	"github.com/grovetools/promptgen/pkg/errors"
)

// space is the mixed-radix combination space of the dimensions. Tuple
// index 0 of a combination is the outermost loop; the last dimension varies
// fastest.
type space struct {
	radix    []int
	total    int64
	overflow bool
}

// newSpace builds the space of the given dimension sizes, outermost first.
func newSpace(radix []int) (*space, error) {
	s := &space{radix: radix, total: 1}
	for _, r := range radix {
		if s.overflow {
			continue
		}
		hi, lo := bits.Mul64(uint64(s.total), uint64(r))
		if hi != 0 || lo > math.MaxInt64 {
			s.overflow = true
			continue
		}
		s.total = int64(lo)
	}
	if s.overflow {
		return s, errors.New("the combination space is too large to enumerate")
	}
	return s, nil
}

func (s *space) String() string {
	if s.overflow {
		return "too many"
	}
	return strconv.FormatInt(s.total, 10)
}

// count is the number of tuples an output cap of max allows.
func (s *space) count(max int) int64 {
	if max > 0 && (s.overflow || int64(max) < s.total) {
		return int64(max)
	}
	return s.total
}

func (s *space) decode(i int64) []int {
	tuple := make([]int, len(s.radix))
	for d := len(s.radix) - 1; d >= 0; d-- {
		r := int64(s.radix[d])
		tuple[d] = int(i % r)
		i /= r
	}
	return tuple
}

// sequence returns the first tuples in odometer order.
func (s *space) sequence(max int) [][]int {
	n := s.count(max)
	out := make([][]int, 0, n)
	for i := int64(0); i < n; i++ {
		out = append(out, s.decode(i))
	}
	return out
}

// sample draws distinct tuples without replacement. The draw is a partial
// Fisher-Yates shuffle over tuple indices, kept sparse so that only the
// touched positions are stored.
func (s *space) sample(max int, rng *rand.Rand) [][]int {
	n := s.count(max)
	if s.overflow {
		return s.reject(n, rng)
	}

	out := make([][]int, 0, n)
	moved := make(map[int64]int64)
	at := func(k int64) int64 {
		if v, ok := moved[k]; ok {
			return v
		}
		return k
	}
	for i := int64(0); i < n; i++ {
		j := i + rng.Int64N(s.total-i)
		vi, vj := at(i), at(j)
		moved[j] = vi
		out = append(out, s.decode(vj))
	}
	return out
}

// reject draws random tuples until n distinct ones are found. Only used
// when the space is too large to index, where collisions are rare.
func (s *space) reject(n int64, rng *rand.Rand) [][]int {
	out := make([][]int, 0, n)
	seen := make(map[string]bool)
	for int64(len(out)) < n {
		tuple := make([]int, len(s.radix))
		parts := make([]string, len(s.radix))
		for d, r := range s.radix {
			tuple[d] = rng.IntN(r)
			parts[d] = strconv.Itoa(tuple[d])
		}
		key := strings.Join(parts, ",")
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, tuple)
	}
	return out
}
