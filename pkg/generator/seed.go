package generator

import (
	"math/rand/v2"

	"github.com/cespare/xxhash/v2"
	"github.com/grovetools/promptgen/pkg/config"
)

// Random streams are derived from the base seed. Each concern draws from
// its own stream so that, for example, changing a limit on one placeholder
// does not shift the samples of another.
var (
	sampleStream = xxhash.Sum64String("promptgen/sample")
	seedStream   = xxhash.Sum64String("promptgen/seed")
)

func placeholderStream(name string) uint64 {
	return xxhash.Sum64String("promptgen/placeholder/" + name)
}

func newRand(seed int64, stream uint64) *rand.Rand {
	return rand.New(rand.NewPCG(uint64(seed), stream))
}

// seeder assigns record seeds.
type seeder struct {
	mode config.SeedMode
	base int64
	rng  *rand.Rand
}

func newSeeder(strategy config.Strategy) *seeder {
	return &seeder{
		mode: strategy.SeedMode,
		base: strategy.Seed,
		rng:  newRand(strategy.Seed, seedStream),
	}
}

// next returns the seed of record i. Calls must be made in index order.
func (s *seeder) next(i int) int64 {
	switch s.mode {
	case config.SeedFixed:
		return s.base
	case config.SeedRandom:
		return int64(s.rng.Uint32())
	default:
		return s.base + int64(i)
	}
}
