package workload

import (
	"math"
	"math/rand/v2"
	"sync"
)

// KeyDistribution produces the index passed to Keys.Random when a worker
// needs to pick an existing key for a Read, Remove, Update or Upsert op.
// Implementations must be safe for concurrent use by multiple goroutines.
type KeyDistribution interface {
	Next() uint64
}

type uniformDist struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// Uniform picks uniformly among the allocated keys, the default distribution
// for every workload unless a sweep explicitly asks for skew.
func Uniform() KeyDistribution {
	return &uniformDist{rng: rand.New(rand.NewPCG(1, 2))}
}

func (d *uniformDist) Next() uint64 {
	d.mu.Lock()
	v := d.rng.Uint64()
	d.mu.Unlock()
	return v
}

// zipfDist produces a Zipfian-skewed index over [0, keySpace). Grounded on
// the benchmark harness's GenerateZipfInt/computeZeta, adapted to stream one
// index per call under lock rather than pre-materializing a slice, since
// Next is called from many worker goroutines concurrently.
type zipfDist struct {
	mu           sync.Mutex
	rng          *rand.Rand
	keySpace     int
	alpha        float64
	eta          float64
	zetaN        float64
	halfPowTheta float64
}

// NewZipf builds a KeyDistribution skewed toward the low end of [0,
// keySpace) by theta (0 < theta < 1, larger is more skewed). seed makes the
// sequence reproducible across runs of the same sweep.
func NewZipf(keySpace int, theta float64, seed uint64) KeyDistribution {
	spread := keySpace + 1
	zeta2 := computeZeta(2, theta)
	zetaN := computeZeta(uint64(spread), theta)
	return &zipfDist{
		rng:          rand.New(rand.NewPCG(seed, seed+1)),
		keySpace:     keySpace,
		alpha:        1.0 / (1.0 - theta),
		eta:          (1 - math.Pow(2.0/float64(spread), 1.0-theta)) / (1.0 - zeta2/zetaN),
		zetaN:        zetaN,
		halfPowTheta: 1.0 + math.Pow(0.5, theta),
	}
}

func (d *zipfDist) Next() uint64 {
	d.mu.Lock()
	u := d.rng.Float64()
	d.mu.Unlock()

	uz := u * d.zetaN
	var result int
	switch {
	case uz < 1.0:
		result = 0
	case uz < d.halfPowTheta:
		result = 1
	default:
		result = int(float64(d.keySpace+1) * math.Pow(d.eta*u-d.eta+1.0, d.alpha))
	}
	if result >= d.keySpace {
		result = d.keySpace - 1
	}
	if result < 0 {
		result = 0
	}
	return uint64(result)
}

// computeZeta calculates zeta(n, theta) = sum(1/i^theta) for i=1..n.
func computeZeta(n uint64, theta float64) float64 {
	sum := 0.0
	for i := uint64(1); i <= n; i++ {
		sum += 1.0 / math.Pow(float64(i), theta)
	}
	return sum
}
