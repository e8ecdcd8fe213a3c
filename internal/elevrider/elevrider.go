package elevrider

import (
	"fmt"
	"math/rand"
)

const ID_LEN = 6

const idLetters = "abcdefghijklmnopqrstuvwxyz"

// Rider is a single call: one person travelling From -> To (1-based floors).
// Riders are passed by value and never change after creation.
type Rider struct {
	ID     string
	Weight int
	From   int
	To     int
}

func (r Rider) String() string {
	return fmt.Sprintf("w=%d from=%d to=%d", r.Weight, r.From, r.To)
}

// Dispatchable reports whether the rider actually needs to travel.
func (r Rider) Dispatchable() bool {
	return r.From != r.To
}

// Generator produces random riders within the configured bounds. A
// Generator is not safe for concurrent use, give each goroutine its own.
type Generator struct {
	numFloors int
	minWeight int
	maxWeight int
	rnd       *rand.Rand
}

func NewGenerator(numFloors, minWeight, maxWeight int, seed int64) *Generator {
	return &Generator{
		numFloors: numFloors,
		minWeight: minWeight,
		maxWeight: maxWeight,
		rnd:       rand.New(rand.NewSource(seed)),
	}
}

// Next returns a rider with weight in [min,max] and distinct floors in [1,numFloors].
func (g *Generator) Next() Rider {
	weight := g.minWeight + g.rnd.Intn(g.maxWeight-g.minWeight+1)
	from := 1 + g.rnd.Intn(g.numFloors)
	to := from
	for to == from {
		to = 1 + g.rnd.Intn(g.numFloors)
	}

	return Rider{
		ID:     g.id(),
		Weight: weight,
		From:   from,
		To:     to,
	}
}

func (g *Generator) id() string {
	b := make([]byte, ID_LEN)
	for i := range b {
		b[i] = idLetters[g.rnd.Intn(len(idLetters))]
	}
	return string(b)
}
