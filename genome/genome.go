// Package genome implements the circular movement genome carried by animals.
package genome

import (
	"fmt"
	"math/rand"
	"strings"

	"github.com/pthm-cable/darwin/geom"
)

// Gene is a relative turn applied before each step, in 45° clockwise units.
type Gene uint8

const (
	GeneForward Gene = iota
	GeneForwardRight
	GeneRight
	GeneBackRight
	GeneBack
	GeneBackLeft
	GeneLeft
	GeneForwardLeft
)

// NumGenes is the number of distinct instructions.
const NumGenes = 8

// Rotate applies the gene's turn to an orientation.
func (g Gene) Rotate(d geom.Direction) geom.Direction {
	return d.Rotate(int(g % NumGenes))
}

// RandomGene draws a gene uniformly.
func RandomGene(rng *rand.Rand) Gene {
	return Gene(rng.Intn(NumGenes))
}

// Genome is a fixed-length instruction tape read through a cursor that wraps
// around, so an animal repeats its genome indefinitely.
type Genome struct {
	genes  []Gene
	cursor int
}

// New wraps a copy of genes.
func New(genes []Gene) *Genome {
	return &Genome{genes: append([]Gene(nil), genes...)}
}

// Random creates a genome of the given length with uniformly drawn genes.
func Random(length int, rng *rand.Rand) *Genome {
	genes := make([]Gene, length)
	for i := range genes {
		genes[i] = RandomGene(rng)
	}
	return &Genome{genes: genes}
}

// Combine concatenates two gene slices into a fresh genome.
func Combine(left, right []Gene) *Genome {
	genes := make([]Gene, 0, len(left)+len(right))
	genes = append(genes, left...)
	genes = append(genes, right...)
	return &Genome{genes: genes}
}

// Len is the number of genes.
func (g *Genome) Len() int { return len(g.genes) }

// Mutate re-randomizes min(count, Len) genes at distinct positions.
func (g *Genome) Mutate(count int, rng *rand.Rand) {
	count = min(count, len(g.genes))
	if count <= 0 {
		return
	}
	for _, idx := range rng.Perm(len(g.genes))[:count] {
		g.genes[idx] = RandomGene(rng)
	}
}

// Part returns a copy of the first count genes when fromLeft is set, else the
// last count genes. count is clamped to [0, Len].
func (g *Genome) Part(count int, fromLeft bool) []Gene {
	count = max(0, min(count, len(g.genes)))
	var part []Gene
	if fromLeft {
		part = g.genes[:count]
	} else {
		part = g.genes[len(g.genes)-count:]
	}
	return append([]Gene(nil), part...)
}

// Next returns the gene under the cursor and advances the cursor.
func (g *Genome) Next() Gene {
	if len(g.genes) == 0 {
		return GeneForward
	}
	gene := g.genes[g.cursor]
	g.cursor = (g.cursor + 1) % len(g.genes)
	return gene
}

// Activated returns the gene under the cursor without advancing.
func (g *Genome) Activated() Gene {
	if len(g.genes) == 0 {
		return GeneForward
	}
	return g.genes[g.cursor]
}

// Cursor is the index of the gene that Next will return.
func (g *Genome) Cursor() int { return g.cursor }

// Genes returns a copy of the gene sequence.
func (g *Genome) Genes() []Gene {
	return append([]Gene(nil), g.genes...)
}

// Key encodes the gene sequence as a string of digits; equal sequences have
// equal keys regardless of cursor position.
func (g *Genome) Key() string {
	var sb strings.Builder
	sb.Grow(len(g.genes))
	for _, gene := range g.genes {
		sb.WriteByte('0' + byte(gene%NumGenes))
	}
	return sb.String()
}

func (g *Genome) String() string {
	return fmt.Sprintf("[%s]@%d", g.Key(), g.cursor)
}
