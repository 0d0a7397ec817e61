package query

import "github.com/elchinoo/gemini/internal/querydriver"

// MixedQueryGenerator alternates INSERT and SELECT for the same table, so
// SELECTs target keys that were just written: WRITE at even steps, READ at
// odd steps.
type MixedQueryGenerator struct {
	insert *InsertQueryGenerator
	select_ *SelectQueryGenerator
	step   int
}

func NewMixedQueryGenerator(insert *InsertQueryGenerator, sel *SelectQueryGenerator) *MixedQueryGenerator {
	return &MixedQueryGenerator{insert: insert, select_: sel}
}

func (g *MixedQueryGenerator) Next() (Operation, querydriver.QueryDTO, error) {
	step := g.step
	g.step++
	if step%2 == 0 {
		return g.insert.Next()
	}
	return g.select_.Next()
}
