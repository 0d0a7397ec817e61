// Package columns implements the typed value generators used to populate
// generated tables: one deterministic random stream per (seed, column name).
package columns

import (
	"hash/fnv"
	"math/rand"
)

// Column produces values for one position in a generated table's schema.
type Column interface {
	Name() string
	CQLType() string
	SQLType() string
	GenerateRandomValue() any
	GenerateSequenceValue() any
}

// seededRand derives a column's private RNG from global_seed XOR hash(name),
// so that two columns built with the same (seed, name) replay identical
// value streams regardless of process or goroutine.
func seededRand(seed int64, name string) *rand.Rand {
	h := fnv.New64a()
	_, _ = h.Write([]byte(name))
	src := seed ^ int64(h.Sum64())
	return rand.New(rand.NewSource(src))
}

// AsciiColumn generates fixed-length ASCII strings drawn from [A-Za-z0-9].
type AsciiColumn struct {
	name string
	size int
	rng  *rand.Rand
}

const asciiAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"

// NewAsciiColumn builds an ascii column with the default length of 100 when
// size is zero.
func NewAsciiColumn(seed int64, name string, size int) *AsciiColumn {
	if size <= 0 {
		size = 100
	}
	return &AsciiColumn{name: name, size: size, rng: seededRand(seed, name)}
}

func (c *AsciiColumn) Name() string    { return c.name }
func (c *AsciiColumn) CQLType() string { return "ascii" }
func (c *AsciiColumn) SQLType() string { return "TEXT" }

func (c *AsciiColumn) GenerateRandomValue() any {
	b := make([]byte, c.size)
	for i := range b {
		b[i] = asciiAlphabet[c.rng.Intn(len(asciiAlphabet))]
	}
	return string(b)
}

// GenerateSequenceValue is random for ascii columns: a textual sequence has
// no natural successor.
func (c *AsciiColumn) GenerateSequenceValue() any {
	return c.GenerateRandomValue()
}

// BigIntColumn generates signed 64-bit integers, random or sequential.
type BigIntColumn struct {
	name string
	rng  *rand.Rand
	seq  int64
}

func NewBigIntColumn(seed int64, name string) *BigIntColumn {
	return &BigIntColumn{name: name, rng: seededRand(seed, name)}
}

func (c *BigIntColumn) Name() string    { return c.name }
func (c *BigIntColumn) CQLType() string { return "bigint" }
func (c *BigIntColumn) SQLType() string { return "INTEGER" }

func (c *BigIntColumn) GenerateRandomValue() any {
	v := c.rng.Int63()
	if c.rng.Intn(2) == 0 {
		v = -v
	}
	return v
}

func (c *BigIntColumn) GenerateSequenceValue() any {
	c.seq++
	return c.seq
}

// Kind names a concrete column variant for schema generation.
type Kind string

const (
	KindAscii  Kind = "ascii"
	KindBigInt Kind = "bigint"
)

// AllColumnTypes enumerates the concrete column variants schema generation
// may draw from; order is significant only for determinism of the RNG that
// selects among them, not for iteration.
var AllColumnTypes = []Kind{KindAscii, KindBigInt}

// New builds the column variant named by kind.
func New(kind Kind, seed int64, name string) Column {
	switch kind {
	case KindBigInt:
		return NewBigIntColumn(seed, name)
	default:
		return NewAsciiColumn(seed, name, 0)
	}
}

// CQLType reports the CQL type name for kind without needing a live column
// instance; schema DDL emission uses this to describe table shape.
func CQLType(kind Kind) string {
	switch kind {
	case KindBigInt:
		return "bigint"
	default:
		return "ascii"
	}
}

// SQLType reports the local history-store column type for kind.
func SQLType(kind Kind) string {
	switch kind {
	case KindBigInt:
		return "INTEGER"
	default:
		return "TEXT"
	}
}
