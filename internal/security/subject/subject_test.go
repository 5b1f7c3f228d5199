package subject

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompute_Deterministic(t *testing.T) {
	m := New(Config{PairwiseSalt: "salt"})

	a := m.Compute("acc-1", "https://rp.example.com")
	b := m.Compute("acc-1", "https://rp.example.com")

	require.Equal(t, a, b)
	assert.Len(t, a, 64)
	assert.NotEqual(t, "acc-1", a)
}

func TestCompute_DifferentSectorsDiffer(t *testing.T) {
	m := New(Config{PairwiseSalt: "salt"})

	a := m.Compute("acc-1", "sector-a.example.com")
	b := m.Compute("acc-1", "sector-b.example.com")

	assert.NotEqual(t, a, b)
}

func TestCompute_SaltChangesResult(t *testing.T) {
	a := New(Config{PairwiseSalt: "one"}).Compute("acc-1", "sector")
	b := New(Config{PairwiseSalt: "two"}).Compute("acc-1", "sector")

	assert.NotEqual(t, a, b)
}

func TestCompute_PublicAndEmpty(t *testing.T) {
	m := New(Config{})

	assert.Equal(t, "acc-1", m.Compute("acc-1", ""))
	assert.Equal(t, "", m.Compute("", "sector"))
}
