package shared

import (
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFoldStripsAccents(t *testing.T) {
	assert.Equal(t, "acucar cristal", Fold("Açúcar Cristal"))
	assert.Equal(t, "cafe", Fold("CAFÉ"))
	assert.Equal(t, "plain", Fold("plain"))
}

func TestRankMatchOrdering(t *testing.T) {
	type hit struct {
		code, name string
	}
	hits := []hit{
		{"901", "Parafuso 10"},
		{"100", "Porca"},
		{"10", "Arruela"},
		{"555", "Item 10 especial"},
	}
	sort.SliceStable(hits, func(i, j int) bool {
		return RankMatch(hits[i].code, hits[i].name, "10") < RankMatch(hits[j].code, hits[j].name, "10")
	})

	// Exact code, then code prefix, then containment.
	assert.Equal(t, "10", hits[0].code)
	assert.Equal(t, "100", hits[1].code)
}

func TestRankMatchAccentInsensitive(t *testing.T) {
	assert.Equal(t, 4, RankMatch("001", "Açúcar Cristal", "acucar"))
}
