package agent

import (
	"testing"

	"github.com/riverbend/agentville/memory"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeMapScalesIntoRange(t *testing.T) {
	m := map[string]float64{"a": 0, "b": 5, "c": 10}

	out := normalizeMap(m, 0, 1)

	assert.Equal(t, 0.0, out["a"])
	assert.Equal(t, 1.0, out["c"])
	assert.Equal(t, 0.5, out["b"])
}

func TestNormalizeMapFlatInputReturnsMidpoint(t *testing.T) {
	m := map[string]float64{"a": 3, "b": 3}

	out := normalizeMap(m, 0, 1)

	assert.Equal(t, 0.5, out["a"])
	assert.Equal(t, 0.5, out["b"])
}

func TestHighestNValuesKeepsTopK(t *testing.T) {
	m := map[string]float64{"a": 1, "b": 5, "c": 3, "d": 9}

	out := highestNValues(m, 2)

	assert.Len(t, out, 2)
	_, hasD := out["d"]
	_, hasB := out["b"]
	assert.True(t, hasD)
	assert.True(t, hasB)
}

func TestHighestNValuesNLargerThanMapReturnsAll(t *testing.T) {
	m := map[string]float64{"a": 1, "b": 2}

	out := highestNValues(m, 10)

	assert.Len(t, out, 2)
}

func TestClampAndFlipNegatesNegativesAndClampsPositives(t *testing.T) {
	m := map[string]float64{"neg": -4, "big": 10, "small": 2}

	out := clampAndFlip(m, 5)

	assert.Equal(t, 4.0, out["neg"])
	assert.Equal(t, 5.0, out["big"])
	assert.Equal(t, 2.0, out["small"])
}

func TestCosineSimilarityIdenticalVectorsIsOne(t *testing.T) {
	a := []float64{1, 2, 3}

	assert.InDelta(t, 1.0, cosineSimilarity(a, a), 1e-9)
}

func TestCosineSimilarityOrthogonalVectorsIsZero(t *testing.T) {
	a := []float64{1, 0}
	b := []float64{0, 1}

	assert.InDelta(t, 0.0, cosineSimilarity(a, b), 1e-9)
}

func TestCosineSimilarityPanicsOnLengthMismatch(t *testing.T) {
	assert.Panics(t, func() {
		cosineSimilarity([]float64{1, 2}, []float64{1})
	})
}

func TestExtractRecencyRanksLastElementStrongest(t *testing.T) {
	p := &Persona{state: State{RecencyDecay: 0.99}}
	nodes := []memory.NodeId{1, 2, 3}

	scores := extractRecency(p, nodes)

	assert.Greater(t, scores[memory.NodeId(3)], scores[memory.NodeId(2)])
	assert.Greater(t, scores[memory.NodeId(2)], scores[memory.NodeId(1)])
}
