package memory_test

import (
	"fmt"
	"testing"

	"github.com/riverbend/agentville/memory"

	"github.com/stretchr/testify/assert"
)

func TestParsePathLevels(t *testing.T) {
	full := memory.ParsePath("the Ville:house:kitchen:fridge")
	assert.Equal(t, memory.PathLevelObject, full.Level())
	assert.Equal(t, "fridge", full.Base())
	assert.Equal(t, "the Ville:house:kitchen:fridge", full.ToString())

	sectorOnly := memory.ParsePath("the Ville:house")
	assert.Equal(t, memory.PathLevelSector, sectorOnly.Level())
	assert.Equal(t, "house", sectorOnly.Base())
}

func TestAtLevelTruncates(t *testing.T) {
	full := memory.ParsePath("the Ville:house:kitchen:fridge")

	arena := full.AtLevel(memory.PathLevelArena)
	assert.Equal(t, "the Ville:house:kitchen", arena.ToString())
	assert.Equal(t, memory.PathLevelArena, arena.Level())
}

func TestSpecialPathPersonaRoundtrip(t *testing.T) {
	p := memory.SpecialPath(memory.PathStatePersona, "Isabella Rodriguez")

	assert.True(t, p.IsSpecial(memory.PathStatePersona))
	assert.Equal(t, "Isabella Rodriguez", p.GetArg())
}

func TestSpecialPathWaitingRoundtrip(t *testing.T) {
	arg := fmt.Sprintf(memory.WaitingArgFormat, 5, 10)
	p := memory.SpecialPath(memory.PathStateWaiting, arg)

	assert.True(t, p.IsSpecial(memory.PathStateWaiting))
	assert.Equal(t, arg, p.GetArg())

	var x, y int
	n, err := fmt.Sscanf(p.GetArg(), memory.WaitingArgFormat, &x, &y)
	assert.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, 5, x)
	assert.Equal(t, 10, y)
}

func TestSpecialPathRandomSetsObjectTag(t *testing.T) {
	p := memory.SpecialPath(memory.PathStateRandom, "the Ville:house:kitchen")

	assert.True(t, p.IsSpecial(memory.PathStateRandom))
	assert.True(t, p.IsObject())
}

func TestMatchesIgnoresEmptyMaskFields(t *testing.T) {
	p := memory.ParsePath("the Ville:house:kitchen:fridge")
	mask := memory.NewPath(memory.PathWithArena("kitchen"))

	assert.True(t, p.Matches(mask))

	wrongMask := memory.NewPath(memory.PathWithArena("bathroom"))
	assert.False(t, p.Matches(wrongMask))
}

func TestIsEmpty(t *testing.T) {
	assert.True(t, memory.NewPath().IsEmpty())
	assert.False(t, memory.ParsePath("the Ville").IsEmpty())
}
