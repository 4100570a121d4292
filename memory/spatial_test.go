package memory_test

import (
	"testing"

	"github.com/riverbend/agentville/memory"

	"github.com/stretchr/testify/assert"
)

func TestSpatialRegisterBuildsNestedTree(t *testing.T) {
	store := memory.NewSpatial()
	store.Register(memory.ParsePath("the Ville:house:kitchen:fridge"))

	worlds := store.Worlds()
	assert.Contains(t, worlds, "the Ville")
	assert.Contains(t, worlds["the Ville"], "house")
	assert.Contains(t, worlds["the Ville"]["house"], "kitchen")
	assert.Contains(t, worlds["the Ville"]["house"]["kitchen"], "fridge")
}

func TestSpatialGetKnownReturnsChildrenAtEachLevel(t *testing.T) {
	store := memory.NewSpatial()
	store.Register(memory.ParsePath("the Ville:house:kitchen:fridge"))
	store.Register(memory.ParsePath("the Ville:house:bedroom"))

	sectors := store.GetKnown(memory.ParsePath("the Ville"), memory.PathLevelSector)
	assert.ElementsMatch(t, []string{"house"}, sectors)

	arenas := store.GetKnown(memory.ParsePath("the Ville:house"), memory.PathLevelArena)
	assert.ElementsMatch(t, []string{"kitchen", "bedroom"}, arenas)

	objects := store.GetKnown(memory.ParsePath("the Ville:house:kitchen"), memory.PathLevelObject)
	assert.ElementsMatch(t, []string{"fridge"}, objects)
}

func TestSpatialGetKnownFallsBackToCaseInsensitiveArena(t *testing.T) {
	store := memory.NewSpatial()
	store.Register(memory.ParsePath("the Ville:house:Kitchen:fridge"))

	objects := store.GetKnown(memory.ParsePath("the Ville:house:kitchen"), memory.PathLevelObject)

	assert.ElementsMatch(t, []string{"fridge"}, objects)
}

func TestSpatialGetKnownReturnsEmptyForUnknownPath(t *testing.T) {
	store := memory.NewSpatial()
	store.Register(memory.ParsePath("the Ville:house"))

	assert.Empty(t, store.GetKnown(memory.ParsePath("nowhere"), memory.PathLevelSector))
}
