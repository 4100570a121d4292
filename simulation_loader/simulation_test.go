package simulationloader

import (
	"encoding/json"
	"os"
	"path"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestForkSimulationCopiesTreeAndRewritesMeta(t *testing.T) {
	dir := t.TempDir()

	meta := SimulationMeta{
		ForkSimCode:    "base",
		StartDate:      StartDate(time.Date(2023, time.February, 13, 0, 0, 0, 0, time.UTC)),
		CurrTime:       CurrentTime(time.Date(2023, time.February, 13, 8, 0, 0, 0, time.UTC)),
		SecondsPerStep: 10,
		MazeName:       "the_ville",
		PersonaNames:   []string{"Isabella Rodriguez"},
		Step:           42,
	}
	require.NoError(t, writeJson(path.Join(dir, "sim_a", "reverie", "meta.json"), meta))
	require.NoError(t, writeJson(path.Join(dir, "sim_a", "environment", "42.json"), map[string]any{}))

	require.NoError(t, ForkSimulation(dir, "sim_a", "sim_b"))

	content, err := os.ReadFile(path.Join(dir, "sim_b", "reverie", "meta.json"))
	require.NoError(t, err)

	var forked SimulationMeta
	require.NoError(t, json.Unmarshal(content, &forked))

	// The fork points back at the simulation it was copied from, while the
	// rest of the metadata (step counter included) carries over untouched.
	assert.Equal(t, "sim_a", forked.ForkSimCode)
	assert.Equal(t, 42, forked.Step)
	assert.Equal(t, []string{"Isabella Rodriguez"}, forked.PersonaNames)
	assert.FileExists(t, path.Join(dir, "sim_b", "environment", "42.json"))

	// The source is left exactly as it was.
	content, err = os.ReadFile(path.Join(dir, "sim_a", "reverie", "meta.json"))
	require.NoError(t, err)
	var source SimulationMeta
	require.NoError(t, json.Unmarshal(content, &source))
	assert.Equal(t, "base", source.ForkSimCode)
}

func TestForkSimulationRefusesExistingTarget(t *testing.T) {
	dir := t.TempDir()

	require.NoError(t, writeJson(path.Join(dir, "sim_a", "reverie", "meta.json"), SimulationMeta{}))
	require.NoError(t, os.MkdirAll(path.Join(dir, "sim_b"), 0o755))

	assert.Error(t, ForkSimulation(dir, "sim_a", "sim_b"))
}

func TestDeleteSimulationRemovesOnlyItsOwnTree(t *testing.T) {
	dir := t.TempDir()

	require.NoError(t, writeJson(path.Join(dir, "sim_a", "reverie", "meta.json"), SimulationMeta{}))
	require.NoError(t, writeJson(path.Join(dir, "sim_b", "reverie", "meta.json"), SimulationMeta{}))

	fs := &FileStorage{SimulationsFolder: dir, Simulation: "sim_a"}
	require.NoError(t, fs.DeleteSimulation())

	assert.NoDirExists(t, path.Join(dir, "sim_a"))
	assert.FileExists(t, path.Join(dir, "sim_b", "reverie", "meta.json"))
}
