package agent

import (
	"io"
	"log/slog"
	"time"

	"github.com/riverbend/agentville/llm"
	"github.com/riverbend/agentville/memory"
)

func discardLog() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// fakeEmbedder returns a fixed unit vector for any input, enough to drive
// the embedding-keyed paths without a network round-trip.
type fakeEmbedder struct{}

func (fakeEmbedder) GenerateEmbedding(string) []float64 { return []float64{1, 0, 0} }

// fakeCognition pins every generated value so the cognitive paths can be
// driven deterministically in tests.
type fakeCognition struct {
	importance int
	valence    int
}

var _ llm.Cognition = fakeCognition{}

func (f fakeCognition) GenerateImportanceScore(llm.Persona, memory.NodeType, string) int {
	return f.importance
}

func (f fakeCognition) GenerateImportanceScoreChat(llm.Persona, []memory.Utterance, string) int {
	return f.importance
}

func (f fakeCognition) GenerateValenceScore(llm.Persona, memory.NodeType, string) int {
	return f.valence
}

func (f fakeCognition) GenerateValenceScoreChat(llm.Persona, []memory.Utterance, string) int {
	return f.valence
}

func (fakeCognition) GenerateWakeUpHour(llm.Persona) time.Time { return time.Time{} }

func (fakeCognition) GenerateDailyPlan(llm.Persona, time.Time) []string { return nil }

func (fakeCognition) GenerateHourlySchedule(llm.Persona, time.Time) []llm.Plan { return nil }

func (fakeCognition) GeneratePlanDecomposition(_ llm.Persona, plan llm.Plan) []llm.Plan {
	return []llm.Plan{plan}
}

func (fakeCognition) GenerateReactionScheduleUpdate(_ llm.Persona, inserted llm.Plan, _, _ time.Time) []llm.Plan {
	return []llm.Plan{inserted}
}

func (fakeCognition) GenerateActivitySector(llm.Persona, llm.Maze, string, string) string { return "" }

func (fakeCognition) GenerateActivityArena(llm.Persona, llm.Maze, string, string, string) string {
	return ""
}

func (fakeCognition) GenerateActivityObject(llm.Persona, llm.Maze, string, memory.Path) string {
	return ""
}

func (fakeCognition) GenerateActivityPronunciato(llm.Persona, string) string { return "" }

func (fakeCognition) GenerateActivitySPO(llm.Persona, string) memory.SPO { return memory.SPO{} }

func (fakeCognition) GenerateActivityObjectDescription(llm.Persona, string, string) string {
	return ""
}

func (fakeCognition) GenerateActivityObjectPronunciato(llm.Persona, string) string { return "" }

func (fakeCognition) GenerateActivityObjectSPO(llm.Persona, string, string) memory.SPO {
	return memory.SPO{}
}

func (fakeCognition) GenerateDecideToTalk(llm.Persona, llm.Persona, []memory.NodeId, []memory.NodeId) bool {
	return false
}

func (fakeCognition) GenerateDecideToWait(llm.Persona, llm.Persona, []memory.NodeId, []memory.NodeId) bool {
	return false
}

func (fakeCognition) GenerateConversationSummary(llm.Persona, []memory.Utterance) string { return "" }

func (fakeCognition) GeneratePlanningThoughtAfterConversation(llm.Persona, []memory.Utterance) string {
	return ""
}

func (fakeCognition) GenerateMemoAfterConversation(llm.Persona, []memory.Utterance) string {
	return ""
}

func (fakeCognition) GenerateRelationshipSummary(llm.Persona, llm.Persona, []memory.NodeId) string {
	return ""
}

func (fakeCognition) GenerateOneUtterance(init llm.Persona, _ llm.Persona, _ llm.Maze, _ []memory.Utterance, _ []memory.NodeId, _ string) (memory.Utterance, bool) {
	return memory.Utterance{Speaker: init.Name()}, true
}

func (fakeCognition) GenerateFocalPoints(llm.Persona, []memory.NodeId, int) []string { return nil }

func (fakeCognition) GenerateInsightAndEvidence(llm.Persona, []memory.NodeId, int) map[string][]memory.NodeId {
	return nil
}

func (fakeCognition) GeneratePlanningNote(llm.Persona, []string) string { return "" }

func (fakeCognition) GeneratePlanningFeelings(llm.Persona, []string) string { return "" }

func (fakeCognition) GenerateCurrentPlans(llm.Persona, string, string) string { return "" }

func (fakeCognition) GenerateNewDailyRequirements(llm.Persona) string { return "" }

func (fakeCognition) GenerateWhisperInnerThought(llm.Persona, string) string { return "" }

func (fakeCognition) GenerateSafetyScore(llm.Persona, string) int { return 0 }
