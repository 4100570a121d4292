package memory_test

import (
	"testing"
	"time"

	"github.com/riverbend/agentville/memory"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newStore() *memory.Associative {
	return memory.NewAssociative(map[string][]float64{}, map[string]int{}, map[string]int{})
}

func TestAddEventAssignsMonotonicIds(t *testing.T) {
	store := newStore()
	now := time.Now()

	first := store.AddEvent(memory.SPO{Subject: "alice", Predicate: "is", Object: "reading"}, "alice is reading", []string{"reading"}, 3, 0, nil, now, nil, "k1", []float64{0})
	second := store.AddEvent(memory.SPO{Subject: "bob", Predicate: "is", Object: "cooking"}, "bob is cooking", []string{"cooking"}, 3, 0, nil, now, nil, "k2", []float64{0})

	assert.Equal(t, memory.NodeId(1), first.Id)
	assert.Equal(t, memory.NodeId(2), second.Id)
}

func TestLatestEventsAreReverseChronological(t *testing.T) {
	store := newStore()
	now := time.Now()

	store.AddEvent(memory.SPO{Subject: "alice", Predicate: "is", Object: "reading"}, "alice is reading", []string{"reading"}, 3, 0, nil, now, nil, "k1", []float64{0})
	store.AddEvent(memory.SPO{Subject: "bob", Predicate: "is", Object: "cooking"}, "bob is cooking", []string{"cooking"}, 3, 0, nil, now.Add(time.Minute), nil, "k2", []float64{0})

	ids := store.GetLatestEventIds()
	require.Len(t, ids, 2)
	assert.Equal(t, memory.NodeId(2), ids[0], "most recently added event should come first")
	assert.Equal(t, memory.NodeId(1), ids[1])
}

func TestAddEventIndexesKeywordsCaseInsensitively(t *testing.T) {
	store := newStore()

	store.AddEvent(memory.SPO{Subject: "Alice", Predicate: "is", Object: "Reading"}, "alice is reading", []string{"Alice", "Reading"}, 3, 0, nil, time.Now(), nil, "k1", []float64{0})

	ids := store.RetrieveRelevantEvents("alice", "nonexistent-predicate", "nonexistent-object")
	require.Len(t, ids, 1, "keyword index should be case-insensitive")
	_, found := ids[memory.NodeId(1)]
	assert.True(t, found)
}

func TestAddEventSkipsKeywordStrengthForIdleEvents(t *testing.T) {
	store := newStore()

	store.AddEvent(memory.SPO{Subject: "alice", Predicate: "is", Object: "idle"}, "alice is idle", []string{"alice"}, 0, 0, nil, time.Now(), nil, "k1", []float64{0})

	assert.Equal(t, 0, store.EventKeywordStrength()["alice"], "idle events should not contribute to keyword strength")
}

func TestAddEventIncrementsKeywordStrengthOtherwise(t *testing.T) {
	store := newStore()

	store.AddEvent(memory.SPO{Subject: "alice", Predicate: "is", Object: "reading"}, "alice is reading", []string{"alice"}, 3, 0, nil, time.Now(), nil, "k1", []float64{0})

	assert.Equal(t, 1, store.EventKeywordStrength()["alice"])
}

func TestAddThoughtDepthIsOneMoreThanDeepestEvidence(t *testing.T) {
	store := newStore()
	now := time.Now()

	ev1 := store.AddEvent(memory.SPO{Subject: "alice", Predicate: "is", Object: "reading"}, "alice is reading", []string{"reading"}, 3, 0, nil, now, nil, "k1", []float64{0})
	th1 := store.AddThought(memory.SPO{Subject: "alice", Predicate: "likes", Object: "books"}, "alice likes books", []string{"books"}, 4, 1, []memory.NodeId{ev1.Id}, now, nil, "k2", []float64{0})
	th2 := store.AddThought(memory.SPO{Subject: "alice", Predicate: "is", Object: "a reader"}, "alice is a reader", []string{"reader"}, 5, 1, []memory.NodeId{th1.Id}, now, nil, "k3", []float64{0})

	assert.Equal(t, 0, ev1.Depth)
	assert.Equal(t, 1, th1.Depth)
	assert.Equal(t, 2, th2.Depth)
}

func TestGetLastChatFindsBySpeakerKeyword(t *testing.T) {
	store := newStore()
	now := time.Now()

	chat := []memory.Utterance{{Speaker: "alice", Sentence: "hi bob"}, {Speaker: "bob", Sentence: "hi alice"}}
	node := store.AddChat(memory.SPO{Subject: "alice", Predicate: "chat with", Object: "bob"}, "alice chatted with bob", []string{"alice", "bob"}, 2, 0, chat, now, nil, "k1", []float64{0})

	id, ok := store.GetLastChat("bob")
	require.True(t, ok)
	assert.Equal(t, node.Id, id)

	_, ok = store.GetLastChat("carol")
	assert.False(t, ok)
}
