package agent

import (
	"testing"
	"time"

	"github.com/riverbend/agentville/memory"

	"github.com/stretchr/testify/assert"
)

func TestPlanDecrementsChattingWithBufferNeverBelowZero(t *testing.T) {
	p := &Persona{
		name: "Isabella Rodriguez",
		state: State{
			CurrentTime:        dayAt(12, 0),
			ActivityAddress:    memory.ParsePath("the Ville:cafe:counter"),
			ActivityStartTime:  dayAt(11, 0),
			ActivityDuration:   2 * time.Hour,
			ChattingWithBuffer: map[string]int{"Klaus Mueller": 2},
		},
		cognition: fakeCognition{},
	}
	p.ctx = MoveCtx{Log: discardLog()}

	for i := 0; i < 4; i++ {
		p.plan(nil, nil, nil, NewDayTypeNoNewDay)
	}

	assert.Equal(t, 0, p.state.ChattingWithBuffer["Klaus Mueller"])
}

func TestPlanSkipsBufferDecrementForCurrentChatPartner(t *testing.T) {
	p := &Persona{
		name: "Isabella Rodriguez",
		state: State{
			CurrentTime:        dayAt(12, 0),
			ActivityAddress:    memory.SpecialPath(memory.PathStatePersona, "Klaus Mueller"),
			ActivitySPO:        memory.SPO{Subject: "Isabella Rodriguez", Predicate: "chat with", Object: "Klaus Mueller"},
			ActivityStartTime:  dayAt(11, 55),
			ActivityDuration:   10 * time.Minute,
			ChattingWith:       "Klaus Mueller",
			ChatEndTime:        dayAt(12, 5),
			ChattingWithBuffer: map[string]int{"Klaus Mueller": 800, "Maria Lopez": 3},
		},
		cognition: fakeCognition{},
	}
	p.ctx = MoveCtx{Log: discardLog()}

	p.plan(nil, nil, nil, NewDayTypeNoNewDay)

	assert.Equal(t, 800, p.state.ChattingWithBuffer["Klaus Mueller"])
	assert.Equal(t, 2, p.state.ChattingWithBuffer["Maria Lopez"])
}

func TestPlanClearsChatStateWhenNotChatting(t *testing.T) {
	p := &Persona{
		name: "Isabella Rodriguez",
		state: State{
			CurrentTime:        dayAt(12, 0),
			ActivityAddress:    memory.ParsePath("the Ville:cafe:counter"),
			ActivitySPO:        memory.SPO{Subject: "Isabella Rodriguez", Predicate: "is", Object: "working"},
			ActivityStartTime:  dayAt(11, 0),
			ActivityDuration:   2 * time.Hour,
			ChattingWith:       "Klaus Mueller",
			Chat:               []memory.Utterance{{Speaker: "Klaus Mueller", Sentence: "Hi!"}},
			ChatEndTime:        dayAt(12, 30),
			ChattingWithBuffer: map[string]int{},
		},
		cognition: fakeCognition{},
	}
	p.ctx = MoveCtx{Log: discardLog()}

	p.plan(nil, nil, nil, NewDayTypeNoNewDay)

	assert.Empty(t, p.state.ChattingWith)
	assert.Empty(t, p.state.Chat)
	assert.True(t, p.state.ChatEndTime.IsZero())
}

func TestGetLastN(t *testing.T) {
	elems := []int{1, 2, 3, 4, 5}

	assert.Equal(t, []int{2, 3, 4, 5}, getLastN(elems, 4))
	assert.Equal(t, elems, getLastN(elems, 10))
}
