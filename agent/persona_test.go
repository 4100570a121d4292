package agent

import (
	"testing"
	"time"

	"github.com/riverbend/agentville/llm"
	"github.com/riverbend/agentville/memory"

	"github.com/stretchr/testify/assert"
)

func dayAt(hour, minute int) time.Time {
	return time.Date(2023, time.February, 13, hour, minute, 0, 0, time.UTC)
}

func TestScheduleIndexReturnsSlotContainingCurrentMinute(t *testing.T) {
	schedule := []llm.Plan{
		{Activity: "sleeping", Duration: 420},
		{Activity: "having breakfast", Duration: 60},
		{Activity: "painting", Duration: 960},
	}

	assert.Equal(t, 0, scheduleIndex(schedule, dayAt(0, 0), 0))
	assert.Equal(t, 0, scheduleIndex(schedule, dayAt(6, 59), 0))
	assert.Equal(t, 1, scheduleIndex(schedule, dayAt(7, 0), 0))
	assert.Equal(t, 2, scheduleIndex(schedule, dayAt(8, 0), 0))
}

func TestScheduleIndexAdvanceLooksAhead(t *testing.T) {
	schedule := []llm.Plan{
		{Activity: "sleeping", Duration: 420},
		{Activity: "having breakfast", Duration: 60},
	}

	assert.Equal(t, 1, scheduleIndex(schedule, dayAt(6, 30), 60))
}

func TestScheduleIndexPastEndReturnsLength(t *testing.T) {
	schedule := []llm.Plan{{Activity: "sleeping", Duration: 60}}

	assert.Equal(t, 1, scheduleIndex(schedule, dayAt(12, 0), 0))
}

func TestIsActivityFinished(t *testing.T) {
	s := State{
		ActivityAddress:   memory.ParsePath("the Ville:house:bedroom:bed"),
		ActivityStartTime: dayAt(9, 0),
		ActivityDuration:  30 * time.Minute,
	}

	s.CurrentTime = dayAt(9, 29)
	assert.False(t, s.IsActivityFinished())

	s.CurrentTime = dayAt(9, 30)
	assert.True(t, s.IsActivityFinished())
}

func TestIsActivityFinishedChatUsesChatEndTime(t *testing.T) {
	s := State{
		ActivityAddress:   memory.ParsePath("the Ville:cafe"),
		ActivityStartTime: dayAt(9, 0),
		ActivityDuration:  2 * time.Hour,
		ChattingWith:      "Bob",
		ChatEndTime:       dayAt(9, 10),
	}

	s.CurrentTime = dayAt(9, 5)
	assert.False(t, s.IsActivityFinished())

	s.CurrentTime = dayAt(9, 10)
	assert.True(t, s.IsActivityFinished())
}

func TestIsActivityFinishedEmptyAddressIsAlwaysFinished(t *testing.T) {
	s := State{CurrentTime: dayAt(0, 0)}

	assert.True(t, s.IsActivityFinished())
}

func TestIsDifferentDate(t *testing.T) {
	assert.False(t, isDifferentDate(dayAt(1, 0), dayAt(23, 0)))
	assert.True(t, isDifferentDate(dayAt(23, 0), dayAt(23, 0).Add(2*time.Hour)))
}
