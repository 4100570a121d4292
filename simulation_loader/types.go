package simulationloader

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

type MazeMetaInfo struct {
	WorldName          string `json:"world_name"`
	MazeWidth          int    `json:"maze_width"`
	MazeHeight         int    `json:"maze_height"`
	SquareTileSize     int    `json:"sq_tile_size"`
	SpecialConstraints string `json:"special_constraints"`
}

// StartDate, CurrentTime and MemoryTime are time.Time with their own
// save-file string formats: the simulation metadata, persona state, and
// memory nodes each serialize timestamps differently on disk.
type (
	StartDate   time.Time
	CurrentTime time.Time
	MemoryTime  time.Time
)

const (
	StartDateFormat   = "January 02, 2006"
	CurrentTimeFormat = "January 02, 2006, 15:04:05"
	MemoryTimeFormat  = "2006-01-02 15:04:05"
)

func marshalTimeString(t time.Time, layout string) ([]byte, error) {
	return json.Marshal(t.Format(layout))
}

func unmarshalTimeString(b []byte, layout string) (time.Time, error) {
	return time.Parse(layout, strings.Trim(string(b), `"`))
}

func (t StartDate) MarshalJSON() ([]byte, error) {
	return marshalTimeString(time.Time(t), StartDateFormat)
}

func (t *StartDate) UnmarshalJSON(b []byte) error {
	d, err := unmarshalTimeString(b, StartDateFormat)
	if err != nil {
		return err
	}

	*t = StartDate(d)
	return nil
}

func (t CurrentTime) MarshalJSON() ([]byte, error) {
	if time.Time(t).IsZero() {
		return []byte("null"), nil
	}

	return marshalTimeString(time.Time(t), CurrentTimeFormat)
}

func (t *CurrentTime) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		*t = CurrentTime(time.Time{})
		return nil
	}

	d, err := unmarshalTimeString(b, CurrentTimeFormat)
	if err != nil {
		return err
	}

	*t = CurrentTime(d)
	return nil
}

func (t MemoryTime) MarshalJSON() ([]byte, error) {
	return marshalTimeString(time.Time(t), MemoryTimeFormat)
}

func (t *MemoryTime) UnmarshalJSON(b []byte) error {
	d, err := unmarshalTimeString(b, MemoryTimeFormat)
	if err != nil {
		return err
	}

	*t = MemoryTime(d)
	return nil
}

type SimulationMeta struct {
	ForkSimCode    string      `json:"fork_sim_code"`
	StartDate      StartDate   `json:"start_date"`
	CurrTime       CurrentTime `json:"curr_time"`
	SecondsPerStep int         `json:"sec_per_step"`
	MazeName       string      `json:"maze_name"`
	PersonaNames   []string    `json:"persona_names"`
	Step           int         `json:"step"`
	BackupInterval int         `json:"backup_interval"`
}

type Persona struct{}

type EnvironmentPersona struct {
	Maze string `json:"maze"`
	X    int    `json:"x"`
	Y    int    `json:"y"`
}

// Environment is keyed by persona name on disk (a bare JSON object), not
// wrapped in a "personas" field, hence the custom codec.
type Environment struct {
	Personas map[string]EnvironmentPersona
}

func (e Environment) MarshalJSON() ([]byte, error) {
	return json.Marshal(e.Personas)
}

func (e *Environment) UnmarshalJSON(b []byte) error {
	personas := map[string]EnvironmentPersona{}

	if err := json.Unmarshal(b, &personas); err != nil {
		return err
	}

	e.Personas = personas
	return nil
}

type KwStrength struct {
	Thoughts map[string]int `json:"kw_strength_thought"`
	Events   map[string]int `json:"kw_strength_event"`
}

type MemoryNode struct {
	NodeCount    int         `json:"node_count"`
	TypeCount    int         `json:"type_count"`
	Type         string      `json:"type"`
	Depth        int         `json:"depth"`
	Created      MemoryTime  `json:"created"`
	Expiration   *MemoryTime `json:"expiration"`
	Subject      string      `json:"subject"`
	Predicate    string      `json:"predicate"`
	Object       string      `json:"object"`
	Description  string      `json:"description"`
	EmbeddingKey string      `json:"embedding_key"`
	Poignancy    int         `json:"poignancy"`
	Valence      int         `json:"valence"`
	Keywords     []string    `json:"keywords"`
	Filling      interface{} `json:"filling"`
}

// PersonaState is the on-disk persona scratch record, using the save
// format's abbreviated json tags rather than the in-memory names. It is not a
// field-for-field mirror of agent.State: fields with no agent.State
// counterpart are kept in the file but not loaded.
type PersonaState struct {
	VisionR                 int            `json:"vision_r"`
	AttBandwidth            int            `json:"att_bandwidth"`
	Retention               int            `json:"retention"`
	CurrTime                CurrentTime    `json:"curr_time"`
	CurrTile                []int          `json:"curr_tile"`
	DailyPlanReq            string         `json:"daily_plan_req"`
	Name                    string         `json:"name"`
	FirstName               string         `json:"first_name"`
	LastName                string         `json:"last_name"`
	Age                     int            `json:"age"`
	Innate                  string         `json:"innate"`
	Learned                 string         `json:"learned"`
	Currently               string         `json:"currently"`
	Lifestyle               string         `json:"lifestyle"`
	LivingArea              string         `json:"living_area"`
	ConceptForget           int            `json:"concept_forget"`
	DailyReflectionTime     int            `json:"daily_reflection_time"`
	DailyReflectionSize     int            `json:"daily_reflection_size"`
	OverlapReflectTh        int            `json:"overlap_reflect_th"`
	KwStrgEventReflectTh    int            `json:"kw_strg_event_reflect_th"`
	KwStrgThoughtReflectTh  int            `json:"kw_strg_thought_reflect_th"`
	RecencyW                float64        `json:"recency_w"`
	RelevanceW              float64        `json:"relevance_w"`
	ImportanceW             float64        `json:"importance_w"`
	ValenceW                float64        `json:"valence_w"`
	RecencyDecay            float64        `json:"recency_decay"`
	ImportanceTriggerMax    int            `json:"importance_trigger_max"`
	ImportanceTriggerCurr   int            `json:"importance_trigger_curr"`
	ImportanceEleN          int            `json:"importance_ele_n"`
	ThoughtCount            int            `json:"thought_count"`
	DailyReq                []string       `json:"daily_req"`
	FDailySchedule          []Plan         `json:"f_daily_schedule"`
	FDailyScheduleHourlyOrg []Plan         `json:"f_daily_schedule_hourly_org"`
	ActAddress              string         `json:"act_address"`
	ActStartTime            CurrentTime    `json:"act_start_time"`
	ActDuration             int            `json:"act_duration"`
	ActDescription          string         `json:"act_description"`
	ActPronunciatio         string         `json:"act_pronunciatio"`
	ActEvent                SPO            `json:"act_event"`
	ActObjDescription       string         `json:"act_obj_description"`
	ActObjPronunciatio      string         `json:"act_obj_pronunciatio"`
	ActObjEvent             SPO            `json:"act_obj_event"`
	ChattingWith            *string        `json:"chatting_with"`
	Chat                    []Utterance    `json:"chat"`
	ChattingWithBuffer      map[string]int `json:"chatting_with_buffer"`
	ChattingEndTime         *CurrentTime   `json:"chatting_end_time"`
	ActPathSet              bool           `json:"act_path_set"`
	PlannedPath             []Position     `json:"planned_path"`
}

// marshalTuple and unmarshalTuple back the small fixed-arity types below
// (Plan, Position, SPO, Utterance), all of which the save format encodes
// as a bare JSON array rather than an object.
func marshalTuple(fields ...any) ([]byte, error) {
	return json.Marshal(fields)
}

func unmarshalTuple(data []byte, fields ...any) error {
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if len(raw) != len(fields) {
		return fmt.Errorf("expected %d-element tuple, got %d", len(fields), len(raw))
	}

	for i, f := range fields {
		if err := json.Unmarshal(raw[i], f); err != nil {
			return err
		}
	}

	return nil
}

type Plan struct {
	Activity string
	Duration int
}

func (p Plan) MarshalJSON() ([]byte, error) {
	return marshalTuple(p.Activity, p.Duration)
}

func (p *Plan) UnmarshalJSON(data []byte) error {
	return unmarshalTuple(data, &p.Activity, &p.Duration)
}

type Position struct {
	X, Y int
}

func (pos Position) MarshalJSON() ([]byte, error) {
	return marshalTuple(pos.X, pos.Y)
}

func (p *Position) UnmarshalJSON(data []byte) error {
	return unmarshalTuple(data, &p.X, &p.Y)
}

type SPO struct {
	Subject, Predicate, Object string
}

func (spo SPO) MarshalJSON() ([]byte, error) {
	return marshalTuple(spo.Subject, spo.Predicate, spo.Object)
}

func (spo *SPO) UnmarshalJSON(data []byte) error {
	return unmarshalTuple(data, &spo.Subject, &spo.Predicate, &spo.Object)
}

type Utterance struct {
	Speaker, Utterance string
}

func (u Utterance) MarshalJSON() ([]byte, error) {
	return marshalTuple(u.Speaker, u.Utterance)
}

func (u *Utterance) UnmarshalJSON(data []byte) error {
	return unmarshalTuple(data, &u.Speaker, &u.Utterance)
}
