package model

import (
	"encoding/json"
	"fmt"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// DatabaseModels lists every table of the flight journal, in migration
// order.
var DatabaseModels = []any{
	&Session{},
	&Transition{},
	&Flight{},
}

// Session is one run of the simulator.
type Session struct {
	gorm.Model
	Name      string     `json:"name" gorm:"size:127"`
	StartedAt time.Time  `json:"startedAt"`
	EndedAt   *time.Time `json:"endedAt"`
	TimeScale float64    `json:"timeScale"`
}

func (*Session) TableName() string {
	return "sessions"
}

// Transition is one state change of one aircraft.
type Transition struct {
	ID          uint           `json:"id" gorm:"primarykey;autoIncrement"`
	CreatedAt   time.Time      `json:"createdAt"`
	SessionID   uint           `json:"sessionId" gorm:"index:idx_transition_session_id"`
	Session     Session        `json:"-" gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;foreignkey:SessionID;"`
	Transponder string         `json:"transponder" gorm:"size:8;index:idx_transition_transponder"`
	FromState   string         `json:"from" gorm:"size:32"`
	ToState     string         `json:"to" gorm:"size:32"`
	Silent      bool           `json:"silent"`
	SimTime     float64        `json:"simTime"`
	Aircraft    datatypes.JSON `json:"aircraft"`
}

func (*Transition) TableName() string {
	return "transitions"
}

// Flight summarizes an aircraft once it leaves the simulation.
type Flight struct {
	ID          uint           `json:"id" gorm:"primarykey;autoIncrement"`
	CreatedAt   time.Time      `json:"createdAt"`
	SessionID   uint           `json:"sessionId" gorm:"index:idx_flight_session_id"`
	Session     Session        `json:"-" gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;foreignkey:SessionID;"`
	Transponder string         `json:"transponder" gorm:"size:8"`
	FlightID    int            `json:"flightId"`
	Outcome     string         `json:"outcome" gorm:"size:16;index:idx_flight_outcome"`
	SpawnedAt   float64        `json:"spawnedAt"`
	ExitedAt    float64        `json:"exitedAt"`
	MaxPriority int            `json:"maxPriority"`
	Aircraft    datatypes.JSON `json:"aircraft"`
}

func (*Flight) TableName() string {
	return "flights"
}

// JSON marshals v for a datatypes.JSON column.
func JSON(v any) (datatypes.JSON, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("marshal snapshot: %w", err)
	}
	return datatypes.JSON(b), nil
}
