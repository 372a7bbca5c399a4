package scenario

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Scenario is a YAML-described battle setup: the initial lattice, the
// defender roster, hostile waves, and scripted damage/repair events.
type Scenario struct {
	Name      string    `yaml:"name"`
	Walls     []Wall    `yaml:"walls"`
	Defenders []Agent   `yaml:"defenders"`
	Hostiles  []Hostile `yaml:"hostiles"`
	Events    []Event   `yaml:"events"`
}

// Wall is one pre-placed segment. Yaw is given in degrees for hand
// authoring. Scale 0 means 1.
type Wall struct {
	X                 float64 `yaml:"x"`
	Z                 float64 `yaml:"z"`
	YawDeg            float64 `yaml:"yaw_deg"`
	Scale             float64 `yaml:"scale"`
	UnderConstruction bool    `yaml:"under_construction"`
}

// Agent is one defender spawn.
type Agent struct {
	ID int     `yaml:"id"`
	X  float64 `yaml:"x"`
	Z  float64 `yaml:"z"`
}

// Hostile is one attacker spawn, entering the field at Tick.
type Hostile struct {
	ID   int     `yaml:"id"`
	X    float64 `yaml:"x"`
	Z    float64 `yaml:"z"`
	Tick int     `yaml:"tick"`
}

// Event actions.
const (
	ActionDamage  = "damage"
	ActionRepair  = "repair"
	ActionGuard   = "guard"
	ActionUnguard = "unguard"
	ActionKill    = "kill"
)

// Event is one scripted mutation applied at the start of Tick.
type Event struct {
	Tick    int    `yaml:"tick"`
	Action  string `yaml:"action"`
	Segment int    `yaml:"segment"` // damage/repair target handle
	Amount  int    `yaml:"amount"`  // damage/repair amount
	Agent   int    `yaml:"agent"`   // guard/unguard defender, kill hostile
}

// Load reads and validates a scenario file.
func Load(path string) (Scenario, error) {
	var sc Scenario

	data, err := os.ReadFile(path)
	if err != nil {
		return sc, fmt.Errorf("reading scenario %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &sc); err != nil {
		return sc, fmt.Errorf("parsing scenario %s: %w", path, err)
	}
	if err := sc.Validate(); err != nil {
		return sc, fmt.Errorf("validating scenario %s: %w", path, err)
	}
	return sc, nil
}

// Validate checks ids, ticks, and event actions.
func (sc Scenario) Validate() error {
	seenAgents := make(map[int]bool)
	for _, a := range sc.Defenders {
		if a.ID == 0 {
			return fmt.Errorf("defender id must be non-zero")
		}
		if seenAgents[a.ID] {
			return fmt.Errorf("duplicate defender id %d", a.ID)
		}
		seenAgents[a.ID] = true
	}

	seenHostiles := make(map[int]bool)
	for _, h := range sc.Hostiles {
		if h.ID == 0 {
			return fmt.Errorf("hostile id must be non-zero")
		}
		if seenHostiles[h.ID] {
			return fmt.Errorf("duplicate hostile id %d", h.ID)
		}
		if h.Tick < 0 {
			return fmt.Errorf("hostile %d: negative spawn tick %d", h.ID, h.Tick)
		}
		seenHostiles[h.ID] = true
	}

	for i, e := range sc.Events {
		if e.Tick < 0 {
			return fmt.Errorf("event %d: negative tick %d", i, e.Tick)
		}
		switch e.Action {
		case ActionDamage, ActionRepair:
			if e.Amount <= 0 {
				return fmt.Errorf("event %d: %s amount must be positive", i, e.Action)
			}
		case ActionGuard, ActionUnguard, ActionKill:
			if e.Agent == 0 {
				return fmt.Errorf("event %d: %s needs an agent id", i, e.Action)
			}
		default:
			return fmt.Errorf("event %d: unknown action %q", i, e.Action)
		}
	}
	return nil
}

// EventsAt returns the scripted events for one tick, in file order.
func (sc Scenario) EventsAt(tick int) []Event {
	var out []Event
	for _, e := range sc.Events {
		if e.Tick == tick {
			out = append(out, e)
		}
	}
	return out
}

// HostilesAt returns the hostile spawns scheduled for one tick.
func (sc Scenario) HostilesAt(tick int) []Hostile {
	var out []Hostile
	for _, h := range sc.Hostiles {
		if h.Tick == tick {
			out = append(out, h)
		}
	}
	return out
}
