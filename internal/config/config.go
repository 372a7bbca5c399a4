package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Sim holds all configuration for the wall-lattice simulation.
type Sim struct {
	// Simulation tick length in milliseconds.
	TickMS int `yaml:"tick_ms"`

	LogLevel string `yaml:"log_level"`

	Snap     SnapConfig     `yaml:"snap"`
	Wall     WallConfig     `yaml:"wall"`
	Tower    TowerConfig    `yaml:"tower"`
	Defender DefenderConfig `yaml:"defender"`
	Nav      NavConfig      `yaml:"nav"`
}

// SnapConfig holds the placement solver radii and scoring.
type SnapConfig struct {
	BroadRadius    float64 `yaml:"broad_radius"`     // end-center collection around pointer
	AcceptRadius   float64 `yaml:"accept_radius"`    // max candidate-center drift from pointer
	RingRadius     float64 `yaml:"ring_radius"`      // far-end search for ring closing
	RingCloseBonus float64 `yaml:"ring_close_bonus"` // fixed score bonus for ring-closing snaps
}

// WallConfig holds wall segment parameters.
type WallConfig struct {
	MaxHP int `yaml:"max_hp"`

	// Cost charged when a placement begins, refunded on cancel.
	Cost int `yaml:"cost"`

	// BreachClearRadius: tower obstacles within this distance of a
	// breached segment's endpoint are lifted for the rebuild.
	BreachClearRadius float64 `yaml:"breach_clear_radius"`
}

// TowerConfig holds slot allocator parameters.
type TowerConfig struct {
	DedupRadius      float64 `yaml:"dedup_radius"`      // endpoint merge distance (XZ)
	MinSpacing       float64 `yaml:"min_spacing"`       // occupied-slot exclusion distance
	RequesterPenalty float64 `yaml:"requester_penalty"` // walking-distance tie-break weight
}

// DefenderConfig holds the placement state machine tuning.
type DefenderConfig struct {
	SeekIntervalTicks     int     `yaml:"seek_interval_ticks"`
	ReassessIntervalTicks int     `yaml:"reassess_interval_ticks"`
	StuckTimeoutTicks     int     `yaml:"stuck_timeout_ticks"`
	ArriveThreshold       float64 `yaml:"arrive_threshold"`
	InteriorOffset        float64 `yaml:"interior_offset"` // approach-point pullback toward the fortress
	WalkSpeed             float64 `yaml:"walk_speed"`      // world units per tick
}

// NavConfig holds the navigable-area grid extents.
type NavConfig struct {
	CellSize float64 `yaml:"cell_size"`
	OriginX  float64 `yaml:"origin_x"`
	OriginZ  float64 `yaml:"origin_z"`
	Cols     int     `yaml:"cols"`
	Rows     int     `yaml:"rows"`
}

// Default returns Sim config with sensible defaults. Radii are scaled
// to the canonical 2-unit segment width.
func Default() Sim {
	return Sim{
		TickMS:   100,
		LogLevel: "info",
		Snap: SnapConfig{
			BroadRadius:    3.0,
			AcceptRadius:   1.5,
			RingRadius:     2.5,
			RingCloseBonus: 100.0,
		},
		Wall: WallConfig{
			MaxHP:             100,
			Cost:              25,
			BreachClearRadius: 0.75,
		},
		Tower: TowerConfig{
			DedupRadius:      0.6,
			MinSpacing:       1.2,
			RequesterPenalty: 0.1,
		},
		Defender: DefenderConfig{
			SeekIntervalTicks:     10,
			ReassessIntervalTicks: 30,
			StuckTimeoutTicks:     100,
			ArriveThreshold:       0.25,
			InteriorOffset:        0.75,
			WalkSpeed:             0.35,
		},
		Nav: NavConfig{
			CellSize: 0.5,
			OriginX:  -32,
			OriginZ:  -32,
			Cols:     128,
			Rows:     128,
		},
	}
}

// Load reads a Sim config from a YAML file, applying defaults for
// any field the file omits.
func Load(path string) (Sim, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("reading config %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing config %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("validating config %s: %w", path, err)
	}

	return cfg, nil
}

// Validate checks invariants the rest of the system relies on.
func (c Sim) Validate() error {
	if c.TickMS <= 0 {
		return fmt.Errorf("tick_ms must be positive, got %d", c.TickMS)
	}
	if c.Snap.AcceptRadius <= 0 || c.Snap.BroadRadius < c.Snap.AcceptRadius {
		return fmt.Errorf("snap radii invalid: broad=%v accept=%v", c.Snap.BroadRadius, c.Snap.AcceptRadius)
	}
	if c.Wall.MaxHP <= 0 {
		return fmt.Errorf("wall max_hp must be positive, got %d", c.Wall.MaxHP)
	}
	if c.Tower.DedupRadius <= 0 {
		return fmt.Errorf("tower dedup_radius must be positive, got %v", c.Tower.DedupRadius)
	}
	if c.Nav.CellSize <= 0 || c.Nav.Cols <= 0 || c.Nav.Rows <= 0 {
		return fmt.Errorf("nav grid invalid: cell=%v cols=%d rows=%d", c.Nav.CellSize, c.Nav.Cols, c.Nav.Rows)
	}
	return nil
}
