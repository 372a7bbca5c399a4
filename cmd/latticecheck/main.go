// Command latticecheck runs a scenario headless for a fixed number of
// ticks and prints a lattice integrity report: segment states, derived
// tower slots, breaches, and whether the fortress interior is still
// sealed from the map border.
//
// Usage:
//
//	go run ./cmd/latticecheck -scenario config/scenario.yaml -ticks 600
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/cbs4385/Orc-sub003/internal/config"
	"github.com/cbs4385/Orc-sub003/internal/geom"
	"github.com/cbs4385/Orc-sub003/internal/nav"
	"github.com/cbs4385/Orc-sub003/internal/scenario"
	"github.com/cbs4385/Orc-sub003/internal/sim"
)

func main() {
	cfgPath := flag.String("config", "config/marchsim.yaml", "simulation config file")
	scPath := flag.String("scenario", "config/scenario.yaml", "scenario file")
	ticks := flag.Int("ticks", 600, "ticks to simulate")
	flag.Parse()

	// Keep the report readable: only warnings from the sim itself.
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelWarn,
	})))

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "loading config: %v\n", err)
		os.Exit(1)
	}
	sc, err := scenario.Load(*scPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "loading scenario: %v\n", err)
		os.Exit(1)
	}

	engine := sim.New(cfg)
	engine.LoadScenario(sc)
	for i := 0; i < *ticks; i++ {
		engine.Step()
	}

	fmt.Printf("=== lattice report: %s after %d ticks ===\n\n", sc.Name, *ticks)

	fmt.Println("segments:")
	for _, s := range engine.Walls().Segments() {
		pos := s.Pose().Position
		fmt.Printf("  #%-3d %-20s hp %3d/%-3d at (%6.2f, %6.2f)\n",
			s.ID(), s.State(), s.CurrentHP(), s.MaxHP(), pos.X, pos.Z)
	}

	fmt.Println("\ntower slots:")
	for _, s := range engine.Towers().Slots() {
		status := "intact"
		if !s.Intact() {
			status = "collapsed"
		}
		occ := "-"
		if s.Occupied() {
			occ = fmt.Sprintf("agent %d", s.Occupant())
		}
		fmt.Printf("  #%-3d %-9s occupant %-9s contributors %d at (%6.2f, %6.2f)\n",
			s.ID(), status, occ, s.ContributorCount(), s.Position().X, s.Position().Z)
	}

	fmt.Println("\ndefenders:")
	for _, ctl := range engine.Defenders().Controllers() {
		d := ctl.Defender()
		slot := "-"
		if d.Slot() != nil {
			slot = fmt.Sprintf("#%d", d.Slot().ID())
		}
		fmt.Printf("  agent %-3d %-18s slot %-5s at (%6.2f, %6.2f)\n",
			d.ID(), d.Mode(), slot, d.Position().X, d.Position().Z)
	}

	shared, dangling := 0, 0
	for _, s := range engine.Towers().Slots() {
		if s.ContributorCount() >= 2 {
			shared++
		} else {
			dangling++
		}
	}
	fmt.Printf("\nconnectivity: %d joined corners, %d open wall ends\n", shared, dangling)

	violations := 0
	slots := engine.Towers().Slots()
	for i, a := range slots {
		for _, b := range slots[i+1:] {
			if a.Occupied() && b.Occupied() && a.Position().DistXZ(b.Position()) < cfg.Tower.MinSpacing {
				violations++
				fmt.Printf("spacing violation: slots #%d and #%d both occupied within %.2f\n",
					a.ID(), b.ID(), cfg.Tower.MinSpacing)
			}
		}
	}
	if violations == 0 {
		fmt.Println("spacing: no occupied slots closer than the minimum")
	}

	breaches := engine.Walls().BreachedSegments()
	sealed := !engine.Grid().Reachable(nav.ClassGround, geom.Vec3{})
	fmt.Printf("\nbreaches: %d, hostiles alive: %d, ground rebuilds: %d\n",
		len(breaches), engine.Hostiles().Count(), engine.Grid().RebuildCount(nav.ClassGround))
	fmt.Printf("fortress interior sealed: %v\n", sealed)

	if len(breaches) > 0 && !sealed {
		os.Exit(2)
	}
}
