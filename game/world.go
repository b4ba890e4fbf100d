// Package game runs trials: a World of agents, pipes and ground ticked until
// terminal, the Evaluator that scores a generation in it, and the Trainer that
// drives evolution across generations.
package game

import (
	"math"
	"math/rand"

	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/flappy/components"
	"github.com/pthm-cable/flappy/config"
	"github.com/pthm-cable/flappy/systems"
	"github.com/pthm-cable/flappy/telemetry"
)

// World holds the state of one trial. Agents are ECS entities; pipes and the
// ground are plain values. A World is used for a single generation and then
// dropped.
type World struct {
	cfg *config.Config

	world       *ecs.World
	agentMapper *ecs.Map4[
		components.Position,
		components.Flight,
		components.Pose,
		components.Pilot,
	]
	agentFilter *ecs.Filter4[
		components.Position,
		components.Flight,
		components.Pose,
		components.Pilot,
	]

	flight      systems.FlightModel
	silhouettes systems.Silhouettes
	spawner     *systems.PipeSpawner

	pipes  []components.Pipe
	ground components.Ground

	tick       int
	score      int
	alive      int
	collisions int
	crashes    int

	perf *telemetry.PerfCollector

	// Per-tick scratch
	inputs  [3]float64
	doomed  []ecs.Entity
	removed map[ecs.Entity]struct{}
	retire  []bool
}

// WorldOption customizes a World.
type WorldOption func(*World)

// WithSilhouettes replaces the default collision masks.
func WithSilhouettes(s systems.Silhouettes) WorldOption {
	return func(w *World) { w.silhouettes = s }
}

// WithPerf records per-phase step timing into p.
func WithPerf(p *telemetry.PerfCollector) WorldOption {
	return func(w *World) { w.perf = p }
}

// NewWorld creates an empty trial with the first pipe and the ground in place.
func NewWorld(cfg *config.Config, rng *rand.Rand, opts ...WorldOption) *World {
	world := ecs.NewWorld()

	w := &World{
		cfg:   cfg,
		world: world,
		agentMapper: ecs.NewMap4[
			components.Position,
			components.Flight,
			components.Pose,
			components.Pilot,
		](world),
		agentFilter: ecs.NewFilter4[
			components.Position,
			components.Flight,
			components.Pose,
			components.Pilot,
		](world),
		flight:  systems.NewFlightModel(cfg),
		spawner: systems.NewPipeSpawner(cfg, rng),
		ground:  systems.NewGround(cfg.Ground.Y, cfg.Ground.Width),
		removed: make(map[ecs.Entity]struct{}),
	}
	for _, opt := range opts {
		opt(w)
	}
	if w.silhouettes.Bird == nil {
		w.silhouettes = systems.DefaultSilhouettes(cfg)
	}

	w.pipes = append(w.pipes, w.spawner.Spawn(cfg.Pipe.FirstX))
	return w
}

// AddAgent places a new agent at the start position. The pilot's controller
// and fitness accumulator live on the same entity and leave with it.
func (w *World) AddAgent(pilot components.Pilot) ecs.Entity {
	pos := components.Position{X: w.cfg.Bird.StartX, Y: w.cfg.Bird.StartY}
	flight := components.Flight{Anchor: pos.Y}
	pose := components.Pose{}

	w.alive++
	return w.agentMapper.NewEntity(&pos, &flight, &pose, &pilot)
}

// Step advances the trial by one tick.
func (w *World) Step() {
	if w.alive == 0 {
		return
	}
	cfg := w.cfg

	w.perf.StartPhase(telemetry.PhaseAgents)
	next := w.nextPipe()

	query := w.agentFilter.Query()
	for query.Next() {
		pos, flight, pose, pilot := query.Get()

		w.flight.Move(pos, flight, pose)
		w.flight.Animate(pose)
		pilot.Score.AddFitness(cfg.Fitness.AliveReward)

		w.inputs = [3]float64{pos.Y, 0, 0}
		if next != nil {
			w.inputs[1] = math.Abs(pos.Y - next.Top)
			w.inputs[2] = math.Abs(pos.Y - next.Bottom())
		}
		out := pilot.Controller.Activate(w.inputs[:])
		pilot.Inputs = w.inputs
		if len(out) == 0 {
			continue
		}
		pilot.Output = out[0]
		if out[0] > cfg.Fitness.JumpThreshold {
			w.flight.Jump(pos, flight)
		}
	}

	w.perf.StartPhase(telemetry.PhasePipes)
	w.doomed = w.doomed[:0]
	clear(w.removed)
	w.retire = w.retire[:0]
	passed := false

	for i := range w.pipes {
		pipe := &w.pipes[i]

		query := w.agentFilter.Query()
		for query.Next() {
			e := query.Entity()
			if _, gone := w.removed[e]; gone {
				continue
			}
			pos, _, _, pilot := query.Get()

			if w.silhouettes.HitsPipe(*pos, pipe) {
				pilot.Score.AddFitness(-cfg.Fitness.CollisionPenalty)
				w.removed[e] = struct{}{}
				w.doomed = append(w.doomed, e)
			}
			if systems.MarkPassed(pipe, pos.X) {
				passed = true
			}
		}

		w.retire = append(w.retire, systems.OffScreen(pipe, cfg.Derived.PipeWidth))
		systems.MovePipe(pipe, cfg.Pipe.Velocity)
	}

	w.collisions += len(w.doomed)
	w.removeDoomed()

	if passed {
		w.score++
		query := w.agentFilter.Query()
		for query.Next() {
			_, _, _, pilot := query.Get()
			pilot.Score.AddFitness(cfg.Fitness.PassBonus)
		}
		w.pipes = append(w.pipes, w.spawner.Spawn(cfg.Pipe.SpawnX))
	}
	w.retirePipes()

	w.perf.StartPhase(telemetry.PhaseBounds)
	w.doomed = w.doomed[:0]
	query = w.agentFilter.Query()
	for query.Next() {
		pos, _, _, _ := query.Get()
		if systems.OutOfBounds(pos.Y, cfg.Derived.BirdHeight, w.ground.Y) {
			w.doomed = append(w.doomed, query.Entity())
		}
	}
	w.crashes += len(w.doomed)
	w.removeDoomed()

	w.tick++

	// The ground freezes on the tick the score cap is exceeded
	if w.score <= cfg.Trial.ScoreCap {
		systems.MoveGround(&w.ground, cfg.Ground.Velocity)
	}
}

// nextPipe returns the pipe agents should steer for: the second one once the
// agents have cleared the first.
func (w *World) nextPipe() *components.Pipe {
	if len(w.pipes) == 0 {
		return nil
	}
	if len(w.pipes) > 1 && w.cfg.Bird.StartX > w.pipes[0].X+w.cfg.Derived.PipeWidth {
		return &w.pipes[1]
	}
	return &w.pipes[0]
}

// removeDoomed deletes the collected entities. Must run after the query that
// collected them has finished.
func (w *World) removeDoomed() {
	for _, e := range w.doomed {
		w.world.RemoveEntity(e)
		w.alive--
	}
	w.doomed = w.doomed[:0]
}

// retirePipes drops pipes flagged off-screen this tick. Pipes spawned after
// the flags were taken are always kept.
func (w *World) retirePipes() {
	kept := w.pipes[:0]
	for i, p := range w.pipes {
		if i < len(w.retire) && w.retire[i] {
			continue
		}
		kept = append(kept, p)
	}
	w.pipes = kept
}

// Over reports whether the trial is terminal.
func (w *World) Over() bool {
	if w.alive == 0 || w.score > w.cfg.Trial.ScoreCap {
		return true
	}
	return w.cfg.Trial.MaxTicks > 0 && w.tick >= w.cfg.Trial.MaxTicks
}

// Agents returns the number of live agents.
func (w *World) Agents() int { return w.alive }

// Score returns the number of pipes passed.
func (w *World) Score() int { return w.score }

// Tick returns the number of completed steps.
func (w *World) Tick() int { return w.tick }

// Collisions returns the number of agents removed by pipe contact.
func (w *World) Collisions() int { return w.collisions }

// Crashes returns the number of agents removed for leaving the world bounds.
func (w *World) Crashes() int { return w.crashes }

// Pipes returns the live pipes, oldest first. Callers must not modify them.
func (w *World) Pipes() []components.Pipe { return w.pipes }

// Ground returns the current ground state.
func (w *World) Ground() components.Ground { return w.ground }

// Pilots returns the pilots of all live agents.
func (w *World) Pilots() []components.Pilot {
	out := make([]components.Pilot, 0, w.alive)
	query := w.agentFilter.Query()
	for query.Next() {
		_, _, _, pilot := query.Get()
		out = append(out, *pilot)
	}
	return out
}

// Frame fills f with a read-only snapshot for presentation, reusing its
// slices.
func (w *World) Frame(f *Frame) {
	f.Tick = w.tick
	f.Score = w.score
	f.Alive = w.alive
	f.Ground = w.ground
	f.Pipes = append(f.Pipes[:0], w.pipes...)

	f.Agents = f.Agents[:0]
	query := w.agentFilter.Query()
	for query.Next() {
		pos, _, pose, pilot := query.Get()
		f.Agents = append(f.Agents, AgentView{
			ID:         pilot.ID,
			Species:    pilot.Species,
			X:          pos.X,
			Y:          pos.Y,
			Tilt:       pose.Tilt,
			WingFrame:  pose.Frame,
			Inputs:     pilot.Inputs,
			Output:     pilot.Output,
			Controller: pilot.Controller,
		})
	}
}
