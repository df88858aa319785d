// Package build spreads instance loads over frames. Commands sit on a LIFO
// stack so nested instances finish before the instance that holds them.
package build

import (
	"context"
	"math/rand/v2"
	"time"

	"go.uber.org/zap"

	"prefabricator/internal/prefab"
)

// Command is one unit of build work. It may push further commands.
type Command interface {
	Execute(s *Scheduler)
}

// Scheduler executes queued commands within a per-tick time budget. It is
// not safe for concurrent use.
type Scheduler struct {
	engine *prefab.Engine
	budget time.Duration
	stack  []Command
	log    *zap.Logger

	// now is swapped in tests.
	now func() time.Time
}

// NewScheduler returns a scheduler spending at most budget per Tick. A
// non-positive budget drains the stack on every tick.
func NewScheduler(engine *prefab.Engine, budget time.Duration, log *zap.Logger) *Scheduler {
	if log == nil {
		log = zap.NewNop()
	}
	return &Scheduler{engine: engine, budget: budget, log: log, now: time.Now}
}

func (s *Scheduler) Engine() *prefab.Engine { return s.engine }

func (s *Scheduler) Push(cmd Command) {
	if cmd != nil {
		s.stack = append(s.stack, cmd)
	}
}

func (s *Scheduler) Pending() int { return len(s.stack) }

// Reset abandons every pending command.
func (s *Scheduler) Reset() {
	if n := len(s.stack); n > 0 {
		s.log.Debug("build commands abandoned", zap.Int("pending", n))
	}
	s.stack = nil
}

// Tick pops and executes commands until the stack is empty or the budget is
// spent. The budget is only checked between commands. It returns the number
// of commands executed.
func (s *Scheduler) Tick() int {
	start := s.now()
	ran := 0
	for len(s.stack) > 0 {
		cmd := s.stack[len(s.stack)-1]
		s.stack = s.stack[:len(s.stack)-1]
		cmd.Execute(s)
		ran++
		if s.budget > 0 && s.now().Sub(start) > s.budget {
			break
		}
	}
	return ran
}

// Run ticks until the stack is empty or ctx is done, waiting interval
// between ticks.
func (s *Scheduler) Run(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(max(interval, time.Millisecond))
	defer ticker.Stop()
	for {
		s.Tick()
		if len(s.stack) == 0 {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// BuildPrefab loads one instance without building its nested instances,
// then queues their builds above its own completion notice.
type BuildPrefab struct {
	Instance *prefab.Instance
	Settings prefab.LoadSettings
	// Report receives the load report when set.
	Report func(*prefab.LoadReport)
}

func (c *BuildPrefab) Execute(s *Scheduler) {
	if !c.Instance.Valid() {
		return
	}
	settings := c.Settings
	settings.SynchronousBuild = false
	report, err := s.engine.Load(c.Instance, settings)
	if err != nil {
		s.log.Warn("building instance", zap.Error(err))
		return
	}
	if c.Report != nil {
		c.Report(report)
	}
	s.Push(&NotifyBuildComplete{Instance: c.Instance})
	for _, child := range c.Instance.Nested() {
		s.Push(&BuildPrefab{Instance: child, Settings: c.Settings, Report: c.Report})
	}
}

// BuildPrefabSync randomizes the instance seed and loads the whole tree in
// one step.
type BuildPrefabSync struct {
	Instance *prefab.Instance
	Settings prefab.LoadSettings
	Random   *rand.Rand
	Report   func(*prefab.LoadReport)
}

func (c *BuildPrefabSync) Execute(s *Scheduler) {
	if !c.Instance.Valid() {
		return
	}
	s.engine.RandomizeSeed(c.Instance, c.Random, false)
	settings := c.Settings
	settings.SynchronousBuild = true
	settings.RandomizeNestedSeed = true
	settings.Random = c.Random
	report, err := s.engine.Load(c.Instance, settings)
	if err != nil {
		s.log.Warn("building instance", zap.Error(err))
		return
	}
	if c.Report != nil {
		c.Report(report)
	}
}

// NotifyBuildComplete fires the instance's event listener.
type NotifyBuildComplete struct {
	Instance *prefab.Instance
}

func (c *NotifyBuildComplete) Execute(s *Scheduler) {
	s.engine.HandleBuildComplete(c.Instance)
}
