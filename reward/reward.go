// reward computes the per-tick scalar reward.
//
// The rules are applied as a sequence of overwrites, never as a weighted sum:
//  1. living cost, or a small bonus when off sand and closer to the goal
//  2. on sand: sand penalty, and the car is slowed
//  3. boundary hit: boundary penalty
//  4. elapsed time over budget: stale penalty
//
// Later rules win. Reordering them changes what the agent learns.
package reward

import "sandcar/config"

// Conditions are the facts about one tick that the reward depends on.
type Conditions struct {
	OnSand       bool
	Distance     float64
	LastDistance float64
	BoundaryHit  bool
	Elapsed      float64
}

// Outcome is the reward and whether the car is slowed for the next move.
type Outcome struct {
	Reward float64
	Slowed bool
}

// Evaluate applies the override chain. It is a pure function of its inputs.
func Evaluate(cfg config.RewardConfig, c Conditions) (out Outcome) {
	if c.OnSand {
		out.Slowed = true
		out.Reward = cfg.Sand
	} else {
		out.Reward = cfg.Living
		if c.Distance < c.LastDistance {
			out.Reward = cfg.Closer
		}
	}

	if c.BoundaryHit {
		out.Reward = cfg.Boundary
	}

	if c.Elapsed > cfg.TimeBudget {
		out.Reward = cfg.Stale
	}
	return
}
