// reinforcement defines the contract between the simulation and its learning
// agent, and provides a tabular Q-learning agent that satisfies it.
package reinforcement

import "sandcar/models"

// Agent is the decision-making policy driven by the episode loop. It is stateful
// and opaque: each Decide call carries the reward earned by the previous action,
// from which the agent learns the implied (s, a, r, s') transition.
//
// Persist and Restore are never called concurrently with Decide. A failed Restore
// must leave the agent able to keep deciding.
type Agent interface {
	Decide(reward float64, obs models.Observation) models.Action
	Persist() error
	Restore() error
	// RunningScore is a trailing training signal for monitoring only.
	RunningScore() float64
}
