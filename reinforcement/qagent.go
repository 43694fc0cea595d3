package reinforcement

import (
	"fmt"
	"io"
	"math"
	"math/rand"
	"os"
	"time"

	"sandcar/config"
	"sandcar/models"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/floats"
	"gopkg.in/yaml.v3"
)

// QAgent is a tabular Q-learner over a discretized observation. The continuous
// observation is binned per signal, per orientation, and per elapsed-time band, and
// each bin combination keys a row of action values. Actions are chosen epsilon-greedy;
// ties go to the lowest action index, so with epsilon 0 the agent is deterministic.
type QAgent struct {
	// Epsilon: the agent exploration/exploitation policy param.
	epsilon float64
	// Eta: the learning rate
	eta float64
	// Gamma: the look-ahead parameter, or how much to value future state values.
	gamma float64

	signalBins      int
	orientationBins int
	elapsedBand     float64
	elapsedBins     int
	window          int

	path string
	rng  *rand.Rand

	table   map[string][]float64
	last    models.Observation
	action  models.Action
	hasLast bool
	rewards []float64
}

// NewQAgent builds an agent from the training hyper-params. Its state is persisted
// to and restored from path.
func NewQAgent(cfg *config.TrainingConfig, path string) *QAgent {
	seed := int64(cfg.GetHyperParamOrDefault("seed", 0))
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	// Configs built in code skip Validate; a negative window keeps no rewards.
	window := int(cfg.GetHyperParamOrDefault("rewardWindow", 1000))
	if window < 0 {
		window = 0
	}
	return &QAgent{
		epsilon:         cfg.GetHyperParamOrDefault("epsilon", 0.1),
		eta:             cfg.GetHyperParamOrDefault("eta", 0.1),
		gamma:           cfg.GetHyperParamOrDefault("gamma", 0.9),
		signalBins:      int(cfg.GetHyperParamOrDefault("signalBins", 4)),
		orientationBins: int(cfg.GetHyperParamOrDefault("orientationBins", 8)),
		elapsedBand:     cfg.GetHyperParamOrDefault("elapsedBand", 5),
		elapsedBins:     int(cfg.GetHyperParamOrDefault("elapsedBins", 3)),
		window:          window,
		path:            path,
		rng:             rand.New(rand.NewSource(seed)),
		table:           map[string][]float64{},
	}
}

// Decide learns from the transition that ended with obs, then picks the next action.
func (agent *QAgent) Decide(reward float64, obs models.Observation) models.Action {
	if agent.hasLast {
		agent.learn(models.Transition{
			State:     agent.last,
			Action:    agent.action,
			Reward:    reward,
			Successor: obs,
		})
	}

	action := agent.policy(agent.key(obs))
	agent.remember(reward)
	agent.last = obs
	agent.action = action
	agent.hasLast = true
	return action
}

// RunningScore is the trailing reward window's sum over its length plus one, so an
// empty window scores 0.
func (agent *QAgent) RunningScore() float64 {
	return floats.Sum(agent.rewards) / float64(len(agent.rewards)+1)
}

// Q-learning update: Q(s,a) += eta * (r + gamma * max_a' Q(s',a') - Q(s,a))
func (agent *QAgent) learn(t models.Transition) {
	values := agent.row(agent.key(t.State))
	next := agent.row(agent.key(t.Successor))
	target := t.Reward + agent.gamma*floats.Max(next)
	values[t.Action] += agent.eta * (target - values[t.Action])
}

func (agent *QAgent) policy(state string) models.Action {
	if agent.rng.Float64() < agent.epsilon {
		// Exploration: do something random
		return models.Action(agent.rng.Intn(int(models.NumActions)))
	}
	// Exploitation: floats.MaxIdx returns the first maximal index.
	return models.Action(floats.MaxIdx(agent.row(state)))
}

func (agent *QAgent) remember(reward float64) {
	agent.rewards = append(agent.rewards, reward)
	agent.trimWindow()
}

// trimWindow drops the oldest rewards beyond the window length.
func (agent *QAgent) trimWindow() {
	if over := len(agent.rewards) - agent.window; over > 0 {
		agent.rewards = append(agent.rewards[:0], agent.rewards[over:]...)
	}
}

func (agent *QAgent) row(state string) []float64 {
	values, ok := agent.table[state]
	if !ok {
		values = make([]float64, models.NumActions)
		agent.table[state] = values
	}
	return values
}

// key discretizes an observation. NegOrientation carries no extra information for
// a table and is skipped.
func (agent *QAgent) key(obs models.Observation) string {
	return fmt.Sprintf("%d.%d.%d.%d.%d",
		bin(obs[models.SignalFront], 1, agent.signalBins),
		bin(obs[models.SignalLeft], 1, agent.signalBins),
		bin(obs[models.SignalRight], 1, agent.signalBins),
		bin(obs[models.Orientation], 1, agent.orientationBins),
		bin(obs[models.Elapsed], agent.elapsedBand*float64(agent.elapsedBins), agent.elapsedBins),
	)
}

// bin maps v in [0,span] onto [0,n), saturating at both ends.
func bin(v, span float64, n int) int {
	if n <= 1 || span <= 0 || math.IsNaN(v) {
		return 0
	}
	b := int(math.Floor(v / span * float64(n)))
	if b < 0 {
		return 0
	}
	if b >= n {
		return n - 1
	}
	return b
}

// brain is the persisted form of the agent's learned and pending state.
type brain struct {
	Table   map[string][]float64 `yaml:"table"`
	Last    []float64            `yaml:"last"`
	Action  int                  `yaml:"action"`
	HasLast bool                 `yaml:"hasLast"`
	Rewards []float64            `yaml:"rewards"`
}

// Encode writes the agent's state to w.
func (agent *QAgent) Encode(w io.Writer) error {
	b := brain{
		Table:   agent.table,
		Last:    agent.last[:],
		Action:  int(agent.action),
		HasLast: agent.hasLast,
		Rewards: agent.rewards,
	}
	enc := yaml.NewEncoder(w)
	if err := enc.Encode(&b); err != nil {
		return errors.Wrap(err, "encode brain")
	}
	return errors.Wrap(enc.Close(), "flush brain")
}

// Decode replaces the agent's state with the one read from r. On any error the
// agent is left untouched.
func (agent *QAgent) Decode(r io.Reader) error {
	var b brain
	if err := yaml.NewDecoder(r).Decode(&b); err != nil {
		return errors.Wrap(err, "decode brain")
	}
	for state, values := range b.Table {
		if len(values) != int(models.NumActions) {
			return errors.Errorf("state %s has %d action values, want %d", state, len(values), models.NumActions)
		}
	}
	if b.HasLast && (len(b.Last) != models.ObservationSize || !models.Action(b.Action).Valid()) {
		return errors.New("pending transition is malformed")
	}

	if b.Table == nil {
		b.Table = map[string][]float64{}
	}
	agent.table = b.Table
	agent.hasLast = b.HasLast
	agent.last = models.Observation{}
	copy(agent.last[:], b.Last)
	agent.action = models.Action(b.Action)
	agent.rewards = b.Rewards
	agent.trimWindow()
	return nil
}

// Persist writes the agent's state to its brain file, replacing it atomically.
func (agent *QAgent) Persist() (err error) {
	tmp := agent.path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return errors.Wrap(err, "persist")
	}
	if err = agent.Encode(f); err != nil {
		f.Close()
		return err
	}
	if err = f.Close(); err != nil {
		return errors.Wrap(err, "persist")
	}
	return errors.Wrap(os.Rename(tmp, agent.path), "persist")
}

// Restore loads the agent's state from its brain file.
func (agent *QAgent) Restore() error {
	f, err := os.Open(agent.path)
	if err != nil {
		return errors.Wrap(err, "restore")
	}
	defer f.Close()
	return errors.Wrapf(agent.Decode(f), "restore %s", agent.path)
}
