package episode

import (
	"encoding/json"
	"log"

	"sandcar/models"

	"github.com/pkg/errors"
)

// CommandKind names an instruction from the input collaborator.
type CommandKind string

const (
	Paint  CommandKind = "paint"
	Clear  CommandKind = "clear"
	Save   CommandKind = "save"
	Load   CommandKind = "load"
	Scores CommandKind = "scores"
)

// Command is applied by the loop between ticks. Reply, if set, receives exactly one
// Reply and should be buffered; the loop never blocks on it.
type Command struct {
	Kind  CommandKind   `json:"kind"`
	A     models.Vec2   `json:"a"`
	B     models.Vec2   `json:"b"`
	Reply chan<- Reply `json:"-"`
}

type Reply struct {
	Err    error
	Scores []float64
}

var ErrUnknownCommand = errors.New("unknown command")

// ParseCommand decodes a json command, e.g. {"kind":"paint","a":{"x":1,"y":2},"b":{"x":3,"y":4}}.
func ParseCommand(data []byte) (cmd Command, err error) {
	if err = json.Unmarshal(data, &cmd); err != nil {
		return cmd, errors.Wrap(err, "parse command")
	}
	if !cmd.Kind.Valid() {
		return cmd, errors.Wrapf(ErrUnknownCommand, "%q", cmd.Kind)
	}
	return cmd, nil
}

func (k CommandKind) Valid() bool {
	switch k {
	case Paint, Clear, Save, Load, Scores:
		return true
	}
	return false
}

// Apply executes a command against the loop's state. Persistence failures are
// returned in the reply and logged; they never stop the loop.
func (l *Loop) Apply(cmd Command) (reply Reply) {
	switch cmd.Kind {
	case Paint:
		l.field.Paint(cmd.A, cmd.B)
	case Clear:
		l.field.Clear()
	case Save:
		reply.Err = l.save()
	case Load:
		if err := l.agent.Restore(); err != nil {
			reply.Err = errors.Wrap(err, "load")
		}
	case Scores:
		reply.Scores = l.Scores()
	default:
		reply.Err = errors.Wrapf(ErrUnknownCommand, "%q", cmd.Kind)
	}

	if reply.Err != nil {
		log.Printf("episode: %s: %v", cmd.Kind, reply.Err)
	}
	if cmd.Reply != nil {
		select {
		case cmd.Reply <- reply:
		default:
			log.Printf("episode: dropped %s reply, reply channel full", cmd.Kind)
		}
	}
	return
}

// save persists the agent and exports the score history.
func (l *Loop) save() error {
	if err := l.agent.Persist(); err != nil {
		return errors.Wrap(err, "save agent")
	}
	return WriteScoreReport(l.cfg.Agent.ScoresPath, l.Report())
}
