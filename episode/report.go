package episode

import (
	"os"
	"time"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// ScoreReport is the score history exported on save, for external plotting.
type ScoreReport struct {
	Generated time.Time `yaml:"generated"`
	Ticks     int       `yaml:"ticks"`
	Flips     int       `yaml:"flips"`
	Scores    []float64 `yaml:"scores"`
}

func WriteScoreReport(path string, report *ScoreReport) error {
	data, err := yaml.Marshal(report)
	if err != nil {
		return errors.Wrap(err, "marshal score report")
	}
	return errors.Wrapf(os.WriteFile(path, data, 0o644), "write score report %s", path)
}

func ReadScoreReport(path string) (*ScoreReport, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "read score report %s", path)
	}
	report := &ScoreReport{}
	if err = yaml.Unmarshal(data, report); err != nil {
		return nil, errors.Wrapf(err, "parse score report %s", path)
	}
	return report, nil
}

// Report builds the score report for the run so far.
func (l *Loop) Report() *ScoreReport {
	return &ScoreReport{
		Generated: time.Now().UTC(),
		Ticks:     l.tick,
		Flips:     l.goals.Flips(),
		Scores:    l.Scores(),
	}
}
