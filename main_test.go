package main

import (
	"os"
	"path/filepath"
	"testing"

	"sandcar/episode"

	. "github.com/smartystreets/goconvey/convey"
)

func writeConfig(dir string) string {
	path := filepath.Join(dir, "config.yaml")
	content := `kind: sandcar
def:
  agent:
    brainPath: ` + filepath.Join(dir, "brain.yaml") + `
    scoresPath: ` + filepath.Join(dir, "scores.yaml") + `
  training:
    hyperParams:
      - key: seed
        val: 3
`
	So(os.WriteFile(path, []byte(content), 0o644), ShouldBeNil)
	return path
}

func TestTrainCommand(t *testing.T) {
	Convey("When the train command runs", t, func() {
		dir := t.TempDir()
		path := writeConfig(dir)

		root := newRootCmd()
		root.SetArgs([]string{"train", "--config", path, "--ticks", "300"})
		So(root.Execute(), ShouldBeNil)

		Convey("The agent and the score report are saved", func() {
			_, err := os.Stat(filepath.Join(dir, "brain.yaml"))
			So(err, ShouldBeNil)

			report, err := episode.ReadScoreReport(filepath.Join(dir, "scores.yaml"))
			So(err, ShouldBeNil)
			So(report.Ticks, ShouldEqual, 300)
			So(len(report.Scores), ShouldEqual, 300)

			Convey("And the report command can read it back", func() {
				root := newRootCmd()
				root.SetArgs([]string{"report", "--config", path})
				So(root.Execute(), ShouldBeNil)
			})
		})
	})

	Convey("A missing config fails the command", t, func() {
		root := newRootCmd()
		root.SetArgs([]string{"train", "--config", filepath.Join(t.TempDir(), "nope.yaml")})
		So(root.Execute(), ShouldNotBeNil)
	})
}

func TestSummarize(t *testing.T) {
	Convey("When a score history is summarized", t, func() {
		best, worst := summarize([]float64{-0.2, 0.5, -1.5, 0.1})
		So(best, ShouldEqual, 0.5)
		So(worst, ShouldEqual, -1.5)
		So(lastScore([]float64{-0.2, 0.1}), ShouldEqual, 0.1)

		best, worst = summarize(nil)
		So(best, ShouldEqual, 0.0)
		So(worst, ShouldEqual, 0.0)
		So(lastScore(nil), ShouldEqual, 0.0)
	})

	Convey("Environment values override flag defaults", t, func() {
		t.Setenv("SANDCAR_TEST_PORT", "9090")
		So(envOr("SANDCAR_TEST_PORT", "8080"), ShouldEqual, "9090")
		So(envOr("SANDCAR_TEST_UNSET", "8080"), ShouldEqual, "8080")
	})
}
