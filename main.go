/*
Sandcar trains a small car to shuttle between two corners of a field while
avoiding sand that a person paints onto it. The agent learns online, one tick
at a time, from three proximity sensors, its orientation to the goal, and how
long it has been since it last reached a goal. `serve` runs the simulation in
realtime behind a browser page where sand is painted; `train` runs it headless
on a simulated clock as fast as the cpu allows.
*/

package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"

	"sandcar/config"
	"sandcar/episode"
	"sandcar/reinforcement"
	"sandcar/server"

	"github.com/cheggaaa/pb"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/ttacon/chalk"
	"golang.org/x/sync/errgroup"
)

var (
	configPath string
	host       string
	port       string
	ticks      int
	restore    bool
)

// envOr returns the environment value for key, or def when unset.
func envOr(key, def string) string {
	if val, ok := os.LookupEnv(key); ok && val != "" {
		return val
	}
	return def
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "sandcar",
		Short:         "Sandcar trains a car to drive between two goals while avoiding hand-painted sand.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVar(&configPath, "config", envOr("SANDCAR_CONFIG", "./config.yaml"), "path to the yaml config")
	rootCmd.PersistentFlags().BoolVar(&restore, "restore", false, "restore the saved agent before starting")

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the simulation in realtime and serve the paint/view page",
		RunE:  runServe,
	}
	serveCmd.Flags().StringVar(&host, "host", envOr("SANDCAR_HOST", ""), "the host ip")
	serveCmd.Flags().StringVar(&port, "port", envOr("SANDCAR_PORT", "8080"), "the host port")

	trainCmd := &cobra.Command{
		Use:   "train",
		Short: "Run ticks headless on a simulated clock, then save the agent and scores",
		RunE:  runTrain,
	}
	trainCmd.Flags().IntVar(&ticks, "ticks", 100000, "number of ticks to run")

	reportCmd := &cobra.Command{
		Use:   "report",
		Short: "Summarize the saved score report",
		RunE:  runReport,
	}

	rootCmd.AddCommand(serveCmd, trainCmd, reportCmd)
	return rootCmd
}

// newLoop builds the loop from config, optionally restoring the saved agent.
func newLoop(cfg *config.Config, clock episode.Clock) *episode.Loop {
	agent := reinforcement.NewQAgent(&cfg.Training, cfg.Agent.BrainPath)
	if restore {
		if err := agent.Restore(); err != nil {
			log.Printf("restore failed, starting fresh: %v", err)
		}
	}
	return episode.NewLoop(cfg, agent, clock)
}

func runServe(cmd *cobra.Command, args []string) (err error) {
	var cfg *config.Config
	if cfg, err = config.FromYaml(configPath); err != nil {
		return
	}

	appCtx, appCancel := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer appCancel()

	trainingCtx, trainingCancel, err := cfg.Training.WithTrainingDeadline(appCtx)
	if err != nil {
		return
	}
	defer trainingCancel()

	loop := newLoop(cfg, episode.NewWallClock())
	commands := make(chan episode.Command, 64)
	frames := make(chan episode.Frame)

	var srv *server.Server
	if srv, err = server.NewServer(
		appCtx,
		host+":"+port,
		loop.Frame(),
		frames,
		commands,
		loop.Stats(),
	); err != nil {
		return
	}

	group, groupCtx := errgroup.WithContext(appCtx)
	group.Go(func() error {
		// The loop stops at the training deadline; the page stays up.
		runErr := loop.Run(trainingCtx, commands, frames)
		if trainingCtx.Err() == context.DeadlineExceeded {
			log.Printf("training deadline reached at tick %d", loop.Tick())
			loop.Apply(episode.Command{Kind: episode.Save})
			return nil
		}
		if groupCtx.Err() != nil {
			return nil
		}
		return runErr
	})
	group.Go(func() error {
		return srv.Serve(groupCtx)
	})

	return group.Wait()
}

func runTrain(cmd *cobra.Command, args []string) (err error) {
	var cfg *config.Config
	if cfg, err = config.FromYaml(configPath); err != nil {
		return
	}

	appCtx, appCancel := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer appCancel()

	trainingCtx, trainingCancel, err := cfg.Training.WithTrainingDeadline(appCtx)
	if err != nil {
		return
	}
	defer trainingCancel()

	loop := newLoop(cfg, episode.NewTickClock(cfg.Loop.TickRate))

	bar := pb.New(ticks)
	bar.SetWidth(80)
	bar.Start()
	n, runErr := loop.Train(trainingCtx, ticks, func(int) { bar.Increment() })
	bar.Finish()
	if runErr != nil {
		log.Printf("training stopped early after %d ticks: %v", n, runErr)
	}

	if reply := loop.Apply(episode.Command{Kind: episode.Save}); reply.Err != nil {
		return reply.Err
	}

	report := loop.Report()
	fmt.Print(chalk.Green)
	fmt.Printf("trained %d ticks, %d goal flips, final score %.4f\n", report.Ticks, report.Flips, lastScore(report.Scores))
	fmt.Print(chalk.Reset)
	fmt.Printf("agent saved to %s, scores to %s\n", cfg.Agent.BrainPath, cfg.Agent.ScoresPath)
	return nil
}

func runReport(cmd *cobra.Command, args []string) (err error) {
	var cfg *config.Config
	if cfg, err = config.FromYaml(configPath); err != nil {
		return
	}

	var report *episode.ScoreReport
	if report, err = episode.ReadScoreReport(cfg.Agent.ScoresPath); err != nil {
		return
	}

	best, worst := summarize(report.Scores)
	fmt.Println(chalk.Bold.TextStyle(fmt.Sprintf("score report %s", report.Generated.Format("2006-01-02 15:04:05"))))
	fmt.Printf("ticks %d, goal flips %d\n", report.Ticks, report.Flips)
	fmt.Println(chalk.Green.Color(fmt.Sprintf("best  %.4f", best)))
	fmt.Println(chalk.Red.Color(fmt.Sprintf("worst %.4f", worst)))
	fmt.Println(chalk.Blue.Color(fmt.Sprintf("final %.4f", lastScore(report.Scores))))
	return nil
}

func lastScore(scores []float64) float64 {
	if len(scores) == 0 {
		return 0
	}
	return scores[len(scores)-1]
}

// summarize returns the max and min of scores, zero for an empty history.
func summarize(scores []float64) (best, worst float64) {
	for i, s := range scores {
		if i == 0 || s > best {
			best = s
		}
		if i == 0 || s < worst {
			worst = s
		}
	}
	return
}

func main() {
	for _, envFile := range []string{".env", "../.env"} {
		if err := godotenv.Load(envFile); err == nil {
			break
		}
	}

	if err := newRootCmd().Execute(); err != nil {
		fmt.Println(chalk.Red.Color(err.Error()))
		os.Exit(1)
	}
}
