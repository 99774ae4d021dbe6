package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/surveysim/interview-core/internal/answer"
	"github.com/surveysim/interview-core/internal/interview"
	"github.com/surveysim/interview-core/internal/metrics"
	"github.com/surveysim/interview-core/internal/ratelimit"
	"github.com/surveysim/interview-core/internal/report"
	"github.com/surveysim/interview-core/internal/retry"
	"github.com/surveysim/interview-core/pkg/config"
	"github.com/surveysim/interview-core/pkg/utils"
)

var (
	runSurveyPath   string
	runPersonaPath  string
	runScenarioPath string
	runIteration    int
	runScripted     bool
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Execute one interview locally and print the results",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		survey, err := config.LoadSurvey(runSurveyPath)
		if err != nil {
			return err
		}
		persona, err := config.LoadFields(runPersonaPath)
		if err != nil {
			return err
		}
		scenario, err := config.LoadFields(runScenarioPath)
		if err != nil {
			return err
		}

		clock := utils.NewRealClock()
		var answerer answer.Answerer
		if runScripted || cfg.Answerer.Endpoint == "" {
			answerer = answer.NewScripted(nil)
		} else {
			answerer = answer.NewClient(cfg.Answerer.Endpoint,
				time.Duration(cfg.Answerer.TimeoutMs)*time.Millisecond)
		}

		registry := ratelimit.NewRegistry(cfg.RateLimits, clock)
		limiter := registry.Checkout(cfg.Answerer.Identity)
		defer registry.Release(cfg.Answerer.Identity)

		collector := metrics.NewCollector()
		iv, err := interview.New(interview.Params{
			Survey:                 survey,
			Persona:                persona,
			Scenario:               scenario,
			Iteration:              runIteration,
			Answerer:               answerer,
			Limiter:                limiter,
			Clock:                  clock,
			Retry:                  retry.NewPolicyFromConfig(cfg.Retry, clock),
			StopOnFirstException:   cfg.StopOnFirstException,
			RaiseOnValidationError: cfg.RaiseOnValidationError,
		})
		if err != nil {
			return err
		}
		defer iv.Close()

		_, outcomes, runErr := iv.Run(cmd.Context())
		collector.Stop()
		for _, o := range outcomes {
			collector.RecordOutcome(o)
		}

		report.WriteOutcomes(os.Stdout, outcomes)
		fmt.Println()
		report.WriteFailures(os.Stdout, iv.Ledger().Entries())
		fmt.Println()
		report.WriteSummary(os.Stdout, collector.Summary(
			iv.Ledger().QuestionsWithFailures(),
			iv.Ledger().QuestionsWithUnfixedFailures(),
		))
		return runErr
	},
}

func init() {
	runCmd.Flags().StringVar(&runSurveyPath, "survey", "", "survey definition YAML (required)")
	runCmd.Flags().StringVar(&runPersonaPath, "persona", "", "persona fields YAML")
	runCmd.Flags().StringVar(&runScenarioPath, "scenario", "", "scenario fields YAML")
	runCmd.Flags().IntVar(&runIteration, "iteration", 0, "iteration counter for this respondent")
	runCmd.Flags().BoolVar(&runScripted, "scripted", false, "use the deterministic scripted answerer")
	runCmd.MarkFlagRequired("survey")
}
