package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/surveysim/interview-core/internal/graph"
	"github.com/surveysim/interview-core/pkg/config"
)

var validateCmd = &cobra.Command{
	Use:   "validate <survey.yaml>",
	Short: "Validate a survey definition and its dependency graph",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if _, err := loadConfig(); err != nil {
			return err
		}

		survey, err := config.LoadSurvey(args[0])
		if err != nil {
			return err
		}
		g, err := graph.Build(survey)
		if err != nil {
			return err
		}

		fmt.Printf("survey %q: %d questions, graph OK\n", survey.Name, g.Len())
		for _, q := range survey.Questions {
			if prereqs := g.Prerequisites(q.Name); len(prereqs) > 0 {
				fmt.Printf("  %s <- %s\n", q.Name, strings.Join(prereqs, ", "))
			}
		}
		return nil
	},
}
