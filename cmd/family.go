package cmd

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/spigell/resume-scorer/internal/jobs"
	"github.com/spigell/resume-scorer/internal/lexicon"
	"github.com/spigell/resume-scorer/internal/model"
)

var familyCmd = &cobra.Command{
	Use:   "family <job title>",
	Short: "Show the job family, weight profile and core abilities derived from a title",
	Args:  cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		printFamily(cmd.OutOrStdout(), jobs.New(strings.Join(args, " "), ""))
	},
}

func init() {
	rootCmd.AddCommand(familyCmd)
}

func printFamily(w io.Writer, job model.Job) {
	fmt.Fprintf(w, "title:        %s\n", job.Title)
	fmt.Fprintf(w, "family:       %s\n", job.Family)
	fmt.Fprintf(w, "clean family: %s\n", job.CleanFamily)
	fmt.Fprintln(w, "weights:")
	for _, d := range model.EvidenceOrder {
		fmt.Fprintf(w, "  %-17s %.2f\n", d.Label(), job.Weights.Of(d))
	}
	fmt.Fprintf(w, "core abilities: %s\n", strings.Join(lexicon.CoreAbilities(job.Family), ", "))
	if forbidden := lexicon.Forbidden(job.CleanFamily); len(forbidden) > 0 {
		fmt.Fprintf(w, "excluded vocabulary: %s\n", strings.Join(forbidden, ", "))
	}
}
