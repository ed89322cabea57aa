package app

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/blackwell-systems/gitrate/internal/output"
	"github.com/blackwell-systems/gitrate/internal/report"
)

var (
	reportFlagOutput  string
	reportFlagFormat  string
	reportFlagNoAI    bool
	reportFlagNoCache bool
)

var reportCmd = &cobra.Command{
	Use:   "report <url>",
	Short: "Write the markdown report to a file",
	Long: `Report analyzes a repository and writes the markdown report with the
score, summary, breakdown and roadmap. The file is named ` + report.FileName + `
unless -o is given; "-o -" prints the report to stdout. --format json writes
the full report, repository metadata included, as JSON instead.`,
	Args: cobra.ExactArgs(1),
	RunE: runReport,
}

func init() {
	reportCmd.Flags().StringVarP(&reportFlagOutput, "output", "o", report.FileName, "Output file, or - for stdout")
	reportCmd.Flags().StringVar(&reportFlagFormat, "format", "markdown", "Report format: markdown or json")
	reportCmd.Flags().BoolVar(&reportFlagNoAI, "no-ai", false, "Skip the language model and use the deterministic insight")
	reportCmd.Flags().BoolVar(&reportFlagNoCache, "no-cache", false, "Ignore cached metadata and refetch; the fresh result replaces the cached entry")
	rootCmd.AddCommand(reportCmd)
}

func runReport(cmd *cobra.Command, args []string) error {
	if _, err := report.GetFormatter(reportFlagFormat); err != nil {
		return err
	}

	svc, closeSvc, err := buildService(cfg, serviceOptions{noAI: reportFlagNoAI})
	if err != nil {
		return err
	}
	defer func() { _ = closeSvc() }()

	rep, err := analyzeReport(cmd.Context(), svc, args[0], reportFlagNoCache)
	if err != nil {
		return err
	}

	if reportFlagOutput == "-" {
		out, err := formatReport(rep, reportFlagFormat)
		if err != nil {
			return err
		}
		fmt.Print(out)
		return nil
	}
	if err := writeReport(reportFlagOutput, rep, reportFlagFormat); err != nil {
		return err
	}
	fmt.Printf(" %s %s  %s\n", output.StyleSuccess.Render("✓"), reportFlagOutput,
		output.StyleMuted.Render(fmt.Sprintf("%s scored %d/100", rep.Repository, rep.Score)))
	return nil
}
