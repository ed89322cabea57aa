package app

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/blackwell-systems/gitrate/internal/analysis"
	"github.com/blackwell-systems/gitrate/internal/output"
	"github.com/blackwell-systems/gitrate/internal/report"
)

var (
	analyzeFlagReport  string
	analyzeFlagNoAI    bool
	analyzeFlagNoCache bool
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze <url>",
	Short: "Score a repository and show the dashboard",
	Long: `Analyze fetches metadata for a GitHub repository, scores it against
the eight health rules and prints the dashboard: score, repository facts,
summary, per-rule breakdown and a three-step roadmap.

Accepted URL forms include https://github.com/owner/repo, github.com/owner/repo,
and git@github.com:owner/repo.git.`,
	Args: cobra.ExactArgs(1),
	RunE: runAnalyze,
}

func init() {
	analyzeCmd.Flags().StringVar(&analyzeFlagReport, "report", "", "Also write the markdown report to this file")
	analyzeCmd.Flags().BoolVar(&analyzeFlagNoAI, "no-ai", false, "Skip the language model and use the deterministic insight")
	analyzeCmd.Flags().BoolVar(&analyzeFlagNoCache, "no-cache", false, "Ignore cached metadata and refetch; the fresh result replaces the cached entry")
	rootCmd.AddCommand(analyzeCmd)
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	svc, closeSvc, err := buildService(cfg, serviceOptions{noAI: analyzeFlagNoAI})
	if err != nil {
		return err
	}
	defer func() { _ = closeSvc() }()

	rep, err := analyzeReport(cmd.Context(), svc, args[0], analyzeFlagNoCache)
	if err != nil {
		return err
	}

	if analyzeFlagReport != "" {
		if err := writeReport(analyzeFlagReport, rep, "markdown"); err != nil {
			return err
		}
	}

	if flagJSON {
		out, err := formatReport(rep, "json")
		if err != nil {
			return err
		}
		fmt.Print(out)
		return nil
	}

	fmt.Print(output.Dashboard(rep))
	if analyzeFlagReport != "" {
		fmt.Printf("\n %s\n", output.StyleMuted.Render("report written to "+analyzeFlagReport))
	}
	fmt.Println()
	return nil
}

// displayError carries the user-facing message for a pipeline error while
// keeping the cause reachable with errors.As.
type displayError struct {
	msg string
	err error
}

func (e *displayError) Error() string { return e.msg }
func (e *displayError) Unwrap() error { return e.err }

func analysisError(err error) error {
	return &displayError{msg: analysis.Message(err), err: err}
}

// analyzeReport runs the pipeline for rawURL, refetching past the cache when
// refresh is set.
func analyzeReport(ctx context.Context, svc *analysis.Service, rawURL string, refresh bool) (*report.Report, error) {
	run := svc.Analyze
	if refresh {
		run = svc.Refresh
	}
	res, err := run(ctx, rawURL)
	if err != nil {
		return nil, analysisError(err)
	}
	return res.Report(), nil
}

func formatReport(rep *report.Report, format string) (string, error) {
	f, err := report.GetFormatter(format)
	if err != nil {
		return "", err
	}
	return f.Format(rep)
}

func writeReport(path string, rep *report.Report, format string) error {
	out, err := formatReport(rep, format)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, []byte(out), 0o644); err != nil {
		return fmt.Errorf("writing report: %w", err)
	}
	return nil
}
