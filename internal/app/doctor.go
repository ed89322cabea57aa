package app

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/blackwell-systems/gitrate/internal/config"
	"github.com/blackwell-systems/gitrate/internal/output"
	"github.com/blackwell-systems/gitrate/internal/store"
)

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Check credentials and cache setup",
	Long: `Run a series of local checks against your gitrate configuration:
config file, GitHub token, language model key and cache database. Prints a
pass/fail line for each check and a summary of how many checks passed.
No network calls are made.`,
	Args: cobra.NoArgs,
	RunE: runDoctor,
}

func init() {
	rootCmd.AddCommand(doctorCmd)
}

// doctorCheck holds the result of a single health check.
type doctorCheck struct {
	Name    string `json:"name"`
	Passed  bool   `json:"passed"`
	Message string `json:"message"`
}

// doctorOutput is the JSON-serializable result of the doctor command.
type doctorOutput struct {
	Checks      []doctorCheck `json:"checks"`
	PassedCount int           `json:"passed"`
	TotalCount  int           `json:"total"`
}

func runDoctor(cmd *cobra.Command, args []string) error {
	checks := []doctorCheck{
		checkConfigFile(flagConfig),
		checkGitHubToken(cfg.GitHub.Token),
		checkModelKey(cfg.LLM),
		checkCache(cfg.Cache),
	}

	passed := 0
	for _, c := range checks {
		if c.Passed {
			passed++
		}
	}

	if flagJSON {
		out := doctorOutput{
			Checks:      checks,
			PassedCount: passed,
			TotalCount:  len(checks),
		}
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	}

	fmt.Println(output.Section("Doctor"))
	fmt.Println()

	for _, c := range checks {
		renderDoctorCheck(c)
	}

	fmt.Println()
	summary := fmt.Sprintf("%d/%d checks passed", passed, len(checks))
	if passed == len(checks) {
		fmt.Printf(" %s\n\n", output.StyleSuccess.Render(summary))
	} else {
		fmt.Printf(" %s\n\n", output.StyleWarning.Render(summary))
	}

	return nil
}

// renderDoctorCheck prints a single check result line.
func renderDoctorCheck(c doctorCheck) {
	var indicator string
	if c.Passed {
		indicator = output.StyleSuccess.Render("✓")
	} else {
		indicator = output.StyleWarning.Render("✗")
	}
	label := output.StyleBold.Render(c.Name)
	detail := output.StyleMuted.Render(c.Message)
	fmt.Printf("  %s  %-30s %s\n", indicator, label, detail)
}

// checkConfigFile reports which config file is in effect. A missing default
// file passes since every setting has a default.
func checkConfigFile(path string) doctorCheck {
	explicit := path != ""
	if !explicit {
		path = filepath.Join(config.ConfigDir(), config.DefaultConfigFile)
	}
	if _, err := os.Stat(path); err != nil {
		if explicit {
			return doctorCheck{Name: "Config file", Passed: false, Message: fmt.Sprintf("not found: %s", path)}
		}
		return doctorCheck{Name: "Config file", Passed: true, Message: "using defaults (no " + path + ")"}
	}
	return doctorCheck{Name: "Config file", Passed: true, Message: path}
}

// checkGitHubToken verifies a token is configured. Anonymous access works
// but is limited to 60 requests per hour.
func checkGitHubToken(token string) doctorCheck {
	if token == "" {
		return doctorCheck{
			Name:    "GitHub token",
			Passed:  false,
			Message: "not set; anonymous requests are limited to 60/hour (set GITHUB_TOKEN)",
		}
	}
	return doctorCheck{
		Name:    "GitHub token",
		Passed:  true,
		Message: "set (" + maskSecret(token) + ")",
	}
}

// checkModelKey verifies a key exists for the configured provider.
func checkModelKey(llm config.LLM) doctorCheck {
	name := fmt.Sprintf("Model key (%s)", strings.ToLower(llm.Provider))
	if llm.APIKey == "" {
		return doctorCheck{
			Name:    name,
			Passed:  false,
			Message: "not set; insights use the deterministic fallback",
		}
	}
	return doctorCheck{Name: name, Passed: true, Message: maskSecret(llm.APIKey)}
}

// checkCache opens the cache database and reports its schema and size.
func checkCache(c config.Cache) doctorCheck {
	backend := strings.ToLower(c.Backend)
	if backend != "sqlite" {
		return doctorCheck{
			Name:    "Cache",
			Passed:  true,
			Message: fmt.Sprintf("%s backend, ttl %s", backend, c.TTL),
		}
	}

	db, err := store.Open(c.Path)
	if err != nil {
		return doctorCheck{Name: "Cache", Passed: false, Message: fmt.Sprintf("cannot open %s: %v", c.Path, err)}
	}
	defer func() { _ = db.Close() }()

	version, err := db.SchemaVersion()
	if err != nil {
		return doctorCheck{Name: "Cache", Passed: false, Message: fmt.Sprintf("reading schema version: %v", err)}
	}
	entries, err := db.ListCachedSnapshots()
	if err != nil {
		return doctorCheck{Name: "Cache", Passed: false, Message: fmt.Sprintf("reading entries: %v", err)}
	}
	return doctorCheck{
		Name:    "Cache",
		Passed:  true,
		Message: fmt.Sprintf("%s (schema v%d, %d entries, ttl %s)", c.Path, version, len(entries), c.TTL),
	}
}

// maskSecret shows the first 8 characters of a secret followed by "...".
func maskSecret(s string) string {
	if len(s) <= 8 {
		return strings.Repeat("*", len(s))
	}
	return s[:8] + "..."
}
