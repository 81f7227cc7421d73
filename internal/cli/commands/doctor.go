package commands

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/leapstack-labs/songplays/internal/cli/output"
	"github.com/leapstack-labs/songplays/internal/config"
	"github.com/leapstack-labs/songplays/internal/scan"
	"github.com/leapstack-labs/songplays/internal/schema"
	"github.com/leapstack-labs/songplays/pkg/adapter"
	"github.com/leapstack-labs/songplays/pkg/core"
	"github.com/spf13/cobra"
)

// Check statuses.
const (
	StatusPass  = "pass"
	StatusWarn  = "warn"
	StatusError = "error"
)

// NewDoctorCommand creates the doctor command.
func NewDoctorCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Check inputs, target and state before a run",
		Long: `Check that a run has what it needs:
- song and log data directories contain input files
- the target database accepts connections
- every target table exists
- the state store is readable

Exits with an error when any check fails.`,
		Example: `  songplays doctor
  songplays doctor -t prod -o json`,
		Args: cobra.NoArgs,
		RunE: runDoctor,
	}
}

// DoctorOutput is the JSON output for the doctor command.
type DoctorOutput struct {
	Summary      DataSummary   `json:"summary"`
	HealthChecks []HealthCheck `json:"health_checks"`
	Score        int           `json:"score"`
	IssueCount   int           `json:"issue_count"`
}

// DataSummary counts the input files of the next run.
type DataSummary struct {
	Target    string `json:"target"`
	SongFiles int    `json:"song_files"`
	LogFiles  int    `json:"log_files"`
}

// HealthCheck represents a single check result.
type HealthCheck struct {
	Name    string   `json:"name"`
	Group   string   `json:"group"`
	Status  string   `json:"status"` // "pass", "warn", "error"
	Details []string `json:"details,omitempty"`
}

func runDoctor(cmd *cobra.Command, _ []string) error {
	cc := NewCommandContextWithoutTarget(cmd)

	out := buildDoctorOutput(cmd, cc.Cfg, cc.Logger)

	var err error
	switch cc.Renderer.EffectiveMode() {
	case output.ModeJSON:
		err = cc.Renderer.JSON(out)
	case output.ModeMarkdown:
		renderDoctorMarkdown(cc.Renderer, out)
	default:
		renderDoctorText(cc.Renderer, out)
	}
	if err != nil {
		return err
	}

	if failed := countStatus(out.HealthChecks, StatusError); failed > 0 {
		return fmt.Errorf("%d of %d checks failed", failed, len(out.HealthChecks))
	}
	return nil
}

func buildDoctorOutput(cmd *cobra.Command, cfg *config.Config, logger *slog.Logger) *DoctorOutput {
	ctx := cmd.Context()
	out := &DoctorOutput{Summary: DataSummary{Target: cfg.RunName()}}

	songCheck, songFiles := checkInput(ctx, "song data", cfg.SongData, cfg.Extension)
	logCheck, logFiles := checkInput(ctx, "log data", cfg.LogData, cfg.Extension)
	out.Summary.SongFiles = songFiles
	out.Summary.LogFiles = logFiles
	out.HealthChecks = append(out.HealthChecks, songCheck, logCheck)

	out.HealthChecks = append(out.HealthChecks, checkTarget(cmd, cfg, logger)...)

	out.HealthChecks = append(out.HealthChecks, checkState(ctx, cfg, logger))

	out.Score = calculateHealthScore(out.HealthChecks)
	out.IssueCount = countStatus(out.HealthChecks, StatusWarn) + countStatus(out.HealthChecks, StatusError)
	return out
}

func checkInput(ctx context.Context, name, root, ext string) (HealthCheck, int) {
	check := HealthCheck{Name: name, Group: "inputs", Status: StatusPass}

	if _, err := os.Stat(root); err != nil {
		check.Status = StatusWarn
		check.Details = []string{fmt.Sprintf("%s does not exist", root)}
		return check, 0
	}

	// Scan without a logger; a missing root is already reported above.
	files, err := scan.Files(ctx, root, ext, nil)
	if err != nil {
		check.Status = StatusError
		check.Details = []string{err.Error()}
		return check, 0
	}
	if len(files) == 0 {
		check.Status = StatusWarn
		check.Details = []string{fmt.Sprintf("no %s files under %s", ext, root)}
		return check, 0
	}
	check.Details = []string{fmt.Sprintf("%d files under %s", len(files), root)}
	return check, len(files)
}

func checkTarget(cmd *cobra.Command, cfg *config.Config, logger *slog.Logger) []HealthCheck {
	conn := HealthCheck{Name: "connection", Group: "target", Status: StatusPass}

	target, err := openTarget(cmd, cfg, logger)
	if err != nil {
		conn.Status = StatusError
		conn.Details = []string{err.Error()}
		return []HealthCheck{conn}
	}
	defer func() { _ = target.Close() }()
	conn.Details = []string{describeTarget(cfg.Target)}

	return []HealthCheck{conn, checkTables(cmd.Context(), target)}
}

func describeTarget(t *config.TargetConfig) string {
	if t.Host != "" {
		return fmt.Sprintf("%s://%s:%d/%s", t.Type, t.Host, t.Port, t.Database)
	}
	if t.Database == "" {
		return t.Type + " (in-memory)"
	}
	return fmt.Sprintf("%s %s", t.Type, t.Database)
}

func checkTables(ctx context.Context, sel adapter.Selector) HealthCheck {
	check := HealthCheck{Name: "tables", Group: "target", Status: StatusPass}
	for _, t := range schema.All {
		row, err := sel.SelectOne(ctx, "SELECT COUNT(*) FROM "+adapter.QuoteIdent(t.Name))
		if err != nil {
			check.Status = StatusWarn
			check.Details = append(check.Details, fmt.Sprintf("%s is missing, run 'songplays init'", t.Name))
			continue
		}
		check.Details = append(check.Details, fmt.Sprintf("%s: %v rows", t.Name, row[0]))
	}
	return check
}

func checkState(ctx context.Context, cfg *config.Config, logger *slog.Logger) HealthCheck {
	check := HealthCheck{Name: "run history", Group: "state", Status: StatusPass}

	if _, err := os.Stat(cfg.StatePath); os.IsNotExist(err) {
		check.Details = []string{"no runs recorded yet"}
		return check
	}

	store, err := openHistory(cfg, logger)
	if err != nil {
		check.Status = StatusWarn
		check.Details = []string{err.Error()}
		return check
	}
	defer func() { _ = store.Close() }()

	runs, err := store.ListRuns(ctx, 1)
	if err != nil {
		check.Status = StatusWarn
		check.Details = []string{err.Error()}
		return check
	}
	if len(runs) == 0 {
		check.Details = []string{"no runs recorded yet"}
		return check
	}

	last := runs[0]
	check.Details = []string{fmt.Sprintf("last run %s on %s", last.Status, last.StartedAt.Local().Format("2006-01-02 15:04"))}
	if last.Status == core.RunStatusFailed {
		check.Status = StatusWarn
		check.Details = append(check.Details, last.Error)
	}
	return check
}

// calculateHealthScore starts at 100 and deducts per warning and error.
func calculateHealthScore(checks []HealthCheck) int {
	if len(checks) == 0 {
		return 100
	}
	score := 100 - 10*countStatus(checks, StatusWarn) - 25*countStatus(checks, StatusError)
	if score < 0 {
		score = 0
	}
	return score
}

func countStatus(checks []HealthCheck, status string) int {
	n := 0
	for _, c := range checks {
		if c.Status == status {
			n++
		}
	}
	return n
}

func renderDoctorText(r *output.Renderer, out *DoctorOutput) {
	r.Println("")
	r.Println("songplays health report")
	r.Println(strings.Repeat("=", 55))
	r.Printf("   Target: %s | Song files: %d | Log files: %d\n", out.Summary.Target, out.Summary.SongFiles, out.Summary.LogFiles)
	r.Println("")

	currentGroup := ""
	titleCaser := cases.Title(language.English)
	for _, check := range out.HealthChecks {
		if check.Group != currentGroup {
			currentGroup = check.Group
			r.Println("   " + titleCaser.String(currentGroup))
			r.Println("   " + strings.Repeat("-", 40))
		}

		icon := "ok"
		switch check.Status {
		case StatusWarn:
			icon = "!!"
		case StatusError:
			icon = "xx"
		}
		r.Printf("   [%s] %s\n", icon, check.Name)
		for _, detail := range check.Details {
			r.Println("        - " + detail)
		}
	}
	r.Println("")
	r.Println(strings.Repeat("=", 55))
	r.Printf("   Health Score: %d/100\n", out.Score)
}

func renderDoctorMarkdown(r *output.Renderer, out *DoctorOutput) {
	r.Println("# songplays health report")
	r.Println("")
	r.Printf("- **Target**: %s\n", out.Summary.Target)
	r.Printf("- **Song files**: %d\n", out.Summary.SongFiles)
	r.Printf("- **Log files**: %d\n", out.Summary.LogFiles)
	r.Println("")

	currentGroup := ""
	titleCaser := cases.Title(language.English)
	for _, check := range out.HealthChecks {
		if check.Group != currentGroup {
			currentGroup = check.Group
			r.Println("## " + titleCaser.String(currentGroup))
			r.Println("")
		}

		r.Printf("- **[%s]** %s\n", strings.ToUpper(check.Status), check.Name)
		for _, detail := range check.Details {
			r.Printf("  - %s\n", detail)
		}
	}
	r.Println("")
	r.Printf("**Health Score**: %d/100\n", out.Score)
}
