package cli

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/text/message"

	"github.com/roach88/progression/internal/catalog"
	"github.com/roach88/progression/internal/model"
)

// CatalogIssue is one problem found in a catalog file.
type CatalogIssue struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ValidationResult holds catalog validation results.
type ValidationResult struct {
	File   string         `json:"file"`
	Valid  bool           `json:"valid"`
	Errors []CatalogIssue `json:"errors,omitempty"`
}

// CatalogSummary is the payload of catalog show.
type CatalogSummary struct {
	Source       string                                     `json:"source"`
	Quests       map[model.PeriodType][]model.QuestTemplate `json:"quests"`
	Achievements []model.AchievementDefinition              `json:"achievements"`
	BadgeTiers   []model.BadgeTier                          `json:"badge_tiers"`
}

// NewCatalogCommand creates the catalog command group.
func NewCatalogCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "Inspect and validate quest catalogs",
	}

	cmd.AddCommand(newCatalogValidateCommand(rootOpts))
	cmd.AddCommand(newCatalogShowCommand(rootOpts))

	return cmd
}

func newCatalogValidateCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "validate <file>",
		Short: "Validate a catalog file",
		Long: `Validate a catalog YAML file without touching any database.

Runs the embedded CUE schema, strict YAML decoding and the cross-entry
rules (unique ids, goal ranges, increasing milestones, scaling factors).
Every rule violation is reported, not just the first.

Exit codes:
  0 - Catalog is valid
  1 - Catalog is invalid
  2 - File could not be read`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCatalogValidate(rootOpts, args[0], cmd)
		},
	}
}

func runCatalogValidate(opts *RootOptions, path string, cmd *cobra.Command) error {
	f := newFormatter(opts, cmd.OutOrStdout(), cmd.ErrOrStderr())

	data, err := os.ReadFile(path)
	if err != nil {
		if outErr := f.Error(ErrCodeCatalog, fmt.Sprintf("cannot read catalog: %v", err), nil); outErr != nil {
			return outErr
		}
		return WrapExitError(ExitCommandError, "cannot read catalog", err)
	}

	f.VerboseLog("Validating %s (%d bytes)", path, len(data))
	result := ValidationResult{File: path, Valid: true}
	if _, err := catalog.Parse(data); err != nil {
		result.Valid = false
		result.Errors = catalogIssues(err)
	}

	if !result.Valid {
		if f.Format == "json" {
			if err := f.encode(CLIResponse{
				Status: "error",
				Data:   result,
				Error: &CLIError{
					Code:    result.Errors[0].Code,
					Message: fmt.Sprintf("%d catalog error(s)", len(result.Errors)),
				},
			}); err != nil {
				return err
			}
		} else {
			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "✗ %s\n", path)
			for _, issue := range result.Errors {
				fmt.Fprintf(w, "  [%s] %s\n", issue.Code, issue.Message)
			}
		}
		return NewExitError(ExitFailure, fmt.Sprintf("%d catalog error(s)", len(result.Errors)))
	}

	return f.Success(result, func(w io.Writer, _ *message.Printer) {
		fmt.Fprintf(w, "✓ %s is valid\n", path)
	})
}

// catalogIssues flattens a Parse error into one issue per violation.
func catalogIssues(err error) []CatalogIssue {
	var schemaErr *catalog.SchemaError
	if errors.As(err, &schemaErr) {
		return []CatalogIssue{{Code: ErrCodeSchema, Message: schemaErr.Details}}
	}

	var joined interface{ Unwrap() []error }
	if errors.As(err, &joined) {
		var out []CatalogIssue
		for _, e := range joined.Unwrap() {
			out = append(out, CatalogIssue{Code: ErrCodeCatalog, Message: e.Error()})
		}
		return out
	}
	return []CatalogIssue{{Code: ErrCodeCatalog, Message: err.Error()}}
}

func newCatalogShowCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the active catalog",
		Long: `Print the catalog the engine would use: --catalog, then
$PROGRESSION_CATALOG_PATH, then the embedded default.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCatalogShow(rootOpts, cmd)
		},
	}
}

func runCatalogShow(opts *RootOptions, cmd *cobra.Command) error {
	f := newFormatter(opts, cmd.OutOrStdout(), cmd.ErrOrStderr())

	cfg, err := loadConfig(opts)
	if err != nil {
		if outErr := f.Error(ErrCodeConfig, err.Error(), nil); outErr != nil {
			return outErr
		}
		return WrapExitError(ExitCommandError, "invalid configuration", err)
	}
	cat, err := loadCatalog(cfg.CatalogPath)
	if err != nil {
		if outErr := f.Error(ErrCodeCatalog, err.Error(), nil); outErr != nil {
			return outErr
		}
		return WrapExitError(ExitCommandError, "failed to load catalog", err)
	}

	source := cfg.CatalogPath
	if source == "" {
		source = "embedded"
	}
	summary := CatalogSummary{
		Source:       source,
		Quests:       make(map[model.PeriodType][]model.QuestTemplate, len(model.PeriodTypes)),
		Achievements: cat.Achievements(),
		BadgeTiers:   cat.BadgeTiers(),
	}
	for _, pt := range model.PeriodTypes {
		summary.Quests[pt] = cat.Templates(pt)
	}

	return f.Success(summary, func(w io.Writer, p *message.Printer) {
		renderCatalog(w, p, summary)
	})
}

func renderCatalog(w io.Writer, p *message.Printer, s CatalogSummary) {
	fmt.Fprintf(w, "Catalog: %s\n", s.Source)
	for _, pt := range model.PeriodTypes {
		fmt.Fprintf(w, "\n%s quests (%d):\n", titleCase(string(pt)), len(s.Quests[pt]))
		for _, t := range s.Quests[pt] {
			fmt.Fprintf(w, "  %-22s %-10s %s  tracks %s\n",
				t.ID, t.Category,
				p.Sprintf("%d..%d (base %d)", t.MinGoal, t.MaxGoal, t.BaseGoal),
				t.TrackingKey,
			)
		}
	}
	fmt.Fprintf(w, "\nAchievements (%d):\n", len(s.Achievements))
	for _, a := range s.Achievements {
		scaling := ""
		if a.InfiniteScaling {
			scaling = "  infinite"
		}
		fmt.Fprintf(w, "  %-22s %d milestones  tracks %s%s\n", a.ID, len(a.Milestones), a.TrackingKey, scaling)
	}
}
