package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"github.com/couchcryptid/survey-demand-etl/internal/adapter/jsonfile"
	"github.com/couchcryptid/survey-demand-etl/internal/config"
	"github.com/couchcryptid/survey-demand-etl/internal/domain"
	"github.com/couchcryptid/survey-demand-etl/internal/form"
	"github.com/couchcryptid/survey-demand-etl/internal/schema"
	"github.com/couchcryptid/survey-demand-etl/internal/survey"
)

// phase tracks pass/fail for a validation phase.
type phase struct {
	name   string
	errors []string
}

func (p *phase) errorf(format string, args ...any) {
	p.errors = append(p.errors, fmt.Sprintf(format, args...))
}

func (p *phase) passed() bool { return len(p.errors) == 0 }

func validateCmd(g *globalFlags) *cobra.Command {
	var input string

	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Check configuration, schema, run profile and optionally a submissions export",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return validate(cmd, g, input)
		},
	}
	cmd.Flags().StringVar(&input, "input", "", "JSON export to dry-run through the survey")
	return cmd
}

func validate(cmd *cobra.Command, g *globalFlags, input string) error {
	out := cmd.OutOrStdout()
	fmt.Fprintln(out, "=== Survey Configuration Validation ===")

	cfgPhase := &phase{name: "environment configuration"}
	if _, err := config.Load(); err != nil {
		cfgPhase.errorf("%v", err)
	}

	schemaPhase := &phase{name: "form schema"}
	s, err := schema.Load(g.schemaFile)
	if err != nil {
		schemaPhase.errorf("%v", err)
	}

	profilePhase := &phase{name: "run profile"}
	sel := survey.SelectAll()
	if profile, err := config.LoadProfile(g.profileFile); err != nil {
		profilePhase.errorf("%v", err)
	} else if sel, err = profile.Selector(); err != nil {
		profilePhase.errorf("%v", err)
	}

	phases := []*phase{cfgPhase, schemaPhase, profilePhase}
	var report *survey.Report
	if input != "" {
		subPhase := &phase{name: "submissions"}
		phases = append(phases, subPhase)
		if s == nil {
			subPhase.errorf("skipped: schema did not load")
		} else {
			report = dryRun(cmd, subPhase, s, input, sel)
		}
	}

	fmt.Fprintln(out)
	allPassed := true
	for _, p := range phases {
		status := "PASS"
		if !p.passed() {
			status = fmt.Sprintf("FAIL (%d errors)", len(p.errors))
			allPassed = false
		}
		fmt.Fprintf(out, "  %-30s %s\n", p.name, status)
	}

	if report != nil {
		fmt.Fprintf(out, "\nRespondents: %d, processed %d, skipped %d, excluded %d, warnings %d\n",
			report.Respondents, report.Processed, len(report.Skipped), len(report.Excluded), len(report.Warnings))
	}

	for _, p := range phases {
		if p.passed() {
			continue
		}
		fmt.Fprintf(out, "\n--- %s ---\n", p.name)
		for i, e := range p.errors {
			fmt.Fprintf(out, "  [%d] %s\n", i+1, e)
		}
	}

	if allPassed {
		fmt.Fprintln(out, "\nAll validations passed.")
		return nil
	}
	fmt.Fprintln(out, "\nValidation FAILED.")
	return errors.New("validation failed")
}

// dryRun processes the export without any sink and turns every skipped or
// excluded respondent into a phase error carrying its warnings.
func dryRun(cmd *cobra.Command, p *phase, s *schema.Schema, input string, sel survey.Selector) *survey.Report {
	records, err := jsonfile.NewExtractor(input).Extract(cmd.Context())
	if err != nil {
		p.errorf("%v", err)
		return nil
	}

	sv := survey.New(form.NewParser(s), slog.New(slog.NewTextHandler(io.Discard, nil)))
	if _, err := sv.Run(records, sel); err != nil {
		p.errorf("%v", err)
		return nil
	}
	report := sv.Report()

	if report.Authority == nil {
		p.errorf("%v", domain.ErrNoAuthorityRecord)
	}
	byID := make(map[string][]string)
	for _, w := range report.Warnings {
		if w.RecordID != "" {
			byID[w.RecordID] = append(byID[w.RecordID], w.Message)
		}
	}
	for _, id := range report.Skipped {
		p.errorf("%s skipped: %s", id, strings.Join(byID[id], "; "))
	}
	for _, id := range report.Excluded {
		p.errorf("%s excluded: %s", id, strings.Join(byID[id], "; "))
	}
	return &report
}
