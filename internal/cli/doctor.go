// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// doctor.go - Doctor command: health checks and diagnostics.
//
// Command: doctor [subcommand]
// Aliases: diag
//
// Subcommands:
//
//	(default)           Run all health checks
//	fix                 Run checks and attempt automatic fixes
//
// Health checks:
//  1. Ollama installed   - executable found (local URLs only)
//  2. Ollama running     - server answers on the configured URL
//  3. Models available   - at least one model is installed
//  4. Default model      - the configured model is installed
//  5. Config file        - configuration parsed and valid
//  6. Templates          - custom template file readable
//  7. Statistics         - database opened
//  8. Clipboard          - system clipboard reachable
//
// Automatic fixes start a local Ollama and pull the configured model.
//
// Exit codes:
//
//	0   No check failed
//	1   One or more checks failed
package cli

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/jeranaias/proofread/internal/ollama"
	"github.com/jeranaias/proofread/internal/status"
)

// =============================================================================
// HEALTH CHECK TYPES
// =============================================================================

// CheckStatus represents the status of a health check.
type CheckStatus int

const (
	// CheckPass indicates the check passed successfully.
	CheckPass CheckStatus = iota
	// CheckWarn indicates the check passed with warnings.
	CheckWarn
	// CheckFail indicates the check failed.
	CheckFail
)

// String returns the string representation of the check status.
func (s CheckStatus) String() string {
	switch s {
	case CheckPass:
		return "pass"
	case CheckWarn:
		return "warn"
	case CheckFail:
		return "fail"
	default:
		return "unknown"
	}
}

// Symbol returns the styled marker for the check status.
func (s CheckStatus) Symbol() string {
	switch s {
	case CheckPass:
		return SuccessStyle.Render("[OK]")
	case CheckWarn:
		return WarningStyle.Render("[!!]")
	case CheckFail:
		return ErrorStyle.Render("[FAIL]")
	default:
		return "?"
	}
}

// HealthCheck represents a single health check result.
type HealthCheck struct {
	Name    string
	Status  CheckStatus
	Message string
	Fix     string // Suggested command or instruction

	// fixFunc performs the fix automatically when set.
	fixFunc func(ctx context.Context) error
}

// Render returns a formatted string representation of the health check.
func (c *HealthCheck) Render() string {
	result := fmt.Sprintf("%s %s", c.Status.Symbol(), ValueStyle.Render(c.Message))
	if c.Status != CheckPass && c.Fix != "" {
		result += "\n" + DimStyle.Render("     -> "+c.Fix)
	}
	return result
}

// TryFix runs the automatic fix, if the check has one.
func (c *HealthCheck) TryFix(ctx context.Context) error {
	if c.Status == CheckPass {
		return nil
	}
	if c.fixFunc == nil {
		return fmt.Errorf("manual fix required: %s", c.Fix)
	}
	return c.fixFunc(ctx)
}

// =============================================================================
// HANDLE DOCTOR
// =============================================================================

// HandleDoctor runs every check and, for "doctor fix", the automatic fixes.
func HandleDoctor(ctx context.Context, app *App, args Args) error {
	checks := runAllChecks(ctx, app)
	passed, warned, failed := countChecks(checks)

	if args.JSON {
		return doctorJSON(app, checks, passed, warned, failed)
	}

	w := app.Out
	fmt.Fprintln(w, TitleStyle.Render("proofread doctor"))
	fmt.Fprintln(w, RenderSeparator(41))
	for _, check := range checks {
		fmt.Fprintln(w, check.Render())
	}
	fmt.Fprintln(w, SeparatorStyle.Render(strings.Repeat("-", 41)))

	summary := []string{fmt.Sprintf("%d passed", passed)}
	if warned > 0 {
		summary = append(summary, WarningStyle.Render(fmt.Sprintf("%d warning", warned)))
	}
	if failed > 0 {
		summary = append(summary, ErrorStyle.Render(fmt.Sprintf("%d failed", failed)))
	}
	fmt.Fprintln(w, DimStyle.Render(strings.Join(summary, ", ")))

	if args.Subcommand == "fix" && (warned > 0 || failed > 0) {
		fmt.Fprintln(w)
		fmt.Fprintln(w, TitleStyle.Render("Attempting fixes..."))
		for _, check := range checks {
			if check.Status == CheckPass || check.fixFunc == nil {
				continue
			}
			if err := check.TryFix(ctx); err != nil {
				fmt.Fprintf(w, "  %s could not fix %s: %v\n", WarningStyle.Render("[!!]"), check.Name, err)
				continue
			}
			fmt.Fprintf(w, "  %s fixed %s\n", SuccessStyle.Render("[OK]"), check.Name)
		}
	}

	if failed > 0 {
		return fmt.Errorf("%d health check(s) failed", failed)
	}
	return nil
}

func countChecks(checks []*HealthCheck) (passed, warned, failed int) {
	for _, check := range checks {
		switch check.Status {
		case CheckPass:
			passed++
		case CheckWarn:
			warned++
		case CheckFail:
			failed++
		}
	}
	return passed, warned, failed
}

func doctorJSON(app *App, checks []*HealthCheck, passed, warned, failed int) error {
	jsonChecks := make([]DoctorCheck, 0, len(checks))
	for _, check := range checks {
		jsonChecks = append(jsonChecks, DoctorCheck{
			Name:    check.Name,
			Status:  check.Status.String(),
			Message: check.Message,
			Fix:     check.Fix,
		})
	}

	resp := NewJSONResponse("doctor", DoctorData{
		Checks: jsonChecks,
		Summary: DoctorSummary{
			Passed:  passed,
			Warned:  warned,
			Failed:  failed,
			Healthy: failed == 0,
		},
	})
	if failed > 0 {
		errMsg := fmt.Sprintf("%d health check(s) failed", failed)
		resp.Success = false
		resp.Error = &errMsg
	}
	return resp.Print(app.Out)
}

// =============================================================================
// HEALTH CHECK FUNCTIONS
// =============================================================================

func runAllChecks(ctx context.Context, app *App) []*HealthCheck {
	st := app.Classifier.Classify(ctx)
	return []*HealthCheck{
		checkInstalled(app, st),
		checkRunning(app, st),
		checkModels(st),
		checkDefaultModel(app, st),
		checkConfig(app),
		checkTemplates(app),
		checkStats(app),
		checkClipboard(app),
	}
}

func checkInstalled(app *App, st status.Status) *HealthCheck {
	c := &HealthCheck{Name: "Ollama installed"}
	switch {
	case !ollama.IsLocalURL(app.Client.BaseURL()):
		c.Status = CheckPass
		c.Message = "Remote Ollama at " + app.Client.BaseURL()
	case st.Kind == status.KindNotInstalled:
		c.Status = CheckFail
		c.Message = "Ollama is not installed"
		c.Fix = "Install from https://ollama.com/download"
	default:
		c.Status = CheckPass
		c.Message = "Ollama installed"
		if st.Path != "" {
			c.Message += " (" + st.Path + ")"
		}
	}
	return c
}

func checkRunning(app *App, st status.Status) *HealthCheck {
	c := &HealthCheck{Name: "Ollama running"}
	switch {
	case st.IsHealthy():
		c.Status = CheckPass
		c.Message = "Ollama responding at " + app.Client.BaseURL()
	case st.Kind == status.KindNotInstalled:
		c.Status = CheckFail
		c.Message = "Ollama is not running"
	default:
		c.Status = CheckFail
		c.Message = "Ollama not responding at " + app.Client.BaseURL()
		if reason := st.HelpText(); reason != "" {
			c.Message += ": " + reason
		}
		c.Fix = "Run: proofread start"
		if ollama.IsLocalURL(app.Client.BaseURL()) {
			c.fixFunc = func(ctx context.Context) error {
				return app.Client.StartService(ctx, nil)
			}
		}
	}
	return c
}

func checkModels(st status.Status) *HealthCheck {
	c := &HealthCheck{Name: "Models available"}
	switch {
	case !st.IsHealthy():
		c.Status = CheckWarn
		c.Message = "Cannot list models while Ollama is unreachable"
	case len(st.Models) == 0:
		c.Status = CheckFail
		c.Message = "No models installed"
		c.Fix = "Run: proofread pull " + ollama.RecommendedModels[0].Name
	default:
		c.Status = CheckPass
		c.Message = fmt.Sprintf("%d model(s) installed", len(st.Models))
	}
	return c
}

func checkDefaultModel(app *App, st status.Status) *HealthCheck {
	model := app.Config.Ollama.Model
	c := &HealthCheck{Name: "Default model"}
	switch {
	case !st.IsHealthy():
		c.Status = CheckWarn
		c.Message = "Cannot verify model " + model
	case hasModel(st.Models, model):
		c.Status = CheckPass
		c.Message = "Model " + model + " installed"
	default:
		c.Status = CheckFail
		c.Message = "Model " + model + " not installed"
		if alts := ollama.SuggestModels(model, st.Models, 3); len(alts) > 0 {
			c.Message += " (installed: " + strings.Join(alts, ", ") + ")"
		}
		c.Fix = "Run: proofread pull " + model
		c.fixFunc = func(ctx context.Context) error {
			admin, err := app.Client.Admin()
			if err != nil {
				return err
			}
			return admin.Pull(ctx, model, nil)
		}
	}
	return c
}

func checkConfig(app *App) *HealthCheck {
	c := &HealthCheck{Name: "Config file", Status: CheckPass}
	if _, err := os.Stat(app.ConfigPath); err != nil {
		c.Message = "Using defaults (no " + app.ConfigPath + ")"
		return c
	}
	if err := app.Config.Validate(); err != nil {
		c.Status = CheckFail
		c.Message = "Config invalid: " + err.Error()
		c.Fix = "Run: proofread config reset"
		return c
	}
	c.Message = "Config valid (" + app.ConfigPath + ")"
	return c
}

func checkTemplates(app *App) *HealthCheck {
	c := &HealthCheck{Name: "Templates", Status: CheckPass}
	custom := len(app.Templates.Custom())
	c.Message = fmt.Sprintf("%d templates (%d custom)", len(app.Templates.All()), custom)
	if _, _, err := app.Templates.Resolve(app.Config.Proofread.Template, app.Config.Proofread.CustomPrompt); err != nil {
		c.Status = CheckFail
		c.Message = "Default template missing: " + app.Config.Proofread.Template
		c.Fix = "Run: proofread config set proofread.template default"
	}
	return c
}

func checkStats(app *App) *HealthCheck {
	c := &HealthCheck{Name: "Statistics"}
	switch {
	case !app.Config.Stats.Enabled:
		c.Status = CheckPass
		c.Message = "Statistics disabled"
	case app.Stats == nil:
		c.Status = CheckWarn
		c.Message = "Statistics database could not be opened"
		c.Fix = "Check permissions of the config directory, or set stats.enabled = false"
	default:
		c.Status = CheckPass
		c.Message = "Statistics database ready"
	}
	return c
}

func checkClipboard(app *App) *HealthCheck {
	c := &HealthCheck{Name: "Clipboard"}
	available := true
	if a, ok := app.Clipboard.(interface{ Available() bool }); ok {
		available = a.Available()
	}
	if available {
		c.Status = CheckPass
		c.Message = "System clipboard available"
	} else {
		c.Status = CheckWarn
		c.Message = "No clipboard utility found"
		c.Fix = "Install xclip, xsel or wl-clipboard to use --clipboard"
	}
	return c
}
