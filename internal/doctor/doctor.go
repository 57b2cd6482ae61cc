// Package doctor checks a planview configuration for problems that loading
// alone does not catch: unknown token scopes, unusable export paths, an
// export template that does not parse and retention settings that fight
// each other.
package doctor

import (
	"encoding/json"
	"fmt"
	"net"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/mattjoyce/planview/internal/auth"
	"github.com/mattjoyce/planview/internal/config"
	"github.com/mattjoyce/planview/internal/export"
)

// exportsPath is where the API serves published pages.
const exportsPath = "/exports/"

// Result holds the outcome of a validation run.
type Result struct {
	Valid    bool    `json:"valid"`
	Errors   []Issue `json:"errors,omitempty"`
	Warnings []Issue `json:"warnings,omitempty"`
}

// Issue describes a single validation error or warning.
type Issue struct {
	Category string `json:"category"`
	Message  string `json:"message"`
	Field    string `json:"field,omitempty"`
}

// Doctor validates a loaded configuration.
type Doctor struct {
	cfg *config.Config
}

func New(cfg *config.Config) *Doctor {
	return &Doctor{cfg: cfg}
}

// Validate runs all checks and returns a result.
func (d *Doctor) Validate() *Result {
	r := &Result{Valid: true}

	d.validateServiceConfig(r)
	d.validateAPIConfig(r)
	d.validateTokenScopes(r)
	d.validateExportConfig(r)
	d.validateTemplate(r)
	d.warnMissingEnvVars(r)
	d.warnDeprecatedSyntax(r)
	d.warnSuspiciousRetention(r)

	r.Valid = len(r.Errors) == 0
	return r
}

func (d *Doctor) addError(r *Result, category, field, msg string) {
	r.Errors = append(r.Errors, Issue{Category: category, Field: field, Message: msg})
}

func (d *Doctor) addWarning(r *Result, category, field, msg string) {
	r.Warnings = append(r.Warnings, Issue{Category: category, Field: field, Message: msg})
}

func (d *Doctor) validateServiceConfig(r *Result) {
	if d.cfg.State.Path == "" {
		d.addError(r, "service", "state.path", "state.path is required")
	}
	if d.cfg.Service.Name == "" {
		d.addWarning(r, "service", "service.name", "service.name is empty")
	}
}

func (d *Doctor) validateAPIConfig(r *Result) {
	listen := d.cfg.API.Listen
	if listen == "" {
		d.addError(r, "api", "api.listen", "api.listen is required")
		return
	}
	host, _, err := net.SplitHostPort(listen)
	if err != nil {
		d.addError(r, "api", "api.listen", fmt.Sprintf("invalid listen address %q: %v", listen, err))
		return
	}

	if d.cfg.API.Auth.APIKey == "" && len(d.cfg.API.Auth.Tokens) == 0 {
		if isLoopback(host) {
			d.addWarning(r, "api", "api.auth", "no authentication configured")
		} else {
			d.addWarning(r, "api", "api.auth",
				fmt.Sprintf("no authentication configured and listening on non-loopback address %q", listen))
		}
	}
}

func isLoopback(host string) bool {
	if host == "localhost" {
		return true
	}
	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback()
}

func (d *Doctor) validateTokenScopes(r *Result) {
	for i, token := range d.cfg.API.Auth.Tokens {
		for j, scope := range token.Scopes {
			if err := auth.ValidateScope(scope); err != nil {
				d.addError(r, "token_scopes", fmt.Sprintf("api.auth.tokens[%d].scopes[%d]", i, j), err.Error())
			}
		}
	}
}

func (d *Doctor) validateExportConfig(r *Result) {
	exp := d.cfg.Export

	if info, err := os.Stat(exp.Dir); err == nil {
		if !info.IsDir() {
			d.addError(r, "export", "export.dir", fmt.Sprintf("%s is not a directory", exp.Dir))
		}
	} else if os.IsNotExist(err) {
		d.addWarning(r, "export", "export.dir", fmt.Sprintf("%s does not exist and will be created", exp.Dir))
	} else {
		d.addError(r, "export", "export.dir", err.Error())
	}

	u, err := url.Parse(exp.BaseURL)
	if err != nil || !u.IsAbs() {
		d.addError(r, "export", "export.base_url", fmt.Sprintf("base_url %q must be an absolute URL", exp.BaseURL))
		return
	}
	if !strings.HasSuffix(u.Path, exportsPath) {
		d.addWarning(r, "export", "export.base_url",
			fmt.Sprintf("base_url path %q does not end in %s; links only resolve behind a rewriting proxy", u.Path, exportsPath))
	}
}

func (d *Doctor) validateTemplate(r *Result) {
	path := d.cfg.Export.Template
	if path == "" {
		return
	}
	if !filepath.IsAbs(path) {
		d.addWarning(r, "export", "export.template",
			fmt.Sprintf("template path %q is relative to the working directory", path))
	}
	if _, err := export.LoadRenderer(path); err != nil {
		d.addError(r, "export", "export.template", err.Error())
	}
}

// warnMissingEnvVars flags credentials that resolved to nothing.
func (d *Doctor) warnMissingEnvVars(r *Result) {
	for i, token := range d.cfg.API.Auth.Tokens {
		if token.Token == "" {
			d.addWarning(r, "env_vars", fmt.Sprintf("api.auth.tokens[%d].token", i),
				"token value is empty (possibly unresolved environment variable)")
		}
	}
}

// warnDeprecatedSyntax warns about legacy config patterns.
func (d *Doctor) warnDeprecatedSyntax(r *Result) {
	if d.cfg.API.Auth.APIKey != "" && len(d.cfg.API.Auth.Tokens) > 0 {
		d.addWarning(r, "deprecated", "api.auth",
			"both api_key and tokens configured; prefer tokens array only")
	}
	if d.cfg.API.Auth.APIKey != "" && len(d.cfg.API.Auth.Tokens) == 0 {
		d.addWarning(r, "deprecated", "api.auth.api_key",
			"legacy api_key grants full access; migrate to tokens array with scopes")
	}
}

// warnSuspiciousRetention flags retention windows that are unlikely to be
// what the operator meant.
func (d *Doctor) warnSuspiciousRetention(r *Result) {
	exp := d.cfg.Export
	if exp.Retention > 0 && exp.Retention < time.Minute {
		d.addWarning(r, "retention", "export.retention",
			fmt.Sprintf("retention %s is very short; links may expire before they are opened", exp.Retention))
	}
	if exp.Retention > 24*time.Hour {
		d.addWarning(r, "retention", "export.retention",
			fmt.Sprintf("retention %s keeps exports for over a day", exp.Retention))
	}
	if exp.SweepInterval > 0 && exp.SweepAfter > 0 && exp.SweepInterval > exp.SweepAfter {
		d.addWarning(r, "retention", "export.sweep_interval",
			fmt.Sprintf("sweep_interval %s is longer than sweep_after %s", exp.SweepInterval, exp.SweepAfter))
	}
}

// FormatHuman returns a human-readable validation report.
func FormatHuman(r *Result) string {
	var b strings.Builder

	if r.Valid && len(r.Warnings) == 0 {
		b.WriteString("Configuration valid.\n")
		return b.String()
	}

	if r.Valid && len(r.Warnings) > 0 {
		b.WriteString("Configuration valid")
		fmt.Fprintf(&b, " (%d warning(s))\n", len(r.Warnings))
	}

	if !r.Valid {
		fmt.Fprintf(&b, "Configuration invalid (%d error(s), %d warning(s))\n", len(r.Errors), len(r.Warnings))
	}

	for _, e := range r.Errors {
		if e.Field != "" {
			fmt.Fprintf(&b, "  ERROR [%s] %s: %s\n", e.Category, e.Field, e.Message)
		} else {
			fmt.Fprintf(&b, "  ERROR [%s] %s\n", e.Category, e.Message)
		}
	}
	for _, w := range r.Warnings {
		if w.Field != "" {
			fmt.Fprintf(&b, "  WARN  [%s] %s: %s\n", w.Category, w.Field, w.Message)
		} else {
			fmt.Fprintf(&b, "  WARN  [%s] %s\n", w.Category, w.Message)
		}
	}

	return b.String()
}

// FormatJSON returns the result as indented JSON.
func FormatJSON(r *Result) (string, error) {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return "", err
	}
	return string(data), nil
}
