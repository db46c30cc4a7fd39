package reports

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"io"
	"regexp"
	"strings"

	"log-analyzer/internal/models"

	"github.com/spf13/afero"
)

const logDateLayout = "2006.01.02"

// placeholderRegex matches $$, $name and ${name}.
var placeholderRegex = regexp.MustCompile(`\$(?:\$|\{[_a-zA-Z][_a-zA-Z0-9]*\}|[_a-zA-Z][_a-zA-Z0-9]*)`)

//go:embed templates/report.html
var defaultTemplate string

type Renderer interface {
	// Render writes the HTML report to w.
	Render(w io.Writer, report *models.Report) error
}

type renderer struct {
	template string
}

// NewRenderer returns a renderer for the template at templatePath, or for the built-in
// template when templatePath is empty.
func NewRenderer(fs afero.Fs, templatePath string) (Renderer, error) {
	if templatePath == "" {
		return &renderer{template: defaultTemplate}, nil
	}

	data, err := afero.ReadFile(fs, templatePath)
	if err != nil {
		return nil, errInternalReportRenderFailed(fmt.Errorf("reading template %s: %w", templatePath, err))
	}
	return &renderer{template: string(data)}, nil
}

// Render substitutes $table_json, $ua_json and $log_date (also in ${name} form) in the template.
// Unknown placeholders are left as they are and $$ is an escaped dollar sign.
func (r *renderer) Render(w io.Writer, report *models.Report) error {
	stats := report.Stats
	if stats == nil {
		stats = []models.URLStat{}
	}
	tableJSON, err := json.Marshal(stats)
	if err != nil {
		return errInternalReportRenderFailed(fmt.Errorf("marshal url stats: %w", err))
	}

	userAgents := report.UserAgents
	if userAgents == nil {
		userAgents = []models.UserAgentStat{}
	}
	uaJSON, err := json.Marshal(userAgents)
	if err != nil {
		return errInternalReportRenderFailed(fmt.Errorf("marshal user agent stats: %w", err))
	}

	values := map[string]string{
		"table_json": string(tableJSON),
		"ua_json":    string(uaJSON),
		"log_date":   report.LogDate.Format(logDateLayout),
	}

	out := placeholderRegex.ReplaceAllStringFunc(r.template, func(match string) string {
		if match == "$$" {
			return "$"
		}
		name := strings.Trim(match[1:], "{}")
		if value, ok := values[name]; ok {
			return value
		}
		return match
	})
	if _, err := io.WriteString(w, out); err != nil {
		return errInternalReportRenderFailed(err)
	}
	return nil
}
