package learn

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// Exporter appends generated plans to a plain-text log.
type Exporter struct {
	path string
	mu   sync.Mutex
}

func NewExporter(path string) *Exporter {
	return &Exporter{path: path}
}

func (e *Exporter) Path() string { return e.path }

// Append writes one plan to the end of the log, creating the file and its
// directory if needed.
func (e *Exporter) Append(p *Plan) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	dir := filepath.Dir(e.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	fileExists := false
	if _, err := os.Stat(e.path); err == nil {
		fileExists = true
	}

	file, err := os.OpenFile(e.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	var sb strings.Builder
	if fileExists {
		sb.WriteString("\n")
	}
	sb.WriteString(fmt.Sprintf("Learning Plan %s - %s\n", p.ID, p.Topic))
	sb.WriteString(fmt.Sprintf("Created: %s\n", p.CreatedAt.Format("2006-01-02 15:04:05")))
	sb.WriteString(strings.Repeat("=", 50) + "\n")
	if p.Message != "" {
		sb.WriteString(p.Message + "\n")
	}

	sb.WriteString("\nSteps:\n")
	for _, st := range p.Steps {
		sb.WriteString(fmt.Sprintf("- %s\n  %s\n", st.Title, st.Description))
	}

	if len(p.Resources) > 0 {
		sb.WriteString("\nResources:\n")
		for _, r := range p.Resources {
			sb.WriteString(fmt.Sprintf("- %s <%s>\n", r.Title, r.URL))
		}
	}
	sb.WriteString(strings.Repeat("-", 40) + "\n")

	if _, err := file.WriteString(sb.String()); err != nil {
		return fmt.Errorf("failed to write to file: %w", err)
	}
	return nil
}
