package estack

import (
	"fmt"
	"strings"

	yaml "gopkg.in/yaml.v2"
)

// A LogEntry records one active operation for export. Masked operations
// are flagged but the mask weights themselves are not serialized; the log
// is a provenance record, not a full session file.
type LogEntry struct {
	Kind   string      `yaml:"kind"`
	Label  string      `yaml:"label"`
	Masked bool        `yaml:"masked,omitempty"`
	Params interface{} `yaml:"params"`
}

// ExportLog returns one entry per active operation, in application order.
// Undone operations beyond the cursor are not part of the edit and do not
// appear.
func (s *Stack) ExportLog() []LogEntry {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]LogEntry, 0, s.cursor)
	for _, op := range s.ops[:s.cursor] {
		out = append(out, LogEntry{
			Kind:   op.Kind.String(),
			Label:  op.Label,
			Masked: op.Mask != nil,
			Params: op.Params,
		})
	}
	return out
}

// AsYaml renders the log the way the session files are written, so an
// exported log can be replayed as a session.
func (s *Stack) AsYaml() string {
	b, err := yaml.Marshal(map[string]interface{}{
		"clamp":      string(s.Policy()),
		"operations": s.ExportLog(),
	})
	if err != nil {
		return fmt.Sprintf("# log marshal failed: %v\n", err)
	}
	return string(b)
}

// AsText renders the log as one label per line, matching the plain .log
// sidecar files the processing pipeline has always written.
func (s *Stack) AsText() string {
	entries := s.ExportLog()
	lines := make([]string, 0, len(entries))
	for _, e := range entries {
		line := e.Label
		if e.Masked {
			line += " [masked]"
		}
		lines = append(lines, line)
	}
	return strings.Join(lines, "\n") + "\n"
}
