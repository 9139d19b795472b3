package dispatch

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/nixxel-company-limited/escpos-printkit/adapter"
	"github.com/nixxel-company-limited/escpos-printkit/command"
)

// Job is the input of one session.
type Job struct {
	Device   adapter.Descriptor `json:"device" yaml:"device"`
	Commands []command.Command  `json:"commands" yaml:"commands"`
}

// DecodeJob parses a JSON object or a YAML document.
func DecodeJob(data []byte) (Job, error) {
	var job Job

	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '{' {
		if err := json.Unmarshal(trimmed, &job); err != nil {
			return Job{}, fmt.Errorf("decode job: %w", err)
		}
		return job, nil
	}

	if err := yaml.Unmarshal(data, &job); err != nil {
		return Job{}, fmt.Errorf("decode job: %w", err)
	}
	return job, nil
}

// LoadJob reads and decodes a job file.
func LoadJob(path string) (Job, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Job{}, fmt.Errorf("read job: %w", err)
	}
	return DecodeJob(data)
}
