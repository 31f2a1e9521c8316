package report

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"

	"github.com/inference-sim/mm1-sim/sim/calibration"
)

// Document is the on-disk form of a finished calibration.
type Document struct {
	SessionID   string              `json:"session_id" yaml:"session_id"`
	GeneratedAt time.Time           `json:"generated_at" yaml:"generated_at"`
	FinalState  string              `json:"final_state" yaml:"final_state"`
	Result      *calibration.Result `json:"result" yaml:"result"`
}

// FileSink writes the finished series to Path when the calibration ends. The
// format follows the extension: .yaml/.yml for YAML, anything else for JSON.
type FileSink struct {
	Path      string
	SessionID string

	now func() time.Time
}

// NewFileSink creates a FileSink with a fresh session id.
func NewFileSink(path string) *FileSink {
	return &FileSink{Path: path, SessionID: uuid.NewString(), now: time.Now}
}

// Record implements calibration.Sink. Iterations are only written on Finish.
func (f *FileSink) Record(calibration.RunMetrics) error {
	return nil
}

// Finish implements calibration.Sink.
func (f *FileSink) Finish(res *calibration.Result) error {
	doc := Document{
		SessionID:   f.SessionID,
		GeneratedAt: f.now().UTC(),
		FinalState:  res.FinalState.String(),
		Result:      res,
	}
	data, err := Encode(doc, f.Path)
	if err != nil {
		return err
	}
	if dir := filepath.Dir(f.Path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating results directory: %w", err)
		}
	}
	if err := os.WriteFile(f.Path, data, 0o644); err != nil {
		return fmt.Errorf("writing results to %s: %w", f.Path, err)
	}
	logrus.Infof("Calibration series written to %s (session %s)", f.Path, f.SessionID)
	return nil
}

// Encode marshals doc as YAML or JSON depending on the extension of path.
func Encode(doc Document, path string) ([]byte, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		data, err := yaml.Marshal(doc)
		if err != nil {
			return nil, fmt.Errorf("encoding results as YAML: %w", err)
		}
		return data, nil
	default:
		data, err := json.MarshalIndent(doc, "", "  ")
		if err != nil {
			return nil, fmt.Errorf("encoding results as JSON: %w", err)
		}
		return data, nil
	}
}
