package utils

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/pkg/errors"
)

// Verbose controls whether progress lines are printed.
// Set to false to suppress output.
var Verbose = true

// Output is the writer where progress lines are printed.
// Defaults to os.Stdout.
var Output io.Writer = os.Stdout

// Logf prints a progress line when Verbose is enabled.
func Logf(format string, args ...interface{}) {
	if !Verbose {
		return
	}
	fmt.Fprintf(Output, format+"\n", args...)
}

// Tracker is the experiment-tracking sink for training diagnostics. Metric
// names are scale-qualified strings such as "rec_loss@2".
type Tracker interface {
	LogScalars(metrics map[string]float64, step int)
	LogText(name string, lines []string, step int)
	Close() error
}

// NopTracker discards everything.
type NopTracker struct{}

func (NopTracker) LogScalars(map[string]float64, int) {}
func (NopTracker) LogText(string, []string, int)      {}
func (NopTracker) Close() error                       { return nil }

// JSONLTracker appends one JSON object per logged event to a file. Logging
// never blocks training on an error; the first write failure is kept and
// reported by Close.
type JSONLTracker struct {
	f   *os.File
	enc *json.Encoder
	err error
}

type trackerEvent struct {
	Time    string             `json:"time"`
	Step    int                `json:"step"`
	Metrics map[string]float64 `json:"metrics,omitempty"`
	Name    string             `json:"name,omitempty"`
	Text    []string           `json:"text,omitempty"`
}

// NewJSONLTracker opens (or creates) the log file in append mode.
func NewJSONLTracker(path string) (*JSONLTracker, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, errors.Wrap(err, "open tracker file")
	}
	return &JSONLTracker{f: f, enc: json.NewEncoder(f)}, nil
}

func (t *JSONLTracker) LogScalars(metrics map[string]float64, step int) {
	t.encode(trackerEvent{
		Time:    time.Now().Format(time.RFC3339),
		Step:    step,
		Metrics: metrics,
	})
}

func (t *JSONLTracker) LogText(name string, lines []string, step int) {
	t.encode(trackerEvent{
		Time: time.Now().Format(time.RFC3339),
		Step: step,
		Name: name,
		Text: lines,
	})
}

func (t *JSONLTracker) encode(ev trackerEvent) {
	if err := t.enc.Encode(ev); err != nil && t.err == nil {
		t.err = errors.Wrap(err, "write tracker event")
	}
}

func (t *JSONLTracker) Close() error {
	closeErr := t.f.Close()
	if t.err != nil {
		return t.err
	}
	return closeErr
}
