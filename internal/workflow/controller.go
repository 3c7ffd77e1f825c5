// Package workflow owns the upload, analyze and render state of a session.
package workflow

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"strings"
	"time"

	"github.com/csheth/tumorscope/internal/inference"
	"github.com/csheth/tumorscope/internal/notify"
	"github.com/csheth/tumorscope/internal/preview"
	"github.com/csheth/tumorscope/internal/upload"
)

const (
	// FallbackErrorMessage is shown when a failure carries no usable reason.
	FallbackErrorMessage = "Failed to analyze image"

	invalidTypeTitle       = "Invalid file type"
	invalidTypeDescription = "Please select a JPG or PNG image."
	completeTitle          = "Analysis Complete"
	failedTitle            = "Analysis Failed"
)

var errEmptyResponse = errors.New("empty analysis response")

// Endpoint is the inference service the controller submits images to.
type Endpoint interface {
	Analyze(ctx context.Context, filename, mediaType string, image io.Reader) (*inference.Result, error)
}

// Phase is the externally visible state of the workflow.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseReady
	PhaseAnalyzing
	PhaseCompleted
	PhaseFailed
)

func (p Phase) String() string {
	switch p {
	case PhaseReady:
		return "ready"
	case PhaseAnalyzing:
		return "analyzing"
	case PhaseCompleted:
		return "completed"
	case PhaseFailed:
		return "failed"
	default:
		return "idle"
	}
}

// Source names the entry point a file was selected through.
type Source string

const (
	SourceChooser Source = "chooser"
	SourceDrop    Source = "drop"
)

// Selection is the user's current input. Preview is valid iff File is non-nil.
type Selection struct {
	File    *upload.File
	Preview preview.Handle
}

// State is a snapshot of the workflow.
type State struct {
	Selection Selection
	Busy      bool
	Result    *inference.Result
	Error     string
}

// Config wires the controller's collaborators.
type Config struct {
	Endpoint Endpoint
	Notifier notify.Notifier
	Previews *preview.Registry
	// Timeout bounds a single request when positive.
	Timeout time.Duration
}

// Controller is the analysis state machine. It is not safe for concurrent use: every
// method must be called from the same event loop. Only Submission.Run may execute
// elsewhere.
type Controller struct {
	endpoint Endpoint
	notifier notify.Notifier
	previews *preview.Registry
	timeout  time.Duration

	state      State
	generation uint64
	inflight   uint64
}

// New returns an idle controller.
func New(cfg Config) *Controller {
	notifier := cfg.Notifier
	if notifier == nil {
		notifier = notify.Func(nil)
	}
	previews := cfg.Previews
	if previews == nil {
		previews = preview.NewRegistry(0)
	}
	return &Controller{
		endpoint: cfg.Endpoint,
		notifier: notifier,
		previews: previews,
		timeout:  cfg.Timeout,
	}
}

// State returns a copy of the current workflow state.
func (c *Controller) State() State {
	s := c.state
	if s.Selection.File != nil {
		f := *s.Selection.File
		s.Selection.File = &f
	}
	return s
}

// Phase derives the state machine position from the current state.
func (c *Controller) Phase() Phase {
	switch {
	case c.state.Busy:
		return PhaseAnalyzing
	case c.state.Error != "":
		return PhaseFailed
	case c.state.Result != nil:
		return PhaseCompleted
	case c.state.Selection.File != nil:
		return PhaseReady
	default:
		return PhaseIdle
	}
}

// Choose selects a file through the explicit chooser.
func (c *Controller) Choose(f upload.File) bool {
	return c.selectFile(f, SourceChooser)
}

// Drop selects a file released onto the drop target.
func (c *Controller) Drop(f upload.File) bool {
	return c.selectFile(f, SourceDrop)
}

func (c *Controller) selectFile(f upload.File, source Source) bool {
	if err := upload.Validate(f); err != nil {
		log.Printf("[workflow] rejected %s via %s: %v", f.Name, source, err)
		c.notifier.Notify(invalidTypeTitle, invalidTypeDescription, notify.Destructive)
		return false
	}
	c.releasePreview()
	file := f
	c.state.Selection = Selection{File: &file, Preview: c.previews.Acquire(file)}
	c.state.Error = ""
	c.generation++
	log.Printf("[workflow] selected %s (%s, %d bytes) via %s", f.Name, f.MediaType, f.Size(), source)
	return true
}

// Submission is a single analysis request bound to the file selected at submit time.
type Submission struct {
	Generation uint64
	File       upload.File

	endpoint Endpoint
	timeout  time.Duration
}

// Outcome is the terminal result of a Submission.
type Outcome struct {
	Generation uint64
	Result     *inference.Result
	Err        error
	Duration   time.Duration
}

// Analyze starts an analysis of the selected file. It returns false without touching
// state when nothing is selected or a request is already in flight.
func (c *Controller) Analyze() (*Submission, bool) {
	if c.state.Selection.File == nil || c.state.Busy {
		return nil, false
	}
	c.generation++
	c.inflight = c.generation
	c.state.Error = ""
	c.state.Busy = true
	return &Submission{
		Generation: c.generation,
		File:       *c.state.Selection.File,
		endpoint:   c.endpoint,
		timeout:    c.timeout,
	}, true
}

// Run performs the request. It touches no controller state and may run off the event
// loop.
func (s *Submission) Run(ctx context.Context) Outcome {
	started := time.Now()
	if s.endpoint == nil {
		return Outcome{Generation: s.Generation, Err: errors.New("no inference endpoint configured")}
	}
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}
	result, err := s.endpoint.Analyze(ctx, s.File.Name, s.File.MediaType, bytes.NewReader(s.File.Data))
	if err == nil && result == nil {
		err = errEmptyResponse
	}
	return Outcome{Generation: s.Generation, Result: result, Err: err, Duration: time.Since(started)}
}

// Complete applies a request outcome. Outcomes from a superseded generation only clear
// the busy flag.
func (c *Controller) Complete(o Outcome) {
	if o.Generation == c.inflight {
		c.state.Busy = false
		c.inflight = 0
	}
	if o.Generation != c.generation {
		log.Printf("[workflow] discarded stale outcome (generation=%d current=%d)", o.Generation, c.generation)
		return
	}
	if o.Err == nil && o.Result == nil {
		o.Err = errEmptyResponse
	}
	if o.Err != nil {
		reason := FailureReason(o.Err)
		c.state.Result = nil
		c.state.Error = reason
		log.Printf("[workflow] analysis failed after %s: %s", o.Duration, reason)
		c.notifier.Notify(failedTitle, reason, notify.Destructive)
		return
	}
	c.state.Result = o.Result
	c.state.Error = ""
	log.Printf("[workflow] analysis completed in %s: %s", o.Duration, o.Result.PredictedClass)
	c.notifier.Notify(completeTitle, fmt.Sprintf("Detected: %s (%s confidence)", o.Result.PredictedClass, FormatConfidence(o.Result.Confidence)), notify.Informational)
}

// AnalyzeAndWait runs a full analysis synchronously and reports whether one was started.
func (c *Controller) AnalyzeAndWait(ctx context.Context) bool {
	sub, ok := c.Analyze()
	if !ok {
		return false
	}
	c.Complete(sub.Run(ctx))
	return true
}

// Reset returns to the idle state. It leaves the busy flag alone; an in-flight request
// still clears it when it lands, but its payload is discarded.
func (c *Controller) Reset() {
	c.releasePreview()
	c.state.Selection = Selection{}
	c.state.Result = nil
	c.state.Error = ""
	c.generation++
}

// Close releases resources held by the current selection.
func (c *Controller) Close() {
	c.releasePreview()
	c.state.Selection = Selection{}
}

func (c *Controller) releasePreview() {
	h := c.state.Selection.Preview
	if !h.Valid() {
		return
	}
	if err := c.previews.Release(h); err != nil {
		log.Printf("[workflow] release %s: %v", h.ID, err)
	}
	c.state.Selection.Preview = preview.Handle{}
}

// FailureReason flattens an error into the message shown to the user.
func FailureReason(err error) string {
	if err == nil {
		return FallbackErrorMessage
	}
	msg := strings.TrimSpace(err.Error())
	if msg == "" {
		return FallbackErrorMessage
	}
	return msg
}
