package diagnostics

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"
)

// Tier names the degradation level an assembly was served at.
type Tier string

const (
	TierFull            Tier = "full"
	TierCannedQuestions Tier = "canned_questions"
	TierDefault         Tier = "default"
)

// ErrorKind classifies recorded errors for operators.
type ErrorKind string

const (
	KindMetadataUnavailable     ErrorKind = "metadata_unavailable"
	KindQuestionListUnavailable ErrorKind = "question_list_unavailable"
	KindAnswerPartition         ErrorKind = "answer_partition_unavailable"
	KindTimeout                 ErrorKind = "timeout"
	KindOther                   ErrorKind = "other"
)

// Classifier maps an error onto an ErrorKind. The services package installs
// one that understands its error taxonomy.
type Classifier func(err error) ErrorKind

type Step struct {
	Name     string        `json:"name"`
	Start    time.Time     `json:"start"`
	Duration time.Duration `json:"duration"`
	Success  bool          `json:"success"`
}

type StepError struct {
	Step    string    `json:"step"`
	Kind    ErrorKind `json:"kind"`
	Message string    `json:"message"`
	Cause   error     `json:"-"`
}

func (e StepError) Error() string {
	return fmt.Sprintf("%s: %s", e.Step, e.Message)
}

func (e StepError) Unwrap() error {
	return e.Cause
}

// Diagnostics is the read-only report attached to an assemble call.
type Diagnostics struct {
	Steps    []Step        `json:"steps"`
	Errors   []StepError   `json:"errors"`
	Warnings []string      `json:"warnings"`
	Tier     Tier          `json:"tier"`
	CacheHit bool          `json:"cache_hit"`
	Shared   bool          `json:"shared"`
	Duration time.Duration `json:"duration"`
}

// HasErrors reports whether any error was recorded.
func (d Diagnostics) HasErrors() bool {
	return len(d.Errors) > 0
}

// StepsWithPrefix returns the steps whose name starts with prefix.
func (d Diagnostics) StepsWithPrefix(prefix string) []Step {
	var out []Step
	for _, s := range d.Steps {
		if strings.HasPrefix(s.Name, prefix) {
			out = append(out, s)
		}
	}
	return out
}

// Collector is an append-only recorder shared by the concurrent tasks of one
// assemble call.
type Collector struct {
	mu       sync.Mutex
	now      func() time.Time
	classify Classifier
	started  time.Time
	report   Diagnostics
}

// NewCollector creates a collector. now and classify may be nil.
func NewCollector(now func() time.Time, classify Classifier) *Collector {
	if now == nil {
		now = time.Now
	}
	if classify == nil {
		classify = func(error) ErrorKind { return KindOther }
	}
	return &Collector{
		now:      now,
		classify: classify,
		started:  now(),
		report:   Diagnostics{Tier: TierFull},
	}
}

// Span is an open step. End must be called exactly once.
type Span struct {
	c     *Collector
	name  string
	start time.Time
}

// StartStep opens a named step.
func (c *Collector) StartStep(name string) *Span {
	return &Span{c: c, name: name, start: c.now()}
}

// End closes the step; a non-nil err marks it failed and records the error.
func (s *Span) End(err error) {
	step := Step{
		Name:     s.name,
		Start:    s.start,
		Duration: s.c.now().Sub(s.start),
		Success:  err == nil,
	}
	s.c.mu.Lock()
	s.c.report.Steps = append(s.c.report.Steps, step)
	s.c.mu.Unlock()
	if err != nil {
		s.c.Error(s.name, err)
	}
}

// AddStep records a step timed elsewhere, such as a task group result.
func (c *Collector) AddStep(name string, start time.Time, duration time.Duration, err error) {
	c.mu.Lock()
	c.report.Steps = append(c.report.Steps, Step{Name: name, Start: start, Duration: duration, Success: err == nil})
	c.mu.Unlock()
	if err != nil {
		c.Error(name, err)
	}
}

// Error records a recovered error against a step.
func (c *Collector) Error(step string, err error) {
	if err == nil {
		return
	}
	stepErr := StepError{Step: step, Kind: c.classify(err), Message: err.Error(), Cause: err}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.report.Errors = append(c.report.Errors, stepErr)
}

// Warn records a warning.
func (c *Collector) Warn(format string, args ...interface{}) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.report.Warnings = append(c.report.Warnings, fmt.Sprintf(format, args...))
}

// SetTier records the degradation tier.
func (c *Collector) SetTier(tier Tier) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.report.Tier = tier
}

func (c *Collector) MarkCacheHit() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.report.CacheHit = true
}

// Snapshot returns a copy of everything recorded so far.
func (c *Collector) Snapshot() Diagnostics {
	c.mu.Lock()
	defer c.mu.Unlock()
	d := c.report
	d.Steps = append([]Step(nil), c.report.Steps...)
	d.Errors = append([]StepError(nil), c.report.Errors...)
	d.Warnings = append([]string(nil), c.report.Warnings...)
	d.Duration = c.now().Sub(c.started)
	return d
}

// Clone returns a copy that shares no slices with d.
func (d Diagnostics) Clone() Diagnostics {
	c := d
	c.Steps = append([]Step(nil), d.Steps...)
	c.Errors = append([]StepError(nil), d.Errors...)
	c.Warnings = append([]string(nil), d.Warnings...)
	return c
}

// FindError returns the first recorded error matching target via errors.Is.
func (d Diagnostics) FindError(target error) (StepError, bool) {
	for _, e := range d.Errors {
		if errors.Is(e, target) {
			return e, true
		}
	}
	return StepError{}, false
}
