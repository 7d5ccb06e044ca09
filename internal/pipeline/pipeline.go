// Package pipeline cleans and aggregates tabular records. A Processor runs
// an ordered list of Steps, feeding each step's output into the next one.
// Steps exclude bad records instead of failing the whole run.
package pipeline

import (
	"io"

	"github.com/sirupsen/logrus"
)

// Record is a single row: field name to value. Steps may mutate it in place.
type Record = map[string]any

// Step is a named transform over a sequence of records. It may change the
// number of records or their keys.
type Step interface {
	Name() string
	Apply(records []Record) []Record
}

// StepFunc adapts a plain function to the Step interface.
type StepFunc struct {
	name string
	fn   func([]Record) []Record
}

// NewStep wraps fn as a Step called name.
func NewStep(name string, fn func([]Record) []Record) StepFunc {
	return StepFunc{name: name, fn: fn}
}

func (s StepFunc) Name() string { return s.name }

func (s StepFunc) Apply(records []Record) []Record { return s.fn(records) }

// Processor is a builder for an ordered chain of steps.
type Processor struct {
	steps []Step
	log   logrus.FieldLogger
}

// New returns an empty processor. A nil logger discards output.
func New(log logrus.FieldLogger) *Processor {
	return &Processor{log: orDiscard(log)}
}

// AddStep appends s and returns the processor for chaining.
func (p *Processor) AddStep(s Step) *Processor {
	if s == nil {
		panic("pipeline: nil step")
	}
	p.steps = append(p.steps, s)
	return p
}

// AddFunc appends fn as a step called name.
func (p *Processor) AddFunc(name string, fn func([]Record) []Record) *Processor {
	if fn == nil {
		panic("pipeline: nil step func " + name)
	}
	return p.AddStep(NewStep(name, fn))
}

// DropMissing appends a DropMissing step bound to the processor's logger.
func (p *Processor) DropMissing(keys ...string) *Processor {
	return p.AddStep(DropMissingStep(p.log, keys...))
}

// NormalizeStrings appends a NormalizeStrings step.
func (p *Processor) NormalizeStrings(fields ...string) *Processor {
	return p.AddStep(NormalizeStringsStep(fields...))
}

// CastNumeric appends a CastNumeric step bound to the processor's logger.
func (p *Processor) CastNumeric(fields ...string) *Processor {
	return p.AddStep(CastNumericStep(p.log, fields...))
}

// Steps lists the step names in execution order.
func (p *Processor) Steps() []string {
	names := make([]string, len(p.steps))
	for i, s := range p.steps {
		names[i] = s.Name()
	}
	return names
}

// Run applies every step in order, starting from records.
func (p *Processor) Run(records []Record) []Record {
	result := records
	for _, step := range p.steps {
		result = step.Apply(result)
		p.log.WithFields(logrus.Fields{
			"step":    step.Name(),
			"records": len(result),
		}).Debug("pipeline step finished")
	}
	return result
}

func orDiscard(log logrus.FieldLogger) logrus.FieldLogger {
	if log != nil {
		return log
	}
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}
