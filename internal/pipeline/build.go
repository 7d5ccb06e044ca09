package pipeline

import (
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"
)

// ErrUnknownStep is returned by Build for an op it does not know.
var ErrUnknownStep = errors.New("unknown pipeline step")

// StepSpec describes a built-in step declaratively, e.g.
// {"op": "cast_numeric", "fields": ["price"]}.
type StepSpec struct {
	Op        string         `json:"op" binding:"required"`
	Fields    []string       `json:"fields"`
	Defaults  map[string]any `json:"defaults"`
	MaxLength int            `json:"max_length"`
	From      string         `json:"from"`
	To        string         `json:"to"`
}

// Build assembles a processor from specs.
func Build(log logrus.FieldLogger, specs []StepSpec) (*Processor, error) {
	p := New(log)
	for i, spec := range specs {
		step, err := stepFromSpec(p.log, spec)
		if err != nil {
			return nil, fmt.Errorf("step %d: %w", i, err)
		}
		p.AddStep(step)
	}
	return p, nil
}

func stepFromSpec(log logrus.FieldLogger, spec StepSpec) (Step, error) {
	switch spec.Op {
	case "drop_missing":
		if len(spec.Fields) == 0 {
			return nil, errors.New("drop_missing requires fields")
		}
		return DropMissingStep(log, spec.Fields...), nil
	case "normalize_strings":
		return NormalizeStringsStep(spec.Fields...), nil
	case "cast_numeric":
		if len(spec.Fields) == 0 {
			return nil, errors.New("cast_numeric requires fields")
		}
		return CastNumericStep(log, spec.Fields...), nil
	case "merge_defaults":
		return MergeDefaultsStep(spec.Defaults), nil
	case "sanitize":
		return SanitizeFieldsStep(spec.MaxLength, spec.Fields...), nil
	case "rename":
		if spec.From == "" || spec.To == "" {
			return nil, errors.New("rename requires from and to")
		}
		return RenameStep(spec.From, spec.To), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownStep, spec.Op)
	}
}
