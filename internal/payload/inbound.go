// Package payload translates request documents into engine inputs and
// engine results into response documents.
package payload

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"cloud.google.com/go/civil"
	"gopkg.in/yaml.v3"

	"github.com/jamesfulford/cashflow-projector/internal/common"
	"github.com/jamesfulford/cashflow-projector/internal/engine"
)

// Amount is a decimal given either as a string or as a bare number.
type Amount string

// UnmarshalJSON implements json.Unmarshaler.
func (a *Amount) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	switch {
	case bytes.Equal(b, []byte("null")):
		*a = ""
	case len(b) > 0 && b[0] == '"':
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*a = Amount(s)
	default:
		var n json.Number
		if err := json.Unmarshal(b, &n); err != nil {
			return fmt.Errorf("amount must be a string or number: %s", b)
		}
		*a = Amount(n.String())
	}
	return nil
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (a *Amount) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.ScalarNode {
		return fmt.Errorf("line %d: amount must be a scalar", node.Line)
	}
	if node.Tag == "!!null" {
		*a = ""
		return nil
	}
	*a = Amount(node.Value)
	return nil
}

// Flag is a presence flag: it is set whenever its key appears, whatever the
// value.
type Flag bool

// UnmarshalJSON implements json.Unmarshaler.
func (f *Flag) UnmarshalJSON([]byte) error {
	*f = true
	return nil
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (f *Flag) UnmarshalYAML(*yaml.Node) error {
	*f = true
	return nil
}

// Rule is an inbound rule definition.
type Rule struct {
	ID                string   `json:"id" yaml:"id"`
	Name              string   `json:"name" yaml:"name"`
	RRule             string   `json:"rrule,omitempty" yaml:"rrule"`
	RecurrencePattern string   `json:"recurrencePattern,omitempty" yaml:"recurrencePattern"`
	Value             Amount   `json:"value" yaml:"value"`
	Labels            []string `json:"labels,omitempty" yaml:"labels"`
}

// Expression returns the recurrence text, whichever key carried it.
func (r Rule) Expression() string {
	if r.RRule != "" {
		return r.RRule
	}
	return r.RecurrencePattern
}

// Parameters are the inbound planning window fields. All are optional.
type Parameters struct {
	StartDate      string `json:"startDate,omitempty" yaml:"startDate"`
	EndDate        string `json:"endDate,omitempty" yaml:"endDate"`
	CurrentBalance Amount `json:"currentBalance,omitempty" yaml:"currentBalance"`
	SetAside       Amount `json:"setAside,omitempty" yaml:"setAside"`
	HighLow        Flag   `json:"highLow,omitempty" yaml:"highLow"`
}

// WindowInput converts p for engine.NewWindow.
func (p Parameters) WindowInput() engine.WindowInput {
	return engine.WindowInput{
		StartDate:      p.StartDate,
		EndDate:        p.EndDate,
		CurrentBalance: string(p.CurrentBalance),
		SetAside:       string(p.SetAside),
		HighLow:        bool(p.HighLow),
	}
}

// Request is a projection request: the body of an API call or a rules file.
type Request struct {
	Rules      []Rule     `json:"rules" yaml:"rules"`
	Parameters Parameters `json:"parameters" yaml:"parameters"`
}

// Definitions converts the inbound rules, in order.
func (r Request) Definitions() []engine.RuleDefinition {
	defs := make([]engine.RuleDefinition, 0, len(r.Rules))
	for _, rule := range r.Rules {
		defs = append(defs, engine.RuleDefinition{
			ID:      rule.ID,
			Name:    rule.Name,
			Pattern: rule.Expression(),
			Value:   string(rule.Value),
			Labels:  rule.Labels,
		})
	}
	return defs
}

// Context validates the request and resolves its effective window. Rules
// without a DTSTART are anchored at the window start.
func (r Request) Context(today civil.Date, opts ...engine.RuleSetOption) (*engine.Context, error) {
	window, err := engine.NewWindow(r.Parameters.WindowInput(), today)
	if err != nil {
		return nil, err
	}
	rules, err := engine.NewRuleSet(r.Definitions(), window.Start, opts...)
	if err != nil {
		return nil, err
	}
	return engine.NewContext(rules, window)
}

// DecodeJSON reads a JSON request.
func DecodeJSON(r io.Reader) (Request, error) {
	var req Request
	if err := json.NewDecoder(r).Decode(&req); err != nil {
		return Request{}, fmt.Errorf("failed to decode request: %w", err)
	}
	return req, nil
}

// DecodeYAML reads a YAML request.
func DecodeYAML(r io.Reader) (Request, error) {
	var req Request
	if err := yaml.NewDecoder(r).Decode(&req); err != nil && err != io.EOF {
		return Request{}, fmt.Errorf("failed to decode request: %w", err)
	}
	return req, nil
}

// LoadFile reads a rules file, choosing the format by extension.
func LoadFile(path string) (Request, error) {
	decode := DecodeJSON
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
	case ".yaml", ".yml":
		decode = DecodeYAML
	default:
		return Request{}, fmt.Errorf("%w: rules file %s must be .json, .yaml or .yml", common.ErrInvalidConfig, path)
	}

	f, err := os.Open(path)
	if err != nil {
		return Request{}, fmt.Errorf("failed to open rules file: %w", err)
	}
	defer func() { _ = f.Close() }()

	req, err := decode(f)
	if err != nil {
		return Request{}, fmt.Errorf("%s: %w", path, err)
	}
	return req, nil
}
