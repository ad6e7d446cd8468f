package engine

import (
	"fmt"

	"cloud.google.com/go/civil"

	"github.com/jamesfulford/cashflow-projector/internal/common"
	"github.com/jamesfulford/cashflow-projector/internal/model"
)

// Context pairs a rule set with a planning window and holds the effective
// window they resolve to. It is immutable; build a new one to recompute.
type Context struct {
	rules          RuleSet
	window         Window
	effectiveStart civil.Date
	effectiveEnd   civil.Date
}

// NewContext resolves and validates the effective window. Any failure aborts
// construction.
func NewContext(rules RuleSet, window Window) (*Context, error) {
	c := &Context{
		rules:  rules,
		window: window,
	}
	c.resolve()

	if err := c.AssertValid(); err != nil {
		return nil, err
	}
	return c, nil
}

// resolve extends the configured end to the day after the last occurrence of
// any bounded rule that runs past it. Unbounded rules stop at the configured end.
func (c *Context) resolve() {
	c.effectiveStart = c.window.Start
	c.effectiveEnd = c.window.End

	for _, r := range c.rules.rules {
		last, bounded := r.pattern.LastOccurrence()
		if !bounded || !last.After(c.window.End) {
			continue
		}
		if next := last.AddDays(1); next.After(c.effectiveEnd) {
			c.effectiveEnd = next
		}
	}
}

// AssertValid re-validates the inputs and the resolved window.
func (c *Context) AssertValid() error {
	if err := c.rules.Validate(); err != nil {
		return err
	}
	if err := c.window.Validate(); err != nil {
		return err
	}
	if c.effectiveStart.After(c.effectiveEnd) {
		return fmt.Errorf("%w: effective start %s is after effective end %s",
			common.ErrInvalidWindow, c.effectiveStart, c.effectiveEnd)
	}
	return nil
}

// EffectiveStart returns the first day of the projection.
func (c *Context) EffectiveStart() civil.Date { return c.effectiveStart }

// EffectiveEnd returns the last day of the projection, after extension.
func (c *Context) EffectiveEnd() civil.Date { return c.effectiveEnd }

// Rules returns the context's rule set.
func (c *Context) Rules() RuleSet { return c.rules }

// Window returns the configured window.
func (c *Context) Window() Window { return c.window }

// Params returns the resolved parameters for reporting back to the caller.
func (c *Context) Params() model.Params {
	return model.Params{
		StartDate:      c.effectiveStart,
		EndDate:        c.effectiveEnd,
		CurrentBalance: c.window.CurrentBalance,
		SetAside:       c.window.SetAside,
		HighLow:        c.window.HighLow,
	}
}
