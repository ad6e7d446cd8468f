// Package engine resolves planning windows and projects recurring rules into
// a transaction stream and a day-by-day balance ledger.
package engine

import (
	"fmt"
	"strings"

	"cloud.google.com/go/civil"
	"github.com/shopspring/decimal"

	"github.com/jamesfulford/cashflow-projector/internal/common"
	"github.com/jamesfulford/cashflow-projector/internal/model"
	"github.com/jamesfulford/cashflow-projector/internal/recurrence"
)

// RuleDefinition is a rule as supplied by the caller, before validation.
type RuleDefinition struct {
	ID      string
	Name    string
	Pattern string
	Value   string
	Labels  []string
}

// Rule is a validated recurring rule.
type Rule struct {
	pattern    recurrence.Pattern
	ID         string
	Name       string
	Expression string
	Value      decimal.Decimal
	Labels     []string
}

// Pattern returns the parsed recurrence pattern.
func (r Rule) Pattern() recurrence.Pattern {
	return r.pattern
}

// RuleSet is an ordered collection of rules. Input order is kept because it
// breaks ties between occurrences on the same day.
type RuleSet struct {
	parser recurrence.Parser
	defs   []RuleDefinition
	rules  []Rule
	anchor civil.Date
}

// RuleSetOption configures a RuleSet.
type RuleSetOption func(*RuleSet)

// WithParser replaces the recurrence engine used to parse expressions.
func WithParser(p recurrence.Parser) RuleSetOption {
	return func(rs *RuleSet) {
		rs.parser = p
	}
}

// NewRuleSet validates defs and returns them as an ordered RuleSet.
// Expressions without a DTSTART are anchored at anchor.
func NewRuleSet(defs []RuleDefinition, anchor civil.Date, opts ...RuleSetOption) (RuleSet, error) {
	rs := RuleSet{
		parser: recurrence.RRuleParser{},
		defs:   append([]RuleDefinition(nil), defs...),
		anchor: anchor,
	}
	for _, opt := range opts {
		opt(&rs)
	}

	rules, err := rs.build()
	if err != nil {
		return RuleSet{}, err
	}
	rs.rules = rules
	return rs, nil
}

// Validate re-checks every definition. A single bad rule fails the whole set.
func (rs RuleSet) Validate() error {
	_, err := rs.build()
	return err
}

func (rs RuleSet) build() ([]Rule, error) {
	if rs.parser == nil && len(rs.defs) > 0 {
		return nil, fmt.Errorf("%w: no recurrence parser configured", common.ErrInvalidRule)
	}

	rules := make([]Rule, 0, len(rs.defs))
	seen := make(map[string]int, len(rs.defs))

	for i, def := range rs.defs {
		id := strings.TrimSpace(def.ID)
		if id == "" {
			return nil, fmt.Errorf("%w: rule %d has no id", common.ErrInvalidRule, i)
		}
		if prev, ok := seen[id]; ok {
			return nil, fmt.Errorf("%w: rule %d duplicates id %q of rule %d", common.ErrInvalidRule, i, id, prev)
		}
		seen[id] = i

		if strings.TrimSpace(def.Value) == "" {
			return nil, fmt.Errorf("%w: rule %q has no value", common.ErrInvalidRule, id)
		}
		value, err := model.ParseMoney(def.Value)
		if err != nil {
			return nil, fmt.Errorf("%w: rule %q value: %v", common.ErrInvalidRule, id, err)
		}

		pattern, err := rs.parser.Parse(def.Pattern, rs.anchor)
		if err != nil {
			// Keep both sentinels matchable.
			return nil, fmt.Errorf("%w: rule %q: %w", common.ErrInvalidRule, id, err)
		}

		rules = append(rules, Rule{
			ID:         id,
			Name:       def.Name,
			Expression: def.Pattern,
			Value:      value,
			Labels:     append([]string(nil), def.Labels...),
			pattern:    pattern,
		})
	}
	return rules, nil
}

// Rules returns the rules in input order.
func (rs RuleSet) Rules() []Rule {
	return append([]Rule(nil), rs.rules...)
}

// Len returns the number of rules.
func (rs RuleSet) Len() int {
	return len(rs.rules)
}

// Lookup returns the rule with the given id.
func (rs RuleSet) Lookup(id string) (Rule, bool) {
	for _, r := range rs.rules {
		if r.ID == id {
			return r, true
		}
	}
	return Rule{}, false
}
