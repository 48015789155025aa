// Package catalog holds the read-only filing policy lookup. Policies are
// loaded once from a YAML file maintained by administrators; anything
// malformed is rejected at load time, before event generation can use it.
package catalog

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"go.yaml.in/yaml/v3"

	"comply/pkg/domain"
	"comply/pkg/platform/sentinel"
)

// ErrConfiguration marks a requirement whose declared due date type is missing
// the field it needs. Callers skip the affected (state, entityType) pair and
// keep processing others.
var ErrConfiguration = errors.New("requirement configuration error")

// Catalog is an immutable lookup of active requirements keyed by
// (state, entityType). Safe for concurrent readers.
type Catalog struct {
	byKey map[string]*Requirement
}

type fileFormat struct {
	Requirements []requirementYAML `yaml:"requirements"`
}

type requirementYAML struct {
	State                 string `yaml:"state"`
	EntityType            string `yaml:"entity_type"`
	ObligationType        string `yaml:"obligation_type"`
	DueDateType           string `yaml:"due_date_type"`
	FixedDueDate          string `yaml:"fixed_due_date,omitempty"`
	DueDateOffsetDays     *int   `yaml:"due_date_offset_days,omitempty"`
	GracePeriodDays       int    `yaml:"grace_period_days"`
	FilingFeeCents        int64  `yaml:"filing_fee_cents"`
	LateFeeCents          int64  `yaml:"late_fee_cents"`
	DissolutionThreatDays int    `yaml:"dissolution_threat_days"`
	Frequency             string `yaml:"frequency"`
	FilingLink            string `yaml:"filing_link,omitempty"`
	Active                bool   `yaml:"active"`
}

// Load reads and validates a catalog file.
func Load(path string) (*Catalog, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog file: %w", err)
	}
	return Parse(raw)
}

// Parse validates raw YAML catalog content. Inactive entries are dropped.
// Two active requirements sharing a (state, entityType) key is a
// data-integrity fault and fails the whole load.
func Parse(raw []byte) (*Catalog, error) {
	var file fileFormat
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return nil, fmt.Errorf("parse catalog yaml: %w", err)
	}

	byKey := make(map[string]*Requirement, len(file.Requirements))
	for i, entry := range file.Requirements {
		if !entry.Active {
			continue
		}
		req, err := entry.toRequirement()
		if err != nil {
			return nil, fmt.Errorf("catalog entry %d (%s/%s): %w", i, entry.State, entry.EntityType, err)
		}
		if _, dup := byKey[req.Key()]; dup {
			return nil, fmt.Errorf("catalog entry %d: duplicate active requirement for (%s, %s)",
				i, req.State, req.EntityType)
		}
		byKey[req.Key()] = req
	}

	return &Catalog{byKey: byKey}, nil
}

func (e requirementYAML) toRequirement() (*Requirement, error) {
	if e.State == "" || e.EntityType == "" || e.ObligationType == "" {
		return nil, fmt.Errorf("state, entity_type and obligation_type are required")
	}

	dueType := DueDateType(e.DueDateType)
	if !dueType.IsValid() {
		return nil, fmt.Errorf("unknown due_date_type %q", e.DueDateType)
	}

	freq, err := domain.ParseFrequency(e.Frequency)
	if err != nil {
		return nil, err
	}

	req := &Requirement{
		State:                 strings.ToUpper(e.State),
		EntityType:            strings.ToLower(e.EntityType),
		ObligationType:        e.ObligationType,
		DueDateType:           dueType,
		DueDateOffsetDays:     e.DueDateOffsetDays,
		GracePeriodDays:       e.GracePeriodDays,
		FilingFeeCents:        e.FilingFeeCents,
		LateFeeCents:          e.LateFeeCents,
		DissolutionThreatDays: e.DissolutionThreatDays,
		Frequency:             freq,
		FilingLink:            e.FilingLink,
		IsActive:              true,
	}

	if e.FixedDueDate != "" {
		md, err := ParseMonthDay(e.FixedDueDate)
		if err != nil {
			return nil, err
		}
		req.FixedDueDate = &md
	}

	return req, nil
}

// Get looks up the active requirement for a (state, entityType) pair.
// Errors: sentinel.ErrNotFound when no active requirement exists.
func (c *Catalog) Get(state, entityType string) (*Requirement, error) {
	req, ok := c.byKey[catalogKey(state, entityType)]
	if !ok {
		return nil, fmt.Errorf("requirement for (%s, %s): %w", state, entityType, sentinel.ErrNotFound)
	}
	return req, nil
}

// Len reports how many active requirements are loaded.
func (c *Catalog) Len() int { return len(c.byKey) }

func catalogKey(state, entityType string) string {
	return strings.ToUpper(state) + "/" + strings.ToLower(entityType)
}
