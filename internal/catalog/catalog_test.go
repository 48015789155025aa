package catalog

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"comply/pkg/domain"
	"comply/pkg/platform/sentinel"
)

type CatalogSuite struct {
	suite.Suite
}

func TestCatalogSuite(t *testing.T) {
	suite.Run(t, new(CatalogSuite))
}

const validCatalog = `
requirements:
  - state: DE
    entity_type: llc
    obligation_type: annual_franchise_tax
    due_date_type: fixed_date
    fixed_due_date: "06-01"
    filing_fee_cents: 30000
    late_fee_cents: 20000
    frequency: annual
    filing_link: https://corp.delaware.gov/paytaxes/
    active: true
  - state: CA
    entity_type: llc
    obligation_type: statement_of_information
    due_date_type: formation_based
    due_date_offset_days: 90
    grace_period_days: 60
    filing_fee_cents: 2000
    late_fee_cents: 25000
    dissolution_threat_days: 730
    frequency: biennial
    active: true
  - state: NV
    entity_type: llc
    obligation_type: state_business_license
    due_date_type: formation_based
    due_date_offset_days: 0
    frequency: annual
    active: false
`

func (s *CatalogSuite) TestParse() {
	s.Run("loads active requirements", func() {
		cat, err := Parse([]byte(validCatalog))
		s.Require().NoError(err)
		s.Equal(2, cat.Len())

		req, err := cat.Get("DE", "llc")
		s.Require().NoError(err)
		s.Equal("annual_franchise_tax", req.ObligationType)
		s.Equal(DueDateFixed, req.DueDateType)
		s.Require().NotNil(req.FixedDueDate)
		s.Equal(time.June, req.FixedDueDate.Month)
		s.Equal(1, req.FixedDueDate.Day)
		s.Equal(domain.FrequencyAnnual, req.Frequency)
		s.Equal(int64(30000), req.FilingFeeCents)
	})

	s.Run("drops inactive entries", func() {
		cat, err := Parse([]byte(validCatalog))
		s.Require().NoError(err)
		_, err = cat.Get("NV", "llc")
		s.ErrorIs(err, sentinel.ErrNotFound)
	})

	s.Run("lookup normalizes case", func() {
		cat, err := Parse([]byte(validCatalog))
		s.Require().NoError(err)
		req, err := cat.Get("de", "LLC")
		s.Require().NoError(err)
		s.Equal("DE", req.State)
		s.Equal("llc", req.EntityType)
	})

	s.Run("unknown pair returns not found", func() {
		cat, err := Parse([]byte(validCatalog))
		s.Require().NoError(err)
		_, err = cat.Get("WY", "llc")
		s.ErrorIs(err, sentinel.ErrNotFound)
	})
}

func (s *CatalogSuite) TestParseRejects() {
	s.Run("duplicate active pair", func() {
		_, err := Parse([]byte(`
requirements:
  - state: DE
    entity_type: llc
    obligation_type: annual_franchise_tax
    due_date_type: fixed_date
    fixed_due_date: "06-01"
    frequency: annual
    active: true
  - state: de
    entity_type: LLC
    obligation_type: annual_report
    due_date_type: fixed_date
    fixed_due_date: "03-01"
    frequency: annual
    active: true
`))
		s.Require().Error(err)
		s.Contains(err.Error(), "duplicate active requirement")
	})

	s.Run("unknown frequency", func() {
		_, err := Parse([]byte(`
requirements:
  - state: TX
    entity_type: llc
    obligation_type: franchise_tax_report
    due_date_type: fixed_date
    fixed_due_date: "05-15"
    frequency: weekly
    active: true
`))
		s.Error(err)
	})

	s.Run("unknown due date type", func() {
		_, err := Parse([]byte(`
requirements:
  - state: TX
    entity_type: llc
    obligation_type: franchise_tax_report
    due_date_type: lunar
    frequency: annual
    active: true
`))
		s.Require().Error(err)
		s.Contains(err.Error(), "due_date_type")
	})

	s.Run("missing identity fields", func() {
		_, err := Parse([]byte(`
requirements:
  - state: TX
    due_date_type: fixed_date
    fixed_due_date: "05-15"
    frequency: annual
    active: true
`))
		s.Error(err)
	})

	s.Run("malformed yaml", func() {
		_, err := Parse([]byte("requirements: ["))
		s.Error(err)
	})

	s.Run("impossible fixed date", func() {
		_, err := Parse([]byte(`
requirements:
  - state: TX
    entity_type: llc
    obligation_type: franchise_tax_report
    due_date_type: fixed_date
    fixed_due_date: "02-30"
    frequency: annual
    active: true
`))
		s.Error(err)
	})
}

func (s *CatalogSuite) TestParseMonthDay() {
	s.Run("accepts leap day", func() {
		md, err := ParseMonthDay("02-29")
		s.Require().NoError(err)
		s.Equal(time.February, md.Month)
		s.Equal(29, md.Day)
	})

	s.Run("rejects out of range", func() {
		for _, in := range []string{"00-10", "13-01", "04-31", "02-30", "6-1", "june-1", ""} {
			_, err := ParseMonthDay(in)
			s.Error(err, in)
		}
	})

	s.Run("anchors in a year", func() {
		md, err := ParseMonthDay("06-01")
		s.Require().NoError(err)
		s.Equal(time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC), md.In(2024))
	})
}

func (s *CatalogSuite) TestLoad() {
	s.Run("reads a file from disk", func() {
		path := filepath.Join(s.T().TempDir(), "requirements.yaml")
		s.Require().NoError(os.WriteFile(path, []byte(validCatalog), 0o600))

		cat, err := Load(path)
		s.Require().NoError(err)
		s.Equal(2, cat.Len())
	})

	s.Run("missing file fails", func() {
		_, err := Load(filepath.Join(s.T().TempDir(), "absent.yaml"))
		s.Error(err)
	})
}
