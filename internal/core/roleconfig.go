package core

import (
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/shopspring/decimal"
)

// Defaults applied by RoleConfig.WithDefaults.
const (
	DefaultEpsilon           = 0.01
	DefaultScanRows          = 30
	MaxScanRows              = 100
	DefaultTier25Multiplier  = 1.25
	DefaultTier50Multiplier  = 1.50
	DefaultTenureMonthsLimit = 5
)

// DefaultNullTokens are identifier values treated as missing.
var DefaultNullTokens = []string{"", "NAN", "N/A"}

// AliasSeparator joins the terms of a conjunctive alias: "JRS & HRS"
// matches a column only when both terms occur in it.
const AliasSeparator = "&"

// RoleSpec declares how one role is discovered in a source.
type RoleSpec struct {
	Role     ColumnRole `yaml:"role" json:"role"`
	Required bool       `yaml:"required" json:"required"`
	Aliases  []string   `yaml:"aliases" json:"aliases"`
	Exclude  []string   `yaml:"exclude,omitempty" json:"exclude,omitempty"`
	Pattern  string     `yaml:"pattern,omitempty" json:"pattern,omitempty"`
}

// SourceConfig holds the header terms and role specs of one export.
// When HeaderTerms is empty, every required role's aliases form one group.
type SourceConfig struct {
	Label       string     `yaml:"label" json:"label"`
	HeaderTerms [][]string `yaml:"header_terms,omitempty" json:"headerTerms,omitempty"`
	Roles       []RoleSpec `yaml:"roles" json:"roles"`
}

// Spec returns the role spec for role.
func (s SourceConfig) Spec(role ColumnRole) (RoleSpec, bool) {
	for _, rs := range s.Roles {
		if rs.Role == role {
			return rs, true
		}
	}
	return RoleSpec{}, false
}

// HeaderGroups returns the alias groups a header row must satisfy.
func (s SourceConfig) HeaderGroups() [][]string {
	if len(s.HeaderTerms) > 0 {
		return s.HeaderTerms
	}
	var groups [][]string
	for _, rs := range s.Roles {
		if rs.Required && len(rs.Aliases) > 0 {
			groups = append(groups, rs.Aliases)
		}
	}
	return groups
}

// Policy switches deployment-specific rule behavior.
type Policy struct {
	Epsilon float64 `yaml:"epsilon" json:"epsilon"`

	// BonusForgiveness reclassifies an hours mismatch as Correct when the
	// bonus fully explains the delta.
	BonusForgiveness bool `yaml:"bonus_forgiveness" json:"bonusForgiveness"`

	// WeightedPaidHours adds weighted overtime to paid hours before the
	// hours comparison.
	WeightedPaidHours bool `yaml:"weighted_paid_hours" json:"weightedPaidHours"`

	Tier25Multiplier  float64 `yaml:"tier25_multiplier" json:"tier25Multiplier"`
	Tier50Multiplier  float64 `yaml:"tier50_multiplier" json:"tier50Multiplier"`
	TenureMonthsLimit float64 `yaml:"tenure_months_limit" json:"tenureMonthsLimit"`

	// ValidationsAffectStatus lets failed contribution and tenure checks
	// escalate a Correct primary status.
	ValidationsAffectStatus bool `yaml:"validations_affect_status" json:"validationsAffectStatus"`
}

func (p Policy) epsilon() decimal.Decimal {
	return decimal.NewFromFloat(p.Epsilon)
}

// RoleConfig is the declarative description of one deployment ("profile").
type RoleConfig struct {
	Key          string       `yaml:"key" json:"key"`
	Group        string       `yaml:"group,omitempty" json:"group,omitempty"`
	Label        string       `yaml:"label" json:"label"`
	Description  string       `yaml:"description,omitempty" json:"description,omitempty"`
	Timesheet    SourceConfig `yaml:"timesheet" json:"timesheet"`
	Payroll      SourceConfig `yaml:"payroll" json:"payroll"`
	Policy       Policy       `yaml:"policy" json:"policy"`
	NullTokens   []string     `yaml:"null_tokens,omitempty" json:"nullTokens,omitempty"`
	DecimalComma bool         `yaml:"decimal_comma" json:"decimalComma"`
	ScanRows     int          `yaml:"scan_rows,omitempty" json:"scanRows,omitempty"`
}

// Source returns the config of one side.
func (c RoleConfig) Source(s Source) SourceConfig {
	if s == SourcePayroll {
		return c.Payroll
	}
	return c.Timesheet
}

// WithDefaults returns a copy with zero-valued settings replaced by defaults.
func (c RoleConfig) WithDefaults() RoleConfig {
	if c.Policy.Epsilon <= 0 {
		c.Policy.Epsilon = DefaultEpsilon
	}
	if c.Policy.Tier25Multiplier <= 0 {
		c.Policy.Tier25Multiplier = DefaultTier25Multiplier
	}
	if c.Policy.Tier50Multiplier <= 0 {
		c.Policy.Tier50Multiplier = DefaultTier50Multiplier
	}
	if c.Policy.TenureMonthsLimit <= 0 {
		c.Policy.TenureMonthsLimit = DefaultTenureMonthsLimit
	}
	if c.NullTokens == nil {
		c.NullTokens = DefaultNullTokens
	}
	if c.ScanRows <= 0 {
		c.ScanRows = DefaultScanRows
	}
	if c.ScanRows > MaxScanRows {
		c.ScanRows = MaxScanRows
	}
	if c.Timesheet.Label == "" {
		c.Timesheet.Label = "Timesheet"
	}
	if c.Payroll.Label == "" {
		c.Payroll.Label = "Payroll"
	}
	return c
}

// ErrInvalidProfile is wrapped by RoleConfig.Validate failures.
var ErrInvalidProfile = errors.New("invalid profile")

// Validate checks the config is usable by the engine.
// Returns an error describing all problems found.
func (c RoleConfig) Validate() error {
	var errs []string

	if strings.TrimSpace(c.Key) == "" {
		errs = append(errs, "key is required")
	}
	for _, src := range []Source{SourceTimesheet, SourcePayroll} {
		sc := c.Source(src)
		id, ok := sc.Spec(RoleEmployeeID)
		if !ok {
			errs = append(errs, fmt.Sprintf("%s: employee_id role is required", src))
		} else if !id.Required {
			errs = append(errs, fmt.Sprintf("%s: employee_id must be required", src))
		}
		seen := make(map[ColumnRole]bool)
		for _, rs := range sc.Roles {
			if !rs.Role.Valid() {
				errs = append(errs, fmt.Sprintf("%s: unknown role %q", src, rs.Role))
				continue
			}
			if seen[rs.Role] {
				errs = append(errs, fmt.Sprintf("%s: role %s declared twice", src, rs.Role))
			}
			seen[rs.Role] = true
			if len(rs.Aliases) == 0 {
				errs = append(errs, fmt.Sprintf("%s: role %s has no aliases", src, rs.Role))
			}
			if rs.Pattern != "" {
				if _, err := regexp.Compile(rs.Pattern); err != nil {
					errs = append(errs, fmt.Sprintf("%s: role %s pattern: %v", src, rs.Role, err))
				}
			}
		}
		if len(sc.HeaderGroups()) == 0 {
			errs = append(errs, fmt.Sprintf("%s: no header terms", src))
		}
	}
	if c.ScanRows < 0 {
		errs = append(errs, "scan_rows must be non-negative")
	}

	if len(errs) > 0 {
		return fmt.Errorf("%w %q:\n  - %s", ErrInvalidProfile, c.Key, strings.Join(errs, "\n  - "))
	}
	return nil
}

// alias is one parsed alias: all terms must occur in a folded column name.
type alias struct {
	raw   string
	terms []string
}

func parseAlias(raw string) alias {
	a := alias{raw: raw}
	for _, t := range strings.Split(raw, AliasSeparator) {
		if t = foldHeader(t); t != "" {
			a.terms = append(a.terms, t)
		}
	}
	return a
}

func (a alias) matches(folded string) bool {
	if len(a.terms) == 0 {
		return false
	}
	for _, t := range a.terms {
		if !strings.Contains(folded, t) {
			return false
		}
	}
	return true
}

func (a alias) weight() int {
	n := 0
	for _, t := range a.terms {
		n += len(t)
	}
	return n
}

// orderedAliases parses aliases and orders them most specific first:
// more terms, then longer text. Declared order breaks ties.
func orderedAliases(raw []string) []alias {
	out := make([]alias, 0, len(raw))
	for _, r := range raw {
		out = append(out, parseAlias(r))
	}
	sort.SliceStable(out, func(i, j int) bool {
		if len(out[i].terms) != len(out[j].terms) {
			return len(out[i].terms) > len(out[j].terms)
		}
		return out[i].weight() > out[j].weight()
	})
	return out
}
