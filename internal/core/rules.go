package core

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Status is the primary classification of one employee.
type Status string

const (
	StatusCorrect           Status = "Correct"
	StatusInconsistent      Status = "Inconsistent"
	StatusAbsentInTimesheet Status = "Employee absent in timesheet"
	StatusAbsentInPayroll   Status = "Employee absent in payroll"
)

// AbsentIn returns the absence status for a missing source.
func AbsentIn(s Source) Status {
	if s == SourcePayroll {
		return StatusAbsentInPayroll
	}
	return StatusAbsentInTimesheet
}

// IsAbsence reports whether s is one of the absence statuses.
func (s Status) IsAbsence() bool {
	return s == StatusAbsentInTimesheet || s == StatusAbsentInPayroll
}

// ValidationStatus is the outcome of a contribution or tenure check.
type ValidationStatus string

const (
	ValidationValid          ValidationStatus = "Valid"
	ValidationNotDeclared    ValidationStatus = "Employee not declared"
	ValidationContractEnding ValidationStatus = "Contract ending"
	ValidationNotVerified    ValidationStatus = "Not verified"
)

// Comparison classifies one numeric field pair.
type Comparison int

const (
	BothAbsent Comparison = iota
	BothMatch
	Mismatch
	PresentOnlyLeft
	PresentOnlyRight
)

func (c Comparison) String() string {
	switch c {
	case BothMatch:
		return "both_match"
	case Mismatch:
		return "mismatch"
	case PresentOnlyLeft:
		return "present_only_timesheet"
	case PresentOnlyRight:
		return "present_only_payroll"
	default:
		return "both_absent"
	}
}

// MarshalText encodes the comparison by name.
func (c Comparison) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

// UnmarshalText decodes a comparison name written by MarshalText.
func (c *Comparison) UnmarshalText(text []byte) error {
	for _, v := range []Comparison{BothAbsent, BothMatch, Mismatch, PresentOnlyLeft, PresentOnlyRight} {
		if v.String() == string(text) {
			*c = v
			return nil
		}
	}
	return fmt.Errorf("unknown comparison %q", text)
}

// Field names a compared category.
type Field string

const (
	FieldOvertime25       Field = "overtime_25"
	FieldOvertime50       Field = "overtime_50"
	FieldHoliday          Field = "holiday"
	FieldTransport        Field = "transport"
	FieldOvertime25Amount Field = "overtime_25_amount"
	FieldOvertime50Amount Field = "overtime_50_amount"
	FieldRate             Field = "rate"
)

// FieldComparison is the outcome of one field rule.
// Cross-source rules set Timesheet and Payroll; payroll-only derived
// rules set Expected and Recorded.
type FieldComparison struct {
	Field     Field
	Timesheet *decimal.Decimal
	Payroll   *decimal.Decimal
	Expected  *decimal.Decimal
	Recorded  *decimal.Decimal
	Outcome   Comparison
	Status    Status
	Message   string
}

// Inconsistent reports whether the field rule flagged a problem.
func (f FieldComparison) Inconsistent() bool {
	return f.Status == StatusInconsistent
}

// ContributionCheck validates statutory health and social-security amounts.
type ContributionCheck struct {
	Health         decimal.Decimal
	SocialSecurity decimal.Decimal
	Status         ValidationStatus
}

// TenureCheck validates elapsed time since hire.
type TenureCheck struct {
	HireDate    time.Time
	HasHireDate bool
	Months      float64
	Status      ValidationStatus
}

// Classification is the rule engine's verdict on one entry.
type Classification struct {
	Entry        ReconciledEntry
	Status       Status
	HoursWorked  *decimal.Decimal
	HoursPaid    *decimal.Decimal
	Delta        decimal.Decimal
	Bonus        decimal.Decimal
	Forgiven     bool
	Messages     []string
	Fields       []FieldComparison
	Contribution *ContributionCheck
	Tenure       *TenureCheck
	Hints        []string
}

// Classifier applies the ordered business rules to reconciled entries.
// It holds only immutable inputs and is safe for concurrent use.
type Classifier struct {
	policy  Policy
	epsilon decimal.Decimal
	bound   map[Source]map[ColumnRole]bool
	now     time.Time
}

// NewClassifier creates a classifier for two resolved column bindings.
// now is the processing date used by the tenure rule.
func NewClassifier(policy Policy, timesheet, payroll ColumnBinding, now time.Time) *Classifier {
	if policy.Epsilon <= 0 {
		policy.Epsilon = DefaultEpsilon
	}
	if policy.Tier25Multiplier <= 0 {
		policy.Tier25Multiplier = DefaultTier25Multiplier
	}
	if policy.Tier50Multiplier <= 0 {
		policy.Tier50Multiplier = DefaultTier50Multiplier
	}
	if policy.TenureMonthsLimit <= 0 {
		policy.TenureMonthsLimit = DefaultTenureMonthsLimit
	}

	c := &Classifier{
		policy:  policy,
		epsilon: policy.epsilon(),
		bound:   map[Source]map[ColumnRole]bool{SourceTimesheet: {}, SourcePayroll: {}},
		now:     truncateDay(now),
	}
	for role := range timesheet.Columns {
		c.bound[SourceTimesheet][role] = true
	}
	for role := range payroll.Columns {
		c.bound[SourcePayroll][role] = true
	}
	return c
}

func (c *Classifier) isBound(s Source, role ColumnRole) bool {
	return c.bound[s][role]
}

// Classify runs the rules in order: absence, hours, overtime tiers,
// holiday, transport, derived overtime amounts, rate consistency, then the
// contribution and tenure validations.
func (c *Classifier) Classify(e ReconciledEntry) Classification {
	cl := Classification{Entry: e, Status: StatusCorrect}

	switch {
	case e.Timesheet == nil:
		cl.Status = AbsentIn(SourceTimesheet)
	case e.Payroll == nil:
		cl.Status = AbsentIn(SourcePayroll)
	default:
		c.classifyHours(&cl)
		for _, fr := range c.fieldRules() {
			if fc, ok := fr(e); ok {
				cl.Fields = append(cl.Fields, fc)
				if fc.Inconsistent() {
					cl.Messages = append(cl.Messages, fc.Message)
					cl.escalate()
				}
			}
		}
	}

	cl.Contribution = c.checkContribution(e)
	cl.Tenure = c.checkTenure(e)

	if c.policy.ValidationsAffectStatus {
		if cl.Contribution != nil && cl.Contribution.Status != ValidationValid {
			cl.Messages = append(cl.Messages, string(cl.Contribution.Status))
			cl.escalate()
		}
		if cl.Tenure != nil && cl.Tenure.Status == ValidationContractEnding {
			cl.Messages = append(cl.Messages, string(cl.Tenure.Status))
			cl.escalate()
		}
	}
	return cl
}

// escalate moves Correct to Inconsistent and never overrides absence.
func (cl *Classification) escalate() {
	if cl.Status == StatusCorrect {
		cl.Status = StatusInconsistent
	}
}

func (c *Classifier) classifyHours(cl *Classification) {
	e := cl.Entry
	if !c.isBound(SourceTimesheet, RoleHoursWorked) || !c.isBound(SourcePayroll, RoleHoursWorked) {
		return
	}

	worked, _ := e.Timesheet.Number(RoleHoursWorked)
	paid, _ := e.Payroll.Number(RoleHoursWorked)
	if c.policy.WeightedPaidHours {
		paid = paid.Add(c.weightedOvertime(e.Payroll))
	}
	cl.HoursWorked = &worked
	cl.HoursPaid = &paid

	cl.Delta = worked.Sub(paid)
	if cl.Delta.Abs().LessThanOrEqual(c.epsilon) {
		return
	}
	if cl.Delta.IsPositive() {
		cl.Bonus = cl.Delta
	}

	cl.Status = StatusInconsistent
	cl.Messages = append(cl.Messages, fmt.Sprintf("Timesheet hours: %s Payroll hours: %s Difference of %s hours",
		worked.StringFixed(2), paid.StringFixed(2), cl.Delta.Abs().StringFixed(2)))

	if c.policy.BonusForgiveness && cl.Bonus.Sub(cl.Delta).Abs().LessThanOrEqual(c.epsilon) {
		cl.Status = StatusCorrect
		cl.Forgiven = true
	}
}

func (c *Classifier) weightedOvertime(pr *EmployeeRecord) decimal.Decimal {
	ot25, _ := pr.Number(RoleOvertime25)
	ot50, _ := pr.Number(RoleOvertime50)
	return ot25.Mul(decimal.NewFromFloat(c.policy.Tier25Multiplier)).
		Add(ot50.Mul(decimal.NewFromFloat(c.policy.Tier50Multiplier)))
}

type fieldRule func(ReconciledEntry) (FieldComparison, bool)

func (c *Classifier) fieldRules() []fieldRule {
	var rules []fieldRule
	for _, tier := range []struct {
		field Field
		role  ColumnRole
	}{
		{FieldOvertime25, RoleOvertime25},
		{FieldOvertime50, RoleOvertime50},
	} {
		// Payroll-only tiers are already folded into weighted paid hours.
		if c.policy.WeightedPaidHours && !c.isBound(SourceTimesheet, tier.role) {
			continue
		}
		rules = append(rules, c.crossSource(tier.field, tier.role))
	}
	return append(rules,
		c.crossSource(FieldHoliday, RoleHolidayHours),
		c.crossSource(FieldTransport, RoleTransportAllowance),
		c.overtimeAmount(FieldOvertime25Amount, RoleOvertime25, RoleOvertime25Amount, c.policy.Tier25Multiplier),
		c.overtimeAmount(FieldOvertime50Amount, RoleOvertime50, RoleOvertime50Amount, c.policy.Tier50Multiplier),
		c.rateConsistency,
	)
}

// crossSource compares one role across both sources with three states:
// both present, or present on one side only. A one-sided value is only an
// inconsistency when it exceeds epsilon.
func (c *Classifier) crossSource(field Field, role ColumnRole) fieldRule {
	return func(e ReconciledEntry) (FieldComparison, bool) {
		tsBound := c.isBound(SourceTimesheet, role)
		prBound := c.isBound(SourcePayroll, role)
		fc := FieldComparison{Field: field, Status: StatusCorrect}
		label := role.Label()

		switch {
		case tsBound && prBound:
			ts, _ := e.Timesheet.Number(role)
			pr, _ := e.Payroll.Number(role)
			fc.Timesheet, fc.Payroll = &ts, &pr
			fc.Outcome = BothMatch
			if d := ts.Sub(pr).Abs(); d.GreaterThan(c.epsilon) {
				fc.Outcome = Mismatch
				fc.Status = StatusInconsistent
				fc.Message = fmt.Sprintf("%s: timesheet %s, payroll %s, difference of %s",
					label, ts.StringFixed(2), pr.StringFixed(2), d.StringFixed(2))
			}
		case tsBound:
			ts, _ := e.Timesheet.Number(role)
			fc.Timesheet = &ts
			fc.Outcome = PresentOnlyLeft
			if ts.GreaterThan(c.epsilon) {
				fc.Status = StatusInconsistent
				fc.Message = fmt.Sprintf("%s in timesheet (%s) but absent in payroll", label, ts.StringFixed(2))
			}
		case prBound:
			pr, _ := e.Payroll.Number(role)
			fc.Payroll = &pr
			fc.Outcome = PresentOnlyRight
			if pr.GreaterThan(c.epsilon) {
				fc.Status = StatusInconsistent
				fc.Message = fmt.Sprintf("%s in payroll (%s) but absent in timesheet", label, pr.StringFixed(2))
			}
		default:
			return fc, false
		}
		return fc, true
	}
}

// overtimeAmount checks a payroll overtime amount against tier hours
// times the hourly rate times the tier multiplier.
func (c *Classifier) overtimeAmount(field Field, hoursRole, amountRole ColumnRole, multiplier float64) fieldRule {
	return func(e ReconciledEntry) (FieldComparison, bool) {
		for _, role := range []ColumnRole{hoursRole, amountRole, RoleHourlyRate} {
			if !c.isBound(SourcePayroll, role) {
				return FieldComparison{}, false
			}
		}
		hours, _ := e.Payroll.Number(hoursRole)
		rate, _ := e.Payroll.Number(RoleHourlyRate)
		recorded, _ := e.Payroll.Number(amountRole)
		expected := hours.Mul(rate).Mul(decimal.NewFromFloat(multiplier)).Round(2)

		fc := FieldComparison{
			Field:    field,
			Expected: &expected,
			Recorded: &recorded,
			Outcome:  BothMatch,
			Status:   StatusCorrect,
		}
		if d := expected.Sub(recorded).Abs(); d.GreaterThan(c.epsilon) {
			fc.Outcome = Mismatch
			fc.Status = StatusInconsistent
			fc.Message = fmt.Sprintf("%s: expected %s, recorded %s",
				amountRole.Label(), expected.StringFixed(2), recorded.StringFixed(2))
		}
		return fc, true
	}
}

// rateConsistency checks the payroll hourly rate against the base salary field.
func (c *Classifier) rateConsistency(e ReconciledEntry) (FieldComparison, bool) {
	if !c.isBound(SourcePayroll, RoleHourlyRate) || !c.isBound(SourcePayroll, RoleBaseSalary) {
		return FieldComparison{}, false
	}
	rate, _ := e.Payroll.Number(RoleHourlyRate)
	base, _ := e.Payroll.Number(RoleBaseSalary)

	fc := FieldComparison{
		Field:    FieldRate,
		Expected: &base,
		Recorded: &rate,
		Outcome:  BothMatch,
		Status:   StatusCorrect,
	}
	if d := rate.Sub(base).Abs(); d.GreaterThan(c.epsilon) {
		fc.Outcome = Mismatch
		fc.Status = StatusInconsistent
		fc.Message = fmt.Sprintf("Hourly rate %s differs from base salary %s",
			rate.StringFixed(2), base.StringFixed(2))
	}
	return fc, true
}

// validationRecord picks the record carrying roles, preferring payroll.
// Returns nil when no present record binds any of them.
func (c *Classifier) validationRecord(e ReconciledEntry, roles ...ColumnRole) *EmployeeRecord {
	for _, s := range []Source{SourcePayroll, SourceTimesheet} {
		for _, role := range roles {
			if c.isBound(s, role) {
				return e.Side(s)
			}
		}
	}
	return nil
}

func (c *Classifier) checkContribution(e ReconciledEntry) *ContributionCheck {
	rec := c.validationRecord(e, RoleHealthContribution, RoleSocialSecurityContribution)
	if rec == nil {
		return nil
	}
	health, hasHealth := rec.Number(RoleHealthContribution)
	social, hasSocial := rec.Number(RoleSocialSecurityContribution)

	check := &ContributionCheck{Health: health, SocialSecurity: social, Status: ValidationNotDeclared}
	if hasHealth && hasSocial && health.IsPositive() && social.IsPositive() {
		check.Status = ValidationValid
	}
	return check
}

func (c *Classifier) checkTenure(e ReconciledEntry) *TenureCheck {
	rec := c.validationRecord(e, RoleHireDate)
	if rec == nil {
		return nil
	}
	hired, ok := rec.Date(RoleHireDate)
	if !ok {
		return &TenureCheck{Status: ValidationNotVerified}
	}

	days := int(c.now.Sub(truncateDay(hired)).Hours() / 24)
	months := float64(days) / 30
	check := &TenureCheck{HireDate: hired, HasHireDate: true, Months: months, Status: ValidationValid}
	if months > c.policy.TenureMonthsLimit {
		check.Status = ValidationContractEnding
	}
	return check
}
