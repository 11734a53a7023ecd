package core

// ColumnRole tags a semantic field of a payroll or timesheet export.
type ColumnRole string

const (
	RoleEmployeeID                 ColumnRole = "employee_id"
	RoleEmployeeName               ColumnRole = "employee_name"
	RoleHoursWorked                ColumnRole = "hours_worked"
	RoleOvertime25                 ColumnRole = "overtime_25"
	RoleOvertime50                 ColumnRole = "overtime_50"
	RoleHolidayHours               ColumnRole = "holiday_hours"
	RoleTransportAllowance         ColumnRole = "transport_allowance"
	RoleHealthContribution         ColumnRole = "health_contribution"
	RoleSocialSecurityContribution ColumnRole = "social_security_contribution"
	RoleAdvancePayment             ColumnRole = "advance_payment"
	RoleNetPay                     ColumnRole = "net_pay"
	RoleHireDate                   ColumnRole = "hire_date"
	RoleHourlyRate                 ColumnRole = "hourly_rate"
	RoleBaseSalary                 ColumnRole = "base_salary"
	RoleOvertime25Amount           ColumnRole = "overtime_25_amount"
	RoleOvertime50Amount           ColumnRole = "overtime_50_amount"
)

// ValueKind is the type a role's cells are coerced to.
type ValueKind int

const (
	KindIdentifier ValueKind = iota
	KindText
	KindNumber
	KindDate
)

func (k ValueKind) String() string {
	switch k {
	case KindIdentifier:
		return "identifier"
	case KindText:
		return "text"
	case KindNumber:
		return "number"
	case KindDate:
		return "date"
	default:
		return "unknown"
	}
}

// roleKinds lists every known role in display order.
var roleKinds = []struct {
	role  ColumnRole
	kind  ValueKind
	label string
}{
	{RoleEmployeeID, KindIdentifier, "Employee ID"},
	{RoleEmployeeName, KindText, "Employee name"},
	{RoleHoursWorked, KindNumber, "Hours worked"},
	{RoleOvertime25, KindNumber, "Overtime 25%"},
	{RoleOvertime50, KindNumber, "Overtime 50%"},
	{RoleHolidayHours, KindNumber, "Holiday hours"},
	{RoleTransportAllowance, KindNumber, "Transport allowance"},
	{RoleHealthContribution, KindNumber, "Health contribution"},
	{RoleSocialSecurityContribution, KindNumber, "Social security contribution"},
	{RoleAdvancePayment, KindNumber, "Advance payment"},
	{RoleNetPay, KindNumber, "Net pay"},
	{RoleHireDate, KindDate, "Hire date"},
	{RoleHourlyRate, KindNumber, "Hourly rate"},
	{RoleBaseSalary, KindNumber, "Base salary"},
	{RoleOvertime25Amount, KindNumber, "Overtime 25% amount"},
	{RoleOvertime50Amount, KindNumber, "Overtime 50% amount"},
}

// Roles returns every known role in display order.
func Roles() []ColumnRole {
	out := make([]ColumnRole, len(roleKinds))
	for i, rk := range roleKinds {
		out[i] = rk.role
	}
	return out
}

// Valid reports whether r is a known role.
func (r ColumnRole) Valid() bool {
	for _, rk := range roleKinds {
		if rk.role == r {
			return true
		}
	}
	return false
}

// Kind returns the value kind of the role. Unknown roles are text.
func (r ColumnRole) Kind() ValueKind {
	for _, rk := range roleKinds {
		if rk.role == r {
			return rk.kind
		}
	}
	return KindText
}

// Label returns a display name for the role.
func (r ColumnRole) Label() string {
	for _, rk := range roleKinds {
		if rk.role == r {
			return rk.label
		}
	}
	return string(r)
}
