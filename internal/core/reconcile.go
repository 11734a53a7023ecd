package core

import "sort"

// Join performs a full outer join of the two aggregated record sets on
// exact identifier equality. Entries are ordered by identifier ascending.
// Both inputs must already be aggregated (unique identifiers).
func Join(timesheet, payroll []EmployeeRecord) []ReconciledEntry {
	byID := make(map[string]*ReconciledEntry, len(timesheet)+len(payroll))

	for i := range timesheet {
		rec := &timesheet[i]
		byID[rec.ID] = &ReconciledEntry{ID: rec.ID, Timesheet: rec}
	}
	for i := range payroll {
		rec := &payroll[i]
		if e, ok := byID[rec.ID]; ok {
			e.Payroll = rec
			continue
		}
		byID[rec.ID] = &ReconciledEntry{ID: rec.ID, Payroll: rec}
	}

	entries := make([]ReconciledEntry, 0, len(byID))
	for _, e := range byID {
		entries = append(entries, *e)
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].ID < entries[j].ID
	})
	return entries
}
