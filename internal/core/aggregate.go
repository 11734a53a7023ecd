package core

// MergeRecords folds b into a copy of a, where a precedes b in row order.
// Numeric fields are summed exactly, so merging is associative for them.
// Text and date fields keep the first non-empty value.
func MergeRecords(a, b EmployeeRecord) EmployeeRecord {
	out := EmployeeRecord{
		ID:     a.ID,
		Source: a.Source,
		Fields: make(map[ColumnRole]Value, len(a.Fields)),
		Rows:   a.Rows + b.Rows,
	}
	for role, v := range a.Fields {
		out.Fields[role] = v
	}

	for role, v := range b.Fields {
		cur, ok := out.Fields[role]
		if !ok {
			out.Fields[role] = v
			continue
		}
		switch v.Kind {
		case KindNumber:
			cur.Number = cur.Number.Add(v.Number)
			out.Fields[role] = cur
		case KindText, KindIdentifier:
			if cur.Text == "" {
				out.Fields[role] = v
			}
		}
	}
	return out
}

// Aggregate collapses records sharing an identifier into one record.
// Output order follows each identifier's first appearance.
func Aggregate(records []EmployeeRecord) []EmployeeRecord {
	index := make(map[string]int, len(records))
	out := make([]EmployeeRecord, 0, len(records))

	for _, rec := range records {
		if i, ok := index[rec.ID]; ok {
			out[i] = MergeRecords(out[i], rec)
			continue
		}
		index[rec.ID] = len(out)
		out = append(out, MergeRecords(EmployeeRecord{ID: rec.ID, Source: rec.Source}, rec))
	}
	return out
}
