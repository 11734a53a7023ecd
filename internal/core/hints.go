package core

import (
	"sort"

	"github.com/texttheater/golang-levenshtein/levenshtein"
)

// DefaultHintDistance is the largest edit distance suggested as a likely typo.
const DefaultHintDistance = 2

const maxHints = 3

// editOptions counts a substitution as one edit, like an insertion or deletion.
var editOptions = levenshtein.Options{
	InsCost: 1,
	DelCost: 1,
	SubCost: 1,
	Matches: levenshtein.IdenticalRunes,
}

// AttachHints suggests, for every entry absent on one side, the
// identifiers absent on the other side that are within maxDistance edits.
// Hints are informational and never change a status.
func AttachHints(results []Classification, maxDistance int) {
	if maxDistance <= 0 {
		return
	}

	var onlyTimesheet, onlyPayroll []string
	for _, cl := range results {
		switch cl.Status {
		case StatusAbsentInPayroll:
			onlyTimesheet = append(onlyTimesheet, cl.Entry.ID)
		case StatusAbsentInTimesheet:
			onlyPayroll = append(onlyPayroll, cl.Entry.ID)
		}
	}
	if len(onlyTimesheet) == 0 || len(onlyPayroll) == 0 {
		return
	}

	for i := range results {
		switch results[i].Status {
		case StatusAbsentInPayroll:
			results[i].Hints = nearest(results[i].Entry.ID, onlyPayroll, maxDistance)
		case StatusAbsentInTimesheet:
			results[i].Hints = nearest(results[i].Entry.ID, onlyTimesheet, maxDistance)
		}
	}
}

func nearest(id string, candidates []string, maxDistance int) []string {
	type scored struct {
		id   string
		dist int
	}

	src := []rune(id)
	// Short identifiers are too close to everything to hint on.
	limit := min(maxDistance, len(src)/3)

	var found []scored
	for _, c := range candidates {
		d := levenshtein.DistanceForStrings(src, []rune(c), editOptions)
		if d > 0 && d <= limit {
			found = append(found, scored{id: c, dist: d})
		}
	}
	sort.Slice(found, func(i, j int) bool {
		if found[i].dist != found[j].dist {
			return found[i].dist < found[j].dist
		}
		return found[i].id < found[j].id
	})

	var out []string
	for i := 0; i < len(found) && i < maxHints; i++ {
		out = append(out, found[i].id)
	}
	return out
}
