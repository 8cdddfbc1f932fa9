package reconcile

import "strings"

// Keywords recognised after the arrow, in priority order. The first one found
// anywhere in the remainder of the entry wins.
var actionKeywords = []string{"FOLD", "CHECK", "CALL", "RAISE", "ALL-IN"}

// LastAction returns the label of the most recent action by name in log.
//
// Entries are scanned newest first. The current format is
// "[phase] Name -> ACTION (amount)"; entries written before the arrow format
// existed look like "Name calls 20" and are read as the first word with a
// trailing "s" stripped, upper-cased. No match yields "".
func LastAction(name string, log []string) string {
	if name == "" {
		return ""
	}
	arrow := " " + name + " -> "
	legacy := name + " "
	for i := len(log) - 1; i >= 0; i-- {
		entry := log[i]
		if idx := strings.Index(entry, arrow); idx != -1 {
			return arrowAction(entry[idx+len(arrow):])
		}
		if strings.HasPrefix(entry, legacy) {
			return legacyAction(entry[len(legacy):])
		}
	}
	return ""
}

func arrowAction(rest string) string {
	for _, kw := range actionKeywords {
		if strings.Contains(rest, kw) {
			return kw
		}
	}
	first, _, _ := strings.Cut(rest, " ")
	return first
}

func legacyAction(rest string) string {
	first, _, _ := strings.Cut(rest, " ")
	return strings.ToUpper(strings.TrimSuffix(first, "s"))
}
