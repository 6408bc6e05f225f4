package analyzer

// marker is a lowercase substring that moves the heuristic score, in tenths
type marker struct {
	phrases []string // any one of these triggers the adjustment
	tenths  int
}

// scoreMarkers returns the phrase groups the fallback scorer looks for.
// Each group applies at most once; all matching groups stack.
func scoreMarkers() []marker {
	return []marker{
		{phrases: []string{"breaking", "shocking"}, tenths: -2},
		{phrases: []string{"they don't want you to know"}, tenths: -3},
		{phrases: []string{"!!!", "???"}, tenths: -1},
		{phrases: []string{"according to", "study shows"}, tenths: +1},
		{phrases: []string{"research", "data"}, tenths: +1},
	}
}

// redFlag pairs a lowercase phrase with the flag reported when it appears
type redFlag struct {
	phrase string
	flag   string
}

// getRedFlags returns the red-flag lexicon in reporting order
func getRedFlags() []redFlag {
	return []redFlag{
		{phrase: "breaking", flag: "Sensational language detected"},
		{phrase: "shocking", flag: "Emotional manipulation detected"},
		{phrase: "they don't want you to know", flag: "Conspiracy language detected"},
	}
}
