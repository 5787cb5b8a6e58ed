package game

const blankMarker = '_'

// MaxPick caps how many responses a prompt card may ask for.
const MaxPick = 10

// CountBlanks counts maximal runs of underscores, so "____" is one blank and
// "a__b___c" is two.
func CountBlanks(text string) int {
	count := 0
	inRun := false
	for _, r := range text {
		if r == blankMarker {
			if !inRun {
				count++
				inRun = true
			}
			continue
		}
		inRun = false
	}
	return count
}

// DefaultPick returns pick when it is already set, otherwise the number of
// blanks in text with a floor of one.
func DefaultPick(pick int, text string) int {
	if pick >= 1 {
		return pick
	}
	return max(CountBlanks(text), 1)
}
