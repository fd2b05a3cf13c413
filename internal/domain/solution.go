package domain

// Preferred solutions offered on the quotation form
const (
	SolutionSoundtrackYourBrand = "soundtrack-your-brand"
	SolutionBeatBreeze          = "beat-breeze"
	SolutionNotSure             = "not-sure"
)

var solutionLabels = map[string]string{
	SolutionSoundtrackYourBrand: "Soundtrack Your Brand",
	SolutionBeatBreeze:          "Beat Breeze",
	SolutionNotSure:             "Not Sure Yet",
}

// IsKnownSolution reports whether value is one of the advertised solutions
func IsKnownSolution(value string) bool {
	_, ok := solutionLabels[value]
	return ok
}

// SolutionLabel returns the display label for a solution, or the raw value if unknown
func SolutionLabel(value string) string {
	if label, ok := solutionLabels[value]; ok {
		return label
	}
	return value
}
