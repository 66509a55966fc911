package prediction

import "math"

// Efficiency compares actual progress with the progress expected by now.
type Efficiency struct {
	Score            int     `json:"score"`
	Grade            string  `json:"grade"`
	Message          string  `json:"message"`
	ExpectedProgress float64 `json:"expected_progress"`
}

var grades = []struct {
	min     int
	grade   string
	message string
}{
	{95, "A+", "Outstanding! You're ahead of the curve."},
	{85, "A", "Excellent pace, keep it up."},
	{75, "B", "Good progress."},
	{65, "C", "You're getting there. A little more each day helps."},
	{0, "D", "Time to catch up. Small sessions add up."},
}

// CalculateEfficiencyScore scores completed against daysElapsed/targetDays*total, capped at 100.
// When nothing is expected yet the score is 100.
func CalculateEfficiencyScore(completed, total, daysElapsed, targetDays int) Efficiency {
	var expected float64
	if targetDays > 0 {
		expected = float64(daysElapsed) / float64(targetDays) * float64(total)
	}

	score := 100
	if expected > 0 {
		score = min(100, int(math.Round(float64(completed)/expected*100)))
	}

	e := Efficiency{Score: score, ExpectedProgress: expected}
	for _, g := range grades {
		if score >= g.min {
			e.Grade = g.grade
			e.Message = g.message
			break
		}
	}
	return e
}
