package tutor

import "strings"

// Misconceptions is the outcome of a lightweight heuristic scan of an
// incorrect answer against the question context.
type Misconceptions struct {
	Detected      []string
	Interventions []string
	RiskLevel     string
}

// AnalyzeMisconceptions looks for common fraction-division errors in an
// incorrect answer. lastTutor is the most recent tutor message, used to
// know what operation the question asked for.
func AnalyzeMisconceptions(answer, lastTutor string) Misconceptions {
	m := Misconceptions{RiskLevel: "low"}
	lowAns := strings.ToLower(answer)
	lowCtx := strings.ToLower(lastTutor)

	asksDivision := strings.Contains(lowCtx, "divide") || strings.Contains(lowCtx, "÷")
	mentionsMultiply := strings.Contains(lowAns, "multiply") ||
		strings.Contains(lowAns, "times") ||
		strings.Contains(lowAns, "*") ||
		strings.Contains(lowAns, "×")
	if asksDivision && mentionsMultiply {
		m.Detected = append(m.Detected, "confusing_operations")
		m.Interventions = append(m.Interventions, "The student may be mixing up multiplication and division. Clarify which operation the question asks for before anything else.")
	}

	if strings.Contains(lowAns, "flip") || strings.Contains(lowAns, "reciprocal") {
		m.Detected = append(m.Detected, "reciprocal_confusion")
		m.Interventions = append(m.Interventions, "The student mentions flipping a fraction. Check they flip the divisor, not the dividend, and only when dividing.")
	}

	if len(m.Detected) > 0 {
		m.RiskLevel = "medium"
	}
	return m
}
