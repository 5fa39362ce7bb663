package usecases

import (
	"regexp"
	"strconv"
)

// confidencePattern is the machine-parseable line the output contract
// requires in every final answer: "Confidence level: NN%".
// This is the load-bearing interface between the loop and the model; change
// the grammar here, not in the loop.
var confidencePattern = regexp.MustCompile(`(?i)confidence level\s*:\s*(\d+)\s*%`)

// ExtractConfidence pulls the confidence percentage out of assistant output.
// Missing or unparseable values count as 0, which forces a follow-up turn.
func ExtractConfidence(content string) int {
	m := confidencePattern.FindStringSubmatch(content)
	if m == nil {
		return 0
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return 0
	}
	return n
}
