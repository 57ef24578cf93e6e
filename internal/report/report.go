package report

import (
	"errors"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
)

// ErrMalformedModelOutput means the model response carried no parseable
// category score at all. The caller never gets a fabricated score.
var ErrMalformedModelOutput = errors.New("report: malformed model output")

// Report is the scored outcome of one analyzed call. Immutable once
// returned.
type Report struct {
	Scores    map[string]float64 `json:"scores"`
	CSI       float64            `json:"csi"`
	Narrative string             `json:"narrative"`
}

// scorePattern matches "Category Name: 8/10" and "Category: 8.5/10"
// style pairs the model is instructed to emit.
var scorePattern = regexp.MustCompile(`([A-Za-z][A-Za-z ]*?)\s*:\s*(\d+(?:\.\d+)?)\s*/\s*10`)

// Parse extracts category scores from a raw model response and derives
// the CSI as their arithmetic mean rounded to one decimal place.
//
// Parsing is fail-closed on zero matches and permissive otherwise:
// a partially well-formed response yields whichever categories matched.
// Repeated categories keep their first value. Scores outside [0,10]
// are discarded as noise.
func Parse(response string) (*Report, error) {
	matches := scorePattern.FindAllStringSubmatch(response, -1)

	scores := make(map[string]float64)
	var sum float64
	var n int
	for _, m := range matches {
		name := strings.TrimSpace(m[1])
		value, err := strconv.ParseFloat(m[2], 64)
		if err != nil || value < 0 || value > 10 {
			continue
		}
		if _, seen := scores[name]; seen {
			continue
		}
		scores[name] = value
		sum += value
		n++
	}
	if n == 0 {
		return nil, fmt.Errorf("%w: no category scores in response", ErrMalformedModelOutput)
	}

	return &Report{
		Scores:    scores,
		CSI:       math.Round(sum/float64(n)*10) / 10,
		Narrative: strings.TrimSpace(response),
	}, nil
}
