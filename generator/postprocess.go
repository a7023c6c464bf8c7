package generator

import (
	"errors"
	"regexp"
	"strings"
)

// ErrEmptyOutput is returned when the model produced nothing usable.
var ErrEmptyOutput = errors.New("model returned empty output")

var fenceRe = regexp.MustCompile("(?s)^```[a-zA-Z]*\\s*\\n(.*?)\\n?```$")

// PostProcess trims model output and unwraps a single surrounding code fence,
// which some models add around Markdown answers.
func PostProcess(raw string) (string, error) {
	out := strings.TrimSpace(raw)
	if m := fenceRe.FindStringSubmatch(out); len(m) == 2 {
		out = strings.TrimSpace(m[1])
	}
	if out == "" {
		return "", ErrEmptyOutput
	}
	return out, nil
}
