package risk

import (
	"errors"
	"fmt"
	"strings"

	"github.com/kaptinlin/jsonrepair"
	"github.com/kode4food/signoff/pkg/api"
	"github.com/tidwall/gjson"
)

const (
	labelRisk       = "风险等级"
	labelPath       = "推荐路径"
	labelSuggestion = "建议"
)

var (
	ErrEmptyOutput = errors.New("evaluator returned no output")
	ErrNoRiskLabel = errors.New("no risk level in evaluator output")
)

// ParseOutput extracts a risk result from an evaluator's raw answer. The
// expected form is one labeled line per field; answers that come back as
// JSON instead are repaired and read by field name
func ParseOutput(text string) (*api.RiskResult, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, ErrEmptyOutput
	}

	res, found := parseLabeledLines(text)
	if !found {
		res, found = parseJSONOutput(text)
	}
	if !found {
		return nil, fmt.Errorf("%w: %q", ErrNoRiskLabel, text)
	}
	return res, nil
}

// parseLabeledLines scans for the labeled lines the prompt asks for,
// taking the value after the last colon of each matching line
func parseLabeledLines(text string) (*api.RiskResult, bool) {
	res := &api.RiskResult{}
	found := false
	for _, line := range strings.Split(text, "\n") {
		line = strings.ReplaceAll(strings.TrimSpace(line), "：", ":")
		switch {
		case strings.HasPrefix(line, labelRisk):
			if lvl, err := api.ParseRiskLevel(lastField(line)); err == nil {
				res.Risk = lvl
				found = true
			}
		case strings.HasPrefix(line, labelPath):
			res.RecommendPath = lastField(line)
		case strings.HasPrefix(line, labelSuggestion):
			res.Suggestion = lastField(line)
		}
	}
	return res, found
}

// parseJSONOutput repairs and reads a JSON answer. Models occasionally
// ignore the labeled format and reply with a fenced or truncated object
func parseJSONOutput(text string) (*api.RiskResult, bool) {
	repaired, err := jsonrepair.JSONRepair(text)
	if err != nil {
		return nil, false
	}
	risk := gjson.Get(repaired, "risk")
	if !risk.Exists() {
		return nil, false
	}
	lvl, err := api.ParseRiskLevel(risk.String())
	if err != nil {
		return nil, false
	}
	return &api.RiskResult{
		Risk:          lvl,
		RecommendPath: gjson.Get(repaired, "recommend_path").String(),
		Suggestion:    gjson.Get(repaired, "suggestion").String(),
	}, true
}

func lastField(line string) string {
	fields := strings.Split(line, ":")
	return strings.TrimSpace(fields[len(fields)-1])
}
