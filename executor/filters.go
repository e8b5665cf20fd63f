package executor

import (
	"encoding/json"
	"os"
	"strings"

	"github.com/tidwall/gjson"
	"gopkg.in/yaml.v3"

	ai "github.com/tcdent/codey"
)

// FilterRule declaratively auto-approves or auto-denies a tool call
// before it ever reaches an approval gate (§4.2). Match, if set, is a
// gjson path into the call's params evaluated against Equals (exact
// string match) or Contains (substring match); an empty Match applies
// the rule to every call of Tool.
type FilterRule struct {
	Tool     string `yaml:"tool"`
	Match    string `yaml:"match,omitempty"`
	Equals   string `yaml:"equals,omitempty"`
	Contains string `yaml:"contains,omitempty"`
	Decision string `yaml:"decision"` // "approve" | "deny"
	Reason   string `yaml:"reason,omitempty"`
}

// FilterSet is an ordered list of FilterRules; the first matching rule
// wins.
type FilterSet struct {
	Rules []FilterRule `yaml:"rules"`
}

// LoadFilters reads a FilterSet from a YAML file (§4.2: "Loaded once at
// startup from configuration").
func LoadFilters(path string) (*FilterSet, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var fs FilterSet
	if err := yaml.Unmarshal(data, &fs); err != nil {
		return nil, err
	}
	return &fs, nil
}

// Decide returns the auto-approve/auto-deny decision for a tool call,
// or ai.ApprovalUnset if no rule matches (leaving it to the Executor's
// own approval gate).
func (fs *FilterSet) Decide(name string, params json.RawMessage) (ai.ApprovalDecision, string) {
	if fs == nil {
		return ai.ApprovalUnset, ""
	}
	for _, r := range fs.Rules {
		if r.Tool != name {
			continue
		}
		if r.Match != "" {
			value := gjson.GetBytes(params, r.Match).String()
			if r.Equals != "" && value != r.Equals {
				continue
			}
			if r.Contains != "" && !strings.Contains(value, r.Contains) {
				continue
			}
		}
		switch r.Decision {
		case "approve":
			return ai.ApprovalApproved, ""
		case "deny":
			reason := r.Reason
			if reason == "" {
				reason = "denied by policy"
			}
			return ai.ApprovalDenied, reason
		}
	}
	return ai.ApprovalUnset, ""
}
