// Package checks evaluates policy validation predicates against a parsed
// document. The vocabulary is fixed: required, type, const, pattern, enum,
// minLength, maxLength. Each predicate yields at most one issue per field
// and evaluation follows declaration order.
package checks

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/aymerick/raymond"

	"github.com/nazahex/rigra/internal/document"
	"github.com/nazahex/rigra/internal/model"
	"github.com/nazahex/rigra/internal/policy"
)

// Run evaluates every check against doc, collecting issues for file/ruleID.
func Run(checkList []policy.Check, doc interface{}, file, ruleID string) []model.Issue {
	var issues []model.Issue
	for i := range checkList {
		issues = append(issues, runCheck(&checkList[i], doc, file, ruleID)...)
	}
	return issues
}

func runCheck(c *policy.Check, doc interface{}, file, ruleID string) []model.Issue {
	var issues []model.Issue
	emit := func(field, defaultMsg string, ctx map[string]interface{}) {
		msg := c.Message
		if msg == "" {
			msg = defaultMsg
		}
		issues = append(issues, model.Issue{
			File:     file,
			Rule:     ruleID,
			Severity: policy.EffectiveLevel(c.Level),
			Path:     "$." + field,
			Message:  RenderMessage(msg, ctx),
		})
	}

	switch c.Kind {
	case "required":
		for _, field := range c.FieldList() {
			if _, ok := document.GetPath(doc, field); !ok {
				emit(field, fmt.Sprintf("Field '%s' is required", field), msgCtx(file, field, nil))
			}
		}
	case "type":
		for field, want := range c.FieldKinds() {
			v, ok := document.GetPath(doc, field)
			if !ok {
				continue // presence is the required check's concern
			}
			if !kindMatches(v, want) {
				emit(field, fmt.Sprintf("Type mismatch at $.%s, got %s", field, kindOf(v)), msgCtx(file, field, v))
			}
		}
	case "const":
		v, ok := document.GetPath(doc, c.Field)
		if !ok || !literalEqual(c.Value, v) {
			emit(c.Field, fmt.Sprintf("Field '%s' must equal the declared constant", c.Field), msgCtx(file, c.Field, v))
		}
	case "pattern":
		v, ok := document.GetPath(doc, c.Field)
		if !ok {
			return issues
		}
		s, isStr := v.(string)
		if !isStr {
			return issues
		}
		re, err := regexp.Compile(c.Regex)
		if err != nil {
			emit(c.Field, fmt.Sprintf("Invalid regex for field '%s': %s", c.Field, c.Regex), msgCtx(file, c.Field, v))
			return issues
		}
		if !re.MatchString(s) {
			emit(c.Field, fmt.Sprintf("Field '%s' does not match pattern %s", c.Field, c.Regex), msgCtx(file, c.Field, v))
		}
	case "enum":
		v, ok := document.GetPath(doc, c.Field)
		found := false
		if ok {
			for _, allowed := range c.Values {
				if literalEqual(allowed, v) {
					found = true
					break
				}
			}
		}
		if !found {
			emit(c.Field, fmt.Sprintf("Field '%s' is not one of the allowed values", c.Field), msgCtx(file, c.Field, v))
		}
	case "minLength":
		if n, ok := lengthOf(doc, c.Field); ok && n < c.Min {
			emit(c.Field, fmt.Sprintf("Field '%s' is shorter than %d", c.Field, c.Min), msgCtx(file, c.Field, nil))
		}
	case "maxLength":
		if n, ok := lengthOf(doc, c.Field); ok && n > c.Max {
			emit(c.Field, fmt.Sprintf("Field '%s' is longer than %d", c.Field, c.Max), msgCtx(file, c.Field, nil))
		}
	}
	return issues
}

func msgCtx(file, field string, value interface{}) map[string]interface{} {
	ctx := map[string]interface{}{"file": file, "field": field}
	if value != nil {
		ctx["value"] = fmt.Sprintf("%v", value)
	}
	return ctx
}

// RenderMessage expands handlebars placeholders ({{field}}, {{file}},
// {{value}}) in a check message. Plain messages pass through untouched, as
// does anything raymond cannot render.
func RenderMessage(tmpl string, ctx map[string]interface{}) string {
	if !strings.Contains(tmpl, "{{") {
		return tmpl
	}
	rendered, err := raymond.Render(tmpl, ctx)
	if err != nil {
		return tmpl
	}
	return rendered
}

func lengthOf(doc interface{}, field string) (int, bool) {
	v, ok := document.GetPath(doc, field)
	if !ok {
		return 0, false
	}
	switch t := v.(type) {
	case string:
		return len(t), true
	case []interface{}:
		return len(t), true
	default:
		return 0, false
	}
}

func kindOf(v interface{}) string {
	switch t := v.(type) {
	case *document.Object:
		return "object"
	case []interface{}:
		return "array"
	case string:
		return "string"
	case bool:
		return "boolean"
	case json.Number:
		if isIntegral(t) {
			return "integer"
		}
		return "number"
	case nil:
		return "null"
	default:
		return "unknown"
	}
}

func isIntegral(n json.Number) bool {
	_, err := n.Int64()
	return err == nil
}

func kindMatches(v interface{}, want string) bool {
	got := kindOf(v)
	if want == "number" && got == "integer" {
		return true
	}
	return got == want
}

// literalEqual compares a TOML-sourced literal against a parsed JSON value.
// TOML decodes numbers as int64/float64 while documents carry json.Number,
// so numeric comparison goes through a common form.
func literalEqual(expected, actual interface{}) bool {
	switch exp := expected.(type) {
	case int64:
		if n, ok := actual.(json.Number); ok {
			if i, err := n.Int64(); err == nil {
				return i == exp
			}
			if f, err := n.Float64(); err == nil {
				return f == float64(exp)
			}
		}
		return false
	case float64:
		if n, ok := actual.(json.Number); ok {
			f, err := n.Float64()
			return err == nil && f == exp
		}
		return false
	case string:
		s, ok := actual.(string)
		return ok && s == exp
	case bool:
		b, ok := actual.(bool)
		return ok && b == exp
	case nil:
		return actual == nil
	default:
		return false
	}
}
