package workflow

import (
	"strconv"
	"strings"

	"github.com/bytedance/sonic"
)

// Plan is the structured plan the planner agent emits as JSON inside its
// thinking text.
type Plan struct {
	Title string     `json:"title"`
	Steps []PlanStep `json:"steps"`
}

// PlanStep is one planned step.
type PlanStep struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

// Empty reports whether nothing usable was extracted.
func (p Plan) Empty() bool {
	return p.Title == "" && len(p.Steps) == 0
}

// ParsePlan extracts the best available plan from free text that is supposed
// to contain one JSON object but may be truncated, malformed, or interleaved
// with prose. It is best-effort by contract: it never fails, returning a zero
// Plan when nothing usable is found. The function is pure, so re-running it on
// the same text yields the same result, and because recovery reads a valid
// prefix left to right, running it on grown streamed text never drops fields
// extracted earlier.
func ParsePlan(text string) Plan {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return Plan{}
	}

	// Prefer the brace-delimited region: plans are usually surrounded by
	// prose or markdown fences. Greedy match, first '{' to last '}'.
	candidate := trimmed
	if start := strings.Index(trimmed, "{"); start >= 0 {
		if end := strings.LastIndex(trimmed, "}"); end > start {
			candidate = trimmed[start : end+1]
		} else {
			// Stream cut before any closing brace arrived.
			candidate = trimmed[start:]
		}
	}

	var plan Plan
	if err := sonic.Unmarshal([]byte(candidate), &plan); err == nil {
		return plan
	}
	if p, ok := recoverPlan(candidate); ok {
		return p
	}
	if candidate != trimmed {
		if err := sonic.Unmarshal([]byte(trimmed), &plan); err == nil {
			return plan
		}
		if p, ok := recoverPlan(trimmed); ok {
			return p
		}
	}
	return Plan{}
}

// recoverPlan runs the tolerant parser and shapes the result into a Plan.
func recoverPlan(text string) (Plan, bool) {
	p := &lenientParser{s: text}
	p.skipSpace()
	v, ok := p.parseValue()
	if !ok {
		return Plan{}, false
	}
	obj, ok := v.(map[string]any)
	if !ok {
		return Plan{}, false
	}

	var plan Plan
	plan.Title, _ = obj["title"].(string)
	if rawSteps, ok := obj["steps"].([]any); ok {
		for _, raw := range rawSteps {
			stepObj, ok := raw.(map[string]any)
			if !ok {
				continue
			}
			var step PlanStep
			step.Title, _ = stepObj["title"].(string)
			step.Description, _ = stepObj["description"].(string)
			plan.Steps = append(plan.Steps, step)
		}
	}
	if plan.Empty() {
		return Plan{}, false
	}
	return plan, true
}

// lenientParser is a recovering JSON reader. Streamed JSON is often cut
// mid-token, so every production tolerates EOF at any point and keeps
// whatever valid prefix it has seen: unterminated strings are kept as-is,
// truncated literals are completed, trailing commas and dangling keys are
// dropped.
type lenientParser struct {
	s string
	i int
}

func (p *lenientParser) eof() bool { return p.i >= len(p.s) }

func (p *lenientParser) skipSpace() {
	for !p.eof() {
		switch p.s[p.i] {
		case ' ', '\t', '\r', '\n':
			p.i++
		default:
			return
		}
	}
}

func (p *lenientParser) parseValue() (any, bool) {
	p.skipSpace()
	if p.eof() {
		return nil, false
	}
	switch c := p.s[p.i]; {
	case c == '{':
		return p.parseObject()
	case c == '[':
		return p.parseArray()
	case c == '"':
		return p.parseString(), true
	case c == '-' || (c >= '0' && c <= '9'):
		return p.parseNumber()
	default:
		return p.parseLiteral()
	}
}

func (p *lenientParser) parseObject() (any, bool) {
	p.i++ // consume '{'
	obj := make(map[string]any)
	for {
		p.skipSpace()
		if p.eof() {
			return obj, true
		}
		if p.s[p.i] == '}' {
			p.i++
			return obj, true
		}
		if p.s[p.i] == ',' {
			p.i++
			continue
		}
		if p.s[p.i] != '"' {
			// Unparseable key position: stop here, keep what we have.
			return obj, true
		}
		key := p.parseString()
		p.skipSpace()
		if p.eof() || p.s[p.i] != ':' {
			// Key with no value yet (cut mid-stream): drop it. When the
			// value arrives in a later, longer snapshot it will be kept.
			return obj, true
		}
		p.i++ // consume ':'
		val, ok := p.parseValue()
		if !ok {
			return obj, true
		}
		obj[key] = val
	}
}

func (p *lenientParser) parseArray() (any, bool) {
	p.i++ // consume '['
	arr := make([]any, 0)
	for {
		p.skipSpace()
		if p.eof() {
			return arr, true
		}
		switch p.s[p.i] {
		case ']':
			p.i++
			return arr, true
		case ',':
			p.i++
			continue
		}
		val, ok := p.parseValue()
		if !ok {
			return arr, true
		}
		arr = append(arr, val)
	}
}

func (p *lenientParser) parseString() string {
	p.i++ // consume opening quote
	var b strings.Builder
	for !p.eof() {
		c := p.s[p.i]
		if c == '"' {
			p.i++
			return b.String()
		}
		if c != '\\' {
			b.WriteByte(c)
			p.i++
			continue
		}
		// Escape sequence; a truncated one is simply dropped.
		if p.i+1 >= len(p.s) {
			p.i = len(p.s)
			return b.String()
		}
		p.i++
		switch p.s[p.i] {
		case '"':
			b.WriteByte('"')
		case '\\':
			b.WriteByte('\\')
		case '/':
			b.WriteByte('/')
		case 'n':
			b.WriteByte('\n')
		case 't':
			b.WriteByte('\t')
		case 'r':
			b.WriteByte('\r')
		case 'b':
			b.WriteByte('\b')
		case 'f':
			b.WriteByte('\f')
		case 'u':
			if p.i+4 < len(p.s) {
				if n, err := strconv.ParseUint(p.s[p.i+1:p.i+5], 16, 32); err == nil {
					b.WriteRune(rune(n))
					p.i += 4
				}
			} else {
				p.i = len(p.s)
				return b.String()
			}
		}
		p.i++
	}
	// Unterminated string: keep the prefix.
	return b.String()
}

func (p *lenientParser) parseNumber() (any, bool) {
	start := p.i
	for !p.eof() {
		c := p.s[p.i]
		if (c >= '0' && c <= '9') || c == '-' || c == '+' || c == '.' || c == 'e' || c == 'E' {
			p.i++
			continue
		}
		break
	}
	tok := p.s[start:p.i]
	// A number cut mid-token may end in a sign, dot, or exponent marker.
	tok = strings.TrimRight(tok, "-+.eE")
	if tok == "" {
		return nil, false
	}
	n, err := strconv.ParseFloat(tok, 64)
	if err != nil {
		return nil, false
	}
	return n, true
}

func (p *lenientParser) parseLiteral() (any, bool) {
	start := p.i
	for !p.eof() {
		c := p.s[p.i]
		if c >= 'a' && c <= 'z' {
			p.i++
			continue
		}
		break
	}
	switch tok := p.s[start:p.i]; {
	case tok == "":
		p.i++ // skip one garbage byte so the caller makes progress
		return nil, false
	case strings.HasPrefix("true", tok):
		return true, true
	case strings.HasPrefix("false", tok):
		return false, true
	case strings.HasPrefix("null", tok):
		return nil, true
	default:
		return nil, false
	}
}
