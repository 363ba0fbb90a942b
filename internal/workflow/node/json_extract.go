package node

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"
)

// 修复策略名称，按尝试顺序排列
const (
	StrategyDirect      = "direct"
	StrategyRegexRepair = "regex_repair"
	StrategyExtract     = "extract"
	StrategySanitize    = "sanitize"
	StrategyBalanced    = "balanced"
)

// RepairStrategy 纯文本改写：返回改写后的候选与是否适用。
// 不适用（或未改变文本）时跳过本轮解析。
type RepairStrategy struct {
	Name  string
	Apply func(string) (string, bool)
}

// RepairStrategies 固定顺序的修复链。每个策略作用于上一个策略的输出，
// 因而后面的修复不会抵消前面的修复。
var RepairStrategies = []RepairStrategy{
	{Name: StrategyDirect, Apply: func(s string) (string, bool) { return s, true }},
	{Name: StrategyRegexRepair, Apply: changed(RepairCommonSyntax)},
	{Name: StrategyExtract, Apply: changed(ExtractEmbeddedJSON)},
	{Name: StrategySanitize, Apply: changed(SanitizeJSON)},
	{Name: StrategyBalanced, Apply: changed(ExtractBalancedObject)},
}

func changed(fn func(string) string) func(string) (string, bool) {
	return func(s string) (string, bool) {
		out := fn(s)
		return out, out != s
	}
}

// Recovery 修复成功的结果
type Recovery struct {
	Candidate string
	Root      *Node
	Strategy  string
}

// Attempt 单次失败的解析尝试
type Attempt struct {
	Strategy  string
	Candidate string
	Err       *ParseError
}

// RecoveryError 所有策略均失败
type RecoveryError struct {
	Attempts []Attempt
}

func (e *RecoveryError) Error() string {
	if len(e.Attempts) == 0 {
		return "json recovery failed: no strategy applied"
	}
	names := make([]string, 0, len(e.Attempts))
	for _, a := range e.Attempts {
		names = append(names, a.Strategy)
	}
	return fmt.Sprintf("json recovery failed after %s: %v", strings.Join(names, ", "), e.Last().Err)
}

// First 第一次尝试（原文直解）的失败，位置信息最贴近模型原始输出
func (e *RecoveryError) First() Attempt {
	if len(e.Attempts) == 0 {
		return Attempt{}
	}
	return e.Attempts[0]
}

func (e *RecoveryError) Last() Attempt {
	if len(e.Attempts) == 0 {
		return Attempt{}
	}
	return e.Attempts[len(e.Attempts)-1]
}

// RecoverJSON 按 RepairStrategies 顺序修复并解析，返回第一个能解析的候选。
// 原本合法的 JSON 在第一步即返回，文本不做任何改动。
func RecoverJSON(text string) (*Recovery, *RecoveryError) {
	candidate := text
	var attempts []Attempt
	for _, st := range RepairStrategies {
		next, ok := st.Apply(candidate)
		if !ok {
			continue
		}
		candidate = next
		root, perr := ParseNode(candidate)
		if perr == nil {
			return &Recovery{Candidate: candidate, Root: root, Strategy: st.Name}, nil
		}
		attempts = append(attempts, Attempt{Strategy: st.Name, Candidate: candidate, Err: perr})
	}
	return nil, &RecoveryError{Attempts: attempts}
}

var (
	doubledOpenRE  = regexp.MustCompile(`\{\{`)
	doubledCloseRE = regexp.MustCompile(`\}\}`)

	pyLiteralREs = []struct {
		re   *regexp.Regexp
		repl string
	}{
		{regexp.MustCompile(`([:\[,]\s*)True(\s*[,\]}])`), "${1}true${2}"},
		{regexp.MustCompile(`([:\[,]\s*)False(\s*[,\]}])`), "${1}false${2}"},
		{regexp.MustCompile(`([:\[,]\s*)None(\s*[,\]}])`), "${1}null${2}"},
	}

	trailingCommaRE = regexp.MustCompile(`,(\s*[}\]])`)

	missingCommaREs = []struct {
		re   *regexp.Regexp
		repl string
	}{
		{regexp.MustCompile(`\}(\s*)\{`), "},${1}{"},
		{regexp.MustCompile(`\}(\s*)\[`), "},${1}["},
		{regexp.MustCompile(`\](\s*)\{`), "],${1}{"},
		{regexp.MustCompile(`\](\s*)\[`), "],${1}["},
	}
)

// repairPythonLiterals 只改写独立成值的 True/False/None（前为 : [ , 后为 , ] }），
// 字符串里的普通单词不受影响。相邻字面量共用分隔符，需重复替换直到稳定。
func repairPythonLiterals(s string) string {
	for {
		prev := s
		for _, r := range pyLiteralREs {
			s = r.re.ReplaceAllString(s, r.repl)
		}
		if s == prev {
			return s
		}
	}
}

// RepairCommonSyntax 修复模型常见的语法问题，顺序固定：
// 双花括号、Python 字面量、尾逗号、相邻值之间缺失的逗号。
func RepairCommonSyntax(s string) string {
	out := collapseDoubledBraces(s)
	out = repairPythonLiterals(out)
	out = trailingCommaRE.ReplaceAllString(out, "$1")
	for _, r := range missingCommaREs {
		out = r.re.ReplaceAllString(out, r.repl)
	}
	return out
}

// collapseDoubledBraces 处理模板转义留下的 {{ }}。
// 仅在整段以 {{ 开头时生效；合法嵌套对象结尾的 }} 不受影响。
// 全局折叠后若括号不平衡，退化为只剥掉最外层一对。
func collapseDoubledBraces(s string) string {
	trimmed := strings.TrimSpace(s)
	if !strings.HasPrefix(trimmed, "{{") {
		return s
	}
	collapsed := doubledCloseRE.ReplaceAllString(doubledOpenRE.ReplaceAllString(trimmed, "{"), "}")
	if bracesBalanced(collapsed) {
		return collapsed
	}
	if strings.HasSuffix(trimmed, "}}") {
		peeled := trimmed[1 : len(trimmed)-1]
		if bracesBalanced(peeled) {
			return peeled
		}
	}
	return collapsed
}

// bracesBalanced 忽略字符串内部，检查花括号与方括号是否配平
func bracesBalanced(s string) bool {
	depth := 0
	inString, escaped := false, false
	for i := 0; i < len(s); i++ {
		c := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{', '[':
			depth++
		case '}', ']':
			depth--
			if depth < 0 {
				return false
			}
		}
	}
	return depth == 0 && !inString
}

var fencedObjectRE = regexp.MustCompile("(?s)```(?:json)?\\s*(\\{.*?\\})\\s*```")

// ExtractEmbeddedJSON 从夹杂说明文字的输出里取出 JSON 对象：
// 优先取第一个 markdown 代码块中的对象，否则取第一个 { 到最后一个 } 的最宽区间。
func ExtractEmbeddedJSON(s string) string {
	if m := fencedObjectRE.FindStringSubmatch(s); m != nil {
		return m[1]
	}
	return clipWidestObject(s)
}

func clipWidestObject(s string) string {
	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start >= 0 && end > start {
		return s[start : end+1]
	}
	return s
}

// SanitizeJSON 去掉不可打印字符（保留换行与制表符），重新截取对象区间后再跑一遍语法修复
func SanitizeJSON(s string) string {
	cleaned := strings.Map(func(r rune) rune {
		if r == '\n' || r == '\t' || unicode.IsPrint(r) {
			return r
		}
		return -1
	}, s)
	return RepairCommonSyntax(clipWidestObject(cleaned))
}

// ExtractBalancedObject 取第一个括号配平的对象，用于对象之后还跟着其它花括号文本的情况
func ExtractBalancedObject(s string) string {
	start := strings.Index(s, "{")
	if start < 0 {
		return s
	}
	depth := 0
	inString, escaped := false, false
	for i := start; i < len(s); i++ {
		c := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return s[start : i+1]
			}
		}
	}
	return s
}
