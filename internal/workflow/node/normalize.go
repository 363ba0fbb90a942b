package node

import (
	"regexp"
	"strings"
)

var (
	// 模型常见的前后缀客套话，按顺序逐个剥离
	fillerPrefixes = []string{
		"Here's the JSON:",
		"Here is the JSON:",
		"JSON:",
		"Response:",
		"Game:",
		"```json",
		"```",
	}
	fillerSuffixes = []string{
		"```",
		"End of JSON",
		"That's it!",
		"Hope this helps!",
	}

	openFenceRE  = regexp.MustCompile("^```[a-zA-Z]*\\n?")
	closeFenceRE = regexp.MustCompile("\\n?```$")
)

// NormalizeCompletion 清理模型原始输出：去首尾空白、代码围栏与客套话。
// 重复执行直至不动点，结果满足 NormalizeCompletion(NormalizeCompletion(x)) == NormalizeCompletion(x)。
func NormalizeCompletion(raw string) string {
	text := raw
	for {
		next := normalizeOnce(text)
		if next == text {
			return next
		}
		text = next
	}
}

func normalizeOnce(s string) string {
	text := strings.TrimSpace(s)
	text = stripOuterFence(text)

	for _, p := range fillerPrefixes {
		if strings.HasPrefix(text, p) {
			text = strings.TrimSpace(text[len(p):])
		}
	}
	for _, suf := range fillerSuffixes {
		if strings.HasSuffix(text, suf) {
			text = strings.TrimSpace(text[:len(text)-len(suf)])
		}
	}

	text = openFenceRE.ReplaceAllString(text, "")
	text = closeFenceRE.ReplaceAllString(text, "")
	return strings.TrimSpace(text)
}

// stripOuterFence 去掉包裹整段输出的代码围栏（可带语言标记）；缺少闭合围栏时只去开头
func stripOuterFence(text string) string {
	if !strings.HasPrefix(text, "```") {
		return text
	}
	rest := openFenceRE.ReplaceAllString(text, "")
	rest = strings.TrimSuffix(strings.TrimSpace(rest), "```")
	return strings.TrimSpace(rest)
}
