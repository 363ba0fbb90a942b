package node

import "unicode/utf8"

// TruncateByRunes 按 rune 数截断，不会切断多字节字符
func TruncateByRunes(s string, maxRunes int) string {
	if maxRunes <= 0 {
		return ""
	}
	if utf8.RuneCountInString(s) <= maxRunes {
		return s
	}
	n := 0
	for i := range s {
		if n == maxRunes {
			return s[:i]
		}
		n++
	}
	return s
}

// Excerpt 诊断信息使用的原文摘录；被截断时追加省略号
func Excerpt(s string, maxRunes int) string {
	out := TruncateByRunes(s, maxRunes)
	if len(out) < len(s) {
		return out + "..."
	}
	return out
}
