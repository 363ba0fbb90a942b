package node

import "strings"

// responseFormatMarkers 提供商拒绝 JSON 输出模式时错误信息中出现的片段组，组内全部命中才算
var responseFormatMarkers = [][]string{
	{"response_format"},
	{"response_schema"},
	{"json_schema"},
	{"json_object", "not supported"},
	{"unknown parameter", "response"},
	{"invalid", "response"},
	{"failed to parse"},
}

// IsResponseFormatUnsupportedError 判断失败是否源于提供商不支持 response_format，
// 命中时调用方退回仅靠提示词约束 JSON
func IsResponseFormatUnsupportedError(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	for _, group := range responseFormatMarkers {
		if containsAll(msg, group) {
			return true
		}
	}
	return false
}

func containsAll(s string, parts []string) bool {
	for _, p := range parts {
		if !strings.Contains(s, p) {
			return false
		}
	}
	return true
}
