// Package format 指标展示格式化：字段名人性化 + 单位后缀。
package format

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"
)

// reactionTimeNames 眼动任务序列键的规范展示名，覆盖通用驼峰拆分规则
var reactionTimeNames = map[string]string{
	"antiGap":     "Anti-Saccade, Gap Task",
	"proGap":      "Pro-Saccade, Gap Task",
	"antiOverlap": "Anti-Saccade, Overlap Task",
	"proOverlap":  "Pro-Saccade, Overlap Task",
	"gap":         "Gap Task",
	"overlap":     "Overlap Task",
}

// MetricName 驼峰字段名转空格分词（"wordsPerMinute" -> "words Per Minute"），
// 眼动任务键走覆盖表
func MetricName(raw string) string {
	if name, ok := reactionTimeNames[raw]; ok {
		return name
	}
	var b strings.Builder
	b.Grow(len(raw) + 4)
	runes := []rune(raw)
	for i, r := range runes {
		if i > 0 && unicode.IsUpper(r) && unicode.IsLower(runes[i-1]) {
			b.WriteByte(' ')
		}
		b.WriteRune(r)
	}
	return b.String()
}

// MetricValue 数值按键名加单位后缀：含 "percent" 加 %，含 "duration"/"time" 加 ms；
// 眼动任务键固定两位小数 + ms。非数值原样透传。
func MetricValue(metricKey string, value any) string {
	f, isNumber := asFloat(value)
	if _, reaction := reactionTimeNames[metricKey]; reaction && isNumber {
		return fmt.Sprintf("%.2f ms", f)
	}
	if !isNumber {
		return fmt.Sprintf("%v", value)
	}
	lower := strings.ToLower(metricKey)
	switch {
	case strings.Contains(lower, "percent"):
		return trimFloat(f) + "%"
	case strings.Contains(lower, "duration"), strings.Contains(lower, "time"):
		return trimFloat(f) + " ms"
	}
	return trimFloat(f)
}

func asFloat(value any) (float64, bool) {
	switch v := value.(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	}
	return 0, false
}

// trimFloat 去掉无意义的尾零（12.50 -> 12.5, 12.0 -> 12）
func trimFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
