package dates

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"
)

// ErrParse 日期键格式非法（调用方按字段缺失处理，不向用户抛出）
var ErrParse = errors.New("malformed date key")

const (
	isoLayout = "2006-01-02"
	// keyLayout 报告文档的自然键格式 MM-DD-YYYY
	keyLayout       = "01-02-2006"
	longLabelLayout = "January 2, 2006"
	shortLayout     = "Jan 2, 2006"
	monthYearLayout = "Jan 2006"
)

// ParseKey 解析 MM-DD-YYYY 日期键
func ParseKey(key string) (time.Time, error) {
	parts := strings.Split(key, "-")
	if len(parts) != 3 {
		return time.Time{}, fmt.Errorf("%w: %q", ErrParse, key)
	}
	for _, p := range parts {
		if _, err := strconv.Atoi(p); err != nil {
			return time.Time{}, fmt.Errorf("%w: %q", ErrParse, key)
		}
	}
	t, err := time.Parse(keyLayout, key)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q", ErrParse, key)
	}
	return t, nil
}

// ParseISO 解析 YYYY-MM-DD 日期
func ParseISO(s string) (time.Time, error) {
	t, err := time.Parse(isoLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q", ErrParse, s)
	}
	return t, nil
}

// DateKey 生成报告文档键 MM-DD-YYYY
func DateKey(t time.Time) string { return t.Format(keyLayout) }

// ISODate 生成 completedDays 使用的 YYYY-MM-DD 格式
func ISODate(t time.Time) string { return t.Format(isoLayout) }

// FormatDateLabel 将 MM-DD-YYYY 键渲染为长日期标签（"January 2, 2006"）
func FormatDateLabel(key string) (string, error) {
	t, err := ParseKey(key)
	if err != nil {
		return "", err
	}
	return t.Format(longLabelLayout), nil
}

// ShortLabel 短日期标签（"Jan 2, 2006"，周分组用）
func ShortLabel(t time.Time) string { return t.Format(shortLayout) }

// MonthYearLabel 月份标签（"Jan 2006"，长期趋势分桶用）
func MonthYearLabel(t time.Time) string { return t.Format(monthYearLayout) }

// Age 按已过生日数计算年龄，dob/asOf 为 YYYY-MM-DD
func Age(dob, asOf string) (int, error) {
	birth, err := ParseISO(dob)
	if err != nil {
		return 0, err
	}
	at, err := ParseISO(asOf)
	if err != nil {
		return 0, err
	}
	age := at.Year() - birth.Year()
	if at.Month() < birth.Month() ||
		(at.Month() == birth.Month() && at.Day() < birth.Day()) {
		age--
	}
	return age, nil
}

// NextStreak 连续天数推进：lastPlayed 恰为 today 前一天则 +1，否则重置为 1。
// 日期解析失败按非连续处理。
func NextStreak(lastPlayed, today string, currentStreak int) int {
	last, err := ParseISO(lastPlayed)
	if err != nil {
		return 1
	}
	day, err := ParseISO(today)
	if err != nil {
		return 1
	}
	if last.AddDate(0, 0, 1).Equal(day) {
		return currentStreak + 1
	}
	return 1
}

// WeekGroup 周分组：标签 + 组内日期键（升序）
type WeekGroup struct {
	Label string
	Dates []string
}

// WeekGroups 对日期键贪心分组：每组跨度距首成员 < 7 天，仅保留 >= 2 个日期的组。
// 输入顺序不限，内部按时间排序；非法键整体报 ErrParse。
func WeekGroups(keys []string) ([]WeekGroup, error) {
	type dated struct {
		key string
		t   time.Time
	}
	ds := make([]dated, 0, len(keys))
	for _, k := range keys {
		t, err := ParseKey(k)
		if err != nil {
			return nil, err
		}
		ds = append(ds, dated{key: k, t: t})
	}
	sort.Slice(ds, func(i, j int) bool { return ds[i].t.Before(ds[j].t) })

	var groups []WeekGroup
	var current []dated
	flush := func() {
		if len(current) >= 2 {
			first, last := current[0].t, current[len(current)-1].t
			g := WeekGroup{Label: ShortLabel(first) + " - " + ShortLabel(last)}
			for _, d := range current {
				g.Dates = append(g.Dates, d.key)
			}
			groups = append(groups, g)
		}
	}
	for _, d := range ds {
		if len(current) > 0 && d.t.Sub(current[0].t) >= 7*24*time.Hour {
			flush()
			current = current[:0]
		}
		current = append(current, d)
	}
	flush()
	return groups, nil
}

// Cooldown 监测周期冷却窗口
type Cooldown struct {
	Active    bool
	NextStart time.Time
}

// CooldownWindow 从 firstPlayed 起反复加 playFrequencyMonths 个月直到超过 now。
// 完成天数取 >= 7 判定（两处调用点语义不一致，取单调安全的一侧）。
func CooldownWindow(firstPlayed string, playFrequencyMonths, completedDays int, now time.Time) (Cooldown, error) {
	start, err := ParseISO(firstPlayed)
	if err != nil {
		return Cooldown{}, err
	}
	if playFrequencyMonths <= 0 {
		playFrequencyMonths = 6
	}
	next := start
	for !next.After(now) {
		next = next.AddDate(0, playFrequencyMonths, 0)
	}
	return Cooldown{
		Active:    completedDays >= 7 && now.Before(next),
		NextStart: next,
	}, nil
}

// Yesterday 前一天的 ISO 日期
func Yesterday(t time.Time) string { return ISODate(t.AddDate(0, 0, -1)) }
