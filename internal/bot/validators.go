package bot

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"staffbot/internal/model"
)

// WeekDays 星期标记，按周一到周日排序
var WeekDays = []string{"周一", "周二", "周三", "周四", "周五", "周六", "周日"}

var nonPhoneChars = regexp.MustCompile(`[^\d+]`)

// ValidatePhone 基础手机号校验：去除分隔符后至少 10 位数字
func ValidatePhone(phone string) bool {
	cleaned := nonPhoneChars.ReplaceAllString(phone, "")
	digits := strings.TrimPrefix(cleaned, "+")
	if len(digits) < 10 {
		return false
	}
	for _, r := range digits {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// ParseCourse 解析年级（1-5）；非法输入返回 (0, false)
func ParseCourse(text string) (int, bool) {
	course, err := strconv.Atoi(strings.TrimSpace(text))
	if err != nil || course < model.CourseMin || course > model.CourseMax {
		return 0, false
	}
	return course, true
}

// ParseExperience 解析值班经验次数（非负整数）；非法输入返回 (0, false)
func ParseExperience(text string) (int, bool) {
	exp, err := strconv.Atoi(strings.TrimSpace(text))
	if err != nil || exp < 0 {
		return 0, false
	}
	return exp, true
}

// ParseRating 解析评分（1-5）；非法输入返回 (0, false)
func ParseRating(text string) (int, bool) {
	rating, err := strconv.Atoi(strings.TrimSpace(text))
	if err != nil || rating < model.RatingMin || rating > model.RatingMax {
		return 0, false
	}
	return rating, true
}

// shiftDateLayout 管理员录入班次时间的格式
const shiftDateLayout = "2006-01-02 15:04"

// ParseShiftDate 在指定时区解析班次时间
func ParseShiftDate(text string, loc *time.Location) (time.Time, bool) {
	t, err := time.ParseInLocation(shiftDateLayout, strings.TrimSpace(text), loc)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// dayAliases 星期别名 -> 规范标记
var dayAliases = map[string]string{
	"周一": "周一", "星期一": "周一", "一": "周一",
	"周二": "周二", "星期二": "周二", "二": "周二",
	"周三": "周三", "星期三": "周三", "三": "周三",
	"周四": "周四", "星期四": "周四", "四": "周四",
	"周五": "周五", "星期五": "周五", "五": "周五",
	"周六": "周六", "星期六": "周六", "六": "周六",
	"周日": "周日", "星期日": "周日", "星期天": "周日", "日": "周日", "天": "周日",
}

// ParsePreferredDays 从自由文本解析偏好星期，结果按周一到周日排序去重；
// 未识别出任何星期时返回 nil
func ParsePreferredDays(text string) []string {
	selected := make(map[string]bool)
	for alias, day := range dayAliases {
		if strings.Contains(text, alias) {
			selected[day] = true
		}
	}
	if len(selected) == 0 {
		return nil
	}
	var days []string
	for _, day := range WeekDays {
		if selected[day] {
			days = append(days, day)
		}
	}
	return days
}

// ToggleDay 切换已选星期列表中某一天的选中状态，保持周一到周日的顺序
func ToggleDay(selected []string, day string) []string {
	present := false
	set := make(map[string]bool, len(selected))
	for _, d := range selected {
		set[d] = true
	}
	if set[day] {
		present = true
	}
	set[day] = !present

	var result []string
	for _, d := range WeekDays {
		if set[d] {
			result = append(result, d)
		}
	}
	return result
}
