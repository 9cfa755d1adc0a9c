package bot

import (
	"reflect"
	"testing"
	"time"
)

func TestValidatePhone(t *testing.T) {
	valid := []string{"+8613800138000", "13800138000", "138-0013-8000", "+7 912 345 67 89"}
	for _, p := range valid {
		if !ValidatePhone(p) {
			t.Errorf("%q 应通过校验", p)
		}
	}

	invalid := []string{"", "12345", "电话", "+86abc138000"}
	for _, p := range invalid {
		if ValidatePhone(p) {
			t.Errorf("%q 不应通过校验", p)
		}
	}
}

func TestParseCourse(t *testing.T) {
	if v, ok := ParseCourse(" 3 "); !ok || v != 3 {
		t.Errorf("期望 (3, true)，实际 (%d, %v)", v, ok)
	}
	for _, text := range []string{"0", "6", "-1", "abc", ""} {
		if _, ok := ParseCourse(text); ok {
			t.Errorf("%q 不应通过校验", text)
		}
	}
}

func TestParseExperience(t *testing.T) {
	if v, ok := ParseExperience("0"); !ok || v != 0 {
		t.Errorf("0 次经验合法，实际 (%d, %v)", v, ok)
	}
	if _, ok := ParseExperience("-2"); ok {
		t.Error("负数经验不应通过校验")
	}
}

func TestParseRating(t *testing.T) {
	if v, ok := ParseRating("5"); !ok || v != 5 {
		t.Errorf("期望 (5, true)，实际 (%d, %v)", v, ok)
	}
	for _, text := range []string{"0", "6", "三"} {
		if _, ok := ParseRating(text); ok {
			t.Errorf("%q 不应通过校验", text)
		}
	}
}

func TestParseShiftDate(t *testing.T) {
	loc, err := time.LoadLocation("Asia/Shanghai")
	if err != nil {
		t.Fatalf("加载时区失败: %v", err)
	}

	got, ok := ParseShiftDate("2026-09-05 14:30", loc)
	if !ok {
		t.Fatal("合法时间解析失败")
	}
	want := time.Date(2026, 9, 5, 14, 30, 0, 0, loc)
	if !got.Equal(want) {
		t.Errorf("期望 %v，实际 %v", want, got)
	}

	for _, text := range []string{"2026-09-05", "14:30", "明天下午", ""} {
		if _, ok := ParseShiftDate(text, loc); ok {
			t.Errorf("%q 不应解析成功", text)
		}
	}
}

func TestParsePreferredDays(t *testing.T) {
	// 别名混用 + 乱序输入，输出统一为规范标记并按周一到周日排序
	got := ParsePreferredDays("星期天、周三，还有星期一")
	want := []string{"周一", "周三", "周日"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("期望 %v，实际 %v", want, got)
	}

	if got := ParsePreferredDays("随便什么时候都行"); got != nil {
		t.Errorf("无法识别时应返回 nil，实际 %v", got)
	}
}

func TestToggleDay(t *testing.T) {
	selected := []string{"周一", "周五"}

	// 选中新的一天，保持星期顺序
	got := ToggleDay(selected, "周三")
	want := []string{"周一", "周三", "周五"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("期望 %v，实际 %v", want, got)
	}

	// 再次点击取消选中
	got = ToggleDay(got, "周三")
	if !reflect.DeepEqual(got, selected) {
		t.Errorf("期望 %v，实际 %v", selected, got)
	}

	// 取消最后一天得到空选择
	got = ToggleDay([]string{"周日"}, "周日")
	if len(got) != 0 {
		t.Errorf("期望空选择，实际 %v", got)
	}
}
