package bot

import (
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"staffbot/internal/model"
)

// mainMenuKeyboard 用户主菜单
func mainMenuKeyboard() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("📋 查看可报名班次", "view_shifts"),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("📝 我的班次", "my_shifts"),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("🔄 更新可用时间", "update_availability"),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("📅 导出我的班次日历", "export_calendar"),
		),
	)
}

// daysKeyboard 星期多选键盘，两列布局；prefix 区分不同对话场景的回调
func daysKeyboard(selected []string, prefix string) tgbotapi.InlineKeyboardMarkup {
	set := make(map[string]bool, len(selected))
	for _, d := range selected {
		set[d] = true
	}

	var rows [][]tgbotapi.InlineKeyboardButton
	var row []tgbotapi.InlineKeyboardButton
	for _, day := range WeekDays {
		label := day
		if set[day] {
			label = "✅ " + day
		}
		row = append(row, tgbotapi.NewInlineKeyboardButtonData(label, prefix+"day_"+day))
		if len(row) == 2 {
			rows = append(rows, row)
			row = nil
		}
	}
	if len(row) > 0 {
		rows = append(rows, row)
	}
	rows = append(rows, tgbotapi.NewInlineKeyboardRow(
		tgbotapi.NewInlineKeyboardButtonData("✅ 完成", prefix+"days_done"),
	))
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

// shiftListKeyboard 班次列表键盘，每个班次一行；prefix 决定点击后的动作
func shiftListKeyboard(shifts []model.Shift, prefix string) tgbotapi.InlineKeyboardMarkup {
	var rows [][]tgbotapi.InlineKeyboardButton
	for _, shift := range shifts {
		label := shift.Date.Format("01-02 15:04")
		if shift.Description != "" {
			label += " · " + truncate(shift.Description, 20)
		}
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(label, fmt.Sprintf("%s%d", prefix, shift.ID)),
		))
	}
	rows = append(rows, tgbotapi.NewInlineKeyboardRow(
		tgbotapi.NewInlineKeyboardButtonData("« 返回", "main_menu"),
	))
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

// adminShiftListKeyboard 管理端班次列表，返回键回到管理菜单
func adminShiftListKeyboard(shifts []model.Shift, prefix string) tgbotapi.InlineKeyboardMarkup {
	var rows [][]tgbotapi.InlineKeyboardButton
	for _, shift := range shifts {
		label := shift.Date.Format("01-02 15:04")
		if shift.Description != "" {
			label += " · " + truncate(shift.Description, 20)
		}
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(label, fmt.Sprintf("%s%d", prefix, shift.ID)),
		))
	}
	rows = append(rows, tgbotapi.NewInlineKeyboardRow(
		tgbotapi.NewInlineKeyboardButtonData("« 返回管理菜单", "admin_back"),
	))
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

// adminMenuKeyboard 管理员主菜单
func adminMenuKeyboard() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("📅 班次管理", "admin_shifts"),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("👥 人员管理", "admin_users"),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("📢 发送群发消息", "admin_broadcast"),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("⚙️ 系统设置", "admin_settings"),
		),
	)
}

// adminShiftsMenuKeyboard 班次管理子菜单
func adminShiftsMenuKeyboard() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("➕ 新建班次", "admin_add_shift"),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("✏️ 编辑班次", "admin_edit_shift_list"),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("🗄 归档班次", "admin_archive_list"),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("👥 查看参与者", "admin_participants_list"),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("📝 记录完成情况", "admin_completed_list"),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("📊 导出名册 Excel", "admin_export_roster"),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("« 返回", "admin_back"),
		),
	)
}

// adminUsersMenuKeyboard 人员管理子菜单
func adminUsersMenuKeyboard() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("📄 人员列表", "admin_users_list"),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("⭐ 修改评分", "admin_change_rating"),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("« 返回", "admin_back"),
		),
	)
}

// adminSettingsMenuKeyboard 系统设置子菜单
func adminSettingsMenuKeyboard() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("💬 设置工作群 ID", "admin_set_work_group"),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("📣 设置通知频道 ID", "admin_set_channel"),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("« 返回", "admin_back"),
		),
	)
}

// shiftDetailKeyboard 班次详情下的操作键
func shiftDetailKeyboard(shiftID int64, booked bool) tgbotapi.InlineKeyboardMarkup {
	var action tgbotapi.InlineKeyboardButton
	if booked {
		action = tgbotapi.NewInlineKeyboardButtonData("❌ 取消报名", fmt.Sprintf("cancel_shift_%d", shiftID))
	} else {
		action = tgbotapi.NewInlineKeyboardButtonData("✅ 报名", fmt.Sprintf("book_shift_%d", shiftID))
	}
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(action),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("« 返回", "view_shifts"),
		),
	)
}

// editShiftKeyboard 编辑班次的字段选择
func editShiftKeyboard(shiftID int64) tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("🕐 修改时间", fmt.Sprintf("edit_date_%d", shiftID)),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("📝 修改描述", fmt.Sprintf("edit_desc_%d", shiftID)),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("« 返回", "admin_edit_shift_list"),
		),
	)
}

func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max]) + "…"
}
