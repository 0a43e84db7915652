package telegram

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/GritsayMaxim/Birthday-Reminder-Bot/internal/domain"
	"github.com/GritsayMaxim/Birthday-Reminder-Bot/internal/store"
)

const defaultReminderHour = 9

func (r *Router) handleStart(chatID int64) {
	r.send(chatID, startText, removeKeyboard())
}

// --- /add flow ---

func (r *Router) handleAdd(chatID int64) {
	r.setSession(chatID, &session{state: stateAddName, draft: &addDraft{hour: defaultReminderHour}})
	r.send(chatID, askNameText, removeKeyboard())
}

func (r *Router) processAddName(chatID int64, s *session, text string) {
	if len([]rune(text)) < 2 {
		r.send(chatID, "❌ The name is too short. Please enter at least 2 characters:", nil)
		return
	}
	s.draft.name = text
	s.state = stateAddDate
	r.setSession(chatID, s)
	r.send(chatID, askDateText, nil)
}

func (r *Router) processAddDate(chatID int64, s *session, text string) {
	d, err := domain.ParseBirthdate(text, r.loc, r.now())
	switch {
	case errors.Is(err, domain.ErrFutureDate):
		r.send(chatID, "⚠️ <b>ERROR:</b> the birthdate cannot be in the future!\nPlease enter a valid date:", nil)
		return
	case err != nil:
		r.send(chatID, "❌ <b>INVALID DATE FORMAT!</b>\nPlease use <b>DD.MM.YYYY</b>, e.g. <i>15.05.1990</i>", nil)
		return
	}
	s.draft.birthdate = d
	s.state = stateAddDescription
	r.setSession(chatID, s)

	age := domain.Age(d, r.now())
	head := fmt.Sprintf("<b>Adding:</b> %s\n<b>Date of birth:</b> %s\n<b>Currently:</b> %d years old\n\n",
		s.draft.name, domain.FormatDate(d), age)
	r.send(chatID, head+askDescriptionText, skipKeyboard())
}

func (r *Router) processAddDescription(chatID int64, s *session, text string) {
	if text != btnSkip {
		desc, err := domain.ValidateDescription(text)
		if err != nil {
			r.send(chatID, fmt.Sprintf("❌ <b>DESCRIPTION TOO LONG!</b>\nPlease keep it under %d characters:", domain.MaxDescriptionLen), nil)
			return
		}
		s.draft.description = desc
	}
	s.state = stateAddUsername
	r.setSession(chatID, s)
	r.send(chatID, askUsernameText, skipKeyboard())
}

func (r *Router) processAddUsername(chatID int64, s *session, text string) {
	if text != btnSkip {
		s.draft.username = domain.NormalizeUsername(text)
	}
	s.state = stateAddTime
	r.setSession(chatID, s)
	r.send(chatID, askTimeText, removeKeyboard())
}

func (r *Router) processAddTime(chatID int64, s *session, text string) {
	hour, minute, err := domain.ParseClock(text)
	if err != nil {
		r.send(chatID, "❌ <b>INVALID TIME!</b>\nPlease use <b>HH:MM</b> (hours 0-23, minutes 0-59), e.g. <i>09:00</i>", nil)
		return
	}
	s.draft.hour, s.draft.minute = hour, minute
	s.state = stateAddConfirm
	r.setSession(chatID, s)

	d := s.draft
	now := r.now()
	days := domain.DaysUntil(d.birthdate, d.hour, d.minute, now)
	summary := fmt.Sprintf(`✅ <b>STEP 6 OF 6: CONFIRMATION</b>

📋 <b>SUMMARY:</b>
👤 <b>Name:</b> %s
📅 <b>Date of birth:</b> %s
🎂 <b>Currently:</b> %d years old
📝 <b>Description:</b> %s
🔗 <b>Username:</b> %s
⏰ <b>Reminder time:</b> %s
📆 <b>Next birthday:</b> in %d days

<b>🎯 WHAT HAPPENS NEXT:</b>
1. <b>3 days before</b> — a heads-up reminder
2. <b>1 day before</b> — a reminder to get ready
3. <b>On the day</b> — a notification and a ready-made greeting

<b>Save and schedule the reminders?</b>`,
		d.name, domain.FormatDate(d.birthdate), domain.Age(d.birthdate, now),
		orDash(d.description), orDash(d.username),
		domain.FormatClock(d.hour, d.minute), days)
	r.send(chatID, summary, confirmKeyboard())
}

func (r *Router) processAddConfirm(ctx context.Context, chatID, ownerID int64, s *session, text string) {
	switch text {
	case btnConfirm:
		d := s.draft
		b := &domain.Birthday{
			OwnerID:        ownerID,
			ChatID:         chatID,
			Name:           d.name,
			Birthdate:      d.birthdate,
			Description:    d.description,
			Username:       d.username,
			ReminderHour:   d.hour,
			ReminderMinute: d.minute,
			Remind3Days:    true,
			Remind1Day:     true,
			RemindDay:      true,
		}
		if err := r.repo.Create(ctx, b); err != nil {
			if errors.Is(err, store.ErrDuplicate) {
				r.send(chatID, fmt.Sprintf("⚠️ A birthday for %s is already tracked!\nUse /delete to remove it or /settings to change it.", d.name), removeKeyboard())
			} else {
				r.log.Error("create failed", zap.Error(err))
				r.send(chatID, "Could not save the birthday. Please try again later.", removeKeyboard())
			}
			r.clearSession(chatID)
			return
		}
		if err := r.orch.Arm(b); err != nil {
			// The row is saved; jobs will be restored by rehydration/reconcile.
			r.log.Error("arm failed", zap.Error(err), zap.String("name", b.Name))
		}
		days := domain.DaysUntil(d.birthdate, d.hour, d.minute, r.now())
		r.send(chatID, fmt.Sprintf("🎉 %s's birthday has been added!\n⏰ Reminders at %s\n📆 Next birthday: in %d days",
			d.name, domain.FormatClock(d.hour, d.minute), days), removeKeyboard())
		r.clearSession(chatID)

	case btnDecline:
		r.send(chatID, "❌ Cancelled.", removeKeyboard())
		r.clearSession(chatID)

	default:
		r.send(chatID, "Please pick an option:", confirmKeyboard())
	}
}

// --- /list ---

func (r *Router) handleList(ctx context.Context, chatID, ownerID int64) {
	list, err := r.repo.ListByOwner(ctx, ownerID)
	if err != nil {
		r.log.Error("list failed", zap.Error(err))
		r.send(chatID, "Could not read your birthdays.", nil)
		return
	}
	if len(list) == 0 {
		r.send(chatID, "📭 You have no birthdays yet.\n\nAdd the first one with /add", removeKeyboard())
		return
	}

	now := r.now()
	sort.SliceStable(list, func(i, j int) bool {
		di := domain.DaysUntil(list[i].Birthdate, list[i].ReminderHour, list[i].ReminderMinute, now)
		dj := domain.DaysUntil(list[j].Birthdate, list[j].ReminderHour, list[j].ReminderMinute, now)
		return di < dj
	})

	r.send(chatID, "📋 <b>Your birthdays:</b>", removeKeyboard())
	for _, b := range list {
		next := domain.NextOccurrence(b.Birthdate, b.ReminderHour, b.ReminderMinute, now)
		days := domain.DaysUntil(b.Birthdate, b.ReminderHour, b.ReminderMinute, now)
		turning := domain.Age(b.Birthdate, next)

		text := fmt.Sprintf("👤 <b>%s</b>\n📅 Born: %s\n🎂 Turning: %d\n⏰ Reminder: %s\n",
			b.Name, domain.FormatDate(b.Birthdate), turning,
			domain.FormatClock(b.ReminderHour, b.ReminderMinute))
		switch days {
		case 0:
			text += "📆 <b>🎉 BIRTHDAY TODAY!</b>\n"
		case 1:
			text += "📆 <b>Tomorrow!</b>\n"
		default:
			text += fmt.Sprintf("📆 In %d days\n", days)
		}
		if b.Description != "" {
			text += "📝 " + b.Description + "\n"
		}
		if b.Username != "" {
			text += "🔗 Profile: @" + b.Username
		}
		r.send(chatID, text, nil)
	}
}

// --- /delete flow ---

func (r *Router) handleDelete(ctx context.Context, chatID, ownerID int64) {
	names, ok := r.trackedNames(ctx, chatID, ownerID)
	if !ok {
		return
	}
	r.setSession(chatID, &session{state: stateDeleteName})
	r.send(chatID, "🗑️ Pick the birthday to delete:", nameListKeyboard(names))
}

func (r *Router) processDeleteName(ctx context.Context, chatID, ownerID int64, s *session, text string) {
	if text == btnCancel {
		r.send(chatID, "❌ Deletion cancelled.", removeKeyboard())
		r.clearSession(chatID)
		return
	}
	if _, err := r.repo.GetByOwner(ctx, ownerID, text); err != nil {
		r.send(chatID, fmt.Sprintf("❌ No birthday found for %s.", text), removeKeyboard())
		r.clearSession(chatID)
		return
	}
	s.target = text
	s.state = stateDeleteConfirm
	r.setSession(chatID, s)
	r.send(chatID, fmt.Sprintf("⚠️ Are you sure you want to delete %s?\n\nThis cannot be undone!", text), confirmKeyboard())
}

func (r *Router) processDeleteConfirm(ctx context.Context, chatID, ownerID int64, s *session, text string) {
	defer r.clearSession(chatID)
	if text != btnConfirm {
		r.send(chatID, "❌ Deletion cancelled.", removeKeyboard())
		return
	}

	b, err := r.repo.GetByOwner(ctx, ownerID, s.target)
	if err != nil {
		r.send(chatID, fmt.Sprintf("❌ No birthday found for %s.", s.target), removeKeyboard())
		return
	}

	// Jobs must be gone before the row: a deleted subscription never fires.
	r.orch.Disarm(b.ChatID, b.Name)
	if err := r.repo.Delete(ctx, ownerID, s.target); err != nil {
		r.log.Error("delete failed", zap.Error(err))
		r.send(chatID, "Could not delete. Please try again later.", removeKeyboard())
		return
	}
	r.send(chatID, fmt.Sprintf("✅ %s's birthday has been deleted.\nAll reminders are cancelled.", s.target), removeKeyboard())
}

// --- /settings flow ---

func (r *Router) handleSettings(ctx context.Context, chatID, ownerID int64) {
	list, err := r.repo.ListByOwner(ctx, ownerID)
	if err != nil {
		r.log.Error("list failed", zap.Error(err))
		r.send(chatID, "Could not read your birthdays.", nil)
		return
	}
	if len(list) == 0 {
		r.send(chatID, "📭 You have no birthdays yet.\n\nAdd the first one with /add", removeKeyboard())
		return
	}

	var sb strings.Builder
	sb.WriteString("⚙️ <b>Reminder settings</b>\n\n📋 Pick a name to configure:\n\n")
	names := make([]string, 0, len(list))
	for _, b := range list {
		names = append(names, b.Name)
		sb.WriteString(fmt.Sprintf("👤 <b>%s</b>\n   ⏰ Time: %s\n   📅 -3 days: %s | -1 day: %s | day-of: %s\n\n",
			b.Name, domain.FormatClock(b.ReminderHour, b.ReminderMinute),
			onOff(b.Remind3Days), onOff(b.Remind1Day), onOff(b.RemindDay)))
	}

	r.setSession(chatID, &session{state: stateSettingsName})
	r.send(chatID, sb.String(), nameListKeyboard(names))
}

func (r *Router) processSettingsName(ctx context.Context, chatID, ownerID int64, s *session, text string) {
	if text == btnCancel {
		r.send(chatID, "❌ Settings closed.", removeKeyboard())
		r.clearSession(chatID)
		return
	}
	b, err := r.repo.GetByOwner(ctx, ownerID, text)
	if err != nil {
		r.send(chatID, fmt.Sprintf("❌ No birthday found for %s.", text), removeKeyboard())
		r.clearSession(chatID)
		return
	}
	s.target = b.Name
	s.r3d, s.r1d, s.rd = b.Remind3Days, b.Remind1Day, b.RemindDay
	s.state = stateSettingsParam
	r.setSession(chatID, s)

	text = fmt.Sprintf(`⚙️ <b>Settings for: %s</b>

📅 Date of birth: %s
⏰ Current time: %s
🔗 Username: %s
📅 Reminders:
   • 3 days before: %s
   • 1 day before: %s
   • On the day: %s

Pick what to change:`,
		b.Name, domain.FormatDate(b.Birthdate),
		domain.FormatClock(b.ReminderHour, b.ReminderMinute),
		orDash(b.Username), onOff(b.Remind3Days), onOff(b.Remind1Day), onOff(b.RemindDay))
	r.send(chatID, text, settingsParamKeyboard())
}

func (r *Router) processSettingsParam(chatID int64, s *session, text string) {
	switch text {
	case btnCancel:
		r.send(chatID, "❌ Settings closed.", removeKeyboard())
		r.clearSession(chatID)
	case btnSetTime:
		s.state = stateSettingsTime
		r.setSession(chatID, s)
		r.send(chatID, fmt.Sprintf("⏰ Enter the new reminder time for %s as <b>HH:MM</b>:", s.target), cancelKeyboard())
	case btnSetFlags:
		s.state = stateSettingsFlags
		r.setSession(chatID, s)
		r.sendFlagsState(chatID, s)
	case btnSetUser:
		s.state = stateSettingsUsername
		r.setSession(chatID, s)
		r.send(chatID, fmt.Sprintf("🔗 Enter the new username for %s (with or without @),\nor send <b>delete</b> to remove it:", s.target), cancelKeyboard())
	default:
		r.send(chatID, "Please pick a parameter from the list.", settingsParamKeyboard())
	}
}

func (r *Router) sendFlagsState(chatID int64, s *session) {
	text := fmt.Sprintf("✏️ Reminders for %s:\n\n• 3 days before: %s\n• 1 day before: %s\n• On the day: %s\n\nToggle what you need, then press Save.",
		s.target, onOff(s.r3d), onOff(s.r1d), onOff(s.rd))
	r.send(chatID, text, flagsKeyboard())
}

func (r *Router) processSettingsTime(ctx context.Context, chatID, ownerID int64, s *session, text string) {
	if text == btnCancel {
		r.send(chatID, "❌ Settings closed.", removeKeyboard())
		r.clearSession(chatID)
		return
	}
	hour, minute, err := domain.ParseClock(text)
	if err != nil {
		r.send(chatID, "❌ Invalid time. Please use <b>HH:MM</b> (hours 0-23, minutes 0-59):", nil)
		return
	}
	if err := r.repo.UpdateReminderTime(ctx, ownerID, s.target, hour, minute); err != nil {
		r.log.Error("update time failed", zap.Error(err))
		r.send(chatID, "Could not save the time.", removeKeyboard())
		r.clearSession(chatID)
		return
	}
	r.rearmFresh(ctx, chatID, ownerID, s.target)
	r.send(chatID, fmt.Sprintf("✅ Reminder time for %s changed to %s", s.target, domain.FormatClock(hour, minute)), removeKeyboard())
	r.clearSession(chatID)
}

func (r *Router) processSettingsFlags(ctx context.Context, chatID, ownerID int64, s *session, text string) {
	switch text {
	case btnCancel:
		r.send(chatID, "❌ Settings closed.", removeKeyboard())
		r.clearSession(chatID)
		return
	case btnEnableAll:
		s.r3d, s.r1d, s.rd = true, true, true
	case btnDisableAll:
		s.r3d, s.r1d, s.rd = false, false, false
	case btnToggle3d:
		s.r3d = !s.r3d
		r.setSession(chatID, s)
		r.sendFlagsState(chatID, s)
		return
	case btnToggle1d:
		s.r1d = !s.r1d
		r.setSession(chatID, s)
		r.sendFlagsState(chatID, s)
		return
	case btnToggleDay:
		s.rd = !s.rd
		r.setSession(chatID, s)
		r.sendFlagsState(chatID, s)
		return
	case btnSaveFlags:
		// fall through to save below
	default:
		r.send(chatID, "Please pick an option from the list.", flagsKeyboard())
		return
	}

	if err := r.repo.UpdateFlags(ctx, ownerID, s.target, s.r3d, s.r1d, s.rd); err != nil {
		r.log.Error("update flags failed", zap.Error(err))
		r.send(chatID, "Could not save the reminder settings.", removeKeyboard())
		r.clearSession(chatID)
		return
	}
	r.rearmFresh(ctx, chatID, ownerID, s.target)
	r.send(chatID, fmt.Sprintf("✅ Reminder settings for %s updated:\n\n• 3 days before: %s\n• 1 day before: %s\n• On the day: %s",
		s.target, onOff(s.r3d), onOff(s.r1d), onOff(s.rd)), removeKeyboard())
	r.clearSession(chatID)
}

func (r *Router) processSettingsUsername(ctx context.Context, chatID, ownerID int64, s *session, text string) {
	if text == btnCancel {
		r.send(chatID, "❌ Settings closed.", removeKeyboard())
		r.clearSession(chatID)
		return
	}
	username := ""
	if !strings.EqualFold(text, "delete") {
		username = domain.NormalizeUsername(text)
	}
	if err := r.repo.UpdateUsername(ctx, ownerID, s.target, username); err != nil {
		r.log.Error("update username failed", zap.Error(err))
		r.send(chatID, "Could not save the username.", removeKeyboard())
		r.clearSession(chatID)
		return
	}
	// No rearm needed: day-of jobs read the username at fire time.
	if username != "" {
		r.send(chatID, fmt.Sprintf("✅ Username for %s updated: @%s", s.target, username), removeKeyboard())
	} else {
		r.send(chatID, fmt.Sprintf("✅ Username for %s removed", s.target), removeKeyboard())
	}
	r.clearSession(chatID)
}

// --- helpers ---

// trackedNames lists the caller's subscription names; replies and reports
// false when there is nothing to pick from.
func (r *Router) trackedNames(ctx context.Context, chatID, ownerID int64) ([]string, bool) {
	list, err := r.repo.ListByOwner(ctx, ownerID)
	if err != nil {
		r.log.Error("list failed", zap.Error(err))
		r.send(chatID, "Could not read your birthdays.", nil)
		return nil, false
	}
	if len(list) == 0 {
		r.send(chatID, "📭 You have no birthdays yet.", removeKeyboard())
		return nil, false
	}
	names := make([]string, 0, len(list))
	for _, b := range list {
		names = append(names, b.Name)
	}
	return names, true
}

// rearmFresh re-reads the subscription and brings its job set up to date.
func (r *Router) rearmFresh(ctx context.Context, chatID, ownerID int64, name string) {
	b, err := r.repo.GetByOwner(ctx, ownerID, name)
	if err != nil {
		r.log.Error("rearm read failed", zap.Error(err), zap.String("name", name))
		return
	}
	if err := r.orch.Rearm(b); err != nil {
		r.log.Error("rearm failed", zap.Error(err), zap.String("name", name))
	}
}

func orDash(s string) string {
	if s == "" {
		return "—"
	}
	return s
}
