package telegram

import tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

// Button labels reused across flows.
const (
	btnSkip       = "⏭️ Skip"
	btnConfirm    = "✅ Yes, save"
	btnDecline    = "❌ No, cancel"
	btnCancel     = "❌ Cancel"
	btnSetTime    = "⏰ Change time"
	btnSetFlags   = "📅 Configure reminders"
	btnSetUser    = "🔗 Change username"
	btnEnableAll  = "✅ Enable all"
	btnDisableAll = "❌ Disable all"
	btnToggle3d   = "🔁 Toggle -3 days"
	btnToggle1d   = "🔁 Toggle -1 day"
	btnToggleDay  = "🔁 Toggle day-of"
	btnSaveFlags  = "💾 Save"
)

const startText = `🎉 <b>Welcome to Birthday Reminder Bot!</b>

I help you never forget a birthday.

<b>Commands:</b>
👤 /add — add a birthday
📋 /list — show your birthdays
🗑️ /delete — delete a birthday
⚙️ /settings — reminder settings

<b>How it works:</b>
1. You add a birthday
2. I remind you 3 days and 1 day ahead
3. On the day itself I send a ready-made greeting

⏰ All times are in the bot's reference timezone`

const askNameText = "👤 <b>STEP 1 OF 6: WHO ARE WE ADDING?</b>\n\n" +
	"Enter the <b>name</b> of the person whose birthday you want to track.\n" +
	"For example: <i>Anna, Ivan, Maria</i>"

const askDateText = "📅 <b>STEP 2 OF 6: DATE OF BIRTH</b>\n\n" +
	"Enter the <b>date of birth</b> as <b>DD.MM.YYYY</b>\n\n" +
	"For example:\n<i>15.05.1990</i> — 15 May 1990\n<i>03.12.2000</i> — 3 December 2000"

const askDescriptionText = "📝 <b>STEP 3 OF 6: EXTRA DETAILS</b>\n\n" +
	"A short note helps you remember what they like and personalizes greetings.\n\n" +
	"For example:\n<i>• Loves cats and travel</i>\n<i>• Into football</i>\n\n" +
	"Or press Skip."

const askUsernameText = "👤 <b>STEP 4 OF 6: TELEGRAM PROFILE</b>\n\n" +
	"🔗 <b>Enter their Telegram username</b> (with or without @).\n\n" +
	"Optional: with a username I can link their profile on the birthday.\n\n" +
	"Or press Skip."

const askTimeText = "⏰ <b>STEP 5 OF 6: WHEN TO REMIND?</b>\n\n" +
	"Enter the reminder time as <b>HH:MM</b>\n\n" +
	"For example:\n<i>09:00</i> — morning\n<i>13:00</i> — lunchtime\n<i>18:00</i> — evening"

func skipKeyboard() tgbotapi.ReplyKeyboardMarkup {
	kb := tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(tgbotapi.NewKeyboardButton(btnSkip)),
	)
	kb.OneTimeKeyboard = true
	return kb
}

func confirmKeyboard() tgbotapi.ReplyKeyboardMarkup {
	kb := tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(tgbotapi.NewKeyboardButton(btnConfirm)),
		tgbotapi.NewKeyboardButtonRow(tgbotapi.NewKeyboardButton(btnDecline)),
	)
	kb.OneTimeKeyboard = true
	return kb
}

func cancelKeyboard() tgbotapi.ReplyKeyboardMarkup {
	return tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(tgbotapi.NewKeyboardButton(btnCancel)),
	)
}

func settingsParamKeyboard() tgbotapi.ReplyKeyboardMarkup {
	kb := tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(tgbotapi.NewKeyboardButton(btnSetTime)),
		tgbotapi.NewKeyboardButtonRow(tgbotapi.NewKeyboardButton(btnSetFlags)),
		tgbotapi.NewKeyboardButtonRow(tgbotapi.NewKeyboardButton(btnSetUser)),
		tgbotapi.NewKeyboardButtonRow(tgbotapi.NewKeyboardButton(btnCancel)),
	)
	kb.OneTimeKeyboard = true
	return kb
}

func flagsKeyboard() tgbotapi.ReplyKeyboardMarkup {
	return tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(btnEnableAll),
			tgbotapi.NewKeyboardButton(btnDisableAll),
		),
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(btnToggle3d),
			tgbotapi.NewKeyboardButton(btnToggle1d),
		),
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(btnToggleDay),
		),
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(btnSaveFlags),
			tgbotapi.NewKeyboardButton(btnCancel),
		),
	)
}

// nameListKeyboard builds one button per tracked name plus a cancel row.
func nameListKeyboard(names []string) tgbotapi.ReplyKeyboardMarkup {
	rows := make([][]tgbotapi.KeyboardButton, 0, len(names)+1)
	for _, n := range names {
		rows = append(rows, tgbotapi.NewKeyboardButtonRow(tgbotapi.NewKeyboardButton(n)))
	}
	rows = append(rows, tgbotapi.NewKeyboardButtonRow(tgbotapi.NewKeyboardButton(btnCancel)))
	kb := tgbotapi.NewReplyKeyboard(rows...)
	kb.OneTimeKeyboard = true
	return kb
}

func onOff(b bool) string {
	if b {
		return "✅ On"
	}
	return "❌ Off"
}
