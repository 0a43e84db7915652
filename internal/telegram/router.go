package telegram

import (
	"context"
	"strings"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/GritsayMaxim/Birthday-Reminder-Bot/internal/reminder"
	"github.com/GritsayMaxim/Birthday-Reminder-Bot/internal/store"
)

// Conversation states for the multi-step flows.
const (
	stateAddName        = "add_name"
	stateAddDate        = "add_date"
	stateAddDescription = "add_description"
	stateAddUsername    = "add_username"
	stateAddTime        = "add_time"
	stateAddConfirm     = "add_confirm"

	stateDeleteName    = "delete_name"
	stateDeleteConfirm = "delete_confirm"

	stateSettingsName     = "settings_name"
	stateSettingsParam    = "settings_param"
	stateSettingsTime     = "settings_time"
	stateSettingsFlags    = "settings_flags"
	stateSettingsUsername = "settings_username"
)

// addDraft accumulates the /add form across steps.
type addDraft struct {
	name        string
	birthdate   time.Time
	description string
	username    string
	hour        int
	minute      int
}

// session is the per-chat conversational state (in-memory, non-persistent).
type session struct {
	state  string
	draft  *addDraft
	target string // name picked in delete/settings flows
	// working copy of reminder flags while editing
	r3d, r1d, rd bool
}

// Router wires Telegram updates to handlers and holds per-chat form state.
type Router struct {
	bot  *tgbotapi.BotAPI
	log  *zap.Logger
	repo store.Repo
	orch *reminder.Orchestrator
	loc  *time.Location
	now  func() time.Time

	mu       sync.Mutex
	sessions map[int64]*session
}

// NewRouter creates a new Telegram router. The orchestrator is injected
// separately via SetOrchestrator once it exists.
func NewRouter(bot *tgbotapi.BotAPI, log *zap.Logger, repo store.Repo, loc *time.Location) *Router {
	return &Router{
		bot:      bot,
		log:      log,
		repo:     repo,
		loc:      loc,
		now:      func() time.Time { return time.Now().In(loc) },
		sessions: make(map[int64]*session),
	}
}

// SetOrchestrator injects the reminder orchestrator. The router is built
// first because it is also the orchestrator's message sender.
func (r *Router) SetOrchestrator(orch *reminder.Orchestrator) {
	r.orch = orch
}

func (r *Router) setSession(chatID int64, s *session) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[chatID] = s
}

func (r *Router) getSession(chatID int64) *session {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.sessions[chatID]
}

func (r *Router) clearSession(chatID int64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, chatID)
}

// HandleUpdate routes a single update to the appropriate handler.
func (r *Router) HandleUpdate(ctx context.Context, upd tgbotapi.Update) {
	if upd.Message == nil {
		return
	}
	msg := upd.Message
	chatID := msg.Chat.ID
	text := strings.TrimSpace(msg.Text)

	// Commands abort any flow in progress.
	switch {
	case strings.HasPrefix(text, "/start"):
		r.clearSession(chatID)
		r.handleStart(chatID)
		return
	case strings.HasPrefix(text, "/add"):
		r.handleAdd(chatID)
		return
	case strings.HasPrefix(text, "/list"):
		r.clearSession(chatID)
		r.handleList(ctx, chatID, msg.From.ID)
		return
	case strings.HasPrefix(text, "/delete"), strings.HasPrefix(text, "/del"), strings.HasPrefix(text, "/remove"):
		r.handleDelete(ctx, chatID, msg.From.ID)
		return
	case strings.HasPrefix(text, "/settings"):
		r.handleSettings(ctx, chatID, msg.From.ID)
		return
	}

	s := r.getSession(chatID)
	if s == nil {
		return // free-form text outside any flow is ignored
	}

	switch s.state {
	case stateAddName:
		r.processAddName(chatID, s, text)
	case stateAddDate:
		r.processAddDate(chatID, s, text)
	case stateAddDescription:
		r.processAddDescription(chatID, s, text)
	case stateAddUsername:
		r.processAddUsername(chatID, s, text)
	case stateAddTime:
		r.processAddTime(chatID, s, text)
	case stateAddConfirm:
		r.processAddConfirm(ctx, chatID, msg.From.ID, s, text)
	case stateDeleteName:
		r.processDeleteName(ctx, chatID, msg.From.ID, s, text)
	case stateDeleteConfirm:
		r.processDeleteConfirm(ctx, chatID, msg.From.ID, s, text)
	case stateSettingsName:
		r.processSettingsName(ctx, chatID, msg.From.ID, s, text)
	case stateSettingsParam:
		r.processSettingsParam(chatID, s, text)
	case stateSettingsTime:
		r.processSettingsTime(ctx, chatID, msg.From.ID, s, text)
	case stateSettingsFlags:
		r.processSettingsFlags(ctx, chatID, msg.From.ID, s, text)
	case stateSettingsUsername:
		r.processSettingsUsername(ctx, chatID, msg.From.ID, s, text)
	default:
		r.clearSession(chatID)
	}
}

// SendMessage sends a plain HTML-formatted message to the given chat.
// This makes Router satisfy reminder.Sender.
func (r *Router) SendMessage(chatID int64, text string) error {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	_, err := r.bot.Send(msg)
	return err
}

// send delivers a message with an optional reply keyboard, logging failures.
func (r *Router) send(chatID int64, text string, markup interface{}) {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	if markup != nil {
		msg.ReplyMarkup = markup
	}
	if _, err := r.bot.Send(msg); err != nil {
		r.log.Error("send failed", zap.Error(err), zap.Int64("chat", chatID))
	}
}

func removeKeyboard() tgbotapi.ReplyKeyboardRemove {
	return tgbotapi.NewRemoveKeyboard(true)
}
