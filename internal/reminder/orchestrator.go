// Package reminder translates birthday subscriptions into scheduler jobs
// and keeps that mapping consistent as subscriptions change.
package reminder

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/GritsayMaxim/Birthday-Reminder-Bot/internal/domain"
	"github.com/GritsayMaxim/Birthday-Reminder-Bot/internal/scheduler"
	"github.com/GritsayMaxim/Birthday-Reminder-Bot/internal/store"
)

// Job kinds. One scheduler job exists per (chat, name, kind) at most.
const (
	Kind3Days           = "3d"
	Kind1Day            = "1d"
	KindDayNotification = "day_notification"
	KindDayCongrats     = "day_congrats"
	KindAnnual          = "annual"
)

// AllKinds lists every job kind a subscription can own.
var AllKinds = []string{Kind3Days, Kind1Day, KindDayNotification, KindDayCongrats, KindAnnual}

// congratsOffset delays the congratulation text so it arrives strictly after
// the day-of notification.
const congratsOffset = 2 * time.Second

// JobID derives the stable scheduler identifier for a job. It is recomputable
// from the subscription key alone, so cancellation needs no lookup table.
func JobID(chatID int64, name, kind string) string {
	return fmt.Sprintf("%d_%s_%s", chatID, name, kind)
}

// Sender delivers a text message to a chat. telegram.Router implements it.
type Sender interface {
	SendMessage(chatID int64, text string) error
}

// Composer produces the congratulation text for a person.
type Composer interface {
	Compose(name string, birthdate time.Time, description string) string
}

// Orchestrator maps one subscription to up to five scheduler jobs:
// 3-day and 1-day reminders, the day-of notification and congratulation,
// and the annual re-arm that keeps the chain going year after year.
type Orchestrator struct {
	log      *zap.Logger
	sched    *scheduler.Scheduler
	repo     store.Repo
	sender   Sender
	composer Composer
	now      func() time.Time
}

// New creates an Orchestrator. now must return the current instant in the
// reference timezone.
func New(log *zap.Logger, sched *scheduler.Scheduler, repo store.Repo, sender Sender, composer Composer, now func() time.Time) *Orchestrator {
	return &Orchestrator{
		log:      log,
		sched:    sched,
		repo:     repo,
		sender:   sender,
		composer: composer,
		now:      now,
	}
}

// Arm registers the jobs realizing one subscription. Jobs for the same key
// replace any pending ones, so Arm never produces duplicates. The annual
// re-arm job is registered regardless of flags: it re-reads current settings
// from the store, so edits made during the year take effect next cycle.
func (o *Orchestrator) Arm(b *domain.Birthday) error {
	next := domain.NextOccurrence(b.Birthdate, b.ReminderHour, b.ReminderMinute, o.now())

	chatID, name := b.ChatID, b.Name

	if b.Remind3Days {
		text := fmt.Sprintf("⏰ Reminder: %s's birthday is in 3 days!", name)
		if err := o.sched.Schedule(JobID(chatID, name, Kind3Days), next.AddDate(0, 0, -3), func(ctx context.Context) {
			o.sendText(chatID, text)
		}); err != nil {
			return err
		}
	}
	if b.Remind1Day {
		text := fmt.Sprintf("⏰ Reminder: %s's birthday is tomorrow!", name)
		if err := o.sched.Schedule(JobID(chatID, name, Kind1Day), next.AddDate(0, 0, -1), func(ctx context.Context) {
			o.sendText(chatID, text)
		}); err != nil {
			return err
		}
	}
	if b.RemindDay {
		if err := o.sched.Schedule(JobID(chatID, name, KindDayNotification), next, func(ctx context.Context) {
			o.fireDayNotification(ctx, chatID, name)
		}); err != nil {
			return err
		}
		if err := o.sched.Schedule(JobID(chatID, name, KindDayCongrats), next.Add(congratsOffset), func(ctx context.Context) {
			o.fireCongrats(ctx, chatID, name)
		}); err != nil {
			return err
		}
	}

	// Next year's occurrence plus one day, so it lands after the whole cycle.
	if err := o.sched.Schedule(JobID(chatID, name, KindAnnual), next.AddDate(1, 0, 1), func(ctx context.Context) {
		o.fireAnnual(ctx, chatID, name)
	}); err != nil {
		return err
	}

	o.log.Info("reminders armed",
		zap.Int64("chat", chatID),
		zap.String("name", name),
		zap.Time("next_birthday", next),
	)
	return nil
}

// Disarm cancels every job of a subscription. Idempotent: missing jobs are
// skipped silently.
func (o *Orchestrator) Disarm(chatID int64, name string) {
	for _, kind := range AllKinds {
		o.sched.Cancel(JobID(chatID, name, kind))
	}
	o.log.Info("reminders disarmed", zap.Int64("chat", chatID), zap.String("name", name))
}

// DisarmOne cancels a single job kind; used when one flag is toggled off.
func (o *Orchestrator) DisarmOne(chatID int64, name, kind string) {
	o.sched.Cancel(JobID(chatID, name, kind))
}

// Rearm brings the job set in line with the subscription's current settings:
// jobs for disabled flags are cancelled, the rest are replaced in place by
// Arm, so an enabled job is never left unregistered in between.
func (o *Orchestrator) Rearm(b *domain.Birthday) error {
	if !b.Remind3Days {
		o.sched.Cancel(JobID(b.ChatID, b.Name, Kind3Days))
	}
	if !b.Remind1Day {
		o.sched.Cancel(JobID(b.ChatID, b.Name, Kind1Day))
	}
	if !b.RemindDay {
		o.sched.Cancel(JobID(b.ChatID, b.Name, KindDayNotification))
		o.sched.Cancel(JobID(b.ChatID, b.Name, KindDayCongrats))
	}
	return o.Arm(b)
}

// Rehydrate re-derives and registers jobs for every stored subscription.
// Due instants are recomputed from birthdate and reminder time, so the
// subscription table is the only durable state the scheduler needs.
func (o *Orchestrator) Rehydrate(ctx context.Context) (int, error) {
	all, err := o.repo.ListAll(ctx)
	if err != nil {
		return 0, err
	}
	for i := range all {
		if err := o.Arm(&all[i]); err != nil {
			return 0, err
		}
	}
	o.log.Info("rehydrated subscriptions", zap.Int("count", len(all)))
	return len(all), nil
}

// --- fire-time actions ---

// sendText delivers a message; delivery failures are logged and swallowed,
// never retried.
func (o *Orchestrator) sendText(chatID int64, text string) {
	if err := o.sender.SendMessage(chatID, text); err != nil {
		o.log.Error("delivery failed", zap.Error(err), zap.Int64("chat", chatID))
	}
}

// fireDayNotification announces the birthday, with a profile link when a
// telegram handle is on record. Settings are read at fire time.
func (o *Orchestrator) fireDayNotification(ctx context.Context, chatID int64, name string) {
	b, err := o.repo.GetByChat(ctx, chatID, name)
	if err != nil {
		o.logFireLookup(err, chatID, name, KindDayNotification)
		return
	}
	text := fmt.Sprintf("🎉 Today is %s's birthday!", b.Name)
	if b.Username != "" {
		text += fmt.Sprintf("\n\n🔗 You can congratulate them here: @%s", b.Username)
	}
	text += "\n\n👇 Here is a ready-made greeting:"
	o.sendText(chatID, text)
}

// fireCongrats composes and delivers the congratulation text, reading the
// current description at fire time.
func (o *Orchestrator) fireCongrats(ctx context.Context, chatID int64, name string) {
	b, err := o.repo.GetByChat(ctx, chatID, name)
	if err != nil {
		o.logFireLookup(err, chatID, name, KindDayCongrats)
		return
	}
	text := o.composer.Compose(b.Name, b.Birthdate, b.Description)
	text += fmt.Sprintf("\n\n💌 You can send this message to %s!", b.Name)
	o.sendText(chatID, text)
}

// fireAnnual re-arms the subscription for the next cycle with fresh settings.
// A deleted subscription simply ends the chain.
func (o *Orchestrator) fireAnnual(ctx context.Context, chatID int64, name string) {
	b, err := o.repo.GetByChat(ctx, chatID, name)
	if err != nil {
		o.logFireLookup(err, chatID, name, KindAnnual)
		return
	}
	if err := o.Arm(b); err != nil {
		o.log.Error("annual re-arm failed", zap.Error(err), zap.Int64("chat", chatID), zap.String("name", name))
	}
}

func (o *Orchestrator) logFireLookup(err error, chatID int64, name, kind string) {
	if errors.Is(err, store.ErrNotFound) {
		o.log.Debug("subscription gone before firing",
			zap.Int64("chat", chatID), zap.String("name", name), zap.String("kind", kind))
		return
	}
	o.log.Error("fire-time lookup failed",
		zap.Error(err), zap.Int64("chat", chatID), zap.String("name", name), zap.String("kind", kind))
}
