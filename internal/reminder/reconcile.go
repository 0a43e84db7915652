package reminder

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// reconcileSpec runs the nightly sweep well outside common reminder hours.
const reconcileSpec = "30 3 * * *"

// StartReconciler launches a daily cron sweep that heals subscriptions whose
// annual re-arm job went missing (for example after a job action failed in a
// way that broke the chain). The returned cron must be stopped on shutdown.
func (o *Orchestrator) StartReconciler(ctx context.Context, loc *time.Location) (*cron.Cron, error) {
	c := cron.New(cron.WithLocation(loc))
	if _, err := c.AddFunc(reconcileSpec, func() { o.Reconcile(ctx) }); err != nil {
		return nil, err
	}
	c.Start()
	o.log.Info("reconciler started", zap.String("spec", reconcileSpec))
	return c, nil
}

// Reconcile re-arms every subscription whose annual job is absent. The annual
// job anchors the whole chain: it is pending at all times except the moment it
// fires, so its absence means the subscription has fallen out of the
// scheduler. Per-reminder jobs are not checked individually because they are
// legitimately absent once fired within the current cycle.
func (o *Orchestrator) Reconcile(ctx context.Context) {
	all, err := o.repo.ListAll(ctx)
	if err != nil {
		o.log.Error("reconcile list failed", zap.Error(err))
		return
	}

	healed := 0
	for i := range all {
		b := &all[i]
		if _, ok := o.sched.Due(JobID(b.ChatID, b.Name, KindAnnual)); ok {
			continue
		}
		if err := o.Rearm(b); err != nil {
			o.log.Error("reconcile re-arm failed",
				zap.Error(err), zap.Int64("chat", b.ChatID), zap.String("name", b.Name))
			continue
		}
		healed++
	}
	if healed > 0 {
		o.log.Warn("reconciler re-armed lost subscriptions", zap.Int("count", healed))
	}
}
