// Package metrics provides Prometheus exporters for application metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Prometheus metrics for the check-in service.
var (
	// Counters.
	CheckinsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "checkins_total",
			Help: "Total number of check-in attempts",
		},
		[]string{"status"},
	)

	MilestonesAwardedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "milestones_awarded_total",
			Help: "Total number of milestone rewards awarded",
		},
		[]string{"kind", "label"},
	)

	CurrencyAwardedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "currency_awarded_total",
			Help: "Total virtual currency awarded through milestones",
		},
	)

	// Gauges.
	LoyaltyBadgeHolders = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "loyalty_badge_holders",
			Help: "Current number of users holding the loyalty badge",
		},
	)

	CheckinsToday = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "checkins_today",
			Help: "Number of check-ins recorded on the current day",
		},
	)

	ActiveStreaks = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "active_streaks",
			Help: "Number of users whose streak is still alive",
		},
	)

	// Histograms.
	StreakLengthAtCheckin = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "streak_length_at_checkin",
			Help:    "Streak length observed at each successful check-in",
			Buckets: prometheus.ExponentialBuckets(1, 2, 8), // 1 to 128 days
		},
	)

	// Scheduler metrics.
	SchedulerJobsRunTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scheduler_jobs_run_total",
			Help: "Total scheduler job executions",
		},
		[]string{"status"},
	)

	SchedulerLastRunTimestamp = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "scheduler_last_run_timestamp",
			Help: "Unix timestamp of last scheduler run",
		},
	)

	SchedulerJobDurationSeconds = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "scheduler_job_duration_seconds",
			Help:    "Time taken to execute the daily engagement job",
			Buckets: prometheus.ExponentialBuckets(1, 2, 8), // 1s to ~128s
		},
	)

	// Notifier metrics.
	NotificationsSentTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "notifications_sent_total",
			Help: "Total webhook notifications sent",
		},
		[]string{"type"},
	)

	NotificationsFailedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "notifications_failed_total",
			Help: "Total failed webhook notification attempts",
		},
		[]string{"reason"},
	)
)

// RecordCheckin records a check-in attempt outcome.
func RecordCheckin(status string) {
	CheckinsTotal.WithLabelValues(status).Inc()
}

// RecordMilestoneAwarded records a milestone reward.
func RecordMilestoneAwarded(kind, label string) {
	MilestonesAwardedTotal.WithLabelValues(kind, label).Inc()
}

// AddCurrencyAwarded adds to the total awarded currency counter.
func AddCurrencyAwarded(amount int64) {
	CurrencyAwardedTotal.Add(float64(amount))
}

// SetLoyaltyBadgeHolders sets the number of loyalty badge holders.
func SetLoyaltyBadgeHolders(count int64) {
	LoyaltyBadgeHolders.Set(float64(count))
}

// SetCheckinsToday sets the number of check-ins recorded today.
func SetCheckinsToday(count int64) {
	CheckinsToday.Set(float64(count))
}

// SetActiveStreaks sets the number of alive streaks.
func SetActiveStreaks(count int64) {
	ActiveStreaks.Set(float64(count))
}

// ObserveStreakLength observes the streak length after a successful check-in.
func ObserveStreakLength(days int) {
	StreakLengthAtCheckin.Observe(float64(days))
}

// RecordSchedulerJobRun records a scheduler job execution.
func RecordSchedulerJobRun(status string) {
	SchedulerJobsRunTotal.WithLabelValues(status).Inc()
}

// SetSchedulerLastRun sets the timestamp of the last scheduler run.
func SetSchedulerLastRun() {
	SchedulerLastRunTimestamp.SetToCurrentTime()
}

// ObserveSchedulerJobDuration observes the duration of a scheduler job.
func ObserveSchedulerJobDuration(seconds float64) {
	SchedulerJobDurationSeconds.Observe(seconds)
}

// RecordNotificationSent records a successful webhook notification.
func RecordNotificationSent(notificationType string) {
	NotificationsSentTotal.WithLabelValues(notificationType).Inc()
}

// RecordNotificationFailed records a failed webhook notification attempt.
func RecordNotificationFailed(reason string) {
	NotificationsFailedTotal.WithLabelValues(reason).Inc()
}
