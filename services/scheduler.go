// services/scheduler.go
package services

import (
	"log"

	"github.com/go-co-op/gocron/v2"
)

// StartMonthlyResetScheduler zeroes monthly points at 00:00 on the first of
// every month. Lifetime totals are never touched by the reset.
func (s *LeaderboardService) StartMonthlyResetScheduler() {
	sched, err := gocron.NewScheduler()
	if err != nil {
		log.Printf("[Scheduler] Failed to create scheduler: %v", err)
		return
	}
	sched.Start()

	_, err = sched.NewJob(
		gocron.MonthlyJob(
			1,
			gocron.NewDaysOfTheMonth(1),
			gocron.NewAtTimes(gocron.NewAtTime(0, 0, 0)),
		),
		gocron.NewTask(func() {
			if err := s.ResetMonthly(); err != nil {
				log.Printf("[Scheduler] Monthly reset failed: %v", err)
				return
			}
			log.Println("✅ Monthly leaderboard points reset")
		}),
	)
	if err != nil {
		log.Printf("[Scheduler] Failed to schedule monthly reset: %v", err)
	}
}
