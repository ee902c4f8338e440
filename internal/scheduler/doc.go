// Package scheduler implements a cooperative job scheduler.
//
// Jobs are evaluated by RunPending, which the owning loop calls once per
// tick; nothing here starts goroutines. Schedules are compiled with
// robfig/cron so daily HH:MM jobs survive DST transitions.
//
// The scheduler is not safe for concurrent use: it is owned by the single
// event loop that also reads operator input.
package scheduler
