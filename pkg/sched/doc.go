// Package sched coalesces bursts of change notifications into single
// deferred flushes.
//
// A Loop is a single-threaded task queue: tasks posted to it run on the next
// Tick, one after another, never in parallel. A Scheduler sits in front of a
// Loop and keeps at most one flush pending:
//
//	loop := sched.NewLoop(sched.LoopOptions{})
//	s := sched.New(loop, sched.Options{})
//
//	for i := 0; i < 100; i++ {
//	    s.Schedule(flush)  // only the first call posts a task
//	}
//	loop.Tick()            // flush runs once
//
// The pending flag is cleared before the task runs, so a change made while a
// flush executes schedules a separate, later flush instead of being lost.
package sched
