// Package jobs runs the partner client's periodic work on github.com/robfig/cron/v3
// schedules with seconds precision.
//
// # Available Jobs
//
//  1. OfferPollJob - asks the offer source for a new offer while online and idle
//  2. PresencePollJob - resyncs the presence flag from the store every second
//  3. MarkerHealthJob - re-attaches the map marker every 2 seconds if a surface dropped it
//  4. WalletRefreshJob - refreshes today's earnings and broadcasts them as wallet-updated
//
// # Usage
//
//	jobManager := jobs.NewJobManager(jobs.Schedules{}, deps, logger)
//	if err := jobManager.StartAll(); err != nil {
//		return err
//	}
//	defer jobManager.StopAll()
//
// # Error Handling
//
// Expected outcomes (offline, an order already active) are not logged as errors.
// A tick that is still running when the next one is due is skipped. A job that fails
// to start stops the ones already started.
package jobs
