// Package maintenance provides background upkeep for quota storage.
//
// The Pruner deletes quota records whose owners have been idle for
// longer than the maximum full refill horizon of any configured tier.
// Such buckets have refilled to capacity, so a fresh record would
// behave identically and deletion is invisible to admission decisions.
// The Scheduler runs the pruner on a cron schedule.
package maintenance
