// Package scan implements the parallel filesystem scanning and
// aggregation engine.
//
// A Controller drives a pool of directory walkers over a shared work
// queue, streams discovered entries into an aggregator that maintains a
// live directory-size tree, and exposes consistent point-in-time
// snapshots of that tree while the scan is still running. Symlink
// cycles are broken by canonical-path deduplication, per-entry errors
// are counted but never abort a scan, and cancellation is cooperative
// at directory granularity.
package scan
