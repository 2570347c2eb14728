// Package export replays a resolved revision interval into the destination
// repositories.
//
// BuildRange turns the resume resolution and the optional --max-rev bound
// into a closed Interval. Session.Run walks that interval in ascending
// order, hands each revision to the source reader and stops at the first
// failure. Tag finalization runs once per repository after the loop,
// however it ended.
package export
