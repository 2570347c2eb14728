// Package resume computes where an interrupted migration can safely continue.
//
// Every destination repository keeps its own progress log, and a run may
// have been interrupted while some repositories had committed revision N
// and others had not. [Resolve] reconciles those logs against a shared
// cutoff: the highest revision that is not yet proven safe to resume past.
//
// The cutoff starts at the requested resume point (or [Unbounded]). Each
// repository may lower it while reading its log. When a repository lowers
// the cutoff below a revision an earlier repository already claimed, the
// pass is abandoned and restarted with the smaller cutoff so that every
// repository is rewound to the same boundary. The cutoff strictly
// decreases on every restart and never drops below 1, so the search ends.
package resume
