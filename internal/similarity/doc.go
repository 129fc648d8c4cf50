// Package similarity provides the pure text-matching primitives shared by
// the live reconciler and the offline batch matcher.
//
// The primary operations are:
//   - Normalizing titles and filenames into a comparable form
//   - Computing longest-common-subsequence length over code points
//   - Scoring two strings with a symmetric ratio in [0, 1]
//   - Extracting part numbers ("Part One", "Pt. 2") from titles
//
// Everything in this package is deterministic and side-effect free.
package similarity
