// Package timeseries keeps multi-resolution caches of large, growing
// time series so that a plot can be redrawn every frame without handing
// more than a bounded number of points to the rendering surface.
//
// A Memory owns one Line per named series. Each Line stores level 0
// (every non-gap sample, X translated to float64) and up to MaxLevels
// coarser levels, each built by reducing fixed-size buckets of the
// previous level to two points (min and max). Query picks the finest
// level whose visible slice fits the point budget.
//
// Update inspects only the length and the first sample of the supplied
// sequence to decide what changed:
//
//   - Appending samples at the end is detected and only the new suffix is
//     folded into the caches.
//   - Inserting samples at the start, deleting samples, or changing the
//     first sample is detected and triggers a full rebuild.
//   - Modifying samples without changing the length or the first sample is
//     NOT detected. The caches keep serving the old points until
//     ClearCaches is called. Callers that edit data in place (for example
//     after reloading a file) must call ClearCaches themselves.
//
// Memory and Line are not safe for concurrent use. Update may be called
// from a producer goroutine ahead of a frame as long as the caller
// serializes it with every other call on the same Memory.
package timeseries
