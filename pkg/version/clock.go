package version

import "time"

// nowFunc is a package-level seam so tests can pin commit timestamps
// without a clock abstraction library; the corpus has none for Go's
// time package, and commit timestamps are observational metadata, not
// data the store's own logic branches on.
var nowFunc = time.Now
