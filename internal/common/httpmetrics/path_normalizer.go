package httpmetrics

// knownPaths are the routes the service serves. Anything else collapses to
// one label so scanners cannot grow the metric series.
var knownPaths = map[string]struct{}{
	"/health":             {},
	"/metrics":            {},
	"/api/users":          {},
	"/api/users/password": {},
	"/api/session":        {},
	"/api/session/rotate": {},
}

const unmatchedPath = "/other"

func NormalizePath(path string) string {
	if _, ok := knownPaths[path]; ok {
		return path
	}
	return unmatchedPath
}
