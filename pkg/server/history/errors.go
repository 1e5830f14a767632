package history

import "errors"

// ErrNotConfigured indicates a history query was attempted with no
// HISTORY_STORE_URL configured. Callers surface this as a 503 with an
// empty history array rather than a hard failure.
var ErrNotConfigured = errors.New("history store not configured")
