package suggest

import "errors"

// ErrUnavailable indicates the suggestion provider could not produce a
// usable category. Callers treat this as a soft failure: the todo flow
// continues without a suggestion.
var ErrUnavailable = errors.New("suggestion unavailable")
