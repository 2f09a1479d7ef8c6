// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package answer

import "errors"

// ErrEmptyQuery is returned for a blank question.
var ErrEmptyQuery = errors.New("query is empty")
