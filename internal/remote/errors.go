// Copyright 2026 The pulsefitLocal Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package remote

import (
	"errors"
	"fmt"
)

// statusErr represents a non-2xx response from the backend.
type statusErr struct {
	code int
	msg  string
}

func (e statusErr) Error() string {
	return fmt.Sprintf("unexpected status %d: %s", e.code, e.msg)
}

// StatusCode extracts the HTTP status from an error produced by a remote
// attempt, or 0 when the error carries none (transport failures, shape
// mismatches).
func StatusCode(err error) int {
	var se statusErr
	if errors.As(err, &se) {
		return se.code
	}
	return 0
}
