// Copyright 2026 The pulsefitLocal Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package remote

import "fmt"

// Policy decides what happens when a remote attempt fails.
type Policy int

const (
	// AlwaysFallback serves the equivalent local result after a single
	// failed remote attempt. The default.
	AlwaysFallback Policy = iota
	// FailFast surfaces the remote error to the caller instead of falling
	// back.
	FailFast
	// RetryThenFallback retries the remote attempt a configured number of
	// times before falling back.
	RetryThenFallback
)

// ParsePolicy maps the config spelling to a Policy.
func ParsePolicy(s string) (Policy, error) {
	switch s {
	case "", "always-fallback":
		return AlwaysFallback, nil
	case "fail-fast":
		return FailFast, nil
	case "retry-then-fallback":
		return RetryThenFallback, nil
	}
	return AlwaysFallback, fmt.Errorf("remote: unknown fallback policy %q", s)
}

func (p Policy) String() string {
	switch p {
	case FailFast:
		return "fail-fast"
	case RetryThenFallback:
		return "retry-then-fallback"
	default:
		return "always-fallback"
	}
}

// Source reports which path produced a result.
type Source string

const (
	// SourceRemote means the network served the call.
	SourceRemote Source = "remote"
	// SourceCache means the local collection served the call.
	SourceCache Source = "cache"
	// SourceNone means the call failed outright.
	SourceNone Source = ""
)
