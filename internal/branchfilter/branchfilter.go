// Package branchfilter evaluates a subscription's branch filter against the
// branch an event happened on.
package branchfilter

import "strings"

// FilterAll subscribes to every branch.
const FilterAll = "all"

// Matches reports whether branch passes the subscription filter. A nil filter
// means default-branch-only. A non-nil filter is FilterAll or a
// comma-separated list of exact names and glob patterns.
//
// Globs use * as the only wildcard, and * crosses path separators: release/*
// matches both release/v1.0 and release/v1/hotfix, but not releases/v1.
func Matches(branch string, filter *string, defaultBranch string) bool {
	if filter == nil {
		return branch == defaultBranch
	}

	value := strings.TrimSpace(*filter)
	if value == FilterAll {
		return true
	}

	for _, pattern := range strings.Split(value, ",") {
		pattern = strings.TrimSpace(pattern)
		if pattern == "" {
			continue
		}
		if !strings.Contains(pattern, "*") {
			if pattern == branch {
				return true
			}
			continue
		}
		if globMatch(pattern, branch) {
			return true
		}
	}
	return false
}

// globMatch matches name against pattern where * matches any run of
// characters, including slashes. path.Match is unsuitable here: it stops * at
// every / boundary.
func globMatch(pattern, name string) bool {
	var pi, ni int
	starPi, starNi := -1, 0

	for ni < len(name) {
		switch {
		case pi < len(pattern) && pattern[pi] == '*':
			starPi, starNi = pi, ni
			pi++
		case pi < len(pattern) && pattern[pi] == name[ni]:
			pi++
			ni++
		case starPi >= 0:
			// Backtrack: let the last * absorb one more character.
			starNi++
			pi, ni = starPi+1, starNi
		default:
			return false
		}
	}

	for pi < len(pattern) && pattern[pi] == '*' {
		pi++
	}
	return pi == len(pattern)
}
