// Package topic provides UDPMQ topic name and filter handling: validation
// and wildcard matching with MQTT-style + and # semantics.
package topic

import "strings"

const (
	// Separator is the topic level separator.
	Separator = '/'

	// MultiWildcard matches any number of levels (must be last).
	MultiWildcard = '#'

	// SingleWildcard matches exactly one level.
	SingleWildcard = '+'

	// SysPrefix is the prefix for system topics.
	SysPrefix = '$'

	// MaxLen is the longest topic that fits a single frame: a PUBLISH
	// with an empty payload leaves 255 - 4 (header) - 1 (flags) - 2
	// (length prefix) bytes for the topic.
	MaxLen = 248
)

// ValidateName validates a topic name (no wildcards allowed).
// Returns nil if valid, otherwise an error describing the issue.
func ValidateName(name string) error {
	if len(name) == 0 {
		return ErrEmptyTopic
	}
	if len(name) > MaxLen {
		return ErrTopicTooLong
	}

	for i := 0; i < len(name); i++ {
		c := name[i]
		if c == MultiWildcard || c == SingleWildcard {
			return ErrWildcardInName
		}
		if c == 0 {
			return ErrNullCharacter
		}
	}

	return nil
}

// ValidateFilter validates a topic filter (wildcards allowed).
// Returns nil if valid, otherwise an error describing the issue.
func ValidateFilter(filter string) error {
	if len(filter) == 0 {
		return ErrEmptyTopic
	}
	if len(filter) > MaxLen {
		return ErrTopicTooLong
	}

	levels := strings.Split(filter, string(Separator))

	for i, level := range levels {
		for j := 0; j < len(level); j++ {
			if level[j] == 0 {
				return ErrNullCharacter
			}
		}

		if strings.Contains(level, string(MultiWildcard)) {
			// # must be alone in its level and be the last level
			if level != string(MultiWildcard) || i != len(levels)-1 {
				return ErrInvalidMultiWildcard
			}
		}

		if strings.Contains(level, string(SingleWildcard)) {
			// + must be alone in its level
			if level != string(SingleWildcard) {
				return ErrInvalidSingleWildcard
			}
		}
	}

	return nil
}

// Match checks if a topic name matches a topic filter.
// The filter may contain wildcards (+ and #).
func Match(filter, name string) bool {
	if len(filter) == 0 || len(name) == 0 {
		return false
	}

	// $-prefixed topics don't match filters starting with a wildcard
	if name[0] == SysPrefix {
		if filter[0] == MultiWildcard || filter[0] == SingleWildcard {
			return false
		}
	}

	return matchLevels(Levels(filter), Levels(name))
}

func matchLevels(filterLevels, nameLevels []string) bool {
	for i, filterLevel := range filterLevels {
		// Multi-level wildcard matches everything remaining
		if filterLevel == string(MultiWildcard) {
			return true
		}

		// No more name levels but filter has more
		if i >= len(nameLevels) {
			return false
		}

		// Single-level wildcard matches any single level
		if filterLevel == string(SingleWildcard) {
			continue
		}

		if filterLevel != nameLevels[i] {
			return false
		}
	}

	return len(filterLevels) == len(nameLevels)
}

// Levels splits a topic into its constituent levels.
func Levels(topic string) []string {
	return strings.Split(topic, string(Separator))
}

// HasWildcard returns true if the filter contains any wildcard characters.
func HasWildcard(filter string) bool {
	return strings.ContainsAny(filter, string(MultiWildcard)+string(SingleWildcard))
}

// IsSysTopic returns true if the topic name starts with $.
func IsSysTopic(name string) bool {
	return len(name) > 0 && name[0] == SysPrefix
}
