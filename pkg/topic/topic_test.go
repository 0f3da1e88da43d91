package topic

import (
	"errors"
	"strings"
	"testing"
)

func TestMatch(t *testing.T) {
	tests := []struct {
		filter string
		name   string
		want   bool
	}{
		{"a/b/c", "a/b/c", true},
		{"a/b/c", "a/b/d", false},
		{"a/b/c", "a/b", false},
		{"a/b", "a/b/c", false},
		{"home/+/temp", "home/kitchen/temp", true},
		{"home/+/temp", "home/kitchen/humidity", false},
		{"home/+/temp", "home/a/b/temp", false},
		{"+", "a", true},
		{"+", "a/b", false},
		{"office/#", "office", true},
		{"office/#", "office/desk/lamp", true},
		{"#", "anything/at/all", true},
		{"#", "$SYS/broker/uptime", false},
		{"+/broker", "$SYS/broker", false},
		{"$SYS/#", "$SYS/broker/uptime", true},
		{"", "a", false},
		{"a", "", false},
	}

	for _, tt := range tests {
		if got := Match(tt.filter, tt.name); got != tt.want {
			t.Errorf("Match(%q, %q) = %v, want %v", tt.filter, tt.name, got, tt.want)
		}
	}
}

func TestValidateName(t *testing.T) {
	tests := []struct {
		name string
		want error
	}{
		{"a/b/c", nil},
		{"", ErrEmptyTopic},
		{"a/+/c", ErrWildcardInName},
		{"a/#", ErrWildcardInName},
		{"a\x00b", ErrNullCharacter},
		{strings.Repeat("x", MaxLen), nil},
		{strings.Repeat("x", MaxLen+1), ErrTopicTooLong},
	}

	for _, tt := range tests {
		if got := ValidateName(tt.name); !errors.Is(got, tt.want) {
			t.Errorf("ValidateName(%q) = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestValidateFilter(t *testing.T) {
	tests := []struct {
		filter string
		want   error
	}{
		{"a/b/c", nil},
		{"home/+/temp", nil},
		{"office/#", nil},
		{"#", nil},
		{"+/+/+", nil},
		{"", ErrEmptyTopic},
		{"a/b#", ErrInvalidMultiWildcard},
		{"a/#/b", ErrInvalidMultiWildcard},
		{"a/b+/c", ErrInvalidSingleWildcard},
		{"a\x00b", ErrNullCharacter},
	}

	for _, tt := range tests {
		if got := ValidateFilter(tt.filter); !errors.Is(got, tt.want) {
			t.Errorf("ValidateFilter(%q) = %v, want %v", tt.filter, got, tt.want)
		}
	}
}

func TestHasWildcard(t *testing.T) {
	if HasWildcard("a/b/c") {
		t.Error("a/b/c has no wildcard")
	}
	if !HasWildcard("a/+/c") || !HasWildcard("a/#") {
		t.Error("wildcard not detected")
	}
}
