package config

import "strings"

// ListFlag is a repeatable string flag: every occurrence appends a value.
type ListFlag []string

func (l *ListFlag) String() string {
	return strings.Join(*l, ",")
}

func (l *ListFlag) Set(v string) error {
	*l = append(*l, v)
	return nil
}
