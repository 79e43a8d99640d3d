package cache

import (
	"sort"
	"strings"
)

// Kind identifies the resource family a cache entry belongs to. Staleness
// windows and invalidation are scoped per kind.
type Kind string

const (
	KindTaskList     Kind = "tasks"
	KindTaskDetail   Kind = "task"
	KindChatMessages Kind = "chat"
	KindAnalysis     Kind = "analysis"
)

// Key is a structural cache key: resource kind plus canonicalized
// filter/pagination parameters. Two requests with the same parameters in
// any order produce the same key.
type Key struct {
	Kind   Kind
	Params string
}

// NewKey builds a Key with params serialized in sorted order. Empty values
// are dropped so {status:""} and {} collide as intended.
func NewKey(kind Kind, params map[string]string) Key {
	if len(params) == 0 {
		return Key{Kind: kind}
	}

	names := make([]string, 0, len(params))
	for name, value := range params {
		if value == "" {
			continue
		}
		names = append(names, name)
	}
	sort.Strings(names)

	var b strings.Builder
	for i, name := range names {
		if i > 0 {
			b.WriteByte('&')
		}
		b.WriteString(name)
		b.WriteByte('=')
		b.WriteString(params[name])
	}
	return Key{Kind: kind, Params: b.String()}
}

// String renders the canonical form used as the map key.
func (k Key) String() string {
	if k.Params == "" {
		return string(k.Kind)
	}
	return string(k.Kind) + "?" + k.Params
}
