// Package ptr builds pointers to literals for optional request fields.
package ptr

func String(v string) *string { return &v }

func Uint64(v uint64) *uint64 { return &v }
