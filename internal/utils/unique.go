package utils

import (
	"path"
	"strconv"
	"strings"
)

// UniqueNames hands out names that have not been used yet within one scope
// (one folder of an archive). A repeated name gets "_1", "_2", ... inserted
// before its extension. Comparison is case-insensitive because archives are
// often extracted onto case-insensitive filesystems.
type UniqueNames struct {
	used map[string]struct{}
}

func NewUniqueNames() *UniqueNames {
	return &UniqueNames{used: make(map[string]struct{})}
}

// Reserve returns name itself when still free, otherwise the first free
// suffixed variant. The returned name is marked as used.
func (u *UniqueNames) Reserve(name string) string {
	if u.used == nil {
		u.used = make(map[string]struct{})
	}
	if u.take(name) {
		return name
	}

	ext := path.Ext(name)
	return u.suffixed(strings.TrimSuffix(name, ext), ext)
}

// ReserveDir is Reserve for folder names, where a dot is not an extension
// separator ("Dr. Kiss" becomes "Dr. Kiss_1").
func (u *UniqueNames) ReserveDir(name string) string {
	if u.used == nil {
		u.used = make(map[string]struct{})
	}
	if u.take(name) {
		return name
	}
	return u.suffixed(name, "")
}

func (u *UniqueNames) suffixed(base, ext string) string {
	for i := 1; ; i++ {
		candidate := base + "_" + strconv.Itoa(i) + ext
		if u.take(candidate) {
			return candidate
		}
	}
}

// Len returns how many names were handed out.
func (u *UniqueNames) Len() int {
	return len(u.used)
}

func (u *UniqueNames) take(name string) bool {
	key := strings.ToLower(name)
	if _, ok := u.used[key]; ok {
		return false
	}
	u.used[key] = struct{}{}
	return true
}
