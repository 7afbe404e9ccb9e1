package exporter

import (
	"fmt"
	"path/filepath"
	"strings"
	"unicode/utf8"
)

// MaxSheetNameLen is the xlsx limit on sheet name length, in characters.
const MaxSheetNameLen = 31

var sheetNameReplacer = strings.NewReplacer(
	":", "_", "\\", "_", "/", "_", "?", "_", "*", "_", "[", "(", "]", ")",
)

// sheetNamer hands out valid, unique sheet names. Uniqueness is case-insensitive, as in Excel.
type sheetNamer struct {
	used map[string]bool
}

func newSheetNamer() *sheetNamer {
	return &sheetNamer{used: make(map[string]bool)}
}

func (n *sheetNamer) unique(want string) string {
	base := SanitizeSheetName(want)
	name := base
	for i := 2; n.used[strings.ToLower(name)]; i++ {
		suffix := fmt.Sprintf("_%d", i)
		name = truncateRunes(base, MaxSheetNameLen-len(suffix)) + suffix
	}
	n.used[strings.ToLower(name)] = true
	return name
}

// SanitizeSheetName replaces characters xlsx forbids in sheet names and truncates to 31
// characters. An empty result becomes "Sheet".
func SanitizeSheetName(name string) string {
	name = strings.TrimSpace(sheetNameReplacer.Replace(name))
	name = strings.Trim(name, "'")
	name = truncateRunes(name, MaxSheetNameLen)
	if strings.TrimSpace(name) == "" {
		return "Sheet"
	}
	return name
}

func truncateRunes(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	r := []rune(s)
	return string(r[:n])
}

// ExportFileName derives the download name "<basename>_HASIL.xlsx" from the uploaded name.
func ExportFileName(uploaded string) string {
	base := filepath.Base(strings.ReplaceAll(strings.TrimSpace(uploaded), "\\", "/"))
	base = strings.TrimSuffix(base, filepath.Ext(base))
	base = strings.Map(func(r rune) rune {
		switch r {
		case '"', '\r', '\n', ';':
			return -1
		}
		return r
	}, base)
	if base == "" || base == "." || base == "/" {
		base = "OI"
	}
	return base + "_HASIL.xlsx"
}
