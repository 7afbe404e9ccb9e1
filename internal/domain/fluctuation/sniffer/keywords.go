// Package sniffer infers the structure of schema-less detail sheets: where the header row
// is, how its labels read once deduplicated, and which columns hold the posting date, the
// classification text and the remark.
package sniffer

import (
	"strings"

	"github.com/cloudflare/ahocorasick"
)

// Header keywords per column role. Earlier tiers are more specific and win over later ones.
var (
	dateKeywords = [][]string{
		{"posting date", "pstng date", "tanggal", "tgl"},
		{"date", "periode", "period"},
	}
	classificationKeywords = [][]string{
		{"klasifikasi", "classification", "kategori", "jenis"},
		{"item text", "uraian", "description", "deskripsi", "text"},
	}
	remarkKeywords = [][]string{
		{"remark", "keterangan", "catatan", "alasan"},
		{"note", "reason"},
	}
)

// KeywordSet matches header labels against a list of keywords, case-insensitively and
// anywhere in the label.
type KeywordSet struct {
	matcher  *ahocorasick.Matcher
	keywords []string
}

// NewKeywordSet builds the matcher once; it is safe for concurrent use afterwards.
func NewKeywordSet(keywords ...string) *KeywordSet {
	lowered := make([]string, 0, len(keywords))
	for _, k := range keywords {
		k = strings.ToLower(strings.TrimSpace(k))
		if k != "" {
			lowered = append(lowered, k)
		}
	}

	ks := &KeywordSet{keywords: lowered}
	if len(lowered) > 0 {
		ks.matcher = ahocorasick.NewStringMatcher(lowered)
	}
	return ks
}

// Match returns the first keyword found in the label
func (k *KeywordSet) Match(label string) (string, bool) {
	if k == nil || k.matcher == nil {
		return "", false
	}
	hits := k.matcher.MatchThreadSafe([]byte(strings.ToLower(label)))
	if len(hits) == 0 {
		return "", false
	}
	best := hits[0]
	for _, h := range hits[1:] {
		if h < best {
			best = h
		}
	}
	return k.keywords[best], true
}

// FirstColumn scans headers left to right and returns the first column whose label matches,
// skipping the excluded indices. It returns -1 when nothing matches.
func (k *KeywordSet) FirstColumn(headers []string, exclude ...int) (int, string) {
	for i, h := range headers {
		if containsInt(exclude, i) {
			continue
		}
		if kw, ok := k.Match(h); ok {
			return i, kw
		}
	}
	return -1, ""
}

type tieredKeywords []*KeywordSet

func newTiered(tiers [][]string) tieredKeywords {
	out := make(tieredKeywords, len(tiers))
	for i, t := range tiers {
		out[i] = NewKeywordSet(t...)
	}
	return out
}

// find returns the column, the matched keyword and the 0-based tier that produced it.
func (t tieredKeywords) find(headers []string, exclude ...int) (col int, keyword string, tier int) {
	for i, ks := range t {
		if col, kw := ks.FirstColumn(headers, exclude...); col >= 0 {
			return col, kw, i
		}
	}
	return -1, "", -1
}

func containsInt(xs []int, v int) bool {
	for _, x := range xs {
		if x == v {
			return true
		}
	}
	return false
}
