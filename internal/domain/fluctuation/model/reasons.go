package model

import "strings"

// ReasonSeparator joins distinct reason strings in the rekap reason columns
const ReasonSeparator = "; "

// ReasonSet collects the distinct classification and remark texts of one account code,
// keeping first-seen order so joined output is stable.
type ReasonSet struct {
	Classifications []string
	Remarks         []string

	seenClass  map[string]struct{}
	seenRemark map[string]struct{}
}

// AccountReasonMap maps an account code to the reasons recorded for it across detail sheets.
type AccountReasonMap map[string]*ReasonSet

// Add records a classification and a remark for the account. Blank texts are ignored.
func (m AccountReasonMap) Add(account, classification, remark string) {
	account = strings.TrimSpace(account)
	classification = strings.TrimSpace(classification)
	remark = strings.TrimSpace(remark)
	if account == "" || (classification == "" && remark == "") {
		return
	}

	set, ok := m[account]
	if !ok {
		set = &ReasonSet{
			seenClass:  make(map[string]struct{}),
			seenRemark: make(map[string]struct{}),
		}
		m[account] = set
	}

	if classification != "" {
		if _, dup := set.seenClass[classification]; !dup {
			set.seenClass[classification] = struct{}{}
			set.Classifications = append(set.Classifications, classification)
		}
	}
	if remark != "" {
		if _, dup := set.seenRemark[remark]; !dup {
			set.seenRemark[remark] = struct{}{}
			set.Remarks = append(set.Remarks, remark)
		}
	}
}

// Reasons returns the joined classification (MoM) and remark (YoY) texts for an account.
// Both are empty when the account is unknown.
func (m AccountReasonMap) Reasons(account string) (mom, yoy string) {
	set, ok := m[strings.TrimSpace(account)]
	if !ok {
		return "", ""
	}
	return strings.Join(set.Classifications, ReasonSeparator), strings.Join(set.Remarks, ReasonSeparator)
}
