package classifier

import "regexp"

// Informational patterns. Each match subtracts one from the score.
var informationalPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)terms\s*(and|&)\s*conditions`),
	regexp.MustCompile(`(?i)terms[\s-]*of[\s-]*use`),
	regexp.MustCompile(`(?i)disclosures?`),
	regexp.MustCompile(`(?i)privacy\s*notice`),
	regexp.MustCompile(`(?i)account\s*agreements?\s*booklet`),
	regexp.MustCompile(`(?i)guide\s*to\s*benefits`),
	regexp.MustCompile(`(?i)\bbrochure\b`),
	regexp.MustCompile(`(?i)\bnewsletter\b`),
	regexp.MustCompile(`(?i)\bwhitepaper\b`),
	regexp.MustCompile(`(?i)\binfographic\b`),
	regexp.MustCompile(`(?i)\bworksheet\b`),
	regexp.MustCompile(`(?i)\bbudget\b`),
	regexp.MustCompile(`(?i)\brate\s*sheet\b`),
	regexp.MustCompile(`(?i)\blending\s*rates?\b`),
	regexp.MustCompile(`(?i)\beula\b`),
	regexp.MustCompile(`(?i)end\s*user\s*agreement`),
	regexp.MustCompile(`(?i)wiring\s*instructions?`),
	regexp.MustCompile(`(?i)program\s*rules`),
	regexp.MustCompile(`(?i)loan\s*payment\s*protection`),
	regexp.MustCompile(`(?i)rules,?\s*terms`),
}

// Actionable patterns. Each match adds one to the score.
var actionablePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\bapplication\b`),
	regexp.MustCompile(`(?i)\benrollment\b`),
	regexp.MustCompile(`(?i)\benroll\b`),
	regexp.MustCompile(`(?i)\bauthoriz(ation|e)\b`),
	regexp.MustCompile(`(?i)\brequest\b`),
	regexp.MustCompile(`(?i)\baffidavit\b`),
	regexp.MustCompile(`(?i)\battestation\b`),
	regexp.MustCompile(`(?i)\bdeclaration\b`),
	regexp.MustCompile(`(?i)\belection\b`),
	regexp.MustCompile(`(?i)\bdesignate\b`),
	regexp.MustCompile(`(?i)\bcertificat(ion|e)\b`),
	regexp.MustCompile(`(?i)\bcancel\b`),
	regexp.MustCompile(`(?i)\bmodify\b`),
	regexp.MustCompile(`(?i)\bset\s*up\b`),
	regexp.MustCompile(`(?i)\bmanage\b`),
	regexp.MustCompile(`(?i)\bclose\b.*\baccounts?\b`),
	regexp.MustCompile(`(?i)\bupdate\b`),
	regexp.MustCompile(`(?i)\badd\s*(or|&)\s*remove\b`),
	regexp.MustCompile(`(?i)\bquestionnaire\b`),
	regexp.MustCompile(`(?i)\bclaim\b`),
	regexp.MustCompile(`(?i)\bstop\s*payment\b`),
	regexp.MustCompile(`(?i)change\s*request`),
	regexp.MustCompile(`(?i)\bpayment\s*(change|authorization)\b`),
	regexp.MustCompile(`(?i)\bsuspend\b`),
}

// A bare "notice" is informational unless something actionable follows it.
// RE2 has no look-ahead, so the exclusion is checked after the last match.
var (
	noticePattern          = regexp.MustCompile(`(?i)\bnotice\b`)
	noticeExclusionPattern = regexp.MustCompile(`(?i)cancel|request|authorization`)
)

func matchesNotice(text string) bool {
	locs := noticePattern.FindAllStringIndex(text, -1)
	if len(locs) == 0 {
		return false
	}
	last := locs[len(locs)-1]
	return !noticeExclusionPattern.MatchString(text[last[1]:])
}
