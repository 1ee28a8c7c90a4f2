package conversation

import (
	"regexp"
	"strings"
)

// LeadSummaryMarker opens the block the model emits once it has all four fields.
const LeadSummaryMarker = "LEAD SUMMARY"

// LeadSummary is a parsed finalization block. Values are the raw line remainders.
type LeadSummary struct {
	Name          string
	Phone         string
	Reason        string
	PreferredTime string
}

var summaryLabelRE = regexp.MustCompile(`(?i)^\s*[-*•]*\s*\**\s*(name|telefon(?:nummer)?|phone|grund|anliegen|reason|wunschtermin|termin|preferred\s*time)\s*\**\s*:\s*\**\s*(.*?)\s*\**\s*$`)

var summaryLabels = map[string]Field{
	"name":          FieldName,
	"telefon":       FieldPhone,
	"telefonnummer": FieldPhone,
	"phone":         FieldPhone,
	"grund":         FieldReason,
	"anliegen":      FieldReason,
	"reason":        FieldReason,
	"wunschtermin":  FieldPreferredTime,
	"termin":        FieldPreferredTime,
	"preferredtime": FieldPreferredTime,
}

// ParseLeadSummary looks for the finalization block in model output. When the block
// carries all four labelled lines it returns the summary, the text with the block
// removed, and true. A missing or partial block returns the text unchanged and false.
func ParseLeadSummary(text string) (LeadSummary, string, bool) {
	lines := strings.Split(text, "\n")
	start := -1
	for i, line := range lines {
		if strings.Contains(strings.ToUpper(line), LeadSummaryMarker) {
			start = i
			break
		}
	}
	if start < 0 {
		return LeadSummary{}, text, false
	}

	values := make(map[Field]string, len(RequiredFields))
	end := start
	for i := start + 1; i < len(lines); i++ {
		if strings.TrimSpace(lines[i]) == "" {
			if len(values) == 0 {
				continue
			}
			break
		}
		m := summaryLabelRE.FindStringSubmatch(lines[i])
		if m == nil {
			break
		}
		label := strings.Join(strings.Fields(strings.ToLower(m[1])), "")
		field := summaryLabels[label]
		if _, seen := values[field]; !seen && m[2] != "" {
			values[field] = m[2]
		}
		end = i
	}

	for _, f := range RequiredFields {
		if values[f] == "" {
			return LeadSummary{}, text, false
		}
	}

	rest := append(append([]string(nil), lines[:start]...), lines[end+1:]...)
	return LeadSummary{
		Name:          values[FieldName],
		Phone:         values[FieldPhone],
		Reason:        values[FieldReason],
		PreferredTime: values[FieldPreferredTime],
	}, strings.TrimSpace(strings.Join(rest, "\n")), true
}
