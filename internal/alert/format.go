package alert

import (
	"fmt"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Title renders an alert type for display, e.g. "Fall Detected".
func (t Type) Title() string {
	return cases.Title(language.English).String(strings.ToLower(strings.ReplaceAll(string(t), "_", " ")))
}

// Format renders a multi-line terminal view of a.
func Format(a Alert) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s %s - %s\n", a.Severity.Icon(), a.Severity, a.Type.Title())
	fmt.Fprintf(&b, "  Activity:         %s\n", a.Activity)
	fmt.Fprintf(&b, "  Risk Score:       %d/100\n", a.RiskScore)
	fmt.Fprintf(&b, "  Motion Intensity: %.3f\n", a.MotionIntensity)
	fmt.Fprintf(&b, "  Message:          %s\n", a.Message)
	fmt.Fprintf(&b, "  Action Required:  %s\n", a.ActionRequired)
	return b.String()
}
