package model

import "fmt"

// StringsIssue is a problem found in a localized .strings file
type StringsIssue struct {
	File    string // Base name of the .strings file
	Line    int    // 1-based line number, 0 when the issue is not tied to a line
	Message string
}

func (i StringsIssue) String() string {
	if i.Line > 0 {
		return fmt.Sprintf("[%s] line %d: %s", i.File, i.Line, i.Message)
	}
	return fmt.Sprintf("[%s] %s", i.File, i.Message)
}
