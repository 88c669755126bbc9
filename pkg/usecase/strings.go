package usecase

import (
	"bufio"
	"context"
	"os"
	"path/filepath"
	"regexp"
	"slices"
	"strings"
	"unicode"

	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/podrelease/pkg/domain/interfaces"
	"github.com/m-mizutani/podrelease/pkg/domain/model"
	"github.com/m-mizutani/podrelease/pkg/domain/types"
)

var (
	htmlTag              = regexp.MustCompile(`<[^>]+>`)
	suspiciousDigit      = regexp.MustCompile(`%[0-9][^$]`)
	suspiciousPositional = regexp.MustCompile(`%[0-9]*\$[0-9]*[^0-9ds@]`)
)

// NewStringsValidator creates a hook checking localized .strings files when [strings] is configured
func NewStringsValidator() interfaces.ValidateHook {
	return func(ctx context.Context, rc *model.ReleaseContext) error {
		cfg := rc.Config.Strings
		if cfg == nil {
			return nil
		}
		logger := ctxlog.From(ctx)

		issues, err := ValidateStringsDir(rc.Config.Path(cfg.Dir), rc.Config.Path(cfg.ExpectedKeysDir))
		if err != nil {
			return err
		}
		if len(issues) == 0 {
			logger.Info("All .strings files appear to be correct", "dir", cfg.Dir)
			return nil
		}

		messages := make([]string, len(issues))
		for i, issue := range issues {
			messages[i] = issue.String()
			logger.Error("Invalid .strings entry", "file", issue.File, "line", issue.Line, "issue", issue.Message)
		}
		return goerr.Wrap(types.ErrStringsInvalid, "fix the .strings problems before building a release",
			goerr.V("count", len(issues)),
			goerr.V("issues", messages),
		)
	}
}

// ValidateStringsDir checks keys and content of every *.strings file in dir
func ValidateStringsDir(dir, expectedKeysDir string) ([]model.StringsIssue, error) {
	expected, err := LoadExpectedKeys(expectedKeysDir)
	if err != nil {
		return nil, err
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to read strings directory", goerr.V("dir", dir))
	}

	var issues []model.StringsIssue
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || strings.HasPrefix(name, ".") || filepath.Ext(name) != ".strings" {
			continue
		}

		lines, err := readLines(filepath.Join(dir, name))
		if err != nil {
			return nil, err
		}
		issues = append(issues, CheckStringsKeys(name, lines, expected)...)
		issues = append(issues, CheckStringsContent(name, lines)...)
	}

	return issues, nil
}

// LoadExpectedKeys reads the union of keys listed in the files of dir.
// ALL_UPPER keys are lower-cased, blank and // lines are ignored.
func LoadExpectedKeys(dir string) (map[string]bool, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to read expected keys directory", goerr.V("dir", dir))
	}

	keys := make(map[string]bool)
	for _, entry := range entries {
		if entry.IsDir() || strings.HasPrefix(entry.Name(), ".") {
			continue
		}
		lines, err := readLines(filepath.Join(dir, entry.Name()))
		if err != nil {
			return nil, err
		}
		for _, line := range lines {
			key := normalizeKey(strings.TrimSpace(line))
			if key == "" || strings.HasPrefix(key, "//") {
				continue
			}
			keys[key] = true
		}
	}
	return keys, nil
}

// CheckStringsKeys reports missing, unexpected and duplicate keys of a .strings file
// An unadapted key following one of its adaptations counts as a duplicate.
func CheckStringsKeys(file string, lines []string, expected map[string]bool) []model.StringsIssue {
	seen := make(map[string]bool)
	keys := make(map[string]bool)
	var duplicates []string

	for _, line := range lines {
		line = strings.TrimSpace(line)
		if !strings.HasPrefix(line, `"`) {
			continue
		}
		parts := strings.Split(line, `"`)
		key := normalizeKey(parts[1])
		if keys[key] || seen[key] {
			duplicates = append(duplicates, key)
			continue
		}
		seen[key] = true
		unadapted, _, _ := strings.Cut(key, "|")
		keys[unadapted] = true
	}

	var missing, unexpected []string
	for key := range expected {
		if !keys[key] {
			missing = append(missing, key)
		}
	}
	for key := range keys {
		if !expected[key] {
			unexpected = append(unexpected, key)
		}
	}
	slices.Sort(missing)
	slices.Sort(unexpected)

	var issues []model.StringsIssue
	if len(missing) > 0 {
		issues = append(issues, model.StringsIssue{File: file, Message: "missing keys: " + strings.Join(missing, ", ")})
	}
	if len(unexpected) > 0 {
		issues = append(issues, model.StringsIssue{File: file, Message: "unexpected keys: " + strings.Join(unexpected, ", ")})
	}
	if len(duplicates) > 0 {
		issues = append(issues, model.StringsIssue{File: file, Message: "duplicate keys: " + strings.Join(duplicates, ", ")})
	}
	return issues
}

// CheckStringsContent applies the typographic and format rules to each entry of a .strings file
func CheckStringsContent(file string, lines []string) []model.StringsIssue {
	var issues []model.StringsIssue
	add := func(line int, msg string) {
		issues = append(issues, model.StringsIssue{File: file, Line: line, Message: msg})
	}

	for i, raw := range lines {
		lineNum := i + 1
		line := strings.TrimSpace(raw)
		if line == "" || strings.HasPrefix(line, "//") || strings.HasPrefix(line, "/*") || !strings.Contains(line, `"`) {
			continue
		}

		line, _, _ = strings.Cut(line, " // ")
		parts := strings.Split(line, `"`)
		if len(parts) < 2 {
			continue
		}
		key := parts[1]

		switch {
		case strings.Contains(line, `\"`):
			add(lineNum, `contains '\"' rather than a curly double-quote`)
			continue
		case len(parts) < 5 || parts[0] != "" || strings.TrimSpace(parts[4]) != ";":
			add(lineNum, `does not appear to be in <"keystring" = "value";> format`)
			continue
		case len(parts) > 5:
			add(lineNum, "'"+key+"' contains a non-curly double-quote")
			continue
		}

		value := parts[3]
		for _, msg := range checkStringValue(value) {
			add(lineNum, "'"+key+"' "+msg)
		}
	}

	return issues
}

func checkStringValue(value string) []string {
	var msgs []string

	if foundOutsideTags(value, "'") {
		msgs = append(msgs, "contains a non-curly apostrophe")
	}
	if foundOutsideTags(value, "...") {
		msgs = append(msgs, "contains three dots rather than an ellipsis")
	}
	if foundOutsideTags(value, "  ") {
		msgs = append(msgs, "contains two spaces rather than a single space")
	}
	if strings.HasPrefix(value, " ") {
		msgs = append(msgs, "contains a leading space")
	}
	if strings.HasSuffix(value, " ") {
		msgs = append(msgs, "contains a trailing space")
	}
	if foundInsideTags(value, "<") || foundOutsideTags(value, "<") {
		msgs = append(msgs, "contains an unmatched '<', did you mean '&lt;'?")
	}
	if foundOutsideTags(value, ">") {
		msgs = append(msgs, "contains an unmatched '>', did you mean '&gt;'?")
	}
	if foundInsideTags(value, "‘") || foundInsideTags(value, "’") {
		msgs = append(msgs, "contains a curly apostrophe within an HTML tag")
	}
	if foundInsideTags(value, "“") || foundInsideTags(value, "”") {
		msgs = append(msgs, "contains a curly quote within an HTML tag")
	}
	if !substitutionsArePositional(value) {
		msgs = append(msgs, "contains multiple substitutions, not all with positional specifiers")
	}
	if suspiciousDigit.MatchString(value) || suspiciousPositional.MatchString(value) {
		msgs = append(msgs, "contains a suspicious substitution placeholder")
	}

	return msgs
}

func foundOutsideTags(s, value string) bool {
	return strings.Contains(htmlTag.ReplaceAllString(s, ""), value)
}

func foundInsideTags(s, value string) bool {
	return regexp.MustCompile("<[^>]*" + regexp.QuoteMeta(value)).MatchString(s)
}

// substitutionsArePositional reports false when a value has two or more % substitutions
// and any of them lacks a %N$ positional specifier
func substitutionsArePositional(s string) bool {
	first := nextPercent(s, 0)
	for first >= 0 && first < len(s)-1 {
		second := nextPercent(s, first+1)
		if second < 0 {
			break
		}
		if !isPositional(s, first+1) || !isPositional(s, second+1) {
			return false
		}
		first = second
	}
	return true
}

// nextPercent finds the next unescaped % at or after start, or -1
func nextPercent(s string, start int) int {
	find := func(from int) int {
		if from >= len(s) {
			return -1
		}
		idx := strings.IndexByte(s[from:], '%')
		if idx < 0 {
			return -1
		}
		return from + idx
	}

	loc := find(start)
	for loc > 0 && loc < len(s)-1 && s[loc-1] == '\\' {
		loc = find(loc + 1)
	}
	return loc
}

func isPositional(s string, loc int) bool {
	if loc >= len(s)-1 || !isDigit(s[loc]) {
		return false
	}
	loc++
	for loc < len(s)-1 && isDigit(s[loc]) {
		loc++
	}
	return s[loc] == '$'
}

func isDigit(b byte) bool {
	return b >= '0' && b <= '9'
}

// normalizeKey lower-cases ALL_UPPER keys and leaves mixed case keys alone
func normalizeKey(key string) string {
	hasUpper := false
	for _, r := range key {
		if unicode.IsLower(r) {
			return key
		}
		if unicode.IsUpper(r) {
			hasUpper = true
		}
	}
	if !hasUpper {
		return key
	}
	return strings.ToLower(key)
}

func readLines(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to open file", goerr.V("path", path))
	}
	defer f.Close()

	var lines []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return nil, goerr.Wrap(err, "failed to read file", goerr.V("path", path))
	}
	return lines, nil
}
