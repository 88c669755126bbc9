package usecase

import (
	"bufio"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/podrelease/pkg/domain/model"
	"github.com/m-mizutani/podrelease/pkg/domain/types"
)

// lineFunc receives each line of a file, including its terminator, and writes its replacement to w
type lineFunc func(line string, w io.Writer) error

// rewriteLines streams path through fn into a temporary file next to it and
// renames the temporary file over path. The original is untouched on error.
func rewriteLines(path string, fn lineFunc) (err error) {
	info, err := os.Stat(path)
	if err != nil {
		return goerr.Wrap(err, "failed to stat file", goerr.V("path", path))
	}

	src, err := os.Open(path)
	if err != nil {
		return goerr.Wrap(err, "failed to open file", goerr.V("path", path))
	}
	defer src.Close()

	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return goerr.Wrap(err, "failed to create temporary file", goerr.V("path", path))
	}
	tmpName := tmp.Name()
	closed := false
	defer func() {
		if !closed {
			_ = tmp.Close()
		}
		if err != nil {
			_ = os.Remove(tmpName)
		}
	}()

	reader := bufio.NewReader(src)
	writer := bufio.NewWriter(tmp)
	for {
		line, readErr := reader.ReadString('\n')
		if len(line) > 0 {
			if err := fn(line, writer); err != nil {
				return err
			}
		}
		if readErr == io.EOF {
			break
		}
		if readErr != nil {
			return goerr.Wrap(readErr, "failed to read file", goerr.V("path", path))
		}
	}

	if err := writer.Flush(); err != nil {
		return goerr.Wrap(err, "failed to write temporary file", goerr.V("path", tmpName))
	}
	if err := tmp.Chmod(info.Mode().Perm()); err != nil {
		return goerr.Wrap(err, "failed to set permissions", goerr.V("path", tmpName))
	}
	closed = true
	if err := tmp.Close(); err != nil {
		return goerr.Wrap(err, "failed to close temporary file", goerr.V("path", tmpName))
	}
	if err := os.Rename(tmpName, path); err != nil {
		return goerr.Wrap(err, "failed to replace file", goerr.V("path", path))
	}

	return nil
}

// InsertAfter writes text immediately after every line of path whose trimmed
// content equals anchor. It returns the number of insertions.
func InsertAfter(path, anchor, text string) (int, error) {
	count := 0
	err := rewriteLines(path, func(line string, w io.Writer) error {
		if _, err := io.WriteString(w, line); err != nil {
			return err
		}
		if strings.TrimSpace(line) != anchor {
			return nil
		}
		if !strings.HasSuffix(line, "\n") {
			if _, err := io.WriteString(w, "\n"); err != nil {
				return err
			}
		}
		count++
		_, err := io.WriteString(w, text)
		return err
	})
	if err != nil {
		return 0, goerr.Wrap(err, "failed to insert text", goerr.V("path", path), goerr.V("anchor", anchor))
	}
	return count, nil
}

// RemoveLines drops every line of path whose trimmed content equals content
func RemoveLines(path, content string) (int, error) {
	count := 0
	err := rewriteLines(path, func(line string, w io.Writer) error {
		if strings.TrimSpace(line) == content {
			count++
			return nil
		}
		_, err := io.WriteString(w, line)
		return err
	})
	if err != nil {
		return 0, goerr.Wrap(err, "failed to remove lines", goerr.V("path", path), goerr.V("content", content))
	}
	return count, nil
}

// countLines counts the lines of path whose trimmed content equals each of contents
func countLines(path string, contents ...string) (map[string]int, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to open file", goerr.V("path", path))
	}
	defer f.Close()

	counts := make(map[string]int, len(contents))
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		for _, c := range contents {
			if line == c {
				counts[c]++
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, goerr.Wrap(err, "failed to read file", goerr.V("path", path))
	}
	return counts, nil
}

// followedByBlankLine reports whether the first line equal to anchor is followed by a blank line
func followedByBlankLine(path, anchor string) (bool, error) {
	f, err := os.Open(path)
	if err != nil {
		return false, goerr.Wrap(err, "failed to open file", goerr.V("path", path))
	}
	defer f.Close()

	found := false
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if found {
			return line == "", nil
		}
		found = line == anchor
	}
	if err := scanner.Err(); err != nil {
		return false, goerr.Wrap(err, "failed to read file", goerr.V("path", path))
	}
	return false, nil
}

// FormatEntries renders changelog entries as bullets carrying prefix
func FormatEntries(entries []string, prefix string) string {
	var b strings.Builder
	for _, entry := range entries {
		entry = strings.TrimSpace(entry)
		for _, bullet := range []string{"* ", "- "} {
			if rest, ok := strings.CutPrefix(entry, bullet); ok {
				entry = strings.TrimSpace(rest)
				break
			}
		}
		b.WriteString("* ")
		b.WriteString(prefix)
		b.WriteString(entry)
		b.WriteString("\n")
	}
	return b.String()
}

// VersionHeader renders the version heading with its underline
func VersionHeader(version string) string {
	return version + "\n" + strings.Repeat("-", len(version)) + "\n"
}

// UpdateChangelog adds a section for release under the title underline of
// the changelog at path. It runs three passes: insert the placeholder after
// the title anchor, insert the section after the placeholder, remove the
// placeholder. The section is separated from the title and from the previous
// version by one blank line.
func UpdateChangelog(path string, target model.ChangelogTarget, release model.Release) error {
	target.ApplyDefaults()
	if target.TitleAnchor == "" {
		return goerr.New("changelog title anchor is required", goerr.V("path", path))
	}

	counts, err := countLines(path, target.TitleAnchor, target.Placeholder)
	if err != nil {
		return err
	}
	if counts[target.Placeholder] > 0 {
		return goerr.Wrap(types.ErrAnchorConflict, "cannot update changelog",
			goerr.V("path", path),
			goerr.V("placeholder", target.Placeholder),
		)
	}
	if n := counts[target.TitleAnchor]; n != 1 {
		return goerr.Wrap(types.ErrAnchorNotFound, "title anchor must appear exactly once",
			goerr.V("path", path),
			goerr.V("anchor", target.TitleAnchor),
			goerr.V("count", n),
		)
	}

	blank, err := followedByBlankLine(path, target.TitleAnchor)
	if err != nil {
		return err
	}
	placeholder := "\n" + target.Placeholder + "\n"
	if !blank {
		placeholder += "\n"
	}
	if _, err := InsertAfter(path, target.TitleAnchor, placeholder); err != nil {
		return err
	}

	section := VersionHeader(release.Version) + FormatEntries(release.Entries(), target.Prefix)
	if _, err := InsertAfter(path, target.Placeholder, section); err != nil {
		return err
	}

	if _, err := RemoveLines(path, target.Placeholder); err != nil {
		return err
	}

	return nil
}

// ParseLatestRelease reads the first version section of a changelog. A
// section starts with a version line underlined by dashes and runs until the
// next section. Its non-blank lines become the release notes.
func ParseLatestRelease(lines []string) (model.Release, error) {
	isUnderline := func(i int) bool {
		if i >= len(lines) {
			return false
		}
		line := strings.TrimSpace(lines[i])
		return len(line) >= 3 && strings.Trim(line, "-") == ""
	}

	start := -1
	for i := 0; i < len(lines); i++ {
		if strings.TrimSpace(lines[i]) != "" && isUnderline(i+1) {
			start = i
			break
		}
	}
	if start < 0 {
		return model.Release{}, goerr.Wrap(types.ErrVersionNotFound, "changelog has no version section")
	}

	var notes []string
	for i := start + 2; i < len(lines); i++ {
		if isUnderline(i + 1) {
			break
		}
		if line := strings.TrimSpace(lines[i]); line != "" {
			notes = append(notes, line)
		}
	}

	return model.Release{
		Version:   strings.TrimSpace(lines[start]),
		Changelog: strings.Join(notes, "\n"),
	}, nil
}

// ReadLatestRelease parses the latest version section of the changelog at path
func ReadLatestRelease(path string) (model.Release, error) {
	lines, err := readLines(path)
	if err != nil {
		return model.Release{}, err
	}
	release, err := ParseLatestRelease(lines)
	if err != nil {
		return model.Release{}, goerr.Wrap(err, "failed to read latest release", goerr.V("path", path))
	}
	return release, nil
}
