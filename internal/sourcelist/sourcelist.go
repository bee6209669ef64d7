// Package sourcelist reads the repositories selected for migration.
package sourcelist

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/afero"

	"github.com/temirov/gitmigrate/internal/gitrepo"
)

const (
	commentPrefixConstant         = "#"
	openListErrorTemplateConstant = "open source list %s: %w"
	readListErrorTemplateConstant = "read source list after line %d: %w"
	invalidEntryTemplateConstant  = "source list line %d: %v"
	lineLabelTemplateConstant     = "line %d"
)

// InvalidEntry is a source list line that does not name a repository.
type InvalidEntry struct {
	Line  int
	Value string
	Err   error
}

// Error describes the rejected line.
func (entry InvalidEntry) Error() string {
	return fmt.Sprintf(invalidEntryTemplateConstant, entry.Line, entry.Err)
}

// Unwrap exposes the parse failure.
func (entry InvalidEntry) Unwrap() error {
	return entry.Err
}

// Label names the entry for reports: its raw value, or its line number when the value is empty.
func (entry InvalidEntry) Label() string {
	if len(entry.Value) == 0 {
		return fmt.Sprintf(lineLabelTemplateConstant, entry.Line)
	}
	return entry.Value
}

// List holds the parsed repositories in file order and every rejected line.
type List struct {
	Identifiers []gitrepo.RepositoryIdentifier
	Invalid     []InvalidEntry
}

// Empty reports whether the list names nothing at all, valid or not.
func (list List) Empty() bool {
	return len(list.Identifiers) == 0 && len(list.Invalid) == 0
}

// Load parses owner/name identifiers or repository URLs, one per line. Only the
// first CSV column is used; blank lines and lines starting with # are ignored.
// A line that cannot be parsed is collected in List.Invalid and never stops the
// read; only an I/O failure is returned as an error.
func Load(reader io.Reader) (List, error) {
	list := List{Identifiers: []gitrepo.RepositoryIdentifier{}}
	scanner := bufio.NewScanner(reader)
	lineNumber := 0
	for scanner.Scan() {
		lineNumber++
		line := strings.TrimSpace(scanner.Text())
		if len(line) == 0 || strings.HasPrefix(line, commentPrefixConstant) {
			continue
		}

		firstColumn, columnError := firstColumnOf(line)
		if columnError != nil {
			list.Invalid = append(list.Invalid, InvalidEntry{Line: lineNumber, Value: line, Err: columnError})
			continue
		}
		if len(firstColumn) == 0 {
			continue
		}

		identifier, parseError := gitrepo.ParseRepositoryIdentifier(firstColumn)
		if parseError != nil {
			list.Invalid = append(list.Invalid, InvalidEntry{Line: lineNumber, Value: firstColumn, Err: parseError})
			continue
		}
		list.Identifiers = append(list.Identifiers, identifier)
	}
	if scanError := scanner.Err(); scanError != nil {
		return list, fmt.Errorf(readListErrorTemplateConstant, lineNumber, scanError)
	}
	return list, nil
}

// LoadFile reads the source list at path from fileSystem.
func LoadFile(fileSystem afero.Fs, path string) (List, error) {
	file, openError := fileSystem.Open(path)
	if openError != nil {
		return List{}, fmt.Errorf(openListErrorTemplateConstant, path, openError)
	}
	defer file.Close()
	return Load(file)
}

func firstColumnOf(line string) (string, error) {
	csvReader := csv.NewReader(strings.NewReader(line))
	csvReader.FieldsPerRecord = -1
	csvReader.TrimLeadingSpace = true
	row, readError := csvReader.Read()
	if readError != nil {
		return "", readError
	}
	if len(row) == 0 {
		return "", nil
	}
	return strings.TrimSpace(row[0]), nil
}
