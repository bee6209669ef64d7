package ledger

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/spf13/afero"
)

const (
	ledgerFilePermissionsConstant    = fs.FileMode(0o644)
	ledgerDirectoryPermissions       = fs.FileMode(0o755)
	openLedgerErrorTemplateConstant  = "open ledger %s: %w"
	writeLedgerErrorTemplateConstant = "write ledger %s: %w"
	readLedgerErrorTemplateConstant  = "read ledger %s: %w"
	encodeRowErrorTemplateConstant   = "encode ledger row for %s: %w"
	fileSystemNotConfiguredMessage   = "ledger file system not configured"
	pathNotConfiguredMessage         = "ledger path not configured"
)

var (
	// ErrFileSystemNotConfigured indicates a ledger was constructed without a file system.
	ErrFileSystemNotConfigured = errors.New(fileSystemNotConfiguredMessage)
	// ErrPathNotConfigured indicates a ledger was constructed without a path.
	ErrPathNotConfigured = errors.New(pathNotConfiguredMessage)
)

// appendFile is a header-aware CSV file that only grows.
type appendFile struct {
	fileSystem afero.Fs
	path       string
	header     []string
	guard      sync.Mutex
}

func newAppendFile(fileSystem afero.Fs, path string, header []string) (*appendFile, error) {
	if fileSystem == nil {
		return nil, ErrFileSystemNotConfigured
	}
	if len(strings.TrimSpace(path)) == 0 {
		return nil, ErrPathNotConfigured
	}
	return &appendFile{fileSystem: fileSystem, path: path, header: header}, nil
}

// readRows returns every data row, skipping the header. A missing file has no rows.
// Callers must hold guard.
func (file *appendFile) readRows() ([][]string, error) {
	handle, openError := file.fileSystem.Open(file.path)
	if openError != nil {
		if os.IsNotExist(openError) {
			return nil, nil
		}
		return nil, fmt.Errorf(readLedgerErrorTemplateConstant, file.path, openError)
	}
	defer handle.Close()

	reader := csv.NewReader(handle)
	reader.FieldsPerRecord = -1
	rows := [][]string{}
	headerSeen := false
	for {
		row, readError := reader.Read()
		if errors.Is(readError, io.EOF) {
			break
		}
		if readError != nil {
			return nil, fmt.Errorf(readLedgerErrorTemplateConstant, file.path, readError)
		}
		if !headerSeen && len(file.header) > 0 {
			headerSeen = true
			if len(row) > 0 && row[0] == file.header[0] {
				continue
			}
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// appendRows writes rows, prefixed by the header when the file is new or empty,
// in one write call. Callers must hold guard.
func (file *appendFile) appendRows(rows ...[]string) error {
	var buffer bytes.Buffer
	writer := csv.NewWriter(&buffer)

	if len(file.header) > 0 && file.isEmpty() {
		if headerError := writer.Write(file.header); headerError != nil {
			return fmt.Errorf(encodeRowErrorTemplateConstant, file.path, headerError)
		}
	}
	for _, row := range rows {
		if rowError := writer.Write(row); rowError != nil {
			return fmt.Errorf(encodeRowErrorTemplateConstant, file.path, rowError)
		}
	}
	writer.Flush()
	if flushError := writer.Error(); flushError != nil {
		return fmt.Errorf(encodeRowErrorTemplateConstant, file.path, flushError)
	}

	return file.appendBytes(buffer.Bytes())
}

func (file *appendFile) appendBytes(content []byte) error {
	if parentDirectory := filepath.Dir(file.path); parentDirectory != "." {
		if mkdirError := file.fileSystem.MkdirAll(parentDirectory, ledgerDirectoryPermissions); mkdirError != nil {
			return fmt.Errorf(openLedgerErrorTemplateConstant, file.path, mkdirError)
		}
	}

	handle, openError := file.fileSystem.OpenFile(file.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, ledgerFilePermissionsConstant)
	if openError != nil {
		return fmt.Errorf(openLedgerErrorTemplateConstant, file.path, openError)
	}
	_, writeError := handle.Write(content)
	closeError := handle.Close()
	if writeError != nil {
		return fmt.Errorf(writeLedgerErrorTemplateConstant, file.path, writeError)
	}
	if closeError != nil {
		return fmt.Errorf(writeLedgerErrorTemplateConstant, file.path, closeError)
	}
	return nil
}

func (file *appendFile) isEmpty() bool {
	info, statError := file.fileSystem.Stat(file.path)
	if statError != nil {
		return true
	}
	return info.Size() == 0
}
