package utils

import (
	"io"
	"sync"
)

type flusher interface {
	Flush() error
}

type fileDescriptor interface {
	Fd() uintptr
}

// FlushingWriter serialises writes and flushes buffered writers after each one so status
// lines printed from concurrent migrations appear whole and immediately.
type FlushingWriter struct {
	writer io.Writer
	mutex  sync.Mutex
}

// NewFlushingWriter wraps writer. Wrapping an existing FlushingWriter returns it unchanged.
func NewFlushingWriter(writer io.Writer) io.Writer {
	if writer == nil {
		return nil
	}
	if _, alreadyWrapped := writer.(*FlushingWriter); alreadyWrapped {
		return writer
	}
	return &FlushingWriter{writer: writer}
}

// Write delegates to the underlying writer and flushes it when possible.
func (flushingWriter *FlushingWriter) Write(data []byte) (int, error) {
	if flushingWriter == nil || flushingWriter.writer == nil {
		return 0, nil
	}

	flushingWriter.mutex.Lock()
	defer flushingWriter.mutex.Unlock()

	bytesWritten, writeError := flushingWriter.writer.Write(data)
	if writeError != nil {
		return bytesWritten, writeError
	}
	if flushableWriter, implementsFlush := flushingWriter.writer.(flusher); implementsFlush {
		if flushError := flushableWriter.Flush(); flushError != nil {
			return bytesWritten, flushError
		}
	}
	return bytesWritten, nil
}

// Fd exposes the descriptor of the wrapped writer so terminal detection still works.
// Writers without a descriptor report an invalid one.
func (flushingWriter *FlushingWriter) Fd() uintptr {
	if flushingWriter == nil {
		return ^uintptr(0)
	}
	if descriptorWriter, hasDescriptor := flushingWriter.writer.(fileDescriptor); hasDescriptor {
		return descriptorWriter.Fd()
	}
	return ^uintptr(0)
}
