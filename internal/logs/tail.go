package logs

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"
)

const (
	chunkSize    = 32 * 1024
	maxLineBytes = 1024 * 1024
	pollInterval = 250 * time.Millisecond
)

// TailOptions selects which part of the log to return.
type TailOptions struct {
	// Offset < 0 means "the last Limit lines"; otherwise read from Offset.
	Offset int64
	Limit  int
	// Contains keeps only lines containing the substring (case-insensitive).
	Contains string
	// Wait > 0 blocks up to Wait for new lines when none are available.
	Wait time.Duration
}

// TailResult carries lines and the offset to pass to the next call.
type TailResult struct {
	Lines  []string
	Offset int64
}

// Tail reads lines from the log at path. A missing file yields no lines and
// offset 0.
func Tail(ctx context.Context, path string, opts TailOptions) (TailResult, error) {
	var (
		result TailResult
		err    error
	)
	if opts.Offset < 0 {
		result, err = lastLines(path, opts.Limit)
	} else {
		result, err = linesFrom(path, opts.Offset)
	}
	if err != nil {
		return result, err
	}
	result.Lines = filter(result.Lines, opts.Contains)
	if len(result.Lines) > 0 || opts.Wait <= 0 {
		return result, nil
	}

	deadline := time.NewTimer(opts.Wait)
	defer deadline.Stop()
	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return result, ctx.Err()
		case <-deadline.C:
			return result, nil
		case <-ticker.C:
		}
		next, err := linesFrom(path, result.Offset)
		if err != nil {
			return result, err
		}
		result.Offset = next.Offset
		if lines := filter(next.Lines, opts.Contains); len(lines) > 0 {
			result.Lines = lines
			return result, nil
		}
	}
}

// Follow prints the last limit lines and then every appended line to emit
// until ctx is done.
func Follow(ctx context.Context, path string, limit int, contains string, emit func(string)) error {
	opts := TailOptions{Offset: -1, Limit: limit, Contains: contains}
	for {
		result, err := Tail(ctx, path, opts)
		for _, line := range result.Lines {
			emit(line)
		}
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return nil
			}
			return err
		}
		if ctx.Err() != nil {
			return nil
		}
		opts = TailOptions{Offset: result.Offset, Contains: contains, Wait: time.Minute}
	}
}

func openLog(path string) (*os.File, int64, error) {
	file, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, 0, nil
	}
	if err != nil {
		return nil, 0, fmt.Errorf("open log file: %w", err)
	}
	info, err := file.Stat()
	if err != nil {
		file.Close()
		return nil, 0, fmt.Errorf("stat log file: %w", err)
	}
	if info.IsDir() {
		file.Close()
		return nil, 0, fmt.Errorf("log path %q is a directory", path)
	}
	return file, info.Size(), nil
}

// lastLines scans backwards from the end of the file in chunks until it has
// seen limit complete lines.
func lastLines(path string, limit int) (TailResult, error) {
	file, size, err := openLog(path)
	if file == nil || err != nil {
		return TailResult{}, err
	}
	defer file.Close()

	end := completeEnd(file, size)
	result := TailResult{Offset: end}
	if limit <= 0 || end == 0 {
		return result, nil
	}

	var buf []byte
	pos := end
	for pos > 0 && bytes.Count(buf, []byte{'\n'}) <= limit {
		step := min(int64(chunkSize), pos)
		pos -= step
		chunk := make([]byte, step)
		if _, err := file.ReadAt(chunk, pos); err != nil && !errors.Is(err, io.EOF) {
			return result, fmt.Errorf("read log file: %w", err)
		}
		buf = append(chunk, buf...)
		if int64(len(buf)) > maxLineBytes*int64(limit) {
			break
		}
	}

	lines := strings.Split(strings.TrimSuffix(string(buf), "\n"), "\n")
	if pos > 0 && len(lines) > 0 {
		// The first element may be a partial line cut at the chunk boundary.
		lines = lines[1:]
	}
	if len(lines) > limit {
		lines = lines[len(lines)-limit:]
	}
	result.Lines = lines
	return result, nil
}

// linesFrom returns the complete lines written after offset. An offset past
// the end of the file (after truncation or rotation) restarts from zero.
func linesFrom(path string, offset int64) (TailResult, error) {
	file, size, err := openLog(path)
	if file == nil || err != nil {
		return TailResult{}, err
	}
	defer file.Close()

	if offset > size {
		offset = 0
	}
	result := TailResult{Offset: offset}
	reader := bufio.NewReaderSize(io.NewSectionReader(file, offset, size-offset), chunkSize)
	for {
		line, err := reader.ReadString('\n')
		if err != nil {
			// A trailing fragment without a newline is still being written.
			if errors.Is(err, io.EOF) {
				return result, nil
			}
			return result, fmt.Errorf("read log file: %w", err)
		}
		result.Offset += int64(len(line))
		result.Lines = append(result.Lines, strings.TrimRight(line, "\r\n"))
	}
}

// completeEnd returns the offset just past the last newline in the file.
func completeEnd(file *os.File, size int64) int64 {
	if size == 0 {
		return 0
	}
	last := make([]byte, 1)
	if _, err := file.ReadAt(last, size-1); err == nil && last[0] == '\n' {
		return size
	}
	pos := size
	for pos > 0 {
		step := min(int64(chunkSize), pos)
		pos -= step
		chunk := make([]byte, step)
		if _, err := file.ReadAt(chunk, pos); err != nil && !errors.Is(err, io.EOF) {
			return size
		}
		if i := bytes.LastIndexByte(chunk, '\n'); i >= 0 {
			return pos + int64(i) + 1
		}
	}
	return 0
}

func filter(lines []string, contains string) []string {
	needle := strings.ToLower(strings.TrimSpace(contains))
	if needle == "" {
		return lines
	}
	kept := lines[:0]
	for _, line := range lines {
		if strings.Contains(strings.ToLower(line), needle) {
			kept = append(kept, line)
		}
	}
	return kept
}
