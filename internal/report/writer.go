// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package report

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/hashicorp/go-multierror"
	"github.com/matt-FFFFFF/fanout/internal/batch"
	"github.com/matt-FFFFFF/fanout/internal/ctxlog"
	"github.com/spf13/afero"
)

const (
	dirPerm  = 0o755
	filePerm = 0o644
)

// ErrReportWrite matches every *ReportWriteError.
var ErrReportWrite = errors.New("could not write aggregate report")

// ReportWriteError is returned when the aggregate report could not be persisted.
// Path is where it should have gone, so the write can be retried by hand.
type ReportWriteError struct {
	Path string
	Err  error
}

// Error implements error.
func (e *ReportWriteError) Error() string {
	return fmt.Sprintf("%s: %s: %v", ErrReportWrite, e.Path, e.Err)
}

// Unwrap allows errors.Is to match both ErrReportWrite and the cause.
func (e *ReportWriteError) Unwrap() []error {
	return []error{ErrReportWrite, e.Err}
}

// Artifacts lists what Write produced.
type Artifacts struct {
	Dir       string
	Report    string            // Path of the aggregate report
	LogFiles  map[int]string    // Job id to log path, for logs that were written
	LogErrors *multierror.Error // One entry per job log that could not be written
	Document  *Report           // The aggregate report as written
}

// Writer persists results. A Writer is safe for sequential reuse.
type Writer struct {
	fs     afero.Fs
	format Format
}

// NewWriter creates a Writer. A nil fs means the OS file system.
func NewWriter(fs afero.Fs, format Format) *Writer {
	if fs == nil {
		fs = afero.NewOsFs()
	}

	if format == "" {
		format = FormatJSON
	}

	return &Writer{fs: fs, format: format}
}

// Write stores each job's output verbatim in dir/job_<id>.log and the aggregate
// report in dir/report.<format>.
//
// Job logs are independent: a failure is recorded in Artifacts.LogErrors and the
// remaining writes go ahead. Only a failure to write the aggregate report is
// returned, as a *ReportWriteError.
func (w *Writer) Write(ctx context.Context, results []*batch.Result, summary *batch.Summary, dir string) (*Artifacts, error) {
	logger := ctxlog.Logger(ctx).With("component", "report")

	if err := w.fs.MkdirAll(dir, dirPerm); err != nil {
		return nil, &ReportWriteError{Path: dir, Err: err}
	}

	art := &Artifacts{
		Dir:      dir,
		LogFiles: make(map[int]string, len(results)),
	}

	failedLogs := make(map[int]bool)

	for _, r := range results {
		path := filepath.Join(dir, LogFileName(r.ID))

		if err := afero.WriteFile(w.fs, path, r.Output, filePerm); err != nil {
			logger.Error("could not write job log", "jobID", r.ID, "path", path, "error", err)
			art.LogErrors = multierror.Append(art.LogErrors, fmt.Errorf("job %d: %s: %w", r.ID, path, err))
			failedLogs[r.ID] = true

			continue
		}

		art.LogFiles[r.ID] = path
	}

	doc := Build(summary)
	for i := range doc.Jobs {
		if failedLogs[doc.Jobs[i].ID] {
			doc.Jobs[i].LogFile = ""
		}
	}

	art.Document = doc
	art.Report = filepath.Join(dir, w.format.FileName())

	b, err := doc.Encode(w.format)
	if err != nil {
		return art, &ReportWriteError{Path: art.Report, Err: err}
	}

	if err := w.replace(art.Report, b); err != nil {
		logger.Error("could not write aggregate report", "path", art.Report, "error", err)
		return art, &ReportWriteError{Path: art.Report, Err: err}
	}

	logger.Info("report written", "path", art.Report, "logs", len(art.LogFiles))

	return art, nil
}

// replace writes data to a temporary file next to path and renames it into place,
// so a reader never sees a partial report.
func (w *Writer) replace(path string, data []byte) error {
	tmp, err := afero.TempFile(w.fs, filepath.Dir(path), "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return err //nolint:wrapcheck
	}

	name := tmp.Name()

	_, err = tmp.Write(data)
	if cerr := tmp.Close(); err == nil {
		err = cerr
	}

	if err == nil {
		err = w.fs.Chmod(name, filePerm)
	}

	if err == nil {
		err = w.fs.Rename(name, path)
	}

	if err != nil {
		_ = w.fs.Remove(name)
		return err //nolint:wrapcheck
	}

	return nil
}
