package markdowncmd

import (
	"context"
	"errors"
	"testing"

	goerrors "github.com/goliatone/go-errors"

	"github.com/goliatone/go-cms-blog/internal/logging"
	"github.com/goliatone/go-cms-blog/internal/markdown"
	"github.com/goliatone/go-cms-blog/pkg/interfaces"
)

type importCall struct {
	directory string
	options   markdown.ImportOptions
}

type stubImporter struct {
	calls  []importCall
	result *markdown.ImportResult
	err    error
}

func (s *stubImporter) ImportDirectory(_ context.Context, dir string, opts markdown.ImportOptions) (*markdown.ImportResult, error) {
	s.calls = append(s.calls, importCall{directory: dir, options: opts})
	if s.err != nil {
		return nil, s.err
	}
	return s.result, nil
}

type captureLogger struct {
	fields       []map[string]any
	infoMessages []string
	warnings     int
}

var _ interfaces.Logger = (*captureLogger)(nil)

func (c *captureLogger) Trace(string, ...any) {}
func (c *captureLogger) Debug(string, ...any) {}
func (c *captureLogger) Info(msg string, _ ...any) {
	c.infoMessages = append(c.infoMessages, msg)
}
func (c *captureLogger) Warn(string, ...any)  { c.warnings++ }
func (c *captureLogger) Error(string, ...any) {}
func (c *captureLogger) Fatal(string, ...any) {}

func (c *captureLogger) WithFields(fields map[string]any) interfaces.Logger {
	copied := make(map[string]any, len(fields))
	for k, v := range fields {
		copied[k] = v
	}
	c.fields = append(c.fields, copied)
	return c
}

func (c *captureLogger) WithContext(context.Context) interfaces.Logger {
	return c
}

func TestImportDirectoryHandlerInvokesImporter(t *testing.T) {
	importer := &stubImporter{
		result: &markdown.ImportResult{
			Created: []string{"blog/news/a"},
			Updated: []string{"blog/news/b"},
			Errors:  []error{errors.New("broken front matter")},
		},
	}
	logger := &captureLogger{}
	var reported *markdown.ImportResult
	handler := NewImportDirectoryHandler(importer, logger, func(_ context.Context, _ ImportDirectoryCommand, result *markdown.ImportResult) {
		reported = result
	})

	cmd := ImportDirectoryCommand{
		Directory:               "posts",
		DefaultCategory:         "News",
		DefaultAuthor:           "test-blogger",
		CreateMissingCategories: true,
		DryRun:                  true,
	}
	if err := handler.Execute(context.Background(), cmd); err != nil {
		t.Fatalf("execute import directory: %v", err)
	}

	if len(importer.calls) != 1 {
		t.Fatalf("expected import call, got %d", len(importer.calls))
	}
	call := importer.calls[0]
	if call.directory != "posts" {
		t.Fatalf("expected directory posts, got %q", call.directory)
	}
	want := markdown.ImportOptions{DefaultCategory: "News", DefaultAuthor: "test-blogger", CreateMissingCategories: true, DryRun: true}
	if call.options != want {
		t.Fatalf("expected options %+v, got %+v", want, call.options)
	}
	if reported != importer.result {
		t.Fatalf("expected result to be reported")
	}
	if logger.warnings != 1 {
		t.Fatalf("expected one warning per document error, got %d", logger.warnings)
	}

	found := false
	for _, fields := range logger.fields {
		if fields["created_count"] == 1 && fields["dry_run"] == true {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected summary fields recorded, got %#v", logger.fields)
	}
}

func TestImportDirectoryHandlerPropagatesErrors(t *testing.T) {
	importErr := errors.New("disk gone")
	handler := NewImportDirectoryHandler(&stubImporter{err: importErr}, logging.NoOp(), nil)

	err := handler.Execute(context.Background(), ImportDirectoryCommand{Directory: "posts"})
	if !errors.Is(err, importErr) {
		t.Fatalf("expected import error, got %v", err)
	}
	if !goerrors.IsCategory(err, goerrors.CategoryCommand) {
		t.Fatalf("expected command category, got %v", err)
	}
}

func TestImportDirectoryHandlerValidation(t *testing.T) {
	importer := &stubImporter{}
	handler := NewImportDirectoryHandler(importer, nil, nil)

	err := handler.Execute(context.Background(), ImportDirectoryCommand{})
	if !goerrors.IsCategory(err, goerrors.CategoryValidation) {
		t.Fatalf("expected validation category, got %v", err)
	}
	if len(importer.calls) != 0 {
		t.Fatalf("expected no import calls, got %d", len(importer.calls))
	}
}

func TestImportDirectoryHandlerContextCancellation(t *testing.T) {
	importer := &stubImporter{}
	handler := NewImportDirectoryHandler(importer, logging.NoOp(), nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := handler.Execute(ctx, ImportDirectoryCommand{Directory: "posts"})
	if !goerrors.IsCategory(err, goerrors.CategoryCommand) {
		t.Fatalf("expected command category, got %v", err)
	}
	if len(importer.calls) != 0 {
		t.Fatalf("expected no import calls, got %d", len(importer.calls))
	}
}
