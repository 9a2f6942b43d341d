package jsbox

import (
	"context"
	"fmt"
	"os"
	"runtime"

	"github.com/hashicorp/go-multierror"
	"golang.org/x/sync/errgroup"

	"github.com/deepnoodle-ai/jsbox/bytecode"
)

// FileError is a failure to read or compile one file. Source holds the file
// contents when they were read, for rendering diagnostics.
type FileError struct {
	Path   string
	Source string
	Err    error
}

func (e *FileError) Error() string {
	return fmt.Sprintf("%s: %s", e.Path, e.Err)
}

func (e *FileError) Unwrap() error {
	return e.Err
}

// CompileFiles compiles each path concurrently, at most jobs at a time
// (GOMAXPROCS if jobs <= 0). The result has one entry per path, nil where
// the file failed. Failures do not stop the other files; they are returned
// together as a *multierror.Error of *FileError values, in path order.
func CompileFiles(ctx context.Context, paths []string, jobs int, opts ...Option) ([]*bytecode.FunctionProto, error) {
	if jobs <= 0 {
		jobs = runtime.GOMAXPROCS(0)
	}
	protos := make([]*bytecode.FunctionProto, len(paths))
	failures := make([]*FileError, len(paths))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(1, min(jobs, len(paths))))
	for i, path := range paths {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			data, err := os.ReadFile(path)
			if err != nil {
				failures[i] = &FileError{Path: path, Err: err}
				return nil
			}
			source := string(data)
			fileOpts := append(append([]Option{}, opts...), WithFilename(path))
			proto, err := Compile(gctx, source, fileOpts...)
			if err != nil {
				failures[i] = &FileError{Path: path, Source: source, Err: err}
				return nil
			}
			protos[i] = proto
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return protos, err
	}

	var result *multierror.Error
	for _, f := range failures {
		if f != nil {
			result = multierror.Append(result, f)
		}
	}
	return protos, result.ErrorOrNil()
}
