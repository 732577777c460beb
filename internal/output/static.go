package output

import (
	"context"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/afero"

	pserrors "git.home.luguber.info/inful/pagesmith/internal/errors"
	"git.home.luguber.info/inful/pagesmith/internal/fanout"
	"git.home.luguber.info/inful/pagesmith/internal/logfields"
	"git.home.luguber.info/inful/pagesmith/internal/observability"
)

// MirrorStaticAssets copies every entry of the static directory into the
// build directory under the same name and returns how many were copied.
// Directories are copied recursively. An asset whose destination already
// exists would replace a generated output and fails the copy.
func (w *Writer) MirrorStaticAssets(ctx context.Context) (int, error) {
	if w.staticDir == "" {
		return 0, nil
	}

	entries, err := afero.ReadDir(w.fs, w.staticDir)
	if err != nil {
		return 0, pserrors.FileSystemError("list", w.staticDir, err)
	}

	observability.InfoContext(ctx, "Mirroring static assets", logfields.Path(w.staticDir), logfields.Count(len(entries)))
	for _, e := range entries {
		observability.DebugContext(ctx, "Static asset", logfields.Name(e.Name()))
	}

	err = fanout.Each(ctx, entries, w.concurrency, func(ctx context.Context, entry os.FileInfo) error {
		return w.mirror(ctx, entry)
	})
	if err != nil {
		return 0, err
	}
	return len(entries), nil
}

func (w *Writer) mirror(ctx context.Context, entry os.FileInfo) error {
	src := filepath.Join(w.staticDir, entry.Name())
	dst := w.path(entry.Name())

	exists, err := afero.Exists(w.fs, dst)
	if err != nil {
		return pserrors.FileSystemError("stat", dst, err)
	}
	if exists {
		return pserrors.ValidationError("static asset collides with generated output").
			WithContext("asset", entry.Name()).
			WithContext(pserrors.ContextPath, dst).
			Build()
	}

	if entry.IsDir() {
		return w.copyDir(ctx, src, dst)
	}
	return w.copyFile(src, dst, entry.Mode().Perm())
}

func (w *Writer) copyDir(ctx context.Context, src, dst string) error {
	return afero.Walk(w.fs, src, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return pserrors.FileSystemError("list", path, err)
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}

		rel, err := filepath.Rel(src, path)
		if err != nil {
			return pserrors.InternalError("static asset outside its directory").
				WithContext(pserrors.ContextPath, path).
				WithCause(err).
				Build()
		}
		target := filepath.Join(dst, rel)

		if info.IsDir() {
			if err := w.fs.MkdirAll(target, dirPerm); err != nil {
				return pserrors.FileSystemError("create", target, err)
			}
			return nil
		}
		return w.copyFile(path, target, info.Mode().Perm())
	})
}

func (w *Writer) copyFile(src, dst string, perm os.FileMode) error {
	in, err := w.fs.Open(src)
	if err != nil {
		return pserrors.FileSystemError("read", src, err)
	}
	defer func() { _ = in.Close() }()

	if perm == 0 {
		perm = filePerm
	}
	out, err := w.fs.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, perm)
	if err != nil {
		return pserrors.FileSystemError("copy", dst, err)
	}

	if _, err := io.Copy(out, in); err != nil {
		_ = out.Close()
		return pserrors.FileSystemError("copy", dst, err)
	}
	if err := out.Close(); err != nil {
		return pserrors.FileSystemError("copy", dst, err)
	}
	return nil
}

func (w *Writer) path(name string) string {
	return filepath.Join(w.buildDir, name)
}
