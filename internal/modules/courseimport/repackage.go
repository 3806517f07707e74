package courseimport

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"golang.org/x/sync/errgroup"

	"github.com/yungbote/neurobridge-coursepack/internal/modules/courseimport/archive"
	"github.com/yungbote/neurobridge-coursepack/internal/modules/courseimport/manifest"
	"github.com/yungbote/neurobridge-coursepack/internal/platform/gcp"
	"github.com/yungbote/neurobridge-coursepack/internal/platform/logger"
)

const builtArchiveName = "tmp_course.zip"

// Built is a rewritten course archive waiting to be published.
type Built struct {
	ZipPath string
	BaseDir string
}

// Publisher places a built archive somewhere readers can fetch it.
type Publisher interface {
	Name() string
	Publish(ctx context.Context, built *Built, filename string) error
	// Remove drops a superseded archive. Callers ignore its error.
	Remove(ctx context.Context, filename string) error
}

type Repackager struct {
	log        *logger.Logger
	publishers []Publisher
}

func NewRepackager(baseLog *logger.Logger, publishers ...Publisher) *Repackager {
	return &Repackager{log: baseLog.With("component", "Repackager"), publishers: publishers}
}

// Build writes the rewritten descriptor back into the course directory and
// zips root/baseDir into workDir.
func (r *Repackager) Build(doc *manifest.Document, root, baseDir, workDir string) (*Built, error) {
	if err := doc.WriteFile(""); err != nil {
		return nil, err
	}
	out := filepath.Join(workDir, builtArchiveName)
	if err := archive.Zip(root, baseDir, out); err != nil {
		return nil, err
	}
	return &Built{ZipPath: out, BaseDir: baseDir}, nil
}

// Publish hands the archive to every publisher concurrently, then removes
// the archive stored under oldFilename when the name changed.
func (r *Repackager) Publish(ctx context.Context, built *Built, filename, oldFilename string) error {
	g, gctx := errgroup.WithContext(ctx)
	for _, p := range r.publishers {
		g.Go(func() error {
			if err := p.Publish(gctx, built, filename); err != nil {
				return fmt.Errorf("publish %s: %w", p.Name(), err)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	if oldFilename == "" || oldFilename == filename {
		return nil
	}
	for _, p := range r.publishers {
		if err := p.Remove(ctx, oldFilename); err != nil {
			r.log.Debug("old archive not removed", "publisher", p.Name(), "filename", oldFilename, "error", err)
		}
	}
	return nil
}

// DistributionPublisher copies archives into the public upload directory.
type DistributionPublisher struct {
	Dir string
}

func (DistributionPublisher) Name() string { return "distribution" }

func (p DistributionPublisher) Publish(_ context.Context, built *Built, filename string) error {
	if err := os.MkdirAll(p.Dir, 0o755); err != nil {
		return err
	}
	dst := filepath.Join(p.Dir, filepath.Base(filename))
	tmp, err := os.CreateTemp(p.Dir, ".upload-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	if err := copyInto(tmp, built.ZipPath); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return err
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		_ = os.Remove(tmpName)
		return err
	}
	if err := os.Rename(tmpName, dst); err != nil {
		_ = os.Remove(tmpName)
		return err
	}
	return nil
}

func (p DistributionPublisher) Remove(_ context.Context, filename string) error {
	return os.Remove(filepath.Join(p.Dir, filepath.Base(filename)))
}

// PreviewPublisher unpacks archives under <Root>/courses for previewing.
type PreviewPublisher struct {
	Root   string
	Limits archive.Limits
}

func (PreviewPublisher) Name() string { return "preview" }

func (p PreviewPublisher) Publish(_ context.Context, built *Built, _ string) error {
	return archive.Extract(built.ZipPath, filepath.Join(p.Root, "courses"), p.Limits)
}

// Remove is a no-op: the preview tree is keyed by course directory, which
// the next extraction overwrites.
func (PreviewPublisher) Remove(context.Context, string) error { return nil }

// BucketPublisher mirrors archives into object storage.
type BucketPublisher struct {
	Bucket gcp.BucketService
}

func (BucketPublisher) Name() string { return "bucket" }

func (p BucketPublisher) Publish(ctx context.Context, built *Built, filename string) error {
	f, err := os.Open(built.ZipPath)
	if err != nil {
		return err
	}
	defer f.Close()
	return p.Bucket.UploadFile(ctx, filepath.Base(filename), f)
}

func (p BucketPublisher) Remove(ctx context.Context, filename string) error {
	return p.Bucket.DeleteFile(ctx, filepath.Base(filename))
}

func copyInto(dst io.Writer, src string) error {
	f, err := os.Open(src)
	if err != nil {
		return err
	}
	defer f.Close()
	_, err = io.Copy(dst, f)
	return err
}
