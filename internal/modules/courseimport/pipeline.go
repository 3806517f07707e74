package courseimport

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	dataagg "github.com/yungbote/neurobridge-coursepack/internal/data/aggregates"
	"github.com/yungbote/neurobridge-coursepack/internal/data/repos"
	types "github.com/yungbote/neurobridge-coursepack/internal/domain"
	"github.com/yungbote/neurobridge-coursepack/internal/modules/courseimport/archive"
	"github.com/yungbote/neurobridge-coursepack/internal/modules/courseimport/manifest"
	"github.com/yungbote/neurobridge-coursepack/internal/modules/courseimport/quizdedup"
	"github.com/yungbote/neurobridge-coursepack/internal/observability"
	"github.com/yungbote/neurobridge-coursepack/internal/platform/ctxutil"
	"github.com/yungbote/neurobridge-coursepack/internal/platform/dbctx"
	"github.com/yungbote/neurobridge-coursepack/internal/platform/locks"
	"github.com/yungbote/neurobridge-coursepack/internal/platform/logger"
)

const (
	importOp    = "course.import"
	spoolName   = "incoming.zip"
	extractDir  = "extract"
	workDirGlob = "course-upload-*"
)

// Observer receives per-stage timings and quiz outcomes.
// *observability.Metrics satisfies it.
type Observer interface {
	ObserveUploadStage(stage, status string, dur time.Duration)
	IncQuizResolution(result string)
}

type noopObserver struct{}

func (noopObserver) ObserveUploadStage(string, string, time.Duration) {}
func (noopObserver) IncQuizResolution(string)                         {}

type UploadRequest struct {
	UserID   uuid.UUID `validate:"required"`
	Filename string    `validate:"required,max=255,archivename"`
	Body     io.Reader
}

type Result struct {
	Course   *types.Course
	IsNew    bool
	Messages []Advisory
}

type UploaderDeps struct {
	Log        *logger.Logger
	DB         *gorm.DB
	Repos      repos.Set
	Runner     dataagg.TxRunner
	Hooks      dataagg.Hooks
	Locker     locks.Locker
	Publishers []Publisher
	// WorkDir holds per-upload scratch directories. Empty means os.TempDir.
	WorkDir  string
	Limits   archive.Limits
	Observer Observer
	Now      func() time.Time
}

// Uploader runs one archive through extraction, reconciliation, persistence
// and republishing.
type Uploader struct {
	log        *logger.Logger
	deps       UploaderDeps
	obs        Observer
	reconciler *Reconciler
	writer     *Writer
	repackager *Repackager
}

func NewUploader(deps UploaderDeps) *Uploader {
	log := deps.Log.With("module", "courseimport")
	if deps.Runner == nil {
		deps.Runner = dataagg.NewGormTxRunner(deps.DB)
	}
	if deps.Hooks == nil {
		deps.Hooks = dataagg.NoopHooks()
	}
	if deps.Locker == nil {
		deps.Locker = locks.NewLocal()
	}
	obs := deps.Observer
	if obs == nil {
		obs = noopObserver{}
	}
	dedup := quizdedup.New(quizdedup.Deps{
		Log:       log,
		Quizzes:   deps.Repos.Quiz,
		Questions: deps.Repos.Question,
		Responses: deps.Repos.Response,
	})
	return &Uploader{
		log:        log,
		deps:       deps,
		obs:        obs,
		reconciler: NewReconciler(log, deps.Repos.Course, deps.Repos.Section),
		writer: NewWriter(WriterDeps{
			Log:      log,
			Courses:  deps.Repos.Course,
			Sections: deps.Repos.Section,
			Content:  deps.Repos.Activity,
			Media:    deps.Repos.Media,
			Quizzes:  observedResolver{next: dedup, obs: obs},
			CAS:      dataagg.NewCASGuard(deps.DB),
			Now:      deps.Now,
		}),
		repackager: NewRepackager(log, deps.Publishers...),
	}
}

// Upload imports the archive in req.Body. Nothing is published unless the
// database transaction commits, and the scratch directory is always removed.
func (u *Uploader) Upload(ctx context.Context, req UploadRequest) (res *Result, err error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}

	ctx, end := observability.StartSpan(ctx, "courseimport.upload",
		attribute.String("upload.filename", req.Filename),
		attribute.String("upload.user_id", req.UserID.String()),
	)
	defer func() { end(err) }()
	td := &ctxutil.TraceData{UploadID: uuid.NewString(), UserID: req.UserID.String()}
	if sc := trace.SpanContextFromContext(ctx); sc.HasTraceID() {
		td.TraceID = sc.TraceID().String()
	}
	ctx = ctxutil.WithTraceData(ctx, td)
	log := u.log.With(ctxutil.LogFields(ctx)...)

	if u.deps.WorkDir != "" {
		if err := os.MkdirAll(u.deps.WorkDir, 0o755); err != nil {
			return nil, fmt.Errorf("create work dir: %w", err)
		}
	}
	workDir, err := os.MkdirTemp(u.deps.WorkDir, workDirGlob)
	if err != nil {
		return nil, fmt.Errorf("create scratch dir: %w", err)
	}
	defer func() {
		if rmErr := os.RemoveAll(workDir); rmErr != nil {
			log.Debug("scratch dir not removed", "dir", workDir, "error", rmErr)
		}
	}()

	zipPath := filepath.Join(workDir, spoolName)
	if err := u.stage(ctx, "spool", func(context.Context) error {
		return spool(req.Body, zipPath)
	}); err != nil {
		return nil, err
	}

	var (
		courseDir string
		baseDir   string
		doc       *manifest.Document
	)
	root := filepath.Join(workDir, extractDir)
	if err := u.stage(ctx, "extract", func(context.Context) error {
		if err := archive.Extract(zipPath, root, u.deps.Limits); err != nil {
			return err
		}
		dir, base, err := archive.CourseDir(root)
		courseDir, baseDir = dir, base
		return err
	}); err != nil {
		return nil, err
	}
	if err := u.stage(ctx, "parse", func(context.Context) error {
		d, err := manifest.Parse(courseDir)
		doc = d
		return err
	}); err != nil {
		return nil, err
	}
	m := doc.Manifest
	log = log.With("shortname", m.Shortname, "version", m.VersionID)

	var unlock func()
	if err := u.stage(ctx, "lock", func(ctx context.Context) error {
		release, err := u.deps.Locker.Lock(ctx, m.Shortname)
		unlock = release
		return err
	}); err != nil {
		return nil, fmt.Errorf("lock course %q: %w", m.Shortname, err)
	}
	defer unlock()

	var (
		dec    *Decision
		course *types.Course
		built  *Built
		msgs   Messages
	)
	if err := u.stage(ctx, "persist", func(ctx context.Context) error {
		return dataagg.ExecuteWrite(ctx, dataagg.BaseDeps{DB: u.deps.DB, Runner: u.deps.Runner, Hooks: u.deps.Hooks}, importOp,
			func(dbc dbctx.Context) error {
				msgs = Messages{}
				d, err := u.reconciler.Decide(dbc, m, req.UserID)
				if err != nil {
					return err
				}
				c, err := u.writer.Apply(dbc, d, doc, Upload{UserID: req.UserID, Filename: req.Filename}, &msgs)
				if err != nil {
					return err
				}
				b, err := u.repackager.Build(doc, root, baseDir, workDir)
				if err != nil {
					return fmt.Errorf("repackage %q: %w", m.Shortname, err)
				}
				dec, course, built = d, c, b
				return nil
			})
	}); err != nil {
		log.Info("course upload rejected", "error", err)
		return nil, err
	}

	if err := u.stage(ctx, "publish", func(ctx context.Context) error {
		return u.repackager.Publish(ctx, built, req.Filename, dec.OldFilename)
	}); err != nil {
		log.Error("course stored but not published", "error", err)
		return nil, err
	}

	log.Info("course uploaded",
		"course_id", course.ID,
		"new", dec.IsNew,
		"advisories", msgs.Len(),
	)
	return &Result{Course: course, IsNew: dec.IsNew, Messages: msgs.List()}, nil
}

func (u *Uploader) stage(ctx context.Context, name string, fn func(context.Context) error) error {
	start := time.Now()
	ctx, end := observability.StartSpan(ctx, "courseimport."+name)
	err := fn(ctx)
	end(err)
	u.obs.ObserveUploadStage(name, dataagg.ErrorStatus(err), time.Since(start))
	return err
}

func spool(body io.Reader, path string) error {
	out, err := os.Create(path)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, body); err != nil {
		_ = out.Close()
		return fmt.Errorf("save upload: %w", err)
	}
	return out.Close()
}

type observedResolver struct {
	next QuizResolver
	obs  Observer
}

func (r observedResolver) Resolve(dbc dbctx.Context, ownerID uuid.UUID, payload string) (*quizdedup.Result, error) {
	res, err := r.next.Resolve(dbc, ownerID, payload)
	switch {
	case err != nil:
		r.obs.IncQuizResolution("failed")
	case res.Created:
		r.obs.IncQuizResolution("created")
	default:
		r.obs.IncQuizResolution("reused")
	}
	return res, err
}
