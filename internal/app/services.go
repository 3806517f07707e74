package app

import (
	"github.com/yungbote/neurobridge-coursepack/internal/config"
	dataagg "github.com/yungbote/neurobridge-coursepack/internal/data/aggregates"
	"github.com/yungbote/neurobridge-coursepack/internal/data/repos"
	"github.com/yungbote/neurobridge-coursepack/internal/modules/courseimport"
	"github.com/yungbote/neurobridge-coursepack/internal/observability"
	"github.com/yungbote/neurobridge-coursepack/internal/platform/logger"
	"github.com/yungbote/neurobridge-coursepack/internal/services"
)

type Services struct {
	CourseUpload services.CourseUploadService
	Uploader     *courseimport.Uploader
}

func wirePublishers(cfg config.Config, clients Clients) []courseimport.Publisher {
	pubs := []courseimport.Publisher{
		courseimport.DistributionPublisher{Dir: cfg.Paths.UploadDir},
		courseimport.PreviewPublisher{Root: cfg.Paths.MediaRoot, Limits: archiveLimits(cfg)},
	}
	if clients.Bucket != nil {
		pubs = append(pubs, courseimport.BucketPublisher{Bucket: clients.Bucket})
	}
	return pubs
}

func wireServices(log *logger.Logger, cfg config.Config, clients Clients, reposet repos.Set, metrics *observability.Metrics) Services {
	log.Info("Wiring services...")

	deps := courseimport.UploaderDeps{
		Log:        log,
		DB:         clients.DB,
		Repos:      reposet,
		Locker:     clients.Locker,
		Publishers: wirePublishers(cfg, clients),
		WorkDir:    cfg.Paths.WorkDir,
		Limits:     archiveLimits(cfg),
	}
	var uploadMetrics services.UploadMetrics
	hooks := []dataagg.Hooks{dataagg.LogHooks(log)}
	if metrics != nil {
		hooks = append(hooks, metrics)
		deps.Observer = metrics
		uploadMetrics = metrics
	}
	deps.Hooks = dataagg.JoinHooks(hooks...)
	uploader := courseimport.NewUploader(deps)

	return Services{
		CourseUpload: services.NewCourseUploadService(log, reposet, uploader, uploadMetrics),
		Uploader:     uploader,
	}
}
