package services

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"

	dataagg "github.com/yungbote/neurobridge-coursepack/internal/data/aggregates"
	"github.com/yungbote/neurobridge-coursepack/internal/data/repos"
	types "github.com/yungbote/neurobridge-coursepack/internal/domain"
	"github.com/yungbote/neurobridge-coursepack/internal/domain/aggregates"
	"github.com/yungbote/neurobridge-coursepack/internal/modules/courseimport"
	"github.com/yungbote/neurobridge-coursepack/internal/platform/dbctx"
	"github.com/yungbote/neurobridge-coursepack/internal/platform/logger"
)

// UploadMetrics records upload outcomes. *observability.Metrics satisfies it.
type UploadMetrics interface {
	ObserveUpload(outcome string, dur time.Duration)
	AddAdvisories(level string, n int)
}

type Uploader interface {
	Upload(ctx context.Context, req courseimport.UploadRequest) (*courseimport.Result, error)
}

type CourseUploadService interface {
	// ResolveUser finds the uploader by id, or by email when id is empty.
	ResolveUser(ctx context.Context, id, email string) (*types.User, error)
	UploadArchive(ctx context.Context, userID uuid.UUID, filename string, body io.Reader) (*courseimport.Result, error)
	Describe(ctx context.Context, shortname string) (*CourseSummary, error)
}

type SectionSummary struct {
	Order      int
	Title      string
	Baseline   bool
	Activities int
}

type CourseSummary struct {
	Course   *types.Course
	Sections []SectionSummary
	Media    int
}

type courseUploadService struct {
	log      *logger.Logger
	repos    repos.Set
	uploader Uploader
	metrics  UploadMetrics
}

func NewCourseUploadService(log *logger.Logger, repoSet repos.Set, uploader Uploader, metrics UploadMetrics) CourseUploadService {
	return &courseUploadService{
		log:      log.With("service", "CourseUploadService"),
		repos:    repoSet,
		uploader: uploader,
		metrics:  metrics,
	}
}

func (s *courseUploadService) ResolveUser(ctx context.Context, id, email string) (*types.User, error) {
	const op = "services.resolve_user"
	dbc := dbctx.Context{Ctx: ctx}
	id = strings.TrimSpace(id)
	email = strings.TrimSpace(email)

	var (
		users []*types.User
		err   error
	)
	switch {
	case id != "":
		uid, perr := uuid.Parse(id)
		if perr != nil {
			return nil, aggregates.NewError(aggregates.CodeValidation, op, fmt.Sprintf("invalid user id %q", id), perr)
		}
		users, err = s.repos.User.GetByIDs(dbc, []uuid.UUID{uid})
	case email != "":
		users, err = s.repos.User.GetByEmails(dbc, []string{email})
	default:
		return nil, aggregates.NewError(aggregates.CodeValidation, op, "a user id or email is required", nil)
	}
	if err != nil {
		return nil, fmt.Errorf("lookup user: %w", err)
	}
	if len(users) == 0 {
		return nil, aggregates.NewError(aggregates.CodeNotFound, op, "user not found", nil)
	}
	return users[0], nil
}

func (s *courseUploadService) UploadArchive(ctx context.Context, userID uuid.UUID, filename string, body io.Reader) (*courseimport.Result, error) {
	start := time.Now()
	res, err := s.upload(ctx, userID, filename, body)

	outcome := "ok"
	if err != nil {
		outcome = dataagg.ErrorStatus(err)
	}
	if s.metrics != nil {
		s.metrics.ObserveUpload(outcome, time.Since(start))
		if res != nil {
			counts := map[courseimport.Level]int{}
			for _, a := range res.Messages {
				counts[a.Level]++
			}
			for level, n := range counts {
				s.metrics.AddAdvisories(string(level), n)
			}
		}
	}
	return res, err
}

func (s *courseUploadService) upload(ctx context.Context, userID uuid.UUID, filename string, body io.Reader) (*courseimport.Result, error) {
	users, err := s.repos.User.GetByIDs(dbctx.Context{Ctx: ctx}, []uuid.UUID{userID})
	if err != nil {
		return nil, fmt.Errorf("lookup uploader: %w", err)
	}
	if len(users) == 0 {
		return nil, aggregates.NewError(aggregates.CodeNotFound, "services.upload_archive", "uploader does not exist", nil)
	}
	res, err := s.uploader.Upload(ctx, courseimport.UploadRequest{UserID: userID, Filename: filename, Body: body})
	if err != nil {
		s.log.Warn("course upload failed", "filename", filename, "code", aggregates.CodeOf(err), "error", err)
		return nil, err
	}
	return res, nil
}

func (s *courseUploadService) Describe(ctx context.Context, shortname string) (*CourseSummary, error) {
	dbc := dbctx.Context{Ctx: ctx}
	c, err := s.repos.Course.GetByShortname(dbc, shortname)
	if err != nil {
		return nil, fmt.Errorf("lookup course %q: %w", shortname, err)
	}
	if c == nil {
		return nil, aggregates.NewError(aggregates.CodeNotFound, "services.describe", fmt.Sprintf("course %q not found", shortname), nil)
	}
	sections, err := s.repos.Section.ListByCourseID(dbc, c.ID)
	if err != nil {
		return nil, fmt.Errorf("list sections: %w", err)
	}
	ids := make([]uuid.UUID, 0, len(sections))
	for _, sec := range sections {
		ids = append(ids, sec.ID)
	}
	acts, err := s.repos.Activity.ListBySectionIDs(dbc, ids)
	if err != nil {
		return nil, fmt.Errorf("list activities: %w", err)
	}
	perSection := map[uuid.UUID]int{}
	for _, a := range acts {
		perSection[a.SectionID]++
	}
	media, err := s.repos.Media.ListByCourseID(dbc, c.ID)
	if err != nil {
		return nil, fmt.Errorf("list media: %w", err)
	}

	out := &CourseSummary{Course: c, Media: len(media)}
	for _, sec := range sections {
		out.Sections = append(out.Sections, SectionSummary{
			Order:      sec.Order,
			Title:      sec.TitleFor("en"),
			Baseline:   sec.IsBaseline(),
			Activities: perSection[sec.ID],
		})
	}
	return out, nil
}
