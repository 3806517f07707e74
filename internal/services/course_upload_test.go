package services

import (
	"archive/zip"
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/neurobridge-coursepack/internal/data/repos"
	"github.com/yungbote/neurobridge-coursepack/internal/data/repos/testutil"
	"github.com/yungbote/neurobridge-coursepack/internal/domain/aggregates"
	"github.com/yungbote/neurobridge-coursepack/internal/modules/courseimport"
	"github.com/yungbote/neurobridge-coursepack/internal/platform/logger"
)

const manifestV1 = `<module>
  <meta><versionid>1</versionid><shortname>svc101</shortname><title lang="en">Service 101</title></meta>
  <structure>
    <section order="1"><title lang="en">One</title><activities>
      <activity type="page" order="1" digest="svc-p1"><title lang="en">P1</title><location lang="en">p1.html</location></activity>
      <activity type="page" order="2" digest="svc-p2"><title lang="en">P2</title><location lang="en">p2.html</location></activity>
    </activities></section>
    <section order="2"><title lang="en">Empty</title><activities/></section>
  </structure>
  <media><file filename="a.mp4" download_url="http://example.com/a.mp4" digest="m1"/></media>
</module>`

type recordingMetrics struct {
	outcomes   []string
	advisories map[string]int
}

func (m *recordingMetrics) ObserveUpload(outcome string, _ time.Duration) {
	m.outcomes = append(m.outcomes, outcome)
}

func (m *recordingMetrics) AddAdvisories(level string, n int) {
	if m.advisories == nil {
		m.advisories = map[string]int{}
	}
	m.advisories[level] += n
}

func courseArchive(t *testing.T, xml string) *bytes.Buffer {
	t.Helper()
	buf := &bytes.Buffer{}
	zw := zip.NewWriter(buf)
	w, err := zw.Create("svc101/module.xml")
	if err != nil {
		t.Fatalf("zip create: %v", err)
	}
	if _, err := w.Write([]byte(xml)); err != nil {
		t.Fatalf("zip write: %v", err)
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("zip close: %v", err)
	}
	return buf
}

func newService(t *testing.T) (CourseUploadService, *recordingMetrics, *gorm.DB) {
	t.Helper()
	db := testutil.DB(t)
	log := logger.Nop()
	set := repos.NewSet(db, log)
	up := courseimport.NewUploader(courseimport.UploaderDeps{
		Log:        log,
		DB:         db,
		Repos:      set,
		Publishers: []courseimport.Publisher{courseimport.DistributionPublisher{Dir: t.TempDir()}},
		WorkDir:    t.TempDir(),
	})
	m := &recordingMetrics{}
	return NewCourseUploadService(log, set, up, m), m, db
}

func TestUploadArchiveRecordsOutcome(t *testing.T) {
	svc, m, _ := newService(t)
	ctx := context.Background()

	user, err := svc.ResolveUser(ctx, "", "nobody@example.com")
	if !aggregates.IsCode(err, aggregates.CodeNotFound) || user != nil {
		t.Fatalf("want not found, got user=%v err=%v", user, err)
	}

	_, err = svc.UploadArchive(ctx, uuid.New(), "svc101.zip", courseArchive(t, manifestV1))
	if !aggregates.IsCode(err, aggregates.CodeNotFound) {
		t.Fatalf("unknown uploader: want not_found, got %v", err)
	}
	if len(m.outcomes) != 1 || m.outcomes[0] != "not_found" {
		t.Fatalf("outcomes: %v", m.outcomes)
	}
}

func TestUploadArchiveAndDescribe(t *testing.T) {
	svc, m, db := newService(t)
	ctx := context.Background()
	owner := testutil.SeedUser(t, ctx, db, "owner@example.com")

	byEmail, err := svc.ResolveUser(ctx, "", " OWNER@example.com ")
	if err != nil || byEmail.ID != owner.ID {
		t.Fatalf("ResolveUser by email: user=%v err=%v", byEmail, err)
	}
	byID, err := svc.ResolveUser(ctx, owner.ID.String(), "")
	if err != nil || byID.ID != owner.ID {
		t.Fatalf("ResolveUser by id: user=%v err=%v", byID, err)
	}
	if _, err := svc.ResolveUser(ctx, "not-a-uuid", ""); !aggregates.IsCode(err, aggregates.CodeValidation) {
		t.Fatalf("bad id: want validation, got %v", err)
	}

	res, err := svc.UploadArchive(ctx, owner.ID, "svc101.zip", courseArchive(t, manifestV1))
	if err != nil {
		t.Fatalf("UploadArchive: %v", err)
	}
	if !res.IsNew || res.Course.Shortname != "svc101" {
		t.Fatalf("result: %+v", res)
	}
	if len(m.outcomes) != 1 || m.outcomes[0] != "ok" {
		t.Fatalf("outcomes: %v", m.outcomes)
	}
	if m.advisories["warning"] != 1 {
		t.Fatalf("advisories: %v", m.advisories)
	}

	_, err = svc.UploadArchive(ctx, owner.ID, "svc101.zip", courseArchive(t, manifestV1))
	if !aggregates.IsCode(err, aggregates.CodeStaleVersion) {
		t.Fatalf("re-upload of the same version: want stale_version, got %v", err)
	}
	if m.outcomes[len(m.outcomes)-1] != "stale_version" {
		t.Fatalf("outcomes: %v", m.outcomes)
	}

	sum, err := svc.Describe(ctx, "svc101")
	if err != nil {
		t.Fatalf("Describe: %v", err)
	}
	if len(sum.Sections) != 1 || sum.Sections[0].Activities != 2 || sum.Sections[0].Title != "One" || sum.Sections[0].Baseline || sum.Media != 1 {
		t.Fatalf("summary: %+v", sum)
	}
	if _, err := svc.Describe(ctx, "missing"); !aggregates.IsCode(err, aggregates.CodeNotFound) {
		t.Fatalf("missing course: want not_found, got %v", err)
	}
}
