package build

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"git.home.luguber.info/inful/campus/internal/eventstore"
	ferrors "git.home.luguber.info/inful/campus/internal/foundation/errors"
	"git.home.luguber.info/inful/campus/internal/logfields"
	"git.home.luguber.info/inful/campus/internal/markdown"
	"git.home.luguber.info/inful/campus/internal/metrics"
	"git.home.luguber.info/inful/campus/internal/observability"
	"git.home.luguber.info/inful/campus/internal/search"
	"git.home.luguber.info/inful/campus/internal/site"
)

const (
	stageLoad    = "load"
	stageRoutes  = "routes"
	stageRender  = "render"
	stageSitemap = "sitemap"
	stageSearch  = "search"

	defaultConcurrency = 8
)

// DefaultBuildService is the standard implementation of BuildService.
type DefaultBuildService struct {
	site     *site.Site
	recorder metrics.Recorder
	history  eventstore.Store
	uploader search.Uploader
}

// NewBuildService creates a build service over s.
func NewBuildService(s *site.Site) *DefaultBuildService {
	return &DefaultBuildService{site: s, recorder: metrics.NoopRecorder{}}
}

// WithRecorder sets the metrics recorder.
func (s *DefaultBuildService) WithRecorder(r metrics.Recorder) *DefaultBuildService {
	s.recorder = metrics.OrNoop(r)
	return s
}

// WithHistory records every build in store.
func (s *DefaultBuildService) WithHistory(store eventstore.Store) *DefaultBuildService {
	s.history = store
	return s
}

// WithUploader sets the search backend used when a request asks for
// indexing.
func (s *DefaultBuildService) WithUploader(up search.Uploader) *DefaultBuildService {
	s.uploader = up
	return s
}

// Run executes the complete build pipeline.
func (s *DefaultBuildService) Run(ctx context.Context, req BuildRequest) (*BuildResult, error) {
	result := &BuildResult{
		BuildID:    uuid.NewString(),
		StartTime:  time.Now(),
		OutputPath: req.OutputDir,
	}
	ctx = observability.WithBuildID(ctx, result.BuildID)
	journal := eventstore.NewJournal(s.history, result.BuildID)
	journal.Started(ctx, eventstore.BuildStartedPayload{
		ContentRoot: req.ContentRoot,
		Output:      req.OutputDir,
		Commit:      req.Commit,
	})

	stage := stageLoad
	fail := func(err error) (*BuildResult, error) {
		result.Status = BuildStatusFailed
		if errors.Is(err, context.Canceled) {
			result.Status = BuildStatusCancelled
		}
		result.EndTime = time.Now()
		result.Duration = result.EndTime.Sub(result.StartTime)
		s.recorder.ObserveBuild(result.Duration, metrics.OutcomeFailed)
		journal.Failed(ctx, stage, err)
		observability.ErrorContext(observability.WithStage(ctx, stage), "Build failed", logfields.Error(err))
		return result, err
	}

	if err := prepareOutput(req.OutputDir, req.Clean); err != nil {
		return fail(err)
	}

	// Stage 1: previews of every kind
	stageStart := time.Now()
	snap, err := s.site.Load(ctx)
	if err != nil {
		return fail(err)
	}
	journal.Stage(ctx, stageLoad, len(snap.Resources), time.Since(stageStart))

	// Stage 2: routes
	stage, stageStart = stageRoutes, time.Now()
	routes := s.site.Routes(snap)
	s.recorder.ObserveStage(stageRoutes, time.Since(stageStart))
	journal.Stage(ctx, stageRoutes, len(routes), time.Since(stageStart))
	observability.InfoContext(ctx, "Routes enumerated", logfields.Count(len(routes)))

	// Stage 3: page data
	stage, stageStart = stageRender, time.Now()
	broken, err := s.render(observability.WithStage(ctx, stageRender), snap, routes, req)
	if err != nil {
		return fail(err)
	}
	result.Routes = len(routes)
	result.BrokenLinks = broken
	s.recorder.ObserveStage(stageRender, time.Since(stageStart))
	s.recorder.AddRoutes(len(routes))
	journal.Stage(ctx, stageRender, len(routes), time.Since(stageStart))

	// Stage 4: sitemap
	stage, stageStart = stageSitemap, time.Now()
	if err := writeSitemap(req.OutputDir, req.BaseURL, routes); err != nil {
		return fail(err)
	}
	s.recorder.ObserveStage(stageSitemap, time.Since(stageStart))

	// Stage 5: search upload, best effort
	if req.Index && s.uploader != nil {
		stage, stageStart = stageSearch, time.Now()
		records, err := search.RecordsFrom(snap.Posts)
		if err != nil {
			observability.WarnContext(ctx, "Search records skipped", logfields.Error(err))
		} else {
			result.Indexed = search.Publish(ctx, s.uploader, records, s.recorder)
		}
		s.recorder.ObserveStage(stageSearch, time.Since(stageStart))
		journal.SearchUploaded(ctx, eventstore.SearchUploadedPayload{
			Backend: s.uploader.Name(),
			Records: len(records),
			OK:      result.Indexed,
		})
	}

	result.Status = BuildStatusSuccess
	result.EndTime = time.Now()
	result.Duration = result.EndTime.Sub(result.StartTime)
	outcome := metrics.OutcomeSuccess
	if result.BrokenLinks > 0 || (req.Index && s.uploader != nil && !result.Indexed) {
		outcome = metrics.OutcomeWarning
	}
	s.recorder.ObserveBuild(result.Duration, outcome)
	journal.Completed(ctx, result.Routes)

	observability.InfoContext(ctx, "Build completed",
		logfields.Count(result.Routes),
		logfields.DurationMS(float64(result.Duration.Milliseconds())),
		slog.Int("broken_links", result.BrokenLinks))
	return result, nil
}

// render assembles and writes every page. The first failure cancels the
// remaining pages. It returns the number of broken internal links.
func (s *DefaultBuildService) render(ctx context.Context, snap *site.Snapshot, routes []site.Route, req BuildRequest) (int, error) {
	limit := req.Concurrency
	if limit <= 0 {
		limit = defaultConcurrency
	}
	var broken atomic.Int64

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)
	for _, r := range routes {
		g.Go(func() error {
			props, err := s.site.Props(gctx, snap, r)
			if err != nil {
				return annotateRoute(err, r)
			}
			for _, l := range site.BrokenLinks(snap, bodyOf(props)) {
				broken.Add(1)
				observability.WarnContext(ctx, "Broken internal link",
					logfields.Route(r.Path()),
					slog.String("target", l.Destination))
			}
			return writeProps(req.OutputDir, r, props)
		})
	}
	if err := g.Wait(); err != nil {
		return 0, err
	}
	return int(broken.Load()), nil
}

func bodyOf(props any) *markdown.Document {
	switch p := props.(type) {
	case site.ResourceProps:
		return p.Resource.Body
	case site.CollectionProps:
		return p.Collection.Body
	case site.DocsProps:
		return p.Docs.Body
	}
	return nil
}

func annotateRoute(err error, r site.Route) error {
	if ce, ok := ferrors.AsClassified(err); ok {
		if _, has := ce.Context().Get("route"); !has {
			return ce.WithContext("route", r.Path())
		}
		return ce
	}
	return ferrors.WrapError(err, ferrors.CategoryBuild, "assemble page").WithContext("route", r.Path()).Build()
}

// PagePath returns the file a route's data is written to.
func PagePath(out string, r site.Route) string {
	return filepath.Join(out, filepath.FromSlash(strings.TrimPrefix(r.Path(), "/")), "index.json")
}

func writeProps(out string, r site.Route, props any) error {
	data, err := json.Marshal(props)
	if err != nil {
		return ferrors.InternalError("encode page data").WithCause(err).WithContext("route", r.Path()).Build()
	}
	path := PagePath(out, r)
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return ferrors.WrapError(err, ferrors.CategoryFileSystem, "create page directory").
			WithContext("path", path).Build()
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return ferrors.WrapError(err, ferrors.CategoryFileSystem, "write page data").
			WithContext("path", path).Build()
	}
	return nil
}

func writeSitemap(out, baseURL string, routes []site.Route) error {
	path := filepath.Join(out, "sitemap.xml")
	f, err := os.Create(path)
	if err != nil {
		return ferrors.WrapError(err, ferrors.CategoryFileSystem, "create sitemap").WithContext("path", path).Build()
	}
	if err := site.WriteSitemap(f, baseURL, routes); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return ferrors.WrapError(err, ferrors.CategoryFileSystem, "close sitemap").WithContext("path", path).Build()
	}
	return nil
}

// prepareOutput creates the output directory, emptying it first when
// clean is set. The working directory and the filesystem root are never
// removed.
func prepareOutput(out string, clean bool) error {
	if out == "" {
		return ferrors.ValidationError("output directory is required").Build()
	}
	if clean {
		abs, err := filepath.Abs(out)
		if err != nil {
			return ferrors.WrapError(err, ferrors.CategoryFileSystem, "resolve output directory").Build()
		}
		cwd, _ := os.Getwd()
		if abs == filepath.Dir(abs) || abs == cwd {
			return ferrors.ValidationError("refusing to clean output directory").WithContext("path", out).Build()
		}
		if err := os.RemoveAll(abs); err != nil {
			return ferrors.WrapError(err, ferrors.CategoryFileSystem, "clean output directory").
				WithContext("path", out).Build()
		}
	}
	if err := os.MkdirAll(out, 0o750); err != nil {
		return ferrors.WrapError(err, ferrors.CategoryFileSystem, "create output directory").
			WithContext("path", out).Build()
	}
	return nil
}
