package application

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/dfryer1193/blogo/blog/domain"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

const (
	// syncConcurrency bounds the files fetched and rendered at once during a sync.
	syncConcurrency = 4
	zeroCommitSHA   = "0000000000000000000000000000000000000000"
)

// PostInput is what an author supplies for a post. Everything else is derived.
type PostInput struct {
	Slug    string
	Title   string
	Content string
	Author  string
	PubDate *time.Time
	// ModifiedAt defaults to the current time.
	ModifiedAt time.Time
}

// PushEvent is a push to the source repository.
type PushEvent struct {
	Ref    string
	Before string
	After  string
}

type PostService struct {
	repo   domain.PostRepository
	render domain.RenderFunc
	now    func() time.Time

	sourceRepo     domain.SourceRepository
	mainBranchName string

	images       domain.ImageRepository
	maxImageSize int64

	syncState domain.SyncStateRepository

	// Service lifecycle context - cancelled when Close() is called
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

type Option func(*PostService)

// WithSource enables syncing posts from a source repository.
func WithSource(sourceRepo domain.SourceRepository, mainBranchName string) Option {
	return func(s *PostService) {
		s.sourceRepo = sourceRepo
		s.mainBranchName = mainBranchName
	}
}

// WithImages stores images found in the source repository.
func WithImages(images domain.ImageRepository, maxSize int64) Option {
	return func(s *PostService) {
		s.images = images
		s.maxImageSize = maxSize
	}
}

// WithSyncState keeps a per-branch marker of the newest synced commit.
// Without it syncing resumes from the newest post update.
func WithSyncState(state domain.SyncStateRepository) Option {
	return func(s *PostService) {
		s.syncState = state
	}
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *PostService) {
		s.now = now
	}
}

func NewPostService(repo domain.PostRepository, render domain.RenderFunc, opts ...Option) *PostService {
	ctx, cancel := context.WithCancel(context.Background())
	s := &PostService{
		repo:   repo,
		render: render,
		now:    time.Now,
		ctx:    ctx,
		cancel: cancel,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Close gracefully shuts down the PostService by cancelling all background workers
func (s *PostService) Close() error {
	s.cancel()
	s.wg.Wait()

	return nil
}

// SavePost validates the input, derives the description and body from the content
// and stores the post. The slug is derived from the title when empty.
func (s *PostService) SavePost(ctx context.Context, in PostInput) (*domain.Post, error) {
	slug := in.Slug
	if slug == "" {
		slug = makeSlug(in.Title)
	}

	modifiedAt := in.ModifiedAt
	if modifiedAt.IsZero() {
		modifiedAt = s.now()
	}

	post := &domain.Post{
		Slug:      slug,
		Title:     in.Title,
		Content:   in.Content,
		Author:    in.Author,
		PubDate:   in.PubDate,
		UpdatedAt: modifiedAt,
		CreatedAt: modifiedAt,
	}
	if err := post.Validate(); err != nil {
		return nil, err
	}

	post.Render(s.render)

	if err := s.repo.UpsertPost(ctx, post); err != nil {
		return nil, fmt.Errorf("failed to save post %q: %w", slug, err)
	}

	log.Debug().Str("slug", slug).Bool("hasMore", post.HasMore()).Msg("Saved post")
	return post, nil
}

// Preview splits and renders content without storing anything.
func (s *PostService) Preview(content string) domain.SplitResult {
	return domain.SplitContent(content, s.render)
}

// GetPublishedPost returns the post only if it is visible now.
func (s *PostService) GetPublishedPost(ctx context.Context, slug string) (*domain.Post, error) {
	post, err := s.repo.GetPostBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}
	if !post.Published(s.now()) {
		return nil, fmt.Errorf("post %q: %w", slug, domain.ErrPostNotFound)
	}
	return post, nil
}

// ListPublished returns posts visible now, newest first.
func (s *PostService) ListPublished(ctx context.Context, limit, offset int) ([]*domain.Post, error) {
	return s.repo.ListPublishedPosts(ctx, s.now(), limit, offset)
}

func (s *PostService) Publish(ctx context.Context, slug string) error {
	return s.repo.Publish(ctx, slug, s.now())
}

func (s *PostService) Unpublish(ctx context.Context, slug string) error {
	return s.repo.Unpublish(ctx, slug)
}

// SyncRepositoryChanges syncs posts from commits made since the last sync on every branch.
// This catches any changes that happened while the server was offline.
func (s *PostService) SyncRepositoryChanges(ctx context.Context) error {
	if s.sourceRepo == nil {
		return fmt.Errorf("no source repository configured")
	}

	// Read before any branch is applied so a draft sync cannot hide main commits.
	lastUpdatedAt, err := s.repo.GetLatestUpdatedTime(ctx)
	if err != nil {
		return fmt.Errorf("could not get the time of the last update: %w", err)
	}

	branches, err := s.sourceRepo.ListBranches(ctx)
	if err != nil {
		return fmt.Errorf("failed to retrieve branches: %w", err)
	}

	// The main branch goes last so its versions win over drafts.
	ordered := make([]string, 0, len(branches))
	hasMain := false
	for _, b := range branches {
		if b == s.mainBranchName {
			hasMain = true
			continue
		}
		ordered = append(ordered, b)
	}
	if hasMain {
		ordered = append(ordered, s.mainBranchName)
	}

	for _, branch := range ordered {
		if err := s.processBranch(ctx, branch, lastUpdatedAt); err != nil {
			log.Error().Err(err).Str("branch", branch).Msg("Failed to process branch")
		}
	}

	return nil
}

// syncedSince is where a branch sync resumes. A branch without a marker
// falls back to the newest post update.
func (s *PostService) syncedSince(ctx context.Context, branch string, fallback time.Time) (time.Time, error) {
	if s.syncState == nil {
		return fallback, nil
	}
	syncedAt, err := s.syncState.GetSyncedAt(ctx, branch)
	if err != nil {
		return time.Time{}, err
	}
	if syncedAt.IsZero() {
		return fallback, nil
	}
	return syncedAt, nil
}

// markSynced advances the branch marker once its changes are applied.
func (s *PostService) markSynced(ctx context.Context, branch string, changes *changeSet) error {
	if s.syncState == nil || changes.latest.IsZero() {
		return nil
	}
	return s.syncState.SetSyncedAt(ctx, branch, changes.latest)
}

func (s *PostService) processBranch(ctx context.Context, branch string, lastUpdatedAt time.Time) error {
	since, err := s.syncedSince(ctx, branch, lastUpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to get sync marker for branch %s: %w", branch, err)
	}

	commits, err := s.sourceRepo.GetCommitsSince(ctx, branch, since)
	if err != nil {
		return fmt.Errorf("failed to get commits for branch %s: %w", branch, err)
	}

	if len(commits) == 0 {
		return nil
	}

	changes, err := s.analyzeCommitFiles(ctx, commits)
	if err != nil {
		return fmt.Errorf("failed to analyze commits for branch %s: %w", branch, err)
	}

	if err := s.applyChanges(ctx, changes, branch == s.mainBranchName); err != nil {
		return err
	}
	return s.markSynced(ctx, branch, changes)
}

// HandlePushEvent records a push to the source repository.
// It returns once the pushed commits are analyzed; files are processed by a background
// worker bound to the service lifecycle rather than to the caller's context.
func (s *PostService) HandlePushEvent(ctx context.Context, evt PushEvent) error {
	if s.sourceRepo == nil {
		return fmt.Errorf("no source repository configured")
	}

	var commits []*domain.SourceCommit
	if evt.Before != "" && evt.Before != zeroCommitSHA {
		var err error
		commits, err = s.sourceRepo.GetCommitsInRange(ctx, evt.Before, evt.After)
		if err != nil {
			return fmt.Errorf("failed to get commits in range %s...%s: %w", evt.Before, evt.After, err)
		}
	} else {
		// New branch or first commit
		headCommit, err := s.sourceRepo.GetCommit(ctx, evt.After)
		if err != nil {
			return fmt.Errorf("failed to get commit %s: %w", evt.After, err)
		}
		commits = []*domain.SourceCommit{headCommit}
	}

	changes, err := s.analyzeCommitFiles(ctx, commits)
	if err != nil {
		return fmt.Errorf("failed to analyze commits: %w", err)
	}

	branch, isBranch := strings.CutPrefix(evt.Ref, "refs/heads/")
	isMainBranch := isBranch && branch == s.mainBranchName

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		if err := s.applyChanges(s.ctx, changes, isMainBranch); err != nil {
			log.Error().Err(err).Str("ref", evt.Ref).Msg("Failed to apply pushed changes")
			return
		}
		if !isBranch {
			return
		}
		if err := s.markSynced(s.ctx, branch, changes); err != nil {
			log.Error().Err(err).Str("branch", branch).Msg("Failed to record sync marker")
		}
	}()

	return nil
}

// changeSet is the net effect of a sequence of commits on tracked files.
type changeSet struct {
	// updated maps a path to the last commit that added or modified it
	updated map[string]*domain.SourceCommit
	removed map[string]struct{}
	// latest is the newest authored time among the recorded commits
	latest time.Time
}

func newChangeSet() *changeSet {
	return &changeSet{
		updated: make(map[string]*domain.SourceCommit),
		removed: make(map[string]struct{}),
	}
}

func isTracked(p string) bool {
	return isPostFile(p) || isImageFile(p)
}

// record applies one file change. Commits must be recorded oldest first.
func (c *changeSet) record(file domain.SourceFile, commit *domain.SourceCommit) {
	switch file.Status {
	case domain.FileAdded, domain.FileModified:
		if isTracked(file.Path) {
			c.updated[file.Path] = commit
			delete(c.removed, file.Path)
		}
	case domain.FileRemoved:
		if isTracked(file.Path) {
			c.removed[file.Path] = struct{}{}
			delete(c.updated, file.Path)
		}
	case domain.FileRenamed:
		if isTracked(file.PreviousPath) {
			c.removed[file.PreviousPath] = struct{}{}
			delete(c.updated, file.PreviousPath)
		}
		if isTracked(file.Path) {
			c.updated[file.Path] = commit
			delete(c.removed, file.Path)
		}
	}
}

// analyzeCommitFiles fetches every commit in full and folds its files into a changeSet.
func (s *PostService) analyzeCommitFiles(ctx context.Context, commits []*domain.SourceCommit) (*changeSet, error) {
	changes := newChangeSet()

	for _, summary := range commits {
		fullCommit, err := s.sourceRepo.GetCommit(ctx, summary.SHA)
		if err != nil {
			return nil, fmt.Errorf("failed to get full commit %s: %w", summary.SHA, err)
		}

		for _, file := range fullCommit.Files {
			changes.record(file, fullCommit)
		}
		if fullCommit.AuthoredAt.After(changes.latest) {
			changes.latest = fullCommit.AuthoredAt
		}
	}

	return changes, nil
}

// applyChanges processes updated files concurrently, then removals.
// Individual file failures are logged and do not stop the others.
func (s *PostService) applyChanges(ctx context.Context, changes *changeSet, isMainBranch bool) error {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(syncConcurrency)

	for p, commit := range changes.updated {
		g.Go(func() error {
			var err error
			switch {
			case isPostFile(p):
				err = s.processPostFile(gctx, p, commit, isMainBranch)
			case isImageFile(p) && isMainBranch:
				err = s.processImageFile(gctx, p, commit)
			}
			if err != nil {
				log.Error().Err(err).Str("path", p).Str("commitSHA", commit.SHA).Msg("Failed to process file")
			}
			return gctx.Err()
		})
	}

	if err := g.Wait(); err != nil {
		return err
	}

	if !isMainBranch {
		return nil
	}

	for p := range changes.removed {
		var err error
		switch {
		case isPostFile(p):
			err = s.repo.Unpublish(ctx, slugFromPostPath(p))
			if errors.Is(err, domain.ErrPostNotFound) {
				err = nil
			}
		case isImageFile(p) && s.images != nil:
			err = s.images.DeleteImage(ctx, p)
		}
		if err != nil {
			log.Error().Err(err).Str("path", p).Msg("Failed to remove file")
		}
	}

	return nil
}

// processPostFile stores one post file at the given commit.
// Drafts from other branches never overwrite a published post.
func (s *PostService) processPostFile(ctx context.Context, p string, commit *domain.SourceCommit, isMainBranch bool) error {
	markdown, err := s.sourceRepo.GetFileContents(ctx, p, commit.SHA)
	if err != nil {
		return fmt.Errorf("failed to get file contents: %w", err)
	}

	slug := slugFromPostPath(p)
	existing, err := s.repo.GetPostBySlug(ctx, slug)
	if err != nil && !errors.Is(err, domain.ErrPostNotFound) {
		return err
	}

	var pubDate *time.Time
	if existing != nil {
		pubDate = existing.PubDate
	}
	if pubDate != nil && !isMainBranch {
		log.Debug().Str("slug", slug).Msg("Skipping draft change to published post")
		return nil
	}
	if pubDate == nil && isMainBranch {
		authoredAt := commit.AuthoredAt
		pubDate = &authoredAt
	}

	content := string(markdown)
	_, err = s.SavePost(ctx, PostInput{
		Slug:       slug,
		Title:      ExtractTitle(content),
		Content:    StripTitle(content),
		Author:     commit.Author,
		PubDate:    pubDate,
		ModifiedAt: commit.AuthoredAt,
	})
	return err
}

func (s *PostService) processImageFile(ctx context.Context, p string, commit *domain.SourceCommit) error {
	if s.images == nil {
		return nil
	}

	content, err := s.sourceRepo.GetFileContents(ctx, p, commit.SHA)
	if err != nil {
		return fmt.Errorf("failed to get file contents: %w", err)
	}

	if err := domain.ValidateImageSize(int64(len(content)), s.maxImageSize); err != nil {
		return err
	}
	contentType, err := domain.ValidateImageType(content)
	if err != nil {
		return err
	}

	return s.images.SaveImage(ctx, &domain.Image{
		Path:        p,
		Hash:        calculateHash(content),
		ContentType: contentType,
		Content:     content,
		UpdatedAt:   commit.AuthoredAt,
		CreatedAt:   commit.AuthoredAt,
	})
}
