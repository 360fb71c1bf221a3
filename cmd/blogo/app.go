package main

import (
	"context"
	"fmt"

	"github.com/dfryer1193/blogo/blog/application"
	"github.com/dfryer1193/blogo/blog/persistence"
	"github.com/dfryer1193/blogo/internal/config"
	"github.com/dfryer1193/blogo/shared/db/sqlite"
	gh "github.com/dfryer1193/blogo/shared/github"
	"github.com/rs/zerolog/log"
)

// blog holds the wired dependencies shared by the commands.
type blog struct {
	db          *sqlite.SQLiteDB
	images      *persistence.SQLiteImageRepository
	postService *application.PostService
}

func openBlog(ctx context.Context, cfg *config.Config) (*blog, error) {
	dbConn := sqlite.NewSQLiteDB(sqlite.SQLiteConfig{Path: cfg.Database.Path})
	if err := dbConn.Connect(ctx); err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	postRepo := persistence.NewPostRepository(dbConn.DB())
	imageRepo := persistence.NewImageRepository(dbConn.DB(), cfg.Images.Dir)
	renderer := application.NewMarkdownRenderer(cfg.BlogURL)

	opts := []application.Option{application.WithImages(imageRepo, cfg.Images.MaxSize)}
	if cfg.HasSource() {
		sourceRepo := gh.NewGithubSourceRepository(gh.NewClient(cfg.Github.Token), cfg.Github.Owner, cfg.Github.Repo)

		mainBranchName, err := sourceRepo.GetDefaultBranchName(ctx)
		if err != nil {
			dbConn.Close()
			return nil, fmt.Errorf("failed to get default branch name: %w", err)
		}
		log.Info().Str("repo", sourceRepo.GetRepoFullName()).Str("branch", mainBranchName).Msg("Syncing posts from GitHub")
		opts = append(opts,
			application.WithSource(sourceRepo, mainBranchName),
			application.WithSyncState(persistence.NewSyncStateRepository(dbConn.DB())),
		)
	}

	return &blog{
		db:          dbConn,
		images:      imageRepo,
		postService: application.NewPostService(postRepo, renderer.RenderFunc(), opts...),
	}, nil
}

func (b *blog) Close() {
	if err := b.postService.Close(); err != nil {
		log.Error().Err(err).Msg("Failed to gracefully close post service")
	}
	if err := b.db.Close(); err != nil {
		log.Error().Err(err).Msg("Failed to close database")
	}
}

func syncOnce(ctx context.Context, cfg *config.Config) error {
	if !cfg.HasSource() {
		return fmt.Errorf("github.owner and github.repo must be configured to sync")
	}

	b, err := openBlog(ctx, cfg)
	if err != nil {
		return err
	}
	defer b.Close()

	return b.postService.SyncRepositoryChanges(ctx)
}
