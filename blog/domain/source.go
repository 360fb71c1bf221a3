package domain

import (
	"context"
	"time"
)

// Change statuses reported for a file in a commit.
const (
	FileAdded    = "added"
	FileModified = "modified"
	FileRemoved  = "removed"
	FileRenamed  = "renamed"
)

// SourceFile is a file touched by a commit.
type SourceFile struct {
	Path         string
	PreviousPath string
	Status       string
}

// SourceCommit is a commit in the repository posts are authored in.
type SourceCommit struct {
	SHA        string
	Author     string
	AuthoredAt time.Time
	Files      []SourceFile
}

// SourceRepository gives access to the repository posts and images are authored in (e.g. GitHub).
// Commits returned by GetCommitsSince and GetCommitsInRange may omit Files; GetCommit fills them in.
type SourceRepository interface {
	GetCommitsSince(ctx context.Context, branchName string, since time.Time) ([]*SourceCommit, error)
	GetCommitsInRange(ctx context.Context, baseCommit string, headCommit string) ([]*SourceCommit, error)
	GetCommit(ctx context.Context, sha string) (*SourceCommit, error)
	GetFileContents(ctx context.Context, path string, ref string) ([]byte, error)
	ListBranches(ctx context.Context) ([]string, error)
	GetDefaultBranchName(ctx context.Context) (string, error)
	GetRepoFullName() string
}

// SyncStateRepository remembers how far each branch of the source repository has been synced.
// Markers only move forward; a branch never synced reports the zero time.
type SyncStateRepository interface {
	GetSyncedAt(ctx context.Context, branch string) (time.Time, error)
	SetSyncedAt(ctx context.Context, branch string, at time.Time) error
}
