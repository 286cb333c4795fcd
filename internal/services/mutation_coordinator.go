package services

import (
	"context"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/civix-app/civix-server/internal/apperr"
	"github.com/civix-app/civix-server/internal/models"
	"github.com/civix-app/civix-server/internal/social"
	"github.com/civix-app/civix-server/internal/store"
	"github.com/google/uuid"
)

// MutationCoordinator applies engagement mutations. Every write is a single
// atomic store primitive; nothing is read, modified and written back here.
type MutationCoordinator struct {
	reports store.ReportStore
	users   store.UserStore
	graph   *social.Graph
	now     func() time.Time
}

func NewMutationCoordinator(reports store.ReportStore, users store.UserStore, graph *social.Graph) *MutationCoordinator {
	return &MutationCoordinator{reports: reports, users: users, graph: graph, now: time.Now}
}

func (m *MutationCoordinator) Upvote(ctx context.Context, reportID uuid.UUID) (*models.Report, error) {
	return m.increment(ctx, reportID, store.CounterUpvotes)
}

func (m *MutationCoordinator) Share(ctx context.Context, reportID uuid.UUID) (*models.Report, error) {
	return m.increment(ctx, reportID, store.CounterShares)
}

func (m *MutationCoordinator) increment(ctx context.Context, reportID uuid.UUID, counter store.Counter) (*models.Report, error) {
	r, err := m.reports.Increment(ctx, reportID, counter)
	if err != nil {
		logMutationError(err, "increment_"+string(counter), uuid.Nil, reportID)
		return nil, err
	}
	return r, nil
}

// AddComment resolves the author's current name and avatar and freezes them
// into the comment. Returns the full comment list, newest first.
func (m *MutationCoordinator) AddComment(ctx context.Context, reportID, authorID uuid.UUID, text string) ([]models.Comment, error) {
	author, err := m.users.GetUser(ctx, authorID)
	if err != nil {
		return nil, err
	}
	return m.CommentAs(ctx, reportID, authorID, author.Name, author.Avatar, text)
}

// CommentAs prepends a comment with an explicit author snapshot.
func (m *MutationCoordinator) CommentAs(ctx context.Context, reportID, authorID uuid.UUID, authorName, authorAvatar, text string) ([]models.Comment, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, apperr.Validation("comment text is required")
	}
	if utf8.RuneCountInString(text) > models.MaxCommentLength {
		return nil, apperr.Validation("comment must be at most %d characters", models.MaxCommentLength)
	}

	c := models.Comment{
		ID:           uuid.New(),
		AuthorID:     authorID,
		AuthorName:   authorName,
		AuthorAvatar: authorAvatar,
		Text:         text,
		CreatedAt:    m.now().UTC(),
	}
	r, err := m.reports.PrependComment(ctx, reportID, c)
	if err != nil {
		logMutationError(err, "comment", authorID, reportID)
		return nil, err
	}
	return r.Comments, nil
}

// ToggleBookmark flips reportID in the user's bookmark set and returns the
// new membership together with the resulting set.
func (m *MutationCoordinator) ToggleBookmark(ctx context.Context, userID, reportID uuid.UUID) (bool, []uuid.UUID, error) {
	on, err := m.users.ToggleBookmark(ctx, userID, reportID)
	if err != nil {
		logMutationError(err, "toggle_bookmark", userID, reportID)
		return false, nil, err
	}
	ids, err := m.users.Bookmarks(ctx, userID)
	if err != nil {
		return false, nil, err
	}
	return on, ids, nil
}

func (m *MutationCoordinator) Follow(ctx context.Context, actor, target uuid.UUID) error {
	if err := m.graph.Follow(ctx, actor, target); err != nil {
		logMutationError(err, "follow", actor, uuid.Nil)
		return err
	}
	return nil
}

func (m *MutationCoordinator) Unfollow(ctx context.Context, actor, target uuid.UUID) error {
	if err := m.graph.Unfollow(ctx, actor, target); err != nil {
		logMutationError(err, "unfollow", actor, uuid.Nil)
		return err
	}
	return nil
}

// logMutationError records store failures only; client errors are expected.
func logMutationError(err error, action string, userID, reportID uuid.UUID) {
	if !apperr.IsInternal(err) {
		return
	}
	attrs := []any{"action", action, "error", err.Error()}
	if userID != uuid.Nil {
		attrs = append(attrs, "user_id", userID.String())
	}
	if reportID != uuid.Nil {
		attrs = append(attrs, "report_id", reportID.String())
	}
	slog.Error("mutation failed", attrs...)
}
