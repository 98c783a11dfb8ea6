package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/charlesng35/termfolio/internal/database/testutil"
	apperrors "github.com/charlesng35/termfolio/pkg/errors"
)

func newPostTestService(t *testing.T) *PostService {
	t.Helper()
	db := testutil.MustOpenTestDB(t, testutil.WithAutoMigrate())
	svc, err := NewPostService(db)
	require.NoError(t, err)
	return svc
}

func TestPostCreateDraftAndPublish(t *testing.T) {
	svc := newPostTestService(t)
	ctx := context.Background()

	post, err := svc.Create(ctx, CreatePostInput{
		Slug:  "hello",
		Title: "Hello",
		Body:  "First post.",
		Tags:  []string{"go"},
	})
	require.NoError(t, err)
	require.False(t, post.Published)
	require.Nil(t, post.PublishedAt)

	publish := true
	updated, err := svc.Update(ctx, post.ID, UpdatePostInput{Publish: &publish})
	require.NoError(t, err)
	require.True(t, updated.Published)
	require.NotNil(t, updated.PublishedAt)

	firstPublished := *updated.PublishedAt

	// Unpublish then republish keeps the original timestamp.
	unpublish := false
	_, err = svc.Update(ctx, post.ID, UpdatePostInput{Publish: &unpublish})
	require.NoError(t, err)

	republished, err := svc.Update(ctx, post.ID, UpdatePostInput{Publish: &publish})
	require.NoError(t, err)
	require.Equal(t, firstPublished.Unix(), republished.PublishedAt.Unix())
}

func TestPostCreatePublishedImmediately(t *testing.T) {
	svc := newPostTestService(t)

	post, err := svc.Create(context.Background(), CreatePostInput{
		Slug:    "live",
		Title:   "Live",
		Publish: true,
	})
	require.NoError(t, err)
	require.True(t, post.Published)
	require.NotNil(t, post.PublishedAt)
}

func TestPostDuplicateSlug(t *testing.T) {
	svc := newPostTestService(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, CreatePostInput{Slug: "dup", Title: "First"})
	require.NoError(t, err)

	_, err = svc.Create(ctx, CreatePostInput{Slug: "dup", Title: "Second"})
	require.ErrorIs(t, err, apperrors.ErrConflict)
}

func TestPostPublicLookupsExcludeDrafts(t *testing.T) {
	svc := newPostTestService(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, CreatePostInput{Slug: "draft", Title: "Draft"})
	require.NoError(t, err)
	_, err = svc.Create(ctx, CreatePostInput{Slug: "public", Title: "Public", Publish: true})
	require.NoError(t, err)

	published, err := svc.ListPublished(ctx)
	require.NoError(t, err)
	require.Len(t, published, 1)
	require.Equal(t, "public", published[0].Slug)

	_, err = svc.GetPublishedBySlug(ctx, "draft")
	require.Error(t, err)

	post, err := svc.GetPublishedBySlug(ctx, "public")
	require.NoError(t, err)
	require.Equal(t, "Public", post.Title)
}

func TestPostDelete(t *testing.T) {
	svc := newPostTestService(t)
	ctx := context.Background()

	post, err := svc.Create(ctx, CreatePostInput{Slug: "gone", Title: "Gone"})
	require.NoError(t, err)

	require.NoError(t, svc.Delete(ctx, post.ID))
	require.Error(t, svc.Delete(ctx, post.ID))
}
