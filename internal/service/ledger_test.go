package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/user/yamdb/internal/model"
	"github.com/user/yamdb/internal/repository"
	"github.com/user/yamdb/internal/testutil"
)

type ledgerFixture struct {
	ledger  *Ledger
	catalog *Catalog
	title   *model.Title
	alice   *model.User
	bob     *model.User
}

func newLedgerFixture(t *testing.T) ledgerFixture {
	t.Helper()
	db := testutil.NewDB(t)
	repos := repository.NewRepositories(db)
	return ledgerFixture{
		ledger:  NewLedger(repos),
		catalog: NewCatalog(repos),
		title:   testutil.SeedTitle(t, db, "Hamlet", 1603),
		alice:   testutil.SeedUser(t, db, "alice", model.RoleUser),
		bob:     testutil.SeedUser(t, db, "bob", model.RoleUser),
	}
}

func TestCreateReviewOncePerAuthor(t *testing.T) {
	ctx := context.Background()
	f := newLedgerFixture(t)

	review, err := f.ledger.CreateReview(ctx, f.title.ID, f.alice.ID, "To be", 9)
	require.NoError(t, err)
	assert.Equal(t, "alice", review.AuthorUsername)
	assert.False(t, review.PubDate.IsZero())

	title, err := f.catalog.GetTitle(ctx, f.title.ID)
	require.NoError(t, err)
	require.NotNil(t, title.Rating)
	assert.InDelta(t, 9.0, *title.Rating, 1e-9)

	_, err = f.ledger.CreateReview(ctx, f.title.ID, f.alice.ID, "or not", 2)
	assert.ErrorIs(t, err, ErrReviewExists)
	assert.ErrorIs(t, err, repository.ErrDuplicate)

	title, err = f.catalog.GetTitle(ctx, f.title.ID)
	require.NoError(t, err)
	assert.InDelta(t, 9.0, *title.Rating, 1e-9)
}

func TestCreateReviewValidation(t *testing.T) {
	ctx := context.Background()
	f := newLedgerFixture(t)

	var verr *ValidationError
	_, err := f.ledger.CreateReview(ctx, f.title.ID, f.alice.ID, "text", 11)
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "score", verr.Field)

	_, err = f.ledger.CreateReview(ctx, f.title.ID, f.alice.ID, "  ", 5)
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "text", verr.Field)

	_, err = f.ledger.CreateReview(ctx, f.title.ID, 999, "text", 5)
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "author", verr.Field)

	_, err = f.ledger.CreateReview(ctx, 999, f.alice.ID, "text", 5)
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestRatingFollowsUpdatesAndDeletes(t *testing.T) {
	ctx := context.Background()
	f := newLedgerFixture(t)

	r1, err := f.ledger.CreateReview(ctx, f.title.ID, f.alice.ID, "good", 8)
	require.NoError(t, err)
	_, err = f.ledger.CreateReview(ctx, f.title.ID, f.bob.ID, "bad", 2)
	require.NoError(t, err)

	score := 10
	updated, err := f.ledger.UpdateReview(ctx, f.title.ID, r1.ID, ReviewPatch{Score: &score})
	require.NoError(t, err)
	assert.Equal(t, 10, updated.Score)
	assert.Equal(t, "good", updated.Text)
	assert.True(t, r1.PubDate.Equal(updated.PubDate))

	title, err := f.catalog.GetTitle(ctx, f.title.ID)
	require.NoError(t, err)
	assert.InDelta(t, 6.0, *title.Rating, 1e-9)

	require.NoError(t, f.ledger.DeleteReview(ctx, f.title.ID, r1.ID))
	title, err = f.catalog.GetTitle(ctx, f.title.ID)
	require.NoError(t, err)
	assert.InDelta(t, 2.0, *title.Rating, 1e-9)
}

func TestCommentParentMustBelongToTitle(t *testing.T) {
	ctx := context.Background()
	f := newLedgerFixture(t)

	other, err := f.catalog.CreateTitle(ctx, TitleInput{Name: "Macbeth", Year: 1606})
	require.NoError(t, err)

	review, err := f.ledger.CreateReview(ctx, f.title.ID, f.alice.ID, "good", 8)
	require.NoError(t, err)

	_, err = f.ledger.CreateComment(ctx, other.ID, review.ID, f.bob.ID, "wrong title")
	assert.ErrorIs(t, err, repository.ErrNotFound)

	comment, err := f.ledger.CreateComment(ctx, f.title.ID, review.ID, f.bob.ID, "agreed")
	require.NoError(t, err)
	assert.Equal(t, "bob", comment.AuthorUsername)

	_, err = f.ledger.GetComment(ctx, other.ID, review.ID, comment.ID)
	assert.ErrorIs(t, err, repository.ErrNotFound)

	text := "strongly agreed"
	comment, err = f.ledger.UpdateComment(ctx, f.title.ID, review.ID, comment.ID, &text)
	require.NoError(t, err)
	assert.Equal(t, text, comment.Text)
}

func TestDeleteReviewCascadesComments(t *testing.T) {
	ctx := context.Background()
	f := newLedgerFixture(t)

	review, err := f.ledger.CreateReview(ctx, f.title.ID, f.alice.ID, "good", 8)
	require.NoError(t, err)
	comment, err := f.ledger.CreateComment(ctx, f.title.ID, review.ID, f.bob.ID, "agreed")
	require.NoError(t, err)

	require.NoError(t, f.ledger.DeleteReview(ctx, f.title.ID, review.ID))

	_, err = f.ledger.GetReview(ctx, f.title.ID, review.ID)
	assert.ErrorIs(t, err, repository.ErrNotFound)
	_, _, err = f.ledger.ListComments(ctx, f.title.ID, review.ID, repository.Page{})
	assert.ErrorIs(t, err, repository.ErrNotFound)
	assert.ErrorIs(t, f.ledger.DeleteComment(ctx, f.title.ID, review.ID, comment.ID), repository.ErrNotFound)
}

func TestDeleteTitleCascadesLedger(t *testing.T) {
	ctx := context.Background()
	f := newLedgerFixture(t)

	review, err := f.ledger.CreateReview(ctx, f.title.ID, f.alice.ID, "good", 8)
	require.NoError(t, err)
	_, err = f.ledger.CreateComment(ctx, f.title.ID, review.ID, f.bob.ID, "agreed")
	require.NoError(t, err)

	require.NoError(t, f.catalog.DeleteTitle(ctx, f.title.ID))

	_, _, err = f.ledger.ListReviews(ctx, f.title.ID, repository.Page{})
	assert.ErrorIs(t, err, repository.ErrNotFound)
	_, err = f.ledger.GetReview(ctx, f.title.ID, review.ID)
	assert.ErrorIs(t, err, repository.ErrNotFound)
}
