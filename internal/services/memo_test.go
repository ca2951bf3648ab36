package services

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/avclabs/faxdesk/internal/model"
	"github.com/avclabs/faxdesk/internal/store"
	"github.com/avclabs/faxdesk/internal/store/storetest"
)

func newMemoService(st store.Store) *MemoService {
	return NewMemoService(st, zerolog.Nop())
}

func TestMemoCreateAndList(t *testing.T) {
	st := storetest.NewFake()
	svc := newMemoService(st)
	seedDoc(t, st, &model.Document{ID: "d1", Type: model.DocumentTypeFax})

	page := 2
	memo, err := svc.Create(context.Background(), "d1", "first note", &page)
	require.NoError(t, err)
	require.NotNil(t, memo)
	assert.NotEmpty(t, memo.MemoID)
	assert.Equal(t, "first note", memo.Text)
	require.NotNil(t, memo.Page)
	assert.Equal(t, 2, *memo.Page)

	second, err := svc.Create(context.Background(), "d1", "second note", nil)
	require.NoError(t, err)

	memos, err := svc.List(context.Background(), "d1")
	require.NoError(t, err)
	require.Len(t, memos, 2)
	assert.Equal(t, memo.MemoID, memos[0].MemoID)
	assert.Equal(t, second.MemoID, memos[1].MemoID)

	doc, err := st.Documents().Get(context.Background(), "d1")
	require.NoError(t, err)
	require.NotNil(t, doc.LatestMemo)
	assert.Equal(t, "second note", doc.LatestMemo.Text)
}

func TestMemoCreateBlankTextIsCleanupOnly(t *testing.T) {
	st := storetest.NewFake()
	svc := newMemoService(st)
	seedDoc(t, st, &model.Document{ID: "d1", Type: model.DocumentTypeFax})

	memo, err := svc.Create(context.Background(), "d1", "   ", nil)
	require.NoError(t, err)
	assert.Nil(t, memo)

	memos, err := svc.List(context.Background(), "d1")
	require.NoError(t, err)
	assert.Empty(t, memos)
}

func TestMemoUpdateInPlace(t *testing.T) {
	st := storetest.NewFake()
	svc := newMemoService(st)
	seedDoc(t, st, &model.Document{ID: "d1", Type: model.DocumentTypeFax})

	first, err := svc.Create(context.Background(), "d1", "one", nil)
	require.NoError(t, err)
	_, err = svc.Create(context.Background(), "d1", "two", nil)
	require.NoError(t, err)

	page := 5
	updated, err := svc.Update(context.Background(), "d1", first.MemoID, "one revised", &page)
	require.NoError(t, err)
	require.NotNil(t, updated)
	assert.Equal(t, first.MemoID, updated.MemoID)
	assert.Equal(t, first.CreatedAt, updated.CreatedAt)
	assert.True(t, updated.UpdatedAt.After(first.UpdatedAt) || updated.UpdatedAt.Equal(first.UpdatedAt))

	memos, err := svc.List(context.Background(), "d1")
	require.NoError(t, err)
	require.Len(t, memos, 2)
	assert.Equal(t, "one revised", memos[0].Text)
	assert.Equal(t, "two", memos[1].Text)

	// Latest projection tracks the tail, not the updated memo.
	doc, err := st.Documents().Get(context.Background(), "d1")
	require.NoError(t, err)
	assert.Equal(t, "two", doc.LatestMemo.Text)
}

func TestMemoUpdateUnknownMemo(t *testing.T) {
	st := storetest.NewFake()
	svc := newMemoService(st)
	seedDoc(t, st, &model.Document{ID: "d1", Type: model.DocumentTypeFax})

	_, err := svc.Update(context.Background(), "d1", "nope", "text", nil)
	assert.ErrorIs(t, err, model.ErrNotFound)
}

func TestMemoUpdateBlankTextDeletes(t *testing.T) {
	st := storetest.NewFake()
	svc := newMemoService(st)
	seedDoc(t, st, &model.Document{ID: "d1", Type: model.DocumentTypeFax})
	memo, err := svc.Create(context.Background(), "d1", "soon gone", nil)
	require.NoError(t, err)

	updated, err := svc.Update(context.Background(), "d1", memo.MemoID, "", nil)
	require.NoError(t, err)
	assert.Nil(t, updated)

	doc, err := st.Documents().Get(context.Background(), "d1")
	require.NoError(t, err)
	assert.Empty(t, doc.Memos)
	assert.Nil(t, doc.LatestMemo)
}

func TestMemoDeleteIdempotent(t *testing.T) {
	st := storetest.NewFake()
	svc := newMemoService(st)
	seedDoc(t, st, &model.Document{ID: "d1", Type: model.DocumentTypeFax})
	memo, err := svc.Create(context.Background(), "d1", "note", nil)
	require.NoError(t, err)

	require.NoError(t, svc.Delete(context.Background(), "d1", memo.MemoID))
	require.NoError(t, svc.Delete(context.Background(), "d1", memo.MemoID))

	doc, err := st.Documents().Get(context.Background(), "d1")
	require.NoError(t, err)
	assert.Empty(t, doc.Memos)
	assert.Nil(t, doc.LatestMemo)
}

func TestMemoDeleteUnknownDocument(t *testing.T) {
	st := storetest.NewFake()
	svc := newMemoService(st)
	err := svc.Delete(context.Background(), "missing", "m1")
	assert.ErrorIs(t, err, model.ErrNotFound)
}

// conflictOnceStore fails the first ReplaceMemos with ErrConflict so the
// retry path is exercised.
type conflictOnceStore struct {
	store.Store
	fired bool
}

func (c *conflictOnceStore) Documents() store.Documents {
	return &conflictOnceDocuments{Documents: c.Store.Documents(), parent: c}
}

type conflictOnceDocuments struct {
	store.Documents
	parent *conflictOnceStore
}

func (c *conflictOnceDocuments) ReplaceMemos(ctx context.Context, id string, expectedVersion int64, memos []model.Memo, latest *model.MemoSummary) (*model.Document, error) {
	if !c.parent.fired {
		c.parent.fired = true
		return nil, model.ErrConflict
	}
	return c.Documents.ReplaceMemos(ctx, id, expectedVersion, memos, latest)
}

func TestMemoCreateRetriesOnConflict(t *testing.T) {
	fake := storetest.NewFake()
	seedDoc(t, fake, &model.Document{ID: "d1", Type: model.DocumentTypeFax})
	svc := newMemoService(&conflictOnceStore{Store: fake})

	memo, err := svc.Create(context.Background(), "d1", "survives a conflict", nil)
	require.NoError(t, err)
	require.NotNil(t, memo)

	doc, err := fake.Documents().Get(context.Background(), "d1")
	require.NoError(t, err)
	require.Len(t, doc.Memos, 1)
	assert.Equal(t, "survives a conflict", doc.Memos[0].Text)
}
