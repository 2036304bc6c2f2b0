package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"sync"
	"testing"

	"github.com/dmitrijs2005/twosync/internal/client/client"
	"github.com/dmitrijs2005/twosync/internal/client/indexer"
	"github.com/dmitrijs2005/twosync/internal/client/models"
	"github.com/stretchr/testify/require"
)

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := client.InitDatabase(context.Background(), ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

// fakeClient returns a fixed snapshot or error and counts calls.
type fakeClient struct {
	mu    sync.Mutex
	snap  *models.Snapshot
	err   error
	calls int
}

func (f *fakeClient) Export(ctx context.Context, userID, token string) (*models.Snapshot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	// hand out a copy so callers cannot mutate the fixture
	cp := &models.Snapshot{
		Entries: append([]models.Entry(nil), f.snap.Entries...),
		Posts:   append([]models.Post(nil), f.snap.Posts...),
	}
	return cp, nil
}

func (f *fakeClient) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

var errRemote = errors.New("remote failure")

// fakeBackend is an in-memory indexer.Backend. failOn maps a call name
// ("upload:1", "deleteAssistant", ...) to the error it returns.
type fakeBackend struct {
	mu        sync.Mutex
	calls     []string
	uploads   []string
	payloads  [][]byte
	batch     []string
	failOn    map[string]error
	nextID    int
	params    indexer.AssistantParams
	threadMsg string
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{failOn: map[string]error{}}
}

func (f *fakeBackend) record(call string) error {
	f.calls = append(f.calls, call)
	return f.failOn[call]
}

func (f *fakeBackend) id(prefix string) string {
	f.nextID++
	return fmt.Sprintf("%s_%d", prefix, f.nextID)
}

func (f *fakeBackend) UploadFile(ctx context.Context, name string, content io.Reader) (*indexer.File, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record(fmt.Sprintf("upload:%d", len(f.uploads))); err != nil {
		f.uploads = append(f.uploads, "")
		return nil, err
	}
	b, _ := io.ReadAll(content)
	f.uploads = append(f.uploads, name)
	f.payloads = append(f.payloads, b)
	return &indexer.File{ID: f.id("file"), Filename: name}, nil
}

func (f *fakeBackend) DeleteFile(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.record("deleteFile:" + id)
}

func (f *fakeBackend) CreateVectorStore(ctx context.Context, name string) (*indexer.VectorStore, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("createVectorStore"); err != nil {
		return nil, err
	}
	return &indexer.VectorStore{ID: f.id("vs"), Name: name}, nil
}

func (f *fakeBackend) DeleteVectorStore(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.record("deleteVectorStore")
}

func (f *fakeBackend) AddFileBatch(ctx context.Context, vectorStoreID string, fileIDs []string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.batch = append([]string(nil), fileIDs...)
	return f.record("addFileBatch")
}

func (f *fakeBackend) CreateAssistant(ctx context.Context, p indexer.AssistantParams) (*indexer.Assistant, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("createAssistant"); err != nil {
		return nil, err
	}
	f.params = p
	return &indexer.Assistant{ID: f.id("asst"), Name: p.Name, Model: p.Model}, nil
}

func (f *fakeBackend) DeleteAssistant(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.record("deleteAssistant")
}

func (f *fakeBackend) CreateThread(ctx context.Context, message, vectorStoreID string) (*indexer.Thread, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("createThread"); err != nil {
		return nil, err
	}
	f.threadMsg = message
	return &indexer.Thread{ID: f.id("thread")}, nil
}

func (f *fakeBackend) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

func groceries() *models.Snapshot {
	return &models.Snapshot{
		Entries: []models.Entry{
			{ID: "e1", Title: "Groceries"},
			{ID: "e2", Title: "Work"},
		},
		Posts: []models.Post{
			{ID: "p1", EntryID: "e1", Text: "milk"},
			{ID: "p2", EntryID: "e1", Text: "eggs"},
			{ID: "p3", EntryID: "e2", Text: "email Bob", Tags: []string{"urgent"}},
			{ID: "orphan", EntryID: "missing", Text: "milk shake"},
		},
	}
}
