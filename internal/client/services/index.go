package services

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/dmitrijs2005/twosync/internal/client/archive"
	"github.com/dmitrijs2005/twosync/internal/client/client"
	"github.com/dmitrijs2005/twosync/internal/client/indexer"
	"github.com/dmitrijs2005/twosync/internal/client/models"
	"github.com/dmitrijs2005/twosync/internal/client/repositories/metadata"
	"github.com/dmitrijs2005/twosync/internal/client/state"
	"github.com/dmitrijs2005/twosync/internal/common"
	"github.com/dmitrijs2005/twosync/internal/logging"
	"github.com/google/uuid"
)

const (
	// ChunkSize is the number of entries per uploaded file.
	ChunkSize = 50

	VectorStoreName = "Twoschat store"
	AssistantName   = "Twosapp Chat"
	AssistantModel  = "gpt-4o"
	DefaultGreeting = "Hello"

	AssistantInstructions = `You are a helpful assistant that provides information based on the user's TwosApp data.
Use the vector store to search through their notes and provide relevant information.
When answering questions, try to:
    1. Search for relevant content in the vector store
    2. Provide specific examples from the user's notes when applicable
    3. Include relevant dates and context from the stored data
    4. Quote specific parts of notes when they directly answer the user's question
    5. ALWAYS RETURN MARKDOWN
    6. don't add file references in the response`
)

// IndexSyncResult summarizes one Sync call.
type IndexSyncResult struct {
	Success         bool     `json:"success"`
	VectorStoreID   string   `json:"vectorStoreId,omitempty"`
	AssistantID     string   `json:"assistantId,omitempty"`
	ChunksProcessed int      `json:"chunksProcessed"`
	FileIDs         []string `json:"fileIds,omitempty"`
	Error           string   `json:"error,omitempty"`
}

// IndexService re-packages the Twos export for the hosted index.
//
// Contract:
//   - Sync: cleanup, fetch, format, upload, create the vector store, bind the
//     files, create the assistant. Precondition failures return before any
//     I/O; later failures set Status to error and are returned.
//   - CleanupExistingResources: best effort; remote delete failures are
//     logged and never returned.
//   - CreateAssistant / CreateThread: need a stored vector store ID.
type IndexService interface {
	Sync(ctx context.Context, userID, token string) (*IndexSyncResult, error)
	CleanupExistingResources(ctx context.Context) error
	FetchRemoteSnapshot(ctx context.Context, userID, token string) (*models.Snapshot, error)
	FormatForIndex(snap *models.Snapshot) ([]models.Chunk, error)
	UploadChunks(ctx context.Context, chunks []models.Chunk) ([]string, error)
	CreateAssistant(ctx context.Context) (*indexer.Assistant, error)
	CreateThread(ctx context.Context, message string) (*indexer.Thread, error)
	Status() *state.Cell[state.Status]
}

// IndexOption customizes an IndexService.
type IndexOption func(*indexService)

// WithArchiver keeps a copy of every uploaded chunk.
func WithArchiver(a archive.Archiver) IndexOption {
	return func(s *indexService) { s.archiver = a }
}

// WithUploadProgress registers a callback run after each uploaded chunk.
func WithUploadProgress(fn func(done, total int)) IndexOption {
	return func(s *indexService) { s.progress = fn }
}

type indexService struct {
	client  client.Client
	meta    metadata.Repository
	creds   CredentialStore
	factory indexer.Factory
	log     logging.Logger

	archiver archive.Archiver
	progress func(done, total int)

	// mu serializes Sync calls.
	mu     sync.Mutex
	status *state.Cell[state.Status]
}

// NewIndexService wires the index pipeline. The backend is built by factory
// from the OpenAI key loaded from creds on every call.
func NewIndexService(client client.Client, db *sql.DB, creds CredentialStore, factory indexer.Factory,
	log logging.Logger, opts ...IndexOption) IndexService {
	s := &indexService{
		client:  client,
		meta:    metadata.NewSQLiteRepository(db),
		creds:   creds,
		factory: factory,
		log:     log,
		status:  state.NewCell(state.StatusIdle),
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

func (s *indexService) Status() *state.Cell[state.Status] { return s.status }

// backend builds a client from the current OpenAI key.
func (s *indexService) backend(ctx context.Context) (indexer.Backend, error) {
	if s.factory == nil {
		return nil, common.ErrIndexNotConfigured
	}
	c, err := s.creds.Load(ctx)
	if err != nil {
		return nil, err
	}
	if c.OpenAIKey == "" {
		return nil, common.ErrIndexNotConfigured
	}
	be, err := s.factory(c.OpenAIKey)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", common.ErrIndexNotConfigured, err)
	}
	return be, nil
}

func (s *indexService) Sync(ctx context.Context, userID, token string) (*IndexSyncResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	be, err := s.backend(ctx)
	if err != nil {
		return &IndexSyncResult{Error: err.Error()}, err
	}
	if userID == "" || token == "" {
		return &IndexSyncResult{Error: common.ErrMissingCredentials.Error()}, common.ErrMissingCredentials
	}

	log := s.log.With("pipeline", "index", "run_id", uuid.NewString())
	s.status.Set(state.StatusSyncing)
	log.Info(ctx, "index sync started")

	res, err := s.sync(ctx, log, be, userID, token)
	if err != nil {
		s.status.Set(state.StatusError)
		log.Error(ctx, "index sync failed", "error", err)
		res.Error = err.Error()
		return res, err
	}

	s.status.Set(state.StatusSuccess)
	log.Info(ctx, "index sync finished",
		"vector_store_id", res.VectorStoreID,
		"assistant_id", res.AssistantID,
		"chunks", res.ChunksProcessed)
	return res, nil
}

func (s *indexService) sync(ctx context.Context, log logging.Logger, be indexer.Backend, userID, token string) (*IndexSyncResult, error) {
	res := &IndexSyncResult{}

	s.cleanup(ctx, log, be)

	snap, err := s.FetchRemoteSnapshot(ctx, userID, token)
	if err != nil {
		return res, err
	}

	chunks, err := s.FormatForIndex(snap)
	if err != nil {
		return res, err
	}
	if len(chunks) == 0 {
		return res, common.ErrNoChunks
	}

	fileIDs, err := s.upload(ctx, log, be, chunks)
	if err != nil {
		return res, err
	}
	res.FileIDs = fileIDs
	res.ChunksProcessed = len(chunks)

	vs, err := be.CreateVectorStore(ctx, VectorStoreName)
	if err != nil {
		return res, err
	}
	if err := s.meta.Set(ctx, common.KeyVectorStoreID, vs.ID); err != nil {
		return res, fmt.Errorf("%w: save vector store id: %w", common.ErrStorage, err)
	}
	res.VectorStoreID = vs.ID
	log.Debug(ctx, "vector store created", "id", vs.ID)

	if err := be.AddFileBatch(ctx, vs.ID, fileIDs); err != nil {
		return res, err
	}

	a, err := s.createAssistant(ctx, be, vs.ID)
	if err != nil {
		return res, err
	}
	res.AssistantID = a.ID
	res.Success = true

	return res, nil
}

func (s *indexService) CleanupExistingResources(ctx context.Context) error {
	be, err := s.backend(ctx)
	if err != nil {
		return err
	}
	s.cleanup(ctx, s.log, be)
	return nil
}

// cleanup deletes the stored assistant, vector store and files. A stored ID
// is cleared only after its remote delete succeeded.
func (s *indexService) cleanup(ctx context.Context, log logging.Logger, be indexer.Backend) {
	s.dropAssistant(ctx, log, be)

	if id := s.stored(ctx, log, common.KeyVectorStoreID); id != "" {
		if err := be.DeleteVectorStore(ctx, id); err != nil {
			log.Warn(ctx, "failed to delete vector store", "id", id, "error", err)
		} else {
			s.forget(ctx, log, common.KeyVectorStoreID)
		}
	}

	ids, err := s.storedFileIDs(ctx)
	if err != nil {
		log.Warn(ctx, "failed to read stored file ids", "error", err)
		return
	}
	remaining := make([]string, 0)
	for _, id := range ids {
		if err := be.DeleteFile(ctx, id); err != nil {
			log.Warn(ctx, "failed to delete file", "id", id, "error", err)
			remaining = append(remaining, id)
		}
	}
	if len(ids) > 0 {
		if err := s.saveFileIDs(ctx, remaining); err != nil {
			log.Warn(ctx, "failed to update stored file ids", "error", err)
		}
	}
}

// dropAssistant deletes the stored assistant, if any, and clears its ID on
// success. Failures are logged only.
func (s *indexService) dropAssistant(ctx context.Context, log logging.Logger, be indexer.Backend) {
	id := s.stored(ctx, log, common.KeyAssistantID)
	if id == "" {
		return
	}
	if err := be.DeleteAssistant(ctx, id); err != nil {
		log.Warn(ctx, "failed to delete assistant", "id", id, "error", err)
		return
	}
	s.forget(ctx, log, common.KeyAssistantID)
}

func (s *indexService) stored(ctx context.Context, log logging.Logger, key string) string {
	v, _, err := s.meta.Get(ctx, key)
	if err != nil {
		log.Warn(ctx, "failed to read stored id", "key", key, "error", err)
		return ""
	}
	return v
}

func (s *indexService) forget(ctx context.Context, log logging.Logger, key string) {
	if err := s.meta.Delete(ctx, key); err != nil {
		log.Warn(ctx, "failed to clear stored id", "key", key, "error", err)
	}
}

func (s *indexService) storedFileIDs(ctx context.Context) ([]string, error) {
	raw, ok, err := s.meta.Get(ctx, common.KeyFileIDs)
	if err != nil || !ok || raw == "" {
		return nil, err
	}
	var ids []string
	if err := json.Unmarshal([]byte(raw), &ids); err != nil {
		return nil, fmt.Errorf("decode %s: %w", common.KeyFileIDs, err)
	}
	return ids, nil
}

func (s *indexService) saveFileIDs(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return s.meta.Delete(ctx, common.KeyFileIDs)
	}
	b, err := json.Marshal(ids)
	if err != nil {
		return err
	}
	return s.meta.Set(ctx, common.KeyFileIDs, string(b))
}

func (s *indexService) FetchRemoteSnapshot(ctx context.Context, userID, token string) (*models.Snapshot, error) {
	snap, err := s.client.Export(ctx, userID, token)
	if err != nil {
		return nil, err
	}
	s.log.Debug(ctx, "snapshot received", "entries", len(snap.Entries), "posts", len(snap.Posts))
	return snap, nil
}

// FormatForIndex groups posts under their entries, adds the content field
// and splits the entries into chunks of ChunkSize.
func (s *indexService) FormatForIndex(snap *models.Snapshot) ([]models.Chunk, error) {
	return FormatForIndex(snap)
}

// FormatForIndex is the stateless form of IndexService.FormatForIndex.
func FormatForIndex(snap *models.Snapshot) ([]models.Chunk, error) {
	if snap == nil || len(snap.Entries) == 0 {
		return nil, common.ErrNoEntries
	}

	byEntry := models.GroupPosts(snap.Posts)

	formatted := make([]models.IndexedEntry, 0, len(snap.Entries))
	for _, e := range snap.Entries {
		src := byEntry[e.ID]
		ps := make([]models.IndexedPost, 0, len(src))
		lines := make([]string, 0, len(src))
		for _, p := range src {
			tags := p.Tags
			if tags == nil {
				tags = []string{}
			}
			ps = append(ps, models.IndexedPost{
				Text:         p.Text,
				ID:           p.ID,
				Type:         p.Type,
				LastModified: p.LastModified,
				URL:          p.URL,
				Tags:         tags,
			})
			lines = append(lines, p.Text+" "+strings.Join(tags, " "))
		}

		formatted = append(formatted, models.IndexedEntry{
			Title:        e.Title,
			ID:           e.ID,
			LastModified: e.LastModified,
			Posts:        ps,
			Content:      e.Title + "\n" + strings.Join(lines, "\n"),
		})
	}

	chunks := make([]models.Chunk, 0, (len(formatted)+ChunkSize-1)/ChunkSize)
	for i := 0; i < len(formatted); i += ChunkSize {
		end := min(i+ChunkSize, len(formatted))
		chunks = append(chunks, models.Chunk{Entries: formatted[i:end]})
	}
	return chunks, nil
}

// ChunkFileName is the upload name of the chunk at index i.
func ChunkFileName(i int) string {
	return fmt.Sprintf("twos_data_%d.json", i)
}

func (s *indexService) UploadChunks(ctx context.Context, chunks []models.Chunk) ([]string, error) {
	be, err := s.backend(ctx)
	if err != nil {
		return nil, err
	}
	return s.upload(ctx, s.log, be, chunks)
}

// upload sends chunks one by one and stops at the first failure. Every
// uploaded ID is recorded right away so an aborted run is still cleaned up
// by the next one.
func (s *indexService) upload(ctx context.Context, log logging.Logger, be indexer.Backend, chunks []models.Chunk) ([]string, error) {
	ids := make([]string, 0, len(chunks))

	for i, chunk := range chunks {
		name := ChunkFileName(i)

		payload, err := json.Marshal(chunk)
		if err != nil {
			return nil, fmt.Errorf("encode %s: %w", name, err)
		}

		f, err := be.UploadFile(ctx, name, bytes.NewReader(payload))
		if err != nil {
			return nil, err
		}
		ids = append(ids, f.ID)
		log.Debug(ctx, "chunk uploaded", "name", name, "file_id", f.ID, "n", i+1, "total", len(chunks))

		if err := s.rememberFile(ctx, f.ID); err != nil {
			log.Warn(ctx, "failed to record uploaded file", "file_id", f.ID, "error", err)
		}

		if s.archiver != nil {
			if err := s.archiver.Put(ctx, name, payload); err != nil {
				log.Warn(ctx, "failed to archive chunk", "name", name, "error", err)
			}
		}

		if s.progress != nil {
			s.progress(i+1, len(chunks))
		}
	}
	return ids, nil
}

func (s *indexService) rememberFile(ctx context.Context, id string) error {
	ids, err := s.storedFileIDs(ctx)
	if err != nil {
		return err
	}
	return s.saveFileIDs(ctx, append(ids, id))
}

// CreateAssistant replaces the stored assistant with a new one bound to the
// stored vector store. The previous assistant is deleted first, best effort.
func (s *indexService) CreateAssistant(ctx context.Context) (*indexer.Assistant, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	vsID, err := s.vectorStoreID(ctx)
	if err != nil {
		return nil, err
	}
	be, err := s.backend(ctx)
	if err != nil {
		return nil, err
	}
	s.dropAssistant(ctx, s.log, be)
	return s.createAssistant(ctx, be, vsID)
}

func (s *indexService) createAssistant(ctx context.Context, be indexer.Backend, vectorStoreID string) (*indexer.Assistant, error) {
	a, err := be.CreateAssistant(ctx, indexer.AssistantParams{
		Name:          AssistantName,
		Model:         AssistantModel,
		Instructions:  AssistantInstructions,
		VectorStoreID: vectorStoreID,
	})
	if err != nil {
		return nil, err
	}
	if err := s.meta.Set(ctx, common.KeyAssistantID, a.ID); err != nil {
		return nil, fmt.Errorf("%w: save assistant id: %w", common.ErrStorage, err)
	}
	return a, nil
}

func (s *indexService) CreateThread(ctx context.Context, message string) (*indexer.Thread, error) {
	be, err := s.backend(ctx)
	if err != nil {
		return nil, err
	}
	vsID, err := s.vectorStoreID(ctx)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(message) == "" {
		message = DefaultGreeting
	}
	return be.CreateThread(ctx, message, vsID)
}

func (s *indexService) vectorStoreID(ctx context.Context) (string, error) {
	id, ok, err := s.meta.Get(ctx, common.KeyVectorStoreID)
	if err != nil {
		return "", fmt.Errorf("%w: %w", common.ErrStorage, err)
	}
	if !ok || id == "" {
		return "", common.ErrNoVectorStore
	}
	return id, nil
}
