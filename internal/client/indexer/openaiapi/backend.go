// Package openaiapi implements indexer.Backend over the OpenAI files,
// vector stores and (beta) assistants/threads endpoints.
package openaiapi

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/dmitrijs2005/twosync/internal/client/indexer"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

// Backend is an indexer.Backend backed by openai-go.
type Backend struct {
	c openai.Client
}

var _ indexer.Backend = (*Backend)(nil)

// New returns a backend authenticated with apiKey. baseURL is optional and
// mainly useful for proxies and tests.
func New(apiKey, baseURL string) (*Backend, error) {
	if apiKey == "" {
		return nil, errors.New("openai api key is empty")
	}
	opts := []option.RequestOption{
		option.WithAPIKey(apiKey),
		option.WithMaxRetries(0),
	}
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}
	return &Backend{c: openai.NewClient(opts...)}, nil
}

// Factory adapts New to indexer.Factory for a fixed base URL.
func Factory(baseURL string) indexer.Factory {
	return func(apiKey string) (indexer.Backend, error) {
		return New(apiKey, baseURL)
	}
}

func (b *Backend) UploadFile(ctx context.Context, name string, content io.Reader) (*indexer.File, error) {
	f, err := b.c.Files.New(ctx, openai.FileNewParams{
		File:    openai.File(content, name, "application/json"),
		Purpose: openai.FilePurposeAssistants,
	})
	if err != nil {
		return nil, fmt.Errorf("upload %s: %w", name, err)
	}
	return &indexer.File{ID: f.ID, Filename: f.Filename}, nil
}

func (b *Backend) DeleteFile(ctx context.Context, id string) error {
	if _, err := b.c.Files.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete file %s: %w", id, err)
	}
	return nil
}

func (b *Backend) CreateVectorStore(ctx context.Context, name string) (*indexer.VectorStore, error) {
	vs, err := b.c.VectorStores.New(ctx, openai.VectorStoreNewParams{
		Name: openai.String(name),
	})
	if err != nil {
		return nil, fmt.Errorf("create vector store: %w", err)
	}
	return &indexer.VectorStore{ID: vs.ID, Name: vs.Name}, nil
}

func (b *Backend) DeleteVectorStore(ctx context.Context, id string) error {
	if _, err := b.c.VectorStores.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete vector store %s: %w", id, err)
	}
	return nil
}

func (b *Backend) AddFileBatch(ctx context.Context, vectorStoreID string, fileIDs []string) error {
	_, err := b.c.VectorStores.FileBatches.New(ctx, vectorStoreID, openai.VectorStoreFileBatchNewParams{
		FileIDs: fileIDs,
	})
	if err != nil {
		return fmt.Errorf("add file batch to %s: %w", vectorStoreID, err)
	}
	return nil
}

func (b *Backend) CreateAssistant(ctx context.Context, p indexer.AssistantParams) (*indexer.Assistant, error) {
	a, err := b.c.Beta.Assistants.New(ctx, openai.BetaAssistantNewParams{
		Model:        openai.ChatModel(p.Model),
		Name:         openai.String(p.Name),
		Instructions: openai.String(p.Instructions),
		Tools: []openai.AssistantToolUnionParam{
			{OfFileSearch: &openai.FileSearchToolParam{}},
		},
		ToolResources: openai.BetaAssistantNewParamsToolResources{
			FileSearch: openai.BetaAssistantNewParamsToolResourcesFileSearch{
				VectorStoreIDs: []string{p.VectorStoreID},
			},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("create assistant: %w", err)
	}
	return &indexer.Assistant{ID: a.ID, Name: a.Name, Model: a.Model}, nil
}

func (b *Backend) DeleteAssistant(ctx context.Context, id string) error {
	if _, err := b.c.Beta.Assistants.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete assistant %s: %w", id, err)
	}
	return nil
}

func (b *Backend) CreateThread(ctx context.Context, message, vectorStoreID string) (*indexer.Thread, error) {
	t, err := b.c.Beta.Threads.New(ctx, openai.BetaThreadNewParams{
		Messages: []openai.BetaThreadNewParamsMessage{{
			Role: "user",
			Content: openai.BetaThreadNewParamsMessageContentUnion{
				OfString: openai.String(message),
			},
		}},
		ToolResources: openai.BetaThreadNewParamsToolResources{
			FileSearch: openai.BetaThreadNewParamsToolResourcesFileSearch{
				VectorStoreIDs: []string{vectorStoreID},
			},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("create thread: %w", err)
	}
	return &indexer.Thread{ID: t.ID, CreatedAt: t.CreatedAt}, nil
}
