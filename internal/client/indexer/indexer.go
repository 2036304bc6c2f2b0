// Package indexer describes the hosted semantic-search service that twosync
// provisions from the Twos export: uploaded files, a vector store over them,
// an assistant bound to the store, and conversation threads.
//
// The concrete backend lives in the openaiapi subpackage. Services depend on
// Backend only, so tests can substitute an in-memory fake.
package indexer

import (
	"context"
	"io"
)

// File is an uploaded payload.
type File struct {
	ID       string `json:"id"`
	Filename string `json:"filename"`
}

// VectorStore is a semantic index over uploaded files.
type VectorStore struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// AssistantParams configures a new assistant.
type AssistantParams struct {
	Name          string
	Model         string
	Instructions  string
	VectorStoreID string
}

// Assistant is a hosted chat agent with file search over one vector store.
type Assistant struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Model string `json:"model"`
}

// Thread is a conversation seeded with one user message.
type Thread struct {
	ID        string `json:"id"`
	CreatedAt int64  `json:"created_at"`
}

// Backend is the set of remote calls the index pipeline needs.
type Backend interface {
	UploadFile(ctx context.Context, name string, content io.Reader) (*File, error)
	DeleteFile(ctx context.Context, id string) error

	CreateVectorStore(ctx context.Context, name string) (*VectorStore, error)
	DeleteVectorStore(ctx context.Context, id string) error
	// AddFileBatch binds fileIDs to the vector store in one request.
	AddFileBatch(ctx context.Context, vectorStoreID string, fileIDs []string) error

	CreateAssistant(ctx context.Context, p AssistantParams) (*Assistant, error)
	DeleteAssistant(ctx context.Context, id string) error

	CreateThread(ctx context.Context, message, vectorStoreID string) (*Thread, error)
}

// Factory builds a Backend for an API key. The index service calls it with
// the key it reads at call time, so rotated keys take effect immediately.
type Factory func(apiKey string) (Backend, error)
