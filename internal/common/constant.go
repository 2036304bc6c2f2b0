// Package common contains shared constants and sentinel errors used across
// twosync components.
package common

// Keys of the local key-value (metadata) table.
const (
	KeyOpenAIID      = "openaiId"
	KeyTwosUserID    = "twosUserId"
	KeyTwosToken     = "twosToken"
	KeyVectorStoreID = "vectorStoreId"
	KeyAssistantID   = "assistantId"
	KeyFileIDs       = "fileIds"
)
