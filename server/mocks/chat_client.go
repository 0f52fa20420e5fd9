package mocks

import (
	"context"
	"sync"

	"github.com/railgpt/relay/config"
	"github.com/railgpt/relay/server/provider"
	openai "github.com/sashabaranov/go-openai"
)

// MockChatClient implements provider.ChatClient for tests without making
// network calls. Every request is recorded.
//
// Example usage:
//
//	client := mocks.NewMockChatClient(func(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error) {
//	    return mocks.Reply("mocked response"), nil
//	})
type MockChatClient struct {
	CreateFunc func(context.Context, openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)

	mu          sync.Mutex
	requests    []openai.ChatCompletionRequest
	credentials []provider.Credentials
}

// NewMockChatClient creates a MockChatClient. A nil createFunc answers
// every call with an empty response.
func NewMockChatClient(createFunc func(context.Context, openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)) *MockChatClient {
	return &MockChatClient{CreateFunc: createFunc}
}

// CreateChatCompletion records req and delegates to CreateFunc.
func (m *MockChatClient) CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error) {
	m.mu.Lock()
	m.requests = append(m.requests, req)
	m.mu.Unlock()

	if m.CreateFunc == nil {
		return openai.ChatCompletionResponse{}, nil
	}
	return m.CreateFunc(ctx, req)
}

// Factory returns a provider.ClientFactory that always yields m and
// records the credentials it was built with.
func (m *MockChatClient) Factory() provider.ClientFactory {
	return func(_ config.RelayConfig, creds provider.Credentials) provider.ChatClient {
		m.mu.Lock()
		m.credentials = append(m.credentials, creds)
		m.mu.Unlock()
		return m
	}
}

// Requests returns a copy of the recorded requests.
func (m *MockChatClient) Requests() []openai.ChatCompletionRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]openai.ChatCompletionRequest, len(m.requests))
	copy(out, m.requests)
	return out
}

// Credentials returns a copy of the credentials passed to Factory.
func (m *MockChatClient) Credentials() []provider.Credentials {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]provider.Credentials, len(m.credentials))
	copy(out, m.credentials)
	return out
}

// Reply builds a single-choice response carrying content.
func Reply(content string) openai.ChatCompletionResponse {
	return openai.ChatCompletionResponse{
		Choices: []openai.ChatCompletionChoice{{
			Index:        0,
			Message:      openai.ChatCompletionMessage{Role: openai.ChatMessageRoleAssistant, Content: content},
			FinishReason: openai.FinishReasonStop,
		}},
	}
}
