package provider

import (
	"context"
	"net/http"

	"github.com/railgpt/relay/config"
	openai "github.com/sashabaranov/go-openai"
)

// ChatClient is the part of the OpenAI client the relay uses.
type ChatClient interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// ClientFactory builds a ChatClient for one request's credentials.
type ClientFactory func(cfg config.RelayConfig, creds Credentials) ChatClient

// NewAzureClient builds an Azure OpenAI client for the caller's endpoint
// and key. Deployment names are used verbatim.
func NewAzureClient(cfg config.RelayConfig, creds Credentials) ChatClient {
	return newAzureClient(cfg, creds, http.DefaultClient)
}

func newAzureClient(cfg config.RelayConfig, creds Credentials, doer openai.HTTPDoer) ChatClient {
	clientCfg := openai.DefaultAzureConfig(creds.APIKey, creds.Endpoint)
	clientCfg.APIVersion = cfg.APIVersion
	clientCfg.AzureModelMapperFunc = func(model string) string { return model }
	clientCfg.HTTPClient = doer
	return openai.NewClientWithConfig(clientCfg)
}
