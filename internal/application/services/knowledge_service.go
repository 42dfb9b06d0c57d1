package services

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"go.uber.org/zap"

	"vibedoc.ai/mcpcall/internal/core/domain/call"
	"vibedoc.ai/mcpcall/internal/core/domain/service"
)

// KnowledgeFetchMaxLength is the max_length used when fetching reference pages
const KnowledgeFetchMaxLength = 8000

// KnowledgeSource is what the knowledge service needs from a tool-call client
type KnowledgeSource interface {
	FetchURL(ctx context.Context, url string, maxLength int) call.Result
	DeepWiki(ctx context.Context, url, mode string) call.Result
}

// KnowledgeService retrieves reference content for a URL, choosing the
// service by host and falling back to the generic fetcher
type KnowledgeService struct {
	source KnowledgeSource
	logger *zap.Logger
}

// NewKnowledgeService creates a knowledge service over source
func NewKnowledgeService(source KnowledgeSource, logger *zap.Logger) *KnowledgeService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &KnowledgeService{source: source, logger: logger}
}

// Route names the service tried first for rawURL
func Route(rawURL string) (string, error) {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return "", fmt.Errorf("invalid url: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return "", fmt.Errorf("invalid url %q: scheme and host are required", rawURL)
	}
	host := strings.ToLower(u.Hostname())
	if host == service.DeepWikiHost || strings.HasSuffix(host, "."+service.DeepWikiHost) {
		return service.DeepWikiKey, nil
	}
	return service.FetchKey, nil
}

// Fetch returns the content behind rawURL. DeepWiki pages go to the DeepWiki
// service first; any failure there is retried through Fetch.
func (s *KnowledgeService) Fetch(ctx context.Context, rawURL string) call.Result {
	route, err := Route(rawURL)
	if err != nil {
		return call.Failed(service.FetchKey, "", 0, call.StateConfigurationFailed, call.NewConfigurationError(err.Error()))
	}

	if route == service.DeepWikiKey {
		res := s.source.DeepWiki(ctx, rawURL, service.DefaultWikiMode)
		if res.Success {
			return res
		}
		s.logger.Warn("deepwiki lookup failed, falling back to fetch",
			zap.String("url", rawURL),
			zap.String("error", res.ErrorMessage))
	}

	res := s.source.FetchURL(ctx, rawURL, KnowledgeFetchMaxLength)
	if !res.Success {
		s.logger.Warn("knowledge fetch failed", zap.String("url", rawURL), zap.String("error", res.ErrorMessage))
	}
	return res
}
