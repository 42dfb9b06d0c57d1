package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"vibedoc.ai/mcpcall/internal/core/domain/call"
	"vibedoc.ai/mcpcall/internal/core/domain/service"
)

// MockKnowledgeSource records which services the knowledge service tried
type MockKnowledgeSource struct {
	mock.Mock
}

func (m *MockKnowledgeSource) FetchURL(ctx context.Context, url string, maxLength int) call.Result {
	args := m.Called(ctx, url, maxLength)
	return args.Get(0).(call.Result)
}

func (m *MockKnowledgeSource) DeepWiki(ctx context.Context, url, mode string) call.Result {
	args := m.Called(ctx, url, mode)
	return args.Get(0).(call.Result)
}

var (
	wikiOK    = call.Succeeded("DeepWiki MCP", "wiki content for the repository", "s1", 0, call.StateAsyncResultReceived)
	fetchOK   = call.Succeeded("Fetch MCP", "page content from the generic fetcher", "s2", 0, call.StateAsyncResultReceived)
	wikiDown  = call.Failed("DeepWiki MCP", "", 0, call.StateAsyncTimeout, call.NewTimeoutError("await", nil))
	fetchDown = call.Failed("Fetch MCP", "", 0, call.StateDispatchFailed, call.NewDispatchError(500, nil))
)

func TestRoute(t *testing.T) {
	tests := []struct {
		name    string
		url     string
		want    string
		wantErr bool
	}{
		{name: "DeepWikiHost_ShouldRouteToDeepWiki", url: "https://deepwiki.org/openai/openai-python", want: service.DeepWikiKey},
		{name: "Subdomain_ShouldRouteToDeepWiki", url: "https://www.DeepWiki.org/x", want: service.DeepWikiKey},
		{name: "LookalikeHost_ShouldRouteToFetch", url: "https://notdeepwiki.org/x", want: service.FetchKey},
		{name: "PathMention_ShouldRouteToFetch", url: "https://example.com/deepwiki.org", want: service.FetchKey},
		{name: "OtherHost_ShouldRouteToFetch", url: "https://react.dev/learn", want: service.FetchKey},
		{name: "MissingScheme_ShouldFail", url: "deepwiki.org/x", wantErr: true},
		{name: "Empty_ShouldFail", url: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Route(tt.url)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestKnowledgeService_Fetch(t *testing.T) {
	tests := []struct {
		name     string
		url      string
		deepwiki *call.Result
		fetch    *call.Result
		wantOK   bool
		wantFrom string
	}{
		{
			name:     "DeepWikiSucceeds_ShouldNotFallBack",
			url:      "https://deepwiki.org/org/repo",
			deepwiki: &wikiOK,
			wantOK:   true,
			wantFrom: "DeepWiki MCP",
		},
		{
			name:     "DeepWikiFails_ShouldFallBackToFetch",
			url:      "https://deepwiki.org/org/repo",
			deepwiki: &wikiDown,
			fetch:    &fetchOK,
			wantOK:   true,
			wantFrom: "Fetch MCP",
		},
		{
			name:     "OtherHost_ShouldUseFetchOnly",
			url:      "https://example.com",
			fetch:    &fetchOK,
			wantOK:   true,
			wantFrom: "Fetch MCP",
		},
		{
			name:     "BothFail_ShouldReportFetchFailure",
			url:      "https://deepwiki.org/org/repo",
			deepwiki: &wikiDown,
			fetch:    &fetchDown,
			wantFrom: "Fetch MCP",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src := new(MockKnowledgeSource)
			if tt.deepwiki != nil {
				src.On("DeepWiki", mock.Anything, tt.url, service.DefaultWikiMode).Return(*tt.deepwiki).Once()
			}
			if tt.fetch != nil {
				src.On("FetchURL", mock.Anything, tt.url, KnowledgeFetchMaxLength).Return(*tt.fetch).Once()
			}

			res := NewKnowledgeService(src, nil).Fetch(context.Background(), tt.url)

			src.AssertExpectations(t)
			assert.Equal(t, tt.wantOK, res.Success)
			assert.Equal(t, tt.wantFrom, res.ServiceName)
		})
	}
}

func TestKnowledgeService_InvalidURLMakesNoCalls(t *testing.T) {
	src := new(MockKnowledgeSource)
	res := NewKnowledgeService(src, nil).Fetch(context.Background(), "not a url")

	assert.False(t, res.Success)
	assert.Equal(t, call.KindConfiguration, res.ErrorKind)
	src.AssertNotCalled(t, "FetchURL", mock.Anything, mock.Anything, mock.Anything)
	src.AssertNotCalled(t, "DeepWiki", mock.Anything, mock.Anything, mock.Anything)
}
