package fetch

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResultsTableSelector(t *testing.T) {
	assert.Equal(t, "table.results-table", ResultsTableSelector("results-table"))
	assert.Equal(t, "table", ResultsTableSelector(""))
}

func TestNewBrowserFetcher_Defaults(t *testing.T) {
	f := NewBrowserFetcher(BrowserOptions{Headless: true}, nil)
	assert.Equal(t, defaultUserAgent, f.opts.UserAgent)
	assert.Greater(t, len(f.allocatorOptions()), 7)

	custom := NewBrowserFetcher(BrowserOptions{UserAgent: "election-trends/1.0"}, nil)
	assert.Equal(t, "election-trends/1.0", custom.opts.UserAgent)
}

func TestBrowserFetcher_EmptyURL(t *testing.T) {
	_, err := NewBrowserFetcher(BrowserOptions{}, nil).Fetch(context.Background(), "")
	assert.Error(t, err)
}
