package errors

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNetworkError(t *testing.T) {
	tests := []struct {
		name    string
		err     *NetworkError
		message string
	}{
		{"with cause", NewNetworkError("fetch results page", errors.New("dial tcp: connection refused")),
			"[NETWORK] fetch results page: dial tcp: connection refused"},
		{"without cause", NewNetworkError("fetch results page", nil), "[NETWORK] fetch results page"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.message, tt.err.Error())
		})
	}

	t.Run("unwrap", func(t *testing.T) {
		err := NewNetworkError("fetch", context.DeadlineExceeded)
		assert.ErrorIs(t, err, context.DeadlineExceeded)
	})
}

func TestTypeOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want ErrorType
	}{
		{"nil", nil, ""},
		{"extraction", &ExtractionError{Source: "results.html", Reason: "no result rows"}, ErrTypeExtraction},
		{"lookup", &LookupError{Kind: UnknownRegionShortForm, Key: "ZZ"}, ErrTypeLookup},
		{"insufficient", &InsufficientDataError{Term: "interest_1", Group: "Democrat"}, ErrTypeInsufficientData},
		{"persistence", NewPersistenceError("load", "geo.csv", errors.New("no such file")), ErrTypePersistence},
		{"wrapped persistence", fmt.Errorf("reload: %w", NewPersistenceError("load", "geo.csv", errors.New("eof"))), ErrTypePersistence},
		{"network", fmt.Errorf("scrape: %w", NewNetworkError("fetch", nil)), ErrTypeNetwork},
		{"plain", errors.New("boom"), ErrTypeInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, TypeOf(tt.err))
		})
	}
}
