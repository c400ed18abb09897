package http

import (
	"context"

	"github.com/AleksandrZin/google-election/internal/services"
	"github.com/AleksandrZin/google-election/pkg/contracts/domain"
)

// DataServiceInterface defines the dashboard read operations
type DataServiceInterface interface {
	LoadTables(ctx context.Context) (domain.FusedTables, string, error)
	MapData(ctx context.Context, column string) (domain.MapData, error)
	ScatterData(ctx context.Context, party, term string) (domain.ScatterData, error)
	Compare(ctx context.Context, term string) (domain.Comparison, error)
	Reload(ctx context.Context) (*services.Snapshot, error)
}

// StructValidator validates a decoded request against its struct tags
type StructValidator interface {
	ValidateStruct(v interface{}) error
}
