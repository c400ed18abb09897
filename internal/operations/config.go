package operations

import (
	"time"

	"github.com/AleksandrZin/google-election/internal/config"
)

// Settings is everything a run needs to know about its inputs and outputs
type Settings struct {
	Paths *config.Paths

	// Fetch the results page from ResultsURL before extracting it
	Fetch        bool
	ResultsURL   string
	FetchTimeout time.Duration

	TableClass      string
	HeaderLines     int
	LoadConcurrency int

	WriteWorkbook bool
	WriteReport   bool
	Publish       bool

	// StepTimeout bounds every step; zero means no bound
	StepTimeout time.Duration
}

// NewSettings maps the application configuration onto run settings
func NewSettings(cfg *config.Config, paths *config.Paths) Settings {
	return Settings{
		Paths:           paths,
		ResultsURL:      cfg.Sources.ResultsURL,
		FetchTimeout:    cfg.Pipeline.FetchTimeout,
		TableClass:      cfg.Sources.TableClass,
		HeaderLines:     cfg.Sources.HeaderLines,
		LoadConcurrency: cfg.Pipeline.LoadConcurrency,
		WriteWorkbook:   cfg.Export.WriteWorkbook,
		WriteReport:     cfg.Export.WriteReport,
		Publish:         cfg.Export.Sheets.Enabled,
	}
}

func (s Settings) loadConcurrency() int {
	if s.LoadConcurrency < 1 {
		return 1
	}
	return s.LoadConcurrency
}
