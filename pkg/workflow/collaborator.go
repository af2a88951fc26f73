package workflow

import (
	"context"

	"github.com/EvTKi/Obrabotka-Jeka-remake/pkg/reconcile"
	"github.com/EvTKi/Obrabotka-Jeka-remake/pkg/report"
)

// Analyzer runs the matching backend's analysis.
type Analyzer interface {
	Analyze(ctx context.Context, req AnalysisRequest) (reconcile.RawAnalysis, error)
}

// Processor applies confirmed choices and returns the processed result.
type Processor interface {
	Process(ctx context.Context, req ProcessRequest) (*report.ProcessResult, error)
}

// Downloader fetches the generated result workbook.
type Downloader interface {
	Download(ctx context.Context, processID string) ([]byte, error)
}

// Collaborator is the full matching backend.
type Collaborator interface {
	Analyzer
	Processor
	Downloader
}
