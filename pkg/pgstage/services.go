package pgstage

import "context"

// Loader streams a CSV file into a staging table.
type Loader interface {
	Load(ctx context.Context, cfg LoadConfig) (*LoadResult, error)
}

// Verifier runs the diagnostic queries against a staging table.
//
// The returned report may be non-nil even when err is non-nil; it then holds
// whatever was learned before the failure.
type Verifier interface {
	Verify(ctx context.Context, cfg VerifyConfig) (*VerifyReport, error)
}
