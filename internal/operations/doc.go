// Package operations runs the data pipeline as an ordered list of steps.
//
// A full run fetches the results page (optional), extracts the result rows,
// normalizes their region keys, loads the four search-interest exports,
// fuses everything into the geographic and timeline tables, compares the
// two party groups for each search term, persists the tables, writes the
// optional extras and finally the run manifest.
//
// Manager executes the steps of a Registry sequentially. Each step runs in
// its own span named pipeline.step.<id>. The first step error aborts the
// run and marks the remaining steps skipped; since persistence comes after
// every step that can fail hard, an aborted run leaves no partial output.
//
// Example usage:
//
//	settings := operations.NewSettings(cfg, paths)
//	manager, err := operations.NewPipeline(settings, operations.Dependencies{Logger: logger})
//	if err != nil {
//		return err
//	}
//	result, err := manager.Execute(ctx)
package operations
