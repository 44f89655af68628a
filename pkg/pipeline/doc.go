// Package pipeline enriches project records with GitHub star counts.
//
// A run is two worker pools joined by bounded channels:
//
//	records -> [resolution stage] -> resolved -> [fetch stage] -> enriched
//
// The resolution stage maps each project URL to an API endpoint with N
// workers and emits in input order. The fetch stage issues one GET per
// resolved record with M workers, consulting the shared quota tracker
// before every request and sleeping until the quota resets when
// enforcement is on. Fetch results are emitted in completion order.
//
// Example usage:
//
//	opts := pipeline.DefaultOptions()
//	opts.Credential = os.Getenv("GITHUB_TOKEN")
//	opts.EnforceQuota = true
//
//	records := []pipeline.ProjectRecord{{URL: "https://github.com/acme/widget"}}
//	enriched, err := pipeline.Run(ctx, records, opts)
//
// Every returned record carries exactly one Stats variant: Success with a
// star count, Failure with a message, or Unresolved when the URL is not a
// GitHub repository. A failed fetch never aborts the run; only invalid
// options make Run return an error, before any goroutine starts.
package pipeline
