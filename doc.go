// Package ghapi provides a native Go client for the GitHub REST API.
//
// # Features
//
//   - Service-based architecture covering repositories, issues, pull
//     requests, users, search, and releases
//   - Repository-bound facade with typed models for common workflows
//   - Modern Go 1.25+ iterators for pagination
//   - Typed errors for precise error handling
//   - Automatic credential discovery (environment, gh CLI, hosts.yml)
//   - Functional options for flexible configuration
//
// # Quick Start
//
//	// Token resolved from GH_TOKEN, the gh CLI, or ~/.config/gh/hosts.yml.
//	client, err := ghapi.NewClient()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer client.Close()
//
//	repo := client.Repo("golang", "go")
//
//	for issue, err := range repo.Issues.List(ctx, &ghapi.IssueListOptions{State: "open"}) {
//	    if err != nil {
//	        log.Fatal(err)
//	    }
//	    fmt.Printf("#%d %s\n", issue.Number, issue.Title)
//	}
//
// # Error Handling
//
// The package uses typed errors that can be inspected with errors.As:
//
//	issue, err := repo.Issues.Get(ctx, 99999999)
//	if err != nil {
//	    var notFound *ghapi.NotFoundError
//	    if errors.As(err, &notFound) {
//	        // Handle not found
//	    }
//	    var rateLimited *ghapi.RateLimitError
//	    if errors.As(err, &rateLimited) && rateLimited.ResetAt != nil {
//	        // Quota exhausted; wait until *rateLimited.ResetAt
//	    }
//	}
//
// Enable automatic retries to have the client wait out rate limits
// itself:
//
//	client, err := ghapi.NewClient(ghapi.WithAutoRetry(3))
//
// # Pagination
//
// Use iterators for automatic pagination:
//
//	// Iterate over all results
//	for pr, err := range repo.Pulls.List(ctx, nil) {
//	    // ...
//	}
//
//	// Collect all results into a slice
//	prs, err := ghapi.Collect(repo.Pulls.List(ctx, nil))
//
//	// Or use manual pagination for search
//	page, err := client.Search.RepositoriesPage(ctx, "language:go", nil, 1)
package ghapi
