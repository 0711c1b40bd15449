// Package advisory provides an embedded Go client for the tenant-scoped
// report retrieval engine: chunk and index client documents, then pull
// ranked, budget-trimmed context for advisory questions without running
// the HTTP service.
//
//	client, _ := advisory.New(ctx,
//	    advisory.WithRedis([]string{"localhost:6379"}, ""),
//	    advisory.WithOpenAI(os.Getenv("OPENAI_API_KEY"), "text-embedding-3-small", 1536),
//	)
//	defer client.Close()
//
//	client.AddDocument(ctx, "acme", "q2-report", reportText, nil)
//	result := client.Retrieve(ctx, "acme", "how did revenue develop?")
//	fmt.Println(result.Context)
//
// For tests and local development the in-memory index (the default when
// no Redis address is given) ranks by keyword overlap, so a custom
// Embedder stub is enough to exercise the full pipeline.
package advisory
