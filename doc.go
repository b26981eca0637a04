// Package kagura provides hybrid memory retrieval for AI agents.
//
// A Client owns one agent's memory: items live in a persistent
// key-value store and are mirrored into a BM25 lexical index and a
// vector index. Retrieval fuses both indices with reciprocal rank
// fusion, optionally reranks with a cross-encoder, blends in recency,
// frequency and importance signals, and can annotate results with
// neighbors from a temporally-versioned relationship graph.
//
// # Basic Usage
//
//	store, err := kv.NewStore(&kv.StoreConfig{Type: kv.StoreTypeBadger, DataDir: "./data"})
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	emb, err := embedder.NewOpenAIClient(embedder.Config{
//		Model:  "text-embedding-3-small",
//		APIKey: os.Getenv("OPENAI_API_KEY"),
//	})
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	client, err := kagura.New(ctx, kagura.Config{
//		Scope:    "assistant-1",
//		Store:    store,
//		Embedder: emb,
//	})
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer client.Close()
//
//	_ = client.Store(ctx, &types.MemoryItem{
//		ID:      "m1",
//		Content: "The user prefers Go over Python",
//	})
//
//	results, _ := client.HybridSearch(ctx, "language preference", search.Options{TopK: 5})
//
// Reranking and the relationship graph are optional capabilities; when
// absent, searches degrade to the fused ranking and report that via
// SearchResults.Reranked.
package kagura
