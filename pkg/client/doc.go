// Package client is a typed Go client for the hybridrag HTTP API.
//
//	c, _ := client.New("http://localhost:8080", client.WithTimeout(30*time.Second))
//	_, _ = c.AddChunks(ctx, []client.Chunk{{Content: "The sky is blue."}})
//	res, _ := c.Search(ctx, "sky color", client.WithCount(3), client.WithWeights(0.5, 0.5))
//	ans, _ := c.Answer(ctx, "What color is the sky?")
//
// API errors are returned as *APIError and match the package sentinels with errors.Is.
package client
