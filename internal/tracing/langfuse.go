// Package tracing wires optional Langfuse tracing into the eino callback
// system. Every pipeline run is traced end to end (retrieve, assemble,
// generate) when the Langfuse keys are present in the environment.
package tracing

import (
	"os"

	"github.com/cloudwego/eino-ext/callbacks/langfuse"
	"github.com/cloudwego/eino/callbacks"
)

// defaultHost is the local Langfuse instance a development setup runs.
const defaultHost = "http://localhost:3000"

// Setup builds the Langfuse callback handler when LANGFUSE_PUBLIC_KEY and
// LANGFUSE_SECRET_KEY are both set; otherwise tracing stays off and the
// returned ok is false. The flush function must run before process exit or
// buffered traces are lost.
func Setup() (handler callbacks.Handler, flush func(), ok bool) {
	publicKey := os.Getenv("LANGFUSE_PUBLIC_KEY")
	secretKey := os.Getenv("LANGFUSE_SECRET_KEY")
	if publicKey == "" || secretKey == "" {
		return nil, nil, false
	}

	host := os.Getenv("LANGFUSE_HOST")
	if host == "" {
		host = defaultHost
	}

	handler, flush = langfuse.NewLangfuseHandler(&langfuse.Config{
		Host:      host,
		PublicKey: publicKey,
		SecretKey: secretKey,
	})
	return handler, flush, true
}
