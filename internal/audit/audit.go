// Package audit emits one structured log entry per CLI command invocation:
// the command name, the resolved config file, and the operational
// environment. Secret values are recorded as presence/absence only.
package audit

import (
	"context"
	"log/slog"
	"os"
	"strings"
)

// secretEnvKeys names the environment variables whose values must never
// appear in a log line.
var secretEnvKeys = map[string]bool{
	"OPENAI_API_KEY":        true,
	"AZURE_OPENAI_API_KEY":  true,
	"GOOGLE_API_KEY":        true,
	"EMBEDDING_API_KEY":     true,
	"QDRANT_API_KEY":        true,
	"DOCQA_API_KEY":         true,
	"LANGFUSE_PUBLIC_KEY":   true,
	"LANGFUSE_SECRET_KEY":   true,
	"AWS_SECRET_ACCESS_KEY": true,
	"AWS_SESSION_TOKEN":     true,
}

// auditKeys is the ordered list of env vars recorded on every command start.
// Secrecy is decided per key by secretEnvKeys.
var auditKeys = []string{
	"MODEL_PROVIDER",
	"OLLAMA_HOST",
	"OLLAMA_MODEL",
	"OPENAI_API_KEY",
	"OPENAI_MODEL",
	"AZURE_OPENAI_API_KEY",
	"AZURE_OPENAI_ENDPOINT",
	"AZURE_OPENAI_DEPLOYMENT",
	"GOOGLE_API_KEY",
	"GEMINI_MODEL",
	"AWS_REGION",
	"BEDROCK_MODEL_ID",
	"EMBEDDING_PROVIDER",
	"EMBEDDING_MODEL",
	"EMBEDDING_API_KEY",
	"DOCQA_TOP_K",
	"DOCQA_DISTANCE_METRIC",
	"DOCQA_PROMPT_STYLE",
	"DOCQA_MAX_OUTPUT_TOKENS",
	"QDRANT_HOST",
	"QDRANT_PORT",
	"QDRANT_COLLECTION",
	"QDRANT_API_KEY",
	"DOCQA_API_KEY",
	"DOCQA_HISTORY_DB",
	"LOG_LEVEL",
	"LOG_FORMAT",
	"LANGFUSE_PUBLIC_KEY",
	"LANGFUSE_SECRET_KEY",
}

// LogCommandStart records the start of a CLI command with the sanitised
// environment attached.
func LogCommandStart(log *slog.Logger, command string, configPath string) {
	attrs := make([]slog.Attr, 0, len(auditKeys)+2)
	attrs = append(attrs,
		slog.String("command", command),
		slog.String("config_file", sanitiseConfigPath(configPath)),
	)
	for _, key := range auditKeys {
		attrs = append(attrs, slog.String(key, SanitiseKey(key, os.Getenv(key))))
	}

	log.LogAttrs(context.TODO(), slog.LevelInfo, "audit: command start", attrs...)
}

// SanitiseKey returns "set"/"unset" for secret keys and the value (or
// "unset") for everything else. Safe to interpolate into log messages.
func SanitiseKey(key, value string) string {
	if secretEnvKeys[key] {
		return presence(value)
	}
	return valOrUnset(value)
}

func presence(v string) string {
	if v != "" {
		return "set"
	}
	return "unset"
}

func valOrUnset(v string) string {
	if v != "" {
		return v
	}
	return "unset"
}

// sanitiseConfigPath replaces the home directory prefix with "~" and maps
// the empty path to "none".
func sanitiseConfigPath(p string) string {
	if p == "" {
		return "none"
	}
	home, err := os.UserHomeDir()
	if err == nil && strings.HasPrefix(p, home) {
		return "~" + p[len(home):]
	}
	return p
}
