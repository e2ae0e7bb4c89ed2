package logger

import (
	"strings"

	"go.uber.org/zap"
)

const (
	FieldEmbedderProvider = "embedder_provider"
	FieldEmbedderModel    = "embedder_model"
	FieldResume           = "resume"
	FieldRequestID        = "request_id"
)

// StringField is a string-valued structured logging field.
type StringField struct {
	Key   string
	Value string
}

// StringFields converts key/value pairs into zap fields. Entries with an empty
// key or value are omitted.
func StringFields(fields ...StringField) []zap.Field {
	result := make([]zap.Field, 0, len(fields))
	for _, field := range fields {
		key := strings.TrimSpace(field.Key)
		if key == "" {
			continue
		}

		value := strings.TrimSpace(field.Value)
		if value == "" {
			continue
		}

		result = append(result, zap.String(key, value))
	}

	return result
}

// WithFields attaches fields to the logger. A nil logger becomes a no-op logger.
func WithFields(logger *zap.Logger, fields ...zap.Field) *zap.Logger {
	if logger == nil {
		logger = zap.NewNop()
	}

	if len(fields) == 0 {
		return logger
	}

	return logger.With(fields...)
}

// EmbedderFields describes the embedding provider and model.
func EmbedderFields(provider, model string) []zap.Field {
	return StringFields(
		StringField{Key: FieldEmbedderProvider, Value: provider},
		StringField{Key: FieldEmbedderModel, Value: model},
	)
}

func WithEmbedder(logger *zap.Logger, provider, model string) *zap.Logger {
	return WithFields(logger, EmbedderFields(provider, model)...)
}
