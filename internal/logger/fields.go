package logger

import (
	"strings"

	"go.uber.org/zap"
)

const (
	FieldProvider    = "ai_provider"
	FieldModel       = "ai_model"
	FieldUserID      = "user_id"
	FieldInterviewID = "interview_id"
)

// CommonFields describes the AI provider and model, skipping empty values.
func CommonFields(provider, model string) []zap.Field {
	fields := make([]zap.Field, 0, 2)
	if v := strings.TrimSpace(provider); v != "" {
		fields = append(fields, zap.String(FieldProvider, v))
	}
	if v := strings.TrimSpace(model); v != "" {
		fields = append(fields, zap.String(FieldModel, v))
	}
	return fields
}

// WithCommonFields attaches the common AI fields. A nil logger becomes a no-op logger.
func WithCommonFields(l *zap.Logger, provider, model string) *zap.Logger {
	l = OrNop(l)
	fields := CommonFields(provider, model)
	if len(fields) == 0 {
		return l
	}
	return l.With(fields...)
}
