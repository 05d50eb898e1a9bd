package logging

import (
	"context"
)

type contextKey string

const (
	TraceIDKey        contextKey = "trace_id"
	MessageIDKey      contextKey = "message_id"
	ServiceNameKey    contextKey = "service_name"
	CorrelationKeyKey contextKey = "correlation_key"
	InstallIDKey      contextKey = "install_id"
)

func WithTraceID(ctx context.Context, traceID string) context.Context {
	return context.WithValue(ctx, TraceIDKey, traceID)
}

func WithMessageID(ctx context.Context, messageID string) context.Context {
	return context.WithValue(ctx, MessageIDKey, messageID)
}

func WithServiceName(ctx context.Context, serviceName string) context.Context {
	return context.WithValue(ctx, ServiceNameKey, serviceName)
}

// WithCorrelationKey attaches the key that follows a request across the
// producer and consumer hops.
func WithCorrelationKey(ctx context.Context, correlationKey string) context.Context {
	return context.WithValue(ctx, CorrelationKeyKey, correlationKey)
}

func WithInstallID(ctx context.Context, installID string) context.Context {
	return context.WithValue(ctx, InstallIDKey, installID)
}

func GetTraceID(ctx context.Context) string {
	return stringValue(ctx, TraceIDKey)
}

func GetMessageID(ctx context.Context) string {
	return stringValue(ctx, MessageIDKey)
}

func GetServiceName(ctx context.Context) string {
	return stringValue(ctx, ServiceNameKey)
}

func GetCorrelationKey(ctx context.Context) string {
	return stringValue(ctx, CorrelationKeyKey)
}

func GetInstallID(ctx context.Context) string {
	return stringValue(ctx, InstallIDKey)
}

func stringValue(ctx context.Context, key contextKey) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(key).(string); ok {
		return v
	}
	return ""
}

func GetLogFields(ctx context.Context) []interface{} {
	fields := make([]interface{}, 0, 10)

	if traceID := GetTraceID(ctx); traceID != "" {
		fields = append(fields, "trace_id", traceID)
	}

	if messageID := GetMessageID(ctx); messageID != "" {
		fields = append(fields, "message_id", messageID)
	}

	if serviceName := GetServiceName(ctx); serviceName != "" {
		fields = append(fields, "service_name", serviceName)
	}

	if correlationKey := GetCorrelationKey(ctx); correlationKey != "" {
		fields = append(fields, "correlation_key", correlationKey)
	}

	if installID := GetInstallID(ctx); installID != "" {
		fields = append(fields, "install_id", installID)
	}

	return fields
}
