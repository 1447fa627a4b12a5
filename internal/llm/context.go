package llm

import "context"

type contextKey string

const (
	purposeKey contextKey = "llm_purpose"
	studentKey contextKey = "llm_student"
)

// WithPurpose attaches a purpose label to the context for event logging.
func WithPurpose(ctx context.Context, purpose string) context.Context {
	return context.WithValue(ctx, purposeKey, purpose)
}

// PurposeFrom extracts the purpose label from the context.
func PurposeFrom(ctx context.Context) string {
	if v, ok := ctx.Value(purposeKey).(string); ok {
		return v
	}
	return "unknown"
}

// WithStudent attaches the student the request is made for.
func WithStudent(ctx context.Context, studentID int64) context.Context {
	return context.WithValue(ctx, studentKey, studentID)
}

// StudentFrom returns the student id attached by WithStudent, or 0.
func StudentFrom(ctx context.Context) int64 {
	if v, ok := ctx.Value(studentKey).(int64); ok {
		return v
	}
	return 0
}
