package audit

import "context"

type contextKey string

const ctxRequestInfo contextKey = "audit_request_info"

// RequestInfo carries the client address and agent of the HTTP request
// that triggered a recorded action.
type RequestInfo struct {
	IPAddress string
	UserAgent string
}

// WithRequestInfo stamps the request's client details onto the context so
// downstream Record calls can attribute the entry.
func WithRequestInfo(ctx context.Context, info RequestInfo) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, ctxRequestInfo, info)
}

// RequestInfoFrom returns the client details stamped by WithRequestInfo,
// or false when the context carries none.
func RequestInfoFrom(ctx context.Context) (RequestInfo, bool) {
	if ctx == nil {
		return RequestInfo{}, false
	}
	info, ok := ctx.Value(ctxRequestInfo).(RequestInfo)
	return info, ok
}
