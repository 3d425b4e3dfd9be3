package console

import "context"

type ctxIndex int

const ctxIndexTrace ctxIndex = iota

// SetTrace marks the context of a command asking for register traces.
func SetTrace(parent context.Context, value bool) context.Context {
	return context.WithValue(parent, ctxIndexTrace, value)
}

func IsTrace(ctx context.Context) bool {
	val := ctx.Value(ctxIndexTrace)
	if val == nil {
		return false
	}
	return val.(bool)
}
