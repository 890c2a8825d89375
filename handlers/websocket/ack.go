package websocket

// ackInvoker answers a client acknowledgement. Failures travel inside the
// payload; the error argument of an ack never reaches the client.
type ackInvoker func(payload map[string]any)

// extractAck splits a trailing acknowledgement callback off the event args.
// socket.io hands acks to handlers as func([]any, error).
func extractAck(datas []any) (ack ackInvoker, args []any) {
	if len(datas) == 0 {
		return nil, datas
	}

	fn, ok := datas[len(datas)-1].(func([]any, error))
	if !ok {
		return nil, datas
	}
	return func(payload map[string]any) {
		fn([]any{payload}, nil)
	}, datas[:len(datas)-1]
}

// respondWithAck answers through the callback when the client sent one,
// and also emits event when it is set.
func respondWithAck(out Emitter, ack ackInvoker, event string, payload map[string]any) {
	if ack != nil {
		ack(payload)
	}
	if event != "" && payload != nil {
		_ = out.Emit(event, payload)
	}
}
