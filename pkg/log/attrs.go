package log

import "log/slog"

func FlowID[T ~string](id T) slog.Attr {
	return slog.String("flow_id", string(id))
}

func NodeID[T ~string](id T) slog.Attr {
	return slog.String("node_id", string(id))
}

func RunID[T ~string](id T) slog.Attr {
	return slog.String("run_id", string(id))
}

func RequestID[T ~string](id T) slog.Attr {
	return slog.String("request_id", string(id))
}

func Tenant[T ~string](tenant T) slog.Attr {
	return slog.String("tenant", string(tenant))
}

func Channel[T ~string](channel T) slog.Attr {
	return slog.String("channel", string(channel))
}

func Status[T ~string](status T) slog.Attr {
	return slog.String("status", string(status))
}

func Error(err error) slog.Attr {
	msg := ""
	if err != nil {
		msg = err.Error()
	}
	return slog.String("error", msg)
}

func ErrorString(msg string) slog.Attr {
	return slog.String("error", msg)
}
