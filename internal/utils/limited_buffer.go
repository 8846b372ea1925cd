package utils

import (
	"bytes"
)

// LimitedBuffer keeps at most Limit bytes and silently discards the rest.
type LimitedBuffer struct {
	Buf     *bytes.Buffer
	Limit   int
	Written int
}

func NewLimitedBuffer(limit int) *LimitedBuffer {
	return &LimitedBuffer{Buf: &bytes.Buffer{}, Limit: limit}
}

func (l *LimitedBuffer) Write(p []byte) (n int, err error) {
	if l.Written >= l.Limit {
		return len(p), nil
	}
	remaining := l.Limit - l.Written
	if len(p) > remaining {
		l.Buf.Write(p[:remaining])
		l.Written += remaining
		return len(p), nil
	}
	n, err = l.Buf.Write(p)
	l.Written += n
	return n, err
}

func (l *LimitedBuffer) String() string {
	return string(bytes.TrimSpace(l.Buf.Bytes()))
}
