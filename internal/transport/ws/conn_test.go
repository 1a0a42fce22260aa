package ws

import (
	"errors"
	"testing"

	"hashchat/internal/relay"
)

func TestWsConnPush_FullAndClosed(t *testing.T) {
	c := newWsConn("c1", "alice", nil, 1, nil)

	if err := c.Push(relay.ErrorEvent("first")); err != nil {
		t.Fatalf("expected first push to fit, got %v", err)
	}
	if err := c.Push(relay.ErrorEvent("second")); !errors.Is(err, relay.ErrChannelFull) {
		t.Fatalf("expected ErrChannelFull, got %v", err)
	}

	if err := c.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if err := c.Close(); err != nil {
		t.Fatalf("second close must be a no-op, got %v", err)
	}
	if err := c.Push(relay.ErrorEvent("third")); !errors.Is(err, relay.ErrChannelClosed) {
		t.Fatalf("expected ErrChannelClosed, got %v", err)
	}
}

func TestDecodeJoin(t *testing.T) {
	cases := []struct {
		name    string
		raw     string
		want    string
		wantErr bool
	}{
		{name: "object", raw: `{"userId":" u1 "}`, want: "u1"},
		{name: "bare string", raw: `"u2"`, want: "u2"},
		{name: "missing field", raw: `{}`, want: ""},
		{name: "number", raw: `42`, wantErr: true},
		{name: "empty", raw: ``, wantErr: true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := decodeJoin([]byte(tc.raw))
			if tc.wantErr {
				if err == nil {
					t.Fatalf("expected error, got %q", got)
				}
				return
			}
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if got != tc.want {
				t.Fatalf("expected %q, got %q", tc.want, got)
			}
		})
	}
}
