package hooks

import (
	"context"
	"errors"
	"testing"

	"github.com/bromq-dev/udpmq/pkg/broker"
	"github.com/bromq-dev/udpmq/pkg/packet"
)

// fakeClient implements broker.ClientInfo for hook tests.
type fakeClient struct {
	id       string
	username string
}

func (c fakeClient) ClientID() string   { return c.id }
func (c fakeClient) Username() string   { return c.username }
func (c fakeClient) RemoteAddr() string { return "udp://10.0.0.1:1000" }
func (c fakeClient) CleanSession() bool { return true }
func (c fakeClient) KeepAlive() uint16  { return 60 }

func connectPacket(username, password string) *packet.Connect {
	pkt := packet.NewConnect("c")
	if username != "" {
		pkt.SetCredentials(username, []byte(password))
	}
	return pkt
}

func TestAuthHookStaticCredentials(t *testing.T) {
	h := NewAuthHook(AuthConfig{
		Credentials: map[string]string{"alice": "secret"},
	})
	ctx := context.Background()
	client := fakeClient{id: "c"}

	tests := []struct {
		name     string
		pkt      *packet.Connect
		wantCode packet.ConnectReturnCode
		wantOK   bool
	}{
		{"valid", connectPacket("alice", "secret"), 0, true},
		{"wrong password", connectPacket("alice", "nope"), packet.ConnectBadCredentials, false},
		{"unknown user", connectPacket("bob", "secret"), packet.ConnectBadCredentials, false},
		{"no credentials", connectPacket("", ""), packet.ConnectNotAuthorized, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := h.OnConnect(ctx, client, tt.pkt)
			if tt.wantOK {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			var rce *broker.ReturnCodeError
			if !errors.As(err, &rce) {
				t.Fatalf("got %v, want ReturnCodeError", err)
			}
			if rce.Code != tt.wantCode {
				t.Errorf("got code %v, want %v", rce.Code, tt.wantCode)
			}
		})
	}
}

func TestAuthHookValidator(t *testing.T) {
	h := NewAuthHook(AuthConfig{
		Validator: func(_ context.Context, username, password string) bool {
			return username == "token" && password == "opensesame"
		},
	})
	ctx := context.Background()
	client := fakeClient{id: "c"}

	if err := h.OnConnect(ctx, client, connectPacket("token", "opensesame")); err != nil {
		t.Errorf("validator accepted credentials rejected: %v", err)
	}
	if err := h.OnConnect(ctx, client, connectPacket("token", "wrong")); err == nil {
		t.Error("validator rejected credentials accepted")
	}
}

func TestAuthHookNoConfigAllowsAll(t *testing.T) {
	h := NewAuthHook(AuthConfig{})

	if err := h.OnConnect(context.Background(), fakeClient{id: "c"}, connectPacket("", "")); err != nil {
		t.Errorf("unconfigured auth hook rejected connect: %v", err)
	}
}

func TestAuthHookAddRemoveUser(t *testing.T) {
	h := NewAuthHook(AuthConfig{Credentials: map[string]string{}})
	ctx := context.Background()
	client := fakeClient{id: "c"}

	h.AddUser("carol", "pw")
	if err := h.OnConnect(ctx, client, connectPacket("carol", "pw")); err != nil {
		t.Errorf("added user rejected: %v", err)
	}

	h.RemoveUser("carol")
	if err := h.OnConnect(ctx, client, connectPacket("carol", "pw")); err == nil {
		t.Error("removed user accepted")
	}
}
