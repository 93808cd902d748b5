package connection

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/jimyag/hostplay/pkg/errors"
	"github.com/jimyag/hostplay/pkg/inventory"
)

func TestExpandHome(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("no home directory")
	}

	tests := []struct {
		in   string
		want string
	}{
		{in: "~/.ssh/id_rsa", want: filepath.Join(home, ".ssh", "id_rsa")},
		{in: "~", want: home},
		{in: "/keys/id_rsa", want: "/keys/id_rsa"},
		{in: "relative/key", want: "relative/key"},
		{in: "~user/key", want: "~user/key"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := expandHome(tt.in); got != tt.want {
				t.Errorf("expandHome(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestManager_Connect_NoAuth(t *testing.T) {
	m := NewManager(&Config{Port: 22, UseAgent: false})

	_, err := m.Connect(context.Background(), inventory.Target{Address: "127.0.0.1", User: "root"})
	if err == nil {
		t.Fatal("Connect() without any auth method succeeded")
	}
	if !errors.Is(err, errors.ErrConnection) {
		t.Errorf("Connect() error = %v, want connection error", err)
	}
}

func TestManager_Connect_BadKeyFile(t *testing.T) {
	key := filepath.Join(t.TempDir(), "id_rsa")
	if err := os.WriteFile(key, []byte("not a key"), 0o600); err != nil {
		t.Fatal(err)
	}
	m := NewManager(&Config{Port: 22, UseAgent: false})

	_, err := m.Connect(context.Background(), inventory.Target{Address: "127.0.0.1", User: "root", KeyPath: key})
	if !errors.Is(err, errors.ErrConnection) {
		t.Errorf("Connect() error = %v, want connection error", err)
	}
}
