package inventory

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/jimyag/hostplay/pkg/errors"
)

const sampleConfig = `global_config:
  user: deploy
  key: /home/deploy/.ssh/id_ed25519
hosts:
  - address: 10.0.0.1
  - address: 10.0.0.2
    user: root
  - address: 10.0.0.3
    key: /keys/special
    port: 2222
`

func TestParse(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr bool
		check   func(*testing.T, *Inventory)
	}{
		{
			name:    "full config",
			content: sampleConfig,
			check: func(t *testing.T, inv *Inventory) {
				if inv.GlobalConfig.User != "deploy" {
					t.Errorf("GlobalConfig.User = %q, want deploy", inv.GlobalConfig.User)
				}
				want := []string{"10.0.0.1", "10.0.0.2", "10.0.0.3"}
				got := inv.Addresses()
				if len(got) != len(want) {
					t.Fatalf("Addresses() = %v, want %v", got, want)
				}
				for i := range want {
					if got[i] != want[i] {
						t.Errorf("Addresses()[%d] = %s, want %s", i, got[i], want[i])
					}
				}
				if inv.Hosts[2].Port != 2222 {
					t.Errorf("Hosts[2].Port = %d, want 2222", inv.Hosts[2].Port)
				}
			},
		},
		{
			name:    "missing global config",
			content: "hosts:\n  - address: 10.0.0.1\n",
			wantErr: true,
		},
		{
			name:    "host without address",
			content: "global_config: {user: a, key: b}\nhosts:\n  - user: root\n",
			wantErr: true,
		},
		{
			name:    "duplicate address",
			content: "global_config: {user: a, key: b}\nhosts:\n  - address: h1\n  - address: h1\n",
			wantErr: true,
		},
		{
			name:    "unknown field",
			content: "global_config: {user: a, key: b}\nhosts:\n  - address: h1\n    password: secret\n",
			wantErr: true,
		},
		{
			name:    "invalid yaml",
			content: "global_config: [",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			inv, err := Parse([]byte(tt.content), "hosts.yml")
			if (err != nil) != tt.wantErr {
				t.Fatalf("Parse() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil {
				if !errors.Is(err, errors.ErrParse) {
					t.Errorf("Parse() error type = %v, want parse", err)
				}
				return
			}
			if tt.check != nil {
				tt.check(t, inv)
			}
		})
	}
}

func TestResolve(t *testing.T) {
	inv, err := Parse([]byte(sampleConfig), "hosts.yml")
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name    string
		address string
		local   *GlobalConfig
		want    Target
		wantErr bool
	}{
		{
			name:    "global defaults",
			address: "10.0.0.1",
			want:    Target{Address: "10.0.0.1", User: "deploy", KeyPath: "/home/deploy/.ssh/id_ed25519"},
		},
		{
			name:    "host user override",
			address: "10.0.0.2",
			want:    Target{Address: "10.0.0.2", User: "root", KeyPath: "/home/deploy/.ssh/id_ed25519"},
		},
		{
			name:    "host key and port override",
			address: "10.0.0.3",
			want:    Target{Address: "10.0.0.3", User: "deploy", KeyPath: "/keys/special", Port: 2222},
		},
		{
			name:    "local config between host and global",
			address: "10.0.0.2",
			local:   &GlobalConfig{User: "ops", Key: "/keys/ops"},
			want:    Target{Address: "10.0.0.2", User: "root", KeyPath: "/keys/ops"},
		},
		{
			name:    "partial local config",
			address: "10.0.0.1",
			local:   &GlobalConfig{User: "ops"},
			want:    Target{Address: "10.0.0.1", User: "ops", KeyPath: "/home/deploy/.ssh/id_ed25519"},
		},
		{
			name:    "unknown address",
			address: "10.9.9.9",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := inv.Resolve(tt.address, tt.local)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Resolve() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil {
				if !errors.Is(err, errors.ErrResolution) {
					t.Errorf("Resolve() error type = %v, want resolution", err)
				}
				return
			}
			if got != tt.want {
				t.Errorf("Resolve() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestTarget_HostPort(t *testing.T) {
	if got := (Target{Address: "web1"}).HostPort(22); got != "web1:22" {
		t.Errorf("HostPort() = %s, want web1:22", got)
	}
	if got := (Target{Address: "::1", Port: 2222}).HostPort(22); got != "[::1]:2222" {
		t.Errorf("HostPort() = %s, want [::1]:2222", got)
	}
}

func TestLoadScript(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("host scripts require a POSIX shell")
	}

	dir := t.TempDir()
	script := filepath.Join(dir, "hosts.sh")
	content := "#!/bin/sh\ncat <<'EOF'\n" + sampleConfig + "EOF\n"
	if err := os.WriteFile(script, []byte(content), 0o755); err != nil {
		t.Fatal(err)
	}

	inv, err := LoadScript(context.Background(), script)
	if err != nil {
		t.Fatalf("LoadScript() error = %v", err)
	}
	if len(inv.Hosts) != 3 {
		t.Errorf("len(Hosts) = %d, want 3", len(inv.Hosts))
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "hosts.yml")
	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		t.Fatal(err)
	}
	inv, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if _, ok := inv.Lookup("10.0.0.3"); !ok {
		t.Error("Lookup(10.0.0.3) not found")
	}
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yml")); err == nil {
		t.Error("Load() of a missing file succeeded")
	}
}
