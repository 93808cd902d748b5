package connection_test

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"testing"

	shellquote "github.com/kballard/go-shellquote"

	"github.com/jimyag/hostplay/pkg/connection"
	"github.com/jimyag/hostplay/pkg/connection/connectiontest"
)

func TestCopyCommand(t *testing.T) {
	tests := []struct {
		name string
		src  string
		dest string
	}{
		{name: "plain paths", src: "/etc/hosts", dest: "/tmp/hosts"},
		{name: "spaces", src: "/srv/my file", dest: "/srv/other file"},
		{name: "quotes and dollars", src: "/tmp/it's $HOME", dest: "/tmp/`x`"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			words, err := shellquote.Split(connection.CopyCommand(tt.src, tt.dest))
			if err != nil {
				t.Fatalf("Split() error = %v", err)
			}
			want := []string{"cp", "--", tt.src, tt.dest}
			if len(words) != len(want) {
				t.Fatalf("words = %q, want %q", words, want)
			}
			for i := range want {
				if words[i] != want[i] {
					t.Errorf("words[%d] = %q, want %q", i, words[i], want[i])
				}
			}
		})
	}
}

func TestChecksum(t *testing.T) {
	ctx := context.Background()
	sess := connectiontest.NewSession("web1")
	sess.SetFile("/etc/app.conf", "port 8080\n")

	sum, exists, err := connection.Checksum(ctx, sess, "/etc/app.conf")
	if err != nil {
		t.Fatalf("Checksum() error = %v", err)
	}
	if !exists {
		t.Fatal("Checksum() exists = false, want true")
	}
	want := sha256.Sum256([]byte("port 8080\n"))
	if sum != hex.EncodeToString(want[:]) {
		t.Errorf("Checksum() = %s, want %x", sum, want)
	}

	_, exists, err = connection.Checksum(ctx, sess, "/etc/missing.conf")
	if err != nil {
		t.Fatalf("Checksum() of missing file error = %v", err)
	}
	if exists {
		t.Error("Checksum() of missing file exists = true")
	}
}
