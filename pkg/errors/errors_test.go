package errors

import (
	"encoding/json"
	"fmt"
	"testing"
	"time"
)

func TestExecutionError_Error(t *testing.T) {
	tests := []struct {
		name string
		err  *ExecutionError
		want string
	}{
		{
			name: "host and task",
			err:  NewTaskFailedError("10.0.0.1", "restart", "non-zero return code 1"),
			want: "[10.0.0.1] restart: non-zero return code 1",
		},
		{
			name: "host only",
			err:  NewResolutionError("10.0.0.9"),
			want: "[10.0.0.9] host 10.0.0.9 is not defined in the host config",
		},
		{
			name: "no host",
			err:  NewParseError("site.yml", fmt.Errorf("bad indent")),
			want: "failed to parse site.yml: bad indent",
		},
		{
			name: "timeout",
			err:  NewTimeoutError("web1", "sleep", 2*time.Second),
			want: "[web1] sleep: timeout after 2s",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.want {
				t.Errorf("Error() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestTypeOf(t *testing.T) {
	cause := fmt.Errorf("dial tcp: connection refused")
	wrapped := fmt.Errorf("open session: %w", NewConnectionError("web1", cause))

	typ, ok := TypeOf(wrapped)
	if !ok {
		t.Fatal("TypeOf() did not find ExecutionError in chain")
	}
	if typ != ErrConnection {
		t.Errorf("TypeOf() = %v, want %v", typ, ErrConnection)
	}
	if !Is(wrapped, ErrConnection) {
		t.Error("Is(wrapped, ErrConnection) = false, want true")
	}
	if Is(cause, ErrConnection) {
		t.Error("Is(cause, ErrConnection) = true, want false")
	}
}

func TestErrorType_MarshalText(t *testing.T) {
	data, err := json.Marshal(map[string]ErrorType{"type": ErrTaskFailed})
	if err != nil {
		t.Fatalf("json.Marshal() error = %v", err)
	}
	if string(data) != `{"type":"task_failed"}` {
		t.Errorf("json.Marshal() = %s", data)
	}
}
