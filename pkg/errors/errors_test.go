package errors_test

import (
	stderrors "errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/matzehuels/metacheck/pkg/config"
	"github.com/matzehuels/metacheck/pkg/errors"
	"github.com/matzehuels/metacheck/pkg/record"
	"github.com/matzehuels/metacheck/pkg/store"
)

// blockedDir returns a path below a regular file, which cannot be created.
func blockedDir(t *testing.T) string {
	t.Helper()
	file := filepath.Join(t.TempDir(), "analysis_results.json")
	if err := os.WriteFile(file, []byte("{}"), 0o644); err != nil {
		t.Fatal(err)
	}
	return filepath.Join(file, "pitfalls")
}

func TestCodesFromPackages(t *testing.T) {
	tests := []struct {
		name string
		run  func(t *testing.T) error
		want errors.Code
	}{
		{
			name: "record not an object",
			run: func(t *testing.T) error {
				_, err := record.Parse([]byte(`["version"]`))
				return err
			},
			want: errors.ErrCodeInvalidRecord,
		},
		{
			name: "record truncated",
			run: func(t *testing.T) error {
				_, err := record.Parse([]byte(`{"version": [`))
				return err
			},
			want: errors.ErrCodeInvalidRecord,
		},
		{
			name: "config file missing",
			run: func(t *testing.T) error {
				_, err := config.Loader{Path: filepath.Join(t.TempDir(), "metacheck.toml")}.Load(config.Overrides{})
				return err
			},
			want: errors.ErrCodeFileNotFound,
		},
		{
			name: "unknown store kind",
			run: func(t *testing.T) error {
				_, err := store.ParseKind("postgres")
				return err
			},
			want: errors.ErrCodeInvalidConfig,
		},
		{
			name: "pitfalls dir not creatable",
			run: func(t *testing.T) error {
				_, err := store.NewFileStore(blockedDir(t), "")
				return err
			},
			want: errors.ErrCodeStore,
		},
		{
			name: "malformed rule code",
			run: func(t *testing.T) error {
				return errors.ValidateRuleCode("p1")
			},
			want: errors.ErrCodeUnknownRule,
		},
		{
			name: "liveness url without host",
			run: func(t *testing.T) error {
				return errors.ValidateURL("https://")
			},
			want: errors.ErrCodeInvalidURL,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.run(t)
			if err == nil {
				t.Fatal("error = nil")
			}
			if !errors.Is(err, tt.want) {
				t.Errorf("Is(err, %s) = false, err = %v", tt.want, err)
			}
			if got := errors.GetCode(err); got != tt.want {
				t.Errorf("GetCode() = %v, want %v", got, tt.want)
			}
			if !strings.HasPrefix(err.Error(), string(tt.want)+": ") {
				t.Errorf("Error() = %q, want %s prefix", err.Error(), tt.want)
			}
		})
	}
}

func TestStoreErrorKeepsCause(t *testing.T) {
	_, err := store.NewFileStore(blockedDir(t), "")

	var pathErr *fs.PathError
	if !stderrors.As(err, &pathErr) {
		t.Fatalf("errors.As(*fs.PathError) = false, err = %v", err)
	}
	if !strings.HasPrefix(errors.UserMessage(err), "create ") {
		t.Errorf("UserMessage() = %q, want create prefix", errors.UserMessage(err))
	}
}

func TestCodeSurvivesFmtWrapping(t *testing.T) {
	inner := errors.New(errors.ErrCodeNoInput, "no extraction records found in %d input path(s)", 2)
	err := fmt.Errorf("analyze: %w", inner)

	if got := errors.GetCode(err); got != errors.ErrCodeNoInput {
		t.Errorf("GetCode() = %v, want %v", got, errors.ErrCodeNoInput)
	}
	if got := errors.UserMessage(err); got != "no extraction records found in 2 input path(s)" {
		t.Errorf("UserMessage() = %q", got)
	}
	if errors.GetCode(nil) != "" || errors.Is(nil, errors.ErrCodeNoInput) {
		t.Error("nil error reported a code")
	}
	if got := errors.UserMessage(stderrors.New("connection refused")); got != "connection refused" {
		t.Errorf("UserMessage(plain) = %q", got)
	}
}

func TestPanicError(t *testing.T) {
	tests := []struct {
		name      string
		value     any
		wantCause string
	}{
		{"string value", "boom", "panic: boom"},
		{"error value", stderrors.New("index out of range"), "index out of range"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := errors.PanicError(tt.value, "rule %s panicked", "W005")
			if err.Code != errors.ErrCodeDetectorFault {
				t.Errorf("Code = %v, want %v", err.Code, errors.ErrCodeDetectorFault)
			}
			if err.Message != "rule W005 panicked" {
				t.Errorf("Message = %q", err.Message)
			}
			if err.Cause == nil || err.Cause.Error() != tt.wantCause {
				t.Errorf("Cause = %v, want %q", err.Cause, tt.wantCause)
			}
			if cause, ok := tt.value.(error); ok && !stderrors.Is(err, cause) {
				t.Error("errors.Is(err, cause) = false")
			}
		})
	}
}
