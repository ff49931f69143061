package httputil_test

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/matzehuels/metacheck/pkg/httputil"
)

func ExampleRetry() {
	calls := 0
	err := httputil.Retry(context.Background(), 3, time.Millisecond, func() error {
		calls++
		if calls < 3 {
			return httputil.Retryable(errors.New("connection reset"))
		}
		return nil
	})
	fmt.Println("Calls:", calls)
	fmt.Println("Error:", err)
	// Output:
	// Calls: 3
	// Error: <nil>
}

func ExampleRetry_permanent() {
	calls := 0
	err := httputil.Retry(context.Background(), 3, time.Millisecond, func() error {
		calls++
		return errors.New("invalid URL")
	})
	fmt.Println("Calls:", calls)
	fmt.Println("Error:", err)
	// Output:
	// Calls: 1
	// Error: invalid URL
}
