package kb

import (
	"context"
	"fmt"

	"github.com/inception-project/concept-linker-go/internal/apptype"
)

// Backend is a query-capable knowledge-base store, local or remote.
// Implementations must be safe for concurrent use.
type Backend interface {
	// Open returns a read connection. Callers must release it on all exit
	// paths.
	Open(ctx context.Context) (Connection, error)
}

// Connection executes condition sets against one backend.
type Connection interface {
	// Execute runs a built condition set and returns matching handles.
	Execute(ctx context.Context, conditions ConditionSet) ([]apptype.Handle, error)
	// Close releases the connection.
	Close() error
}

// QueryError reports a backend execution failure (connectivity, malformed
// query). The failing strategy contributes zero candidates; siblings still
// run.
type QueryError struct {
	KB  string
	Err error
}

func (e *QueryError) Error() string {
	return fmt.Sprintf("query against knowledge base %q failed: %v", e.KB, e.Err)
}

func (e *QueryError) Unwrap() error { return e.Err }

// queryErr wraps err into a QueryError for the given KB id.
func queryErr(kbID string, err error) error {
	return &QueryError{KB: kbID, Err: err}
}
