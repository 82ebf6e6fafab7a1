package tenant

import "context"

// Record is one stored document. Filter matches records by exact field
// equality. Both are plain maps so the gate can inject the tenant field
// without knowing the schema.
type (
	Record map[string]any
	Filter map[string]any
)

// OpKind discriminates batch sub-operations.
type OpKind uint8

const (
	OpCreate OpKind = iota
	OpUpdate
	OpDelete
)

// BatchOp is one sub-operation of an atomic batch. Filter applies to update
// and delete; Record to create and update.
type BatchOp struct {
	Kind       OpKind
	Collection string
	Filter     Filter
	Record     Record
}

// Datastore is the storage contract the gate wraps. Implementations must be
// safe for concurrent use, and Batch must apply all sub-operations or none.
type Datastore interface {
	FindMany(ctx context.Context, collection string, filter Filter) ([]Record, error)
	FindUnique(ctx context.Context, collection string, filter Filter) (Record, error)
	Create(ctx context.Context, collection string, record Record) (string, error)
	Update(ctx context.Context, collection string, filter Filter, record Record) (int, error)
	Delete(ctx context.Context, collection string, filter Filter) (int, error)
	Count(ctx context.Context, collection string, filter Filter) (int, error)
	Batch(ctx context.Context, ops []BatchOp) error
}
