package tenant

import (
	"context"
	"errors"
	"fmt"

	"github.com/vendora/authcore/internal/audit"
	"github.com/vendora/authcore/permission"
)

// ErrAccessDenied reports a gated operation refused before execution.
var ErrAccessDenied = errors.New("access denied")

const defaultTenantField = "store_id"

// Gate wraps a Datastore so that every operation runs the same pipeline:
// resolve context, inject the tenant scope, check access, execute, audit.
// Once a context carries a tenant id the scope injection is unconditional;
// callers cannot opt out of the filter.
type Gate struct {
	store       Datastore
	eval        *permission.Evaluator
	audit       *audit.Dispatcher
	tenantField string
}

// NewGate creates a gate over the store. tenantField names the record field
// holding the tenant id; empty selects "store_id".
func NewGate(store Datastore, eval *permission.Evaluator, dispatcher *audit.Dispatcher, tenantField string) *Gate {
	if tenantField == "" {
		tenantField = defaultTenantField
	}
	return &Gate{store: store, eval: eval, audit: dispatcher, tenantField: tenantField}
}

// authorize runs the access check for one operation. Denials and the bypass
// path are audited here; successful checks are audited by the caller after
// execution together with the outcome.
func (g *Gate) authorize(ctx context.Context, tc Context, op, collection string, write bool) error {
	if tc.Bypass {
		g.emit(audit.SeverityWarn, "tenant.bypass", "operation executed with system bypass", tc, op, collection, "", nil)
		return nil
	}
	if tc.TenantID == "" {
		g.emit(audit.SeverityWarn, "tenant.denied", "operation without tenant scope", tc, op, collection, "", nil)
		return fmt.Errorf("%w: no tenant scope", ErrAccessDenied)
	}

	perm := permission.StoreView
	if write {
		perm = permission.StoreManage
	}
	ok, err := g.eval.CanAccessResource(ctx, tc.subject(), perm, "store", tc.TenantID)
	if err != nil {
		return err
	}
	if !ok {
		g.emit(audit.SeverityWarn, "tenant.denied", "store access check failed", tc, op, collection, "", nil)
		return fmt.Errorf("%w: %s on store %s", ErrAccessDenied, perm, tc.TenantID)
	}
	return nil
}

func (g *Gate) scopeFilter(tc Context, filter Filter) Filter {
	if tc.TenantID == "" {
		return filter
	}
	scoped := make(Filter, len(filter)+1)
	for key, value := range filter {
		scoped[key] = value
	}
	scoped[g.tenantField] = tc.TenantID
	return scoped
}

func (g *Gate) scopeRecord(tc Context, record Record) Record {
	if tc.TenantID == "" {
		return record
	}
	scoped := make(Record, len(record)+1)
	for key, value := range record {
		scoped[key] = value
	}
	scoped[g.tenantField] = tc.TenantID
	return scoped
}

func (g *Gate) emit(severity audit.Severity, eventType, message string, tc Context, op, collection, recordID string, payload Record) {
	if g.audit == nil {
		return
	}
	meta := map[string]any{
		"op":         op,
		"collection": collection,
		"actor_id":   tc.UserID,
		"role":       tc.Role.String(),
		"tenant_id":  tc.TenantID,
	}
	if recordID != "" {
		meta["record_id"] = recordID
	}
	if payload != nil {
		meta["payload"] = map[string]any(Redact(payload))
	}
	g.audit.Emit(audit.Event{Type: eventType, Severity: severity, Message: message, Meta: meta})
}

func (g *Gate) FindMany(ctx context.Context, tc Context, collection string, filter Filter) ([]Record, error) {
	if err := g.authorize(ctx, tc, "find_many", collection, false); err != nil {
		return nil, err
	}
	records, err := g.store.FindMany(ctx, collection, g.scopeFilter(tc, filter))
	if err != nil {
		return nil, err
	}
	g.emit(audit.SeverityInfo, "tenant.read", "find many", tc, "find_many", collection, "", nil)
	return records, nil
}

func (g *Gate) FindUnique(ctx context.Context, tc Context, collection string, filter Filter) (Record, error) {
	if err := g.authorize(ctx, tc, "find_unique", collection, false); err != nil {
		return nil, err
	}
	record, err := g.store.FindUnique(ctx, collection, g.scopeFilter(tc, filter))
	if err != nil {
		return nil, err
	}
	id, _ := record["id"].(string)
	g.emit(audit.SeverityInfo, "tenant.read", "find unique", tc, "find_unique", collection, id, nil)
	return record, nil
}

func (g *Gate) Count(ctx context.Context, tc Context, collection string, filter Filter) (int, error) {
	if err := g.authorize(ctx, tc, "count", collection, false); err != nil {
		return 0, err
	}
	n, err := g.store.Count(ctx, collection, g.scopeFilter(tc, filter))
	if err != nil {
		return 0, err
	}
	g.emit(audit.SeverityInfo, "tenant.read", "count", tc, "count", collection, "", nil)
	return n, nil
}

func (g *Gate) Create(ctx context.Context, tc Context, collection string, record Record) (string, error) {
	if err := g.authorize(ctx, tc, "create", collection, true); err != nil {
		return "", err
	}
	id, err := g.store.Create(ctx, collection, g.scopeRecord(tc, record))
	if err != nil {
		return "", err
	}
	g.emit(audit.SeverityInfo, "tenant.write", "create", tc, "create", collection, id, record)
	return id, nil
}

func (g *Gate) Update(ctx context.Context, tc Context, collection string, filter Filter, record Record) (int, error) {
	if err := g.authorize(ctx, tc, "update", collection, true); err != nil {
		return 0, err
	}
	n, err := g.store.Update(ctx, collection, g.scopeFilter(tc, filter), g.scopeRecord(tc, record))
	if err != nil {
		return 0, err
	}
	id, _ := filter["id"].(string)
	g.emit(audit.SeverityInfo, "tenant.write", "update", tc, "update", collection, id, record)
	return n, nil
}

func (g *Gate) Delete(ctx context.Context, tc Context, collection string, filter Filter) (int, error) {
	if err := g.authorize(ctx, tc, "delete", collection, true); err != nil {
		return 0, err
	}
	n, err := g.store.Delete(ctx, collection, g.scopeFilter(tc, filter))
	if err != nil {
		return 0, err
	}
	id, _ := filter["id"].(string)
	g.emit(audit.SeverityInfo, "tenant.write", "delete", tc, "delete", collection, id, nil)
	return n, nil
}

// Batch runs the sub-operations as one atomic unit. The whole batch is
// checked as a write before any sub-operation executes, and every
// sub-operation is scoped the same way its standalone form would be.
func (g *Gate) Batch(ctx context.Context, tc Context, ops []BatchOp) error {
	if err := g.authorize(ctx, tc, "batch", "", true); err != nil {
		return err
	}
	scoped := make([]BatchOp, len(ops))
	for i, op := range ops {
		scoped[i] = BatchOp{Kind: op.Kind, Collection: op.Collection, Filter: op.Filter, Record: op.Record}
		switch op.Kind {
		case OpCreate:
			scoped[i].Record = g.scopeRecord(tc, op.Record)
		case OpUpdate:
			scoped[i].Filter = g.scopeFilter(tc, op.Filter)
			scoped[i].Record = g.scopeRecord(tc, op.Record)
		case OpDelete:
			scoped[i].Filter = g.scopeFilter(tc, op.Filter)
		}
	}
	if err := g.store.Batch(ctx, scoped); err != nil {
		return err
	}
	g.emit(audit.SeverityInfo, "tenant.write", "batch", tc, "batch", "", "", nil)
	return nil
}
