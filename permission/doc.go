// Package permission defines the closed role set, the static role-to-
// permission catalog, and the evaluator that answers permission and
// resource-scoped access questions over them.
package permission
