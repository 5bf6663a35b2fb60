// Package service holds the business services for suppliers, ingredients,
// recipes, and costing. Every operation picks its backing store through the
// three-tier resolution in the demo package, so the same code serves normal
// traffic from the shared durable store and demo traffic from a per-session
// ephemeral store.
package service

import "errors"

// ErrValidation marks input the caller can fix; handlers map it to 400.
var ErrValidation = errors.New("validation failed")
