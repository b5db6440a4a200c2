// Package errors holds the error taxonomy of a resolution run: fatal schema
// errors, non-fatal data quality warnings and empty-result notices.
package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"sync"

	"github.com/Gobusters/ectoerror/httperror"
)

// SchemaError reports a required column missing from an input table. It
// aborts the run before any transformation.
type SchemaError struct {
	Table  string
	Column string
}

func NewSchemaError(table, column string) *SchemaError {
	return &SchemaError{Table: table, Column: column}
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("table '%s' is missing required column '%s'", e.Table, e.Column)
}

func (e *SchemaError) ToHTTPError() *httperror.HTTPError {
	return httperror.NewHTTPError(http.StatusUnprocessableEntity, e.Error()).AddMetaValue("table", e.Table).AddMetaValue("column", e.Column)
}

func IsSchemaError(err error) bool {
	var target *SchemaError
	return stderrors.As(err, &target)
}

// RequireColumns returns a SchemaError for the first required column not in columns
func RequireColumns(table string, columns []string, required ...string) error {
	present := make(map[string]struct{}, len(columns))
	for _, c := range columns {
		present[c] = struct{}{}
	}
	for _, r := range required {
		if _, ok := present[r]; !ok {
			return NewSchemaError(table, r)
		}
	}
	return nil
}

// WarningKind classifies a data quality warning
type WarningKind string

const (
	WarningDivergentAttribute  WarningKind = "divergent_attribute"
	WarningMixedEntityTypes    WarningKind = "mixed_entity_types"
	WarningUnparseableZip      WarningKind = "unparseable_zip"
	WarningMissingOrganisation WarningKind = "missing_organisation"
	WarningAmbiguousRoles      WarningKind = "ambiguous_roles"
)

// DataQualityWarning is a per-row anomaly. Processing continues; the
// warning is logged, counted and returned with the run result.
type DataQualityWarning struct {
	Kind        WarningKind `json:"kind"`
	ReferenceID string      `json:"reference_id,omitempty"`
	Message     string      `json:"message"`
}

func NewDataQualityWarning(kind WarningKind, referenceID string, format string, args ...any) DataQualityWarning {
	return DataQualityWarning{
		Kind:        kind,
		ReferenceID: referenceID,
		Message:     fmt.Sprintf(format, args...),
	}
}

func (w DataQualityWarning) Error() string {
	if w.ReferenceID == "" {
		return fmt.Sprintf("%s: %s", w.Kind, w.Message)
	}
	return fmt.Sprintf("%s [%s]: %s", w.Kind, w.ReferenceID, w.Message)
}

// Warnings collects warnings from concurrent stages
type Warnings struct {
	mu    sync.Mutex
	items []DataQualityWarning
}

func (w *Warnings) Add(warnings ...DataQualityWarning) {
	if w == nil || len(warnings) == 0 {
		return
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	w.items = append(w.items, warnings...)
}

func (w *Warnings) Items() []DataQualityWarning {
	if w == nil {
		return nil
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	return append([]DataQualityWarning(nil), w.items...)
}

func (w *Warnings) CountByKind() map[WarningKind]int {
	counts := make(map[WarningKind]int)
	for _, item := range w.Items() {
		counts[item.Kind]++
	}
	return counts
}

// EmptyResultNotice reports that a product or classification produced no
// rows. It is informational and never aborts a run.
type EmptyResultNotice struct {
	Product        string `json:"product"`
	Classification string `json:"classification"`
}

func NewEmptyResultNotice(product, classification string) *EmptyResultNotice {
	return &EmptyResultNotice{Product: product, Classification: classification}
}

func (n *EmptyResultNotice) Error() string {
	if n.Product == "" {
		return fmt.Sprintf("no rows for classification '%s'", n.Classification)
	}
	return fmt.Sprintf("no rows for product '%s' with classification '%s'", n.Product, n.Classification)
}

func IsEmptyResult(err error) bool {
	var target *EmptyResultNotice
	return stderrors.As(err, &target)
}
