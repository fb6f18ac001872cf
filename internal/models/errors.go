package models

import (
	"fmt"
	"strings"
)

// SchemaError reports required columns missing from the uploaded file.
type SchemaError struct {
	Missing []string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("the dataset must contain the following columns: %s", strings.Join(e.Missing, ", "))
}

// DateParseError reports date cells that could not be parsed. The whole
// dataset is rejected, not just the offending rows.
type DateParseError struct {
	BadRows int
}

func (e *DateParseError) Error() string {
	return fmt.Sprintf("some date values couldn't be parsed (%d rows); please ensure all dates are in a valid format", e.BadRows)
}

// EmptyDatasetError reports that no valid rows remained after cleanup.
type EmptyDatasetError struct{}

func (e *EmptyDatasetError) Error() string {
	return "no valid transactions remain after cleanup"
}

// FitError reports that the fitting procedure failed to converge or was
// given degenerate input.
type FitError struct {
	Reason string
	Err    error
}

func (e *FitError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("model fit failed: %s: %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("model fit failed: %s", e.Reason)
}

func (e *FitError) Unwrap() error { return e.Err }
