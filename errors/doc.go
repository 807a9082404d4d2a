/*
Package errors provides the error taxonomy of the entityflow write pipeline.

The package defines common error scenarios with specific types that can be
checked using the standard errors.Is() function or the provided helper functions.

Common Errors:

	var (
	    ErrStorage                = errors.New("storage error")
	    ErrSaveFailed             = errors.New("save operation failed")
	    ErrConcurrentModification = errors.New("concurrent modification")
	    ErrFatal                  = errors.New("unhandled transaction failure")
	)

A cache miss is never an error; lookups return (nil, false).

Usage:

	n, err := saver.Insert(ctx, conn, user)
	if err != nil {
	    if errors.IsStorageError(err) {
	        // the engine rejected the statement, the driver error is wrapped
	    }
	    if errors.IsSaveFailed(err) {
	        // the statement ran but produced no row
	    }
	    return err
	}

Typed errors keep their cause, so errors.As and errors.Unwrap reach the driver error:

	err := errors.NewStorageError("insert", query, driverErr)
	err := errors.NewSaveFailedError("User", storagemodels.ActionUpdate)
	err := errors.NewFatalError(txID, cause)
*/
package errors
