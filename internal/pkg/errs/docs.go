// Package errs holds the error types shared by the domain model, the use cases and
// the adapters of the partner client.
//
// Every type unwraps to one sentinel, so callers classify with errors.Is and read
// the details with errors.As:
//
//	var invalid *errs.ValueIsInvalidError
//	switch {
//	case errors.Is(err, errs.ErrObjectNotFound):
//	    // 404
//	case errors.As(err, &invalid):
//	    // 400, or 409 for a refused stage transition
//	}
//
// Constructors come in pairs, with and without a wrapped cause. The cause is part
// of the message but not of the Unwrap chain.
package errs
