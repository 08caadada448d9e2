/*
Package errs defines beacon's error taxonomy.

Every error that crosses a component boundary (hook execution, event
handler, collector call, notification send, storage write) is wrapped
in an Error carrying a Kind so callers can branch on what kind of
failure occurred rather than string-matching. Kinds intentionally
mirror the classification a caller needs to act on: a Timeout may be
retried with a longer deadline, a Resource error may be retried after
backoff, a Configuration error is fatal at startup, and so on.
*/
package errs
