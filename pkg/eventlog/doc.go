// Package eventlog records product analytics events as newline-delimited JSON.
//
// A Logger builds an Event from the request context (user, session, request
// id, client IP) and hands it to a Storage. FileStorage appends one JSON
// object per line and serializes writers with a mutex, so the file is safe to
// share across request goroutines.
//
//	store, err := eventlog.NewFileStorage("events.ndjson")
//	if err != nil {
//		return err
//	}
//	defer store.Close()
//
//	events := eventlog.New(store,
//		eventlog.WithRequestIDExtractor(requestid.FromContext),
//		eventlog.WithIPExtractor(clientip.FromContext),
//	)
//	_ = events.Log(ctx, "reply_copied", eventlog.WithProperties(props))
package eventlog
