// Package client is the Go-side counterpart of the rest/server package.
//
// A Client speaks the REST surface over tcp:// or unix:// endpoints using
// any codec from the rest/codec package, and hands out RemoteCollection
// handles that mirror the collection.Binding surface. Classified failures
// travel back as *collection.Error values, so
// collection.CodeOf works identically against a local binding and a remote
// one:
//
//	c, err := client.New(common.ClientConfig{Endpoint: "tcp://localhost:8080"})
//	if err != nil { ... }
//	defer c.Close()
//
//	users := c.Collection("users")
//	if err := users.Set(ctx, "jimmy", collection.Text("abc@abc.com")); err != nil {
//		if collection.CodeOf(err) == collection.CodeConstraintViolation {
//			// key already taken
//		}
//	}
//
// Only transport failures are retried (config.RetryCount times); a response
// from the server, success or error, is always final.
package client
