// Package testing provides shared utilities for testing code built on httpretry.
//
// # Mocks
//
// The mocks subpackage provides a testify-based implementation of http.Transport,
// so callers can script attempt outcomes without a network:
//
//	transport := &mocks.MockTransport{}
//	transport.ExpectTimeout().Once()
//	transport.ExpectStatus(nethttp.StatusOK, []byte("ok")).Once()
//
//	client, _ := http.NewBuilder("http://api.test", log).
//		WithTransport(transport).
//		WithSleep(func(context.Context, time.Duration) error { return nil }).
//		Build()
//
// The constants in this package keep test literals consistent across packages.
package testing
