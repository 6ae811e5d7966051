// Package httpclient issues the HTTP requests that make up a nai run.
//
// The package is the transport collaborator of the load engine. It provides:
//   - A tuned [*http.Client] with configurable timeout, keep-alive and TLS
//     verification
//   - Payload encoding for JSON documents, raw strings and form bodies
//   - The default [job.Descriptor] for a run, built from configuration
//   - Optional OpenTelemetry client spans and W3C trace context propagation
//
// # Issuing Requests
//
// Use [NewClient] to create a client and [Client.Do] to send one descriptor:
//
//	client := httpclient.NewClient(httpclient.Options{Timeout: 10 * time.Second})
//	status, err := client.Do(ctx, desc)
//
// Do returns the response status code, or an error when no response was
// received. The response body is always drained and closed so connections can
// be reused. Redirects are not followed; a 3xx is reported as-is.
//
// # Payloads
//
// [EncodePayload] turns the --payload and --form settings into a request body
// and Content-Type:
//
//	body, contentType, err := httpclient.EncodePayload(`{"a":1}`, true)
//	// body == "a=1", contentType == "application/x-www-form-urlencoded"
//
// # Thread Safety
//
// [Client] is safe for concurrent use by multiple goroutines.
package httpclient
