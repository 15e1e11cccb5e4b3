/*
Package hostmock provides a pretend host for waPC calls.

It validates what a component sends to the Tarmac host without a real host
running, which is how the sql, logging and metrics clients in this module are
tested at the wire level.

Mock answers a single capability function:

	m, _ := hostmock.New(hostmock.Config{
	  ExpectedNamespace:  "tarmac",
	  ExpectedCapability: "sql",
	  ExpectedFunction:   "query",
	  PayloadValidator: func(p []byte) error {
	    // Unmarshal and assert fields here
	    return nil
	  },
	  Response: func() []byte { return respBytes },
	})

Router answers several, which is what a statement needing schema
introspection before its main query looks like on the wire:

	r := hostmock.NewRouter("tarmac")
	r.Handle("sql", "query", func(p []byte) ([]byte, error) { ... })
	r.Handle("sql", "exec", func(p []byte) ([]byte, error) { ... })

Behavior

  - If Fail is true, HostCall returns Error, or ErrOperationFailed when Error is nil.
  - Blank expectations are wildcards; set ones are enforced.
  - PayloadValidator runs when provided; Response (when set) supplies the bytes.
  - Both Mock and Router record every call for later assertions.
*/
package hostmock
