/*
Package toolserve is a small Model Context Protocol (MCP) tool server.

Tools are declared once, as a descriptor (name, description, typed
parameters, return type) plus a handler. The registry publishes the
descriptors for discovery, and the dispatcher validates each invocation,
coerces its arguments and contains any handler fault, so a failing tool
never takes the process down. Transports frame requests around that core:
a stateless streamable HTTP endpoint, a session-bound HTTP endpoint and
stdio.

# Usage

	srv, err := toolserve.New(toolserve.WithLogger(logger))
	if err != nil {
		log.Fatal(err)
	}
	http.ListenAndServe(":8000", srv.HTTPHandler())

Custom tools are added with WithTools:

	srv, err := toolserve.New(toolserve.WithTools(func(reg *registry.Registry) error {
		return reg.Register(domain.NewDescriptor("echo", "Echo a message", domain.TypeText,
			domain.Required("message", domain.TypeString, ""),
		), func(_ context.Context, args schema.Args) domain.Result {
			return domain.Success(args.String("message"))
		})
	}))
*/
package toolserve
