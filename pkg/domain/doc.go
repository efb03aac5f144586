/*
Package domain contains the core models shared by every part of toolserve.

It defines what a tool looks like to the outside world and what an invocation
produces. The package has no dependencies beyond the standard library so the
registry, the dispatcher and the adapters can all share it.

# Key Entities

  - Descriptor: the name, description, ordered parameters and return type of a tool.
  - InvocationRequest: a tool name, raw arguments and an optional correlation id.
  - Result: Success(value) or Failure(message), always a value and never a panic.
  - Errors: UnknownToolError, DuplicateToolError, ArgumentValidationError,
    HandlerFault and FramingError.
*/
package domain
