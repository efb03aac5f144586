// Package process publishes local commands as tools.
//
// Tools are declared in a YAML or JSON file:
//
//	tools:
//	  - name: uptime
//	    description: Host uptime
//	    command: uptime
//	  - name: greet
//	    command: sh
//	    args: ["-c", "echo hello $TOOLSERVE_ARG_NAME"]
//	    parameters:
//	      - name: name
//	        type: string
//	        required: true
//
// Only declared commands can run. Arguments are validated by the dispatcher
// and reach the process as environment variables.
package process
