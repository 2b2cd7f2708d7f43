// Package errors provides structured, actionable error messages for the
// vstore command and inspector.
//
// Each error has a unique code (e.g., "E100") that maps to a short message,
// a category and a detailed explanation. Errors can carry the position in a
// config file where they occurred, a hint, and a wrapped cause.
//
// # Error Categories
//
//   - runtime: hook and scheduler misuse
//   - config: config file loading and validation
//   - cli: flag and server errors from the vstore command
//   - devtools: inspector HTTP and WebSocket errors
//
// # Usage
//
//	err := errors.New(errors.CodeConfigSyntax).
//	    WithLocationFromError("vstore.yaml", parseErr).
//	    WithSuggestion("Check the indentation of the inspect section")
//
//	fmt.Println(err.Format())
//	// Output:
//	// ERROR E101: Invalid config syntax
//	//
//	//   vstore.yaml:3
//	//
//	//        1 │ inspect:
//	//        2 │   addr: localhost:7070
//	//   →    3 │  metrics: true
//	//
//	//   The config file could not be parsed.
//	//
//	//   Hint: Check the indentation of the inspect section
package errors
