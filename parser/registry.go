package parser

import "fmt"

var registry = make(map[string]func() Parser)

// Register makes a parser constructor available under a format name.
// Registering the same name twice panics; registration happens from init
// functions at process startup.
func Register(name string, ctor func() Parser) {
	if _, dup := registry[name]; dup {
		panic(fmt.Sprintf("parser: Register called twice for format %q", name))
	}
	registry[name] = ctor
}

// Create returns a new parser for the named format. Training cannot
// proceed without one, so callers must treat the error as unrecoverable.
func Create(name string) (Parser, error) {
	ctor, ok := registry[name]
	if !ok {
		return nil, fmt.Errorf("parser: no parser registered for format %q", name)
	}
	return ctor(), nil
}
