// Package statemut performs validated, copy-on-write mutations on state
// containers owned by the caller: slices (array state) and maps (object state).
//
// Every operation receives the current container, a Setter that commits a
// replacement, and the mutation parameters. When the preconditions hold, the
// operation builds a new container, leaving the input untouched, passes it to
// the setter and returns it. When a precondition fails, the setter is not
// called, one diagnostic is written to the configured zap logger and a
// *ValidationError is returned. Copies are shallow.
//
//	tags := []string{}
//	setTags := func(next []string) { tags = next }
//
//	statemut.AddItemToStateArray(tags, setTags, "go")
//	statemut.DeleteItemFromStateArray(tags, setTags, "go", false)
//
// The package holds no state of its own. Callers that share a container
// between goroutines must serialize read-mutate-commit sequences themselves.
package statemut
