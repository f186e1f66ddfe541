package memutils

// Validatable is anything whose internal bookkeeping can be checked for consistency, such as the
// buffer registry. DebugValidate calls Validate only in debug builds.
type Validatable interface {
	Validate() error
}
