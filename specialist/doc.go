// Package specialist holds the specialist registry: the fixed mapping from
// domain tag to the prompt material used to answer questions in that domain.
//
// A specialist is data, not behaviour. The dispatcher renders a Descriptor
// with BuildPrompt and hands the result to a model.Provider. Registries are
// built once at startup (DefaultRegistry or LoadFile) and shared read-only
// across all turns.
package specialist
