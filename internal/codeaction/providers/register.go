// Package providers holds the built-in fix providers.
package providers

import "elmls/internal/codeaction"

// Builtin returns the built-in providers in registration order.
func Builtin() []codeaction.Provider {
	return []codeaction.Provider{
		AddMissingTypeAnnotation{},
		IntroduceFunctionArgument{},
		RemoveUnusedImport{},
	}
}

// Register adds the built-in providers to reg.
func Register(reg *codeaction.Registry) {
	for _, p := range Builtin() {
		reg.Register(p)
	}
}

// NewRegistry returns a registry holding the built-in providers, still
// open for more registrations.
func NewRegistry() *codeaction.Registry {
	reg := codeaction.NewRegistry()
	Register(reg)
	return reg
}
