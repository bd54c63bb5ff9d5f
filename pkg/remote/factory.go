package remote

import (
	"github.com/fpt/codeassist/pkg/domain"
	"github.com/fpt/codeassist/pkg/remote/ghcli"
	"github.com/fpt/codeassist/pkg/remote/gogithub"
)

// DefaultBackends is the preference order used when settings name none.
var DefaultBackends = []string{gogithub.BackendName, ghcli.BackendName}

// BuiltinProviders returns every backend compiled into the binary.
func BuiltinProviders() []domain.RemoteProvider {
	return []domain.RemoteProvider{
		gogithub.NewProvider(),
		ghcli.NewProvider(),
	}
}

// NewDefaultDetector builds a detector over the built-in providers.
func NewDefaultDetector(preference []string) *Detector {
	if len(preference) == 0 {
		preference = DefaultBackends
	}
	return NewDetector(preference, BuiltinProviders()...)
}
