package plugin

import (
	"fmt"
	"regexp"
	"sort"
	"sync"

	"github.com/go-playground/validator/v10"
)

var (
	pluginNamePattern = regexp.MustCompile(`^[a-z][a-z0-9-]*$`)
	semverPattern     = regexp.MustCompile(`^\d+\.\d+\.\d+(?:-[0-9A-Za-z-.]+)?$`)

	validatorOnce sync.Once
	validateInst  *validator.Validate
)

// metadataValidator configures and returns the shared validator instance used
// for registration-time metadata checks.
func metadataValidator() *validator.Validate {
	validatorOnce.Do(func() {
		v := validator.New()

		_ = v.RegisterValidation("plugin_name", func(fl validator.FieldLevel) bool {
			return pluginNamePattern.MatchString(fl.Field().String())
		})

		_ = v.RegisterValidation("semver", func(fl validator.FieldLevel) bool {
			return semverPattern.MatchString(fl.Field().String())
		})

		validateInst = v
	})
	return validateInst
}

// Metadata describes plugin identity and dependency requirements. Dependency
// map values are version constraint strings stored as declared; constraints
// are not validated or enforced. PeerDependencies carry softer semantics at
// the contract level but collapse into the same dependency set for graph
// purposes.
type Metadata struct {
	Name             string            `validate:"required,plugin_name"`
	Version          string            `validate:"required,semver"`
	Description      string            `validate:"-"`
	Dependencies     map[string]string `validate:"omitempty,dive,keys,plugin_name,endkeys"`
	PeerDependencies map[string]string `validate:"omitempty,dive,keys,plugin_name,endkeys"`
}

// Validate ensures metadata is well-formed. It is called once at register
// time; plugins that fail validation are never added to the registry.
func (m Metadata) Validate() error {
	if err := metadataValidator().Struct(m); err != nil {
		return fmt.Errorf("plugin '%s' metadata invalid: %w", m.Name, err)
	}
	if _, ok := m.Dependencies[m.Name]; ok {
		return fmt.Errorf("plugin '%s' cannot depend on itself", m.Name)
	}
	if _, ok := m.PeerDependencies[m.Name]; ok {
		return fmt.Errorf("plugin '%s' cannot peer-depend on itself", m.Name)
	}
	return nil
}

// DependencyNames returns the union of declared dependency and peer
// dependency names, sorted.
func (m Metadata) DependencyNames() []string {
	seen := make(map[string]struct{}, len(m.Dependencies)+len(m.PeerDependencies))
	for name := range m.Dependencies {
		seen[name] = struct{}{}
	}
	for name := range m.PeerDependencies {
		seen[name] = struct{}{}
	}

	names := make([]string, 0, len(seen))
	for name := range seen {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
