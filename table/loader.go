package table

import (
	"fmt"

	"github.com/goliatone/go-hsm"
	"gopkg.in/yaml.v3"
)

// Parse decodes a YAML or JSON state table and validates it structurally.
func Parse(data []byte) (Definition, error) {
	var def Definition
	if err := yaml.Unmarshal(data, &def); err != nil {
		// yaml can handle JSON too, so a single attempt is fine
		return def, err
	}
	return def, def.Validate()
}

// Build resolves the table's symbolic references against the registry and
// constructs a machine over sm. It returns the machine together with the
// name-to-id mapping so callers can address states symbolically at runtime.
func Build[SM, M any](def Definition, sm *SM, handlers *HandlerRegistry[SM, M], opts ...BuildOption) (*hsm.Machine[SM, M], map[string]hsm.StateID, error) {
	if err := def.Validate(); err != nil {
		return nil, nil, err
	}

	cfg := buildConfig{}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}

	// Ids follow declaration order, so symbols resolve before the builder
	// sees them and forward parent references cost nothing.
	ids := make(map[string]hsm.StateID, len(def.States))
	for idx, st := range def.States {
		ids[st.Name] = hsm.StateID(idx)
	}

	b := hsm.NewBuilder[SM, M](sm)
	if cfg.logger != nil {
		b.WithLogger(cfg.logger)
	}

	var initial hsm.StateID
	for _, st := range def.States {
		process, ok := handlers.LookupProcess(st.Process)
		if !ok {
			return nil, nil, fmt.Errorf("state %s: unknown process handler %s", st.Name, st.Process)
		}
		decl := hsm.NewState(st.Name, process)
		if st.Parent != "" {
			decl = decl.WithParent(ids[st.Parent])
		}
		if st.Enter != "" {
			enter, ok := handlers.LookupEnter(st.Enter)
			if !ok {
				return nil, nil, fmt.Errorf("state %s: unknown enter handler %s", st.Name, st.Enter)
			}
			decl = decl.WithEnter(enter)
		}
		if st.Exit != "" {
			exit, ok := handlers.LookupExit(st.Exit)
			if !ok {
				return nil, nil, fmt.Errorf("state %s: unknown exit handler %s", st.Name, st.Exit)
			}
			decl = decl.WithExit(exit)
		}

		id := b.AddState(decl)
		if st.Initial {
			initial = id
		}
	}

	m, err := b.Build(initial)
	if err != nil {
		return nil, nil, err
	}
	return m, ids, nil
}

type buildConfig struct {
	logger hsm.Logger
}

// BuildOption customizes machine construction from a table.
type BuildOption func(*buildConfig)

// WithLogger sets the logger passed to the underlying builder.
func WithLogger(logger hsm.Logger) BuildOption {
	return func(c *buildConfig) {
		c.logger = logger
	}
}
