package replay

import (
	"bytes"
	"errors"
	"fmt"
	"os"

	"github.com/pelletier/go-toml/v2"

	"github.com/spaghettifunk/statetrack/engine/renderer/metadata"
)

type Op string

const (
	OpTransition Op = "transition"
	OpAliasing   Op = "aliasing"
	OpUAV        Op = "uav"
	OpCommit     Op = "commit"
	OpForget     Op = "forget"
	// Checks the tracked state of a resource as of the last commit.
	OpExpect Op = "expect"
)

var ErrInvalidTrace = errors.New("invalid trace")

// ResourceSpec declares a resource used by the trace.
type ResourceSpec struct {
	Name         string                  `toml:"name"`
	Kind         metadata.ResourceKind   `toml:"kind"`
	MipLevels    uint32                  `toml:"mip_levels"`
	ArrayLayers  uint32                  `toml:"array_layers"`
	InitialState *metadata.ResourceState `toml:"initial_state"`
}

// Command is one recorded call. Subresources are given either as an index
// (-1 for the whole resource) or as a mip level and array layer; neither
// means the whole resource.
type Command struct {
	Op          Op                     `toml:"op"`
	Resource    string                 `toml:"resource"`
	After       string                 `toml:"after"`
	State       metadata.ResourceState `toml:"state"`
	Subresource *int64                 `toml:"subresource"`
	Mip         *uint32                `toml:"mip"`
	Layer       *uint32                `toml:"layer"`
	Flags       metadata.BarrierFlags  `toml:"flags"`
}

// CommandList is recorded in its own session.
type CommandList struct {
	Name     string    `toml:"name"`
	Commands []Command `toml:"commands"`
}

type Trace struct {
	Name      string         `toml:"name"`
	Resources []ResourceSpec `toml:"resources"`
	Lists     []CommandList  `toml:"lists"`
}

func LoadTrace(path string) (*Trace, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	tr, err := ParseTrace(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if tr.Name == "" {
		tr.Name = path
	}
	return tr, nil
}

func ParseTrace(data []byte) (*Trace, error) {
	var tr Trace
	dec := toml.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&tr); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidTrace, err)
	}
	if err := tr.Validate(); err != nil {
		return nil, err
	}
	return &tr, nil
}

// Validate checks the trace is self-consistent. Subresource ranges are
// checked when the trace is compiled against its resources.
func (tr *Trace) Validate() error {
	names := make(map[string]struct{}, len(tr.Resources))
	for i, r := range tr.Resources {
		if r.Name == "" {
			return fmt.Errorf("%w: resources[%d] has no name", ErrInvalidTrace, i)
		}
		if _, dup := names[r.Name]; dup {
			return fmt.Errorf("%w: resource %q declared twice", ErrInvalidTrace, r.Name)
		}
		names[r.Name] = struct{}{}
	}

	for _, l := range tr.Lists {
		for i, c := range l.Commands {
			if err := c.validate(names); err != nil {
				return fmt.Errorf("%w: list %q command %d: %s", ErrInvalidTrace, l.Name, i, err)
			}
		}
	}
	return nil
}

func (c *Command) validate(names map[string]struct{}) error {
	known := func(n string) error {
		if _, ok := names[n]; !ok {
			return fmt.Errorf("unknown resource %q", n)
		}
		return nil
	}

	switch c.Op {
	case OpCommit:
		return nil
	case OpAliasing:
		if err := known(c.Resource); err != nil {
			return err
		}
		return known(c.After)
	case OpTransition, OpExpect, OpUAV, OpForget:
		if err := known(c.Resource); err != nil {
			return err
		}
	default:
		return fmt.Errorf("unknown op %q", c.Op)
	}

	if c.Subresource != nil && (c.Mip != nil || c.Layer != nil) {
		return errors.New("subresource and mip/layer are exclusive")
	}
	if c.Subresource != nil && (*c.Subresource < -1 || *c.Subresource >= int64(metadata.AllSubresources)) {
		return fmt.Errorf("subresource %d out of range", *c.Subresource)
	}
	return nil
}

// subresource resolves the subresource c addresses on desc.
func (c *Command) subresource(desc metadata.ResourceDescription) (metadata.Subresource, error) {
	switch {
	case c.Mip != nil || c.Layer != nil:
		var mip, layer uint32
		if c.Mip != nil {
			mip = *c.Mip
		}
		if c.Layer != nil {
			layer = *c.Layer
		}
		return desc.SubresourceIndex(mip, layer)
	case c.Subresource == nil || *c.Subresource == -1:
		return metadata.AllSubresources, nil
	}
	sub := metadata.Subresource(*c.Subresource)
	if uint32(sub) >= desc.SubresourceCount() {
		return 0, fmt.Errorf("subresource %d out of range for %q (%d subresources)", sub, desc.Name, desc.SubresourceCount())
	}
	return sub, nil
}
