package metadata

import "fmt"

type BarrierType int

const (
	/** @brief A usage state transition of one resource or subresource. */
	BarrierTypeTransition BarrierType = iota
	/** @brief Two resources sharing memory swap which one is active. */
	BarrierTypeAliasing
	/** @brief Orders unordered-access reads/writes of a resource. */
	BarrierTypeUAV
)

func (t BarrierType) String() string {
	switch t {
	case BarrierTypeTransition:
		return "transition"
	case BarrierTypeAliasing:
		return "aliasing"
	case BarrierTypeUAV:
		return "uav"
	}
	return fmt.Sprintf("BarrierType(%d)", int(t))
}

/** @brief Split barrier flags. */
type BarrierFlags int

const (
	BarrierFlagsNone BarrierFlags = iota
	/** @brief First half of a split barrier. */
	BarrierFlagsBeginOnly
	/** @brief Second half of a split barrier. */
	BarrierFlagsEndOnly
)

func (f BarrierFlags) String() string {
	switch f {
	case BarrierFlagsNone:
		return "none"
	case BarrierFlagsBeginOnly:
		return "begin_only"
	case BarrierFlagsEndOnly:
		return "end_only"
	}
	return fmt.Sprintf("BarrierFlags(%d)", int(f))
}

func (f BarrierFlags) MarshalText() ([]byte, error) {
	return []byte(f.String()), nil
}

func (f *BarrierFlags) UnmarshalText(text []byte) error {
	switch string(text) {
	case "", "none":
		*f = BarrierFlagsNone
	case "begin_only":
		*f = BarrierFlagsBeginOnly
	case "end_only":
		*f = BarrierFlagsEndOnly
	default:
		return fmt.Errorf("unknown barrier flags %q", string(text))
	}
	return nil
}

type TransitionBarrier struct {
	Resource    ResourceHandle
	Subresource Subresource
	StateBefore ResourceState
	StateAfter  ResourceState
}

type AliasingBarrier struct {
	ResourceBefore ResourceHandle
	ResourceAfter  ResourceHandle
}

type UAVBarrier struct {
	Resource ResourceHandle
}

/**
 * @brief A barrier descriptor as handed to the command recorder. Only the
 * member matching Type is meaningful.
 */
type Barrier struct {
	Type       BarrierType
	Flags      BarrierFlags
	Transition TransitionBarrier
	Aliasing   AliasingBarrier
	UAV        UAVBarrier
}

func NewTransitionBarrier(resource ResourceHandle, sub Subresource, before, after ResourceState, flags BarrierFlags) Barrier {
	return Barrier{
		Type:  BarrierTypeTransition,
		Flags: flags,
		Transition: TransitionBarrier{
			Resource:    resource,
			Subresource: sub,
			StateBefore: before,
			StateAfter:  after,
		},
	}
}

func NewAliasingBarrier(before, after ResourceHandle) Barrier {
	return Barrier{
		Type: BarrierTypeAliasing,
		Aliasing: AliasingBarrier{
			ResourceBefore: before,
			ResourceAfter:  after,
		},
	}
}

func NewUAVBarrier(resource ResourceHandle) Barrier {
	return Barrier{
		Type: BarrierTypeUAV,
		UAV:  UAVBarrier{Resource: resource},
	}
}

func (b Barrier) String() string {
	switch b.Type {
	case BarrierTypeTransition:
		t := b.Transition
		s := fmt.Sprintf("transition #%d[%s] %s -> %s", t.Resource, t.Subresource, t.StateBefore, t.StateAfter)
		if b.Flags != BarrierFlagsNone {
			s += " (" + b.Flags.String() + ")"
		}
		return s
	case BarrierTypeAliasing:
		return fmt.Sprintf("aliasing #%d -> #%d", b.Aliasing.ResourceBefore, b.Aliasing.ResourceAfter)
	case BarrierTypeUAV:
		return fmt.Sprintf("uav #%d", b.UAV.Resource)
	}
	return b.Type.String()
}
