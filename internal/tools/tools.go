// Package tools holds the demonstration tools served by toolserve.
package tools

import (
	"context"

	"github.com/aretw0/toolserve/pkg/domain"
	"github.com/aretw0/toolserve/pkg/registry"
	"github.com/aretw0/toolserve/pkg/schema"
)

type options struct {
	probe SystemProbe
}

// Option customizes the registered tools.
type Option func(*options)

// WithSystemProbe replaces the gopsutil probe behind get_system_info.
func WithSystemProbe(p SystemProbe) Option {
	return func(o *options) {
		if p != nil {
			o.probe = p
		}
	}
}

// Register adds add, list_files and get_system_info to reg, in that order.
func Register(reg *registry.Registry, opts ...Option) error {
	o := options{probe: HostProbe(DefaultSampleInterval)}
	for _, opt := range opts {
		opt(&o)
	}

	entries := []registry.Entry{
		{Descriptor: AddDescriptor(), Handler: Add},
		{Descriptor: ListFilesDescriptor(), Handler: ListFiles},
		{Descriptor: SystemInfoDescriptor(), Handler: SystemInfo(o.probe)},
	}
	for _, e := range entries {
		if err := reg.Register(e.Descriptor, e.Handler); err != nil {
			return err
		}
	}
	return nil
}

// AddDescriptor describes add(a, b).
func AddDescriptor() domain.Descriptor {
	return domain.NewDescriptor("add", "Add two numbers", domain.TypeInteger,
		domain.Required("a", domain.TypeInteger, ""),
		domain.Required("b", domain.TypeInteger, ""),
	)
}

// Add returns a + b, or a failure when the sum does not fit in an int64.
func Add(_ context.Context, args schema.Args) domain.Result {
	a, b := args.Int("a"), args.Int("b")
	sum := a + b
	if (a > 0 && b > 0 && sum < 0) || (a < 0 && b < 0 && sum >= 0) {
		return domain.Failuref("%d + %d overflows a 64-bit integer", a, b)
	}
	return domain.Success(sum)
}
