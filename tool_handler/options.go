package toolhandler

import (
	"context"

	"github.com/w-h-a/memory/internal/service/memory"
)

type Option func(*Options)

type Options struct {
	Context context.Context
}

func NewOptions(opts ...Option) Options {
	options := Options{
		Context: context.Background(),
	}
	for _, opt := range opts {
		opt(&options)
	}
	return options
}

type serviceKey struct{}

func WithService(svc *memory.Service) Option {
	return func(o *Options) {
		o.Context = context.WithValue(o.Context, serviceKey{}, svc)
	}
}

func ServiceFrom(ctx context.Context) (*memory.Service, bool) {
	svc, ok := ctx.Value(serviceKey{}).(*memory.Service)
	return svc, ok
}
