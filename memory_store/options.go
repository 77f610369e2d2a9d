package memorystore

import (
	"context"

	"github.com/w-h-a/memory/memory_store/providers/embedder"
)

type Option func(*Options)

type Options struct {
	Location      string
	Collection    string
	Distance      string
	EmbeddingSize int
	Embedder      embedder.Embedder
	Context       context.Context
}

func WithLocation(loc string) Option {
	return func(o *Options) {
		o.Location = loc
	}
}

func WithCollection(name string) Option {
	return func(o *Options) {
		o.Collection = name
	}
}

func WithDistance(distance string) Option {
	return func(o *Options) {
		o.Distance = distance
	}
}

func WithEmbeddingSize(size int) Option {
	return func(o *Options) {
		o.EmbeddingSize = size
	}
}

func WithEmbedder(e embedder.Embedder) Option {
	return func(o *Options) {
		o.Embedder = e
	}
}

func NewOptions(opts ...Option) Options {
	options := Options{
		Distance: "cosine",
		Context:  context.Background(),
	}
	for _, opt := range opts {
		opt(&options)
	}
	return options
}
