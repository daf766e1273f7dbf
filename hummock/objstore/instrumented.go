// Copyright 2024 The Hummock Authors
// This file is part of hummock.

package objstore

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Instrumented wraps an ObjectStore and records call latency and byte
// counters, the way the table layer's object-store traffic would be
// surfaced to an operator dashboard in production.
type Instrumented struct {
	inner ObjectStore

	latency     *prometheus.HistogramVec
	bytesRead   prometheus.Counter
	bytesWriten prometheus.Counter
	errors      *prometheus.CounterVec
}

// NewInstrumented wraps inner, registering its metrics against reg. reg may
// be nil to use the default registerer.
func NewInstrumented(inner ObjectStore, reg prometheus.Registerer) *Instrumented {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	i := &Instrumented{
		inner: inner,
		latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "hummock",
			Subsystem: "objstore",
			Name:      "call_duration_seconds",
			Help:      "Latency of object store calls by operation.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"op"}),
		bytesRead: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "hummock",
			Subsystem: "objstore",
			Name:      "bytes_read_total",
			Help:      "Total bytes read from the object store.",
		}),
		bytesWriten: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "hummock",
			Subsystem: "objstore",
			Name:      "bytes_written_total",
			Help:      "Total bytes written to the object store.",
		}),
		errors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "hummock",
			Subsystem: "objstore",
			Name:      "errors_total",
			Help:      "Object store call failures by operation.",
		}, []string{"op"}),
	}
	reg.MustRegister(i.latency, i.bytesRead, i.bytesWriten, i.errors)
	return i
}

func (i *Instrumented) observe(op string, start time.Time, err error) {
	i.latency.WithLabelValues(op).Observe(time.Since(start).Seconds())
	if err != nil {
		i.errors.WithLabelValues(op).Inc()
	}
}

func (i *Instrumented) Upload(ctx context.Context, path string, data []byte) error {
	start := time.Now()
	err := i.inner.Upload(ctx, path, data)
	i.observe("upload", start, err)
	if err == nil {
		i.bytesWriten.Add(float64(len(data)))
	}
	return err
}

func (i *Instrumented) Read(ctx context.Context, path string, r *ByteRange) ([]byte, error) {
	start := time.Now()
	data, err := i.inner.Read(ctx, path, r)
	i.observe("read", start, err)
	if err == nil {
		i.bytesRead.Add(float64(len(data)))
	}
	return data, err
}

func (i *Instrumented) Readv(ctx context.Context, path string, ranges []ByteRange) ([][]byte, error) {
	start := time.Now()
	data, err := i.inner.Readv(ctx, path, ranges)
	i.observe("readv", start, err)
	if err == nil {
		for _, d := range data {
			i.bytesRead.Add(float64(len(d)))
		}
	}
	return data, err
}

func (i *Instrumented) Metadata(ctx context.Context, path string) (Metadata, error) {
	start := time.Now()
	md, err := i.inner.Metadata(ctx, path)
	i.observe("metadata", start, err)
	return md, err
}

func (i *Instrumented) Delete(ctx context.Context, path string) error {
	start := time.Now()
	err := i.inner.Delete(ctx, path)
	i.observe("delete", start, err)
	return err
}
