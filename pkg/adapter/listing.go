package adapter

import (
	"context"
	"errors"
	"io"
	"iter"

	"go.uber.org/zap"

	"github.com/3leaps/bucketfs/pkg/provider"
)

// DefaultMaxKeys is the listing page size.
const DefaultMaxKeys = 1000

// ObjectIterator walks a key prefix depth-first, one page at a time.
//
// Each call to Next returns one non-empty batch of objects discovered in a
// single backend page. With recursion enabled every subdirectory of a page
// is exhausted before that page's own objects are returned. The iterator is
// not rewindable and must not be shared between goroutines.
type ObjectIterator struct {
	backend   provider.Provider
	recursive bool
	maxKeys   int
	logger    *zap.Logger

	stack []*listFrame
	err   error
}

// listFrame is the traversal state of one prefix.
type listFrame struct {
	prefix string
	marker string

	// fetched is set once the page at marker has been listed and its
	// subdirectories pushed; objects and next hold that page.
	fetched bool
	objects []provider.ObjectSummary
	next    string
}

// listDirObjects returns an iterator over the objects under key prefix.
func (a *Adapter) listDirObjects(prefix string, recursive bool) *ObjectIterator {
	return &ObjectIterator{
		backend:   a.backend,
		recursive: recursive,
		maxKeys:   a.maxKeys,
		logger:    a.logger,
		stack:     []*listFrame{{prefix: prefix}},
	}
}

// Next returns the next batch, or io.EOF when the traversal is complete.
// A backend failure ends the traversal; later calls return the same error.
func (it *ObjectIterator) Next(ctx context.Context) ([]provider.ObjectSummary, error) {
	if it.err != nil {
		return nil, it.err
	}

	for len(it.stack) > 0 {
		top := it.stack[len(it.stack)-1]

		if top.fetched {
			batch := top.objects
			top.fetched, top.objects = false, nil
			if top.next == "" {
				it.stack = it.stack[:len(it.stack)-1]
			} else {
				top.marker = top.next
			}
			if len(batch) > 0 {
				return batch, nil
			}
			continue
		}

		res, err := it.backend.ListObjects(ctx, provider.ListOptions{
			Prefix:    top.prefix,
			Delimiter: Separator,
			MaxKeys:   it.maxKeys,
			Marker:    top.marker,
		})
		if err != nil {
			it.err, it.stack = err, nil
			return nil, err
		}

		it.logger.Debug("Listed page",
			zap.String("prefix", top.prefix),
			zap.Int("objects", len(res.Objects)),
			zap.Int("prefixes", len(res.CommonPrefixes)),
			zap.Bool("more", res.NextMarker != ""))

		top.fetched, top.objects, top.next = true, res.Objects, res.NextMarker

		if it.recursive {
			// Push in reverse so the first subdirectory is walked first.
			for i := len(res.CommonPrefixes) - 1; i >= 0; i-- {
				it.stack = append(it.stack, &listFrame{prefix: res.CommonPrefixes[i]})
			}
		}
	}

	return nil, io.EOF
}

// All adapts the iterator to a range-over-func sequence. Iteration stops
// after the first error is yielded.
func (it *ObjectIterator) All(ctx context.Context) iter.Seq2[[]provider.ObjectSummary, error] {
	return func(yield func([]provider.ObjectSummary, error) bool) {
		for {
			batch, err := it.Next(ctx)
			if errors.Is(err, io.EOF) {
				return
			}
			if err != nil {
				yield(nil, err)
				return
			}
			if !yield(batch, nil) {
				return
			}
		}
	}
}
