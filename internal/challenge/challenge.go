// Package challenge implements the filter -> map -> reduce numeric pipeline
// run over one integer column of a sales table.
package challenge

import (
	"errors"
	"math"
)

// ErrOverflow is returned when a square or the running sum leaves the int64 range.
var ErrOverflow = errors.New("sum of squares exceeds int64 range")

// maxRoot is the largest magnitude whose square fits in an int64.
const maxRoot = 3037000499

// Result is the outcome of Analyze.
type Result struct {
	SumOfSquares int64
	Count        int64
	IntegerMean  int64
}

// Filter returns the elements of in for which keep is true, in order.
func Filter[T any](in []T, keep func(T) bool) []T {
	out := make([]T, 0, len(in))
	for _, v := range in {
		if keep(v) {
			out = append(out, v)
		}
	}
	return out
}

// Map applies fn to every element of in.
func Map[T, U any](in []T, fn func(T) U) []U {
	out := make([]U, len(in))
	for i, v := range in {
		out[i] = fn(v)
	}
	return out
}

// Reduce folds in from the left starting at init.
func Reduce[T, A any](in []T, init A, fn func(A, T) A) A {
	acc := init
	for _, v := range in {
		acc = fn(acc, v)
	}
	return acc
}

type sumCount struct {
	sum      int64
	count    int64
	overflow bool
}

// Analyze keeps the even values strictly greater than threshold, squares
// them and reports their sum, count and floor mean. It fails with ErrOverflow
// instead of wrapping.
func Analyze(values []int64, threshold int64) (Result, error) {
	kept := Filter(values, func(v int64) bool {
		return v%2 == 0 && v > threshold
	})
	squares := Map(kept, func(v int64) uint64 {
		if v > maxRoot || v < -maxRoot {
			return math.MaxUint64
		}
		return uint64(v * v)
	})
	acc := Reduce(squares, sumCount{}, func(acc sumCount, v uint64) sumCount {
		if acc.overflow || v > uint64(math.MaxInt64-acc.sum) {
			return sumCount{count: acc.count + 1, overflow: true}
		}
		return sumCount{sum: acc.sum + int64(v), count: acc.count + 1}
	})
	if acc.overflow {
		return Result{}, ErrOverflow
	}

	res := Result{SumOfSquares: acc.sum, Count: acc.count}
	if acc.count > 0 {
		// squares are non-negative, so truncation is floor
		res.IntegerMean = acc.sum / acc.count
	}
	return res, nil
}
