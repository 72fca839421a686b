package bvh

import "errors"

var (
	ErrNoPrimitives       = errors.New("bvh: no primitives registered")
	ErrUnknownBuildMethod = errors.New("bvh: unknown build method")
)
