package scene

import "errors"

var (
	ErrInvalidMesh      = errors.New("scene: invalid mesh")
	ErrInvalidSceneFile = errors.New("scene: invalid scene file")
)
