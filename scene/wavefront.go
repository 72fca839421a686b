package scene

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/achilleasa/polaris-accel/asset"
	"github.com/achilleasa/polaris-accel/log"
	"github.com/achilleasa/polaris-accel/types"
)

// View describes a camera placement loaded from a scene file.
type View struct {
	FOV  float32
	Eye  types.Vec3
	Look types.Vec3
	Up   types.Vec3
}

// Collects the faces of a single wavefront object into an indexed mesh.
type meshBuilder struct {
	name string

	// Maps a (vertex, uv, normal, face) tuple to a mesh vertex. The face
	// slot is only set when the face does not provide a normal.
	remap map[[4]int]uint32

	positions []types.Vec3
	normals   []types.Vec3
	uvs       []types.Vec2
	indices   []uint32

	hasNormals bool
	hasUVs     bool
	faces      int
}

func newMeshBuilder(name string) *meshBuilder {
	return &meshBuilder{
		name:  name,
		remap: make(map[[4]int]uint32),
	}
}

func (mb *meshBuilder) vertex(key [4]int, pos, normal types.Vec3, uv types.Vec2) uint32 {
	if index, exists := mb.remap[key]; exists {
		return index
	}

	index := uint32(len(mb.positions))
	mb.positions = append(mb.positions, pos)
	mb.normals = append(mb.normals, normal)
	mb.uvs = append(mb.uvs, uv)
	mb.remap[key] = index
	return index
}

func (mb *meshBuilder) mesh() *Mesh {
	mesh := &Mesh{
		Name:      mb.name,
		Shading:   FlatShading,
		Positions: mb.positions,
		Indices:   mb.indices,
	}
	if mb.hasNormals {
		mesh.Shading = SmoothShading
		mesh.Normals = mb.normals
	}
	if mb.hasUVs {
		mesh.UVs = mb.uvs
	}
	return mesh
}

type wavefrontSceneReader struct {
	logger log.Logger

	scene *Scene
	cur   *meshBuilder
	view  View

	hasView bool

	// List of vertices, normals and uv coords.
	vertexList []types.Vec3
	normalList []types.Vec3
	uvList     []types.Vec2

	// An error stack that provides additional error information when
	// scene files include other files.
	errStack []string
}

func newWavefrontReader() *wavefrontSceneReader {
	return &wavefrontSceneReader{
		logger: log.New("wavefront scene reader"),
		scene:  New(),
		view: View{
			FOV:  45,
			Look: types.Vec3{0, 0, -1},
			Up:   types.Vec3{0, 1, 0},
		},
	}
}

// Load a scene from a local or remote (http/https) wavefront obj file. Only
// geometry and camera directives are processed.
func LoadWavefront(location string) (*Scene, error) {
	res, err := asset.Open(location, nil)
	if err != nil {
		return nil, err
	}
	defer res.Close()

	return readWavefront(res)
}

// Read a wavefront obj scene from r. The path is used for error messages and
// for resolving "call" directives.
func ReadWavefront(r io.Reader, path string) (*Scene, error) {
	return readWavefront(asset.FromStream(path, r))
}

func readWavefront(res *asset.Resource) (*Scene, error) {
	reader := newWavefrontReader()
	reader.logger.Noticef(`parsing scene from "%s"`, res.Path())
	start := time.Now()

	if err := reader.parse(res); err != nil {
		return nil, err
	}
	reader.flushMesh()

	if reader.hasView {
		view := reader.view
		reader.scene.View = &view
	}

	reader.logger.Noticef("parsed %d meshes in %d ms", reader.scene.MeshCount(), time.Since(start).Nanoseconds()/1e6)
	return reader.scene, nil
}

// Generate an error message that also includes any data in the error stack.
func (r *wavefrontSceneReader) emitError(file string, line int, msgFormat string, args ...interface{}) error {
	msg := fmt.Sprintf(msgFormat, args...)
	return fmt.Errorf(
		"%w: %s",
		ErrInvalidSceneFile,
		strings.Trim(fmt.Sprintf("[%s: %d] %s\n%s", file, line, msg, strings.Join(r.errStack, "\n")), "\n"),
	)
}

func (r *wavefrontSceneReader) pushFrame(msg string) {
	r.errStack = append([]string{msg}, r.errStack...)
}

func (r *wavefrontSceneReader) popFrame() {
	r.errStack = r.errStack[1:]
}

// Add the mesh being parsed to the scene, dropping it if it has no faces.
func (r *wavefrontSceneReader) flushMesh() {
	if r.cur == nil {
		return
	}
	if r.cur.faces == 0 {
		r.logger.Warningf(`dropping mesh "%s" as it contains no polygons`, r.cur.name)
	} else {
		r.scene.AddMesh(r.cur.mesh())
	}
	r.cur = nil
}

func (r *wavefrontSceneReader) parse(res *asset.Resource) error {
	path := res.Path()
	var lineNum int
	var err error

	// Included files use indices relative to their own coordinate lists.
	relVertexOffset := len(r.vertexList)
	relUvOffset := len(r.uvList)
	relNormalOffset := len(r.normalList)

	scanner := bufio.NewScanner(res)
	for scanner.Scan() {
		lineNum++
		lineTokens := strings.Fields(scanner.Text())
		if len(lineTokens) == 0 || strings.HasPrefix(lineTokens[0], "#") {
			continue
		}

		switch lineTokens[0] {
		case "call":
			if len(lineTokens) != 2 {
				return r.emitError(path, lineNum, `unsupported syntax for "call"; expected 1 argument; got %d`, len(lineTokens)-1)
			}

			incRes, err := asset.Open(lineTokens[1], res)
			if err != nil {
				return r.emitError(path, lineNum, "%s", err.Error())
			}

			r.pushFrame(fmt.Sprintf("referenced from %s:%d [call]", path, lineNum))
			err = r.parse(incRes)
			incRes.Close()
			if err != nil {
				return err
			}
			r.popFrame()
		case "v":
			v, err := parseVec3(lineTokens)
			if err != nil {
				return r.emitError(path, lineNum, "%s", err.Error())
			}
			r.vertexList = append(r.vertexList, v)
		case "vn":
			v, err := parseVec3(lineTokens)
			if err != nil {
				return r.emitError(path, lineNum, "%s", err.Error())
			}
			r.normalList = append(r.normalList, v)
		case "vt":
			v, err := parseVec2(lineTokens)
			if err != nil {
				return r.emitError(path, lineNum, "%s", err.Error())
			}
			r.uvList = append(r.uvList, v)
		case "g", "o":
			if len(lineTokens) < 2 {
				return r.emitError(path, lineNum, `unsupported syntax for "%s"; expected 1 argument for object name; got %d`, lineTokens[0], len(lineTokens)-1)
			}
			r.flushMesh()
			r.cur = newMeshBuilder(lineTokens[1])
		case "f":
			if r.cur == nil {
				r.cur = newMeshBuilder("default")
			}
			err = r.parseFace(lineTokens, relVertexOffset, relUvOffset, relNormalOffset)
			if err != nil {
				return r.emitError(path, lineNum, "%s", err.Error())
			}
		case "camera_fov":
			r.view.FOV, err = parseFloat32(lineTokens)
			if err != nil {
				return r.emitError(path, lineNum, "%s", err.Error())
			}
			r.hasView = true
		case "camera_eye":
			r.view.Eye, err = parseVec3(lineTokens)
			if err != nil {
				return r.emitError(path, lineNum, "%s", err.Error())
			}
			r.hasView = true
		case "camera_look":
			r.view.Look, err = parseVec3(lineTokens)
			if err != nil {
				return r.emitError(path, lineNum, "%s", err.Error())
			}
			r.hasView = true
		case "camera_up":
			r.view.Up, err = parseVec3(lineTokens)
			if err != nil {
				return r.emitError(path, lineNum, "%s", err.Error())
			}
			r.hasView = true
		default:
			r.logger.Debugf(`[%s: %d] ignoring unsupported directive "%s"`, path, lineNum, lineTokens[0])
		}
	}

	return scanner.Err()
}

// Parse face definition. Each face definitions consists of 3 or 4 arguments,
// one for each vertex. Each one of the vertex arguments is comprised of
// 1, 2 or 3 args separated by a slash character. The following formats are
// supported:
// - vertexIndex
// - vertexIndex/uvIndex
// - vertexIndex//normalIndex
// - vertexIndex/uvIndex/normalIndex
//
// Indices start from 1 and may be negative to indicate
// an offset off the end of the vertex/uv list. Quads are split into two
// triangles.
func (r *wavefrontSceneReader) parseFace(lineTokens []string, relVertexOffset, relUvOffset, relNormalOffset int) error {
	if len(lineTokens) < 4 || len(lineTokens) > 5 {
		return fmt.Errorf(`unsupported syntax for "f"; expected 3 arguments for triangular face or 4 arguments for a quad face; got %d. Select the triangulation option in your exporter`, len(lineTokens)-1)
	}

	var keys [4][4]int
	var vertices [4]types.Vec3
	var normals [4]types.Vec3
	var uv [4]types.Vec2
	var vOffset int
	var err error

	faceIndex := r.cur.faces
	expIndices := 0
	hasNormals := false
	for arg := 0; arg < len(lineTokens)-1; arg++ {
		vTokens := strings.Split(lineTokens[arg+1], "/")

		// The first arg defines the format for the following args
		if arg == 0 {
			expIndices = len(vTokens)
		} else if len(vTokens) != expIndices {
			return fmt.Errorf("expected each face argument to contain %d indices; arg %d contains %d indices", expIndices, arg, len(vTokens))
		}

		// Faces must at least define a vertex coord
		if vTokens[0] == "" {
			return fmt.Errorf("face argument %d does not include a vertex index", arg)
		}

		keys[arg] = [4]int{-1, -1, -1, -1}

		vOffset, err = selectFaceCoordIndex(vTokens[0], len(r.vertexList), relVertexOffset)
		if err != nil {
			return fmt.Errorf("could not parse vertex coord for face argument %d: %s", arg, err.Error())
		}
		vertices[arg] = r.vertexList[vOffset]
		keys[arg][0] = vOffset

		if expIndices > 1 && vTokens[1] != "" {
			vOffset, err = selectFaceCoordIndex(vTokens[1], len(r.uvList), relUvOffset)
			if err != nil {
				return fmt.Errorf("could not parse tex coord for face argument %d: %s", arg, err.Error())
			}
			uv[arg] = r.uvList[vOffset]
			keys[arg][1] = vOffset
			r.cur.hasUVs = true
		}

		if expIndices > 2 && vTokens[2] != "" {
			vOffset, err = selectFaceCoordIndex(vTokens[2], len(r.normalList), relNormalOffset)
			if err != nil {
				return fmt.Errorf("could not parse normal coord for face argument %d: %s", arg, err.Error())
			}
			normals[arg] = r.normalList[vOffset]
			keys[arg][2] = vOffset
			hasNormals = true
		}
	}

	// If no normals are available generate them from the vertices
	if hasNormals {
		r.cur.hasNormals = true
	} else {
		e01 := vertices[1].Sub(vertices[0])
		e02 := vertices[2].Sub(vertices[0])
		faceNormal := e01.Cross(e02).Normalize()
		for arg := range normals {
			normals[arg] = faceNormal
			keys[arg][3] = faceIndex
		}
	}

	var meshIndices [4]uint32
	for arg := 0; arg < len(lineTokens)-1; arg++ {
		meshIndices[arg] = r.cur.vertex(keys[arg], vertices[arg], normals[arg], uv[arg])
	}

	r.cur.indices = append(r.cur.indices, meshIndices[0], meshIndices[1], meshIndices[2])
	if len(lineTokens) == 5 {
		r.cur.indices = append(r.cur.indices, meshIndices[0], meshIndices[2], meshIndices[3])
	}
	r.cur.faces++
	return nil
}

// Given an index for a face coord type (vertex, normal, tex) calculate the
// proper offset into the coord list. Wavefront format can also use negative
// indices to reference elements from the end of the coord list.
func selectFaceCoordIndex(indexToken string, coordListLen int, relOffset int) (int, error) {
	index, err := strconv.ParseInt(indexToken, 10, 32)
	if err != nil {
		return -1, err
	}

	var vOffset int
	if index < 0 {
		vOffset = coordListLen + int(index)
	} else {
		vOffset = relOffset + int(index-1)
	}

	if vOffset < 0 || vOffset >= coordListLen {
		return -1, fmt.Errorf("index out of bounds")
	}

	return vOffset, nil
}

func parseFloat32(lineTokens []string) (float32, error) {
	if len(lineTokens) < 2 {
		return 0, fmt.Errorf(`unsupported syntax for "%s"; expected 1 argument; got %d`, lineTokens[0], len(lineTokens)-1)
	}

	val, err := strconv.ParseFloat(lineTokens[1], 32)
	if err != nil {
		return 0, err
	}

	return float32(val), nil
}

// Parse a Vec3 row.
func parseVec3(lineTokens []string) (types.Vec3, error) {
	if len(lineTokens) < 4 {
		return types.Vec3{}, fmt.Errorf(`unsupported syntax for "%s"; expected 3 arguments; got %d`, lineTokens[0], len(lineTokens)-1)
	}

	v := types.Vec3{}
	for tokIdx := 1; tokIdx <= 3; tokIdx++ {
		coord, err := strconv.ParseFloat(lineTokens[tokIdx], 32)
		if err != nil {
			return v, err
		}
		v[tokIdx-1] = float32(coord)
	}
	return v, nil
}

// Parse a Vec2 row.
func parseVec2(lineTokens []string) (types.Vec2, error) {
	if len(lineTokens) < 3 {
		return types.Vec2{}, fmt.Errorf(`unsupported syntax for "%s"; expected 2 arguments; got %d`, lineTokens[0], len(lineTokens)-1)
	}

	v := types.Vec2{}
	for tokIdx := 1; tokIdx <= 2; tokIdx++ {
		coord, err := strconv.ParseFloat(lineTokens[tokIdx], 32)
		if err != nil {
			return v, err
		}
		v[tokIdx-1] = float32(coord)
	}
	return v, nil
}
