package scene

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/achilleasa/polaris-accel/bvh"
	"github.com/achilleasa/polaris-accel/types"
)

func TestVec3Parser(t *testing.T) {
	expError := `unsupported syntax for "v"; expected 3 arguments; got 0`
	_, err := parseVec3([]string{"v"})
	if err == nil || err.Error() != expError {
		t.Fatalf("expected to get %s; got %v", expError, err)
	}

	_, err = parseVec3([]string{"v", "not-a-float", "2", "3"})
	if err == nil {
		t.Fatal("expected to get a parse error")
	}

	v, err := parseVec3([]string{"v", "3.14", "0", "0.4"})
	if err != nil {
		t.Fatal(err)
	}

	expVal := types.Vec3{3.14, 0, 0.4}
	if !reflect.DeepEqual(v, expVal) {
		t.Fatalf("expected parsed value to be %v; got %v", expVal, v)
	}
}

func TestSelectFaceCoordinate(t *testing.T) {
	expError := "index out of bounds"
	type spec struct {
		in        string
		listLen   int
		relOffset int
		out       int
		expError  string
	}
	specs := []spec{
		{"2", 1, 0, -1, expError},
		{"-2", 1, 0, -1, expError},
		{"1", 10, 0, 0, ""}, // indices are 1-based
		{"-1", 10, 0, 9, ""},
		{"1", 10, 4, 4, ""},
	}

	for idx, s := range specs {
		v, err := selectFaceCoordIndex(s.in, s.listLen, s.relOffset)
		if s.expError != "" && (err == nil || err.Error() != s.expError) {
			t.Fatalf("[spec %d] expected error %s; got %v", idx, s.expError, err)
		} else if v != s.out {
			t.Fatalf("[spec %d] expected index to be %d; got %d", idx, s.out, v)
		}
	}
}

func TestParseSingleFacedObject(t *testing.T) {
	payload := `
o testObj
v 0 0 0
v 1 0 0
v 0 1 0
vn 1 0 0
vt 0 0
vn 0 1 0
vt 0 1
vn 0 1 0
vt 1 0
vn 0 0 1
# Comment
f 1/1/1 2/2/2 -1/-1/-1
`

	sc, err := ReadWavefront(strings.NewReader(payload), "test.obj")
	if err != nil {
		t.Fatal(err)
	}

	if sc.MeshCount() != 1 {
		t.Fatalf("expected 1 mesh to be parsed; got %d", sc.MeshCount())
	}
	mesh := sc.Mesh(0)
	if mesh.Name != "testObj" {
		t.Fatalf("expected mesh name to be 'testObj'; got %s", mesh.Name)
	}
	if mesh.Shading != SmoothShading {
		t.Fatal("expected mesh with normals to use smooth shading")
	}

	expPoints := []types.Vec3{{0, 0, 0}, {1, 0, 0}, {0, 1, 0}}
	expNormals := []types.Vec3{{1, 0, 0}, {0, 1, 0}, {0, 0, 1}}
	expUVs := []types.Vec2{{0, 0}, {0, 1}, {1, 0}}
	if !reflect.DeepEqual(mesh.Positions, expPoints) {
		t.Fatalf("expected positions %v; got %v", expPoints, mesh.Positions)
	}
	if !reflect.DeepEqual(mesh.Normals, expNormals) {
		t.Fatalf("expected normals %v; got %v", expNormals, mesh.Normals)
	}
	if !reflect.DeepEqual(mesh.UVs, expUVs) {
		t.Fatalf("expected uvs %v; got %v", expUVs, mesh.UVs)
	}
	if !reflect.DeepEqual(mesh.Indices, []uint32{0, 1, 2}) {
		t.Fatalf("expected indices [0 1 2]; got %v", mesh.Indices)
	}
	if sc.View != nil {
		t.Fatalf("expected no view to be defined; got %+v", sc.View)
	}
}

func TestParseQuadsAndObjects(t *testing.T) {
	payload := `
camera_fov 60
camera_eye 0 2 10
camera_look 0 0 0
v -1 0 -1
v 1 0 -1
v 1 0 1
v -1 0 1
v 0 1 0
f 1 2 3 4

o empty

o pyramid
f 1 2 5
f 2 3 5
usemtl ignored
`

	sc, err := ReadWavefront(strings.NewReader(payload), "test.obj")
	if err != nil {
		t.Fatal(err)
	}

	if sc.MeshCount() != 2 {
		t.Fatalf("expected empty object to be dropped leaving 2 meshes; got %d", sc.MeshCount())
	}

	floor, pyramid := sc.Mesh(0), sc.Mesh(1)
	if floor.Name != "default" || floor.TriangleCount() != 2 || len(floor.Positions) != 4 {
		t.Fatalf("expected default mesh with 2 triangles sharing 4 vertices; got %q, %d, %d", floor.Name, floor.TriangleCount(), len(floor.Positions))
	}
	if floor.Shading != FlatShading || floor.Normals != nil || floor.UVs != nil {
		t.Fatal("expected mesh without attributes to use flat shading")
	}
	if pyramid.Name != "pyramid" || pyramid.TriangleCount() != 2 {
		t.Fatalf("expected pyramid mesh with 2 triangles; got %q, %d", pyramid.Name, pyramid.TriangleCount())
	}

	expView := View{FOV: 60, Eye: types.Vec3{0, 2, 10}, Look: types.Vec3{0, 0, 0}, Up: types.Vec3{0, 1, 0}}
	if sc.View == nil || *sc.View != expView {
		t.Fatalf("expected view %+v; got %+v", expView, sc.View)
	}

	if err := sc.Build(bvh.Options{}); err != nil {
		t.Fatal(err)
	}
	ray := types.NewRay(types.XYZ(-0.5, 5, 0.5), types.XYZ(0, -1, 0))
	var isect bvh.Interaction
	if !sc.IntersectHit(&ray, &isect) || isect.Mesh != 0 {
		t.Fatalf("expected ray to hit the floor; got mesh %d", isect.Mesh)
	}
}

func TestParseErrors(t *testing.T) {
	specs := []string{
		"v 1 2",
		"v 0 0 0\nf 1 2 3",
		"v 0 0 0\nv 1 0 0\nv 0 1 0\nf 1/1 2 3",
		"v 0 0 0\nv 1 0 0\nv 0 1 0\nv 1 1 0\nv 2 2 0\nf 1 2 3 4 5",
		"o",
		"call",
	}

	for idx, payload := range specs {
		_, err := ReadWavefront(strings.NewReader(payload), "broken.obj")
		if !errors.Is(err, ErrInvalidSceneFile) {
			t.Fatalf("[spec %d] expected ErrInvalidSceneFile; got %v", idx, err)
		}
		if !strings.Contains(err.Error(), "[broken.obj: ") {
			t.Fatalf("[spec %d] expected error to include file and line; got %v", idx, err)
		}
	}
}

func TestLoadWithIncludes(t *testing.T) {
	dir := t.TempDir()
	main := `
v 5 5 5
o tri
call part.obj
`
	part := `
v 0 0 0
v 1 0 0
v 0 1 0
f 1 2 3
`
	if err := os.WriteFile(filepath.Join(dir, "main.obj"), []byte(main), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "part.obj"), []byte(part), 0o644); err != nil {
		t.Fatal(err)
	}

	sc, err := LoadWavefront(filepath.Join(dir, "main.obj"))
	if err != nil {
		t.Fatal(err)
	}
	if sc.MeshCount() != 1 {
		t.Fatalf("expected 1 mesh; got %d", sc.MeshCount())
	}

	// Indices inside the included file are relative to its own vertices.
	expPoints := []types.Vec3{{0, 0, 0}, {1, 0, 0}, {0, 1, 0}}
	if got := sc.Mesh(0).Positions; !reflect.DeepEqual(got, expPoints) {
		t.Fatalf("expected positions %v; got %v", expPoints, got)
	}

	if _, err := LoadWavefront(filepath.Join(dir, "missing.obj")); err == nil {
		t.Fatal("expected an error for a missing file")
	}
}
