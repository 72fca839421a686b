// Package renderer produces preview frames by casting primary and shadow rays
// against a scene acceleration structure.
package renderer

import (
	"image"
	"image/color"
	"sync/atomic"
	"time"

	"github.com/chewxy/math32"

	"github.com/achilleasa/polaris-accel/bvh"
	"github.com/achilleasa/polaris-accel/log"
	"github.com/achilleasa/polaris-accel/parallel"
	"github.com/achilleasa/polaris-accel/types"
)

const (
	// Shadow ray origins are pushed off the surface by this amount.
	shadowBias float32 = 1e-3

	// Shading factor for surfaces facing away from the light or in shadow.
	ambient float32 = 0.2
)

// Scene is implemented by anything that answers ray queries.
type Scene interface {
	Intersect(ray *types.Ray) bool
	IntersectHit(ray *types.Ray, isect *bvh.Interaction) bool
}

type Renderer struct {
	logger log.Logger

	scene  Scene
	camera *Camera
	opts   Options

	lightDir types.Vec3
	stats    FrameStats
}

// Create a renderer for the given scene and camera.
func New(sc Scene, camera *Camera, opts Options) (*Renderer, error) {
	if sc == nil {
		return nil, ErrSceneNotDefined
	}
	if camera == nil {
		return nil, ErrCameraNotDefined
	}
	if opts.FrameW == 0 || opts.FrameH == 0 {
		return nil, ErrInvalidFrameSize
	}
	if opts.TileSize == 0 {
		opts.TileSize = defaultTileSize
	}

	lightDir := opts.LightDir
	if lightDir.Len() == 0 {
		lightDir = types.XYZ(1, 1, 1)
	}

	camera.SetupProjection(float32(opts.FrameW) / float32(opts.FrameH))

	return &Renderer{
		logger:   log.New("renderer"),
		scene:    sc,
		camera:   camera,
		opts:     opts,
		lightDir: lightDir.Normalize(),
	}, nil
}

// Render a frame. Tiles are traced in parallel on the process-wide pool.
func (r *Renderer) Render() (*image.RGBA, error) {
	start := time.Now()

	frameW, frameH := int(r.opts.FrameW), int(r.opts.FrameH)
	tileSize := int(r.opts.TileSize)
	tilesX := (frameW + tileSize - 1) / tileSize
	tilesY := (frameH + tileSize - 1) / tileSize

	frame := image.NewRGBA(image.Rect(0, 0, frameW, frameH))

	var primary, shadow, hits, occluded atomic.Uint64
	parallel.For2D(tilesX, tilesY, func(tx, ty int) {
		var counts tileCounts
		x0, y0 := tx*tileSize, ty*tileSize
		x1, y1 := min(x0+tileSize, frameW), min(y0+tileSize, frameH)
		for y := y0; y < y1; y++ {
			for x := x0; x < x1; x++ {
				frame.SetRGBA(x, y, r.shadePixel(x, y, &counts))
			}
		}

		primary.Add(counts.primary)
		shadow.Add(counts.shadow)
		hits.Add(counts.hits)
		occluded.Add(counts.occluded)
	})

	r.stats = FrameStats{
		FrameW:      r.opts.FrameW,
		FrameH:      r.opts.FrameH,
		Tiles:       tilesX * tilesY,
		PrimaryRays: primary.Load(),
		ShadowRays:  shadow.Load(),
		Hits:        hits.Load(),
		Occluded:    occluded.Load(),
		RenderTime:  time.Since(start),
	}
	r.logger.Debugf("rendered %dx%d frame (%d tiles) in %s", frameW, frameH, r.stats.Tiles, r.stats.RenderTime)

	return frame, nil
}

// Get statistics for the last rendered frame.
func (r *Renderer) Stats() FrameStats {
	return r.stats
}

type tileCounts struct {
	primary, shadow, hits, occluded uint64
}

// Trace the primary ray for a pixel and map the shading normal of the closest
// hit to a color.
func (r *Renderer) shadePixel(x, y int, counts *tileCounts) color.RGBA {
	s := (float32(x) + 0.5) / float32(r.opts.FrameW)
	t := (float32(y) + 0.5) / float32(r.opts.FrameH)
	ray := r.camera.Ray(s, t)

	counts.primary++
	var isect bvh.Interaction
	if !r.scene.IntersectHit(&ray, &isect) {
		return color.RGBA{A: 255}
	}
	counts.hits++

	// Face normals towards the viewer.
	n, ns := isect.N, isect.Ns
	if n.Dot(ray.Dir) > 0 {
		n = n.Mul(-1)
	}
	if ns.Dot(ray.Dir) > 0 {
		ns = ns.Mul(-1)
	}

	shade := float32(1)
	if r.opts.Shadows {
		lambert := math32.Max(ns.Dot(r.lightDir), 0)
		if lambert > 0 {
			counts.shadow++
			shadowRay := types.NewRay(isect.P.Add(n.Mul(shadowBias)), r.lightDir)
			if r.scene.Intersect(&shadowRay) {
				counts.occluded++
				lambert = 0
			}
		}
		shade = ambient + (1-ambient)*lambert
	}

	return color.RGBA{
		R: toByte(0.5 * (ns[0] + 1) * shade),
		G: toByte(0.5 * (ns[1] + 1) * shade),
		B: toByte(0.5 * (ns[2] + 1) * shade),
		A: 255,
	}
}

func toByte(v float32) uint8 {
	return uint8(math32.Min(math32.Max(v, 0), 1)*255 + 0.5)
}
