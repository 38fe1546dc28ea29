// Package tilebuild implements the "create MBTiles" control flow named in
// §2: walk tiles at each zoom, call the web-tile reader (via
// internal/provider), encode via the raster-tile blob codec (or the
// legacy colored-tile path for debug/preview archives), and hand the
// blob to the MBTiles writer. The fan-out is a worker pool over (z,x,y)
// jobs feeding a single-consumer channel into the writer, per §5's
// concurrency model, built on golang.org/x/sync/errgroup: a direct fit
// for "fan out workers, stop on first error", leaving the single-consumer
// requirement entirely to the mbtiles.Writer.Build side of the channel.
package tilebuild

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/pspoerri/geotiff2raster/internal/logging"
	"github.com/pspoerri/geotiff2raster/internal/mbtiles"
	"github.com/pspoerri/geotiff2raster/internal/provider"
	"github.com/pspoerri/geotiff2raster/internal/rastererr"
	"github.com/pspoerri/geotiff2raster/internal/tilemath"
)

var log = logging.New("tilebuild")

// Progress is polled by the MBTiles writer's single consumer after every
// inserted tile; the same interface internal/mbtiles and
// internal/reassemble already require, so a host can share one
// implementation (e.g. internal/progressbar.Bar) across both pipelines.
type Progress interface {
	Tick()
	Cancelled() bool
}

// Options configures one zoom-range build for a single registered layer.
type Options struct {
	LayerID     string
	MinZoom     int
	MaxZoom     int
	Edge        int
	Concurrency int
	Scheme      mbtiles.Scheme

	// Legacy renders tiles through provider.ColoredTile (PNG/JPEG/WebP via
	// internal/legacytile) instead of the raster-tile blob codec — for
	// building a human-viewable preview MBTiles archive rather than a
	// pixel-accurate data one.
	Legacy       bool
	Legend       provider.Legend
	LegacyFormat string
}

// Build enumerates every tile in opts.MinZoom..opts.MaxZoom intersecting
// the layer's declared WGS84 bounds, renders each one concurrently, and
// drains them into out in arrival order. A render error aborts the
// producers and is returned once out has finished draining and committing
// whatever arrived before the abort (§5: MBTiles accepts a commit-partial
// archive).
func Build(p *provider.Provider, opts Options, out *mbtiles.Writer, meta map[string]string, progress Progress) error {
	layer, err := p.Layer(opts.LayerID)
	if err != nil {
		return err
	}
	if opts.MaxZoom < opts.MinZoom {
		return rastererr.Invalid("tilebuild.Build", "max zoom %d below min zoom %d", opts.MaxZoom, opts.MinZoom)
	}
	concurrency := opts.Concurrency
	if concurrency < 1 {
		concurrency = 1
	}

	tiles := make(chan mbtiles.Tile, concurrency*4)
	buildErr := make(chan error, 1)
	go func() {
		buildErr <- out.Build(tiles, meta, progress)
	}()

	group, ctx := errgroup.WithContext(context.Background())
	group.SetLimit(concurrency)

	for z := opts.MinZoom; z <= opts.MaxZoom; z++ {
		zxys := tilemath.TilesInBounds(z, layer.BoundsWGS84.MinX, layer.BoundsWGS84.MinY, layer.BoundsWGS84.MaxX, layer.BoundsWGS84.MaxY)
		log.Debug().Int("zoom", z).Int("tiles", len(zxys)).Msg("enumerated tiles for zoom level")
		for _, t := range zxys {
			if progress != nil && progress.Cancelled() {
				break
			}
			group.Go(func() error {
				select {
				case <-ctx.Done():
					return ctx.Err()
				default:
				}
				blob, err := renderOne(p, opts, t)
				if err != nil {
					return err
				}
				select {
				case tiles <- mbtiles.Tile{Z: t.Z, X: t.X, Y: t.Y, Blob: blob}:
					return nil
				case <-ctx.Done():
					return ctx.Err()
				}
			})
		}
	}

	renderErr := group.Wait()
	close(tiles)
	commitErr := <-buildErr

	if renderErr != nil && renderErr != context.Canceled {
		return renderErr
	}
	return commitErr
}

func renderOne(p *provider.Provider, opts Options, t tilemath.ZXY) ([]byte, error) {
	if opts.Legacy {
		return p.ColoredTile(opts.LayerID, provider.ColoredTileRequest{
			TileRequest: provider.TileRequest{Z: t.Z, X: t.X, Y: t.Y, Edge: opts.Edge},
			Legend:      opts.Legend,
			Format:      opts.LegacyFormat,
		})
	}
	return p.Tile(opts.LayerID, provider.TileRequest{Z: t.Z, X: t.X, Y: t.Y, Edge: opts.Edge})
}
