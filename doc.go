// Package mapview is a slippy-map viewer for [Ebitengine].
//
// mapview draws a quad-tree tile pyramid (OpenStreetMap or any {z}/{x}/{y}
// source) with overlay layers on top, and turns mouse, wheel and touch input
// into pan and zoom. Frames are only drawn when something changed: a gesture,
// a finished tile load or an explicit [Renderer.Refresh].
//
// # Quick start
//
// The simplest way to get started is [Run], which opens a window and game
// loop for you:
//
//	err := mapview.Run(mapview.Config{URL: mapview.Presets["osm"].URL},
//		mapview.RunConfig{Title: "Map", Width: 800, Height: 600, ShowFPS: true},
//		func(r *mapview.Renderer) {
//			r.AddLayer(mapview.NewScaleLayer(r, mapview.ScaleLayerConfig{}))
//		})
//
// For full control, embed a [Game] or drive a [Renderer] yourself: call
// [Renderer.Update] once per tick and [Renderer.AnimationFrame] once per
// frame, on the same goroutine.
//
// # Coordinates
//
// World coordinates span [0,Width]×[0,Height] level-0 tiles; with the
// default 1×1 world they are normalized Web Mercator, see [LatLonToWorld].
// A [Location] names the world point at the view center and the view width
// in world units. Surface coordinates are device pixels of the canvas.
//
// # Headless use
//
// [ImageCanvas] renders into an *image.RGBA without a window, which suits
// tests and batch rendering. Combine it with [TileLayer.Idle] to wait for
// every visible tile, and with [Renderer.Screenshot] or a [TestRunner]
// script for visual regression runs.
//
// [Ebitengine]: https://ebitengine.org
package mapview
