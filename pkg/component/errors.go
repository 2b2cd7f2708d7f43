package component

import "errors"

// ErrRenderLoop is returned by Flush when rendering keeps marking
// components dirty for more passes than the scheduler allows.
var ErrRenderLoop = errors.New("component: render loop did not settle")

// ErrDisposed is returned when rendering a component whose owner has been
// disposed.
var ErrDisposed = errors.New("component: owner disposed")
