// Package interactive runs the dashboard's render loop: it reads keys and
// wheel events, folds queued events into the dashboard state and redraws
// the screen at a fixed rate.
package interactive
