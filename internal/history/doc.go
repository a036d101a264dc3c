// Package history executes script events and keeps the undo/redo stacks.
//
// Execute runs an event's Do. Render-thread events are posted to the
// configured render.Poster; other events run on the caller. Transient events
// are shut down and dropped after Do. Retained events are pushed on the undo
// stack, which clears the redo stack.
//
//	stack := history.New(100, history.WithPoster(queue))
//
//	stack.Execute(ctx, "GrayGradient", ev, meta.Flags())
//	stack.Undo(ctx)
//	stack.Redo(ctx)
//
// The stacks are bounded. When the undo stack overflows, the oldest entry is
// evicted and shut down; entries discarded from the redo stack are shut
// down too. A failing Do, Undo or ShutDown is logged and returned; the
// stack stays usable.
package history
