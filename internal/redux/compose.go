package redux

import "context"

// Reducer is a pure state transition. It must be total: actions it does not
// recognize return the input state unchanged.
type Reducer[S any] func(state S, action Action) S

// Dispatcher is the capability handed to middleware.
type Dispatcher interface {
	// Dispatch queues a follow-up action.
	Dispatch(Action)
	// Go runs fn on its own goroutine. ctx is cancelled when the owner closes.
	Go(fn func(ctx context.Context))
}

// Middleware observes an action before the reducer runs. It never mutates
// state; side effects report back through d.
type Middleware[S any] func(state S, action Action, d Dispatcher)

// Combine folds reducers left to right into one.
func Combine[S any](reducers ...Reducer[S]) Reducer[S] {
	return func(state S, action Action) S {
		for _, r := range reducers {
			if r != nil {
				state = r(state, action)
			}
		}
		return state
	}
}

// Chain runs middlewares in order against the same state and action.
func Chain[S any](middlewares ...Middleware[S]) Middleware[S] {
	return func(state S, action Action, d Dispatcher) {
		for _, mw := range middlewares {
			if mw != nil {
				mw(state, action, d)
			}
		}
	}
}

// Identity is the reducer that recognizes nothing.
func Identity[S any](state S, _ Action) S { return state }
